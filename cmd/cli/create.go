package cli

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"time"

	"github.com/axellelanca/shorty/cmd"
	"github.com/axellelanca/shorty/internal/codespace"
	"github.com/axellelanca/shorty/internal/config"
	"github.com/axellelanca/shorty/internal/repository"
	"github.com/axellelanca/shorty/internal/services"
	"github.com/glebarez/sqlite"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	longURLFlag  string
	lifetimeFlag int64
)

// CreateCmd représente la commande 'create'
var CreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Crée une URL courte anonyme à partir d'une URL longue.",
	Long: `Cette commande raccourcit une URL longue fournie et affiche le code court généré.
Le lien créé est anonyme et doit donc porter une durée de vie bornée.

Exemple:
  shorty create --url="https://www.google.com/search?q=go+lang" --lifetime=3600`,
	Run: func(cobraCmd *cobra.Command, args []string) {
		// Valider que le flag --url a été fourni.
		if longURLFlag == "" {
			fmt.Println("Error: --url flag is required")
			os.Exit(1)
		}

		// Validation basique du format de l'URL
		if _, err := url.ParseRequestURI(longURLFlag); err != nil {
			fmt.Printf("Error: Invalid URL format: %v\n", err)
			os.Exit(1)
		}

		// Charger la configuration
		cfg, err := config.LoadConfig()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}

		db, err := gorm.Open(sqlite.Open(cfg.Database.Name), &gorm.Config{TranslateError: true})
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}

		sqlDB, err := db.DB()
		if err != nil {
			log.Fatalf("FATAL: Échec de l'obtention de la base de données SQL sous-jacente: %v", err)
		}
		defer sqlDB.Close()

		// Initialiser les repositories et services nécessaires
		space, err := codespace.New(cfg.App.CodeLength)
		if err != nil {
			log.Fatalf("Failed to initialize code space: %v", err)
		}
		linkRepo := repository.NewLinkRepository(db)
		userRepo := repository.NewUserRepository(db)
		linkService := services.NewLinkService(linkRepo, userRepo, space,
			time.Duration(cfg.App.TemporaryLinkLifetimeSeconds)*time.Second)

		// Lien anonyme : l'expiration est obligatoire.
		expiresAt := time.Now().Add(time.Duration(lifetimeFlag) * time.Second)
		link, err := linkService.CreateLink(longURLFlag, nil, &expiresAt)
		if err != nil {
			log.Fatalf("Failed to create short link: %v", err)
		}

		fullShortURL := fmt.Sprintf("%s/%s", cfg.Server.BaseURL, link.Code)
		fmt.Printf("URL courte créée avec succès:\n")
		fmt.Printf("Code: %s\n", link.Code)
		fmt.Printf("URL complète: %s\n", fullShortURL)
		fmt.Printf("Expire le: %s\n", link.ExpiresAt.Format("2006-01-02 15:04:05"))
	},
}

func init() {
	// Définir les flags pour la commande create.
	CreateCmd.Flags().StringVar(&longURLFlag, "url", "", "The long URL to shorten")
	CreateCmd.Flags().Int64Var(&lifetimeFlag, "lifetime", 3600, "Link lifetime in seconds (anonymous links always expire)")

	// Marquer le flag comme requis
	CreateCmd.MarkFlagRequired("url")

	// Ajouter la commande à RootCmd
	cmd.RootCmd.AddCommand(CreateCmd)
}

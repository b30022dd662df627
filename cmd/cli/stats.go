package cli

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/axellelanca/shorty/cmd"
	"github.com/axellelanca/shorty/internal/config"
	"github.com/axellelanca/shorty/internal/models"
	"github.com/axellelanca/shorty/internal/repository"
	"github.com/axellelanca/shorty/internal/services"
	"github.com/glebarez/sqlite"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// StatsCmd représente la commande 'stats'
var StatsCmd = &cobra.Command{
	Use:   "stats [code]",
	Short: "Get statistics for a short URL",
	Long:  `Get redirect statistics for the provided short code.`,
	Args:  cobra.ExactArgs(1),
	Run:   runStats,
}

func init() {
	cmd.RootCmd.AddCommand(StatsCmd)
}

// runStats exécute la logique pour la commande stats
func runStats(cobraCmd *cobra.Command, args []string) {
	code := args[0]

	// Charger la configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Échec du chargement de la configuration : %v", err)
	}

	// Initialiser la base de données
	db, err := gorm.Open(sqlite.Open(cfg.Database.Name), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("Échec de la connexion à la base de données : %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("FATAL: Échec de l'obtention de la base de données SQL sous-jacente: %v", err)
	}
	defer sqlDB.Close()

	// Initialiser les repositories et services nécessaires
	linkRepo := repository.NewLinkRepository(db)
	redirectRepo := repository.NewRedirectRepository(db)
	redirectService := services.NewRedirectService(redirectRepo)

	// Récupérer le lien, vivant ou expiré : les stats restent consultables.
	link, err := linkRepo.FindByCode(code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			fmt.Printf("Error: Code '%s' not found\n", code)
		} else {
			fmt.Printf("Error retrieving link: %v\n", err)
		}
		os.Exit(1)
	}

	totalRedirects, err := redirectService.TotalCount(link.ID)
	if err != nil {
		fmt.Printf("Error retrieving statistics: %v\n", err)
		os.Exit(1)
	}

	// Afficher les résultats
	fmt.Printf("Statistiques pour le code court: %s\n", code)
	fmt.Printf("URL longue: %s\n", link.URL)
	fmt.Printf("Total de redirections: %d\n", totalRedirects)
	fmt.Printf("Date de création: %s\n", link.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Expiration: %s\n", formatExpiry(link))
}

// formatExpiry rend l'expiration lisible, y compris le cas "jamais".
func formatExpiry(link *models.Link) string {
	if link.ExpiresAt == nil {
		return "jamais"
	}
	if !link.ExpiresAt.After(time.Now()) {
		return fmt.Sprintf("%s (expiré)", link.ExpiresAt.Format("2006-01-02 15:04:05"))
	}
	return link.ExpiresAt.Format("2006-01-02 15:04:05")
}

package server

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/axellelanca/shorty/cmd"
	"github.com/axellelanca/shorty/internal/api"
	"github.com/axellelanca/shorty/internal/codespace"
	"github.com/axellelanca/shorty/internal/config"
	"github.com/axellelanca/shorty/internal/models"
	"github.com/axellelanca/shorty/internal/monitor"
	"github.com/axellelanca/shorty/internal/repository"
	"github.com/axellelanca/shorty/internal/services"
	"github.com/axellelanca/shorty/internal/workers"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// RunServerCmd représente la commande 'run-server' de Cobra.
// C'est le point d'entrée pour lancer le serveur de l'application.
var RunServerCmd = &cobra.Command{
	Use:   "run-server",
	Short: "Lance le serveur API de raccourcissement d'URLs et les processus de fond.",
	Long: `Cette commande initialise la base de données, configure les APIs,
démarre les workers asynchrones pour les redirections et le balayeur de fond,
puis lance le serveur HTTP.`,
	Run: func(cobraCmd *cobra.Command, args []string) {
		// Charger la configuration
		cfg, err := config.LoadConfig()
		if err != nil {
			log.Fatalf("Échec du chargement de la configuration : %v", err)
		}

		// Initialiser la base de données. TranslateError fait remonter les
		// violations d'index unique comme gorm.ErrDuplicatedKey, ce dont le
		// moteur d'allocation dépend pour traiter les collisions.
		db, err := gorm.Open(sqlite.Open(cfg.Database.Name), &gorm.Config{TranslateError: true})
		if err != nil {
			log.Fatalf("Échec de la connexion à la base de données : %v", err)
		}

		// Migration automatique des modèles
		if err := db.AutoMigrate(&models.User{}, &models.Link{}, &models.RedirectEvent{}, &models.RefreshToken{}); err != nil {
			log.Fatalf("Échec de la migration de la base de données : %v", err)
		}

		// Initialiser les repositories
		linkRepo := repository.NewLinkRepository(db)
		redirectRepo := repository.NewRedirectRepository(db)
		userRepo := repository.NewUserRepository(db)
		tokenRepo := repository.NewTokenRepository(db)

		log.Println("Repositories initialisés.")

		// Modèle d'espace de codes : alphabet majuscule, longueur configurée.
		space, err := codespace.New(cfg.App.CodeLength)
		if err != nil {
			log.Fatalf("Échec de l'initialisation de l'espace de codes : %v", err)
		}

		// Initialiser les services métiers
		linkService := services.NewLinkService(linkRepo, userRepo, space,
			time.Duration(cfg.App.TemporaryLinkLifetimeSeconds)*time.Second)
		redirectService := services.NewRedirectService(redirectRepo)
		authService := services.NewAuthService(userRepo, tokenRepo, cfg.Auth.SecretKey,
			time.Duration(cfg.Auth.AccessTokenExpireSeconds)*time.Second,
			time.Duration(cfg.Auth.RefreshTokenExpireSeconds)*time.Second)
		userService := services.NewUserService(userRepo, authService)

		log.Println("Services métiers initialisés.")

		// Initialiser le channel des événements de redirection et lancer les workers.
		redirectEventsChan := make(chan models.RedirectEventMessage, cfg.Analytics.BufferSize)
		api.RedirectEventsChannel = redirectEventsChan
		workers.StartRedirectWorkers(cfg.Analytics.WorkerCount, redirectEventsChan, redirectRepo)

		log.Printf("Channel d'événements de redirection initialisé avec un buffer de %d. %d worker(s) démarré(s).",
			cfg.Analytics.BufferSize, cfg.Analytics.WorkerCount)

		// Initialiser et lancer le balayeur de fond.
		sweepInterval := time.Duration(cfg.Monitor.IntervalMinutes) * time.Minute
		sweeper := monitor.NewSweeper(linkService, tokenRepo, sweepInterval)
		go sweeper.Start()
		log.Printf("Balayeur démarré avec un intervalle de %v.", sweepInterval)

		// Configurer le routeur Gin et les handlers API.
		router := gin.Default()
		api.SetupRoutes(router, cfg, space, linkService, redirectService, userService, authService)

		log.Println("Routes API configurées.")

		// Créer le serveur HTTP Gin
		serverAddr := fmt.Sprintf(":%d", cfg.Server.Port)
		srv := &http.Server{
			Addr:    serverAddr,
			Handler: router,
		}

		// Démarrer le serveur Gin dans une goroutine anonyme pour ne pas bloquer.
		go func() {
			log.Printf("Démarrage du serveur sur %s", serverAddr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("Échec du démarrage du serveur : %v", err)
			}
		}()

		// Gérer l'arrêt propre du serveur (graceful shutdown).
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		<-quit
		log.Println("Signal d'arrêt reçu. Arrêt du serveur...")

		// Laisser le temps aux workers de vider le channel d'événements.
		log.Println("Arrêt en cours... Donnez un peu de temps aux workers pour finir.")
		time.Sleep(5 * time.Second)

		log.Println("Serveur arrêté proprement.")
	},
}

func init() {
	cmd.RootCmd.AddCommand(RunServerCmd)
}

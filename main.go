package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"nearlink/config"
	"nearlink/database"
	"nearlink/discourse"
	"nearlink/linking"
	"nearlink/nearauth"
	"nearlink/routes"
	"nearlink/utils"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: No .env file found. Using default configuration.")
	}

	if err := utils.LoadEncryptionKey(); err != nil {
		log.Fatal("Failed to load encryption key:", err)
	}

	baseURL := os.Getenv("DISCOURSE_BASE_URL")
	if baseURL == "" {
		log.Fatal("DISCOURSE_BASE_URL is not set")
	}

	recipient := config.Linking.ExpectedRecipient
	if recipient == "" {
		log.Fatal("NEAR_EXPECTED_RECIPIENT is not set")
	}

	db, err := database.InitDB()
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	utils.InitAuditLog(db)

	registry := linking.NewRegistry(config.Linking.NonceTTL)

	forum := discourse.NewClient(baseURL)
	forum.HTTPClient = config.DiscourseClient()

	verifier := &nearauth.Verifier{
		ExpectedRecipient: recipient,
		MaxAge:            config.Linking.MaxAssertionAge,
		RPCURL:            config.Linking.RPCURL,
		HTTPClient:        config.RPCClient(),
	}
	if verifier.RPCURL != "" {
		log.Printf("On-chain access key checks enabled via %s", verifier.RPCURL)
	}

	service := linking.NewService(registry, forum, verifier, db)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go registry.Run(ctx, config.Linking.SweepInterval)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	routes.SetupRoutes(r, service)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		log.Printf("Server starting on port %s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server:", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.HTTP.ShutdownTimeout)
	defer shutdownCancel()

	cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	if err := database.ShutdownDB(); err != nil {
		log.Printf("Error closing database: %v", err)
	}

	log.Println("Server exited")
}

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"invoicer/internal/config"
	"invoicer/internal/db"
	"invoicer/internal/delivery"
	"invoicer/internal/handlers"
	"invoicer/internal/payments"
	"invoicer/internal/services"
	"invoicer/internal/storage"
	"invoicer/internal/store"
	"invoicer/internal/websocket"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("ignoring .env: %v", err)
	}
	cfg := config.Load()
	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer database.Close()

	users := store.NewUserStore(database)
	profiles := store.NewProfileStore(database)
	clients := store.NewClientStore(database)
	documents := store.NewDocumentStore(database)
	audit := store.NewAuditStore(database)
	txRunner := db.NewTxRunner(database)
	hub := websocket.NewHub()

	logos, err := storage.NewLogoStore(cfg.S3Bucket, cfg.S3Region)
	if err != nil {
		log.Fatalf("failed to configure logo storage: %v", err)
	}
	if cfg.S3Bucket == "" {
		log.Printf("S3_BUCKET not set, logo uploads are disabled")
	}
	if cfg.ResendAPIKey == "" {
		log.Printf("RESEND_API_KEY not set, email delivery is disabled")
	}
	mailer := delivery.NewMailer(cfg.ResendAPIKey)
	receipts := payments.NewReceiptClient(cfg.ChainRPCURLs)

	accountService := services.NewAccountService(txRunner, users, profiles, audit, cfg.JWTSecret, cfg.TokenTTL)
	profileService := services.NewProfileService(txRunner, profiles, audit, logos)
	clientService := services.NewClientService(txRunner, clients, audit)
	documentService := services.NewDocumentService(txRunner, documents, clients, audit, hub)
	deliveryService := services.NewDeliveryService(documentService, profiles, users, mailer, cfg.MailFrom, cfg.PublicURL)
	paymentService := services.NewPaymentService(documentService, profiles, receipts)

	handler := handlers.New(cfg, accountService, profileService, clientService, documentService, deliveryService, paymentService, hub)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("invoicer API listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	<-shutdown

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}

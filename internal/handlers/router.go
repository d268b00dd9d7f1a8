package handlers

import (
	"net/http"

	"invoicer/internal/config"
	"invoicer/internal/middleware"
	"invoicer/internal/websocket"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Handler struct {
	cfg       config.Config
	accounts  AccountService
	profiles  ProfileService
	clients   ClientService
	documents DocumentService
	delivery  DeliveryService
	payments  PaymentService
	hub       *websocket.Hub
}

func New(cfg config.Config, accounts AccountService, profiles ProfileService, clients ClientService, documents DocumentService, delivery DeliveryService, payments PaymentService, hub *websocket.Hub) *Handler {
	return &Handler{
		cfg:       cfg,
		accounts:  accounts,
		profiles:  profiles,
		clients:   clients,
		documents: documents,
		delivery:  delivery,
		payments:  payments,
		hub:       hub,
	}
}

func (h *Handler) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.Logger)
	router.Use(chimiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.cfg.Origins(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.With(middleware.Auth(h.cfg.JWTSecret)).Get("/me", h.Me)
	})

	router.Group(func(r chi.Router) {
		r.Use(middleware.Auth(h.cfg.JWTSecret))

		r.Get("/profile", h.GetProfile)
		r.Put("/profile", h.UpdateProfile)
		r.Put("/profile/payment-settings", h.UpdatePaymentSettings)
		r.Post("/profile/logo", h.UploadLogo)

		r.Get("/clients", h.ListClients)
		r.Post("/clients", h.CreateClient)
		r.Get("/clients/{id}", h.GetClient)
		r.Put("/clients/{id}", h.UpdateClient)
		r.Delete("/clients/{id}", h.DeleteClient)

		r.Get("/documents", h.ListDocuments)
		r.Post("/documents", h.CreateDocument)
		r.Route("/documents/{id}", func(r chi.Router) {
			r.Get("/", h.GetDocument)
			r.Put("/", h.UpdateDocument)
			r.Delete("/", h.DeleteDocument)
			r.Post("/status", h.ChangeStatus)
			r.Post("/convert", h.ConvertQuote)
			r.Post("/send", h.SendDocument)
			r.Post("/remind", h.RemindDocument)
			r.Get("/whatsapp", h.WhatsAppLink)
			r.Get("/pdf", h.DocumentPDF)
			r.Get("/verification", h.VerifyDocument)
			r.Get("/activity", h.DocumentActivity)
			r.Post("/payment/confirm", h.ConfirmPayment)
		})

		r.Get("/dashboard/summary", h.DashboardSummary)
	})

	router.Route("/p/{id}", func(r chi.Router) {
		r.Get("/", h.PublicDocument)
		r.Get("/pdf", h.PublicPDF)
		r.Get("/payment", h.PublicPayment)
		r.Post("/crypto/intent", h.CryptoIntent)
		r.Post("/crypto/payment", h.CryptoPayment)
	})

	router.Get("/ws/documents", h.WSDocuments)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return router
}

package handlers

import (
	"context"

	"invoicer/internal/models"
	"invoicer/internal/payments"
	"invoicer/internal/reports"
	"invoicer/internal/services"
)

type AccountService interface {
	Register(ctx context.Context, req services.RegisterRequest) (services.Session, error)
	Login(ctx context.Context, email, password string) (services.Session, error)
	Me(ctx context.Context, userID string) (models.User, error)
}

type ProfileService interface {
	Get(ctx context.Context, userID string) (models.Profile, error)
	Update(ctx context.Context, userID string, in services.ProfileInput) (models.Profile, error)
	UpdatePaymentSettings(ctx context.Context, userID string, settings models.PaymentSettings) (models.PaymentSettings, error)
	UploadLogo(ctx context.Context, userID string, data []byte) (string, error)
}

type ClientService interface {
	Create(ctx context.Context, userID string, in services.ClientInput) (models.Client, error)
	Get(ctx context.Context, userID, clientID string) (models.Client, error)
	List(ctx context.Context, userID, search string, limit, offset int) ([]models.Client, error)
	Update(ctx context.Context, userID, clientID string, in services.ClientInput) (models.Client, error)
	Delete(ctx context.Context, userID, clientID string) error
}

type DocumentService interface {
	Create(ctx context.Context, userID string, in services.DocumentInput) (services.DocumentView, error)
	Get(ctx context.Context, userID, documentID string) (services.DocumentView, error)
	List(ctx context.Context, userID string, filter services.ListFilter) ([]services.DocumentView, error)
	Update(ctx context.Context, userID, documentID string, in services.DocumentInput) (services.DocumentView, error)
	Delete(ctx context.Context, userID, documentID string) error
	ChangeStatus(ctx context.Context, userID, documentID, status string) (services.DocumentView, error)
	Convert(ctx context.Context, userID, quoteID string) (services.DocumentView, error)
	Verify(ctx context.Context, userID, documentID string) (services.VerificationReport, error)
	Activity(ctx context.Context, userID, documentID string) ([]models.AuditEntry, error)
	Summary(ctx context.Context, userID string) (reports.Summary, error)
}

type DeliveryService interface {
	Send(ctx context.Context, userID, documentID string) (services.DeliveryResult, error)
	Remind(ctx context.Context, userID, documentID string) (services.DeliveryResult, error)
	WhatsApp(ctx context.Context, userID, documentID string) (services.ShareLink, error)
	PDF(ctx context.Context, userID, documentID string) (models.Document, []byte, error)
	PublicPDF(ctx context.Context, documentID string) (models.Document, []byte, error)
}

type PaymentService interface {
	PublicView(ctx context.Context, documentID string) (services.PublicDocument, error)
	Destination(ctx context.Context, documentID string) (payments.Destination, error)
	Intent(ctx context.Context, documentID string) (payments.Intent, error)
	RecordPayment(ctx context.Context, documentID string, report services.WalletReport) (services.Submission, error)
	Confirm(ctx context.Context, userID, documentID string) (services.DocumentView, error)
}

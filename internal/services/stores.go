package services

import (
	"context"
	"time"

	"invoicer/internal/delivery"
	"invoicer/internal/models"
	"invoicer/internal/payments"
	"invoicer/internal/store"
	"invoicer/internal/websocket"
)

type UserStore interface {
	Create(ctx context.Context, tx store.Execer, id, email, passwordHash string) error
	GetByEmail(ctx context.Context, email string) (models.User, error)
	GetByID(ctx context.Context, userID string) (models.User, error)
}

type ProfileStore interface {
	Create(ctx context.Context, tx store.Execer, userID, fullName string) error
	Get(ctx context.Context, userID string) (models.Profile, error)
	Update(ctx context.Context, tx store.Execer, profile models.Profile) (int64, error)
	UpdatePaymentSettings(ctx context.Context, tx store.Execer, userID string, settings models.PaymentSettings) (int64, error)
	UpdateLogo(ctx context.Context, tx store.Execer, userID, logoURL string) (int64, error)
}

type ClientStore interface {
	Create(ctx context.Context, tx store.Execer, client models.Client) error
	Get(ctx context.Context, userID, clientID string) (models.Client, error)
	GetByID(ctx context.Context, clientID string) (models.Client, error)
	List(ctx context.Context, userID, search string, limit, offset int) ([]models.Client, error)
	Update(ctx context.Context, tx store.Execer, client models.Client) (int64, error)
	CountDocuments(ctx context.Context, tx store.Getter, userID, clientID string) (int, error)
	Delete(ctx context.Context, tx store.Execer, userID, clientID string) (int64, error)
}

type DocumentStore interface {
	Create(ctx context.Context, tx store.Execer, doc models.Document) error
	Get(ctx context.Context, userID, documentID string) (models.Document, error)
	GetPublic(ctx context.Context, documentID string) (models.Document, error)
	List(ctx context.Context, userID string, filter store.DocumentFilter) ([]models.Document, error)
	Update(ctx context.Context, tx store.Execer, doc models.Document) (int64, error)
	Delete(ctx context.Context, tx store.Execer, userID, documentID string) (int64, error)
	MaxSequence(ctx context.Context, tx store.Getter, userID, prefix string) (int, error)
	RecordPaymentSubmission(ctx context.Context, tx store.Execer, documentID, txHash string, chainID int64, submittedAt time.Time) (int64, error)
}

type AuditStore interface {
	Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID string, data map[string]any) error
	ListForEntity(ctx context.Context, entityType, entityID string, limit int) ([]models.AuditEntry, error)
}

type DocumentHub interface {
	BroadcastDocument(userID string, event websocket.DocumentEvent)
}

type ReceiptChecker interface {
	Status(ctx context.Context, chainID int64, txHash string) (payments.ReceiptStatus, error)
}

type LogoUploader interface {
	Upload(ctx context.Context, userID string, data []byte) (string, error)
}

// Mailer is satisfied by delivery.Mailer implementations.
type Mailer = delivery.Mailer

type Clock func() time.Time

func systemClock() time.Time { return time.Now().UTC() }

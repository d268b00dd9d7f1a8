package store

import (
	"context"
	"fmt"
	"time"

	"invoicer/internal/models"
)

type DocumentStore struct {
	db DB
}

func NewDocumentStore(db DB) *DocumentStore {
	return &DocumentStore{db: db}
}

const documentColumns = `id, user_id, client_id, type, number, status, currency, line_items, vat_rate,
	subtotal, vat_amount, total, issue_date, due_date, notes, payment_link, verification_hash,
	verified_at, payment_tx_hash, payment_chain_id, payment_submitted_at, paid_at, created_at, updated_at`

type DocumentFilter struct {
	Type     string
	Status   string
	ClientID string
	Limit    int
	Offset   int
}

func (s *DocumentStore) Create(ctx context.Context, tx Execer, doc models.Document) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO documents (id, user_id, client_id, type, number, status, currency, line_items, vat_rate,
		                       subtotal, vat_amount, total, issue_date, due_date, notes, payment_link,
		                       verification_hash, verified_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`, doc.ID, doc.UserID, doc.ClientID, doc.Type, doc.Number, doc.Status, doc.Currency, doc.LineItems, doc.VATRate,
		doc.Subtotal, doc.VATAmount, doc.Total, doc.IssueDate, doc.DueDate, doc.Notes, doc.PaymentLink,
		doc.VerificationHash, doc.VerifiedAt)
	return err
}

func (s *DocumentStore) Get(ctx context.Context, userID, documentID string) (models.Document, error) {
	var row models.Document
	err := s.db.GetContext(ctx, &row, `SELECT `+documentColumns+` FROM documents WHERE id = $1 AND user_id = $2`, documentID, userID)
	if err != nil {
		return models.Document{}, err
	}
	return row, nil
}

// GetPublic loads a document by its opaque id alone, for the shareable view.
func (s *DocumentStore) GetPublic(ctx context.Context, documentID string) (models.Document, error) {
	var row models.Document
	err := s.db.GetContext(ctx, &row, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, documentID)
	if err != nil {
		return models.Document{}, err
	}
	return row, nil
}

// List filters on the stored status; callers derive overdue themselves.
func (s *DocumentStore) List(ctx context.Context, userID string, filter DocumentFilter) ([]models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE user_id = $1`
	args := []any{userID}
	if filter.Type != "" {
		args = append(args, filter.Type)
		query += fmt.Sprintf(" AND type = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND lower(status) = lower($%d)", len(args))
	}
	if filter.ClientID != "" {
		args = append(args, filter.ClientID)
		query += fmt.Sprintf(" AND client_id = $%d", len(args))
	}
	query += " ORDER BY issue_date DESC, created_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit, filter.Offset)
		query += " LIMIT $" + itoa(len(args)-1) + " OFFSET $" + itoa(len(args))
	}
	rows := []models.Document{}
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	return rows, nil
}

// Update writes every mutable column; last write wins.
func (s *DocumentStore) Update(ctx context.Context, tx Execer, doc models.Document) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE documents
		SET client_id = $1, number = $2, status = $3, currency = $4, line_items = $5, vat_rate = $6,
		    subtotal = $7, vat_amount = $8, total = $9, issue_date = $10, due_date = $11, notes = $12,
		    payment_link = $13, verification_hash = $14, verified_at = $15, paid_at = $16, updated_at = NOW()
		WHERE id = $17 AND user_id = $18
	`, doc.ClientID, doc.Number, doc.Status, doc.Currency, doc.LineItems, doc.VATRate,
		doc.Subtotal, doc.VATAmount, doc.Total, doc.IssueDate, doc.DueDate, doc.Notes,
		doc.PaymentLink, doc.VerificationHash, doc.VerifiedAt, doc.PaidAt, doc.ID, doc.UserID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *DocumentStore) Delete(ctx context.Context, tx Execer, userID, documentID string) (int64, error) {
	res, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id = $1 AND user_id = $2`, documentID, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// MaxSequence returns the highest numeric suffix among the user's document
// numbers that start with prefix, or 0 when there are none.
func (s *DocumentStore) MaxSequence(ctx context.Context, tx Getter, userID, prefix string) (int, error) {
	var max int
	err := tx.GetContext(ctx, &max, `
		SELECT COALESCE(MAX(
			CASE WHEN substring(number FROM length($2) + 1) ~ '^[0-9]+$'
			     THEN CAST(substring(number FROM length($2) + 1) AS integer)
			END), 0)
		FROM documents
		WHERE user_id = $1 AND starts_with(number, $2)
	`, userID, prefix)
	return max, err
}

func (s *DocumentStore) RecordPaymentSubmission(ctx context.Context, tx Execer, documentID, txHash string, chainID int64, submittedAt time.Time) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE documents
		SET payment_tx_hash = $1, payment_chain_id = $2, payment_submitted_at = $3, updated_at = NOW()
		WHERE id = $4
	`, txHash, chainID, submittedAt, documentID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"invoicer/internal/db"
	"invoicer/internal/models"
	"invoicer/internal/money"
	"invoicer/internal/reports"
	"invoicer/internal/store"
	"invoicer/internal/validator"
	"invoicer/internal/verification"
	"invoicer/internal/websocket"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

const (
	activityLimit      = 100
	maxLineItems       = 200
	convertedDueInDays = 30
)

var hundred = decimal.NewFromInt(100)

type DocumentService struct {
	txRunner  db.TxRunner
	documents DocumentStore
	clients   ClientStore
	audit     AuditStore
	hub       DocumentHub
	now       Clock
}

func NewDocumentService(txRunner db.TxRunner, documents DocumentStore, clients ClientStore, audit AuditStore, hub DocumentHub) *DocumentService {
	return &DocumentService{
		txRunner:  txRunner,
		documents: documents,
		clients:   clients,
		audit:     audit,
		hub:       hub,
		now:       systemClock,
	}
}

type DocumentInput struct {
	ClientID    string
	Type        string
	Number      string
	Status      string
	Currency    string
	LineItems   models.LineItems
	VATRate     decimal.Decimal
	IssueDate   *time.Time
	DueDate     *time.Time
	Notes       string
	PaymentLink string
}

// DocumentView adds the derived fields shown in lists and detail pages.
type DocumentView struct {
	models.Document
	EffectiveStatus models.Status       `json:"effective_status"`
	Verification    verification.Result `json:"verification"`
}

func (s *DocumentService) view(doc models.Document) DocumentView {
	return DocumentView{
		Document:        doc,
		EffectiveStatus: doc.EffectiveStatus(s.now()),
		Verification:    verification.Check(doc),
	}
}

func validateLineItems(items models.LineItems) (models.LineItems, error) {
	if len(items) == 0 {
		return nil, validationError("at least one line item is required")
	}
	if len(items) > maxLineItems {
		return nil, validationError("at most %d line items are allowed", maxLineItems)
	}
	out := make(models.LineItems, 0, len(items))
	for i, item := range items {
		item.Description = strings.TrimSpace(item.Description)
		if item.Description == "" {
			return nil, validationError("line %d: description is required", i+1)
		}
		if err := money.CheckNonNegative(item.Quantity, 3); err != nil || item.Quantity.IsZero() {
			return nil, validationError("line %d: quantity must be positive with at most 3 decimals", i+1)
		}
		if err := money.CheckNonNegative(item.UnitPrice, 2); err != nil {
			return nil, validationError("line %d: unit price must be non-negative with at most 2 decimals", i+1)
		}
		if money.CheckMagnitude(item.Quantity) != nil || money.CheckMagnitude(item.UnitPrice) != nil ||
			money.CheckMagnitude(money.LineTotal(item)) != nil {
			return nil, validationError("line %d: %v", i+1, money.ErrAmountTooLarge)
		}
		out = append(out, item)
	}
	return out, nil
}

func validateVATRate(rate decimal.Decimal) error {
	if err := money.CheckNonNegative(rate, 2); err != nil || rate.GreaterThan(hundred) {
		return validationError("%v", money.ErrInvalidVATRate)
	}
	return nil
}

// applyInput copies the editable fields onto doc and recomputes its totals.
func (s *DocumentService) applyInput(ctx context.Context, userID string, doc *models.Document, in DocumentInput) error {
	clientID := strings.TrimSpace(in.ClientID)
	if clientID == "" {
		return validationError("client_id is required")
	}
	if _, err := s.clients.Get(ctx, userID, clientID); err != nil {
		err = lookupError(err)
		if errors.Is(err, ErrNotFound) {
			return validationError("client %s does not exist", clientID)
		}
		return err
	}
	currency, err := validator.NormalizeCurrency(in.Currency)
	if err != nil {
		return validationError("%v", err)
	}
	items, err := validateLineItems(in.LineItems)
	if err != nil {
		return err
	}
	if err := validateVATRate(in.VATRate); err != nil {
		return err
	}
	link := strings.TrimSpace(in.PaymentLink)
	if err := validator.ValidateURL(link); err != nil {
		return validationError("payment_link: %v", err)
	}

	issue := s.now()
	if in.IssueDate != nil {
		issue = *in.IssueDate
	} else if !doc.IssueDate.IsZero() {
		issue = doc.IssueDate
	}
	issue = dateOf(issue)
	var due *time.Time
	if in.DueDate != nil {
		d := dateOf(*in.DueDate)
		if d.Before(issue) {
			return validationError("due_date must not be before issue_date")
		}
		due = &d
	}

	totals := money.Compute(items, in.VATRate)
	if err := money.CheckMagnitude(totals.Total); err != nil {
		return validationError("total: %v", err)
	}
	doc.ClientID = clientID
	doc.Currency = currency
	doc.LineItems = items
	doc.VATRate = in.VATRate
	doc.Subtotal = totals.Subtotal
	doc.VATAmount = totals.VAT
	doc.Total = totals.Total
	doc.IssueDate = issue
	doc.DueDate = due
	doc.Notes = strings.TrimSpace(in.Notes)
	doc.PaymentLink = nil
	if link != "" {
		doc.PaymentLink = &link
	}
	return nil
}

func dateOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func numberPrefix(docType models.DocumentType, year int) string {
	if docType == models.TypeQuote {
		return fmt.Sprintf("QUO-%d-", year)
	}
	return fmt.Sprintf("INV-%d-", year)
}

func (s *DocumentService) nextNumber(ctx context.Context, tx store.Getter, userID string, docType models.DocumentType, year int) (string, error) {
	prefix := numberPrefix(docType, year)
	max, err := s.documents.MaxSequence(ctx, tx, userID, prefix)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%04d", prefix, max+1), nil
}

func (s *DocumentService) Create(ctx context.Context, userID string, in DocumentInput) (DocumentView, error) {
	if userID == "" {
		return DocumentView{}, ErrAuthenticationRequired
	}
	docType, ok := models.ParseDocumentType(in.Type)
	if !ok {
		return DocumentView{}, validationError("type must be quote or invoice")
	}
	status := models.StatusDraft
	if strings.TrimSpace(in.Status) != "" {
		parsed, ok := models.LookupStatus(in.Status)
		if !ok {
			return DocumentView{}, validationError("unknown status %q", in.Status)
		}
		status = parsed
	}

	now := s.now()
	doc := models.Document{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      docType,
		Number:    strings.TrimSpace(in.Number),
		Status:    string(status),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.applyInput(ctx, userID, &doc, in); err != nil {
		return DocumentView{}, err
	}

	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if doc.Number == "" {
			number, err := s.nextNumber(ctx, tx, userID, docType, doc.IssueDate.Year())
			if err != nil {
				return err
			}
			doc.Number = number
		}
		if status.Finalized() {
			verification.Stamp(&doc, now)
		}
		if status == models.StatusPaid {
			paidAt := now
			doc.PaidAt = &paidAt
		}
		if err := s.documents.Create(ctx, tx, doc); err != nil {
			return err
		}
		return s.audit.Log(ctx, tx, userID, "document.create", "document", doc.ID, map[string]any{
			"number": doc.Number,
			"type":   doc.Type,
			"status": doc.Status,
			"total":  doc.Total.StringFixed(2),
		})
	})
	if err != nil {
		return DocumentView{}, passThrough(err)
	}
	s.broadcast(doc, websocket.EventCreated)
	return s.view(doc), nil
}

func (s *DocumentService) load(ctx context.Context, userID, documentID string) (models.Document, error) {
	if userID == "" {
		return models.Document{}, ErrAuthenticationRequired
	}
	doc, err := s.documents.Get(ctx, userID, documentID)
	if err != nil {
		return models.Document{}, lookupError(err)
	}
	return doc, nil
}

func (s *DocumentService) Get(ctx context.Context, userID, documentID string) (DocumentView, error) {
	doc, err := s.load(ctx, userID, documentID)
	if err != nil {
		return DocumentView{}, err
	}
	return s.view(doc), nil
}

type ListFilter struct {
	Type     string
	Status   string
	ClientID string
	Limit    int
	Offset   int
}

// List filters on the effective status, so "overdue" matches sent invoices
// past their due date.
func (s *DocumentService) List(ctx context.Context, userID string, filter ListFilter) ([]DocumentView, error) {
	if userID == "" {
		return nil, ErrAuthenticationRequired
	}
	query := store.DocumentFilter{ClientID: strings.TrimSpace(filter.ClientID)}
	if filter.Type != "" {
		docType, ok := models.ParseDocumentType(filter.Type)
		if !ok {
			return nil, validationError("type must be quote or invoice")
		}
		query.Type = string(docType)
	}
	var wantStatus models.Status
	if filter.Status != "" {
		status, ok := models.LookupStatus(filter.Status)
		if !ok {
			return nil, validationError("unknown status %q", filter.Status)
		}
		wantStatus = status
	}
	limit, offset := clampPage(filter.Limit, filter.Offset)
	if wantStatus == "" {
		query.Limit, query.Offset = limit, offset
	}

	docs, err := s.documents.List(ctx, userID, query)
	if err != nil {
		return nil, storageError(err)
	}
	views := make([]DocumentView, 0, len(docs))
	for _, doc := range docs {
		v := s.view(doc)
		if wantStatus != "" && v.EffectiveStatus != wantStatus {
			continue
		}
		views = append(views, v)
	}
	if wantStatus == "" {
		return views, nil
	}
	if offset >= len(views) {
		return []DocumentView{}, nil
	}
	end := offset + limit
	if end > len(views) {
		end = len(views)
	}
	return views[offset:end], nil
}

// Update replaces the editable fields. A finalized document whose hashed
// fields changed gets a fresh hash; status is changed through ChangeStatus.
func (s *DocumentService) Update(ctx context.Context, userID, documentID string, in DocumentInput) (DocumentView, error) {
	doc, err := s.load(ctx, userID, documentID)
	if err != nil {
		return DocumentView{}, err
	}
	before := doc
	if err := s.applyInput(ctx, userID, &doc, in); err != nil {
		return DocumentView{}, err
	}
	if number := strings.TrimSpace(in.Number); number != "" {
		doc.Number = number
	}
	now := s.now()
	rehashed := verification.Refresh(&doc, now)
	doc.UpdatedAt = now

	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		rows, err := s.documents.Update(ctx, tx, doc)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrNotFound
		}
		return s.audit.Log(ctx, tx, userID, "document.update", "document", doc.ID, map[string]any{
			"hashed_fields_changed": verification.HashedFieldsDiffer(before, doc),
			"rehashed":              rehashed,
			"total":                 doc.Total.StringFixed(2),
		})
	})
	if err != nil {
		return DocumentView{}, passThrough(err)
	}
	s.broadcast(doc, websocket.EventUpdated)
	return s.view(doc), nil
}

func (s *DocumentService) Delete(ctx context.Context, userID, documentID string) error {
	doc, err := s.load(ctx, userID, documentID)
	if err != nil {
		return err
	}
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		rows, err := s.documents.Delete(ctx, tx, userID, documentID)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrNotFound
		}
		return s.audit.Log(ctx, tx, userID, "document.delete", "document", documentID, map[string]any{"number": doc.Number})
	})
	if err != nil {
		return passThrough(err)
	}
	s.broadcast(doc, websocket.EventDeleted)
	return nil
}

// applyStatus moves doc to the target status, stamping the hash on the first
// transition out of draft. It does not persist anything.
func applyStatus(doc *models.Document, to models.Status, now time.Time) error {
	from := doc.StoredStatus()
	if !models.CanTransition(from, to) {
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, from, to)
	}
	doc.Status = string(to)
	if to.Finalized() {
		verification.Stamp(doc, now)
	}
	switch {
	case to == models.StatusPaid && doc.PaidAt == nil:
		paidAt := now
		doc.PaidAt = &paidAt
	case to != models.StatusPaid:
		doc.PaidAt = nil
	}
	return nil
}

func (s *DocumentService) ChangeStatus(ctx context.Context, userID, documentID, rawStatus string) (DocumentView, error) {
	to, ok := models.LookupStatus(rawStatus)
	if !ok {
		return DocumentView{}, validationError("unknown status %q", rawStatus)
	}
	doc, err := s.load(ctx, userID, documentID)
	if err != nil {
		return DocumentView{}, err
	}
	from := doc.StoredStatus()
	now := s.now()
	if err := applyStatus(&doc, to, now); err != nil {
		return DocumentView{}, err
	}
	doc.UpdatedAt = now
	if err := s.persist(ctx, userID, doc, "document.status", map[string]any{"from": from, "to": to}); err != nil {
		return DocumentView{}, err
	}
	s.broadcast(doc, websocket.EventStatus)
	return s.view(doc), nil
}

// persist writes doc and an audit entry in one transaction.
func (s *DocumentService) persist(ctx context.Context, actorID string, doc models.Document, action string, data map[string]any) error {
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		rows, err := s.documents.Update(ctx, tx, doc)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrNotFound
		}
		return s.audit.Log(ctx, tx, actorID, action, "document", doc.ID, data)
	})
	return passThrough(err)
}

// Convert copies a quote into a new draft invoice. The quote is left as is.
func (s *DocumentService) Convert(ctx context.Context, userID, quoteID string) (DocumentView, error) {
	quote, err := s.load(ctx, userID, quoteID)
	if err != nil {
		return DocumentView{}, err
	}
	if quote.Type != models.TypeQuote {
		return DocumentView{}, validationError("only quotes can be converted")
	}
	now := s.now()
	issue := dateOf(now)
	due := issue.AddDate(0, 0, convertedDueInDays)
	items := make(models.LineItems, len(quote.LineItems))
	copy(items, quote.LineItems)
	invoice := models.Document{
		ID:          uuid.NewString(),
		UserID:      userID,
		ClientID:    quote.ClientID,
		Type:        models.TypeInvoice,
		Status:      string(models.StatusDraft),
		Currency:    quote.Currency,
		LineItems:   items,
		VATRate:     quote.VATRate,
		IssueDate:   issue,
		DueDate:     &due,
		Notes:       quote.Notes,
		PaymentLink: quote.PaymentLink,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	totals := money.Compute(items, quote.VATRate)
	invoice.Subtotal, invoice.VATAmount, invoice.Total = totals.Subtotal, totals.VAT, totals.Total

	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		number, err := s.nextNumber(ctx, tx, userID, models.TypeInvoice, issue.Year())
		if err != nil {
			return err
		}
		invoice.Number = number
		if err := s.documents.Create(ctx, tx, invoice); err != nil {
			return err
		}
		if err := s.audit.Log(ctx, tx, userID, "document.convert", "document", quote.ID, map[string]any{"invoice_id": invoice.ID}); err != nil {
			return err
		}
		return s.audit.Log(ctx, tx, userID, "document.create", "document", invoice.ID, map[string]any{
			"number":     invoice.Number,
			"type":       invoice.Type,
			"from_quote": quote.ID,
		})
	})
	if err != nil {
		return DocumentView{}, passThrough(err)
	}
	s.broadcast(invoice, websocket.EventConverted)
	return s.view(invoice), nil
}

type VerificationReport struct {
	DocumentID string              `json:"document_id"`
	Result     verification.Result `json:"result"`
	StoredHash string              `json:"stored_hash,omitempty"`
	Computed   string              `json:"computed_hash"`
	VerifiedAt *time.Time          `json:"verified_at,omitempty"`
}

func verificationReport(doc models.Document) VerificationReport {
	report := VerificationReport{
		DocumentID: doc.ID,
		Result:     verification.Check(doc),
		Computed:   verification.Hash(verification.FieldsOf(doc)),
		VerifiedAt: doc.VerifiedAt,
	}
	if doc.HasHash() {
		report.StoredHash = *doc.VerificationHash
	}
	return report
}

func (s *DocumentService) Verify(ctx context.Context, userID, documentID string) (VerificationReport, error) {
	doc, err := s.load(ctx, userID, documentID)
	if err != nil {
		return VerificationReport{}, err
	}
	return verificationReport(doc), nil
}

func (s *DocumentService) Activity(ctx context.Context, userID, documentID string) ([]models.AuditEntry, error) {
	if _, err := s.load(ctx, userID, documentID); err != nil {
		return nil, err
	}
	entries, err := s.audit.ListForEntity(ctx, "document", documentID, activityLimit)
	if err != nil {
		return nil, storageError(err)
	}
	return entries, nil
}

func (s *DocumentService) Summary(ctx context.Context, userID string) (reports.Summary, error) {
	if userID == "" {
		return reports.Summary{}, ErrAuthenticationRequired
	}
	docs, err := s.documents.List(ctx, userID, store.DocumentFilter{})
	if err != nil {
		return reports.Summary{}, storageError(err)
	}
	return reports.Summarize(docs, s.now()), nil
}

func (s *DocumentService) broadcast(doc models.Document, eventType string) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastDocument(doc.UserID, websocket.DocumentEvent{
		Type:       eventType,
		DocumentID: doc.ID,
		Number:     doc.Number,
		Status:     string(doc.EffectiveStatus(s.now())),
		Total:      doc.Total.StringFixed(2),
		Currency:   doc.Currency,
		At:         s.now(),
	})
}

func logFailure(action, documentID string, err error) {
	log.Printf("%s failed for document %s: %v", action, documentID, err)
}

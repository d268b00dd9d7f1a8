package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"invoicer/internal/models"
	"invoicer/internal/payments"
	"invoicer/internal/verification"
	"invoicer/internal/websocket"

	"github.com/jmoiron/sqlx"
)

// PaymentService backs the public document page and on-chain confirmation.
type PaymentService struct {
	docs     *DocumentService
	profiles ProfileStore
	receipts ReceiptChecker
}

func NewPaymentService(docs *DocumentService, profiles ProfileStore, receipts ReceiptChecker) *PaymentService {
	return &PaymentService{docs: docs, profiles: profiles, receipts: receipts}
}

type PublicSender struct {
	Name          string `json:"name"`
	LogoURL       string `json:"logo_url,omitempty"`
	BrandColor    string `json:"brand_color,omitempty"`
	BankName      string `json:"bank_name,omitempty"`
	AccountHolder string `json:"account_holder,omitempty"`
	IBAN          string `json:"iban,omitempty"`
	BIC           string `json:"bic,omitempty"`
}

type PublicClient struct {
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
}

// PublicDocument is what anyone holding the link may see.
type PublicDocument struct {
	ID              string               `json:"id"`
	Type            models.DocumentType  `json:"type"`
	Number          string               `json:"number"`
	Status          models.Status        `json:"status"`
	Currency        string               `json:"currency"`
	LineItems       models.LineItems     `json:"line_items"`
	VATRate         string               `json:"vat_rate"`
	Subtotal        string               `json:"subtotal"`
	VATAmount       string               `json:"vat_amount"`
	Total           string               `json:"total"`
	IssueDate       string               `json:"issue_date"`
	DueDate         string               `json:"due_date,omitempty"`
	Notes           string               `json:"notes,omitempty"`
	Verification    verification.Result  `json:"verification"`
	VerificationTag string               `json:"verification_hash,omitempty"`
	Sender          PublicSender         `json:"sender"`
	Client          PublicClient         `json:"client"`
	Payment         payments.Destination `json:"payment"`
	PaymentTxURL    string               `json:"payment_tx_url,omitempty"`
}

func (s *PaymentService) loadPublic(ctx context.Context, documentID string) (models.Document, models.Profile, error) {
	doc, err := s.docs.documents.GetPublic(ctx, documentID)
	if err != nil {
		return models.Document{}, models.Profile{}, lookupError(err)
	}
	profile, err := s.profiles.Get(ctx, doc.UserID)
	if err != nil {
		return models.Document{}, models.Profile{}, lookupError(err)
	}
	return doc, profile, nil
}

func (s *PaymentService) PublicView(ctx context.Context, documentID string) (PublicDocument, error) {
	doc, profile, err := s.loadPublic(ctx, documentID)
	if err != nil {
		return PublicDocument{}, err
	}
	client, err := s.docs.clients.GetByID(ctx, doc.ClientID)
	if err != nil {
		return PublicDocument{}, lookupError(err)
	}
	view := PublicDocument{
		ID:           doc.ID,
		Type:         doc.Type,
		Number:       doc.Number,
		Status:       doc.EffectiveStatus(s.docs.now()),
		Currency:     doc.Currency,
		LineItems:    doc.LineItems,
		VATRate:      doc.VATRate.String(),
		Subtotal:     doc.Subtotal.StringFixed(2),
		VATAmount:    doc.VATAmount.StringFixed(2),
		Total:        doc.Total.StringFixed(2),
		IssueDate:    doc.IssueDate.Format("2006-01-02"),
		Notes:        doc.Notes,
		Verification: verification.Check(doc),
		Sender: PublicSender{
			Name:          profile.DisplayName(),
			LogoURL:       profile.LogoURL,
			BrandColor:    profile.BrandColor,
			BankName:      profile.BankName,
			AccountHolder: profile.AccountHolder,
			IBAN:          profile.IBAN,
			BIC:           profile.BIC,
		},
		Client:  PublicClient{Name: client.Name, Address: client.Address},
		Payment: payments.Resolve(doc, profile.PaymentSettings),
	}
	if doc.DueDate != nil {
		view.DueDate = doc.DueDate.Format("2006-01-02")
	}
	if doc.HasHash() {
		view.VerificationTag = *doc.VerificationHash
	}
	if doc.PaymentTxHash != nil && doc.PaymentChainID != nil {
		if chain, err := payments.LookupChain(*doc.PaymentChainID); err == nil {
			view.PaymentTxURL = chain.TxURL(*doc.PaymentTxHash)
		}
	}
	return view, nil
}

func (s *PaymentService) Destination(ctx context.Context, documentID string) (payments.Destination, error) {
	doc, profile, err := s.loadPublic(ctx, documentID)
	if err != nil {
		return payments.Destination{}, err
	}
	return payments.Resolve(doc, profile.PaymentSettings), nil
}

func payable(doc models.Document) error {
	switch doc.StoredStatus() {
	case models.StatusPaid:
		return validationError("document is already paid")
	case models.StatusDraft:
		return validationError("document has not been issued yet")
	}
	if doc.Type != models.TypeInvoice {
		return validationError("only invoices can be paid")
	}
	return nil
}

func paymentError(err error) error {
	for _, known := range []error{
		payments.ErrUnsupportedChain, payments.ErrUnsupportedToken, payments.ErrUnsupportedCurrency,
		payments.ErrInvalidAddress, payments.ErrInvalidTxHash, payments.ErrInvalidAmount,
		payments.ErrWalletNotConfigured,
	} {
		if errors.Is(err, known) {
			return validationError("%v", err)
		}
	}
	return err
}

// Intent builds the ERC-20 transfer the browser wallet should send.
func (s *PaymentService) Intent(ctx context.Context, documentID string) (payments.Intent, error) {
	doc, profile, err := s.loadPublic(ctx, documentID)
	if err != nil {
		return payments.Intent{}, err
	}
	if err := payable(doc); err != nil {
		return payments.Intent{}, err
	}
	intent, err := payments.BuildIntent(doc, profile.PaymentSettings.Wallet)
	if err != nil {
		return payments.Intent{}, paymentError(err)
	}
	return intent, nil
}

// WalletReport is what the browser posts after talking to the wallet: either a
// transaction hash or the provider's error code.
type WalletReport struct {
	TxHash       string
	ErrorCode    *int
	ErrorMessage string
}

type Submission struct {
	DocumentID string `json:"document_id"`
	TxHash     string `json:"tx_hash"`
	ChainID    int64  `json:"chain_id"`
	TxURL      string `json:"tx_url"`
	Status     string `json:"status"`
}

// RecordPayment stores a submitted transaction. The document stays unpaid until
// Confirm sees a successful receipt.
func (s *PaymentService) RecordPayment(ctx context.Context, documentID string, report WalletReport) (Submission, error) {
	doc, profile, err := s.loadPublic(ctx, documentID)
	if err != nil {
		return Submission{}, err
	}
	if report.ErrorCode != nil {
		walletErr := payments.ClassifyWalletError(*report.ErrorCode)
		log.Printf("wallet payment for document %s: code %d: %s", doc.ID, *report.ErrorCode, report.ErrorMessage)
		auditErr := s.docs.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
			return s.docs.audit.Log(ctx, tx, "", "payment.wallet_error", "document", doc.ID, map[string]any{
				"code":    *report.ErrorCode,
				"message": report.ErrorMessage,
			})
		})
		if auditErr != nil {
			logFailure("wallet error audit", doc.ID, auditErr)
		}
		return Submission{}, walletErr
	}

	if err := payable(doc); err != nil {
		return Submission{}, err
	}
	txHash := strings.ToLower(strings.TrimSpace(report.TxHash))
	if err := payments.ValidateTxHash(txHash); err != nil {
		return Submission{}, paymentError(err)
	}
	wallet := profile.PaymentSettings.Wallet
	if wallet == nil || wallet.Address == "" {
		return Submission{}, paymentError(payments.ErrWalletNotConfigured)
	}
	chain, err := payments.LookupChain(wallet.ChainID)
	if err != nil {
		return Submission{}, paymentError(err)
	}

	now := s.docs.now()
	err = s.docs.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		rows, err := s.docs.documents.RecordPaymentSubmission(ctx, tx, doc.ID, txHash, chain.ID, now)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrNotFound
		}
		return s.docs.audit.Log(ctx, tx, "", "payment.submitted", "document", doc.ID, map[string]any{
			"tx_hash":  txHash,
			"chain_id": chain.ID,
		})
	})
	if err != nil {
		return Submission{}, passThrough(err)
	}
	doc.PaymentTxHash = &txHash
	doc.PaymentChainID = &chain.ID
	doc.PaymentSubmittedAt = &now
	s.docs.broadcast(doc, websocket.EventPayment)
	return Submission{
		DocumentID: doc.ID,
		TxHash:     txHash,
		ChainID:    chain.ID,
		TxURL:      chain.TxURL(txHash),
		Status:     string(payments.ReceiptPending),
	}, nil
}

// Confirm checks the recorded transaction on chain and marks the document paid
// once the receipt reports success.
func (s *PaymentService) Confirm(ctx context.Context, userID, documentID string) (DocumentView, error) {
	doc, err := s.docs.load(ctx, userID, documentID)
	if err != nil {
		return DocumentView{}, err
	}
	if doc.PaymentTxHash == nil || doc.PaymentChainID == nil {
		return DocumentView{}, validationError("no crypto payment has been submitted for this document")
	}
	if doc.StoredStatus() == models.StatusPaid {
		return s.docs.view(doc), nil
	}
	status, err := s.receipts.Status(ctx, *doc.PaymentChainID, *doc.PaymentTxHash)
	if err != nil {
		logFailure("receipt lookup", doc.ID, err)
		if errors.Is(err, payments.ErrUnsupportedChain) || errors.Is(err, payments.ErrInvalidTxHash) {
			return DocumentView{}, paymentError(err)
		}
		return DocumentView{}, fmt.Errorf("%w: %w", ErrChainUnavailable, err)
	}
	switch status {
	case payments.ReceiptPending:
		return DocumentView{}, ErrPaymentPending
	case payments.ReceiptFailed:
		return DocumentView{}, ErrWalletFailed
	}

	now := s.docs.now()
	from := doc.StoredStatus()
	if err := applyStatus(&doc, models.StatusPaid, now); err != nil {
		return DocumentView{}, err
	}
	doc.UpdatedAt = now
	err = s.docs.persist(ctx, userID, doc, "payment.confirmed", map[string]any{
		"from":     from,
		"tx_hash":  *doc.PaymentTxHash,
		"chain_id": *doc.PaymentChainID,
	})
	if err != nil {
		return DocumentView{}, err
	}
	s.docs.broadcast(doc, websocket.EventStatus)
	return s.docs.view(doc), nil
}

package services

import (
	"context"
	"fmt"
	"net/mail"

	"invoicer/internal/delivery"
	"invoicer/internal/models"
	"invoicer/internal/pdf"
	"invoicer/internal/websocket"
)

// DeliveryService gets documents to clients: email, reminders, WhatsApp links
// and PDFs.
type DeliveryService struct {
	docs      *DocumentService
	profiles  ProfileStore
	users     UserStore
	mailer    Mailer
	mailFrom  string
	publicURL func(documentID string) string
}

func NewDeliveryService(docs *DocumentService, profiles ProfileStore, users UserStore, mailer Mailer, mailFrom string, publicURL func(string) string) *DeliveryService {
	return &DeliveryService{
		docs:      docs,
		profiles:  profiles,
		users:     users,
		mailer:    mailer,
		mailFrom:  mailFrom,
		publicURL: publicURL,
	}
}

type DeliveryResult struct {
	Document DocumentView `json:"document"`
	EmailID  string       `json:"email_id"`
	To       string       `json:"to"`
}

type bundle struct {
	doc     models.Document
	client  models.Client
	profile models.Profile
}

func (s *DeliveryService) loadBundle(ctx context.Context, doc models.Document) (bundle, error) {
	client, err := s.docs.clients.GetByID(ctx, doc.ClientID)
	if err != nil {
		return bundle{}, lookupError(err)
	}
	profile, err := s.profiles.Get(ctx, doc.UserID)
	if err != nil {
		return bundle{}, lookupError(err)
	}
	return bundle{doc: doc, client: client, profile: profile}, nil
}

// sender uses the owner's display name with the configured sending address.
func (s *DeliveryService) sender(profile models.Profile) string {
	addr, err := mail.ParseAddress(s.mailFrom)
	if err != nil || profile.DisplayName() == "" {
		return s.mailFrom
	}
	return (&mail.Address{Name: profile.DisplayName(), Address: addr.Address}).String()
}

func (s *DeliveryService) deliver(ctx context.Context, userID string, b bundle, subject, html string) (string, error) {
	if b.client.Email == "" {
		return "", validationError("client %s has no email address", b.client.Name)
	}
	msg := delivery.Message{
		From:    s.sender(b.profile),
		To:      b.client.Email,
		Subject: subject,
		HTML:    html,
	}
	if owner, err := s.users.GetByID(ctx, userID); err == nil {
		msg.ReplyTo = owner.Email
	}
	id, err := s.mailer.Send(ctx, msg)
	if err != nil {
		logFailure("email delivery", b.doc.ID, err)
		return "", fmt.Errorf("%w: %w", ErrDelivery, err)
	}
	return id, nil
}

// Send emails the document to its client. A draft becomes sent, which stamps
// its verification hash.
func (s *DeliveryService) Send(ctx context.Context, userID, documentID string) (DeliveryResult, error) {
	doc, err := s.docs.load(ctx, userID, documentID)
	if err != nil {
		return DeliveryResult{}, err
	}
	b, err := s.loadBundle(ctx, doc)
	if err != nil {
		return DeliveryResult{}, err
	}
	now := s.docs.now()
	if doc.StoredStatus() == models.StatusDraft {
		if err := applyStatus(&doc, models.StatusSent, now); err != nil {
			return DeliveryResult{}, err
		}
		doc.UpdatedAt = now
	}
	subject, html, err := delivery.DocumentEmail(doc, b.profile, b.client, s.publicURL(doc.ID), now)
	if err != nil {
		return DeliveryResult{}, err
	}
	emailID, err := s.deliver(ctx, userID, b, subject, html)
	if err != nil {
		return DeliveryResult{}, err
	}
	if err := s.docs.persist(ctx, userID, doc, "document.send", map[string]any{"to": b.client.Email, "email_id": emailID}); err != nil {
		return DeliveryResult{}, err
	}
	s.docs.broadcast(doc, websocket.EventSent)
	return DeliveryResult{Document: s.docs.view(doc), EmailID: emailID, To: b.client.Email}, nil
}

// Remind emails a payment reminder for an unpaid, non-draft invoice.
func (s *DeliveryService) Remind(ctx context.Context, userID, documentID string) (DeliveryResult, error) {
	doc, err := s.docs.load(ctx, userID, documentID)
	if err != nil {
		return DeliveryResult{}, err
	}
	now := s.docs.now()
	status := doc.EffectiveStatus(now)
	if doc.Type != models.TypeInvoice || (status != models.StatusSent && status != models.StatusOverdue) {
		return DeliveryResult{}, validationError("reminders can only be sent for outstanding invoices")
	}
	b, err := s.loadBundle(ctx, doc)
	if err != nil {
		return DeliveryResult{}, err
	}
	subject, html, err := delivery.ReminderEmail(doc, b.profile, b.client, s.publicURL(doc.ID), now)
	if err != nil {
		return DeliveryResult{}, err
	}
	emailID, err := s.deliver(ctx, userID, b, subject, html)
	if err != nil {
		return DeliveryResult{}, err
	}
	if err := s.docs.persist(ctx, userID, doc, "document.remind", map[string]any{"to": b.client.Email, "email_id": emailID, "status": status}); err != nil {
		return DeliveryResult{}, err
	}
	return DeliveryResult{Document: s.docs.view(doc), EmailID: emailID, To: b.client.Email}, nil
}

type ShareLink struct {
	URL       string `json:"url"`
	Message   string `json:"message"`
	PublicURL string `json:"public_url"`
}

func (s *DeliveryService) WhatsApp(ctx context.Context, userID, documentID string) (ShareLink, error) {
	doc, err := s.docs.load(ctx, userID, documentID)
	if err != nil {
		return ShareLink{}, err
	}
	b, err := s.loadBundle(ctx, doc)
	if err != nil {
		return ShareLink{}, err
	}
	public := s.publicURL(doc.ID)
	message := delivery.WhatsAppMessage(doc, b.profile, b.client, public)
	return ShareLink{
		URL:       delivery.WhatsAppLink(b.client.Phone, message),
		Message:   message,
		PublicURL: public,
	}, nil
}

func (s *DeliveryService) render(ctx context.Context, doc models.Document) ([]byte, error) {
	b, err := s.loadBundle(ctx, doc)
	if err != nil {
		return nil, err
	}
	return pdf.Bytes(pdf.Data{Document: doc, Profile: b.profile, Client: b.client, PublicURL: s.publicURL(doc.ID)})
}

func (s *DeliveryService) PDF(ctx context.Context, userID, documentID string) (models.Document, []byte, error) {
	doc, err := s.docs.load(ctx, userID, documentID)
	if err != nil {
		return models.Document{}, nil, err
	}
	out, err := s.render(ctx, doc)
	return doc, out, err
}

// PublicPDF renders by opaque id with no ownership check.
func (s *DeliveryService) PublicPDF(ctx context.Context, documentID string) (models.Document, []byte, error) {
	doc, err := s.docs.documents.GetPublic(ctx, documentID)
	if err != nil {
		return models.Document{}, nil, lookupError(err)
	}
	out, err := s.render(ctx, doc)
	return doc, out, err
}

package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"invoicer/internal/models"
	"invoicer/internal/verification"
)

func TestSendMovesDraftToSent(t *testing.T) {
	f := newFixture(nil, seedDocument("doc-1", "INV-2025-0001", models.TypeInvoice, "draft", "1500"))
	result, err := f.delivery.Send(context.Background(), "user-1", "doc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.To != "ap@globex.test" || result.EmailID != "email-1" {
		t.Fatalf("unexpected result: %#v", result)
	}
	if len(f.mailer.sent) != 1 {
		t.Fatalf("expected one email, got %d", len(f.mailer.sent))
	}
	msg := f.mailer.sent[0]
	if msg.From != `"Acme" <invoices@invoicer.test>` || msg.ReplyTo != "owner@acme.test" {
		t.Fatalf("unexpected envelope: %#v", msg)
	}
	if !strings.Contains(msg.Subject, "INV-2025-0001") || !strings.Contains(msg.HTML, "https://app.test/p/doc-1") {
		t.Fatalf("unexpected message: %#v", msg)
	}
	stored := f.docs.get("doc-1")
	if stored.Status != "sent" || verification.Check(stored) != verification.ResultVerified {
		t.Fatalf("expected a sent, verified document: %#v", stored)
	}
	if got := f.audit.actions(); len(got) != 1 || got[0] != "document.send" {
		t.Fatalf("unexpected audit actions: %v", got)
	}
}

func TestSendFailureLeavesDraft(t *testing.T) {
	f := newFixture(nil, seedDocument("doc-1", "INV-2025-0001", models.TypeInvoice, "draft", "1500"))
	f.mailer.err = errors.New("provider down")
	if _, err := f.delivery.Send(context.Background(), "user-1", "doc-1"); !errors.Is(err, ErrDelivery) {
		t.Fatalf("expected delivery error, got %v", err)
	}
	if stored := f.docs.get("doc-1"); stored.Status != "draft" || stored.HasHash() {
		t.Fatalf("a failed send must not finalize the document: %#v", stored)
	}
}

func TestSendRequiresClientEmail(t *testing.T) {
	doc := seedDocument("doc-1", "INV-2025-0001", models.TypeInvoice, "draft", "1500")
	f := newFixture(nil, doc)
	f.clients.clients["client-1"] = models.Client{ID: "client-1", UserID: "user-1", Name: "Globex"}
	if _, err := f.delivery.Send(context.Background(), "user-1", "doc-1"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRemindOnlyOutstandingInvoices(t *testing.T) {
	overdue := stamped(seedDocument("doc-1", "INV-2025-0001", models.TypeInvoice, "sent", "100"))
	due := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	overdue.DueDate = &due
	f := newFixture(nil,
		overdue,
		seedDocument("doc-2", "INV-2025-0002", models.TypeInvoice, "paid", "100"),
		seedDocument("doc-3", "QUO-2025-0001", models.TypeQuote, "sent", "100"),
		seedDocument("doc-4", "INV-2025-0003", models.TypeInvoice, "draft", "100"),
	)
	result, err := f.delivery.Remind(context.Background(), "user-1", "doc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(f.mailer.sent[0].Subject, "Overdue:") {
		t.Fatalf("unexpected subject %s", f.mailer.sent[0].Subject)
	}
	if result.Document.Status != "sent" {
		t.Fatal("a reminder must not change the stored status")
	}
	for _, id := range []string{"doc-2", "doc-3", "doc-4"} {
		if _, err := f.delivery.Remind(context.Background(), "user-1", id); !errors.Is(err, ErrValidation) {
			t.Fatalf("%s: expected validation error, got %v", id, err)
		}
	}
}

func TestWhatsAppLink(t *testing.T) {
	f := newFixture(nil, seedDocument("doc-1", "INV-2025-0001", models.TypeInvoice, "sent", "1500"))
	link, err := f.delivery.WhatsApp(context.Background(), "user-1", "doc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(link.URL, "https://wa.me/15550100000?text=") {
		t.Fatalf("unexpected link %s", link.URL)
	}
	if link.PublicURL != "https://app.test/p/doc-1" || !strings.Contains(link.Message, "INV-2025-0001") {
		t.Fatalf("unexpected share link: %#v", link)
	}
}

func TestPDFOwnerAndPublic(t *testing.T) {
	f := newFixture(nil, seedDocument("doc-1", "INV-2025-0001", models.TypeInvoice, "sent", "1500"))
	_, out, err := f.delivery.PDF(context.Background(), "user-1", "doc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Fatal("expected pdf output")
	}
	if _, _, err := f.delivery.PDF(context.Background(), "user-2", "doc-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found for another user, got %v", err)
	}
	if _, out, err := f.delivery.PublicPDF(context.Background(), "doc-1"); err != nil || len(out) == 0 {
		t.Fatalf("unexpected public pdf result: %v", err)
	}
	if _, _, err := f.delivery.PublicPDF(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

package models

import (
	"testing"
	"time"
)

func TestParseStatusFallsBackToDraft(t *testing.T) {
	cases := map[string]Status{
		"paid":     StatusPaid,
		" PAID ":   StatusPaid,
		"Sent":     StatusSent,
		"overdue":  StatusOverdue,
		"draft":    StatusDraft,
		"":         StatusDraft,
		"archived": StatusDraft,
	}
	for in, want := range cases {
		if got := ParseStatus(in); got != want {
			t.Fatalf("ParseStatus(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestLookupStatusRejectsUnknown(t *testing.T) {
	if _, ok := LookupStatus("archived"); ok {
		t.Fatalf("expected unknown status to be rejected")
	}
}

func TestCanTransition(t *testing.T) {
	if !CanTransition(StatusDraft, StatusSent) {
		t.Fatalf("draft -> sent must be allowed")
	}
	if !CanTransition(StatusSent, StatusPaid) {
		t.Fatalf("sent -> paid must be allowed")
	}
	if CanTransition(StatusPaid, StatusDraft) {
		t.Fatalf("paid -> draft must be rejected")
	}
	if !CanTransition(StatusDraft, StatusDraft) {
		t.Fatalf("draft -> draft is a no-op")
	}
}

func TestEffectiveStatus(t *testing.T) {
	now := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)
	past := time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)
	today := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	sent := Document{Status: "sent", DueDate: &past}
	if sent.EffectiveStatus(now) != StatusOverdue {
		t.Fatalf("past-due sent document should be overdue")
	}
	if sent.Status != "sent" {
		t.Fatalf("stored status must not change")
	}
	dueToday := Document{Status: "sent", DueDate: &today}
	if dueToday.EffectiveStatus(now) != StatusSent {
		t.Fatalf("document due today is not overdue yet")
	}
	paid := Document{Status: "paid", DueDate: &past}
	if paid.EffectiveStatus(now) != StatusPaid {
		t.Fatalf("paid documents are never overdue")
	}
	noDue := Document{Status: "SENT"}
	if noDue.EffectiveStatus(now) != StatusSent {
		t.Fatalf("no due date means not overdue")
	}
}

func TestLineItemsScan(t *testing.T) {
	var items LineItems
	if err := items.Scan([]byte(`[{"description":"A","quantity":"2","unit_price":10.5}]`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 || items[0].UnitPrice.String() != "10.5" {
		t.Fatalf("unexpected items %#v", items)
	}
	value, err := LineItems(nil).Value()
	if err != nil || string(value.([]byte)) != "[]" {
		t.Fatalf("nil items should encode as [], got %v %v", value, err)
	}
}

func TestPaymentSettingsScan(t *testing.T) {
	var settings PaymentSettings
	if err := settings.Scan(`{"providers":[{"id":"stripe","name":"Stripe","url":"https://pay","enabled":true}],"default_provider_id":"stripe"}`); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.DefaultProviderID != "stripe" || len(settings.Providers) != 1 {
		t.Fatalf("unexpected settings %#v", settings)
	}
	if err := settings.Scan(42); err == nil {
		t.Fatalf("expected error for unsupported type")
	}
}

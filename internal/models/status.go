package models

import "strings"

type DocumentType string

const (
	TypeQuote   DocumentType = "quote"
	TypeInvoice DocumentType = "invoice"
)

// ParseDocumentType reports false for anything other than quote or invoice.
func ParseDocumentType(raw string) (DocumentType, bool) {
	switch DocumentType(strings.ToLower(strings.TrimSpace(raw))) {
	case TypeQuote:
		return TypeQuote, true
	case TypeInvoice:
		return TypeInvoice, true
	}
	return "", false
}

type Status string

const (
	StatusDraft   Status = "draft"
	StatusSent    Status = "sent"
	StatusPaid    Status = "paid"
	StatusOverdue Status = "overdue"
)

// ParseStatus is lenient: unknown or empty values are treated as draft.
func ParseStatus(raw string) Status {
	status, ok := LookupStatus(raw)
	if !ok {
		return StatusDraft
	}
	return status
}

// LookupStatus is the strict variant used for user input.
func LookupStatus(raw string) (Status, bool) {
	switch Status(strings.ToLower(strings.TrimSpace(raw))) {
	case StatusDraft:
		return StatusDraft, true
	case StatusSent:
		return StatusSent, true
	case StatusPaid:
		return StatusPaid, true
	case StatusOverdue:
		return StatusOverdue, true
	}
	return "", false
}

// Finalized reports whether the status is past draft.
func (s Status) Finalized() bool {
	return s != StatusDraft
}

// CanTransition enforces that a finalized document never returns to draft.
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	if to == StatusDraft {
		return false
	}
	return true
}

// Package verification fingerprints the financial facts of a finalized document.
//
// The digest is keyed by nothing but the document fields, so anyone who knows
// them can recompute it. It detects accidental drift between what was issued
// and what is stored; it does not prove authorship.
package verification

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
	"time"

	"invoicer/internal/models"

	"github.com/shopspring/decimal"
)

const delimiter = "|"

type Fields struct {
	OwnerID   string
	ClientID  string
	Number    string
	Total     decimal.Decimal
	Currency  string
	IssueDate time.Time
}

func FieldsOf(doc models.Document) Fields {
	return Fields{
		OwnerID:   doc.UserID,
		ClientID:  doc.ClientID,
		Number:    doc.Number,
		Total:     doc.Total,
		Currency:  doc.Currency,
		IssueDate: doc.IssueDate,
	}
}

func Canonical(f Fields) string {
	return strings.Join([]string{
		f.OwnerID,
		f.ClientID,
		f.Number,
		f.Total.StringFixed(2),
		f.Currency,
		f.IssueDate.Format(time.DateOnly),
	}, delimiter)
}

// Hash returns the lowercase hex SHA-256 of the canonical string.
func Hash(f Fields) string {
	sum := sha256.Sum256([]byte(Canonical(f)))
	return hex.EncodeToString(sum[:])
}

type Result string

const (
	ResultVerified   Result = "verified"
	ResultUnverified Result = "unverified"
	ResultMismatch   Result = "mismatch"
)

// Check recomputes the digest of doc and compares it with the stored one.
func Check(doc models.Document) Result {
	if !doc.HasHash() {
		return ResultUnverified
	}
	expected := Hash(FieldsOf(doc))
	if subtle.ConstantTimeCompare([]byte(expected), []byte(strings.ToLower(*doc.VerificationHash))) == 1 {
		return ResultVerified
	}
	return ResultMismatch
}

// Stamp sets the hash and timestamp when the document has none. It reports
// whether anything changed; an existing hash is preserved.
func Stamp(doc *models.Document, now time.Time) bool {
	if doc.HasHash() {
		return false
	}
	restamp(doc, now)
	return true
}

// Refresh recomputes the hash of a finalized document after one of the hashed
// fields changed. Drafts are left without a hash.
func Refresh(doc *models.Document, now time.Time) bool {
	if !doc.StoredStatus().Finalized() {
		return false
	}
	if doc.HasHash() && *doc.VerificationHash == Hash(FieldsOf(*doc)) {
		return false
	}
	restamp(doc, now)
	return true
}

// HashedFieldsDiffer reports whether any input of Hash differs between a and b.
func HashedFieldsDiffer(a, b models.Document) bool {
	return Canonical(FieldsOf(a)) != Canonical(FieldsOf(b))
}

func restamp(doc *models.Document, now time.Time) {
	hash := Hash(FieldsOf(*doc))
	stampedAt := now.UTC()
	doc.VerificationHash = &hash
	doc.VerifiedAt = &stampedAt
}

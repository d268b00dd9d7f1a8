package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/shopspring/decimal"
)

type User struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

type Client struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	Address   string    `db:"address" json:"address"`
	Phone     string    `db:"phone" json:"phone"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

type Profile struct {
	UserID          string          `db:"user_id" json:"user_id"`
	FullName        string          `db:"full_name" json:"full_name"`
	CompanyName     string          `db:"company_name" json:"company_name"`
	LogoURL         string          `db:"logo_url" json:"logo_url"`
	BrandColor      string          `db:"brand_color" json:"brand_color"`
	BankName        string          `db:"bank_name" json:"bank_name"`
	AccountHolder   string          `db:"account_holder" json:"account_holder"`
	IBAN            string          `db:"iban" json:"iban"`
	BIC             string          `db:"bic" json:"bic"`
	PaymentSettings PaymentSettings `db:"payment_settings" json:"payment_settings"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// DisplayName is the name shown to clients on documents and emails.
func (p Profile) DisplayName() string {
	if p.CompanyName != "" {
		return p.CompanyName
	}
	return p.FullName
}

type PaymentProvider struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	URL     string `json:"url"`
	Enabled bool   `json:"enabled"`
}

type WalletSettings struct {
	Address string `json:"address"`
	ChainID int64  `json:"chain_id"`
	Token   string `json:"token"`
}

type PaymentSettings struct {
	Providers         []PaymentProvider `json:"providers"`
	DefaultProviderID string            `json:"default_provider_id"`
	Wallet            *WalletSettings   `json:"wallet,omitempty"`
}

func (p PaymentSettings) Value() (driver.Value, error) {
	if p.Providers == nil {
		p.Providers = []PaymentProvider{}
	}
	return json.Marshal(p)
}

func (p *PaymentSettings) Scan(src any) error {
	return scanJSON(src, p)
}

type LineItem struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// LineItems is stored as a jsonb array, order preserved.
type LineItems []LineItem

func (items LineItems) Value() (driver.Value, error) {
	if items == nil {
		items = LineItems{}
	}
	return json.Marshal(items)
}

func (items *LineItems) Scan(src any) error {
	return scanJSON(src, items)
}

type Document struct {
	ID                 string          `db:"id" json:"id"`
	UserID             string          `db:"user_id" json:"user_id"`
	ClientID           string          `db:"client_id" json:"client_id"`
	Type               DocumentType    `db:"type" json:"type"`
	Number             string          `db:"number" json:"number"`
	Status             string          `db:"status" json:"status"`
	Currency           string          `db:"currency" json:"currency"`
	LineItems          LineItems       `db:"line_items" json:"line_items"`
	VATRate            decimal.Decimal `db:"vat_rate" json:"vat_rate"`
	Subtotal           decimal.Decimal `db:"subtotal" json:"subtotal"`
	VATAmount          decimal.Decimal `db:"vat_amount" json:"vat_amount"`
	Total              decimal.Decimal `db:"total" json:"total"`
	IssueDate          time.Time       `db:"issue_date" json:"issue_date"`
	DueDate            *time.Time      `db:"due_date" json:"due_date,omitempty"`
	Notes              string          `db:"notes" json:"notes"`
	PaymentLink        *string         `db:"payment_link" json:"payment_link,omitempty"`
	VerificationHash   *string         `db:"verification_hash" json:"verification_hash,omitempty"`
	VerifiedAt         *time.Time      `db:"verified_at" json:"verified_at,omitempty"`
	PaymentTxHash      *string         `db:"payment_tx_hash" json:"payment_tx_hash,omitempty"`
	PaymentChainID     *int64          `db:"payment_chain_id" json:"payment_chain_id,omitempty"`
	PaymentSubmittedAt *time.Time      `db:"payment_submitted_at" json:"payment_submitted_at,omitempty"`
	PaidAt             *time.Time      `db:"paid_at" json:"paid_at,omitempty"`
	CreatedAt          time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time       `db:"updated_at" json:"updated_at"`
}

// StoredStatus is the persisted status parsed into the closed set.
func (d Document) StoredStatus() Status {
	return ParseStatus(d.Status)
}

// EffectiveStatus derives overdue from the due date without touching the stored value.
func (d Document) EffectiveStatus(now time.Time) Status {
	status := d.StoredStatus()
	if status != StatusSent || d.DueDate == nil {
		return status
	}
	if dateOnly(*d.DueDate).Before(dateOnly(now)) {
		return StatusOverdue
	}
	return status
}

func (d Document) HasHash() bool {
	return d.VerificationHash != nil && *d.VerificationHash != ""
}

func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func scanJSON(src any, dest any) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, dest)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), dest)
	default:
		return errors.New("unsupported json column type")
	}
}

type AuditEntry struct {
	ID          string         `db:"id" json:"id"`
	ActorUserID *string        `db:"actor_user_id" json:"actor_user_id,omitempty"`
	Action      string         `db:"action" json:"action"`
	EntityType  string         `db:"entity_type" json:"entity_type"`
	EntityID    string         `db:"entity_id" json:"entity_id"`
	Data        types.JSONText `db:"data" json:"data"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
}

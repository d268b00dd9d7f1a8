package reports

import (
	"sort"
	"time"

	"invoicer/internal/models"

	"github.com/shopspring/decimal"
)

type Bucket string

const (
	BucketPaid        Bucket = "paid"
	BucketOutstanding Bucket = "outstanding"
	BucketDraft       Bucket = "draft"
	BucketQuoted      Bucket = "quoted"
)

// Classify places a document in exactly one bucket. Quotes never become
// receivables: a sent quote lands in quoted, not outstanding.
func Classify(doc models.Document, now time.Time) Bucket {
	switch doc.EffectiveStatus(now) {
	case models.StatusPaid:
		return BucketPaid
	case models.StatusSent, models.StatusOverdue:
		if doc.Type == models.TypeInvoice {
			return BucketOutstanding
		}
		return BucketQuoted
	default:
		return BucketDraft
	}
}

type CurrencyTotals struct {
	Currency    string          `json:"currency"`
	Paid        decimal.Decimal `json:"paid"`
	Outstanding decimal.Decimal `json:"outstanding"`
	Sent        decimal.Decimal `json:"sent"`
	Overdue     decimal.Decimal `json:"overdue"`
	Draft       decimal.Decimal `json:"draft"`
	Quoted      decimal.Decimal `json:"quoted"`
	All         decimal.Decimal `json:"all"`
}

type Summary struct {
	Totals         []CurrencyTotals `json:"totals"`
	DocumentCount  int              `json:"document_count"`
	InvoiceCount   int              `json:"invoice_count"`
	QuoteCount     int              `json:"quote_count"`
	OverdueCount   int              `json:"overdue_count"`
	OutstandingIDs []string         `json:"outstanding_ids"`
}

// Summarize groups money by currency; amounts in different currencies are never added.
func Summarize(docs []models.Document, now time.Time) Summary {
	byCurrency := map[string]*CurrencyTotals{}
	summary := Summary{OutstandingIDs: []string{}}
	for _, doc := range docs {
		totals, ok := byCurrency[doc.Currency]
		if !ok {
			totals = &CurrencyTotals{Currency: doc.Currency}
			byCurrency[doc.Currency] = totals
		}
		summary.DocumentCount++
		if doc.Type == models.TypeInvoice {
			summary.InvoiceCount++
		} else {
			summary.QuoteCount++
		}
		totals.All = totals.All.Add(doc.Total)
		switch Classify(doc, now) {
		case BucketPaid:
			totals.Paid = totals.Paid.Add(doc.Total)
		case BucketOutstanding:
			totals.Outstanding = totals.Outstanding.Add(doc.Total)
			summary.OutstandingIDs = append(summary.OutstandingIDs, doc.ID)
			if doc.EffectiveStatus(now) == models.StatusOverdue {
				totals.Overdue = totals.Overdue.Add(doc.Total)
				summary.OverdueCount++
			} else {
				totals.Sent = totals.Sent.Add(doc.Total)
			}
		case BucketQuoted:
			totals.Quoted = totals.Quoted.Add(doc.Total)
		default:
			totals.Draft = totals.Draft.Add(doc.Total)
		}
	}
	currencies := make([]string, 0, len(byCurrency))
	for currency := range byCurrency {
		currencies = append(currencies, currency)
	}
	sort.Strings(currencies)
	summary.Totals = make([]CurrencyTotals, 0, len(currencies))
	for _, currency := range currencies {
		summary.Totals = append(summary.Totals, *byCurrency[currency])
	}
	return summary
}

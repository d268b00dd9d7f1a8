package delivery

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"

	"invoicer/internal/models"
	"invoicer/internal/money"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

const defaultBrandColor = "#2563eb"

type emailData struct {
	SenderName string
	LogoURL    string
	BrandColor string
	ClientName string
	Kind       string
	Number     string
	Total      string
	DueDate    string
	Notes      string
	PublicURL  string
	Overdue    bool
}

func newEmailData(doc models.Document, profile models.Profile, client models.Client, publicURL string, now time.Time) emailData {
	color := profile.BrandColor
	if color == "" {
		color = defaultBrandColor
	}
	data := emailData{
		SenderName: profile.DisplayName(),
		LogoURL:    profile.LogoURL,
		BrandColor: color,
		ClientName: client.Name,
		Kind:       string(doc.Type),
		Number:     doc.Number,
		Total:      money.FormatWithCurrency(doc.Total, doc.Currency),
		Notes:      doc.Notes,
		PublicURL:  publicURL,
		Overdue:    doc.EffectiveStatus(now) == models.StatusOverdue,
	}
	if doc.DueDate != nil {
		data.DueDate = doc.DueDate.Format("2006-01-02")
	}
	return data
}

// DocumentEmail renders the message sent when a quote or invoice goes out.
func DocumentEmail(doc models.Document, profile models.Profile, client models.Client, publicURL string, now time.Time) (subject, html string, err error) {
	data := newEmailData(doc, profile, client, publicURL, now)
	subject = fmt.Sprintf("%s %s from %s", titleFor(doc.Type), doc.Number, data.SenderName)
	html, err = render("document.html", data)
	return subject, html, err
}

// ReminderEmail renders a payment reminder for an outstanding invoice.
func ReminderEmail(doc models.Document, profile models.Profile, client models.Client, publicURL string, now time.Time) (subject, html string, err error) {
	data := newEmailData(doc, profile, client, publicURL, now)
	prefix := "Reminder"
	if data.Overdue {
		prefix = "Overdue"
	}
	subject = fmt.Sprintf("%s: invoice %s from %s", prefix, doc.Number, data.SenderName)
	html, err = render("reminder.html", data)
	return subject, html, err
}

func render(name string, data emailData) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func titleFor(t models.DocumentType) string {
	if t == models.TypeQuote {
		return "Quote"
	}
	return "Invoice"
}

package delivery

import (
	"fmt"
	"net/url"
	"strings"
	"unicode"

	"invoicer/internal/models"
	"invoicer/internal/money"
)

const whatsAppBase = "https://wa.me/"

// WhatsAppLink builds a wa.me share link. Phone is optional; only its digits
// are kept, so "+1 (555) 010-0000" and "15550100000" are equivalent.
func WhatsAppLink(phone, message string) string {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, phone)
	return whatsAppBase + digits + "?text=" + url.QueryEscape(message)
}

// WhatsAppMessage is the text sent alongside the public document link.
func WhatsAppMessage(doc models.Document, profile models.Profile, client models.Client, publicURL string) string {
	greeting := "Hello"
	if client.Name != "" {
		greeting = "Hello " + client.Name
	}
	return fmt.Sprintf("%s, here is your %s %s from %s for %s: %s",
		greeting, doc.Type, doc.Number, profile.DisplayName(),
		money.FormatWithCurrency(doc.Total, doc.Currency), publicURL)
}

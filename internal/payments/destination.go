package payments

import (
	"strings"

	"invoicer/internal/models"
)

type DestinationKind string

const (
	KindLink   DestinationKind = "link"
	KindCrypto DestinationKind = "crypto"
	KindNone   DestinationKind = "none"
)

type Destination struct {
	Kind     DestinationKind         `json:"kind"`
	URL      string                  `json:"url,omitempty"`
	Provider *models.PaymentProvider `json:"provider,omitempty"`
	Wallet   *models.WalletSettings  `json:"wallet,omitempty"`
}

// Resolve picks where a client should pay: the document's own link first, then
// the default provider, then any enabled provider, then the wallet.
func Resolve(doc models.Document, settings models.PaymentSettings) Destination {
	if doc.PaymentLink != nil && strings.TrimSpace(*doc.PaymentLink) != "" {
		return Destination{Kind: KindLink, URL: strings.TrimSpace(*doc.PaymentLink)}
	}
	if settings.DefaultProviderID != "" {
		for _, provider := range settings.Providers {
			if provider.ID == settings.DefaultProviderID && usable(provider) {
				p := provider
				return Destination{Kind: KindLink, URL: p.URL, Provider: &p}
			}
		}
	}
	for _, provider := range settings.Providers {
		if usable(provider) {
			p := provider
			return Destination{Kind: KindLink, URL: p.URL, Provider: &p}
		}
	}
	if settings.Wallet != nil && settings.Wallet.Address != "" {
		w := *settings.Wallet
		return Destination{Kind: KindCrypto, Wallet: &w}
	}
	return Destination{Kind: KindNone}
}

func usable(provider models.PaymentProvider) bool {
	return provider.Enabled && strings.TrimSpace(provider.URL) != ""
}

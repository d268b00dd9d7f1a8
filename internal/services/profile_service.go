package services

import (
	"context"
	"errors"
	"strings"

	"invoicer/internal/db"
	"invoicer/internal/models"
	"invoicer/internal/payments"
	"invoicer/internal/storage"
	"invoicer/internal/validator"

	"github.com/jmoiron/sqlx"
)

type ProfileService struct {
	txRunner db.TxRunner
	profiles ProfileStore
	audit    AuditStore
	logos    LogoUploader
}

func NewProfileService(txRunner db.TxRunner, profiles ProfileStore, audit AuditStore, logos LogoUploader) *ProfileService {
	return &ProfileService{txRunner: txRunner, profiles: profiles, audit: audit, logos: logos}
}

func (s *ProfileService) Get(ctx context.Context, userID string) (models.Profile, error) {
	if userID == "" {
		return models.Profile{}, ErrAuthenticationRequired
	}
	profile, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return models.Profile{}, lookupError(err)
	}
	return profile, nil
}

type ProfileInput struct {
	FullName      string
	CompanyName   string
	BrandColor    string
	BankName      string
	AccountHolder string
	IBAN          string
	BIC           string
}

// Update replaces branding and bank details. Logo and payment settings have
// their own operations.
func (s *ProfileService) Update(ctx context.Context, userID string, in ProfileInput) (models.Profile, error) {
	profile, err := s.Get(ctx, userID)
	if err != nil {
		return models.Profile{}, err
	}
	if err := validator.ValidateColor(strings.TrimSpace(in.BrandColor)); err != nil {
		return models.Profile{}, validationError("%v", err)
	}
	profile.FullName = strings.TrimSpace(in.FullName)
	profile.CompanyName = strings.TrimSpace(in.CompanyName)
	profile.BrandColor = strings.ToLower(strings.TrimSpace(in.BrandColor))
	profile.BankName = strings.TrimSpace(in.BankName)
	profile.AccountHolder = strings.TrimSpace(in.AccountHolder)
	profile.IBAN = strings.ToUpper(strings.ReplaceAll(in.IBAN, " ", ""))
	profile.BIC = strings.ToUpper(strings.TrimSpace(in.BIC))

	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		rows, err := s.profiles.Update(ctx, tx, profile)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrNotFound
		}
		return s.audit.Log(ctx, tx, userID, "profile.update", "profile", userID, nil)
	})
	if err != nil {
		return models.Profile{}, passThrough(err)
	}
	return profile, nil
}

// ValidatePaymentSettings checks provider urls and ids and, when a wallet is
// set, that its chain and token are supported.
func ValidatePaymentSettings(settings *models.PaymentSettings) error {
	seen := map[string]bool{}
	for i := range settings.Providers {
		provider := &settings.Providers[i]
		provider.ID = strings.TrimSpace(provider.ID)
		provider.Name = strings.TrimSpace(provider.Name)
		provider.URL = strings.TrimSpace(provider.URL)
		if provider.ID == "" {
			return validationError("provider %d has no id", i+1)
		}
		if seen[provider.ID] {
			return validationError("duplicate provider id %q", provider.ID)
		}
		seen[provider.ID] = true
		if err := validator.ValidateURL(provider.URL); err != nil {
			return validationError("provider %q: %v", provider.ID, err)
		}
		if provider.Enabled && provider.URL == "" {
			return validationError("provider %q is enabled without a url", provider.ID)
		}
	}
	if settings.DefaultProviderID != "" && !seen[settings.DefaultProviderID] {
		return validationError("default provider %q is not configured", settings.DefaultProviderID)
	}
	if settings.Wallet != nil {
		wallet := settings.Wallet
		wallet.Address = strings.TrimSpace(wallet.Address)
		wallet.Token = strings.ToUpper(strings.TrimSpace(wallet.Token))
		if wallet.Address == "" {
			settings.Wallet = nil
			return nil
		}
		if err := payments.ValidateAddress(wallet.Address); err != nil {
			return validationError("%v", err)
		}
		if _, err := payments.LookupChain(wallet.ChainID); err != nil {
			return validationError("chain %d is not supported, use one of %v", wallet.ChainID, payments.SupportedChainIDs())
		}
		if _, _, err := payments.LookupToken(wallet.ChainID, wallet.Token); err != nil {
			return validationError("%v", err)
		}
	}
	return nil
}

func (s *ProfileService) UpdatePaymentSettings(ctx context.Context, userID string, settings models.PaymentSettings) (models.PaymentSettings, error) {
	if userID == "" {
		return models.PaymentSettings{}, ErrAuthenticationRequired
	}
	if err := ValidatePaymentSettings(&settings); err != nil {
		return models.PaymentSettings{}, err
	}
	if settings.Providers == nil {
		settings.Providers = []models.PaymentProvider{}
	}
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		rows, err := s.profiles.UpdatePaymentSettings(ctx, tx, userID, settings)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrNotFound
		}
		return s.audit.Log(ctx, tx, userID, "profile.payment_settings", "profile", userID, map[string]any{
			"providers":  len(settings.Providers),
			"has_wallet": settings.Wallet != nil,
		})
	})
	if err != nil {
		return models.PaymentSettings{}, passThrough(err)
	}
	return settings, nil
}

// UploadLogo stores the image and points the profile at it.
func (s *ProfileService) UploadLogo(ctx context.Context, userID string, data []byte) (string, error) {
	if userID == "" {
		return "", ErrAuthenticationRequired
	}
	url, err := s.logos.Upload(ctx, userID, data)
	if err != nil {
		if errors.Is(err, storage.ErrLogoTooLarge) || errors.Is(err, storage.ErrUnsupportedLogoType) {
			return "", validationError("%v", err)
		}
		return "", storageError(err)
	}
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		rows, err := s.profiles.UpdateLogo(ctx, tx, userID, url)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrNotFound
		}
		return s.audit.Log(ctx, tx, userID, "profile.logo", "profile", userID, map[string]any{"logo_url": url})
	})
	if err != nil {
		return "", passThrough(err)
	}
	return url, nil
}

package store

import (
	"context"

	"invoicer/internal/models"
)

type ProfileStore struct {
	db DB
}

func NewProfileStore(db DB) *ProfileStore {
	return &ProfileStore{db: db}
}

const profileColumns = `user_id, full_name, company_name, logo_url, brand_color, bank_name, account_holder, iban, bic, payment_settings, updated_at`

func (s *ProfileStore) Create(ctx context.Context, tx Execer, userID, fullName string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO profiles (user_id, full_name)
		VALUES ($1, $2)
	`, userID, fullName)
	return err
}

func (s *ProfileStore) Get(ctx context.Context, userID string) (models.Profile, error) {
	var row models.Profile
	err := s.db.GetContext(ctx, &row, `SELECT `+profileColumns+` FROM profiles WHERE user_id = $1`, userID)
	if err != nil {
		return models.Profile{}, err
	}
	return row, nil
}

func (s *ProfileStore) Update(ctx context.Context, tx Execer, profile models.Profile) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE profiles
		SET full_name = $1, company_name = $2, brand_color = $3, bank_name = $4,
		    account_holder = $5, iban = $6, bic = $7, updated_at = NOW()
		WHERE user_id = $8
	`, profile.FullName, profile.CompanyName, profile.BrandColor, profile.BankName,
		profile.AccountHolder, profile.IBAN, profile.BIC, profile.UserID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *ProfileStore) UpdatePaymentSettings(ctx context.Context, tx Execer, userID string, settings models.PaymentSettings) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE profiles
		SET payment_settings = $1, updated_at = NOW()
		WHERE user_id = $2
	`, settings, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *ProfileStore) UpdateLogo(ctx context.Context, tx Execer, userID, logoURL string) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE profiles
		SET logo_url = $1, updated_at = NOW()
		WHERE user_id = $2
	`, logoURL, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

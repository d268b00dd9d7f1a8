package store

import (
	"context"
	"strings"

	"invoicer/internal/models"
)

type ClientStore struct {
	db DB
}

func NewClientStore(db DB) *ClientStore {
	return &ClientStore{db: db}
}

const clientColumns = `id, user_id, name, email, address, phone, created_at, updated_at`

func (s *ClientStore) Create(ctx context.Context, tx Execer, client models.Client) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO clients (id, user_id, name, email, address, phone)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, client.ID, client.UserID, client.Name, client.Email, client.Address, client.Phone)
	return err
}

func (s *ClientStore) Get(ctx context.Context, userID, clientID string) (models.Client, error) {
	var row models.Client
	err := s.db.GetContext(ctx, &row, `SELECT `+clientColumns+` FROM clients WHERE id = $1 AND user_id = $2`, clientID, userID)
	if err != nil {
		return models.Client{}, err
	}
	return row, nil
}

// GetByID skips the ownership filter; only the public document view uses it.
func (s *ClientStore) GetByID(ctx context.Context, clientID string) (models.Client, error) {
	var row models.Client
	err := s.db.GetContext(ctx, &row, `SELECT `+clientColumns+` FROM clients WHERE id = $1`, clientID)
	if err != nil {
		return models.Client{}, err
	}
	return row, nil
}

func (s *ClientStore) List(ctx context.Context, userID, search string, limit, offset int) ([]models.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE user_id = $1`
	args := []any{userID}
	param := 2
	if search = strings.TrimSpace(search); search != "" {
		query += " AND (name ILIKE $2 OR email ILIKE $2)"
		args = append(args, "%"+search+"%")
		param = 3
	}
	query += " ORDER BY name LIMIT $" + itoa(param) + " OFFSET $" + itoa(param+1)
	args = append(args, limit, offset)
	rows := []models.Client{}
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *ClientStore) Update(ctx context.Context, tx Execer, client models.Client) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE clients
		SET name = $1, email = $2, address = $3, phone = $4, updated_at = NOW()
		WHERE id = $5 AND user_id = $6
	`, client.Name, client.Email, client.Address, client.Phone, client.ID, client.UserID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *ClientStore) CountDocuments(ctx context.Context, tx Getter, userID, clientID string) (int, error) {
	var count int
	err := tx.GetContext(ctx, &count, `SELECT COUNT(*) FROM documents WHERE client_id = $1 AND user_id = $2`, clientID, userID)
	return count, err
}

func (s *ClientStore) Delete(ctx context.Context, tx Execer, userID, clientID string) (int64, error) {
	res, err := tx.ExecContext(ctx, `DELETE FROM clients WHERE id = $1 AND user_id = $2`, clientID, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

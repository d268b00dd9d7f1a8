package services

import (
	"context"
	"fmt"
	"strings"

	"invoicer/internal/db"
	"invoicer/internal/models"
	"invoicer/internal/validator"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

type ClientService struct {
	txRunner db.TxRunner
	clients  ClientStore
	audit    AuditStore
	now      Clock
}

func NewClientService(txRunner db.TxRunner, clients ClientStore, audit AuditStore) *ClientService {
	return &ClientService{txRunner: txRunner, clients: clients, audit: audit, now: systemClock}
}

type ClientInput struct {
	Name    string
	Email   string
	Address string
	Phone   string
}

func (in ClientInput) normalize() (ClientInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Address = strings.TrimSpace(in.Address)
	in.Phone = strings.TrimSpace(in.Phone)
	if in.Name == "" {
		return in, validationError("client name is required")
	}
	if err := validator.ValidateOptionalEmail(in.Email); err != nil {
		return in, validationError("%v", err)
	}
	if err := validator.ValidatePhone(in.Phone); err != nil {
		return in, validationError("%v", err)
	}
	return in, nil
}

func (s *ClientService) Create(ctx context.Context, userID string, in ClientInput) (models.Client, error) {
	if userID == "" {
		return models.Client{}, ErrAuthenticationRequired
	}
	in, err := in.normalize()
	if err != nil {
		return models.Client{}, err
	}
	now := s.now()
	client := models.Client{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      in.Name,
		Email:     in.Email,
		Address:   in.Address,
		Phone:     in.Phone,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.clients.Create(ctx, tx, client); err != nil {
			return err
		}
		return s.audit.Log(ctx, tx, userID, "client.create", "client", client.ID, map[string]any{"name": client.Name})
	})
	if err != nil {
		return models.Client{}, passThrough(err)
	}
	return client, nil
}

func (s *ClientService) Get(ctx context.Context, userID, clientID string) (models.Client, error) {
	if userID == "" {
		return models.Client{}, ErrAuthenticationRequired
	}
	client, err := s.clients.Get(ctx, userID, clientID)
	if err != nil {
		return models.Client{}, lookupError(err)
	}
	return client, nil
}

func (s *ClientService) List(ctx context.Context, userID, search string, limit, offset int) ([]models.Client, error) {
	if userID == "" {
		return nil, ErrAuthenticationRequired
	}
	limit, offset = clampPage(limit, offset)
	clients, err := s.clients.List(ctx, userID, search, limit, offset)
	if err != nil {
		return nil, storageError(err)
	}
	return clients, nil
}

func (s *ClientService) Update(ctx context.Context, userID, clientID string, in ClientInput) (models.Client, error) {
	client, err := s.Get(ctx, userID, clientID)
	if err != nil {
		return models.Client{}, err
	}
	in, err = in.normalize()
	if err != nil {
		return models.Client{}, err
	}
	client.Name = in.Name
	client.Email = in.Email
	client.Address = in.Address
	client.Phone = in.Phone
	client.UpdatedAt = s.now()
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		rows, err := s.clients.Update(ctx, tx, client)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrNotFound
		}
		return s.audit.Log(ctx, tx, userID, "client.update", "client", client.ID, nil)
	})
	if err != nil {
		return models.Client{}, passThrough(err)
	}
	return client, nil
}

// Delete refuses while any document still references the client.
func (s *ClientService) Delete(ctx context.Context, userID, clientID string) error {
	if userID == "" {
		return ErrAuthenticationRequired
	}
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		count, err := s.clients.CountDocuments(ctx, tx, userID, clientID)
		if err != nil {
			return err
		}
		if count > 0 {
			noun := "documents reference"
			if count == 1 {
				noun = "document references"
			}
			return fmt.Errorf("%w: cannot delete client: %d %s it", ErrClientInUse, count, noun)
		}
		rows, err := s.clients.Delete(ctx, tx, userID, clientID)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrNotFound
		}
		return s.audit.Log(ctx, tx, userID, "client.delete", "client", clientID, nil)
	})
	return passThrough(err)
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}


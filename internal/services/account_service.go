package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"invoicer/internal/auth"
	"invoicer/internal/db"
	"invoicer/internal/models"
	"invoicer/internal/validator"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type AccountService struct {
	txRunner  db.TxRunner
	users     UserStore
	profiles  ProfileStore
	audit     AuditStore
	jwtSecret string
	tokenTTL  time.Duration
}

func NewAccountService(txRunner db.TxRunner, users UserStore, profiles ProfileStore, audit AuditStore, jwtSecret string, tokenTTL time.Duration) *AccountService {
	return &AccountService{
		txRunner:  txRunner,
		users:     users,
		profiles:  profiles,
		audit:     audit,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
	}
}

type RegisterRequest struct {
	Email    string
	Password string
	FullName string
}

type Session struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// Register creates the user and an empty profile in one transaction.
func (s *AccountService) Register(ctx context.Context, req RegisterRequest) (Session, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if err := validator.ValidateEmail(email); err != nil {
		return Session{}, validationError("%v", err)
	}
	if err := validator.ValidatePassword(req.Password); err != nil {
		return Session{}, validationError("%v", err)
	}
	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return Session{}, err
	}
	user := models.User{ID: uuid.NewString(), Email: email, CreatedAt: time.Now().UTC()}
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.users.Create(ctx, tx, user.ID, email, passwordHash); err != nil {
			return err
		}
		if err := s.profiles.Create(ctx, tx, user.ID, strings.TrimSpace(req.FullName)); err != nil {
			return err
		}
		return s.audit.Log(ctx, tx, user.ID, "register", "user", user.ID, map[string]any{"email": email})
	})
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return Session{}, ErrEmailTaken
		}
		return Session{}, storageError(err)
	}
	return s.session(user)
}

func (s *AccountService) Login(ctx context.Context, email, password string) (Session, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(lookupError(err), ErrNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, storageError(err)
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return Session{}, ErrInvalidCredentials
	}
	return s.session(user)
}

func (s *AccountService) Me(ctx context.Context, userID string) (models.User, error) {
	if userID == "" {
		return models.User{}, ErrAuthenticationRequired
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return models.User{}, lookupError(err)
	}
	return user, nil
}

func (s *AccountService) session(user models.User) (Session, error) {
	token, err := auth.GenerateToken(s.jwtSecret, user.ID, s.tokenTTL)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, User: user}, nil
}

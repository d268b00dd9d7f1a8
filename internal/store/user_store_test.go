package store

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"invoicer/internal/models"
)

func TestUserStoreCreate(t *testing.T) {
	ctx := context.Background()
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "INSERT INTO users") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 3 || args[0] != "user-1" || args[1] != "email@example.com" {
				t.Fatalf("unexpected args: %#v", args)
			}
			return stubResult{rows: 1}, nil
		},
	}
	store := NewUserStore(stubDB{})
	if err := store.Create(ctx, execer, "user-1", "email@example.com", "hash"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUserStoreGetByEmail(t *testing.T) {
	ctx := context.Background()
	store := NewUserStore(stubDB{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "lower(email) = lower($1)") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 1 || args[0] != "email@example.com" {
				t.Fatalf("unexpected args: %#v", args)
			}
			*dest.(*models.User) = models.User{ID: "user-1", PasswordHash: "hash"}
			return nil
		},
	})
	user, err := store.GetByEmail(ctx, "email@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ID != "user-1" || user.PasswordHash != "hash" {
		t.Fatalf("unexpected user: %#v", user)
	}
}

func TestUserStoreGetByIDNotFound(t *testing.T) {
	store := NewUserStore(stubDB{
		getFn: func(context.Context, any, string, ...any) error { return sql.ErrNoRows },
	})
	if _, err := store.GetByID(context.Background(), "missing"); err != sql.ErrNoRows {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

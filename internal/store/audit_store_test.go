package store

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"invoicer/internal/models"
)

func TestAuditStoreLog(t *testing.T) {
	ctx := context.Background()
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "INSERT INTO audit_logs") {
				t.Fatalf("unexpected query: %s", query)
			}
			actor, ok := args[0].(*string)
			if !ok || actor == nil || *actor != "actor-1" || args[1] != "action" {
				t.Fatalf("unexpected args: %#v", args)
			}
			if args[4] != `{"number":"INV-1"}` {
				t.Fatalf("unexpected data: %#v", args[4])
			}
			return stubResult{rows: 1}, nil
		},
	}
	store := NewAuditStore(stubDB{})
	if err := store.Log(ctx, execer, "actor-1", "action", "document", "doc-1", map[string]any{"number": "INV-1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAuditStoreLogAnonymousActor(t *testing.T) {
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if actor := args[0].(*string); actor != nil {
				t.Fatalf("expected NULL actor, got %q", *actor)
			}
			if args[4] != "{}" {
				t.Fatalf("unexpected data: %#v", args[4])
			}
			return stubResult{rows: 1}, nil
		},
	}
	if err := NewAuditStore(stubDB{}).Log(context.Background(), execer, "", "crypto_payment_submitted", "document", "doc-1", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAuditStoreListForEntity(t *testing.T) {
	store := NewAuditStore(stubDB{
		selectFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "WHERE entity_type = $1 AND entity_id = $2") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 3 || args[0] != "document" || args[2] != 50 {
				t.Fatalf("unexpected args: %#v", args)
			}
			*dest.(*[]models.AuditEntry) = []models.AuditEntry{{ID: "log-1"}}
			return nil
		},
	})
	rows, err := store.ListForEntity(context.Background(), "document", "doc-1", 50)
	if err != nil || len(rows) != 1 || rows[0].ID != "log-1" {
		t.Fatalf("unexpected rows: %#v %v", rows, err)
	}
}

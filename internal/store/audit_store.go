package store

import (
	"context"
	"encoding/json"

	"invoicer/internal/models"
)

type AuditStore struct {
	db DB
}

func NewAuditStore(db DB) *AuditStore {
	return &AuditStore{db: db}
}

// Log records an action. An empty actorID is stored as NULL (public actions).
func (s *AuditStore) Log(ctx context.Context, tx Execer, actorID, action, entityType, entityID string, data map[string]any) error {
	if data == nil {
		data = map[string]any{}
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	var actor *string
	if actorID != "" {
		actor = &actorID
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO audit_logs (id, actor_user_id, action, entity_type, entity_id, data)
		VALUES (gen_random_uuid()::text, $1, $2, $3, $4, $5)
	`, actor, action, entityType, entityID, string(payload))
	return err
}

// ListForEntity returns the history of one entity, newest first.
func (s *AuditStore) ListForEntity(ctx context.Context, entityType, entityID string, limit int) ([]models.AuditEntry, error) {
	rows := []models.AuditEntry{}
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, actor_user_id, action, entity_type, entity_id, data, created_at
		FROM audit_logs
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC
		LIMIT $3
	`, entityType, entityID, limit)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

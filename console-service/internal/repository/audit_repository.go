package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/eaglebank/console/shared/events"
)

// AuditRepository appends audit records. The log type is stored verbatim.
type AuditRepository struct {
	db DBTX
}

func NewAuditRepository(db DBTX) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Insert(ctx context.Context, eventID string, at time.Time, e events.AuditEvent) error {
	detail, err := json.Marshal(e.Detail)
	if err != nil {
		return fmt.Errorf("failed to marshal audit detail: %w", err)
	}
	query := `
		INSERT INTO audit_log (event_id, log_type, operation, user_id, ip, request_id, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (event_id) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query,
		eventID, e.LogType, e.Operation, e.UserID, e.IP, e.RequestID, detail, at,
	); err != nil {
		return fmt.Errorf("failed to insert audit record: %w", err)
	}
	return nil
}

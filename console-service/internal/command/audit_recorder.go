package command

import (
	"context"
	"time"

	"github.com/eaglebank/console/shared/events"
	"go.uber.org/zap"
)

// AuditWriter persists audit records.
type AuditWriter interface {
	Insert(ctx context.Context, eventID string, at time.Time, e events.AuditEvent) error
}

// AuditRecorder is the audit stream subscriber handler. It stores every
// audit.recorded event and ignores other event types.
type AuditRecorder struct {
	writer AuditWriter
	logger *zap.Logger
}

func NewAuditRecorder(writer AuditWriter, logger *zap.Logger) *AuditRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditRecorder{writer: writer, logger: logger}
}

func (r *AuditRecorder) HandleAuditEvent(ctx context.Context, event events.Event) error {
	if event.Type != events.AuditRecorded {
		r.logger.Debug("ignoring event", zap.String("type", event.Type))
		return nil
	}
	var data events.AuditEvent
	if err := events.DecodeData(event, &data); err != nil {
		return err
	}
	at := event.Timestamp
	if at.IsZero() {
		at = time.Now().UTC()
	}
	if err := r.writer.Insert(ctx, event.ID, at, data); err != nil {
		return err
	}
	r.logger.Debug("audit recorded",
		zap.String("logType", data.LogType),
		zap.String("operation", data.Operation),
		zap.String("userId", data.UserID))
	return nil
}

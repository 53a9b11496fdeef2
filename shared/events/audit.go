package events

import (
	"context"
	"errors"

	"github.com/eaglebank/console/shared/errs"
	"go.uber.org/zap"
)

// AuditPublisher emits audit events. *Publisher implements it.
type AuditPublisher interface {
	PublishAudit(ctx context.Context, e AuditEvent) error
}

// Auditor records operation outcomes. A nil *Auditor records nothing.
type Auditor struct {
	publisher AuditPublisher
	logger    *zap.Logger
}

func NewAuditor(publisher AuditPublisher, logger *zap.Logger) *Auditor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Auditor{publisher: publisher, logger: logger}
}

// Record publishes one audit event with the outcome of opErr added to detail.
// Publishing failures are logged and never reach the caller.
func (a *Auditor) Record(ctx context.Context, logType, op, userID string, detail map[string]any, opErr error) {
	if a == nil || a.publisher == nil {
		return
	}
	if detail == nil {
		detail = map[string]any{}
	}
	detail["outcome"] = Outcome(opErr)
	if err := a.publisher.PublishAudit(ctx, AuditEvent{
		LogType:   logType,
		Operation: op,
		UserID:    userID,
		Detail:    detail,
	}); err != nil {
		a.logger.Warn("failed to publish audit event",
			zap.String("operation", op), zap.String("userId", userID), zap.Error(err))
	}
}

// Outcome names an operation result for audit records.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, errs.ErrAccountNotFound):
		return "not_found"
	case errors.Is(err, errs.ErrUserNameTaken):
		return "conflict"
	case errors.Is(err, errs.ErrForbidden):
		return "forbidden"
	case errors.Is(err, errs.ErrPasswordMismatch), errors.Is(err, errs.ErrOldPasswordIncorrect):
		return "password_mismatch"
	case errors.Is(err, errs.ErrNotModified):
		return "not_modified"
	case errors.Is(err, errs.ErrInvalidParams):
		return "invalid"
	default:
		return "error"
	}
}

package events

import (
	"context"
	"time"
)

// Audit log classifications. They are stored as-is; consumers treat them as opaque.
const (
	LogUserSelect        = "user.select"
	LogUserCheckPassword = "user.check_password"
	LogUserUpdateInfo    = "user.update_info"
)

// Event types
const (
	AuditRecorded = "audit.recorded"
)

// Stream names
const (
	AuditStream = "console.audit"
)

// Base event structure
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// AuditEvent records one console operation.
type AuditEvent struct {
	LogType   string         `json:"logType"`
	Operation string         `json:"operation"`
	UserID    string         `json:"userId"`
	IP        string         `json:"ip,omitempty"`
	RequestID string         `json:"requestId,omitempty"`
	Detail    map[string]any `json:"detail,omitempty"`
}

// Origin describes where a request came from.
type Origin struct {
	IP        string
	RequestID string
}

type originKey struct{}

// WithOrigin attaches the request origin to ctx for audit events.
func WithOrigin(ctx context.Context, o Origin) context.Context {
	return context.WithValue(ctx, originKey{}, o)
}

// OriginFrom returns the origin stored by WithOrigin, or the zero Origin.
func OriginFrom(ctx context.Context) Origin {
	o, _ := ctx.Value(originKey{}).(Origin)
	return o
}

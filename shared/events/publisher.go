package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/eaglebank/console/shared/utils"
	"github.com/redis/go-redis/v9"
)

type Publisher struct {
	client redis.Cmdable
	maxLen int64
}

// NewPublisher returns a stream publisher. maxLen caps each stream
// approximately; 0 leaves streams unbounded.
func NewPublisher(client redis.Cmdable, maxLen int64) *Publisher {
	return &Publisher{client: client, maxLen: maxLen}
}

func (p *Publisher) Publish(ctx context.Context, stream, eventType string, data any) error {
	event := Event{
		ID:        utils.GenerateID("evt"),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}

	eventJSON, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: stream,
		Values: map[string]any{
			"event": eventJSON,
		},
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}

	if _, err := p.client.XAdd(ctx, args).Result(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// PublishAudit publishes an audit event to the audit stream, filling in the
// request origin from ctx.
func (p *Publisher) PublishAudit(ctx context.Context, e AuditEvent) error {
	o := OriginFrom(ctx)
	if e.IP == "" {
		e.IP = o.IP
	}
	if e.RequestID == "" {
		e.RequestID = o.RequestID
	}
	return p.Publish(ctx, AuditStream, AuditRecorded, e)
}

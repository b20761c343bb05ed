package consumer

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed audit_schema.sql
var auditSchemaSQL string

// AuditHandler appends every change event to the ledger_event_log table.
// Redelivered events are ignored by event ID.
type AuditHandler struct {
	pool *pgxpool.Pool
}

// NewAuditHandler constructs a handler backed by pool.
func NewAuditHandler(pool *pgxpool.Pool) *AuditHandler {
	return &AuditHandler{pool: pool}
}

// EnsureSchema creates the audit table when it does not exist.
func (h *AuditHandler) EnsureSchema(ctx context.Context) error {
	if _, err := h.pool.Exec(ctx, auditSchemaSQL); err != nil {
		return fmt.Errorf("apply audit schema: %w", err)
	}
	return nil
}

// Handle stores msg.
func (h *AuditHandler) Handle(ctx context.Context, msg Message) error {
	conn, err := h.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	var occurredAt *time.Time
	if !msg.OccurredAt.IsZero() {
		occurredAt = &msg.OccurredAt
	}
	_, err = conn.Exec(ctx,
		`INSERT INTO ledger_event_log (event_id, event_type, user_key, topic, partition, record_offset, payload, occurred_at)
         VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
         ON CONFLICT (event_id) DO NOTHING`,
		msg.EventID,
		msg.EventType,
		msg.UserKey,
		msg.Topic,
		msg.Partition,
		msg.Offset,
		string(msg.Payload),
		occurredAt,
	)
	return err
}

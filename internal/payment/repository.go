package payment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Repository audits webhook deliveries. A repeated (provider, event_id)
// pair is reported as a duplicate only once an earlier delivery of it was
// processed; redeliveries of a failed event reclaim the same row.
type Repository interface {
	SaveWebhook(ctx context.Context, rec WebhookRecord) (webhookID int64, isDuplicate bool, err error)
	MarkWebhookProcessed(ctx context.Context, webhookID int64) error
	MarkWebhookFailed(ctx context.Context, webhookID int64, reason string) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) SaveWebhook(ctx context.Context, rec WebhookRecord) (int64, bool, error) {
	const q = `
	INSERT INTO payment_webhooks (
		provider,
		event_id,
		event,
		reference,
		payload
	)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (provider, event_id)
	DO UPDATE SET
		payload = EXCLUDED.payload,
		received_at = NOW()
	WHERE payment_webhooks.processed_at IS NULL
	RETURNING id;
	`

	var id int64
	err := r.db.QueryRowContext(ctx, q,
		rec.Provider,
		rec.EventID,
		rec.Event,
		rec.Reference,
		string(rec.Payload),
	).Scan(&id)
	if err != nil {
		// Already processed.
		if errors.Is(err, sql.ErrNoRows) {
			return 0, true, nil
		}
		return 0, false, fmt.Errorf("save webhook: %w", err)
	}
	return id, false, nil
}

func (r *repository) MarkWebhookProcessed(ctx context.Context, webhookID int64) error {
	const q = `
	UPDATE payment_webhooks
	SET processed_at = NOW(), process_error = NULL
	WHERE id = $1;
	`
	if _, err := r.db.ExecContext(ctx, q, webhookID); err != nil {
		return fmt.Errorf("mark webhook processed: %w", err)
	}
	return nil
}

func (r *repository) MarkWebhookFailed(ctx context.Context, webhookID int64, reason string) error {
	const q = `
	UPDATE payment_webhooks
	SET process_error = $2
	WHERE id = $1;
	`
	if _, err := r.db.ExecContext(ctx, q, webhookID, reason); err != nil {
		return fmt.Errorf("mark webhook failed: %w", err)
	}
	return nil
}

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

const sendColumns = `id, contact_id, campaign_id, COALESCE(provider_email_id,''), status,
	opened, open_count, clicked, click_count,
	bounced, COALESCE(bounce_reason,''), complained, unsubscribed,
	delivered_at, opened_at, last_opened_at, clicked_at, last_clicked_at,
	bounced_at, complained_at, unsubscribed_at, created_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSend(row rowScanner) (*Send, error) {
	var snd Send
	err := row.Scan(
		&snd.ID, &snd.ContactID, &snd.CampaignID, &snd.ProviderEmailID, &snd.Status,
		&snd.Opened, &snd.OpenCount, &snd.Clicked, &snd.ClickCount,
		&snd.Bounced, &snd.BounceReason, &snd.Complained, &snd.Unsubscribed,
		&snd.DeliveredAt, &snd.OpenedAt, &snd.LastOpenedAt, &snd.ClickedAt, &snd.LastClickedAt,
		&snd.BouncedAt, &snd.ComplainedAt, &snd.UnsubscribedAt, &snd.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &snd, nil
}

// GetSend returns a send by id, or nil when not found.
func (s *Store) GetSend(ctx context.Context, id uuid.UUID) (*Send, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sendColumns+` FROM sends WHERE id = $1`, id)
	snd, err := scanSend(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return snd, nil
}

// ListSendsByProviderEmailID returns sends matching the delivery provider's
// own email identifier. Provider webhooks arrive keyed by this id, possibly
// before the send row is visible, so an empty result is not an error.
func (s *Store) ListSendsByProviderEmailID(ctx context.Context, providerEmailID string) ([]Send, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sendColumns+` FROM sends WHERE provider_email_id = $1`, providerEmailID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sends []Send
	for rows.Next() {
		snd, err := scanSend(rows)
		if err != nil {
			continue
		}
		sends = append(sends, *snd)
	}
	return sends, rows.Err()
}

// MarkOpened records an open occurrence. The first transition is an atomic
// conditional update so concurrent pixel hits cannot both observe "first
// open"; the counter and last-opened stamp advance on every hit.
func (s *Store) MarkOpened(ctx context.Context, id uuid.UUID, at time.Time) (first bool, err error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sends SET opened = TRUE, opened_at = $2 WHERE id = $1 AND NOT opened`,
		id, at)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE sends SET open_count = open_count + 1, last_opened_at = $2 WHERE id = $1`,
		id, at)
	return affected == 1, err
}

// MarkClicked records a click occurrence with the same first-transition
// semantics as MarkOpened.
func (s *Store) MarkClicked(ctx context.Context, id uuid.UUID, at time.Time) (first bool, err error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sends SET clicked = TRUE, clicked_at = $2 WHERE id = $1 AND NOT clicked`,
		id, at)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE sends SET click_count = click_count + 1, last_clicked_at = $2 WHERE id = $1`,
		id, at)
	return affected == 1, err
}

// MarkDelivered sets delivery status and timestamp.
func (s *Store) MarkDelivered(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE sends SET status = 'delivered', delivered_at = $2 WHERE id = $1`,
		id, at)
	return err
}

// MarkBounced sets bounce status, flag and reason.
func (s *Store) MarkBounced(ctx context.Context, id uuid.UUID, reason string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE sends SET status = 'bounced', bounced = TRUE, bounce_reason = $2, bounced_at = $3
		WHERE id = $1`,
		id, reason, at)
	return err
}

// MarkComplained sets the spam complaint flag and timestamp.
func (s *Store) MarkComplained(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE sends SET complained = TRUE, complained_at = $2 WHERE id = $1`,
		id, at)
	return err
}

// MarkUnsubscribed sets the unsubscribe flag and timestamp. Repeated calls
// are harmless, which keeps the unsubscribe page idempotent.
func (s *Store) MarkUnsubscribed(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE sends SET unsubscribed = TRUE, unsubscribed_at = $2 WHERE id = $1`,
		id, at)
	return err
}

package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"
)

// Store handles all Postgres access for the tracking service.
type Store struct {
	db *sql.DB
}

// New creates a store on top of an existing connection pool.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// AppendEvent inserts an immutable tracking event row.
func (s *Store) AppendEvent(ctx context.Context, e *TrackingEvent) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	metadataJSON, _ := json.Marshal(e.Metadata)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tracking_events (id, send_id, event_type, metadata, event_at)
		VALUES ($1, $2, $3, $4, $5)`,
		e.ID, e.SendID, e.EventType, metadataJSON, e.EventAt)
	return err
}

// ListEventsBySend returns the most recent events for a send.
func (s *Store) ListEventsBySend(ctx context.Context, sendID uuid.UUID, limit int) ([]TrackingEvent, error) {
	if limit < 1 || limit > 500 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, send_id, event_type, metadata, event_at
		FROM tracking_events WHERE send_id = $1
		ORDER BY event_at DESC LIMIT $2`, sendID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []TrackingEvent
	for rows.Next() {
		var e TrackingEvent
		var metadataJSON []byte
		if err := rows.Scan(&e.ID, &e.SendID, &e.EventType, &metadataJSON, &e.EventAt); err != nil {
			continue
		}
		json.Unmarshal(metadataJSON, &e.Metadata)
		events = append(events, e)
	}
	return events, rows.Err()
}

// GetContact returns a contact by id, or nil when not found.
func (s *Store) GetContact(ctx context.Context, id uuid.UUID) (*Contact, error) {
	var c Contact
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, status FROM contacts WHERE id = $1`, id,
	).Scan(&c.ID, &c.Email, &c.Status)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// UpdateContactStatus sets a contact's lifecycle status. Terminal tracking
// events (bounce, complaint, unsubscribe) cascade through here.
func (s *Store) UpdateContactStatus(ctx context.Context, contactID uuid.UUID, status string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE contacts SET status = $2, updated_at = NOW() WHERE id = $1`,
		contactID, status)
	return err
}

package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
)

func TestAppendEventAssignsID(t *testing.T) {
	s, mock, cleanup := setupStore(t)
	defer cleanup()

	e := &TrackingEvent{
		SendID:    uuid.New(),
		EventType: EventOpened,
		Metadata:  map[string]interface{}{"ip": "203.0.113.7"},
		EventAt:   time.Now().UTC(),
	}
	mock.ExpectExec("INSERT INTO tracking_events").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := s.AppendEvent(context.Background(), e); err != nil {
		t.Fatalf("AppendEvent() error: %v", err)
	}
	if e.ID == uuid.Nil {
		t.Error("AppendEvent() did not assign an id")
	}
}

func TestListEventsBySend(t *testing.T) {
	s, mock, cleanup := setupStore(t)
	defer cleanup()

	sendID := uuid.New()
	rows := sqlmock.NewRows([]string{"id", "send_id", "event_type", "metadata", "event_at"}).
		AddRow(uuid.New(), sendID, EventOpened, []byte(`{"ip":"203.0.113.7"}`), time.Now()).
		AddRow(uuid.New(), sendID, EventClicked, []byte(`{"url":"https://example.com"}`), time.Now())

	mock.ExpectQuery("FROM tracking_events WHERE send_id").
		WithArgs(sendID, 100).
		WillReturnRows(rows)

	events, err := s.ListEventsBySend(context.Background(), sendID, 0)
	if err != nil {
		t.Fatalf("ListEventsBySend() error: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Metadata["ip"] != "203.0.113.7" {
		t.Errorf("metadata not decoded: %+v", events[0].Metadata)
	}
}

func TestGetContact(t *testing.T) {
	s, mock, cleanup := setupStore(t)
	defer cleanup()
	ctx := context.Background()

	id := uuid.New()
	mock.ExpectQuery("FROM contacts WHERE id").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "status"}).
			AddRow(id, "reader@example.com", ContactStatusActive))

	c, err := s.GetContact(ctx, id)
	if err != nil {
		t.Fatalf("GetContact() error: %v", err)
	}
	if c == nil || c.Email != "reader@example.com" {
		t.Errorf("GetContact() = %+v", c)
	}

	missing := uuid.New()
	mock.ExpectQuery("FROM contacts WHERE id").
		WithArgs(missing).
		WillReturnError(sql.ErrNoRows)

	c, err = s.GetContact(ctx, missing)
	if err != nil {
		t.Fatalf("GetContact() error: %v", err)
	}
	if c != nil {
		t.Errorf("GetContact() = %+v, want nil", c)
	}
}

func TestUpdateContactStatus(t *testing.T) {
	s, mock, cleanup := setupStore(t)
	defer cleanup()

	id := uuid.New()
	mock.ExpectExec("UPDATE contacts SET status").
		WithArgs(id, ContactStatusUnsubscribed).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := s.UpdateContactStatus(context.Background(), id, ContactStatusUnsubscribed); err != nil {
		t.Fatalf("UpdateContactStatus() error: %v", err)
	}
}

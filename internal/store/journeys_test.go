package store

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
)

func TestListActiveJourneysByTrigger(t *testing.T) {
	s, mock, cleanup := setupStore(t)
	defer cleanup()
	ctx := context.Background()

	journeyID := uuid.New()
	campaignID := uuid.New()
	filterJSON := `{"campaign_id":"` + campaignID.String() + `"}`

	rows := sqlmock.NewRows([]string{"id", "name", "status", "trigger_type", "trigger_filter", "created_at"}).
		AddRow(journeyID, "welcome", "active", TriggerCampaignOpened, []byte(filterJSON), time.Now()).
		AddRow(uuid.New(), "re-engage", "active", TriggerCampaignOpened, nil, time.Now())

	mock.ExpectQuery("FROM journeys WHERE trigger_type").
		WithArgs(TriggerCampaignOpened).
		WillReturnRows(rows)

	journeys, err := s.ListActiveJourneysByTrigger(ctx, TriggerCampaignOpened)
	if err != nil {
		t.Fatalf("ListActiveJourneysByTrigger() error: %v", err)
	}
	if len(journeys) != 2 {
		t.Fatalf("got %d journeys, want 2", len(journeys))
	}
	if journeys[0].TriggerFilter == nil || journeys[0].TriggerFilter.CampaignID == nil ||
		*journeys[0].TriggerFilter.CampaignID != campaignID {
		t.Errorf("filter not parsed: %+v", journeys[0].TriggerFilter)
	}
	if journeys[1].TriggerFilter != nil {
		t.Errorf("nil filter expected for journey without one, got %+v", journeys[1].TriggerFilter)
	}
}

func TestExistsEnrollment(t *testing.T) {
	s, mock, cleanup := setupStore(t)
	defer cleanup()

	journeyID, contactID := uuid.New(), uuid.New()
	mock.ExpectQuery("FROM journey_enrollments").
		WithArgs(journeyID, contactID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	exists, err := s.ExistsEnrollment(context.Background(), journeyID, contactID)
	if err != nil {
		t.Fatalf("ExistsEnrollment() error: %v", err)
	}
	if !exists {
		t.Error("ExistsEnrollment() = false, want true")
	}
}

func TestCreateEnrollmentDefaults(t *testing.T) {
	s, mock, cleanup := setupStore(t)
	defer cleanup()

	e := &Enrollment{
		JourneyID:  uuid.New(),
		ContactID:  uuid.New(),
		EnrolledAt: time.Now().UTC(),
	}
	mock.ExpectExec("INSERT INTO journey_enrollments").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := s.CreateEnrollment(context.Background(), e); err != nil {
		t.Fatalf("CreateEnrollment() error: %v", err)
	}
	if e.ID == uuid.Nil {
		t.Error("CreateEnrollment() did not assign an id")
	}
	if e.Status != "active" {
		t.Errorf("status = %q, want active", e.Status)
	}
}

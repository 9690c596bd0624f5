package journey

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/ignite/engage-tracker/internal/store"
)

func setupEnroller(t *testing.T) (*Enroller, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	return NewEnroller(store.New(db)), mock, func() { db.Close() }
}

func testSend(campaignID uuid.UUID) *store.Send {
	return &store.Send{
		ID:         uuid.New(),
		ContactID:  uuid.New(),
		CampaignID: campaignID,
	}
}

func journeyRows(id uuid.UUID, trigger string, filter []byte) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "status", "trigger_type", "trigger_filter", "created_at"}).
		AddRow(id, "test journey", "active", trigger, filter, time.Now())
}

func TestEnrollOnFirstOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("unfiltered journey enrolls contact", func(t *testing.T) {
		e, mock, cleanup := setupEnroller(t)
		defer cleanup()
		snd := testSend(uuid.New())
		journeyID := uuid.New()

		mock.ExpectQuery("FROM journeys WHERE trigger_type").
			WithArgs(store.TriggerCampaignOpened).
			WillReturnRows(journeyRows(journeyID, store.TriggerCampaignOpened, nil))
		mock.ExpectQuery("FROM journey_enrollments").
			WithArgs(journeyID, snd.ContactID).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectExec("INSERT INTO journey_enrollments").
			WillReturnResult(sqlmock.NewResult(0, 1))

		e.EnrollOnFirstOpen(ctx, snd)

		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})

	t.Run("filter mismatch skips enrollment", func(t *testing.T) {
		e, mock, cleanup := setupEnroller(t)
		defer cleanup()
		snd := testSend(uuid.New())
		otherCampaign := uuid.New()
		filter := []byte(`{"campaign_id":"` + otherCampaign.String() + `"}`)

		mock.ExpectQuery("FROM journeys WHERE trigger_type").
			WithArgs(store.TriggerCampaignOpened).
			WillReturnRows(journeyRows(uuid.New(), store.TriggerCampaignOpened, filter))

		e.EnrollOnFirstOpen(ctx, snd)

		// No existence check or insert should have run.
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})

	t.Run("existing enrollment is a no-op", func(t *testing.T) {
		e, mock, cleanup := setupEnroller(t)
		defer cleanup()
		snd := testSend(uuid.New())
		journeyID := uuid.New()

		mock.ExpectQuery("FROM journeys WHERE trigger_type").
			WithArgs(store.TriggerCampaignOpened).
			WillReturnRows(journeyRows(journeyID, store.TriggerCampaignOpened, nil))
		mock.ExpectQuery("FROM journey_enrollments").
			WithArgs(journeyID, snd.ContactID).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		e.EnrollOnFirstOpen(ctx, snd)

		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})

	t.Run("enrollment errors are swallowed", func(t *testing.T) {
		e, mock, cleanup := setupEnroller(t)
		defer cleanup()
		snd := testSend(uuid.New())
		journeyID := uuid.New()

		mock.ExpectQuery("FROM journeys WHERE trigger_type").
			WithArgs(store.TriggerCampaignOpened).
			WillReturnRows(journeyRows(journeyID, store.TriggerCampaignOpened, nil))
		mock.ExpectQuery("FROM journey_enrollments").
			WithArgs(journeyID, snd.ContactID).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectExec("INSERT INTO journey_enrollments").
			WillReturnError(errors.New("duplicate enrollment"))

		// Must not panic or propagate.
		e.EnrollOnFirstOpen(ctx, snd)
	})
}

func TestEnrollOnFirstClickCarriesURL(t *testing.T) {
	e, mock, cleanup := setupEnroller(t)
	defer cleanup()
	snd := testSend(uuid.New())
	journeyID := uuid.New()

	mock.ExpectQuery("FROM journeys WHERE trigger_type").
		WithArgs(store.TriggerCampaignClicked).
		WillReturnRows(journeyRows(journeyID, store.TriggerCampaignClicked, nil))
	mock.ExpectQuery("FROM journey_enrollments").
		WithArgs(journeyID, snd.ContactID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec("INSERT INTO journey_enrollments").
		WillReturnResult(sqlmock.NewResult(0, 1))

	e.EnrollOnFirstClick(context.Background(), snd, "https://example.com/offer")

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestMatchesFilter(t *testing.T) {
	campaignID := uuid.New()

	if !matchesFilter(nil, campaignID) {
		t.Error("nil filter should match any campaign")
	}
	if !matchesFilter(&store.JourneyFilter{}, campaignID) {
		t.Error("empty filter should match any campaign")
	}
	if !matchesFilter(&store.JourneyFilter{CampaignID: &campaignID}, campaignID) {
		t.Error("matching campaign should pass the filter")
	}
	other := uuid.New()
	if matchesFilter(&store.JourneyFilter{CampaignID: &other}, campaignID) {
		t.Error("non-matching campaign should not pass the filter")
	}
}

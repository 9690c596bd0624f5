package store

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
)

// ListActiveJourneysByTrigger returns active journeys whose entry trigger
// matches the given type. Filter matching happens in the caller so that a
// journey with no filter matches every campaign.
func (s *Store) ListActiveJourneysByTrigger(ctx context.Context, triggerType string) ([]Journey, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, status, trigger_type, trigger_filter, created_at
		FROM journeys WHERE trigger_type = $1 AND status = 'active'`, triggerType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var journeys []Journey
	for rows.Next() {
		var j Journey
		var filterJSON []byte
		if err := rows.Scan(&j.ID, &j.Name, &j.Status, &j.TriggerType, &filterJSON, &j.CreatedAt); err != nil {
			continue
		}
		if len(filterJSON) > 0 {
			var f JourneyFilter
			if json.Unmarshal(filterJSON, &f) == nil && f != (JourneyFilter{}) {
				j.TriggerFilter = &f
			}
		}
		journeys = append(journeys, j)
	}
	return journeys, rows.Err()
}

// ExistsEnrollment checks whether a contact is already in a journey.
func (s *Store) ExistsEnrollment(ctx context.Context, journeyID, contactID uuid.UUID) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM journey_enrollments
		WHERE journey_id = $1 AND contact_id = $2 AND status IN ('active', 'completed')`,
		journeyID, contactID).Scan(&count)
	return count > 0, err
}

// CreateEnrollment inserts a new journey enrollment.
func (s *Store) CreateEnrollment(ctx context.Context, e *Enrollment) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Status == "" {
		e.Status = "active"
	}
	triggerJSON, _ := json.Marshal(e.TriggerData)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO journey_enrollments (id, journey_id, contact_id, status, trigger_data, enrolled_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		e.ID, e.JourneyID, e.ContactID, e.Status, triggerJSON, e.EnrolledAt)
	return err
}

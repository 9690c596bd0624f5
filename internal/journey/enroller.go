// Package journey matches engagement events against automation journeys
// and attempts best-effort enrollment of contacts.
package journey

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ignite/engage-tracker/internal/pkg/logger"
	"github.com/ignite/engage-tracker/internal/store"
)

// Enroller enrolls contacts into journeys when their entry trigger fires.
// Every error here is logged and swallowed: enrollment is a side effect of
// user-facing tracking requests and must never fail them.
type Enroller struct {
	store *store.Store
}

func NewEnroller(s *store.Store) *Enroller {
	return &Enroller{store: s}
}

// EnrollOnFirstOpen enrolls the send's contact into every active journey
// triggered by campaign_opened whose filter matches the send's campaign.
// Called only on the first open of a send.
func (e *Enroller) EnrollOnFirstOpen(ctx context.Context, snd *store.Send) {
	e.enroll(ctx, store.TriggerCampaignOpened, snd, map[string]interface{}{
		"campaign_id": snd.CampaignID.String(),
		"send_id":     snd.ID.String(),
	})
}

// EnrollOnFirstClick is the campaign_clicked counterpart; the clicked URL
// travels along as trigger data.
func (e *Enroller) EnrollOnFirstClick(ctx context.Context, snd *store.Send, clickedURL string) {
	e.enroll(ctx, store.TriggerCampaignClicked, snd, map[string]interface{}{
		"campaign_id": snd.CampaignID.String(),
		"send_id":     snd.ID.String(),
		"clicked_url": clickedURL,
	})
}

func (e *Enroller) enroll(ctx context.Context, triggerType string, snd *store.Send, triggerData map[string]interface{}) {
	journeys, err := e.store.ListActiveJourneysByTrigger(ctx, triggerType)
	if err != nil {
		logger.Warn("journey lookup failed", "trigger", triggerType, "error", err)
		return
	}

	for _, j := range journeys {
		if !matchesFilter(j.TriggerFilter, snd.CampaignID) {
			continue
		}

		exists, err := e.store.ExistsEnrollment(ctx, j.ID, snd.ContactID)
		if err != nil {
			logger.Warn("enrollment check failed", "journey", j.ID, "error", err)
			continue
		}
		if exists {
			continue
		}

		enr := &store.Enrollment{
			ID:          uuid.New(),
			JourneyID:   j.ID,
			ContactID:   snd.ContactID,
			Status:      "active",
			TriggerData: triggerData,
			EnrolledAt:  time.Now().UTC(),
		}
		if err := e.store.CreateEnrollment(ctx, enr); err != nil {
			// Duplicate-enrollment rejections land here under races.
			logger.Warn("enrollment failed", "journey", j.ID, "error", err)
			continue
		}
		logger.Info("contact enrolled", "journey", j.ID, "contact_id", snd.ContactID, "trigger", triggerType)
	}
}

// matchesFilter reports whether a journey's trigger filter admits the
// campaign. A nil filter matches everything.
func matchesFilter(f *store.JourneyFilter, campaignID uuid.UUID) bool {
	if f == nil || f.CampaignID == nil {
		return true
	}
	return *f.CampaignID == campaignID
}

package tracking

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/ignite/engage-tracker/internal/pkg/logger"
	"github.com/ignite/engage-tracker/internal/store"
)

// webhookPayload is the delivery provider's event envelope. The data map is
// kept raw and stored verbatim as event metadata.
type webhookPayload struct {
	Type string                 `json:"type"`
	Data map[string]interface{} `json:"data"`
}

// HandleEmailWebhook ingests delivery-provider events (delivered, opened,
// clicked, bounced, complained, unsubscribed). Unknown provider email ids
// are acknowledged without error: the provider may deliver events before
// the send row is persisted, and must not be made to retry those.
func (h *Handler) HandleEmailWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, 5*1024*1024)

	var payload webhookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Type == "" || payload.Data == nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "missing type or data"})
		return
	}

	emailID, _ := payload.Data["email_id"].(string)
	if emailID == "" {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "missing data.email_id"})
		return
	}

	sends, err := h.store.ListSendsByProviderEmailID(ctx, emailID)
	if err != nil {
		logger.Error("webhook send lookup failed", "email_id", emailID, "error", err)
		respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "database error"})
		return
	}
	if len(sends) == 0 {
		respondJSON(w, http.StatusOK, map[string]bool{"received": true})
		return
	}

	eventType := strings.TrimPrefix(payload.Type, "email.")
	now := time.Now().UTC()

	for i := range sends {
		snd := &sends[i]

		if err := h.store.AppendEvent(ctx, &store.TrackingEvent{
			SendID:    snd.ID,
			EventType: eventType,
			Metadata:  payload.Data,
			EventAt:   now,
		}); err != nil {
			logger.Error("webhook append event failed", "send_id", snd.ID, "error", err)
			respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "database error"})
			return
		}

		if err := h.applyWebhookUpdate(ctx, snd, eventType, payload.Data, now); err != nil {
			logger.Error("webhook update failed", "send_id", snd.ID, "type", eventType, "error", err)
			respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "database error"})
			return
		}

		h.pub.Publish(EngagementEvent{
			EventType:  eventType,
			SendID:     snd.ID.String(),
			CampaignID: snd.CampaignID.String(),
			ContactID:  snd.ContactID.String(),
			Timestamp:  now,
		})
	}

	logger.Info("webhook processed", "type", payload.Type, "email_id", emailID, "sends", len(sends))
	respondJSON(w, http.StatusOK, map[string]bool{"received": true})
}

// applyWebhookUpdate applies the per-type send mutation and cascades
// terminal states onto the contact.
func (h *Handler) applyWebhookUpdate(ctx context.Context, snd *store.Send, eventType string, data map[string]interface{}, now time.Time) error {
	switch eventType {
	case store.EventDelivered:
		return h.store.MarkDelivered(ctx, snd.ID, now)

	case store.EventOpened:
		_, err := h.store.MarkOpened(ctx, snd.ID, now)
		return err

	case store.EventClicked:
		_, err := h.store.MarkClicked(ctx, snd.ID, now)
		return err

	case store.EventBounced:
		if err := h.store.MarkBounced(ctx, snd.ID, bounceReason(data), now); err != nil {
			return err
		}
		return h.store.UpdateContactStatus(ctx, snd.ContactID, store.ContactStatusBounced)

	case store.EventComplained:
		if err := h.store.MarkComplained(ctx, snd.ID, now); err != nil {
			return err
		}
		return h.store.UpdateContactStatus(ctx, snd.ContactID, store.ContactStatusSpam)

	case store.EventUnsubscribed:
		if err := h.store.MarkUnsubscribed(ctx, snd.ID, now); err != nil {
			return err
		}
		return h.store.UpdateContactStatus(ctx, snd.ContactID, store.ContactStatusUnsubscribed)

	default:
		// Event row already recorded; nothing else to update.
		return nil
	}
}

// bounceReason picks the most specific reason the provider offered.
func bounceReason(data map[string]interface{}) string {
	if v, _ := data["bounce_type"].(string); v != "" {
		return v
	}
	if v, _ := data["error"].(string); v != "" {
		return v
	}
	return "Unknown"
}

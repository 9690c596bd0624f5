// Package tracking implements the engagement-tracking HTTP surface:
// open pixel, click redirect, unsubscribe page, delivery-provider webhook
// and QR redirect.
package tracking

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/ignite/engage-tracker/internal/journey"
	"github.com/ignite/engage-tracker/internal/pkg/logger"
	"github.com/ignite/engage-tracker/internal/store"
)

// 1x1 transparent GIF
var pixelGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x01, 0x00, 0x01, 0x00,
	0x80, 0x00, 0x00, 0xff, 0xff, 0xff, 0x00, 0x00, 0x00, 0x2c,
	0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00, 0x02,
	0x02, 0x44, 0x01, 0x00, 0x3b,
}

// Handler serves all tracking routes. The publisher, gate and cache are
// optional; their zero values disable the corresponding feature.
type Handler struct {
	store    *store.Store
	enroller *journey.Enroller
	pub      *Publisher
	gate     *FirstTouchGate
	qrCache  *QRCache
	pages    *Pages
}

func NewHandler(s *store.Store, enroller *journey.Enroller, pub *Publisher, gate *FirstTouchGate, qrCache *QRCache, pages *Pages) *Handler {
	return &Handler{
		store:    s,
		enroller: enroller,
		pub:      pub,
		gate:     gate,
		qrCache:  qrCache,
		pages:    pages,
	}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST"},
	}))

	r.Get("/track/open", h.HandleOpen)
	r.Get("/track/click", h.HandleClick)
	r.Get("/track/unsubscribe", h.HandleUnsubscribe)
	r.Post("/webhooks/email", h.HandleEmailWebhook)
	r.Get("/q", h.HandleQRRedirect)
	r.Get("/api/sends/{sendId}/events", h.HandleSendEvents)
	r.Get("/health", h.HandleHealth)
	return r
}

// HandleOpen records an email open. Every code path converges on the same
// transparent pixel: mail clients have no error UI, so tracking failures
// degrade silently.
func (h *Handler) HandleOpen(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(r.URL.Query().Get("sendId"))
	if err != nil {
		h.servePixel(w)
		return
	}

	snd, err := h.store.GetSend(ctx, id)
	if err != nil || snd == nil {
		if err != nil {
			logger.Error("open lookup failed", "send_id", id, "error", err)
		}
		h.servePixel(w)
		return
	}

	now := time.Now().UTC()
	first, err := h.store.MarkOpened(ctx, snd.ID, now)
	if err != nil {
		logger.Error("mark opened failed", "send_id", snd.ID, "error", err)
		h.servePixel(w)
		return
	}

	if first {
		if err := h.store.AppendEvent(ctx, &store.TrackingEvent{
			SendID:    snd.ID,
			EventType: store.EventOpened,
			Metadata: map[string]interface{}{
				"ip":          realIP(r),
				"user_agent":  r.UserAgent(),
				"device_type": detectDevice(r.UserAgent()),
			},
			EventAt: now,
		}); err != nil {
			logger.Error("append opened event failed", "send_id", snd.ID, "error", err)
		}
		if h.gate.FirstTouch(ctx, snd.ID, store.EventOpened) {
			h.enroller.EnrollOnFirstOpen(ctx, snd)
		}
	}

	h.pub.Publish(EngagementEvent{
		EventType:  store.EventOpened,
		SendID:     snd.ID.String(),
		CampaignID: snd.CampaignID.String(),
		ContactID:  snd.ContactID.String(),
		IPAddress:  realIP(r),
		UserAgent:  r.UserAgent(),
		Timestamp:  now,
	})

	logger.Info("open tracked", "send_id", snd.ID, "campaign_id", snd.CampaignID, "first", first)
	h.servePixel(w)
}

// HandleClick records a click and redirects. The redirect is the primary
// user-facing effect and must not be blocked by tracking failures; 400 is
// returned only when there is nothing to redirect to.
func (h *Handler) HandleClick(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()
	target := query.Get("url")
	rawSendID := query.Get("sendId")

	if target == "" && rawSendID == "" {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "missing sendId and url"})
		return
	}

	if id, err := uuid.Parse(rawSendID); err == nil {
		h.trackClick(ctx, r, id, target)
	}

	if target == "" {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "missing url"})
		return
	}

	http.Redirect(w, r, target, http.StatusFound)
}

// trackClick performs the click side effects; all failures are logged and
// swallowed so the caller can redirect regardless.
func (h *Handler) trackClick(ctx context.Context, r *http.Request, id uuid.UUID, target string) {
	snd, err := h.store.GetSend(ctx, id)
	if err != nil || snd == nil {
		if err != nil {
			logger.Error("click lookup failed", "send_id", id, "error", err)
		}
		return
	}

	now := time.Now().UTC()
	first, err := h.store.MarkClicked(ctx, snd.ID, now)
	if err != nil {
		logger.Error("mark clicked failed", "send_id", snd.ID, "error", err)
		return
	}

	if err := h.store.AppendEvent(ctx, &store.TrackingEvent{
		SendID:    snd.ID,
		EventType: store.EventClicked,
		Metadata: map[string]interface{}{
			"url":         target,
			"ip":          realIP(r),
			"user_agent":  r.UserAgent(),
			"device_type": detectDevice(r.UserAgent()),
		},
		EventAt: now,
	}); err != nil {
		logger.Error("append clicked event failed", "send_id", snd.ID, "error", err)
	}

	if first && h.gate.FirstTouch(ctx, snd.ID, store.EventClicked) {
		h.enroller.EnrollOnFirstClick(ctx, snd, target)
	}

	h.pub.Publish(EngagementEvent{
		EventType:  store.EventClicked,
		SendID:     snd.ID.String(),
		CampaignID: snd.CampaignID.String(),
		ContactID:  snd.ContactID.String(),
		LinkURL:    target,
		IPAddress:  realIP(r),
		UserAgent:  r.UserAgent(),
		Timestamp:  now,
	})

	logger.Info("click tracked", "send_id", snd.ID, "url", target, "first", first)
}

// HandleUnsubscribe processes a one-click unsubscribe. The token is the
// send identifier.
func (h *Handler) HandleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	token := r.URL.Query().Get("token")
	if token == "" {
		h.pages.Error(w, http.StatusBadRequest, "Missing unsubscribe token.")
		return
	}

	id, err := uuid.Parse(token)
	if err != nil {
		h.pages.Error(w, http.StatusNotFound, "This unsubscribe link is not valid.")
		return
	}

	snd, err := h.store.GetSend(ctx, id)
	if err != nil {
		logger.Error("unsubscribe lookup failed", "send_id", id, "error", err)
		h.pages.Error(w, http.StatusInternalServerError, "Something went wrong. Please try again later.")
		return
	}
	if snd == nil {
		h.pages.Error(w, http.StatusNotFound, "This unsubscribe link is not valid.")
		return
	}

	now := time.Now().UTC()
	if err := h.store.MarkUnsubscribed(ctx, snd.ID, now); err != nil {
		logger.Error("mark unsubscribed failed", "send_id", snd.ID, "error", err)
		h.pages.Error(w, http.StatusInternalServerError, "Something went wrong. Please try again later.")
		return
	}
	if err := h.store.UpdateContactStatus(ctx, snd.ContactID, store.ContactStatusUnsubscribed); err != nil {
		logger.Error("contact unsubscribe failed", "contact_id", snd.ContactID, "error", err)
		h.pages.Error(w, http.StatusInternalServerError, "Something went wrong. Please try again later.")
		return
	}
	if err := h.store.AppendEvent(ctx, &store.TrackingEvent{
		SendID:    snd.ID,
		EventType: store.EventUnsubscribed,
		Metadata: map[string]interface{}{
			"ip":         realIP(r),
			"user_agent": r.UserAgent(),
		},
		EventAt: now,
	}); err != nil {
		logger.Error("append unsubscribed event failed", "send_id", snd.ID, "error", err)
	}

	h.pub.Publish(EngagementEvent{
		EventType:  store.EventUnsubscribed,
		SendID:     snd.ID.String(),
		CampaignID: snd.CampaignID.String(),
		ContactID:  snd.ContactID.String(),
		Timestamp:  now,
	})

	logger.Info("unsubscribe tracked", "send_id", snd.ID, "campaign_id", snd.CampaignID)
	h.pages.Confirmation(w)
}

// HandleSendEvents lists recent tracking events for a send.
func (h *Handler) HandleSendEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(chi.URLParam(r, "sendId"))
	if err != nil {
		respondJSON(w, http.StatusNotFound, map[string]string{"error": "send not found"})
		return
	}

	snd, err := h.store.GetSend(ctx, id)
	if err != nil {
		respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "database error"})
		return
	}
	if snd == nil {
		respondJSON(w, http.StatusNotFound, map[string]string{"error": "send not found"})
		return
	}

	events, err := h.store.ListEventsBySend(ctx, snd.ID, 100)
	if err != nil {
		respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "database error"})
		return
	}

	items := make([]map[string]interface{}, 0, len(events))
	for _, e := range events {
		items = append(items, map[string]interface{}{
			"id":         e.ID.String(),
			"event_type": e.EventType,
			"metadata":   e.Metadata,
			"event_at":   e.EventAt,
		})
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"send_id": snd.ID.String(),
		"status":  snd.Status,
		"opened":  snd.Opened,
		"clicked": snd.Clicked,
		"events":  items,
	})
}

func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) servePixel(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "image/gif")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
	w.Write(pixelGIF)
}

func respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

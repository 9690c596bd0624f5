package tracking

import (
	"context"
	"net/http"
	"time"

	"github.com/ignite/engage-tracker/internal/pkg/logger"
	"github.com/ignite/engage-tracker/internal/store"
)

// HandleQRRedirect resolves a QR scan identifier and redirects to its
// configured destination. The scan-log write is fire-and-forget: it must
// never add latency to, or fail, the redirect.
func (h *Handler) HandleQRRedirect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	code := r.URL.Query().Get("id")
	if code == "" {
		http.Error(w, "missing id", http.StatusBadRequest)
		return
	}

	q, cached := h.qrCache.Get(ctx, code)
	if !cached {
		var err error
		q, err = h.store.GetQRCode(ctx, code)
		if err != nil {
			logger.Error("qr lookup failed", "code", code, "error", err)
			respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
			return
		}
		if q != nil && q.Active {
			h.qrCache.Set(ctx, q)
		}
	}

	if q == nil || !q.Active {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if q.DestinationURL == "" {
		http.Error(w, "no destination configured", http.StatusBadRequest)
		return
	}

	h.logScan(r, q)
	http.Redirect(w, r, q.DestinationURL, http.StatusFound)
}

// logScan writes the scan record on a detached goroutine with its own
// timeout so slow storage cannot hold up the redirect.
func (h *Handler) logScan(r *http.Request, q *store.QRCode) {
	country, region, city := geoFromHeaders(r)
	scan := &store.QRScan{
		QRCodeID:   q.ID,
		IPAddress:  realIP(r),
		UserAgent:  r.UserAgent(),
		Referer:    r.Referer(),
		Country:    country,
		Region:     region,
		City:       city,
		DeviceType: classifyScanDevice(r.UserAgent()),
		ScannedAt:  time.Now().UTC(),
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := h.store.InsertQRScan(ctx, scan); err != nil {
			logger.Error("qr scan log failed", "qr_code_id", q.ID, "error", err)
		}
	}()

	h.pub.Publish(EngagementEvent{
		EventType: "qr_scanned",
		QRCodeID:  q.ID.String(),
		IPAddress: scan.IPAddress,
		UserAgent: scan.UserAgent,
		Timestamp: scan.ScannedAt,
	})
}

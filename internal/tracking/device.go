package tracking

import (
	"net/http"
	"strings"
)

// detectDevice classifies a user agent for tracking-event metadata.
func detectDevice(ua string) string {
	ua = strings.ToLower(ua)
	if strings.Contains(ua, "mobile") || strings.Contains(ua, "android") || strings.Contains(ua, "iphone") {
		return "mobile"
	}
	if strings.Contains(ua, "tablet") || strings.Contains(ua, "ipad") {
		return "tablet"
	}
	return "desktop"
}

// classifyScanDevice returns the coarse device label recorded on QR scans.
func classifyScanDevice(ua string) string {
	lower := strings.ToLower(ua)
	if strings.Contains(lower, "mobile") {
		return "Mobile"
	}
	if strings.Contains(lower, "tablet") {
		return "Tablet"
	}
	return "Desktop"
}

// realIP extracts the best-effort client IP from proxy headers.
func realIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx > 0 {
			return strings.TrimSpace(xff[:idx])
		}
		return xff
	}
	if xri := r.Header.Get("X-Real-Ip"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}

// geoFromHeaders pulls best-effort geo fields set by the edge/CDN layer.
func geoFromHeaders(r *http.Request) (country, region, city string) {
	country = r.Header.Get("CloudFront-Viewer-Country")
	if country == "" {
		country = r.Header.Get("CF-IPCountry")
	}
	region = r.Header.Get("CloudFront-Viewer-Country-Region")
	city = r.Header.Get("CloudFront-Viewer-City")
	return country, region, city
}

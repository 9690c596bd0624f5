package store

import (
	"time"

	"github.com/google/uuid"
)

// Send status values. The status column is overwritten by whichever
// delivery event arrives last; the boolean flags are never cleared.
const (
	SendStatusSent      = "sent"
	SendStatusDelivered = "delivered"
	SendStatusBounced   = "bounced"
)

// Contact status values.
const (
	ContactStatusActive       = "active"
	ContactStatusUnsubscribed = "unsubscribed"
	ContactStatusBounced      = "bounced"
	ContactStatusSpam         = "spam"
)

// Tracking event types.
const (
	EventDelivered    = "delivered"
	EventOpened       = "opened"
	EventClicked      = "clicked"
	EventBounced      = "bounced"
	EventComplained   = "complained"
	EventUnsubscribed = "unsubscribed"
)

// Journey entry trigger types handled by the tracking routes.
const (
	TriggerCampaignOpened  = "campaign_opened"
	TriggerCampaignClicked = "campaign_clicked"
)

// Send represents one outbound email tracked for delivery and engagement.
type Send struct {
	ID              uuid.UUID
	ContactID       uuid.UUID
	CampaignID      uuid.UUID
	ProviderEmailID string
	Status          string
	Opened          bool
	OpenCount       int
	Clicked         bool
	ClickCount      int
	Bounced         bool
	BounceReason    string
	Complained      bool
	Unsubscribed    bool
	DeliveredAt     *time.Time
	OpenedAt        *time.Time
	LastOpenedAt    *time.Time
	ClickedAt       *time.Time
	LastClickedAt   *time.Time
	BouncedAt       *time.Time
	ComplainedAt    *time.Time
	UnsubscribedAt  *time.Time
	CreatedAt       time.Time
}

// TrackingEvent is an immutable, append-only record of a single tracking
// occurrence against a Send.
type TrackingEvent struct {
	ID        uuid.UUID
	SendID    uuid.UUID
	EventType string
	Metadata  map[string]interface{}
	EventAt   time.Time
}

// Contact is a recipient with a lifecycle status independent of any
// single Send.
type Contact struct {
	ID     uuid.UUID
	Email  string
	Status string
}

// JourneyFilter narrows a journey's entry trigger, e.g. to a single campaign.
type JourneyFilter struct {
	CampaignID *uuid.UUID `json:"campaign_id,omitempty"`
}

// Journey is an automation flow with an entry trigger and optional filter.
// The tracking routes only read journeys and attempt enrollments.
type Journey struct {
	ID            uuid.UUID
	Name          string
	Status        string
	TriggerType   string
	TriggerFilter *JourneyFilter
	CreatedAt     time.Time
}

// Enrollment records a contact entering a journey.
type Enrollment struct {
	ID          uuid.UUID
	JourneyID   uuid.UUID
	ContactID   uuid.UUID
	Status      string
	TriggerData map[string]interface{}
	EnrolledAt  time.Time
}

// QRCode maps a short scan identifier to a destination URL.
type QRCode struct {
	ID             uuid.UUID
	Code           string
	DestinationURL string
	Active         bool
}

// QRScan is an append-only log entry for one QR code scan.
type QRScan struct {
	ID         uuid.UUID
	QRCodeID   uuid.UUID
	IPAddress  string
	UserAgent  string
	Referer    string
	Country    string
	Region     string
	City       string
	DeviceType string
	ScannedAt  time.Time
}

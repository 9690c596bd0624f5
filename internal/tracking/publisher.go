package tracking

import (
	"context"
	"encoding/json"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/ignite/engage-tracker/internal/pkg/logger"
)

// EngagementEvent is the analytics payload published for each tracking
// occurrence. Downstream consumers (warehouse loaders, dashboards) read
// these off the queue; the tracking service never depends on them landing.
type EngagementEvent struct {
	EventType  string    `json:"event_type"`
	SendID     string    `json:"send_id,omitempty"`
	CampaignID string    `json:"campaign_id,omitempty"`
	ContactID  string    `json:"contact_id,omitempty"`
	QRCodeID   string    `json:"qr_code_id,omitempty"`
	LinkURL    string    `json:"link_url,omitempty"`
	IPAddress  string    `json:"ip_address,omitempty"`
	UserAgent  string    `json:"user_agent,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Publisher sends engagement events to SQS fire-and-forget. A nil Publisher
// is valid and drops everything, so wiring stays optional.
type Publisher struct {
	client   *sqs.Client
	queueURL string
}

func NewPublisher(client *sqs.Client, queueURL string) *Publisher {
	return &Publisher{client: client, queueURL: queueURL}
}

// Publish enqueues the event on a detached goroutine with its own timeout.
// Failures are logged and never propagated.
func (p *Publisher) Publish(evt EngagementEvent) {
	if p == nil || p.client == nil {
		return
	}
	body, err := json.Marshal(evt)
	if err != nil {
		logger.Error("marshal engagement event", "error", err)
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_, err := p.client.SendMessage(ctx, &sqs.SendMessageInput{
			QueueUrl:    aws.String(p.queueURL),
			MessageBody: aws.String(string(body)),
		})
		if err != nil {
			logger.Error("publish engagement event", "event_type", evt.EventType, "error", err)
		}
	}()
}

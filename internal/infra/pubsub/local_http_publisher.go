package pubsub

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	deliverycontext "accounts/internal/delivery/context"
	"accounts/internal/domain/entity"
	"accounts/internal/domain/service"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const localPublishTimeout = 30 * time.Second

// localHTTPPublisher POSTs events to a local endpoint in the Pub/Sub push format,
// so consumers can be developed without a Google project.
type localHTTPPublisher struct {
	endpoint   string
	httpClient *http.Client
	logger     *slog.Logger
}

// PushMessage is the body Google Pub/Sub sends to push subscriptions.
type PushMessage struct {
	Message struct {
		Data        string            `json:"data"`
		Attributes  map[string]string `json:"attributes,omitempty"`
		MessageID   string            `json:"messageId"`
		PublishTime string            `json:"publishTime"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

// NewLocalHTTPPublisher creates a new local HTTP publisher for development
func NewLocalHTTPPublisher(endpoint string, logger *slog.Logger) service.EventPublisher {
	return &localHTTPPublisher{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: localPublishTimeout},
		logger:     logger,
	}
}

func (p *localHTTPPublisher) PublishAccountEvent(ctx context.Context, event *entity.AccountEvent) error {
	eventData, err := json.Marshal(event)
	if err != nil {
		return errors.WithStack(err)
	}

	pushMsg := PushMessage{Subscription: "projects/local/subscriptions/account-events"}
	pushMsg.Message.Data = base64.StdEncoding.EncodeToString(eventData)
	pushMsg.Message.MessageID = uuid.NewString()
	pushMsg.Message.PublishTime = time.Now().UTC().Format(time.RFC3339)
	pushMsg.Message.Attributes = eventAttributes(event)

	body, err := json.Marshal(pushMsg)
	if err != nil {
		return errors.WithStack(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return errors.WithStack(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if event.RequestID != "" {
		req.Header.Set(deliverycontext.HeaderXRequestID, event.RequestID)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return errors.WithStack(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.Errorf("event endpoint returned non-success status: %d", resp.StatusCode)
	}

	p.logger.Debug("[LocalPubSub] Account event published",
		slog.String("endpoint", p.endpoint),
		slog.String("type", event.Type),
	)

	return nil
}

// Close is a no-op; the HTTP client holds no dedicated resources.
func (p *localHTTPPublisher) Close() error {
	return nil
}

func eventAttributes(event *entity.AccountEvent) map[string]string {
	attributes := map[string]string{
		"type":    event.Type,
		"user_id": event.UserID.String(),
	}
	if event.RequestID != "" {
		attributes["request_id"] = event.RequestID
	}

	return attributes
}

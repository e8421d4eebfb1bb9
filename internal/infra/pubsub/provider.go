// Package pubsub publishes account events to Google Pub/Sub or a local push endpoint.
package pubsub

import (
	"context"
	"log/slog"

	"accounts/config"
	"accounts/internal/domain/entity"
	"accounts/internal/domain/service"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// Supported values of pubsub.provider.
const (
	ProviderLocal  = "local"
	ProviderGoogle = "google"
)

// noopPublisher is used when no provider is configured
type noopPublisher struct {
	logger *slog.Logger
}

func (p *noopPublisher) PublishAccountEvent(_ context.Context, event *entity.AccountEvent) error {
	p.logger.Debug("[NoopPubSub] Event publishing disabled, skipping", slog.String("type", event.Type))

	return nil
}

func (p *noopPublisher) Close() error {
	return nil
}

// PublisherParams holds dependencies for EventPublisher, injected by Fx
type PublisherParams struct {
	fx.In

	Lc     fx.Lifecycle
	Ctx    context.Context
	Config *config.Config
	Logger *slog.Logger
}

// NewEventPublisher picks the publisher named by pubsub.provider.
func NewEventPublisher(params PublisherParams) (service.EventPublisher, error) {
	cfg := params.Config.PubSub
	logger := params.Logger

	if cfg == nil || cfg.Provider == "" {
		logger.Info("PubSub not configured, using no-op publisher")

		return &noopPublisher{logger: logger}, nil
	}

	var publisher service.EventPublisher

	switch cfg.Provider {
	case ProviderLocal:
		if cfg.LocalEndpoint == "" {
			return nil, errors.New("local endpoint is required for local provider")
		}
		logger.Info("Using local HTTP publisher for Pub/Sub", slog.String("endpoint", cfg.LocalEndpoint))

		publisher = NewLocalHTTPPublisher(cfg.LocalEndpoint, logger)

	case ProviderGoogle:
		if cfg.ProjectID == "" {
			return nil, errors.New("project ID is required for google provider")
		}
		if cfg.TopicID == "" {
			return nil, errors.New("topic ID is required for google provider")
		}

		var err error
		publisher, err = NewGooglePubSubPublisher(params.Ctx, cfg.ProjectID, cfg.TopicID, logger)
		if err != nil {
			return nil, err
		}

	default:
		return nil, errors.Errorf("unknown pubsub provider: %s", cfg.Provider)
	}

	params.Lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			logger.Info("Closing EventPublisher")

			return publisher.Close()
		},
	})

	return publisher, nil
}

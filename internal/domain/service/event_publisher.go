package service

import (
	"context"

	"accounts/internal/domain/entity"
)

// EventPublisher hands account events to a message queue
type EventPublisher interface {
	// PublishAccountEvent publishes a single event and waits for the broker to accept it.
	PublishAccountEvent(ctx context.Context, event *entity.AccountEvent) error

	// Close releases any resources held by the publisher
	Close() error
}

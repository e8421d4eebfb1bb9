package entity

import (
	"time"

	"github.com/google/uuid"
)

// EventTypeUserSignedUp is emitted once a new account has been persisted.
const EventTypeUserSignedUp = "user.signed_up"

// AccountEvent describes something that happened to an account, for downstream consumers.
type AccountEvent struct {
	Type       string    `json:"type"`
	RequestID  string    `json:"request_id,omitempty"`
	UserID     uuid.UUID `json:"user_id"`
	Email      string    `json:"email"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// User is an account that can sign in with an email and a password.
type User struct {
	ID        uuid.UUID // Identifier assigned by the user directory.
	Email     string    // Unique login identifier.
	Password  string    // Stored credential in the form "<saltHex>.<derivedKeyHex>", never the plaintext.
	CreatedAt time.Time // When the account was created.
	UpdatedAt time.Time // Last modification of the record.
}

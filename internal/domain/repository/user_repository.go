// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"
	"errors"

	"accounts/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrUserNotFound is returned by lookups that expect exactly one user and find none.
var ErrUserNotFound = errors.New("user not found")

// UserDirectory owns user persistence. The authentication use case only ever
// looks users up by email and creates them with an already derived credential.
type UserDirectory interface {
	// FindByEmail returns every user stored under email, oldest first. An empty slice means none.
	FindByEmail(ctx context.Context, email string) ([]*entity.User, error)

	// Create stores a new user with the given email and credential string and returns the stored record.
	// A duplicate email is reported as domainerrors.ErrEmailInUse.
	Create(ctx context.Context, email, credential string) (*entity.User, error)

	// FindByID retrieves a single user, or ErrUserNotFound.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
}

// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"

	"accounts/internal/domain/entity"

	"github.com/google/uuid"
)

// --- Input DTOs ---

// CredentialsInput carries an email and a plaintext password, for both sign-up and sign-in.
type CredentialsInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// --- Output DTOs ---

// AuthOutput returns the user a sign-up created or a sign-in matched.
type AuthOutput struct {
	User *entity.User
}

// AuthUsecase is the contract the HTTP handlers and session middleware depend on.
type AuthUsecase interface {
	// Register creates an account after checking the email is unused and deriving a fresh credential.
	Register(ctx context.Context, input *CredentialsInput) (*AuthOutput, error)

	// Authenticate checks the password against the first account stored under the email.
	Authenticate(ctx context.Context, input *CredentialsInput) (*AuthOutput, error)

	// CurrentUser resolves the user ID remembered by a session.
	CurrentUser(ctx context.Context, userID uuid.UUID) (*entity.User, error)
}

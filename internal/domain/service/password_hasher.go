// Package service defines interfaces for core, stateless domain logic.
// These services encapsulate business rules that don't naturally fit within a single entity.
package service

import "context"

// PasswordHasher turns plaintext passwords into stored credentials and checks them later.
type PasswordHasher interface {
	// Hash derives a new credential string "<saltHex>.<keyHex>" with a freshly generated salt.
	Hash(ctx context.Context, password string) (string, error)

	// Verify reports whether password matches the stored credential.
	// A credential without a separator yields domainerrors.ErrMalformedCredential.
	Verify(ctx context.Context, password, credential string) (bool, error)
}

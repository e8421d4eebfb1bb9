// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"io"

	"accounts/config"
	"accounts/internal/domain/entity"
	domainerrors "accounts/internal/domain/errors"
	"accounts/internal/domain/service"

	"github.com/pkg/errors"
	"golang.org/x/crypto/scrypt"
)

// ScryptParams are the key derivation settings baked into every stored credential.
type ScryptParams struct {
	SaltBytes int
	KeyLen    int
	N         int
	R         int
	P         int
}

// DefaultScryptParams reproduce the existing credential format: 8 byte salt, 32 byte key.
var DefaultScryptParams = ScryptParams{
	SaltBytes: 8,
	KeyLen:    32,
	N:         16384,
	R:         8,
	P:         1,
}

// scryptHasher implements service.PasswordHasher with salted scrypt credentials.
type scryptHasher struct {
	params ScryptParams
	random io.Reader
}

// NewScryptHasher is the Fx constructor; it reads the derivation settings from cfg.Auth.
func NewScryptHasher(cfg *config.Config) service.PasswordHasher {
	params := DefaultScryptParams
	if cfg != nil && cfg.Auth != nil {
		params = ScryptParams{
			SaltBytes: cfg.Auth.SaltBytes,
			KeyLen:    cfg.Auth.KeyLen,
			N:         cfg.Auth.ScryptN,
			R:         cfg.Auth.ScryptR,
			P:         cfg.Auth.ScryptP,
		}
	}

	return NewScryptHasherWithParams(params)
}

// NewScryptHasherWithParams builds a hasher drawing salts from crypto/rand.
func NewScryptHasherWithParams(params ScryptParams) service.PasswordHasher {
	return &scryptHasher{params: params, random: rand.Reader}
}

// Hash generates a fresh salt and returns "<saltHex>.<keyHex>".
func (h *scryptHasher) Hash(ctx context.Context, password string) (string, error) {
	salt := make([]byte, h.params.SaltBytes)
	if _, err := io.ReadFull(h.random, salt); err != nil {
		return "", errors.Wrap(domainerrors.ErrPasswordHashFailed, err.Error())
	}
	saltHex := hex.EncodeToString(salt)

	key, err := h.deriveKey(ctx, password, saltHex)
	if err != nil {
		return "", err
	}

	return entity.Credential{Salt: saltHex, DerivedKey: hex.EncodeToString(key)}.String(), nil
}

// Verify re-derives the key with the stored salt and compares the hex encodings in constant time.
func (h *scryptHasher) Verify(ctx context.Context, password, credential string) (bool, error) {
	cred, ok := entity.ParseCredential(credential)
	if !ok {
		return false, domainerrors.ErrMalformedCredential.WrapMessage("credential has no salt separator")
	}

	key, err := h.deriveKey(ctx, password, cred.Salt)
	if err != nil {
		return false, err
	}

	computed := hex.EncodeToString(key)

	return subtle.ConstantTimeCompare([]byte(computed), []byte(cred.DerivedKey)) == 1, nil
}

type deriveResult struct {
	key []byte
	err error
}

// deriveKey runs scrypt on its own goroutine so a cancelled request stops waiting for it.
// The salt is used in its stored hex form, not decoded.
func (h *scryptHasher) deriveKey(ctx context.Context, password, saltHex string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.WithStack(err)
	}

	done := make(chan deriveResult, 1)
	go func() {
		key, err := scrypt.Key([]byte(password), []byte(saltHex), h.params.N, h.params.R, h.params.P, h.params.KeyLen)
		done <- deriveResult{key: key, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, errors.WithStack(ctx.Err())
	case res := <-done:
		if res.err != nil {
			return nil, errors.Wrap(domainerrors.ErrPasswordHashFailed, res.err.Error())
		}

		return res.key, nil
	}
}

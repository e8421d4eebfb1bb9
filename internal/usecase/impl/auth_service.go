// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"log/slog"
	"time"

	deliverycontext "accounts/internal/delivery/context"
	"accounts/internal/domain/entity"
	domainerrors "accounts/internal/domain/errors"
	"accounts/internal/domain/repository"
	"accounts/internal/domain/service"
	"accounts/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// authService implements the AuthUsecase interface.
type authService struct {
	users     repository.UserDirectory
	hasher    service.PasswordHasher
	publisher service.EventPublisher
	logger    *slog.Logger
}

// AuthServiceParams holds dependencies for AuthService, injected by Fx.
type AuthServiceParams struct {
	fx.In

	Users     repository.UserDirectory
	Hasher    service.PasswordHasher
	Publisher service.EventPublisher
	Logger    *slog.Logger
}

// NewAuthService is the constructor for authService. It receives all dependencies as interfaces.
func NewAuthService(params AuthServiceParams) usecase.AuthUsecase {
	return &authService{
		users:     params.Users,
		hasher:    params.Hasher,
		publisher: params.Publisher,
		logger:    params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *authService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Register creates a user with a freshly salted credential.
// The email check and the insert are separate calls; the directory's unique
// index settles a race between two sign-ups for the same address.
func (srv *authService) Register(ctx context.Context, input *usecase.CredentialsInput) (*usecase.AuthOutput, error) {
	srv.log(ctx).Info("Starting registration", slog.String("email", input.Email))

	existing, err := srv.users.FindByEmail(ctx, input.Email)
	if err != nil {
		return nil, errors.Wrap(err, "failed to look up email during registration")
	}
	if len(existing) > 0 {
		srv.log(ctx).Warn("Registration rejected, email in use", slog.String("email", input.Email))

		return nil, domainerrors.ErrEmailInUse.WrapMessage("registration failed")
	}

	credential, err := srv.hasher.Hash(ctx, input.Password)
	if err != nil {
		srv.log(ctx).Error("Failed to hash password during registration", slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to hash password during registration")
	}

	user, err := srv.users.Create(ctx, input.Email, credential)
	if err != nil {
		srv.log(ctx).Error("Failed to create user", slog.String("email", input.Email), slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to create user during registration")
	}

	srv.publishSignedUp(ctx, user)
	srv.log(ctx).Debug("Registration completed", slog.Any("userID", user.ID))

	return &usecase.AuthOutput{User: user}, nil
}

// Authenticate verifies the password against the first user stored under the email.
func (srv *authService) Authenticate(ctx context.Context, input *usecase.CredentialsInput) (*usecase.AuthOutput, error) {
	srv.log(ctx).Debug("Starting sign in", slog.String("email", input.Email))

	users, err := srv.users.FindByEmail(ctx, input.Email)
	if err != nil {
		return nil, errors.Wrap(err, "failed to look up email during sign in")
	}
	if len(users) == 0 {
		return nil, domainerrors.ErrUserNotFound.WrapMessage("sign in failed")
	}
	user := users[0]

	ok, err := srv.hasher.Verify(ctx, input.Password, user.Password)
	if err != nil {
		srv.log(ctx).Error("Failed to verify stored credential", slog.Any("userID", user.ID), slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to verify credential")
	}
	if !ok {
		srv.log(ctx).Warn("Sign in rejected, wrong password", slog.Any("userID", user.ID))

		return nil, domainerrors.ErrInvalidCredential.WrapMessage("sign in failed")
	}

	srv.log(ctx).Debug("Sign in succeeded", slog.Any("userID", user.ID))

	return &usecase.AuthOutput{User: user}, nil
}

// CurrentUser loads the user a session points at.
func (srv *authService) CurrentUser(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	user, err := srv.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, domainerrors.ErrUserNotFound.WrapMessage("session user no longer exists")
		}

		return nil, errors.Wrap(err, "failed to load session user")
	}

	return user, nil
}

// publishSignedUp announces the new account. The user row already exists, so a
// publishing failure is logged and does not fail the registration.
func (srv *authService) publishSignedUp(ctx context.Context, user *entity.User) {
	event := &entity.AccountEvent{
		Type:       entity.EventTypeUserSignedUp,
		RequestID:  deliverycontext.GetRequestIDFromContext(ctx),
		UserID:     user.ID,
		Email:      user.Email,
		OccurredAt: time.Now().UTC(),
	}

	if err := srv.publisher.PublishAccountEvent(ctx, event); err != nil {
		srv.log(ctx).Warn("Failed to publish account event",
			slog.String("type", event.Type),
			slog.Any("userID", user.ID),
			slog.Any("error", err),
		)
	}
}

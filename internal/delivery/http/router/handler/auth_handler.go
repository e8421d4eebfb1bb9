// Package handler contains the HTTP handlers for the application.
package handler

import (
	"log/slog"
	"net/http"

	deliverycontext "accounts/internal/delivery/context"
	"accounts/internal/delivery/http/middleware"
	"accounts/internal/delivery/http/response"
	"accounts/internal/domain/entity"
	domainerrors "accounts/internal/domain/errors"
	"accounts/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// UserResponse is the public view of a user. The stored credential never leaves the server.
type UserResponse struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}

func toUserResponse(user *entity.User) UserResponse {
	return UserResponse{ID: user.ID, Email: user.Email}
}

// AuthHandler holds dependencies for sign-up and sign-in handlers.
type AuthHandler struct {
	uc       usecase.AuthUsecase
	sessions *middleware.SessionMiddleware
	logger   *slog.Logger
}

// NewAuthHandler is the constructor for AuthHandler, injected by Fx.
func NewAuthHandler(uc usecase.AuthUsecase, sessions *middleware.SessionMiddleware, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		uc:       uc,
		sessions: sessions,
		logger:   logger,
	}
}

// SignUp handles the account registration request.
func (h *AuthHandler) SignUp(c echo.Context) error {
	input, err := bindCredentials(c)
	if err != nil {
		return err
	}

	output, err := h.uc.Register(c.Request().Context(), input)
	if err != nil {
		return errors.WithStack(err)
	}

	if err := h.sessions.Remember(c, output.User.ID); err != nil {
		return err
	}

	return response.Success(c, http.StatusCreated, toUserResponse(output.User), "User registered successfully")
}

// SignIn handles the sign-in request.
func (h *AuthHandler) SignIn(c echo.Context) error {
	input, err := bindCredentials(c)
	if err != nil {
		return err
	}

	output, err := h.uc.Authenticate(c.Request().Context(), input)
	if err != nil {
		return errors.WithStack(err)
	}

	if err := h.sessions.Remember(c, output.User.ID); err != nil {
		return err
	}

	return response.Success(c, http.StatusOK, toUserResponse(output.User), "Sign in successful")
}

// SignOut drops the user from the session.
func (h *AuthHandler) SignOut(c echo.Context) error {
	if err := h.sessions.Forget(c); err != nil {
		return err
	}

	return response.Success(c, http.StatusOK, nil, "Signed out")
}

// WhoAmI returns the signed-in user.
func (h *AuthHandler) WhoAmI(c echo.Context) error {
	user, ok := deliverycontext.GetCurrentUser(c)
	if !ok {
		return domainerrors.ErrNotSignedIn
	}

	return response.Success(c, http.StatusOK, toUserResponse(user), "")
}

// HealthCheck reports that the process is serving.
func HealthCheck(c echo.Context) error {
	return response.Success(c, http.StatusOK, map[string]string{"status": "ok"}, "")
}

func bindCredentials(c echo.Context) (*usecase.CredentialsInput, error) {
	input := new(usecase.CredentialsInput)
	if err := c.Bind(input); err != nil {
		return nil, domainerrors.ErrValidationFailed.WithDetails("request body must be a JSON object with email and password")
	}

	if err := c.Validate(input); err != nil {
		return nil, err
	}

	return input, nil
}

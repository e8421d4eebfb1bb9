package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"accounts/config"
	"accounts/internal/delivery/http/middleware"
	"accounts/internal/delivery/http/router"
	"accounts/internal/delivery/http/router/handler"
	"accounts/internal/domain/entity"
	domainerrors "accounts/internal/domain/errors"
	mockUsecase "accounts/internal/mocks/usecase"
	"accounts/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool           `json:"success"`
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Details string `json:"details"`
	} `json:"error"`
}

func newTestConfig() *config.Config {
	cfg := &config.Config{}
	cfg.HTTP.MaxRequestBodySize = "100KB"
	cfg.Session = &config.SessionConfig{
		CookieName: "session",
		Keys:       []string{"test-signing-key"},
		MaxAge:     time.Hour,
		SameSite:   "lax",
	}
	cfg.Auth = &config.AuthConfig{}

	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config) (*echo.Echo, *mockUsecase.MockAuthUsecase) {
	t.Helper()

	uc := mockUsecase.NewMockAuthUsecase(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	sessions, err := middleware.NewSessionMiddleware(cfg, uc, logger)
	require.NoError(t, err)

	e := NewEcho(cfg, logger)
	router.NewRouter(router.RouterParams{
		AuthHandler:       handler.NewAuthHandler(uc, sessions, logger),
		SessionMiddleware: sessions,
	}).RegisterRoutes(e)

	return e, uc
}

func doRequest(e *echo.Echo, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()

	var body envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	return body
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()

	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == "session" {
			return cookie
		}
	}
	require.Fail(t, "session cookie not set")

	return nil
}

func credentialsFor(email, password string) any {
	return mock.MatchedBy(func(in *usecase.CredentialsInput) bool {
		return in.Email == email && in.Password == password
	})
}

func testUser(email string) *entity.User {
	return &entity.User{
		ID:       uuid.New(),
		Email:    email,
		Password: "9b8b0ce214d81bdf.c742aef554147a9e823de091b44797a98064b8edf4fe595ecbbdf6f22186b2b6",
	}
}

func TestHealth(t *testing.T) {
	e, _ := newTestServer(t, newTestConfig())

	rec := doRequest(e, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestSignUp_Created(t *testing.T) {
	e, uc := newTestServer(t, newTestConfig())
	user := testUser("new@example.com")

	uc.EXPECT().
		Register(mock.Anything, credentialsFor("new@example.com", "hunter2")).
		Return(&usecase.AuthOutput{User: user}, nil)

	rec := doRequest(e, http.MethodPost, "/auth/signup", `{"email":"new@example.com","password":"hunter2","admin":true}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	body := decode(t, rec)
	assert.True(t, body.Success)
	assert.Equal(t, user.ID.String(), body.Data["id"])
	assert.Equal(t, user.Email, body.Data["email"])
	assert.NotContains(t, rec.Body.String(), user.Password)
	assert.NotContains(t, body.Data, "password")
	assert.NotNil(t, sessionCookie(t, rec))
}

func TestSignUp_ValidationFailed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "invalid email", body: `{"email":"not-an-email","password":"hunter2"}`},
		{name: "missing password", body: `{"email":"new@example.com"}`},
		{name: "not json object", body: `[1,2,3]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, uc := newTestServer(t, newTestConfig())

			rec := doRequest(e, http.MethodPost, "/auth/signup", tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "VALIDATION_FAILED", decode(t, rec).Error.Code)
			uc.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
		})
	}
}

func TestSignUp_EmailInUse(t *testing.T) {
	e, uc := newTestServer(t, newTestConfig())

	uc.EXPECT().
		Register(mock.Anything, mock.Anything).
		Return(nil, domainerrors.ErrEmailInUse.WrapMessage("registration failed"))

	rec := doRequest(e, http.MethodPost, "/auth/signup", `{"email":"taken@example.com","password":"hunter2"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "EMAIL_IN_USE", body.Error.Code)
	assert.Equal(t, "Email in use", body.Message)
	assert.Empty(t, rec.Result().Cookies())
}

func TestSignIn_Errors(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		unifyNotFound bool
		wantStatus    int
		wantCode      string
	}{
		{
			name:       "unknown email",
			err:        domainerrors.ErrUserNotFound.WrapMessage("sign in failed"),
			wantStatus: http.StatusNotFound,
			wantCode:   "USER_NOT_FOUND",
		},
		{
			name:          "unknown email reported as wrong password",
			err:           domainerrors.ErrUserNotFound.WrapMessage("sign in failed"),
			unifyNotFound: true,
			wantStatus:    http.StatusBadRequest,
			wantCode:      "INVALID_CREDENTIAL",
		},
		{
			name:       "wrong password",
			err:        domainerrors.ErrInvalidCredential.WrapMessage("sign in failed"),
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_CREDENTIAL",
		},
		{
			name:       "malformed stored credential",
			err:        domainerrors.ErrMalformedCredential.WrapMessage("credential has no salt separator"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "MALFORMED_CREDENTIAL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newTestConfig()
			cfg.Auth.UnifyNotFound = tt.unifyNotFound
			e, uc := newTestServer(t, cfg)

			uc.EXPECT().Authenticate(mock.Anything, mock.Anything).Return(nil, tt.err)

			rec := doRequest(e, http.MethodPost, "/auth/signin", `{"email":"someone@example.com","password":"wrong"}`)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCode, decode(t, rec).Error.Code)
		})
	}
}

func TestWhoAmI_NotSignedIn(t *testing.T) {
	e, _ := newTestServer(t, newTestConfig())

	rec := doRequest(e, http.MethodGet, "/auth/whoami", "")

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "NOT_SIGNED_IN", decode(t, rec).Error.Code)
}

func TestSessionFlow(t *testing.T) {
	e, uc := newTestServer(t, newTestConfig())
	user := testUser("test@example.com")

	uc.EXPECT().
		Authenticate(mock.Anything, credentialsFor(user.Email, "password.salt")).
		Return(&usecase.AuthOutput{User: user}, nil)
	uc.EXPECT().CurrentUser(mock.Anything, user.ID).Return(user, nil)

	signIn := doRequest(e, http.MethodPost, "/auth/signin", `{"email":"test@example.com","password":"password.salt"}`)
	require.Equal(t, http.StatusOK, signIn.Code)
	cookie := sessionCookie(t, signIn)

	whoami := doRequest(e, http.MethodGet, "/auth/whoami", "", cookie)
	require.Equal(t, http.StatusOK, whoami.Code)
	assert.Equal(t, user.ID.String(), decode(t, whoami).Data["id"])

	signOut := doRequest(e, http.MethodPost, "/auth/signout", "", cookie)
	require.Equal(t, http.StatusOK, signOut.Code)

	afterSignOut := doRequest(e, http.MethodGet, "/auth/whoami", "", sessionCookie(t, signOut))
	assert.Equal(t, http.StatusForbidden, afterSignOut.Code)
}

func TestWhoAmI_TamperedCookie(t *testing.T) {
	e, _ := newTestServer(t, newTestConfig())

	rec := doRequest(e, http.MethodGet, "/auth/whoami", "", &http.Cookie{Name: "session", Value: "forged"})

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestWhoAmI_DeletedUser(t *testing.T) {
	e, uc := newTestServer(t, newTestConfig())
	user := testUser("gone@example.com")

	uc.EXPECT().Authenticate(mock.Anything, mock.Anything).Return(&usecase.AuthOutput{User: user}, nil)
	uc.EXPECT().
		CurrentUser(mock.Anything, user.ID).
		Return(nil, domainerrors.ErrUserNotFound.WrapMessage("session user no longer exists"))

	signIn := doRequest(e, http.MethodPost, "/auth/signin", `{"email":"gone@example.com","password":"x"}`)
	require.Equal(t, http.StatusOK, signIn.Code)

	rec := doRequest(e, http.MethodGet, "/auth/whoami", "", sessionCookie(t, signIn))

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

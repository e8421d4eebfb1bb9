package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"accounts/config"
	deliverycontext "accounts/internal/delivery/context"
	domainerrors "accounts/internal/domain/errors"
	"accounts/internal/errors"
	"accounts/internal/usecase"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
)

// sessionUserIDKey is the only value this service keeps in the session cookie.
const sessionUserIDKey = "userId"

// SessionMiddleware keeps the signed-in user ID in a signed cookie and resolves it per request.
type SessionMiddleware struct {
	store      sessions.Store
	cookieName string
	auth       usecase.AuthUsecase
	logger     *slog.Logger
}

// NewSessionMiddleware builds a cookie store signed with the configured keys.
func NewSessionMiddleware(cfg *config.Config, auth usecase.AuthUsecase, logger *slog.Logger) (*SessionMiddleware, error) {
	if cfg.Session == nil || len(cfg.Session.Keys) == 0 {
		return nil, errors.New("session.keys must contain at least one signing key")
	}

	// Keys are hash keys only: cookies are signed, not encrypted.
	keyPairs := make([][]byte, 0, len(cfg.Session.Keys)*2)
	for _, key := range cfg.Session.Keys {
		keyPairs = append(keyPairs, []byte(key), nil)
	}

	store := sessions.NewCookieStore(keyPairs...)
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   cfg.Session.Secure,
		SameSite: parseSameSite(cfg.Session.SameSite),
	}
	// MaxAge also bounds the signed timestamp checked by the codecs.
	store.MaxAge(int(cfg.Session.MaxAge.Seconds()))

	return &SessionMiddleware{
		store:      store,
		cookieName: cfg.Session.CookieName,
		auth:       auth,
		logger:     logger,
	}, nil
}

// Session attaches the cookie store to every request.
func (m *SessionMiddleware) Session() echo.MiddlewareFunc {
	return session.Middleware(m.store)
}

// CurrentUser loads the user remembered by the session, if any.
// A session pointing at a deleted user is treated as signed out.
func (m *SessionMiddleware) CurrentUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, ok := m.sessionUserID(c)
		if !ok {
			return next(c)
		}

		user, err := m.auth.CurrentUser(c.Request().Context(), userID)
		if err != nil {
			if errors.Is(err, domainerrors.ErrUserNotFound) {
				return next(c)
			}

			return errors.WithStack(err)
		}

		deliverycontext.SetCurrentUser(c, user)

		return next(c)
	}
}

// RequireSignedIn rejects requests without a resolved user.
// It must be used AFTER the CurrentUser middleware.
func (m *SessionMiddleware) RequireSignedIn(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, ok := deliverycontext.GetCurrentUser(c); !ok {
			return domainerrors.ErrNotSignedIn
		}

		return next(c)
	}
}

// Remember stores userID in the session cookie.
func (m *SessionMiddleware) Remember(c echo.Context, userID uuid.UUID) error {
	sess, err := session.Get(m.cookieName, c)
	if err != nil {
		// An unreadable cookie (rotated key, tampering) still yields a fresh session.
		deliverycontext.GetLoggerOrDefault(c.Request().Context(), m.logger).
			Debug("Replacing unreadable session", slog.Any("error", err))
	}
	if sess == nil {
		return domainerrors.ErrSessionFailed.WrapMessage("session store returned no session")
	}

	sess.Values[sessionUserIDKey] = userID.String()
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		return errors.Wrap(domainerrors.ErrSessionFailed, err.Error())
	}

	return nil
}

// Forget removes the user ID from the session cookie.
func (m *SessionMiddleware) Forget(c echo.Context) error {
	sess, _ := session.Get(m.cookieName, c)
	if sess == nil {
		return nil
	}

	delete(sess.Values, sessionUserIDKey)
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		return errors.Wrap(domainerrors.ErrSessionFailed, err.Error())
	}

	return nil
}

func (m *SessionMiddleware) sessionUserID(c echo.Context) (uuid.UUID, bool) {
	sess, err := session.Get(m.cookieName, c)
	if err != nil || sess == nil {
		return uuid.Nil, false
	}

	raw, ok := sess.Values[sessionUserIDKey].(string)
	if !ok {
		return uuid.Nil, false
	}

	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}

	return userID, true
}

func parseSameSite(mode string) http.SameSite {
	switch strings.ToLower(mode) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

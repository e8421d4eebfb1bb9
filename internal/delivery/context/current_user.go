package context

import (
	"accounts/internal/domain/entity"

	"github.com/labstack/echo/v4"
)

// KeyCurrentUser is the echo.Context key holding the signed-in *entity.User.
const KeyCurrentUser ContextKey = "current_user"

// SetCurrentUser stores the signed-in user on the echo.Context.
func SetCurrentUser(c echo.Context, user *entity.User) {
	c.Set(string(KeyCurrentUser), user)
}

// GetCurrentUser returns the signed-in user, if the session resolved to one.
func GetCurrentUser(c echo.Context) (*entity.User, bool) {
	user, ok := c.Get(string(KeyCurrentUser)).(*entity.User)

	return user, ok && user != nil
}

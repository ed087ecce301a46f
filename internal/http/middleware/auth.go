package middleware

import (
	"net/http"
	"strconv"

	"classhub.app/api-server/internal/model"
	"classhub.app/api-server/internal/service"
	"github.com/gin-gonic/gin"
)

const (
	SessionCookieName = "classhub_session"

	userContextKey    = "classhub.currentUser"
	sessionContextKey = "classhub.sessionID"
)

// RequireSession resolves the session cookie into a user and aborts with a
// redirect to the login flow when no valid session is present.
func RequireSession(auth service.AuthService, loginPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		cookie, err := c.Cookie(SessionCookieName)
		if err != nil {
			c.Redirect(http.StatusFound, loginPath)
			c.Abort()
			return
		}

		sessionID, err := strconv.ParseInt(cookie, 10, 64)
		if err != nil {
			c.Redirect(http.StatusFound, loginPath)
			c.Abort()
			return
		}

		user, err := auth.ValidateSession(c.Request.Context(), sessionID)
		if err != nil {
			c.Redirect(http.StatusFound, loginPath)
			c.Abort()
			return
		}

		c.Set(userContextKey, user)
		c.Set(sessionContextKey, sessionID)
		c.Next()
	}
}

// CurrentUser returns the user resolved by RequireSession. Must only be
// called on routes behind it.
func CurrentUser(c *gin.Context) *model.User {
	return c.MustGet(userContextKey).(*model.User)
}

// SetCurrentUser injects a user directly, for tests exercising handlers
// without the full session flow.
func SetCurrentUser(c *gin.Context, user *model.User) {
	c.Set(userContextKey, user)
}

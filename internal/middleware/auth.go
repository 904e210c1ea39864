package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"voteboard/internal/identity"
)

const userKey = "user"

// LoadUser resolves the caller through the identity provider and, when
// present, stashes the user in the request context. Anonymous requests
// pass through untouched.
func LoadUser(p identity.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		if user, ok := p.CurrentUser(c); ok {
			c.Set(userKey, user)
		}
		c.Next()
	}
}

// RequireUser hard-fails anonymous requests with 403. Routes behind it can
// assume CurrentUser succeeds.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exists := c.Get(userKey); !exists {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":        true,
				"errorMessage": "authentication required",
			})
			return
		}
		c.Next()
	}
}

// CurrentUser returns the user loaded by LoadUser.
func CurrentUser(c *gin.Context) (identity.User, bool) {
	v, exists := c.Get(userKey)
	if !exists {
		return identity.User{}, false
	}
	user, ok := v.(identity.User)
	return user, ok
}

// ErrorBoundary converts any panic escaping a handler into the generic
// JSON error envelope, after logging it server-side.
func ErrorBoundary() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logrus.WithField("panic", recovered).Error("unhandled failure in request handler")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":        true,
			"errorMessage": "internal server error",
		})
	})
}

package identity

import (
	"github.com/gin-gonic/gin"
)

// User is the authenticated caller as resolved by the identity provider.
type User struct {
	ID          string
	DisplayName string
}

// Provider resolves the calling user from request credentials and issues
// login URLs when no credentials are present. Authentication itself is
// delegated to an external identity provider.
type Provider interface {
	CurrentUser(c *gin.Context) (User, bool)
	LoginURL(returnPath string) string
}

// Static always resolves to a fixed user. It backs local development when
// no OAuth client is configured; with a zero User every request is
// anonymous.
type Static struct {
	User User
}

func (s Static) CurrentUser(*gin.Context) (User, bool) {
	if s.User.ID == "" {
		return User{}, false
	}
	return s.User, true
}

func (s Static) LoginURL(string) string {
	return ""
}

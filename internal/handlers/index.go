package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"voteboard/internal/identity"
	"voteboard/internal/middleware"
)

// IndexHandler serves the landing page. Unlike the write endpoints it uses
// the redirect policy: anonymous visitors get a login URL instead of a 403.
type IndexHandler struct {
	provider identity.Provider
}

func NewIndexHandler(p identity.Provider) *IndexHandler {
	return &IndexHandler{provider: p}
}

// Show renders the index with the caller's display name, or a login URL
// when anonymous. Exactly one of the two is non-empty.
func (h *IndexHandler) Show(c *gin.Context) {
	vars := gin.H{
		"username": "",
		"login":    "",
	}
	if user, ok := middleware.CurrentUser(c); ok {
		vars["username"] = user.DisplayName
	} else {
		vars["login"] = h.provider.LoginURL("/")
	}
	c.HTML(http.StatusOK, "index.html", vars)
}

package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"voteboard/internal/imaging"
	"voteboard/internal/middleware"
	"voteboard/internal/store"
)

// ProfileHandler serves the caller's own profile.
type ProfileHandler struct {
	store    EntityStore
	profiles ProfileService
	resizer  imaging.Resizer
}

func NewProfileHandler(s EntityStore, p ProfileService, r imaging.Resizer) *ProfileHandler {
	return &ProfileHandler{store: s, profiles: p, resizer: r}
}

// Show reads the profile directly from the entity store, bypassing the
// cache. A user with no profile yet gets a JSON null, not a 404.
func (h *ProfileHandler) Show(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	profile, err := h.store.GetProfile(c.Request.Context(), user.ID)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusOK, nil)
		return
	}
	if err != nil {
		fail(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, profile.Encode())
}

// UpdateAvatar resizes the uploaded avatar to a fixed square and persists
// it on the caller's profile, creating the profile if needed.
func (h *ProfileHandler) UpdateAvatar(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	ctx := c.Request.Context()

	file, _, err := c.Request.FormFile("avatar")
	if err != nil {
		fail(c, http.StatusBadRequest, errors.New("avatar is required"))
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		fail(c, http.StatusInternalServerError, err)
		return
	}

	resized, err := h.resizer.Resize(ctx, raw, imaging.AvatarSize, imaging.AvatarSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, err)
		return
	}

	profile, err := h.profiles.GetOrCreate(ctx, user.ID)
	if err != nil {
		failStore(c, err)
		return
	}

	profile.Avatar = resized
	if err := h.store.PutProfile(ctx, profile); err != nil {
		fail(c, http.StatusInternalServerError, err)
		return
	}
	h.profiles.Refresh(ctx, profile)

	c.JSON(http.StatusOK, profile.Encode())
}

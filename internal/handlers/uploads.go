package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"voteboard/internal/models"
)

// UploadHandler streams stored image blobs: the avatar for a Profile
// reference, the image for a Topic reference.
type UploadHandler struct {
	store EntityStore
}

func NewUploadHandler(s EntityStore) *UploadHandler {
	return &UploadHandler{store: s}
}

// Serve handles GET /uploads/:name. The trailing 4-character ".png" suffix
// is stripped to recover the opaque entity reference.
func (h *UploadHandler) Serve(c *gin.Context) {
	name := c.Param("name")
	if len(name) <= 4 {
		fail(c, http.StatusNotFound, errors.New("image not found"))
		return
	}

	key, err := models.ParseKey(name[:len(name)-4])
	if err != nil {
		fail(c, http.StatusNotFound, errors.New("image not found"))
		return
	}

	blob, err := h.store.ImageBlob(c.Request.Context(), key)
	if err != nil {
		failStore(c, err)
		return
	}

	c.Data(http.StatusOK, "image/png", blob)
}

package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"voteboard/internal/models"
	"voteboard/internal/store"
)

// EntityStore is the persistence surface the handlers need. *store.Store
// satisfies it; tests substitute an in-memory fake.
type EntityStore interface {
	GetTopic(ctx context.Context, id int64) (*models.Topic, error)
	PutTopic(ctx context.Context, t *models.Topic) error
	ListTopics(ctx context.Context) ([]models.Topic, error)
	IncrementVote(ctx context.Context, id int64, direction models.VoteValue) (*models.Topic, error)
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
	PutProfile(ctx context.Context, p *models.Profile) error
	ImageBlob(ctx context.Context, key models.Key) ([]byte, error)
}

// ProfileService is the cache-aside profile lookup.
type ProfileService interface {
	GetOrCreate(ctx context.Context, userID string) (*models.Profile, error)
	Refresh(ctx context.Context, p *models.Profile)
}

var _ EntityStore = (*store.Store)(nil)

// fail logs the error and renders the generic JSON error envelope. Every
// handler-level failure funnels through here.
func fail(c *gin.Context, status int, err error) {
	logrus.WithError(err).WithFields(logrus.Fields{
		"path":   c.Request.URL.Path,
		"status": status,
	}).Error("request failed")
	c.AbortWithStatusJSON(status, gin.H{
		"error":        true,
		"errorMessage": err.Error(),
	})
}

// failStore maps store errors onto the taxonomy: unresolved references are
// 404, anything else is a 500.
func failStore(c *gin.Context, err error) {
	if errors.Is(err, store.ErrNotFound) {
		fail(c, http.StatusNotFound, err)
		return
	}
	fail(c, http.StatusInternalServerError, err)
}

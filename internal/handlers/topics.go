package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"

	"voteboard/internal/imaging"
	"voteboard/internal/middleware"
	"voteboard/internal/models"
)

// TopicHandler serves the topic listing, submission and voting endpoints.
type TopicHandler struct {
	store    EntityStore
	profiles ProfileService
	resizer  imaging.Resizer
	sanitize *bluemonday.Policy
}

func NewTopicHandler(s EntityStore, p ProfileService, r imaging.Resizer) *TopicHandler {
	return &TopicHandler{
		store:    s,
		profiles: p,
		resizer:  r,
		sanitize: bluemonday.StrictPolicy(),
	}
}

// List returns all topics newest first. Authenticated callers additionally
// get their vote eligibility, authored-topic map and cast-vote map from the
// cache-aside profile lookup.
func (h *TopicHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	topics, err := h.store.ListTopics(ctx)
	if err != nil {
		fail(c, http.StatusInternalServerError, err)
		return
	}

	encoded := make([]map[string]any, 0, len(topics))
	for i := range topics {
		encoded = append(encoded, topics[i].Encode())
	}

	response := gin.H{
		"topics":    encoded,
		"can_vote":  false,
		"my_topics": map[string]bool{},
		"my_votes":  map[string]models.VoteValue{},
	}

	if user, ok := middleware.CurrentUser(c); ok {
		profile, err := h.profiles.GetOrCreate(ctx, user.ID)
		if err != nil {
			fail(c, http.StatusInternalServerError, err)
			return
		}
		response["can_vote"] = true
		response["my_topics"] = profile.TopicMap()
		response["my_votes"] = profile.VoteMap()
	}

	c.JSON(http.StatusOK, response)
}

// Create submits a new topic and records it on the author's profile.
func (h *TopicHandler) Create(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	ctx := c.Request.Context()

	name := strings.TrimSpace(h.sanitize.Sanitize(c.PostForm("name")))
	if name == "" {
		fail(c, http.StatusBadRequest, errors.New("topic name is required"))
		return
	}

	topic := &models.Topic{Name: name}

	if tags := c.PostForm("tags"); tags != "" {
		for _, tag := range strings.Split(tags, ",") {
			tag = strings.TrimSpace(h.sanitize.Sanitize(tag))
			if tag != "" {
				topic.Tags = append(topic.Tags, tag)
			}
		}
	}

	if file, _, err := c.Request.FormFile("image"); err == nil {
		defer file.Close()
		raw, err := io.ReadAll(file)
		if err != nil {
			fail(c, http.StatusInternalServerError, err)
			return
		}
		resized, err := h.resizer.Resize(ctx, raw, imaging.TopicImageWidth, 0)
		if err != nil {
			fail(c, http.StatusInternalServerError, err)
			return
		}
		topic.Image = resized
	}

	if err := h.store.PutTopic(ctx, topic); err != nil {
		fail(c, http.StatusInternalServerError, err)
		return
	}

	// Second, independent write: a crash here leaves the topic without a
	// profile reference.
	profile, err := h.profiles.GetOrCreate(ctx, user.ID)
	if err != nil {
		fail(c, http.StatusInternalServerError, err)
		return
	}
	profile.Topics = append(profile.Topics, topic.Key())
	if err := h.store.PutProfile(ctx, profile); err != nil {
		fail(c, http.StatusInternalServerError, err)
		return
	}
	h.profiles.Refresh(ctx, profile)

	c.JSON(http.StatusOK, topic.Encode())
}

// Vote casts an up or down vote on a topic. Any other direction value
// mutates nothing and still answers 200 with the unmodified topic.
func (h *TopicHandler) Vote(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	ctx := c.Request.Context()

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		fail(c, http.StatusNotFound, errors.New("topic not found"))
		return
	}

	topic, err := h.store.GetTopic(ctx, id)
	if err != nil {
		failStore(c, err)
		return
	}

	direction := models.VoteValue(c.Param("direction"))
	if direction.Valid() {
		topic, err = h.store.IncrementVote(ctx, id, direction)
		if err != nil {
			failStore(c, err)
			return
		}
	}

	profile, err := h.profiles.GetOrCreate(ctx, user.ID)
	if err != nil {
		fail(c, http.StatusInternalServerError, err)
		return
	}
	if direction.Valid() {
		// The ballot is kept per cast vote; repeat votes are not deduplicated.
		profile.Votes = append(profile.Votes, models.NewVote(topic.Key(), direction))
		if err := h.store.PutProfile(ctx, profile); err != nil {
			fail(c, http.StatusInternalServerError, err)
			return
		}
		h.profiles.Refresh(ctx, profile)
	}

	c.JSON(http.StatusOK, gin.H{
		"topic":    topic.Encode(),
		"my_votes": profile.VoteMap(),
	})
}

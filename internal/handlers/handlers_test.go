package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"html/template"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voteboard/internal/cache"
	"voteboard/internal/handlers"
	"voteboard/internal/identity"
	"voteboard/internal/models"
	"voteboard/internal/profiles"
	"voteboard/internal/router"
	"voteboard/internal/store"
)

// fakeStore is an in-memory EntityStore honoring the same contracts as the
// Postgres-backed one: stamped timestamps, created-DESC listing, atomic
// increments, ErrNotFound for unresolved references.
type fakeStore struct {
	mu       sync.Mutex
	topics   map[int64]models.Topic
	profiles map[string]models.Profile
	nextID   int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		topics:   make(map[int64]models.Topic),
		profiles: make(map[string]models.Profile),
	}
}

func (f *fakeStore) GetTopic(_ context.Context, id int64) (*models.Topic, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.topics[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &t, nil
}

func (f *fakeStore) PutTopic(_ context.Context, t *models.Topic) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t.ID == 0 {
		f.nextID++
		t.ID = f.nextID
	}
	if err := t.BeforeSave(nil); err != nil {
		return err
	}
	f.topics[t.ID] = *t
	return nil
}

func (f *fakeStore) ListTopics(_ context.Context) ([]models.Topic, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Topic, 0, len(f.topics))
	for _, t := range f.topics {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Created > out[j].Created })
	return out, nil
}

func (f *fakeStore) IncrementVote(_ context.Context, id int64, direction models.VoteValue) (*models.Topic, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.topics[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	switch direction {
	case models.VoteUp:
		t.UpVotes++
	case models.VoteDown:
		t.DownVotes++
	}
	t.Modified = time.Now().Unix()
	f.topics[id] = t
	return &t, nil
}

func (f *fakeStore) GetProfile(_ context.Context, id string) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (f *fakeStore) PutProfile(_ context.Context, p *models.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := p.BeforeSave(nil); err != nil {
		return err
	}
	f.profiles[p.ID] = *p
	return nil
}

func (f *fakeStore) ImageBlob(_ context.Context, key models.Key) ([]byte, error) {
	var blob []byte
	switch key.Kind {
	case models.KindTopic:
		f.mu.Lock()
		for id, t := range f.topics {
			if key.ID == idString(id) {
				blob = t.Image
			}
		}
		f.mu.Unlock()
	case models.KindProfile:
		f.mu.Lock()
		if p, ok := f.profiles[key.ID]; ok {
			blob = p.Avatar
		}
		f.mu.Unlock()
	}
	if len(blob) == 0 {
		return nil, store.ErrNotFound
	}
	return blob, nil
}

func idString(id int64) string {
	raw, _ := json.Marshal(id)
	return string(raw)
}

// fakeResizer records the requested dimensions and echoes fixed bytes.
type fakeResizer struct {
	width, height int
	out           []byte
	err           error
}

func (r *fakeResizer) Resize(_ context.Context, _ []byte, width, height int) ([]byte, error) {
	r.width, r.height = width, height
	if r.err != nil {
		return nil, r.err
	}
	return r.out, nil
}

type env struct {
	engine  *gin.Engine
	store   *fakeStore
	resizer *fakeResizer
}

func newEnv(t *testing.T, user identity.User) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := newFakeStore()
	c, err := cache.NewLRU(50)
	require.NoError(t, err)
	svc := profiles.New(st, c)
	resizer := &fakeResizer{out: []byte("resized-bytes")}
	provider := identity.Static{User: user}

	r := gin.New()
	r.SetHTMLTemplate(template.Must(template.New("index.html").Parse(
		`{{.username}}|{{.login}}`)))

	router.Register(r, provider,
		handlers.NewIndexHandler(provider),
		handlers.NewProfileHandler(st, svc, resizer),
		handlers.NewTopicHandler(st, svc, resizer),
		handlers.NewUploadHandler(st),
	)

	return &env{engine: r, store: st, resizer: resizer}
}

func (e *env) do(t *testing.T, method, path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == nil {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, body)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func (e *env) form(t *testing.T, method, path, form string) *httptest.ResponseRecorder {
	return e.do(t, method, path, bytes.NewBufferString(form), "application/x-www-form-urlencoded")
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), "body: %s", w.Body.String())
	return out
}

var alice = identity.User{ID: "google:alice", DisplayName: "Alice"}

func seedTopic(t *testing.T, st *fakeStore, topic models.Topic) models.Topic {
	t.Helper()
	require.NoError(t, st.PutTopic(context.Background(), &topic))
	return topic
}

func TestListTopicsNewestFirst(t *testing.T) {
	e := newEnv(t, identity.User{})
	seedTopic(t, e.store, models.Topic{Name: "oldest", Created: 100})
	seedTopic(t, e.store, models.Topic{Name: "newest", Created: 300})
	seedTopic(t, e.store, models.Topic{Name: "middle", Created: 200})

	w := e.do(t, http.MethodGet, "/topics", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	topics := body["topics"].([]any)
	require.Len(t, topics, 3)

	names := []string{}
	for _, raw := range topics {
		names = append(names, raw.(map[string]any)["name"].(string))
	}
	assert.Equal(t, []string{"newest", "middle", "oldest"}, names)

	assert.Equal(t, false, body["can_vote"])
	assert.Empty(t, body["my_topics"])
	assert.Empty(t, body["my_votes"])
}

func TestListTopicsAuthenticatedExtras(t *testing.T) {
	e := newEnv(t, alice)
	topic := seedTopic(t, e.store, models.Topic{Name: "Pizza"})

	// Author it and vote on it through the API so the profile fills in.
	w := e.form(t, http.MethodPost, "/topics", "name=Calzone")
	require.Equal(t, http.StatusOK, w.Code)
	created := decode(t, w)

	w = e.do(t, http.MethodPut, "/topics/1/up", nil, "")
	if topic.ID != 1 {
		t.Fatalf("unexpected seeded id %d", topic.ID)
	}
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, http.MethodGet, "/topics", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)

	assert.Equal(t, true, body["can_vote"])
	myTopics := body["my_topics"].(map[string]any)
	assert.Equal(t, true, myTopics[idString(int64(created["id"].(float64)))])
	myVotes := body["my_votes"].(map[string]any)
	assert.Equal(t, "up", myVotes["1"])
}

func TestCreateTopicPizzaScenario(t *testing.T) {
	e := newEnv(t, alice)

	w := e.form(t, http.MethodPost, "/topics", "name=Pizza&tags=food,lunch")
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, "Pizza", body["name"])
	assert.Equal(t, []any{"food", "lunch"}, body["tags"])
	assert.Equal(t, float64(0), body["up_votes"])
	assert.Equal(t, float64(0), body["down_votes"])
	assert.NotZero(t, body["id"])
	assert.NotZero(t, body["created"])

	// The author's profile records the new topic reference.
	p, err := e.store.GetProfile(context.Background(), alice.ID)
	require.NoError(t, err)
	require.Len(t, p.Topics, 1)
	assert.Equal(t, models.KindTopic, p.Topics[0].Kind)
}

func TestCreateTopicRequiresName(t *testing.T) {
	e := newEnv(t, alice)

	w := e.form(t, http.MethodPost, "/topics", "tags=food")
	require.Equal(t, http.StatusBadRequest, w.Code)

	body := decode(t, w)
	assert.Equal(t, true, body["error"])
	assert.NotEmpty(t, body["errorMessage"])
	assert.Empty(t, e.store.topics)
}

func TestCreateTopicStripsMarkup(t *testing.T) {
	e := newEnv(t, alice)

	w := e.form(t, http.MethodPost, "/topics", "name=%3Cscript%3Ealert(1)%3C%2Fscript%3EPizza")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Pizza", decode(t, w)["name"])
}

func TestVoteUpTwice(t *testing.T) {
	e := newEnv(t, alice)
	seedTopic(t, e.store, models.Topic{Name: "Pizza"})

	w := e.do(t, http.MethodPut, "/topics/1/up", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	w = e.do(t, http.MethodPut, "/topics/1/up", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	topic := body["topic"].(map[string]any)
	assert.Equal(t, float64(2), topic["up_votes"])
	assert.Equal(t, float64(0), topic["down_votes"])
	assert.Equal(t, "up", body["my_votes"].(map[string]any)["1"])

	// Both ballots are recorded; repeat votes are not deduplicated.
	p, err := e.store.GetProfile(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Len(t, p.Votes, 2)
}

func TestVoteDownLeavesUpUnchanged(t *testing.T) {
	e := newEnv(t, alice)
	seedTopic(t, e.store, models.Topic{Name: "Pizza", UpVotes: 5})

	w := e.do(t, http.MethodPut, "/topics/1/down", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	topic := decode(t, w)["topic"].(map[string]any)
	assert.Equal(t, float64(5), topic["up_votes"])
	assert.Equal(t, float64(1), topic["down_votes"])
}

func TestVoteUnknownDirectionIsNoOp(t *testing.T) {
	e := newEnv(t, alice)
	seedTopic(t, e.store, models.Topic{Name: "Pizza", UpVotes: 2, DownVotes: 1})

	w := e.do(t, http.MethodPut, "/topics/1/sideways", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	topic := decode(t, w)["topic"].(map[string]any)
	assert.Equal(t, float64(2), topic["up_votes"])
	assert.Equal(t, float64(1), topic["down_votes"])

	// No ballot is appended for a direction that tallies nothing.
	p, err := e.store.GetProfile(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Empty(t, p.Votes)
}

func TestVoteMissingTopic(t *testing.T) {
	e := newEnv(t, alice)

	w := e.do(t, http.MethodPut, "/topics/99/up", nil, "")
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, true, decode(t, w)["error"])
	assert.Empty(t, e.store.profiles, "a failed vote must not mutate the store")
}

func TestUnauthenticatedWritesAreForbidden(t *testing.T) {
	e := newEnv(t, identity.User{})
	seedTopic(t, e.store, models.Topic{Name: "Pizza"})

	for _, req := range []struct{ method, path string }{
		{http.MethodGet, "/profile"},
		{http.MethodPost, "/profile"},
		{http.MethodPost, "/topics"},
		{http.MethodPut, "/topics/1/up"},
	} {
		w := e.form(t, req.method, req.path, "name=Pizza")
		assert.Equal(t, http.StatusForbidden, w.Code, "%s %s", req.method, req.path)
		assert.Equal(t, true, decode(t, w)["error"])
	}

	topic, err := e.store.GetTopic(context.Background(), 1)
	require.NoError(t, err)
	assert.Zero(t, topic.UpVotes, "rejected requests must not mutate the store")
	assert.Len(t, e.store.topics, 1)
}

func TestProfileShowNullWhenAbsent(t *testing.T) {
	e := newEnv(t, alice)

	w := e.do(t, http.MethodGet, "/profile", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "null", strings.TrimSpace(w.Body.String()))
}

func multipartBody(t *testing.T, field, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

func TestAvatarUploadResizesToFixedSquare(t *testing.T) {
	e := newEnv(t, alice)

	body, contentType := multipartBody(t, "avatar", "me.png", []byte("huge-original"))
	w := e.do(t, http.MethodPost, "/profile", body, contentType)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, 72, e.resizer.width)
	assert.Equal(t, 72, e.resizer.height)

	p, err := e.store.GetProfile(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("resized-bytes"), p.Avatar)

	// The response carries a retrieval URL, never the raw bytes.
	resp := decode(t, w)
	assert.Equal(t, models.UploadURL(models.ProfileKey(alice.ID)), resp["avatar"])
}

func TestUploadServeTopicImage(t *testing.T) {
	e := newEnv(t, identity.User{})
	topic := seedTopic(t, e.store, models.Topic{Name: "Pizza", Image: []byte("png-bytes")})

	w := e.do(t, http.MethodGet, models.UploadURL(topic.Key()), nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, "png-bytes", w.Body.String())
}

func TestUploadServeMissingImage(t *testing.T) {
	e := newEnv(t, identity.User{})
	topic := seedTopic(t, e.store, models.Topic{Name: "No image"})

	// A topic without a blob is a 404, not an empty 200.
	w := e.do(t, http.MethodGet, models.UploadURL(topic.Key()), nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = e.do(t, http.MethodGet, "/uploads/garbage-ref.png", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestIndexAnonymousGetsLoginURL(t *testing.T) {
	e := newEnv(t, identity.User{})

	w := e.do(t, http.MethodGet, "/", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "|", w.Body.String(), "anonymous: empty username, empty static login URL")
}

func TestIndexAuthenticatedGetsUsername(t *testing.T) {
	e := newEnv(t, alice)

	w := e.do(t, http.MethodGet, "/", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Alice|", w.Body.String())
}

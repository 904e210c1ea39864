package profiles

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"voteboard/internal/cache"
	"voteboard/internal/models"
	"voteboard/internal/store"
)

// DefaultTTL bounds how long a stale cache entry can mask a direct store
// write that skipped the re-set.
const DefaultTTL = 10 * time.Minute

// Store is the persistence surface the service needs.
type Store interface {
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
	PutProfile(ctx context.Context, p *models.Profile) error
}

// Service implements the cache-aside profile lookup: cache first, then the
// store, creating an empty profile on a double miss. The cache is explicitly
// re-populated after every load and every mutation; entries are never
// auto-invalidated.
type Service struct {
	store Store
	cache cache.Cache
	ttl   time.Duration
}

func New(s Store, c cache.Cache) *Service {
	return &Service{store: s, cache: c, ttl: DefaultTTL}
}

// GetOrCreate resolves the profile for userID, regardless of whether it
// previously existed.
func (s *Service) GetOrCreate(ctx context.Context, userID string) (*models.Profile, error) {
	key := models.ProfileKey(userID).Urlsafe()

	if raw, err := s.cache.Get(ctx, key); err == nil {
		var p models.Profile
		if err := json.Unmarshal(raw, &p); err == nil {
			return &p, nil
		}
		// Corrupted entry: fall through to the store.
		logrus.WithField("key", key).Warn("dropping undecodable profile cache entry")
	}

	p, err := s.store.GetProfile(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		p = &models.Profile{ID: userID}
		if err := s.store.PutProfile(ctx, p); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	s.Refresh(ctx, p)
	return p, nil
}

// Refresh re-writes the cache entry for p. Callers must invoke it after any
// profile mutation; a missed refresh leaves stale reads until the entry
// expires. Cache failures are logged and swallowed.
func (s *Service) Refresh(ctx context.Context, p *models.Profile) {
	raw, err := json.Marshal(p)
	if err != nil {
		logrus.WithError(err).WithField("profile", p.ID).Warn("failed to encode profile for cache")
		return
	}
	if err := s.cache.Set(ctx, models.ProfileKey(p.ID).Urlsafe(), raw, s.ttl); err != nil {
		logrus.WithError(err).WithField("profile", p.ID).Warn("failed to refresh profile cache")
	}
}

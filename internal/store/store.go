package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"voteboard/internal/models"
)

// ErrNotFound is returned when an id or entity reference does not resolve.
var ErrNotFound = errors.New("entity not found")

// Topic listing is bounded to keep response sizes sane.
const maxTopicPage = 1000

// Store is the persistent entity store for topics and profiles, backed by
// Postgres through GORM.
type Store struct {
	db *gorm.DB
}

// Open connects to the database, runs migrations and returns the store.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := db.AutoMigrate(&models.Topic{}, &models.Profile{}); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	logrus.Info("database connection established")

	return New(db), nil
}

// New wraps an existing GORM handle.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) GetTopic(ctx context.Context, id int64) (*models.Topic, error) {
	var t models.Topic
	err := s.db.WithContext(ctx).First(&t, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Store) PutTopic(ctx context.Context, t *models.Topic) error {
	return s.db.WithContext(ctx).Save(t).Error
}

// ListTopics returns topics ordered newest first, capped at maxTopicPage.
func (s *Store) ListTopics(ctx context.Context) ([]models.Topic, error) {
	var topics []models.Topic
	err := s.db.WithContext(ctx).
		Order("created DESC").
		Limit(maxTopicPage).
		Find(&topics).Error
	if err != nil {
		return nil, err
	}
	return topics, nil
}

// IncrementVote bumps the tally for the given direction by one, atomically
// at the database, and returns the updated topic. Concurrent votes never
// lose updates this way; a read-modify-write through PutTopic would.
func (s *Store) IncrementVote(ctx context.Context, id int64, direction models.VoteValue) (*models.Topic, error) {
	if !direction.Valid() {
		return s.GetTopic(ctx, id)
	}

	column := "up_votes"
	if direction == models.VoteDown {
		column = "down_votes"
	}

	res := s.db.WithContext(ctx).Model(&models.Topic{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{
			column:     gorm.Expr(column + " + 1"),
			"modified": time.Now().Unix(),
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.GetTopic(ctx, id)
}

func (s *Store) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	var p models.Profile
	err := s.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) PutProfile(ctx context.Context, p *models.Profile) error {
	return s.db.WithContext(ctx).Save(p).Error
}

// ImageBlob resolves an opaque entity reference to its stored image bytes:
// the avatar for a Profile reference, the image for a Topic reference.
// Unknown kinds, unresolved ids and empty blobs all read as ErrNotFound.
func (s *Store) ImageBlob(ctx context.Context, key models.Key) ([]byte, error) {
	var blob []byte
	switch key.Kind {
	case models.KindTopic:
		id, err := strconv.ParseInt(key.ID, 10, 64)
		if err != nil {
			return nil, ErrNotFound
		}
		t, err := s.GetTopic(ctx, id)
		if err != nil {
			return nil, err
		}
		blob = t.Image
	case models.KindProfile:
		p, err := s.GetProfile(ctx, key.ID)
		if err != nil {
			return nil, err
		}
		blob = p.Avatar
	default:
		return nil, ErrNotFound
	}
	if len(blob) == 0 {
		return nil, ErrNotFound
	}
	return blob, nil
}

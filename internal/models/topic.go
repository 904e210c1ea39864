package models

import (
	"fmt"

	"gorm.io/gorm"
)

// Topic is a votable item with a name, optional image/tags and vote tallies.
type Topic struct {
	ID        int64    `gorm:"primaryKey" json:"id"`
	Name      string   `gorm:"not null" json:"name"`
	Image     []byte   `gorm:"type:bytea" json:"image,omitempty"`
	Tags      []string `gorm:"serializer:json" json:"tags"`
	UpVotes   int64    `gorm:"not null;default:0" json:"up_votes"`
	DownVotes int64    `gorm:"not null;default:0" json:"down_votes"`
	Created   int64    `gorm:"index" json:"created"`
	Modified  int64    `json:"modified"`
}

func (t *Topic) BeforeSave(*gorm.DB) error {
	stamp(&t.Created, &t.Modified)
	return nil
}

func (t *Topic) Key() Key {
	return TopicKey(t.ID)
}

// Encode renders the topic as a JSON-safe mapping: flat fields plus the
// injected id. The image blob is replaced with its retrieval URL when
// present and omitted otherwise.
func (t *Topic) Encode() map[string]any {
	m := map[string]any{
		"id":         t.ID,
		"name":       t.Name,
		"tags":       t.Tags,
		"up_votes":   t.UpVotes,
		"down_votes": t.DownVotes,
		"created":    t.Created,
		"modified":   t.Modified,
	}
	if len(t.Image) > 0 {
		m["image"] = UploadURL(t.Key())
	}
	return m
}

func (t *Topic) String() string {
	return fmt.Sprintf("Topic(%d, %q, +%d/-%d)", t.ID, t.Name, t.UpVotes, t.DownVotes)
}

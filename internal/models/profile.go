package models

import (
	"gorm.io/gorm"
)

// Profile is a per-user record of authored topics, cast votes and avatar.
// Its primary key is the stable id issued by the external identity
// provider; the row is created lazily on first access.
type Profile struct {
	ID       string `gorm:"primaryKey;size:128" json:"id"`
	Avatar   []byte `gorm:"type:bytea" json:"avatar,omitempty"`
	Topics   []Key  `gorm:"serializer:json" json:"topics"`
	Votes    []Vote `gorm:"serializer:json" json:"votes"`
	Created  int64  `json:"created"`
	Modified int64  `json:"modified"`
}

func (p *Profile) BeforeSave(*gorm.DB) error {
	stamp(&p.Created, &p.Modified)
	return nil
}

func (p *Profile) Key() Key {
	return ProfileKey(p.ID)
}

// Encode renders the profile as a JSON-safe mapping. Topic references
// encode as {kind, id}; the avatar blob is replaced with its retrieval
// URL when present and omitted otherwise.
func (p *Profile) Encode() map[string]any {
	topics := make([]map[string]any, 0, len(p.Topics))
	for _, k := range p.Topics {
		topics = append(topics, k.Encode())
	}
	votes := make([]map[string]any, 0, len(p.Votes))
	for _, v := range p.Votes {
		votes = append(votes, v.Encode())
	}
	m := map[string]any{
		"id":       p.ID,
		"topics":   topics,
		"votes":    votes,
		"created":  p.Created,
		"modified": p.Modified,
	}
	if len(p.Avatar) > 0 {
		m["avatar"] = UploadURL(p.Key())
	}
	return m
}

// TopicMap maps authored topic ids to true, for the listing response.
func (p *Profile) TopicMap() map[string]bool {
	m := make(map[string]bool, len(p.Topics))
	for _, k := range p.Topics {
		m[k.ID] = true
	}
	return m
}

// VoteMap maps topic ids to the vote the user cast. All vote records are
// kept; a later vote on the same topic overwrites the earlier map entry.
func (p *Profile) VoteMap() map[string]VoteValue {
	m := make(map[string]VoteValue, len(p.Votes))
	for _, v := range p.Votes {
		m[v.Topic.ID] = v.Vote
	}
	return m
}

package models

// VoteValue is the direction of a cast vote.
type VoteValue string

const (
	VoteUp   VoteValue = "up"
	VoteDown VoteValue = "down"
)

// Valid reports whether v is one of the two accepted directions.
func (v VoteValue) Valid() bool {
	return v == VoteUp || v == VoteDown
}

// Vote is a user's vote on a particular topic. Votes live exclusively
// inside the owning Profile; they are never stored as standalone rows.
type Vote struct {
	Topic    Key       `json:"topic"`
	Vote     VoteValue `json:"vote"`
	Created  int64     `json:"created"`
	Modified int64     `json:"modified"`
}

// NewVote builds a stamped vote record for embedding into a profile.
func NewVote(topic Key, value VoteValue) Vote {
	v := Vote{Topic: topic, Vote: value}
	stamp(&v.Created, &v.Modified)
	return v
}

func (v Vote) Encode() map[string]any {
	return map[string]any{
		"topic":    v.Topic.Encode(),
		"vote":     v.Vote,
		"created":  v.Created,
		"modified": v.Modified,
	}
}

package models

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// Entity kinds stored by the service.
const (
	KindTopic   = "Topic"
	KindProfile = "Profile"
)

// Key is an opaque reference to a stored entity of a specific kind.
// It serializes to {"kind": ..., "id": ...} in API responses and to a
// URL-safe token in upload paths and cache keys.
type Key struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
}

func TopicKey(id int64) Key {
	return Key{Kind: KindTopic, ID: fmt.Sprintf("%d", id)}
}

func ProfileKey(userID string) Key {
	return Key{Kind: KindProfile, ID: userID}
}

// Urlsafe returns an opaque token for the key, usable in URL path segments.
func (k Key) Urlsafe() string {
	return base64.RawURLEncoding.EncodeToString([]byte(k.Kind + "/" + k.ID))
}

// ParseKey reverses Urlsafe.
func ParseKey(token string) (Key, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Key{}, fmt.Errorf("invalid entity reference: %w", err)
	}
	kind, id, ok := strings.Cut(string(raw), "/")
	if !ok || kind == "" || id == "" {
		return Key{}, fmt.Errorf("invalid entity reference %q", token)
	}
	return Key{Kind: kind, ID: id}, nil
}

// UploadURL is the retrieval URL substituted for binary image fields in
// JSON responses. Raw bytes are never inlined.
func UploadURL(k Key) string {
	return "/uploads/" + k.Urlsafe() + ".png"
}

// Encode renders the key as a JSON-safe mapping.
func (k Key) Encode() map[string]any {
	return map[string]any{"kind": k.Kind, "id": k.ID}
}

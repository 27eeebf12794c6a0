// Package agenda holds the agenda data model shared by the parsers, the
// store, the dialog engine and the formatter.
package agenda

import (
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

// Status is the lifecycle label of an agenda item.
type Status string

const (
	StatusPending Status = "Belum"
	StatusDone    Status = "Selesai"
	StatusMissed  Status = "Terlewat"
)

// TagNone is the stored sentinel for "no tag".
const TagNone = "Tidak ada"

// Item is a persisted agenda entry.
type Item struct {
	ID              string
	CreatedAt       time.Time
	OccursAt        time.Time
	Category        string
	Priority        string
	Description     string
	Tag             string
	Status          Status
	Note            string // optional, "" when absent
	ExternalEventID string // optional, "" when absent
}

// NewID returns a fresh globally unique item identifier.
func NewID() string {
	return uuid.NewString()
}

// New builds an item with a fresh id and the creation defaults applied.
func New(now, occursAt time.Time, category, priority, description string) Item {
	return Item{
		ID:          NewID(),
		CreatedAt:   now,
		OccursAt:    occursAt,
		Category:    category,
		Priority:    priority,
		Description: description,
		Tag:         TagNone,
		Status:      StatusPending,
	}
}

// Capitalize upper-cases the first letter and lower-cases the rest, the way
// preset tokens are turned into stored labels ("tinggi" -> "Tinggi").
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(strings.ToLower(s))
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// NormalizeTag maps the user's "no tag" spellings onto TagNone.
func NormalizeTag(s string) string {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "none", strings.ToLower(TagNone):
		return TagNone
	}
	return s
}

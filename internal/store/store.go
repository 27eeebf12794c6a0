package store

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/rahul/agendabot/internal/agenda"
)

var (
	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("store closed")
	// ErrNotEmpty guards one-shot imports.
	ErrNotEmpty = errors.New("store already contains items")
)

// Store is the keyed agenda record store consumed by the dialog engine.
// Absence is reported through the boolean results, never as an error.
type Store interface {
	// Put inserts or replaces by id and returns the id.
	Put(ctx context.Context, item agenda.Item) (string, error)
	Get(ctx context.Context, id string) (agenda.Item, bool, error)
	// Range returns items dated within [start, end] inclusive, ascending by OccursAt.
	Range(ctx context.Context, start, end agenda.Date) ([]agenda.Item, error)
	// Search matches description, category, priority and tag case-insensitively.
	Search(ctx context.Context, query string) ([]agenda.Item, error)
	Delete(ctx context.Context, id string) (bool, error)
	UpdateField(ctx context.Context, id string, u agenda.FieldUpdate) (bool, error)
	// UpdateItem overwrites every mutable column of an existing item. It
	// never inserts.
	UpdateItem(ctx context.Context, item agenda.Item) (bool, error)
	Count(ctx context.Context) (int, error)
	Close() error
}

// fold is the case folding Search applies to both sides, Unicode-aware.
func fold(s string) string { return strings.ToLower(s) }

func matches(it agenda.Item, query string) bool {
	q := fold(query)
	for _, v := range []string{it.Description, it.Category, it.Priority, it.Tag} {
		if strings.Contains(fold(v), q) {
			return true
		}
	}
	return false
}

func sortByOccurrence(items []agenda.Item) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].OccursAt.Equal(items[j].OccursAt) {
			return items[i].ID < items[j].ID
		}
		return items[i].OccursAt.Before(items[j].OccursAt)
	})
}

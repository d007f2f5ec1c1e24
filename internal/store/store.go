// Package store defines the record store consumed by the matcher and the
// search engine, along with an in-memory implementation.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/underdogdevs/mentormatch/internal/profile"
)

var (
	// ErrNotFound is returned by Get when no record has the requested id.
	ErrNotFound = errors.New("record not found")
	// ErrUnavailable wraps connectivity and timeout failures of a backend.
	ErrUnavailable = errors.New("store unavailable")
)

// Filter is an exact-match query: every key must equal the record's value.
// An empty filter matches every record.
type Filter map[string]any

// CollectionInfo describes a collection and its size.
type CollectionInfo struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Store is the read side of a document store keyed by profile_id.
type Store interface {
	Get(ctx context.Context, collection, id string) (profile.Record, error)
	QueryAll(ctx context.Context, collection string, filter Filter) ([]profile.Record, error)
	Count(ctx context.Context, collection string, filter Filter) (int, error)
	Collections(ctx context.Context) ([]CollectionInfo, error)
}

// Unavailable wraps err so that errors.Is(err, ErrUnavailable) holds while
// keeping the cause.
func Unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}

// Matches reports whether rec satisfies every key of f. Values are compared
// by their string rendering so that 7 and "7" are equal.
func (f Filter) Matches(rec profile.Record) bool {
	for key, want := range f {
		got, ok := rec[key]
		if !ok {
			return false
		}
		if profile.FormatValue(got) != profile.FormatValue(want) {
			return false
		}
	}
	return true
}

// SortInfos orders collection descriptions by name.
func SortInfos(infos []CollectionInfo) {
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
}

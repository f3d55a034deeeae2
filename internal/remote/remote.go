// Package remote accesses the shared multi-tenant document store that
// mirrors the local record sets. Documents live in one collection per entity
// type, partitioned by the dietitianId field; ids and timestamps are assigned
// by the store.
package remote

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable indicates the remote store cannot be reached or refused the
// credentials. Callers treat it as total unavailability, not a per-document
// failure.
var ErrUnavailable = errors.New("remote: store unavailable")

// Document is a remote record with its store-assigned identity.
type Document struct {
	ID        string         `json:"id"`
	Fields    map[string]any `json:"fields"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// StringField reads a document field as a string, tolerating absent or
// non-string values.
func (d Document) StringField(name string) string {
	value, ok := d.Fields[name].(string)
	if !ok {
		return ""
	}
	return value
}

// Client is the thin accessor over the partitioned document store. Query
// matches documents whose fields equal every filter value.
type Client interface {
	Insert(ctx context.Context, collection string, fields map[string]any) (Document, error)
	Update(ctx context.Context, collection, id string, fields map[string]any) error
	Delete(ctx context.Context, collection, id string) error
	Query(ctx context.Context, collection string, filter map[string]string) ([]Document, error)
}

type disabledClient struct{}

// Disabled returns a Client whose every operation reports ErrUnavailable.
// It keeps the wiring uniform when no remote store is configured.
func Disabled() Client {
	return disabledClient{}
}

func (disabledClient) Insert(context.Context, string, map[string]any) (Document, error) {
	return Document{}, ErrUnavailable
}

func (disabledClient) Update(context.Context, string, string, map[string]any) error {
	return ErrUnavailable
}

func (disabledClient) Delete(context.Context, string, string) error {
	return ErrUnavailable
}

func (disabledClient) Query(context.Context, string, map[string]string) ([]Document, error) {
	return nil, ErrUnavailable
}

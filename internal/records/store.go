// Package records persists whole collections as JSON arrays. Every
// mutation rewrites the entire collection under a per-collection lock.
package records

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

const (
	Users     = "users"
	Purchases = "purchases"
	Reviews   = "reviews"
	Courses   = "courses"
)

// All lists the collections the application owns, in snapshot order.
var All = []string{Users, Purchases, Reviews, Courses}

var ErrInvalidName = errors.New("invalid collection name")

var emptyArray = []byte("[]")

// Backend stores the serialized form of a collection. Update must hold an
// exclusive lock on the collection for the duration of fn and must not
// write anything when fn fails.
type Backend interface {
	Read(ctx context.Context, name string) ([]byte, error)
	Update(ctx context.Context, name string, fn func(current []byte) ([]byte, error)) error
	Ping(ctx context.Context) error
}

type Collection[T any] struct {
	backend Backend
	name    string
}

func NewCollection[T any](backend Backend, name string) *Collection[T] {
	return &Collection[T]{backend: backend, name: name}
}

func (c *Collection[T]) Name() string {
	return c.name
}

func (c *Collection[T]) All(ctx context.Context) ([]T, error) {
	data, err := c.backend.Read(ctx, c.name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", c.name, err)
	}
	items, err := decode[T](data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", c.name, err)
	}
	return items, nil
}

// Update loads the collection, hands it to fn and persists the returned
// slice. Errors from fn are returned unwrapped so callers can match their
// own sentinels.
func (c *Collection[T]) Update(ctx context.Context, fn func(items []T) ([]T, error)) error {
	var fnErr error
	err := c.backend.Update(ctx, c.name, func(current []byte) ([]byte, error) {
		items, err := decode[T](current)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", c.name, err)
		}
		next, err := fn(items)
		if err != nil {
			fnErr = err
			return nil, err
		}
		return Encode(next)
	})
	if fnErr != nil {
		return fnErr
	}
	if err != nil {
		return fmt.Errorf("update %s: %w", c.name, err)
	}
	return nil
}

// Encode produces the on-disk form: a two-space indented JSON array.
func Encode[T any](items []T) ([]byte, error) {
	if items == nil {
		items = []T{}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func decode[T any](data []byte) ([]T, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return []T{}, nil
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Identified is implemented by records with integer ids.
type Identified interface {
	RecordID() int
}

// NextID returns one past the highest id in items. Deleted ids are never
// handed out again.
func NextID[T Identified](items []T) int {
	highest := 0
	for _, item := range items {
		if id := item.RecordID(); id > highest {
			highest = id
		}
	}
	return highest + 1
}

func validName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '_' {
			return false
		}
	}
	return true
}

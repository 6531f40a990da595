package repository

import (
	"context"
	"slices"

	"coursemarket/internal/records"
)

func findByID[T records.Identified](items []T, id int) (int, bool) {
	idx := slices.IndexFunc(items, func(item T) bool { return item.RecordID() == id })
	return idx, idx >= 0
}

func getOne[T records.Identified](ctx context.Context, coll *records.Collection[T], id int, notFound error) (T, error) {
	var zero T
	items, err := coll.All(ctx)
	if err != nil {
		return zero, err
	}
	idx, ok := findByID(items, id)
	if !ok {
		return zero, notFound
	}
	return items[idx], nil
}

// mutateOne applies fn to the record with the given id and persists the
// collection. Nothing is written when fn fails.
func mutateOne[T records.Identified](ctx context.Context, coll *records.Collection[T], id int, notFound error, fn func(*T) error) (T, error) {
	var updated T
	err := coll.Update(ctx, func(items []T) ([]T, error) {
		idx, ok := findByID(items, id)
		if !ok {
			return nil, notFound
		}
		if err := fn(&items[idx]); err != nil {
			return nil, err
		}
		updated = items[idx]
		return items, nil
	})
	return updated, err
}

func deleteOne[T records.Identified](ctx context.Context, coll *records.Collection[T], id int, notFound error) error {
	return coll.Update(ctx, func(items []T) ([]T, error) {
		idx, ok := findByID(items, id)
		if !ok {
			return nil, notFound
		}
		return slices.Delete(items, idx, idx+1), nil
	})
}

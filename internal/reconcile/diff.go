// Package reconcile turns two snapshots of a day's records into insert, update and delete
// operations, keyed by record identity, and applies them through a storage capability.
package reconcile

import "github.com/google/uuid"

// Item is anything with a stable identity and structural equality.
type Item[T any] interface {
	Key() uuid.UUID
	Equal(other T) bool
}

// Changes partitions two snapshots by identity. Inserted, Updated and Unchanged follow the
// edited order; Deleted follows the original order.
type Changes[T any] struct {
	Inserted  []T
	Updated   []T
	Deleted   []T
	Unchanged []T
}

// Empty reports whether applying the changes would issue no operations.
func (c Changes[T]) Empty() bool {
	return len(c.Inserted) == 0 && len(c.Updated) == 0 && len(c.Deleted) == 0
}

func Diff[T Item[T]](original, edited []T) Changes[T] {
	prior := make(map[uuid.UUID]T, len(original))
	for _, item := range original {
		prior[item.Key()] = item
	}

	var changes Changes[T]
	seen := make(map[uuid.UUID]struct{}, len(edited))
	for _, item := range edited {
		seen[item.Key()] = struct{}{}
		before, ok := prior[item.Key()]
		switch {
		case !ok:
			changes.Inserted = append(changes.Inserted, item)
		case before.Equal(item):
			changes.Unchanged = append(changes.Unchanged, item)
		default:
			changes.Updated = append(changes.Updated, item)
		}
	}

	for _, item := range original {
		if _, ok := seen[item.Key()]; !ok {
			changes.Deleted = append(changes.Deleted, item)
		}
	}
	return changes
}

func index[T Item[T]](items []T) map[uuid.UUID]T {
	out := make(map[uuid.UUID]T, len(items))
	for _, item := range items {
		out[item.Key()] = item
	}
	return out
}

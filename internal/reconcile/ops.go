package reconcile

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"worklog/backend/internal/taskqueue"
)

const (
	OpInsert = "insert"
	OpUpdate = "update"
	OpDelete = "delete"
)

// Ops is the storage capability for one kind of record. Insert and Update return the stored
// form, which carries the identity the store assigned.
type Ops[T any] interface {
	Insert(ctx context.Context, item T) (T, error)
	Update(ctx context.Context, item T) (T, error)
	Delete(ctx context.Context, item T) error
}

// ChildOps is the storage capability for records nested under a parent.
type ChildOps[C any] interface {
	InsertChild(ctx context.Context, parentID uuid.UUID, child C) (C, error)
	UpdateChild(ctx context.Context, parentID uuid.UUID, child C) (C, error)
	DeleteChild(ctx context.Context, parentID uuid.UUID, child C) error
}

// OpError reports the operation that aborted a reconciliation pass.
type OpError struct {
	Op  string
	ID  uuid.UUID
	Err error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.ID, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// Applied holds the stored results of the operations that ran, keyed by the identity the
// item had before the store saw it.
type Applied[T any] struct {
	Inserted map[uuid.UUID]T
	Updated  map[uuid.UUID]T
	Deleted  int
}

// Apply issues inserts, then updates, then deletes, stopping at the first failure. Operations
// already applied are kept.
func Apply[T Item[T]](ctx context.Context, ops Ops[T], changes Changes[T]) (Applied[T], error) {
	applied := Applied[T]{
		Inserted: make(map[uuid.UUID]T, len(changes.Inserted)),
		Updated:  make(map[uuid.UUID]T, len(changes.Updated)),
	}

	for _, item := range changes.Inserted {
		stored, err := ops.Insert(ctx, item)
		if err != nil {
			return applied, &OpError{Op: OpInsert, ID: item.Key(), Err: err}
		}
		applied.Inserted[item.Key()] = stored
	}

	for _, item := range changes.Updated {
		stored, err := ops.Update(ctx, item)
		if err != nil {
			return applied, &OpError{Op: OpUpdate, ID: item.Key(), Err: err}
		}
		applied.Updated[item.Key()] = stored
	}

	for _, item := range changes.Deleted {
		if err := ops.Delete(ctx, item); err != nil {
			return applied, &OpError{Op: OpDelete, ID: item.Key(), Err: err}
		}
		applied.Deleted++
	}

	return applied, nil
}

type boundChildOps[C any] struct {
	ops      ChildOps[C]
	parentID uuid.UUID
}

// ForParent binds child operations to one parent.
func ForParent[C any](ops ChildOps[C], parentID uuid.UUID) Ops[C] {
	return boundChildOps[C]{ops: ops, parentID: parentID}
}

func (b boundChildOps[C]) Insert(ctx context.Context, child C) (C, error) {
	return b.ops.InsertChild(ctx, b.parentID, child)
}

func (b boundChildOps[C]) Update(ctx context.Context, child C) (C, error) {
	return b.ops.UpdateChild(ctx, b.parentID, child)
}

func (b boundChildOps[C]) Delete(ctx context.Context, child C) error {
	return b.ops.DeleteChild(ctx, b.parentID, child)
}

// Submitter runs a job on an ordered lane and waits for its result.
type Submitter interface {
	Submit(ctx context.Context, job taskqueue.Job) error
}

// submit runs fn on the queue and hands its value back over a channel owned by the job. When
// Submit gives up early the job may still be running, so the value is only read after the job
// has reported.
func submit[T any](ctx context.Context, queue Submitter, fn func(context.Context) (T, error)) (T, error) {
	done := make(chan T, 1)
	err := queue.Submit(ctx, func(ctx context.Context) error {
		v, err := fn(ctx)
		done <- v
		return err
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return <-done, nil
}

type queuedOps[T any] struct {
	ops   Ops[T]
	queue Submitter
}

// Queued routes every operation through the queue so that operations from independent
// reconciliation passes reach the store in submission order.
func Queued[T any](ops Ops[T], queue Submitter) Ops[T] {
	return queuedOps[T]{ops: ops, queue: queue}
}

func (q queuedOps[T]) Insert(ctx context.Context, item T) (T, error) {
	return submit(ctx, q.queue, func(ctx context.Context) (T, error) {
		return q.ops.Insert(ctx, item)
	})
}

func (q queuedOps[T]) Update(ctx context.Context, item T) (T, error) {
	return submit(ctx, q.queue, func(ctx context.Context) (T, error) {
		return q.ops.Update(ctx, item)
	})
}

func (q queuedOps[T]) Delete(ctx context.Context, item T) error {
	return q.queue.Submit(ctx, func(ctx context.Context) error {
		return q.ops.Delete(ctx, item)
	})
}

type queuedChildOps[C any] struct {
	ops   ChildOps[C]
	queue Submitter
}

func QueuedChildren[C any](ops ChildOps[C], queue Submitter) ChildOps[C] {
	return queuedChildOps[C]{ops: ops, queue: queue}
}

func (q queuedChildOps[C]) InsertChild(ctx context.Context, parentID uuid.UUID, child C) (C, error) {
	return submit(ctx, q.queue, func(ctx context.Context) (C, error) {
		return q.ops.InsertChild(ctx, parentID, child)
	})
}

func (q queuedChildOps[C]) UpdateChild(ctx context.Context, parentID uuid.UUID, child C) (C, error) {
	return submit(ctx, q.queue, func(ctx context.Context) (C, error) {
		return q.ops.UpdateChild(ctx, parentID, child)
	})
}

func (q queuedChildOps[C]) DeleteChild(ctx context.Context, parentID uuid.UUID, child C) error {
	return q.queue.Submit(ctx, func(ctx context.Context) error {
		return q.ops.DeleteChild(ctx, parentID, child)
	})
}

package reconcile

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"worklog/backend/internal/model"
)

// Counts tallies the operations issued for one level of a tree.
type Counts struct {
	Inserted  int
	Updated   int
	Deleted   int
	Unchanged int
}

func (c Counts) Total() int {
	return c.Inserted + c.Updated + c.Deleted
}

type Report struct {
	Parents  Counts
	Children Counts
}

// Operations is the number of store calls a pass issued.
func (r Report) Operations() int {
	return r.Parents.Total() + r.Children.Total()
}

// Result is the merged collection after a pass: unchanged parents as they were, plus the
// stored form of every inserted and updated parent.
type Result[P any] struct {
	Merged []P
	Report Report
}

// Tree describes a parent kind that owns a nested collection.
type Tree[P Item[P], C Item[C]] struct {
	Parents      Ops[P]
	Children     ChildOps[C]
	ChildrenOf   func(P) []C
	WithChildren func(P, []C) P
	Less         func(a, b P) bool
}

// Reconcile issues the operations that turn original into edited. For every updated parent
// the children are reconciled first and the parent update carries the reconciled children.
// The pass stops at the first failure and returns what was merged so far.
func (t Tree[P, C]) Reconcile(ctx context.Context, original, edited []P) (Result[P], error) {
	changes := Diff(original, edited)
	prior := index(original)

	var result Result[P]
	result.Report.Parents.Unchanged = len(changes.Unchanged)
	result.Merged = append(result.Merged, changes.Unchanged...)

	for _, parent := range changes.Inserted {
		stored, err := t.Parents.Insert(ctx, parent)
		if err != nil {
			t.sort(result.Merged)
			return result, &OpError{Op: OpInsert, ID: parent.Key(), Err: err}
		}
		result.Report.Parents.Inserted++
		result.Merged = append(result.Merged, stored)
	}

	for _, parent := range changes.Updated {
		before := prior[parent.Key()]
		children, counts, err := t.reconcileChildren(ctx, parent.Key(), t.ChildrenOf(before), t.ChildrenOf(parent))
		result.Report.Children = addCounts(result.Report.Children, counts)
		if err != nil {
			t.sort(result.Merged)
			return result, err
		}

		stored, err := t.Parents.Update(ctx, t.WithChildren(parent, children))
		if err != nil {
			t.sort(result.Merged)
			return result, &OpError{Op: OpUpdate, ID: parent.Key(), Err: err}
		}
		result.Report.Parents.Updated++
		result.Merged = append(result.Merged, stored)
	}

	for _, parent := range changes.Deleted {
		if err := t.Parents.Delete(ctx, parent); err != nil {
			t.sort(result.Merged)
			return result, &OpError{Op: OpDelete, ID: parent.Key(), Err: err}
		}
		result.Report.Parents.Deleted++
	}

	t.sort(result.Merged)
	return result, nil
}

// reconcileChildren returns the children in edited order, with stored forms substituted for
// the ones that were written.
func (t Tree[P, C]) reconcileChildren(ctx context.Context, parentID uuid.UUID, original, edited []C) ([]C, Counts, error) {
	changes := Diff(original, edited)
	applied, err := Apply(ctx, ForParent(t.Children, parentID), changes)

	counts := Counts{
		Inserted:  len(applied.Inserted),
		Updated:   len(applied.Updated),
		Deleted:   applied.Deleted,
		Unchanged: len(changes.Unchanged),
	}
	if err != nil {
		return nil, counts, err
	}

	merged := make([]C, 0, len(edited))
	for _, child := range edited {
		if stored, ok := applied.Inserted[child.Key()]; ok {
			merged = append(merged, stored)
			continue
		}
		if stored, ok := applied.Updated[child.Key()]; ok {
			merged = append(merged, stored)
			continue
		}
		merged = append(merged, child)
	}
	return merged, counts, nil
}

func (t Tree[P, C]) sort(items []P) {
	if t.Less == nil {
		return
	}
	sort.SliceStable(items, func(i, j int) bool {
		return t.Less(items[i], items[j])
	})
}

func addCounts(a, b Counts) Counts {
	return Counts{
		Inserted:  a.Inserted + b.Inserted,
		Updated:   a.Updated + b.Updated,
		Deleted:   a.Deleted + b.Deleted,
		Unchanged: a.Unchanged + b.Unchanged,
	}
}

func TimeRecordTree(records Ops[model.TimeRecord], breaks ChildOps[model.BreakTime]) Tree[model.TimeRecord, model.BreakTime] {
	return Tree[model.TimeRecord, model.BreakTime]{
		Parents:    records,
		Children:   breaks,
		ChildrenOf: func(r model.TimeRecord) []model.BreakTime { return r.BreakTimes },
		WithChildren: func(r model.TimeRecord, breaks []model.BreakTime) model.TimeRecord {
			out := r.Clone()
			out.BreakTimes = breaks
			return out
		},
		Less: func(a, b model.TimeRecord) bool {
			switch {
			case a.CheckIn == nil:
				return b.CheckIn != nil
			case b.CheckIn == nil:
				return false
			default:
				return a.CheckIn.Before(*b.CheckIn)
			}
		},
	}
}

func UptimeTree(uptimes Ops[model.SystemUptimeRecord], sleeps ChildOps[model.SleepRecord]) Tree[model.SystemUptimeRecord, model.SleepRecord] {
	return Tree[model.SystemUptimeRecord, model.SleepRecord]{
		Parents:    uptimes,
		Children:   sleeps,
		ChildrenOf: func(r model.SystemUptimeRecord) []model.SleepRecord { return r.SleepRecords },
		WithChildren: func(r model.SystemUptimeRecord, sleeps []model.SleepRecord) model.SystemUptimeRecord {
			out := r.Clone()
			out.SleepRecords = sleeps
			return out
		},
		Less: func(a, b model.SystemUptimeRecord) bool {
			return a.Launch.Before(b.Launch)
		},
	}
}

// Package revision models schema migrations as nodes in a revision graph.
// Every revision names zero or more parent revisions; a revision with more
// than one parent is a merge point that reconciles divergent branches.
package revision

import (
	"context"
	"database/sql"
)

// Func is an optional programmatic migration body. It runs inside the same
// transaction as the revision's SQL statements.
type Func func(ctx context.Context, tx *sql.Tx) error

// Revision is a single unit of schema change. Revisions are immutable once
// authored: history is append-only, and merge points are added rather than
// rewriting existing revisions.
type Revision struct {
	// ID uniquely identifies the revision across the whole graph.
	ID string

	// Parents lists the revisions this one directly follows, in declaration
	// order. Empty for the base revision; more than one for a merge.
	Parents []string

	// Branch is an optional label naming the feature branch this revision
	// starts or continues.
	Branch string

	// DependsOn lists revisions that must be applied first but are not
	// parents; they do not participate in head computation.
	DependsOn []string

	// UpSQL and DownSQL hold the statements executed on apply and rollback.
	UpSQL   []string
	DownSQL []string

	// UpFunc and DownFunc, when set, run after the corresponding statements.
	UpFunc   Func
	DownFunc Func

	// Source is the file the revision was loaded from, if any.
	Source string
}

// Merge builds a merge revision: multiple parents, explicitly empty up and
// down bodies. Applying or rolling back a merge touches nothing but the
// history table, so re-running it is always safe.
func Merge(id string, parents ...string) *Revision {
	return &Revision{
		ID:      id,
		Parents: parents,
	}
}

// IsMerge reports whether the revision joins more than one branch.
func (r *Revision) IsMerge() bool {
	return len(r.Parents) > 1
}

// IsNoop reports whether applying the revision executes no statements.
func (r *Revision) IsNoop() bool {
	return len(r.UpSQL) == 0 && r.UpFunc == nil
}

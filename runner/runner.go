package runner

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/complyops/revctl/internal/debug"
	"github.com/complyops/revctl/revision"
)

// Runner applies revisions from a graph in topological order. Every apply
// runs in its own transaction together with its history row, so a failed
// statement leaves neither schema change nor bookkeeping behind.
type Runner struct {
	db       *sql.DB
	provider string
	graph    *revision.Graph
	history  *History
}

// New creates a runner over the given graph.
func New(db *sql.DB, provider string, graph *revision.Graph) *Runner {
	return &Runner{
		db:       db,
		provider: provider,
		graph:    graph,
		history:  NewHistory(db, provider),
	}
}

// Status describes the applied/pending split of the graph.
type Status struct {
	Applied []Record
	// Pending holds unapplied revisions in the order Up would apply them.
	Pending []*revision.Revision
	// Unknown lists history rows whose revision is not in the graph, which
	// usually means a revision file was removed after being applied.
	Unknown []string
}

// Up applies every pending revision and returns the ids applied, in order.
// The graph is validated first; an incomplete or cyclic graph aborts the
// run before any statement executes.
func (r *Runner) Up(ctx context.Context) ([]string, error) {
	ordered, err := r.graph.Order()
	if err != nil {
		return nil, err
	}
	if err := r.history.InitTable(ctx); err != nil {
		return nil, err
	}
	applied, err := r.history.AppliedIDs(ctx)
	if err != nil {
		return nil, err
	}

	var done []string
	for _, rev := range ordered {
		if applied[rev.ID] {
			continue
		}
		if err := r.apply(ctx, rev); err != nil {
			return done, fmt.Errorf("applying %s: %w", rev.ID, err)
		}
		done = append(done, rev.ID)
	}
	return done, nil
}

// Down rolls back up to steps applied revisions, newest first, and returns
// the ids rolled back. Rolling back a merge or other no-op revision removes
// only its history row.
func (r *Runner) Down(ctx context.Context, steps int) ([]string, error) {
	ordered, err := r.graph.Order()
	if err != nil {
		return nil, err
	}
	if err := r.history.InitTable(ctx); err != nil {
		return nil, err
	}
	applied, err := r.history.AppliedIDs(ctx)
	if err != nil {
		return nil, err
	}

	var done []string
	for i := len(ordered) - 1; i >= 0 && len(done) < steps; i-- {
		rev := ordered[i]
		if !applied[rev.ID] {
			continue
		}
		if err := r.rollback(ctx, rev); err != nil {
			return done, fmt.Errorf("rolling back %s: %w", rev.ID, err)
		}
		done = append(done, rev.ID)
	}
	return done, nil
}

// Status returns the applied records and pending revisions.
func (r *Runner) Status(ctx context.Context) (*Status, error) {
	ordered, err := r.graph.Order()
	if err != nil {
		return nil, err
	}
	if err := r.history.InitTable(ctx); err != nil {
		return nil, err
	}
	records, err := r.history.Applied(ctx)
	if err != nil {
		return nil, err
	}

	appliedSet := make(map[string]bool, len(records))
	for _, rec := range records {
		appliedSet[rec.Revision] = true
	}

	st := &Status{Applied: records}
	known := make(map[string]bool, len(ordered))
	for _, rev := range ordered {
		known[rev.ID] = true
		if !appliedSet[rev.ID] {
			st.Pending = append(st.Pending, rev)
		}
	}
	for _, rec := range records {
		if !known[rec.Revision] {
			st.Unknown = append(st.Unknown, rec.Revision)
		}
	}
	return st, nil
}

func (r *Runner) apply(ctx context.Context, rev *revision.Revision) error {
	start := time.Now()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	for i, stmt := range rev.UpSQL {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("statement %d: %w", i+1, err)
		}
	}
	if rev.UpFunc != nil {
		if err := rev.UpFunc(ctx, tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("up func: %w", err)
		}
	}

	rec := &Record{
		Revision:      rev.ID,
		AppliedAt:     time.Now(),
		Checksum:      Checksum(rev.UpSQL),
		ExecutionTime: time.Since(start).Milliseconds(),
	}
	if err := r.history.Record(ctx, tx, rec); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("recording history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	debug.Debug("applied revision", "revision", rev.ID, "merge", rev.IsMerge(), "statements", len(rev.UpSQL))
	return nil
}

func (r *Runner) rollback(ctx context.Context, rev *revision.Revision) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	for i, stmt := range rev.DownSQL {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("statement %d: %w", i+1, err)
		}
	}
	if rev.DownFunc != nil {
		if err := rev.DownFunc(ctx, tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("down func: %w", err)
		}
	}
	if err := r.history.Delete(ctx, tx, rev.ID); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("deleting history row: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	debug.Debug("rolled back revision", "revision", rev.ID)
	return nil
}

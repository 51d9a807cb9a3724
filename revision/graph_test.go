package revision

import (
	"errors"
	"testing"
)

func mustAdd(t *testing.T, g *Graph, revs ...*Revision) {
	t.Helper()
	for _, r := range revs {
		if err := g.Add(r); err != nil {
			t.Fatalf("Add(%s): %v", r.ID, err)
		}
	}
}

func TestAddRejectsDuplicateID(t *testing.T) {
	g := NewGraph()
	mustAdd(t, g, &Revision{ID: "a"})

	err := g.Add(&Revision{ID: "a"})
	if !errors.Is(err, ErrDuplicateRevision) {
		t.Fatalf("expected ErrDuplicateRevision, got %v", err)
	}
}

func TestValidateRejectsUnknownParent(t *testing.T) {
	g := NewGraph()
	mustAdd(t, g,
		&Revision{ID: "a"},
		&Revision{ID: "merge", Parents: []string{"a", "ghost"}},
	)

	err := g.Validate()
	if !errors.Is(err, ErrUnknownParent) {
		t.Fatalf("expected ErrUnknownParent, got %v", err)
	}
}

func TestValidateRejectsUnknownDependency(t *testing.T) {
	g := NewGraph()
	mustAdd(t, g, &Revision{ID: "a", DependsOn: []string{"ghost"}})

	err := g.Validate()
	if !errors.Is(err, ErrUnknownParent) {
		t.Fatalf("expected ErrUnknownParent, got %v", err)
	}
}

func TestValidateRejectsCycle(t *testing.T) {
	g := NewGraph()
	mustAdd(t, g,
		&Revision{ID: "a", Parents: []string{"b"}},
		&Revision{ID: "b", Parents: []string{"a"}},
	)

	err := g.Validate()
	if !errors.Is(err, ErrCycle) {
		t.Fatalf("expected ErrCycle, got %v", err)
	}
}

func TestOrderParentsBeforeChildren(t *testing.T) {
	g := NewGraph()
	mustAdd(t, g,
		&Revision{ID: "0001"},
		&Revision{ID: "0002", Parents: []string{"0001"}},
		&Revision{ID: "0003", Parents: []string{"0001"}},
		Merge("0004", "0002", "0003"),
	)

	ordered, err := g.Order()
	if err != nil {
		t.Fatalf("Order: %v", err)
	}

	pos := make(map[string]int)
	for i, r := range ordered {
		pos[r.ID] = i
	}
	for _, r := range ordered {
		for _, p := range r.Parents {
			if pos[p] >= pos[r.ID] {
				t.Errorf("parent %s ordered after child %s", p, r.ID)
			}
		}
	}
}

func TestOrderIsDeterministic(t *testing.T) {
	build := func() *Graph {
		g := NewGraph()
		mustAdd(t, g,
			&Revision{ID: "base"},
			&Revision{ID: "left", Parents: []string{"base"}},
			&Revision{ID: "right", Parents: []string{"base"}},
			&Revision{ID: "zed", Parents: []string{"base"}},
		)
		return g
	}

	first, err := build().Order()
	if err != nil {
		t.Fatalf("Order: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := build().Order()
		if err != nil {
			t.Fatalf("Order: %v", err)
		}
		for n := range first {
			if first[n].ID != again[n].ID {
				t.Fatalf("order differs at %d: %s vs %s", n, first[n].ID, again[n].ID)
			}
		}
	}
}

func TestDependsOnOrdersBeforeDependent(t *testing.T) {
	g := NewGraph()
	mustAdd(t, g,
		&Revision{ID: "a"},
		// zz sorts after b, so only the dependency edge can place it first.
		&Revision{ID: "zz", Parents: []string{"a"}},
		&Revision{ID: "b", Parents: []string{"a"}, DependsOn: []string{"zz"}},
	)

	ordered, err := g.Order()
	if err != nil {
		t.Fatalf("Order: %v", err)
	}
	pos := make(map[string]int)
	for i, r := range ordered {
		pos[r.ID] = i
	}
	if pos["zz"] >= pos["b"] {
		t.Errorf("dependency zz ordered after dependent b")
	}
}

func TestHeadsIgnoresDependencies(t *testing.T) {
	g := NewGraph()
	mustAdd(t, g,
		&Revision{ID: "base"},
		&Revision{ID: "left", Parents: []string{"base"}},
		&Revision{ID: "right", Parents: []string{"base"}, DependsOn: []string{"left"}},
	)

	heads := g.Heads()
	if len(heads) != 2 || heads[0] != "left" || heads[1] != "right" {
		t.Fatalf("expected heads [left right], got %v", heads)
	}
}

func TestMergeCollapsesHeads(t *testing.T) {
	g := NewGraph()
	mustAdd(t, g,
		&Revision{ID: "base"},
		&Revision{ID: "left", Parents: []string{"base"}},
		&Revision{ID: "right", Parents: []string{"base"}},
	)
	if len(g.Heads()) != 2 {
		t.Fatalf("expected two heads before merge, got %v", g.Heads())
	}

	m := Merge("joined", "left", "right")
	if !m.IsMerge() || !m.IsNoop() {
		t.Fatal("merge revision must be a no-op with multiple parents")
	}
	mustAdd(t, g, m)

	heads := g.Heads()
	if len(heads) != 1 || heads[0] != "joined" {
		t.Fatalf("expected single head joined, got %v", heads)
	}
}

func TestBase(t *testing.T) {
	g := NewGraph()
	mustAdd(t, g,
		&Revision{ID: "root"},
		&Revision{ID: "child", Parents: []string{"root"}},
	)
	base := g.Base()
	if len(base) != 1 || base[0] != "root" {
		t.Fatalf("expected base [root], got %v", base)
	}
}

func TestGetUnknownRevision(t *testing.T) {
	g := NewGraph()
	if _, err := g.Get("nope"); !errors.Is(err, ErrUnknownRevision) {
		t.Fatalf("expected ErrUnknownRevision, got %v", err)
	}
}

package revision

import (
	"fmt"
	"sort"
)

// Graph is the full set of revisions known to the runner. It must form a
// DAG: ids are unique, every referenced parent exists, and no revision is
// its own ancestor. Validate reports the first violation; a runner rejects
// an inconsistent graph before applying anything.
type Graph struct {
	revisions map[string]*Revision
}

// NewGraph returns an empty revision graph.
func NewGraph() *Graph {
	return &Graph{revisions: make(map[string]*Revision)}
}

// Add registers a revision. It fails on a duplicate id; parent existence is
// checked by Validate, since files may register in any order.
func (g *Graph) Add(r *Revision) error {
	if r.ID == "" {
		return fmt.Errorf("revision with empty id (source %q)", r.Source)
	}
	if _, exists := g.revisions[r.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateRevision, r.ID)
	}
	g.revisions[r.ID] = r
	return nil
}

// Get returns the revision with the given id.
func (g *Graph) Get(id string) (*Revision, error) {
	r, ok := g.revisions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRevision, id)
	}
	return r, nil
}

// Len returns the number of registered revisions.
func (g *Graph) Len() int {
	return len(g.revisions)
}

// IDs returns all revision ids in lexicographic order.
func (g *Graph) IDs() []string {
	ids := make([]string, 0, len(g.revisions))
	for id := range g.revisions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Validate checks graph completeness: every parent and dependency must be a
// registered revision, and the edge set must be acyclic.
func (g *Graph) Validate() error {
	for _, id := range g.IDs() {
		r := g.revisions[id]
		for _, p := range r.Parents {
			if _, ok := g.revisions[p]; !ok {
				return fmt.Errorf("%w: %s -> %s", ErrUnknownParent, r.ID, p)
			}
		}
		for _, d := range r.DependsOn {
			if _, ok := g.revisions[d]; !ok {
				return fmt.Errorf("%w: %s depends on %s", ErrUnknownParent, r.ID, d)
			}
		}
	}
	if _, err := g.Order(); err != nil {
		return err
	}
	return nil
}

// Order returns every revision in topological order: parents and
// dependencies before children, ties broken lexicographically so repeated
// runs over the same graph apply in the same sequence.
func (g *Graph) Order() ([]*Revision, error) {
	indegree := make(map[string]int, len(g.revisions))
	children := make(map[string][]string, len(g.revisions))

	for id := range g.revisions {
		indegree[id] = 0
	}
	for _, id := range g.IDs() {
		r := g.revisions[id]
		for _, e := range append(append([]string{}, r.Parents...), r.DependsOn...) {
			if _, ok := g.revisions[e]; !ok {
				return nil, fmt.Errorf("%w: %s -> %s", ErrUnknownParent, id, e)
			}
			children[e] = append(children[e], id)
			indegree[id]++
		}
	}

	var ready []string
	for id, deg := range indegree {
		if deg == 0 {
			ready = append(ready, id)
		}
	}
	sort.Strings(ready)

	ordered := make([]*Revision, 0, len(g.revisions))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		ordered = append(ordered, g.revisions[id])

		var woken []string
		for _, c := range children[id] {
			indegree[c]--
			if indegree[c] == 0 {
				woken = append(woken, c)
			}
		}
		if len(woken) > 0 {
			ready = append(ready, woken...)
			sort.Strings(ready)
		}
	}

	if len(ordered) != len(g.revisions) {
		var stuck []string
		for id, deg := range indegree {
			if deg > 0 {
				stuck = append(stuck, id)
			}
		}
		sort.Strings(stuck)
		return nil, fmt.Errorf("%w: %v", ErrCycle, stuck)
	}
	return ordered, nil
}

// Heads returns the leaf revisions: those no other revision lists as a
// parent. More than one head means divergent branches that a merge revision
// can reconcile. Dependencies do not count; a revision that is only
// depended on is still a head of its own branch.
func (g *Graph) Heads() []string {
	hasChild := make(map[string]bool, len(g.revisions))
	for _, r := range g.revisions {
		for _, p := range r.Parents {
			hasChild[p] = true
		}
	}
	var heads []string
	for id := range g.revisions {
		if !hasChild[id] {
			heads = append(heads, id)
		}
	}
	sort.Strings(heads)
	return heads
}

// Base returns the root revisions, those with no parents.
func (g *Graph) Base() []string {
	var base []string
	for id, r := range g.revisions {
		if len(r.Parents) == 0 {
			base = append(base, id)
		}
	}
	sort.Strings(base)
	return base
}

package revision

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

// LoadDir reads every .sql file in dir, parses it into a revision, and
// returns the assembled graph. The graph is validated before it is
// returned: a file referencing a parent that no file defines fails the
// whole load, so nothing downstream ever sees an incomplete history.
func LoadDir(fs afero.Fs, dir string) (*Graph, error) {
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil, fmt.Errorf("reading migrations dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		files = append(files, e.Name())
	}
	sort.Strings(files)

	graph := NewGraph()
	for _, name := range files {
		path := filepath.Join(dir, name)
		data, err := afero.ReadFile(fs, path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		rev, err := Parse(name, data)
		if err != nil {
			return nil, err
		}
		if err := graph.Add(rev); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	}

	if err := graph.Validate(); err != nil {
		return nil, err
	}
	return graph, nil
}

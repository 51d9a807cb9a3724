package revision

import (
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

const sampleRevision = `-- revision: 0002_ccp_limits
-- parents: 0001_baseline
-- branch: ccp
-- depends: 0001_baseline

-- +up
ALTER TABLE ccp_definitions ADD COLUMN critical_limit_min NUMERIC;
ALTER TABLE ccp_definitions ADD COLUMN critical_limit_max NUMERIC;

-- +down
ALTER TABLE ccp_definitions DROP COLUMN critical_limit_max;
ALTER TABLE ccp_definitions DROP COLUMN critical_limit_min;
`

func TestParseFullHeader(t *testing.T) {
	rev, err := Parse("0002_ccp_limits.sql", []byte(sampleRevision))
	require.NoError(t, err)

	require.Equal(t, "0002_ccp_limits", rev.ID)
	require.Equal(t, []string{"0001_baseline"}, rev.Parents)
	require.Equal(t, "ccp", rev.Branch)
	require.Equal(t, []string{"0001_baseline"}, rev.DependsOn)
	require.Equal(t, "0002_ccp_limits.sql", rev.Source)
	require.Len(t, rev.UpSQL, 2)
	require.Len(t, rev.DownSQL, 2)
	require.Contains(t, rev.UpSQL[0], "critical_limit_min")
}

func TestParseMergeHeader(t *testing.T) {
	src := "-- revision: 0004_merge\n-- parents: 0002_left, 0003_right\n"
	rev, err := Parse("0004_merge.sql", []byte(src))
	require.NoError(t, err)

	require.Equal(t, []string{"0002_left", "0003_right"}, rev.Parents)
	require.True(t, rev.IsMerge())
	require.True(t, rev.IsNoop())
	require.Empty(t, rev.UpSQL)
	require.Empty(t, rev.DownSQL)
}

func TestParseBaseRevision(t *testing.T) {
	src := "-- revision: 0001_baseline\n-- +up\nCREATE TABLE t (id INTEGER);\n-- +down\nDROP TABLE t;\n"
	rev, err := Parse("0001_baseline.sql", []byte(src))
	require.NoError(t, err)
	require.Empty(t, rev.Parents)
	require.False(t, rev.IsMerge())
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want string
	}{
		{"missing revision", "-- parents: a\n-- +up\n", "missing revision directive"},
		{"no directives", "SELECT 1;\n", "no revision directives"},
		{"repeated directive", "-- revision: a\n-- revision: b\n", "repeated directive"},
		{"multi-value revision", "-- revision: a, b\n", "exactly one id"},
		{"multi-value branch", "-- revision: a\n-- branch: x, y\n", "exactly one label"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse("bad.sql", []byte(tc.src))
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestParseIgnoresPlainComments(t *testing.T) {
	src := "-- this file creates the audit table\n-- revision: 0001_audit\n-- +up\nCREATE TABLE audit (id INTEGER);\n"
	rev, err := Parse("0001_audit.sql", []byte(src))
	require.NoError(t, err)
	require.Equal(t, "0001_audit", rev.ID)
}

func TestSplitStatements(t *testing.T) {
	body := `
CREATE TABLE ccp_definitions (
    id INTEGER PRIMARY KEY,
    name TEXT NOT NULL
);
-- seed the default hazard; semicolons here don't count
INSERT INTO ccp_definitions (id, name) VALUES (1, 'cook step; it''s critical');
`
	stmts := SplitStatements(body)
	require.Len(t, stmts, 2)
	require.True(t, strings.HasPrefix(stmts[0], "CREATE TABLE"))
	require.Contains(t, stmts[1], "it''s critical")
}

func TestSplitStatementsEmptyBody(t *testing.T) {
	require.Empty(t, SplitStatements(""))
	require.Empty(t, SplitStatements("\n  \n-- just a comment\n"))
}

func TestLoadDir(t *testing.T) {
	graph, err := LoadDir(afero.NewOsFs(), "testdata/qms")
	require.NoError(t, err)
	require.Equal(t, 7, graph.Len())

	heads := graph.Heads()
	require.Equal(t, []string{"0007_merge_allergen_reviews"}, heads)

	merge, err := graph.Get("0004_merge_ccp_quality")
	require.NoError(t, err)
	require.True(t, merge.IsMerge())
	require.True(t, merge.IsNoop())

	ordered, err := graph.Order()
	require.NoError(t, err)
	require.Len(t, ordered, 7)
	require.Equal(t, "0001_baseline", ordered[0].ID)
	require.Equal(t, "0007_merge_allergen_reviews", ordered[6].ID)
}

func TestLoadDirRejectsUnknownParent(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "m/0001_first.sql",
		[]byte("-- revision: 0001_first\n-- parents: 0000_ghost\n"), 0o644))

	_, err := LoadDir(fs, "m")
	require.ErrorIs(t, err, ErrUnknownParent)
}

func TestLoadDirRejectsDuplicateID(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "m/a.sql", []byte("-- revision: same\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "m/b.sql", []byte("-- revision: same\n"), 0o644))

	_, err := LoadDir(fs, "m")
	require.ErrorIs(t, err, ErrDuplicateRevision)
}

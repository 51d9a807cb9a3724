package verify

import (
	"fmt"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Expectation manifests let operators keep the fields a table must carry
// under version control:
//
//	# post-merge checks
//	table ccp_monitoring_logs {
//	  column critical_limit_min
//	  column critical_limit_max
//	  column verified_by
//	}
//
//	table non_conformances {
//	  column severity
//	}

var manifestLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "LBrace", Pattern: `\{`},
	{Name: "RBrace", Pattern: `\}`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_.-]*`},
	{Name: "Comment", Pattern: `#[^\n]*`},
	{Name: "Newline", Pattern: `[\r\n]+`},
	{Name: "Whitespace", Pattern: `[ \t]+`},
})

// TableExpectation lists the fields one table must define.
type TableExpectation struct {
	Name    string   `parser:"\"table\" @Ident \"{\""`
	Columns []string `parser:"(\"column\" @Ident)* \"}\""`
}

// Manifest is a parsed expectation file.
type Manifest struct {
	Tables []*TableExpectation `parser:"@@*"`
}

var manifestParser = participle.MustBuild[Manifest](
	participle.Lexer(manifestLexer),
	participle.Elide("Whitespace", "Newline", "Comment"),
)

// ParseManifest parses an expectation manifest.
func ParseManifest(filename string, data []byte) (*Manifest, error) {
	manifest, err := manifestParser.ParseBytes(filename, data)
	if err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	return manifest, nil
}

// Expected returns the expected fields for a table, or nil if the manifest
// does not mention it.
func (m *Manifest) Expected(table string) []string {
	for _, t := range m.Tables {
		if t.Name == table {
			return t.Columns
		}
	}
	return nil
}

// TableNames returns every table the manifest covers, in file order.
func (m *Manifest) TableNames() []string {
	names := make([]string, 0, len(m.Tables))
	for _, t := range m.Tables {
		names = append(names, t.Name)
	}
	return names
}

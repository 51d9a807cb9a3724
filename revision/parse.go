package revision

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Revision files are SQL scripts with a directive header:
//
//	-- revision: 0007_merge_allergen_ccp
//	-- parents: 0005_allergen_controls, 0006_ccp_limits
//	-- branch: allergen
//	-- depends: 0001_baseline
//	-- +up
//	ALTER TABLE ...;
//	-- +down
//	ALTER TABLE ...;
//
// Only `revision` is mandatory. A merge file carries a multi-valued
// `parents` directive and usually no body at all.

const (
	upMarker   = "-- +up"
	downMarker = "-- +down"
)

// headerLexer tokenizes directive lines.
var headerLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Dash", Pattern: `--`},
	{Name: "Colon", Pattern: `:`},
	{Name: "Comma", Pattern: `,`},
	{Name: "Ident", Pattern: `[A-Za-z0-9_][A-Za-z0-9_.-]*`},
	{Name: "Newline", Pattern: `[\r\n]+`},
	{Name: "Whitespace", Pattern: `[ \t]+`},
})

// headerDirective is one `-- key: value[, value...]` line.
type headerDirective struct {
	Key    string   `parser:"\"--\" @(\"revision\" | \"parents\" | \"branch\" | \"depends\") \":\""`
	Values []string `parser:"@Ident (\",\" @Ident)*"`
}

// revisionHeader is the parsed directive block.
type revisionHeader struct {
	Directives []*headerDirective `parser:"@@*"`
}

var headerParser = participle.MustBuild[revisionHeader](
	participle.Lexer(headerLexer),
	participle.Elide("Whitespace", "Newline"),
)

// Parse builds a Revision from the contents of a revision file. source is
// used in error messages and recorded on the revision.
func Parse(source string, data []byte) (*Revision, error) {
	headerText, upBody, downBody := splitSections(string(data))
	if strings.TrimSpace(headerText) == "" {
		return nil, fmt.Errorf("%s: no revision directives found", source)
	}

	header, err := headerParser.ParseString(source, headerText)
	if err != nil {
		return nil, fmt.Errorf("%s: parsing directives: %w", source, err)
	}

	rev := &Revision{Source: source}
	seen := make(map[string]bool)
	for _, d := range header.Directives {
		if seen[d.Key] {
			return nil, fmt.Errorf("%s: repeated directive %q", source, d.Key)
		}
		seen[d.Key] = true

		switch d.Key {
		case "revision":
			if len(d.Values) != 1 {
				return nil, fmt.Errorf("%s: revision directive takes exactly one id", source)
			}
			rev.ID = d.Values[0]
		case "parents":
			rev.Parents = d.Values
		case "branch":
			if len(d.Values) != 1 {
				return nil, fmt.Errorf("%s: branch directive takes exactly one label", source)
			}
			rev.Branch = d.Values[0]
		case "depends":
			rev.DependsOn = d.Values
		}
	}
	if rev.ID == "" {
		return nil, fmt.Errorf("%s: missing revision directive", source)
	}

	rev.UpSQL = SplitStatements(upBody)
	rev.DownSQL = SplitStatements(downBody)
	return rev, nil
}

// splitSections separates the directive header from the up and down SQL
// bodies. Plain comments before the first marker are ignored.
func splitSections(content string) (header, up, down string) {
	section := "header"
	var headerLines, upLines, downLines []string

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, upMarker):
			section = "up"
			continue
		case strings.HasPrefix(trimmed, downMarker):
			section = "down"
			continue
		}

		switch section {
		case "header":
			if isDirectiveLine(trimmed) {
				headerLines = append(headerLines, trimmed)
			}
		case "up":
			upLines = append(upLines, line)
		case "down":
			downLines = append(downLines, line)
		}
	}
	return strings.Join(headerLines, "\n"),
		strings.Join(upLines, "\n"),
		strings.Join(downLines, "\n")
}

func isDirectiveLine(line string) bool {
	if !strings.HasPrefix(line, "--") {
		return false
	}
	rest := strings.TrimSpace(strings.TrimPrefix(line, "--"))
	for _, key := range []string{"revision", "parents", "branch", "depends"} {
		if strings.HasPrefix(rest, key) {
			tail := strings.TrimSpace(rest[len(key):])
			return strings.HasPrefix(tail, ":")
		}
	}
	return false
}

// SplitStatements splits a SQL body into individual statements on
// semicolons, respecting single-quoted strings and line comments. Empty
// statements are dropped.
func SplitStatements(body string) []string {
	var statements []string
	var buf strings.Builder
	inString := false
	inComment := false

	flush := func() {
		stmt := strings.TrimSpace(buf.String())
		buf.Reset()
		if stmt != "" {
			statements = append(statements, stmt)
		}
	}

	runes := []rune(body)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		switch {
		case inComment:
			if c == '\n' {
				inComment = false
				buf.WriteRune(c)
			}
		case inString:
			buf.WriteRune(c)
			if c == '\'' {
				// doubled quote is an escaped quote, stay in string
				if i+1 < len(runes) && runes[i+1] == '\'' {
					buf.WriteRune(runes[i+1])
					i++
				} else {
					inString = false
				}
			}
		case c == '\'':
			inString = true
			buf.WriteRune(c)
		case c == '-' && i+1 < len(runes) && runes[i+1] == '-':
			inComment = true
			i++
		case c == ';':
			flush()
		default:
			buf.WriteRune(c)
		}
	}
	flush()
	return statements
}

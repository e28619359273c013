package annotations

import (
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	fnerrors "github.com/toyz/fnbridge/internal/errors"
)

// grammar is the shape of one annotation:
//
//	//fn::Type [positional...] [-Key[=value]...]
type grammar struct {
	Type string `parser:"Prefix @Word"`
	Args []*arg `parser:"@@*"`
}

type arg struct {
	Named      *named `parser:"  @@"`
	Positional *value `parser:"| @@"`
}

type named struct {
	Key   string `parser:"@Flag"`
	Value *value `parser:"(Equals @@)?"`
}

type value struct {
	Text string `parser:"@(String | Word)"`
}

var annotationLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Prefix", Pattern: `//\s*fn::`},
	{Name: "String", Pattern: `"(\\"|[^"])*"`},
	{Name: "Flag", Pattern: `-[a-zA-Z_][a-zA-Z0-9_]*`},
	{Name: "Equals", Pattern: `=`},
	{Name: "Word", Pattern: `[^\s"]+`},
	{Name: "Whitespace", Pattern: `\s+`},
})

// Parser parses annotation comments and checks them against their schemas
type Parser struct {
	parser  *participle.Parser[grammar]
	schemas map[AnnotationType]Schema
}

// NewParser creates a parser for the built-in annotations
func NewParser() *Parser {
	return &Parser{
		parser: participle.MustBuild[grammar](
			participle.Lexer(annotationLexer),
			participle.Elide("Whitespace"),
			participle.UseLookahead(2),
		),
		schemas: BuiltinSchemas(),
	}
}

// IsAnnotation reports whether a comment line is an annotation
func IsAnnotation(comment string) bool {
	trimmed := strings.TrimSpace(comment)
	if !strings.HasPrefix(trimmed, "//") {
		return false
	}
	return strings.HasPrefix(strings.TrimSpace(strings.TrimPrefix(trimmed, "//")), "fn::")
}

// Parse parses one annotation comment
func (p *Parser) Parse(comment string, loc fnerrors.SourceLocation) (*ParsedAnnotation, error) {
	comment = strings.TrimSpace(comment)
	g, err := p.parser.ParseString(loc.File, comment)
	if err != nil {
		return nil, fnerrors.NewSyntaxError(err.Error(), loc)
	}

	kind, err := ParseAnnotationType(g.Type)
	if err != nil {
		return nil, fnerrors.NewSyntaxError(err.Error(), loc).
			WithSuggestion("known annotations: " + strings.Join(knownNames(), ", "))
	}

	parsed := &ParsedAnnotation{
		Type:       kind,
		Parameters: make(map[string]string),
		Location:   loc,
		Raw:        comment,
	}
	for _, a := range g.Args {
		switch {
		case a.Positional != nil:
			if parsed.Target != "" {
				return nil, fnerrors.NewSyntaxError("unexpected positional value "+a.Positional.Text, loc)
			}
			parsed.Target = unquote(a.Positional.Text)
		case a.Named != nil:
			key := strings.TrimPrefix(a.Named.Key, "-")
			if a.Named.Value == nil {
				parsed.Parameters[key] = "true"
			} else {
				parsed.Parameters[key] = a.Named.Value.Text
			}
		}
	}

	if err := p.schemas[kind].validate(parsed); err != nil {
		return nil, err
	}
	return parsed, nil
}

// ParseAll parses the annotation lines of a comment block, skipping other lines
func (p *Parser) ParseAll(lines []string, loc fnerrors.SourceLocation) ([]*ParsedAnnotation, error) {
	var (
		out  []*ParsedAnnotation
		errs fnerrors.MultipleErrors
	)
	base := loc.Line
	for i, line := range lines {
		if !IsAnnotation(line) {
			continue
		}
		lineLoc := loc
		if base > 0 {
			lineLoc.Line = base + i
		}
		a, err := p.Parse(line, lineLoc)
		if err != nil {
			errs.Add(err)
			continue
		}
		out = append(out, a)
	}
	return out, errs.ErrorOrNil()
}

func knownNames() []string {
	names := make([]string, 0, len(typeNames))
	for t := FunctionAnnotation; t <= DefaultAnnotation; t++ {
		names = append(names, t.String())
	}
	return names
}

package web

import (
	"strings"
)

// PathPartType represents the type of path part
type PathPartType int

const (
	StaticPart PathPartType = iota
	ParameterPart
	WildcardPart
)

// PathPart represents a single part of a route path
type PathPart struct {
	Type      PathPartType
	Value     string // literal text for static parts, parameter name otherwise
	ParamType string // e.g. "int" in {id:int}; empty for untyped parameters
}

// RoutePath is a route template such as /account/{id:int}/files/{*}
type RoutePath string

// Raw returns the template as written
func (p RoutePath) Raw() string {
	return string(p)
}

// Parts parses the template into static, parameter and wildcard parts
func (p RoutePath) Parts() []PathPart {
	path := string(p)
	var parts []PathPart

	i := 0
	for i < len(path) {
		if path[i] != '{' {
			start := i
			for i < len(path) && path[i] != '{' {
				i++
			}
			parts = append(parts, PathPart{Type: StaticPart, Value: path[start:i]})
			continue
		}

		j := strings.IndexByte(path[i:], '}')
		if j < 0 {
			// unterminated brace is kept literally
			parts = append(parts, PathPart{Type: StaticPart, Value: path[i:]})
			break
		}
		content := path[i+1 : i+j]
		i += j + 1

		if content == "*" {
			parts = append(parts, PathPart{Type: WildcardPart, Value: "*"})
			continue
		}
		name, typ, _ := strings.Cut(content, ":")
		parts = append(parts, PathPart{Type: ParameterPart, Value: name, ParamType: typ})
	}

	return parts
}

// Parameters returns the parameter parts keyed by name
func (p RoutePath) Parameters() map[string]PathPart {
	params := make(map[string]PathPart)
	for _, part := range p.Parts() {
		if part.Type == ParameterPart {
			params[part.Value] = part
		}
	}
	return params
}

// Format renders the template in a router's native syntax, e.g. prefix ":"
// and wildcard "*" for echo.
func (p RoutePath) Format(paramPrefix, wildcard string) string {
	var b strings.Builder
	for _, part := range p.Parts() {
		switch part.Type {
		case ParameterPart:
			b.WriteString(paramPrefix)
			b.WriteString(part.Value)
		case WildcardPart:
			b.WriteString(wildcard)
		default:
			b.WriteString(part.Value)
		}
	}
	return b.String()
}

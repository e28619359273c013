package web

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
)

// ParamParser converts a raw route value into a typed one
type ParamParser func(value string) (any, error)

// BuiltinParsers maps route parameter type names to their parsers
var BuiltinParsers = map[string]ParamParser{
	"int":       func(v string) (any, error) { return ParseInt(v) },
	"int64":     func(v string) (any, error) { return strconv.ParseInt(v, 10, 64) },
	"string":    func(v string) (any, error) { return ParseString(v) },
	"bool":      func(v string) (any, error) { return strconv.ParseBool(v) },
	"float64":   func(v string) (any, error) { return ParseFloat64(v) },
	"float32":   func(v string) (any, error) { return ParseFloat32(v) },
	"uuid.UUID": func(v string) (any, error) { return ParseUUID(v) },
}

// ParserAliases maps convenient aliases to their full type names
var ParserAliases = map[string]string{
	"UUID":   "uuid.UUID",
	"uuid":   "uuid.UUID",
	"float":  "float64",
	"double": "float64",
	"long":   "int64",
}

// ParseInt parses a string parameter to int
func ParseInt(paramValue string) (int, error) {
	return strconv.Atoi(paramValue)
}

// ParseString returns the string parameter as-is
func ParseString(paramValue string) (string, error) {
	return paramValue, nil
}

// ParseFloat64 parses a string parameter to float64
func ParseFloat64(paramValue string) (float64, error) {
	return strconv.ParseFloat(paramValue, 64)
}

// ParseFloat32 parses a string parameter to float32
func ParseFloat32(paramValue string) (float32, error) {
	val, err := strconv.ParseFloat(paramValue, 32)
	if err != nil {
		return 0, err
	}
	return float32(val), nil
}

// ParseUUID parses a string parameter to uuid.UUID
func ParseUUID(paramValue string) (uuid.UUID, error) {
	return uuid.Parse(paramValue)
}

// ResolveTypeAlias resolves a type alias to its actual type name
func ResolveTypeAlias(typeName string) string {
	if actualType, isAlias := ParserAliases[typeName]; isAlias {
		return actualType
	}
	return typeName
}

// ParseTyped parses value with the builtin parser for typeName. An empty
// type name leaves the value as a string.
func ParseTyped(typeName, value string) (any, error) {
	if typeName == "" {
		return value, nil
	}
	parser, ok := BuiltinParsers[ResolveTypeAlias(typeName)]
	if !ok {
		return nil, fmt.Errorf("no parser registered for route type %q", typeName)
	}
	return parser(value)
}

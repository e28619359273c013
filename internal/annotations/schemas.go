package annotations

import (
	"fmt"
	"strconv"
	"strings"

	fnerrors "github.com/toyz/fnbridge/internal/errors"
)

// ParameterType is the expected type of a named parameter
type ParameterType int

const (
	StringType ParameterType = iota
	StringSliceType
	IntType
	BoolType
	// RawType values are emitted into generated code as written
	RawType
)

// ParameterSpec describes one named parameter of an annotation
type ParameterSpec struct {
	Type        ParameterType
	Required    bool
	Description string
	Validator   func(string) error
}

// Schema describes an annotation: whether it takes a target and which
// named parameters it accepts
type Schema struct {
	Type           AnnotationType
	Description    string
	TargetRequired bool
	TargetAllowed  bool
	Parameters     map[string]ParameterSpec
	Examples       []string
}

var validMethods = []string{"GET", "POST", "PUT", "DELETE", "PATCH", "HEAD", "OPTIONS"}

func validateMethods(v string) error {
	for _, m := range strings.Split(unquote(v), ",") {
		m = strings.ToUpper(strings.TrimSpace(m))
		found := false
		for _, valid := range validMethods {
			if m == valid {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("must be one of: %s, got '%s'", strings.Join(validMethods, ", "), m)
		}
	}
	return nil
}

func validateRoute(v string) error {
	if !strings.HasPrefix(unquote(v), "/") {
		return fmt.Errorf("must start with '/', got '%s'", v)
	}
	return nil
}

var formLimitParameters = map[string]ParameterSpec{
	"ValueCountLimit":          {Type: IntType, Description: "Maximum number of form values"},
	"KeyLengthLimit":           {Type: IntType, Description: "Maximum length of a form key"},
	"ValueLengthLimit":         {Type: IntType, Description: "Maximum length of a form value"},
	"MultipartBodyLengthLimit": {Type: IntType, Description: "Maximum length of the form body"},
}

// BuiltinSchemas returns the schema of every annotation
func BuiltinSchemas() map[AnnotationType]Schema {
	form := map[string]ParameterSpec{
		"Name": {Type: StringType, Description: "Form field name, defaults to the parameter name"},
	}
	for k, v := range formLimitParameters {
		form[k] = v
	}

	return map[AnnotationType]Schema{
		FunctionAnnotation: {
			Type:          FunctionAnnotation,
			Description:   "Declares a method as an HTTP triggered function",
			TargetAllowed: true,
			Parameters: map[string]ParameterSpec{
				"Route":   {Type: StringType, Required: true, Validator: validateRoute, Description: "Route template, e.g. /accounts/{id:int}"},
				"Methods": {Type: StringSliceType, Validator: validateMethods, Description: "Comma separated HTTP methods, defaults to GET,POST"},
			},
			Examples: []string{
				"//fn::Function -Route=/ping",
				"//fn::Function GetAccount -Route=/accounts/{id:int} -Methods=GET",
			},
		},
		AuthorizeAnnotation: {
			Type:        AuthorizeAnnotation,
			Description: "Requires authorization on a function or every function of a type",
			Parameters: map[string]ParameterSpec{
				"Policy":  {Type: StringType, Description: "Named policy"},
				"Roles":   {Type: StringSliceType, Description: "Comma separated roles, any of which is accepted"},
				"Schemes": {Type: StringSliceType, Description: "Comma separated authentication schemes"},
			},
			Examples: []string{"//fn::Authorize", "//fn::Authorize -Policy=Email -Schemes=B2C"},
		},
		AllowAnonymousAnnotation: {
			Type:        AllowAnonymousAnnotation,
			Description: "Lets unauthenticated callers through",
			Parameters:  map[string]ParameterSpec{},
			Examples:    []string{"//fn::AllowAnonymous"},
		},
		FromBodyAnnotation: {
			Type:           FromBodyAnnotation,
			Description:    "Binds a parameter from the JSON request body",
			TargetRequired: true,
			TargetAllowed:  true,
			Parameters:     map[string]ParameterSpec{},
			Examples:       []string{"//fn::FromBody req"},
		},
		FromQueryAnnotation: {
			Type:           FromQueryAnnotation,
			Description:    "Binds a parameter from the query string",
			TargetRequired: true,
			TargetAllowed:  true,
			Parameters: map[string]ParameterSpec{
				"Name": {Type: StringType, Description: "Query key, defaults to the parameter name"},
			},
			Examples: []string{"//fn::FromQuery id", "//fn::FromQuery term -Name=q"},
		},
		FromRouteAnnotation: {
			Type:           FromRouteAnnotation,
			Description:    "Binds a parameter from a route value",
			TargetRequired: true,
			TargetAllowed:  true,
			Parameters: map[string]ParameterSpec{
				"Name": {Type: StringType, Description: "Route value name, defaults to the parameter name"},
			},
			Examples: []string{"//fn::FromRoute id"},
		},
		FromFormAnnotation: {
			Type:           FromFormAnnotation,
			Description:    "Binds a parameter from a form field",
			TargetRequired: true,
			TargetAllowed:  true,
			Parameters:     form,
			Examples:       []string{"//fn::FromForm meta -ValueLengthLimit=1024"},
		},
		ValidateAnnotation: {
			Type:           ValidateAnnotation,
			Description:    "Applies validation rules to a bound parameter",
			TargetRequired: true,
			TargetAllowed:  true,
			Parameters: map[string]ParameterSpec{
				"Rules": {Type: StringType, Required: true, Description: "Validator rules, e.g. required,min=1"},
			},
			Examples: []string{"//fn::Validate count -Rules=min=1,max=100"},
		},
		DefaultAnnotation: {
			Type:           DefaultAnnotation,
			Description:    "Declares the value used when a parameter is absent",
			TargetRequired: true,
			TargetAllowed:  true,
			Parameters: map[string]ParameterSpec{
				"Value": {Type: RawType, Required: true, Description: "Go constant expression"},
			},
			Examples: []string{"//fn::Default page -Value=1", `//fn::Default sort -Value="name"`},
		},
	}
}

func (s Schema) validate(a *ParsedAnnotation) error {
	if a.Target != "" && !s.TargetAllowed {
		return fnerrors.NewValidationError(a.Type.String(), "no positional value", a.Target, a.Location)
	}
	if a.Target == "" && s.TargetRequired {
		return fnerrors.NewValidationError(a.Type.String()+" target", "a parameter name", "nothing", a.Location).
			WithSuggestion(s.example())
	}

	for key, raw := range a.Parameters {
		spec, ok := s.Parameters[key]
		if !ok {
			return fnerrors.NewValidationError("parameter", "one of "+s.parameterNames(), key, a.Location)
		}
		switch spec.Type {
		case IntType:
			if _, err := strconv.ParseInt(unquote(raw), 10, 64); err != nil {
				return fnerrors.NewValidationError(key, "an integer", raw, a.Location)
			}
		case BoolType:
			if _, err := strconv.ParseBool(unquote(raw)); err != nil {
				return fnerrors.NewValidationError(key, "a boolean", raw, a.Location)
			}
		}
		if spec.Validator != nil {
			if err := spec.Validator(raw); err != nil {
				return fnerrors.Wrap(fnerrors.ValidationErrorCode, fmt.Sprintf("parameter %s", key), err).WithLocation(a.Location)
			}
		}
	}

	for key, spec := range s.Parameters {
		if spec.Required && !a.Has(key) {
			return fnerrors.NewValidationError(a.Type.String(), "parameter -"+key, "nothing", a.Location).
				WithSuggestion(s.example())
		}
	}
	return nil
}

func (s Schema) parameterNames() string {
	names := make([]string, 0, len(s.Parameters))
	for k := range s.Parameters {
		names = append(names, k)
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ", ")
}

func (s Schema) example() string {
	if len(s.Examples) == 0 {
		return ""
	}
	return "e.g. " + s.Examples[len(s.Examples)-1]
}

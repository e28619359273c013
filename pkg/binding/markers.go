// Package binding binds function parameters from the body, query string,
// route or form of a request, validates them, and answers invalid input with
// a uniform 400 response before the function runs.
package binding

// Source is where a parameter's value comes from
type Source int

const (
	SourceBody Source = iota
	SourceQuery
	SourcePath
	SourceForm
)

func (s Source) String() string {
	switch s {
	case SourceBody:
		return "Body"
	case SourceQuery:
		return "Query"
	case SourcePath:
		return "Path"
	case SourceForm:
		return "Form"
	}
	return "Unknown"
}

// FromBody binds the whole request body
type FromBody struct{}

// FromQuery binds a query string value. Name defaults to the parameter name.
type FromQuery struct{ Name string }

// FromRoute binds a route value. Name defaults to the parameter name.
type FromRoute struct{ Name string }

// FromForm binds a form field. Name defaults to the parameter name.
type FromForm struct{ Name string }

// FormLimits overrides form limits for one parameter; nil fields use the
// process-wide FormOptions
type FormLimits struct {
	ValueCountLimit          *int
	KeyLengthLimit           *int
	ValueLengthLimit         *int
	MultipartBodyLengthLimit *int64
}

// Limit returns a pointer to v, for FormLimits literals
func Limit[T int | int64](v T) *T {
	return &v
}

// FormOptions are the form reading limits
type FormOptions struct {
	ValueCountLimit          int
	KeyLengthLimit           int
	ValueLengthLimit         int
	MultipartBodyLengthLimit int64
}

// DefaultFormOptions returns the process-wide defaults
func DefaultFormOptions() FormOptions {
	return FormOptions{
		ValueCountLimit:          1024,
		KeyLengthLimit:           2048,
		ValueLengthLimit:         4 * 1024 * 1024,
		MultipartBodyLengthLimit: 128 * 1024 * 1024,
	}
}

// apply returns o with the set fields of l
func (o FormOptions) apply(l *FormLimits) FormOptions {
	if l == nil {
		return o
	}
	if l.ValueCountLimit != nil {
		o.ValueCountLimit = *l.ValueCountLimit
	}
	if l.KeyLengthLimit != nil {
		o.KeyLengthLimit = *l.KeyLengthLimit
	}
	if l.ValueLengthLimit != nil {
		o.ValueLengthLimit = *l.ValueLengthLimit
	}
	if l.MultipartBodyLengthLimit != nil {
		o.MultipartBodyLengthLimit = *l.MultipartBodyLengthLimit
	}
	return o
}

// sourceOf returns the first source marker among attrs
func sourceOf(attrs []any, paramName string) (Source, string, bool) {
	pick := func(name string) string {
		if name != "" {
			return name
		}
		return paramName
	}
	for _, attr := range attrs {
		switch a := attr.(type) {
		case FromBody, *FromBody:
			return SourceBody, "", true
		case FromQuery:
			return SourceQuery, pick(a.Name), true
		case *FromQuery:
			return SourceQuery, pick(a.Name), true
		case FromRoute:
			return SourcePath, pick(a.Name), true
		case *FromRoute:
			return SourcePath, pick(a.Name), true
		case FromForm:
			return SourceForm, pick(a.Name), true
		case *FromForm:
			return SourceForm, pick(a.Name), true
		}
	}
	return 0, "", false
}

func limitsOf(attrs []any) *FormLimits {
	for _, attr := range attrs {
		switch l := attr.(type) {
		case FormLimits:
			return &l
		case *FormLimits:
			return l
		}
	}
	return nil
}

package binding

import (
	"net/http"
	"sort"

	"github.com/toyz/fnbridge/pkg/web"
)

// ProblemType identifies validation problems
const ProblemType = "https://tools.ietf.org/html/rfc9110#section-15.5.1"

// ValidationProblem is the 400 body written when bound input is invalid
type ValidationProblem struct {
	Type    string              `json:"type"`
	Title   string              `json:"title"`
	Status  int                 `json:"status"`
	Errors  map[string][]string `json:"errors"`
	TraceID string              `json:"traceId,omitempty"`
}

// Fields returns the failing field names in order
func (p *ValidationProblem) Fields() []string {
	fields := make([]string, 0, len(p.Errors))
	for f := range p.Errors {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// Error lets a problem travel as an error
func (p *ValidationProblem) Error() string {
	return p.Title
}

// Write sends the problem unless a response was already written
func (p *ValidationProblem) Write(ctx web.RequestContext) error {
	if ctx.Response().Written() {
		return nil
	}
	return ctx.Response().JSON(http.StatusBadRequest, p)
}

// modelState accumulates field errors for one binding
type modelState struct {
	errors map[string][]string
}

func newModelState() *modelState {
	return &modelState{errors: make(map[string][]string)}
}

func (m *modelState) add(key string, msgs ...string) {
	if len(msgs) == 0 {
		return
	}
	m.errors[key] = append(m.errors[key], msgs...)
}

func (m *modelState) merge(prefix string, errs map[string][]string) {
	for key, msgs := range errs {
		m.add(joinKey(prefix, key), msgs...)
	}
}

func (m *modelState) valid() bool {
	return len(m.errors) == 0
}

func joinKey(prefix, key string) string {
	switch {
	case prefix == "":
		return key
	case key == "":
		return prefix
	}
	return prefix + "." + key
}

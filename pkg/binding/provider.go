package binding

import (
	"log/slog"

	"golang.org/x/text/language"

	fnerrors "github.com/toyz/fnbridge/internal/errors"
	"github.com/toyz/fnbridge/pkg/host"
	"github.com/toyz/fnbridge/pkg/web"
)

// FailurePolicy decides what happens when bound input is invalid
type FailurePolicy int

const (
	// HaltOnFailure writes the 400 problem and stops the invocation
	HaltOnFailure FailurePolicy = iota
	// ContinueWithDefault reports the problem to OnBindingFailed and binds the
	// parameter's default value instead
	ContinueWithDefault
)

// Options configure the binder
type Options struct {
	// Validator is required and must not be a NopValidator
	Validator Validator

	// Localizer formats binder messages; defaults to Validator when it implements Localizer
	Localizer Localizer

	// Form holds the process-wide form limits
	Form FormOptions

	// Cultures are the supported message cultures, first is the default
	Cultures []language.Tag

	FailurePolicy FailurePolicy

	// OnBinding runs before each parameter is bound
	OnBinding func(ctx web.RequestContext, inv *host.Invocation, d *Descriptor) error

	// OnBindingFailed runs with the problem before the failure policy applies
	OnBindingFailed func(ctx web.RequestContext, inv *host.Invocation, problem *ValidationProblem) error

	Logger *slog.Logger
}

// Descriptor is the binding plan of one parameter, built once at registration
type Descriptor struct {
	Source Source
	// Name is the logical name read from the source; empty for Body
	Name string
	// Prefix is prepended to validation keys; empty for Body and complex Query types
	Prefix    string
	Parameter host.ParameterDescriptor
	Function  string
	Limits    FormOptions
}

// Provider creates bindings for parameters carrying a source marker
type Provider struct {
	opts    Options
	culture *cultureResolver
	logger  *slog.Logger
}

// NewProvider creates the binding provider. A missing or no-op validator is
// a configuration error.
func NewProvider(opts Options) (*Provider, error) {
	switch opts.Validator.(type) {
	case nil:
		return nil, fnerrors.NewConfigurationError("binding", "a validator is required").
			WithSuggestion("pass binding.NewValidator() in Options.Validator")
	case NopValidator, *NopValidator:
		return nil, fnerrors.NewConfigurationError("binding", "the no-op validator cannot validate bound input").
			WithSuggestion("register a validation-capable validator such as binding.NewValidator()")
	}
	if opts.Localizer == nil {
		if l, ok := opts.Validator.(Localizer); ok {
			opts.Localizer = l
		} else {
			opts.Localizer = fallbackLocalizer{}
		}
	}
	if opts.Form == (FormOptions{}) {
		opts.Form = DefaultFormOptions()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Provider{opts: opts, culture: newCultureResolver(opts.Cultures), logger: opts.Logger}, nil
}

// TryCreate implements host.BindingProvider. Parameters without a source
// marker are left to other providers.
func (p *Provider) TryCreate(fn *host.FunctionDescriptor, param host.ParameterDescriptor) (host.Binding, bool, error) {
	source, name, ok := sourceOf(param.Attributes, param.Name)
	if !ok {
		return nil, false, nil
	}

	d := &Descriptor{
		Source:    source,
		Name:      name,
		Prefix:    name,
		Parameter: param,
		Function:  fn.Name,
	}
	if source == SourceBody || (source == SourceQuery && isComplex(param.Type)) {
		d.Prefix = ""
	}
	if source == SourceForm {
		d.Limits = p.opts.Form.apply(limitsOf(param.Attributes))
	}
	return &sourceBinding{provider: p, d: d}, true, nil
}

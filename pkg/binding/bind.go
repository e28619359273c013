package binding

import (
	"errors"
	"net/url"
	"reflect"
	"strings"

	"github.com/goccy/go-json"

	"github.com/toyz/fnbridge/internal/reflectx"
	"github.com/toyz/fnbridge/pkg/host"
	"github.com/toyz/fnbridge/pkg/web"
)

type sourceBinding struct {
	provider *Provider
	d        *Descriptor
}

// Bind implements host.Binding
func (b *sourceBinding) Bind(ctx web.RequestContext, inv *host.Invocation) (any, error) {
	p, d := b.provider, b.d
	if inv.Culture == "" {
		inv.Culture = p.culture.resolve(ctx)
	}
	if p.opts.OnBinding != nil {
		if err := p.opts.OnBinding(ctx, inv, d); err != nil {
			return nil, err
		}
	}

	// the declared binding wins over the host's implicit route value
	if d.Source == SourcePath {
		for key := range inv.RouteData {
			if strings.EqualFold(key, d.Name) {
				delete(inv.RouteData, key)
			}
		}
	}

	state := newModelState()
	value, set, err := b.read(ctx, inv, state)
	if err != nil {
		return nil, err
	}

	// a missing value is validated as its default, like any bound one
	if !set && state.valid() {
		value = b.unsetValue()
	}
	if state.valid() {
		b.validate(value, inv.Culture, state)
	}

	if !state.valid() {
		return b.fail(ctx, inv, state)
	}

	result := b.defaultValue()
	if set {
		result = value.Interface()
	}
	if d.Source == SourcePath {
		inv.RouteData[d.Name] = result
	}
	if d.Source == SourceBody {
		inv.SetBoundBody(result)
	}
	return result, nil
}

func (b *sourceBinding) defaultValue() any {
	param := b.d.Parameter
	if param.HasDefault {
		return param.Default
	}
	return reflect.Zero(param.Type).Interface()
}

// unsetValue is the value validated when the request carries nothing for
// the parameter. A nil struct pointer is validated as an empty struct.
func (b *sourceBinding) unsetValue() reflect.Value {
	t := b.d.Parameter.Type
	v := reflect.New(t).Elem()
	if def := b.defaultValue(); def != nil {
		dv := reflect.ValueOf(def)
		switch {
		case dv.Type().AssignableTo(t):
			v.Set(dv)
		case dv.Type().ConvertibleTo(t):
			v.Set(dv.Convert(t))
		}
	}
	if v.Kind() == reflect.Ptr && v.IsNil() && isComplex(t) {
		elem := t
		for elem.Kind() == reflect.Ptr {
			elem = elem.Elem()
		}
		return reflect.New(elem).Elem()
	}
	return v
}

func (b *sourceBinding) read(ctx web.RequestContext, inv *host.Invocation, state *modelState) (reflect.Value, bool, error) {
	d, t := b.d, b.d.Parameter.Type
	switch d.Source {
	case SourceBody:
		// form content is left to form bindings
		if hasFormContentType(ctx) {
			return reflect.Value{}, false, nil
		}
		body, err := inv.RequestBody(ctx)
		if err != nil {
			return reflect.Value{}, false, err
		}
		if len(strings.TrimSpace(string(body))) == 0 {
			return reflect.Value{}, false, nil
		}
		v, ok := b.decodeJSON(body, t, "", inv.Culture, state)
		return v, ok, nil

	case SourceQuery:
		return b.fromValues(ctx.QueryParams(), inv.Culture, state), b.hasValues(ctx.QueryParams()), nil

	case SourcePath:
		raw := ctx.Param(d.Name)
		if raw == "" {
			return reflect.Value{}, false, nil
		}
		return b.coerceInto([]string{raw}, d.Name, inv.Culture, state), true, nil

	case SourceForm:
		if !hasFormContentType(ctx) {
			return reflect.Value{}, false, nil
		}
		body, err := inv.RequestBody(ctx)
		if err != nil {
			return reflect.Value{}, false, err
		}
		form, err := readForm(body, ctx.Request().ContentType(), d.Limits)
		if err != nil {
			problem := b.problem(inv, map[string][]string{d.Name: {err.Error()}})
			if werr := problem.Write(ctx); werr != nil {
				return reflect.Value{}, false, errors.Join(err, werr)
			}
			b.provider.logger.Warn("malformed form", "function", d.Function, "parameter", d.Name, "error", err)
			return reflect.Value{}, false, errors.Join(host.ErrInvocationHalted, err)
		}
		if raw, ok := form[d.Name]; ok && len(raw) > 0 {
			if isComplex(t) || looksLikeJSON(raw[0]) && t.Kind() != reflect.String {
				v, ok := b.decodeJSON([]byte(raw[0]), t, d.Name, inv.Culture, state)
				return v, ok, nil
			}
			return b.coerceInto(raw, d.Name, inv.Culture, state), true, nil
		}
		if isComplex(t) {
			return b.fromValues(form, inv.Culture, state), b.hasValues(form), nil
		}
		return reflect.Value{}, false, nil
	}
	return reflect.Value{}, false, nil
}

// hasValues reports whether values carry anything for the parameter
func (b *sourceBinding) hasValues(values url.Values) bool {
	t := b.d.Parameter.Type
	if !isComplex(t) {
		_, ok := values[b.d.Name]
		return ok
	}
	for _, m := range reflectx.Members(t) {
		if _, ok := values[m.Name]; ok {
			return true
		}
	}
	return false
}

// fromValues binds a scalar by name, or a struct field by field without prefix
func (b *sourceBinding) fromValues(values url.Values, locale string, state *modelState) reflect.Value {
	t := b.d.Parameter.Type
	if !isComplex(t) {
		raw, ok := values[b.d.Name]
		if !ok {
			return reflect.Value{}
		}
		return b.coerceInto(raw, b.d.Name, locale, state)
	}

	structType := t
	for structType.Kind() == reflect.Ptr {
		structType = structType.Elem()
	}
	out := reflect.New(structType).Elem()
	for _, m := range reflectx.Members(structType) {
		raw, ok := values[m.Name]
		if !ok {
			continue
		}
		v, err := coerce(raw, m.Type, locale)
		if err != nil {
			state.add(joinKey(b.d.Prefix, m.Name), b.invalidValue(locale, raw[0], m.Name))
			continue
		}
		out.FieldByIndex(m.Index).Set(v)
	}
	return pointerTo(out, t)
}

func (b *sourceBinding) coerceInto(raw []string, key, locale string, state *modelState) reflect.Value {
	v, err := coerce(raw, b.d.Parameter.Type, locale)
	if err != nil {
		first := ""
		if len(raw) > 0 {
			first = raw[0]
		}
		state.add(key, b.invalidValue(locale, first, key))
		return reflect.Value{}
	}
	return v
}

func (b *sourceBinding) decodeJSON(data []byte, t reflect.Type, key, locale string, state *modelState) (reflect.Value, bool) {
	ptr := reflect.New(t)
	if err := json.Unmarshal(data, ptr.Interface()); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			field := joinKey(key, typeErr.Field)
			state.add(field, b.invalidValue(locale, typeErr.Value, typeErr.Field))
		} else {
			if key == "" {
				key = "$"
			}
			state.add(key, b.provider.opts.Localizer.Message(locale, MsgInvalidBody))
		}
		return reflect.Value{}, false
	}
	return ptr.Elem(), true
}

func (b *sourceBinding) validate(value reflect.Value, locale string, state *modelState) {
	d, validator := b.d, b.provider.opts.Validator
	key := d.Name
	if key == "" {
		key = d.Parameter.Name
	}
	if d.Parameter.Rules != "" {
		state.add(key, validator.ValidateVar(key, value.Interface(), d.Parameter.Rules, locale)...)
	}

	target := value
	for target.Kind() == reflect.Ptr {
		if target.IsNil() {
			return
		}
		target = target.Elem()
	}
	if target.Kind() == reflect.Struct && isComplex(target.Type()) {
		state.merge(d.Prefix, validator.ValidateStruct(target.Interface(), locale))
	}
}

func (b *sourceBinding) fail(ctx web.RequestContext, inv *host.Invocation, state *modelState) (any, error) {
	p, d := b.provider, b.d
	problem := b.problem(inv, state.errors)
	p.logger.Debug("parameter binding failed", "function", d.Function, "parameter", d.Parameter.Name,
		"source", d.Source.String(), "fields", problem.Fields(), "invocation_id", inv.ID.String())

	if p.opts.OnBindingFailed != nil {
		if err := p.opts.OnBindingFailed(ctx, inv, problem); err != nil {
			return nil, err
		}
	}
	if p.opts.FailurePolicy == ContinueWithDefault {
		return b.defaultValue(), nil
	}
	if err := problem.Write(ctx); err != nil {
		return nil, err
	}
	return nil, host.ErrInvocationHalted
}

func (b *sourceBinding) problem(inv *host.Invocation, errs map[string][]string) *ValidationProblem {
	return &ValidationProblem{
		Type:    ProblemType,
		Title:   b.provider.opts.Localizer.Message(inv.Culture, MsgTitle),
		Status:  400,
		Errors:  errs,
		TraceID: inv.ID.String(),
	}
}

func (b *sourceBinding) invalidValue(locale, value, field string) string {
	return b.provider.opts.Localizer.Message(locale, MsgInvalidValue, value, field)
}

func looksLikeJSON(raw string) bool {
	raw = strings.TrimSpace(raw)
	return strings.HasPrefix(raw, "{") || strings.HasPrefix(raw, "[")
}

// pointerTo adapts a struct value to t, which may be a pointer to it
func pointerTo(v reflect.Value, t reflect.Type) reflect.Value {
	if t.Kind() != reflect.Ptr {
		return v
	}
	p := reflect.New(v.Type())
	p.Elem().Set(v)
	return p
}

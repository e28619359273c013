package host

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/toyz/fnbridge/pkg/claims"
	"github.com/toyz/fnbridge/pkg/web"
)

var (
	requestContextType = TypeOf[web.RequestContext]()
	contextType        = TypeOf[context.Context]()
	principalType      = reflect.TypeOf((*claims.Principal)(nil))
	invocationType     = reflect.TypeOf((*Invocation)(nil))
)

type argSource func(ctx web.RequestContext, inv *Invocation) (any, error)

type invocationPlan struct {
	fn         *FunctionDescriptor
	args       []argSource
	routeParts []web.PathPart
}

func (h *Host) newPlan(fn *FunctionDescriptor) (*invocationPlan, error) {
	plan := &invocationPlan{fn: fn}
	for _, part := range fn.Route.Parts() {
		if part.Type == web.ParameterPart {
			plan.routeParts = append(plan.routeParts, part)
		}
	}

	providers := h.services.BindingProviders()
	for _, param := range fn.Parameters {
		src, err := h.argSourceFor(fn, param, providers)
		if err != nil {
			return nil, fmt.Errorf("function %s, parameter %s: %w", fn.Name, param.Name, err)
		}
		plan.args = append(plan.args, src)
	}
	return plan, nil
}

func (h *Host) argSourceFor(fn *FunctionDescriptor, param ParameterDescriptor, providers []BindingProvider) (argSource, error) {
	switch param.Type {
	case requestContextType:
		return func(ctx web.RequestContext, _ *Invocation) (any, error) { return ctx, nil }, nil
	case contextType:
		return func(ctx web.RequestContext, _ *Invocation) (any, error) { return ctx.Context(), nil }, nil
	case principalType:
		return func(ctx web.RequestContext, _ *Invocation) (any, error) { return claims.PrincipalFrom(ctx), nil }, nil
	case invocationType:
		return func(_ web.RequestContext, inv *Invocation) (any, error) { return inv, nil }, nil
	}

	for _, provider := range providers {
		binding, ok, err := provider.TryCreate(fn, param)
		if err != nil {
			return nil, err
		}
		if ok {
			return binding.Bind, nil
		}
	}
	return implicitRouteBinding(param), nil
}

// implicitRouteBinding binds an undecorated parameter from route data by
// name, falling back to its default.
func implicitRouteBinding(param ParameterDescriptor) argSource {
	return func(_ web.RequestContext, inv *Invocation) (any, error) {
		for key, value := range inv.RouteData {
			if !strings.EqualFold(key, param.Name) {
				continue
			}
			converted, err := convertRouteValue(value, param.Type)
			if err != nil {
				return nil, web.ErrBadRequest(fmt.Sprintf("invalid route value for %s", param.Name))
			}
			return converted, nil
		}
		if param.HasDefault {
			return param.Default, nil
		}
		return reflect.Zero(param.Type).Interface(), nil
	}
}

func convertRouteValue(value any, target reflect.Type) (any, error) {
	if value == nil {
		return reflect.Zero(target).Interface(), nil
	}
	rv := reflect.ValueOf(value)
	if rv.Type().AssignableTo(target) {
		return value, nil
	}
	if s, ok := value.(string); ok {
		return web.ParseTyped(target.String(), s)
	}
	if isNumeric(rv.Kind()) && isNumeric(target.Kind()) {
		return rv.Convert(target).Interface(), nil
	}
	return nil, fmt.Errorf("cannot convert %T to %s", value, target)
}

func isNumeric(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Float64
}

func populateRouteData(ctx web.RequestContext, plan *invocationPlan, inv *Invocation) error {
	for _, part := range plan.routeParts {
		raw := ctx.Param(part.Value)
		value, err := web.ParseTyped(part.ParamType, raw)
		if err != nil {
			return err
		}
		inv.RouteData[part.Value] = value
	}
	return nil
}

func (h *Host) handler(plan *invocationPlan) web.HandlerFunc {
	fn := plan.fn
	return func(ctx web.RequestContext) error {
		inv := NewInvocation(fn.Name)
		logger := h.logger.With("function", fn.Name, "invocation_id", inv.ID.String())

		if err := populateRouteData(ctx, plan, inv); err != nil {
			// a typed route segment that does not parse does not match the route
			logger.Debug("route constraint not satisfied", "error", err)
			return web.ErrNotFound("not found")
		}
		Attach(ctx, inv)

		chain := func(ctx web.RequestContext) error {
			return h.invoke(ctx, inv, plan, logger)
		}
		for i := len(h.pipeline) - 1; i >= 0; i-- {
			mw, next := h.pipeline[i], chain
			chain = func(ctx web.RequestContext) error {
				return mw.Invoke(ctx, next)
			}
		}

		logger.Debug("executing function")
		if err := chain(ctx); err != nil {
			if errors.Is(err, ErrInvocationHalted) {
				return nil
			}
			logger.Error("function failed", "error", err)
			return err
		}
		return nil
	}
}

func (h *Host) invoke(ctx web.RequestContext, inv *Invocation, plan *invocationPlan, logger *slog.Logger) error {
	if ctx.Response().Written() {
		logger.Debug("response already written, function skipped")
		return nil
	}

	for _, filter := range h.services.InvocationFilters() {
		if err := filter.OnExecuting(ctx, inv, plan.fn); err != nil {
			if errors.Is(err, ErrInvocationHalted) {
				logger.Debug("invocation halted by filter")
				return nil
			}
			return err
		}
	}

	args := make([]any, len(plan.args))
	for i, src := range plan.args {
		value, err := src(ctx, inv)
		if err != nil {
			if errors.Is(err, ErrInvocationHalted) {
				logger.Debug("invocation halted by binding", "parameter", plan.fn.Parameters[i].Name)
				return nil
			}
			return err
		}
		args[i] = value
	}

	result, err := plan.fn.Invoke(ctx.Context(), args)
	if err != nil {
		return err
	}
	return writeResult(ctx, result)
}

func writeResult(ctx web.RequestContext, result any) error {
	if ctx.Response().Written() {
		return nil
	}
	switch r := result.(type) {
	case nil:
		return ctx.Response().NoContent(204)
	case *web.Response:
		return r.Write(ctx)
	case string:
		return ctx.Response().String(200, r)
	default:
		return ctx.Response().JSON(200, r)
	}
}

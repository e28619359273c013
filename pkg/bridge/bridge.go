// Package bridge splices an ordered middleware chain into the host's
// per-invocation path. The host sees a single HTTP middleware; inside it the
// configured stages run, and the host's own continuation is invoked exactly
// once afterwards whether or not a stage stopped the chain.
package bridge

import (
	"log/slog"

	"github.com/toyz/fnbridge/pkg/host"
	"github.com/toyz/fnbridge/pkg/web"
)

// Attacher attaches endpoint metadata to an invocation
type Attacher interface {
	Attach(ctx web.RequestContext, inv *host.Invocation) error
}

// Builder collects the stages of the internal chain
type Builder struct {
	stages []web.MiddlewareFunc
}

// Use appends a stage; stages run in the order they are added
func (b *Builder) Use(mw web.MiddlewareFunc) *Builder {
	b.stages = append(b.stages, mw)
	return b
}

// Build composes the stages around terminal
func (b *Builder) Build(terminal web.HandlerFunc) web.HandlerFunc {
	return web.Chain(terminal, b.stages...)
}

// Bridge is the host HTTP middleware running the internal chain
type Bridge struct {
	attacher Attacher
	chain    web.HandlerFunc
	logger   *slog.Logger
}

// New builds the bridge. configure runs once, here.
func New(attacher Attacher, configure func(*Builder), logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Builder{}
	if configure != nil {
		configure(b)
	}
	return &Bridge{
		attacher: attacher,
		chain:    b.Build(resume),
		logger:   logger,
	}
}

// resume is the last stage: it consumes the stored continuation if present
func resume(ctx web.RequestContext) error {
	inv := host.FromRequest(ctx)
	if inv == nil {
		return nil
	}
	if next, ok := inv.TakeContinuation(); ok {
		return next(ctx)
	}
	return nil
}

// Invoke implements host.HTTPMiddleware. Errors from the chain or the
// continuation are returned unchanged.
func (b *Bridge) Invoke(ctx web.RequestContext, next web.HandlerFunc) error {
	inv := host.FromRequest(ctx)
	if inv == nil {
		inv = host.NewInvocation("")
		host.Attach(ctx, inv)
	}
	inv.StoreContinuation(next)

	if b.attacher != nil {
		if err := b.attacher.Attach(ctx, inv); err != nil {
			return err
		}
	}

	b.logger.Debug("running request pipeline", "function", inv.FunctionName, "invocation_id", inv.ID.String())
	if err := b.chain(ctx); err != nil {
		return err
	}

	if next, ok := inv.TakeContinuation(); ok {
		return next(ctx)
	}
	return nil
}

package authz

import (
	"context"
	"log/slog"

	"github.com/toyz/fnbridge/pkg/claims"
)

// Result is the outcome of authorizing a principal against a policy
type Result struct {
	Succeeded bool
	// FailCalled is set when a handler explicitly failed the authorization
	FailCalled bool
	// Pending lists the requirements no handler satisfied
	Pending []Requirement
	Reasons []string
}

// Service evaluates policies with the handlers of its provider
type Service struct {
	handlers HandlerProvider
	options  *Options
	logger   *slog.Logger
}

// NewService creates an authorization service
func NewService(handlers HandlerProvider, options *Options, logger *slog.Logger) *Service {
	if handlers == nil {
		handlers = DefaultHandlerProvider{}
	}
	if options == nil {
		options = NewOptions()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{handlers: handlers, options: options, logger: logger}
}

// Authorize runs every handler once over the policy's requirements
func (s *Service) Authorize(ctx context.Context, user *claims.Principal, resource any, policy *Policy) (Result, error) {
	hc := NewHandlerContext(policy.Requirements, user, resource)
	for _, h := range s.handlers.Handlers(hc) {
		if err := h.Handle(ctx, hc); err != nil {
			return Result{}, err
		}
		if hc.HasFailed() && !s.options.InvokeHandlersAfterFailure {
			break
		}
	}

	if hc.HasSucceeded() {
		s.logger.DebugContext(ctx, "authorization was successful")
		return Result{Succeeded: true}, nil
	}

	result := Result{
		FailCalled: hc.HasFailed(),
		Pending:    hc.PendingRequirements(),
		Reasons:    append([]string(nil), hc.reasons...),
	}
	failed := make([]string, 0, len(result.Pending))
	for _, req := range result.Pending {
		failed = append(failed, req.String())
	}
	s.logger.InfoContext(ctx, "authorization failed", "user", user.Name(), "requirements", failed, "fail_called", result.FailCalled)
	return result, nil
}

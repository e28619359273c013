package authn

import (
	"errors"
	"log/slog"
	"sync"
)

// ReservedBearerScheme is the scheme name the host registers for its own
// bearer tokens.
const ReservedBearerScheme = "Bearer"

// Latch runs one mutation per process. Callers that lose the race block
// until the winner's mutation has finished.
type Latch struct {
	mu   sync.Mutex
	done bool
}

// Do runs fn unless an earlier Do already has, and reports whether it ran
func (l *Latch) Do(fn func()) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.done {
		return false
	}
	defer func() { l.done = true }()
	fn()
	return true
}

// Done reports whether a Do has completed
func (l *Latch) Done() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.done
}

// processLatch guards the host scheme table for the life of the process
var processLatch Latch

// SchemeHost is the narrow view of the host an Extension needs
type SchemeHost interface {
	AuthenticationSchemes() SchemeRegistry
	AuthenticationOptions() *Options
}

// Extension adds application schemes to the host exactly once per process
type Extension struct {
	builder *Builder
	latch   *Latch
	logger  *slog.Logger
}

// ExtensionOption customizes an Extension
type ExtensionOption func(*Extension)

// WithLatch replaces the process-wide latch, mainly for tests
func WithLatch(latch *Latch) ExtensionOption {
	return func(e *Extension) {
		e.latch = latch
	}
}

// WithLogger sets the logger used to report skipped schemes
func WithLogger(logger *slog.Logger) ExtensionOption {
	return func(e *Extension) {
		e.logger = logger
	}
}

// NewExtension creates an extension for the schemes and option callbacks in builder
func NewExtension(builder *Builder, opts ...ExtensionOption) *Extension {
	e := &Extension{
		builder: builder,
		latch:   &processLatch,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Initialize applies option callbacks to the host's options and adds the
// application schemes to its table. Only the first call in the process
// mutates the host; later calls wait for it to finish, then return false.
// Schemes whose names already exist are skipped and logged.
func (e *Extension) Initialize(host SchemeHost) bool {
	ran := e.latch.Do(func() { e.register(host) })
	if !ran {
		e.logger.Debug("authentication schemes already registered, skipping")
	}
	return ran
}

// Initialized reports whether the process schemes have been registered
func (e *Extension) Initialized() bool {
	return e.latch.Done()
}

func (e *Extension) register(host SchemeHost) {
	options := host.AuthenticationOptions()
	for _, configure := range e.builder.configure {
		configure(options)
	}

	table := host.AuthenticationSchemes()
	for _, scheme := range e.builder.schemes {
		err := table.Add(scheme)
		switch {
		case err == nil:
			e.logger.Info("registered authentication scheme", "scheme", scheme.Name)
		case errors.Is(err, ErrDuplicateScheme) && scheme.Name == ReservedBearerScheme:
			e.logger.Warn("authentication scheme name is reserved by the host, scheme skipped; register it under a different name such as \"AppBearer\" and reference that name in policies",
				"scheme", scheme.Name)
		case errors.Is(err, ErrDuplicateScheme):
			e.logger.Warn("authentication scheme already registered, scheme skipped", "scheme", scheme.Name)
		default:
			e.logger.Error("failed to register authentication scheme", "scheme", scheme.Name, "error", err)
		}
	}
}

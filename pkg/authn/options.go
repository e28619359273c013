package authn

// Options selects the schemes used when a caller does not name one
type Options struct {
	DefaultScheme             string
	DefaultAuthenticateScheme string
	DefaultChallengeScheme    string
	DefaultForbidScheme       string
}

func (o *Options) authenticateScheme() string {
	if o.DefaultAuthenticateScheme != "" {
		return o.DefaultAuthenticateScheme
	}
	return o.DefaultScheme
}

func (o *Options) challengeScheme() string {
	if o.DefaultChallengeScheme != "" {
		return o.DefaultChallengeScheme
	}
	return o.DefaultScheme
}

func (o *Options) forbidScheme() string {
	if o.DefaultForbidScheme != "" {
		return o.DefaultForbidScheme
	}
	return o.challengeScheme()
}

// Builder collects application schemes and option callbacks
type Builder struct {
	schemes   []*Scheme
	configure []func(*Options)
}

// NewBuilder creates an empty builder
func NewBuilder() *Builder {
	return &Builder{}
}

// AddScheme queues a scheme for registration
func (b *Builder) AddScheme(name, displayName string, handler Handler) *Builder {
	b.schemes = append(b.schemes, &Scheme{Name: name, DisplayName: displayName, Handler: handler})
	return b
}

// AddJWTBearer queues a JWT bearer scheme
func (b *Builder) AddJWTBearer(name string, cfg JWTBearerConfig) (*Builder, error) {
	handler, err := NewJWTBearer(name, cfg)
	if err != nil {
		return b, err
	}
	return b.AddScheme(name, cfg.DisplayName, handler), nil
}

// Configure queues a callback applied to the host's options
func (b *Builder) Configure(fn func(*Options)) *Builder {
	b.configure = append(b.configure, fn)
	return b
}

// Schemes returns the queued schemes
func (b *Builder) Schemes() []*Scheme {
	return b.schemes
}

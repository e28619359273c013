package bridge

import (
	"github.com/toyz/fnbridge/pkg/host"
	"github.com/toyz/fnbridge/pkg/synth"
)

// Adapter synthesizes the host middleware adapter for the bridge against the
// host's published HTTPMiddleware contract
func Adapter(catalog *host.Catalog) (*synth.Adapter, error) {
	return synth.Synthesize(catalog, host.ModuleName, host.HTTPMiddlewareContract, New)
}

// Register adds a bridge to the host's HTTP middlewares through the
// synthesized adapter. A second registration in the same host is ignored.
func Register(h *host.Host, attacher Attacher, configure func(*Builder)) error {
	adapter, err := Adapter(h.Catalog())
	if err != nil {
		return err
	}
	_, err = adapter.Register(h.Services(), attacher, configure, nil)
	return err
}

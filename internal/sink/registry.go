package sink

import "fmt"

// Factory creates a sink instance from opaque config (sink-specific).
type Factory func(any) (Sink, error)

var registry = map[string]Factory{}

// Register binds a sink name to its factory.
func Register(name string, f Factory) {
	registry[name] = f
}

// New returns a sink instance by name.
func New(name string, cfg any) (Sink, error) {
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("sink not found: %s", name)
	}
	return f(cfg)
}

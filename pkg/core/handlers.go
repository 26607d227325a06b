// core/handlers.go
package core

import (
	"context"
	"sort"

	"github.com/joeydtaylor/webhook-handler/pkg/manifest"
)

// Handler performs one side effect for one option record of a request.
type Handler interface {
	Handle(ctx context.Context, opts manifest.Options, rc *RequestContext) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, opts manifest.Options, rc *RequestContext) error

func (f HandlerFunc) Handle(ctx context.Context, opts manifest.Options, rc *RequestContext) error {
	return f(ctx, opts, rc)
}

// Nop is the handler used for "null" and for names nothing is registered under.
var Nop Handler = HandlerFunc(func(context.Context, manifest.Options, *RequestContext) error { return nil })

// Registry maps handler names referenced in the config file to implementations.
// It is filled at startup and read-only afterwards.
type Registry struct {
	handlers map[string]Handler
}

func NewRegistry() *Registry {
	return &Registry{handlers: map[string]Handler{}}
}

// Register makes h available under name, replacing any previous binding.
func (r *Registry) Register(name string, h Handler) {
	r.handlers[name] = h
}

// Lookup retrieves a handler by name.
func (r *Registry) Lookup(name string) (Handler, bool) {
	h, ok := r.handlers[name]
	return h, ok
}

// Known reports whether name is registered; used to filter config keys.
func (r *Registry) Known(name string) bool {
	_, ok := r.handlers[name]
	return ok
}

func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.handlers))
	for k := range r.handlers {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

package agent

import (
	"context"
	"log/slog"
)

// ToolCaller is the slice of the protocol client the invoker needs. It is
// satisfied by *mcp.Client.
type ToolCaller interface {
	CallTool(ctx context.Context, name string, arguments map[string]any) (string, error)
}

// Invoker wraps a ToolCaller with schema validation and memoization: raw
// string arguments are validated and typed through the registry, and repeated
// invocations with identical arguments are served from the cache without
// touching the wire.
type Invoker struct {
	registry *Registry
	cache    *Cache
	caller   ToolCaller
	logger   *slog.Logger
}

// InvokerOption is a function that configures an invoker.
type InvokerOption func(*Invoker)

// WithInvokerLogger sets the logger for the invoker.
func WithInvokerLogger(logger *slog.Logger) InvokerOption {
	return func(i *Invoker) {
		i.logger = logger
	}
}

// NewInvoker creates an invoker dispatching through caller with the given
// registry.
func NewInvoker(caller ToolCaller, registry *Registry, options ...InvokerOption) *Invoker {
	i := &Invoker{
		registry: registry,
		cache:    NewCache(),
		caller:   caller,
		logger:   slog.Default(),
	}

	for _, opt := range options {
		opt(i)
	}

	return i
}

// Invoke validates raw arguments against the tool's schema and executes the
// call, consulting the cache first. Failed calls are not cached.
func (i *Invoker) Invoke(ctx context.Context, tool string, raw map[string]string) (string, error) {
	args, err := i.registry.BuildArgs(tool, raw)
	if err != nil {
		return "", err
	}

	if result, ok := i.cache.Get(tool, args); ok {
		i.logger.Debug("tool cache hit", "tool", tool)
		return result, nil
	}

	result, err := i.caller.CallTool(ctx, tool, args)
	if err != nil {
		return "", err
	}
	i.cache.Put(tool, args, result)

	return result, nil
}

// Tools returns the names of the tools the invoker can dispatch.
func (i *Invoker) Tools() []string {
	return i.registry.Tools()
}

// Package agent provides the caller-side helpers around a protocol client: a
// typed tool registry, an invocation cache, file ranking, and context assembly
// for a conversational caller.
package agent

import (
	"fmt"
	"sort"
	"strconv"
)

// ParamType enumerates the argument types the registry can coerce.
type ParamType string

// Supported parameter types.
const (
	ParamString ParamType = "string"
	ParamInt    ParamType = "int"
	ParamBool   ParamType = "bool"
)

// Param is one named, typed tool parameter.
type Param struct {
	Name     string
	Type     ParamType
	Required bool
}

// Registry maps tool names to their ordered parameter schemas. Arguments are
// validated and coerced against the schema before they are ever serialized, so
// a typo'd tool or parameter name fails here instead of producing a malformed
// request on the wire.
type Registry struct {
	tools map[string][]Param
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string][]Param),
	}
}

// DefaultRegistry returns a registry preloaded with the tools the demo server
// exposes.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("web_get",
		Param{Name: "url", Type: ParamString, Required: true},
	)
	r.Register("web_search",
		Param{Name: "query", Type: ParamString, Required: true},
		Param{Name: "max_results", Type: ParamInt},
	)
	r.Register("get_beeceptor")
	r.Register("validate_contact",
		Param{Name: "input", Type: ParamString, Required: true},
		Param{Name: "type", Type: ParamString, Required: true},
	)
	return r
}

// Register adds or replaces a tool schema.
func (r *Registry) Register(name string, params ...Param) {
	r.tools[name] = params
}

// Tools returns the registered tool names, sorted.
func (r *Registry) Tools() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BuildArgs validates raw string arguments against the tool's schema and
// coerces them to their declared types. Unknown tools, unknown parameters, and
// missing required parameters are rejected.
func (r *Registry) BuildArgs(tool string, raw map[string]string) (map[string]any, error) {
	params, ok := r.tools[tool]
	if !ok {
		return nil, fmt.Errorf("unknown tool: %s", tool)
	}

	schema := make(map[string]Param, len(params))
	for _, p := range params {
		schema[p.Name] = p
	}
	for name := range raw {
		if _, ok := schema[name]; !ok {
			return nil, fmt.Errorf("unknown parameter %q for tool %s", name, tool)
		}
	}

	args := make(map[string]any, len(raw))
	for _, p := range params {
		value, ok := raw[p.Name]
		if !ok {
			if p.Required {
				return nil, fmt.Errorf("missing required parameter %q for tool %s", p.Name, tool)
			}
			continue
		}

		coerced, err := coerce(value, p.Type)
		if err != nil {
			return nil, fmt.Errorf("parameter %q of tool %s: %w", p.Name, tool, err)
		}
		args[p.Name] = coerced
	}

	return args, nil
}

func coerce(value string, typ ParamType) (any, error) {
	switch typ {
	case ParamString:
		return value, nil
	case ParamInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("expected an integer, got %q", value)
		}
		return n, nil
	case ParamBool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("expected a boolean, got %q", value)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unsupported parameter type %q", typ)
	}
}

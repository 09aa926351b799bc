package env

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/abdul-hamid-achik/hitpost/packages/builtin"
)

var variablePattern = regexp.MustCompile(`\{\{([^}]+)\}\}`)

// WarnFunc is a function type for handling warnings
type WarnFunc func(format string, args ...any)

// Resolver substitutes {{...}} placeholders. It is safe for concurrent use.
type Resolver struct {
	mu        sync.RWMutex
	variables map[string]string
	funcs     *builtin.Registry
	warnFunc  WarnFunc
}

func NewResolver() *Resolver {
	return &Resolver{
		variables: make(map[string]string),
		funcs:     builtin.NewRegistry(),
	}
}

// ForEnvironment builds a resolver from globals and the active environment.
// The environment wins over globals; env may be nil.
func ForEnvironment(globals []Variable, env *Environment) *Resolver {
	r := NewResolver()
	var envVars []Variable
	if env != nil {
		envVars = env.Variables
	}
	r.SetVariables(Flatten(globals, envVars))
	return r
}

// SetWarnFunc sets a function to be called when warnings occur (e.g., unresolved variables)
func (r *Resolver) SetWarnFunc(fn WarnFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warnFunc = fn
}

func (r *Resolver) warn(format string, args ...any) {
	r.mu.RLock()
	fn := r.warnFunc
	r.mu.RUnlock()
	if fn != nil {
		fn(format, args...)
	}
}

func (r *Resolver) SetVariables(vars map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, v := range vars {
		r.variables[k] = v
	}
}

func (r *Resolver) SetVariable(name, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.variables[name] = value
}

func (r *Resolver) GetVariable(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.variables[name]
	return v, ok
}

// Resolve replaces every placeholder it can resolve. Unresolved placeholders
// are kept verbatim.
func (r *Resolver) Resolve(input string) string {
	if input == "" {
		return ""
	}
	return variablePattern.ReplaceAllStringFunc(input, func(match string) string {
		if val, ok := r.lookup(match); ok {
			return val
		}
		return match
	})
}

func (r *Resolver) lookup(match string) (string, bool) {
	expr := strings.TrimSpace(match[2 : len(match)-2])

	if strings.HasPrefix(expr, "$") {
		envVar := expr[1:]
		if val := os.Getenv(envVar); val != "" {
			return val, true
		}
		r.warn("unresolved environment variable: $%s", envVar)
		return "", false
	}

	if strings.Contains(expr, "(") {
		if result, ok := r.funcs.Call(expr); ok {
			return fmt.Sprintf("%v", result), true
		}
		r.warn("unresolved function call: %s", expr)
		return "", false
	}

	r.mu.RLock()
	val, ok := r.variables[expr]
	r.mu.RUnlock()
	if ok {
		return val, true
	}

	r.warn("unresolved variable: %s", expr)
	return "", false
}

func (r *Resolver) ResolveAll(values map[string]string) map[string]string {
	result := make(map[string]string, len(values))
	for k, v := range values {
		result[k] = r.Resolve(v)
	}
	return result
}

// Unresolved returns the placeholder names in input that have no value.
// Builtin calls are not evaluated.
func (r *Resolver) Unresolved(input string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, m := range variablePattern.FindAllStringSubmatch(input, -1) {
		expr := strings.TrimSpace(m[1])
		if seen[expr] {
			continue
		}
		switch {
		case strings.HasPrefix(expr, "$"):
			if os.Getenv(expr[1:]) != "" {
				continue
			}
		case strings.Contains(expr, "("):
			continue
		default:
			if _, ok := r.GetVariable(expr); ok {
				continue
			}
		}
		seen[expr] = true
		names = append(names, expr)
	}
	return names
}

func (r *Resolver) Clone() *Resolver {
	r.mu.RLock()
	defer r.mu.RUnlock()
	clone := NewResolver()
	for k, v := range r.variables {
		clone.variables[k] = v
	}
	clone.warnFunc = r.warnFunc
	return clone
}

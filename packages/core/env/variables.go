package env

import (
	"os"
	"strings"
)

// Variable is a single user-defined key/value pair. Disabled variables and
// variables with a blank key or value never take part in resolution.
type Variable struct {
	Key     string `json:"key" yaml:"key"`
	Value   string `json:"value" yaml:"value"`
	Enabled bool   `json:"enabled" yaml:"enabled"`
}

// Usable reports whether the variable takes part in resolution.
func (v Variable) Usable() bool {
	return v.Enabled && strings.TrimSpace(v.Key) != "" && strings.TrimSpace(v.Value) != ""
}

// Environment is a named set of variables.
type Environment struct {
	ID        string     `json:"id" yaml:"id"`
	Name      string     `json:"name" yaml:"name"`
	Variables []Variable `json:"variables,omitempty" yaml:"variables,omitempty"`
}

// Flatten layers the given variable sets in order, later sets winning, and
// returns the usable ones as a map with trimmed keys and values.
func Flatten(sets ...[]Variable) map[string]string {
	result := make(map[string]string)
	for _, set := range sets {
		for _, v := range set {
			if !v.Usable() {
				continue
			}
			result[strings.TrimSpace(v.Key)] = strings.TrimSpace(v.Value)
		}
	}
	return result
}

// FromMap turns a plain map, such as one read from a .env file, into enabled
// variables.
func FromMap(values map[string]string) []Variable {
	vars := make([]Variable, 0, len(values))
	for k, v := range values {
		vars = append(vars, Variable{Key: k, Value: v, Enabled: true})
	}
	return vars
}

// LoadSystemEnv returns the process environment variables whose name starts
// with prefix, with the prefix removed.
func LoadSystemEnv(prefix string) map[string]string {
	result := make(map[string]string)
	for _, e := range os.Environ() {
		key, value, ok := strings.Cut(e, "=")
		if !ok {
			continue
		}
		if prefix == "" {
			result[key] = value
		} else if len(key) > len(prefix) && strings.HasPrefix(key, prefix) {
			result[key[len(prefix):]] = value
		}
	}
	return result
}

package projectconfig

import (
	"fmt"
	"strings"
)

// Well-known configuration keys.
const (
	SectionProject    = "project"
	SectionMixins     = "mixins"
	SectionTestBuild  = "test_build"
	SectionTestRunner = "test_runner"

	// WhichSystem is the project.which_tool value selecting the system install.
	WhichSystem = "system"
)

// Config is a resolved project configuration. It is never modified after
// construction; Merge and Without return new values.
type Config struct {
	values map[string]any
}

// New builds a Config from a nested map, copying it and lowercasing keys.
func New(values map[string]any) *Config {
	if values == nil {
		values = map[string]any{}
	}
	return &Config{values: copyMap(values)}
}

// Map returns a deep copy of the configuration tree.
func (c *Config) Map() map[string]any {
	return copyMap(c.values)
}

// Lookup walks path through nested maps.
func (c *Config) Lookup(path ...string) (any, bool) {
	var cur any = c.values
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[strings.ToLower(key)]
		if !ok {
			return nil, false
		}
	}
	return copyValue(cur), true
}

// String returns the string at path, or "" when absent or not a scalar.
func (c *Config) String(path ...string) string {
	v, ok := c.Lookup(path...)
	if !ok || v == nil {
		return ""
	}
	switch v.(type) {
	case map[string]any, []any:
		return ""
	}
	return fmt.Sprint(v)
}

// Bool returns the boolean at path and whether one was set.
func (c *Config) Bool(path ...string) (value, ok bool) {
	v, found := c.Lookup(path...)
	if !found {
		return false, false
	}
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		switch strings.ToLower(b) {
		case "true", "yes", "on":
			return true, true
		case "false", "no", "off":
			return false, true
		}
	}
	return false, false
}

// Strings returns the list of strings at path. A scalar is returned as a
// one-element list.
func (c *Config) Strings(path ...string) []string {
	v, ok := c.Lookup(path...)
	if !ok || v == nil {
		return nil
	}
	switch list := v.(type) {
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			out = append(out, fmt.Sprint(item))
		}
		return out
	case map[string]any:
		return nil
	default:
		return []string{fmt.Sprint(list)}
	}
}

// WhichTool returns project.which_tool ("system", a vendored path, or "").
func (c *Config) WhichTool() string {
	return c.String(SectionProject, "which_tool")
}

// Merge returns a new Config with overlay merged on top of c.
func (c *Config) Merge(overlay map[string]any) *Config {
	return &Config{values: mergeMaps(c.values, copyMap(overlay))}
}

// WithDefaults returns a new Config where keys missing from c are taken
// from defaults. Existing values, including lists, are left as they are.
func (c *Config) WithDefaults(defaults map[string]any) *Config {
	return &Config{values: fillMaps(c.values, copyMap(defaults))}
}

// Set returns a new Config with the value at path replaced.
func (c *Config) Set(value any, path ...string) *Config {
	if len(path) == 0 {
		return c
	}
	overlay := map[string]any{strings.ToLower(path[len(path)-1]): copyValue(value)}
	for i := len(path) - 2; i >= 0; i-- {
		overlay = map[string]any{strings.ToLower(path[i]): overlay}
	}
	return &Config{values: replaceMaps(c.values, overlay)}
}

// Without returns a new Config without the top-level key.
func (c *Config) Without(key string) *Config {
	values := copyMap(c.values)
	delete(values, strings.ToLower(key))
	return &Config{values: values}
}

// DefaultTasks returns project.default_tasks when configured, otherwise
// fallback. Configuration always takes precedence over the caller's list.
func DefaultTasks(cfg *Config, fallback []string) []string {
	if tasks := cfg.Strings(SectionProject, "default_tasks"); len(tasks) > 0 {
		return tasks
	}
	return append([]string(nil), fallback...)
}

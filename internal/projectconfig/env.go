package projectconfig

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/seedling-build/seedling/internal/branding"
)

// Env is a snapshot of the process environment.
type Env map[string]string

// EnvFromOS captures the current process environment.
func EnvFromOS() Env {
	e := make(Env)
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if ok {
			e[k] = v
		}
	}
	return e
}

// envSettings holds the SEEDLING_* variables the loader understands.
type envSettings struct {
	ProjectFile string `env:"PROJECT_FILE"`
	Which       string `env:"WHICH"`
}

func (e Env) settings() (envSettings, error) {
	environment := map[string]string(e)
	if environment == nil {
		environment = map[string]string{}
	}
	var s envSettings
	err := env.ParseWithOptions(&s, env.Options{
		Environment: environment,
		Prefix:      branding.EnvPrefix() + "_",
	})
	if err != nil {
		return envSettings{}, fmt.Errorf("parsing environment: %w", err)
	}
	return s, nil
}

// Mixins returns SEEDLING_MIXIN_<n> values ordered by n.
func (e Env) Mixins() []string {
	prefix := branding.EnvVar("MIXIN") + "_"
	type numbered struct {
		n     int
		value string
	}
	var found []numbered
	for k, v := range e {
		suffix, ok := strings.CutPrefix(k, prefix)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		n, err := strconv.Atoi(suffix)
		if err != nil {
			continue
		}
		found = append(found, numbered{n: n, value: strings.TrimSpace(v)})
	}
	sort.Slice(found, func(i, j int) bool { return found[i].n < found[j].n })

	out := make([]string, 0, len(found))
	for _, f := range found {
		out = append(out, f.value)
	}
	return out
}

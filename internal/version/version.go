// Package version reports the versions of seedling and the C test components
// it bundles.
package version

import (
	"fmt"
	"io/fs"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/seedling-build/seedling/internal/assets"
	"go.yaml.in/yaml/v3"
)

// Components holds the bundled component versions.
type Components struct {
	Seedling   *semver.Version
	CMock      *semver.Version
	Unity      *semver.Version
	CException *semver.Version
}

type componentsFile struct {
	Seedling   string `yaml:"seedling"`
	CMock      string `yaml:"cmock"`
	Unity      string `yaml:"unity"`
	CException string `yaml:"cexception"`
}

// Read parses the versions file at name in fsys. Every component must carry
// a valid semantic version.
func Read(fsys fs.FS, name string) (*Components, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("reading versions: %w", err)
	}

	var raw componentsFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing versions: %w", err)
	}

	c := &Components{}
	for _, f := range []struct {
		name  string
		value string
		dst   **semver.Version
	}{
		{"seedling", raw.Seedling, &c.Seedling},
		{"cmock", raw.CMock, &c.CMock},
		{"unity", raw.Unity, &c.Unity},
		{"cexception", raw.CException, &c.CException},
	} {
		v, err := Parse(f.value)
		if err != nil {
			return nil, fmt.Errorf("parsing %s version %q: %w", f.name, f.value, err)
		}
		*f.dst = v
	}
	return c, nil
}

// Bundled returns the versions compiled into this binary.
func Bundled() (*Components, error) {
	return Read(assets.FS(), assets.VersionsFile)
}

// Parse strips a leading "v" and parses the version string.
func Parse(version string) (*semver.Version, error) {
	return semver.NewVersion(strings.TrimPrefix(strings.TrimSpace(version), "v"))
}

// Compare returns -1, 0, or 1 as a is older than, equal to, or newer than b.
func Compare(a, b string) (int, error) {
	av, err := Parse(a)
	if err != nil {
		return 0, fmt.Errorf("parsing version %q: %w", a, err)
	}
	bv, err := Parse(b)
	if err != nil {
		return 0, fmt.Errorf("parsing version %q: %w", b, err)
	}
	return av.Compare(bv), nil
}

// Message formats the versions as the multi-line banner printed by
// "seedling version".
func (c *Components) Message() string {
	var b strings.Builder
	fmt.Fprintf(&b, " 🌱 Seedling => %s\n", c.Seedling)
	fmt.Fprintf(&b, "       CMock => %s\n", c.CMock)
	fmt.Fprintf(&b, "       Unity => %s\n", c.Unity)
	fmt.Fprintf(&b, "  CException => %s", c.CException)
	return b.String()
}

// Map returns the versions keyed by component name.
func (c *Components) Map() map[string]string {
	return map[string]string{
		"seedling":   c.Seedling.String(),
		"cmock":      c.CMock.String(),
		"unity":      c.Unity.String(),
		"cexception": c.CException.String(),
	}
}

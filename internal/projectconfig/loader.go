package projectconfig

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/seedling-build/seedling/internal/branding"
	"github.com/seedling-build/seedling/internal/errkind"
	"github.com/spf13/afero"
)

// LoadOptions selects the project file and overlays for Load.
type LoadOptions struct {
	// Filepath is an explicit project file; empty means SEEDLING_PROJECT_FILE
	// or project.yml in the working directory.
	Filepath string
	// Mixins are names or file paths applied after configured and
	// environment mixins.
	Mixins []string
	Env    Env
	// Silent suppresses validation warnings.
	Silent bool
}

// Which describes the tooling installation a configuration selects.
type Which struct {
	System bool
	// Path is the vendored tooling directory relative to the project root.
	Path string
}

// Loader reads project configuration from a filesystem.
type Loader struct {
	fs      afero.Fs
	workDir string
	log     *slog.Logger
}

// NewLoader creates a Loader resolving relative paths against workDir.
func NewLoader(fs afero.Fs, workDir string, log *slog.Logger) *Loader {
	if log == nil {
		log = slog.Default()
	}
	return &Loader{fs: fs, workDir: workDir, log: log}
}

// Load resolves the project file, merges mixins, and validates the result.
// It returns the project file path and the merged configuration.
func (l *Loader) Load(ctx context.Context, opts LoadOptions) (string, *Config, error) {
	settings, err := opts.Env.settings()
	if err != nil {
		return "", nil, err
	}

	projectFile, err := l.lookupProjectFile(opts.Filepath, settings)
	if err != nil {
		return "", nil, err
	}

	l.log.DebugContext(ctx, "Loading project configuration.", "path", projectFile)
	base, err := readFile(l.fs, projectFile)
	if err != nil {
		return "", nil, err
	}
	cfg := New(base)

	var names []string
	names = append(names, cfg.Strings(SectionMixins, "enabled")...)
	names = append(names, opts.Env.Mixins()...)
	names = append(names, opts.Mixins...)
	loadPaths := cfg.Strings(SectionMixins, "load_paths")

	for _, name := range names {
		path, err := l.resolveMixin(name, loadPaths)
		if err != nil {
			return "", nil, err
		}
		overlay, err := readFile(l.fs, path)
		if err != nil {
			return "", nil, fmt.Errorf("loading mixin %s: %w", name, err)
		}
		l.log.DebugContext(ctx, "Merging configuration mixin.", "mixin", name, "path", path)
		cfg = cfg.Merge(overlay)
	}
	cfg = cfg.Without(SectionMixins)

	if err := l.validate(ctx, projectFile, cfg, opts.Silent); err != nil {
		return "", nil, err
	}
	return projectFile, cfg, nil
}

// LoadFile reads a single project file without mixins.
func (l *Loader) LoadFile(ctx context.Context, path string, silent bool) (*Config, error) {
	path = l.abs(path)
	exists, err := afero.Exists(l.fs, path)
	if err != nil {
		return nil, fmt.Errorf("checking %s: %w", path, err)
	}
	if !exists {
		return nil, errkind.Missing("config", path, "could not find project file %s", path)
	}

	values, err := readFile(l.fs, path)
	if err != nil {
		return nil, err
	}
	cfg := New(values).Without(SectionMixins)
	if err := l.validate(ctx, path, cfg, silent); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Available reports whether a project file can be found from the
// environment and working directory alone.
func (l *Loader) Available(env Env) (bool, error) {
	settings, err := env.settings()
	if err != nil {
		return false, err
	}
	path := l.abs(branding.ProjectFile())
	if settings.ProjectFile != "" {
		path = l.abs(settings.ProjectFile)
	}
	return afero.Exists(l.fs, path)
}

// Which resolves the tooling installation, in priority order: the
// SEEDLING_WHICH environment variable, project.which_tool, a vendor/<tool>
// directory next to the project file, and finally the system install.
func (l *Loader) Which(env Env, cfg *Config, projectFile string) (Which, error) {
	settings, err := env.settings()
	if err != nil {
		return Which{}, err
	}

	value := settings.Which
	if value == "" {
		value = cfg.WhichTool()
	}
	root := filepath.Dir(l.abs(projectFile))

	switch strings.ToLower(value) {
	case WhichSystem, "gem":
		return Which{System: true}, nil
	case "":
		rel := filepath.Join("vendor", branding.ToolDir())
		ok, err := afero.DirExists(l.fs, filepath.Join(root, rel))
		if err != nil {
			return Which{}, fmt.Errorf("checking vendored tooling: %w", err)
		}
		if ok {
			return Which{Path: rel}, nil
		}
		return Which{System: true}, nil
	}

	dir := value
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(root, dir)
	}
	ok, err := afero.DirExists(l.fs, dir)
	if err != nil {
		return Which{}, fmt.Errorf("checking vendored tooling: %w", err)
	}
	if !ok {
		return Which{}, errkind.Missing("config", value, "configured tooling path %s does not exist", dir)
	}
	return Which{Path: value}, nil
}

func (l *Loader) lookupProjectFile(explicit string, settings envSettings) (string, error) {
	path := explicit
	if path == "" {
		path = settings.ProjectFile
	}
	if path == "" {
		path = branding.ProjectFile()
	}
	path = l.abs(path)

	exists, err := afero.Exists(l.fs, path)
	if err != nil {
		return "", fmt.Errorf("checking %s: %w", path, err)
	}
	if !exists {
		return "", errkind.Missing("config", path, "could not find project file %s", path)
	}
	return path, nil
}

// resolveMixin maps a mixin name or path to a file. Values with a known
// extension or a path separator are file paths; bare names are searched for
// in loadPaths with each supported extension.
func (l *Loader) resolveMixin(name string, loadPaths []string) (string, error) {
	if HasKnownExtension(name) || strings.ContainsRune(name, filepath.Separator) || strings.Contains(name, "/") {
		path := l.abs(name)
		exists, err := afero.Exists(l.fs, path)
		if err != nil {
			return "", fmt.Errorf("checking mixin %s: %w", path, err)
		}
		if !exists {
			return "", errkind.Missing("mixin", name, "mixin file %s does not exist", path)
		}
		return path, nil
	}

	for _, dir := range loadPaths {
		for _, ext := range Extensions {
			path := l.abs(filepath.Join(dir, name+ext))
			if ok, _ := afero.Exists(l.fs, path); ok {
				return path, nil
			}
		}
	}
	return "", errkind.Missing("mixin", name, "mixin %q not found in load paths %v", name, loadPaths)
}

func (l *Loader) validate(ctx context.Context, path string, cfg *Config, silent bool) error {
	result, err := Validate(cfg)
	if err != nil {
		return fmt.Errorf("validating %s: %w", path, err)
	}
	if result.Valid || silent {
		return nil
	}
	for _, issue := range result.Issues {
		l.log.WarnContext(ctx, "Project configuration issue.", "path", path, "issue", issue.String())
	}
	return nil
}

func (l *Loader) abs(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(l.workDir, path)
}

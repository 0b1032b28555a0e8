package scaffold

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os/exec"
	"path"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/seedling-build/seedling/internal/assets"
	"github.com/seedling-build/seedling/internal/branding"
	"github.com/seedling-build/seedling/internal/catalog"
	"github.com/seedling-build/seedling/internal/errkind"
	"github.com/seedling-build/seedling/internal/fsys"
	"github.com/seedling-build/seedling/internal/logging"
	"github.com/seedling-build/seedling/internal/projectconfig"
	"github.com/seedling-build/seedling/internal/version"
)

// ProjectLoader reads a single project file.
type ProjectLoader interface {
	LoadFile(ctx context.Context, path string, silent bool) (*projectconfig.Config, error)
}

// CreateOptions control "seedling new".
type CreateOptions struct {
	Force   bool // destroy an existing project first
	Local   bool // vendor tooling into the project
	Docs    bool // copy documentation into docs/
	Configs bool // render project.yml
}

// ExampleOptions control "seedling example".
type ExampleOptions struct {
	Force bool
	Local bool
	Docs  bool
}

// TemplateData holds the variables available to the project file template.
type TemplateData struct {
	Name      string
	WhichTool string // empty for the system install
}

// Scaffolder lays out projects using embedded assets.
type Scaffolder struct {
	actions    fsys.Actions
	assets     fs.FS
	loader     ProjectLoader
	log        *logging.Logger
	executable string
	engine     string
	lookPath   func(string) (string, error)
}

// New creates a Scaffolder.
func New(actions fsys.Actions, assetFS fs.FS, loader ProjectLoader, log *logging.Logger) *Scaffolder {
	return &Scaffolder{actions: actions, assets: assetFS, loader: loader, log: log, lookPath: exec.LookPath}
}

// WithExecutable sets the binary copied into vendored tooling.
func (s *Scaffolder) WithExecutable(path string) *Scaffolder {
	s.executable = path
	return s
}

// WithEngine sets the build engine copied into vendored tooling. Without it
// the engine is looked up on PATH.
func (s *Scaffolder) WithEngine(path string) *Scaffolder {
	s.engine = path
	return s
}

// Create lays out a new project called name under dest.
func (s *Scaffolder) Create(ctx context.Context, name, dest string, opts CreateOptions) (Layout, error) {
	if err := validateName("new", name); err != nil {
		return Layout{}, err
	}
	layout := NewLayout(projectRoot(name, dest), opts.Local, opts.Docs)

	var engine string
	if opts.Local {
		var err error
		if engine, err = s.resolveEngine("new"); err != nil {
			return Layout{}, err
		}
	}

	if err := s.prepareRoot(ctx, "new", layout.Root, opts.Force); err != nil {
		return Layout{}, err
	}

	for _, dir := range []string{layout.Root, layout.Src, layout.Test, layout.Support} {
		if err := s.actions.MkdirAll(dir); err != nil {
			return Layout{}, err
		}
	}

	if opts.Local {
		if err := s.vendorTools(ctx, layout.Root, engine); err != nil {
			return Layout{}, err
		}
	}
	if opts.Docs {
		if err := s.copyDocs(layout.Root); err != nil {
			return Layout{}, err
		}
	}
	if opts.Configs {
		if err := s.writeProjectFile(ctx, layout, name, opts.Local); err != nil {
			return Layout{}, err
		}
	}

	s.log.Logf("\n🌱 New project '%s' created at %s/\n", name, layout.Root)
	return layout, nil
}

// Upgrade replaces the vendored tooling of the project at root, and its
// documentation when the project has it. projectFile is relative to root.
func (s *Scaffolder) Upgrade(ctx context.Context, root, projectFile string) error {
	if projectFile == "" {
		projectFile = branding.ProjectFile()
	}
	configPath := filepath.Join(root, projectFile)

	found, err := s.existsAll(configPath, versionMarker(root))
	if err != nil {
		return err
	}
	if !found {
		return errkind.Precondition("upgrade", root, "could not find an existing project at %s/", root)
	}

	cfg, err := s.loader.LoadFile(ctx, configPath, true)
	if err != nil {
		return fmt.Errorf("loading %s: %w", configPath, err)
	}
	switch strings.ToLower(cfg.WhichTool()) {
	case projectconfig.WhichSystem, "gem":
		return errkind.Conflict("upgrade", configPath,
			"project configuration specifies the system %s install, not vendored tooling", branding.CLIName())
	}

	engine, err := s.resolveEngine("upgrade")
	if err != nil {
		return err
	}
	previous, err := s.actions.ReadFile(versionMarker(root))
	if err != nil {
		return err
	}

	if err := s.actions.RemoveAll(vendorDir(root)); err != nil {
		return err
	}
	if err := s.vendorTools(ctx, root, engine); err != nil {
		return err
	}
	s.reportUpgrade(ctx, strings.TrimSpace(string(previous)))

	hasDocs, err := s.actions.Exists(docsMarker(root))
	if err != nil {
		return fmt.Errorf("checking documentation: %w", err)
	}
	if hasDocs {
		if err := s.actions.RemoveAll(filepath.Join(root, "docs")); err != nil {
			return err
		}
		if err := s.copyDocs(root); err != nil {
			return err
		}
	}

	s.log.Logf("\n🌱 Upgraded project at %s/\n", root)
	return nil
}

// CreateExample copies the bundled example called name to dest/name.
func (s *Scaffolder) CreateExample(ctx context.Context, name, dest string, opts ExampleOptions) (Layout, error) {
	entries, err := catalog.Lookup(s.assets, assets.ExamplesDir)
	if err != nil {
		return Layout{}, err
	}
	example, ok := catalog.Find(entries, name)
	if !ok {
		return Layout{}, errkind.Missing("example", name, "no example project '%s' could be found (available: %s)",
			name, strings.Join(catalog.Names(entries), ", "))
	}

	layout := NewLayout(projectRoot(name, dest), opts.Local, opts.Docs)

	var engine string
	if opts.Local {
		if engine, err = s.resolveEngine("example"); err != nil {
			return Layout{}, err
		}
	}
	if err := s.prepareRoot(ctx, "example", layout.Root, opts.Force); err != nil {
		return Layout{}, err
	}

	if err := s.actions.CopyTree(s.assets, path.Join(example.Path, "src"), layout.Src); err != nil {
		return Layout{}, err
	}
	if err := s.actions.CopyTree(s.assets, path.Join(example.Path, "test"), layout.Test); err != nil {
		return Layout{}, err
	}
	data, err := fs.ReadFile(s.assets, path.Join(example.Path, branding.ProjectFile()))
	if err != nil {
		return Layout{}, fmt.Errorf("reading example project file: %w", err)
	}
	if err := s.actions.WriteFile(layout.ProjectFile, data, 0o644); err != nil {
		return Layout{}, err
	}

	if opts.Local {
		if err := s.vendorTools(ctx, layout.Root, engine); err != nil {
			return Layout{}, err
		}
	}
	if opts.Docs {
		if err := s.copyDocs(layout.Root); err != nil {
			return Layout{}, err
		}
	}

	s.log.Logf("\n🌱 Example project '%s' created at %s/\n", name, layout.Root)
	return layout, nil
}

// ListExamples logs and returns the bundled example projects.
func (s *Scaffolder) ListExamples(ctx context.Context) ([]catalog.Entry, error) {
	entries, err := catalog.Lookup(s.assets, assets.ExamplesDir)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, errkind.Missing("examples", "", "no example projects found")
	}

	s.log.Log("\nAvailable example projects:")
	for _, name := range catalog.Names(entries) {
		s.log.Log(" - " + name)
	}
	s.log.Log("")
	return entries, nil
}

// prepareRoot refuses to touch an existing project unless force is set, in
// which case the whole root is removed.
func (s *Scaffolder) prepareRoot(ctx context.Context, op, root string, force bool) error {
	if force {
		s.log.DebugContext(ctx, "Removing existing project directory.", "path", root)
		return s.actions.RemoveAll(root)
	}

	exists, err := s.actions.Exists(filepath.Join(root, branding.ProjectFile()))
	if err != nil {
		return fmt.Errorf("checking %s: %w", root, err)
	}
	if !exists {
		if exists, err = s.dirExistsAny(filepath.Join(root, "src"), filepath.Join(root, "test")); err != nil {
			return err
		}
	}
	if exists {
		return errkind.Precondition(op, root,
			"it appears a project already exists at %s/. Use --force to destroy it and create a new project", root)
	}
	return nil
}

// resolveEngine returns the engine binary a vendored project runs.
func (s *Scaffolder) resolveEngine(op string) (string, error) {
	name := branding.EngineName()
	if s.engine != "" {
		return s.engine, nil
	}
	path, err := s.lookPath(name)
	if err != nil {
		return "", errkind.Missing(op, name, "cannot vendor tooling: %s not found on PATH", name)
	}
	return path, nil
}

func (s *Scaffolder) vendorTools(ctx context.Context, root, engine string) error {
	dir := vendorDir(root)
	s.log.DebugContext(ctx, "Vendoring tooling.", "path", dir)

	if err := s.actions.CopyTree(s.assets, assets.ToolingDir, dir); err != nil {
		return err
	}

	components, err := version.Read(s.assets, assets.VersionsFile)
	if err != nil {
		return err
	}
	if err := s.actions.WriteFile(versionMarker(root), []byte(components.Seedling.String()+"\n"), 0o644); err != nil {
		return err
	}

	if err := s.actions.CopyFile(engine, filepath.Join(dir, "bin", branding.EngineName())); err != nil {
		return fmt.Errorf("vendoring engine: %w", err)
	}
	if s.executable != "" {
		dst := filepath.Join(dir, "bin", branding.CLIName())
		if err := s.actions.CopyFile(s.executable, dst); err != nil {
			return fmt.Errorf("vendoring executable: %w", err)
		}
	}
	return nil
}

func (s *Scaffolder) copyDocs(root string) error {
	return s.actions.CopyTree(s.assets, assets.DocsDir, filepath.Join(root, "docs"))
}

// writeProjectFile renders the project file template and validates the
// result, logging any schema issues as warnings.
func (s *Scaffolder) writeProjectFile(ctx context.Context, layout Layout, name string, local bool) error {
	raw, err := fs.ReadFile(s.assets, assets.ProjectTemplate)
	if err != nil {
		return fmt.Errorf("reading project template: %w", err)
	}
	tmpl, err := template.New(path.Base(assets.ProjectTemplate)).Parse(string(raw))
	if err != nil {
		return fmt.Errorf("parsing project template: %w", err)
	}

	data := TemplateData{Name: name}
	if local {
		data.WhichTool = filepath.ToSlash(filepath.Join("vendor", branding.ToolDir()))
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("executing project template: %w", err)
	}
	if err := s.actions.WriteFile(layout.ProjectFile, buf.Bytes(), 0o644); err != nil {
		return err
	}

	if _, err := s.loader.LoadFile(ctx, layout.ProjectFile, false); err != nil {
		s.log.WarnContext(ctx, "Could not validate project file.", "path", layout.ProjectFile, "error", err)
	}
	return nil
}

// reportUpgrade logs the tooling version change. A downgrade is a warning.
func (s *Scaffolder) reportUpgrade(ctx context.Context, previous string) {
	components, err := version.Read(s.assets, assets.VersionsFile)
	if err != nil {
		return
	}
	current := components.Seedling.String()

	cmp, err := version.Compare(previous, current)
	if err != nil {
		s.log.WarnContext(ctx, "Could not read previous tooling version.", "version", previous, "error", err)
		return
	}
	switch {
	case cmp > 0:
		s.log.WarnContext(ctx, "Vendored tooling downgraded.", "from", previous, "to", current)
	case cmp < 0:
		s.log.Logf("Vendored tooling upgraded from %s to %s.", previous, current)
	default:
		s.log.DebugContext(ctx, "Vendored tooling reinstalled.", "version", current)
	}
}

func (s *Scaffolder) dirExistsAny(paths ...string) (bool, error) {
	for _, p := range paths {
		ok, err := s.actions.DirExists(p)
		if err != nil {
			return false, fmt.Errorf("checking %s: %w", p, err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func (s *Scaffolder) existsAll(paths ...string) (bool, error) {
	for _, p := range paths {
		ok, err := s.actions.Exists(p)
		if err != nil {
			return false, fmt.Errorf("checking %s: %w", p, err)
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func validateName(op, name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return errkind.Precondition(op, name, "invalid project name %q", name)
	}
	return nil
}

package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/seedling-build/seedling/internal/branding"
	"github.com/seedling-build/seedling/internal/engine"
	"github.com/seedling-build/seedling/internal/errkind"
	"github.com/seedling-build/seedling/internal/fsys"
	"github.com/seedling-build/seedling/internal/logging"
	"github.com/seedling-build/seedling/internal/projectconfig"
	"github.com/seedling-build/seedling/internal/runctx"
	"go.yaml.in/yaml/v3"
)

// ConfigLoader resolves project configuration.
type ConfigLoader interface {
	Load(ctx context.Context, opts projectconfig.LoadOptions) (string, *projectconfig.Config, error)
	Which(env projectconfig.Env, cfg *projectconfig.Config, projectFile string) (projectconfig.Which, error)
	Available(env projectconfig.Env) (bool, error)
}

// Engine is the build-task engine.
type Engine interface {
	Load(ctx context.Context, rc runctx.Context) (*projectconfig.Config, error)
	Run(ctx context.Context, tasks []string) error
	Tasks(ctx context.Context) ([]engine.Task, error)
}

// Verbosity receives the verbosity chosen for an invocation.
type Verbosity interface {
	SetVerbosity(v logging.Verbosity)
}

// AppConfig holds application-level defaults.
type AppConfig struct {
	// DefaultTasks run when neither the command line nor the project
	// configuration names any.
	DefaultTasks []string
}

// DefaultAppConfig returns the built-in application defaults.
func DefaultAppConfig() AppConfig {
	return AppConfig{DefaultTasks: []string{"test:all"}}
}

// ExecOptions are the flags of "seedling exec".
type ExecOptions struct {
	Project         string   // project file; empty uses the environment or project.yml
	Mixins          []string // applied after configured and environment mixins
	TestCase        []string // include filters
	ExcludeTestCase []string // exclude filters
	Log             bool     // log to <build_root>/logs/seedling.log
	Logfile         string   // log to this file; implies Log
	GracefulFail    *bool    // nil defers to test_build.graceful_fail
	Verbosity       string   // empty means normal
}

// DumpOptions are the flags of "seedling dumpconfig".
type DumpOptions struct {
	Project   string
	Mixins    []string
	Verbosity string
}

// TasksOptions are the flags of "seedling tasks".
type TasksOptions struct {
	Project   string
	Mixins    []string
	Verbosity string
}

// Pipeline orchestrates one invocation.
type Pipeline struct {
	app       AppConfig
	loader    ConfigLoader
	engine    Engine
	verbosity Verbosity
	fs        fsys.Actions
	log       *logging.Logger
}

// New creates a Pipeline.
func New(app AppConfig, loader ConfigLoader, eng Engine, verbosity Verbosity, actions fsys.Actions, log *logging.Logger) *Pipeline {
	return &Pipeline{
		app:       app,
		loader:    loader,
		engine:    eng,
		verbosity: verbosity,
		fs:        actions,
		log:       log,
	}
}

// Exec runs tasks with the full set of command line options. With no tasks
// the default tasks run.
func (p *Pipeline) Exec(ctx context.Context, env projectconfig.Env, opts ExecOptions, tasks []string) error {
	rc, err := p.resolveConfig(ctx, runctx.Context{}, env, opts.Project, opts.Mixins)
	if err != nil {
		return err
	}
	if rc, err = p.defaultTasks(rc, p.app.DefaultTasks); err != nil {
		return err
	}
	if rc, err = p.testCaseFilters(rc, opts.TestCase, opts.ExcludeTestCase, tasks); err != nil {
		return err
	}
	if rc, err = p.logDestination(rc, opts.Log, opts.Logfile); err != nil {
		return err
	}
	if rc, err = p.gracefulFail(rc, opts.GracefulFail, tasks); err != nil {
		return err
	}
	if rc, err = p.stopwatch(rc, tasks); err != nil {
		return err
	}
	if err := p.applyVerbosity(opts.Verbosity); err != nil {
		return err
	}
	if _, err := p.loadEngine(ctx, rc); err != nil {
		return err
	}
	return p.run(ctx, rc, tasks)
}

// ExecDefaults runs tasks using the default project file and no extra
// options, as when tasks are given without a command.
func (p *Pipeline) ExecDefaults(ctx context.Context, env projectconfig.Env, tasks []string) error {
	rc, err := p.resolveConfig(ctx, runctx.Context{}, env, "", nil)
	if err != nil {
		return err
	}
	if rc, err = p.defaultTasks(rc, p.app.DefaultTasks); err != nil {
		return err
	}
	if rc, err = p.stopwatch(rc, tasks); err != nil {
		return err
	}
	if err := p.applyVerbosity(""); err != nil {
		return err
	}
	if _, err := p.loadEngine(ctx, rc); err != nil {
		return err
	}
	return p.run(ctx, rc, tasks)
}

// DumpConfig writes the engine's view of the configuration to path as YAML.
// Sections, when given, are a path into the configuration; only the value
// at the end of the path is written, keyed by the last section name.
func (p *Pipeline) DumpConfig(ctx context.Context, env projectconfig.Env, opts DumpOptions, path string, sections []string) error {
	rc, err := p.resolveConfig(ctx, runctx.Context{}, env, opts.Project, opts.Mixins)
	if err != nil {
		return err
	}
	if rc, err = p.defaultTasks(rc, p.app.DefaultTasks); err != nil {
		return err
	}
	if err := p.applyVerbosity(opts.Verbosity); err != nil {
		return err
	}
	cfg, err := p.loadEngine(ctx, rc)
	if err != nil {
		return err
	}
	return p.dumpYAML(ctx, cfg, path, sections)
}

// ListTasks prints the engine's task catalog. The engine is loaded with the
// application default tasks rather than the project's.
func (p *Pipeline) ListTasks(ctx context.Context, env projectconfig.Env, opts TasksOptions) error {
	rc, err := p.resolveConfig(ctx, runctx.Context{}, env, opts.Project, opts.Mixins)
	if err != nil {
		return err
	}
	if rc, err = rc.WithDefaultTasks(p.app.DefaultTasks); err != nil {
		return err
	}
	if err := p.applyVerbosity(opts.Verbosity); err != nil {
		return err
	}
	if _, err := p.loadEngine(ctx, rc); err != nil {
		return err
	}

	tasks, err := p.engine.Tasks(ctx)
	if err != nil {
		return err
	}
	p.log.Log("Build operations:")
	p.printTasks(tasks)
	return nil
}

// Help renders command help. Without a command it also lists build tasks
// when a project file is available; failing to determine availability skips
// the listing.
func (p *Pipeline) Help(ctx context.Context, env projectconfig.Env, command string, render func(command string) error) error {
	if command != "" {
		return render(command)
	}
	if err := render(""); err != nil {
		return err
	}

	available, err := p.loader.Available(env)
	if err != nil {
		p.log.DebugContext(ctx, "Skipping build task listing.", "error", err)
		return nil
	}
	if !available {
		return nil
	}
	return p.ListTasks(ctx, env, TasksOptions{})
}

// Stages

func (p *Pipeline) resolveConfig(ctx context.Context, rc runctx.Context, env projectconfig.Env, project string, mixins []string) (runctx.Context, error) {
	projectFile, cfg, err := p.loader.Load(ctx, projectconfig.LoadOptions{
		Filepath: project,
		Mixins:   mixins,
		Env:      env,
	})
	if err != nil {
		return rc, err
	}
	if rc, err = rc.WithConfig(projectFile, cfg); err != nil {
		return rc, err
	}

	which, err := p.loader.Which(env, cfg, projectFile)
	if err != nil {
		return rc, err
	}
	if which.System {
		return rc.WithMode(runctx.ModeSystem, "")
	}
	return rc.WithMode(runctx.ModeVendored, which.Path)
}

func (p *Pipeline) defaultTasks(rc runctx.Context, fallback []string) (runctx.Context, error) {
	return rc.WithDefaultTasks(projectconfig.DefaultTasks(rc.Config(), fallback))
}

// testCaseFilters combines configured filters with command line filters.
// Command line filters need a test task to apply to.
func (p *Pipeline) testCaseFilters(rc runctx.Context, include, exclude, tasks []string) (runctx.Context, error) {
	if len(include) > 0 || len(exclude) > 0 {
		effective := effectiveTasks(rc, tasks)
		if !hasTestTask(effective) {
			return rc, errkind.Precondition("exec", "",
				"test case filters specified without any test tasks (tasks: %s)", strings.Join(effective, ", "))
		}
	}

	cfg := rc.Config()
	return rc.WithFilters(runctx.Filters{
		Include: dedupe(cfg.Strings(projectconfig.SectionTestRunner, "include_test_case"), include),
		Exclude: dedupe(cfg.Strings(projectconfig.SectionTestRunner, "exclude_test_case"), exclude),
	})
}

// logDestination leaves the log file unset unless logging was requested.
// An explicit log file implies logging. The log directory is created.
func (p *Pipeline) logDestination(rc runctx.Context, log bool, logfile string) (runctx.Context, error) {
	path := logfile
	if path == "" {
		if !log {
			return rc, nil
		}
		buildRoot := rc.Config().String(projectconfig.SectionProject, "build_root")
		if buildRoot == "" {
			buildRoot = "build"
		}
		if !filepath.IsAbs(buildRoot) {
			buildRoot = filepath.Join(filepath.Dir(rc.ProjectFile()), buildRoot)
		}
		path = filepath.Join(buildRoot, "logs", branding.LogFile())
	}

	if err := p.fs.MkdirAll(filepath.Dir(path)); err != nil {
		return rc, fmt.Errorf("preparing log file: %w", err)
	}
	return rc.WithLogFile(path)
}

// gracefulFail prefers the command line, then test_build.graceful_fail.
// Requesting it on the command line needs a test task to apply to.
func (p *Pipeline) gracefulFail(rc runctx.Context, cli *bool, tasks []string) (runctx.Context, error) {
	if cli != nil {
		if effective := effectiveTasks(rc, tasks); *cli && !hasTestTask(effective) {
			return rc, errkind.Precondition("exec", "",
				"--graceful-fail specified without any test tasks (tasks: %s)", strings.Join(effective, ", "))
		}
		return rc.WithGracefulFail(*cli)
	}
	v, _ := rc.Config().Bool(projectconfig.SectionTestBuild, "graceful_fail")
	return rc.WithGracefulFail(v)
}

// stopwatch enables timing when the project asks for it or when any
// namespaced task other than files: and paths: will run.
func (p *Pipeline) stopwatch(rc runctx.Context, tasks []string) (runctx.Context, error) {
	if v, _ := rc.Config().Bool(projectconfig.SectionProject, "stopwatch"); v {
		return rc.WithStopwatch(true)
	}
	timed := slices.ContainsFunc(effectiveTasks(rc, tasks), func(t string) bool {
		return strings.Contains(t, ":") && !strings.HasPrefix(t, "files:") && !strings.HasPrefix(t, "paths:")
	})
	return rc.WithStopwatch(timed)
}

func (p *Pipeline) applyVerbosity(name string) error {
	v, err := logging.ParseVerbosity(name)
	if err != nil {
		return errkind.Precondition("verbosity", "", "%v", err)
	}
	p.verbosity.SetVerbosity(v)
	return nil
}

func (p *Pipeline) loadEngine(ctx context.Context, rc runctx.Context) (*projectconfig.Config, error) {
	cfg, err := p.engine.Load(ctx, rc)
	if err != nil {
		return nil, fmt.Errorf("loading build engine: %w", err)
	}
	return cfg, nil
}

func (p *Pipeline) run(ctx context.Context, rc runctx.Context, tasks []string) error {
	return p.engine.Run(ctx, effectiveTasks(rc, tasks))
}

func (p *Pipeline) dumpYAML(ctx context.Context, cfg *projectconfig.Config, path string, sections []string) error {
	var doc any = cfg.Map()
	if len(sections) > 0 {
		value, ok := cfg.Lookup(sections...)
		if !ok {
			names := make([]string, len(sections))
			for i, s := range sections {
				names[i] = ":" + s
			}
			return errkind.Missing("dumpconfig", strings.Join(sections, ":"),
				"could not find configuration section %s", strings.Join(names, " ↳ "))
		}
		doc = map[string]any{strings.ToLower(sections[len(sections)-1]): value}
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding configuration: %w", err)
	}
	if err := p.fs.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	p.log.DebugContext(ctx, "Configuration dumped.", "path", path, "sections", sections)
	return nil
}

func (p *Pipeline) printTasks(tasks []engine.Task) {
	width := 0
	for _, t := range tasks {
		width = max(width, len(t.Name))
	}
	for _, t := range tasks {
		if t.Description == "" {
			p.log.Logf("%s %s", branding.CLIName(), t.Name)
			continue
		}
		p.log.Logf("%s %-*s  # %s", branding.CLIName(), width, t.Name, t.Description)
	}
}

// effectiveTasks is tasks, or the run context's default tasks when tasks is
// empty.
func effectiveTasks(rc runctx.Context, tasks []string) []string {
	if len(tasks) > 0 {
		return tasks
	}
	return rc.DefaultTasks()
}

// dedupe concatenates lists, keeping the first occurrence of each value.
func hasTestTask(tasks []string) bool {
	return slices.ContainsFunc(tasks, func(t string) bool { return strings.HasPrefix(t, "test:") })
}

func dedupe(lists ...[]string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, list := range lists {
		for _, v := range list {
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	return out
}

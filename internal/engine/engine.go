package engine

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/seedling-build/seedling/internal/branding"
	"github.com/seedling-build/seedling/internal/errkind"
	"github.com/seedling-build/seedling/internal/projectconfig"
	"github.com/seedling-build/seedling/internal/runctx"
	"github.com/spf13/afero"
	"go.yaml.in/yaml/v3"
)

// Task is one entry of the engine's task catalog.
type Task struct {
	Name        string
	Description string
}

// RunError reports a non-zero exit from the engine.
type RunError struct {
	ExitCode int
	Tasks    []string
}

func (e *RunError) Error() string {
	return fmt.Sprintf("build tasks %s failed with exit code %d", strings.Join(e.Tasks, " "), e.ExitCode)
}

// ErrNotLoaded is returned when Run or Tasks is called before Load.
var ErrNotLoaded = errors.New("engine not loaded")

// Exec drives the engine as a child process.
type Exec struct {
	// Stdout and Stderr receive engine output; default os.Stdout/os.Stderr.
	Stdout io.Writer
	Stderr io.Writer

	fs       afero.Fs
	log      *slog.Logger
	lookPath func(string) (string, error)

	loaded bool
	rc     runctx.Context
	config *projectconfig.Config
}

// New creates an engine adapter. The filesystem holds the project and the
// temporary configuration handed to the engine.
func New(fs afero.Fs, log *slog.Logger) *Exec {
	if log == nil {
		log = slog.Default()
	}
	return &Exec{fs: fs, log: log, lookPath: exec.LookPath}
}

// Load records the run context and returns the configuration the engine will
// see: the project configuration with defaults filled in and run-time
// settings applied.
func (e *Exec) Load(ctx context.Context, rc runctx.Context) (*projectconfig.Config, error) {
	cfg := rc.Config()
	if cfg == nil {
		cfg = projectconfig.New(nil)
	}

	cfg = cfg.WithDefaults(map[string]any{
		projectconfig.SectionProject: map[string]any{
			"build_root":       "build",
			"test_file_prefix": "test_",
			"use_mocks":        false,
			"use_exceptions":   false,
			"default_tasks":    rc.DefaultTasks(),
		},
		"paths": map[string]any{
			"test":    []any{"test/**"},
			"source":  []any{"src/**"},
			"support": []any{"test/support"},
			"include": []any{},
		},
		projectconfig.SectionTestRunner: map[string]any{
			"cmdline_args": false,
		},
	})

	if rc.IsSet(runctx.FieldGracefulFail) {
		cfg = cfg.Set(rc.GracefulFail(), projectconfig.SectionTestBuild, "graceful_fail")
	}
	if rc.IsSet(runctx.FieldStopwatch) {
		cfg = cfg.Set(rc.Stopwatch(), projectconfig.SectionProject, "stopwatch")
	}
	if f := rc.Filters(); !f.Empty() {
		cfg = cfg.
			Set(true, projectconfig.SectionTestRunner, "cmdline_args").
			Set(f.Include, projectconfig.SectionTestRunner, "include_test_case").
			Set(f.Exclude, projectconfig.SectionTestRunner, "exclude_test_case")
	}

	e.loaded = true
	e.rc = rc
	e.config = cfg
	e.log.DebugContext(ctx, "Engine configuration loaded.", "project", rc.ProjectFile(), "mode", rc.Mode().String())
	return cfg, nil
}

// Run executes tasks and streams the engine's output.
func (e *Exec) Run(ctx context.Context, tasks []string) error {
	if !e.loaded {
		return ErrNotLoaded
	}
	exe, err := e.executable()
	if err != nil {
		return err
	}

	configPath, cleanup, err := e.writeConfig()
	if err != nil {
		return err
	}
	defer cleanup()

	args := append(e.runArgs(configPath), "--")
	args = append(args, tasks...)

	cmd := e.command(ctx, exe, args)
	cmd.Stdout = writerOr(e.Stdout, os.Stdout)
	cmd.Stderr = writerOr(e.Stderr, os.Stderr)

	e.log.InfoContext(ctx, "Running build tasks.", "tasks", strings.Join(tasks, " "))
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &RunError{ExitCode: exitErr.ExitCode(), Tasks: tasks}
		}
		return fmt.Errorf("executing %s: %w", exe, err)
	}
	return nil
}

// Tasks asks the engine for its task catalog.
func (e *Exec) Tasks(ctx context.Context) ([]Task, error) {
	if !e.loaded {
		return nil, ErrNotLoaded
	}
	exe, err := e.executable()
	if err != nil {
		return nil, err
	}

	configPath, cleanup, err := e.writeConfig()
	if err != nil {
		return nil, err
	}
	defer cleanup()

	var stdout bytes.Buffer
	cmd := e.command(ctx, exe, []string{"--config", configPath, "--list-tasks"})
	cmd.Stdout = &stdout
	cmd.Stderr = writerOr(e.Stderr, os.Stderr)

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("listing tasks with %s: %w", exe, err)
	}
	return ParseTasks(&stdout)
}

// ParseTasks reads "name<TAB>description" lines. Blank lines are skipped and
// a line without a tab is a task with no description.
func ParseTasks(r io.Reader) ([]Task, error) {
	var tasks []Task
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		name, desc, _ := strings.Cut(line, "\t")
		tasks = append(tasks, Task{Name: strings.TrimSpace(name), Description: strings.TrimSpace(desc)})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading task list: %w", err)
	}
	return tasks, nil
}

func (e *Exec) runArgs(configPath string) []string {
	args := []string{"--config", configPath}
	if lf := e.rc.LogFile(); lf != "" {
		args = append(args, "--log", lf)
	}
	if e.rc.GracefulFail() {
		args = append(args, "--graceful-fail")
	}
	if e.rc.Stopwatch() {
		args = append(args, "--stopwatch")
	}
	f := e.rc.Filters()
	for _, p := range f.Include {
		args = append(args, "--include-test-case", p)
	}
	for _, p := range f.Exclude {
		args = append(args, "--exclude-test-case", p)
	}
	return args
}

func (e *Exec) command(ctx context.Context, exe string, args []string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, exe, args...)
	cmd.Dir = e.projectRoot()
	cmd.Env = append(os.Environ(),
		branding.EnvVar("PROJECT_FILE")+"="+e.rc.ProjectFile(),
		branding.EnvVar("PROJECT_ROOT")+"="+e.projectRoot(),
	)
	return cmd
}

func (e *Exec) projectRoot() string {
	if pf := e.rc.ProjectFile(); pf != "" {
		return filepath.Dir(pf)
	}
	return "."
}

// executable resolves the engine binary for the loaded mode.
func (e *Exec) executable() (string, error) {
	name := branding.EngineName()
	if e.rc.Mode() == runctx.ModeVendored {
		dir := e.rc.ToolPath()
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(e.projectRoot(), dir)
		}
		path := filepath.Join(dir, "bin", name)
		ok, err := afero.Exists(e.fs, path)
		if err != nil {
			return "", fmt.Errorf("checking %s: %w", path, err)
		}
		if !ok {
			return "", errkind.Missing("engine", path, "vendored engine not found at %s", path)
		}
		return path, nil
	}

	path, err := e.lookPath(name)
	if err != nil {
		return "", errkind.Missing("engine", name, "%s not found on PATH", name)
	}
	return path, nil
}

// writeConfig writes the loaded configuration to a temporary YAML file.
func (e *Exec) writeConfig() (string, func(), error) {
	data, err := yaml.Marshal(e.config.Map())
	if err != nil {
		return "", nil, fmt.Errorf("encoding engine configuration: %w", err)
	}

	f, err := afero.TempFile(e.fs, "", branding.CLIName()+"-*.yml")
	if err != nil {
		return "", nil, fmt.Errorf("creating engine configuration: %w", err)
	}
	name := f.Name()
	cleanup := func() { _ = e.fs.Remove(name) }

	if _, err := f.Write(data); err != nil {
		f.Close()
		cleanup()
		return "", nil, fmt.Errorf("writing engine configuration: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("writing engine configuration: %w", err)
	}
	return name, cleanup, nil
}

func writerOr(w, fallback io.Writer) io.Writer {
	if w != nil {
		return w
	}
	return fallback
}

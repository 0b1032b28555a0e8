package pipeline

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/seedling-build/seedling/internal/engine"
	"github.com/seedling-build/seedling/internal/errkind"
	"github.com/seedling-build/seedling/internal/fsys"
	"github.com/seedling-build/seedling/internal/logging"
	"github.com/seedling-build/seedling/internal/projectconfig"
	"github.com/seedling-build/seedling/internal/runctx"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"
)

const projectFile = "/work/project.yml"

// fakeLoader returns a fixed configuration and records what it was asked.
type fakeLoader struct {
	cfg          *projectconfig.Config
	loadErr      error
	which        projectconfig.Which
	available    bool
	availableErr error

	loadOpts       projectconfig.LoadOptions
	loadCalls      int
	availableCalls int
	calls          *[]string
}

func (f *fakeLoader) Load(_ context.Context, opts projectconfig.LoadOptions) (string, *projectconfig.Config, error) {
	f.loadCalls++
	f.loadOpts = opts
	record(f.calls, "config")
	if f.loadErr != nil {
		return "", nil, f.loadErr
	}
	return projectFile, f.cfg, nil
}

func (f *fakeLoader) Which(projectconfig.Env, *projectconfig.Config, string) (projectconfig.Which, error) {
	return f.which, nil
}

func (f *fakeLoader) Available(projectconfig.Env) (bool, error) {
	f.availableCalls++
	return f.available, f.availableErr
}

// fakeEngine records the run context it was loaded with and the tasks run.
type fakeEngine struct {
	normalized *projectconfig.Config
	tasks      []engine.Task

	loaded    bool
	rc        runctx.Context
	ran       [][]string
	listCalls int
	calls     *[]string
}

func (f *fakeEngine) Load(_ context.Context, rc runctx.Context) (*projectconfig.Config, error) {
	record(f.calls, "engine")
	f.loaded = true
	f.rc = rc
	if f.normalized != nil {
		return f.normalized, nil
	}
	return rc.Config(), nil
}

func (f *fakeEngine) Run(_ context.Context, tasks []string) error {
	f.ran = append(f.ran, tasks)
	return nil
}

func (f *fakeEngine) Tasks(context.Context) ([]engine.Task, error) {
	f.listCalls++
	return f.tasks, nil
}

type fakeVerbosity struct {
	set   []logging.Verbosity
	calls *[]string
}

func (f *fakeVerbosity) SetVerbosity(v logging.Verbosity) {
	record(f.calls, "verbosity")
	f.set = append(f.set, v)
}

func record(calls *[]string, name string) {
	if calls != nil {
		*calls = append(*calls, name)
	}
}

type harness struct {
	p         *Pipeline
	loader    *fakeLoader
	engine    *fakeEngine
	verbosity *fakeVerbosity
	fs        *fsys.Local
	out       *bytes.Buffer
	calls     []string
}

func newHarness(t *testing.T, cfg map[string]any) *harness {
	t.Helper()
	h := &harness{out: &bytes.Buffer{}}
	h.loader = &fakeLoader{cfg: projectconfig.New(cfg), which: projectconfig.Which{System: true}, calls: &h.calls}
	h.engine = &fakeEngine{calls: &h.calls}
	h.verbosity = &fakeVerbosity{calls: &h.calls}
	h.fs = fsys.New(afero.NewMemMapFs())
	log := logging.New(h.out, io.Discard, "text")
	h.p = New(DefaultAppConfig(), h.loader, h.engine, h.verbosity, h.fs, log)
	return h
}

func projectDefaults(tasks ...any) map[string]any {
	return map[string]any{"project": map[string]any{"default_tasks": tasks}}
}

func TestExec_ConfiguredDefaultTasksWin(t *testing.T) {
	h := newHarness(t, projectDefaults("test:a", "test:b"))
	h.p.app = AppConfig{DefaultTasks: []string{"test:a"}}

	require.NoError(t, h.p.Exec(context.Background(), nil, ExecOptions{}, nil))

	require.Equal(t, []string{"test:a", "test:b"}, h.engine.rc.DefaultTasks())
	require.Equal(t, [][]string{{"test:a", "test:b"}}, h.engine.ran)
}

func TestExec_FallbackDefaultTasks(t *testing.T) {
	h := newHarness(t, map[string]any{"project": map[string]any{}})

	require.NoError(t, h.p.Exec(context.Background(), nil, ExecOptions{}, nil))
	require.Equal(t, [][]string{{"test:all"}}, h.engine.ran)
}

func TestExec_ExplicitTasks(t *testing.T) {
	h := newHarness(t, projectDefaults("test:all"))

	require.NoError(t, h.p.Exec(context.Background(), nil, ExecOptions{}, []string{"clobber", "release"}))
	require.Equal(t, [][]string{{"clobber", "release"}}, h.engine.ran)
	require.Equal(t, []string{"test:all"}, h.engine.rc.DefaultTasks())
}

func TestExec_PassesLoadOptions(t *testing.T) {
	h := newHarness(t, nil)
	env := projectconfig.Env{"SEEDLING_MIXIN_1": "ci"}

	opts := ExecOptions{Project: "alt.yml", Mixins: []string{"gcc"}}
	require.NoError(t, h.p.Exec(context.Background(), env, opts, nil))

	require.Equal(t, "alt.yml", h.loader.loadOpts.Filepath)
	require.Equal(t, []string{"gcc"}, h.loader.loadOpts.Mixins)
	require.Equal(t, env, h.loader.loadOpts.Env)
	require.Equal(t, projectFile, h.engine.rc.ProjectFile())
}

func TestExec_Mode(t *testing.T) {
	h := newHarness(t, nil)
	h.loader.which = projectconfig.Which{Path: "vendor/seedling"}

	require.NoError(t, h.p.Exec(context.Background(), nil, ExecOptions{}, nil))
	require.Equal(t, runctx.ModeVendored, h.engine.rc.Mode())
	require.Equal(t, "vendor/seedling", h.engine.rc.ToolPath())
}

func TestExec_GracefulFail(t *testing.T) {
	yes, no := true, false
	tests := []struct {
		name   string
		config any
		cli    *bool
		want   bool
	}{
		{"cli true overrides config false", false, &yes, true},
		{"cli false overrides config true", true, &no, false},
		{"config true without cli", true, nil, true},
		{"default false", nil, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := map[string]any{"project": map[string]any{}}
			if tt.config != nil {
				cfg["test_build"] = map[string]any{"graceful_fail": tt.config}
			}
			h := newHarness(t, cfg)

			require.NoError(t, h.p.Exec(context.Background(), nil, ExecOptions{GracefulFail: tt.cli}, nil))
			require.True(t, h.engine.rc.IsSet(runctx.FieldGracefulFail))
			require.Equal(t, tt.want, h.engine.rc.GracefulFail())

			got, _ := h.loader.cfg.Bool("test_build", "graceful_fail")
			require.Equal(t, tt.config == true, got, "configuration must not be mutated")
		})
	}
}

func TestExec_GracefulFailNeedsTestTask(t *testing.T) {
	yes, no := true, false

	t.Run("explicit non-test tasks", func(t *testing.T) {
		h := newHarness(t, projectDefaults("test:all"))
		err := h.p.Exec(context.Background(), nil, ExecOptions{GracefulFail: &yes}, []string{"release"})
		require.ErrorIs(t, err, errkind.ErrPreconditionViolation)
		require.Nil(t, h.engine.rc.Config(), "engine must not be loaded")
	})

	t.Run("non-test default tasks", func(t *testing.T) {
		h := newHarness(t, projectDefaults("release"))
		err := h.p.Exec(context.Background(), nil, ExecOptions{GracefulFail: &yes}, nil)
		require.ErrorIs(t, err, errkind.ErrPreconditionViolation)
	})

	t.Run("disabling needs no test task", func(t *testing.T) {
		h := newHarness(t, projectDefaults("release"))
		require.NoError(t, h.p.Exec(context.Background(), nil, ExecOptions{GracefulFail: &no}, nil))
		require.False(t, h.engine.rc.GracefulFail())
	})

	t.Run("configured default ignores tasks", func(t *testing.T) {
		cfg := projectDefaults("release")
		cfg["test_build"] = map[string]any{"graceful_fail": true}
		h := newHarness(t, cfg)
		require.NoError(t, h.p.Exec(context.Background(), nil, ExecOptions{}, nil))
		require.True(t, h.engine.rc.GracefulFail())
	})
}

func TestExec_TestCaseFilters(t *testing.T) {
	cfg := map[string]any{
		"project":     map[string]any{"default_tasks": []any{"test:all"}},
		"test_runner": map[string]any{"include_test_case": []any{"test_config", "test_shared"}},
	}

	t.Run("merged with configuration", func(t *testing.T) {
		h := newHarness(t, cfg)
		opts := ExecOptions{TestCase: []string{"test_shared", "test_cli"}, ExcludeTestCase: []string{"test_slow"}}

		require.NoError(t, h.p.Exec(context.Background(), nil, opts, nil))
		f := h.engine.rc.Filters()
		require.Equal(t, []string{"test_config", "test_shared", "test_cli"}, f.Include)
		require.Equal(t, []string{"test_slow"}, f.Exclude)
	})

	t.Run("explicit test task", func(t *testing.T) {
		h := newHarness(t, projectDefaults("release"))
		opts := ExecOptions{TestCase: []string{"test_x"}}

		require.NoError(t, h.p.Exec(context.Background(), nil, opts, []string{"test:unit"}))
	})

	t.Run("no test task", func(t *testing.T) {
		h := newHarness(t, projectDefaults("release"))
		opts := ExecOptions{ExcludeTestCase: []string{"test_x"}}

		err := h.p.Exec(context.Background(), nil, opts, nil)
		require.ErrorIs(t, err, errkind.ErrPreconditionViolation)
		require.False(t, h.engine.loaded, "engine must not load after a failed stage")
	})

	t.Run("explicit tasks replace defaults", func(t *testing.T) {
		h := newHarness(t, projectDefaults("test:all"))
		opts := ExecOptions{TestCase: []string{"test_x"}}

		err := h.p.Exec(context.Background(), nil, opts, []string{"clobber"})
		require.ErrorIs(t, err, errkind.ErrPreconditionViolation)
	})

	t.Run("configured filters alone need no test task", func(t *testing.T) {
		h := newHarness(t, cfg)

		require.NoError(t, h.p.Exec(context.Background(), nil, ExecOptions{}, []string{"release"}))
		require.Equal(t, []string{"test_config", "test_shared"}, h.engine.rc.Filters().Include)
	})
}

func TestExec_LogDestination(t *testing.T) {
	cfg := map[string]any{"project": map[string]any{"build_root": "out"}}

	t.Run("not requested", func(t *testing.T) {
		h := newHarness(t, cfg)
		require.NoError(t, h.p.Exec(context.Background(), nil, ExecOptions{}, nil))
		require.False(t, h.engine.rc.IsSet(runctx.FieldLogFile))
		require.Empty(t, h.engine.rc.LogFile())
	})

	t.Run("default path", func(t *testing.T) {
		h := newHarness(t, cfg)
		require.NoError(t, h.p.Exec(context.Background(), nil, ExecOptions{Log: true}, nil))
		require.Equal(t, "/work/out/logs/seedling.log", h.engine.rc.LogFile())

		ok, err := h.fs.DirExists("/work/out/logs")
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("logfile implies logging", func(t *testing.T) {
		h := newHarness(t, cfg)
		require.NoError(t, h.p.Exec(context.Background(), nil, ExecOptions{Logfile: "/tmp/ci/run.log"}, nil))
		require.Equal(t, "/tmp/ci/run.log", h.engine.rc.LogFile())

		ok, err := h.fs.DirExists("/tmp/ci")
		require.NoError(t, err)
		require.True(t, ok)
	})
}

func TestExec_Stopwatch(t *testing.T) {
	tests := []struct {
		name  string
		cfg   map[string]any
		tasks []string
		want  bool
	}{
		{"namespaced task", nil, []string{"test:all"}, true},
		{"plain tasks", nil, []string{"clobber", "release"}, false},
		{"files and paths tasks", nil, []string{"files:source", "paths:test"}, false},
		{"mixed", nil, []string{"files:source", "test:unit"}, true},
		{"defaults used when no tasks", projectDefaults("test:all"), nil, true},
		{"configured", map[string]any{"project": map[string]any{"stopwatch": true}}, []string{"clobber"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, tt.cfg)
			require.NoError(t, h.p.Exec(context.Background(), nil, ExecOptions{}, tt.tasks))
			require.Equal(t, tt.want, h.engine.rc.Stopwatch())
		})
	}
}

func TestExec_StageOrder(t *testing.T) {
	h := newHarness(t, nil)

	require.NoError(t, h.p.Exec(context.Background(), nil, ExecOptions{Verbosity: "obnoxious"}, nil))
	require.Equal(t, []string{"config", "verbosity", "engine"}, h.calls)
	require.Equal(t, []logging.Verbosity{logging.Obnoxious}, h.verbosity.set)
}

func TestExec_InvalidVerbosity(t *testing.T) {
	h := newHarness(t, nil)

	err := h.p.Exec(context.Background(), nil, ExecOptions{Verbosity: "shouty"}, nil)
	require.ErrorIs(t, err, errkind.ErrPreconditionViolation)
	require.False(t, h.engine.loaded)
}

func TestExec_ConfigFailureAborts(t *testing.T) {
	h := newHarness(t, nil)
	h.loader.loadErr = errkind.Missing("config", "/work/project.yml", "could not find project file")

	err := h.p.Exec(context.Background(), nil, ExecOptions{}, nil)
	require.ErrorIs(t, err, errkind.ErrMissingArtifact)
	require.Empty(t, h.verbosity.set)
	require.False(t, h.engine.loaded)
}

func TestExecDefaults(t *testing.T) {
	h := newHarness(t, projectDefaults("test:a", "test:b"))

	require.NoError(t, h.p.ExecDefaults(context.Background(), nil, nil))
	require.Empty(t, h.loader.loadOpts.Filepath)
	require.Empty(t, h.loader.loadOpts.Mixins)
	require.Equal(t, [][]string{{"test:a", "test:b"}}, h.engine.ran)
	require.Equal(t, []logging.Verbosity{logging.Normal}, h.verbosity.set)
	require.True(t, h.engine.rc.Stopwatch())
	require.False(t, h.engine.rc.IsSet(runctx.FieldFilters))
	require.False(t, h.engine.rc.IsSet(runctx.FieldGracefulFail))
}

func dumpCfg() map[string]any {
	return map[string]any{
		"project": map[string]any{"build_root": "build", "default_tasks": []any{"test:all"}},
		"paths":   map[string]any{"source": []any{"src/**"}},
		"plugins": map[string]any{"enabled": []any{"report_tests_pretty_stdout"}},
	}
}

func readYAML(t *testing.T, h *harness, path string) map[string]any {
	t.Helper()
	data, err := h.fs.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(data, &doc))
	return doc
}

func TestDumpConfig_Section(t *testing.T) {
	h := newHarness(t, dumpCfg())

	require.NoError(t, h.p.DumpConfig(context.Background(), nil, DumpOptions{}, "/out/config.yml", []string{"plugins"}))

	doc := readYAML(t, h, "/out/config.yml")
	require.Len(t, doc, 1)
	require.Contains(t, doc, "plugins")
}

func TestDumpConfig_Everything(t *testing.T) {
	h := newHarness(t, dumpCfg())

	require.NoError(t, h.p.DumpConfig(context.Background(), nil, DumpOptions{}, "/out/config.yml", nil))

	doc := readYAML(t, h, "/out/config.yml")
	require.Len(t, doc, 3)
}

func TestDumpConfig_SectionPath(t *testing.T) {
	h := newHarness(t, dumpCfg())

	require.NoError(t, h.p.DumpConfig(context.Background(), nil, DumpOptions{}, "/out/config.yml", []string{"project", "build_root"}))

	require.Equal(t, map[string]any{"build_root": "build"}, readYAML(t, h, "/out/config.yml"))
}

func TestDumpConfig_UsesEngineConfiguration(t *testing.T) {
	h := newHarness(t, dumpCfg())
	h.engine.normalized = projectconfig.New(dumpCfg()).WithDefaults(map[string]any{
		"project": map[string]any{"test_file_prefix": "test_"},
	})

	require.NoError(t, h.p.DumpConfig(context.Background(), nil, DumpOptions{}, "/out/config.yml", []string{"project"}))

	doc := readYAML(t, h, "/out/config.yml")
	project, ok := doc["project"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "test_", project["test_file_prefix"])
}

func TestDumpConfig_MissingSection(t *testing.T) {
	h := newHarness(t, dumpCfg())

	err := h.p.DumpConfig(context.Background(), nil, DumpOptions{}, "/out/config.yml", []string{"tools", "gcc"})
	require.ErrorIs(t, err, errkind.ErrMissingArtifact)
	require.Contains(t, err.Error(), ":tools ↳ :gcc")

	ok, _ := h.fs.Exists("/out/config.yml")
	require.False(t, ok)
}

func TestListTasks(t *testing.T) {
	h := newHarness(t, projectDefaults("release"))
	h.engine.tasks = []engine.Task{
		{Name: "test:all", Description: "Run all unit tests"},
		{Name: "clobber", Description: "Delete all build artifacts"},
		{Name: "summary"},
	}

	require.NoError(t, h.p.ListTasks(context.Background(), nil, TasksOptions{Verbosity: "normal"}))

	require.Equal(t, []string{"test:all"}, h.engine.rc.DefaultTasks(), "engine loads with application defaults")
	out := h.out.String()
	require.Contains(t, out, "Build operations:\n")
	require.Contains(t, out, "seedling test:all  # Run all unit tests\n")
	require.Contains(t, out, "seedling clobber   # Delete all build artifacts\n")
	require.Contains(t, out, "seedling summary\n")
	require.Empty(t, h.engine.ran)
}

func TestHelp(t *testing.T) {
	t.Run("command help only", func(t *testing.T) {
		h := newHarness(t, nil)
		h.loader.available = true
		var rendered []string

		err := h.p.Help(context.Background(), nil, "exec", func(c string) error {
			rendered = append(rendered, c)
			return nil
		})
		require.NoError(t, err)
		require.Equal(t, []string{"exec"}, rendered)
		require.Zero(t, h.loader.availableCalls)
		require.Zero(t, h.engine.listCalls)
	})

	t.Run("lists tasks when configuration available", func(t *testing.T) {
		h := newHarness(t, nil)
		h.loader.available = true
		h.engine.tasks = []engine.Task{{Name: "test:all"}}
		var rendered []string

		err := h.p.Help(context.Background(), nil, "", func(c string) error {
			rendered = append(rendered, c)
			return nil
		})
		require.NoError(t, err)
		require.Equal(t, []string{""}, rendered)
		require.Equal(t, 1, h.engine.listCalls)
		require.Contains(t, h.out.String(), "Build operations:")
	})

	t.Run("no configuration", func(t *testing.T) {
		h := newHarness(t, nil)

		require.NoError(t, h.p.Help(context.Background(), nil, "", func(string) error { return nil }))
		require.Zero(t, h.loader.loadCalls)
		require.Zero(t, h.engine.listCalls)
	})

	t.Run("availability error skips listing", func(t *testing.T) {
		h := newHarness(t, nil)
		h.loader.availableErr = errors.New("bad environment")

		require.NoError(t, h.p.Help(context.Background(), nil, "", func(string) error { return nil }))
		require.Zero(t, h.engine.listCalls)
	})

	t.Run("render error", func(t *testing.T) {
		h := newHarness(t, nil)
		boom := errors.New("boom")

		require.ErrorIs(t, h.p.Help(context.Background(), nil, "", func(string) error { return boom }), boom)
		require.Zero(t, h.loader.availableCalls)
	})
}

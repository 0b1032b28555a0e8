// Package runctx holds the per-invocation run context threaded through the
// execution pipeline. A Context is a value: every With method returns an
// updated copy, and each field can be written exactly once.
package runctx

import (
	"errors"
	"fmt"
	"slices"

	"github.com/seedling-build/seedling/internal/projectconfig"
)

// ErrAlreadySet is returned when a stage writes a field a previous stage
// already wrote.
var ErrAlreadySet = errors.New("run context field already set")

// Mode selects which build tooling installation drives the invocation.
type Mode int

const (
	ModeSystem Mode = iota
	ModeVendored
)

func (m Mode) String() string {
	switch m {
	case ModeVendored:
		return "vendored"
	default:
		return "system"
	}
}

// Field identifies a writable run context field.
type Field uint16

const (
	FieldConfig Field = 1 << iota
	FieldMode
	FieldDefaultTasks
	FieldFilters
	FieldLogFile
	FieldGracefulFail
	FieldStopwatch
)

var fieldNames = map[Field]string{
	FieldConfig:       "config",
	FieldMode:         "mode",
	FieldDefaultTasks: "default_tasks",
	FieldFilters:      "test_case_filters",
	FieldLogFile:      "log_filepath",
	FieldGracefulFail: "graceful_fail",
	FieldStopwatch:    "stopwatch",
}

func (f Field) String() string { return fieldNames[f] }

// Filters restricts which test cases a run executes.
type Filters struct {
	Include []string
	Exclude []string
}

// Empty reports whether neither include nor exclude patterns are present.
func (f Filters) Empty() bool { return len(f.Include) == 0 && len(f.Exclude) == 0 }

// Context is the run context for one invocation.
type Context struct {
	set Field

	projectFile  string
	config       *projectconfig.Config
	mode         Mode
	toolPath     string
	defaultTasks []string
	filters      Filters
	logFile      string
	gracefulFail bool
	stopwatch    bool
}

// IsSet reports whether f has been written.
func (c Context) IsSet(f Field) bool { return c.set&f != 0 }

func (c Context) mark(f Field) (Context, error) {
	if c.IsSet(f) {
		return c, fmt.Errorf("%w: %s", ErrAlreadySet, f)
	}
	c.set |= f
	return c, nil
}

// WithConfig records the resolved project file and configuration.
func (c Context) WithConfig(projectFile string, cfg *projectconfig.Config) (Context, error) {
	c, err := c.mark(FieldConfig)
	if err != nil {
		return c, err
	}
	c.projectFile = projectFile
	c.config = cfg
	return c, nil
}

// WithMode records the tooling mode. toolPath is the vendored tooling
// directory relative to the project root; it is empty in system mode.
func (c Context) WithMode(mode Mode, toolPath string) (Context, error) {
	c, err := c.mark(FieldMode)
	if err != nil {
		return c, err
	}
	c.mode = mode
	c.toolPath = toolPath
	return c, nil
}

// WithDefaultTasks records the tasks run when none are given.
func (c Context) WithDefaultTasks(tasks []string) (Context, error) {
	c, err := c.mark(FieldDefaultTasks)
	if err != nil {
		return c, err
	}
	c.defaultTasks = slices.Clone(tasks)
	return c, nil
}

// WithFilters records test case filters.
func (c Context) WithFilters(f Filters) (Context, error) {
	c, err := c.mark(FieldFilters)
	if err != nil {
		return c, err
	}
	c.filters = Filters{Include: slices.Clone(f.Include), Exclude: slices.Clone(f.Exclude)}
	return c, nil
}

// WithLogFile records the log destination; empty means logging is off.
func (c Context) WithLogFile(path string) (Context, error) {
	c, err := c.mark(FieldLogFile)
	if err != nil {
		return c, err
	}
	c.logFile = path
	return c, nil
}

// WithGracefulFail records the graceful-fail policy.
func (c Context) WithGracefulFail(v bool) (Context, error) {
	c, err := c.mark(FieldGracefulFail)
	if err != nil {
		return c, err
	}
	c.gracefulFail = v
	return c, nil
}

// WithStopwatch records whether stage timing is enabled.
func (c Context) WithStopwatch(v bool) (Context, error) {
	c, err := c.mark(FieldStopwatch)
	if err != nil {
		return c, err
	}
	c.stopwatch = v
	return c, nil
}

func (c Context) ProjectFile() string { return c.projectFile }
func (c Context) Config() *projectconfig.Config { return c.config }
func (c Context) Mode() Mode { return c.mode }
func (c Context) ToolPath() string { return c.toolPath }
func (c Context) DefaultTasks() []string { return slices.Clone(c.defaultTasks) }
func (c Context) Filters() Filters {
	return Filters{Include: slices.Clone(c.filters.Include), Exclude: slices.Clone(c.filters.Exclude)}
}
func (c Context) LogFile() string { return c.logFile }
func (c Context) GracefulFail() bool { return c.gracefulFail }
func (c Context) Stopwatch() bool { return c.stopwatch }

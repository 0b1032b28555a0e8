package cli

import (
	"fmt"
	"os"

	"github.com/seedling-build/seedling/internal/assets"
	"github.com/seedling-build/seedling/internal/branding"
	"github.com/seedling-build/seedling/internal/engine"
	"github.com/seedling-build/seedling/internal/errkind"
	"github.com/seedling-build/seedling/internal/fsys"
	"github.com/seedling-build/seedling/internal/logging"
	"github.com/seedling-build/seedling/internal/pipeline"
	"github.com/seedling-build/seedling/internal/projectconfig"
	"github.com/seedling-build/seedling/internal/scaffold"
	"github.com/spf13/cobra"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string

	logFormat string
)

// app holds the collaborators shared by all commands for one invocation.
type app struct {
	env      projectconfig.Env
	log      *logging.Logger
	pipeline *pipeline.Pipeline
	scaffold *scaffold.Scaffolder
}

// deps is set before any command runs.
var deps *app

// newApp builds the production collaborators. Tests replace it.
var newApp = func(cmd *cobra.Command) (*app, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("resolving working directory: %w", err)
	}

	log := logging.New(cmd.OutOrStdout(), cmd.ErrOrStderr(), logFormat)
	actions := fsys.OS()
	loader := projectconfig.NewLoader(actions.Fs(), wd, log.Logger)

	eng := engine.New(actions.Fs(), log.Logger)
	eng.Stdout = cmd.OutOrStdout()
	eng.Stderr = cmd.ErrOrStderr()

	sc := scaffold.New(actions, assets.FS(), loader, log)
	if exe, err := os.Executable(); err == nil {
		sc.WithExecutable(exe)
	}

	return &app{
		env:      projectconfig.EnvFromOS(),
		log:      log,
		pipeline: pipeline.New(pipeline.DefaultAppConfig(), loader, eng, log, actions, log),
		scaffold: sc,
	}, nil
}

var rootCmd = &cobra.Command{
	Use:   branding.CLIName() + " [tasks...]",
	Short: branding.Description(),
	Long: branding.DisplayName() + ` creates C projects with unit test scaffolding and runs their build
and test tasks through the build engine.

Running '` + branding.CLIName() + ` <tasks...>' without a command runs those tasks with the
default project file, the same as 'exec' without options.`,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if !logging.ValidFormat(logFormat) {
			return fmt.Errorf("--log-format must be 'auto', 'text' or 'json', got %q", logFormat)
		}
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		deps = a
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return deps.pipeline.Help(cmd.Context(), deps.env, "", renderHelp(cmd.Root()))
		}
		return deps.pipeline.ExecDefaults(cmd.Context(), deps.env, args)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", logging.FormatAuto, "Diagnostic log format: auto, text or json")
}

// Execute runs the root command with build info injected via ldflags.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date
	return rootCmd.Execute()
}

// applyVerbosity parses a --verbosity value for commands that do not go
// through the pipeline.
func applyVerbosity(value string) error {
	v, err := logging.ParseVerbosity(value)
	if err != nil {
		return errkind.Precondition("verbosity", "", "%v", err)
	}
	deps.log.SetVerbosity(v)
	return nil
}

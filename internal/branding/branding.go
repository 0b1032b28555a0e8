// Package branding provides compile-time identity values for the CLI.
//
// branding.yaml is embedded into the binary; forks edit it to rename the tool,
// its project file, and the directories it vendors into projects.
package branding

import (
	_ "embed"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
)

//go:embed branding.yaml
var rawBranding []byte

var (
	once     sync.Once
	defaults brand
)

type brand struct {
	CLIName     string `yaml:"cli_name"`
	DisplayName string `yaml:"display_name"`
	Description string `yaml:"description"`
	EnvPrefix   string `yaml:"env_prefix"`
	ProjectFile string `yaml:"project_file"`
	ToolDir     string `yaml:"tool_dir"`
	EngineName  string `yaml:"engine_name"`
	DocsMarker  string `yaml:"docs_marker"`
	LogFile     string `yaml:"log_file"`
}

func load() {
	once.Do(func() {
		// Hard defaults in case the embedded file is empty.
		defaults = brand{
			CLIName:     "seedling",
			DisplayName: "Seedling",
			Description: "Build and test automation front end for C projects",
			EnvPrefix:   "SEEDLING",
			ProjectFile: "project.yml",
			ToolDir:     "seedling",
			EngineName:  "seedling-engine",
			DocsMarker:  "SeedlingPacket.md",
			LogFile:     "seedling.log",
		}
		_ = yaml.Unmarshal(rawBranding, &defaults)
	})
}

// CLIName returns the root command name (e.g., "seedling").
func CLIName() string { load(); return defaults.CLIName }

// DisplayName returns the human-readable product name (e.g., "Seedling").
func DisplayName() string { load(); return defaults.DisplayName }

// Description returns the short product description.
func Description() string { load(); return defaults.Description }

// EnvPrefix returns the environment variable prefix (e.g., "SEEDLING").
func EnvPrefix() string { load(); return defaults.EnvPrefix }

// ProjectFile returns the default project configuration filename.
func ProjectFile() string { load(); return defaults.ProjectFile }

// ToolDir returns the directory name used under vendor/ for vendored tooling.
func ToolDir() string { load(); return defaults.ToolDir }

// EngineName returns the build engine executable name.
func EngineName() string { load(); return defaults.EngineName }

// DocsMarker returns the documentation file whose presence marks copied docs.
func DocsMarker() string { load(); return defaults.DocsMarker }

// LogFile returns the default log filename.
func LogFile() string { load(); return defaults.LogFile }

// EnvVar returns a fully qualified env var name, e.g., EnvVar("WHICH") → "SEEDLING_WHICH".
func EnvVar(suffix string) string {
	load()
	return defaults.EnvPrefix + "_" + strings.ToUpper(suffix)
}

// Package assets embeds the files seedling installs into projects: the
// documentation packet, example projects, the vendorable tooling tree, the
// project file template, and component versions.
package assets

import (
	"embed"
	"io/fs"
)

// Paths inside FS.
const (
	DocsDir         = "docs"
	ExamplesDir     = "examples"
	ToolingDir      = "tooling"
	ProjectTemplate = "templates/project.yml.tmpl"
	VersionsFile    = "versions.yaml"
)

//go:embed all:docs all:examples all:tooling templates versions.yaml
var files embed.FS

// FS returns the embedded asset tree.
func FS() fs.FS {
	return files
}

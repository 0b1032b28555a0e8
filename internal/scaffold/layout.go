package scaffold

import (
	"path/filepath"

	"github.com/seedling-build/seedling/internal/branding"
)

// Layout names the paths of a project rooted at Root. Vendor and Docs are
// empty when the project does not include them.
type Layout struct {
	Root        string
	Src         string
	Test        string
	Support     string
	Vendor      string
	Docs        string
	ProjectFile string
}

// NewLayout returns the layout for a project at root.
func NewLayout(root string, vendored, docs bool) Layout {
	l := Layout{
		Root:        root,
		Src:         filepath.Join(root, "src"),
		Test:        filepath.Join(root, "test"),
		Support:     filepath.Join(root, "test", "support"),
		ProjectFile: filepath.Join(root, branding.ProjectFile()),
	}
	if vendored {
		l.Vendor = vendorDir(root)
	}
	if docs {
		l.Docs = filepath.Join(root, "docs")
	}
	return l
}

// projectRoot places name under dest, or under the working directory when
// dest is empty.
func projectRoot(name, dest string) string {
	if dest == "" {
		return "./" + name
	}
	return filepath.Join(dest, name)
}

func vendorDir(root string) string {
	return filepath.Join(root, "vendor", branding.ToolDir())
}

// versionMarker is the file whose presence identifies vendored tooling.
func versionMarker(root string) string {
	return filepath.Join(vendorDir(root), "VERSION")
}

func docsMarker(root string) string {
	return filepath.Join(root, "docs", branding.DocsMarker())
}

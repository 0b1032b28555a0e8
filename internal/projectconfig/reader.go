package projectconfig

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"github.com/tidwall/jsonc"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// keyDelimiter keeps viper from splitting keys on ".", which project files
// use in filename keys such as per-file defines.
const keyDelimiter = "::"

// Extensions lists the supported project file extensions in lookup order.
var Extensions = []string{".yml", ".yaml", ".json", ".jsonc", ".hcl"}

// HasKnownExtension reports whether path ends in a supported extension.
func HasKnownExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// readFile reads a project or mixin file into a lowercased nested map.
func readFile(fs afero.Fs, path string) (map[string]any, error) {
	v := viper.NewWithOptions(viper.KeyDelimiter(keyDelimiter))
	v.SetFs(fs)

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yml", ".yaml":
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
	case ".json":
		v.SetConfigFile(path)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
	case ".jsonc":
		data, err := afero.ReadFile(fs, path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		v.SetConfigType("json")
		if err := v.ReadConfig(bytes.NewReader(jsonc.ToJSON(data))); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	case ".hcl":
		data, err := afero.ReadFile(fs, path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		values, err := decodeHCL(data, path)
		if err != nil {
			return nil, err
		}
		if err := v.MergeConfigMap(values); err != nil {
			return nil, fmt.Errorf("loading %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported configuration format %q for %s", ext, path)
	}

	return copyMap(v.AllSettings()), nil
}

// decodeHCL evaluates the top-level attributes of an HCL file. Project files
// in HCL use attribute syntax only, e.g. project = { build_root = "build" }.
func decodeHCL(data []byte, path string) (map[string]any, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parsing %s: %w", path, diags)
	}

	attrs, diags := file.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("decoding %s: %w", path, diags)
	}

	out := make(map[string]any, len(attrs))
	for name, attr := range attrs {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("evaluating %s in %s: %w", name, path, diags)
		}
		raw, err := ctyjson.Marshal(val, val.Type())
		if err != nil {
			return nil, fmt.Errorf("converting %s in %s: %w", name, path, err)
		}
		var decoded any
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return nil, fmt.Errorf("converting %s in %s: %w", name, path, err)
		}
		out[name] = decoded
	}
	return out, nil
}

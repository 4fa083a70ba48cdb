package catalog

import (
	"embed"
	"os"
	"path/filepath"
	"strings"
)

// DefaultFile is the configuration shipped with the binary.
const DefaultFile = "keepcompp.yaml"

//go:embed *.yaml
var ConfigFS embed.FS

// Load returns a configuration file. A copy in dir on disk takes precedence
// over the embedded one.
func Load(dir, name string) ([]byte, error) {
	clean := cleanConfigPath(name)
	if dir != "" {
		if data, err := os.ReadFile(diskConfigPath(dir, clean)); err == nil {
			return data, nil
		}
	}
	return ConfigFS.ReadFile(clean)
}

func cleanConfigPath(path string) string {
	if path == "" {
		return ""
	}
	s := filepath.ToSlash(path)
	if after, ok := strings.CutPrefix(s, "config/"); ok {
		return after
	}
	return s
}

func diskConfigPath(dir, clean string) string {
	return filepath.Join(dir, filepath.FromSlash(clean))
}

// pkg/core/load.go
package core

import (
	"errors"
	"io/fs"
	"os"

	manifest "github.com/joeydtaylor/webhook-handler/pkg/manifest"
)

// LoadConfig resolves the handler configuration. An empty path or a missing file
// falls back to manifest.Default(debug); names not in reg are dropped.
func LoadConfig(path string, reg *Registry, debug bool) (manifest.Config, error) {
	if path == "" {
		return manifest.Default(debug), nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return manifest.Default(debug), nil
	}
	cfg, err := manifest.Load(path, reg.Known)
	if err != nil {
		return manifest.Config{}, err
	}
	return cfg, nil
}

// Package config loads the YAML-encoded server configuration used to
// boot cmd/skeind, following the teacher's "missing file is not
// fatal, fall back to defaults" convention for its own team/project
// YAML loaders.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/spiritengine/skein/internal/types"
)

// Load reads a ServerConfig from path. A missing file yields
// types.DefaultServerConfig() rather than an error; a present-but-
// malformed file is always an error.
func Load(path string) (types.ServerConfig, error) {
	cfg := types.DefaultServerConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return types.ServerConfig{}, fmt.Errorf("failed to read server config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return types.ServerConfig{}, fmt.Errorf("failed to parse server config: %w", err)
	}
	return cfg, nil
}

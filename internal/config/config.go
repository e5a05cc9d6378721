// Package config loads the covermux configuration file and provides the
// built-in defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mydehq/covermux/internal/types"
	"gopkg.in/yaml.v3"
)

// GetDefaults returns the built-in configuration. The poster rules and the
// search query templates mirror the tool's historical behavior.
func GetDefaults() types.GlobalConfig {
	return types.GlobalConfig{
		Formats:   []string{"mkv", "mp4", "avi"},
		Providers: []string{"releasedates", "googleimages"},
		HTTP: types.HTTPConfig{
			TimeoutSeconds: 30,
			UserAgent:      "covermux/1.0",
		},
		Google: types.GoogleConfig{
			Endpoint:   "https://customsearch.googleapis.com/customsearch/v1",
			NumResults: 10,
			Queries: []string{
				"{{TITLE}} {{YEAR}} movie hd poster",
				"{{TITLE}} {{YEAR}} movie poster",
				"{{TITLE}} {{YEAR}} poster",
				"{{TITLE}} movie poster",
				"{{TITLE}} poster",
			},
		},
		ReleaseDates: types.ReleaseDatesConfig{
			BaseURL: "https://www.dvdsreleasedates.com",
		},
		Poster: types.PosterConfig{
			MinHeight: 900,
			MinRatio:  1.4,
		},
		Mux: types.MuxConfig{
			Binary: "mkvmerge",
		},
	}
}

// DefaultPath returns the global config file location
// (~/.config/covermux/config.yml, honoring XDG_CONFIG_HOME).
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve config dir: %w", err)
	}
	return filepath.Join(dir, "covermux", "config.yml"), nil
}

// Load reads the config file at path on top of the defaults. A missing
// file is not an error; the defaults are returned. Empty Google
// credentials fall back to the GCS_DEVELOPER_KEY and GCS_CX environment
// variables.
func Load(path string) (types.GlobalConfig, error) {
	cfg := GetDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if cfg.Google.APIKey == "" {
		cfg.Google.APIKey = os.Getenv("GCS_DEVELOPER_KEY")
	}
	if cfg.Google.CX == "" {
		cfg.Google.CX = os.Getenv("GCS_CX")
	}
	return cfg, nil
}

package types

import "time"

// GlobalConfig represents the global configuration file (~/.config/covermux/config.yml)
type GlobalConfig struct {
	Formats      []string           `yaml:"formats,omitempty"`   // container extensions without the dot
	Providers    []string           `yaml:"providers,omitempty"` // enabled search providers, priority order
	HTTP         HTTPConfig         `yaml:"http,omitempty"`
	Google       GoogleConfig       `yaml:"google,omitempty"`
	ReleaseDates ReleaseDatesConfig `yaml:"releasedates,omitempty"`
	Poster       PosterConfig       `yaml:"poster,omitempty"`
	Mux          MuxConfig          `yaml:"mux,omitempty"`
}

// HTTPConfig covers the outbound HTTP client shared by providers and the
// image downloader.
type HTTPConfig struct {
	TimeoutSeconds int    `yaml:"timeout_seconds,omitempty"` // 0 disables the timeout
	UserAgent      string `yaml:"user_agent,omitempty"`
}

// Timeout returns the configured timeout as a duration.
func (h HTTPConfig) Timeout() time.Duration {
	return time.Duration(h.TimeoutSeconds) * time.Second
}

// GoogleConfig configures the googleimages provider (Custom Search JSON API).
// APIKey and CX fall back to the GCS_DEVELOPER_KEY and GCS_CX environment
// variables when empty.
type GoogleConfig struct {
	APIKey     string   `yaml:"api_key,omitempty"`
	CX         string   `yaml:"cx,omitempty"`
	Endpoint   string   `yaml:"endpoint,omitempty"`
	NumResults int      `yaml:"num_results,omitempty"`
	Queries    []string `yaml:"queries,omitempty"` // templates with {{TITLE}} and {{YEAR}} placeholders
}

// ReleaseDatesConfig configures the releasedates provider.
type ReleaseDatesConfig struct {
	BaseURL string `yaml:"base_url,omitempty"`
}

// PosterConfig holds the dimension rules a downloaded image must satisfy
// before it is attached.
type PosterConfig struct {
	MinHeight int     `yaml:"min_height,omitempty"`
	MinRatio  float64 `yaml:"min_ratio,omitempty"` // required height / width
}

// Acceptable reports whether a decoded image of the given size passes the
// poster rules. Zero-valued rules accept everything.
func (p PosterConfig) Acceptable(width, height int) bool {
	if p.MinHeight > 0 && height < p.MinHeight {
		return false
	}
	if p.MinRatio > 0 && float64(height) < p.MinRatio*float64(width) {
		return false
	}
	return true
}

// MuxConfig configures the external muxing tool.
type MuxConfig struct {
	Binary string `yaml:"binary,omitempty"`
}

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Provider names accepted in Settings.Provider.
const (
	ProviderGemini = "gemini"
	ProviderVertex = "vertex"
)

// Settings holds all configuration options.
type Settings struct {
	// Paths
	WatchFolder string `json:"watch_folder"`
	CSVOutput   string `json:"csv_output"`
	ICalOutput  string `json:"ical_output"` // empty disables calendar export

	// File detection
	ImageExtensions  []string `json:"image_extensions"`
	DefaultMediaType string   `json:"default_media_type"`
	ProcessBacklog   bool     `json:"process_backlog"`

	// Settle handling, in seconds
	SettleDelay        float64 `json:"settle_delay"`
	StableCheck        bool    `json:"stable_check"`
	StablePollInterval float64 `json:"stable_poll_interval"`
	StableTimeout      float64 `json:"stable_timeout"`

	// Extraction
	Provider       string  `json:"provider"` // gemini, vertex
	Model          string  `json:"model"`
	GeminiEndpoint string  `json:"gemini_endpoint"`
	VertexLocation string  `json:"vertex_location"`
	RequestTimeout float64 `json:"request_timeout"` // seconds, 0 means none

	// Image normalisation
	MaxImageSize int  `json:"max_image_size"` // longest edge in pixels, 0 sends the original
	AutoOrient   bool `json:"auto_orient"`
}

// DefaultSettings returns settings with default values.
func DefaultSettings() *Settings {
	return &Settings{
		WatchFolder: "images_watchfolder",
		CSVOutput:   "concerts.csv",
		ICalOutput:  "",

		ImageExtensions:  []string{".png", ".jpg", ".jpeg", ".gif", ".webp"},
		DefaultMediaType: "image/jpeg",
		ProcessBacklog:   true,

		SettleDelay:        0.5,
		StableCheck:        false,
		StablePollInterval: 0.1,
		StableTimeout:      10,

		Provider:       ProviderGemini,
		Model:          "gemini-2.5-flash",
		GeminiEndpoint: "https://generativelanguage.googleapis.com/v1beta",
		VertexLocation: "us-central1",
		RequestTimeout: 0,

		MaxImageSize: 0,
		AutoOrient:   true,
	}
}

// Load reads settings from a JSON file. Keys missing from the file keep
// their default values; a missing file yields the defaults.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSettings(), nil
		}
		return nil, err
	}

	settings := DefaultSettings()
	if err := json.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return settings, nil
}

// Save writes settings to a JSON file.
func (s *Settings) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate checks enum fields and ranges, and normalises extensions to
// lowercase with a leading dot.
func (s *Settings) Validate() error {
	if s.WatchFolder == "" {
		return errors.New("watch folder must not be empty")
	}
	if s.CSVOutput == "" {
		return errors.New("csv output must not be empty")
	}

	switch s.Provider {
	case ProviderGemini, ProviderVertex:
		// valid
	default:
		return fmt.Errorf("invalid provider %q (use '%s' or '%s')", s.Provider, ProviderGemini, ProviderVertex)
	}
	if s.Model == "" {
		return errors.New("model must not be empty")
	}

	if len(s.ImageExtensions) == 0 {
		return errors.New("at least one image extension is required")
	}
	for i, ext := range s.ImageExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" || ext == "." {
			return fmt.Errorf("invalid image extension %q", s.ImageExtensions[i])
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		s.ImageExtensions[i] = ext
	}
	if s.DefaultMediaType == "" {
		s.DefaultMediaType = "image/jpeg"
	}

	if s.SettleDelay < 0 || s.RequestTimeout < 0 {
		return errors.New("settle delay and request timeout must not be negative")
	}
	if s.StableCheck && (s.StablePollInterval <= 0 || s.StableTimeout <= 0) {
		return errors.New("stable check needs a positive poll interval and timeout")
	}
	if s.MaxImageSize < 0 {
		return errors.New("max image size must not be negative")
	}
	return nil
}

// SettleDelayDuration returns SettleDelay as a time.Duration.
func (s *Settings) SettleDelayDuration() time.Duration {
	return seconds(s.SettleDelay)
}

// StablePollDuration returns StablePollInterval as a time.Duration.
func (s *Settings) StablePollDuration() time.Duration {
	return seconds(s.StablePollInterval)
}

// StableTimeoutDuration returns StableTimeout as a time.Duration.
func (s *Settings) StableTimeoutDuration() time.Duration {
	return seconds(s.StableTimeout)
}

// RequestTimeoutDuration returns RequestTimeout as a time.Duration.
func (s *Settings) RequestTimeoutDuration() time.Duration {
	return seconds(s.RequestTimeout)
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}

package models

import "fmt"

// Preferences holds per-user UI and generation defaults.
//
// Unlike the other entities it is stored as a single JSON document keyed by
// user ID, so the struct is exported field-for-field.
type Preferences struct {
	Theme           string  `json:"theme"`
	Volume          float64 `json:"volume"`
	Autoplay        bool    `json:"autoplay"`
	DefaultModel    string  `json:"default_model"`
	DefaultPreset   string  `json:"default_preset"`
	DefaultDuration float64 `json:"default_duration"`
	DefaultSteps    int     `json:"default_steps"`
	DefaultGuidance float64 `json:"default_guidance"`
	OutputFormat    string  `json:"output_format"`
}

// DefaultPreferences returns the preferences a fresh install starts with.
func DefaultPreferences() *Preferences {
	return &Preferences{
		Theme:           "dark",
		Volume:          0.8,
		Autoplay:        false,
		DefaultModel:    "harmonia-v1",
		DefaultPreset:   "standard",
		DefaultDuration: 60,
		DefaultSteps:    32,
		DefaultGuidance: 7,
		OutputFormat:    "wav",
	}
}

// Validate checks preference values against their supported ranges.
func (p *Preferences) Validate() error {
	if p.Volume < 0 || p.Volume > 1 {
		return fmt.Errorf("volume out of range: %.2f", p.Volume)
	}
	if p.DefaultDuration < 0 || p.DefaultDuration > MaxJobDurationSeconds {
		return fmt.Errorf("default duration out of range: %.1f", p.DefaultDuration)
	}
	if p.DefaultSteps < 0 || p.DefaultSteps > MaxJobSteps {
		return fmt.Errorf("default steps out of range: %d", p.DefaultSteps)
	}
	if p.DefaultGuidance < 0 || p.DefaultGuidance > MaxJobGuidance {
		return fmt.Errorf("default guidance out of range: %.2f", p.DefaultGuidance)
	}
	switch p.OutputFormat {
	case "", "wav", "flac", "mp3", "ogg":
	default:
		return fmt.Errorf("unsupported output format: %s", p.OutputFormat)
	}
	return nil
}

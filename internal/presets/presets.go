// package presets ships the named generation parameter bundles embedded in the
// binary. A preset fills in duration, steps, and guidance for callers who name
// one instead of tuning parameters by hand.
package presets

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"soundsmith/internal/shared"
)

//go:embed presets.yaml
var presetData []byte

// Preset is one named parameter bundle. Zero-valued request fields take these
// values when the request names the preset.
type Preset struct {
	Name            string  `yaml:"name" json:"name"`
	Description     string  `yaml:"description" json:"description"`
	DurationSeconds float64 `yaml:"duration_seconds" json:"duration_seconds"`
	Steps           int     `yaml:"steps" json:"steps"`
	Guidance        float64 `yaml:"guidance" json:"guidance"`
	Tags            string  `yaml:"tags,omitempty" json:"tags,omitempty"`
}

var (
	loadOnce sync.Once
	loaded   []Preset
	loadErr  error
)

func load() ([]Preset, error) {
	loadOnce.Do(func() {
		var doc struct {
			Presets []Preset `yaml:"presets"`
		}
		if err := yaml.Unmarshal(presetData, &doc); err != nil {
			loadErr = fmt.Errorf("failed to parse embedded presets: %w", err)
			return
		}
		loaded = doc.Presets
	})

	return loaded, loadErr
}

// List returns every preset in manifest order.
func List() ([]Preset, error) {
	return load()
}

// Get finds a preset by name.
func Get(name string) (*Preset, error) {
	all, err := load()
	if err != nil {
		return nil, err
	}

	for i := range all {
		if all[i].Name == name {
			return &all[i], nil
		}
	}

	return nil, fmt.Errorf("%w: unknown preset %q (have: %s)", shared.ErrInvalidArgument, name, strings.Join(Names(), ", "))
}

// Names returns the preset names in manifest order, for flag help and error
// messages.
func Names() []string {
	all, err := load()
	if err != nil {
		return nil
	}

	names := make([]string, len(all))
	for i, p := range all {
		names[i] = p.Name
	}
	return names
}

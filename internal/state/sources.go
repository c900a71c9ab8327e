package state

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// defaultSourceNames maps Naim source identifiers to display names. Unknown
// identifiers pass through unchanged so new firmware inputs stay selectable.
var defaultSourceNames = map[string]string{
	"ana1":      "Analogue 1",
	"ana2":      "Analogue 2",
	"ana3":      "Analogue 3",
	"ana4":      "Analogue 4",
	"dig1":      "Digital 1",
	"dig2":      "Digital 2",
	"dig3":      "Digital 3",
	"dig4":      "Digital 4",
	"dig5":      "Digital 5",
	"hdmi":      "HDMI",
	"bluetooth": "Bluetooth",
	"radio":     "Internet Radio",
	"spotify":   "Spotify",
	"tidal":     "TIDAL",
	"qobuz":     "Qobuz",
	"usb":       "USB",
	"airplay":   "AirPlay",
	"gcast":     "Chromecast",
	"upnp":      "UPnP/Servers",
	"playqueue": "Play Queue",
	"files":     "Local Files",
	"multiroom": "Multi-room",
}

// SourceNames resolves source identifiers to display names.
type SourceNames struct {
	names map[string]string
}

// DefaultSourceNames returns the built-in lookup table.
func DefaultSourceNames() SourceNames {
	return SourceNames{names: defaultSourceNames}
}

// LoadSourceNames overlays the built-in table with entries from a YAML file
// of the form `source_names: {dig1: "CD Player"}`. An empty path returns the
// defaults.
func LoadSourceNames(path string) (SourceNames, error) {
	if path == "" {
		return DefaultSourceNames(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return SourceNames{}, fmt.Errorf("read source names: %w", err)
	}

	var file struct {
		SourceNames map[string]string `yaml:"source_names"`
	}
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return SourceNames{}, fmt.Errorf("parse source names: %w", err)
	}

	merged := make(map[string]string, len(defaultSourceNames)+len(file.SourceNames))
	for id, name := range defaultSourceNames {
		merged[id] = name
	}
	for id, name := range file.SourceNames {
		if name == "" {
			continue
		}
		merged[id] = name
	}

	return SourceNames{names: merged}, nil
}

// Name returns the display name for a source identifier, or the identifier
// itself when unlisted.
func (s SourceNames) Name(id string) string {
	if name, ok := s.names[id]; ok {
		return name
	}
	return id
}

package state

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadSourceNames_EmptyPathReturnsDefaults(t *testing.T) {
	sources, err := LoadSourceNames("")
	require.NoError(t, err)
	require.Equal(t, "Internet Radio", sources.Name("radio"))
}

func TestLoadSourceNames_OverlayReplacesAndKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	content := "source_names:\n  dig1: CD Player\n  custom9: Turntable\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	sources, err := LoadSourceNames(path)
	require.NoError(t, err)

	require.Equal(t, "CD Player", sources.Name("dig1"))
	require.Equal(t, "Turntable", sources.Name("custom9"))
	// Untouched defaults survive the overlay.
	require.Equal(t, "Spotify", sources.Name("spotify"))
}

func TestLoadSourceNames_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	require.NoError(t, os.WriteFile(path, []byte("source_names: [not a map"), 0o644))

	_, err := LoadSourceNames(path)
	require.Error(t, err)
}

func TestLoadSourceNames_MissingFile(t *testing.T) {
	_, err := LoadSourceNames(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

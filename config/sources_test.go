package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadSources(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	manifest := `sources:
  - name: vaccinations
    location: /data/vaccinations.csv
  - name: testing
    location: https://example.com/testing.csv
    filter: Country_Region != "X"
`
	require.NoError(t, os.WriteFile(path, []byte(manifest), 0644))

	s, err := LoadSources(path)
	require.NoError(t, err)
	require.Len(t, s.Sources, 2)
	require.Equal(t, "vaccinations", s.Sources[0].Name)
	require.Equal(t, "/data/vaccinations.csv", s.Sources[0].Location)
	require.Equal(t, `Country_Region != "X"`, s.Sources[1].Filter)
}

func TestLoadSourcesMissingFile(t *testing.T) {
	_, err := LoadSources("/does/not/exist.yaml")
	require.Error(t, err)
}

func TestLoadSourcesBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sources: {{"), 0644))
	_, err := LoadSources(path)
	require.Error(t, err)
}

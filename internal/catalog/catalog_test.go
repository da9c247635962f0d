package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()

	gemini, ok := c.Provider("GEMINI")
	require.True(t, ok)
	assert.True(t, gemini.Grounding)
	assert.Equal(t, "imagen-4.0-generate-001", gemini.ImageModel)

	twitter, ok := c.Platform("twitter")
	require.True(t, ok)
	assert.Equal(t, 280, twitter.MaxChars)

	_, ok = c.Tone("Witty")
	assert.True(t, ok)
	_, ok = c.Goal("Viral Growth")
	assert.True(t, ok)
	assert.Len(t, c.Steps, 12)
	assert.Contains(t, c.PlatformNames(), "Threads")
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte(`
providers:
  - name: gemini
    colour: blue
platforms:
  - name: Facebook
`))
	require.Error(t, err)
}

func TestParseRejectsDuplicates(t *testing.T) {
	_, err := Parse([]byte(`
providers:
  - name: gemini
platforms:
  - name: Facebook
  - name: facebook
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "platform already registered")
}

func TestLoadFromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
providers:
  - name: stub
platforms:
  - name: LinkedIn
    max_chars: 3000
`), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "v1", c.SchemaVersion)
	p, ok := c.Platform("linkedin")
	require.True(t, ok)
	assert.Equal(t, 3000, p.MaxChars)
}

// internal/seed/seed_test.go
package seed

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cast.json")
	content := `{
		"contestants": [
			{"name": "Contestant A", "bio": "fan favorite", "imageUrl": "https://example.com/a.png", "star": true},
			{"name": "Contestant B", "bio": ""}
		]
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	drafts, err := LoadCatalog(path)
	require.NoError(t, err)
	require.Len(t, drafts, 2)
	assert.Equal(t, "Contestant A", drafts[0].Name)
	assert.True(t, drafts[0].Star)
	assert.Equal(t, "Contestant B", drafts[1].Name)
	assert.False(t, drafts[1].Star)
}

func TestLoadCatalogMissingFile(t *testing.T) {
	_, err := LoadCatalog(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestLoadCatalogBadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{nope"), 0o644))

	_, err := LoadCatalog(path)
	assert.Error(t, err)
}

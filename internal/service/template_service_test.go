package service

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogJSON = `{
  "templates": [
    {
      "id": "community-hub",
      "name": "Community Hub",
      "description": "General-purpose community layout",
      "popular": true,
      "tags": ["community"],
      "roles": [{"name": "Member", "color": "#99AAB5", "position": 0}],
      "categories": [
        {"name": "General", "channels": [{"name": "welcome", "kind": "text"}]}
      ]
    },
    {
      "id": "gaming-guild",
      "name": "Gaming Guild",
      "description": "Squad-oriented layout",
      "tags": ["gaming"],
      "roles": [{"name": "Member", "color": "#99AAB5", "position": 0}],
      "categories": [
        {"name": "Voice", "channels": [{"name": "Squad Alpha", "kind": "voice", "user_limit": 5}]}
      ]
    }
  ]
}`

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "templates.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadTemplatesFromCatalog(t *testing.T) {
	svc, err := NewTemplateService(writeCatalog(t, catalogJSON))
	require.NoError(t, err)

	assert.Len(t, svc.GetAllTemplates(), 2)

	tpl, err := svc.GetTemplateByID("community-hub")
	require.NoError(t, err)
	assert.Equal(t, "Community Hub", tpl.Name)

	_, err = svc.GetTemplateByID("missing")
	assert.Error(t, err)
}

func TestLoadRejectsInvalidCatalogTemplate(t *testing.T) {
	// A catalog entry without roles fails validation at load time.
	broken := `{"templates": [{"id": "x", "name": "X", "categories": [{"name": "A", "channels": [{"name": "a", "kind": "text"}]}]}]}`

	_, err := NewTemplateService(writeCatalog(t, broken))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid")
}

func TestPopularAndSearch(t *testing.T) {
	svc, err := NewTemplateService(writeCatalog(t, catalogJSON))
	require.NoError(t, err)

	popular := svc.GetPopularTemplates()
	require.Len(t, popular, 1)
	assert.Equal(t, "community-hub", popular[0].ID)

	assert.Len(t, svc.SearchTemplates("gaming"), 1)
	assert.Len(t, svc.SearchTemplates("layout"), 2)
	assert.Empty(t, svc.SearchTemplates("bookclub"))
}

func TestParseTemplateRejectsUnknownFields(t *testing.T) {
	_, err := ParseTemplate([]byte(`{"id": "x", "name": "X", "colour_scheme": "dark"}`))
	require.Error(t, err)

	tpl, err := ParseTemplate([]byte(`{"id": "x", "name": "X"}`))
	require.NoError(t, err)
	assert.Equal(t, "x", tpl.ID)
}

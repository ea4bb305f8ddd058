package scan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func TestFilesSelectsByExtension(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"Code.js":            "var a = 1;",
		"Sheet.gs":           "var b = 2;",
		"dashboard.html":     "<html></html>",
		"notes.md":           "readme",
		"sub/OutreachApi.js": "var c = 3;",
	})

	s, err := NewScanner(root, []string{".js", ".gs", ".html"}, nil, nil)
	require.NoError(t, err)

	files, err := s.Files()
	require.NoError(t, err)

	var rels []string
	for _, f := range files {
		rels = append(rels, f.RelPath)
	}
	assert.Equal(t, []string{"Code.js", "Sheet.gs", "dashboard.html", "sub/OutreachApi.js"}, rels)
}

func TestFilesExcludesDirsAndPatterns(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"Code.js":              "var a = 1;",
		"Code.min.js":          "var a=1;",
		"node_modules/dep.js":  "module.exports = {};",
		".git/hooks/sample.js": "ignored",
	})

	s, err := NewScanner(root,
		[]string{".js"},
		[]string{".git", "node_modules"},
		[]string{"*.min.js"})
	require.NoError(t, err)

	files, err := s.Files()
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "Code.js", files[0].RelPath)
}

func TestMatches(t *testing.T) {
	s, err := NewScanner(".", []string{".js"}, nil, []string{"*.min.js"})
	require.NoError(t, err)

	assert.True(t, s.Matches("/tmp/project/Code.js"))
	assert.False(t, s.Matches("/tmp/project/Code.min.js"))
	assert.False(t, s.Matches("/tmp/project/readme.md"))
}

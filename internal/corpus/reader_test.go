package corpus

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOSReaderPreservesTerminators(t *testing.T) {
	content := "def f():\n    return 1\nno terminator"
	path := filepath.Join(t.TempDir(), "f.py")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	lines, err := OSReader{}.ReadLines(path)
	require.NoError(t, err)
	require.Len(t, lines, 3)
	assert.Equal(t, "def f():\n", lines[0])
	assert.Equal(t, "no terminator", lines[2])
	assert.Equal(t, content, strings.Join(lines, ""), "lines must reassemble the file")
}

func TestOSReaderMissingFile(t *testing.T) {
	_, err := OSReader{}.ReadLines(filepath.Join(t.TempDir(), "absent.py"))
	assert.Error(t, err)
}

func TestOSReaderEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.py")
	require.NoError(t, os.WriteFile(path, nil, 0644))
	lines, err := OSReader{}.ReadLines(path)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestMapReader(t *testing.T) {
	reader := MapReader{"a.py": "x = 1\ny = 2\n"}
	lines, err := reader.ReadLines("a.py")
	require.NoError(t, err)
	assert.Equal(t, []string{"x = 1\n", "y = 2\n"}, lines)

	_, err = reader.ReadLines("missing.py")
	assert.Error(t, err)
}

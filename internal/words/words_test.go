package words

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "ICECREAM", Normalize("  ice cream\t"))
	assert.Equal(t, "CAT", Normalize("Cat"))
	assert.Equal(t, "", Normalize(" \n "))
}

func TestSearchable(t *testing.T) {
	assert.False(t, Searchable(""))
	assert.False(t, Searchable("A"))
	assert.True(t, Searchable("AB"))
}

func TestParse(t *testing.T) {
	in := "# animals\ncat\n\n  dog \nCAT\nx\nsea horse\n"
	got, err := Parse(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []string{"CAT", "DOG", "SEAHORSE"}, got)
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "words.txt")
	require.NoError(t, os.WriteFile(path, []byte("owl\nemu\n"), 0o644))

	got, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"OWL", "EMU"}, got)

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestMerge(t *testing.T) {
	got := Merge([]string{"CAT"}, "cat", "d", " dog", "DOG")
	assert.Equal(t, []string{"CAT", "DOG"}, got)
}

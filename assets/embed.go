// Package assets embeds the SQL migrations and the demo puzzle.
package assets

import (
	"bufio"
	"embed"
	"io/fs"
	"strings"
)

//go:embed sql/*.sql sample_grid.txt sample_words.txt
var FS embed.FS

// Migrations returns the migration scripts rooted at their directory.
func Migrations() fs.FS {
	sub, err := fs.Sub(FS, "sql")
	if err != nil {
		panic(err) // the directory is embedded at build time
	}
	return sub
}

func readLines(name string) ([]string, error) {
	f, err := FS.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		out = append(out, s)
	}
	return out, sc.Err()
}

// SampleGrid returns the demo grid text, rows joined by newlines.
func SampleGrid() (string, error) {
	rows, err := readLines("sample_grid.txt")
	if err != nil {
		return "", err
	}
	return strings.Join(rows, "\n"), nil
}

// SampleWords returns the words hidden in the demo grid.
func SampleWords() ([]string, error) {
	return readLines("sample_words.txt")
}

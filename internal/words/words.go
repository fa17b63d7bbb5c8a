// internal/words/words.go
//
// Word normalization and word list loading.
//
// Responsibilities:
//   - Normalize user-entered words the same way the word entry box always has:
//     uppercase, with every whitespace character removed.
//   - Read word lists (one word per line) from files or readers.
//
// Word lists:
//   - Blank lines and lines starting with '#' are skipped.
//   - Words are normalized and de-duplicated, keeping first-seen order.
//   - Single letters are dropped; a search needs at least two letters.

package words

import (
	"bufio"
	"io"
	"os"
	"strings"
	"unicode"
)

// MinLength is the shortest word worth searching for.
const MinLength = 2

// Normalize uppercases w and strips all whitespace.
func Normalize(w string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToUpper(r)
	}, w)
}

// Searchable reports whether a normalized word is long enough to search for.
func Searchable(w string) bool {
	return len([]rune(w)) >= MinLength
}

// Parse reads a word list from r.
func Parse(r io.Reader) ([]string, error) {
	var out []string
	seen := make(map[string]struct{})
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		w := Normalize(line)
		if !Searchable(w) {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out, sc.Err()
}

// ReadFile loads a word list from path.
func ReadFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// Merge appends the normalized, searchable words of extra to list,
// skipping any already present.
func Merge(list []string, extra ...string) []string {
	seen := make(map[string]struct{}, len(list))
	for _, w := range list {
		seen[w] = struct{}{}
	}
	for _, w := range extra {
		w = Normalize(w)
		if !Searchable(w) {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		list = append(list, w)
	}
	return list
}

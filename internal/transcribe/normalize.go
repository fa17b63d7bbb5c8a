// internal/transcribe/normalize.go
//
// Text clean-up applied to every transcription before it reaches the engine.
//   - Uppercase everything.
//   - OCR reads capital O as zero fairly often, so '0' becomes 'O'.
//   - Spaces and tabs inside rows are dropped.
//   - Blank lines and surrounding whitespace are removed.

package transcribe

import (
	"strings"
	"unicode"
)

// Normalize converts raw transcribed text into grid text.
func Normalize(raw string) string {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	raw = strings.ToUpper(raw)
	raw = strings.ReplaceAll(raw, "0", "O")

	var rows []string
	for _, line := range strings.Split(raw, "\n") {
		row := strings.Map(func(r rune) rune {
			if unicode.IsSpace(r) {
				return -1
			}
			return r
		}, line)
		if row != "" {
			rows = append(rows, row)
		}
	}
	return strings.Join(rows, "\n")
}

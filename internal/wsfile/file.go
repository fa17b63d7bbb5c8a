package wsfile

import (
	"bufio"
	"encoding/binary"
	"os"
	"path/filepath"

	"github.com/robalobadob/wordsearch/internal/grid"
)

// WriteFile atomically replaces path with the encoded state.
func WriteFile(path string, s grid.State, opts ...Option) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		if tmpName != "" {
			_ = os.Remove(tmpName)
		}
	}()
	_ = tmp.Chmod(0o644)

	buf := bufio.NewWriter(tmp)
	if err := Encode(buf, s, opts...); err != nil {
		return err
	}
	if err := buf.Flush(); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	tmpName = ""
	return nil
}

// ReadFile decodes the state stored at path.
func ReadFile(path string) (grid.State, error) {
	f, err := os.Open(path)
	if err != nil {
		return grid.State{}, err
	}
	defer f.Close()
	return Decode(bufio.NewReader(f))
}

// Sniff reports whether b starts with the word-search magic number.
func Sniff(b []byte) bool {
	return len(b) >= 4 && binary.BigEndian.Uint32(b) == MagicNumber
}

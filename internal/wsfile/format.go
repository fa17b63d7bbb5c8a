// Package wsfile reads and writes the word-search container format (.wss).
//
// Layout (big endian):
//
//	magic    uint32  0x7F51C883
//	version  uint16
//	flags    uint16  bit 0: body is zstd compressed
//	bodyLen  uint32
//	body     [bodyLen]byte
//	checksum uint32  CRC32 (IEEE) of the uncompressed payload
//
// The payload is the grid text, row length, row count and the position set
// as a portable Roaring bitmap, each length-prefixed where variable.
package wsfile

import (
	"errors"
	"fmt"
)

const (
	// MagicNumber identifies word-search files.
	MagicNumber uint32 = 0x7F51C883
	// Version is the current format version.
	Version uint16 = 1

	flagZstd uint16 = 1 << 0

	headerSize = 12
	// maxBody bounds allocations when reading untrusted input.
	maxBody = 64 << 20
)

var (
	ErrInvalidMagic       = errors.New("invalid magic number")
	ErrUnsupportedVersion = errors.New("unsupported version")
)

// FormatError means the input is not a word-search file this package understands.
type FormatError struct {
	Err error
}

func (e *FormatError) Error() string { return "wsfile: format: " + e.Err.Error() }

func (e *FormatError) Unwrap() error { return e.Err }

// CorruptFileError means the input looked like a word-search file but could
// not be read back intact.
type CorruptFileError struct {
	Reason string
	Err    error
}

func (e *CorruptFileError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("wsfile: corrupt file: %s: %v", e.Reason, e.Err)
	}
	return "wsfile: corrupt file: " + e.Reason
}

func (e *CorruptFileError) Unwrap() error { return e.Err }

func corrupt(reason string, err error) error {
	return &CorruptFileError{Reason: reason, Err: err}
}

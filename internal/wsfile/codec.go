package wsfile

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"sync"
	"unicode/utf8"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/klauspost/compress/zstd"

	"github.com/robalobadob/wordsearch/internal/grid"
)

// Option configures Encode.
type Option func(*options)

type options struct {
	compress bool
}

// WithCompression stores the body zstd compressed.
func WithCompression() Option {
	return func(o *options) { o.compress = true }
}

var (
	encoderOnce sync.Once
	encoder     *zstd.Encoder
	encoderErr  error

	decoderOnce sync.Once
	decoder     *zstd.Decoder
	decoderErr  error
)

func zstdEncoder() (*zstd.Encoder, error) {
	encoderOnce.Do(func() {
		encoder, encoderErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	})
	return encoder, encoderErr
}

func zstdDecoder() (*zstd.Decoder, error) {
	decoderOnce.Do(func() {
		decoder, decoderErr = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxBody))
	})
	return decoder, decoderErr
}

// Encode writes s to w.
func Encode(w io.Writer, s grid.State, opts ...Option) error {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	payload, err := encodePayload(s)
	if err != nil {
		return err
	}

	body := payload
	var flags uint16
	if o.compress {
		enc, err := zstdEncoder()
		if err != nil {
			return fmt.Errorf("wsfile: zstd encoder: %w", err)
		}
		body = enc.EncodeAll(payload, nil)
		flags |= flagZstd
	}

	var hdr [headerSize]byte
	binary.BigEndian.PutUint32(hdr[0:], MagicNumber)
	binary.BigEndian.PutUint16(hdr[4:], Version)
	binary.BigEndian.PutUint16(hdr[6:], flags)
	binary.BigEndian.PutUint32(hdr[8:], uint32(len(body)))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	if _, err := w.Write(body); err != nil {
		return err
	}
	var sum [4]byte
	binary.BigEndian.PutUint32(sum[:], crc32.ChecksumIEEE(payload))
	_, err = w.Write(sum[:])
	return err
}

func encodePayload(s grid.State) ([]byte, error) {
	var buf bytes.Buffer
	put := func(v uint32) {
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], v)
		buf.Write(b[:])
	}

	put(uint32(len(s.Text)))
	buf.WriteString(s.Text)
	put(uint32(s.RowLength))
	put(uint32(s.RowCount))

	bm := roaring.New()
	for _, p := range s.Positions {
		if p < 0 {
			return nil, fmt.Errorf("wsfile: negative position %d", p)
		}
		bm.Add(uint32(p))
	}
	bmBytes, err := bm.ToBytes()
	if err != nil {
		return nil, fmt.Errorf("wsfile: encode positions: %w", err)
	}
	put(uint32(len(bmBytes)))
	buf.Write(bmBytes)
	return buf.Bytes(), nil
}

// Decode reads a state written by Encode. It returns *FormatError for input
// that is not a word-search file and *CorruptFileError for damaged input.
func Decode(r io.Reader) (grid.State, error) {
	var hdr [headerSize]byte
	n, err := io.ReadFull(r, hdr[:])
	if n >= 4 && binary.BigEndian.Uint32(hdr[0:]) != MagicNumber {
		return grid.State{}, &FormatError{Err: ErrInvalidMagic}
	}
	if err != nil {
		return grid.State{}, corrupt("short header", err)
	}
	if v := binary.BigEndian.Uint16(hdr[4:]); v != Version {
		return grid.State{}, &FormatError{Err: fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)}
	}
	flags := binary.BigEndian.Uint16(hdr[6:])
	bodyLen := binary.BigEndian.Uint32(hdr[8:])
	if bodyLen > maxBody {
		return grid.State{}, corrupt(fmt.Sprintf("body length %d exceeds limit", bodyLen), nil)
	}

	body := make([]byte, bodyLen)
	if _, err := io.ReadFull(r, body); err != nil {
		return grid.State{}, corrupt("truncated body", err)
	}
	var sum [4]byte
	if _, err := io.ReadFull(r, sum[:]); err != nil {
		return grid.State{}, corrupt("missing checksum", err)
	}

	payload := body
	if flags&flagZstd != 0 {
		dec, err := zstdDecoder()
		if err != nil {
			return grid.State{}, fmt.Errorf("wsfile: zstd decoder: %w", err)
		}
		payload, err = dec.DecodeAll(body, nil)
		if err != nil {
			return grid.State{}, corrupt("decompress body", err)
		}
	}

	if got, want := crc32.ChecksumIEEE(payload), binary.BigEndian.Uint32(sum[:]); got != want {
		return grid.State{}, corrupt(fmt.Sprintf("checksum mismatch: got %08x, want %08x", got, want), nil)
	}
	return decodePayload(payload)
}

func decodePayload(p []byte) (grid.State, error) {
	rd := bytes.NewReader(p)
	u32 := func() (uint32, error) {
		var b [4]byte
		if _, err := io.ReadFull(rd, b[:]); err != nil {
			return 0, err
		}
		return binary.BigEndian.Uint32(b[:]), nil
	}
	chunk := func(n uint32) ([]byte, error) {
		if int64(n) > int64(rd.Len()) {
			return nil, io.ErrUnexpectedEOF
		}
		b := make([]byte, n)
		_, err := io.ReadFull(rd, b)
		return b, err
	}

	var s grid.State
	textLen, err := u32()
	if err != nil {
		return s, corrupt("text length", err)
	}
	text, err := chunk(textLen)
	if err != nil {
		return s, corrupt("text", err)
	}
	if !utf8.Valid(text) {
		return s, corrupt("text is not valid UTF-8", nil)
	}
	rowLength, err := u32()
	if err != nil {
		return s, corrupt("row length", err)
	}
	rowCount, err := u32()
	if err != nil {
		return s, corrupt("row count", err)
	}
	bmLen, err := u32()
	if err != nil {
		return s, corrupt("positions length", err)
	}
	bmBytes, err := chunk(bmLen)
	if err != nil {
		return s, corrupt("positions", err)
	}
	if rd.Len() != 0 {
		return s, corrupt(fmt.Sprintf("%d trailing payload bytes", rd.Len()), nil)
	}

	bm := roaring.New()
	if err := bm.UnmarshalBinary(bmBytes); err != nil {
		return s, corrupt("positions", err)
	}

	s.Text = string(text)
	s.RowLength = int(rowLength)
	s.RowCount = int(rowCount)

	cells := int64(utf8.RuneCountInString(s.Text)) - int64(bytes.Count(text, []byte{byte(grid.Delimiter)}))
	if cells != int64(rowLength)*int64(rowCount) {
		return grid.State{}, corrupt(fmt.Sprintf("%d cells do not fill %dx%d grid", cells, rowLength, rowCount), nil)
	}
	if !bm.IsEmpty() && int64(bm.Maximum()) >= cells {
		return grid.State{}, corrupt(fmt.Sprintf("position %d outside %d cells", bm.Maximum(), cells), nil)
	}
	for _, v := range bm.ToArray() {
		s.Positions = append(s.Positions, int(v))
	}
	return s, nil
}

// Marshal encodes s into a byte slice.
func Marshal(s grid.State, opts ...Option) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, s, opts...); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes a byte slice produced by Marshal. Trailing bytes are corrupt.
func Unmarshal(b []byte) (grid.State, error) {
	rd := bytes.NewReader(b)
	s, err := Decode(rd)
	if err != nil {
		return grid.State{}, err
	}
	if rd.Len() != 0 {
		return grid.State{}, corrupt(fmt.Sprintf("%d trailing bytes", rd.Len()), nil)
	}
	return s, nil
}

// IsFormatError reports whether err is a *FormatError or *CorruptFileError.
func IsFormatError(err error) bool {
	var fe *FormatError
	var ce *CorruptFileError
	return errors.As(err, &fe) || errors.As(err, &ce)
}

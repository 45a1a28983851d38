// Package framing reads and writes length-prefixed protocol buffer messages.
//
// The structure of a frame is trivial: payload-length | payload | crc32, with
// the length a little-endian int32 and the checksum the little-endian IEEE
// CRC-32 of the payload. Payloads use the protobuf wire format, so any
// protobuf implementation can decode them given the schemas documented on
// each message type.
package framing

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
)

// MaxFrameSize bounds the payload length a Reader accepts.
const MaxFrameSize = 1 << 26

// ErrCorruptFrame is returned when a frame's length is out of range or its
// checksum does not match its payload.
var ErrCorruptFrame = errors.New("fock: corrupt frame")

// A Message can be converted to and from the protobuf wire format.
type Message interface {
	// AppendWire appends the wire encoding of the message to b.
	AppendWire(b []byte) []byte
	// UnmarshalWire replaces the message with the decoding of b.
	UnmarshalWire(b []byte) error
}

// A Writer writes framed messages to an io.Writer.
type Writer struct {
	w io.Writer
}

// NewWriter returns a Writer that frames messages onto w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Write frames and writes m.
func (w *Writer) Write(m Message) error {
	payload := m.AppendWire(nil)
	if len(payload) > MaxFrameSize {
		return fmt.Errorf("payload of %d bytes exceeds %d", len(payload), MaxFrameSize)
	}
	if err := binary.Write(w.w, binary.LittleEndian, int32(len(payload))); err != nil {
		return err
	}
	if _, err := w.w.Write(payload); err != nil {
		return err
	}
	return binary.Write(w.w, binary.LittleEndian, crc32.ChecksumIEEE(payload))
}

// A Reader reads framed messages from an io.Reader.
type Reader struct {
	r io.Reader
}

// NewReader returns a Reader that reads frames from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Read reads the next frame into m. It returns io.EOF if r is exhausted
// before a new frame begins.
func (r *Reader) Read(m Message) error {
	var n int32
	if err := binary.Read(r.r, binary.LittleEndian, &n); err != nil {
		return err
	}
	if n < 0 || n > MaxFrameSize {
		return fmt.Errorf("frame length %d: %w", n, ErrCorruptFrame)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r.r, payload); err != nil {
		return unexpected(err)
	}
	var sum uint32
	if err := binary.Read(r.r, binary.LittleEndian, &sum); err != nil {
		return unexpected(err)
	}
	if want := crc32.ChecksumIEEE(payload); sum != want {
		return fmt.Errorf("checksum %08x, want %08x: %w", sum, want, ErrCorruptFrame)
	}
	if err := m.UnmarshalWire(payload); err != nil {
		return fmt.Errorf("%v: %w", err, ErrCorruptFrame)
	}
	return nil
}

func unexpected(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}

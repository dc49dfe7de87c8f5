// Package wire implements the Phase IV wire codecs (spec.md 4.1): the
// little-endian, unpadded encodings for initialization, verification,
// hello, routing and data messages. Adapted from the teacher's
// stream package, switched to little-endian per the DNA wire format and
// extended with writers.
package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// ErrMalformedMessage is returned for any frame that fails length or
// range validation during decode (spec.md 7, the MalformedMessage kind).
var ErrMalformedMessage = fmt.Errorf("malformed routing message")

func malformed(reason string) error {
	return fmt.Errorf("%w: %s", ErrMalformedMessage, reason)
}

type reader struct {
	buf *bytes.Reader
}

func newReader(b []byte) *reader {
	return &reader{buf: bytes.NewReader(b)}
}

func (r *reader) remaining() int {
	return r.buf.Len()
}

func (r *reader) byte() (byte, error) {
	b, err := r.buf.ReadByte()
	if err != nil {
		return 0, malformed("truncated reading byte")
	}
	return b, nil
}

func (r *reader) uint16() (uint16, error) {
	if r.buf.Len() < 2 {
		return 0, malformed("truncated reading uint16")
	}
	var v uint16
	if err := binary.Read(r.buf, binary.LittleEndian, &v); err != nil {
		return 0, malformed("truncated reading uint16")
	}
	return v, nil
}

func (r *reader) bytes(n int) ([]byte, error) {
	if n < 0 || r.buf.Len() < n {
		return nil, malformed("truncated reading bytes")
	}
	b := make([]byte, n)
	if _, err := r.buf.Read(b); err != nil {
		return nil, malformed("truncated reading bytes")
	}
	return b, nil
}

type writer struct {
	buf bytes.Buffer
}

func (w *writer) byte(b byte) {
	w.buf.WriteByte(b)
}

func (w *writer) uint16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.buf.Write(b[:])
}

func (w *writer) bytes(b []byte) {
	w.buf.Write(b)
}

func (w *writer) Bytes() []byte {
	return w.buf.Bytes()
}

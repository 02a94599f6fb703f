package codec

import (
	"encoding/binary"
	"fmt"
)

// Encoder appends fields to a growing body buffer.
type Encoder struct {
	buf []byte
}

func NewEncoder(sizeHint int) *Encoder {
	return &Encoder{buf: make([]byte, 0, sizeHint)}
}

func (e *Encoder) U8(v uint8) {
	e.buf = append(e.buf, v)
}

func (e *Encoder) U16(v uint16) {
	e.buf = binary.LittleEndian.AppendUint16(e.buf, v)
}

func (e *Encoder) U32(v uint32) {
	e.buf = binary.LittleEndian.AppendUint32(e.buf, v)
}

// Str0255 writes the length byte followed by the content.
func (e *Encoder) Str0255(s Str0255) {
	e.buf = append(e.buf, byte(len(s.b)))
	e.buf = append(e.buf, s.b...)
}

// Bytes returns the encoded body.
func (e *Encoder) Bytes() []byte { return e.buf }

// Decoder reads fields from a body in order. Strings it returns alias the
// input slice.
type Decoder struct {
	buf []byte
	off int
}

func NewDecoder(b []byte) *Decoder {
	return &Decoder{buf: b}
}

func (d *Decoder) Remaining() int { return len(d.buf) - d.off }

func (d *Decoder) take(n int) ([]byte, error) {
	if d.Remaining() < n {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrShortBuffer, n, d.off, d.Remaining())
	}
	b := d.buf[d.off : d.off+n : d.off+n]
	d.off += n
	return b, nil
}

func (d *Decoder) U8() (uint8, error) {
	b, err := d.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (d *Decoder) U16() (uint16, error) {
	b, err := d.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (d *Decoder) U32() (uint32, error) {
	b, err := d.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (d *Decoder) Str0255() (Str0255, error) {
	n, err := d.U8()
	if err != nil {
		return Str0255{}, err
	}
	b, err := d.take(int(n))
	if err != nil {
		return Str0255{}, err
	}
	return NewStr0255(b)
}

// Finish fails if any input is left unread.
func (d *Decoder) Finish() error {
	if r := d.Remaining(); r != 0 {
		return fmt.Errorf("%w: %d", ErrTrailingBytes, r)
	}
	return nil
}

package codec

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestEncodeDecodeFieldsRoundTrip(t *testing.T) {
	enc := NewEncoder(16)
	enc.U8(7)
	enc.U16(0x0102)
	enc.U32(0xAABBCCDD)
	enc.Str0255(MustStr0255("vendor"))
	enc.Str0255(Str0255{})

	body := enc.Bytes()
	want := []byte{
		7,
		0x02, 0x01,
		0xDD, 0xCC, 0xBB, 0xAA,
		6, 'v', 'e', 'n', 'd', 'o', 'r',
		0,
	}
	if !bytes.Equal(body, want) {
		t.Fatalf("unexpected encoding: got=%x want=%x", body, want)
	}

	dec := NewDecoder(body)
	u8, err := dec.U8()
	if err != nil || u8 != 7 {
		t.Fatalf("u8: %d %v", u8, err)
	}
	u16, err := dec.U16()
	if err != nil || u16 != 0x0102 {
		t.Fatalf("u16: %x %v", u16, err)
	}
	u32, err := dec.U32()
	if err != nil || u32 != 0xAABBCCDD {
		t.Fatalf("u32: %x %v", u32, err)
	}
	s, err := dec.Str0255()
	if err != nil || s.String() != "vendor" {
		t.Fatalf("str: %q %v", s.String(), err)
	}
	empty, err := dec.Str0255()
	if err != nil || !empty.IsEmpty() {
		t.Fatalf("empty str: %q %v", empty.String(), err)
	}
	if err := dec.Finish(); err != nil {
		t.Fatalf("finish: %v", err)
	}
}

func TestDecodedStringAliasesInput(t *testing.T) {
	body := []byte{3, 'a', 'b', 'c'}
	s, err := NewDecoder(body).Str0255()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	body[1] = 'z'
	if s.String() != "zbc" {
		t.Fatalf("expected zero-copy view, got %q", s.String())
	}
}

func TestDecodeShortStringIsDeterministic(t *testing.T) {
	// length 5, only 2 content bytes
	_, err := NewDecoder([]byte{5, 'a', 'b'}).Str0255()
	if !errors.Is(err, ErrShortBuffer) {
		t.Fatalf("expected ErrShortBuffer, got %v", err)
	}
}

func TestDecodeShortIntegerIsDeterministic(t *testing.T) {
	_, err := NewDecoder([]byte{1, 2, 3}).U32()
	if !errors.Is(err, ErrShortBuffer) {
		t.Fatalf("expected ErrShortBuffer, got %v", err)
	}
}

func TestFinishRejectsTrailingBytes(t *testing.T) {
	dec := NewDecoder([]byte{1, 2})
	if _, err := dec.U8(); err != nil {
		t.Fatalf("u8: %v", err)
	}
	if err := dec.Finish(); !errors.Is(err, ErrTrailingBytes) {
		t.Fatalf("expected ErrTrailingBytes, got %v", err)
	}
}

func TestStr0255Bounds(t *testing.T) {
	if _, err := NewStr0255(nil); err != nil {
		t.Fatalf("empty string rejected: %v", err)
	}
	longest := []byte(strings.Repeat("x", MaxStr0255Len))
	s, err := NewStr0255(longest)
	if err != nil {
		t.Fatalf("255-byte string rejected: %v", err)
	}
	if s.Size() != 256 {
		t.Fatalf("unexpected size: %d", s.Size())
	}
	_, err = NewStr0255(append(longest, 'x'))
	if !errors.Is(err, ErrStringTooLong) {
		t.Fatalf("expected ErrStringTooLong, got %v", err)
	}
}

func TestStr0255RejectsInvalidContent(t *testing.T) {
	_, err := NewStr0255([]byte{0xff, 0xfe})
	if !errors.Is(err, ErrInvalidStringContent) {
		t.Fatalf("expected ErrInvalidStringContent, got %v", err)
	}
}

func TestStr0255ViewCannotGrowIntoSource(t *testing.T) {
	src := []byte("abcdef")
	s, err := NewStr0255(src[:3])
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	grown := append(s.Bytes(), 'Z')
	if string(src) != "abcdef" {
		t.Fatalf("append through view clobbered source: %q", src)
	}
	if string(grown) != "abcZ" {
		t.Fatalf("unexpected grown view: %q", grown)
	}
}

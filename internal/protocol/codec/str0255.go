package codec

import (
	"bytes"
	"fmt"
	"unicode/utf8"
)

// MaxStr0255Len is the largest content length a Str0255 can carry.
const MaxStr0255Len = 255

// Str0255 is a bounded string view. The zero value is the empty string.
//
// A Str0255 built with NewStr0255 or returned by Decoder aliases the bytes it
// was built from; it is valid only as long as those bytes are.
type Str0255 struct {
	b []byte
}

// NewStr0255 validates b and wraps it without copying.
func NewStr0255(b []byte) (Str0255, error) {
	if err := ValidateStr0255(b); err != nil {
		return Str0255{}, err
	}
	return Str0255{b: b[:len(b):len(b)]}, nil
}

// Str0255FromString copies s into a new Str0255.
func Str0255FromString(s string) (Str0255, error) {
	return NewStr0255([]byte(s))
}

// MustStr0255 is Str0255FromString for literals known to be valid.
func MustStr0255(s string) Str0255 {
	v, err := Str0255FromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

// ValidateStr0255 reports whether b satisfies the bounded-string constraint.
func ValidateStr0255(b []byte) error {
	if len(b) > MaxStr0255Len {
		return fmt.Errorf("%w: length %d", ErrStringTooLong, len(b))
	}
	if !utf8.Valid(b) {
		return ErrInvalidStringContent
	}
	return nil
}

// Bytes returns the underlying bytes. The slice is shared, not copied.
func (s Str0255) Bytes() []byte { return s.b }

func (s Str0255) String() string { return string(s.b) }

func (s Str0255) Len() int { return len(s.b) }

func (s Str0255) IsEmpty() bool { return len(s.b) == 0 }

// Size is the encoded size including the length prefix.
func (s Str0255) Size() int { return 1 + len(s.b) }

func (s Str0255) Equal(other Str0255) bool { return bytes.Equal(s.b, other.b) }

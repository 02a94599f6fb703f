package codec

import "errors"

var (
	ErrShortBuffer          = errors.New("codec: short buffer")
	ErrTrailingBytes        = errors.New("codec: trailing bytes")
	ErrStringTooLong        = errors.New("codec: string exceeds 255 bytes")
	ErrInvalidStringContent = errors.New("codec: invalid string content")
)

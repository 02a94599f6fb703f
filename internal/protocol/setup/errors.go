package setup

import "errors"

var (
	ErrInvalidProtocolCode        = errors.New("setup: invalid protocol code")
	ErrUnimplementedProtocolCheck = errors.New("setup: flag check not implemented for protocol")
	ErrUnknownMessageType         = errors.New("setup: unknown message type")
	ErrInvalidSetupConnection     = errors.New("setup: invalid setup connection")
	ErrReleased                   = errors.New("setup: owned message already released")
	ErrBorrowed                   = errors.New("setup: owned message is borrowed")
	ErrDoubleFree                 = errors.New("setup: buffer freed twice")
)

package setup

import (
	"errors"
	"fmt"

	"github.com/danmuck/sv2setup/internal/protocol/codec"
	"github.com/rs/zerolog/log"
)

// noCopy makes go vet flag copies of owned mirrors.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

type ownedState uint8

const (
	ownedLive ownedState = iota
	ownedBorrowed
	ownedReleased
)

// ownership tracks the borrow/release lifecycle shared by owned mirrors.
type ownership struct {
	_     noCopy
	alloc Allocator
	state ownedState
}

func (o *ownership) acquire() error {
	switch o.state {
	case ownedReleased:
		return ErrReleased
	case ownedBorrowed:
		return ErrBorrowed
	}
	o.state = ownedBorrowed
	return nil
}

func (o *ownership) unborrow() {
	if o.state == ownedBorrowed {
		o.state = ownedLive
	}
}

func (o *ownership) release(bufs ...*Buffer) error {
	switch o.state {
	case ownedReleased:
		return ErrReleased
	case ownedBorrowed:
		return ErrBorrowed
	}
	o.state = ownedReleased
	alloc := allocatorOrDefault(o.alloc)
	var errs []error
	for _, b := range bufs {
		if err := alloc.Free(*b); err != nil {
			errs = append(errs, err)
		}
		*b = Buffer{}
	}
	return errors.Join(errs...)
}

func copyIn(alloc Allocator, s codec.Str0255) Buffer {
	b := alloc.Alloc(s.Len())
	copy(b.Data, s.Bytes())
	return b
}

func borrowField(b Buffer, name string) (codec.Str0255, error) {
	v, err := codec.NewStr0255(b.Data)
	if err != nil {
		return codec.Str0255{}, fmt.Errorf("setup: %s: %w", name, err)
	}
	return v, nil
}

func allocatorOrDefault(alloc Allocator) Allocator {
	if alloc == nil {
		return HeapAllocator{}
	}
	return alloc
}

// OwnedSetupConnection is the foreign-safe mirror of SetupConnection. Every
// string lives in its own Buffer. It must be released exactly once with
// FreeSetupConnection and must not be copied. It is not safe for concurrent
// use.
type OwnedSetupConnection struct {
	Protocol     Protocol
	MinVersion   uint16
	MaxVersion   uint16
	Flags        uint32
	EndpointHost Buffer
	EndpointPort uint16

	Vendor          Buffer
	HardwareVersion Buffer
	Firmware        Buffer
	DeviceID        Buffer

	own ownership
}

// ToOwnedSetupConnection copies every string of m into a buffer from alloc.
// A nil alloc uses HeapAllocator.
func ToOwnedSetupConnection(m SetupConnection, alloc Allocator) *OwnedSetupConnection {
	alloc = allocatorOrDefault(alloc)
	return &OwnedSetupConnection{
		Protocol:        m.Protocol,
		MinVersion:      m.MinVersion,
		MaxVersion:      m.MaxVersion,
		Flags:           m.Flags,
		EndpointHost:    copyIn(alloc, m.EndpointHost),
		EndpointPort:    m.EndpointPort,
		Vendor:          copyIn(alloc, m.Vendor),
		HardwareVersion: copyIn(alloc, m.HardwareVersion),
		Firmware:        copyIn(alloc, m.Firmware),
		DeviceID:        copyIn(alloc, m.DeviceID),
		own:             ownership{alloc: alloc},
	}
}

// DecodeOwnedSetupConnection decodes body and moves the result into owned
// buffers. Nothing is allocated when decoding fails.
func DecodeOwnedSetupConnection(body []byte, alloc Allocator) (*OwnedSetupConnection, error) {
	m, err := DecodeSetupConnection(body)
	if err != nil {
		return nil, err
	}
	return ToOwnedSetupConnection(m, alloc), nil
}

// Borrow validates every buffer and calls fn with a zero-copy view over
// them. The view is valid only for the duration of fn; the mirror cannot be
// released or borrowed again until fn returns. fn is not called when any
// buffer fails validation.
func (o *OwnedSetupConnection) Borrow(fn func(SetupConnection) error) error {
	if o == nil {
		return ErrReleased
	}
	if err := o.own.acquire(); err != nil {
		return err
	}
	defer o.own.unborrow()

	m := SetupConnection{
		Protocol:     o.Protocol,
		MinVersion:   o.MinVersion,
		MaxVersion:   o.MaxVersion,
		Flags:        o.Flags,
		EndpointPort: o.EndpointPort,
	}
	fields := []struct {
		name string
		src  Buffer
		dst  *codec.Str0255
	}{
		{"endpoint_host", o.EndpointHost, &m.EndpointHost},
		{"vendor", o.Vendor, &m.Vendor},
		{"hardware_version", o.HardwareVersion, &m.HardwareVersion},
		{"firmware", o.Firmware, &m.Firmware},
		{"device_id", o.DeviceID, &m.DeviceID},
	}
	for _, f := range fields {
		v, err := borrowField(f.src, f.name)
		if err != nil {
			log.Debug().Err(err).Msg("setup.OwnedSetupConnection.Borrow rejected buffer")
			return err
		}
		*f.dst = v
	}
	return fn(m)
}

// Release frees every buffer exactly once. Later calls return ErrReleased.
func (o *OwnedSetupConnection) Release() error {
	if o == nil {
		return ErrReleased
	}
	return o.own.release(&o.EndpointHost, &o.Vendor, &o.HardwareVersion, &o.Firmware, &o.DeviceID)
}

// FreeSetupConnection is the release entry point for foreign callers.
func FreeSetupConnection(o *OwnedSetupConnection) error {
	return o.Release()
}

// OwnedSetupConnectionError is the foreign-safe mirror of
// SetupConnectionError.
type OwnedSetupConnectionError struct {
	Flags     uint32
	ErrorCode Buffer

	own ownership
}

func ToOwnedSetupConnectionError(m SetupConnectionError, alloc Allocator) *OwnedSetupConnectionError {
	alloc = allocatorOrDefault(alloc)
	return &OwnedSetupConnectionError{
		Flags:     m.Flags,
		ErrorCode: copyIn(alloc, m.ErrorCode),
		own:       ownership{alloc: alloc},
	}
}

func DecodeOwnedSetupConnectionError(body []byte, alloc Allocator) (*OwnedSetupConnectionError, error) {
	m, err := DecodeSetupConnectionError(body)
	if err != nil {
		return nil, err
	}
	return ToOwnedSetupConnectionError(m, alloc), nil
}

func (o *OwnedSetupConnectionError) Borrow(fn func(SetupConnectionError) error) error {
	if o == nil {
		return ErrReleased
	}
	if err := o.own.acquire(); err != nil {
		return err
	}
	defer o.own.unborrow()

	code, err := borrowField(o.ErrorCode, "error_code")
	if err != nil {
		return err
	}
	return fn(SetupConnectionError{Flags: o.Flags, ErrorCode: code})
}

func (o *OwnedSetupConnectionError) Release() error {
	if o == nil {
		return ErrReleased
	}
	return o.own.release(&o.ErrorCode)
}

func FreeSetupConnectionError(o *OwnedSetupConnectionError) error {
	return o.Release()
}

package setup

import (
	"fmt"
	"strings"

	"github.com/danmuck/sv2setup/internal/protocol/codec"
)

// Conventional SetupConnectionError codes.
const (
	ErrorCodeUnsupportedFeatureFlags = "unsupported-feature-flags"
	ErrorCodeUnsupportedProtocol     = "unsupported-protocol"
	ErrorCodeProtocolVersionMismatch = "protocol-version-mismatch"
)

// SetupConnection is the first message a downstream sends on a new
// connection. String fields alias the buffer the message was decoded from.
type SetupConnection struct {
	Protocol     Protocol
	MinVersion   uint16
	MaxVersion   uint16
	Flags        uint32
	EndpointHost codec.Str0255
	EndpointPort uint16

	Vendor          codec.Str0255
	HardwareVersion codec.Str0255
	Firmware        codec.Str0255
	DeviceID        codec.Str0255
}

// Endpoint is the host/port a downstream reports it connected to.
type Endpoint struct {
	Host string
	Port uint16
}

// Device describes the originating device. Only Vendor is mandatory; the
// rest may be empty when telemetry is withheld.
type Device struct {
	Vendor          string
	HardwareVersion string
	Firmware        string
	DeviceID        string
}

// NewSetupConnection builds a request from explicit values. Strings are
// copied and checked against the bounded-string constraint.
func NewSetupConnection(protocol Protocol, minVersion, maxVersion uint16, flags uint32, endpoint Endpoint, device Device) (SetupConnection, error) {
	msg := SetupConnection{
		Protocol:     protocol,
		MinVersion:   minVersion,
		MaxVersion:   maxVersion,
		Flags:        flags,
		EndpointPort: endpoint.Port,
	}
	fields := []struct {
		name string
		src  string
		dst  *codec.Str0255
	}{
		{"endpoint_host", endpoint.Host, &msg.EndpointHost},
		{"vendor", device.Vendor, &msg.Vendor},
		{"hardware_version", device.HardwareVersion, &msg.HardwareVersion},
		{"firmware", device.Firmware, &msg.Firmware},
		{"device_id", device.DeviceID, &msg.DeviceID},
	}
	for _, f := range fields {
		v, err := codec.Str0255FromString(f.src)
		if err != nil {
			return SetupConnection{}, fmt.Errorf("setup: %s: %w", f.name, err)
		}
		*f.dst = v
	}
	return msg, nil
}

func (m *SetupConnection) SetRequiresStandardJob() {
	m.Flags |= FlagRequiresStandardJobs
}

func (m *SetupConnection) SetRequiresVersionRolling() {
	m.Flags |= FlagRequiresVersionRolling
}

func (m *SetupConnection) SetRequiresWorkSelection() {
	m.Flags |= FlagRequiresWorkSelection
}

func (m SetupConnection) RequiresStandardJob() bool {
	return HasRequiresStandardJob(m.Flags)
}

// Version negotiates against a peer range, treating m as the local side.
func (m SetupConnection) Version(minVersion, maxVersion uint16) (uint16, bool) {
	return SelectVersion(m.MinVersion, m.MaxVersion, minVersion, maxVersion)
}

// Validate checks the constraints the wire format does not enforce.
func (m SetupConnection) Validate() error {
	if strings.TrimSpace(m.Vendor.String()) == "" {
		return fmt.Errorf("%w: missing vendor", ErrInvalidSetupConnection)
	}
	if m.MinVersion > m.MaxVersion {
		return fmt.Errorf("%w: min_version %d > max_version %d", ErrInvalidSetupConnection, m.MinVersion, m.MaxVersion)
	}
	return nil
}

// SetupConnectionSuccess accepts a connection. UsedVersion binds for the
// lifetime of the connection.
type SetupConnectionSuccess struct {
	UsedVersion uint16
	Flags       uint32
}

// SetupConnectionError rejects a connection. Flags carries the offending
// feature bits, or 0 when the failure is unrelated to flags.
type SetupConnectionError struct {
	Flags     uint32
	ErrorCode codec.Str0255
}

func NewSetupConnectionError(flags uint32, code string) (SetupConnectionError, error) {
	v, err := codec.Str0255FromString(code)
	if err != nil {
		return SetupConnectionError{}, fmt.Errorf("setup: error_code: %w", err)
	}
	return SetupConnectionError{Flags: flags, ErrorCode: v}, nil
}

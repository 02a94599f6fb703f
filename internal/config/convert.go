package config

import (
	"fmt"
	"strings"

	"github.com/danmuck/sv2setup/internal/protocol/negotiate"
	"github.com/danmuck/sv2setup/internal/protocol/setup"
)

const (
	FlagNameRequiresStandardJob    = "requires_standard_job"
	FlagNameRequiresVersionRolling = "requires_version_rolling"
	FlagNameRequiresWorkSelection  = "requires_work_selection"
)

var flagBits = map[string]uint32{
	FlagNameRequiresStandardJob:    setup.FlagRequiresStandardJobs,
	FlagNameRequiresVersionRolling: setup.FlagRequiresVersionRolling,
	FlagNameRequiresWorkSelection:  setup.FlagRequiresWorkSelection,
}

// ParseFlags folds flag names into a flag word. Names are case-insensitive
// and may repeat.
func ParseFlags(names []string) (uint32, error) {
	var flags uint32
	for _, name := range names {
		bit, ok := flagBits[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return 0, fmt.Errorf("unknown flag %q", name)
		}
		flags |= bit
	}
	return flags, nil
}

// Policy converts the served protocol list into a responder policy.
func (c UpstreamConfig) Policy() (negotiate.Policy, error) {
	policy := make(negotiate.Policy, len(c.Protocols))
	for _, entry := range c.Protocols {
		proto, err := setup.ParseProtocolName(entry.Name)
		if err != nil {
			return nil, err
		}
		if _, dup := policy[proto]; dup {
			return nil, fmt.Errorf("duplicate protocol %q", entry.Name)
		}
		flags, err := ParseFlags(entry.Flags)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", entry.Name, err)
		}
		policy[proto] = negotiate.Support{
			MinVersion: uint16(entry.MinVersion),
			MaxVersion: uint16(entry.MaxVersion),
			Flags:      flags,
		}
	}
	return policy, nil
}

// Request builds the SetupConnection this downstream opens with.
func (c DownstreamConfig) Request() (setup.SetupConnection, error) {
	proto, err := setup.ParseProtocolName(c.Protocol)
	if err != nil {
		return setup.SetupConnection{}, err
	}
	flags, err := ParseFlags(c.Flags)
	if err != nil {
		return setup.SetupConnection{}, err
	}
	req, err := setup.NewSetupConnection(
		proto,
		uint16(c.MinVersion),
		uint16(c.MaxVersion),
		flags,
		setup.Endpoint{Host: c.EndpointHost, Port: uint16(c.EndpointPort)},
		setup.Device{
			Vendor:          c.Device.Vendor,
			HardwareVersion: c.Device.HardwareVersion,
			Firmware:        c.Device.Firmware,
			DeviceID:        c.Device.DeviceID,
		},
	)
	if err != nil {
		return setup.SetupConnection{}, err
	}
	if err := req.Validate(); err != nil {
		return setup.SetupConnection{}, err
	}
	return req, nil
}

package config

import (
	"fmt"
	"math"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/sv2setup/internal/protocol/setup"
)

const (
	defaultUpstreamName = "sv2-upstream"
	defaultVersion      = 2
)

// UpstreamConfig describes what a pool or job provider serves.
type UpstreamConfig struct {
	Name      string           `toml:"name"`
	Protocols []ProtocolConfig `toml:"protocols"`
}

// ProtocolConfig is one served protocol. Flags lists the feature names the
// upstream requires of its peers.
type ProtocolConfig struct {
	Name       string   `toml:"name"`
	MinVersion int      `toml:"min_version"`
	MaxVersion int      `toml:"max_version"`
	Flags      []string `toml:"flags"`
}

// DownstreamConfig describes the device or proxy opening a connection.
type DownstreamConfig struct {
	Protocol     string       `toml:"protocol"`
	MinVersion   int          `toml:"min_version"`
	MaxVersion   int          `toml:"max_version"`
	Flags        []string     `toml:"flags"`
	EndpointHost string       `toml:"endpoint_host"`
	EndpointPort int          `toml:"endpoint_port"`
	Device       DeviceConfig `toml:"device"`
}

type DeviceConfig struct {
	Vendor          string `toml:"vendor"`
	HardwareVersion string `toml:"hardware_version"`
	Firmware        string `toml:"firmware"`
	DeviceID        string `toml:"device_id"`
}

func LoadUpstreamConfig(path string) (UpstreamConfig, error) {
	var cfg UpstreamConfig
	meta, err := loadToml(path, &cfg)
	if err != nil {
		return UpstreamConfig{}, err
	}
	if !meta.IsDefined("name") {
		cfg.Name = defaultUpstreamName
	}
	for i := range cfg.Protocols {
		// Array-of-tables keys are not tracked per element, so zero means unset.
		p := &cfg.Protocols[i]
		if p.MinVersion == 0 && p.MaxVersion == 0 {
			p.MinVersion, p.MaxVersion = defaultVersion, defaultVersion
		}
	}
	if err := ValidateUpstreamConfig(cfg); err != nil {
		return UpstreamConfig{}, err
	}
	return cfg, nil
}

func LoadDownstreamConfig(path string) (DownstreamConfig, error) {
	var cfg DownstreamConfig
	meta, err := loadToml(path, &cfg)
	if err != nil {
		return DownstreamConfig{}, err
	}
	if !meta.IsDefined("protocol") {
		cfg.Protocol = "mining"
	}
	if !meta.IsDefined("min_version") {
		cfg.MinVersion = defaultVersion
	}
	if !meta.IsDefined("max_version") {
		cfg.MaxVersion = max(cfg.MinVersion, defaultVersion)
	}
	if err := ValidateDownstreamConfig(cfg); err != nil {
		return DownstreamConfig{}, err
	}
	return cfg, nil
}

func loadToml(path string, out any) (toml.MetaData, error) {
	meta, err := toml.DecodeFile(path, out)
	if err != nil {
		return toml.MetaData{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return toml.MetaData{}, fmt.Errorf("config parse failed (%s): unknown key %q", path, undecoded[0].String())
	}
	return meta, nil
}

func ValidateUpstreamConfig(cfg UpstreamConfig) error {
	if strings.TrimSpace(cfg.Name) == "" {
		return fmt.Errorf("upstream config missing name")
	}
	if len(cfg.Protocols) == 0 {
		return fmt.Errorf("upstream config serves no protocols")
	}
	seen := make(map[setup.Protocol]struct{}, len(cfg.Protocols))
	for i, p := range cfg.Protocols {
		if err := ValidateProtocolEntry(p); err != nil {
			return fmt.Errorf("protocols[%d] invalid: %w", i, err)
		}
		proto, _ := setup.ParseProtocolName(p.Name)
		if _, dup := seen[proto]; dup {
			return fmt.Errorf("protocols[%d] invalid: duplicate protocol %q", i, p.Name)
		}
		seen[proto] = struct{}{}
	}
	return nil
}

func ValidateProtocolEntry(p ProtocolConfig) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if _, err := setup.ParseProtocolName(p.Name); err != nil {
		return err
	}
	if err := validateVersionRange(p.MinVersion, p.MaxVersion); err != nil {
		return err
	}
	_, err := ParseFlags(p.Flags)
	return err
}

func ValidateDownstreamConfig(cfg DownstreamConfig) error {
	if _, err := setup.ParseProtocolName(cfg.Protocol); err != nil {
		return fmt.Errorf("downstream config: %w", err)
	}
	if err := validateVersionRange(cfg.MinVersion, cfg.MaxVersion); err != nil {
		return fmt.Errorf("downstream config: %w", err)
	}
	if strings.TrimSpace(cfg.EndpointHost) == "" {
		return fmt.Errorf("downstream config missing endpoint_host")
	}
	if cfg.EndpointPort < 0 || cfg.EndpointPort > math.MaxUint16 {
		return fmt.Errorf("downstream config endpoint_port out of range: %d", cfg.EndpointPort)
	}
	if strings.TrimSpace(cfg.Device.Vendor) == "" {
		return fmt.Errorf("downstream config missing device.vendor")
	}
	if _, err := ParseFlags(cfg.Flags); err != nil {
		return fmt.Errorf("downstream config: %w", err)
	}
	return nil
}

func validateVersionRange(minVersion, maxVersion int) error {
	if minVersion < 0 || minVersion > math.MaxUint16 {
		return fmt.Errorf("min_version out of range: %d", minVersion)
	}
	if maxVersion < 0 || maxVersion > math.MaxUint16 {
		return fmt.Errorf("max_version out of range: %d", maxVersion)
	}
	if minVersion > maxVersion {
		return fmt.Errorf("min_version %d > max_version %d", minVersion, maxVersion)
	}
	return nil
}

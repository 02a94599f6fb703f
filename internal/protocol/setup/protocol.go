package setup

import (
	"fmt"
	"strings"
)

//go:generate go tool stringer -type=Protocol -trimprefix=Protocol

// Protocol identifies the subprotocol a connection is opened for.
type Protocol uint8

const (
	ProtocolMining               Protocol = 0
	ProtocolJobDeclaration       Protocol = 1
	ProtocolTemplateDistribution Protocol = 2
	ProtocolJobDistribution      Protocol = 3
)

// Protocols lists every known identity in code order.
var Protocols = []Protocol{
	ProtocolMining,
	ProtocolJobDeclaration,
	ProtocolTemplateDistribution,
	ProtocolJobDistribution,
}

// DecodeProtocol maps a wire code to its identity.
func DecodeProtocol(code byte) (Protocol, error) {
	switch p := Protocol(code); p {
	case ProtocolMining, ProtocolJobDeclaration, ProtocolTemplateDistribution, ProtocolJobDistribution:
		return p, nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrInvalidProtocolCode, code)
	}
}

// Code returns the one-byte wire discriminant.
func (p Protocol) Code() byte { return byte(p) }

var protocolNames = map[string]Protocol{
	"mining":                ProtocolMining,
	"job-declaration":       ProtocolJobDeclaration,
	"template-distribution": ProtocolTemplateDistribution,
	"job-distribution":      ProtocolJobDistribution,
}

// ParseProtocolName resolves a config name such as "mining".
func ParseProtocolName(name string) (Protocol, error) {
	p, ok := protocolNames[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("setup: unknown protocol name %q", name)
	}
	return p, nil
}

// ConfigName is the inverse of ParseProtocolName.
func (p Protocol) ConfigName() string {
	for name, v := range protocolNames {
		if v == p {
			return name
		}
	}
	return p.String()
}

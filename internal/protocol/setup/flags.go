package setup

import "fmt"

// Mining protocol flag bits. Bit 0 is the least significant bit of the
// stored word.
const (
	FlagRequiresStandardJobs   uint32 = 1 << 0
	FlagRequiresVersionRolling uint32 = 1 << 1
	FlagRequiresWorkSelection  uint32 = 1 << 2
)

func HasRequiresStandardJob(flags uint32) bool {
	return flags&FlagRequiresStandardJobs != 0
}

func HasVersionRolling(flags uint32) bool {
	return flags&FlagRequiresVersionRolling != 0
}

func HasWorkSelection(flags uint32) bool {
	return flags&FlagRequiresWorkSelection != 0
}

// flagPolicy lists the feature bits a protocol negotiates. A bit the local
// side requires must be asserted by the peer.
type flagPolicy struct {
	features []uint32
}

var flagPolicies = map[Protocol]flagPolicy{
	ProtocolMining: {
		features: []uint32{FlagRequiresVersionRolling, FlagRequiresWorkSelection},
	},
}

// UnsupportedFlags returns the negotiated bits set in available that required
// does not assert. Protocols without a flag policy fail with
// ErrUnimplementedProtocolCheck.
func UnsupportedFlags(protocol Protocol, available, required uint32) (uint32, error) {
	policy, ok := flagPolicies[protocol]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnimplementedProtocolCheck, protocol)
	}
	var missing uint32
	for _, bit := range policy.features {
		if available&bit != 0 && required&bit == 0 {
			missing |= bit
		}
	}
	return missing, nil
}

// FlagsCompatible reports whether the peer's required word satisfies every
// feature the local available word requires.
func FlagsCompatible(protocol Protocol, available, required uint32) (bool, error) {
	missing, err := UnsupportedFlags(protocol, available, required)
	if err != nil {
		return false, err
	}
	return missing == 0, nil
}

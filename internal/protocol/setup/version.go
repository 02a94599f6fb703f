package setup

// SelectVersion intersects two inclusive version ranges and returns the
// highest version in the intersection. ok is false when the ranges are
// disjoint or either range is reversed.
func SelectVersion(selfMin, selfMax, peerMin, peerMax uint16) (version uint16, ok bool) {
	if selfMin > selfMax || peerMin > peerMax {
		return 0, false
	}
	if selfMin > peerMax || peerMin > selfMax {
		return 0, false
	}
	return min(selfMax, peerMax), true
}

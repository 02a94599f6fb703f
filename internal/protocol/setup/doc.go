// Package setup owns the connection-setup message family.
//
// Ownership boundary:
// - protocol identity enumeration
// - feature flag semantics and version negotiation
// - SetupConnection / SetupConnectionSuccess / SetupConnectionError bodies
// - owned mirrors for handing messages across a foreign boundary
//
// Borrowed messages (SetupConnection, SetupConnectionError) alias the bytes
// they were decoded from. Owned mirrors hold independently allocated buffers
// and must be released exactly once.
package setup

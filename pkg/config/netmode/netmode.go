package netmode

import "strconv"

const (
	// MainNet is the production network.
	MainNet Magic = 0x41444231 // ADB1
	// TestNet is the public testing network.
	TestNet Magic = 0x41445431 // ADT1
	// PrivNet is usually used for local setups.
	PrivNet Magic = 56753
	// UnitTestNet is a stub magic code used for testing purposes.
	UnitTestNet Magic = 42
)

// Magic describes the network the ledger will operate on.
type Magic uint32

// String implements the stringer interface.
func (n Magic) String() string {
	switch n {
	case PrivNet:
		return "privnet"
	case TestNet:
		return "testnet"
	case MainNet:
		return "mainnet"
	case UnitTestNet:
		return "unit_testnet"
	default:
		return "net 0x" + strconv.FormatUint(uint64(n), 16)
	}
}

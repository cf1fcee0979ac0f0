package sui

import (
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	AddressLength = 32

	// Well-known shared objects
	SystemStateObjectID = "0x0000000000000000000000000000000000000000000000000000000000000005"
	ClockObjectID       = "0x0000000000000000000000000000000000000000000000000000000000000006"

	SuiCoinType     = "0x2::sui::SUI"
	StakedSuiType   = "0x3::staking_pool::StakedSui"
	SuiDecimals     = 9
	MistPerSui      = 1_000_000_000
	systemObjectVer = 1
)

type Address [AddressLength]byte

// ParseAddress accepts full or short (0x5) hex forms, with or without the 0x prefix.
func ParseAddress(s string) (Address, error) {
	var addr Address
	h := strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X")
	if h == "" || len(h) > AddressLength*2 {
		return addr, fmt.Errorf("invalid sui address:%q", s)
	}
	if len(h)%2 == 1 {
		h = "0" + h
	}
	raw, err := hex.DecodeString(h)
	if err != nil {
		return addr, fmt.Errorf("invalid sui address:%q: %w", s, err)
	}
	copy(addr[AddressLength-len(raw):], raw)
	return addr, nil
}

func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// NormalizeAddress returns the canonical 0x-prefixed 64 hex char form, or the input unchanged
// if it can't be parsed.
func NormalizeAddress(s string) string {
	addr, err := ParseAddress(s)
	if err != nil {
		return s
	}
	return addr.String()
}

func SameAddress(a, b string) bool {
	return NormalizeAddress(a) == NormalizeAddress(b)
}

package device

import (
	"fmt"
	"regexp"
	"strings"
)

var macAddressPattern = regexp.MustCompile(`^[0-9A-Fa-f]{2}([:-][0-9A-Fa-f]{2}){5}$`)

// IsValidAddress reports whether address is a 48-bit device address written as
// six hex pairs separated by ':' or '-'.
func IsValidAddress(address string) bool {
	return macAddressPattern.MatchString(address)
}

// FormatAddress returns the canonical colon-separated, upper-case form of a
// device address. Identifiers that are not MAC addresses (CoreBluetooth hands
// out per-host UUIDs) are returned unchanged.
func FormatAddress(address string) string {
	if !IsValidAddress(address) {
		return address
	}
	return strings.ToUpper(strings.ReplaceAll(address, "-", ":"))
}

// ValidateAddress returns the canonical form of address or ErrInvalidAddress.
func ValidateAddress(address string) (string, error) {
	if !IsValidAddress(address) {
		return "", fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}
	return FormatAddress(address), nil
}

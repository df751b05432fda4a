package device

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	sigBasePrefix = "0000"
	sigBaseSuffix = "00001000800000805f9b34fb"
)

// NormalizeUUID converts a UUID string to the internal format (lowercase, no dashes).
// Strips a 0x prefix if present (e.g., "0x1101" -> "1101").
// For full 128-bit UUIDs in Bluetooth SIG base format (0000xxxx-0000-1000-8000-00805f9b34fb),
// extracts the 16-bit short form (xxxx).
// Returns "" when the input is not hex of a supported length.
func NormalizeUUID(uuid string) string {
	u := strings.ToLower(strings.TrimSpace(uuid))
	u = strings.TrimPrefix(u, "0x")
	u = strings.ReplaceAll(u, "-", "")

	for _, r := range u {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return ""
		}
	}

	switch len(u) {
	case 4:
		return u
	case 8:
		if strings.HasPrefix(u, sigBasePrefix) {
			return u[4:]
		}
		return u
	case 32:
		if strings.HasPrefix(u, sigBasePrefix) && strings.HasSuffix(u, sigBaseSuffix) {
			return u[4:8]
		}
		return u
	default:
		return ""
	}
}

// NormalizeUUIDs normalizes a slice of UUID strings to internal format.
func NormalizeUUIDs(uuids []string) []string {
	out := make([]string, 0, len(uuids))
	for _, u := range uuids {
		if n := NormalizeUUID(u); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// UUID16 returns the internal form of a 16-bit UUID.
func UUID16(u uint16) string {
	return fmt.Sprintf("%04x", u)
}

// ParseUUID16 parses a 16-bit UUID written as "1101", "0x1101" or in SIG base form.
// Zero is rejected.
func ParseUUID16(s string) (uint16, error) {
	n := NormalizeUUID(s)
	if len(n) != 4 {
		return 0, fmt.Errorf("invalid 16-bit UUID: %q", s)
	}
	v, err := strconv.ParseUint(n, 16, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid 16-bit UUID: %q: %w", s, err)
	}
	if v == 0 {
		// 0x0000 is the base UUID, never a service class.
		return 0, fmt.Errorf("invalid 16-bit UUID: %q is reserved", s)
	}
	return uint16(v), nil
}

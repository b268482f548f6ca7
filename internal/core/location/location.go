// Package location maps a user's last network address to a classroom label.
// Dotted IPv4 addresses use their final octet, colon IPv6 addresses use their
// final group verbatim. Anything else resolves to Unknown
package location

import (
	"net/netip"
	"strings"

	perr "rollcall/internal/platform/errors"
)

const (
	// Unknown is the label for absent or unparseable addresses
	Unknown = "Unknown"

	// labelPrefix is prepended to the address segment
	labelPrefix = "Classroom "
)

// Classroom returns the classroom label for addr. It never fails
func Classroom(addr string) string {
	seg, err := Segment(addr)
	if err != nil {
		return Unknown
	}
	return labelPrefix + seg
}

// Segment returns the trailing address segment the label is derived from.
// IPv6 groups are returned as written (no case folding, no zero stripping) so
// "::ffff:c0a8:012d" yields "012d"
func Segment(addr string) (string, error) {
	raw := strings.TrimSpace(addr)
	if raw == "" {
		return "", perr.New(perr.ErrorCodeMalformedAddress, "empty address")
	}

	if strings.Contains(raw, ":") {
		// scoped addresses (fe80::1%eth0) keep the zone out of the label
		if i := strings.IndexByte(raw, '%'); i >= 0 {
			raw = raw[:i]
		}
		ip, err := netip.ParseAddr(raw)
		if err != nil || !ip.Is6() {
			return "", perr.Wrapf(err, perr.ErrorCodeMalformedAddress, "not an ipv6 address: %q", addr)
		}
		seg := raw[strings.LastIndexByte(raw, ':')+1:]
		if seg == "" {
			return "", perr.Newf(perr.ErrorCodeMalformedAddress, "ipv6 address has no trailing group: %q", addr)
		}
		return seg, nil
	}

	ip, err := netip.ParseAddr(raw)
	if err != nil || !ip.Is4() {
		return "", perr.Wrapf(err, perr.ErrorCodeMalformedAddress, "not an ipv4 address: %q", addr)
	}
	return raw[strings.LastIndexByte(raw, '.')+1:], nil
}

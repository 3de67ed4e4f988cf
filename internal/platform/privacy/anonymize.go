// Package privacy reduces personally identifiable information to forms safe
// for logs. Sign-in auditing wants to know roughly where and for whom an
// attempt happened, never the exact address or mailbox.
package privacy

import (
	"fmt"
	"net"
	"strings"
)

// AnonymizeIP truncates an address so it no longer identifies a single
// host: IPv4 keeps the /24 ("192.168.1.47" -> "192.168.1.0"), IPv6 keeps
// the /48 ("2001:db8:85a3::8a2e:370:7334" -> "2001:0db8:85a3::").
// Bracketed IPv6 hosts, as they appear in RemoteAddr, are accepted.
//
// Returns "unknown" for empty input and "invalid" for unparseable input.
func AnonymizeIP(ip string) string {
	if ip == "" || ip == "unknown" {
		return "unknown"
	}

	ip = strings.TrimPrefix(ip, "[")
	ip = strings.TrimSuffix(ip, "]")

	parsed := net.ParseIP(ip)
	if parsed == nil {
		return "invalid"
	}

	if v4 := parsed.To4(); v4 != nil {
		return fmt.Sprintf("%d.%d.%d.0", v4[0], v4[1], v4[2])
	}

	return fmt.Sprintf("%02x%02x:%02x%02x:%02x%02x::",
		parsed[0], parsed[1],
		parsed[2], parsed[3],
		parsed[4], parsed[5])
}

// MaskEmail redacts the local part of an email address, keeping its first
// character and the full domain ("taro.yamada@example.com" ->
// "t***@example.com"). That is enough for operators to spot per-account
// patterns while staying useless for enumeration.
//
// Returns "unknown" for empty strings and "invalid" for values without a
// usable local part and domain.
func MaskEmail(email string) string {
	if email == "" {
		return "unknown"
	}

	at := strings.LastIndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return "invalid"
	}

	return email[:1] + "***@" + email[at+1:]
}

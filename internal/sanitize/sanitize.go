// Package sanitize normalizes untrusted marketplace strings before storage.
package sanitize

// String strips every byte outside the printable ASCII range
// (space through tilde). Collection symbols and wallet addresses are
// plain ASCII already; anything else in an upstream payload has broken
// storage and transport layers before, so the filter is aggressive.
// An empty input passes through unchanged.
func String(s string) string {
	if s == "" {
		return s
	}

	clean := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x20 && s[i] <= 0x7E {
			clean = append(clean, s[i])
		}
	}
	return string(clean)
}

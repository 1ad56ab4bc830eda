package domain

import "strings"

// NormalizeTaxID strips formatting punctuation (dots, dashes, slashes, spaces)
// from a user-typed CPF/CNPJ, keeping digits only.
func NormalizeTaxID(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeAddress guarantees a display address ends with a two-letter region
// suffix, appending the configured default when the backend omitted it. Empty
// addresses stay empty.
func NormalizeAddress(addr, defaultRegion string) string {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return ""
	}
	if hasRegionSuffix(addr) {
		return addr
	}
	return addr + " - " + strings.ToUpper(defaultRegion)
}

func hasRegionSuffix(addr string) bool {
	if len(addr) < 3 {
		return false
	}
	a, b := addr[len(addr)-2], addr[len(addr)-1]
	if !isUpperLetter(a) || !isUpperLetter(b) {
		return false
	}
	switch addr[len(addr)-3] {
	case ' ', '-', ',', '/':
		return true
	}
	return false
}

func isUpperLetter(c byte) bool {
	return c >= 'A' && c <= 'Z'
}

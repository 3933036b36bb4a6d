package utils

import (
	"fmt"
	"strings"
	"unicode"
)

// NormalizePhone canonicalises an Indian mobile number to +91XXXXXXXXXX.
// Pure function, shared by issuance, verification and rate limiting so all
// three always key on the same string.
//
// Recognised inputs:
//   - 10 digits starting 6-9            -> +91 prefix added
//   - 12 digits starting 91             -> + prefix added
//   - already +91 and 12 digits         -> returned as-is
//
// Anything else falls back to the last 10 digits with a +91 prefix, unless
// strict mode is on, in which case the number is rejected.
func NormalizePhone(raw string, strict bool) (string, error) {
	digits := stripNonDigits(raw)

	switch {
	case len(digits) == 10 && digits[0] >= '6' && digits[0] <= '9':
		return "+91" + digits, nil
	case len(digits) == 12 && strings.HasPrefix(digits, "91"):
		return "+" + digits, nil
	}

	if strict {
		return "", fmt.Errorf("unrecognised phone number format: %q", raw)
	}

	// Best-effort fallback: keep the last 10 digits. Lossy for foreign or
	// malformed numbers, preserved for compatibility with the live forms.
	if len(digits) > 10 {
		digits = digits[len(digits)-10:]
	}
	return "+91" + digits, nil
}

func stripNonDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// internal/core/domain/rut.go
package domain

import (
	"strconv"
	"strings"
)

// cleanRUT strips every character that is not a digit or the letter k/K.
func cleanRUT(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == 'k' || r == 'K' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FormatRUT normalizes a Chilean RUT to its canonical "body-dv" form.
// Formatting is best-effort: malformed input is returned cleaned but
// never rejected. FormatRUT is idempotent.
func FormatRUT(raw string) string {
	clean := cleanRUT(raw)
	if len(clean) <= 1 {
		return clean
	}
	body := clean[:len(clean)-1]
	dv := strings.ToLower(clean[len(clean)-1:])
	return body + "-" + dv
}

// ValidateRUT reports whether the input carries a correct modulo-11 check
// digit. Input is cleaned the same way as FormatRUT, so "12.345.678-5",
// "12345678-5" and "123456785" are all accepted.
func ValidateRUT(raw string) bool {
	clean := cleanRUT(raw)
	if len(clean) < 2 {
		return false
	}

	body := clean[:len(clean)-1]
	dv := strings.ToLower(clean[len(clean)-1:])

	t, err := strconv.ParseInt(body, 10, 64)
	if err != nil {
		// 'k' is only legal as the check digit
		return false
	}

	// Weighted sum over the body digits, least significant first.
	// The multiplier 9-(m%6) cycles the standard 2..7 weights mod 11.
	s := 1
	for m := 0; t > 0; t /= 10 {
		s = (s + int(t%10)*(9-(m%6))) % 11
		m++
	}

	expected := "k"
	if s != 0 {
		expected = strconv.Itoa(s - 1)
	}
	return expected == dv
}

package expr

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// Coerce converts a string that looks like a number into int64 or float64.
// Integers are read with base-prefix detection (0x, 0o, 0b), then floats
// are tried. Anything else, including non-string values, is returned
// unchanged.
func Coerce(v any) any {
	s, ok := v.(string)
	if !ok {
		return normalize(v)
	}
	t := strings.TrimSpace(s)
	if n, ok := parseIntLiteral(t); ok {
		return n
	}
	if f, ok := parseFloatLiteral(t); ok {
		return f
	}
	return s
}

// parseIntLiteral accepts an optionally signed integer literal with an
// optional base prefix and single underscores between digits. Decimal
// literals with a leading zero are rejected unless every digit is zero.
func parseIntLiteral(s string) (int64, bool) {
	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}
	if s == "" {
		return 0, false
	}

	base := 10
	body := s
	if len(s) > 2 && s[0] == '0' {
		switch s[1] {
		case 'x', 'X':
			base, body = 16, s[2:]
		case 'o', 'O':
			base, body = 8, s[2:]
		case 'b', 'B':
			base, body = 2, s[2:]
		}
		// A single underscore may follow the prefix.
		if base != 10 && strings.HasPrefix(body, "_") {
			body = body[1:]
		}
	}
	if !validDigits(body, base) {
		return 0, false
	}
	digits := strings.ReplaceAll(body, "_", "")
	if base == 10 && len(digits) > 1 && digits[0] == '0' && strings.Trim(digits, "0") != "" {
		return 0, false
	}

	u, err := strconv.ParseUint(digits, base, 64)
	if err != nil {
		return 0, false
	}
	if neg {
		if u > 1<<63 {
			return 0, false
		}
		return int64(-u), true
	}
	if u > math.MaxInt64 {
		return 0, false
	}
	return int64(u), true
}

func validDigits(s string, base int) bool {
	if s == "" || s[0] == '_' || s[len(s)-1] == '_' || strings.Contains(s, "__") {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '_' {
			continue
		}
		var d int
		switch {
		case c >= '0' && c <= '9':
			d = int(c - '0')
		case c >= 'a' && c <= 'z':
			d = int(c-'a') + 10
		case c >= 'A' && c <= 'Z':
			d = int(c-'A') + 10
		default:
			return false
		}
		if d >= base {
			return false
		}
	}
	return true
}

func parseFloatLiteral(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	lower := strings.ToLower(strings.TrimLeft(s, "+-"))
	// ParseFloat accepts hex floats and "0x" forms; those are not floats here.
	if strings.HasPrefix(lower, "0x") {
		return 0, false
	}
	if strings.Contains(s, "_") {
		if !validFloatUnderscores(s) {
			return 0, false
		}
		s = strings.ReplaceAll(s, "_", "")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil && !isRangeErr(err) {
		return 0, false
	}
	return f, true
}

func validFloatUnderscores(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] != '_' {
			continue
		}
		if i == 0 || i == len(s)-1 || !isDigit(s[i-1]) || !isDigit(s[i+1]) {
			return false
		}
	}
	return true
}

func isRangeErr(err error) bool {
	return errors.Is(err, strconv.ErrRange)
}

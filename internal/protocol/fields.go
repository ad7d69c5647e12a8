package protocol

import "strconv"

// ParseFixedPoint parses an unsigned decimal of the form D+ or D+.D+. Signs,
// exponents and the NaN and Inf spellings that strconv accepts are rejected.
func ParseFixedPoint(s string) (float64, bool) {
	digits, dot := 0, -1
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c >= '0' && c <= '9':
			digits++
		case c == '.' && dot < 0:
			dot = i
		default:
			return 0, false
		}
	}
	if digits == 0 || dot == 0 || dot == len(s)-1 {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

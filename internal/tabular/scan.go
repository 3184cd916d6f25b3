package tabular

import "strconv"

// Exact powers of ten representable as float64.
var pow10 = [...]float64{
	1e0, 1e1, 1e2, 1e3, 1e4, 1e5, 1e6, 1e7, 1e8, 1e9, 1e10,
	1e11, 1e12, 1e13, 1e14, 1e15, 1e16, 1e17, 1e18, 1e19, 1e20, 1e21, 1e22,
}

// ParseUint decodes a non-negative decimal integer. A single trailing space
// is tolerated.
func ParseUint(b []byte) (uint64, bool) {
	if len(b) > 0 && b[len(b)-1] == ' ' {
		b = b[:len(b)-1]
	}
	if len(b) == 0 || len(b) > 19 {
		return 0, false
	}
	var x uint64
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0, false
		}
		x = x*10 + uint64(c-'0')
	}
	return x, true
}

// ParseFloat decodes numbers of the form -?digits(.digits)? and nothing
// else: no exponent, no sign other than a leading minus, no hex.
func ParseFloat(b []byte) (float64, bool) {
	if len(b) > 0 && b[len(b)-1] == ' ' {
		b = b[:len(b)-1]
	}
	s := b
	neg := false
	if len(s) > 0 && s[0] == '-' {
		neg = true
		s = s[1:]
	}

	var mant uint64
	digits, frac := 0, 0
	seenDot := false
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
			if digits < 19 {
				mant = mant*10 + uint64(c-'0')
			}
			digits++
			if seenDot {
				frac++
			}
		case c == '.' && !seenDot:
			seenDot = true
		default:
			return 0, false
		}
	}
	if digits == 0 {
		return 0, false
	}

	var f float64
	if digits <= 15 && frac < len(pow10) {
		// Both operands are exact, so the division is correctly rounded.
		f = float64(mant) / pow10[frac]
	} else {
		var err error
		f, err = strconv.ParseFloat(string(s), 64)
		if err != nil {
			return 0, false
		}
	}
	if neg {
		f = -f
	}
	return f, true
}

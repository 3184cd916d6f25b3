package gtfs

import (
	"bytes"
	"fmt"

	"transitfeed/internal/tabular"
)

// decoder converts fields of the current row into typed values. strict is
// fixed per parse: in lenient mode malformed or out-of-range values fall
// back to the caller's default where one exists.
type decoder struct {
	r      *tabular.Reader
	strict bool
}

func (d decoder) str(i int) (string, error) {
	if d.r.IsEmpty(i) {
		return "", d.r.Errorf(i, "expected non-empty string")
	}
	return d.r.Text(i), nil
}

func (d decoder) strOr(i int, def string) string {
	if d.r.IsEmpty(i) {
		return def
	}
	return d.r.Text(i)
}

func (d decoder) float(i int) (float64, error) {
	f, ok := tabular.ParseFloat(d.r.Field(i))
	if !ok {
		return 0, d.r.Errorf(i, "expected float number, found %s", d.r.Text(i))
	}
	return f, nil
}

func (d decoder) floatOr(i int, def float64) (float64, error) {
	if d.r.IsEmpty(i) {
		return def, nil
	}
	return d.float(i)
}

func (d decoder) rangedInt(i int, lo, hi int64) (int64, error) {
	v, ok := tabular.ParseUint(d.r.Field(i))
	if !ok {
		return 0, d.r.Errorf(i, "expected non-negative integer number")
	}
	if v > uint64(hi) || int64(v) < lo {
		return 0, d.r.Errorf(i, "expected integer in range [%d,%d]", lo, hi)
	}
	return int64(v), nil
}

func (d decoder) rangedIntOr(i int, lo, hi, def int64) (int64, error) {
	if d.r.IsEmpty(i) {
		return def, nil
	}
	v, err := d.rangedInt(i, lo, hi)
	if err != nil {
		if d.strict {
			return 0, err
		}
		return def, nil
	}
	return v, nil
}

func (d decoder) hexColor(i int, def uint32) (uint32, error) {
	b := d.r.Field(i)
	if len(b) == 0 {
		return def, nil
	}
	c, ok := parseHex6(b)
	if !ok {
		if d.strict {
			return 0, d.r.Errorf(i, "expected a 6-character hexadecimal color string, found '%s' instead.", b)
		}
		return def, nil
	}
	return c, nil
}

func parseHex6(b []byte) (uint32, bool) {
	if len(b) != 6 {
		return 0, false
	}
	var c uint32
	for _, ch := range b {
		var v byte
		switch {
		case ch >= '0' && ch <= '9':
			v = ch - '0'
		case ch >= 'a' && ch <= 'f':
			v = ch - 'a' + 10
		case ch >= 'A' && ch <= 'F':
			v = ch - 'A' + 10
		default:
			return 0, false
		}
		c = c<<4 | uint32(v)
	}
	return c, true
}

func (d decoder) serviceDate(i int, required bool) (Date, error) {
	b := d.r.Field(i)
	if len(b) == 0 && !required {
		return 0, nil
	}
	v, ok := tabular.ParseUint(b)
	if !ok || len(bytes.TrimRight(b, " ")) != 8 {
		return 0, d.r.Errorf(i, "expected a date in the YYYYMMDD format, found '%s' instead.", b)
	}
	date := DateFromInt(int(v))
	if v < 19000101 || date.Month() < 1 || date.Month() > 12 || date.Day() < 1 || date.Day() > 31 {
		return 0, d.r.Errorf(i, "expected a date in the YYYYMMDD format, found '%s' instead. (Integer out of range).", b)
	}
	return date, nil
}

func (d decoder) time(i int) (Time, error) {
	b := d.r.Field(i)
	if len(b) == 0 {
		return EmptyTime, nil
	}
	t, reason := parseClock(b, d.strict)
	if reason != "" {
		return 0, d.r.Errorf(i, "expected a time in HH:MM:SS (or H:MM:SS) format, found '%s' instead. (%s)", b, reason)
	}
	return t, nil
}

// parseClock reads H:MM[:SS]. It returns a non-empty reason on failure.
func parseClock(b []byte, strict bool) (Time, string) {
	parts := bytes.Split(b, []byte{':'})
	if len(parts) < 2 || len(parts) > 3 {
		return 0, "expected two or three colon-separated components"
	}

	h, ok := tabular.ParseUint(parts[0])
	if !ok {
		return 0, "invalid hour value"
	}
	if h > 255 {
		return 0, fmt.Sprintf("only hour-values up to 255 are supported. (read %d)", h)
	}

	m, ok := tabular.ParseUint(parts[1])
	if !ok {
		return 0, "invalid minute value"
	}
	if len(parts[1]) == 1 && strict {
		return 0, "one-digit minute values are not allowed."
	}
	if m > 60 {
		return 0, fmt.Sprintf("only minute-values up to 60 are allowed. (read %d)", m)
	}

	var s uint64
	if len(parts) == 3 {
		if s, ok = tabular.ParseUint(parts[2]); !ok {
			return 0, "invalid second value"
		}
		if len(parts[2]) == 1 && strict {
			return 0, "one-digit second values are not allowed."
		}
		if s > 60 {
			return 0, fmt.Sprintf("only second-values up to 60 are allowed. (read %d)", s)
		}
	}
	return NewTime(int(h), int(m), int(s)), ""
}

func (d decoder) routeType(i int) (RouteType, error) {
	code, err := d.rangedInt(i, 0, maxRouteTypeCode)
	if err != nil {
		return 0, err
	}
	t, ok := RouteTypeFromCode(code)
	if !ok {
		return 0, d.r.Errorf(i, "route type '%d' not supported.", code)
	}
	return t, nil
}

// Package tabular reads comma-separated GTFS tables line by line.
//
// It is deliberately more forgiving than encoding/csv: fields are trimmed,
// unterminated quotes run to the end of the line instead of failing, and
// every row keeps the line number it came from so that decode errors can
// point at an exact file position.
package tabular

import "bytes"

var bom = []byte{0xef, 0xbb, 0xbf}

// Tokenize splits a single line (without its terminator) into fields and
// appends them to fields[:0].
//
// Unquoted fields alias line. A quoted field aliases line too unless it
// contains an escaped quote, in which case a de-escaped copy is returned.
// Trailing whitespace is trimmed by reslicing, so the returned slices must
// not be used to recover the original bytes of line.
func Tokenize(line []byte, fields [][]byte) [][]byte {
	fields = fields[:0]
	line = bytes.TrimPrefix(line, bom)

	pos := 0
	for {
		for pos < len(line) && isSpace(line[pos]) {
			pos++
		}

		var field []byte
		if pos < len(line) && line[pos] == '"' {
			field, pos = unquote(line, pos+1)
		} else {
			field = line[pos:]
			if i := bytes.IndexByte(field, ','); i >= 0 {
				field = field[:i]
			}
			pos += len(field)
		}
		fields = append(fields, trimRight(field))

		// Anything between a closing quote and the next comma is dropped.
		i := bytes.IndexByte(line[pos:], ',')
		if i < 0 {
			return fields
		}
		pos += i + 1
	}
}

// unquote scans a quoted field starting just after its opening quote. It
// returns the field content and the position following the closing quote,
// or len(line) when the quote is never closed.
func unquote(line []byte, start int) ([]byte, int) {
	escaped := 0
	i := start
	for i < len(line) {
		j := bytes.IndexByte(line[i:], '"')
		if j < 0 {
			break
		}
		i += j
		if i+1 < len(line) && line[i+1] == '"' {
			escaped++
			i += 2
			continue
		}
		return deescape(line[start:i], escaped), i + 1
	}
	return deescape(line[start:], escaped), len(line)
}

func deescape(field []byte, escaped int) []byte {
	if escaped == 0 {
		return field
	}
	out := make([]byte, 0, len(field)-escaped)
	for i := 0; i < len(field); i++ {
		out = append(out, field[i])
		if field[i] == '"' && i+1 < len(field) && field[i+1] == '"' {
			i++
		}
	}
	return out
}

func trimRight(b []byte) []byte {
	n := len(b)
	for n > 0 && isSpace(b[n-1]) {
		n--
	}
	return b[:n]
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

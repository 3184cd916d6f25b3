package tabular

import (
	"bufio"
	"fmt"
	"io"
)

const maxLineSize = 16 << 20

// Reader iterates over the data rows of one table. The first non-empty line
// is consumed as the header by NewReader.
type Reader struct {
	sc         *bufio.Scanner
	header     *Header
	headerLine int
	fields     [][]byte
	line       int
	err        error
}

// NewReader reads the header row of r. A table with no lines at all yields
// an empty header; required column lookups on it fail.
func NewReader(r io.Reader) (*Reader, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	rd := &Reader{sc: sc, fields: make([][]byte, 0, 16)}
	if rd.Next() {
		rd.header = NewHeader(rd.fields)
		rd.headerLine = rd.line
	} else {
		if rd.err != nil {
			return nil, rd.err
		}
		rd.header = NewHeader(nil)
		rd.headerLine = 1
	}
	return rd, nil
}

// Next advances to the next non-blank line. Blank lines still count
// towards line numbers.
func (r *Reader) Next() bool {
	for r.sc.Scan() {
		r.line++
		b := r.sc.Bytes()
		if len(trimRight(b)) == 0 {
			continue
		}
		r.fields = Tokenize(b, r.fields)
		return true
	}
	if err := r.sc.Err(); err != nil {
		r.err = fmt.Errorf("read line %d: %w", r.line+1, err)
	}
	r.fields = r.fields[:0]
	return false
}

// Err returns the first I/O error encountered by Next.
func (r *Reader) Err() error { return r.err }

// Header returns the table's column index.
func (r *Reader) Header() *Header { return r.header }

// Line is the 1-based line number of the current row.
func (r *Reader) Line() int { return r.line }

// Columns is the number of fields on the current row.
func (r *Reader) Columns() int { return len(r.fields) }

// Index looks up a required column; the error points at the header line.
func (r *Reader) Index(name string) (int, error) {
	i, err := r.header.Index(name)
	if err != nil {
		e := err.(*Error)
		e.Line = r.headerLine
		return Absent, e
	}
	return i, nil
}

// OptIndex looks up an optional column.
func (r *Reader) OptIndex(name string) int { return r.header.OptIndex(name) }

// Field returns the raw bytes of column i on the current row. The slice is
// only valid until the next call to Next.
func (r *Reader) Field(i int) []byte {
	if i < 0 || i >= len(r.fields) {
		return nil
	}
	return r.fields[i]
}

// Text returns column i as a string.
func (r *Reader) Text(i int) string { return string(r.Field(i)) }

// IsEmpty reports whether column i is absent or blank on the current row.
func (r *Reader) IsEmpty(i int) bool { return len(r.Field(i)) == 0 }

// Errorf builds a decode error for column i on the current row.
func (r *Reader) Errorf(i int, format string, args ...any) *Error {
	return &Error{
		Line:  r.line,
		Field: r.header.Name(i),
		Msg:   fmt.Sprintf(format, args...),
	}
}


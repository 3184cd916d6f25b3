package tabular

import (
	"fmt"
	"strings"
)

// Error is a positioned ingestion failure.
//
// Line is 1-based with the header on line 1; a negative Line means the
// failure is not tied to a line (for example a missing table). File is
// filled in by whoever knows which table was being read.
type Error struct {
	File  string
	Line  int
	Field string
	Msg   string
	Err   error
}

// Errorf builds an Error for a named field at an explicit line.
func Errorf(line int, field, format string, args ...any) *Error {
	return &Error{Line: line, Field: field, Msg: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	var b strings.Builder
	file := e.File
	if file == "" {
		file = "?"
	}
	b.WriteString(file)
	b.WriteByte(':')
	if e.Line > -1 {
		fmt.Fprintf(&b, "%d:", e.Line)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, " in field '%s',", e.Field)
	}
	b.WriteByte(' ')
	b.WriteString(e.Msg)
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// WithFile returns a copy of e attributed to the named file.
func (e *Error) WithFile(name string) *Error {
	c := *e
	c.File = name
	return &c
}

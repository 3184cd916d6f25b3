package tabular

import (
	"strings"
	"unicode"
)

// Absent is the column index returned for optional columns missing from a
// table. Reads at Absent always yield an empty field.
const Absent = -1

// Header maps column names to positions for one table.
type Header struct {
	names      []string
	index      map[string]int
	duplicates []string
}

// NewHeader builds a Header from the tokenized first row. All whitespace is
// removed from column names. A repeated name keeps its first position.
func NewHeader(fields [][]byte) *Header {
	h := &Header{
		names: make([]string, len(fields)),
		index: make(map[string]int, len(fields)),
	}
	for i, f := range fields {
		name := strings.Map(func(r rune) rune {
			if unicode.IsSpace(r) {
				return -1
			}
			return r
		}, string(f))
		h.names[i] = name
		if _, seen := h.index[name]; seen {
			h.duplicates = append(h.duplicates, name)
			continue
		}
		h.index[name] = i
	}
	return h
}

// Index returns the position of a required column.
func (h *Header) Index(name string) (int, error) {
	i, ok := h.index[name]
	if !ok {
		return Absent, &Error{Line: -1, Field: name, Msg: "field " + name + " does not exist."}
	}
	return i, nil
}

// OptIndex returns the position of an optional column, or Absent.
func (h *Header) OptIndex(name string) int {
	if i, ok := h.index[name]; ok {
		return i
	}
	return Absent
}

// Has reports whether the table declares the column.
func (h *Header) Has(name string) bool {
	_, ok := h.index[name]
	return ok
}

// Name returns the column name at position i.
func (h *Header) Name(i int) string {
	if i >= 0 && i < len(h.names) {
		return h.names[i]
	}
	return "(no field name)"
}

// Duplicates lists the names declared more than once, in order of their
// repeated occurrence.
func (h *Header) Duplicates() []string { return h.duplicates }

// Len is the number of declared columns.
func (h *Header) Len() int { return len(h.names) }

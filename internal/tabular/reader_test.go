package tabular

import (
	"errors"
	"strings"
	"testing"
)

func TestReader_LineNumbers(t *testing.T) {
	in := "stop_id, stop_name \r\n1,A\r\n\r\n   \n2,B\n"
	r, err := NewReader(strings.NewReader(in))
	if err != nil {
		t.Fatalf("NewReader() error: %v", err)
	}

	idx, err := r.Index("stop_name")
	if err != nil {
		t.Fatalf("Index(stop_name) error: %v", err)
	}

	var lines []int
	var names []string
	for r.Next() {
		lines = append(lines, r.Line())
		names = append(names, r.Text(idx))
	}
	if err := r.Err(); err != nil {
		t.Fatalf("Err() = %v", err)
	}
	if len(lines) != 2 || lines[0] != 2 || lines[1] != 5 {
		t.Errorf("lines = %v, want [2 5]", lines)
	}
	if strings.Join(names, ",") != "A,B" {
		t.Errorf("names = %v, want [A B]", names)
	}
}

func TestReader_MissingColumn(t *testing.T) {
	r, err := NewReader(strings.NewReader("a,b\n1,2\n"))
	if err != nil {
		t.Fatal(err)
	}
	_, err = r.Index("stop_id")
	var te *Error
	if !errors.As(err, &te) {
		t.Fatalf("Index() error = %v, want *Error", err)
	}
	if te.Line != 1 || te.Field != "stop_id" {
		t.Errorf("error = %+v, want line 1 field stop_id", te)
	}
	if te.Msg != "field stop_id does not exist." {
		t.Errorf("Msg = %q", te.Msg)
	}
	if got := r.OptIndex("stop_id"); got != Absent {
		t.Errorf("OptIndex() = %d, want Absent", got)
	}
}

func TestReader_EmptyTable(t *testing.T) {
	r, err := NewReader(strings.NewReader(""))
	if err != nil {
		t.Fatal(err)
	}
	if r.Header().Len() != 0 {
		t.Errorf("header len = %d, want 0", r.Header().Len())
	}
	if r.Next() {
		t.Error("Next() on empty table = true")
	}
	if _, err := r.Index("agency_name"); err == nil {
		t.Error("Index() on empty header should fail")
	}
}

func TestReader_FieldBeyondRow(t *testing.T) {
	r, err := NewReader(strings.NewReader("a,b,c\n1\n"))
	if err != nil {
		t.Fatal(err)
	}
	if !r.Next() {
		t.Fatal("Next() = false")
	}
	if !r.IsEmpty(2) || r.Text(2) != "" {
		t.Errorf("Text(2) = %q, want empty", r.Text(2))
	}
	if !r.IsEmpty(Absent) {
		t.Error("IsEmpty(Absent) = false")
	}

	e := r.Errorf(7, "bad %s", "value")
	if e.Field != "(no field name)" || e.Line != 2 || e.Msg != "bad value" {
		t.Errorf("Errorf() = %+v", e)
	}
}

func TestHeader_StripsWhitespace(t *testing.T) {
	h := NewHeader(Tokenize([]byte("\xef\xbb\xbf stop id ,route_id"), nil))
	if _, err := h.Index("stopid"); err != nil {
		t.Errorf("Index(stopid) error: %v", err)
	}
	if h.Name(1) != "route_id" {
		t.Errorf("Name(1) = %q", h.Name(1))
	}
	if !h.Has("route_id") || h.Has("trip_id") {
		t.Error("Has() mismatch")
	}
}

func TestHeader_DuplicateKeepsFirst(t *testing.T) {
	h := NewHeader(Tokenize([]byte("stop_id,stop_name,stop_id"), nil))
	i, err := h.Index("stop_id")
	if err != nil || i != 0 {
		t.Errorf("Index(stop_id) = %d, %v, want 0, nil", i, err)
	}
	if got := h.Duplicates(); len(got) != 1 || got[0] != "stop_id" {
		t.Errorf("Duplicates() = %v, want [stop_id]", got)
	}
	if h.Len() != 3 || h.Name(2) != "stop_id" {
		t.Errorf("Len() = %d, Name(2) = %q", h.Len(), h.Name(2))
	}
}

func TestError_Format(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"full", &Error{File: "stops.txt", Line: 4, Field: "stop_lat", Msg: "expected float number, found x"},
			"stops.txt:4: in field 'stop_lat', expected float number, found x"},
		{"no line", &Error{File: "stops.txt", Line: -1, Msg: "File not found"},
			"stops.txt: File not found"},
		{"unknown file", &Error{Line: 2, Field: "a", Msg: "m"}, "?:2: in field 'a', m"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestError_WithFile(t *testing.T) {
	orig := Errorf(3, "trip_id", "trip '%s' not found.", "t1")
	withFile := orig.WithFile("frequencies.txt")
	if orig.File != "" {
		t.Error("WithFile mutated the receiver")
	}
	if withFile.File != "frequencies.txt" || withFile.Line != 3 {
		t.Errorf("WithFile() = %+v", withFile)
	}
}

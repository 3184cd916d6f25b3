package gtfs

import (
	"slices"
	"testing"
)

var strategies = []StoreStrategy{HashStore, SortedStore}

func ids(s Store[Stop]) []string {
	var out []string
	for st := range s.All() {
		out = append(out, st.ID)
	}
	return out
}

func TestStore_DuplicateKeepsFirst(t *testing.T) {
	for _, strategy := range strategies {
		t.Run(string(strategy), func(t *testing.T) {
			s := NewStore[Stop](strategy)
			first := &Stop{ID: "a", Name: "first"}
			if !s.Add("a", first) {
				t.Fatal("first Add() = false")
			}
			if s.Add("a", &Stop{ID: "a", Name: "second"}) {
				t.Error("duplicate Add() = true")
			}
			if got := s.Get("a"); got != first {
				t.Errorf("Get(a) = %+v, want first insertion", got)
			}
			if s.Len() != 1 {
				t.Errorf("Len() = %d, want 1", s.Len())
			}
			if s.Get("missing") != nil {
				t.Error("Get(missing) != nil")
			}
		})
	}
}

func TestStore_Order(t *testing.T) {
	input := []string{"m", "c", "x", "a", "q", "b"}
	tests := []struct {
		strategy StoreStrategy
		want     []string
	}{
		{HashStore, input},
		{SortedStore, []string{"a", "b", "c", "m", "q", "x"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.strategy), func(t *testing.T) {
			s := NewStore[Stop](tt.strategy)
			for _, id := range input {
				s.Add(id, &Stop{ID: id})
			}
			s.Finalize()
			if got := ids(s); !slices.Equal(got, tt.want) {
				t.Errorf("All() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSortedStore_LookupBeforeFinalize(t *testing.T) {
	s := NewStore[Stop](SortedStore)
	for _, id := range []string{"b", "d", "a", "c", "e", "0"} {
		if !s.Add(id, &Stop{ID: id}) {
			t.Fatalf("Add(%s) = false", id)
		}
	}
	for _, id := range []string{"a", "b", "c", "d", "e", "0"} {
		if got := s.Get(id); got == nil || got.ID != id {
			t.Errorf("Get(%s) = %v", id, got)
		}
	}
	if s.Add("c", &Stop{ID: "c"}) {
		t.Error("duplicate of a pending id accepted")
	}
	if s.Len() != 6 {
		t.Errorf("Len() = %d, want 6", s.Len())
	}
}

func TestParseStoreStrategy(t *testing.T) {
	tests := []struct {
		in      string
		want    StoreStrategy
		wantErr bool
	}{
		{"", HashStore, false},
		{"hash", HashStore, false},
		{"SORTED", SortedStore, false},
		{"btree", "", true},
	}
	for _, tt := range tests {
		got, err := ParseStoreStrategy(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseStoreStrategy(%q) = %q, %v", tt.in, got, err)
		}
	}
}

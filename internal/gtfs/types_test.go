package gtfs

import "testing"

func TestShape_AddPoint(t *testing.T) {
	sh := &Shape{ID: "s"}
	for _, seq := range []uint32{3, 1, 2} {
		if !sh.AddPoint(ShapePoint{Sequence: seq, Lat: float64(seq)}) {
			t.Fatalf("AddPoint(%d) = false", seq)
		}
	}

	pts := sh.Points()
	for i, want := range []uint32{1, 2, 3} {
		if pts[i].Sequence != want {
			t.Errorf("Points()[%d].Sequence = %d, want %d", i, pts[i].Sequence, want)
		}
	}

	if sh.AddPoint(ShapePoint{Sequence: 2, Lat: 99}) {
		t.Error("duplicate sequence accepted")
	}
	if len(sh.Points()) != 3 || sh.Points()[1].Lat != 2 {
		t.Error("rejected point mutated the shape")
	}
}

func TestTrip_AddStopTime(t *testing.T) {
	trip := &Trip{ID: "t"}
	if !trip.AddStopTime(StopTime{Sequence: 5}) || !trip.AddStopTime(StopTime{Sequence: 10}) {
		t.Fatal("increasing sequence rejected")
	}
	if trip.AddStopTime(StopTime{Sequence: 10}) {
		t.Error("equal sequence accepted")
	}
	if trip.AddStopTime(StopTime{Sequence: 7}) {
		t.Error("decreasing sequence accepted")
	}
	if n := len(trip.StopTimes()); n != 2 {
		t.Errorf("len(StopTimes()) = %d, want 2", n)
	}
}

func TestService_IsActiveOn(t *testing.T) {
	weekdays := &Service{
		ID:    "wk",
		Days:  Monday | Tuesday | Wednesday | Thursday | Friday,
		Begin: DateFromInt(20240101),
		End:   DateFromInt(20241231),
	}
	weekdays.AddException(DateFromInt(20240102), ServiceRemoved)
	weekdays.AddException(DateFromInt(20240106), ServiceAdded)

	tests := []struct {
		name string
		date int
		want bool
	}{
		{"monday in range", 20240101, true},
		{"removed tuesday", 20240102, false},
		{"plain saturday", 20240113, false},
		{"added saturday", 20240106, true},
		{"before range", 20231229, false},
		{"after range", 20250101, false},
		{"last day", 20241231, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := weekdays.IsActiveOn(DateFromInt(tt.date)); got != tt.want {
				t.Errorf("IsActiveOn(%d) = %v, want %v", tt.date, got, tt.want)
			}
		})
	}
}

func TestService_ExceptionsOnly(t *testing.T) {
	s := NewService("holiday")
	s.AddException(DateFromInt(20241225), ServiceAdded)
	s.AddException(DateFromInt(20240704), ServiceAdded)

	if s.HasServiceDays() {
		t.Error("HasServiceDays() = true for exception-only service")
	}
	if !s.IsActiveOn(DateFromInt(20241225)) {
		t.Error("IsActiveOn(exception date) = false")
	}
	if s.IsActiveOn(DateFromInt(20241224)) {
		t.Error("IsActiveOn(other date) = true")
	}

	ex := s.Exceptions()
	if len(ex) != 2 || ex[0].Date.Int() != 20240704 || ex[1].Date.Int() != 20241225 {
		t.Errorf("Exceptions() = %v, want date order", ex)
	}
}

func TestRoute_Name(t *testing.T) {
	if got := (&Route{ShortName: "21", LongName: "Lake St"}).Name(); got != "21" {
		t.Errorf("Name() = %q", got)
	}
	if got := (&Route{LongName: "Blue Line"}).Name(); got != "Blue Line" {
		t.Errorf("Name() = %q", got)
	}
}

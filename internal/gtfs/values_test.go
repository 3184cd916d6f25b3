package gtfs

import (
	"testing"
	"time"
)

func TestDate_RoundTrip(t *testing.T) {
	for _, lit := range []int{19000101, 19991231, 20240101, 20240229, 20241231, 21001015} {
		d := DateFromInt(lit)
		if got := d.Int(); got != lit {
			t.Errorf("DateFromInt(%d).Int() = %d", lit, got)
		}
		y, m, day := lit/10000, lit/100%100, lit%100
		if d.Year() != y || d.Month() != m || d.Day() != day {
			t.Errorf("DateFromInt(%d) = %d-%d-%d", lit, d.Year(), d.Month(), d.Day())
		}
		if NewDate(y, m, day) != d {
			t.Errorf("NewDate(%d, %d, %d) != DateFromInt(%d)", y, m, day, lit)
		}
	}
}

func TestDate_Empty(t *testing.T) {
	var d Date
	if !d.Empty() || d.String() != "" || d.Int() != 0 {
		t.Errorf("zero Date = %q, Int %d, want empty", d.String(), d.Int())
	}
	if DateFromInt(0) != 0 {
		t.Error("DateFromInt(0) should be empty")
	}
	if d.AddDays(3) != 0 {
		t.Error("AddDays on empty date should stay empty")
	}
}

func TestDate_AddDays(t *testing.T) {
	tests := []struct {
		from, want int
		n          int
	}{
		{20240131, 20240201, 1},
		{20240228, 20240301, 2},
		{20231231, 20240101, 1},
		{20240301, 20240229, -1},
		{20240101, 20231225, -7},
	}
	for _, tt := range tests {
		if got := DateFromInt(tt.from).AddDays(tt.n); got.Int() != tt.want {
			t.Errorf("%d.AddDays(%d) = %d, want %d", tt.from, tt.n, got.Int(), tt.want)
		}
	}
}

func TestDate_OrderAndWeekday(t *testing.T) {
	a, b := DateFromInt(20240101), DateFromInt(20240102)
	if !a.Before(b) || !b.After(a) || a.After(b) {
		t.Error("date ordering broken")
	}
	if a.Weekday() != time.Monday {
		t.Errorf("20240101 weekday = %v, want Monday", a.Weekday())
	}
	if WeekdayBit(a) != Monday || WeekdayBit(DateFromInt(20240107)) != Sunday {
		t.Error("WeekdayBit should map Monday to bit 0 and Sunday to bit 6")
	}
	if got := DateOf(time.Date(2024, 3, 9, 23, 0, 0, 0, time.UTC)); got.String() != "20240309" {
		t.Errorf("DateOf() = %s", got)
	}
}

func TestTime(t *testing.T) {
	tm := NewTime(25, 30, 15)
	if tm.Hour() != 25 || tm.Minute() != 30 || tm.Second() != 15 {
		t.Errorf("NewTime(25,30,15) = %d:%d:%d", tm.Hour(), tm.Minute(), tm.Second())
	}
	if tm.Seconds() != 25*3600+30*60+15 {
		t.Errorf("Seconds() = %d", tm.Seconds())
	}
	if tm.String() != "25:30:15" {
		t.Errorf("String() = %q", tm.String())
	}
	if NewTime(0, 0, 0).Empty() {
		t.Error("midnight must not be empty")
	}
	if !EmptyTime.Empty() || EmptyTime.String() != "" {
		t.Error("EmptyTime should be empty and render as \"\"")
	}
	if !NewTime(0, 60, 60).Before(NewTime(2, 0, 1)) {
		t.Error("Before() compares by seconds")
	}
	if NewTime(0, 60, 0).Empty() {
		t.Error("minute 60 is a valid boundary value, not empty")
	}
}

func TestRouteTypeFromCode(t *testing.T) {
	tests := []struct {
		code int64
		want RouteType
	}{
		{0, Tram}, {1, Subway}, {2, Rail}, {3, Bus}, {4, Ferry}, {5, CableCar}, {6, Gondola}, {7, Funicular},
		{100, Rail}, {109, Rail}, {115, Rail}, {116, Funicular}, {117, Rail}, {300, Rail}, {400, Rail},
		{401, Subway}, {402, Subway}, {403, Rail}, {405, Rail}, {500, Subway}, {600, Subway},
		{200, Bus}, {209, Bus}, {700, Bus}, {713, Bus}, {716, Bus}, {800, Bus},
		{900, Tram}, {906, Tram}, {1000, Ferry}, {1300, Gondola}, {1400, Funicular}, {1500, CableCar},
		{1503, Rail},
	}
	for _, tt := range tests {
		got, ok := RouteTypeFromCode(tt.code)
		if !ok || got != tt.want {
			t.Errorf("RouteTypeFromCode(%d) = %v, %v, want %v", tt.code, got, ok, tt.want)
		}
	}

	for _, code := range []int64{8, 99, 210, 714, 715, 907, 1100, 1501, 9999} {
		if _, ok := RouteTypeFromCode(code); ok {
			t.Errorf("RouteTypeFromCode(%d) should be unmapped", code)
		}
	}
}

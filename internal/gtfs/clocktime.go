package gtfs

import "fmt"

// Time is a time of day packed into hour, minute and second bytes. Hours
// run past 24 for trips that continue after midnight. A minute above 60
// marks the empty time.
type Time uint32

// EmptyTime is the unset time.
const EmptyTime = Time(61 << 8)

// NewTime packs h:m:s. Components wider than a byte are truncated.
func NewTime(h, m, s int) Time {
	return Time(uint32(h&0xff)<<16 | uint32(m&0xff)<<8 | uint32(s&0xff))
}

func (t Time) Hour() int   { return int(t >> 16 & 0xff) }
func (t Time) Minute() int { return int(t >> 8 & 0xff) }
func (t Time) Second() int { return int(t & 0xff) }
func (t Time) Empty() bool { return t.Minute() > 60 }

// Seconds returns seconds since the start of the service day.
func (t Time) Seconds() int {
	return t.Hour()*3600 + t.Minute()*60 + t.Second()
}

func (t Time) Before(o Time) bool { return t.Seconds() < o.Seconds() }

// String renders HH:MM:SS, or "" for the empty time.
func (t Time) String() string {
	if t.Empty() {
		return ""
	}
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour(), t.Minute(), t.Second())
}

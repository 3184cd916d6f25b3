package gtfs

import (
	"slices"
	"sort"
	"time"
)

// LocationType distinguishes stops, stations and station entrances.
type LocationType uint8

const (
	LocationStop LocationType = iota
	LocationStation
	LocationEntrance
)

// ExceptionType is the effect of a calendar_dates row.
type ExceptionType uint8

const (
	ExceptionNone ExceptionType = iota
	ServiceAdded
	ServiceRemoved
)

// TransferType is the transfer_type code of a transfers row.
type TransferType uint8

const (
	TransferRecommended TransferType = iota
	TransferTimed
	TransferMinTime
	TransferNotPossible
)

const (
	// DirectionNotSet marks a trip without direction_id.
	DirectionNotSet uint8 = 2
	// FareTransfersUnlimited is stored for an empty fare transfers field.
	FareTransfersUnlimited uint8 = 3
)

// Weekday bits of Service.Days.
const (
	Monday uint8 = 1 << iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

// WeekdayBit returns the Service.Days bit for the day of week of d.
func WeekdayBit(d Date) uint8 {
	return 1 << ((int(d.Weekday()) + 6) % 7)
}

// FeedInfo is the publisher metadata from feed_info.txt.
type FeedInfo struct {
	PublisherName string
	PublisherURL  string
	Lang          string
	StartDate     Date
	EndDate       Date
	Version       string
}

type Agency struct {
	ID       string
	Name     string
	URL      string
	Timezone string
	Lang     string
	Phone    string
	FareURL  string
	Email    string
}

// Location returns the agency timezone, or UTC if it cannot be loaded.
func (a *Agency) Location() *time.Location {
	if loc, err := time.LoadLocation(a.Timezone); err == nil {
		return loc
	}
	return time.UTC
}

type Stop struct {
	ID                 string
	Code               string
	Name               string
	Desc               string
	Lat                float64
	Lon                float64
	ZoneID             string
	URL                string
	LocationType       LocationType
	Parent             *Stop
	Timezone           string
	WheelchairBoarding uint8
	PlatformCode       string
}

type Route struct {
	ID        string
	Agency    *Agency
	ShortName string
	LongName  string
	Desc      string
	Type      RouteType
	URL       string
	Color     uint32
	TextColor uint32
}

// Name returns the short name, falling back to the long name.
func (r *Route) Name() string {
	if r.ShortName != "" {
		return r.ShortName
	}
	return r.LongName
}

// Service is a calendar: a weekly pattern over a date range plus dated
// exceptions. A service created from calendar_dates alone has no pattern.
type Service struct {
	ID         string
	Days       uint8
	Begin      Date
	End        Date
	exceptions map[Date]ExceptionType
}

// NewService returns a service with no weekly pattern.
func NewService(id string) *Service {
	return &Service{ID: id}
}

func (s *Service) AddException(d Date, t ExceptionType) {
	if s.exceptions == nil {
		s.exceptions = make(map[Date]ExceptionType)
	}
	s.exceptions[d] = t
}

func (s *Service) ExceptionOn(d Date) ExceptionType {
	return s.exceptions[d]
}

// ServiceException is one calendar_dates entry.
type ServiceException struct {
	Date Date
	Type ExceptionType
}

// Exceptions returns all exceptions ordered by date.
func (s *Service) Exceptions() []ServiceException {
	out := make([]ServiceException, 0, len(s.exceptions))
	for d, t := range s.exceptions {
		out = append(out, ServiceException{Date: d, Type: t})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// HasServiceDays reports whether the service has a weekly pattern date range.
func (s *Service) HasServiceDays() bool {
	return !s.Begin.Empty() && !s.End.Empty()
}

// IsActiveOn reports whether trips of the service run on d.
func (s *Service) IsActiveOn(d Date) bool {
	ex := s.ExceptionOn(d)
	if ex == ServiceAdded {
		return true
	}
	return !d.Before(s.Begin) && !d.After(s.End) &&
		s.Days&WeekdayBit(d) != 0 && ex != ServiceRemoved
}

type ShapePoint struct {
	Lat          float64
	Lon          float64
	DistTraveled float64 // negative when absent
	Sequence     uint32
}

type Shape struct {
	ID     string
	points []ShapePoint
}

// AddPoint inserts p in sequence order. A point whose sequence is already
// present is rejected and the shape is left unchanged.
func (s *Shape) AddPoint(p ShapePoint) bool {
	i, found := slices.BinarySearchFunc(s.points, p.Sequence, func(e ShapePoint, seq uint32) int {
		switch {
		case e.Sequence < seq:
			return -1
		case e.Sequence > seq:
			return 1
		}
		return 0
	})
	if found {
		return false
	}
	s.points = slices.Insert(s.points, i, p)
	return true
}

func (s *Shape) Points() []ShapePoint { return s.points }

type StopTime struct {
	Stop              *Stop
	Arrival           Time
	Departure         Time
	Sequence          uint32
	Headsign          string
	PickupType        uint8
	DropOffType       uint8
	ShapeDistTraveled float64 // negative when absent
	Timepoint         bool
}

type Frequency struct {
	Start       Time
	End         Time
	HeadwaySecs uint16
	ExactTimes  bool
}

type Trip struct {
	ID                   string
	Route                *Route
	Service              *Service
	Shape                *Shape
	Headsign             string
	ShortName            string
	Direction            uint8
	BlockID              string
	WheelchairAccessible uint8
	BikesAllowed         uint8

	stopTimes   []StopTime
	frequencies []Frequency
}

// AddStopTime appends st. Sequence numbers must strictly increase in
// insertion order; a stop time that breaks this is rejected.
func (t *Trip) AddStopTime(st StopTime) bool {
	if n := len(t.stopTimes); n > 0 && st.Sequence <= t.stopTimes[n-1].Sequence {
		return false
	}
	t.stopTimes = append(t.stopTimes, st)
	return true
}

func (t *Trip) StopTimes() []StopTime { return t.stopTimes }

func (t *Trip) AddFrequency(f Frequency) { t.frequencies = append(t.frequencies, f) }

func (t *Trip) Frequencies() []Frequency { return t.frequencies }

type Transfer struct {
	From            *Stop
	To              *Stop
	Type            TransferType
	MinTransferTime int // negative when absent
}

type FareRule struct {
	Route         *Route
	OriginID      string
	DestinationID string
	ContainsID    string
}

// Fare is a fare_attributes row together with the fare_rules that use it.
type Fare struct {
	ID               string
	Price            float64
	Currency         string
	PaymentMethod    uint8
	Transfers        uint8
	Agency           *Agency
	TransferDuration int // negative when absent

	rules []FareRule
}

func (f *Fare) AddRule(r FareRule) { f.rules = append(f.rules, r) }

func (f *Fare) Rules() []FareRule { return f.rules }

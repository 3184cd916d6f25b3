package gtfs

import (
	"math"

	"transitfeed/internal/tabular"
)

// columns resolves header positions for one table, remembering the first
// missing required column.
type columns struct {
	r   *tabular.Reader
	err error
}

func (c *columns) req(name string) int {
	i, err := c.r.Index(name)
	if err != nil && c.err == nil {
		c.err = err
	}
	return i
}

func (c *columns) opt(name string) int { return c.r.OptIndex(name) }

func collision(r *tabular.Reader, field, id string) error {
	return tabular.Errorf(r.Line(), field, "'%s' must be dataset unique. Collision with id '%s'", field, id)
}

func unresolved(r *tabular.Reader, field, kind, id string) error {
	return tabular.Errorf(r.Line(), field, "no %s with id '%s' defined, cannot reference here.", kind, id)
}

func parseFeedInfo(d decoder, feed *Feed) error {
	r := d.r
	c := columns{r: r}
	name := c.req("feed_publisher_name")
	url := c.req("feed_publisher_url")
	lang := c.opt("feed_lang")
	start := c.opt("feed_start_date")
	end := c.opt("feed_end_date")
	version := c.opt("feed_version")
	if c.err != nil {
		return c.err
	}

	if !r.Next() {
		return nil
	}
	info := &FeedInfo{Lang: d.strOr(lang, ""), Version: d.strOr(version, "")}
	var err error
	if info.PublisherName, err = d.str(name); err != nil {
		return err
	}
	if info.PublisherURL, err = d.str(url); err != nil {
		return err
	}
	if info.StartDate, err = d.serviceDate(start, false); err != nil {
		return err
	}
	if info.EndDate, err = d.serviceDate(end, false); err != nil {
		return err
	}
	feed.Info = info
	return nil
}

func parseAgencies(d decoder, feed *Feed) error {
	r := d.r
	c := columns{r: r}
	name := c.req("agency_name")
	url := c.req("agency_url")
	tz := c.req("agency_timezone")
	email := c.opt("agency_email")
	fareURL := c.opt("agency_fare_url")
	lang := c.opt("agency_lang")
	phone := c.opt("agency_phone")
	id := c.opt("agency_id")
	if c.err != nil {
		return c.err
	}

	for r.Next() {
		a := &Agency{
			ID:      d.strOr(id, ""),
			Lang:    d.strOr(lang, ""),
			Phone:   d.strOr(phone, ""),
			FareURL: d.strOr(fareURL, ""),
			Email:   d.strOr(email, ""),
		}
		var err error
		if a.Name, err = d.str(name); err != nil {
			return err
		}
		if a.URL, err = d.str(url); err != nil {
			return err
		}
		if a.Timezone, err = d.str(tz); err != nil {
			return err
		}
		if !feed.Agencies.Add(a.ID, a) {
			return collision(r, "agency_id", a.ID)
		}
	}
	if feed.Agencies.Len() == 0 {
		return tabular.Errorf(1, "", "the feed has no agency defined. This is a required field.")
	}
	return nil
}

type parentRef struct {
	stop     *Stop
	parentID string
	line     int
}

func parseStops(d decoder, feed *Feed) error {
	r := d.r
	c := columns{r: r}
	id := c.req("stop_id")
	name := c.req("stop_name")
	lat := c.req("stop_lat")
	lon := c.req("stop_lon")
	parent := c.opt("parent_station")
	code := c.opt("stop_code")
	desc := c.opt("stop_desc")
	zone := c.opt("zone_id")
	url := c.opt("stop_url")
	tz := c.opt("stop_timezone")
	wheelchair := c.opt("wheelchair_boarding")
	locType := c.opt("location_type")
	platform := c.opt("platform_code")
	if c.err != nil {
		return c.err
	}

	var parents []parentRef
	for r.Next() {
		s := &Stop{
			Code:         d.strOr(code, ""),
			Desc:         d.strOr(desc, ""),
			ZoneID:       d.strOr(zone, ""),
			URL:          d.strOr(url, ""),
			Timezone:     d.strOr(tz, ""),
			PlatformCode: d.strOr(platform, ""),
		}
		lt, err := d.rangedIntOr(locType, 0, 2, 0)
		if err != nil {
			return err
		}
		s.LocationType = LocationType(lt)
		if s.Lat, err = d.float(lat); err != nil {
			return err
		}
		if s.Lon, err = d.float(lon); err != nil {
			return err
		}
		feed.Bounds.Extend(s.Lat, s.Lon)

		if s.ID, err = d.str(id); err != nil {
			return err
		}
		if s.Name, err = d.str(name); err != nil {
			return err
		}
		wb, err := d.rangedIntOr(wheelchair, 0, 2, 0)
		if err != nil {
			return err
		}
		s.WheelchairBoarding = uint8(wb)

		if pid := d.strOr(parent, ""); pid != "" {
			if s.LocationType == LocationStation {
				return r.Errorf(parent, "a stop with location_type 'station' (1) cannot have a parent station")
			}
			parents = append(parents, parentRef{stop: s, parentID: pid, line: r.Line()})
		}

		if !feed.Stops.Add(s.ID, s) {
			return collision(r, "stop_id", s.ID)
		}
	}
	if err := r.Err(); err != nil {
		return err
	}

	// Parents may be declared anywhere in the table, so they are linked
	// once every stop is known.
	for _, ref := range parents {
		ps := feed.Stops.Get(ref.parentID)
		if ps == nil {
			return tabular.Errorf(ref.line, "parent_station", "no stop with id '%s' defined, cannot reference here.", ref.parentID)
		}
		ref.stop.Parent = ps
	}
	return nil
}

// agencyFor resolves an optional agency_id. An empty id is only valid when
// the feed has exactly one agency.
func agencyFor(d decoder, feed *Feed, i int) (*Agency, error) {
	aid := d.strOr(i, "")
	if aid == "" {
		if feed.Agencies.Len() == 1 {
			return feed.FirstAgency(), nil
		}
		return nil, unresolved(d.r, "agency_id", "agency", aid)
	}
	a := feed.Agencies.Get(aid)
	if a == nil {
		return nil, unresolved(d.r, "agency_id", "agency", aid)
	}
	return a, nil
}

func parseRoutes(d decoder, feed *Feed) error {
	r := d.r
	c := columns{r: r}
	id := c.req("route_id")
	longName := c.opt("route_long_name")
	shortName := c.opt("route_short_name")
	typ := c.req("route_type")
	url := c.opt("route_url")
	desc := c.opt("route_desc")
	agency := c.opt("agency_id")
	color := c.opt("route_color")
	textColor := c.opt("route_text_color")
	if c.err != nil {
		return c.err
	}

	for r.Next() {
		rt := &Route{
			ShortName: d.strOr(shortName, ""),
			LongName:  d.strOr(longName, ""),
			Desc:      d.strOr(desc, ""),
			URL:       d.strOr(url, ""),
		}
		var err error
		if rt.Agency, err = agencyFor(d, feed, agency); err != nil {
			return err
		}
		if rt.ID, err = d.str(id); err != nil {
			return err
		}
		if rt.Type, err = d.routeType(typ); err != nil {
			return err
		}
		if rt.Color, err = d.hexColor(color, 0xFFFFFF); err != nil {
			return err
		}
		if rt.TextColor, err = d.hexColor(textColor, 0x000000); err != nil {
			return err
		}
		if !feed.Routes.Add(rt.ID, rt) {
			return collision(r, "route_id", rt.ID)
		}
	}
	return nil
}

var dayColumns = [7]string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

func parseCalendar(d decoder, feed *Feed) error {
	r := d.r
	c := columns{r: r}
	id := c.req("service_id")
	var days [7]int
	for i, name := range dayColumns {
		days[i] = c.req(name)
	}
	start := c.req("start_date")
	end := c.req("end_date")
	if c.err != nil {
		return c.err
	}

	for r.Next() {
		sid, err := d.str(id)
		if err != nil {
			return err
		}
		s := NewService(sid)
		for bit, col := range days {
			v, err := d.rangedInt(col, 0, 1)
			if err != nil {
				return err
			}
			s.Days |= uint8(v) << bit
		}
		if s.Begin, err = d.serviceDate(start, true); err != nil {
			return err
		}
		if s.End, err = d.serviceDate(end, true); err != nil {
			return err
		}
		if !feed.Services.Add(sid, s) {
			return r.Errorf(id, "'service_id' must be unique in calendar.txt")
		}
	}
	return nil
}

func parseCalendarDates(d decoder, feed *Feed) error {
	r := d.r
	c := columns{r: r}
	id := c.req("service_id")
	exType := c.req("exception_type")
	date := c.req("date")
	if c.err != nil {
		return c.err
	}

	for r.Next() {
		sid, err := d.str(id)
		if err != nil {
			return err
		}
		day, err := d.serviceDate(date, true)
		if err != nil {
			return err
		}
		t, err := d.rangedInt(exType, 1, 2)
		if err != nil {
			return err
		}

		s := feed.Services.Get(sid)
		if s == nil {
			s = NewService(sid)
			feed.Services.Add(sid, s)
		}
		s.AddException(day, ExceptionType(t))
	}
	return nil
}

func parseShapes(d decoder, feed *Feed) error {
	r := d.r
	c := columns{r: r}
	id := c.req("shape_id")
	seq := c.req("shape_pt_sequence")
	lon := c.req("shape_pt_lon")
	lat := c.req("shape_pt_lat")
	dist := c.opt("shape_dist_traveled")
	if c.err != nil {
		return c.err
	}

	for r.Next() {
		sid, err := d.str(id)
		if err != nil {
			return err
		}
		var p ShapePoint
		if p.Lat, err = d.float(lat); err != nil {
			return err
		}
		if p.Lon, err = d.float(lon); err != nil {
			return err
		}
		feed.Bounds.Extend(p.Lat, p.Lon)

		if p.DistTraveled, err = d.floatOr(dist, -1); err != nil {
			return err
		}
		if !r.IsEmpty(dist) && p.DistTraveled < -0.01 {
			return r.Errorf(dist, "negative values not supported for distances")
		}
		n, err := d.rangedInt(seq, 0, math.MaxUint32)
		if err != nil {
			return err
		}
		p.Sequence = uint32(n)

		sh := feed.Shapes.Get(sid)
		if sh == nil {
			sh = &Shape{ID: sid}
			feed.Shapes.Add(sid, sh)
		}
		if !sh.AddPoint(p) {
			return r.Errorf(seq, "shape_pt_sequence collision, shape_pt_sequence has to be increasing for a single shape.")
		}
	}
	return nil
}

func parseTrips(d decoder, feed *Feed) error {
	r := d.r
	c := columns{r: r}
	shape := c.opt("shape_id")
	id := c.req("trip_id")
	service := c.req("service_id")
	route := c.req("route_id")
	block := c.opt("block_id")
	headsign := c.opt("trip_headsign")
	shortName := c.opt("trip_short_name")
	bikes := c.opt("bikes_allowed")
	wheelchair := c.opt("wheelchair_accessible")
	direction := c.opt("direction_id")
	if c.err != nil {
		return c.err
	}

	for r.Next() {
		t := &Trip{
			Headsign:  d.strOr(headsign, ""),
			ShortName: d.strOr(shortName, ""),
			BlockID:   d.strOr(block, ""),
		}

		rid, err := d.str(route)
		if err != nil {
			return err
		}
		if t.Route = feed.Routes.Get(rid); t.Route == nil {
			return unresolved(r, "route_id", "route", rid)
		}

		if shid := d.strOr(shape, ""); shid != "" {
			if t.Shape = feed.Shapes.Get(shid); t.Shape == nil {
				return unresolved(r, "shape_id", "shape", shid)
			}
		}

		sid, err := d.str(service)
		if err != nil {
			return err
		}
		if t.Service = feed.Services.Get(sid); t.Service == nil {
			return unresolved(r, "service_id", "service", sid)
		}

		if t.ID, err = d.str(id); err != nil {
			return err
		}
		dir, err := d.rangedIntOr(direction, 0, 1, int64(DirectionNotSet))
		if err != nil {
			return err
		}
		wc, err := d.rangedIntOr(wheelchair, 0, 2, 0)
		if err != nil {
			return err
		}
		bk, err := d.rangedIntOr(bikes, 0, 2, 0)
		if err != nil {
			return err
		}
		t.Direction, t.WheelchairAccessible, t.BikesAllowed = uint8(dir), uint8(wc), uint8(bk)

		if !feed.Trips.Add(t.ID, t) {
			return collision(r, "trip_id", t.ID)
		}
	}
	return nil
}

func parseStopTimes(d decoder, feed *Feed) error {
	r := d.r
	c := columns{r: r}
	stop := c.req("stop_id")
	trip := c.req("trip_id")
	arrival := c.req("arrival_time")
	departure := c.req("departure_time")
	seq := c.req("stop_sequence")
	headsign := c.opt("stop_headsign")
	dist := c.opt("shape_dist_traveled")
	timepoint := c.opt("timepoint")
	pickup := c.opt("pickup_type")
	dropOff := c.opt("drop_off_type")
	if c.err != nil {
		return c.err
	}

	for r.Next() {
		st := StopTime{Headsign: d.strOr(headsign, "")}

		sid, err := d.str(stop)
		if err != nil {
			return err
		}
		if st.Stop = feed.Stops.Get(sid); st.Stop == nil {
			return unresolved(r, "stop_id", "stop", sid)
		}
		tid, err := d.str(trip)
		if err != nil {
			return err
		}
		t := feed.Trips.Get(tid)
		if t == nil {
			return unresolved(r, "trip_id", "trip", tid)
		}

		if st.Arrival, err = d.time(arrival); err != nil {
			return err
		}
		if st.Departure, err = d.time(departure); err != nil {
			return err
		}
		n, err := d.rangedInt(seq, 0, math.MaxUint32)
		if err != nil {
			return err
		}
		st.Sequence = uint32(n)
		pu, err := d.rangedIntOr(pickup, 0, 3, 0)
		if err != nil {
			return err
		}
		do, err := d.rangedIntOr(dropOff, 0, 3, 0)
		if err != nil {
			return err
		}
		st.PickupType, st.DropOffType = uint8(pu), uint8(do)
		if st.ShapeDistTraveled, err = d.floatOr(dist, -1); err != nil {
			return err
		}
		if !r.IsEmpty(dist) && st.ShapeDistTraveled < -0.01 {
			return r.Errorf(dist, "negative values not supported for distances")
		}
		tp, err := d.rangedIntOr(timepoint, 0, 1, 1)
		if err != nil {
			return err
		}
		st.Timepoint = tp == 1

		if !st.Arrival.Empty() && !st.Departure.Empty() && st.Departure.Before(st.Arrival) {
			return r.Errorf(departure, "arrival time '%s' is later than departure time '%s'. You cannot depart earlier than you arrive.",
				st.Arrival, st.Departure)
		}
		if !t.AddStopTime(st) {
			return r.Errorf(seq, "stop_sequence collision, stop_sequence has to be increasing for a single trip.")
		}
	}
	return nil
}

func parseFrequencies(d decoder, feed *Feed) error {
	r := d.r
	c := columns{r: r}
	trip := c.req("trip_id")
	start := c.req("start_time")
	end := c.req("end_time")
	headway := c.req("headway_secs")
	exact := c.opt("exact_times")
	if c.err != nil {
		return c.err
	}

	for r.Next() {
		tid, err := d.str(trip)
		if err != nil {
			return err
		}
		var f Frequency
		if f.Start, err = d.time(start); err != nil {
			return err
		}
		if f.End, err = d.time(end); err != nil {
			return err
		}
		hw, err := d.rangedInt(headway, 0, math.MaxUint16)
		if err != nil {
			return err
		}
		f.HeadwaySecs = uint16(hw)
		ex, err := d.rangedIntOr(exact, 0, 1, 0)
		if err != nil {
			return err
		}
		f.ExactTimes = ex == 1

		t := feed.Trips.Get(tid)
		if t == nil {
			return r.Errorf(trip, "trip '%s' not found.", tid)
		}
		t.AddFrequency(f)
	}
	return nil
}

func parseTransfers(d decoder, feed *Feed) error {
	r := d.r
	c := columns{r: r}
	from := c.req("from_stop_id")
	to := c.req("to_stop_id")
	typ := c.req("transfer_type")
	minTime := c.opt("min_transfer_time")
	if c.err != nil {
		return c.err
	}

	for r.Next() {
		var tr Transfer
		fid, err := d.str(from)
		if err != nil {
			return err
		}
		if tr.From = feed.Stops.Get(fid); tr.From == nil {
			return unresolved(r, "from_stop_id", "stop", fid)
		}
		tid, err := d.str(to)
		if err != nil {
			return err
		}
		if tr.To = feed.Stops.Get(tid); tr.To == nil {
			return unresolved(r, "to_stop_id", "stop", tid)
		}
		tt, err := d.rangedIntOr(typ, 0, 3, 0)
		if err != nil {
			return err
		}
		tr.Type = TransferType(tt)
		mt, err := d.rangedIntOr(minTime, 0, math.MaxInt32, -1)
		if err != nil {
			return err
		}
		tr.MinTransferTime = int(mt)
		feed.Transfers = append(feed.Transfers, tr)
	}
	return nil
}

func parseFareAttributes(d decoder, feed *Feed) error {
	r := d.r
	c := columns{r: r}
	id := c.req("fare_id")
	price := c.req("price")
	currency := c.req("currency_type")
	payment := c.req("payment_method")
	transfers := c.req("transfers")
	agency := c.opt("agency_id")
	duration := c.opt("transfer_duration")
	if c.err != nil {
		return c.err
	}

	for r.Next() {
		f := &Fare{}
		var err error
		if f.ID, err = d.str(id); err != nil {
			return err
		}
		if f.Price, err = d.float(price); err != nil {
			return err
		}
		if f.Currency, err = d.str(currency); err != nil {
			return err
		}
		pm, err := d.rangedInt(payment, 0, 1)
		if err != nil {
			return err
		}
		f.PaymentMethod = uint8(pm)
		tr, err := d.rangedIntOr(transfers, 0, 2, int64(FareTransfersUnlimited))
		if err != nil {
			return err
		}
		f.Transfers = uint8(tr)
		if f.Agency, err = agencyFor(d, feed, agency); err != nil {
			return err
		}
		td, err := d.rangedIntOr(duration, 0, math.MaxInt32, -1)
		if err != nil {
			return err
		}
		f.TransferDuration = int(td)

		if !feed.Fares.Add(f.ID, f) {
			return collision(r, "fare_id", f.ID)
		}
	}
	return nil
}

func parseFareRules(d decoder, feed *Feed) error {
	r := d.r
	c := columns{r: r}
	id := c.req("fare_id")
	route := c.opt("route_id")
	origin := c.opt("origin_id")
	dest := c.opt("destination_id")
	contains := c.opt("contains_id")
	if c.err != nil {
		return c.err
	}

	for r.Next() {
		fid, err := d.str(id)
		if err != nil {
			return err
		}
		f := feed.Fares.Get(fid)
		if f == nil {
			return unresolved(r, "fare_id", "fare", fid)
		}
		rule := FareRule{
			OriginID:      d.strOr(origin, ""),
			DestinationID: d.strOr(dest, ""),
			ContainsID:    d.strOr(contains, ""),
		}
		if rid := d.strOr(route, ""); rid != "" {
			if rule.Route = feed.Routes.Get(rid); rule.Route == nil {
				return unresolved(r, "route_id", "route", rid)
			}
		}
		f.AddRule(rule)
	}
	return nil
}

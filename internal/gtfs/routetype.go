package gtfs

// RouteType is the canonical transit mode of a route. The values equal the
// basic GTFS route_type codes, which is also how they are written back.
type RouteType uint8

const (
	Tram RouteType = iota
	Subway
	Rail
	Bus
	Ferry
	CableCar
	Gondola
	Funicular
)

var routeTypeNames = [...]string{"tram", "subway", "rail", "bus", "ferry", "cable car", "gondola", "funicular"}

func (t RouteType) String() string {
	if int(t) < len(routeTypeNames) {
		return routeTypeNames[t]
	}
	return "unknown"
}

// maxRouteTypeCode bounds the numeric range accepted before mapping.
const maxRouteTypeCode = 1702

// RouteTypeFromCode maps a basic or extended route_type code onto its
// canonical mode.
func RouteTypeFromCode(code int64) (RouteType, bool) {
	switch {
	case code == 2, code >= 100 && code <= 115, code == 117, code == 300,
		code == 400, code >= 403 && code <= 405, code == 1503:
		return Rail, true
	case code == 3, code >= 200 && code <= 209, code >= 700 && code <= 713,
		code == 716, code == 800:
		return Bus, true
	case code == 1, code == 401, code == 402, code == 500, code == 600:
		return Subway, true
	case code == 0, code >= 900 && code <= 906:
		return Tram, true
	case code == 4, code == 1000:
		return Ferry, true
	case code == 6, code == 1300:
		return Gondola, true
	case code == 7, code == 116, code == 1400:
		return Funicular, true
	case code == 5, code == 1500:
		return CableCar, true
	}
	return 0, false
}

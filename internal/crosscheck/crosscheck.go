// Package crosscheck parses a feed a second time with an independent GTFS
// library and compares per-table counts with the graph.
package crosscheck

import (
	"fmt"

	"github.com/patrickbr/gtfsparser"

	"transitfeed/internal/gtfs"
)

// Count is the size of one table in both parses.
type Count struct {
	Table     string `json:"table"`
	Graph     int    `json:"graph"`
	Reference int    `json:"reference"`
}

func (c Count) Match() bool { return c.Graph == c.Reference }

type Report struct {
	Counts []Count `json:"counts"`
}

// Mismatches returns the counts that differ.
func (r Report) Mismatches() []Count {
	var out []Count
	for _, c := range r.Counts {
		if !c.Match() {
			out = append(out, c)
		}
	}
	return out
}

// Compare parses the zip or directory at path with the reference parser
// and compares it with feed.
func Compare(path string, feed *gtfs.Feed) (Report, error) {
	ref := gtfsparser.NewFeed()
	if err := ref.Parse(path); err != nil {
		return Report{}, fmt.Errorf("reference parse: %w", err)
	}

	refStopTimes := 0
	for _, t := range ref.Trips {
		refStopTimes += len(t.StopTimes)
	}
	refPoints := 0
	for _, s := range ref.Shapes {
		refPoints += len(s.Points)
	}

	sum := feed.Summary()
	return Report{
		Counts: []Count{
			{"agencies", sum.Agencies, len(ref.Agencies)},
			{"stops", sum.Stops, len(ref.Stops)},
			{"routes", sum.Routes, len(ref.Routes)},
			{"services", sum.Services, len(ref.Services)},
			{"trips", sum.Trips, len(ref.Trips)},
			{"stop_times", sum.StopTimes, refStopTimes},
			{"shapes", sum.Shapes, len(ref.Shapes)},
			{"shape_points", sum.ShapePoints, refPoints},
			{"transfers", sum.Transfers, len(ref.Transfers)},
		},
	}, nil
}

// Package aggregate buckets arrival countdowns by station, direction and route.
package aggregate

import (
	"fmt"
	"iter"
	"slices"

	"github.com/jusunglee/mta-arrivals/internal/models"
)

// AggregationFault is an invariant violation inside the fold or merge.
// It is the only error that fails a whole pipeline run.
type AggregationFault struct {
	Reason string
}

func (e *AggregationFault) Error() string {
	return "aggregation fault: " + e.Reason
}

// Accumulator collects arrivals for a single feed.
// It is not safe for concurrent use; each feed owns its own.
type Accumulator struct {
	buckets models.ArrivalSummary
	count   int
	fault   *AggregationFault
}

// NewAccumulator creates an empty accumulator
func NewAccumulator() *Accumulator {
	return &Accumulator{buckets: make(models.ArrivalSummary)}
}

// Add appends one arrival to its (station, direction, route) bucket
func (a *Accumulator) Add(arr models.NormalizedArrival) {
	if a.fault != nil {
		return
	}
	if arr.ETAMinutes < 0 {
		a.fault = &AggregationFault{Reason: fmt.Sprintf("negative eta %d for %s/%s", arr.ETAMinutes, arr.StationID, arr.RouteID)}
		return
	}
	if arr.Direction != models.North && arr.Direction != models.South {
		a.fault = &AggregationFault{Reason: fmt.Sprintf("unknown direction %q at %s", arr.Direction, arr.StationID)}
		return
	}

	station, ok := a.buckets[arr.StationID]
	if !ok {
		station = models.NewStationArrivals()
		a.buckets[arr.StationID] = station
	}
	routes := station.Routes(arr.Direction)
	routes[arr.RouteID] = append(routes[arr.RouteID], arr.ETAMinutes)
	a.count++
}

// Len returns the number of arrivals added
func (a *Accumulator) Len() int {
	return a.count
}

// Merge reduces accumulators into a fresh summary with every route list sorted
// ascending. Duplicate ETAs are kept. The accumulators are left untouched.
func Merge(accs ...*Accumulator) (summary models.ArrivalSummary, err error) {
	defer func() {
		if r := recover(); r != nil {
			summary = nil
			err = &AggregationFault{Reason: fmt.Sprint(r)}
		}
	}()

	summary = make(models.ArrivalSummary)
	for _, acc := range accs {
		if acc == nil {
			continue
		}
		if acc.fault != nil {
			return nil, acc.fault
		}
		for stationID, src := range acc.buckets {
			dst, ok := summary[stationID]
			if !ok {
				dst = models.NewStationArrivals()
				summary[stationID] = dst
			}
			mergeRoutes(dst.North, src.North)
			mergeRoutes(dst.South, src.South)
		}
	}

	for stationID, station := range summary {
		if station.North == nil || station.South == nil {
			return nil, &AggregationFault{Reason: "missing direction for station " + stationID}
		}
		sortRoutes(station.North)
		sortRoutes(station.South)
	}
	return summary, nil
}

// Fold builds a summary from a single sequence of arrivals
func Fold(arrivals iter.Seq[models.NormalizedArrival]) (models.ArrivalSummary, error) {
	acc := NewAccumulator()
	for arr := range arrivals {
		acc.Add(arr)
	}
	return Merge(acc)
}

func mergeRoutes(dst, src models.RouteArrivals) {
	for route, etas := range src {
		dst[route] = append(dst[route], etas...)
	}
}

func sortRoutes(routes models.RouteArrivals) {
	for _, etas := range routes {
		slices.Sort(etas)
	}
}

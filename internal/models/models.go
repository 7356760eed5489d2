package models

import (
	"time"
)

// Direction is the travel direction of a platform, taken from the stop id suffix
type Direction string

const (
	North Direction = "N"
	South Direction = "S"
)

// ParseDirection maps a raw stop suffix to a Direction.
// Anything other than an exact "N" or "S" is bucketed as North.
func ParseDirection(suffix string) Direction {
	if suffix == string(South) {
		return South
	}
	return North
}

// RawFeedEvent is one stop-time update flattened out of a trip update
type RawFeedEvent struct {
	RouteID   string
	StopID    string
	Arrival   *int64
	Departure *int64
}

// EffectiveTime returns the arrival epoch if present, else the departure epoch
func (e RawFeedEvent) EffectiveTime() (int64, bool) {
	if e.Arrival != nil {
		return *e.Arrival, true
	}
	if e.Departure != nil {
		return *e.Departure, true
	}
	return 0, false
}

// NormalizedArrival is a countdown for one train at a monitored station
type NormalizedArrival struct {
	StationID  string
	Direction  Direction
	RouteID    string
	ETAMinutes int
}

// RouteArrivals maps a route id to its ETAs in minutes
type RouteArrivals map[string][]int

// StationArrivals groups arrivals by direction.
// Both maps are always non-nil once a station is present in a summary.
type StationArrivals struct {
	North RouteArrivals `json:"N"`
	South RouteArrivals `json:"S"`
}

// NewStationArrivals returns an entry with both direction maps initialized
func NewStationArrivals() *StationArrivals {
	return &StationArrivals{
		North: make(RouteArrivals),
		South: make(RouteArrivals),
	}
}

// Routes returns the route map for a direction
func (s *StationArrivals) Routes(d Direction) RouteArrivals {
	if d == South {
		return s.South
	}
	return s.North
}

// ArrivalSummary maps a station id to its arrivals
type ArrivalSummary map[string]*StationArrivals

// FeedState tracks a single feed through one pipeline run
type FeedState string

const (
	FeedPending      FeedState = "pending"
	FeedFetched      FeedState = "fetched"
	FeedDecoded      FeedState = "decoded"
	FeedContributing FeedState = "contributing"
	FeedFailed       FeedState = "failed"
)

// FeedStatus is the outcome of one feed for one run
type FeedStatus struct {
	Name   string    `json:"name"`
	State  FeedState `json:"state"`
	Events int       `json:"events"`
	Error  string    `json:"error,omitempty"`
}

// RunStats carries diagnostics for one pipeline run
type RunStats struct {
	Feeds       []FeedStatus `json:"feeds"`
	Skipped     int          `json:"skipped"`
	GeneratedAt time.Time    `json:"generated_at"`
}

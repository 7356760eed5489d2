// Package normalize maps raw stop-time events onto monitored stations.
package normalize

import (
	"fmt"
	"math"
	"time"

	"github.com/jusunglee/mta-arrivals/internal/models"
)

// StationIDLength is the width of a parent station id within a stop id
const StationIDLength = 3

// Normalizer filters events to monitored stations and computes countdowns.
// It is immutable after construction and safe for concurrent use.
type Normalizer struct {
	stations  map[string]struct{}
	overrides map[string]string
}

// New builds a Normalizer from the monitored station ids and the
// route -> synthetic station override table.
// Synthetic ids must be longer than a parent station id so the two never alias.
func New(stations []string, overrides map[string]string) (*Normalizer, error) {
	n := &Normalizer{
		stations:  make(map[string]struct{}, len(stations)),
		overrides: make(map[string]string, len(overrides)),
	}
	for _, id := range stations {
		n.stations[id] = struct{}{}
	}
	for route, station := range overrides {
		if len(station) <= StationIDLength {
			return nil, fmt.Errorf("override station %q for route %s must be longer than %d characters", station, route, StationIDLength)
		}
		n.overrides[route] = station
	}
	return n, nil
}

// Normalize returns the arrival for ev relative to now, or false if the event
// is not for a monitored station or carries no time at all.
func (n *Normalizer) Normalize(ev models.RawFeedEvent, now time.Time) (models.NormalizedArrival, bool) {
	stationID, suffix := splitStopID(ev.StopID)

	synthetic, overridden := n.overrides[ev.RouteID]
	if overridden {
		stationID, suffix = synthetic, ""
	} else if _, ok := n.stations[stationID]; !ok {
		return models.NormalizedArrival{}, false
	}

	epoch, ok := ev.EffectiveTime()
	if !ok {
		return models.NormalizedArrival{}, false
	}

	return models.NormalizedArrival{
		StationID:  stationID,
		Direction:  models.ParseDirection(suffix),
		RouteID:    ev.RouteID,
		ETAMinutes: ETAMinutes(epoch, now),
	}, true
}

// ETAMinutes rounds the seconds between now and epoch to whole minutes,
// half-up, clamped at zero.
func ETAMinutes(epoch int64, now time.Time) int {
	ref := now.Unix()
	if epoch <= ref {
		return 0
	}
	// float difference so far-off epochs cannot wrap around
	secs := float64(epoch) - float64(ref)
	return int(math.Floor(secs/60 + 0.5))
}

func splitStopID(stopID string) (station, suffix string) {
	if len(stopID) <= StationIDLength {
		return stopID, ""
	}
	return stopID[:StationIDLength], stopID[StationIDLength:]
}

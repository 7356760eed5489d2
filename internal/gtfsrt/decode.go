// Package gtfsrt flattens GTFS-realtime trip update feeds into per-stop events.
package gtfsrt

import (
	"fmt"
	"iter"

	gtfsrtpb "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"

	"github.com/jusunglee/mta-arrivals/internal/models"
)

// DecodeError reports a payload that is not a valid FeedMessage
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode feed: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Decode parses one binary feed payload.
// The returned sequence yields one event per stop-time update, carrying the
// parent trip's route id. It performs no filtering.
func Decode(payload []byte) (iter.Seq[models.RawFeedEvent], error) {
	var fm gtfsrtpb.FeedMessage
	if err := proto.Unmarshal(payload, &fm); err != nil {
		return nil, &DecodeError{Err: err}
	}

	return func(yield func(models.RawFeedEvent) bool) {
		for _, entity := range fm.GetEntity() {
			tu := entity.GetTripUpdate()
			if tu == nil {
				continue
			}
			routeID := tu.GetTrip().GetRouteId()

			for _, stu := range tu.GetStopTimeUpdate() {
				ev := models.RawFeedEvent{
					RouteID:   routeID,
					StopID:    stu.GetStopId(),
					Arrival:   eventTime(stu.GetArrival()),
					Departure: eventTime(stu.GetDeparture()),
				}
				if !yield(ev) {
					return
				}
			}
		}
	}, nil
}

func eventTime(ev *gtfsrtpb.TripUpdate_StopTimeEvent) *int64 {
	if ev == nil || ev.Time == nil {
		return nil
	}
	t := *ev.Time
	return &t
}

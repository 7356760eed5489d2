package gtfsrt

import (
	"time"

	gtfsrtpb "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"
)

// StopFixture describes one stop-time update for test feeds.
// Zero times are left unset.
type StopFixture struct {
	StopID    string
	Arrival   time.Time
	Departure time.Time
}

// TripFixture describes one trip update for test feeds
type TripFixture struct {
	TripID  string
	RouteID string
	Stops   []StopFixture
}

// MarshalFeed builds a full-dataset FeedMessage payload from trip fixtures
func MarshalFeed(trips ...TripFixture) ([]byte, error) {
	entities := make([]*gtfsrtpb.FeedEntity, 0, len(trips))
	for _, trip := range trips {
		updates := make([]*gtfsrtpb.TripUpdate_StopTimeUpdate, 0, len(trip.Stops))
		for _, stop := range trip.Stops {
			stu := &gtfsrtpb.TripUpdate_StopTimeUpdate{
				StopId: proto.String(stop.StopID),
			}
			if !stop.Arrival.IsZero() {
				stu.Arrival = &gtfsrtpb.TripUpdate_StopTimeEvent{Time: proto.Int64(stop.Arrival.Unix())}
			}
			if !stop.Departure.IsZero() {
				stu.Departure = &gtfsrtpb.TripUpdate_StopTimeEvent{Time: proto.Int64(stop.Departure.Unix())}
			}
			updates = append(updates, stu)
		}

		entities = append(entities, &gtfsrtpb.FeedEntity{
			Id: proto.String(trip.TripID),
			TripUpdate: &gtfsrtpb.TripUpdate{
				Trip: &gtfsrtpb.TripDescriptor{
					TripId:  proto.String(trip.TripID),
					RouteId: proto.String(trip.RouteID),
				},
				StopTimeUpdate: updates,
			},
		})
	}

	incrementality := gtfsrtpb.FeedHeader_FULL_DATASET
	fm := &gtfsrtpb.FeedMessage{
		Header: &gtfsrtpb.FeedHeader{
			GtfsRealtimeVersion: proto.String("2.0"),
			Incrementality:      &incrementality,
			Timestamp:           proto.Uint64(uint64(time.Now().Unix())),
		},
		Entity: entities,
	}
	return proto.Marshal(fm)
}

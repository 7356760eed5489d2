package aggregate

import (
	"errors"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jusunglee/mta-arrivals/internal/models"
)

func arrival(station string, dir models.Direction, route string, eta int) models.NormalizedArrival {
	return models.NormalizedArrival{StationID: station, Direction: dir, RouteID: route, ETAMinutes: eta}
}

func sampleArrivals() []models.NormalizedArrival {
	return []models.NormalizedArrival{
		arrival("137", models.North, "1", 9),
		arrival("137", models.North, "1", 2),
		arrival("137", models.South, "2", 4),
		arrival("137", models.North, "1", 2),
		arrival("A36", models.South, "A", 7),
		arrival("A36", models.South, "C", 1),
		arrival("A36", models.South, "A", 3),
		arrival("LIRR_PENN", models.North, "PW", 12),
	}
}

func TestFoldBucketsAndSorts(t *testing.T) {
	summary, err := Fold(slices.Values(sampleArrivals()))
	require.NoError(t, err)

	require.Len(t, summary, 3)
	assert.Equal(t, []int{2, 2, 9}, summary["137"].North["1"])
	assert.Equal(t, []int{4}, summary["137"].South["2"])
	assert.Equal(t, []int{3, 7}, summary["A36"].South["A"])
	assert.Equal(t, []int{1}, summary["A36"].South["C"])
	assert.Empty(t, summary["A36"].North)
	assert.Equal(t, []int{12}, summary["LIRR_PENN"].North["PW"])
}

func TestFoldBothDirectionsPresent(t *testing.T) {
	summary, err := Fold(slices.Values(sampleArrivals()))
	require.NoError(t, err)

	for id, station := range summary {
		assert.NotNil(t, station.North, "station %s missing N", id)
		assert.NotNil(t, station.South, "station %s missing S", id)
	}
}

func TestFoldSortLaw(t *testing.T) {
	var arrivals []models.NormalizedArrival
	for i := 0; i < 200; i++ {
		arrivals = append(arrivals, arrival("R27", models.Direction([]string{"N", "S"}[i%2]), []string{"R", "W"}[i%3%2], (i*37)%23))
	}

	summary, err := Fold(slices.Values(arrivals))
	require.NoError(t, err)

	for _, station := range summary {
		for _, routes := range []models.RouteArrivals{station.North, station.South} {
			for route, etas := range routes {
				for i := 0; i+1 < len(etas); i++ {
					if etas[i] > etas[i+1] {
						t.Fatalf("route %s not sorted: %v", route, etas)
					}
				}
			}
		}
	}
}

func TestFoldIdempotent(t *testing.T) {
	first, err := Fold(slices.Values(sampleArrivals()))
	require.NoError(t, err)
	second, err := Fold(slices.Values(sampleArrivals()))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestFoldEmpty(t *testing.T) {
	summary, err := Fold(slices.Values([]models.NormalizedArrival(nil)))
	require.NoError(t, err)
	assert.NotNil(t, summary)
	assert.Empty(t, summary)
}

func TestMergeAccumulators(t *testing.T) {
	a := NewAccumulator()
	a.Add(arrival("D24", models.North, "Q", 8))
	a.Add(arrival("D24", models.North, "B", 3))

	b := NewAccumulator()
	b.Add(arrival("D24", models.North, "Q", 1))
	b.Add(arrival("R31", models.South, "N", 5))

	summary, err := Merge(a, nil, b)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 8}, summary["D24"].North["Q"])
	assert.Equal(t, []int{3}, summary["D24"].North["B"])
	assert.Equal(t, []int{5}, summary["R31"].South["N"])
	assert.Equal(t, 2, a.Len())
	assert.Equal(t, 2, b.Len())

	// Merging again must not see mutations from the first merge
	summary["D24"].North["Q"][0] = 99
	again, err := Merge(a, b)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 8}, again["D24"].North["Q"])
}

func TestMergeKeepsCrossFeedDuplicates(t *testing.T) {
	a := NewAccumulator()
	a.Add(arrival("LIRR_PENN", models.North, "PW", 6))
	b := NewAccumulator()
	b.Add(arrival("LIRR_PENN", models.North, "PW", 6))

	summary, err := Merge(a, b)
	require.NoError(t, err)
	assert.Equal(t, []int{6, 6}, summary["LIRR_PENN"].North["PW"])
}

func TestMergeFaults(t *testing.T) {
	tests := []struct {
		name string
		bad  models.NormalizedArrival
	}{
		{"negative eta", arrival("137", models.North, "1", -1)},
		{"unknown direction", arrival("137", models.Direction("E"), "1", 3)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc := NewAccumulator()
			acc.Add(arrival("137", models.North, "1", 3))
			acc.Add(tt.bad)

			summary, err := Merge(acc)
			assert.Nil(t, summary)

			var fault *AggregationFault
			require.True(t, errors.As(err, &fault))
			assert.NotEmpty(t, fault.Reason)
		})
	}
}

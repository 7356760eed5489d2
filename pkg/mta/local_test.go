package mta

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jusunglee/mta-arrivals/internal/config"
	"github.com/jusunglee/mta-arrivals/internal/gtfsrt"
)

func TestLocalClientGetArrivals(t *testing.T) {
	payload, err := gtfsrt.MarshalFeed(gtfsrt.TripFixture{
		TripID:  "t1",
		RouteID: "A",
		Stops:   []gtfsrt.StopFixture{{StopID: "A36N", Arrival: time.Now().Add(10 * time.Minute)}},
	})
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "config.yml")
	body := "feeds:\n  - name: ACE\n    url: " + srv.URL + "\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	client, cfg, err := NewLocal(Config{ConfigFile: path})
	require.NoError(t, err)
	require.Len(t, cfg.Feeds, 1)
	assert.Equal(t, "ACE", client.GetFeeds()[0].Name)

	summary, stats, err := client.GetArrivals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Skipped)
	require.Contains(t, summary, "A36")

	etas := summary["A36"].North["A"]
	require.Len(t, etas, 1)
	// Allow for the clock moving across a minute boundary during the test
	assert.InDelta(t, 10, etas[0], 1)
}

func TestNewLocalInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("stations: []\n"), 0o600))

	_, _, err := NewLocal(Config{ConfigFile: path})
	assert.Error(t, err)
}

func TestNewLocalDefaultConfig(t *testing.T) {
	c := DefaultConfig()
	assert.Equal(t, "config.yml", c.ConfigFile)

	// No config.yml next to the package: the built-in defaults apply
	client, cfg, err := NewLocal(c)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultFeeds, cfg.Feeds)
	assert.Len(t, client.GetFeeds(), len(config.DefaultFeeds))
}

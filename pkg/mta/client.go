package mta

import (
	"context"

	"github.com/jusunglee/mta-arrivals/internal/config"
	"github.com/jusunglee/mta-arrivals/internal/models"
)

// Client defines the interface for accessing arrival summaries
// Each call runs the pipeline fresh; nothing is cached between calls
type Client interface {
	GetArrivals(ctx context.Context) (models.ArrivalSummary, models.RunStats, error)
	GetFeeds() []config.Feed
}

// Config holds configuration for the MTA client
// ConfigFile is optional; the built-in feed and station defaults apply without it
type Config struct {
	ConfigFile string
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		ConfigFile: "config.yml",
	}
}

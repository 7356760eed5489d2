package mta

import (
	"context"

	"github.com/jusunglee/mta-arrivals/internal/config"
	"github.com/jusunglee/mta-arrivals/internal/feed"
	"github.com/jusunglee/mta-arrivals/internal/models"
)

// LocalClient implements the Client interface by running the feed pipeline
// in-process on every request
type LocalClient struct {
	feedManager *feed.Manager
}

// NewLocal creates a new local MTA client from a config file
func NewLocal(c Config, opts ...feed.Option) (*LocalClient, *config.Config, error) {
	cfg, err := config.Load(c.ConfigFile)
	if err != nil {
		return nil, nil, err
	}
	client, err := NewLocalFromConfig(cfg, opts...)
	if err != nil {
		return nil, nil, err
	}
	return client, cfg, nil
}

// NewLocalFromConfig creates a local client from an already loaded config
func NewLocalFromConfig(cfg *config.Config, opts ...feed.Option) (*LocalClient, error) {
	fm, err := feed.NewManager(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &LocalClient{feedManager: fm}, nil
}

func (c *LocalClient) GetArrivals(ctx context.Context) (models.ArrivalSummary, models.RunStats, error) {
	return c.feedManager.Run(ctx)
}

func (c *LocalClient) GetFeeds() []config.Feed {
	return c.feedManager.Feeds()
}

package client

import (
	"context"
	"encoding/json"
	"fmt"
)

// StatsService handles site-wide statistics.
type StatsService struct {
	c *Client
}

// Get returns a snapshot of aggregate site counts. When caching is resolved
// on, the snapshot is appended to the client's bounded history.
func (s *StatsService) Get(ctx context.Context, opts *FetchOptions) (*Stats, error) {
	cfg := s.c.resolve(opts)

	data, err := s.c.get(ctx, "/statistics", cfg, nil)
	if err != nil {
		return nil, err
	}

	var stats Stats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, fmt.Errorf("decode statistics: %w", err)
	}
	stats.Raw = data

	if cfg.cache {
		s.c.appendStats(&stats)
	}
	return &stats, nil
}

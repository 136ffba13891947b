package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// UserService handles site user operations.
type UserService struct {
	c *Client
}

// Get returns a single user by ID.
func (s *UserService) Get(ctx context.Context, id string, opts *FetchOptions) (*User, error) {
	if id == "" {
		return nil, ErrMissingID
	}
	cfg := s.c.resolve(opts)

	data, err := s.c.get(ctx, "/users/"+url.PathEscape(id), cfg, nil)
	if err != nil {
		return nil, err
	}

	var user User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	user.Raw = data

	if cfg.cache {
		s.c.storeUser(&user)
	}
	return &user, nil
}

// Bots returns a page of the bots owned by a user. Results land in the bot
// cache when caching is resolved on.
func (s *UserService) Bots(ctx context.Context, id string, opts *ListOptions) ([]*Bot, error) {
	if id == "" {
		return nil, ErrMissingID
	}
	fetch, page, err := splitListOptions(opts)
	if err != nil {
		return nil, err
	}
	cfg := s.c.resolve(fetch)

	params := url.Values{}
	if page > 0 {
		params.Set("page", strconv.Itoa(page))
	}

	data, err := s.c.get(ctx, "/users/"+url.PathEscape(id)+"/bots", cfg, params)
	if err != nil {
		return nil, err
	}

	bots, err := decodeBotList(data)
	if err != nil {
		return nil, err
	}

	if cfg.cache {
		s.c.storeBots(bots)
	}
	return bots, nil
}

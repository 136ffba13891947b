package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// BotService handles bot listing operations.
type BotService struct {
	c *Client
}

// serverCountBody publishes a single aggregate guild count.
type serverCountBody struct {
	ServerCount int `json:"server_count"`
}

// shardsBody publishes one guild count per shard.
type shardsBody struct {
	Shards []int `json:"shards"`
}

// Get returns a single bot by ID. An empty ID falls back to the configured
// bot ID.
func (s *BotService) Get(ctx context.Context, id string, opts *FetchOptions) (*Bot, error) {
	id, err := s.resolveID(id)
	if err != nil {
		return nil, err
	}
	cfg := s.c.resolve(opts)

	data, err := s.c.get(ctx, "/bots/"+url.PathEscape(id), cfg, nil)
	if err != nil {
		return nil, err
	}

	var bot Bot
	if err := json.Unmarshal(data, &bot); err != nil {
		return nil, fmt.Errorf("decode bot: %w", err)
	}
	bot.Raw = data

	if cfg.cache {
		s.c.storeBot(&bot)
	}
	return &bot, nil
}

// List returns a page of listed bots.
func (s *BotService) List(ctx context.Context, opts *ListOptions) ([]*Bot, error) {
	fetch, page, err := splitListOptions(opts)
	if err != nil {
		return nil, err
	}
	cfg := s.c.resolve(fetch)

	params := url.Values{}
	if page > 0 {
		params.Set("page", strconv.Itoa(page))
	}

	data, err := s.c.get(ctx, "/bots", cfg, params)
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

// Upvotes returns the users who upvoted a bot. The call is authenticated and
// requires an API token. An empty ID falls back to the configured bot ID.
func (s *BotService) Upvotes(ctx context.Context, id string, opts *FetchOptions) ([]*Upvote, error) {
	id, err := s.resolveID(id)
	if err != nil {
		return nil, err
	}
	cfg := s.c.resolve(opts)
	if cfg.token == "" {
		return nil, ErrMissingToken
	}

	data, err := s.c.get(ctx, "/bots/"+url.PathEscape(id)+"/upvotes", cfg, nil)
	if err != nil {
		return nil, err
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("decode upvote list: %w", err)
	}

	upvotes := make([]*Upvote, 0, len(raws))
	for _, r := range raws {
		var uv Upvote
		if err := json.Unmarshal(r, &uv); err != nil {
			return nil, fmt.Errorf("decode upvote: %w", err)
		}
		uv.BotID = id
		uv.Raw = r
		upvotes = append(upvotes, &uv)
	}
	return upvotes, nil
}

// PostServerCount publishes an aggregate guild count for a bot. The call is
// authenticated and requires an API token.
func (s *BotService) PostServerCount(ctx context.Context, id string, count int, opts *FetchOptions) error {
	if count < 0 {
		return ErrInvalidCount
	}
	return s.postCount(ctx, id, opts, serverCountBody{ServerCount: count})
}

// PostShardCounts publishes one guild count per shard for a bot. The call is
// authenticated and requires an API token.
func (s *BotService) PostShardCounts(ctx context.Context, id string, shards []int, opts *FetchOptions) error {
	if len(shards) == 0 {
		return ErrEmptyShards
	}
	for _, n := range shards {
		if n < 0 {
			return ErrInvalidCount
		}
	}
	return s.postCount(ctx, id, opts, shardsBody{Shards: shards})
}

// postCount shares the POST path of the two count-publishing shapes.
func (s *BotService) postCount(ctx context.Context, id string, opts *FetchOptions, body any) error {
	id, err := s.resolveID(id)
	if err != nil {
		return err
	}
	cfg := s.c.resolve(opts)
	if cfg.token == "" {
		return ErrMissingToken
	}

	_, err = s.c.post(ctx, "/bots/"+url.PathEscape(id), cfg, body)
	return err
}

// resolveID substitutes the configured bot ID for an empty argument.
func (s *BotService) resolveID(id string) (string, error) {
	if id == "" {
		id = s.c.defaultBotID()
	}
	if id == "" {
		return "", ErrMissingID
	}
	return id, nil
}

// splitListOptions validates list options and separates pagination from the
// fetch overrides.
func splitListOptions(opts *ListOptions) (*FetchOptions, int, error) {
	if opts == nil {
		return nil, 0, nil
	}
	if opts.Page < 0 {
		return nil, 0, ErrInvalidPage
	}
	return &opts.FetchOptions, opts.Page, nil
}

// decodeBotList decodes a JSON array of bots, retaining each element's raw
// payload.
func decodeBotList(data []byte) ([]*Bot, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("decode bot list: %w", err)
	}
	bots := make([]*Bot, 0, len(raws))
	for _, r := range raws {
		var b Bot
		if err := json.Unmarshal(r, &b); err != nil {
			return nil, fmt.Errorf("decode bot: %w", err)
		}
		b.Raw = r
		bots = append(bots, &b)
	}
	return bots, nil
}

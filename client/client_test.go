package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// newTestServer creates a test server that routes to the given handler map.
// Keys are "METHOD /path", values are handler funcs. The returned client is
// pointed at the server with a test token configured.
func newTestServer(t *testing.T, routes map[string]http.HandlerFunc, opts ...Option) (*httptest.Server, *Client) {
	t.Helper()
	mux := http.NewServeMux()
	for pattern, handler := range routes {
		mux.HandleFunc(pattern, handler)
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	opts = append([]Option{WithBaseURL(srv.URL), WithToken("test-token")}, opts...)
	return srv, New(opts...)
}

func jsonResponse(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func boolPtr(b bool) *bool { return &b }

func TestBotsGet(t *testing.T) {
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"GET /v1/bots/123": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, 200, map[string]any{
				"id": "123", "username": "VoteBot", "discriminator": "0001",
				"server_count": 42, "prefix": "!",
			})
		},
	})

	bot, err := c.Bots.Get(context.Background(), "123", nil)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if bot.ID != "123" {
		t.Errorf("got id %q, want 123", bot.ID)
	}
	if bot.Tag() != "VoteBot#0001" {
		t.Errorf("got tag %q, want VoteBot#0001", bot.Tag())
	}
	if bot.ServerCount != 42 {
		t.Errorf("got server count %d, want 42", bot.ServerCount)
	}
	if len(bot.Raw) == 0 {
		t.Error("raw payload not retained")
	}
}

func TestBotsGetFallsBackToConfiguredID(t *testing.T) {
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"GET /v1/bots/999": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, 200, map[string]any{"id": "999"})
		},
	}, WithBotID("999"))

	bot, err := c.Bots.Get(context.Background(), "", nil)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if bot.ID != "999" {
		t.Errorf("got id %q, want 999", bot.ID)
	}
}

func TestBotsGetMissingID(t *testing.T) {
	_, c := newTestServer(t, nil)

	if _, err := c.Bots.Get(context.Background(), "", nil); err != ErrMissingID {
		t.Errorf("got %v, want ErrMissingID", err)
	}
}

func TestBotsList(t *testing.T) {
	var gotPage string
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"GET /v1/bots": func(w http.ResponseWriter, r *http.Request) {
			gotPage = r.URL.Query().Get("page")
			jsonResponse(w, 200, []map[string]any{
				{"id": "1", "username": "a"},
				{"id": "2", "username": "b"},
			})
		},
	})

	bots, err := c.Bots.List(context.Background(), &ListOptions{Page: 2})
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(bots) != 2 {
		t.Fatalf("got %d bots, want 2", len(bots))
	}
	if gotPage != "2" {
		t.Errorf("got page param %q, want 2", gotPage)
	}
}

func TestBotsListNegativePage(t *testing.T) {
	_, c := newTestServer(t, nil)

	if _, err := c.Bots.List(context.Background(), &ListOptions{Page: -1}); err != ErrInvalidPage {
		t.Errorf("got %v, want ErrInvalidPage", err)
	}
}

func TestUpvotes(t *testing.T) {
	var gotAuth string
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"GET /v1/bots/123/upvotes": func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			jsonResponse(w, 200, []map[string]any{
				{"user": map[string]any{"id": "456", "username": "voter"}, "timestamp": 1000},
			})
		},
	})

	upvotes, err := c.Bots.Upvotes(context.Background(), "123", nil)
	if err != nil {
		t.Fatalf("Upvotes() error: %v", err)
	}
	if len(upvotes) != 1 {
		t.Fatalf("got %d upvotes, want 1", len(upvotes))
	}
	if upvotes[0].User.ID != "456" || upvotes[0].Timestamp != 1000 {
		t.Errorf("unexpected upvote: %+v", upvotes[0])
	}
	if upvotes[0].BotID != "123" {
		t.Errorf("got bot id %q, want 123", upvotes[0].BotID)
	}
	if gotAuth != "test-token" {
		t.Errorf("got auth header %q, want test-token", gotAuth)
	}
}

func TestUpvotesRequiresToken(t *testing.T) {
	c := New()

	if _, err := c.Bots.Upvotes(context.Background(), "123", nil); err != ErrMissingToken {
		t.Errorf("got %v, want ErrMissingToken", err)
	}
}

func TestPostServerCount(t *testing.T) {
	var gotBody map[string]any
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"POST /v1/bots/123": func(w http.ResponseWriter, r *http.Request) {
			json.NewDecoder(r.Body).Decode(&gotBody) //nolint:errcheck
			jsonResponse(w, 200, map[string]any{"success": true})
		},
	})

	if err := c.Bots.PostServerCount(context.Background(), "123", 500, nil); err != nil {
		t.Fatalf("PostServerCount() error: %v", err)
	}
	if gotBody["server_count"] != float64(500) {
		t.Errorf("got body %v, want server_count=500", gotBody)
	}
	if _, ok := gotBody["shards"]; ok {
		t.Error("shards must not be present for an aggregate count")
	}
}

func TestPostShardCounts(t *testing.T) {
	var gotBody map[string]any
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"POST /v1/bots/123": func(w http.ResponseWriter, r *http.Request) {
			json.NewDecoder(r.Body).Decode(&gotBody) //nolint:errcheck
			jsonResponse(w, 200, map[string]any{"success": true})
		},
	})

	if err := c.Bots.PostShardCounts(context.Background(), "123", []int{50, 60}, nil); err != nil {
		t.Fatalf("PostShardCounts() error: %v", err)
	}
	shards, ok := gotBody["shards"].([]any)
	if !ok || len(shards) != 2 {
		t.Errorf("got body %v, want shards=[50 60]", gotBody)
	}
	if _, ok := gotBody["server_count"]; ok {
		t.Error("server_count must not be present for a shard list")
	}
}

func TestPostCountValidation(t *testing.T) {
	c := New(WithToken("t"), WithBotID("1"))
	ctx := context.Background()

	if err := c.Bots.PostServerCount(ctx, "", -1, nil); err != ErrInvalidCount {
		t.Errorf("negative count: got %v, want ErrInvalidCount", err)
	}
	if err := c.Bots.PostShardCounts(ctx, "", nil, nil); err != ErrEmptyShards {
		t.Errorf("empty shards: got %v, want ErrEmptyShards", err)
	}
	if err := c.Bots.PostShardCounts(ctx, "", []int{1, -2}, nil); err != ErrInvalidCount {
		t.Errorf("negative shard: got %v, want ErrInvalidCount", err)
	}
}

func TestUsersGet(t *testing.T) {
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"GET /v1/users/456": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, 200, map[string]any{
				"id": "456", "username": "owner", "discriminator": "0002",
				"links": map[string]any{"github": "octocat"},
			})
		},
	})

	user, err := c.Users.Get(context.Background(), "456", nil)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if user.ID != "456" {
		t.Errorf("got id %q, want 456", user.ID)
	}
	if user.GitHubURL() != "https://github.com/octocat" {
		t.Errorf("got github url %q", user.GitHubURL())
	}
}

func TestUsersGetMissingID(t *testing.T) {
	_, c := newTestServer(t, nil)

	if _, err := c.Users.Get(context.Background(), "", nil); err != ErrMissingID {
		t.Errorf("got %v, want ErrMissingID", err)
	}
}

func TestUserBots(t *testing.T) {
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"GET /v1/users/456/bots": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, 200, []map[string]any{{"id": "1"}, {"id": "2"}})
		},
	})

	bots, err := c.Users.Bots(context.Background(), "456", nil)
	if err != nil {
		t.Fatalf("Bots() error: %v", err)
	}
	if len(bots) != 2 {
		t.Errorf("got %d bots, want 2", len(bots))
	}
}

func TestStatsGet(t *testing.T) {
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"GET /v1/statistics": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, 200, map[string]any{"bots": 100, "users": 50, "tags": 12})
		},
	})

	stats, err := c.Stats.Get(context.Background(), nil)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if stats.Total() != 150 {
		t.Errorf("got total %d, want 150", stats.Total())
	}
}

func TestResolveLayering(t *testing.T) {
	c := New() // defaults: cache false, version 1

	cfg := c.resolve(&FetchOptions{Cache: boolPtr(true)})
	if !cfg.cache || cfg.version != 1 {
		t.Errorf("got cache=%v version=%d, want cache=true version=1", cfg.cache, cfg.version)
	}

	cfg = c.resolve(nil)
	if cfg.cache || cfg.version != 1 {
		t.Errorf("nil opts: got cache=%v version=%d, want client defaults", cfg.cache, cfg.version)
	}

	cfg = c.resolve(&FetchOptions{Version: 2, Token: "override"})
	if cfg.version != 2 || cfg.token != "override" {
		t.Errorf("got version=%d token=%q, want per-call overrides", cfg.version, cfg.token)
	}
}

func TestVersionOverridePerCall(t *testing.T) {
	var hitV2 bool
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"GET /v2/bots/123": func(w http.ResponseWriter, _ *http.Request) {
			hitV2 = true
			jsonResponse(w, 200, map[string]any{"id": "123"})
		},
	})

	if _, err := c.Bots.Get(context.Background(), "123", &FetchOptions{Version: 2}); err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if !hitV2 {
		t.Error("per-call version override did not change the endpoint")
	}
}

func TestEditPropagatesToCalls(t *testing.T) {
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"GET /v1/bots/123": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, 200, map[string]any{"id": "123"})
		},
	})

	c.Edit(WithCache(true))

	if _, err := c.Bots.Get(context.Background(), "123", nil); err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if _, ok := c.CachedBot("123"); !ok {
		t.Error("edited cache default did not apply to the call")
	}
}

func TestAPIError(t *testing.T) {
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"GET /v1/bots/missing": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, 404, map[string]any{"code": 404, "message": "bot not found"})
		},
	})

	_, err := c.Bots.Get(context.Background(), "missing", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsNotFound(err) {
		t.Errorf("expected not found, got: %v", err)
	}
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.StatusCode != 404 || apiErr.Message != "bot not found" {
		t.Errorf("unexpected api error: %+v", apiErr)
	}
}

func TestRatelimit(t *testing.T) {
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"GET /v1/bots/123": func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("X-Ratelimit-Limit", "2")
			w.Header().Set("Retry-After", "30")
			w.WriteHeader(http.StatusTooManyRequests)
		},
	})

	_, err := c.Bots.Get(context.Background(), "123", nil)
	if !IsRateLimited(err) {
		t.Fatalf("expected rate limit, got: %v", err)
	}
	rl := err.(*RatelimitError)
	if rl.Limit != 2 || rl.RetryAfter != 30 {
		t.Errorf("got limit=%d retry=%d, want 2/30", rl.Limit, rl.RetryAfter)
	}
	if want := "2 times every 30 seconds"; !strings.Contains(rl.Error(), want) {
		t.Errorf("message %q missing %q", rl.Error(), want)
	}
	if !strings.Contains(rl.Error(), "/bots/123") {
		t.Errorf("message %q does not name the endpoint", rl.Error())
	}
}

func TestRatelimitSingular(t *testing.T) {
	rl := &RatelimitError{Limit: 1, RetryAfter: 1, Endpoint: "/bots"}
	if want := "1 time every 1 second"; !strings.Contains(rl.Error(), want) {
		t.Errorf("message %q missing %q", rl.Error(), want)
	}
}

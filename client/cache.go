package client

// Cache containers are unbounded ID-keyed maps. Writes happen only when the
// resolved cache option for a call is true; list results merge into the
// existing cache with new entries winning on ID collision.

// storeBot replaces the cache slot for a single bot.
func (c *Client) storeBot(b *Bot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.botCache[b.ID] = b
}

// storeBots merges a list result into the bot cache.
func (c *Client) storeBots(bots []*Bot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, b := range bots {
		c.botCache[b.ID] = b
	}
}

// storeUser replaces the cache slot for a single user.
func (c *Client) storeUser(u *User) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.userCache[u.ID] = u
}

// CachedBot returns the most recently cached bot with the given ID.
func (c *Client) CachedBot(id string) (*Bot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	b, ok := c.botCache[id]
	return b, ok
}

// CachedUser returns the most recently cached user with the given ID.
func (c *Client) CachedUser(id string) (*User, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	u, ok := c.userCache[id]
	return u, ok
}

// CachedBots returns a copy of the bot cache.
func (c *Client) CachedBots() map[string]*Bot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m := make(map[string]*Bot, len(c.botCache))
	for id, b := range c.botCache {
		m[id] = b
	}
	return m
}

// CachedUsers returns a copy of the user cache.
func (c *Client) CachedUsers() map[string]*User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m := make(map[string]*User, len(c.userCache))
	for id, u := range c.userCache {
		m[id] = u
	}
	return m
}

// ClearCaches discards all cached bots and users.
func (c *Client) ClearCaches() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.botCache = make(map[string]*Bot)
	c.userCache = make(map[string]*User)
}

// appendStats records a snapshot in the bounded FIFO history.
func (c *Client) appendStats(s *Stats) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.statsHistory = append(c.statsHistory, s)
	c.trimStatsLocked()
}

// trimStatsLocked evicts oldest snapshots until the history fits the limit.
// Callers must hold c.mu.
func (c *Client) trimStatsLocked() {
	if over := len(c.statsHistory) - c.statsLimit; over > 0 {
		c.statsHistory = append([]*Stats(nil), c.statsHistory[over:]...)
	}
}

// StatsHistory returns the retained snapshots, oldest first.
func (c *Client) StatsHistory() []*Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]*Stats(nil), c.statsHistory...)
}

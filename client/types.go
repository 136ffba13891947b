package client

import (
	"encoding/json"
	"net/url"
	"strings"
)

// siteURL is the public site root used by derived page URLs.
const siteURL = "https://botlist.space"

// Identity holds the identity and presentation fields shared by bots and
// users. Field values are taken verbatim from the API payload.
type Identity struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Discriminator string `json:"discriminator"`
	Avatar        string `json:"avatar"`
}

// Tag returns the "username#discriminator" form.
func (i Identity) Tag() string {
	return i.Username + "#" + i.Discriminator
}

// Mention returns the Discord mention string for the entity.
func (i Identity) Mention() string {
	return "<@" + i.ID + ">"
}

// AvatarURL returns the avatar image URL carried in the payload.
func (i Identity) AvatarURL() string {
	return i.Avatar
}

func (i Identity) entityID() string { return i.ID }

// identified is satisfied by entities carrying an embedded Identity.
type identified interface {
	entityID() string
}

// MapByID converts a list result into an ID-keyed map. Later entries win on
// ID collision.
func MapByID[T identified](items []T) map[string]T {
	m := make(map[string]T, len(items))
	for _, item := range items {
		m[item.entityID()] = item
	}
	return m
}

// Bot is a read-only view of a listed bot. Missing payload fields decode to
// zero values; the entity layer performs no validation.
type Bot struct {
	Identity
	Prefix              string   `json:"prefix"`
	Library             string   `json:"library"`
	ShortDescription    string   `json:"short_description"`
	FullDescription     string   `json:"full_description"`
	Tags                []string `json:"tags"`
	Approved            bool     `json:"approved"`
	Featured            bool     `json:"featured"`
	AvatarChildFriendly bool     `json:"avatar_child_friendly"`
	CreatedAt           int64    `json:"timestamp"`
	ServerCount         int      `json:"server_count"`
	Shards              []int    `json:"shards"`
	Vanity              string   `json:"vanity"`
	Invite              string   `json:"invite"`
	Support             string   `json:"support"`
	Owners              []User   `json:"owners"`

	// Raw is the untouched payload the bot was decoded from.
	Raw json.RawMessage `json:"-"`
}

// PageURL returns the bot's listing page.
func (b *Bot) PageURL() string {
	return siteURL + "/bot/" + b.ID
}

// VanityURL returns the vanity listing page, or "" when no vanity slug is
// set.
func (b *Bot) VanityURL() string {
	if b.Vanity == "" {
		return ""
	}
	return siteURL + "/bot/" + b.Vanity
}

// SupportURL returns the support server invite URL, or "" when no support
// code is set.
func (b *Bot) SupportURL() string {
	if b.Support == "" {
		return ""
	}
	return "https://discord.gg/" + b.Support
}

// InviteNoPermissions returns the invite URL with the permissions query
// parameter removed and everything else untouched, including parameter
// order.
func (b *Bot) InviteNoPermissions() string {
	u, err := url.Parse(b.Invite)
	if err != nil || u.RawQuery == "" {
		return b.Invite
	}
	parts := strings.Split(u.RawQuery, "&")
	kept := parts[:0]
	for _, p := range parts {
		if strings.HasPrefix(p, "permissions=") {
			continue
		}
		kept = append(kept, p)
	}
	u.RawQuery = strings.Join(kept, "&")
	return u.String()
}

// TotalShardCount returns the sum of per-shard server counts, or the
// aggregate server count when the bot is not sharded.
func (b *Bot) TotalShardCount() int {
	if len(b.Shards) == 0 {
		return b.ServerCount
	}
	total := 0
	for _, n := range b.Shards {
		total += n
	}
	return total
}

// UserLinks holds optional external profile handles on a user.
type UserLinks struct {
	GitHub string `json:"github"`
	GitLab string `json:"gitlab"`
}

// User is a read-only view of a site user.
type User struct {
	Identity
	ShortDescription string    `json:"short_description"`
	Links            UserLinks `json:"links"`
	Bots             []Bot     `json:"bots"`
	Guilds           []Guild   `json:"guilds"`

	// Raw is the untouched payload the user was decoded from.
	Raw json.RawMessage `json:"-"`
}

// PageURL returns the user's profile page.
func (u *User) PageURL() string {
	return siteURL + "/user/" + u.ID
}

// GitHubURL returns the user's GitHub profile URL, or "" when no handle is
// set.
func (u *User) GitHubURL() string {
	if u.Links.GitHub == "" {
		return ""
	}
	return "https://github.com/" + u.Links.GitHub
}

// GitLabURL returns the user's GitLab profile URL, or "" when no handle is
// set.
func (u *User) GitLabURL() string {
	if u.Links.GitLab == "" {
		return ""
	}
	return "https://gitlab.com/" + u.Links.GitLab
}

// Guild is a read-only view of a listed server.
type Guild struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Icon              string `json:"icon"`
	IconChildFriendly bool   `json:"icon_child_friendly"`
	Featured          bool   `json:"featured"`
	Public            bool   `json:"public"`
	Premium           bool   `json:"premium"`
	MemberCount       int    `json:"member_count"`
	ShortDescription  string `json:"short_description"`
	FullDescription   string `json:"full_description"`
	Vanity            string `json:"vanity"`
	Owners            []User `json:"owners"`

	// Raw is the untouched payload the guild was decoded from.
	Raw json.RawMessage `json:"-"`
}

// PageURL returns the guild's listing page.
func (g *Guild) PageURL() string {
	return siteURL + "/server/" + g.ID
}

// VanityURL returns the vanity listing page, or "" when no vanity slug is
// set.
func (g *Guild) VanityURL() string {
	if g.Vanity == "" {
		return ""
	}
	return siteURL + "/server/" + g.Vanity
}

// Stats is an immutable snapshot of site-wide aggregate counts.
type Stats struct {
	Bots           int `json:"bots"`
	ApprovedBots   int `json:"approved_bots"`
	UnapprovedBots int `json:"unapproved_bots"`
	Users          int `json:"users"`
	Tags           int `json:"tags"`

	// Raw is the untouched payload the snapshot was decoded from.
	Raw json.RawMessage `json:"-"`
}

// Total returns the combined bot and user count.
func (s *Stats) Total() int {
	return s.Bots + s.Users
}

// Upvote pairs an upvoting user with the time of the vote. BotID identifies
// the bot the vote was cast for; it is stamped from call context, not
// carried in the payload.
type Upvote struct {
	User      User  `json:"user"`
	Timestamp int64 `json:"timestamp"`

	BotID string `json:"-"`

	// Raw is the untouched payload the upvote was decoded from.
	Raw json.RawMessage `json:"-"`
}

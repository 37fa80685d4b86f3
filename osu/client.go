package osu

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/google/go-querystring/query"
	"github.com/rs/zerolog"

	"github.com/s0up4200/osuapi/auth"
	"github.com/s0up4200/osuapi/decode"
	"github.com/s0up4200/osuapi/paginate"
	"github.com/s0up4200/osuapi/transport"
)

// Sender performs one API request. *transport.Transport satisfies it.
type Sender interface {
	Send(ctx context.Context, spec transport.RequestSpec) (json.RawMessage, error)
}

// Client is the entry point for endpoint calls of one API session.
// Safe for concurrent use.
type Client struct {
	sender Sender
	logger zerolog.Logger
	opts   clientOptions
}

// NewClient creates a client that sends every request through sender.
func NewClient(sender Sender, logger zerolog.Logger, opts ...Option) (*Client, error) {
	if sender == nil {
		return nil, fmt.Errorf("osu client requires a sender")
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	return &Client{
		sender: sender,
		logger: logger.With().Str("component", "osu").Logger(),
		opts:   o,
	}, nil
}

func get[T any](ctx context.Context, c *Client, spec transport.RequestSpec) (T, error) {
	var zero T
	raw, err := c.sender.Send(ctx, spec)
	if err != nil {
		return zero, err
	}
	return decode.Decode[T](raw)
}

// User looks up a user. With UserLookupAny the API tries user as an id
// first, then as a username. An empty mode returns the user's default mode.
func (c *Client) User(ctx context.Context, user string, mode GameMode, key UserLookupKey) (*User, error) {
	if user == "" {
		return nil, fmt.Errorf("user is required")
	}

	path := "/users/" + url.PathEscape(user)
	switch key {
	case UserLookupAny:
	case UserLookupID:
		if _, err := strconv.ParseInt(user, 10, 64); err != nil {
			return nil, fmt.Errorf("user %q is not a numeric id", user)
		}
	case UserLookupUsername:
		path = "/users/@" + url.PathEscape(user)
	default:
		return nil, fmt.Errorf("unknown user lookup key %q", key)
	}
	if mode != "" {
		path += "/" + string(mode)
	}

	u, err := get[*User](ctx, c, transport.Get(path, nil, auth.ScopePublic))
	if err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", user, err)
	}
	return u, nil
}

// UserByID looks up a user by id.
func (c *Client) UserByID(ctx context.Context, id int64, mode GameMode) (*User, error) {
	return c.User(ctx, strconv.FormatInt(id, 10), mode, UserLookupID)
}

// Me returns the user the credential belongs to.
func (c *Client) Me(ctx context.Context, mode GameMode) (*User, error) {
	path := "/me"
	if mode != "" {
		path += "/" + string(mode)
	}
	u, err := get[*User](ctx, c, transport.Get(path, nil, auth.ScopeIdentify))
	if err != nil {
		return nil, fmt.Errorf("failed to get own user: %w", err)
	}
	return u, nil
}

// Friends returns the friend list of the credential's user.
func (c *Client) Friends(ctx context.Context) ([]User, error) {
	friends, err := get[[]User](ctx, c, transport.Get("/friends", nil, auth.ScopeFriendsRead))
	if err != nil {
		return nil, fmt.Errorf("failed to get friends: %w", err)
	}
	return friends, nil
}

// Beatmap returns a beatmap by id.
func (c *Client) Beatmap(ctx context.Context, id int64) (*Beatmap, error) {
	b, err := get[*Beatmap](ctx, c, transport.Get("/beatmaps/"+strconv.FormatInt(id, 10), nil, auth.ScopePublic))
	if err != nil {
		return nil, fmt.Errorf("failed to get beatmap %d: %w", id, err)
	}
	c.bindBeatmap(b)
	return b, nil
}

// BeatmapByChecksum returns the beatmap whose file has the given MD5 checksum.
func (c *Client) BeatmapByChecksum(ctx context.Context, checksum string) (*Beatmap, error) {
	spec := transport.Get("/beatmaps/lookup", url.Values{"checksum": {checksum}}, auth.ScopePublic)
	b, err := get[*Beatmap](ctx, c, spec)
	if err != nil {
		return nil, fmt.Errorf("failed to look up beatmap %s: %w", checksum, err)
	}
	c.bindBeatmap(b)
	return b, nil
}

// Beatmapset returns a beatmapset by id, including its difficulties.
func (c *Client) Beatmapset(ctx context.Context, id int64) (*Beatmapset, error) {
	set, err := get[*Beatmapset](ctx, c, transport.Get("/beatmapsets/"+strconv.FormatInt(id, 10), nil, auth.ScopePublic))
	if err != nil {
		return nil, fmt.Errorf("failed to get beatmapset %d: %w", id, err)
	}
	// difficulties listed by their own set need no lookup
	for i := range set.Beatmaps {
		set.Beatmaps[i].Beatmapset.Bind(func(context.Context, int64) (*Beatmapset, error) {
			return set, nil
		})
	}
	return set, nil
}

// Score returns a score by its id.
func (c *Client) Score(ctx context.Context, id int64) (*Score, error) {
	s, err := get[*Score](ctx, c, transport.Get("/scores/"+strconv.FormatInt(id, 10), nil, auth.ScopePublic))
	if err != nil {
		return nil, fmt.Errorf("failed to get score %d: %w", id, err)
	}
	c.bindScore(s)
	return s, nil
}

// UserScoresOptions filters UserScores.
type UserScoresOptions struct {
	Mode         GameMode `url:"mode,omitempty"`
	IncludeFails bool     `url:"include_fails,omitempty,int"`
	LegacyOnly   bool     `url:"legacy_only,omitempty,int"`
	// Limit is the page size; the client default applies when zero. Values
	// above MaxScoresPageSize are clamped.
	Limit int `url:"limit,omitempty"`
}

// UserScores pages through a user's best, first-place or recent scores.
func (c *Client) UserScores(userID int64, kind ScoreType, opts *UserScoresOptions, pageOpts ...paginate.Option) (*paginate.Paginator[Score], error) {
	o := UserScoresOptions{}
	if opts != nil {
		o = *opts
	}
	if o.Limit <= 0 {
		o.Limit = c.opts.pageSize
	}
	// A short page ends offset paging, so never ask for more than the server sends.
	o.Limit = min(o.Limit, MaxScoresPageSize)

	q, err := query.Values(o)
	if err != nil {
		return nil, fmt.Errorf("failed to encode score options: %w", err)
	}

	path := fmt.Sprintf("/users/%d/scores/%s", userID, kind)
	first := transport.Get(path, q, auth.ScopePublic)
	p := paginate.New[Score](c.sender, first, paginate.Param(first, "offset"), paginate.Offset("", o.Limit), pageOpts...)
	return p.Each(c.bindScore), nil
}

// Events pages through the global activity feed.
func (c *Client) Events(sort EventsSort, pageOpts ...paginate.Option) *paginate.Paginator[Event] {
	q := url.Values{}
	if sort != "" {
		q.Set("sort", string(sort))
	}
	first := transport.Get("/events", q, auth.ScopePublic)
	return paginate.New[Event](c.sender, first, paginate.Param(first, "cursor_string"), paginate.CursorString("events"), pageOpts...)
}

// BeatmapsetEventsOptions filters BeatmapsetEvents.
type BeatmapsetEventsOptions struct {
	Types        []BeatmapsetEventType `url:"types[],omitempty"`
	UserID       int64                 `url:"user,omitempty"`
	BeatmapsetID int64                 `url:"beatmapset_id,omitempty"`
	Limit        int                   `url:"limit,omitempty"`
}

// BeatmapsetEvents pages through the modding history of all beatmapsets.
func (c *Client) BeatmapsetEvents(opts *BeatmapsetEventsOptions, pageOpts ...paginate.Option) (*paginate.Paginator[BeatmapsetEvent], error) {
	o := BeatmapsetEventsOptions{}
	if opts != nil {
		o = *opts
	}
	if o.Limit <= 0 {
		o.Limit = c.opts.pageSize
	}

	q, err := query.Values(o)
	if err != nil {
		return nil, fmt.Errorf("failed to encode beatmapset event options: %w", err)
	}

	first := transport.Get("/beatmapsets/events", q, auth.ScopePublic)
	return paginate.New[BeatmapsetEvent](c.sender, first, paginate.Param(first, "page"), paginate.PageNumber("events", o.Limit), pageOpts...), nil
}

// ForumTopic returns a topic with its first page of posts.
func (c *Client) ForumTopic(ctx context.Context, topicID int64) (*ForumTopicPage, error) {
	page, err := get[*ForumTopicPage](ctx, c, transport.Get("/forums/topics/"+strconv.FormatInt(topicID, 10), nil, auth.ScopePublic))
	if err != nil {
		return nil, fmt.Errorf("failed to get forum topic %d: %w", topicID, err)
	}
	return page, nil
}

type createTopicRequest struct {
	ForumID  int64  `json:"forum_id"`
	Title    string `json:"title"`
	Body     string `json:"body"`
	WithPoll bool   `json:"with_poll"`
}

// ForumCreateTopic opens a new topic in a forum. Needs the forum.write scope.
func (c *Client) ForumCreateTopic(ctx context.Context, forumID int64, title, body string) (*CreatedTopic, error) {
	req := createTopicRequest{ForumID: forumID, Title: title, Body: body}
	created, err := get[*CreatedTopic](ctx, c, transport.Post("/forums/topics", req, auth.ScopeForumWrite))
	if err != nil {
		return nil, fmt.Errorf("failed to create forum topic: %w", err)
	}

	c.logger.Info().
		Int64("forum_id", forumID).
		Int64("topic_id", created.Topic.ID).
		Msg("Created forum topic")
	return created, nil
}

func (c *Client) bindBeatmap(b *Beatmap) {
	if b == nil || b.Beatmapset == nil {
		return
	}
	b.Beatmapset.Bind(c.Beatmapset)
}

func (c *Client) bindScore(s *Score) {
	if s == nil {
		return
	}
	if s.Beatmap != nil {
		s.Beatmap.Bind(c.Beatmap)
		if b, ok := s.Beatmap.Peek(); ok {
			c.bindBeatmap(b)
		}
	}
	if s.User != nil {
		s.User.Bind(func(ctx context.Context, id int64) (*User, error) {
			return c.UserByID(ctx, id, s.Mode())
		})
	}
}

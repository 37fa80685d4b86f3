// Package osu is a client for the osu! web API v2.
//
// A Client wraps a transport.Transport bound to one authenticated session and
// exposes typed endpoint methods:
//
//	authn, err := auth.New(auth.Config{
//		ClientID:     "1234",
//		ClientSecret: "secret",
//		TokenURL:     "https://osu.ppy.sh/oauth/token",
//		Scopes:       []auth.Scope{auth.ScopePublic},
//		Grant:        auth.GrantClientCredentials,
//	}, tokenstore.NewMemoryStore(), logger)
//	tr, err := transport.New("https://osu.ppy.sh/api/v2", authn, logger)
//	client, err := osu.NewClient(tr, logger)
//
//	score, err := client.Score(ctx, 4563185092)
//	beatmap, err := score.Beatmap.Get(ctx) // fetched once, then memoized
//
// # Lazy references
//
// Entities that point at other entities by id (a score's beatmap and user, a
// beatmap's set, a replay's beatmap and player) expose a *lazy.Ref. When the
// payload embedded the entity the Ref is already resolved; otherwise the
// first Get performs one request through the client that decoded the entity.
//
// # Polymorphic payloads
//
// Feed events and beatmapset event comments pick their concrete Go type from
// the "type" field. Types this package does not know decode into
// UnknownEvent and UnknownComment, which keep the raw data, so one new event
// kind never fails a whole page.
//
// # Enums
//
// GameMode, RankStatus, EventType and BeatmapsetEventType are string types.
// Unrecognized values are kept as sent and report IsUnknown.
package osu

package osu

import (
	"context"
	"fmt"
	"time"

	"github.com/s0up4200/osuapi/lazy"
)

// ReplayData is a replay as produced by an external .osr parser.
type ReplayData struct {
	Ruleset        int
	GameVersion    int
	BeatmapHash    string
	PlayerName     string
	ReplayHash     string
	Count300       int
	Count100       int
	Count50        int
	CountGeki      int
	CountKatu      int
	CountMiss      int
	Score          int64
	MaxCombo       int
	IsPerfectCombo bool
	Mods           int
	LifeBarGraph   string
	Timestamp      time.Time
	ReplayID       int64
}

// Replay wraps parsed replay data with lazy access to the beatmap (looked up
// by checksum) and the player (looked up by username).
type Replay struct {
	ReplayData
	Mode GameMode

	Beatmap *lazy.Ref[string, *Beatmap]
	User    *lazy.Ref[string, *User]
}

// Replay wraps data for this client. It fails only for a ruleset id outside
// the four known modes.
func (c *Client) Replay(data ReplayData) (*Replay, error) {
	mode, ok := GameModeFromRuleset(data.Ruleset)
	if !ok {
		return nil, fmt.Errorf("replay %d: unknown ruleset %d", data.ReplayID, data.Ruleset)
	}

	return &Replay{
		ReplayData: data,
		Mode:       mode,
		Beatmap:    lazy.New(data.BeatmapHash, c.BeatmapByChecksum),
		User: lazy.New(data.PlayerName, func(ctx context.Context, name string) (*User, error) {
			return c.User(ctx, name, mode, UserLookupUsername)
		}),
	}, nil
}

package filter

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/s0up4200/osuapi/osu"
)

// Env builds the variables a filter sees for one item.
type Env[T any] func(item *T) map[string]any

// entityHelpers declares the item-bound helpers so expressions using them
// type-check at compile time. Env builders supply the real implementations.
var entityHelpers = map[string]any{
	"hasMod":   func(string) bool { return false },
	"isType":   func(string) bool { return false },
	"username": func() string { return "" },
}

// ScoreEnv exposes a score to filter expressions. Beatmap fields are only
// present when the beatmap came embedded in the payload; building the
// environment never performs I/O.
func ScoreEnv(s *osu.Score) map[string]any {
	mods := make([]string, 0, len(s.Mods))
	for _, m := range s.Mods {
		mods = append(mods, m.Acronym)
	}

	var pp float64
	if s.PP != nil {
		pp = *s.PP
	}
	var endedAt time.Time
	if s.EndedAt != nil {
		endedAt = *s.EndedAt
	}

	env := map[string]any{
		"ID":         s.ID,
		"UserID":     s.UserID,
		"BeatmapID":  s.BeatmapID,
		"Mode":       s.Mode().String(),
		"PP":         pp,
		"HasPP":      s.PP != nil,
		"Accuracy":   s.Accuracy * 100,
		"Rank":       s.Rank,
		"Passed":     s.Passed,
		"MaxCombo":   s.MaxCombo,
		"TotalScore": s.TotalScore,
		"HasReplay":  s.HasReplay,
		"Mods":       mods,
		"EndedAt":    endedAt,
		"Statistics": s.Statistics,
		"hasMod": func(acronym string) bool {
			return slices.ContainsFunc(mods, func(m string) bool { return strings.EqualFold(m, acronym) })
		},
	}

	if s.Beatmap != nil {
		if b, ok := s.Beatmap.Peek(); ok && b != nil {
			env["StarRating"] = b.DifficultyRating
			env["Version"] = b.Version
			env["Status"] = b.Status.String()
		}
	}
	return env
}

// EventEnv exposes a feed event to filter expressions.
func EventEnv(e *osu.Event) map[string]any {
	var user string
	env := map[string]any{
		"ID":        e.ID,
		"Type":      e.Type.String(),
		"CreatedAt": e.CreatedAt,
		"Known":     !e.Type.IsUnknown(),
	}

	switch p := e.Payload.(type) {
	case osu.AchievementEvent:
		user = p.User.Username
		env["Achievement"] = p.Achievement.Name
	case osu.BeatmapPlaycountEvent:
		env["Beatmap"] = p.Beatmap.Title
		env["Count"] = p.Count
	case osu.BeatmapsetApproveEvent:
		user = p.User.Username
		env["Beatmapset"] = p.Beatmapset.Title
		env["Approval"] = p.Approval.String()
	case osu.BeatmapsetChangeEvent:
		if p.User != nil {
			user = p.User.Username
		}
		env["Beatmapset"] = p.Beatmapset.Title
	case osu.RankEvent:
		user = p.User.Username
		env["Beatmap"] = p.Beatmap.Title
		env["Rank"] = p.Rank
		env["ScoreRank"] = p.ScoreRank
		env["Mode"] = p.Mode.String()
	case osu.RankLostEvent:
		user = p.User.Username
		env["Beatmap"] = p.Beatmap.Title
		env["Mode"] = p.Mode.String()
	case osu.UserSupportEvent:
		user = p.User.Username
	case osu.UsernameChangeEvent:
		user = p.User.Username
		if p.User.PreviousUsername != nil {
			env["PreviousUsername"] = *p.User.PreviousUsername
		}
	}

	env["username"] = func() string { return user }
	env["isType"] = func(t string) bool { return strings.EqualFold(t, e.Type.String()) }
	return env
}

// Select returns the items f matches, in order. Evaluation stops at the
// first item whose expression fails at run time.
func Select[T any](f *Filter, name string, items []T, env Env[T]) ([]T, error) {
	if name == "" {
		name = f.Expression()
	}
	matched := make([]T, 0, len(items))
	for i := range items {
		ok, err := f.Match(env(&items[i]))
		if err != nil {
			return matched, &EvaluationError{
				FilterName: name,
				Item:       fmt.Sprintf("item %d", i),
				Reason:     "expression failed",
				Err:        err,
			}
		}
		if ok {
			matched = append(matched, items[i])
		}
	}
	return matched, nil
}

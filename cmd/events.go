package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/s0up4200/osuapi/filter"
	"github.com/s0up4200/osuapi/osu"
	"github.com/s0up4200/osuapi/paginate"
)

var (
	oldestFirstFlag bool
	eventTypesFlag  []string
	eventUserFlag   int64
	eventSetFlag    int64
)

// eventsCmd prints the global activity feed
var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show the global activity feed",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sort := osu.EventsSortNewest
		if oldestFirstFlag {
			sort = osu.EventsSortOldest
		}

		events, err := takeItems(cmd, client.Events(sort, paginate.WithMaxPages(pagesFlag)), 0)
		if err != nil && len(events) == 0 {
			return err
		}
		if err != nil {
			logger.Warn().Err(err).Int("events", len(events)).Msg("Feed interrupted, showing what was fetched")
		}

		if filterFlag != "" {
			f, name, ferr := filters.Resolve(filterFlag)
			if ferr != nil {
				return fmt.Errorf("invalid filter expression: %w", ferr)
			}
			if events, err = filter.Select(f, name, events, filter.EventEnv); err != nil {
				return err
			}
		}

		for i := range events {
			fmt.Println(describeEvent(&events[i]))
		}
		return nil
	},
}

// beatmapsetEventsCmd prints beatmapset modding history
var beatmapsetEventsCmd = &cobra.Command{
	Use:   "beatmapset-events",
	Short: "Show beatmapset modding history (nominations, qualifications, kudosu)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := &osu.BeatmapsetEventsOptions{
			UserID:       eventUserFlag,
			BeatmapsetID: eventSetFlag,
		}
		for _, t := range eventTypesFlag {
			bt := osu.BeatmapsetEventType(t)
			if bt.IsUnknown() {
				logger.Warn().Str("type", t).Msg("Unknown beatmapset event type, sending as is")
			}
			opts.Types = append(opts.Types, bt)
		}

		pager, err := client.BeatmapsetEvents(opts, paginate.WithMaxPages(pagesFlag))
		if err != nil {
			return err
		}
		events, err := takeItems(cmd, pager, 0)
		if err != nil {
			return err
		}

		for _, e := range events {
			title := "-"
			if e.Beatmapset != nil {
				title = e.Beatmapset.Title
			}
			fmt.Printf("%s  %-24s %s%s\n", e.CreatedAt.Format("2006-01-02 15:04"), e.Type, title, describeComment(e.Comment))
		}
		return nil
	},
}

func init() {
	eventsCmd.Flags().BoolVar(&oldestFirstFlag, "oldest", false, "oldest events first")
	eventsCmd.Flags().IntVar(&pagesFlag, "pages", 1, "number of pages to fetch")
	eventsCmd.Flags().StringVarP(&filterFlag, "filter", "f", "", "filter name or expression")

	beatmapsetEventsCmd.Flags().StringSliceVar(&eventTypesFlag, "type", nil, "event types to include (repeatable)")
	beatmapsetEventsCmd.Flags().Int64Var(&eventUserFlag, "user", 0, "only events caused by this user id")
	beatmapsetEventsCmd.Flags().Int64Var(&eventSetFlag, "beatmapset", 0, "only events of this beatmapset id")
	beatmapsetEventsCmd.Flags().IntVar(&pagesFlag, "pages", 1, "number of pages to fetch")

	rootCmd.AddCommand(eventsCmd, beatmapsetEventsCmd)
}

func describeEvent(e *osu.Event) string {
	when := e.CreatedAt.Format("2006-01-02 15:04")
	switch p := e.Payload.(type) {
	case osu.RankEvent:
		return fmt.Sprintf("%s  %s achieved rank #%d on %s (%s)", when, p.User.Username, p.Rank, p.Beatmap.Title, p.Mode)
	case osu.RankLostEvent:
		return fmt.Sprintf("%s  %s lost first place on %s (%s)", when, p.User.Username, p.Beatmap.Title, p.Mode)
	case osu.AchievementEvent:
		return fmt.Sprintf("%s  %s unlocked %q", when, p.User.Username, p.Achievement.Name)
	case osu.BeatmapPlaycountEvent:
		return fmt.Sprintf("%s  %s has been played %d times", when, p.Beatmap.Title, p.Count)
	case osu.BeatmapsetApproveEvent:
		return fmt.Sprintf("%s  %s by %s is now %s", when, p.Beatmapset.Title, p.User.Username, p.Approval)
	case osu.BeatmapsetChangeEvent:
		who := "someone"
		if p.User != nil {
			who = p.User.Username
		}
		return fmt.Sprintf("%s  %s: %s (%s)", when, e.Type, p.Beatmapset.Title, who)
	case osu.UserSupportEvent:
		return fmt.Sprintf("%s  %s: %s", when, e.Type, p.User.Username)
	case osu.UsernameChangeEvent:
		prev := ""
		if p.User.PreviousUsername != nil {
			prev = *p.User.PreviousUsername
		}
		return fmt.Sprintf("%s  %s is now known as %s", when, prev, p.User.Username)
	case osu.UnknownEvent:
		keys := make([]string, 0, len(p.Fields))
		for k := range p.Fields {
			keys = append(keys, k)
		}
		return fmt.Sprintf("%s  unrecognized event %q (fields: %s)", when, e.Type, strings.Join(keys, ", "))
	default:
		return fmt.Sprintf("%s  %s", when, e.Type)
	}
}

func describeComment(c osu.BeatmapsetEventComment) string {
	switch v := c.(type) {
	case osu.NominateComment:
		return fmt.Sprintf(" (modes: %v)", v.Modes)
	case osu.KudosuComment:
		if v.NewVote != nil {
			return fmt.Sprintf(" (kudosu vote %+d by user %d)", v.NewVote.Score, v.NewVote.UserID)
		}
		return ""
	case osu.UnknownComment:
		return " (unrecognized comment)"
	default:
		return ""
	}
}

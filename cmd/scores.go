package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/s0up4200/osuapi/filter"
	"github.com/s0up4200/osuapi/osu"
	"github.com/s0up4200/osuapi/paginate"
)

var (
	scoreTypeFlag    string
	scoreLimitFlag   int
	includeFailsFlag bool
	filterFlag       string
	pagesFlag        int
)

// scoresCmd lists a user's scores
var scoresCmd = &cobra.Command{
	Use:   "scores <user-id>",
	Short: "List a user's best, first-place or recent scores",
	Long: `List a user's scores. --filter takes the name of a filter from the config
or an expression, e.g. --filter 'PP > 300 and hasMod("HD")'.`,
	Args: cobra.ExactArgs(1),
	RunE: runScores,
}

func init() {
	scoresCmd.Flags().StringVarP(&scoreTypeFlag, "type", "t", "best", "score list: best, firsts or recent")
	scoresCmd.Flags().StringVarP(&modeFlag, "mode", "m", "", "game mode (osu, taiko, fruits, mania)")
	scoresCmd.Flags().IntVarP(&scoreLimitFlag, "limit", "n", 50, "maximum number of scores to fetch")
	scoresCmd.Flags().BoolVar(&includeFailsFlag, "include-fails", false, "include failed recent scores")
	scoresCmd.Flags().StringVarP(&filterFlag, "filter", "f", "", "filter name or expression")

	rootCmd.AddCommand(scoresCmd)
}

func runScores(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	userID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid user id %q", args[0])
	}
	mode, err := parseMode(modeFlag)
	if err != nil {
		return err
	}
	kind := osu.ScoreType(strings.ToLower(scoreTypeFlag))
	switch kind {
	case osu.ScoreTypeBest, osu.ScoreTypeFirsts, osu.ScoreTypeRecent:
	default:
		return fmt.Errorf("invalid score type %q (must be best, firsts or recent)", scoreTypeFlag)
	}

	pager, err := client.UserScores(userID, kind, &osu.UserScoresOptions{
		Mode:         mode,
		IncludeFails: includeFailsFlag,
	})
	if err != nil {
		return err
	}

	scores, err := takeItems(cmd, pager, scoreLimitFlag)
	if err != nil {
		return err
	}

	if filterFlag != "" {
		f, name, err := filters.Resolve(filterFlag)
		if err != nil {
			return fmt.Errorf("invalid filter expression: %w", err)
		}
		logger.Info().Str("filter", name).Int("scores", len(scores)).Msg("Filtering scores")
		if scores, err = filter.Select(f, name, scores, filter.ScoreEnv); err != nil {
			return err
		}
	}

	if len(scores) == 0 {
		fmt.Println("No scores found.")
		return nil
	}

	// Beatmaps usually arrive embedded; only the missing ones cost a request.
	titles := make([]string, len(scores))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i := range scores {
		g.Go(func() error {
			b, err := scores[i].Beatmap.Get(gctx)
			if err != nil {
				return err
			}
			titles[i] = fmt.Sprintf("%s [%s]", beatmapTitle(b), b.Version)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("failed to resolve beatmaps: %w", err)
	}

	fmt.Printf("\nFound %d scores:\n", len(scores))
	fmt.Println(strings.Repeat("-", 80))
	for i := range scores {
		fmt.Printf("• %s\n", titles[i])
		printScoreLine(&scores[i])
	}
	return nil
}

// takeItems reads items from p until limit are collected or the pages run out.
func takeItems[T any](cmd *cobra.Command, p *paginate.Paginator[T], limit int) ([]T, error) {
	var items []T
	for item, err := range p.Items(cmd.Context()) {
		if err != nil {
			return items, err
		}
		items = append(items, item)
		if limit > 0 && len(items) >= limit {
			break
		}
	}
	return items, nil
}

func beatmapTitle(b *osu.Beatmap) string {
	if set, ok := b.Beatmapset.Peek(); ok && set != nil {
		return set.Artist + " - " + set.Title
	}
	return "beatmap " + strconv.FormatInt(b.ID, 10)
}

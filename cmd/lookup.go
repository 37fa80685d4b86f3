package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/s0up4200/osuapi/osu"
)

var (
	modeFlag      string
	lookupKeyFlag string
	checksumFlag  string
)

var meCmd = &cobra.Command{
	Use:   "me",
	Short: "Show the user the credential belongs to (needs identify)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := parseMode(modeFlag)
		if err != nil {
			return err
		}
		u, err := client.Me(cmd.Context(), mode)
		if err != nil {
			return err
		}
		printUser(u)
		return nil
	},
}

var userCmd = &cobra.Command{
	Use:   "user <id|username>",
	Short: "Look up a user by id or username",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := parseMode(modeFlag)
		if err != nil {
			return err
		}
		key := osu.UserLookupKey(lookupKeyFlag)
		u, err := client.User(cmd.Context(), args[0], mode, key)
		if err != nil {
			return err
		}
		printUser(u)
		return nil
	},
}

var beatmapCmd = &cobra.Command{
	Use:   "beatmap [id]",
	Short: "Show a beatmap by id or by --checksum",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var (
			b   *osu.Beatmap
			err error
		)
		switch {
		case checksumFlag != "":
			b, err = client.BeatmapByChecksum(ctx, checksumFlag)
		case len(args) == 1:
			id, perr := strconv.ParseInt(args[0], 10, 64)
			if perr != nil {
				return fmt.Errorf("invalid beatmap id %q", args[0])
			}
			b, err = client.Beatmap(ctx, id)
		default:
			return fmt.Errorf("a beatmap id or --checksum is required")
		}
		if err != nil {
			return err
		}

		set, err := b.Beatmapset.Get(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("%s - %s [%s]\n", set.Artist, set.Title, b.Version)
		fmt.Printf("  Mode: %s  Stars: %.2f  Status: %s\n", b.Mode, b.DifficultyRating, b.Status)
		fmt.Printf("  CS %.1f  AR %.1f  OD %.1f  HP %.1f  Length %s\n", b.CS, b.AR, b.Accuracy, b.Drain, formatLength(b.TotalLength))
		fmt.Printf("  Mapped by %s\n", set.Creator)
		return nil
	},
}

var scoreCmd = &cobra.Command{
	Use:   "score <id>",
	Short: "Show a score with its beatmap and player",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid score id %q", args[0])
		}

		s, err := client.Score(ctx, id)
		if err != nil {
			return err
		}
		b, err := s.Beatmap.Get(ctx)
		if err != nil {
			return err
		}
		u, err := s.User.Get(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("Score %d by %s\n", s.ID, u.Username)
		fmt.Printf("  Beatmap: %s (%d)\n", b.Version, b.ID)
		printScoreLine(s)
		return nil
	},
}

var topicCmd = &cobra.Command{
	Use:   "topic <id>",
	Short: "Show a forum topic and its first posts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid topic id %q", args[0])
		}
		page, err := client.ForumTopic(cmd.Context(), id)
		if err != nil {
			return err
		}
		fmt.Printf("%s (%d posts)\n", page.Topic.Title, page.Topic.PostCount)
		fmt.Println(strings.Repeat("-", 80))
		for _, p := range page.Posts {
			fmt.Printf("#%d by user %d on %s\n", p.ID, p.UserID, p.CreatedAt.Format("2006-01-02"))
		}
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{meCmd, userCmd} {
		c.Flags().StringVarP(&modeFlag, "mode", "m", "", "game mode (osu, taiko, fruits, mania)")
	}
	userCmd.Flags().StringVar(&lookupKeyFlag, "key", "", "treat the argument as 'id' or 'username' (default: either)")
	beatmapCmd.Flags().StringVar(&checksumFlag, "checksum", "", "look the beatmap up by its md5 checksum")

	rootCmd.AddCommand(meCmd, userCmd, beatmapCmd, scoreCmd, topicCmd)
}

func parseMode(s string) (osu.GameMode, error) {
	if s == "" {
		return "", nil
	}
	mode := osu.GameMode(strings.ToLower(s))
	if mode.IsUnknown() {
		return "", fmt.Errorf("unknown game mode %q", s)
	}
	return mode, nil
}

func printUser(u *osu.User) {
	fmt.Printf("%s (id %d, %s)\n", u.Username, u.ID, u.CountryCode)
	if u.Statistics != nil {
		st := u.Statistics
		rank := "-"
		if st.GlobalRank != nil {
			rank = "#" + strconv.Itoa(*st.GlobalRank)
		}
		fmt.Printf("  Rank: %s  PP: %.0f  Accuracy: %.2f%%  Plays: %d\n", rank, st.PP, st.HitAccuracy, st.PlayCount)
	}
	if len(u.PreviousNames) > 0 {
		fmt.Printf("  Previously: %s\n", strings.Join(u.PreviousNames, ", "))
	}
}

func printScoreLine(s *osu.Score) {
	pp := "-"
	if s.PP != nil {
		pp = fmt.Sprintf("%.0fpp", *s.PP)
	}
	mods := make([]string, 0, len(s.Mods))
	for _, m := range s.Mods {
		mods = append(mods, m.Acronym)
	}
	modStr := ""
	if len(mods) > 0 {
		modStr = " +" + strings.Join(mods, "")
	}
	fmt.Printf("  %s %s %.2f%% %dx%s\n", s.Rank, pp, s.Accuracy*100, s.MaxCombo, modStr)
}

func formatLength(seconds int) string {
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

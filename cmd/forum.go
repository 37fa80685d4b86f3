package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var (
	topicTitleFlag string
	topicBodyFlag  string
)

var newTopicCmd = &cobra.Command{
	Use:   "new-topic <forum-id>",
	Short: "Open a forum topic (needs forum.write and a user login)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		forumID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid forum id %q", args[0])
		}
		if topicTitleFlag == "" || topicBodyFlag == "" {
			return fmt.Errorf("--title and --body are required")
		}

		created, err := client.ForumCreateTopic(cmd.Context(), forumID, topicTitleFlag, topicBodyFlag)
		if err != nil {
			return err
		}
		fmt.Printf("✓ Created topic %d (first post %d)\n", created.Topic.ID, created.Post.ID)
		return nil
	},
}

var friendsCmd = &cobra.Command{
	Use:   "friends",
	Short: "List your friends (needs friends.read)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		friends, err := client.Friends(cmd.Context())
		if err != nil {
			return err
		}
		for i := range friends {
			printUser(&friends[i])
		}
		return nil
	},
}

func init() {
	newTopicCmd.Flags().StringVar(&topicTitleFlag, "title", "", "topic title")
	newTopicCmd.Flags().StringVar(&topicBodyFlag, "body", "", "first post (BBCode)")

	rootCmd.AddCommand(newTopicCmd, friendsCmd)
}

package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/s0up4200/osuapi/auth"
	"github.com/s0up4200/osuapi/osu"
	"github.com/s0up4200/osuapi/paginate"
)

// testCmd checks credentials and connectivity
var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Test authentication and the connection to the osu! API",
	Args:  cobra.NoArgs,
	RunE:  runTest,
}

func init() {
	rootCmd.AddCommand(testCmd)
}

func runTest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	fmt.Printf("Testing connection to %s...\n", cfg.OSU.BaseURL)

	cred, err := authenticator.EnsureValid(ctx)
	if err != nil {
		if authenticator.Grant() == auth.GrantAuthorizationCode {
			return fmt.Errorf("not authenticated, run 'osuapi login' first: %w", err)
		}
		return fmt.Errorf("failed to obtain a token: %w", err)
	}
	fmt.Println("✓ Authentication successful!")
	fmt.Printf("- Grant: %s\n", cred.Grant)
	fmt.Printf("- Scopes: %s\n", joinScopes(cred.Scopes))
	fmt.Printf("- Expires in: %s\n", time.Until(cred.ExpiresAt).Round(time.Minute))
	fmt.Printf("- State: %s\n", authenticator.State())

	page, err := client.Events(osu.EventsSortNewest, paginate.WithMaxPages(1)).Iter().Next(ctx)
	if err != nil {
		return fmt.Errorf("failed to read the event feed: %w", err)
	}
	fmt.Println("✓ API reachable!")
	fmt.Printf("- Latest events fetched: %d\n", len(page.Items))

	if cred.Has(auth.ScopeIdentify) {
		me, err := client.Me(ctx, "")
		if err != nil {
			return err
		}
		fmt.Printf("- Logged in as: %s\n", me.Username)
	}

	return nil
}

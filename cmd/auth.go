package cmd

import (
	"bufio"
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/s0up4200/osuapi/auth"
)

// loginCmd runs the authorization code flow
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authorize this CLI as your osu! user",
	Long: `Print the osu! authorization URL, then read back the code (or the whole
redirect URL) the browser ends up on. Requires osu.grant: authorization_code.`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

// logoutCmd drops the stored credential
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored credential",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := authenticator.Logout(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("✓ Logged out")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	if authenticator.Grant() != auth.GrantAuthorizationCode {
		return fmt.Errorf("login needs osu.grant set to authorization_code (configured: %s)", authenticator.Grant())
	}

	cred, err := authenticator.AuthorizeInteractive(cmd.Context(), promptForCode)
	if err != nil {
		return err
	}

	fmt.Printf("✓ Logged in, token valid until %s\n", cred.ExpiresAt.Local().Format("2006-01-02 15:04"))
	fmt.Printf("  Scopes: %s\n", joinScopes(cred.Scopes))
	return nil
}

func promptForCode(ctx context.Context, authURL string) (string, error) {
	fmt.Println("Open this URL in your browser and authorize the application:")
	fmt.Println()
	fmt.Println("  " + authURL)
	fmt.Println()
	fmt.Print("Paste the code or the URL you were redirected to: ")

	lines := make(chan string, 1)
	errs := make(chan error, 1)
	go func() {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			errs <- err
			return
		}
		lines <- line
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case err := <-errs:
		return "", err
	case line := <-lines:
		return extractCode(line), nil
	}
}

// extractCode accepts either a bare code or the full redirect URL.
func extractCode(input string) string {
	input = strings.TrimSpace(input)
	if u, err := url.Parse(input); err == nil && u.Scheme != "" {
		if code := u.Query().Get("code"); code != "" {
			return code
		}
	}
	return input
}

func joinScopes(scopes []auth.Scope) string {
	parts := make([]string, 0, len(scopes))
	for _, s := range scopes {
		parts = append(parts, string(s))
	}
	return strings.Join(parts, " ")
}

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/s0up4200/osuapi/auth"
	"github.com/s0up4200/osuapi/config"
	"github.com/s0up4200/osuapi/filter"
	"github.com/s0up4200/osuapi/osu"
	"github.com/s0up4200/osuapi/tokenstore"
	"github.com/s0up4200/osuapi/transport"
)

var (
	cfgFile       string
	cfg           *config.Config
	logger        zerolog.Logger
	store         tokenstore.Store
	authenticator *auth.Authenticator
	client        *osu.Client
	filters       *filter.Manager

	version   = "dev"
	buildTime = "unknown"
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "osuapi",
	Short: "Query the osu! web API v2",
	Long: `osuapi is a CLI around the osuapi Go client. It authenticates against
osu! with the configured OAuth application, keeps the token in the configured
store and prints users, scores and events.`,
	SilenceUsage:      true,
	PersistentPreRunE: initializeApp,
}

// SetVersion records build metadata shown by --version.
func SetVersion(v, built string) {
	version = v
	buildTime = built
	rootCmd.Version = fmt.Sprintf("%s (built %s)", version, buildTime)
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	closeStore()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
}

// initializeApp loads configuration and wires store, authenticator, transport and client
func initializeApp(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger = setupLogger(cfg.Logging)

	grant, err := auth.ParseGrantKind(cfg.OSU.Grant)
	if err != nil {
		return err
	}

	store, err = tokenstore.Open(cmd.Context(), tokenstore.Options{
		Driver: cfg.TokenStore.Driver,
		Path:   cfg.TokenStore.Path,
		DSN:    cfg.TokenStore.DSN,
		Key:    cfg.StoreKey(),
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to open token store: %w", err)
	}

	scopes := make([]auth.Scope, 0, len(cfg.OSU.Scopes))
	for _, s := range cfg.OSU.Scopes {
		scopes = append(scopes, auth.ParseScopes(s)...)
	}

	authenticator, err = auth.New(auth.Config{
		ClientID:     cfg.OSU.ClientID,
		ClientSecret: cfg.OSU.ClientSecret,
		TokenURL:     cfg.OSU.TokenURL,
		AuthURL:      cfg.OSU.AuthorizeURL,
		RedirectURL:  cfg.OSU.RedirectURI,
		Scopes:       scopes,
		Grant:        grant,
	}, store, logger)
	if err != nil {
		return fmt.Errorf("failed to create authenticator: %w", err)
	}

	tr, err := transport.New(cfg.OSU.BaseURL, authenticator, logger,
		transport.WithTimeout(cfg.HTTP.Timeout),
		transport.WithRetryBudget(cfg.HTTP.MaxRateLimitAttempts, cfg.HTTP.MaxServerAttempts),
		transport.WithAPIVersion(cfg.OSU.APIVersion),
		transport.WithUserAgent(cfg.HTTP.UserAgent),
	)
	if err != nil {
		return fmt.Errorf("failed to create transport: %w", err)
	}

	client, err = osu.NewClient(tr, logger)
	if err != nil {
		return fmt.Errorf("failed to create osu client: %w", err)
	}

	filters = filter.NewManager()
	if err := filters.RegisterFilters(cfg.Filters); err != nil {
		return fmt.Errorf("invalid filter in config: %w", err)
	}

	logger.Debug().
		Stringer("grant", grant).
		Str("store", cfg.TokenStore.Driver).
		Msg("Client ready")
	return nil
}

func closeStore() {
	if store == nil {
		return
	}
	if err := store.Close(); err != nil {
		logger.Warn().Err(err).Msg("Failed to close token store")
	}
	store = nil
}

// setupLogger configures the zerolog logger
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "json" {
		return zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	// Console format; colour only when stderr is a terminal
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    !cfg.Color || !isatty.IsTerminal(os.Stderr.Fd()),
	}

	return zerolog.New(output).With().Timestamp().Logger()
}

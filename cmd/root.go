package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/s0up4200/immichshow/config"
	"github.com/s0up4200/immichshow/immich"
)

var (
	cfgFile   string
	credsFile string
	logLevel  string

	cfg    *config.Config
	logger zerolog.Logger
	store  *config.Store
	client *immich.Client

	version   = "dev"
	buildTime = "unknown"
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "immichshow",
	Short: "Unattended slideshows from an Immich photo library",
	Long: `immichshow connects to an Immich server and plays an album as an
unattended full-screen slideshow: images on a timer with look-ahead
prefetching, videos handed to an external player, transparent
re-authentication, and resume support across sessions.`,
	PersistentPreRunE: initializeApp,
}

// SetVersion records the build metadata injected from main.
func SetVersion(v, t string) {
	version = v
	buildTime = t
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&credsFile, "credentials", "", "credentials file (default is ~/.immichshow/credentials.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override logging level")

	rootCmd.AddCommand(albumsCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(testCmd)
	rootCmd.AddCommand(selfupdateCmd)
	rootCmd.AddCommand(versionCmd)
}

// initializeApp initializes the configuration, logger, credential store,
// and API client shared by all commands.
func initializeApp(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	logger = setupLogger(cfg.Logging)

	path := credsFile
	if path == "" {
		path, err = config.DefaultStorePath()
		if err != nil {
			return err
		}
	}
	store, err = config.NewStore(path)
	if err != nil {
		return fmt.Errorf("failed to open credential store: %w", err)
	}
	store.Seed(cfg.Server)

	client = immich.NewClient(store, logger)
	return nil
}

// setupLogger configures the zerolog logger
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level := zerolog.InfoLevel
	switch strings.ToLower(cfg.Level) {
	case "trace":
		level = zerolog.TraceLevel
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	if cfg.Format == "json" {
		return zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	color := cfg.Color && isatty.IsTerminal(os.Stderr.Fd())
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    !color,
	}

	return zerolog.New(output).With().Timestamp().Logger()
}

// versionCmd prints the build version
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("immichshow %s (built %s)\n", version, buildTime)
	},
}

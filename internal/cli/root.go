// internal/cli/root.go
package ragchat

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mwiater/ragchat/internal/appconfig"
	"github.com/mwiater/ragchat/internal/logging"
	"github.com/mwiater/ragchat/internal/tui"
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// app carries the state shared by every subcommand of one root command.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     appconfig.Config
}

// SetVersionInfo records build metadata shown by --version.
func SetVersionInfo(version, commit, date string) {
	appVersion, appCommit, appDate = version, commit, date
}

// NewRootCmd builds the command tree with its own viper instance.
func NewRootCmd() *cobra.Command {
	a := &app{v: viper.New()}
	defaults := appconfig.Default()

	rootCmd := &cobra.Command{
		Use:           "ragchat",
		Short:         "ragchat: ask questions about your documents, with optional web search and voice input",
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", appVersion, appCommit, appDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.loadConfig(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logging.Close()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&a.cfgFile, "config", "c", appconfig.DefaultConfigPath, "config file (e.g., config/config.json)")
	flags.Bool("debug", defaults.Debug, "enable debug output")
	flags.String("indexPath", defaults.IndexPath, "vector store snapshot path")
	flags.String("logFile", defaults.LogFile, "log file path")

	// flags override config values
	for _, name := range []string{"debug", "indexPath", "logFile"} {
		_ = a.v.BindPFlag(name, flags.Lookup(name))
	}

	rootCmd.AddCommand(
		newIndexCmd(a),
		newRetrieveCmd(a),
		newAskCmd(a),
		newTranscribeCmd(a),
		newEvalCmd(a),
		newServeCmd(a),
		newShowCmd(a),
	)
	return rootCmd
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		tui.Error(rootCmd.ErrOrStderr(), "Error: %v", err)
		os.Exit(1)
	}
}

// loadConfig merges defaults, the config file and flags, in increasing
// precedence, then starts logging.
func (a *app) loadConfig(cmd *cobra.Command) error {
	if err := a.readConfigFile(cmd); err != nil {
		return err
	}

	cfg := appconfig.Default()
	if err := a.v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.ConfigPath = a.v.ConfigFileUsed()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	a.cfg = cfg

	if err := logging.Init(cfg.LogFilePath()); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logging.LogEvent("[CLI] %s config=%q", cmd.CommandPath(), cfg.ConfigPath)
	return nil
}

// readConfigFile reads the config file. The default path may be absent; an
// explicitly requested file must exist.
func (a *app) readConfigFile(cmd *cobra.Command) error {
	if a.cfgFile == "" {
		return nil
	}
	a.v.SetConfigFile(a.cfgFile)
	a.v.SetConfigType("json")
	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		missing := errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)
		if missing && !cmd.Flags().Changed("config") {
			return nil
		}
		return fmt.Errorf("failed to load config %q: %w", a.cfgFile, err)
	}
	return nil
}

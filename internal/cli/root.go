package cli

import (
	"fmt"
	"os"

	"github.com/agentx-labs/skilldocs/internal/branding"
	"github.com/agentx-labs/skilldocs/internal/config"
	"github.com/agentx-labs/skilldocs/internal/logger"
	"github.com/spf13/cobra"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string
)

var (
	rootProjectDir string
	rootLogLevel   string
	rootLogFormat  string
)

var rootCmd = &cobra.Command{
	Use:   branding.CLIName(),
	Short: branding.Description(),
	Long: branding.DisplayName() + ` installs llms.txt documentation from a curated registry as skills
for AI coding agents. Each skill is stored once in the project and linked into
every agent directory found there (.claude, .cursor, .windsurf, ...).`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config.Load()
		settings := config.Resolve()

		level := settings.LogLevel
		if cmd.Flags().Changed("log-level") {
			level = rootLogLevel
		}
		if err := logger.SetLogLevel(level); err != nil {
			return fmt.Errorf("invalid log level %q: %w", level, err)
		}
		format := settings.LogFormat
		if cmd.Flags().Changed("log-format") {
			format = rootLogFormat
		}
		logger.SetLogFormat(format)
		cmd.SetContext(logger.WithLogger(cmd.Context(), logger.L.WithField("command", cmd.Name())))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&rootProjectDir, "project", "C", "", "Project directory (default: current directory)")
	rootCmd.PersistentFlags().StringVar(&rootLogLevel, "log-level", config.DefaultLogLevel, "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&rootLogFormat, "log-format", config.DefaultLogFormat, "Log format (text, json)")
}

// Execute runs the root command with build info injected via ldflags. A panic
// inside a command is reported as an error instead of a stack trace.
func Execute(version, commit, date string) (err error) {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unexpected failure: %v", r)
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
	}()

	if err = rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return err
}

// projectDir returns the --project directory or the working directory.
func projectDir() (string, error) {
	if rootProjectDir != "" {
		return rootProjectDir, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("resolving working directory: %w", err)
	}
	return wd, nil
}

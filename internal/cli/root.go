// Package cli provides the command-line interface for agentchat.
package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentchat/agentchat-go/internal/api"
	"github.com/agentchat/agentchat-go/internal/config"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose bool

	// Global config and portal client
	cfg        config.Config
	logger     *slog.Logger
	logCleanup func() error
	apiClient  *api.Client
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "agentchat",
	Short: "Terminal client for the agent chat portal",
	Long: `Agentchat is a terminal client for the agent chat portal.

Stream assistant replies over SSE or WebSocket with a live view of
thinking steps and tool activity, manage conversations on the server,
and keep a local searchable archive of finished chats.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip setup for version and help commands
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		cfg = config.Load()

		level := cfg.LogLevel
		if verbose {
			level = slog.LevelDebug
		}

		// Interactive commands own the terminal; keep logs in the file.
		if verbose {
			logger, logCleanup = config.SetupLogger(cfg.LogFile, level)
		} else {
			logger, logCleanup = config.SetupFileLogger(cfg.LogFile, level)
		}

		apiClient = api.New(cfg.PortalURL, api.StaticToken(cfg.Token))

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCleanup != nil {
			if err := logCleanup(); err != nil {
				os.Stderr.WriteString("Warning: failed to close log file: " + err.Error() + "\n")
			}
		}
	},
}

// streamOpener picks the transport for assistant streams.
func streamOpener(transport config.Transport) api.StreamOpener {
	if transport == config.TransportWebSocket {
		return api.NewWSOpener(cfg.PortalURL, api.StaticToken(cfg.Token))
	}
	return apiClient
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Add subcommands
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(conversationsCmd)
	rootCmd.AddCommand(historyCmd)
}

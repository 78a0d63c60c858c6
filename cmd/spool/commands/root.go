// Package commands implements the spool CLI: small reader and posting
// utilities over the nntp client library.
package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/marmos91/spool/internal/logger"
	"github.com/marmos91/spool/pkg/config"
	"github.com/marmos91/spool/pkg/nntp"
)

// Version information injected at build time.
var (
	Version = "dev"
	Commit  = "none"
)

var rootCmd = &cobra.Command{
	Use:   "spool",
	Short: "spool - NNTP client utilities",
	Long: `spool talks to Usenet servers: list groups, fetch and decode
binaries, post articles, and probe peers.

Connection settings come from --config, the NNTP_* environment
variables (NNTP_HOST, NNTP_PORT, NNTP_USER, NNTP_PASS), or both.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := "INFO"
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			level = "DEBUG"
		}
		logger.Init(logger.Config{Level: level, Format: "text", Output: "stderr"})
	},
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(groupsCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(postCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(versionCmd)
}

// signalContext returns a context cancelled by SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// loadConfig reads the config file named by --config plus environment
// overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}

// connect dials and authenticates a single connection from the loaded
// server config.
func connect(ctx context.Context, cfg *config.Config) (*nntp.Conn, error) {
	conn, err := nntp.Dial(ctx, nntp.Config{
		Host:             cfg.Server.Host,
		Port:             cfg.Server.EffectivePort(),
		TLS:              cfg.Server.TLS,
		AllowInsecureTLS: cfg.Server.AllowInsecureTLS,
	})
	if err != nil {
		return nil, err
	}
	if cfg.Server.Username != "" {
		if err := conn.Authenticate(ctx, cfg.Server.Username, cfg.Server.Password); err != nil {
			conn.Close()
			return nil, err
		}
	}
	return conn, nil
}

package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/marmos91/spool/internal/logger"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <message-id>...",
	Short: "Fetch article bodies by message-id",
	Long: `Fetch pipelines ARTICLE commands for the given message-ids and
writes each body to a file named after the message-id. Compression is
negotiated when the server offers it.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		conn, err := connect(ctx, cfg)
		if err != nil {
			return err
		}
		defer conn.Quit(ctx)

		if mode, cerr := conn.TryEnableCompression(ctx); cerr == nil {
			logger.Debug("compression", "mode", mode.String())
		}

		window, _ := cmd.Flags().GetInt("window")
		results, err := conn.FetchArticles(ctx, args, window)
		if err != nil {
			return err
		}

		failures := 0
		for _, r := range results {
			if r.Err != nil {
				logger.Warn("fetch failed", "message_id", r.MessageID, "error", r.Err)
				failures++
				continue
			}
			name := sanitizeFilename(r.MessageID) + ".article"
			if werr := os.WriteFile(name, r.Body, 0644); werr != nil {
				return werr
			}
			fmt.Printf("%s  %d bytes\n", name, len(r.Body))
		}
		if failures > 0 {
			return fmt.Errorf("%d of %d articles failed", failures, len(results))
		}
		return nil
	},
}

func init() {
	fetchCmd.Flags().Int("window", 8, "Pipelining window (in-flight commands)")
}

// sanitizeFilename strips the message-id characters that are unsafe in
// file names.
func sanitizeFilename(id string) string {
	out := make([]rune, 0, len(id))
	for _, r := range id {
		switch r {
		case '<', '>', '/', '\\', ':':
		default:
			out = append(out, r)
		}
	}
	return string(out)
}

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/spool/pkg/nntp"
)

var checkCmd = &cobra.Command{
	Use:   "check <message-id>...",
	Short: "Ask a streaming peer which articles it wants",
	Long: `Check switches the connection to streaming mode and pipelines
CHECK commands for the given message-ids, printing the peer's verdict
for each.`,
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

		if err := conn.ModeStream(ctx); err != nil {
			return err
		}

		window, _ := cmd.Flags().GetInt("window")
		results, err := conn.CheckMany(ctx, args, window)
		if err != nil {
			return err
		}
		for _, r := range results {
			if r.Err != nil {
				fmt.Printf("%-60s error: %v\n", r.MessageID, r.Err)
				continue
			}
			var verdict string
			switch r.Status {
			case nntp.CheckSend:
				verdict = "send"
			case nntp.CheckLater:
				verdict = "retry later"
			case nntp.CheckNotWanted:
				verdict = "not wanted"
			}
			fmt.Printf("%-60s %s\n", r.MessageID, verdict)
		}
		return nil
	},
}

func init() {
	checkCmd.Flags().Int("window", 8, "Pipelining window (in-flight commands)")
}

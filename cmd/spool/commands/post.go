package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/marmos91/spool/pkg/article"
)

var postCmd = &cobra.Command{
	Use:   "post",
	Short: "Post an article read from stdin",
	Long: `Post builds an article from the flags and the body on stdin and
submits it with POST. The target group defaults to NNTP_GROUP
(alt.test).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		from, _ := cmd.Flags().GetString("from")
		subject, _ := cmd.Flags().GetString("subject")
		group, _ := cmd.Flags().GetString("group")
		if group == "" {
			group = cfg.DefaultGroup
		}

		body, err := io.ReadAll(os.Stdin)
		if err != nil {
			return err
		}

		a, err := article.NewBuilder().
			From(from).
			Subject(subject).
			Newsgroup(group).
			UserAgent("spool/" + Version).
			Body(body).
			Build()
		if err != nil {
			return err
		}

		conn, err := connect(ctx, cfg)
		if err != nil {
			return err
		}
		defer conn.Quit(ctx)

		if !conn.PostingAllowed() {
			return fmt.Errorf("server %s does not allow posting", cfg.Server.Host)
		}
		if err := conn.Post(ctx, a.Serialize()); err != nil {
			return err
		}
		fmt.Printf("posted %s to %s\n", a.MessageID, group)
		return nil
	},
}

func init() {
	postCmd.Flags().String("from", "", "From header (required)")
	postCmd.Flags().String("subject", "", "Subject header (required)")
	postCmd.Flags().String("group", "", "Target newsgroup (default: NNTP_GROUP or alt.test)")
	_ = postCmd.MarkFlagRequired("from")
	_ = postCmd.MarkFlagRequired("subject")
}

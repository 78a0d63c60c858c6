package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/marmos91/spool/internal/logger"
	"github.com/marmos91/spool/pkg/yenc"
)

var decodeCmd = &cobra.Command{
	Use:   "decode <message-id>...",
	Short: "Fetch and yEnc-decode a binary post",
	Long: `Decode fetches the given message-ids (the parts of one binary
post), yEnc-decodes each body, assembles the parts, and writes the
reconstructed file under its posted name.`,
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

		if group, _ := cmd.Flags().GetString("group"); group != "" {
			if _, gerr := conn.Group(ctx, group); gerr != nil {
				return gerr
			}
		}

		window, _ := cmd.Flags().GetInt("window")
		results, err := conn.FetchArticles(ctx, args, window)
		if err != nil {
			return err
		}

		asm := yenc.NewAssembler()
		for _, r := range results {
			if r.Err != nil {
				return fmt.Errorf("fetch %s: %w", r.MessageID, r.Err)
			}
			part, derr := yenc.DecodeBytes(r.Body)
			if derr != nil {
				return fmt.Errorf("decode %s: %w", r.MessageID, derr)
			}
			if !part.VerifyPart() {
				logger.Warn("part checksum mismatch",
					"message_id", r.MessageID,
					"declared", fmt.Sprintf("%08x", part.Trailer.PartCRC32),
					"computed", fmt.Sprintf("%08x", part.CRC32))
			}
			if aerr := asm.Add(part); aerr != nil {
				return aerr
			}
		}

		data, err := asm.Bytes()
		if err != nil {
			return err
		}
		name := asm.Name()
		if name == "" {
			name = "decoded.bin"
		}
		if err := os.WriteFile(name, data, 0644); err != nil {
			return err
		}
		fmt.Printf("%s  %d bytes\n", name, len(data))
		return nil
	},
}

func init() {
	decodeCmd.Flags().String("group", "", "Newsgroup to select before fetching (NNTP_BINARY_GROUP applies when fetching by number)")
	decodeCmd.Flags().Int("window", 8, "Pipelining window (in-flight commands)")
}

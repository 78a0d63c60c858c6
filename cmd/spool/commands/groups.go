package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var groupsCmd = &cobra.Command{
	Use:   "groups [wildmat]",
	Short: "List newsgroups matching a pattern",
	Args:  cobra.MaximumNArgs(1),
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

		wildmat := ""
		if len(args) == 1 {
			wildmat = args[0]
		}
		groups, err := conn.ListActive(ctx, wildmat)
		if err != nil {
			return err
		}
		for _, g := range groups {
			status := g.Status
			if g.IsAlias() {
				status = "-> " + g.AliasTarget()
			}
			fmt.Printf("%-50s %10d %10d  %s\n", g.Name, g.Low, g.High, status)
		}
		return nil
	},
}

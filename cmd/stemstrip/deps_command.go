package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"stemstrip/internal/deps"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check availability of the external tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			statuses := deps.CheckBinaries(deps.Requirements(cfg))
			if cfg.Tools.CodebooksPath != "" {
				statuses = append(statuses, deps.CheckFile("ww2ogg codebooks", cfg.Tools.CodebooksPath, "Packed codebooks for ww2ogg", false))
			}

			out := cmd.OutOrStdout()
			rows := make([][]string, 0, len(statuses))
			for _, status := range statuses {
				state := "ok"
				detail := status.Command
				if !status.Available {
					state = "missing"
					if status.Optional {
						state = "missing (optional)"
					}
					detail = status.Detail
				}
				rows = append(rows, []string{status.Name, state, detail, status.Description})
			}
			if useTables(out) {
				fmt.Fprintln(out, renderTable([]string{"Tool", "Status", "Detail", "Purpose"}, rows))
			} else {
				for _, row := range rows {
					fmt.Fprintf(out, "%s: %s (%s)\n", row[0], row[1], row[2])
				}
			}

			if missing := deps.Missing(statuses); len(missing) > 0 {
				noun := "tool"
				if len(missing) != 1 {
					noun = "tools"
				}
				return fmt.Errorf("%d required %s missing", len(missing), noun)
			}
			return nil
		},
	}
}

package main

import (
	"errors"

	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	flags := &runFlags{}

	ctx := newCommandContext(&configFlag)

	rootCmd := &cobra.Command{
		Use:   "stemstrip INPUT_PATH OUTPUT_DIR",
		Short: "Replace song archive audio with instrument-stripped backing tracks",
		Long: `stemstrip batch-processes PSARC song archives: each archive is unpacked,
its audio payloads are run through source separation, the selected stems are
dropped, and the remix is packed into a new archive in the output directory.

INPUT_PATH is a single .psarc file or a directory of them; OUTPUT_DIR
receives one archive per input, named after the source. Outputs that are
already newer than their input are skipped unless --force is given.`,
		Args:          cobra.MaximumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			if len(args) != 2 {
				return errors.New("both INPUT_PATH and OUTPUT_DIR are required")
			}
			flags.noteChanged(cmd)
			return runBatch(cmd.Context(), ctx, cmd.OutOrStdout(), args[0], args[1], flags)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	flags.register(rootCmd)

	rootCmd.AddCommand(newConfigCommand(ctx))
	rootCmd.AddCommand(newDepsCommand(ctx))
	rootCmd.AddCommand(newTestNotifyCommand(ctx))

	return rootCmd
}

package main

import (
	"fmt"

	"github.com/joeydtaylor/webhook-handler/pkg/core"
	"github.com/joeydtaylor/webhook-handler/pkg/handlers"
	"github.com/joeydtaylor/webhook-handler/pkg/serverfx"
	"github.com/spf13/cobra"
)

// newCheckCmd loads the handler config the way the server would and prints the
// resolved dispatch order.
func newCheckCmd(opts *serverfx.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Load the handler config and print what each request would run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg := core.NewRegistry()
			handlers.Register(reg, nil)

			cfg, err := core.LoadConfig(opts.ConfigPath, reg, opts.Debug)
			if err != nil {
				return fmt.Errorf("load %s: %w", opts.ConfigPath, err)
			}

			out := cmd.OutOrStdout()
			if cfg.Empty() {
				fmt.Fprintln(out, "no handlers configured")
				return nil
			}
			for _, e := range cfg.Entries {
				fmt.Fprintf(out, "%s: %d invocation(s)\n", e.Name, len(e.Options))
			}
			return nil
		},
	}
}

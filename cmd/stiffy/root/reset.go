package root

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/i474232898/stiffy-wanderers/internal/ui"
)

func newResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Clear today's water and wind presses",
		Long:  "Clear the water and wind credits so both actions can be pressed again. Progress and the rain credit are kept.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, _, cleanup, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := a.Engine.Reset(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.Good.Render("Action presses cleared."))
			return nil
		},
	}

	return cmd
}

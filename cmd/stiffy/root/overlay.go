package root

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/i474232898/stiffy-wanderers/internal/ui"
)

// Overlay triggers live in the serving process; a one-off CLI run only
// sees what can be derived from stored progress.
func newOverlayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "overlay",
		Short: "Show the overlay the app would display now",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, _, cleanup, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			p := a.Overlays.Current(a.Engine.Value())
			fmt.Fprintln(cmd.OutOrStdout(), ui.LabelValue("Overlay", ui.OverlayText(p)))
			return nil
		},
	}

	return cmd
}

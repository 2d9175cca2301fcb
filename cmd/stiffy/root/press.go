package root

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/i474232898/stiffy-wanderers/internal/progress"
	"github.com/i474232898/stiffy-wanderers/internal/ui"
)

func newPressCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "press <water|wind>",
		Short: "Press the water or wind action for today",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("action is required")
			}
			_, err := progress.ParseAction(args[0])
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			action, _ := progress.ParseAction(args[0])

			ctx := context.Background()
			a, _, cleanup, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			out, err := a.Engine.PressAction(ctx, action)
			if err != nil {
				return err
			}

			paired, err := a.Engine.Ledger().CreditedOn(ctx, action.Other(), a.Oracle.Today())
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintln(w, pressMessage(action, out, paired))
			fmt.Fprintln(w, ui.LabelValue("Progress", ui.ProgressBar(out.Value)))
			if p := a.Overlays.Current(out.Value); p.Overlay != "" {
				fmt.Fprintln(w, ui.OverlayText(p))
			}
			return nil
		},
	}

	return cmd
}

func pressMessage(action progress.Action, out progress.Outcome, paired bool) string {
	switch {
	case !out.Credited:
		return ui.Muted.Render(fmt.Sprintf("%s already done today.", action))
	case paired && out.Delta == 0 && out.Value >= progress.MaxValue:
		return ui.Gold.Render(fmt.Sprintf("%s done. Both actions complete; Stiffy is already fully weathered.", action))
	case paired:
		return ui.Good.Render(fmt.Sprintf("%s done. Both actions complete: +%.2f", action, out.Delta))
	default:
		return ui.Good.Render(fmt.Sprintf("%s done. Press %s too for a boost.", action, action.Other()))
	}
}

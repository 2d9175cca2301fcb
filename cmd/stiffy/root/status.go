package root

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/i474232898/stiffy-wanderers/internal/app"
	"github.com/i474232898/stiffy-wanderers/internal/ui"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show Stiffy's progress, today's gates and the weather",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, _, cleanup, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			return printStatus(ctx, cmd.OutOrStdout(), a)
		},
	}

	return cmd
}

func printStatus(ctx context.Context, w io.Writer, a *app.App) error {
	st, err := a.Engine.Status(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, ui.Heading(ui.IconRock, "Stiffy"))
	fmt.Fprintln(w, ui.LabelValue("Progress", ui.ProgressBar(st.Value)))
	fmt.Fprintln(w, ui.LabelValue("Stage", ui.StageText(st.Stage)))
	fmt.Fprintln(w, ui.LabelValue("Day", st.Date))
	fmt.Fprintln(w, "")

	fmt.Fprintln(w, ui.H2.Render("Today"))
	fmt.Fprintf(w, "- %s %s %s\n", ui.IconRain, ui.Key.Render("Rain:"), ui.Gate(st.WeatherCredited))
	fmt.Fprintf(w, "- %s %s %s\n", ui.IconWater, ui.Key.Render("Water:"), ui.Gate(st.WaterCredited))
	fmt.Fprintf(w, "- %s %s %s\n", ui.IconWind, ui.Key.Render("Wind:"), ui.Gate(st.WindCredited))
	fmt.Fprintln(w, "")

	rep := a.Weather.Report(ctx)
	switch {
	case rep.Available:
		fmt.Fprintln(w, ui.LabelValue("Weather", fmt.Sprintf("%s, %.1f°C", rep.Condition, *rep.Temperature)))
	case rep.Temperature != nil:
		fmt.Fprintln(w, ui.LabelValue("Weather", ui.Muted.Render(fmt.Sprintf("unavailable (last %.1f°C)", *rep.Temperature))))
	default:
		fmt.Fprintln(w, ui.LabelValue("Weather", ui.Muted.Render("unavailable")))
	}
	if area := a.Tracker.Current(); area != "" {
		fmt.Fprintln(w, ui.LabelValue("Area", area))
	}
	fmt.Fprintln(w, ui.LabelValue("Overlay", ui.OverlayText(a.Overlays.Current(st.Value))))
	return nil
}

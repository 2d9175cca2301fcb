package root

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/i474232898/stiffy-wanderers/internal/location"
	"github.com/i474232898/stiffy-wanderers/internal/ui"
)

func newRefreshCmd() *cobra.Command {
	var (
		lat, lon float64
		denied   bool
	)

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Look up the weather and apply today's rain credit",
		Args: func(cmd *cobra.Command, args []string) error {
			latSet, lonSet := cmd.Flags().Changed("lat"), cmd.Flags().Changed("lon")
			if latSet != lonSet {
				return errors.New("--lat and --lon must be given together")
			}
			if denied && latSet {
				return errors.New("--denied cannot be combined with a coordinate")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			a, _, cleanup, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			switch {
			case denied:
				a.Device.Deny()
			case cmd.Flags().Changed("lat"):
				if err := a.Device.Report(location.Coordinate{Latitude: lat, Longitude: lon}); err != nil {
					return err
				}
			}

			res, err := a.Refresher.Refresh(ctx)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			switch {
			case res.LocationDenied:
				fmt.Fprintln(w, ui.Warn.Render(ui.IconWarn+" Location access denied; weather unavailable."))
			case !res.WeatherAvailable:
				fmt.Fprintln(w, ui.Warn.Render(ui.IconWarn+" Weather unavailable."))
			case res.Outcome.Credited:
				fmt.Fprintln(w, ui.Good.Render(fmt.Sprintf("%s %s: Stiffy weathers a little (+%.2f)", ui.IconRain, res.Condition, res.Outcome.Delta)))
			case res.Precipitating:
				fmt.Fprintln(w, ui.Muted.Render(fmt.Sprintf("%s: rain already counted today.", res.Condition)))
			default:
				fmt.Fprintln(w, ui.Muted.Render(fmt.Sprintf("%s: no precipitation.", res.Condition)))
			}
			if res.Area != "" {
				fmt.Fprintln(w, ui.LabelValue("Area", res.Area))
			}
			fmt.Fprintln(w, ui.LabelValue("Progress", ui.ProgressBar(res.Outcome.Value)))
			if p := a.Overlays.Current(res.Outcome.Value); p.Overlay != "" {
				fmt.Fprintln(w, ui.OverlayText(p))
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&lat, "lat", 0, "latitude of the current position")
	cmd.Flags().Float64Var(&lon, "lon", 0, "longitude of the current position")
	cmd.Flags().BoolVar(&denied, "denied", false, "refresh as if location access was denied")

	return cmd
}

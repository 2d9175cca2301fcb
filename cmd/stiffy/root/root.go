package root

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/i474232898/stiffy-wanderers/internal/ui"
)

const Version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:           "stiffy",
	Short:         "Stiffy Wanderers: grow a rock through rain, wind and water",
	Long:          "Stiffy Wanderers tracks a rock mascot's weathering progress from daily rain and the water and wind actions.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("{{.Name}} v{{.Version}}\n")

	rootCmd.AddCommand(
		newServeCmd(),
		newStatusCmd(),
		newPressCmd(),
		newRefreshCmd(),
		newResetCmd(),
		newOverlayCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.Bad.Render(ui.IconError+" "+err.Error()))
		os.Exit(1)
	}
}

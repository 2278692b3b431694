package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/specloop/internal/infrastructure/config"
	"github.com/felixgeelhaar/specloop/internal/infrastructure/watch"
)

var (
	watchDebounce    time.Duration
	watchPlantUMLJar string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-render diagram sources as they change",
	Long: `Watch monitors the workspace for edits to .puml sources and re-renders
the PNG next to each changed file. Useful while hand-tuning a generated
diagram. Stop with Ctrl-C.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(flagRoot)
		if err != nil {
			return NewCLIError("failed to load configuration", "check ai.yaml in the workspace root", err)
		}
		renderer := newRenderer(cfg, watchPlantUMLJar)
		if err := renderer.Verify(cmd.Context()); err != nil {
			return MapError(err)
		}

		w, err := watch.NewSourceWatcher(watchDebounce, func(path string) {
			png, err := renderer.Render(cmd.Context(), path)
			if err != nil {
				fmt.Printf("FAIL %s: %v\n", path, err)
				return
			}
			fmt.Printf("ok   %s -> %s\n", path, png)
		})
		if err != nil {
			return MapError(err)
		}
		if err := w.WatchRecursive(flagRoot); err != nil {
			return MapError(err)
		}

		fmt.Printf("Watching %s for .puml changes\n", flagRoot)
		return w.Run(cmd.Context())
	},
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watch.DefaultDebounce, "quiet window before re-rendering")
	watchCmd.Flags().StringVar(&watchPlantUMLJar, "plantuml-jar", "", "path to plantuml.jar")
	RootCmd.AddCommand(watchCmd)
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/specloop/internal/infrastructure/config"
	"github.com/felixgeelhaar/specloop/pkg/storage"
)

var (
	renderAll         bool
	renderPlantUMLJar string
)

var renderCmd = &cobra.Command{
	Use:   "render [<file>...]",
	Short: "Render stored PlantUML sources to PNG",
	Long: `Render regenerates images from diagram sources without touching the
AI pipeline. Pass explicit .puml files, or --all to re-render every
stored source in the workspace.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !renderAll && len(args) == 0 {
			return NewCLIError("nothing to render", "pass .puml files or --all", nil)
		}

		cfg, err := config.Load(flagRoot)
		if err != nil {
			return NewCLIError("failed to load configuration", "check ai.yaml in the workspace root", err)
		}
		renderer := newRenderer(cfg, renderPlantUMLJar)
		if err := renderer.Verify(cmd.Context()); err != nil {
			return MapError(err)
		}

		sources := args
		if renderAll {
			store := storage.NewStore(flagRoot)
			sources, err = store.ListArtifactsByExt("puml")
			if err != nil {
				return MapError(err)
			}
		}

		failed := 0
		for _, src := range sources {
			png, err := renderer.Render(cmd.Context(), src)
			if err != nil {
				failed++
				fmt.Printf("FAIL %s: %v\n", src, err)
				continue
			}
			fmt.Printf("ok   %s -> %s\n", src, png)
		}

		fmt.Printf("Rendered %d/%d sources\n", len(sources)-failed, len(sources))
		if failed > 0 {
			return NewCLIError(fmt.Sprintf("%d source(s) failed to render", failed),
				"run 'specloop render <file>' on a failing source to inspect it", nil)
		}
		return nil
	},
}

func init() {
	renderCmd.Flags().BoolVar(&renderAll, "all", false, "render every stored .puml source")
	renderCmd.Flags().StringVar(&renderPlantUMLJar, "plantuml-jar", "", "path to plantuml.jar")
	RootCmd.AddCommand(renderCmd)
}

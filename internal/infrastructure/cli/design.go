package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/specloop/internal/infrastructure/config"
	"github.com/felixgeelhaar/specloop/pkg/application"
	"github.com/felixgeelhaar/specloop/pkg/render"
)

var (
	designSliceName   string
	designMaxIter     int
	designTargetScore int
	designParallel    bool
	designNoRender    bool
	designPlantUMLJar string
)

var designCmd = &cobra.Command{
	Use:   "design",
	Short: "Diagram pipeline: generate and refine UML diagram sets",
}

var designRunCmd = &cobra.Command{
	Use:   "run <requirements-file>...",
	Short: "Run the diagram refinement loop for one or more requirement slices",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, cfg, provider, err := workspace()
		if err != nil {
			return err
		}

		if designSliceName != "" && len(args) > 1 {
			return NewCLIError("--slice-name requires exactly one requirements file",
				"drop --slice-name to derive names from the file names", nil)
		}

		slices := make([]application.Slice, 0, len(args))
		for _, arg := range args {
			reqs, err := readInput(arg, "requirements slice")
			if err != nil {
				return err
			}
			name := designSliceName
			if name == "" {
				name = sliceNameFromPath(arg)
			}
			slices = append(slices, application.Slice{Name: name, Requirements: reqs})
		}

		opts := application.DesignOptions{
			MaxIterations: designMaxIter,
			TargetScore:   designTargetScore,
			Parallel:      designParallel,
		}
		if cfg != nil {
			if opts.MaxIterations == 0 {
				opts.MaxIterations = cfg.MaxIterations
			}
			if opts.TargetScore == 0 {
				opts.TargetScore = cfg.TargetScore
			}
		}

		renderer := application.Renderer(nil)
		if !designNoRender {
			renderer = newRenderer(cfg, designPlantUMLJar)
		}
		svc := application.NewDesignService(provider, store, renderer)
		result, err := svc.RunWorkflow(cmd.Context(), slices, opts)
		for _, r := range result.Runs {
			printRunSummary(r)
		}
		if err != nil {
			return MapError(err)
		}
		if result.SummaryPath != "" {
			fmt.Printf("Workflow summary written to %s\n", result.SummaryPath)
		}
		return nil
	},
}

// newRenderer builds the PlantUML renderer, preferring an explicit jar
// path over the configured one.
func newRenderer(cfg *config.Config, jar string) *render.PlantUML {
	if jar == "" && cfg != nil {
		jar = cfg.PlantUMLJar
	}
	if jar == "" {
		jar = "plantuml.jar"
	}
	return render.NewPlantUML(jar)
}

// sliceNameFromPath turns "slices/user auth.md" into "user_auth".
func sliceNameFromPath(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return strings.ReplaceAll(base, " ", "_")
}

func init() {
	designRunCmd.Flags().StringVar(&designSliceName, "slice-name", "", "name for a single requirements slice")
	designRunCmd.Flags().IntVar(&designMaxIter, "max-iterations", 0, "iteration cap (default 5, max 10)")
	designRunCmd.Flags().IntVar(&designTargetScore, "target-score", 0, "acceptable overall QA score (default 10)")
	designRunCmd.Flags().BoolVar(&designParallel, "parallel", false, "generate interaction and logic diagrams concurrently")
	designRunCmd.Flags().BoolVar(&designNoRender, "no-render", false, "skip PNG rendering and syntax checks")
	designRunCmd.Flags().StringVar(&designPlantUMLJar, "plantuml-jar", "", "path to plantuml.jar")

	designCmd.AddCommand(designRunCmd)
	RootCmd.AddCommand(designCmd)
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/specloop/pkg/application"
)

// Each subcommand owns its flag variables so reusing RootCmd (tests,
// repeated invocations) cannot leak state between commands.
var (
	srsGenURDFile      string
	srsGenStandardFile string

	srsValURDFile      string
	srsValStandardFile string
	srsValVersion      int

	srsRevVersion int

	srsImpURDFile      string
	srsImpStandardFile string
	srsImpMaxIter      int
	srsImpTargetErrors int
)

var srsCmd = &cobra.Command{
	Use:   "srs",
	Short: "Requirements pipeline: generate, validate, review, improve",
}

var srsGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a fresh SRS from the URD and the reference standard",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, provider, err := workspace()
		if err != nil {
			return err
		}
		urd, standard, err := loadSRSInputs(srsGenURDFile, srsGenStandardFile)
		if err != nil {
			return err
		}

		svc := application.NewSRSService(provider, store)
		doc, err := svc.Generate(cmd.Context(), urd, standard)
		if err != nil {
			return MapError(err)
		}
		fmt.Printf("SRS v%d written to %s\n", doc.Version, doc.Path)
		return nil
	},
}

var srsValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Audit a stored SRS version and report its error count",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, provider, err := workspace()
		if err != nil {
			return err
		}
		urd, standard, err := loadSRSInputs(srsValURDFile, srsValStandardFile)
		if err != nil {
			return err
		}

		previous := ""
		if srsValVersion > 1 {
			if prev, err := store.LoadValidationReport(application.SRSFamily, srsValVersion-1); err == nil {
				previous = prev
			}
		}

		svc := application.NewSRSService(provider, store)
		v, err := svc.Validate(cmd.Context(), srsValVersion, urd, standard, previous)
		if err != nil {
			return MapError(err)
		}
		fmt.Printf("Validation report written to %s\n", v.ReportPath)
		if v.Errors < 0 {
			fmt.Println("Error count: could not be determined (no <errors: N> tag)")
		} else {
			fmt.Printf("Error count: %d\n", v.Errors)
		}
		return nil
	},
}

var srsReviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Produce an improved SRS from a version and its validation report",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, provider, err := workspace()
		if err != nil {
			return err
		}

		svc := application.NewSRSService(provider, store)
		doc, err := svc.Review(cmd.Context(), srsRevVersion)
		if err != nil {
			return MapError(err)
		}
		fmt.Printf("Improved SRS v%d written to %s\n", doc.Version, doc.Path)
		return nil
	},
}

var srsImproveCmd = &cobra.Command{
	Use:   "improve",
	Short: "Run the full generate/validate/review convergence loop",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, cfg, provider, err := workspace()
		if err != nil {
			return err
		}
		urd, standard, err := loadSRSInputs(srsImpURDFile, srsImpStandardFile)
		if err != nil {
			return err
		}

		opts := application.SRSOptions{
			MaxIterations: srsImpMaxIter,
			TargetErrors:  srsImpTargetErrors,
		}
		if cfg != nil {
			if opts.MaxIterations == 0 {
				opts.MaxIterations = cfg.MaxIterations
			}
			if !cmd.Flags().Changed("target-errors") && cfg.TargetErrors > 0 {
				opts.TargetErrors = cfg.TargetErrors
			}
		}

		svc := application.NewSRSService(provider, store)
		r, err := svc.Improve(cmd.Context(), urd, standard, opts)
		if r != nil {
			printRunSummary(r)
		}
		if err != nil {
			return MapError(err)
		}
		return nil
	},
}

func loadSRSInputs(urdFile, standardFile string) (string, string, error) {
	urd, err := readInput(urdFile, "URD")
	if err != nil {
		return "", "", err
	}
	standard, err := readInput(standardFile, "reference standard")
	if err != nil {
		return "", "", err
	}
	return urd, standard, nil
}

func init() {
	srsGenerateCmd.Flags().StringVar(&srsGenURDFile, "urd", "urd.md", "user requirements document")
	srsGenerateCmd.Flags().StringVar(&srsGenStandardFile, "standard", "standard.md", "reference standard document")

	srsValidateCmd.Flags().StringVar(&srsValURDFile, "urd", "urd.md", "user requirements document")
	srsValidateCmd.Flags().StringVar(&srsValStandardFile, "standard", "standard.md", "reference standard document")
	srsValidateCmd.Flags().IntVar(&srsValVersion, "srs-version", 1, "SRS version to validate")

	srsReviewCmd.Flags().IntVar(&srsRevVersion, "srs-version", 1, "SRS version to review")

	srsImproveCmd.Flags().StringVar(&srsImpURDFile, "urd", "urd.md", "user requirements document")
	srsImproveCmd.Flags().StringVar(&srsImpStandardFile, "standard", "standard.md", "reference standard document")
	srsImproveCmd.Flags().IntVar(&srsImpMaxIter, "max-iterations", 0, "iteration cap (default 5, max 10)")
	srsImproveCmd.Flags().IntVar(&srsImpTargetErrors, "target-errors", 0, "acceptable residual error count")

	srsCmd.AddCommand(srsGenerateCmd, srsValidateCmd, srsReviewCmd, srsImproveCmd)
	RootCmd.AddCommand(srsCmd)
}

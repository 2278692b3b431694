package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/specloop/pkg/application"
)

var urdPromptFile string

var urdCmd = &cobra.Command{
	Use:   "urd",
	Short: "Seed document pipeline: generate the initial URD",
}

var urdGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a user requirements document from an initial prompt",
	Long: `Generate sends the initial prompt to the model verbatim and persists
the response as a versioned URD. The resulting file is the seed input
for 'specloop srs' commands.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, provider, err := workspace()
		if err != nil {
			return err
		}
		prompt, err := readInput(urdPromptFile, "initial prompt")
		if err != nil {
			return err
		}

		svc := application.NewSRSService(provider, store)
		doc, err := svc.GenerateURD(cmd.Context(), prompt)
		if err != nil {
			return MapError(err)
		}
		fmt.Printf("URD v%d written to %s\n", doc.Version, doc.Path)
		fmt.Println("Use it as the --urd input for 'specloop srs' commands.")
		return nil
	},
}

func init() {
	urdGenerateCmd.Flags().StringVar(&urdPromptFile, "prompt", "prompt.md", "initial prompt file")
	urdCmd.AddCommand(urdGenerateCmd)
	RootCmd.AddCommand(urdCmd)
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/specloop/internal/infrastructure/config"
)

var (
	cfgProvider    string
	cfgModel       string
	cfgPlantUML    string
	cfgMaxIter     int
	cfgTargetErr   int
	cfgTargetScore int
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Write the workspace ai.yaml",
	RunE: func(cmd *cobra.Command, args []string) error {
		existing, err := config.Load(flagRoot)
		if err != nil {
			return NewCLIError("failed to load existing configuration", "fix or delete ai.yaml", err)
		}

		cfg := &config.Config{}
		if existing != nil {
			*cfg = *existing
		}
		if cmd.Flags().Changed("set-provider") {
			cfg.Provider = cfgProvider
		}
		if cmd.Flags().Changed("set-model") {
			cfg.Model = cfgModel
		}
		if cmd.Flags().Changed("set-plantuml-jar") {
			cfg.PlantUMLJar = cfgPlantUML
		}
		if cmd.Flags().Changed("set-max-iterations") {
			cfg.MaxIterations = cfgMaxIter
		}
		if cmd.Flags().Changed("set-target-errors") {
			cfg.TargetErrors = cfgTargetErr
		}
		if cmd.Flags().Changed("set-target-score") {
			cfg.TargetScore = cfgTargetScore
		}

		if err := config.Save(flagRoot, cfg); err != nil {
			return NewCLIError("failed to save configuration", "check permissions on "+flagRoot, err)
		}
		fmt.Println("Configuration saved to ai.yaml")
		return nil
	},
}

func init() {
	configureCmd.Flags().StringVar(&cfgProvider, "set-provider", "", "default AI provider")
	configureCmd.Flags().StringVar(&cfgModel, "set-model", "", "default model name")
	configureCmd.Flags().StringVar(&cfgPlantUML, "set-plantuml-jar", "", "path to plantuml.jar")
	configureCmd.Flags().IntVar(&cfgMaxIter, "set-max-iterations", 0, "default iteration cap")
	configureCmd.Flags().IntVar(&cfgTargetErr, "set-target-errors", 0, "default target error count")
	configureCmd.Flags().IntVar(&cfgTargetScore, "set-target-score", 0, "default target QA score")
	RootCmd.AddCommand(configureCmd)
}

// Package cli wires the specloop commands.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	aifactory "github.com/felixgeelhaar/specloop/internal/infrastructure/ai"
	"github.com/felixgeelhaar/specloop/internal/infrastructure/config"
	domainai "github.com/felixgeelhaar/specloop/pkg/domain/ai"
	"github.com/felixgeelhaar/specloop/pkg/storage"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var (
	flagRoot     string
	flagProvider string
	flagModel    string
)

// RootCmd is the base command when called without subcommands.
var RootCmd = &cobra.Command{
	Use:     "specloop",
	Version: Version,
	Short:   "Iterative document and diagram quality convergence",
	Long: `Specloop turns user requirements into audited artifacts through
iterative generate/validate/revise loops:
1. srs: produce an SRS and improve it until the audit error count converges
2. design: produce UML diagram sets and refine them until the QA score converges`,
}

// Execute runs the root command. Called once by main.main().
func Execute() error {
	err := RootCmd.Execute()
	if err != nil {
		printCLIError(err)
	}
	return err
}

func init() {
	RootCmd.PersistentFlags().StringVar(&flagRoot, "root", ".", "workspace directory")
	RootCmd.PersistentFlags().StringVar(&flagProvider, "provider", "", "AI provider (gemini, openai, ollama, mock)")
	RootCmd.PersistentFlags().StringVar(&flagModel, "model", "", "model name for the selected provider")
}

// workspace resolves the store, config, and provider shared by every
// pipeline command.
func workspace() (*storage.Store, *config.Config, domainai.Provider, error) {
	cfg, err := config.Load(flagRoot)
	if err != nil {
		return nil, nil, nil, NewCLIError("failed to load configuration", "check ai.yaml in the workspace root", err)
	}

	cfgProvider, cfgModel := "", ""
	if cfg != nil {
		cfgProvider, cfgModel = cfg.Provider, cfg.Model
	}
	provider, err := aifactory.ResolveProvider(flagProvider, flagModel, cfgProvider, cfgModel)
	if err != nil {
		return nil, nil, nil, NewCLIError("failed to resolve AI provider",
			"set --provider/--model, SPECLOOP_AI_PROVIDER, or run 'specloop configure'", err)
	}

	store := storage.NewStore(flagRoot)
	if err := store.Initialize(); err != nil {
		return nil, nil, nil, NewCLIError("failed to initialize workspace", "check permissions on "+flagRoot, err)
	}
	return store, cfg, provider, nil
}

// readInput loads a file argument, rejecting empty content since the
// prompts are useless without it.
func readInput(path, what string) (string, error) {
	// #nosec G304 -- path comes from the command line
	data, err := os.ReadFile(path)
	if err != nil {
		return "", NewCLIError(fmt.Sprintf("failed to read %s", what), "check the path: "+path, err)
	}
	if len(data) == 0 {
		return "", NewCLIError(fmt.Sprintf("%s file is empty", what), "provide a non-empty "+what, nil)
	}
	return string(data), nil
}

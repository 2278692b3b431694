package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/felixgeelhaar/specloop/pkg/render"
)

// CLIError wraps pipeline errors with user-facing messages and
// actionable hints.
type CLIError struct {
	Message  string
	Hint     string
	Err      error
	ExitCode int
}

func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a CLIError with a default exit code of 1.
func NewCLIError(msg, hint string, err error) *CLIError {
	return &CLIError{
		Message:  msg,
		Hint:     hint,
		Err:      err,
		ExitCode: 1,
	}
}

// MapError converts known errors into CLIErrors with actionable hints.
// Unmapped errors are returned as-is.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, render.ErrRendererNotFound) {
		return NewCLIError(
			"PlantUML renderer not available",
			"install Java and point --plantuml-jar (or plantuml_jar in ai.yaml) at plantuml.jar",
			err,
		)
	}
	return err
}

func printCLIError(err error) {
	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		fmt.Fprintln(os.Stderr, "Error:", cliErr.Message)
		if cliErr.Err != nil {
			fmt.Fprintln(os.Stderr, "  cause:", cliErr.Err)
		}
		if cliErr.Hint != "" {
			fmt.Fprintln(os.Stderr, "  hint:", cliErr.Hint)
		}
		return
	}
	fmt.Fprintln(os.Stderr, "Error:", err)
}

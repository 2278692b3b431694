// Package render shells out to PlantUML to turn diagram sources into
// images. The renderer is an external collaborator: it either produces
// an image file or fails, and a timeout is treated exactly like any
// other failure.
package render

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// ErrRendererNotFound indicates the PlantUML jar (or java) is missing.
// Surfaced as a precondition failure before a run starts.
var ErrRendererNotFound = errors.New("plantuml renderer not found")

const (
	DefaultTimeout       = 30 * time.Second
	DefaultSyntaxTimeout = 15 * time.Second

	StartMarker = "@startuml"
	EndMarker   = "@enduml"
)

// PlantUML renders .puml sources via `java -jar plantuml.jar`.
type PlantUML struct {
	JarPath       string
	Timeout       time.Duration
	SyntaxTimeout time.Duration
}

// NewPlantUML creates a renderer with default timeouts.
func NewPlantUML(jarPath string) *PlantUML {
	return &PlantUML{
		JarPath:       jarPath,
		Timeout:       DefaultTimeout,
		SyntaxTimeout: DefaultSyntaxTimeout,
	}
}

// Verify checks that java and the PlantUML jar are usable. Run this
// before starting a convergence run so a missing renderer fails fast
// instead of poisoning iteration history.
func (p *PlantUML) Verify(ctx context.Context) error {
	if _, err := os.Stat(p.JarPath); err != nil {
		return fmt.Errorf("%w: jar not found at %s", ErrRendererNotFound, p.JarPath)
	}

	cmd := exec.CommandContext(ctx, "java", "-jar", p.JarPath, "-version")
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%w: version check failed: %v (%s)", ErrRendererNotFound, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Render generates an image next to the source file and returns its
// path. Exceeding the timeout, a non-zero exit, or a missing output
// file all fail the same way.
func (p *PlantUML) Render(ctx context.Context, pumlPath string) (string, error) {
	if _, err := os.Stat(pumlPath); err != nil {
		return "", fmt.Errorf("diagram source not found: %s", pumlPath)
	}

	timeout := p.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// #nosec G204 -- jar path comes from configuration, puml path from the store
	cmd := exec.CommandContext(ctx, "java", "-jar", p.JarPath, pumlPath)
	if out, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("plantuml rendering timed out after %s", timeout)
		}
		return "", fmt.Errorf("plantuml rendering failed: %v (%s)", err, strings.TrimSpace(string(out)))
	}

	imagePath := strings.TrimSuffix(pumlPath, ".puml") + ".png"
	if _, err := os.Stat(imagePath); err != nil {
		return "", fmt.Errorf("plantuml exited cleanly but produced no image at %s", imagePath)
	}
	return imagePath, nil
}

// CheckSyntax runs the cheap validation pass: structural marker checks
// on the source, then a bounded PlantUML invocation to catch syntax
// errors without waiting for full rendering.
func (p *PlantUML) CheckSyntax(ctx context.Context, pumlPath string) (bool, string) {
	data, err := os.ReadFile(pumlPath) // #nosec G304 -- path from the store
	if err != nil {
		return false, fmt.Sprintf("read diagram source: %v", err)
	}

	content := strings.TrimSpace(string(data))
	switch {
	case content == "":
		return false, "empty diagram source"
	case !strings.HasPrefix(content, StartMarker):
		return false, "missing " + StartMarker + " directive"
	case !strings.HasSuffix(content, EndMarker):
		return false, "missing " + EndMarker + " directive"
	}

	timeout := p.SyntaxTimeout
	if timeout == 0 {
		timeout = DefaultSyntaxTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// #nosec G204 -- jar path comes from configuration, puml path from the store
	cmd := exec.CommandContext(ctx, "java", "-jar", p.JarPath, "-checkonly", pumlPath)
	if out, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return false, "syntax check timed out"
		}
		detail := strings.TrimSpace(string(out))
		if detail == "" {
			detail = err.Error()
		}
		return false, detail
	}
	return true, "syntax valid"
}

// ExtractSource pulls PlantUML code out of a raw completion response.
// If the structural markers are present, the text between them wins;
// otherwise markdown fences are stripped and missing markers are
// synthesized around the remainder. Best-effort repair, not validation.
func ExtractSource(response string) string {
	start := strings.Index(response, StartMarker)
	end := strings.Index(response, EndMarker)
	if start != -1 && end != -1 && end > start {
		return strings.TrimSpace(response[start : end+len(EndMarker)])
	}

	var kept []string
	for _, line := range strings.Split(strings.TrimSpace(response), "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		kept = append(kept, line)
	}
	cleaned := strings.TrimSpace(strings.Join(kept, "\n"))

	if !strings.HasPrefix(cleaned, StartMarker) {
		cleaned = StartMarker + "\n" + cleaned
	}
	if !strings.HasSuffix(cleaned, EndMarker) {
		cleaned = cleaned + "\n" + EndMarker
	}
	return cleaned
}

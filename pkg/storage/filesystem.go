// Package storage persists versioned artifacts and reports on the local
// filesystem, and owns version-number allocation per artifact family.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
)

const (
	ArtifactsDir = "artifacts"
	ReportsDir   = "reports"
)

// FallbackVersion is returned when the artifact directory cannot be
// listed during version discovery. Favoring availability over strict
// correctness here is a known limitation: a run keeps going at v2
// instead of dying on a transient listing failure, at the risk of
// overwriting an existing v2 when the listing failure hid one.
const FallbackVersion = 2

// Store is a filesystem-backed artifact repository. Version allocation
// is serialized through an in-process high-water ledger so concurrent
// family workers within one run cannot race; the directory scan is only
// used to seed the ledger from pre-existing on-disk stores.
type Store struct {
	root        string
	retryConfig retry.Config

	mu     sync.Mutex
	ledger map[string]int // family -> highest version seen or allocated
}

// NewStore creates a store rooted at the given directory.
func NewStore(root string) *Store {
	return &Store{
		root: root,
		retryConfig: retry.Config{
			MaxAttempts:   3,
			InitialDelay:  10 * time.Millisecond,
			BackoffPolicy: retry.BackoffExponential,
		},
		ledger: make(map[string]int),
	}
}

// Root returns the store's root directory.
func (s *Store) Root() string {
	return s.root
}

// Initialize creates the artifact and report directories.
func (s *Store) Initialize() error {
	for _, dir := range []string{ArtifactsDir, ReportsDir} {
		if err := os.MkdirAll(filepath.Join(s.root, dir), 0700); err != nil {
			return fmt.Errorf("create %s directory: %w", dir, err)
		}
	}
	return nil
}

// resolve validates a generated filename and anchors it under the given
// subdirectory, rejecting traversal attempts smuggled in via family or
// slice names.
func (s *Store) resolve(dir, filename string) (string, error) {
	if filename == "" {
		return "", fmt.Errorf("filename cannot be empty")
	}
	baseDir := filepath.Join(s.root, dir)
	cleanPath := filepath.Clean(filepath.Join(baseDir, filename))
	if !strings.HasPrefix(cleanPath, baseDir) || filepath.Dir(cleanPath) != baseDir {
		return "", fmt.Errorf("invalid file path: %s", filename)
	}
	return cleanPath, nil
}

// artifactName builds the canonical {family}_v{N}.{ext} filename.
func artifactName(family string, version int, ext string) string {
	return fmt.Sprintf("%s_v%d.%s", family, version, ext)
}

// NextVersion allocates the next version number for a family. The first
// call for an unseen family seeds the ledger by scanning the artifact
// directory for {family}_v{N}.{ext} files; afterwards the ledger is the
// single allocator, so numbers stay monotonic even if files are deleted
// underneath us. A failed directory scan degrades to FallbackVersion
// rather than propagating.
func (s *Store) NextVersion(family, ext string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	high, seen := s.ledger[family]
	if !seen {
		var err error
		high, err = s.scanHighestVersion(family, ext)
		if err != nil {
			fmt.Printf("Warning: could not determine version number for %s: %v\n", family, err)
			s.ledger[family] = FallbackVersion
			return FallbackVersion
		}
	}

	next := high + 1
	s.ledger[family] = next
	return next
}

// scanHighestVersion returns the highest stored version for a family,
// or 0 when none exist. Gap-tolerant: {1,2,4} yields 4.
func (s *Store) scanHighestVersion(family, ext string) (int, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, ArtifactsDir))
	if err != nil {
		return 0, err
	}

	pattern, err := regexp.Compile("^" + regexp.QuoteMeta(family) + `_v(\d+)\.` + regexp.QuoteMeta(ext) + "$")
	if err != nil {
		return 0, err
	}

	highest := 0
	for _, entry := range entries {
		m := pattern.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil && n > highest {
			highest = n
		}
	}
	return highest, nil
}

// SaveArtifact durably writes one version of an artifact and records it
// in the ledger. Artifacts are immutable: callers allocate a fresh
// version instead of rewriting an old one.
func (s *Store) SaveArtifact(family string, version int, ext, content string) (string, error) {
	path, err := s.resolve(ArtifactsDir, artifactName(family, version, ext))
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return "", fmt.Errorf("write artifact %s v%d: %w", family, version, err)
	}

	s.mu.Lock()
	if version > s.ledger[family] {
		s.ledger[family] = version
	}
	s.mu.Unlock()

	return path, nil
}

// LoadArtifact reads one stored artifact version, retrying transient
// read failures.
func (s *Store) LoadArtifact(family string, version int, ext string) (string, error) {
	retryer := retry.New[string](s.retryConfig)

	return retryer.Do(context.Background(), func(ctx context.Context) (string, error) {
		path, err := s.resolve(ArtifactsDir, artifactName(family, version, ext))
		if err != nil {
			return "", err
		}
		// #nosec G304 -- path is resolved and validated via resolve
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read artifact %s v%d: %w", family, version, err)
		}
		return string(data), nil
	})
}

// ArtifactPath returns the canonical on-disk location for a version
// without touching the filesystem.
func (s *Store) ArtifactPath(family string, version int, ext string) string {
	return filepath.Join(s.root, ArtifactsDir, artifactName(family, version, ext))
}

// SaveValidationReport persists the free-text validation blob for one
// artifact version as {family}VR_v{N}.txt (SRS -> SRSVR_v1.txt).
func (s *Store) SaveValidationReport(family string, version int, content string) (string, error) {
	path, err := s.resolve(ReportsDir, fmt.Sprintf("%sVR_v%d.txt", family, version))
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return "", fmt.Errorf("write validation report %s v%d: %w", family, version, err)
	}
	return path, nil
}

// LoadValidationReport reads a previously saved validation report.
func (s *Store) LoadValidationReport(family string, version int) (string, error) {
	path, err := s.resolve(ReportsDir, fmt.Sprintf("%sVR_v%d.txt", family, version))
	if err != nil {
		return "", err
	}
	// #nosec G304 -- path is resolved and validated via resolve
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read validation report %s v%d: %w", family, version, err)
	}
	return string(data), nil
}

// SaveQAReport persists one iteration's QA report for a slice as
// qa_report_{slice}_v{N}.md.
func (s *Store) SaveQAReport(slice string, iteration int, content string) (string, error) {
	path, err := s.resolve(ReportsDir, fmt.Sprintf("qa_report_%s_v%d.md", slice, iteration))
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return "", fmt.Errorf("write QA report %s v%d: %w", slice, iteration, err)
	}
	return path, nil
}

// SaveSummaryReport persists a cross-slice summary under the reports
// directory.
func (s *Store) SaveSummaryReport(filename, content string) (string, error) {
	path, err := s.resolve(ReportsDir, filename)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return "", fmt.Errorf("write summary report: %w", err)
	}
	return path, nil
}

// ListArtifactsByExt returns the paths of all stored artifacts with the
// given extension, sorted by name. Used for batch re-rendering.
func (s *Store) ListArtifactsByExt(ext string) ([]string, error) {
	pattern := filepath.Join(s.root, ArtifactsDir, "*."+ext)
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("list %s artifacts: %w", ext, err)
	}
	return matches, nil
}

package gateways

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ArtifactCollector copies declared job artifacts out of the workspace
// and writes a SHA256 sum beside each copy.
type ArtifactCollector struct{}

// NewArtifactCollector creates a new artifact collector
func NewArtifactCollector() *ArtifactCollector {
	return &ArtifactCollector{}
}

// Collect resolves the artifact globs relative to workDir and copies every
// match into destDir, preserving the path relative to workDir. Returns the
// destination paths of the copied artifacts (checksum files excluded).
// A pattern with no matches is not an error; declared artifacts are
// best-effort, the job already succeeded.
func (c *ArtifactCollector) Collect(ctx context.Context, workDir string, patterns []string, destDir string) ([]string, error) {
	var collected []string

	for _, pattern := range patterns {
		if err := ctx.Err(); err != nil {
			return collected, err
		}

		matches, err := filepath.Glob(filepath.Join(workDir, pattern))
		if err != nil {
			return collected, fmt.Errorf("failed to glob pattern %s: %w", pattern, err)
		}

		for _, match := range matches {
			info, err := os.Stat(match)
			if err != nil || info.IsDir() {
				continue
			}

			rel, err := filepath.Rel(workDir, match)
			if err != nil {
				return collected, fmt.Errorf("failed to resolve artifact path %s: %w", match, err)
			}

			dest := filepath.Join(destDir, rel)
			if err := copyFile(match, dest); err != nil {
				return collected, err
			}

			if err := c.writeChecksum(dest); err != nil {
				return collected, err
			}

			collected = append(collected, dest)
		}
	}

	return collected, nil
}

// Sum calculates the SHA256 checksum of a file.
// Pure Go implementation - no external sha256sum binary needed.
func (c *ArtifactCollector) Sum(filePath string) (string, error) {
	//nolint:gosec // G304: File path comes from the artifact globs of the definition
	f, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash file: %w", err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// writeChecksum writes <file>.sha256 in sha256sum-compatible format.
func (c *ArtifactCollector) writeChecksum(filePath string) error {
	sum, err := c.Sum(filePath)
	if err != nil {
		return err
	}

	line := fmt.Sprintf("%s  %s\n", sum, filepath.Base(filePath))
	if err := os.WriteFile(filePath+".sha256", []byte(line), 0600); err != nil {
		return fmt.Errorf("failed to write checksum file: %w", err)
	}

	return nil
}

func copyFile(src, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0750); err != nil {
		return fmt.Errorf("failed to create artifact directory: %w", err)
	}

	//nolint:gosec // G304: Artifact paths come from the pipeline definition
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open artifact %s: %w", src, err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer in.Close()

	//nolint:gosec // G304: Destination is inside the configured artifacts directory
	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create artifact copy %s: %w", dest, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("failed to copy artifact %s: %w", src, err)
	}

	return out.Close()
}

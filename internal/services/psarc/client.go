package psarc

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

var commandContext = exec.CommandContext

// Codec defines the archive operations the pipeline needs.
type Codec interface {
	Unpack(ctx context.Context, archivePath, destDir string) error
	Pack(ctx context.Context, sourceDir, archivePath string) error
}

// Option configures the CLI client.
type Option func(*CLI)

// WithBinary overrides the default binary name.
func WithBinary(binary string) Option {
	return func(c *CLI) {
		if binary != "" {
			c.binary = binary
		}
	}
}

// WithUnpackTimeout bounds a single unpack invocation.
func WithUnpackTimeout(seconds int) Option {
	return func(c *CLI) {
		if seconds > 0 {
			c.unpackTimeout = time.Duration(seconds) * time.Second
		}
	}
}

// WithPackTimeout bounds a single pack invocation.
func WithPackTimeout(seconds int) Option {
	return func(c *CLI) {
		if seconds > 0 {
			c.packTimeout = time.Duration(seconds) * time.Second
		}
	}
}

// CLI wraps the psarc command-line tool.
type CLI struct {
	binary        string
	unpackTimeout time.Duration
	packTimeout   time.Duration
}

// NewCLI constructs a CLI client using defaults.
func NewCLI(opts ...Option) *CLI {
	cli := &CLI{binary: "psarc"}
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

// Unpack extracts every entry of the archive into destDir.
func (c *CLI) Unpack(ctx context.Context, archivePath, destDir string) error {
	if archivePath == "" {
		return errors.New("archive path required")
	}
	if destDir == "" {
		return errors.New("destination directory required")
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("create destination: %w", err)
	}

	runCtx := ctx
	if c.unpackTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.unpackTimeout)
		defer cancel()
	}

	args := []string{"unpack", "--input", archivePath, "--output", destDir}
	cmd := commandContext(runCtx, c.binary, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("psarc unpack: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}

// Pack archives the contents of sourceDir into archivePath.
func (c *CLI) Pack(ctx context.Context, sourceDir, archivePath string) error {
	if sourceDir == "" {
		return errors.New("source directory required")
	}
	if archivePath == "" {
		return errors.New("archive path required")
	}
	if info, err := os.Stat(sourceDir); err != nil {
		return fmt.Errorf("inspect source directory: %w", err)
	} else if !info.IsDir() {
		return fmt.Errorf("source %s is not a directory", sourceDir)
	}
	if err := os.MkdirAll(filepath.Dir(archivePath), 0o755); err != nil {
		return fmt.Errorf("create archive directory: %w", err)
	}

	runCtx := ctx
	if c.packTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.packTimeout)
		defer cancel()
	}

	args := []string{"pack", "--input", sourceDir, "--output", archivePath}
	cmd := commandContext(runCtx, c.binary, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("psarc pack: %w: %s", err, strings.TrimSpace(string(output)))
	}

	if _, err := os.Stat(archivePath); errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("psarc pack produced no archive at %s", archivePath)
	}
	return nil
}

var _ Codec = (*CLI)(nil)

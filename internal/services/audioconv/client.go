package audioconv

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"stemstrip/internal/logging"
)

var commandContext = exec.CommandContext

// Converter defines the audio format operations the pipeline needs.
type Converter interface {
	ToWAV(ctx context.Context, src, dst string) error
	FromWAV(ctx context.Context, src, dst string) error
	Mix(ctx context.Context, inputs []string, dst string) error
}

// Option configures the CLI client.
type Option func(*CLI)

// WithFFmpegBinary overrides the default ffmpeg binary name.
func WithFFmpegBinary(binary string) Option {
	return func(c *CLI) {
		if binary != "" {
			c.ffmpegBin = binary
		}
	}
}

// WithWw2oggBinary overrides the default ww2ogg binary name.
func WithWw2oggBinary(binary string) Option {
	return func(c *CLI) {
		if binary != "" {
			c.ww2oggBin = binary
		}
	}
}

// WithRevorbBinary overrides the default revorb binary name.
func WithRevorbBinary(binary string) Option {
	return func(c *CLI) {
		if binary != "" {
			c.revorbBin = binary
		}
	}
}

// WithWav2wemBinary overrides the default wav2wem binary name.
func WithWav2wemBinary(binary string) Option {
	return func(c *CLI) {
		if binary != "" {
			c.wav2wemBin = binary
		}
	}
}

// WithCodebooks points ww2ogg at a packed codebooks file.
func WithCodebooks(path string) Option {
	return func(c *CLI) {
		c.codebooksPath = path
	}
}

// WithTimeout bounds a single conversion invocation.
func WithTimeout(seconds int) Option {
	return func(c *CLI) {
		if seconds > 0 {
			c.timeout = time.Duration(seconds) * time.Second
		}
	}
}

// WithLogger attaches a logger for best-effort tool warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(c *CLI) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// CLI converts audio between formats by shelling out to ffmpeg and the
// Wwise-adjacent tools (ww2ogg, revorb, wav2wem).
type CLI struct {
	ffmpegBin     string
	ww2oggBin     string
	revorbBin     string
	wav2wemBin    string
	codebooksPath string
	timeout       time.Duration
	logger        *slog.Logger
}

// NewCLI constructs a CLI client using defaults.
func NewCLI(opts ...Option) *CLI {
	cli := &CLI{
		ffmpegBin:  "ffmpeg",
		ww2oggBin:  "ww2ogg",
		revorbBin:  "revorb",
		wav2wemBin: "wav2wem",
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

// ToWAV decodes src into a PCM WAV at dst. WEM sources are first unwrapped
// to OGG with ww2ogg (plus a best-effort revorb pass) because ffmpeg cannot
// read Wwise containers directly.
func (c *CLI) ToWAV(ctx context.Context, src, dst string) error {
	if src == "" {
		return errors.New("source path required")
	}
	if dst == "" {
		return errors.New("destination path required")
	}

	runCtx, cancel := c.boundContext(ctx)
	defer cancel()

	decodeSrc := src
	if strings.EqualFold(filepath.Ext(src), ".wem") {
		oggPath := strings.TrimSuffix(dst, filepath.Ext(dst)) + ".ogg"
		if err := c.runWw2ogg(runCtx, src, oggPath); err != nil {
			return err
		}
		defer os.Remove(oggPath)
		c.runRevorb(runCtx, oggPath)
		decodeSrc = oggPath
	}

	args := []string{"-y", "-hide_banner", "-loglevel", "error", "-i", decodeSrc, "-vn", "-c:a", "pcm_s16le", dst}
	cmd := commandContext(runCtx, c.ffmpegBin, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg decode: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}

// FromWAV encodes the WAV at src into the format implied by dst's
// extension. WEM targets go through the configured wav2wem tool; everything
// else is handed to ffmpeg, which infers the codec from the extension.
func (c *CLI) FromWAV(ctx context.Context, src, dst string) error {
	if src == "" {
		return errors.New("source path required")
	}
	if dst == "" {
		return errors.New("destination path required")
	}

	runCtx, cancel := c.boundContext(ctx)
	defer cancel()

	if strings.EqualFold(filepath.Ext(dst), ".wem") {
		cmd := commandContext(runCtx, c.wav2wemBin, src, dst) //nolint:gosec
		if output, err := cmd.CombinedOutput(); err != nil {
			return fmt.Errorf("wav2wem: %w: %s", err, strings.TrimSpace(string(output)))
		}
		if _, err := os.Stat(dst); errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("wav2wem produced no output at %s", dst)
		}
		return nil
	}

	args := []string{"-y", "-hide_banner", "-loglevel", "error", "-i", src, dst}
	cmd := commandContext(runCtx, c.ffmpegBin, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg encode: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}

// Mix sums the input WAVs into a single PCM WAV at dst without rescaling,
// matching how the stems were split apart.
func (c *CLI) Mix(ctx context.Context, inputs []string, dst string) error {
	if len(inputs) == 0 {
		return errors.New("at least one input required")
	}
	if dst == "" {
		return errors.New("destination path required")
	}

	runCtx, cancel := c.boundContext(ctx)
	defer cancel()

	args := []string{"-y", "-hide_banner", "-loglevel", "error"}
	for _, input := range inputs {
		if input == "" {
			return errors.New("input path required")
		}
		args = append(args, "-i", input)
	}
	if len(inputs) > 1 {
		filter := fmt.Sprintf("amix=inputs=%d:duration=longest:normalize=0", len(inputs))
		args = append(args, "-filter_complex", filter)
	}
	args = append(args, "-c:a", "pcm_s16le", dst)

	cmd := commandContext(runCtx, c.ffmpegBin, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg mix: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}

func (c *CLI) boundContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout > 0 {
		return context.WithTimeout(ctx, c.timeout)
	}
	return context.WithCancel(ctx)
}

func (c *CLI) runWw2ogg(ctx context.Context, src, dst string) error {
	args := []string{src, "-o", dst}
	if c.codebooksPath != "" {
		args = append(args, "--pcb", c.codebooksPath)
	}
	cmd := commandContext(ctx, c.ww2oggBin, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ww2ogg: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}

// runRevorb rebuilds OGG granule positions. Some WEM payloads fail the pass
// yet still decode fine, so a failure only logs a warning.
func (c *CLI) runRevorb(ctx context.Context, path string) {
	cmd := commandContext(ctx, c.revorbBin, path) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		c.logger.Warn("revorb failed, continuing with ww2ogg output",
			logging.String("path", filepath.Base(path)),
			logging.String("output", strings.TrimSpace(string(output))),
			logging.Error(err))
	}
}

var _ Converter = (*CLI)(nil)

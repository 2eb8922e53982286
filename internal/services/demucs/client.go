package demucs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

var commandContext = exec.CommandContext

// DefaultModel is the separation model used when none is configured.
const DefaultModel = "htdemucs"

// Classification markers for failures the pipeline reacts to.
var (
	// ErrModelUnavailable indicates the requested model could not be loaded.
	ErrModelUnavailable = errors.New("separation model unavailable")
	// ErrDeviceUnsupported indicates the requested compute device cannot run.
	ErrDeviceUnsupported = errors.New("compute device unsupported")
)

// Stems maps a stem name (drums, bass, vocals, other, ...) to the path of
// its rendered WAV file.
type Stems map[string]string

// Options select the model and compute device for one separation.
type Options struct {
	Model string
	// Device is "cpu" or "cuda". Empty or "auto" omits the flag so the
	// tool picks an accelerator when one is available.
	Device string
}

// ProgressUpdate captures separation progress parsed from tool output.
// Percent is negative when the line carried no percentage.
type ProgressUpdate struct {
	Percent float64
	Phase   string
	Message string
}

// Separator defines source-separation behaviour.
type Separator interface {
	Separate(ctx context.Context, wavPath, outDir string, opts Options, progress func(ProgressUpdate)) (Stems, error)
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

// WithTimeout bounds a single separation invocation.
func WithTimeout(seconds int) Option {
	return func(c *CLI) {
		if seconds > 0 {
			c.timeout = time.Duration(seconds) * time.Second
		}
	}
}

// CLI wraps the demucs command-line separator.
type CLI struct {
	binary  string
	timeout time.Duration
}

// NewCLI constructs a CLI client using defaults.
func NewCLI(opts ...Option) *CLI {
	cli := &CLI{binary: "demucs"}
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

// Separate runs the separator on wavPath and returns the stem WAV paths it
// produced under outDir.
func (c *CLI) Separate(ctx context.Context, wavPath, outDir string, opts Options, progress func(ProgressUpdate)) (Stems, error) {
	if wavPath == "" {
		return nil, errors.New("input path required")
	}
	if outDir == "" {
		return nil, errors.New("output directory required")
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = DefaultModel
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	runCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	args := []string{"--name", model, "--out", outDir}
	if device := normalizeDevice(opts.Device); device != "" {
		args = append(args, "--device", device)
	}
	args = append(args, wavPath)

	cmd := commandContext(runCtx, c.binary, args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	cmd.Stderr = cmd.Stdout
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start demucs: %w", err)
	}

	var tail []string
	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		line := scanner.Text()
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			tail = append(tail, trimmed)
			if len(tail) > 12 {
				tail = tail[1:]
			}
		}
		if update, ok := parseProgress(line); ok && progress != nil {
			progress(update)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read demucs output: %w", err)
	}

	if err := cmd.Wait(); err != nil {
		return nil, classifyFailure(err, strings.Join(tail, "\n"))
	}

	return collectStems(outDir, model, wavPath)
}

func normalizeDevice(device string) string {
	device = strings.ToLower(strings.TrimSpace(device))
	if device == "auto" {
		return ""
	}
	return device
}

// collectStems locates the per-track stem directory the tool writes under
// <outDir>/<model>/<track> and maps each WAV in it by stem name.
func collectStems(outDir, model, wavPath string) (Stems, error) {
	track := strings.TrimSuffix(filepath.Base(wavPath), filepath.Ext(wavPath))
	stemsDir := filepath.Join(outDir, model, track)

	entries, err := os.ReadDir(stemsDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("demucs produced no stem directory at %s", stemsDir)
		}
		return nil, fmt.Errorf("inspect stem directory: %w", err)
	}

	stems := make(Stems)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.EqualFold(filepath.Ext(name), ".wav") {
			continue
		}
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		stems[stem] = filepath.Join(stemsDir, name)
	}
	if len(stems) == 0 {
		return nil, fmt.Errorf("demucs produced no stems in %s", stemsDir)
	}
	return stems, nil
}

var deviceMarkers = []string{
	"torch not compiled with cuda",
	"cuda is not available",
	"no cuda gpus are available",
	"found no nvidia driver",
	"invalid device",
	"cuda error",
	"cuda out of memory",
}

var modelMarkers = []string{
	"is not a valid model",
	"could not load pretrained",
	"no pretrained model",
	"unknown model",
}

// classifyFailure inspects the trailing tool output so callers can
// distinguish device and model problems from generic failures.
func classifyFailure(err error, output string) error {
	lowered := strings.ToLower(output)
	detail := strings.TrimSpace(output)
	switch {
	case containsAny(lowered, deviceMarkers):
		return fmt.Errorf("%w: %w: %s", ErrDeviceUnsupported, err, detail)
	case containsAny(lowered, modelMarkers):
		return fmt.Errorf("%w: %w: %s", ErrModelUnavailable, err, detail)
	default:
		return fmt.Errorf("demucs separate: %w: %s", err, detail)
	}
}

func containsAny(haystack string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(haystack, needle) {
			return true
		}
	}
	return false
}

// parseProgress recognises the tool's textual progress output: phase lines
// ("Separating track ...") and tqdm-style percentage bars.
func parseProgress(line string) (ProgressUpdate, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return ProgressUpdate{}, false
	}
	if strings.HasPrefix(trimmed, "Separating track") {
		return ProgressUpdate{Percent: -1, Phase: "separating", Message: trimmed}, true
	}
	if strings.HasPrefix(trimmed, "Downloading") {
		return ProgressUpdate{Percent: -1, Phase: "fetching model", Message: trimmed}, true
	}
	if percent, ok := parseBarPercent(trimmed); ok {
		return ProgressUpdate{Percent: percent, Phase: "separating"}, true
	}
	return ProgressUpdate{}, false
}

// parseBarPercent extracts N from lines shaped like "  45%|████ | ...".
func parseBarPercent(line string) (float64, bool) {
	idx := strings.Index(line, "%|")
	if idx <= 0 {
		return 0, false
	}
	start := idx
	for start > 0 && line[start-1] >= '0' && line[start-1] <= '9' {
		start--
	}
	if start == idx {
		return 0, false
	}
	value, err := strconv.Atoi(line[start:idx])
	if err != nil || value < 0 || value > 100 {
		return 0, false
	}
	return float64(value), true
}

var _ Separator = (*CLI)(nil)

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"stemstrip/internal/batch"
	"stemstrip/internal/config"
	"stemstrip/internal/logging"
	"stemstrip/internal/notifications"
	"stemstrip/internal/pipeline"
	"stemstrip/internal/preflight"
	"stemstrip/internal/services/audioconv"
	"stemstrip/internal/services/demucs"
	"stemstrip/internal/services/psarc"
	"stemstrip/internal/staging"
)

// staleScratchAge is how old a scratch directory must be before a new run
// reclaims it. Generous because a single separation can run for hours.
const staleScratchAge = 24 * time.Hour

type runFlags struct {
	model          string
	device         string
	workers        int
	force          bool
	verbose        bool
	recursive      bool
	excludeStems   []string
	deviceFallback bool
	dryRun         bool

	modelSet     bool
	deviceSet    bool
	workersSet   bool
	excludeSet   bool
	recursiveSet bool
	fallbackSet  bool
}

func (f *runFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.model, "model", "", "Separation model (default htdemucs)")
	flags.StringVar(&f.device, "device", "", "Compute device: auto, cpu, or cuda")
	flags.IntVarP(&f.workers, "workers", "w", 0, "Concurrent archives (0 uses the CPU count)")
	flags.BoolVarP(&f.force, "force", "f", false, "Reprocess archives even when the output is up to date")
	flags.BoolVarP(&f.verbose, "verbose", "v", false, "Log per-stage progress")
	flags.BoolVarP(&f.recursive, "recursive", "r", false, "Recurse into subdirectories of INPUT_PATH")
	flags.StringArrayVar(&f.excludeStems, "exclude-stem", nil, "Stem to drop from the backing track (repeatable, default other)")
	flags.BoolVar(&f.deviceFallback, "device-fallback", false, "Retry separation on cpu when the chosen device is unusable")
	flags.BoolVar(&f.dryRun, "dry-run", false, "List what the run would do without processing anything")
}

// noteChanged records which flags the user actually set so config values are
// only overridden on explicit request.
func (f *runFlags) noteChanged(cmd *cobra.Command) {
	flags := cmd.Flags()
	f.modelSet = flags.Changed("model")
	f.deviceSet = flags.Changed("device")
	f.workersSet = flags.Changed("workers")
	f.excludeSet = flags.Changed("exclude-stem")
	f.recursiveSet = flags.Changed("recursive")
	f.fallbackSet = flags.Changed("device-fallback")
}

// runOptions is the resolved, immutable option set for one batch run. Flags
// win over config; config supplies the rest.
type runOptions struct {
	model          string
	device         string
	workers        int
	force          bool
	verbose        bool
	recursive      bool
	excludeStems   []string
	deviceFallback bool
	dryRun         bool
	shutdownGrace  time.Duration
}

func resolveRunOptions(cfg *config.Config, flags *runFlags) (runOptions, error) {
	opts := runOptions{
		model:          cfg.Separation.Model,
		device:         cfg.Separation.Device,
		workers:        cfg.Workflow.Workers,
		force:          flags.force,
		verbose:        flags.verbose,
		recursive:      cfg.Workflow.Recursive,
		excludeStems:   cfg.Separation.ExcludeStems,
		deviceFallback: cfg.Separation.DeviceFallback,
		dryRun:         flags.dryRun,
		shutdownGrace:  time.Duration(cfg.Workflow.ShutdownGracePeriod) * time.Second,
	}
	if flags.modelSet {
		opts.model = strings.TrimSpace(flags.model)
	}
	if flags.deviceSet {
		opts.device = strings.ToLower(strings.TrimSpace(flags.device))
		switch opts.device {
		case "auto", "cpu", "cuda":
		default:
			return runOptions{}, fmt.Errorf("--device must be one of auto, cpu, cuda (got %q)", flags.device)
		}
	}
	if flags.workersSet {
		if flags.workers < 0 {
			return runOptions{}, errors.New("--workers must be >= 0 (0 uses the CPU count)")
		}
		opts.workers = flags.workers
	}
	if flags.recursiveSet {
		opts.recursive = flags.recursive
	}
	if flags.fallbackSet {
		opts.deviceFallback = flags.deviceFallback
	}
	if flags.excludeSet {
		stems := make([]string, 0, len(flags.excludeStems))
		seen := make(map[string]struct{}, len(flags.excludeStems))
		for _, stem := range flags.excludeStems {
			normalized := strings.ToLower(strings.TrimSpace(stem))
			if normalized == "" {
				continue
			}
			if _, dup := seen[normalized]; dup {
				continue
			}
			seen[normalized] = struct{}{}
			stems = append(stems, normalized)
		}
		opts.excludeStems = stems
	}
	return opts, nil
}

func runBatch(cmdCtx context.Context, cmdContext *commandContext, out io.Writer, inputArg, outputArg string, flags *runFlags) error {
	signalCtx, stop := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := cmdContext.ensureConfig()
	if err != nil {
		return err
	}
	opts, err := resolveRunOptions(cfg, flags)
	if err != nil {
		return err
	}

	inputPath, err := config.ExpandPath(inputArg)
	if err != nil {
		return fmt.Errorf("resolve input path: %w", err)
	}
	outputDir, err := config.ExpandPath(outputArg)
	if err != nil {
		return fmt.Errorf("resolve output directory: %w", err)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	items, err := batch.Discover(inputPath, outputDir, opts.recursive)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Fprintf(out, "No %s archives found under %s\n", batch.ArchiveExtension, inputPath)
		return nil
	}

	if opts.dryRun {
		renderDryRun(out, items, opts.force)
		return nil
	}

	if failed := preflight.Failed(preflight.RunAll(cfg, outputDir)); len(failed) > 0 {
		renderPreflightFailures(out, failed)
		return fmt.Errorf("%d preflight check(s) failed", len(failed))
	}

	logger, err := buildRunLogger(cfg, opts.verbose)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	lock := flock.New(filepath.Join(cfg.Paths.StagingDir, "stemstrip.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire staging lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another stemstrip run is already using %s", cfg.Paths.StagingDir)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("failed to release staging lock", logging.Error(err))
		}
	}()

	// Sweep scratch left behind by runs that died before their own cleanup.
	staging.CleanStale(cfg.Paths.StagingDir, staleScratchAge, logger)

	runner, err := buildRunner(cfg, opts, logger)
	if err != nil {
		return err
	}
	scheduler, err := batch.NewScheduler(runner,
		batch.WithWorkers(opts.workers),
		batch.WithForce(opts.force),
		batch.WithShutdownGrace(opts.shutdownGrace),
		batch.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	notifier := notifications.NewService(cfg)
	if err := notifier.NotifyRunStarted(signalCtx, len(items)); err != nil {
		logger.Warn("run start notification failed", logging.Error(err))
	}

	logger.Info("run starting",
		logging.Int("archives", len(items)),
		logging.String("input", inputPath),
		logging.String("output", outputDir),
		logging.String("model", opts.model),
		logging.String("device", opts.device))

	report := scheduler.Run(signalCtx, items)
	summary := report.Summarize()

	notifyCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	notifyRunOutcome(notifyCtx, notifier, logger, summary)

	renderRunSummary(out, summary)

	if !summary.Ok() {
		noun := "archive"
		if summary.Failed != 1 {
			noun = "archives"
		}
		return fmt.Errorf("%d %s failed", summary.Failed, noun)
	}
	return nil
}

func buildRunner(cfg *config.Config, opts runOptions, logger *slog.Logger) (*pipeline.Runner, error) {
	codec := psarc.NewCLI(
		psarc.WithBinary(cfg.Tools.PsarcBin),
		psarc.WithUnpackTimeout(cfg.Tools.UnpackTimeout),
		psarc.WithPackTimeout(cfg.Tools.RepackTimeout),
	)
	converter := audioconv.NewCLI(
		audioconv.WithFFmpegBinary(cfg.Tools.FFmpegBin),
		audioconv.WithWw2oggBinary(cfg.Tools.Ww2oggBin),
		audioconv.WithRevorbBinary(cfg.Tools.RevorbBin),
		audioconv.WithWav2wemBinary(cfg.Tools.Wav2wemBin),
		audioconv.WithCodebooks(cfg.Tools.CodebooksPath),
		audioconv.WithTimeout(cfg.Tools.ConvertTimeout),
		audioconv.WithLogger(logger),
	)
	separator := demucs.NewCLI(
		demucs.WithBinary(cfg.Tools.DemucsBin),
		demucs.WithTimeout(cfg.Separation.SeparateTimeout),
	)

	return pipeline.NewRunner(codec, converter, separator, cfg.Paths.StagingDir, pipeline.Options{
		Model:          opts.model,
		Device:         opts.device,
		ExcludeStems:   opts.excludeStems,
		DeviceFallback: opts.deviceFallback,
	}, logger)
}

// notifyRunOutcome sends the run-level notification plus one alert per failed
// archive. A dead notification endpoint only costs one warning.
func notifyRunOutcome(ctx context.Context, notifier notifications.Service, logger *slog.Logger, summary batch.Summary) {
	if err := notifier.NotifyRunCompleted(ctx, summary.Processed, summary.Skipped, summary.Failed, summary.Duration); err != nil {
		logger.Warn("run completion notification failed", logging.Error(err))
		return
	}
	for _, failure := range summary.Failures {
		if err := notifier.NotifyItemFailed(ctx, failure.Item.Title, string(failure.Stage), failure.Cause); err != nil {
			logger.Warn("failure notification failed", logging.Error(err))
			return
		}
	}
}

func buildRunLogger(cfg *config.Config, verbose bool) (*slog.Logger, error) {
	level := cfg.Logging.Level
	if verbose {
		level = "debug"
	}
	logPath := filepath.Join(cfg.Paths.LogDir, "stemstrip.log")
	return logging.New(logging.Options{
		Level:            level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", logPath},
		ErrorOutputPaths: []string{"stderr", logPath},
	})
}

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"stemstrip/internal/batch"
	"stemstrip/internal/fileutil"
	"stemstrip/internal/logging"
	"stemstrip/internal/services"
	"stemstrip/internal/services/audioconv"
	"stemstrip/internal/services/demucs"
	"stemstrip/internal/services/psarc"
)

// audioExtensions is the payload extension set recognised inside an
// extracted archive.
var audioExtensions = map[string]struct{}{
	".wem":  {},
	".ogg":  {},
	".wav":  {},
	".flac": {},
}

// fallbackMix is used when stem exclusion leaves nothing to mix: the
// conventional rhythm-section stems, taken regardless of the exclusion list.
var fallbackMix = []string{"drums", "bass", "vocals"}

// Options are the per-run separation settings. They are fixed before the
// first item is dispatched.
type Options struct {
	Model          string
	Device         string
	ExcludeStems   []string
	DeviceFallback bool
}

// Runner drives one item through the four pipeline stages, delegating the
// heavy lifting to the archive codec, audio converter, and source
// separator. It implements batch.Processor.
type Runner struct {
	codec      psarc.Codec
	converter  audioconv.Converter
	separator  demucs.Separator
	stagingDir string
	opts       Options
	logger     *slog.Logger
}

// NewRunner constructs a Runner. All three collaborators are required.
func NewRunner(codec psarc.Codec, converter audioconv.Converter, separator demucs.Separator, stagingDir string, opts Options, logger *slog.Logger) (*Runner, error) {
	if codec == nil {
		return nil, errors.New("archive codec required")
	}
	if converter == nil {
		return nil, errors.New("audio converter required")
	}
	if separator == nil {
		return nil, errors.New("source separator required")
	}
	if strings.TrimSpace(stagingDir) == "" {
		return nil, errors.New("staging directory required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{
		codec:      codec,
		converter:  converter,
		separator:  separator,
		stagingDir: stagingDir,
		opts:       opts,
		logger:     logging.NewComponentLogger(logger, "pipeline"),
	}, nil
}

// payload tracks one audio file through the stages: its original location
// in the extracted tree, the decoded WAV handed to the separator, and the
// mixed backing track that replaces it.
type payload struct {
	archivePath string
	workWAV     string
	backingWAV  string
}

// Process runs the fixed stage sequence for one item, stopping at the first
// failure. The item's scratch directory is removed on every exit path.
func (r *Runner) Process(ctx context.Context, item batch.Item) batch.Outcome {
	start := time.Now()
	logger := logging.WithContext(ctx, r.logger)

	scratch := filepath.Join(r.stagingDir, uuid.NewString())
	if err := os.MkdirAll(scratch, 0o755); err != nil {
		return batch.Failed(item, batch.StageUnpack, services.Wrap(services.ErrConfiguration, string(batch.StageUnpack), "create scratch directory", "", err))
	}
	defer func() {
		if err := os.RemoveAll(scratch); err != nil {
			logger.Warn("failed to remove scratch directory",
				logging.String("path", scratch),
				logging.Error(err))
		}
	}()

	extractDir := filepath.Join(scratch, "extracted")

	if err := r.runStage(ctx, batch.StageUnpack, func(ctx context.Context) error {
		return r.unpack(ctx, item.Path, extractDir)
	}); err != nil {
		return batch.Failed(item, batch.StageUnpack, err)
	}

	var payloads []*payload
	if err := r.runStage(ctx, batch.StageExtractAudio, func(ctx context.Context) error {
		var err error
		payloads, err = r.extractAudio(ctx, logger, extractDir, scratch)
		return err
	}); err != nil {
		return batch.Failed(item, batch.StageExtractAudio, err)
	}

	if err := r.runStage(ctx, batch.StageSeparate, func(ctx context.Context) error {
		return r.separate(ctx, logger, scratch, payloads)
	}); err != nil {
		return batch.Failed(item, batch.StageSeparate, err)
	}

	if err := r.runStage(ctx, batch.StageRepack, func(ctx context.Context) error {
		return r.repack(ctx, extractDir, scratch, item, payloads)
	}); err != nil {
		return batch.Failed(item, batch.StageRepack, err)
	}

	duration := time.Since(start)
	logger.Info("item processed",
		logging.String("output", item.OutputPath),
		logging.Duration("duration", duration))
	return batch.Processed(item, duration)
}

// runStage annotates the context with the stage name and brackets the work
// with start/complete logs.
func (r *Runner) runStage(ctx context.Context, stage batch.Stage, fn func(context.Context) error) error {
	stageCtx := services.WithStage(ctx, string(stage))
	stageLogger := logging.WithContext(stageCtx, r.logger)
	started := time.Now()
	stageLogger.Info("stage started")
	if err := fn(stageCtx); err != nil {
		stageLogger.Error("stage failed",
			logging.Error(err),
			logging.Duration("stage_duration", time.Since(started)))
		return err
	}
	stageLogger.Info("stage completed",
		logging.Duration("stage_duration", time.Since(started)))
	return nil
}

func (r *Runner) unpack(ctx context.Context, archivePath, extractDir string) error {
	if err := r.codec.Unpack(ctx, archivePath, extractDir); err != nil {
		return services.Wrap(services.ErrExternalTool, string(batch.StageUnpack), "extract archive", "", err)
	}
	return nil
}

// extractAudio locates every audio payload in the extracted tree and
// decodes each to a WAV in the scratch workspace. The extracted tree itself
// stays untouched until repack replaces the payloads.
func (r *Runner) extractAudio(ctx context.Context, logger *slog.Logger, extractDir, scratch string) ([]*payload, error) {
	stage := string(batch.StageExtractAudio)

	paths, err := findAudioPayloads(extractDir)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, stage, "scan extracted tree", "", err)
	}
	if len(paths) == 0 {
		return nil, services.Wrap(services.ErrNotFound, stage, "locate audio payload", "archive contains no audio payload", nil)
	}

	audioDir := filepath.Join(scratch, "audio")
	if err := os.MkdirAll(audioDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrTransient, stage, "create audio workspace", "", err)
	}

	payloads := make([]*payload, 0, len(paths))
	for i, path := range paths {
		p := &payload{
			archivePath: path,
			workWAV:     filepath.Join(audioDir, fmt.Sprintf("payload-%02d.wav", i)),
		}
		if strings.EqualFold(filepath.Ext(path), ".wav") {
			// Already the separator's format; copied so stage artifacts
			// stay out of the tree that gets repacked.
			if err := fileutil.CopyFile(path, p.workWAV); err != nil {
				return nil, services.Wrap(services.ErrTransient, stage, "stage payload", filepath.Base(path), err)
			}
		} else if err := r.converter.ToWAV(ctx, path, p.workWAV); err != nil {
			return nil, services.Wrap(services.ErrExternalTool, stage, "convert payload", filepath.Base(path), err)
		}
		logger.Debug("audio payload ready",
			logging.String("payload", filepath.Base(path)),
			logging.String("wav", filepath.Base(p.workWAV)))
		payloads = append(payloads, p)
	}
	return payloads, nil
}

// separate runs source separation for each payload and mixes the kept stems
// into its backing track.
func (r *Runner) separate(ctx context.Context, logger *slog.Logger, scratch string, payloads []*payload) error {
	stage := string(batch.StageSeparate)
	separatedDir := filepath.Join(scratch, "separated")

	for _, p := range payloads {
		stems, err := r.separateOne(ctx, logger, separatedDir, p)
		if err != nil {
			return err
		}

		keep, excluded := partitionStems(stems, r.opts.ExcludeStems)
		if len(keep) == 0 {
			keep = fallbackStems(stems)
			logger.Warn("stem exclusion left nothing to mix, falling back to rhythm stems",
				logging.String("fallback", strings.Join(keep, ", ")))
		}
		if len(keep) == 0 {
			return services.Wrap(services.ErrValidation, stage, "assemble backing track", "no stems left to mix", nil)
		}
		logger.Info("mixing backing track",
			logging.String("kept", strings.Join(keep, ", ")),
			logging.String("excluded", strings.Join(excluded, ", ")))

		inputs := make([]string, 0, len(keep))
		for _, name := range keep {
			inputs = append(inputs, stems[name])
		}
		p.backingWAV = strings.TrimSuffix(p.workWAV, filepath.Ext(p.workWAV)) + "-backing.wav"
		if err := r.converter.Mix(ctx, inputs, p.backingWAV); err != nil {
			return services.Wrap(services.ErrExternalTool, stage, "mix stems", "", err)
		}
	}
	return nil
}

// separateOne invokes the separator, retrying once on CPU when the
// configured device is unusable and the caller opted into the fallback.
func (r *Runner) separateOne(ctx context.Context, logger *slog.Logger, outDir string, p *payload) (demucs.Stems, error) {
	opts := demucs.Options{Model: r.opts.Model, Device: r.opts.Device}
	sampler := logging.NewProgressSampler(0)
	progress := func(update demucs.ProgressUpdate) {
		if sampler.ShouldLog(update.Percent, update.Phase, update.Message) {
			logger.Debug("separation progress",
				logging.Float64("percent", update.Percent),
				logging.String("phase", update.Phase),
				logging.String("message", update.Message))
		}
	}

	stems, err := r.separator.Separate(ctx, p.workWAV, outDir, opts, progress)
	if err == nil {
		return stems, nil
	}
	if r.opts.DeviceFallback && errors.Is(err, demucs.ErrDeviceUnsupported) && !strings.EqualFold(opts.Device, "cpu") {
		logger.Warn("compute device unusable, retrying separation on cpu",
			logging.String("device", opts.Device),
			logging.Error(err))
		opts.Device = "cpu"
		sampler.Reset()
		stems, err = r.separator.Separate(ctx, p.workWAV, outDir, opts, progress)
		if err == nil {
			return stems, nil
		}
	}
	return nil, services.Wrap(services.ErrExternalTool, string(batch.StageSeparate), "separate stems", filepath.Base(p.workWAV), err)
}

// repack encodes each backing track over its original payload, packs the
// modified tree, and publishes the archive atomically: the final output
// path only ever sees a complete archive.
func (r *Runner) repack(ctx context.Context, extractDir, scratch string, item batch.Item, payloads []*payload) error {
	stage := string(batch.StageRepack)

	for _, p := range payloads {
		if err := r.converter.FromWAV(ctx, p.backingWAV, p.archivePath); err != nil {
			return services.Wrap(services.ErrExternalTool, stage, "encode payload", filepath.Base(p.archivePath), err)
		}
	}

	packed := filepath.Join(scratch, filepath.Base(item.OutputPath))
	if err := r.codec.Pack(ctx, extractDir, packed); err != nil {
		return services.Wrap(services.ErrExternalTool, stage, "pack archive", "", err)
	}

	if err := os.MkdirAll(filepath.Dir(item.OutputPath), 0o755); err != nil {
		return services.Wrap(services.ErrTransient, stage, "create output directory", "", err)
	}
	if err := fileutil.MoveFileAtomic(packed, item.OutputPath); err != nil {
		return services.Wrap(services.ErrTransient, stage, "publish archive", "", err)
	}
	return nil
}

func findAudioPayloads(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		if _, ok := audioExtensions[strings.ToLower(filepath.Ext(entry.Name()))]; ok {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

func partitionStems(stems demucs.Stems, exclude []string) (keep, excluded []string) {
	for name := range stems {
		if stemExcluded(name, exclude) {
			excluded = append(excluded, name)
		} else {
			keep = append(keep, name)
		}
	}
	sort.Strings(keep)
	sort.Strings(excluded)
	return keep, excluded
}

func stemExcluded(name string, exclude []string) bool {
	for _, candidate := range exclude {
		if strings.EqualFold(name, candidate) {
			return true
		}
	}
	return false
}

// fallbackStems ignores the exclusion list on purpose: it exists to rescue
// a run whose exclusion swallowed every stem.
func fallbackStems(stems demucs.Stems) []string {
	var keep []string
	for _, name := range fallbackMix {
		if _, ok := stems[name]; ok {
			keep = append(keep, name)
		}
	}
	return keep
}

var _ batch.Processor = (*Runner)(nil)

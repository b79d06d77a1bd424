package usecase

import (
	"context"
	"fmt"
	"os"

	"github.com/forPelevin/clipmix/internal/domain/clips"
	"github.com/forPelevin/clipmix/internal/domain/silence"
	"github.com/forPelevin/clipmix/internal/types"
)

// runClip drives one job through detecting, parsing, selecting and
// extracting. On failure the returned error is a *types.JobError carrying
// the stage that failed.
func (u Usecase) runClip(ctx context.Context, job *types.ClipJob, rnd types.Rand, cfg types.CompilationConfig) (err error) {
	log := u.d.Logger.With("clip", job.Index)
	stage := types.StageDetecting
	defer func() {
		if err == nil {
			return
		}
		if canceled(ctx) {
			log.Debug("clip cancelled", "stage", stage)
		} else {
			log.Error("clip failed", "stage", stage, "error", err)
		}
		err = &types.JobError{Index: job.Index, Stage: stage, Err: err}
	}()

	log.Info("detecting silences", "source", job.Source)
	if err := u.d.Media.DetectSilence(ctx, job.Source, cfg.Level, cfg.SilenceDuration, job.SilencePath); err != nil {
		return fmt.Errorf("%w: %w", types.ErrDetection, err)
	}

	stage = types.StageParsing
	log.Info("parsing silences")
	report, err := u.readReport(job.SilencePath)
	if err != nil {
		return err
	}

	stage = types.StageSelecting
	w, r, err := clips.Select(report, rnd)
	if err != nil {
		return err
	}
	if err := w.Validate(); err != nil {
		return fmt.Errorf("%w: after silence %d: %w", types.ErrExtraction, r, err)
	}
	job.Window = w
	log.Debug("window selected", "silence", r, "start", w.Start, "duration", w.Duration)

	stage = types.StageExtracting
	log.Info("extracting clip", "start", w.Start, "duration", w.Duration)
	if err := u.d.Media.ExtractClip(ctx, job.Source, w, job.ClipPath); err != nil {
		return fmt.Errorf("%w: %w", types.ErrExtraction, err)
	}

	stage = types.StageDone
	log.Info("clip ready")
	return nil
}

// readReport reads and removes the detection artifact, then parses it.
func (u Usecase) readReport(path string) (types.SilenceReport, error) {
	b, err := os.ReadFile(path)
	u.remove(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrFilesystem, err)
	}

	report, err := silence.Parse(string(b))
	if err != nil {
		return nil, err
	}
	if len(report) == 0 {
		return nil, fmt.Errorf("%w: no silence_end lines in detection output", types.ErrDetection)
	}
	return report, nil
}

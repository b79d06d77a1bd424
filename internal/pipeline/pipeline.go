package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/gofrs/flock"

	"github.com/forPelevin/clipmix/internal/ports"
	"github.com/forPelevin/clipmix/internal/ports/adapters/ffmpeg"
	"github.com/forPelevin/clipmix/internal/storage"
	"github.com/forPelevin/clipmix/internal/types"
	"github.com/forPelevin/clipmix/internal/usecase"
)

type Config struct {
	Inputs       []string
	Output       string
	ManifestPath string

	Level           int
	SilenceDuration float64
	Count           int
	Parallelism     int
	// Seed makes source and window selection reproducible when non-zero.
	Seed int64

	// TempDir is the parent of the per-run workspace. Empty means os.TempDir().
	TempDir    string
	FFmpegPath string

	S3     storage.S3Config
	Logger *slog.Logger
}

func (c Config) Validate() error {
	if len(c.Inputs) == 0 {
		return fmt.Errorf("%w: at least one source file is required", types.ErrInput)
	}
	for _, in := range c.Inputs {
		st, err := os.Stat(in)
		if err != nil {
			return fmt.Errorf("%w: stat input: %w", types.ErrInput, err)
		}
		if st.IsDir() {
			return fmt.Errorf("%w: input %s is a directory", types.ErrInput, in)
		}
	}
	if c.Count < 1 {
		return fmt.Errorf("%w: count must be > 0", types.ErrInput)
	}
	if c.Level < 0 || c.Level > 60 {
		return fmt.Errorf("%w: level must be within 0..60 dB", types.ErrInput)
	}
	if c.SilenceDuration <= 0 {
		return fmt.Errorf("%w: silence duration must be > 0", types.ErrInput)
	}
	if c.Parallelism < 0 {
		return fmt.Errorf("%w: parallelism must be >= 0", types.ErrInput)
	}
	if c.Output == "" {
		return fmt.Errorf("%w: output is empty", types.ErrInput)
	}
	if st, err := os.Stat(filepath.Dir(c.Output)); err != nil {
		return fmt.Errorf("%w: output directory: %w", types.ErrInput, err)
	} else if !st.IsDir() {
		return fmt.Errorf("%w: output directory %s is not a directory", types.ErrInput, filepath.Dir(c.Output))
	}
	return nil
}

// Run builds one compilation into cfg.Output and returns its manifest.
func Run(ctx context.Context, cfg Config) (types.Manifest, error) {
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	unlock, err := lockOutput(cfg.Output)
	if err != nil {
		return types.Manifest{}, err
	}
	defer unlock()

	ws, err := storage.NewWorkspace(cfg.TempDir)
	if err != nil {
		return types.Manifest{}, err
	}
	defer func() {
		if err := ws.Close(); err != nil {
			log.Warn("cleanup failed", "error", err)
		}
	}()
	log = log.With("run", ws.RunID())
	log.Debug("workspace ready", "dir", ws.Dir())

	uc := usecase.New(usecase.Deps{
		Media:  ffmpeg.New(cfg.FFmpegPath),
		Rand:   newRand(cfg.Seed),
		Logger: log,
	})

	res, err := uc.Compile(ctx, usecase.Input{
		Sources: cfg.Inputs,
		Config: types.CompilationConfig{
			Level:           cfg.Level,
			SilenceDuration: cfg.SilenceDuration,
			Count:           cfg.Count,
			Parallelism:     cfg.Parallelism,
		},
		WorkDir: ws.Dir(),
		Output:  cfg.Output,
	})
	if err != nil {
		return types.Manifest{}, err
	}

	now := time.Now().UTC()
	m := buildManifest(cfg, res, now)

	if cfg.S3.Enabled() {
		pub, err := storage.NewS3Publisher(ctx, cfg.S3)
		if err != nil {
			return m, err
		}
		url, err := publish(ctx, pub, cfg.Output, objectKey(cfg.Output, ws.RunID(), now))
		if err != nil {
			return m, err
		}
		m.URL = url
		log.Info("published", "url", url)
	}

	if cfg.ManifestPath != "" {
		if err := writeManifest(cfg.ManifestPath, m); err != nil {
			return m, err
		}
		log.Info("manifest written", "clips", len(m.Clips), "path", cfg.ManifestPath)
	}
	return m, nil
}

// lockOutput takes an exclusive lock next to output so two runs cannot
// write the same file.
func lockOutput(output string) (func(), error) {
	lockPath := output + ".lock"
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire output lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("another clipmix run is writing %s", output)
	}
	return func() {
		_ = lock.Unlock()
		_ = os.Remove(lockPath)
	}, nil
}

func newRand(seed int64) types.Rand {
	if seed == 0 {
		return nil
	}
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)))
}

func publish(ctx context.Context, pub ports.Publisher, localPath, key string) (string, error) {
	url, err := pub.Publish(ctx, localPath, key)
	if err != nil {
		return "", fmt.Errorf("publish %s: %w", localPath, err)
	}
	return url, nil
}

func buildManifest(cfg Config, res usecase.Result, now time.Time) types.Manifest {
	m := types.Manifest{
		Output:    res.Output,
		Level:     cfg.Level,
		Duration:  cfg.SilenceDuration,
		CreatedAt: now.UTC().Format(time.RFC3339),
	}
	for _, job := range res.Jobs {
		m.Clips = append(m.Clips, types.ManifestClip{
			Index:       job.Index,
			Source:      job.Source,
			StartSec:    job.Window.Start,
			DurationSec: job.Window.Duration,
		})
	}
	return m
}

func writeManifest(path string, m types.Manifest) error {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// objectKey names an uploaded compilation after the output file, the time
// and the run.
func objectKey(output, runID string, now time.Time) string {
	ext := filepath.Ext(output)
	name := normalizePathSegment(strings.TrimSuffix(filepath.Base(output), ext))
	if name == "" {
		name = "compilation"
	}
	if ext == "" {
		ext = ".mp4"
	}
	ts := now.UTC().Format("20060102-150405Z")
	suffix := strings.ReplaceAll(runID, "-", "")
	if len(suffix) > 8 {
		suffix = suffix[:8]
	}
	return fmt.Sprintf("%s-%s-%s%s", name, ts, suffix, ext)
}

func normalizePathSegment(s string) string {
	var b strings.Builder
	prevDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

// IsInputError reports whether err was caused by invalid arguments.
func IsInputError(err error) bool {
	return errors.Is(err, types.ErrInput)
}

// ensure adapters implement ports
var _ ports.MediaTool = (*ffmpeg.Adapter)(nil)
var _ ports.Publisher = (*storage.S3Publisher)(nil)

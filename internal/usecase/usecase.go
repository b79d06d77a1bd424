package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/forPelevin/clipmix/internal/ports"
	"github.com/forPelevin/clipmix/internal/storage"
	"github.com/forPelevin/clipmix/internal/types"
)

const (
	concatName  = "concat.ts"
	partialName = "compilation"
)

type Deps struct {
	Media  ports.MediaTool
	Rand   types.Rand
	Logger *slog.Logger
}

type Usecase struct {
	d   Deps
	rnd types.Rand
}

func New(d Deps) Usecase {
	if d.Logger == nil {
		d.Logger = slog.New(slog.DiscardHandler)
	}
	var rnd types.Rand = globalRand{}
	if d.Rand != nil {
		rnd = d.Rand
	}
	return Usecase{d: d, rnd: rnd}
}

type Input struct {
	Sources []string
	Config  types.CompilationConfig
	// WorkDir holds every intermediate artifact of the run.
	WorkDir string
	Output  string
}

type Result struct {
	Jobs   []types.ClipJob
	Output string
}

// Compile runs one clip pipeline per requested clip, waits for all of them
// and then combines and re-encodes the clips into in.Output. If any clip
// fails nothing is combined and the intermediates are removed.
func (u Usecase) Compile(ctx context.Context, in Input) (Result, error) {
	if err := validateInput(in); err != nil {
		return Result{}, err
	}
	log := u.d.Logger

	jobs, rnds := u.plan(in)
	log.Info("started generating new compilation", "clips", len(jobs), "sources", len(in.Sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism(in.Config))
	for i := range jobs {
		job, rnd := &jobs[i], rnds[i]
		g.Go(func() error {
			return u.runClip(gctx, job, rnd, in.Config)
		})
	}
	if err := g.Wait(); err != nil {
		u.discard(jobs)
		return Result{Jobs: jobs}, err
	}

	concatPath := filepath.Join(in.WorkDir, concatName)
	if err := u.combine(ctx, jobs, concatPath); err != nil {
		return Result{Jobs: jobs}, fmt.Errorf("%s: %w", types.StageCombining, err)
	}
	if err := u.reencode(ctx, concatPath, in.WorkDir, in.Output); err != nil {
		return Result{Jobs: jobs}, fmt.Errorf("%s: %w", types.StageReencoding, err)
	}

	log.Info("done", "output", in.Output)
	return Result{Jobs: jobs, Output: in.Output}, nil
}

func validateInput(in Input) error {
	switch {
	case len(in.Sources) == 0:
		return fmt.Errorf("%w: no source files", types.ErrInput)
	case in.Config.Count < 1:
		return fmt.Errorf("%w: count must be >= 1, got %d", types.ErrInput, in.Config.Count)
	case in.WorkDir == "":
		return fmt.Errorf("%w: work dir is empty", types.ErrInput)
	case in.Output == "":
		return fmt.Errorf("%w: output is empty", types.ErrInput)
	}
	return nil
}

// plan creates Count jobs, each with a source drawn uniformly with
// replacement and artifact paths namespaced by index. Every job also gets
// its own window source seeded in index order, so a seeded run selects the
// same windows however the pipelines interleave.
func (u Usecase) plan(in Input) ([]types.ClipJob, []types.Rand) {
	jobs := make([]types.ClipJob, in.Config.Count)
	rnds := make([]types.Rand, len(jobs))
	for i := range jobs {
		jobs[i] = types.ClipJob{
			Index:       i,
			Source:      in.Sources[u.rnd.IntN(len(in.Sources))],
			SilencePath: filepath.Join(in.WorkDir, fmt.Sprintf("silences_%d", i)),
			ClipPath:    filepath.Join(in.WorkDir, fmt.Sprintf("generated_clip_%d.ts", i)),
		}
		rnds[i] = u.jobRand(i)
	}
	return jobs, rnds
}

func (u Usecase) jobRand(i int) types.Rand {
	if u.d.Rand == nil {
		return globalRand{}
	}
	seed := uint64(u.d.Rand.IntN(math.MaxInt))
	return rand.New(rand.NewPCG(seed, uint64(i)))
}

func parallelism(cfg types.CompilationConfig) int {
	if cfg.Parallelism <= 0 || cfg.Parallelism > cfg.Count {
		return cfg.Count
	}
	return cfg.Parallelism
}

// combine concatenates the clips in index order and removes them.
func (u Usecase) combine(ctx context.Context, jobs []types.ClipJob, concatPath string) error {
	u.d.Logger.Info("combining clips", "clips", len(jobs))

	paths := make([]string, len(jobs))
	for i, job := range jobs {
		if _, err := os.Stat(job.ClipPath); err != nil {
			u.discard(jobs)
			return fmt.Errorf("%w: clip %d: %w", types.ErrFilesystem, job.Index, err)
		}
		paths[i] = job.ClipPath
	}

	err := u.d.Media.Concat(ctx, paths, concatPath)
	u.discard(jobs)
	if err != nil {
		u.remove(concatPath)
		return fmt.Errorf("%w: %w", types.ErrExtraction, err)
	}
	return nil
}

// reencode encodes into the work dir and moves the result onto output.
// On failure output is left as it was.
func (u Usecase) reencode(ctx context.Context, concatPath, workDir, output string) error {
	u.d.Logger.Info("re-encoding", "output", output)

	defer u.remove(concatPath)
	if _, err := os.Stat(concatPath); err != nil {
		return fmt.Errorf("%w: %w", types.ErrFilesystem, err)
	}
	partial := filepath.Join(workDir, partialName+filepath.Ext(output))
	if err := u.d.Media.Reencode(ctx, concatPath, partial); err != nil {
		u.remove(partial)
		return fmt.Errorf("%w: %w", types.ErrExtraction, err)
	}
	if err := storage.Move(partial, output); err != nil {
		u.remove(partial)
		return fmt.Errorf("%w: %w", types.ErrFilesystem, err)
	}
	return nil
}

// discard removes every per-clip artifact. Failures are logged only.
func (u Usecase) discard(jobs []types.ClipJob) {
	for _, job := range jobs {
		u.remove(job.SilencePath, job.ClipPath)
	}
}

func (u Usecase) remove(paths ...string) {
	if err := storage.Remove(paths...); err != nil {
		u.d.Logger.Warn("cleanup failed", "error", err)
	}
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

func canceled(ctx context.Context) bool {
	return errors.Is(ctx.Err(), context.Canceled) || errors.Is(ctx.Err(), context.DeadlineExceeded)
}

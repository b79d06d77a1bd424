package ports

import (
	"context"

	"github.com/forPelevin/clipmix/internal/types"
)

// MediaTool is the external media engine. Every method blocks until the
// underlying subprocess exits and returns an error on non-zero exit.
type MediaTool interface {
	// DetectSilence writes the silence_end diagnostic lines for src to outPath.
	DetectSilence(ctx context.Context, src string, levelDB int, minSilence float64, outPath string) error
	ExtractClip(ctx context.Context, src string, w types.ClipWindow, outPath string) error
	// Concat joins inputs in the given order without re-encoding.
	Concat(ctx context.Context, inputs []string, outPath string) error
	Reencode(ctx context.Context, inPath, outPath string) error
}

type Publisher interface {
	Publish(ctx context.Context, localPath, key string) (url string, err error)
}

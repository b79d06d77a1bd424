package clips

import (
	"fmt"

	"github.com/forPelevin/clipmix/internal/types"
)

const (
	// PreRoll starts a clip slightly before the detected end of silence,
	// compensating for detection lag.
	PreRoll = 0.2
	// TailPad keeps a little of the next silence after the clip's speech.
	TailPad = 0.5
)

// Select picks a random window that starts at the end of one silence and
// runs until the next silence begins. The last event is never chosen as the
// starting silence since nothing bounds the window after it.
func Select(report types.SilenceReport, rnd types.Rand) (types.ClipWindow, int, error) {
	if len(report) < 2 {
		return types.ClipWindow{}, 0, fmt.Errorf("%w: need at least 2 silences, got %d", types.ErrInsufficientSilence, len(report))
	}
	r := rnd.IntN(len(report) - 1)
	w, err := SelectAt(report, r)
	return w, r, err
}

// SelectAt computes the window starting after silence r.
func SelectAt(report types.SilenceReport, r int) (types.ClipWindow, error) {
	if len(report) < 2 {
		return types.ClipWindow{}, fmt.Errorf("%w: need at least 2 silences, got %d", types.ErrInsufficientSilence, len(report))
	}
	if r < 0 || r >= len(report)-1 {
		return types.ClipWindow{}, fmt.Errorf("silence index %d out of range [0,%d)", r, len(report)-1)
	}
	e, next := report[r], report[r+1]

	start := e.End - PreRoll
	duration := next.End - next.Duration - start + TailPad

	// Clamp to the beginning of the file, keeping the window end where it was.
	if start < 0 {
		duration += start
		start = 0
	}
	return types.ClipWindow{Start: start, Duration: duration}, nil
}

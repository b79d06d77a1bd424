package types

import "fmt"

// SilenceEvent is one silence_end line reported by silencedetect.
type SilenceEvent struct {
	End         float64
	Duration    float64
	HasDuration bool
}

// SilenceReport holds silence events in detection order.
type SilenceReport []SilenceEvent

type ClipWindow struct {
	Start    float64
	Duration float64
}

func (w ClipWindow) Validate() error {
	if w.Start < 0 {
		return fmt.Errorf("window start %.3f is negative", w.Start)
	}
	if w.Duration <= 0 {
		return fmt.Errorf("window duration %.3f is not positive", w.Duration)
	}
	return nil
}

// ClipJob is the unit of work for one generated clip. SilencePath and
// ClipPath are namespaced by Index.
type ClipJob struct {
	Index       int
	Source      string
	SilencePath string
	ClipPath    string
	Window      ClipWindow
}

type CompilationConfig struct {
	Level           int
	SilenceDuration float64
	Count           int
	// Parallelism caps concurrently running clip pipelines. Zero runs one
	// pipeline per clip.
	Parallelism int
}

// Rand is the random source used for source and window selection.
// *math/rand/v2.Rand satisfies it.
type Rand interface {
	IntN(n int) int
}

type Manifest struct {
	Output    string         `json:"output"`
	URL       string         `json:"url,omitempty"`
	Level     int            `json:"level"`
	Duration  float64        `json:"silence_duration"`
	CreatedAt string         `json:"created_at"`
	Clips     []ManifestClip `json:"clips"`
}

type ManifestClip struct {
	Index       int     `json:"index"`
	Source      string  `json:"source"`
	StartSec    float64 `json:"start_sec"`
	DurationSec float64 `json:"duration_sec"`
}

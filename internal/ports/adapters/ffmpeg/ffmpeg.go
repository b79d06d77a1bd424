package ffmpeg

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/forPelevin/clipmix/internal/types"
)

// TargetHeight is the height every extracted clip is scaled to.
const TargetHeight = 720

// Profile is the final re-encode profile.
type Profile struct {
	FPS          int
	VideoCodec   string
	CRF          int
	Preset       string
	AudioCodec   string
	AudioBitrate string
}

var DefaultProfile = Profile{
	FPS:          24,
	VideoCodec:   "libx265",
	CRF:          30,
	Preset:       "slow",
	AudioCodec:   "aac",
	AudioBitrate: "64k",
}

type Adapter struct {
	ffmpeg  string
	profile Profile
}

func New(ffmpegPath string) *Adapter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &Adapter{ffmpeg: ffmpegPath, profile: DefaultProfile}
}

// Result is the outcome of one ffmpeg invocation.
type Result struct {
	ExitCode int
	Output   []byte
}

func (a *Adapter) DetectSilence(ctx context.Context, src string, levelDB int, minSilence float64, outPath string) error {
	res, err := a.run(ctx, "detect silence", detectArgs(src, levelDB, minSilence)...)
	if err != nil {
		return err
	}
	lines, err := filterLines(res.Output, "silence_end")
	if err != nil {
		return fmt.Errorf("ffmpeg detect silence: read output: %w", err)
	}
	return os.WriteFile(outPath, lines, 0o644)
}

func (a *Adapter) ExtractClip(ctx context.Context, src string, w types.ClipWindow, outPath string) error {
	_, err := a.run(ctx, "extract clip", extractArgs(src, w, outPath)...)
	return err
}

func (a *Adapter) Concat(ctx context.Context, inputs []string, outPath string) error {
	if len(inputs) == 0 {
		return errors.New("ffmpeg concat: no inputs")
	}
	_, err := a.run(ctx, "concat", concatArgs(inputs, outPath)...)
	return err
}

func (a *Adapter) Reencode(ctx context.Context, inPath, outPath string) error {
	_, err := a.run(ctx, "re-encode", reencodeArgs(a.profile, inPath, outPath)...)
	return err
}

func (a *Adapter) run(ctx context.Context, op string, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, a.ffmpeg, args...)
	b, err := cmd.CombinedOutput()
	res := Result{Output: b}
	if err == nil {
		return res, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, fmt.Errorf("ffmpeg %s: exit status %d: %w\n%s", op, res.ExitCode, err, tail(b, 20))
	}
	res.ExitCode = -1
	return res, fmt.Errorf("ffmpeg %s: %w", op, err)
}

func detectArgs(src string, levelDB int, minSilence float64) []string {
	return []string{
		"-hide_banner",
		"-nostats",
		"-i", src,
		"-af", fmt.Sprintf("silencedetect=n=-%ddB:d=%s", levelDB, fmtSeconds(minSilence)),
		"-f", "null",
		"-",
	}
}

func extractArgs(src string, w types.ClipWindow, outPath string) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-ss", fmtSeconds(w.Start),
		"-t", fmtSeconds(w.Duration),
		"-i", src,
		"-vf", fmt.Sprintf("scale=-2:%d", TargetHeight),
		outPath,
	}
}

func concatArgs(inputs []string, outPath string) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-i", "concat:" + strings.Join(inputs, "|"),
		"-c", "copy",
		outPath,
	}
}

func reencodeArgs(p Profile, inPath, outPath string) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-i", inPath,
		"-r", strconv.Itoa(p.FPS),
		"-c:v", p.VideoCodec,
		"-crf", strconv.Itoa(p.CRF),
		"-preset", p.Preset,
		"-c:a", p.AudioCodec,
		"-b:a", p.AudioBitrate,
		outPath,
	}
}

// filterLines keeps the lines of out that contain substr, newline terminated.
func filterLines(out []byte, substr string) ([]byte, error) {
	var buf bytes.Buffer
	sc := bufio.NewScanner(bytes.NewReader(out))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if strings.Contains(line, substr) {
			buf.WriteString(strings.TrimRight(line, "\r"))
			buf.WriteByte('\n')
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func tail(b []byte, n int) string {
	lines := strings.Split(strings.TrimRight(string(b), "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}

func fmtSeconds(sec float64) string {
	return strconv.FormatFloat(sec, 'f', 3, 64)
}

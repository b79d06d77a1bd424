package ffmpeg

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forPelevin/clipmix/internal/types"
)

func TestDetectArgs(t *testing.T) {
	got := detectArgs("in.mp4", 30, 0.75)
	assert.Equal(t, []string{
		"-hide_banner", "-nostats",
		"-i", "in.mp4",
		"-af", "silencedetect=n=-30dB:d=0.750",
		"-f", "null", "-",
	}, got)
}

func TestExtractArgs(t *testing.T) {
	got := extractArgs("in.mp4", types.ClipWindow{Start: 9.8, Duration: 9.2}, "generated_clip_0.ts")
	assert.Equal(t, []string{
		"-y", "-hide_banner",
		"-ss", "9.800",
		"-t", "9.200",
		"-i", "in.mp4",
		"-vf", "scale=-2:720",
		"generated_clip_0.ts",
	}, got)
}

func TestConcatArgs_KeepsInputOrder(t *testing.T) {
	got := concatArgs([]string{"c0.ts", "c1.ts", "c2.ts"}, "concat.ts")
	assert.Equal(t, []string{"-y", "-hide_banner", "-i", "concat:c0.ts|c1.ts|c2.ts", "-c", "copy", "concat.ts"}, got)
}

func TestReencodeArgs(t *testing.T) {
	got := reencodeArgs(DefaultProfile, "concat.ts", "out.mp4")
	assert.Equal(t, []string{
		"-y", "-hide_banner",
		"-i", "concat.ts",
		"-r", "24",
		"-c:v", "libx265",
		"-crf", "30",
		"-preset", "slow",
		"-c:a", "aac",
		"-b:a", "64k",
		"out.mp4",
	}, got)
}

func TestFilterLines(t *testing.T) {
	out := []byte("Input #0\r\n[silencedetect @ 0x1] silence_start: 1\r\n[silencedetect @ 0x1] silence_end: 2 | silence_duration: 1\r\nsize=N/A\n")
	got, err := filterLines(out, "silence_end")
	require.NoError(t, err)
	assert.Equal(t, "[silencedetect @ 0x1] silence_end: 2 | silence_duration: 1\n", string(got))

	got, err = filterLines([]byte("nothing here\n"), "silence_end")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFilterLines_OverlongLine(t *testing.T) {
	out := append([]byte("silence_end: 1 | silence_duration: 1\n"), bytes.Repeat([]byte("x"), 2<<20)...)
	out = append(out, "\nsilence_end: 9 | silence_duration: 1\n"...)

	_, err := filterLines(out, "silence_end")
	require.ErrorIs(t, err, bufio.ErrTooLong)
}

func TestTail(t *testing.T) {
	assert.Equal(t, "c\nd", tail([]byte("a\nb\nc\nd\n"), 2))
	assert.Equal(t, "a", tail([]byte("a"), 5))
}

// fakeFFmpeg writes a shell script that prints output to stderr and exits
// with the given code.
func fakeFFmpeg(t *testing.T, output string, code int) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fixture requires a POSIX shell")
	}
	p := filepath.Join(t.TempDir(), "ffmpeg")
	script := "#!/bin/sh\ncat <<'OUT' >&2\n" + output + "\nOUT\nexit " + itoa(code) + "\n"
	require.NoError(t, os.WriteFile(p, []byte(script), 0o755))
	return p
}

func TestDetectSilence_WritesFilteredArtifact(t *testing.T) {
	bin := fakeFFmpeg(t, "Input #0\n[silencedetect @ 0x1] silence_start: 1\n[silencedetect @ 0x1] silence_end: 2 | silence_duration: 1", 0)
	out := filepath.Join(t.TempDir(), "silences_0")

	err := New(bin).DetectSilence(context.Background(), "in.mp4", 30, 0.75, out)
	require.NoError(t, err)

	b, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "[silencedetect @ 0x1] silence_end: 2 | silence_duration: 1\n", string(b))
}

func TestRun_NonZeroExit(t *testing.T) {
	bin := fakeFFmpeg(t, "in.mp4: Invalid data found when processing input", 1)

	res, err := New(bin).run(context.Background(), "extract clip", "-i", "in.mp4")
	require.Error(t, err)
	assert.Equal(t, 1, res.ExitCode)
	assert.Contains(t, err.Error(), "ffmpeg extract clip: exit status 1")
	assert.Contains(t, err.Error(), "Invalid data found")
}

func TestDetectSilence_FailureWritesNothing(t *testing.T) {
	bin := fakeFFmpeg(t, "boom", 1)
	out := filepath.Join(t.TempDir(), "silences_0")

	err := New(bin).DetectSilence(context.Background(), "in.mp4", 30, 0.75, out)
	require.Error(t, err)
	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRun_MissingBinary(t *testing.T) {
	res, err := New(filepath.Join(t.TempDir(), "no-such-ffmpeg")).run(context.Background(), "concat")
	require.Error(t, err)
	assert.Equal(t, -1, res.ExitCode)
}

func TestConcat_NoInputs(t *testing.T) {
	err := New("ffmpeg").Concat(context.Background(), nil, "concat.ts")
	assert.Error(t, err)
}

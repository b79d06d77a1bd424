package silence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forPelevin/clipmix/internal/types"
)

func TestParse_KnownReport(t *testing.T) {
	text := "silence_end: 10.0 | silence_duration: 2.0\n" +
		"silence_end: 20.0 | silence_duration: 1.5\n" +
		"silence_end: 30.0 | silence_duration: 1.0\n"

	report, err := Parse(text)
	require.NoError(t, err)
	assert.Equal(t, types.SilenceReport{
		{End: 10.0, Duration: 2.0, HasDuration: true},
		{End: 20.0, Duration: 1.5, HasDuration: true},
		{End: 30.0, Duration: 1.0, HasDuration: true},
	}, report)
}

func TestParse_FFmpegLinesWithCRLF(t *testing.T) {
	text := "[silencedetect @ 0x55d0c8c0] silence_end: 4.5123 | silence_duration: 0.8\r\n" +
		"[silencedetect @ 0x55d0c8c0] silence_end: 12.25 | silence_duration: 1.75\r\n"

	report, err := Parse(text)
	require.NoError(t, err)
	require.Len(t, report, 2)
	assert.InDelta(t, 4.5123, report[0].End, 1e-9)
	assert.InDelta(t, 0.8, report[0].Duration, 1e-9)
	assert.InDelta(t, 12.25, report[1].End, 1e-9)
	assert.InDelta(t, 1.75, report[1].Duration, 1e-9)
}

func TestParse_SkipsUnrelatedLines(t *testing.T) {
	text := "Input #0, mov,mp4, from 'a.mp4':\n" +
		"[silencedetect @ 0x1] silence_start: 3.2\n" +
		"\n" +
		"[silencedetect @ 0x1] silence_end: 4 | silence_duration: 0.8\n" +
		"size=N/A time=00:00:10.00 bitrate=N/A\n"

	report, err := Parse(text)
	require.NoError(t, err)
	assert.Equal(t, types.SilenceReport{{End: 4, Duration: 0.8, HasDuration: true}}, report)
}

func TestParse_EndWithoutDuration(t *testing.T) {
	report, err := Parse("silence_end: 7.5\n")
	require.NoError(t, err)
	assert.Equal(t, types.SilenceReport{{End: 7.5}}, report)
}

func TestParse_Empty(t *testing.T) {
	report, err := Parse("")
	require.NoError(t, err)
	assert.Empty(t, report)
}

func TestParse_Malformed(t *testing.T) {
	cases := map[string]string{
		"non numeric end":      "silence_end: abc | silence_duration: 1.0\n",
		"missing end token":    "silence_end: \n",
		"non numeric duration": "silence_end: 1.0 | silence_duration: x\n",
	}
	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(text)
			require.ErrorIs(t, err, types.ErrMalformedReport)
		})
	}
}

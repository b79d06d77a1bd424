package silence

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/forPelevin/clipmix/internal/types"
)

const (
	endLabel      = "silence_end: "
	durationLabel = "silence_duration: "
)

// Parse turns captured silencedetect output into a report.
// Only lines carrying a silence_end label are considered; everything else
// (banners, silence_start lines, blank lines) is ignored.
func Parse(text string) (types.SilenceReport, error) {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var report types.SilenceReport
	for n, line := range strings.Split(text, "\n") {
		if !strings.Contains(line, endLabel) {
			continue
		}
		ev, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d %q: %v", types.ErrMalformedReport, n+1, strings.TrimSpace(line), err)
		}
		report = append(report, ev)
	}
	return report, nil
}

func parseLine(line string) (types.SilenceEvent, error) {
	end, ok, err := labeledFloat(line, endLabel)
	if err != nil {
		return types.SilenceEvent{}, err
	}
	if !ok {
		return types.SilenceEvent{}, fmt.Errorf("no %q field", strings.TrimSpace(endLabel))
	}
	ev := types.SilenceEvent{End: end}

	d, ok, err := labeledFloat(line, durationLabel)
	if err != nil {
		return types.SilenceEvent{}, err
	}
	if ok {
		ev.Duration = d
		ev.HasDuration = true
	}
	return ev, nil
}

// labeledFloat reads the token that follows label up to the next space.
func labeledFloat(line, label string) (float64, bool, error) {
	i := strings.Index(line, label)
	if i < 0 {
		return 0, false, nil
	}
	tok := strings.TrimSpace(line[i+len(label):])
	if j := strings.IndexByte(tok, ' '); j >= 0 {
		tok = tok[:j]
	}
	if tok == "" {
		return 0, true, fmt.Errorf("empty %s value", strings.TrimSpace(label))
	}
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, true, fmt.Errorf("parse %s value %q: %w", strings.TrimSpace(label), tok, err)
	}
	return v, true, nil
}

package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/forPelevin/clipmix/internal/types"
)

func printSummary(w io.Writer, m types.Manifest) {
	fmt.Fprintln(w, renderClips(m))

	size := "unknown size"
	if st, err := os.Stat(m.Output); err == nil {
		size = humanize.Bytes(uint64(st.Size()))
	}
	fmt.Fprintf(w, "Wrote %s (%s)\n", m.Output, size)
	if m.URL != "" {
		fmt.Fprintf(w, "Published %s\n", m.URL)
	}
}

func renderClips(m types.Manifest) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"#", "Source", "Start", "Duration"})

	var total float64
	for _, c := range m.Clips {
		tw.AppendRow(table.Row{
			strconv.Itoa(c.Index),
			filepath.Base(c.Source),
			fmtSeconds(c.StartSec),
			fmtSeconds(c.DurationSec),
		})
		total += c.DurationSec
	}
	tw.AppendFooter(table.Row{"", "", "Total", fmtSeconds(total)})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})
	return tw.Render()
}

func fmtSeconds(sec float64) string {
	return strconv.FormatFloat(sec, 'f', 2, 64) + "s"
}

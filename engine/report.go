package engine

import (
	"fmt"
	"io"
	"strconv"

	"github.com/Carmen-Shannon/oxy-amp/engine/model"
	"github.com/olekukonko/tablewriter"
)

// WriteAmpReport renders an amplitude comparison as a two-column table.
//
// Parameters:
//   - w: the destination
//   - r: the comparison to print
func WriteAmpReport(w io.Writer, r model.AmpReport) {
	status := "match"
	if !r.OK() {
		status = "MISMATCH"
	}
	first := "-"
	if r.FirstMismatch >= 0 {
		first = strconv.Itoa(r.FirstMismatch)
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Check", "Value"})
	table.AppendBulk([][]string{
		{"status", status},
		{"cells", strconv.Itoa(r.Cells)},
		{"mismatches", strconv.Itoa(r.Mismatches)},
		{"first mismatch", first},
		{"header", strconv.FormatBool(!r.HeaderMismatch)},
		{"range", fmt.Sprintf("[%g, %g]", r.Min, r.Max)},
		{"outside [0,1]", strconv.Itoa(r.Irregular)},
	})
	table.Render()
}

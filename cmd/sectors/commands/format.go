package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/wonny/sectorpulse/internal/contracts"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// every command prints through these helpers
// ═══════════════════════════════════════════════════════════

const ruleWidth = 59

// PrintSeparator prints a visual separator
func PrintSeparator(w io.Writer) {
	fmt.Fprintln(w, strings.Repeat("─", ruleWidth))
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator(w io.Writer) {
	fmt.Fprintln(w, strings.Repeat("═", ruleWidth))
}

// PrintSuccess prints a success message
func PrintSuccess(w io.Writer, message string) {
	fmt.Fprintf(w, "✅ %s\n", message)
}

// PrintWarning prints a warning message
func PrintWarning(w io.Writer, message string) {
	fmt.Fprintf(w, "\n⚠️  %s\n\n", message)
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(w io.Writer, key string, value string, keyWidth int) {
	fmt.Fprintf(w, "   %-*s : %s\n", keyWidth, key, value)
}

// PrintTableHeader prints a table header
func PrintTableHeader(w io.Writer, columns []string, widths []int) {
	PrintTableRow(w, columns, widths)

	// Separator line
	totalWidth := 0
	for i, width := range widths {
		totalWidth += width
		if i < len(widths)-1 {
			totalWidth += 2 // spacing
		}
	}
	fmt.Fprintln(w, strings.Repeat("─", totalWidth))
}

// PrintTableRow prints a table row
func PrintTableRow(w io.Writer, values []string, widths []int) {
	for i, val := range values {
		if i < len(values)-1 {
			fmt.Fprintf(w, "%-*s  ", widths[i], val)
		} else {
			fmt.Fprint(w, val)
		}
	}
	fmt.Fprintln(w)
}

// PrintJSON writes v as indented JSON
func PrintJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var rankColumns = []string{"TICKER", "STRENGTH", "COLOR", "GAP%", "MOVE%", "TOTAL%", "OR POS", "REL VOL", "VOL"}
var rankWidths = []int{7, 9, 11, 8, 8, 8, 7, 8, 3}

// PrintRanking prints a ranking as a table followed by failures and the bottom set
func PrintRanking(w io.Writer, result *contracts.RankedResult) {
	PrintDoubleSeparator(w)
	fmt.Fprintf(w, "  Sector strength as of %s\n", result.Cutoff)
	PrintSeparator(w)

	PrintTableHeader(w, rankColumns, rankWidths)
	var failed []contracts.ScoreResult
	for _, row := range result.Rows {
		if !row.OK() {
			failed = append(failed, row)
			continue
		}
		relVol := "n/a"
		if row.RelativeVolume != nil {
			relVol = fmt.Sprintf("%.2fx", *row.RelativeVolume)
		}
		PrintTableRow(w, []string{
			row.Ticker,
			fmt.Sprintf("%+.2f", row.StrengthScore),
			string(row.Color),
			fmt.Sprintf("%+.2f", row.OvernightGapPct),
			fmt.Sprintf("%+.2f", row.IntradayMovePct),
			fmt.Sprintf("%+.2f", row.TotalDayMovePct),
			fmt.Sprintf("%+.2f", row.ORPosition),
			relVol,
			fmt.Sprintf("%d", row.VolumeScore),
		}, rankWidths)
	}

	if len(failed) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Not scored:")
		for _, row := range failed {
			fmt.Fprintf(w, "   • %s: %s (%s)\n", row.Ticker, row.Error, row.Reason)
		}
	}

	fmt.Fprintln(w)
	if len(result.Bottom) == 0 {
		PrintWarning(w, "No ticker could be scored")
		return
	}
	PrintKeyValue(w, "Weakest", strings.Join(result.Bottom, ", "), 7)
}

// PrintDailyChanges prints the close-to-close diagnostic
func PrintDailyChanges(w io.Writer, changes []contracts.DailyChange) {
	widths := []int{7, 10}
	PrintTableHeader(w, []string{"TICKER", "CHANGE%"}, widths)
	for _, c := range changes {
		value := c.Error
		if c.ChangePct != nil {
			value = fmt.Sprintf("%+.2f", *c.ChangePct)
		}
		PrintTableRow(w, []string{c.Ticker, value}, widths)
	}
}

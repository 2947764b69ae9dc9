package formatter

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"
	"unicode"
)

// maxNameWidth is the display width of the NAME column
const maxNameWidth = 20

// newTable returns a kubectl style tabwriter
func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
}

// PrintScanTime prints the scan timestamp and duration
func PrintScanTime(w io.Writer, scanStartTime time.Time, scanDuration time.Duration) {
	fmt.Fprintf(w, "Scan time: %s (completed in %.2f seconds)\n",
		scanStartTime.Format("2006-01-02 15:04:05"),
		scanDuration.Seconds())
}

// GetPricingMarker returns a suitable marker for the pricing source
func GetPricingMarker(source string) string {
	switch source {
	case "API":
		return "API"
	case "Cache":
		return "CACHE"
	case "Default":
		return "DEFAULT"
	case "N/A":
		return "N/A"
	default:
		return "-"
	}
}

func formatCost(cost float64, source string) string {
	if source == "N/A" {
		return "N/A"
	}
	return fmt.Sprintf("$%.2f", cost)
}

// displayName truncates and pads name to maxNameWidth, counting CJK
// characters as two columns
func displayName(name string) string {
	if name == "" {
		name = "<unnamed>"
	}

	if stringWidth(name) > maxNameWidth {
		var b strings.Builder
		width := 0
		for _, r := range name {
			if width+runeWidth(r) > maxNameWidth-2 {
				break
			}
			b.WriteRune(r)
			width += runeWidth(r)
		}
		name = b.String() + ".."
	}

	if pad := maxNameWidth - stringWidth(name); pad > 0 {
		name += strings.Repeat(" ", pad)
	}
	return name
}

func runeWidth(r rune) int {
	if r < 128 {
		return 1
	}
	if unicode.Is(unicode.Han, r) ||
		unicode.Is(unicode.Hangul, r) ||
		unicode.Is(unicode.Hiragana, r) ||
		unicode.Is(unicode.Katakana, r) {
		return 2
	}
	return 1
}

func stringWidth(s string) int {
	width := 0
	for _, r := range s {
		width += runeWidth(r)
	}
	return width
}

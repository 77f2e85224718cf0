package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/scijava/javadoc-wrangler/pkg/observability"
	"github.com/scijava/javadoc-wrangler/pkg/pipeline"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorBlue   = lipgloss.Color("75")  // Light blue - commands
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Styles
// =============================================================================

var (
	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleNumber for numeric values.
	StyleNumber = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)

	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleCommand     = lipgloss.NewStyle().Foreground(colorBlue)
	styleKey         = lipgloss.NewStyle().Foreground(colorGray).Width(12)
)

const (
	iconSuccess = "✓"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
)

// =============================================================================
// Status Output
// =============================================================================

func printSuccess(format string, args ...any) {
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	fmt.Println(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + fmt.Sprintf(format, args...))
}

// printDetail prints an indented, dimmed line.
func printDetail(format string, args ...any) {
	fmt.Println("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints a path line.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

func printKeyValue(key, value string) {
	fmt.Println(styleKey.Render(key) + " " + StyleValue.Render(value))
}

// printNextStep prints a suggested next command.
func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}

// =============================================================================
// Results
// =============================================================================

// printResult summarizes one BOM on two lines.
func printResult(r *pipeline.Result, siteDir string) {
	if r.AlreadyComplete {
		printInfo("%s already processed", StyleValue.Render(r.BOM.String()))
		return
	}
	printSuccess("%s", StyleValue.Render(r.BOM.String()))
	printStats(r.Stats)
	printFile(siteDir)
}

// printStats prints component counts on a single line, omitting zeros.
func printStats(s pipeline.Stats) {
	parts := []string{count(s.Processed(), "processed")}
	for _, p := range []struct {
		n    int
		name string
	}{
		{s.Absent, "no javadoc"},
		{s.Invalid, "invalid"},
		{s.Failed, "failed"},
		{s.Duplicates, "duplicate"},
	} {
		if p.n > 0 {
			parts = append(parts, count(p.n, p.name))
		}
	}
	fmt.Println("  " + strings.Join(parts, StyleDim.Render(" · ")))
}

func count(n int, label string) string {
	return StyleNumber.Render(fmt.Sprint(n)) + " " + StyleDim.Render(label)
}

// printCounters prints totals across several BOMs.
func printCounters(s observability.Snapshot) {
	fmt.Println()
	printKeyValue("BOMs", fmt.Sprint(s.BOMs))

	outcomes := make([]string, 0, len(s.Components))
	for outcome := range s.Components {
		outcomes = append(outcomes, outcome)
	}
	sort.Strings(outcomes)
	for _, outcome := range outcomes {
		printKeyValue(outcome, fmt.Sprint(s.Components[outcome]))
	}
	printKeyValue("jar cache", fmt.Sprintf("%d hits, %d known missing, %d fetched",
		s.CacheHits[observability.CacheJavadoc],
		s.Negative[observability.CacheJavadoc],
		s.Misses[observability.CacheJavadoc]))
}

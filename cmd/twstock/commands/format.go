package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/wonny/twstock/internal/contracts"
	"github.com/wonny/twstock/internal/syncer"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

// maxListed bounds how many failed / skipped symbols a report prints
const maxListed = 20

// PrintSeparator prints a visual separator
func PrintSeparator() {
	fmt.Println("───────────────────────────────────────────────────────────")
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator() {
	fmt.Println("═══════════════════════════════════════════════════════════")
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	fmt.Printf("⚠️  %s\n", message)
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Printf("✅ %s\n", message)
}

// PrintError prints an error message
func PrintError(message string) {
	fmt.Printf("❌ %s\n", message)
}

// PrintTableHeader prints a table header
func PrintTableHeader(columns []string, widths []int) {
	PrintTableRow(columns, widths)

	totalWidth := 0
	for i, width := range widths {
		totalWidth += width
		if i < len(widths)-1 {
			totalWidth += 2 // spacing
		}
	}
	fmt.Println(strings.Repeat("─", totalWidth))
}

// PrintTableRow prints a table row
func PrintTableRow(values []string, widths []int) {
	for i, val := range values {
		fmt.Printf("%-*s", widths[i], val)
		if i < len(values)-1 {
			fmt.Print("  ")
		}
	}
	fmt.Println()
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(key string, value string, keyWidth int) {
	fmt.Printf("   %-*s : %s\n", keyWidth, key, value)
}

// PrintRunHeader prints the header of an update run
func PrintRunHeader(title string, horizon time.Time) {
	fmt.Println()
	PrintDoubleSeparator()
	fmt.Printf("  %s\n", title)
	PrintSeparator()
	fmt.Printf("  Horizon   : %s\n", horizon.Format("2006-01-02"))
	PrintSeparator()
}

// PrintRunReport prints the per-stage outcome of one run
func PrintRunReport(report *syncer.RunReport) {
	fmt.Println()
	for _, stage := range report.Stages {
		fmt.Printf("[%s] %s\n", stage, stage.Description())

		switch stage {
		case contracts.StageRegistry:
			if r := report.Registry; r != nil {
				PrintKeyValue("discovered", fmt.Sprint(r.Discovered), 10)
				PrintKeyValue("added", fmt.Sprint(r.Added), 10)
				PrintKeyValue("updated", fmt.Sprint(r.Updated), 10)
			}
		case contracts.StageQuotes:
			printSummary(report.Quotes)
		case contracts.StageIndex:
			printSummary(report.Index)
		case contracts.StageFutures:
			if r := report.Futures; r != nil {
				PrintKeyValue("fetched", fmt.Sprint(r.Fetched), 10)
				PrintKeyValue("mappings", fmt.Sprint(r.Mappings), 10)
			}
		}

		if err, ok := report.Errors[stage]; ok {
			PrintError(err.Error())
		}
	}

	fmt.Println()
	PrintSeparator()
	duration := report.Finished.Sub(report.Started).Seconds()
	if report.Failed() {
		PrintError(fmt.Sprintf("Run %s finished with errors in %.2fs", report.RunID, duration))
	} else {
		PrintSuccess(fmt.Sprintf("Run %s completed in %.2fs", report.RunID, duration))
	}
}

func printSummary(s *syncer.Summary) {
	if s == nil {
		return
	}
	PrintKeyValue("synced", fmt.Sprint(s.Count(syncer.StatusSynced)), 10)
	PrintKeyValue("current", fmt.Sprint(s.Count(syncer.StatusCurrent)), 10)
	PrintKeyValue("skipped", fmt.Sprint(s.Count(syncer.StatusSkipped)), 10)
	PrintKeyValue("failed", fmt.Sprint(s.Count(syncer.StatusFailed)), 10)
	PrintKeyValue("written", fmt.Sprint(s.Written()), 10)
	PrintKeyValue("rejected", fmt.Sprint(s.Rejected()), 10)

	for i, r := range s.Skipped() {
		if i == maxListed {
			fmt.Printf("   ... %d more skipped\n", len(s.Skipped())-maxListed)
			break
		}
		PrintWarning(fmt.Sprintf("%s skipped: %s", r.Symbol, r.Reason))
	}
	for i, r := range s.Failed() {
		if i == maxListed {
			fmt.Printf("   ... %d more failed\n", len(s.Failed())-maxListed)
			break
		}
		PrintError(fmt.Sprintf("%s failed at %s: %v", r.Symbol, r.Watermark, r.Err))
	}
}

func formatWatermark(wm contracts.Watermark) (string, string) {
	if !wm.Present {
		return "-", "-"
	}
	return wm.MinDate.Format("2006-01-02"), wm.MaxDate.Format("2006-01-02")
}

package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/hardenctl/hardenctl/internal/models"
)

// ANSI modifiers for text output
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
)

// renderReport writes the apply report in the requested format.
func renderReport(w io.Writer, report *models.ApplyReport, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case "text", "":
		renderReportText(w, report)
		return nil
	default:
		return fmt.Errorf("invalid output format: %s (use text or json)", format)
	}
}

func renderReportText(w io.Writer, report *models.ApplyReport) {
	header := "Apply report"
	if report.DryRun {
		header = "Apply report (dry run)"
	}
	fmt.Fprintf(w, "%s%s%s\n", colorBold, header, colorReset)
	fmt.Fprintf(w, "  Catalog:   %s\n", report.CatalogID)
	fmt.Fprintf(w, "  Container: %s\n", report.ContainerID)
	if report.TargetScope != "" {
		fmt.Fprintf(w, "  Target:    %s\n", report.TargetScope)
	}
	if report.BackupID != "" {
		fmt.Fprintf(w, "  Backup:    %s\n", report.BackupID)
	}
	if report.BackupWarning != "" {
		fmt.Fprintf(w, "  %sWarning:%s   %s\n", colorYellow, colorReset, report.BackupWarning)
	}
	fmt.Fprintln(w)

	for _, a := range report.Applied {
		fmt.Fprintf(w, "  %s✓%s %s = %s\n", colorGreen, colorReset, a.Setting.Name, a.Setting.Value.String())
	}
	for _, s := range report.Skipped {
		fmt.Fprintf(w, "  %s-%s %s (%s)\n", colorYellow, colorReset, s.Setting.Name, s.Reason)
	}
	for _, f := range report.Failed {
		fmt.Fprintf(w, "  %s✗%s %s: %s\n", colorRed, colorReset, f.Setting.Name, f.Error)
	}

	fmt.Fprintf(w, "\n  %d attempted: %d applied, %d skipped, %d failed\n",
		report.Attempted, len(report.Applied), len(report.Skipped), len(report.Failed))
}

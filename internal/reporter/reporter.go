package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/fenilsonani/junk-cleaner/internal/cleaner"
	"github.com/fenilsonani/junk-cleaner/internal/junk"
	"github.com/fenilsonani/junk-cleaner/internal/uninstall"
	"github.com/fenilsonani/junk-cleaner/pkg/utils"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatTable   OutputFormat = "table"
	FormatJSON    OutputFormat = "json"
	FormatYAML    OutputFormat = "yaml"
	FormatSummary OutputFormat = "summary"
)

// ParseFormat validates a format name from the command line.
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case FormatTable, FormatJSON, FormatYAML, FormatSummary:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported format: %s", s)
	}
}

const pathWidth = 60

// Reporter handles report generation
type Reporter struct {
	writer io.Writer
	format OutputFormat
	now    func() time.Time
}

// New creates a new Reporter
func New(writer io.Writer, format OutputFormat) *Reporter {
	return &Reporter{
		writer: writer,
		format: format,
		now:    time.Now,
	}
}

// render dispatches to the text renderers or encodes doc.
func (r *Reporter) render(summary, table func() error, doc any) error {
	switch r.format {
	case FormatSummary:
		return summary()
	case FormatTable:
		return table()
	case FormatJSON:
		encoder := json.NewEncoder(r.writer)
		encoder.SetIndent("", "  ")
		return encoder.Encode(doc)
	case FormatYAML:
		encoder := yaml.NewEncoder(r.writer)
		defer encoder.Close()
		return encoder.Encode(doc)
	default:
		return fmt.Errorf("unsupported format: %s", r.format)
	}
}

func (r *Reporter) timestamp() string {
	return r.now().Format(time.RFC3339)
}

// =============================================================================
// Scan
// =============================================================================

type scanDoc struct {
	Timestamp          string      `json:"timestamp" yaml:"timestamp"`
	TotalItems         int         `json:"total_items" yaml:"total_items"`
	TotalSize          int64       `json:"total_size" yaml:"total_size"`
	TotalSizeFormatted string      `json:"total_size_formatted" yaml:"total_size_formatted"`
	Duration           string      `json:"duration" yaml:"duration"`
	Cancelled          bool        `json:"cancelled" yaml:"cancelled"`
	Items              []junk.Item `json:"items" yaml:"items"`
}

// Report renders a scan result.
func (r *Reporter) Report(result *junk.ScanResult) error {
	doc := scanDoc{
		Timestamp:          r.timestamp(),
		TotalItems:         len(result.Items),
		TotalSize:          result.TotalSize(),
		TotalSizeFormatted: utils.FormatBytes(result.TotalSize()),
		Duration:           result.Duration.Round(time.Millisecond).String(),
		Cancelled:          result.Cancelled,
		Items:              result.Items,
	}
	return r.render(
		func() error { return r.scanSummary(result) },
		func() error { return r.scanTable(result) },
		doc,
	)
}

func (r *Reporter) scanSummary(result *junk.ScanResult) error {
	fmt.Fprintf(r.writer, "=== Scan Summary ===\n")
	fmt.Fprintf(r.writer, "Total Items: %d\n", len(result.Items))
	fmt.Fprintf(r.writer, "Selected Size: %s\n", utils.FormatGB(result.TotalSize()))
	if result.Cancelled {
		fmt.Fprintf(r.writer, "Scan was cancelled; results are partial\n")
	}
	fmt.Fprintf(r.writer, "\nBreakdown by Category:\n")

	grouped := result.ItemsByCategory()
	for _, category := range junk.AllCategories {
		items, ok := grouped[category]
		if !ok {
			continue
		}
		fmt.Fprintf(r.writer, "  %s: %d items, %s\n", category, len(items), utils.FormatBytes(sumItems(items)))
	}

	byType := result.ItemsByType()
	fmt.Fprintf(r.writer, "\nLargest Types:\n")
	for _, t := range result.SortedTypes() {
		items := byType[t]
		fmt.Fprintf(r.writer, "  %-28s %4d  %10s  [%s]\n", t.String(), len(items), utils.FormatBytes(sumItems(items)), t.Risk())
	}
	return nil
}

func (r *Reporter) scanTable(result *junk.ScanResult) error {
	r.itemHeader()
	for _, item := range result.Items {
		r.itemRow(item)
	}
	fmt.Fprintf(r.writer, "\n%s\n", strings.Repeat("-", 120))
	fmt.Fprintf(r.writer, "Total: %d items, %s\n", len(result.Items), utils.FormatBytes(result.TotalSize()))
	return nil
}

func (r *Reporter) itemHeader() {
	fmt.Fprintf(r.writer, "%-60s | %-10s | %-28s | %s\n", "Path", "Size", "Type", "App")
	fmt.Fprintf(r.writer, "%s\n", strings.Repeat("-", 120))
}

func (r *Reporter) itemRow(item junk.Item) {
	mark := ""
	if !item.Selected {
		mark = " (skipped)"
	}
	fmt.Fprintf(r.writer, "%-60s | %-10s | %-28s | %s%s\n",
		shorten(item.Path, pathWidth),
		utils.FormatBytes(item.SizeBytes),
		item.Type.String(),
		item.RelatedApp,
		mark)
}

// =============================================================================
// Clean
// =============================================================================

type cleanDoc struct {
	Timestamp     string              `json:"timestamp" yaml:"timestamp"`
	Freed         string              `json:"freed" yaml:"freed"`
	Result        *junk.CleanResult   `json:"result" yaml:"result"`
	ErrorsByCause map[string][]string `json:"errors_by_cause,omitempty" yaml:"errors_by_cause,omitempty"`
}

// ReportClean renders a clean result. errs are the categorized failures
// kept by the cleaner; the summary groups them by cause.
func (r *Reporter) ReportClean(result *junk.CleanResult, errs []*cleaner.DeletionError) error {
	doc := cleanDoc{
		Timestamp: r.timestamp(),
		Freed:     result.FormattedFreed(),
		Result:    result,
	}
	if len(errs) > 0 {
		doc.ErrorsByCause = make(map[string][]string)
		for reason, group := range cleaner.GroupErrors(errs) {
			for _, e := range group {
				doc.ErrorsByCause[reason.String()] = append(doc.ErrorsByCause[reason.String()], e.Path)
			}
		}
	}
	return r.render(
		func() error { return r.cleanSummary(result, errs) },
		func() error { return r.cleanTable(result) },
		doc,
	)
}

func (r *Reporter) cleanSummary(result *junk.CleanResult, errs []*cleaner.DeletionError) error {
	fmt.Fprintf(r.writer, "=== Clean Summary ===\n")
	fmt.Fprintf(r.writer, "Removed: %d items\n", result.DeletedCount)
	fmt.Fprintf(r.writer, "Freed: %s\n", result.FormattedFreed())
	fmt.Fprintf(r.writer, "Failed: %d items\n", result.FailedCount)
	fmt.Fprintf(r.writer, "Took: %s\n", result.Duration.Round(time.Millisecond))

	if len(errs) > 0 {
		fmt.Fprintf(r.writer, "\n%s", cleaner.FormatErrorSummary(errs))
	} else if len(result.Failed) > 0 {
		fmt.Fprintf(r.writer, "\nFailures:\n")
		for _, f := range result.Failed {
			fmt.Fprintf(r.writer, "  %s: %s\n", shorten(f.Item.Path, pathWidth), f.Reason)
		}
	}
	return nil
}

func (r *Reporter) cleanTable(result *junk.CleanResult) error {
	fmt.Fprintf(r.writer, "%-60s | %-10s | %s\n", "Path", "Size", "Status")
	fmt.Fprintf(r.writer, "%s\n", strings.Repeat("-", 120))
	for _, item := range result.Deleted {
		fmt.Fprintf(r.writer, "%-60s | %-10s | %s\n", shorten(item.Path, pathWidth), utils.FormatBytes(item.SizeBytes), "removed")
	}
	for _, f := range result.Failed {
		fmt.Fprintf(r.writer, "%-60s | %-10s | %s\n", shorten(f.Item.Path, pathWidth), utils.FormatBytes(f.Item.SizeBytes), f.Reason)
	}
	fmt.Fprintf(r.writer, "\n%s\n", strings.Repeat("-", 120))
	fmt.Fprintf(r.writer, "Total: %d removed, %d failed, %s freed\n", result.DeletedCount, result.FailedCount, result.FormattedFreed())
	return nil
}

// =============================================================================
// Applications
// =============================================================================

// ReportApps renders the installed application inventory.
func (r *Reporter) ReportApps(apps []uninstall.AppInfo) error {
	list := func() error {
		fmt.Fprintf(r.writer, "%-32s | %-40s | %-10s | %s\n", "Name", "Bundle ID", "Version", "Size")
		fmt.Fprintf(r.writer, "%s\n", strings.Repeat("-", 100))
		var total int64
		for _, app := range apps {
			fmt.Fprintf(r.writer, "%-32s | %-40s | %-10s | %s\n",
				shorten(app.Name, 32), shorten(app.BundleID, 40), app.Version, utils.FormatBytes(app.SizeBytes))
			total += app.SizeBytes
		}
		fmt.Fprintf(r.writer, "\n%s applications, %s\n", humanize.Comma(int64(len(apps))), utils.FormatBytes(total))
		return nil
	}
	return r.render(list, list, apps)
}

// ReportAnalysis renders what AnalyzeApp found.
func (r *Reporter) ReportAnalysis(result *uninstall.AnalyzeResult) error {
	summary := func() error {
		r.appHeader(result.App)
		fmt.Fprintf(r.writer, "%s\n", result.Summary)
		byType := make(map[junk.Type][]junk.Item)
		var order []junk.Type
		for _, item := range result.Items {
			if _, ok := byType[item.Type]; !ok {
				order = append(order, item.Type)
			}
			byType[item.Type] = append(byType[item.Type], item)
		}
		for _, t := range order {
			fmt.Fprintf(r.writer, "  %s:\n", t.String())
			for _, item := range byType[t] {
				fmt.Fprintf(r.writer, "    %s (%s)\n", item.Path, utils.FormatBytes(item.SizeBytes))
			}
		}
		return nil
	}
	table := func() error {
		r.appHeader(result.App)
		r.itemHeader()
		for _, item := range result.Items {
			r.itemRow(item)
		}
		fmt.Fprintf(r.writer, "\n%s\n", result.Summary)
		return nil
	}
	return r.render(summary, table, result)
}

// ReportUninstall renders the outcome of DeepUninstall.
func (r *Reporter) ReportUninstall(result *uninstall.Result) error {
	summary := func() error {
		fmt.Fprintf(r.writer, "=== Uninstalled %s ===\n", result.App.Name)
		if result.BundleRemoved {
			fmt.Fprintf(r.writer, "Application: moved to Trash (%s)\n", utils.FormatBytes(result.App.SizeBytes))
		} else {
			fmt.Fprintf(r.writer, "Application: not removed: %s\n", result.BundleError)
		}
		if result.Terminated > 0 {
			fmt.Fprintf(r.writer, "Quit: %d running instances\n", result.Terminated)
		}
		fmt.Fprintf(r.writer, "Leftovers removed: %d\n", result.Leftovers.DeletedCount)
		fmt.Fprintf(r.writer, "Leftovers failed: %d\n", result.Leftovers.FailedCount)
		for _, f := range result.Leftovers.Failed {
			fmt.Fprintf(r.writer, "  %s: %s\n", shorten(f.Item.Path, pathWidth), f.Reason)
		}
		fmt.Fprintf(r.writer, "Freed: %s\n", utils.FormatBytes(result.FreedBytes()))
		return nil
	}
	table := func() error { return r.cleanTable(result.Leftovers) }
	return r.render(summary, table, result)
}

func (r *Reporter) appHeader(app uninstall.AppInfo) {
	fmt.Fprintf(r.writer, "=== %s ===\n", app.Name)
	fmt.Fprintf(r.writer, "Bundle ID: %s\n", app.BundleID)
	if app.Version != "" {
		fmt.Fprintf(r.writer, "Version: %s\n", app.Version)
	}
	fmt.Fprintf(r.writer, "Path: %s (%s)\n", app.Path, utils.FormatBytes(app.SizeBytes))
}

// =============================================================================
// Helpers
// =============================================================================

// SaveToFile saves the scan report to a file
func SaveToFile(result *junk.ScanResult, path string, format OutputFormat) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	reporter := New(file, format)
	return reporter.Report(result)
}

func shorten(s string, width int) string {
	if len(s) <= width {
		return s
	}
	return "..." + s[len(s)-(width-3):]
}

func sumItems(items []junk.Item) int64 {
	var total int64
	for _, item := range items {
		total += item.SizeBytes
	}
	return total
}

package reporter

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/fenilsonani/junk-cleaner/internal/cleaner"
	"github.com/fenilsonani/junk-cleaner/internal/junk"
	"github.com/fenilsonani/junk-cleaner/internal/uninstall"
)

func newTestReporter(format OutputFormat) (*Reporter, *bytes.Buffer) {
	var buf bytes.Buffer
	r := New(&buf, format)
	r.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return r, &buf
}

func sampleScan() *junk.ScanResult {
	return junk.NewScanResult([]junk.Item{
		junk.NewItem(junk.AppCaches, "/Users/tester/Library/Caches/com.vendor.app", "com.vendor.app", 3<<20, "app"),
		junk.NewItem(junk.TrashContents, "/Users/tester/.Trash/old.zip", "old.zip", 1<<20, ""),
	}, 2*time.Second)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("JSON")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	_, err = ParseFormat("csv")
	assert.Error(t, err)
}

func TestReportScanSummary(t *testing.T) {
	r, buf := newTestReporter(FormatSummary)
	require.NoError(t, r.Report(sampleScan()))

	out := buf.String()
	assert.Contains(t, out, "Total Items: 2")
	assert.Contains(t, out, "App Leftovers: 1 items, 3.0 MiB")
	assert.Contains(t, out, "System Junk: 1 items, 1.0 MiB")
	assert.Less(t, strings.Index(out, "App Caches"), strings.Index(out, "Trash"))
}

func TestReportScanTable(t *testing.T) {
	r, buf := newTestReporter(FormatTable)
	result := sampleScan()
	result.Items[1].Selected = false
	require.NoError(t, r.Report(result))

	out := buf.String()
	assert.Contains(t, out, "/Users/tester/Library/Caches/com.vendor.app")
	assert.Contains(t, out, "(skipped)")
	assert.Contains(t, out, "Total: 2 items, 3.0 MiB")
}

func TestReportScanJSON(t *testing.T) {
	r, buf := newTestReporter(FormatJSON)
	require.NoError(t, r.Report(sampleScan()))

	var doc scanDoc
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "2026-01-02T03:04:05Z", doc.Timestamp)
	assert.Equal(t, 2, doc.TotalItems)
	assert.Equal(t, int64(4<<20), doc.TotalSize)
	assert.Equal(t, "2s", doc.Duration)
	assert.Equal(t, junk.AppCaches, doc.Items[0].Type)
}

func TestReportCleanSummaryGroupsErrors(t *testing.T) {
	r, buf := newTestReporter(FormatSummary)
	item := junk.NewItem(junk.SystemLogs, "/private/var/log/x.log", "x.log", 10, "")
	result := &junk.CleanResult{
		FreedBytes:   5 << 20,
		DeletedCount: 2,
		FailedCount:  1,
		Failed:       []junk.FailedItem{{Item: item, Reason: "Needs elevated permissions"}},
	}
	errs := []*cleaner.DeletionError{{
		Path:      item.Path,
		Reason:    cleaner.ErrorPermissionDenied,
		Strategy:  cleaner.StrategyElevated,
		Original:  errors.New("exit status 1"),
		NeedsSudo: true,
	}}

	require.NoError(t, r.ReportClean(result, errs))

	out := buf.String()
	assert.Contains(t, out, "Removed: 2 items")
	assert.Contains(t, out, "Freed: 5.0 MB")
	assert.Contains(t, out, "Issues encountered:")
	assert.Contains(t, out, "Permission denied: 1 items")
}

func TestReportCleanYAML(t *testing.T) {
	r, buf := newTestReporter(FormatYAML)
	errs := []*cleaner.DeletionError{
		{Path: "/a", Reason: cleaner.ErrorFileInUse},
		{Path: "/b", Reason: cleaner.ErrorFileInUse},
	}
	require.NoError(t, r.ReportClean(&junk.CleanResult{FreedBytes: 2 << 30}, errs))

	var doc struct {
		Freed         string              `yaml:"freed"`
		ErrorsByCause map[string][]string `yaml:"errors_by_cause"`
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "2.00 GB", doc.Freed)
	assert.Equal(t, []string{"/a", "/b"}, doc.ErrorsByCause["File is in use"])
}

func TestReportAnalysis(t *testing.T) {
	r, buf := newTestReporter(FormatSummary)
	result := &uninstall.AnalyzeResult{
		App: uninstall.AppInfo{Name: "Example", BundleID: "com.vendor.example", Version: "2.1", Path: "/Applications/Example.app"},
		Items: []junk.Item{
			junk.NewItem(junk.AppPreferences, "/Users/tester/Library/Preferences/com.vendor.example.plist", "p", 4096, "Example"),
			junk.NewItem(junk.AppCaches, "/Users/tester/Library/Caches/com.vendor.example", "c", 8192, "Example"),
		},
		Summary: "Found 2 items (0.00 GB)",
	}

	require.NoError(t, r.ReportAnalysis(result))

	out := buf.String()
	assert.Contains(t, out, "=== Example ===")
	assert.Contains(t, out, "Bundle ID: com.vendor.example")
	assert.Contains(t, out, "Found 2 items (0.00 GB)")
	assert.Contains(t, out, "/Users/tester/Library/Caches/com.vendor.example (8.0 KiB)")
}

func TestReportUninstall(t *testing.T) {
	r, buf := newTestReporter(FormatSummary)
	result := &uninstall.Result{
		App:         uninstall.AppInfo{Name: "Example", SizeBytes: 1 << 20},
		BundleError: "Refused to remove protected path",
		Terminated:  1,
		Leftovers:   &junk.CleanResult{DeletedCount: 3, FreedBytes: 3 << 10},
	}

	require.NoError(t, r.ReportUninstall(result))

	out := buf.String()
	assert.Contains(t, out, "not removed: Refused to remove protected path")
	assert.Contains(t, out, "Quit: 1 running instances")
	assert.Contains(t, out, "Leftovers removed: 3")
	assert.Contains(t, out, "Freed: 3.0 KiB")
}

func TestReportApps(t *testing.T) {
	r, buf := newTestReporter(FormatTable)
	apps := []uninstall.AppInfo{
		{Name: "Alpha", BundleID: "com.alpha", SizeBytes: 1 << 20},
		{Name: "Beta", BundleID: "com.beta", SizeBytes: 1 << 20},
	}
	require.NoError(t, r.ReportApps(apps))
	assert.Contains(t, buf.String(), "2 applications, 2.0 MiB")
}

func TestUnsupportedFormat(t *testing.T) {
	r, _ := newTestReporter("csv")
	assert.Error(t, r.Report(sampleScan()))
}

func TestShorten(t *testing.T) {
	assert.Equal(t, "short", shorten("short", 10))
	assert.Equal(t, "...6789", shorten("0123456789", 7))
}

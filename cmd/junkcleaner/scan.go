package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fenilsonani/junk-cleaner/internal/junk"
	"github.com/fenilsonani/junk-cleaner/internal/progress"
	"github.com/fenilsonani/junk-cleaner/internal/scanner"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for junk without removing anything",
	Long:  `Runs every probe and reports what can be removed without making any changes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv()
		if err != nil {
			return err
		}

		result, err := e.scan(cmd.Context())
		if err != nil {
			return err
		}

		rep, closeReport, err := e.report()
		if err != nil {
			return err
		}
		defer closeReport()
		if err := rep.Report(result); err != nil {
			return fmt.Errorf("failed to generate report: %w", err)
		}
		if outputFile != "" {
			fmt.Fprintf(os.Stderr, "Report saved to: %s\n", outputFile)
		}
		return nil
	},
}

func init() {
	scanCmd.Flags().StringVar(&outputFmt, "output", "summary", "output format (summary, table, json, yaml)")
	scanCmd.Flags().StringVar(&outputFile, "file", "", "save report to file")
	scanCmd.Flags().StringSliceVar(&typeKeys, "type", nil, "only report these junk types (e.g. app_caches,trash_contents)")
}

// scanOptions applies --type on top of the configured options.
func (e *env) scanOptions() (scanner.Options, error) {
	opts := e.cfg.ScannerOptions()
	if len(typeKeys) == 0 {
		return opts, nil
	}
	opts.SelectedTypes = nil
	for _, key := range typeKeys {
		t, ok := junk.ParseType(key)
		if !ok {
			return opts, fmt.Errorf("unknown junk type %q", key)
		}
		opts.SelectedTypes = append(opts.SelectedTypes, t)
	}
	return opts, nil
}

// scan runs the probe pipeline and deselects anything under a configured
// protected path.
func (e *env) scan(ctx context.Context) (*junk.ScanResult, error) {
	opts, err := e.scanOptions()
	if err != nil {
		return nil, err
	}

	s := scanner.New(opts, e.layout, e.runner)
	s.SetProgressReporter(e.progress)
	s.SetLogger(e.logger)

	var result *junk.ScanResult
	err = e.run(ctx, progress.OpScan, "Scanning for junk", func(ctx context.Context) error {
		var err error
		result, err = s.Start(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}

	for i, item := range result.Items {
		if withinProtected(item.Path, e.cfg.ProtectedPaths) {
			result.Items[i].Selected = false
		}
	}
	return result, nil
}

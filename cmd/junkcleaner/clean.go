package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/fenilsonani/junk-cleaner/internal/config"
	"github.com/fenilsonani/junk-cleaner/internal/junk"
	"github.com/fenilsonani/junk-cleaner/internal/progress"
	"github.com/fenilsonani/junk-cleaner/pkg/utils"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Scan and remove the selected junk",
	Long: `Scans, shows what was found and, after confirmation, removes every selected
item. Items go to the Trash unless --permanent is given; launch services are
stopped first and system-owned items are removed with administrator rights.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("permanent") {
			e.cfg.Clean.Permanent = permanent
		}
		ctx := cmd.Context()

		result, err := e.scan(ctx)
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		selected := result.Selected()
		if len(selected) == 0 {
			fmt.Println("\n✨ Nothing to clean. Your Mac is already tidy!")
			return nil
		}

		rep, closeReport, err := e.report()
		if err != nil {
			return err
		}
		defer closeReport()
		if e.textOutput() {
			if err := rep.Report(result); err != nil {
				return fmt.Errorf("failed to generate report: %w", err)
			}
		}

		question := fmt.Sprintf("\nRemove %d items (%s)?", len(selected), utils.FormatBytes(result.TotalSize()))
		if !assumeYes && !confirm(os.Stdin, os.Stdout, question) {
			fmt.Println("Cleanup cancelled")
			return nil
		}

		// Ask for the password before the progress view owns the terminal
		esc := e.newEscalator()
		if err := esc.EnsureReady(ctx); err != nil {
			return fmt.Errorf("clean aborted: %w", err)
		}

		c := e.newCleaner(esc)
		var cleanResult *junk.CleanResult
		err = e.run(ctx, progress.OpClean, "Cleaning", func(ctx context.Context) error {
			var err error
			cleanResult, err = c.Clean(ctx, selected)
			return err
		})
		if err != nil {
			return fmt.Errorf("clean failed: %w", err)
		}

		if c.Manifest().Len() > 0 {
			path := config.ManifestPath(time.Now())
			if err := os.MkdirAll(config.ManifestDir(), 0755); err != nil {
				e.logger.Warn("failed to create manifest directory", "error", err)
			} else if err := c.Manifest().Save(path); err != nil {
				e.logger.Warn("failed to save deletion manifest", "path", path, "error", err)
			} else {
				e.logger.Info("deletion manifest saved", "path", path)
			}
		}

		return rep.ReportClean(cleanResult, c.Errors())
	},
}

func init() {
	cleanCmd.Flags().StringVar(&outputFmt, "output", "summary", "output format (summary, table, json, yaml)")
	cleanCmd.Flags().StringSliceVar(&typeKeys, "type", nil, "only clean these junk types")
	cleanCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "skip the confirmation prompt")
	cleanCmd.Flags().BoolVar(&permanent, "permanent", false, "remove directly instead of moving to the Trash")
}

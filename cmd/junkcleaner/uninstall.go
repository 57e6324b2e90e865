package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fenilsonani/junk-cleaner/internal/progress"
	"github.com/fenilsonani/junk-cleaner/internal/uninstall"
	"github.com/fenilsonani/junk-cleaner/pkg/utils"
)

var dryRun bool

var uninstallCmd = &cobra.Command{
	Use:   "uninstall <app name | bundle id | path>",
	Short: "Remove an application and everything it left behind",
	Long: `Finds the application's preferences, caches, containers, launch services,
package receipts and dotfiles, quits the application, moves it to the Trash
and removes the leftovers.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		esc := e.newEscalator()
		u := uninstall.New(e.cfg.UninstallOptions(), e.layout, e.runner, e.newCleaner(esc))
		u.SetElevator(esc)
		u.SetProgressReporter(e.progress)
		u.SetLogger(e.logger)

		path, err := resolveApp(args[0], u.ListApps(ctx))
		if err != nil {
			return err
		}

		var analysis *uninstall.AnalyzeResult
		err = e.run(ctx, progress.OpAnalyze, "Looking for leftovers of "+filepath.Base(path), func(ctx context.Context) error {
			var err error
			analysis, err = u.AnalyzeApp(ctx, path)
			return err
		})
		if err != nil {
			return fmt.Errorf("analysis failed: %w", err)
		}

		rep, closeReport, err := e.report()
		if err != nil {
			return err
		}
		defer closeReport()

		if dryRun || e.textOutput() {
			if err := rep.ReportAnalysis(analysis); err != nil {
				return fmt.Errorf("failed to generate report: %w", err)
			}
		}
		if dryRun {
			return nil
		}

		app := analysis.App
		question := fmt.Sprintf("\nMove %s to the Trash and remove %d leftovers (%s)?",
			app.Name, len(analysis.Items), utils.FormatBytes(analysis.TotalSize()))
		if !assumeYes && !confirm(os.Stdin, os.Stdout, question) {
			fmt.Println("Uninstall cancelled")
			return nil
		}

		if u.NeedsElevation(analysis.Items) {
			if err := esc.EnsureReady(ctx); err != nil {
				return fmt.Errorf("uninstall aborted: %w", err)
			}
		}

		var result *uninstall.Result
		err = e.run(ctx, progress.OpClean, "Uninstalling "+app.Name, func(ctx context.Context) error {
			var err error
			result, err = u.DeepUninstall(ctx, app, analysis.Items)
			return err
		})
		if err != nil {
			return fmt.Errorf("uninstall failed: %w", err)
		}

		message := fmt.Sprintf("Removed %s, freed %s", app.Name, utils.FormatBytes(result.FreedBytes()))
		if err := e.newNotifier().Notify(context.WithoutCancel(ctx), "Uninstall Complete", message); err != nil {
			e.logger.Debug("notification failed", "error", err)
		}

		return rep.ReportUninstall(result)
	},
}

func init() {
	uninstallCmd.Flags().StringVar(&outputFmt, "output", "summary", "output format (summary, table, json, yaml)")
	uninstallCmd.Flags().BoolVar(&dryRun, "dry-run", false, "only list what would be removed")
	uninstallCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "skip the confirmation prompt")
}

// resolveApp turns the argument into a bundle path. An absolute path is
// used as is; otherwise the installed application whose name, bundle id
// or file name matches (ignoring case) is picked.
func resolveApp(arg string, apps []uninstall.AppInfo) (string, error) {
	if filepath.IsAbs(arg) {
		return filepath.Clean(arg), nil
	}

	query := strings.TrimSuffix(strings.ToLower(arg), ".app")
	for _, app := range apps {
		if strings.ToLower(app.Name) == query ||
			strings.ToLower(app.BundleID) == query ||
			strings.TrimSuffix(strings.ToLower(filepath.Base(app.Path)), ".app") == query {
			return app.Path, nil
		}
	}

	var similar []string
	for _, app := range apps {
		if strings.Contains(strings.ToLower(app.Name), query) {
			similar = append(similar, app.Name)
		}
	}
	if len(similar) > 0 {
		return "", fmt.Errorf("no application named %q; did you mean: %s", arg, strings.Join(similar, ", "))
	}
	return "", fmt.Errorf("no application named %q", arg)
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fenilsonani/junk-cleaner/internal/uninstall"
)

var appsCmd = &cobra.Command{
	Use:   "apps",
	Short: "List installed applications",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv()
		if err != nil {
			return err
		}

		u := uninstall.New(e.cfg.UninstallOptions(), e.layout, e.runner, nil)
		u.SetLogger(e.logger)
		apps := u.InstalledApps(cmd.Context())

		rep, closeReport, err := e.report()
		if err != nil {
			return err
		}
		defer closeReport()
		if err := rep.ReportApps(apps); err != nil {
			return fmt.Errorf("failed to generate report: %w", err)
		}
		return nil
	},
}

func init() {
	appsCmd.Flags().StringVar(&outputFmt, "output", "summary", "output format (summary, table, json, yaml)")
}

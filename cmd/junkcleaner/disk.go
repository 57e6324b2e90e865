package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/fenilsonani/junk-cleaner/internal/platform"
)

var diskCmd = &cobra.Command{
	Use:   "disk",
	Short: "Show capacity and free space of the home volume",
	RunE: func(cmd *cobra.Command, args []string) error {
		layout, err := platform.CurrentLayout()
		if err != nil {
			return err
		}

		info, err := platform.Disk(layout.Home)
		if err != nil {
			return err
		}

		fmt.Printf("Volume of %s\n", layout.Home)
		fmt.Printf("  Total: %.1f GB (%s)\n", info.TotalGB(), humanize.IBytes(info.TotalBytes))
		fmt.Printf("  Free:  %.1f GB (%s)\n", info.FreeGB(), humanize.IBytes(info.FreeBytes))
		fmt.Printf("  Used:  %.0f%%\n", info.UsedPercent())
		return nil
	},
}

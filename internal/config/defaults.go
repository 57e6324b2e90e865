package config

// DefaultSudoersDir holds the rule installed by the privilege handshake.
const DefaultSudoersDir = "/private/etc/sudoers.d"

// GetDefault returns the default configuration
func GetDefault() *Config {
	return &Config{
		SelectedTypes:     []string{}, // empty selects every type
		MinimumFileSizeMB: 0.01,
		Thresholds: Thresholds{
			LogAgeHours:      24,
			TempAgeHours:     1,
			DownloadsAgeDays: 90,
		},
		Retention: Retention{
			XcodeArchives: 3,
			DeviceSupport: 2,
			IOSBackups:    1,
		},
		Scan: ScanConfig{
			Concurrency:            4,
			IncludeSystemLocations: true,
		},
		Clean: CleanConfig{
			ServiceSettleMS: 300,
			Permanent:       false, // move to Trash first
			Notify:          true,
		},
		Uninstall: UninstallConfig{
			TerminateWaitMS: 1000,
			UseContentIndex: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		ProtectedPaths: []string{
			// User can add paths they want to explicitly protect
		},
		SudoersDir: DefaultSudoersDir,
	}
}

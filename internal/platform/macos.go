package platform

// LeftoverDirs returns the user and system Library folders that hold
// per-application support data, in scan order.
func (l *Layout) LeftoverDirs() []string {
	return []string{
		l.HomePath("Library/Application Support"),
		l.HomePath("Library/Preferences"),
		l.HomePath("Library/Caches"),
		l.HomePath("Library/Logs"),
		l.HomePath("Library/Containers"),
		l.HomePath("Library/Saved Application State"),
		l.HomePath("Library/HTTPStorages"),
		l.HomePath("Library/WebKit"),
		l.HomePath("Library/Application Scripts"),
		l.SystemPath("/Library/Application Support"),
		l.SystemPath("/Library/Preferences"),
		l.SystemPath("/Library/Caches"),
		l.SystemPath("/Library/Logs"),
	}
}

// LaunchAgentDirs returns the per-user and global launch agent folders.
func (l *Layout) LaunchAgentDirs() []string {
	return []string{
		l.HomePath("Library/LaunchAgents"),
		l.SystemPath("/Library/LaunchAgents"),
	}
}

// LaunchDaemonDir returns the global launch daemon folder.
func (l *Layout) LaunchDaemonDir() string {
	return l.SystemPath("/Library/LaunchDaemons")
}

// HelperToolsDir returns the privileged helper tools folder.
func (l *Layout) HelperToolsDir() string {
	return l.SystemPath("/Library/PrivilegedHelperTools")
}

// CrashReportDirs returns the diagnostic report folders.
func (l *Layout) CrashReportDirs() []string {
	return []string{
		l.HomePath("Library/Logs/DiagnosticReports"),
		l.SystemPath("/Library/Logs/DiagnosticReports"),
	}
}

// ReceiptsDir returns the package receipt database folder.
func (l *Layout) ReceiptsDir() string {
	return l.SystemPath("/private/var/db/receipts")
}

// LogDirs returns the user, global and system log folders.
func (l *Layout) LogDirs() []string {
	return []string{
		l.HomePath("Library/Logs"),
		l.SystemPath("/Library/Logs"),
		l.SystemPath("/private/var/log"),
	}
}

// TempDirs returns the temporary folders swept for stale entries.
func (l *Layout) TempDirs() []string {
	dirs := []string{
		l.SystemPath("/private/tmp"),
		l.SystemPath("/private/var/tmp"),
	}
	if l.TempDir != "" {
		dirs = append(dirs, l.TempDir)
	}
	return dirs
}

// VolumesDir returns the mount point folder for external volumes.
func (l *Layout) VolumesDir() string {
	return l.SystemPath("/Volumes")
}

// PerUserCacheGlob matches the per-user temporary cache folders.
func (l *Layout) PerUserCacheGlob() string {
	return l.SystemPath("/private/var/folders") + "/*/*/C/*"
}

// DeveloperDir returns ~/Library/Developer.
func (l *Layout) DeveloperDir() string {
	return l.HomePath("Library/Developer")
}

// DownloadsDir returns ~/Downloads.
func (l *Layout) DownloadsDir() string {
	return l.HomePath("Downloads")
}

// MobileSyncBackupDir returns the device backup folder.
func (l *Layout) MobileSyncBackupDir() string {
	return l.HomePath("Library/Application Support/MobileSync/Backup")
}

// MailDir returns ~/Library/Mail.
func (l *Layout) MailDir() string {
	return l.HomePath("Library/Mail")
}

// BrewSystemCache returns the Apple Silicon Homebrew cache.
func (l *Layout) BrewSystemCache() string {
	return l.SystemPath("/opt/homebrew/var/cache")
}

// Package junk defines the data model shared by the scanner, the cleaner and
// the uninstaller: junk types and their classification, discovered items and
// the results produced by scan and clean operations.
package junk

// Type names a specific kind of reclaimable artifact.
type Type string

// App leftovers
const (
	AppSupportLeftovers Type = "app_support_leftovers"
	AppPreferences      Type = "app_preferences"
	AppCaches           Type = "app_caches"
	AppLogs             Type = "app_logs"
	AppContainers       Type = "app_containers"
	AppSavedStates      Type = "app_saved_states"
	AppCrashReports     Type = "app_crash_reports"
	AppLaunchAgents     Type = "app_launch_agents"
	AppLaunchDaemons    Type = "app_launch_daemons"
	AppPlugins          Type = "app_plugins"
	AppFrameworks       Type = "app_frameworks"
	AppHelperTools      Type = "app_helper_tools"
	AppReceipts         Type = "app_receipts"
)

// System junk, developer tools, browsers and the rest
const (
	SystemLogs       Type = "system_logs"
	SystemCaches     Type = "system_caches"
	SystemTempFiles  Type = "system_temp_files"
	TrashContents    Type = "trash_contents"
	DownloadsOld     Type = "downloads_old"
	LanguagePacks    Type = "language_packs"
	IOSBackups       Type = "ios_backups"
	IOSDeviceSupport Type = "ios_device_support"
	XcodeSimulators  Type = "xcode_simulators"
	XcodeDerivedData Type = "xcode_derived_data"
	XcodeArchives    Type = "xcode_archives"
	XcodeDocsets     Type = "xcode_docsets"
	BrewCache        Type = "brew_cache"
	NpmCache         Type = "npm_cache"
	YarnCache        Type = "yarn_cache"
	PipCache         Type = "pip_cache"
	GradleCache      Type = "gradle_cache"
	MavenCache       Type = "maven_cache"
	DockerImages     Type = "docker_images"
	PodCache         Type = "pod_cache"
	GemCache         Type = "gem_cache"
	DuplicateFiles   Type = "duplicate_files"
	LargeOldFiles    Type = "large_old_files"
	FontCache        Type = "font_cache"
	SpotlightIndex   Type = "spotlight_index"
	MailAttachments  Type = "mail_attachments"
	SafariCache      Type = "safari_cache"
	ChromeCache      Type = "chrome_cache"
	FirefoxCache     Type = "firefox_cache"
)

// AllTypes lists every Type in declaration order.
var AllTypes = []Type{
	AppSupportLeftovers, AppPreferences, AppCaches, AppLogs, AppContainers,
	AppSavedStates, AppCrashReports, AppLaunchAgents, AppLaunchDaemons,
	AppPlugins, AppFrameworks, AppHelperTools, AppReceipts,
	SystemLogs, SystemCaches, SystemTempFiles, TrashContents, DownloadsOld,
	LanguagePacks, IOSBackups, IOSDeviceSupport, XcodeSimulators,
	XcodeDerivedData, XcodeArchives, XcodeDocsets, BrewCache, NpmCache,
	YarnCache, PipCache, GradleCache, MavenCache, DockerImages, PodCache,
	GemCache, DuplicateFiles, LargeOldFiles, FontCache, SpotlightIndex,
	MailAttachments, SafariCache, ChromeCache, FirefoxCache,
}

// CategoryGroup is the coarse grouping shown to the user.
type CategoryGroup string

const (
	CategoryAppLeftovers CategoryGroup = "App Leftovers"
	CategorySystemJunk   CategoryGroup = "System Junk"
	CategoryDevTools     CategoryGroup = "Developer Tools"
	CategoryBrowsers     CategoryGroup = "Browsers"
	CategoryOther        CategoryGroup = "Other"
)

// AllCategories lists every CategoryGroup in display order.
var AllCategories = []CategoryGroup{
	CategoryAppLeftovers, CategorySystemJunk, CategoryDevTools, CategoryBrowsers, CategoryOther,
}

// RiskLevel describes how careful the user should be before deleting.
type RiskLevel int

const (
	RiskSafe RiskLevel = iota
	RiskCaution
	RiskDangerous
)

// String returns a human-readable risk level
func (r RiskLevel) String() string {
	switch r {
	case RiskSafe:
		return "Safe"
	case RiskCaution:
		return "Caution"
	case RiskDangerous:
		return "Dangerous"
	default:
		return "Unknown"
	}
}

// ParseType converts a configuration key into a Type.
func ParseType(s string) (Type, bool) {
	t := Type(s)
	_, ok := classifications[t]
	return t, ok
}

package junk

type classification struct {
	display  string
	category CategoryGroup
	risk     RiskLevel
}

var classifications = map[Type]classification{
	AppSupportLeftovers: {"App Support Leftovers", CategoryAppLeftovers, RiskSafe},
	AppPreferences:      {"App Preferences", CategoryAppLeftovers, RiskSafe},
	AppCaches:           {"App Caches", CategoryAppLeftovers, RiskSafe},
	AppLogs:             {"App Logs", CategoryAppLeftovers, RiskSafe},
	AppContainers:       {"App Containers", CategoryAppLeftovers, RiskCaution},
	AppSavedStates:      {"App Saved States", CategoryAppLeftovers, RiskSafe},
	AppCrashReports:     {"App Crash Reports", CategoryAppLeftovers, RiskSafe},
	AppLaunchAgents:     {"App Launch Agents", CategoryAppLeftovers, RiskCaution},
	AppLaunchDaemons:    {"App Launch Daemons", CategoryAppLeftovers, RiskDangerous},
	AppPlugins:          {"App Plugins", CategoryAppLeftovers, RiskDangerous},
	AppFrameworks:       {"App Frameworks", CategoryAppLeftovers, RiskDangerous},
	AppHelperTools:      {"App Helper Tools", CategoryAppLeftovers, RiskDangerous},
	AppReceipts:         {"App Receipts (pkgutil)", CategoryAppLeftovers, RiskDangerous},

	SystemLogs:      {"System Logs", CategorySystemJunk, RiskSafe},
	SystemCaches:    {"System Caches", CategorySystemJunk, RiskSafe},
	SystemTempFiles: {"Temporary Files", CategorySystemJunk, RiskSafe},
	TrashContents:   {"Trash Contents", CategorySystemJunk, RiskSafe},
	LanguagePacks:   {"Unused Language Packs", CategorySystemJunk, RiskCaution},
	FontCache:       {"Font Cache", CategorySystemJunk, RiskSafe},
	SpotlightIndex:  {"Spotlight Metadata", CategorySystemJunk, RiskDangerous},

	IOSBackups:       {"Old iOS/iPadOS Backups", CategoryDevTools, RiskCaution},
	IOSDeviceSupport: {"iOS Device Support Files", CategoryDevTools, RiskCaution},
	XcodeSimulators:  {"Xcode Simulator Runtimes", CategoryDevTools, RiskCaution},
	XcodeDerivedData: {"Xcode DerivedData", CategoryDevTools, RiskSafe},
	XcodeArchives:    {"Xcode Archives", CategoryDevTools, RiskCaution},
	XcodeDocsets:     {"Xcode Documentation Sets", CategoryDevTools, RiskCaution},
	BrewCache:        {"Homebrew Cache", CategoryDevTools, RiskSafe},
	NpmCache:         {"npm Cache", CategoryDevTools, RiskSafe},
	YarnCache:        {"Yarn Cache", CategoryDevTools, RiskSafe},
	PipCache:         {"pip Cache", CategoryDevTools, RiskSafe},
	GradleCache:      {"Gradle Cache", CategoryDevTools, RiskSafe},
	MavenCache:       {"Maven Cache", CategoryDevTools, RiskSafe},
	DockerImages:     {"Docker Images/Containers", CategoryDevTools, RiskCaution},
	PodCache:         {"CocoaPods Cache", CategoryDevTools, RiskSafe},
	GemCache:         {"Ruby Gems Cache", CategoryDevTools, RiskSafe},

	SafariCache:  {"Safari Cache", CategoryBrowsers, RiskSafe},
	ChromeCache:  {"Chrome/Chromium Cache", CategoryBrowsers, RiskSafe},
	FirefoxCache: {"Firefox Cache", CategoryBrowsers, RiskSafe},

	DownloadsOld:    {"Old Downloads (90+ days)", CategoryOther, RiskCaution},
	DuplicateFiles:  {"Duplicate Files", CategoryOther, RiskDangerous},
	LargeOldFiles:   {"Large Unused Files (500MB+)", CategoryOther, RiskDangerous},
	MailAttachments: {"Mail Downloads Cache", CategoryOther, RiskCaution},
}

// Category returns the group a Type belongs to. Unknown types fall into
// CategoryOther.
func Category(t Type) CategoryGroup {
	if c, ok := classifications[t]; ok {
		return c.category
	}
	return CategoryOther
}

// Risk returns the risk level of a Type. Unknown types are Dangerous.
func Risk(t Type) RiskLevel {
	if c, ok := classifications[t]; ok {
		return c.risk
	}
	return RiskDangerous
}

// Category is shorthand for Category(t).
func (t Type) Category() CategoryGroup { return Category(t) }

// Risk is shorthand for Risk(t).
func (t Type) Risk() RiskLevel { return Risk(t) }

// String returns the display name of the type
func (t Type) String() string {
	if c, ok := classifications[t]; ok {
		return c.display
	}
	return string(t)
}

// IsService reports whether items of this type define a background service
// that must be stopped before its files are removed.
func (t Type) IsService() bool {
	return t == AppLaunchAgents || t == AppLaunchDaemons
}

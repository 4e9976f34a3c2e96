package cli

// GlobalFlags holds flags available to all subcommands.
type GlobalFlags struct {
	Config  string `long:"config" description:"Path to config file" default:""`
	JSON    bool   `long:"json" description:"Output in JSON format"`
	Verbose bool   `long:"verbose" description:"Enable verbose output"`
	Version bool   `long:"version" description:"Show version and exit"`
}

// StatusCommand shows database statistics and tier occupancy.
type StatusCommand struct {
	globals *GlobalFlags
	version string
}

// ActivitiesCommand lists raw activity records for a time range.
type ActivitiesCommand struct {
	Range  string `long:"range" description:"Time phrase (e.g. 'yesterday', 'last 3 hours')" default:"today"`
	Limit  int    `long:"limit" description:"Maximum results" default:"50"`
	Offset int    `long:"offset" description:"Skip first N results" default:"0"`

	globals *GlobalFlags
	version string
}

// StatsCommand aggregates a time range into per-app and per-category time.
type StatsCommand struct {
	Range string `long:"range" description:"Time phrase (e.g. 'today', 'this week')" default:"today"`

	globals *GlobalFlags
	version string
}

// QueryCommand answers a free-text question about past activity with a
// structured report.
type QueryCommand struct {
	NoCache bool `long:"no-cache" description:"Bypass the query cache"`

	globals *GlobalFlags
	version string
}

// TrackCommand reads observations from stdin and persists merged records.
type TrackCommand struct {
	FlushInterval int `long:"flush-interval" description:"Override flush interval in seconds"`

	globals *GlobalFlags
	version string
}

// AppsCommand lists the app registry.
type AppsCommand struct {
	SetName []string `long:"set-name" description:"Override display name as app=name" value-name:"APP=NAME"`

	globals *GlobalFlags
	version string
}

// RollupCommand runs one rollup pass immediately.
type RollupCommand struct {
	globals *GlobalFlags
	version string
}

// CleanupCommand applies retention across all tiers.
type CleanupCommand struct {
	OlderThan string `long:"older-than" description:"Override retention period (e.g. 365d)"`
	DryRun    bool   `long:"dry-run" description:"Show what would be deleted without deleting"`

	globals *GlobalFlags
	version string
}

// ExportCommand dumps a time range as JSON.
type ExportCommand struct {
	Range  string `long:"range" description:"Time phrase (e.g. 'last week')" default:"today"`
	Output string `long:"output" short:"o" description:"Write to file instead of stdout"`

	globals *GlobalFlags
	version string
}

// PurgeCommand deletes ALL data with safety confirmation.
type PurgeCommand struct {
	All   bool `long:"all" description:"Required flag to confirm purge intent"`
	Force bool `long:"force" description:"Skip safety confirmation prompt"`

	globals *GlobalFlags
	version string
}

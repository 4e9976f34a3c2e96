// Package cli wires the ltm command line: tracking, querying, stats, and
// store maintenance.
package cli

import (
	"fmt"
	"os"

	goflags "github.com/jessevdk/go-flags"
)

// commands holds references to all subcommand structs for inspection/testing.
type commands struct {
	Status     *StatusCommand
	Activities *ActivitiesCommand
	Stats      *StatsCommand
	Query      *QueryCommand
	Track      *TrackCommand
	Apps       *AppsCommand
	Rollup     *RollupCommand
	Cleanup    *CleanupCommand
	Export     *ExportCommand
	Purge      *PurgeCommand
}

// buildParser constructs the go-flags parser with all subcommands registered.
func buildParser(version string) (*goflags.Parser, *GlobalFlags, *commands) {
	var globals GlobalFlags

	parser := goflags.NewParser(&globals, goflags.Default)
	parser.Name = "ltm"
	parser.LongDescription = "Local long-term memory for desktop activity: tracks, tiers, and answers questions about where your time went."

	cmds := &commands{
		Status:     &StatusCommand{globals: &globals, version: version},
		Activities: &ActivitiesCommand{globals: &globals, version: version},
		Stats:      &StatsCommand{globals: &globals, version: version},
		Query:      &QueryCommand{globals: &globals, version: version},
		Track:      &TrackCommand{globals: &globals, version: version},
		Apps:       &AppsCommand{globals: &globals, version: version},
		Rollup:     &RollupCommand{globals: &globals, version: version},
		Cleanup:    &CleanupCommand{globals: &globals, version: version},
		Export:     &ExportCommand{globals: &globals, version: version},
		Purge:      &PurgeCommand{globals: &globals, version: version},
	}

	parser.AddCommand("status", "Show store health and statistics", "Show database statistics, tier occupancy, and top apps.", cmds.Status)
	parser.AddCommand("activities", "List raw activity records", "List raw activity records for a time range.", cmds.Activities)
	parser.AddCommand("stats", "Aggregate time per app and category", "Aggregate a time range into per-app and per-category totals.", cmds.Stats)
	parser.AddCommand("query", "Answer a question about past activity", "Resolve a free-text question into a time range and filters and print a structured report.", cmds.Query)
	parser.AddCommand("track", "Ingest observations from stdin", "Read JSON-lines activity observations from stdin, merge, and persist.", cmds.Track)
	parser.AddCommand("apps", "Show the app registry", "List every app ever seen with lifetime usage.", cmds.Apps)
	parser.AddCommand("rollup", "Run a rollup pass now", "Age hot records into hourly summaries and hourly into daily, immediately.", cmds.Rollup)
	parser.AddCommand("cleanup", "Apply retention to old data", "Delete records and summaries past the retention window.", cmds.Cleanup)
	parser.AddCommand("export", "Export a time range as JSON", "Dump everything known about a time range as JSON.", cmds.Export)
	parser.AddCommand("purge", "Delete ALL data", "Delete ALL activity data. Destructive operation with safety prompt.", cmds.Purge)

	return parser, &globals, cmds
}

// Run is the main entry point for the ltm CLI using os.Args.
func Run(version string) error {
	return RunWithArgs(version, nil)
}

// RunWithArgs parses the given args (or os.Args if nil) and executes the matched subcommand.
func RunWithArgs(version string, args []string) error {
	// Handle --version before parser (go-flags requires a subcommand, but
	// --version is valid without one).
	checkArgs := args
	if checkArgs == nil {
		checkArgs = os.Args[1:]
	}
	for _, arg := range checkArgs {
		if arg == "--version" {
			fmt.Printf("ltm %s\n", version)
			return nil
		}
		if arg == "--" {
			break
		}
	}

	parser, _, _ := buildParser(version)

	var err error
	if args != nil {
		_, err = parser.ParseArgs(args)
	} else {
		_, err = parser.Parse()
	}

	if err != nil {
		if flagsErr, ok := err.(*goflags.Error); ok {
			if flagsErr.Type == goflags.ErrHelp {
				return nil
			}
		}
		return err
	}

	return nil
}

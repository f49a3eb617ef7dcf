// Command rfserverctl inspects a running rfserver's live tables.
//
// Noun-group CLI pattern:
//
//	rfserverctl <resource> <action>
//
// Examples:
//
//	rfserverctl binding list
//	rfserverctl isl list
//	rfserverctl health
//
// rfserverctl talks directly to the same storage backend the daemon uses
// (spec.md §4.1's Driver abstraction) rather than to the daemon process, so
// it works equally against a shared Redis instance or, for offline
// inspection, an empty in-memory store.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/routeflow/rfserver/pkg/rfconfig"
	"github.com/routeflow/rfserver/pkg/rfengine"
	"github.com/routeflow/rfserver/pkg/rfstore"
	"github.com/routeflow/rfserver/pkg/rftransport"
	"github.com/routeflow/rfserver/pkg/version"
)

// App holds CLI state shared across all commands.
type App struct {
	redisAddr  string
	jsonOutput bool
	engine     *rfengine.Server
}

var app = &App{}

var rootCmd = &cobra.Command{
	Use:           "rfserverctl",
	Short:         "Inspect a running rfserver's binding and ISL tables",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if isHelpOrVersion(cmd) {
			return nil
		}

		var driver rfstore.Driver
		if app.redisAddr == "" {
			driver = rfstore.NewMemoryDriver()
		} else {
			var err error
			driver, err = rfstore.NewRedisDriverAt(app.redisAddr)
			if err != nil {
				return err
			}
		}

		app.engine = rfengine.NewServer(driver, rfconfig.NewMappingConfig(nil), rfconfig.NewISLConfig(nil), nil, rftransport.NewMemTransport())
		return nil
	},
}

func isHelpOrVersion(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Name() == "help" || c.Name() == "version" {
			return true
		}
	}
	return false
}

func main() {
	rootCmd.PersistentFlags().StringVar(&app.redisAddr, "redis", "", "Redis address backing the live tables (empty inspects an empty in-memory store)")
	rootCmd.PersistentFlags().BoolVar(&app.jsonOutput, "json", false, "JSON output")

	rootCmd.AddCommand(bindingCmd, islCmd, healthCmd, versionCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Info())
	},
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

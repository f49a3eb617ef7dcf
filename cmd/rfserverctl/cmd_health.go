package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/routeflow/rfserver/pkg/rfcli"
	"github.com/routeflow/rfserver/pkg/rfhealth"
)

var healthCheckName string

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Run invariant checks against the live tables",
	Long: `Run spec.md §8's invariant checks against the live binding and ISL tables.

Examples:
  rfserverctl health
  rfserverctl health --check isl-mirror`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		checker := rfhealth.NewChecker()

		if healthCheckName != "" {
			result, err := checker.RunCheck(ctx, app.engine, healthCheckName)
			if err != nil {
				return err
			}
			if app.jsonOutput {
				return json.NewEncoder(os.Stdout).Encode(result)
			}
			printHealthResult(*result)
			return nil
		}

		report, err := checker.Run(ctx, app.engine)
		if err != nil {
			return err
		}

		if app.jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(report)
		}

		fmt.Printf("Health Report\n")
		fmt.Printf("Timestamp: %s\n", report.Timestamp.Format("2006-01-02 15:04:05"))
		fmt.Printf("Duration: %s\n\n", report.Duration)

		t := rfcli.NewTable("CHECK", "STATUS", "MESSAGE", "DURATION")
		for _, result := range report.Results {
			t.Row(result.Check, rfcli.ColorizeHealthStatus(string(result.Status)), result.Message, result.Duration.String())
		}
		t.Flush()

		fmt.Printf("\nOverall Status: %s\n", rfcli.ColorizeHealthStatus(string(report.Overall)))
		return nil
	},
}

func printHealthResult(result rfhealth.Result) {
	fmt.Printf("Check: %s\n", result.Check)
	fmt.Printf("Status: %s\n", rfcli.ColorizeHealthStatus(string(result.Status)))
	fmt.Printf("Message: %s\n", result.Message)
	fmt.Printf("Duration: %s\n", result.Duration)
}

func init() {
	healthCmd.Flags().StringVar(&healthCheckName, "check", "", "Run a single named check instead of all of them")
}

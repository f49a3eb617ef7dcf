package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/routeflow/rfserver/pkg/rfcli"
)

var islCmd = &cobra.Command{
	Use:   "isl",
	Short: "Inter-switch link table operations",
}

var islListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all inter-switch links",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		entries, err := app.engine.ISLs().All(ctx)
		if err != nil {
			return fmt.Errorf("listing ISLs: %w", err)
		}

		if app.jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(entries)
		}

		t := rfcli.NewTable("ID", "VM_ID", "CT_ID", "DP_ID", "DP_PORT", "REM_CT_ID", "REM_DP_ID", "REM_DP_PORT", "STATUS")
		for _, e := range entries {
			t.Row(
				strconv.FormatInt(e.ID(), 10),
				strconv.FormatUint(e.VMID, 10),
				derefInt(e.CtID), derefU64(e.DPID), derefU16(e.DPPort),
				derefInt(e.RemCtID), derefU64(e.RemDPID), derefU16(e.RemDPPort),
				rfcli.ColorizeISLStatus(e.Status().String()),
			)
		}
		t.Flush()
		return nil
	},
}

func init() {
	islCmd.AddCommand(islListCmd)
}

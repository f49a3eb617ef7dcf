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

var bindingCmd = &cobra.Command{
	Use:   "binding",
	Short: "VM/datapath binding table operations",
}

var bindingListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all bindings",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		entries, err := app.engine.Bindings().All(ctx)
		if err != nil {
			return fmt.Errorf("listing bindings: %w", err)
		}

		if app.jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(entries)
		}

		t := rfcli.NewTable("ID", "VM_ID", "VM_PORT", "CT_ID", "DP_ID", "DP_PORT", "VS_ID", "VS_PORT", "ETH_ADDR", "STATUS")
		for _, e := range entries {
			t.Row(
				strconv.FormatInt(e.ID(), 10),
				derefU64(e.VMID), derefU16(e.VMPort), derefInt(e.CtID),
				derefU64(e.DPID), derefU16(e.DPPort), derefU64(e.VSID), derefU16(e.VSPort),
				dash(derefStr(e.EthAddr)),
				rfcli.ColorizeBindingStatus(e.Status().String()),
			)
		}
		t.Flush()
		return nil
	},
}

func init() {
	bindingCmd.AddCommand(bindingListCmd)
}

func derefU64(p *uint64) string {
	if p == nil {
		return "-"
	}
	return strconv.FormatUint(*p, 10)
}

func derefU16(p *uint16) string {
	if p == nil {
		return "-"
	}
	return strconv.FormatUint(uint64(*p), 10)
}

func derefInt(p *int) string {
	if p == nil {
		return "-"
	}
	return strconv.Itoa(*p)
}

func derefStr(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

package rfconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/routeflow/rfserver/pkg/rfentry"
)

type rawISL struct {
	VMID        string   `json:"vm-id"`
	Datapaths   []string `json:"datapaths"`
	Ports       []uint16 `json:"ports"`
	DLAddrs     []string `json:"dl-addrs"`
	Controllers []int    `json:"controllers,omitempty"`
}

type rawISLConfig struct {
	InterSwitchLinks []rawISL `json:"inter-switch-links"`
}

// ISLConfig is the compiled, queryable form of the ISL config (spec.md
// §4.3, §4.4).
type ISLConfig struct {
	entries []rfentry.ISLConfigEntry
}

// NewISLConfig builds an ISLConfig directly from already-expanded entries,
// for callers that assemble the ISL config programmatically (tests,
// rfserverctl's dry-run mode) rather than from a JSON file.
func NewISLConfig(entries []rfentry.ISLConfigEntry) *ISLConfig {
	return &ISLConfig{entries: entries}
}

// LoadISLConfig reads and compiles an ISL config JSON file from disk. An
// empty path means "no ISL config was supplied" and yields an empty,
// valid ISLConfig (spec.md §6: the ISL config file is optional).
func LoadISLConfig(path string) (*ISLConfig, error) {
	if path == "" {
		return &ISLConfig{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rfconfig: reading ISL config %s: %w", path, err)
	}
	var raw rawISLConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("rfconfig: parsing ISL config %s: %w", path, err)
	}
	return compileISLConfig(raw)
}

// compileISLConfig mirrors original_source/rfserver/rftable.py's
// RFISLConf.configure, including its quirk of reading controllers[0] for
// both the local and the remote side when a "controllers" array is present
// (spec.md §9 Open Question: preserved intentionally, flagged in tests —
// see isl_test.go TestExpandISL_ControllerFallbackIsSymmetric).
func compileISLConfig(raw rawISLConfig) (*ISLConfig, error) {
	cfg := &ISLConfig{}
	for i, isl := range raw.InterSwitchLinks {
		if len(isl.Datapaths) != 2 || len(isl.Ports) != 2 || len(isl.DLAddrs) != 2 {
			return nil, fmt.Errorf("rfconfig: inter-switch-link %d: datapaths/ports/dl-addrs must each have exactly two elements", i)
		}
		dp1, err := strconv.ParseUint(isl.Datapaths[0], 16, 64)
		if err != nil {
			return nil, fmt.Errorf("rfconfig: inter-switch-link %d: datapaths[0] %q is not hex: %w", i, isl.Datapaths[0], err)
		}
		dp2, err := strconv.ParseUint(isl.Datapaths[1], 16, 64)
		if err != nil {
			return nil, fmt.Errorf("rfconfig: inter-switch-link %d: datapaths[1] %q is not hex: %w", i, isl.Datapaths[1], err)
		}

		ct1, ct2 := 0, 0
		if len(isl.Controllers) > 0 {
			ct1 = isl.Controllers[0]
			ct2 = isl.Controllers[0]
		}

		vmID, err := strconv.ParseUint(strings.TrimPrefix(strings.TrimPrefix(isl.VMID, "0x"), "0X"), 16, 64)
		if err != nil {
			return nil, fmt.Errorf("rfconfig: inter-switch-link %d: vm-id %q is not hex: %w", i, isl.VMID, err)
		}

		cfg.entries = append(cfg.entries, rfentry.ISLConfigEntry{
			VMID:       vmID,
			CtID:       ct1,
			DPID:       dp1,
			DPPort:     isl.Ports[0],
			EthAddr:    isl.DLAddrs[0],
			RemCtID:    ct2,
			RemDPID:    dp2,
			RemDPPort:  isl.Ports[1],
			RemEthAddr: isl.DLAddrs[1],
		})
	}
	return cfg, nil
}

// EntriesByPort returns every ISL config entry whose local or remote side
// matches the given (ct_id, dp_id, dp_port) triple (spec.md §4.4
// "get_entries_by_port"), mirroring the original's concatenation of the two
// separate lookups.
func (c *ISLConfig) EntriesByPort(ctID int, dpID uint64, dpPort uint16) []rfentry.ISLConfigEntry {
	var out []rfentry.ISLConfigEntry
	for i := range c.entries {
		if c.entries[i].MatchesPort(ctID, dpID, dpPort) {
			out = append(out, c.entries[i])
		}
	}
	return out
}

// All returns every compiled ISL config entry.
func (c *ISLConfig) All() []rfentry.ISLConfigEntry {
	return c.entries
}

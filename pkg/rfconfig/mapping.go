// Package rfconfig loads rfserver's three static, read-only-after-startup
// JSON documents: the mapping config, the ISL config, and the default-rules
// document (spec.md §4.3, §5). Unlike the binding and ISL tables, these
// never go through rfstore.Driver — they are built once at startup and
// looked up through plain Go slices and maps.
package rfconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/routeflow/rfserver/pkg/rfentry"
)

// rawPortGroup is one entry of the mapping config's "port-groups" array.
type rawPortGroup struct {
	Name       string `json:"name"`
	DPID       string `json:"dp-id"`
	NumPorts   int    `json:"num-ports"`
	PortOffset uint16 `json:"port-offset"`
	Controller *int   `json:"controller,omitempty"`
}

type rawMapping struct {
	PortGroup  string `json:"port-group"`
	NumPorts   int    `json:"num-ports"`
	PortOffset uint16 `json:"port-offset"`
}

type rawVirtualMachine struct {
	VMID     string       `json:"vm-id"`
	Mappings []rawMapping `json:"mappings"`
}

type rawMappingConfig struct {
	PortGroups      []rawPortGroup      `json:"port-groups"`
	VirtualMachines []rawVirtualMachine `json:"virtual-machines"`
}

// MappingConfig is the compiled, queryable form of the mapping config
// (spec.md §4.3 "Config ingestion").
type MappingConfig struct {
	entries   []rfentry.BindingConfigEntry
	byVMPort  map[vmPortKey]rfentry.BindingConfigEntry
	byDPPort  map[dpPortKey]rfentry.BindingConfigEntry
}

type vmPortKey struct {
	vmID   uint64
	vmPort uint16
}

type dpPortKey struct {
	ctID   int
	dpID   uint64
	dpPort uint16
}

// NewMappingConfig builds a MappingConfig directly from already-expanded
// entries, for callers that assemble the mapping programmatically (tests,
// rfserverctl's dry-run mode) rather than from a JSON file.
func NewMappingConfig(entries []rfentry.BindingConfigEntry) *MappingConfig {
	cfg := &MappingConfig{
		byVMPort: make(map[vmPortKey]rfentry.BindingConfigEntry, len(entries)),
		byDPPort: make(map[dpPortKey]rfentry.BindingConfigEntry, len(entries)),
	}
	for _, e := range entries {
		cfg.entries = append(cfg.entries, e)
		cfg.byVMPort[vmPortKey{e.VMID, e.VMPort}] = e
		cfg.byDPPort[dpPortKey{e.CtID, e.DPID, e.DPPort}] = e
	}
	return cfg
}

// LoadMappingConfig reads and compiles a mapping config JSON file from disk.
func LoadMappingConfig(path string) (*MappingConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rfconfig: reading mapping config %s: %w", path, err)
	}
	var raw rawMappingConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("rfconfig: parsing mapping config %s: %w", path, err)
	}
	return compileMappingConfig(raw)
}

// compileMappingConfig mirrors original_source/rfserver/rftable.py's
// RFConfig.configure: for each port-group referenced by a virtual machine's
// mapping block, it expands num-ports consecutive (vm_port, dp_port) pairs
// starting at the two port-offsets, skipping any mapping whose num-ports
// doesn't agree with its port-group's declared num-ports. The caller is
// expected to have already run Validate against the schema-shaped checks;
// an undefined port-group reference here is a hard error rather than the
// original's silent KeyError.
func compileMappingConfig(raw rawMappingConfig) (*MappingConfig, error) {
	groups := make(map[string]rawPortGroup, len(raw.PortGroups))
	for _, pg := range raw.PortGroups {
		groups[pg.Name] = pg
	}

	cfg := &MappingConfig{
		byVMPort: make(map[vmPortKey]rfentry.BindingConfigEntry),
		byDPPort: make(map[dpPortKey]rfentry.BindingConfigEntry),
	}

	for _, vm := range raw.VirtualMachines {
		vmID, err := strconv.ParseUint(strings.TrimPrefix(strings.TrimPrefix(vm.VMID, "0x"), "0X"), 16, 64)
		if err != nil {
			return nil, fmt.Errorf("rfconfig: virtual machine vm-id %q is not hex: %w", vm.VMID, err)
		}
		for _, pm := range vm.Mappings {
			pg, ok := groups[pm.PortGroup]
			if !ok {
				return nil, fmt.Errorf("rfconfig: virtual machine %s references undefined port-group %q", vm.VMID, pm.PortGroup)
			}
			if pg.NumPorts != pm.NumPorts {
				continue
			}
			dpID, err := strconv.ParseUint(pg.DPID, 16, 64)
			if err != nil {
				return nil, fmt.Errorf("rfconfig: port-group %s dp-id %q is not hex: %w", pg.Name, pg.DPID, err)
			}

			// Preserves the original's fallback-to-0 behavior when a
			// port-group has no "controller" field (spec.md §9 Open
			// Question: behavior preserved intentionally, not a bug fix).
			ctID := 0
			if pg.Controller != nil {
				ctID = *pg.Controller
			}

			dpPort := pg.PortOffset
			for i := 0; i < pm.NumPorts; i++ {
				vmPort := pm.PortOffset + uint16(i)
				entry := rfentry.BindingConfigEntry{
					VMID:   vmID,
					VMPort: vmPort,
					CtID:   ctID,
					DPID:   dpID,
					DPPort: dpPort,
				}
				cfg.entries = append(cfg.entries, entry)
				cfg.byVMPort[vmPortKey{vmID, vmPort}] = entry
				cfg.byDPPort[dpPortKey{ctID, dpID, dpPort}] = entry
				dpPort++
			}
		}
	}
	return cfg, nil
}

// GetForVMPort looks up the config entry for a (vm_id, vm_port) pair
// (spec.md §4.3 "get_config_for_vm_port").
func (c *MappingConfig) GetForVMPort(vmID uint64, vmPort uint16) (rfentry.BindingConfigEntry, bool) {
	e, ok := c.byVMPort[vmPortKey{vmID, vmPort}]
	return e, ok
}

// GetForDPPort looks up the config entry for a (ct_id, dp_id, dp_port)
// triple (spec.md §4.3 "get_config_for_dp_port").
func (c *MappingConfig) GetForDPPort(ctID int, dpID uint64, dpPort uint16) (rfentry.BindingConfigEntry, bool) {
	e, ok := c.byDPPort[dpPortKey{ctID, dpID, dpPort}]
	return e, ok
}

// All returns every compiled mapping-config entry.
func (c *MappingConfig) All() []rfentry.BindingConfigEntry {
	return c.entries
}

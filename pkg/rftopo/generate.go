package rftopo

import (
	"encoding/json"
	"fmt"
	"os"
)

// mappingPortGroup/mappingVM/mappingDoc mirror rfconfig's rawPortGroup/
// rawVirtualMachine/rawMappingConfig JSON shape exactly, so GenerateMapping's
// output is a file LoadMappingConfig can read back unmodified.
type mappingPortGroup struct {
	Name       string `json:"name"`
	DPID       string `json:"dp-id"`
	NumPorts   int    `json:"num-ports"`
	PortOffset uint16 `json:"port-offset"`
	Controller *int   `json:"controller,omitempty"`
}

type mappingEntry struct {
	PortGroup  string `json:"port-group"`
	NumPorts   int    `json:"num-ports"`
	PortOffset uint16 `json:"port-offset"`
}

type mappingVM struct {
	VMID     string         `json:"vm-id"`
	Mappings []mappingEntry `json:"mappings"`
}

type mappingDoc struct {
	PortGroups      []mappingPortGroup `json:"port-groups"`
	VirtualMachines []mappingVM        `json:"virtual-machines"`
}

// GenerateMapping compiles a Topology's port-groups and virtual machines
// into a mapping-config JSON file, ready for rfconfig.LoadMappingConfig.
func GenerateMapping(topo *Topology, outPath string) error {
	doc := mappingDoc{}
	for _, pg := range topo.PortGroups {
		doc.PortGroups = append(doc.PortGroups, mappingPortGroup{
			Name:       pg.Name,
			DPID:       pg.DPID,
			NumPorts:   pg.NumPorts,
			PortOffset: pg.PortOffset,
			Controller: pg.Controller,
		})
	}

	// Deterministic VM ordering: iterate map keys sorted, since map
	// iteration order is not stable and generated config should diff
	// cleanly across runs.
	for _, vmID := range sortedKeys(topo.VirtualMachines) {
		vm := topo.VirtualMachines[vmID]
		var mappings []mappingEntry
		for _, m := range vm.Mappings {
			mappings = append(mappings, mappingEntry{
				PortGroup:  m.PortGroup,
				NumPorts:   m.NumPorts,
				PortOffset: m.PortOffset,
			})
		}
		doc.VirtualMachines = append(doc.VirtualMachines, mappingVM{VMID: vmID, Mappings: mappings})
	}

	return writeJSON(outPath, doc)
}

// islEntry/islDoc mirror rfconfig's rawISL/rawISLConfig JSON shape.
type islEntry struct {
	VMID        string   `json:"vm-id"`
	Datapaths   []string `json:"datapaths"`
	Ports       []uint16 `json:"ports"`
	DLAddrs     []string `json:"dl-addrs"`
	Controllers []int    `json:"controllers,omitempty"`
}

type islDoc struct {
	InterSwitchLinks []islEntry `json:"inter-switch-links"`
}

// GenerateISL compiles a Topology's links into an ISL-config JSON file,
// ready for rfconfig.LoadISLConfig.
func GenerateISL(topo *Topology, outPath string) error {
	doc := islDoc{}
	for _, l := range topo.Links {
		doc.InterSwitchLinks = append(doc.InterSwitchLinks, islEntry{
			VMID:        l.VMID,
			Datapaths:   []string{l.Datapaths[0], l.Datapaths[1]},
			Ports:       []uint16{l.Ports[0], l.Ports[1]},
			DLAddrs:     []string{l.DLAddrs[0], l.DLAddrs[1]},
			Controllers: l.Controllers,
		})
	}
	return writeJSON(outPath, doc)
}

func writeJSON(path string, doc interface{}) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("rftopo: marshaling %s: %w", path, err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("rftopo: writing %s: %w", path, err)
	}
	return nil
}

func sortedKeys(m map[string]VMDef) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	return keys
}

package rftopo

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load parses a topology YAML file and validates required fields.
func Load(path string) (*Topology, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rftopo: reading topology file: %w", err)
	}

	var topo Topology
	if err := yaml.Unmarshal(data, &topo); err != nil {
		return nil, fmt.Errorf("rftopo: parsing topology YAML: %w", err)
	}
	if err := validate(&topo); err != nil {
		return nil, fmt.Errorf("rftopo: validating topology: %w", err)
	}
	return &topo, nil
}

func validate(topo *Topology) error {
	if topo.Name == "" {
		return fmt.Errorf("topology name is required")
	}
	if len(topo.PortGroups) == 0 {
		return fmt.Errorf("at least one port-group is required")
	}

	groups := make(map[string]bool, len(topo.PortGroups))
	for _, pg := range topo.PortGroups {
		if pg.Name == "" {
			return fmt.Errorf("port-group missing name")
		}
		if pg.DPID == "" {
			return fmt.Errorf("port-group %s: dp-id is required", pg.Name)
		}
		if pg.NumPorts <= 0 {
			return fmt.Errorf("port-group %s: num-ports must be positive", pg.Name)
		}
		groups[pg.Name] = true
	}

	for vmID, vm := range topo.VirtualMachines {
		if !strings.HasPrefix(vmID, "0x") {
			return fmt.Errorf("virtual machine %s: vm-id key must be a 0x-prefixed hex string", vmID)
		}
		for _, m := range vm.Mappings {
			if !groups[m.PortGroup] {
				return fmt.Errorf("virtual machine %s: references undefined port-group %q", vmID, m.PortGroup)
			}
		}
	}

	for i, l := range topo.Links {
		if l.VMID == "" {
			return fmt.Errorf("link %d: vm-id is required", i)
		}
		for _, dp := range l.Datapaths {
			if dp == "" {
				return fmt.Errorf("link %d: both datapaths are required", i)
			}
		}
		for _, addr := range l.DLAddrs {
			if addr == "" {
				return fmt.Errorf("link %d: both dl-addrs are required", i)
			}
		}
	}

	return nil
}

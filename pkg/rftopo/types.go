// Package rftopo authors RouteFlow network topologies as YAML and compiles
// them to the mapping-config and ISL-config JSON documents rfconfig loads
// at startup (spec.md §4.3, §6), the same "declarative topology in, vendor
// JSON out" shape as labgen's topology-to-containerlab pipeline.
package rftopo

// Topology is the top-level structure of an rftopo YAML file.
type Topology struct {
	Name        string                 `yaml:"name"`
	PortGroups  []PortGroupDef         `yaml:"port-groups"`
	VirtualMachines map[string]VMDef   `yaml:"virtual-machines"`
	Links       []LinkDef              `yaml:"links"`
}

// PortGroupDef defines one contiguous block of datapath ports, the source
// material for a mapping-config "port-groups" entry.
type PortGroupDef struct {
	Name       string `yaml:"name"`
	DPID       string `yaml:"dp-id"`
	NumPorts   int    `yaml:"num-ports"`
	PortOffset uint16 `yaml:"port-offset"`
	Controller *int   `yaml:"controller,omitempty"`
}

// VMDef defines one virtual machine's port mappings onto port-groups.
type VMDef struct {
	Mappings []MappingDef `yaml:"mappings"`
}

// MappingDef binds a contiguous block of a VM's ports to a port-group.
type MappingDef struct {
	PortGroup  string `yaml:"port-group"`
	NumPorts   int    `yaml:"num-ports"`
	PortOffset uint16 `yaml:"port-offset"`
}

// LinkDef declares an inter-switch link between two datapath ports,
// expanding to one entry of the ISL config's inter-switch-links array.
type LinkDef struct {
	VMID        string   `yaml:"vm-id"`
	Datapaths   [2]string `yaml:"datapaths"`
	Ports       [2]uint16 `yaml:"ports"`
	DLAddrs     [2]string `yaml:"dl-addrs"`
	Controllers []int    `yaml:"controllers,omitempty"`
}

package rftopo

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func sampleTopology() *Topology {
	ctrl := 1
	return &Topology{
		Name: "two-leaf",
		PortGroups: []PortGroupDef{
			{Name: "leaf1-access", DPID: "10", NumPorts: 4, PortOffset: 1},
			{Name: "leaf2-access", DPID: "20", NumPorts: 4, PortOffset: 1, Controller: &ctrl},
		},
		VirtualMachines: map[string]VMDef{
			"0x1": {Mappings: []MappingDef{{PortGroup: "leaf1-access", NumPorts: 4, PortOffset: 1}}},
		},
		Links: []LinkDef{
			{
				VMID:      "0x2",
				Datapaths: [2]string{"10", "20"},
				Ports:     [2]uint16{100, 200},
				DLAddrs:   [2]string{"aa:aa:aa:aa:aa:01", "aa:aa:aa:aa:aa:02"},
			},
		},
	}
}

func TestValidate_RejectsMissingName(t *testing.T) {
	topo := sampleTopology()
	topo.Name = ""
	if err := validate(topo); err == nil {
		t.Fatal("expected an error for a missing topology name")
	}
}

func TestValidate_RejectsUndefinedPortGroupReference(t *testing.T) {
	topo := sampleTopology()
	topo.VirtualMachines["0x1"] = VMDef{Mappings: []MappingDef{{PortGroup: "nonexistent", NumPorts: 4}}}
	if err := validate(topo); err == nil {
		t.Fatal("expected an error for an undefined port-group reference")
	}
}

func TestValidate_RejectsNonHexVMIDKey(t *testing.T) {
	topo := sampleTopology()
	topo.VirtualMachines["not-hex"] = VMDef{}
	if err := validate(topo); err == nil {
		t.Fatal("expected an error for a vm-id key missing the 0x prefix")
	}
}

func TestGenerateMapping_RoundTripsThroughRfconfigShape(t *testing.T) {
	topo := sampleTopology()
	dir := t.TempDir()
	out := filepath.Join(dir, "mapping.json")

	if err := GenerateMapping(topo, out); err != nil {
		t.Fatalf("GenerateMapping: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("reading generated file: %v", err)
	}
	var doc mappingDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("unmarshaling generated mapping config: %v", err)
	}
	if len(doc.PortGroups) != 2 {
		t.Fatalf("expected 2 port-groups, got %d", len(doc.PortGroups))
	}
	if len(doc.VirtualMachines) != 1 || doc.VirtualMachines[0].VMID != "0x1" {
		t.Fatalf("expected one virtual machine 0x1, got %+v", doc.VirtualMachines)
	}
	if *doc.PortGroups[1].Controller != 1 {
		t.Fatalf("expected controller override to survive round-trip, got %+v", doc.PortGroups[1])
	}
}

func TestGenerateISL_RoundTripsThroughRfconfigShape(t *testing.T) {
	topo := sampleTopology()
	dir := t.TempDir()
	out := filepath.Join(dir, "islconf.json")

	if err := GenerateISL(topo, out); err != nil {
		t.Fatalf("GenerateISL: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("reading generated file: %v", err)
	}
	var doc islDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("unmarshaling generated ISL config: %v", err)
	}
	if len(doc.InterSwitchLinks) != 1 {
		t.Fatalf("expected 1 inter-switch-link, got %d", len(doc.InterSwitchLinks))
	}
	link := doc.InterSwitchLinks[0]
	if link.Datapaths[0] != "10" || link.Datapaths[1] != "20" {
		t.Fatalf("unexpected datapaths in generated ISL entry: %+v", link)
	}
}

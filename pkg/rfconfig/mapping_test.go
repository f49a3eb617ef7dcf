package rfconfig

import "testing"

func ctl(v int) *int { return &v }

func TestCompileMappingConfig_ExpandsConsecutivePorts(t *testing.T) {
	raw := rawMappingConfig{
		PortGroups: []rawPortGroup{
			{Name: "pg0", DPID: "1", NumPorts: 3, PortOffset: 10, Controller: ctl(2)},
		},
		VirtualMachines: []rawVirtualMachine{
			{VMID: "a", Mappings: []rawMapping{{PortGroup: "pg0", NumPorts: 3, PortOffset: 0}}},
		},
	}
	cfg, err := compileMappingConfig(raw)
	if err != nil {
		t.Fatalf("compileMappingConfig: %v", err)
	}
	if len(cfg.entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(cfg.entries))
	}
	for i, e := range cfg.entries {
		if e.VMPort != uint16(i) {
			t.Errorf("entry %d: vm_port = %d, want %d", i, e.VMPort, i)
		}
		if e.DPPort != uint16(10+i) {
			t.Errorf("entry %d: dp_port = %d, want %d", i, e.DPPort, 10+i)
		}
		if e.CtID != 2 {
			t.Errorf("entry %d: ct_id = %d, want 2", i, e.CtID)
		}
	}
}

func TestCompileMappingConfig_ControllerDefaultsToZero(t *testing.T) {
	raw := rawMappingConfig{
		PortGroups: []rawPortGroup{
			{Name: "pg0", DPID: "1", NumPorts: 1, PortOffset: 0},
		},
		VirtualMachines: []rawVirtualMachine{
			{VMID: "a", Mappings: []rawMapping{{PortGroup: "pg0", NumPorts: 1, PortOffset: 0}}},
		},
	}
	cfg, err := compileMappingConfig(raw)
	if err != nil {
		t.Fatalf("compileMappingConfig: %v", err)
	}
	if cfg.entries[0].CtID != 0 {
		t.Fatalf("expected ct_id fallback to 0, got %d", cfg.entries[0].CtID)
	}
}

func TestCompileMappingConfig_MismatchedNumPortsSkipped(t *testing.T) {
	raw := rawMappingConfig{
		PortGroups: []rawPortGroup{
			{Name: "pg0", DPID: "1", NumPorts: 4, PortOffset: 0},
		},
		VirtualMachines: []rawVirtualMachine{
			{VMID: "a", Mappings: []rawMapping{{PortGroup: "pg0", NumPorts: 2, PortOffset: 0}}},
		},
	}
	cfg, err := compileMappingConfig(raw)
	if err != nil {
		t.Fatalf("compileMappingConfig: %v", err)
	}
	if len(cfg.entries) != 0 {
		t.Fatalf("expected mismatched num-ports mapping to be skipped, got %d entries", len(cfg.entries))
	}
}

func TestCompileMappingConfig_UndefinedPortGroupErrors(t *testing.T) {
	raw := rawMappingConfig{
		VirtualMachines: []rawVirtualMachine{
			{VMID: "a", Mappings: []rawMapping{{PortGroup: "missing", NumPorts: 1, PortOffset: 0}}},
		},
	}
	if _, err := compileMappingConfig(raw); err == nil {
		t.Fatal("expected error for undefined port-group reference")
	}
}

func TestMappingConfig_Lookups(t *testing.T) {
	raw := rawMappingConfig{
		PortGroups: []rawPortGroup{
			{Name: "pg0", DPID: "5", NumPorts: 1, PortOffset: 100, Controller: ctl(1)},
		},
		VirtualMachines: []rawVirtualMachine{
			{VMID: "10", Mappings: []rawMapping{{PortGroup: "pg0", NumPorts: 1, PortOffset: 7}}},
		},
	}
	cfg, err := compileMappingConfig(raw)
	if err != nil {
		t.Fatalf("compileMappingConfig: %v", err)
	}
	if _, ok := cfg.GetForVMPort(0x10, 7); !ok {
		t.Fatal("expected lookup by vm port to succeed")
	}
	if _, ok := cfg.GetForDPPort(1, 5, 100); !ok {
		t.Fatal("expected lookup by dp port to succeed")
	}
	if _, ok := cfg.GetForVMPort(0x10, 8); ok {
		t.Fatal("expected lookup for unconfigured vm port to fail")
	}
}

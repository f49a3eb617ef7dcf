package rfconfig

import "testing"

// TestExpandISL_ControllerFallbackIsSymmetric pins the original's quirk of
// reading controllers[0] for both the local and the remote controller id
// (spec.md §9 Open Question (a): preserved intentionally).
func TestExpandISL_ControllerFallbackIsSymmetric(t *testing.T) {
	raw := rawISLConfig{
		InterSwitchLinks: []rawISL{
			{
				VMID:        "1",
				Datapaths:   []string{"1", "2"},
				Ports:       []uint16{1, 2},
				DLAddrs:     []string{"aa:aa:aa:aa:aa:aa", "bb:bb:bb:bb:bb:bb"},
				Controllers: []int{5, 9},
			},
		},
	}
	cfg, err := compileISLConfig(raw)
	if err != nil {
		t.Fatalf("compileISLConfig: %v", err)
	}
	e := cfg.entries[0]
	if e.CtID != 5 || e.RemCtID != 5 {
		t.Fatalf("expected both sides to take controllers[0] (5), got ct=%d rem_ct=%d", e.CtID, e.RemCtID)
	}
}

func TestExpandISL_NoControllersDefaultsBothToZero(t *testing.T) {
	raw := rawISLConfig{
		InterSwitchLinks: []rawISL{
			{
				VMID:      "1",
				Datapaths: []string{"1", "2"},
				Ports:     []uint16{1, 2},
				DLAddrs:   []string{"aa:aa:aa:aa:aa:aa", "bb:bb:bb:bb:bb:bb"},
			},
		},
	}
	cfg, err := compileISLConfig(raw)
	if err != nil {
		t.Fatalf("compileISLConfig: %v", err)
	}
	if cfg.entries[0].CtID != 0 || cfg.entries[0].RemCtID != 0 {
		t.Fatalf("expected both controller ids to default to 0")
	}
}

func TestISLConfig_EntriesByPortMatchesEitherSide(t *testing.T) {
	raw := rawISLConfig{
		InterSwitchLinks: []rawISL{
			{
				VMID:      "1",
				Datapaths: []string{"10", "20"},
				Ports:     []uint16{1, 2},
				DLAddrs:   []string{"aa:aa:aa:aa:aa:aa", "bb:bb:bb:bb:bb:bb"},
			},
		},
	}
	cfg, err := compileISLConfig(raw)
	if err != nil {
		t.Fatalf("compileISLConfig: %v", err)
	}
	if len(cfg.EntriesByPort(0, 0x10, 1)) != 1 {
		t.Fatal("expected local-side lookup to match")
	}
	if len(cfg.EntriesByPort(0, 0x20, 2)) != 1 {
		t.Fatal("expected remote-side lookup to match")
	}
	if len(cfg.EntriesByPort(0, 0x30, 3)) != 0 {
		t.Fatal("expected unrelated port to not match")
	}
}

func TestLoadISLConfig_EmptyPathYieldsEmptyConfig(t *testing.T) {
	cfg, err := LoadISLConfig("")
	if err != nil {
		t.Fatalf("LoadISLConfig(\"\"): %v", err)
	}
	if len(cfg.All()) != 0 {
		t.Fatalf("expected empty config, got %d entries", len(cfg.All()))
	}
}

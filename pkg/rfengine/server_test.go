package rfengine

import (
	"context"
	"testing"

	"github.com/routeflow/rfserver/pkg/rfconfig"
	"github.com/routeflow/rfserver/pkg/rfentry"
	"github.com/routeflow/rfserver/pkg/rfproto"
	"github.com/routeflow/rfserver/pkg/rfrule"
	"github.com/routeflow/rfserver/pkg/rfstore"
	"github.com/routeflow/rfserver/pkg/rftransport"
)

func newTestServer(mapping *rfconfig.MappingConfig, islconf *rfconfig.ISLConfig) (*Server, *rftransport.MemTransport) {
	if mapping == nil {
		mapping = rfconfig.NewMappingConfig(nil)
	}
	if islconf == nil {
		islconf = rfconfig.NewISLConfig(nil)
	}
	tr := rftransport.NewMemTransport()
	s := NewServer(rfstore.NewMemoryDriver(), mapping, islconf, nil, tr)
	return s, tr
}

func TestRegisterVMPort_NoConfigPersistsIdleVM(t *testing.T) {
	s, _ := newTestServer(nil, nil)
	ctx := context.Background()

	if err := s.RegisterVMPort(ctx, 0x1, 1, "aa:bb:cc:dd:ee:01"); err != nil {
		t.Fatalf("RegisterVMPort: %v", err)
	}

	entry, found, err := s.bindings.GetOne(ctx, vmPortFilter(0x1, 1))
	if err != nil {
		t.Fatalf("GetOne: %v", err)
	}
	if !found {
		t.Fatal("expected idle VM binding to be persisted")
	}
	if entry.Status() != rfentry.BindingIdleVM {
		t.Fatalf("expected IDLE_VM, got %s", entry.Status())
	}
}

func TestRegisterVMPort_AssociatesWithWaitingDPPort(t *testing.T) {
	mapping := rfconfig.NewMappingConfig([]rfentry.BindingConfigEntry{
		{VMID: 0x1, VMPort: 1, CtID: 0, DPID: 0x10, DPPort: 1},
	})
	s, _ := newTestServer(mapping, nil)
	ctx := context.Background()

	if err := s.putDPIdle(ctx, 0, 0x10, 1); err != nil {
		t.Fatalf("putDPIdle: %v", err)
	}
	if err := s.RegisterVMPort(ctx, 0x1, 1, "aa:bb:cc:dd:ee:01"); err != nil {
		t.Fatalf("RegisterVMPort: %v", err)
	}

	entry, found, err := s.bindings.GetOne(ctx, dpPortFilter(0, 0x10, 1))
	if err != nil {
		t.Fatalf("GetOne: %v", err)
	}
	if !found {
		t.Fatal("expected a binding for the dp port")
	}
	if entry.Status() != rfentry.BindingAssociated {
		t.Fatalf("expected ASSOCIATED, got %s", entry.Status())
	}
	if *entry.VMID != 0x1 || *entry.VMPort != 1 {
		t.Fatalf("unexpected vm side: vm_id=%v vm_port=%v", entry.VMID, entry.VMPort)
	}
}

func TestRegisterVMPort_ReDeliveryDoesNotDuplicate(t *testing.T) {
	s, _ := newTestServer(nil, nil)
	ctx := context.Background()

	if err := s.RegisterVMPort(ctx, 0x1, 1, "aa:bb:cc:dd:ee:01"); err != nil {
		t.Fatalf("RegisterVMPort (first): %v", err)
	}
	if err := s.RegisterVMPort(ctx, 0x1, 1, "aa:bb:cc:dd:ee:02"); err != nil {
		t.Fatalf("RegisterVMPort (re-delivery): %v", err)
	}

	all, err := s.bindings.All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected exactly one binding row for the re-delivered port, got %d", len(all))
	}
	if *all[0].EthAddr != "aa:bb:cc:dd:ee:02" {
		t.Fatalf("expected eth_addr refreshed to the latest value, got %s", *all[0].EthAddr)
	}
}

func TestRegisterDPPort_ReDeliveryDoesNotDuplicate(t *testing.T) {
	s, _ := newTestServer(nil, nil)
	ctx := context.Background()

	if err := s.RegisterDPPort(ctx, 0, 0x10, 1); err != nil {
		t.Fatalf("RegisterDPPort (first): %v", err)
	}
	if err := s.RegisterDPPort(ctx, 0, 0x10, 1); err != nil {
		t.Fatalf("RegisterDPPort (re-delivery): %v", err)
	}

	all, err := s.bindings.All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected exactly one binding row for the re-delivered dp port, got %d", len(all))
	}
}

func TestRegisterDPPort_AssociatesWithWaitingVMPort(t *testing.T) {
	mapping := rfconfig.NewMappingConfig([]rfentry.BindingConfigEntry{
		{VMID: 0x1, VMPort: 1, CtID: 0, DPID: 0x10, DPPort: 1},
	})
	s, _ := newTestServer(mapping, nil)
	ctx := context.Background()

	if err := s.putBinding(ctx, rfentry.NewIdleVM(0x1, 1, "aa:bb:cc:dd:ee:01")); err != nil {
		t.Fatalf("putBinding: %v", err)
	}
	if err := s.RegisterDPPort(ctx, 0, 0x10, 1); err != nil {
		t.Fatalf("RegisterDPPort: %v", err)
	}

	entry, found, err := s.bindings.GetOne(ctx, vmPortFilter(0x1, 1))
	if err != nil {
		t.Fatalf("GetOne: %v", err)
	}
	if !found || entry.Status() != rfentry.BindingAssociated {
		t.Fatalf("expected ASSOCIATED binding, found=%v status=%v", found, entry)
	}
}

func TestRegisterDPPort_VirtualSwitchSkipsMappingLookup(t *testing.T) {
	rules := []rfrule.Entry{
		{Name: "vs-rule", VSOnly: true, RouteMod: rfproto.NewRouteMod(0)},
	}
	s, tr := newTestServer(nil, nil)
	s.rules = rules
	ctx := context.Background()

	if err := s.RegisterDPPort(ctx, 0, VirtualSwitchDPID, 1); err != nil {
		t.Fatalf("RegisterDPPort: %v", err)
	}

	// No binding should have been persisted for the RFVS port-registration
	// path: config_dp's "stop" return short-circuits the rest of
	// register_dp_port (spec.md §4.3.2).
	all, err := s.bindings.All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("expected no bindings persisted for the RFVS, got %d", len(all))
	}
	if len(tr.Sent()) != 1 {
		t.Fatalf("expected exactly one rule sent to the RFVS, got %d", len(tr.Sent()))
	}
}

func TestSetDPDown_ResetsBindingAndNotifiesClient(t *testing.T) {
	mapping := rfconfig.NewMappingConfig([]rfentry.BindingConfigEntry{
		{VMID: 0x1, VMPort: 1, CtID: 0, DPID: 0x10, DPPort: 1},
	})
	s, tr := newTestServer(mapping, nil)
	ctx := context.Background()

	if err := s.putBinding(ctx, rfentry.NewIdleVM(0x1, 1, "aa:bb:cc:dd:ee:01")); err != nil {
		t.Fatalf("putBinding: %v", err)
	}
	if err := s.RegisterDPPort(ctx, 0, 0x10, 1); err != nil {
		t.Fatalf("RegisterDPPort: %v", err)
	}

	if err := s.SetDPDown(ctx, 0, 0x10); err != nil {
		t.Fatalf("SetDPDown: %v", err)
	}

	entry, found, err := s.bindings.GetOne(ctx, vmPortFilter(0x1, 1))
	if err != nil {
		t.Fatalf("GetOne: %v", err)
	}
	if !found || entry.Status() != rfentry.BindingIdleVM {
		t.Fatalf("expected binding reset to IDLE_VM, got found=%v status=%v", found, entry)
	}

	sent := tr.Sent()
	if len(sent) == 0 || sent[len(sent)-1].Channel != "client" {
		t.Fatalf("expected a client-channel reset message, got %+v", sent)
	}
}

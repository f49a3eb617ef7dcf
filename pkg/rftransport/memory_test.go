package rftransport

import (
	"testing"

	"github.com/routeflow/rfserver/pkg/rfproto"
)

func TestMemTransport_RecordsSendsInOrder(t *testing.T) {
	tr := NewMemTransport()
	if err := tr.SendToClient("1", rfproto.PortConfig{VMID: 1, VMPort: 2}); err != nil {
		t.Fatalf("SendToClient: %v", err)
	}
	if err := tr.SendToProxy("2", rfproto.NewRouteMod(5)); err != nil {
		t.Fatalf("SendToProxy: %v", err)
	}
	sent := tr.Sent()
	if len(sent) != 2 {
		t.Fatalf("expected 2 sends, got %d", len(sent))
	}
	if sent[0].Channel != "client" || sent[0].Dest != "1" {
		t.Errorf("unexpected first send: %+v", sent[0])
	}
	if sent[1].Channel != "proxy" || sent[1].Dest != "2" {
		t.Errorf("unexpected second send: %+v", sent[1])
	}
}

func TestMemTransport_Reset(t *testing.T) {
	tr := NewMemTransport()
	tr.SendToClient("1", rfproto.PortConfig{})
	tr.Reset()
	if len(tr.Sent()) != 0 {
		t.Fatal("expected Reset to clear recorded sends")
	}
}

package rfengine

import (
	"context"
	"fmt"

	"github.com/routeflow/rfserver/pkg/rfentry"
	"github.com/routeflow/rfserver/pkg/rfproto"
)

// MapPort handles VIRTUAL_PLANE_MAP (spec.md §4.3.4): it learns the
// virtual-switch port backing an ASSOCIATED binding, moving it to ACTIVE,
// and tells the owning proxy and client about the new mapping.
func (s *Server) MapPort(ctx context.Context, vmID uint64, vmPort uint16, vsID uint64, vsPort uint16) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, found, err := s.bindings.GetOne(ctx, vmPortFilter(vmID, vmPort))
	if err != nil {
		return fmt.Errorf("rfengine: looking up binding for port map: %w", err)
	}
	if !found || entry.Status() != rfentry.BindingAssociated {
		return nil
	}

	entry.Activate(vsID, vsPort)
	if err := s.bindings.InsertOrUpdate(ctx, entry); err != nil {
		return fmt.Errorf("rfengine: persisting activated binding: %w", err)
	}

	dpMap := rfproto.DataPlaneMap{
		CtID: *entry.CtID, DPID: *entry.DPID, DPPort: *entry.DPPort,
		VSID: vsID, VSPort: vsPort,
	}
	if err := s.transport.SendToProxy(fmt.Sprint(*entry.CtID), dpMap); err != nil {
		return fmt.Errorf("rfengine: sending data plane map: %w", err)
	}

	success := rfproto.PortConfig{VMID: *entry.VMID, VMPort: *entry.VMPort, OperationID: rfproto.PortConfigMapSuccess}
	if err := s.transport.SendToClient(fmt.Sprint(*entry.VMID), success); err != nil {
		return fmt.Errorf("rfengine: sending port map success: %w", err)
	}

	s.log.WithField("vm_id", *entry.VMID).WithField("dp_id", *entry.DPID).WithField("vs_id", vsID).
		Info("mapping client-datapath association")
	return nil
}

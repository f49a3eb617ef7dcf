package rfengine

import (
	"context"
	"fmt"

	"github.com/routeflow/rfserver/pkg/rfproto"
)

// SetDPDown handles DATAPATH_DOWN (spec.md §4.3.3): every binding registered
// on the datapath is reset to idle, and every ISL entry touching it loses
// whichever side belonged to it.
func (s *Server) SetDPDown(ctx context.Context, ctID int, dpID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bindings, err := s.bindings.Get(ctx, dpFilter(ctID, dpID))
	if err != nil {
		return fmt.Errorf("rfengine: listing bindings on downed datapath: %w", err)
	}
	for _, b := range bindings {
		if err := s.setDPPortDownLocked(ctx, ctID, dpID, *b.DPPort); err != nil {
			return err
		}
	}

	local, err := s.isls.Get(ctx, dpFilter(ctID, dpID))
	if err != nil {
		return fmt.Errorf("rfengine: listing local ISL entries on downed datapath: %w", err)
	}
	for _, e := range local {
		e.MakeIdleRemote()
		if err := s.isls.InsertOrUpdate(ctx, e); err != nil {
			return fmt.Errorf("rfengine: idling local ISL entry: %w", err)
		}
	}

	remote, err := s.isls.Get(ctx, map[string]string{"rem_ct": fmtInt(ctID), "rem_id": fmtU64(dpID)})
	if err != nil {
		return fmt.Errorf("rfengine: listing remote ISL entries on downed datapath: %w", err)
	}
	for _, e := range remote {
		e.MakeIdleDP()
		if err := s.isls.InsertOrUpdate(ctx, e); err != nil {
			return fmt.Errorf("rfengine: idling remote ISL entry: %w", err)
		}
	}

	s.log.WithField("dp_id", dpID).Info("datapath down")
	return nil
}

// setDPPortDownLocked resets one datapath port's binding back to IDLE_VM,
// freeing the associated client port if there was one.
func (s *Server) setDPPortDownLocked(ctx context.Context, ctID int, dpID uint64, dpPort uint16) error {
	entry, found, err := s.bindings.GetOne(ctx, dpPortFilter(ctID, dpID, dpPort))
	if err != nil {
		return fmt.Errorf("rfengine: looking up dp port for down reset: %w", err)
	}
	if !found {
		return nil
	}

	var vmID uint64
	var vmPort uint16
	var hadVM bool
	if entry.VMID != nil {
		vmID, vmPort, hadVM = *entry.VMID, *entry.VMPort, true
	}

	entry.ResetToIdleVM()
	if err := s.bindings.InsertOrUpdate(ctx, entry); err != nil {
		return fmt.Errorf("rfengine: persisting reset binding: %w", err)
	}
	s.log.WithField("dp_id", dpID).WithField("dp_port", dpPort).Debug("datapath port down")

	if hadVM {
		return s.resetVMPort(vmID, vmPort)
	}
	return nil
}

// resetVMPort tells the owning client to reset a port so it can be
// re-registered (spec.md §4.3.3).
func (s *Server) resetVMPort(vmID uint64, vmPort uint16) error {
	msg := rfproto.PortConfig{VMID: vmID, VMPort: vmPort, OperationID: rfproto.PortConfigReset}
	if err := s.transport.SendToClient(fmt.Sprint(vmID), msg); err != nil {
		return fmt.Errorf("rfengine: sending port reset: %w", err)
	}
	s.log.WithField("vm_id", vmID).WithField("vm_port", vmPort).Info("resetting client port")
	return nil
}

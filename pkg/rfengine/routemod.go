package rfengine

import (
	"context"
	"fmt"

	"github.com/routeflow/rfserver/pkg/rfentry"
	"github.com/routeflow/rfserver/pkg/rfproto"
)

// RegisterRouteMod handles ROUTE_MOD (spec.md §4.5): it rewrites a
// VM-addressed RouteMod into a datapath-addressed one, fans it out locally
// to every binding/ISL neighbour sharing the same datapath, and — if the
// destination is an active ISL — fans the equivalent cross-link RouteMod
// out to the remote datapath too.
func (s *Server) RegisterRouteMod(ctx context.Context, rm *rfproto.RouteMod) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	vmID := rm.ID
	outIdx := rm.FindOutputAction()
	if outIdx < 0 {
		s.log.WithField("vm_id", vmID).Warn("received RouteMod with no Output Port, dropping")
		return nil
	}
	vmPort := rm.Actions[outIdx].Port

	entry, found, err := s.bindings.GetOne(ctx, vmPortFilter(vmID, vmPort))
	if err != nil {
		return fmt.Errorf("rfengine: looking up binding for route mod: %w", err)
	}
	if !found || entry.Status() == rfentry.BindingIdleVM {
		s.log.WithField("vm_id", vmID).Info("received RouteMod destined for unknown datapath, dropping")
		return nil
	}

	rewritten := rm.Clone()
	rewritten.ID = *entry.DPID
	if rewritten.Mod == rfproto.ModDelete {
		rewritten.Actions = removeAction(rewritten.Actions, outIdx)
	} else {
		rewritten.Actions[outIdx].Port = *entry.DPPort
	}
	rewritten.SetOption(rfproto.CtIDOption(*entry.CtID))

	neighbours, err := s.localNeighbours(ctx, *entry.CtID, *entry.DPID)
	if err != nil {
		return err
	}
	if err := s.sendRMWithMatches(rewritten, *entry.DPPort, neighbours); err != nil {
		return err
	}

	return s.fanOutAcrossISL(ctx, rewritten, *entry.CtID, *entry.DPID)
}

func removeAction(actions []rfproto.Action, idx int) []rfproto.Action {
	out := make([]rfproto.Action, 0, len(actions)-1)
	out = append(out, actions[:idx]...)
	out = append(out, actions[idx+1:]...)
	return out
}

// neighbourPort is the minimal shape sendRMWithMatches needs from either a
// binding entry or an ISL entry: an eth address and a dp_port. Callers build
// it only from entries that are already ACTIVE.
type neighbourPort struct {
	ethAddr string
	dpPort  uint16
}

// localNeighbours gathers every binding and ISL entry sharing (ct_id,
// dp_id), active only, the candidates for RouteMod fan-out (spec.md §4.5
// "local fan-out").
func (s *Server) localNeighbours(ctx context.Context, ctID int, dpID uint64) ([]neighbourPort, error) {
	var out []neighbourPort

	bindings, err := s.bindings.Get(ctx, dpFilter(ctID, dpID))
	if err != nil {
		return nil, fmt.Errorf("rfengine: listing datapath bindings: %w", err)
	}
	for _, b := range bindings {
		if b.Status() == rfentry.BindingActive {
			out = append(out, neighbourPort{ethAddr: *b.EthAddr, dpPort: *b.DPPort})
		}
	}

	isls, err := s.isls.Get(ctx, dpFilter(ctID, dpID))
	if err != nil {
		return nil, fmt.Errorf("rfengine: listing datapath ISL entries: %w", err)
	}
	for _, i := range isls {
		if i.Status() == rfentry.ISLActive {
			out = append(out, neighbourPort{ethAddr: *i.EthAddr, dpPort: *i.DPPort})
		}
	}

	return out, nil
}

// bindingNeighbours gathers only the binding entries sharing (ct_id, dp_id),
// active only: the candidates for the fan-out step that follows a remote
// ISL crossing (spec.md §4.5 "remote fan-out" says "using the bindings of
// (r.ct_id, r.dp_id)", deliberately excluding ISL neighbours).
func (s *Server) bindingNeighbours(ctx context.Context, ctID int, dpID uint64) ([]neighbourPort, error) {
	var out []neighbourPort

	bindings, err := s.bindings.Get(ctx, dpFilter(ctID, dpID))
	if err != nil {
		return nil, fmt.Errorf("rfengine: listing datapath bindings: %w", err)
	}
	for _, b := range bindings {
		if b.Status() == rfentry.BindingActive {
			out = append(out, neighbourPort{ethAddr: *b.EthAddr, dpPort: *b.DPPort})
		}
	}
	return out, nil
}

// sendRMWithMatches emits one copy of rm per neighbour whose port differs
// from outPort, each augmented with an ethernet-destination and in-port
// match, addressed to the entry's ct_id (spec.md §4.5 "local fan-out").
func (s *Server) sendRMWithMatches(rm *rfproto.RouteMod, outPort uint16, neighbours []neighbourPort) error {
	ctID, _ := rm.CtID()
	for _, n := range neighbours {
		if n.dpPort == outPort {
			continue
		}
		fanned := rm.WithExtraMatches(rfproto.Ethernet(n.ethAddr), rfproto.InPort(n.dpPort))
		if err := s.transport.SendToProxy(fmt.Sprint(ctID), fanned); err != nil {
			return fmt.Errorf("rfengine: sending fanned-out route mod: %w", err)
		}
	}
	return nil
}

// fanOutAcrossISL rewrites the RouteMod for every active ISL leaving
// (ct_id, dp_id) and sends the cross-link copy to the remote datapath
// (spec.md §4.5 "remote fan-out"): clear actions, set-eth-src/dst, output
// on the remote port, addressed to the remote ct_id, then fan out using the
// bindings (not the ISL neighbours) of the remote side.
func (s *Server) fanOutAcrossISL(ctx context.Context, rm *rfproto.RouteMod, ctID int, dpID uint64) error {
	remoteLinks, err := s.isls.Get(ctx, map[string]string{"rem_ct": fmtInt(ctID), "rem_id": fmtU64(dpID)})
	if err != nil {
		return fmt.Errorf("rfengine: listing remote ISL links: %w", err)
	}

	for _, link := range remoteLinks {
		if link.Status() != rfentry.ISLActive {
			continue
		}

		crossed := rm.Clone()
		crossed.SetOption(rfproto.CtIDOption(*link.CtID))
		crossed.ID = *link.DPID
		crossed.SetActions(
			rfproto.SetEthSrc(*link.EthAddr),
			rfproto.SetEthDst(*link.RemEthAddr),
			rfproto.Output(*link.DPPort),
		)

		neighbours, err := s.bindingNeighbours(ctx, *link.CtID, *link.DPID)
		if err != nil {
			return err
		}
		if err := s.sendRMWithMatches(crossed, *link.DPPort, neighbours); err != nil {
			return err
		}
	}
	return nil
}

package rfengine

import (
	"context"
	"fmt"

	"github.com/routeflow/rfserver/pkg/rfentry"
	"github.com/routeflow/rfserver/pkg/rfproto"
	"github.com/routeflow/rfserver/pkg/rfrule"
)

// ConfigDP installs the default ruleset on a newly-seen datapath (spec.md
// §4.3.4). It returns whether dpID was recognized as the RFVS. Non-RFVS
// datapaths always receive a flowtable-clear RouteMod strictly before any
// rule (spec.md invariant: "the first message emitted on any non-RFVS
// datapath's channel is a DELETE-kind RouteMod with PRIORITY lowest").
func (s *Server) ConfigDP(ctx context.Context, ctID int, dpID uint64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.configDPLocked(ctx, ctID, dpID)
}

func (s *Server) configDPLocked(ctx context.Context, ctID int, dpID uint64) (bool, error) {
	isVS := IsVirtualSwitch(dpID)

	if isVS {
		s.log.WithField("dp_id", dpID).Info("configuring RFVS")
		for _, rule := range s.rules {
			if !rule.VSOnly {
				continue
			}
			if err := s.sendRule(ctID, dpID, rule); err != nil {
				return isVS, err
			}
		}
		return isVS, nil
	}

	s.log.WithField("dp_id", dpID).Info("configuring datapath")
	if err := s.clearFlowtable(ctID, dpID); err != nil {
		return isVS, err
	}
	for _, rule := range s.rules {
		if rule.VSOnly {
			continue
		}
		if err := s.sendRule(ctID, dpID, rule); err != nil {
			return isVS, err
		}
	}
	return isVS, nil
}

// clearFlowtable sends a DELETE-kind RouteMod at lowest priority, emptying
// the datapath's flow table before any rule is installed (spec.md §4.3.4).
func (s *Server) clearFlowtable(ctID int, dpID uint64) error {
	rm := rfproto.NewRouteMod(dpID)
	rm.Mod = rfproto.ModDelete
	rm.SetOption(rfproto.PriorityOption(rfentry.PriorityLowest))
	rm.SetOption(rfproto.CtIDOption(ctID))
	return s.transport.SendToProxy(fmt.Sprint(ctID), rm)
}

// sendRule installs one compiled rule entry on the given datapath.
func (s *Server) sendRule(ctID int, dpID uint64, rule rfrule.Entry) error {
	rm := rule.RouteMod.Clone()
	rm.ID = dpID
	rm.SetOption(rfproto.CtIDOption(ctID))
	s.log.WithField("rule", rule.Name).Debugf("sending %s", rm)
	return s.transport.SendToProxy(fmt.Sprint(ctID), rm)
}

package rfengine

import (
	"context"
	"fmt"

	"github.com/routeflow/rfserver/pkg/rfentry"
	"github.com/routeflow/rfserver/pkg/rferr"
)

// registerISLConf handles the REGISTER_ISL branch of register_dp_port
// (spec.md §4.4): for each ISL config entry whose port matches the
// newly-registered datapath port, either create a fresh IDLE_DP entry or,
// if the other side is already registered as IDLE_DP, associate the two
// into an ACTIVE pair — and make sure the reverse (mirror) entry exists
// too, since an ACTIVE ISL is always represented as two mirrored rows
// (spec.md invariant 2).
func (s *Server) registerISLConf(ctx context.Context, confs []rfentry.ISLConfigEntry, ctID int, dpID uint64, dpPort uint16) error {
	for _, conf := range confs {
		var (
			lookupCt   int
			lookupDP   uint64
			lookupPort uint16
			lookupEth  string
			ethAddr    string
		)

		if conf.RemCtID != ctID || conf.RemDPID != dpID {
			lookupCt, lookupDP, lookupPort, lookupEth = conf.RemCtID, conf.RemDPID, conf.RemDPPort, conf.RemEthAddr
			ethAddr = conf.EthAddr
		} else {
			lookupCt, lookupDP, lookupPort, lookupEth = conf.CtID, conf.DPID, conf.DPPort, conf.EthAddr
			ethAddr = conf.RemEthAddr
		}

		entry, found, err := s.findISLByAddr(ctx, lookupCt, lookupDP, lookupPort, lookupEth)
		if err != nil {
			return err
		}

		if !found {
			// The remote side hasn't registered yet. Re-delivery of this same
			// DATAPATH_PORT_REGISTER must not duplicate the local IDLE_DP row
			// (spec.md §8 Idempotence, invariant (i)), so reuse it by id if it
			// already exists.
			n, selfFound, err := s.findISLByAddr(ctx, ctID, dpID, dpPort, ethAddr)
			if err != nil {
				return err
			}
			if !selfFound {
				n = rfentry.NewLocalISL(conf.VMID, ctID, dpID, dpPort, ethAddr)
			}
			if err := s.isls.InsertOrUpdate(ctx, n); err != nil {
				return fmt.Errorf("rfengine: persisting idle ISL entry: %w", err)
			}
			s.log.WithField("dp_id", dpID).WithField("dp_port", dpPort).Info("registering ISL port as idle")
			continue
		}

		if entry.Status() != rfentry.ISLIdleDP {
			continue
		}

		if err := s.associateISL(ctx, entry, ctID, dpID, dpPort, ethAddr); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) findISLByAddr(ctx context.Context, ctID int, dpID uint64, dpPort uint16, eth string) (*rfentry.ISLEntry, bool, error) {
	filter := map[string]string{
		"ct_id":    fmtInt(ctID),
		"dp_id":    fmtU64(dpID),
		"dp_port":  fmtU16(dpPort),
		"eth_addr": eth,
	}
	entry, found, err := s.isls.GetOne(ctx, filter)
	if err != nil {
		return nil, false, fmt.Errorf("rfengine: looking up ISL entry by address: %w", err)
	}
	return entry, found, nil
}

func (s *Server) findISLByRemote(ctx context.Context, remCt int, remDP uint64, remPort uint16, remEth string) (*rfentry.ISLEntry, bool, error) {
	filter := map[string]string{
		"rem_ct":       fmtInt(remCt),
		"rem_id":       fmtU64(remDP),
		"rem_port":     fmtU16(remPort),
		"rem_eth_addr": remEth,
	}
	entry, found, err := s.isls.GetOne(ctx, filter)
	if err != nil {
		return nil, false, fmt.Errorf("rfengine: looking up ISL entry by remote address: %w", err)
	}
	return entry, found, nil
}

// associateISL moves an IDLE_DP entry to ACTIVE by filling in the remote
// side, then ensures the mirrored entry (local side = the other switch's
// view) exists and is associated too (spec.md §4.4, invariant 2).
func (s *Server) associateISL(ctx context.Context, entry *rfentry.ISLEntry, ctID int, dpID uint64, dpPort uint16, ethAddr string) error {
	localCt, localDP, localPort, localEth := *entry.CtID, *entry.DPID, *entry.DPPort, *entry.EthAddr

	entry.AssociateRemote(ctID, dpID, dpPort, ethAddr)
	if err := s.isls.InsertOrUpdate(ctx, entry); err != nil {
		return fmt.Errorf("rfengine: persisting associated ISL entry: %w", err)
	}

	mirror, found, err := s.findISLByRemote(ctx, localCt, localDP, localPort, localEth)
	if err != nil {
		return err
	}
	if !found {
		n := rfentry.NewLocalISL(entry.VMID, ctID, dpID, dpPort, ethAddr)
		n.AssociateRemote(localCt, localDP, localPort, localEth)
		if err := s.isls.InsertOrUpdate(ctx, n); err != nil {
			return fmt.Errorf("rfengine: persisting mirrored ISL entry: %w", err)
		}
	} else if mirror.Status() == rfentry.ISLIdleRemote {
		mirror.AssociateLocal(ctID, dpID, dpPort, ethAddr)
		if err := s.isls.InsertOrUpdate(ctx, mirror); err != nil {
			return fmt.Errorf("rfengine: persisting mirrored ISL entry: %w", err)
		}
	} else if mirror.Status() == rfentry.ISLActive {
		// A reverse entry already exists and is fully populated. Treat an
		// agreeing re-registration as a no-op; a disagreeing one means two
		// different MACs claim the same ISL slot, which spec.md §9's Open
		// Question (b) says to surface as a hard error rather than guess.
		if *mirror.EthAddr != ethAddr || *mirror.RemEthAddr != localEth {
			return &rferr.AmbiguousISLError{
				CtID:     int64(ctID),
				DPID:     int64(dpID),
				DPPort:   int64(dpPort),
				Existing: *mirror.EthAddr,
				Learned:  ethAddr,
			}
		}
	}

	s.log.WithField("ct_id", ctID).WithField("dp_id", dpID).WithField("dp_port", dpPort).
		Info("registering ISL port and associating to remote ISL port")
	return nil
}

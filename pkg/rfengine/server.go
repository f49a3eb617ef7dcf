// Package rfengine implements the RouteFlow controller core: the binding
// and ISL lifecycle state machines, the RouteMod rewrite/fan-out pipeline,
// and datapath configuration (spec.md §4.3-§4.5), a direct transcription of
// original_source/rfserver/rfserver.py's RFServer handler methods onto the
// typed rfentry/rfstore/rfproto/rfrule/rfconfig packages.
package rfengine

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/routeflow/rfserver/pkg/rfconfig"
	"github.com/routeflow/rfserver/pkg/rfentry"
	"github.com/routeflow/rfserver/pkg/rflog"
	"github.com/routeflow/rfserver/pkg/rfrule"
	"github.com/routeflow/rfserver/pkg/rfstore"
	"github.com/routeflow/rfserver/pkg/rftransport"
)

const (
	bindingTableName = "RFTABLE"
	islTableName     = "RFISL"
)

// VirtualSwitchDPID is the reserved datapath id recognized as the
// RFVS (the local software switch bridging every datapath to the
// controller), spec.md's glossary "magic constant" choice (DESIGN.md Open
// Question decision).
const VirtualSwitchDPID uint64 = 0xffffffffffffffff

// IsVirtualSwitch reports whether dpID identifies the RFVS (spec.md
// "is_rfvs" predicate).
func IsVirtualSwitch(dpID uint64) bool {
	return dpID == VirtualSwitchDPID
}

// Server is the single-threaded controller core (spec.md §5): one mutex
// serializes every handler, matching "a single mutex, or a single-goroutine
// engine with inbound channels".
type Server struct {
	mu sync.Mutex

	bindings *rfstore.Table[*rfentry.BindingEntry]
	isls     *rfstore.Table[*rfentry.ISLEntry]

	mapping *rfconfig.MappingConfig
	islconf *rfconfig.ISLConfig
	rules   []rfrule.Entry

	transport rftransport.Transport
	log       *logrus.Entry
}

// NewServer builds a Server over the given store driver, static
// configuration, rule set and transport.
func NewServer(driver rfstore.Driver, mapping *rfconfig.MappingConfig, islconf *rfconfig.ISLConfig, rules []rfrule.Entry, transport rftransport.Transport) *Server {
	return &Server{
		bindings: rfstore.NewTable[*rfentry.BindingEntry](driver, bindingTableName, func() *rfentry.BindingEntry { return &rfentry.BindingEntry{} }),
		isls:     rfstore.NewTable[*rfentry.ISLEntry](driver, islTableName, func() *rfentry.ISLEntry { return &rfentry.ISLEntry{} }),
		mapping:  mapping,
		islconf:  islconf,
		rules:    rules,
		transport: transport,
		log:       rflog.WithHandler("rfengine"),
	}
}

// Bindings returns the binding table, for read-only introspection by
// rfcli/rfserverctl and rfhealth's invariant checks.
func (s *Server) Bindings() *rfstore.Table[*rfentry.BindingEntry] { return s.bindings }

// ISLs returns the ISL table, for read-only introspection by rfcli/rfserverctl
// and rfhealth's invariant checks.
func (s *Server) ISLs() *rfstore.Table[*rfentry.ISLEntry] { return s.isls }

func fmtU64(v uint64) string { return strconv.FormatUint(v, 10) }
func fmtU16(v uint16) string { return strconv.FormatUint(uint64(v), 10) }
func fmtInt(v int) string    { return strconv.Itoa(v) }

func vmPortFilter(vmID uint64, vmPort uint16) map[string]string {
	return map[string]string{"vm_id": fmtU64(vmID), "vm_port": fmtU16(vmPort)}
}

func dpPortFilter(ctID int, dpID uint64, dpPort uint16) map[string]string {
	return map[string]string{"ct_id": fmtInt(ctID), "dp_id": fmtU64(dpID), "dp_port": fmtU16(dpPort)}
}

func dpFilter(ctID int, dpID uint64) map[string]string {
	return map[string]string{"ct_id": fmtInt(ctID), "dp_id": fmtU64(dpID)}
}

// RegisterVMPort handles PORT_REGISTER (spec.md §4.3.1).
func (s *Server) RegisterVMPort(ctx context.Context, vmID uint64, vmPort uint16, ethAddr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	configEntry, hasConfig := s.mapping.GetForVMPort(vmID, vmPort)
	if !hasConfig {
		s.log.WithField("vm_id", vmID).WithField("vm_port", vmPort).
			Warn("no config entry for client port")
		return s.putBinding(ctx, rfentry.NewIdleVM(vmID, vmPort, ethAddr))
	}

	entry, found, err := s.bindings.GetOne(ctx, dpPortFilter(configEntry.CtID, configEntry.DPID, configEntry.DPPort))
	if err != nil {
		return fmt.Errorf("rfengine: looking up dp port: %w", err)
	}
	if !found {
		return s.putBinding(ctx, rfentry.NewIdleVM(vmID, vmPort, ethAddr))
	}
	if entry.Status() != rfentry.BindingIdleDP {
		return nil
	}

	entry.AssociateVM(vmID, vmPort, ethAddr)
	if err := s.bindings.InsertOrUpdate(ctx, entry); err != nil {
		return fmt.Errorf("rfengine: persisting associated binding: %w", err)
	}
	s.log.WithField("vm_id", vmID).WithField("dp_id", *entry.DPID).
		Info("registered client port and associated to datapath port")
	return nil
}

// putBinding persists entry as the IDLE_VM binding for its (vm_id, vm_port),
// reusing any existing row's id so re-delivery of PORT_REGISTER refreshes
// eth_addr in place instead of inserting a duplicate (spec.md §8
// Idempotence, global invariant (i)).
func (s *Server) putBinding(ctx context.Context, entry *rfentry.BindingEntry) error {
	existing, found, err := s.bindings.GetOne(ctx, vmPortFilter(*entry.VMID, *entry.VMPort))
	if err != nil {
		return fmt.Errorf("rfengine: looking up existing client port: %w", err)
	}
	if found {
		existing.EthAddr = entry.EthAddr
		entry = existing
	}
	if err := s.bindings.InsertOrUpdate(ctx, entry); err != nil {
		return fmt.Errorf("rfengine: persisting idle binding: %w", err)
	}
	s.log.WithField("vm_id", *entry.VMID).Info("registered client port as idle")
	return nil
}

// RegisterDPPort handles DATAPATH_PORT_REGISTER (spec.md §4.3.2).
func (s *Server) RegisterDPPort(ctx context.Context, ctID int, dpID uint64, dpPort uint16) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registerDPPortLocked(ctx, ctID, dpID, dpPort)
}

func (s *Server) registerDPPortLocked(ctx context.Context, ctID int, dpID uint64, dpPort uint16) error {
	isVS, err := s.configDPLocked(ctx, ctID, dpID)
	if err != nil {
		return err
	}
	if isVS {
		return nil
	}

	configEntry, hasConfig := s.mapping.GetForDPPort(ctID, dpID, dpPort)
	if !hasConfig {
		islconfs := s.islconf.EntriesByPort(ctID, dpID, dpPort)
		if len(islconfs) > 0 {
			return s.registerISLConf(ctx, islconfs, ctID, dpID, dpPort)
		}
		return s.putDPIdle(ctx, ctID, dpID, dpPort)
	}

	entry, found, err := s.bindings.GetOne(ctx, vmPortFilter(configEntry.VMID, configEntry.VMPort))
	if err != nil {
		return fmt.Errorf("rfengine: looking up vm port: %w", err)
	}
	if !found {
		return s.putDPIdle(ctx, ctID, dpID, dpPort)
	}
	if entry.Status() != rfentry.BindingIdleVM {
		return nil
	}

	entry.AssociateDP(ctID, dpID, dpPort)
	if err := s.bindings.InsertOrUpdate(ctx, entry); err != nil {
		return fmt.Errorf("rfengine: persisting associated binding: %w", err)
	}
	s.log.WithField("dp_id", dpID).WithField("vm_id", *entry.VMID).
		Info("registered datapath port and associated to client port")
	return nil
}

// putDPIdle persists the IDLE_DP binding for (ct_id, dp_id, dp_port), reusing
// any existing row's id so re-delivery of DATAPATH_PORT_REGISTER is a no-op
// rather than a duplicate insert (spec.md §8 Idempotence, global invariant (i)).
func (s *Server) putDPIdle(ctx context.Context, ctID int, dpID uint64, dpPort uint16) error {
	entry, found, err := s.bindings.GetOne(ctx, dpPortFilter(ctID, dpID, dpPort))
	if err != nil {
		return fmt.Errorf("rfengine: looking up existing datapath port: %w", err)
	}
	if !found {
		entry = rfentry.NewIdleDP(ctID, dpID, dpPort)
	}
	if err := s.bindings.InsertOrUpdate(ctx, entry); err != nil {
		return fmt.Errorf("rfengine: persisting idle binding: %w", err)
	}
	s.log.WithField("dp_id", dpID).WithField("dp_port", dpPort).Info("registered datapath port as idle")
	return nil
}

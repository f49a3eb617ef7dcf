package rfentry

import "fmt"

// ISLEntry represents one direction of an inter-switch link (spec.md §3).
// An ACTIVE ISL always exists as two mirrored entries — see spec.md invariant 2.
type ISLEntry struct {
	id int64

	VMID    uint64
	CtID    *int
	DPID    *uint64
	DPPort  *uint16
	EthAddr *string

	RemCtID    *int
	RemDPID    *uint64
	RemDPPort  *uint16
	RemEthAddr *string
}

func (e *ISLEntry) ID() int64     { return e.id }
func (e *ISLEntry) SetID(id int64) { e.id = id }

func (e *ISLEntry) isIdleDP() bool {
	return e.CtID != nil && e.DPID != nil && e.DPPort != nil &&
		e.RemCtID == nil && e.RemDPID == nil && e.RemDPPort == nil
}

func (e *ISLEntry) isIdleRemote() bool {
	return e.CtID == nil && e.DPID == nil && e.DPPort == nil &&
		e.RemCtID != nil && e.RemDPID != nil && e.RemDPPort != nil
}

// Status derives the lifecycle state from field presence.
func (e *ISLEntry) Status() ISLStatus {
	switch {
	case e.isIdleDP():
		return ISLIdleDP
	case e.isIdleRemote():
		return ISLIdleRemote
	default:
		return ISLActive
	}
}

// NewLocalISL builds an ISLEntry in IDLE_DP status, the local-only half of a
// link not yet matched with its remote end.
func NewLocalISL(vmID uint64, ctID int, dpID uint64, dpPort uint16, eth string) *ISLEntry {
	e := &ISLEntry{VMID: vmID, CtID: &ctID, DPID: &dpID, DPPort: &dpPort}
	if eth != "" {
		e.EthAddr = &eth
	}
	return e
}

// AssociateRemote fills in the remote side of an IDLE_DP entry.
func (e *ISLEntry) AssociateRemote(ctID int, dpID uint64, dpPort uint16, eth string) {
	if !e.isIdleDP() {
		panic("rfentry: AssociateRemote called on non-IDLE_DP ISL entry")
	}
	e.RemCtID = &ctID
	e.RemDPID = &dpID
	e.RemDPPort = &dpPort
	if eth != "" {
		e.RemEthAddr = &eth
	}
}

// AssociateLocal fills in the local side of an IDLE_REMOTE entry.
func (e *ISLEntry) AssociateLocal(ctID int, dpID uint64, dpPort uint16, eth string) {
	if !e.isIdleRemote() {
		panic("rfentry: AssociateLocal called on non-IDLE_REMOTE ISL entry")
	}
	e.CtID = &ctID
	e.DPID = &dpID
	e.DPPort = &dpPort
	if eth != "" {
		e.EthAddr = &eth
	}
}

// MakeIdleRemote clears the local side, leaving only the remote side set
// (the local datapath went down; spec.md §4.3.3).
func (e *ISLEntry) MakeIdleRemote() {
	e.CtID = nil
	e.DPID = nil
	e.DPPort = nil
	e.EthAddr = nil
}

// MakeIdleDP clears the remote side, leaving only the local side set
// (the remote datapath went down; spec.md §4.3.3).
func (e *ISLEntry) MakeIdleDP() {
	e.RemCtID = nil
	e.RemDPID = nil
	e.RemDPPort = nil
	e.RemEthAddr = nil
}

// LocalMatches reports whether the local (ct_id, dp_id, dp_port, eth_addr)
// tuple equals the given values.
func (e *ISLEntry) LocalMatches(ctID int, dpID uint64, dpPort uint16, eth string) bool {
	return e.CtID != nil && *e.CtID == ctID &&
		e.DPID != nil && *e.DPID == dpID &&
		e.DPPort != nil && *e.DPPort == dpPort &&
		e.EthAddr != nil && *e.EthAddr == eth
}

// RemoteMatches reports whether the remote tuple equals the given values.
func (e *ISLEntry) RemoteMatches(ctID int, dpID uint64, dpPort uint16, eth string) bool {
	return e.RemCtID != nil && *e.RemCtID == ctID &&
		e.RemDPID != nil && *e.RemDPID == dpID &&
		e.RemDPPort != nil && *e.RemDPPort == dpPort &&
		e.RemEthAddr != nil && *e.RemEthAddr == eth
}

func (e *ISLEntry) ToFields() map[string]string {
	f := map[string]string{
		"vm_id":    fmtU64(&e.VMID),
		"ct_id":    fmtInt(e.CtID),
		"dp_id":    fmtU64(e.DPID),
		"dp_port":  fmtU16(e.DPPort),
		"rem_ct":   fmtInt(e.RemCtID),
		"rem_id":   fmtU64(e.RemDPID),
		"rem_port": fmtU16(e.RemDPPort),
	}
	f["eth_addr"] = strOrEmpty(e.EthAddr)
	f["rem_eth_addr"] = strOrEmpty(e.RemEthAddr)
	return f
}

func (e *ISLEntry) FromFields(f map[string]string) error {
	if v := u64ptr(f["vm_id"]); v != nil {
		e.VMID = *v
	}
	e.CtID = intptr(f["ct_id"])
	e.DPID = u64ptr(f["dp_id"])
	e.DPPort = u16ptr(f["dp_port"])
	e.RemCtID = intptr(f["rem_ct"])
	e.RemDPID = u64ptr(f["rem_id"])
	e.RemDPPort = u16ptr(f["rem_port"])
	e.EthAddr = nonEmpty(f["eth_addr"])
	e.RemEthAddr = nonEmpty(f["rem_eth_addr"])
	return nil
}

func strOrEmpty(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	v := s
	return &v
}

func (e *ISLEntry) String() string {
	return fmt.Sprintf("ISLEntry{id=%d vm=%d local=%v/%v/%v/%v remote=%v/%v/%v/%v status=%s}",
		e.id, e.VMID, derefInt(e.CtID), derefU64(e.DPID), derefU16(e.DPPort), derefStr(e.EthAddr),
		derefInt(e.RemCtID), derefU64(e.RemDPID), derefU16(e.RemDPPort), derefStr(e.RemEthAddr),
		e.Status())
}

func derefU64(p *uint64) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

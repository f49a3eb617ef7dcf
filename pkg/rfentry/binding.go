package rfentry

import (
	"fmt"
	"strconv"
)

// BindingEntry associates a VM-facing logical port with a physical datapath
// port and, once mapped, the virtual-switch port bridging them (spec.md §3).
// Optional fields are nil until the corresponding side of the lifecycle has
// been learned; Status derives the lifecycle state from which fields are set.
type BindingEntry struct {
	id int64

	VMID   *uint64
	VMPort *uint16
	CtID   *int
	DPID   *uint64
	DPPort *uint16
	VSID   *uint64
	VSPort *uint16
	EthAddr *string
}

// ID returns the storage-assigned record id (0 if not yet persisted).
func (e *BindingEntry) ID() int64 { return e.id }

// SetID assigns the storage-assigned record id.
func (e *BindingEntry) SetID(id int64) { e.id = id }

// NewIdleVM builds a BindingEntry in IDLE_VM status.
func NewIdleVM(vmID uint64, vmPort uint16, eth string) *BindingEntry {
	e := &BindingEntry{VMID: &vmID, VMPort: &vmPort}
	if eth != "" {
		e.EthAddr = &eth
	}
	return e
}

// NewIdleDP builds a BindingEntry in IDLE_DP status.
func NewIdleDP(ctID int, dpID uint64, dpPort uint16) *BindingEntry {
	return &BindingEntry{CtID: &ctID, DPID: &dpID, DPPort: &dpPort}
}

func (e *BindingEntry) isIdleVM() bool {
	return e.VMID != nil && e.VMPort != nil &&
		e.CtID == nil && e.DPID == nil && e.DPPort == nil &&
		e.VSID == nil && e.VSPort == nil
}

func (e *BindingEntry) isIdleDP() bool {
	return e.VMID == nil && e.VMPort == nil &&
		e.CtID != nil && e.DPID != nil && e.DPPort != nil &&
		e.VSID == nil && e.VSPort == nil
}

// Status derives the lifecycle state from field presence (spec.md §3 table).
func (e *BindingEntry) Status() BindingStatus {
	switch {
	case e.isIdleVM():
		return BindingIdleVM
	case e.isIdleDP():
		return BindingIdleDP
	case e.VSID == nil && e.VSPort == nil:
		return BindingAssociated
	default:
		return BindingActive
	}
}

// AssociateVM fills in the VM side of an IDLE_DP entry, moving it to
// ASSOCIATED. Panics if called on an entry not in IDLE_DP status — callers
// (rfengine) are expected to check Status() first, as the original did with
// RFENTRY_IDLE_DP_PORT before calling associate().
func (e *BindingEntry) AssociateVM(vmID uint64, vmPort uint16, eth string) {
	if !e.isIdleDP() {
		panic("rfentry: AssociateVM called on non-IDLE_DP entry")
	}
	e.VMID = &vmID
	e.VMPort = &vmPort
	if eth != "" {
		e.EthAddr = &eth
	}
}

// AssociateDP fills in the DP side of an IDLE_VM entry, moving it to
// ASSOCIATED. Panics if called on an entry not in IDLE_VM status.
func (e *BindingEntry) AssociateDP(ctID int, dpID uint64, dpPort uint16) {
	if !e.isIdleVM() {
		panic("rfentry: AssociateDP called on non-IDLE_VM entry")
	}
	e.CtID = &ctID
	e.DPID = &dpID
	e.DPPort = &dpPort
}

// Activate fills in the virtual-switch side, moving an ASSOCIATED entry to ACTIVE.
func (e *BindingEntry) Activate(vsID uint64, vsPort uint16) {
	e.VSID = &vsID
	e.VSPort = &vsPort
}

// ResetToIdleVM clears the DP and virtual-switch side, preserving the VM
// side, as set_dp_down does in spec.md §4.3.3.
func (e *BindingEntry) ResetToIdleVM() {
	e.CtID = nil
	e.DPID = nil
	e.DPPort = nil
	e.VSID = nil
	e.VSPort = nil
}

func u64ptr(s string) *uint64 {
	if s == "" {
		return nil
	}
	v, _ := strconv.ParseUint(s, 10, 64)
	return &v
}

func u16ptr(s string) *uint16 {
	if s == "" {
		return nil
	}
	v, _ := strconv.ParseUint(s, 10, 16)
	u := uint16(v)
	return &u
}

func intptr(s string) *int {
	if s == "" {
		return nil
	}
	v, _ := strconv.Atoi(s)
	return &v
}

func fmtU64(p *uint64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatUint(*p, 10)
}

func fmtU16(p *uint16) string {
	if p == nil {
		return ""
	}
	return strconv.FormatUint(uint64(*p), 10)
}

func fmtInt(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}

// ToFields encodes the entry as a string-keyed field map, the shape the
// store drivers persist (spec.md §6 "flat key/value dictionaries").
func (e *BindingEntry) ToFields() map[string]string {
	f := map[string]string{
		"vm_id":   fmtU64(e.VMID),
		"vm_port": fmtU16(e.VMPort),
		"ct_id":   fmtInt(e.CtID),
		"dp_id":   fmtU64(e.DPID),
		"dp_port": fmtU16(e.DPPort),
		"vs_id":   fmtU64(e.VSID),
		"vs_port": fmtU16(e.VSPort),
	}
	if e.EthAddr != nil {
		f["eth_addr"] = *e.EthAddr
	} else {
		f["eth_addr"] = ""
	}
	return f
}

// FromFields decodes a field map produced by ToFields back into the entry.
func (e *BindingEntry) FromFields(f map[string]string) error {
	e.VMID = u64ptr(f["vm_id"])
	e.VMPort = u16ptr(f["vm_port"])
	e.CtID = intptr(f["ct_id"])
	e.DPID = u64ptr(f["dp_id"])
	e.DPPort = u16ptr(f["dp_port"])
	e.VSID = u64ptr(f["vs_id"])
	e.VSPort = u16ptr(f["vs_port"])
	if eth, ok := f["eth_addr"]; ok && eth != "" {
		e.EthAddr = &eth
	} else {
		e.EthAddr = nil
	}
	return nil
}

func (e *BindingEntry) String() string {
	return fmt.Sprintf("BindingEntry{id=%d vm=%s/%v ct=%v dp=%s/%v vs=%s/%v eth=%v status=%s}",
		e.id, fmtU64(e.VMID), derefU16(e.VMPort), derefInt(e.CtID),
		fmtU64(e.DPID), derefU16(e.DPPort), fmtU64(e.VSID), derefU16(e.VSPort),
		derefStr(e.EthAddr), e.Status())
}

func derefU16(p *uint16) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func derefInt(p *int) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func derefStr(p *string) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

package rfentry

// BindingConfigEntry is one row of the static {(vm_id, vm_port) ↔ (ct_id,
// dp_id, dp_port)} mapping (spec.md §3). Configuration entries are built
// once at startup and never mutated by the engine (spec.md §5).
type BindingConfigEntry struct {
	VMID   uint64
	VMPort uint16
	CtID   int
	DPID   uint64
	DPPort uint16
}

// ISLConfigEntry is the static expectation that two (ct_id, dp_id, dp_port,
// eth) tuples form one inter-switch link (spec.md §3).
type ISLConfigEntry struct {
	VMID uint64

	CtID    int
	DPID    uint64
	DPPort  uint16
	EthAddr string

	RemCtID    int
	RemDPID    uint64
	RemDPPort  uint16
	RemEthAddr string
}

// MatchesPort reports whether the given (ct_id, dp_id, dp_port) triple is
// either side of this ISL config entry.
func (c *ISLConfigEntry) MatchesPort(ctID int, dpID uint64, dpPort uint16) bool {
	return (c.CtID == ctID && c.DPID == dpID && c.DPPort == dpPort) ||
		(c.RemCtID == ctID && c.RemDPID == dpID && c.RemDPPort == dpPort)
}

// IsRemoteSide reports whether the given triple is the *remote* side of
// this config entry (spec.md §4.4: "if the triple is the remote side, the
// effective MAC is the config's local MAC (and vice versa)").
func (c *ISLConfigEntry) IsRemoteSide(ctID int, dpID uint64, dpPort uint16) bool {
	return c.RemCtID == ctID && c.RemDPID == dpID && c.RemDPPort == dpPort
}

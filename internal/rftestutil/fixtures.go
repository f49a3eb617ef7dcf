// Package rftestutil provides shared test fixtures and a real-Redis helper
// for rfserver's package tests, mirroring the teacher's internal/testutil.
package rftestutil

import (
	"github.com/routeflow/rfserver/pkg/rfconfig"
	"github.com/routeflow/rfserver/pkg/rfentry"
	"github.com/routeflow/rfserver/pkg/rfrule"
)

// SampleMappingConfig returns a two-VM mapping config: vm 0x1 with one port
// bound to ct 1/dp 0x10/port 1, vm 0x2 with one port bound to ct 1/dp
// 0x10/port 2.
func SampleMappingConfig() *rfconfig.MappingConfig {
	return rfconfig.NewMappingConfig([]rfentry.BindingConfigEntry{
		{VMID: 0x1, VMPort: 1, CtID: 1, DPID: 0x10, DPPort: 1},
		{VMID: 0x2, VMPort: 1, CtID: 1, DPID: 0x10, DPPort: 2},
	})
}

// SampleISLConfig returns a single inter-switch link between two datapaths
// attached to the same controller.
func SampleISLConfig() *rfconfig.ISLConfig {
	return rfconfig.NewISLConfig([]rfentry.ISLConfigEntry{
		{
			VMID:       0x1,
			CtID:       1,
			DPID:       0x10,
			DPPort:     10,
			EthAddr:    "aa:aa:aa:aa:aa:01",
			RemCtID:    1,
			RemDPID:    0x20,
			RemDPPort:  20,
			RemEthAddr: "aa:aa:aa:aa:aa:02",
		},
	})
}

// SampleRules returns a minimal default-rules document compiled through
// rfrule.Compile, for tests that need a non-empty rule set without caring
// about its exact shape.
func SampleRules() []rfrule.Entry {
	return rfrule.Compile(rfrule.Document{
		DefaultRules: map[string][]rfrule.RawRule{
			"lowest": {{Name: "to-controller", Destination: "controller"}},
		},
	})
}

package rfrule

import (
	"fmt"

	"github.com/routeflow/rfserver/pkg/rfentry"
	"github.com/routeflow/rfserver/pkg/rfproto"
)

// Entry is one compiled rule: a name, the priority bucket it came from,
// whether it applies only to the virtual-switch datapath, and the
// RouteMod template to install (spec.md §3 "Rule entry").
type Entry struct {
	Name     string
	Priority rfentry.Priority
	VSOnly   bool
	RouteMod *rfproto.RouteMod
}

func (e Entry) String() string {
	return fmt.Sprintf("Entry{name=%s priority=%s vs_only=%v routemod=%s}",
		e.Name, e.Priority, e.VSOnly, e.RouteMod)
}

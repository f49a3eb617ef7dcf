// Package rfdispatch implements the dispatcher spec.md §4.6 describes: it
// reads inbound messages off the client and proxy channels and routes each
// to the matching rfengine.Server handler, serially, one goroutine handling
// both channels (spec.md §5's "single-goroutine engine with inbound
// channels" option).
package rfdispatch

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/routeflow/rfserver/pkg/rfengine"
	"github.com/routeflow/rfserver/pkg/rflog"
	"github.com/routeflow/rfserver/pkg/rfproto"
)

// Inbound is one message lifted off a channel, tagged with its origin the
// way the original's process(from_, to, channel, msg) callback was.
type Inbound struct {
	Channel string // "client" or "proxy"
	From    string
	To      string
	Msg     interface{}
}

// Dispatcher demultiplexes Inbound messages onto an rfengine.Server.
type Dispatcher struct {
	engine *rfengine.Server
	log    *logrus.Entry
}

// New builds a Dispatcher over the given engine.
func New(engine *rfengine.Server) *Dispatcher {
	return &Dispatcher{engine: engine, log: rflog.WithHandler("dispatch")}
}

// Run reads from both channels until ctx is canceled or both channels are
// closed. Events on each channel are handled in arrival order; inter-channel
// ordering is not guaranteed (spec.md §5).
func (d *Dispatcher) Run(ctx context.Context, client, proxy <-chan Inbound) error {
	for client != nil || proxy != nil {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case in, ok := <-client:
			if !ok {
				client = nil
				continue
			}
			d.Dispatch(ctx, in)
		case in, ok := <-proxy:
			if !ok {
				proxy = nil
				continue
			}
			d.Dispatch(ctx, in)
		}
	}
	return nil
}

// Dispatch routes a single Inbound message to its handler and reports
// whether the message kind was recognized at all (spec.md §7: "the engine
// ... returns a boolean 'handled / not handled' per message", used for the
// unknown-message-type negative acknowledgement). A handler error is still
// logged but does not itself make the message unhandled — the message kind
// was recognized and routed; the failure is internal to the handler.
func (d *Dispatcher) Dispatch(ctx context.Context, in Inbound) bool {
	var err error

	switch msg := in.Msg.(type) {
	case rfproto.PortRegister:
		err = d.engine.RegisterVMPort(ctx, msg.VMID, msg.VMPort, msg.EthAddr)
	case *rfproto.RouteMod:
		err = d.engine.RegisterRouteMod(ctx, msg)
	case rfproto.DatapathPortRegister:
		err = d.engine.RegisterDPPort(ctx, msg.CtID, msg.DPID, msg.DPPort)
	case rfproto.DatapathDown:
		err = d.engine.SetDPDown(ctx, msg.CtID, msg.DPID)
	case rfproto.VirtualPlaneMap:
		err = d.engine.MapPort(ctx, msg.VMID, msg.VMPort, msg.VSID, msg.VSPort)
	default:
		d.log.WithField("channel", in.Channel).WithField("type", fmt.Sprintf("%T", in.Msg)).
			Warn("unrecognized message kind, reporting as unhandled")
		return false
	}

	if err != nil {
		d.log.WithField("channel", in.Channel).WithError(err).Error("handler returned error")
	}
	return true
}

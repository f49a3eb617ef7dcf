// Package rftransport is the Transport contract spec.md §1 excludes as an
// external collaborator: the concrete IPC bus carrying messages between
// rfengine and the clients/proxies. Only the interface is load-bearing for
// the engine; the memory and tcp implementations exist to give it a
// concrete, swappable runtime per spec.md §4.6.
package rftransport

import "github.com/routeflow/rfserver/pkg/rfproto"

// Envelope is anything that can travel over a channel: every inbound and
// outbound message type in pkg/rfproto implements it.
type Envelope interface {
	Type() rfproto.MessageType
}

// Transport is the dispatcher's two-channel IPC contract (spec.md §6
// "IPC channels (two logical buses)"). SendToClient addresses a VM by its
// vm_id (as a string); SendToProxy addresses a controller by its ct_id (as
// a string).
type Transport interface {
	SendToClient(dest string, msg Envelope) error
	SendToProxy(dest string, msg Envelope) error
}

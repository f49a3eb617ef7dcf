package rftransport

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"net"
	"sync"

	"github.com/routeflow/rfserver/pkg/rflog"
	"github.com/routeflow/rfserver/pkg/rfproto"
)

// Frame is one decoded inbound message lifted off the wire, tagged with
// which logical bus it arrived on (spec.md §6 "two logical buses") and the
// dest the originating connection announced itself as (its own vm_id or
// ct_id), so later outbound sends addressed to that dest can be routed back
// to the same connection.
type Frame struct {
	Channel string
	Dest    string
	Msg     Envelope
}

// decodeFrame turns one raw wireMessage payload into a typed rfproto
// message, the inverse of the frame send helper below.
func decodeFrame(raw []byte) (Frame, error) {
	var wire wireMessage
	if err := json.Unmarshal(raw, &wire); err != nil {
		return Frame{}, fmt.Errorf("rftransport: decoding frame envelope: %w", err)
	}

	var msg Envelope
	switch rfproto.MessageType(wire.Kind) {
	case rfproto.MsgPortRegister:
		var m rfproto.PortRegister
		if err := json.Unmarshal(wire.Payload, &m); err != nil {
			return Frame{}, fmt.Errorf("rftransport: decoding PORT_REGISTER: %w", err)
		}
		msg = m
	case rfproto.MsgRouteMod:
		var m rfproto.RouteMod
		if err := json.Unmarshal(wire.Payload, &m); err != nil {
			return Frame{}, fmt.Errorf("rftransport: decoding ROUTE_MOD: %w", err)
		}
		msg = &m
	case rfproto.MsgDatapathPortRegister:
		var m rfproto.DatapathPortRegister
		if err := json.Unmarshal(wire.Payload, &m); err != nil {
			return Frame{}, fmt.Errorf("rftransport: decoding DATAPATH_PORT_REGISTER: %w", err)
		}
		msg = m
	case rfproto.MsgDatapathDown:
		var m rfproto.DatapathDown
		if err := json.Unmarshal(wire.Payload, &m); err != nil {
			return Frame{}, fmt.Errorf("rftransport: decoding DATAPATH_DOWN: %w", err)
		}
		msg = m
	case rfproto.MsgVirtualPlaneMap:
		var m rfproto.VirtualPlaneMap
		if err := json.Unmarshal(wire.Payload, &m); err != nil {
			return Frame{}, fmt.Errorf("rftransport: decoding VIRTUAL_PLANE_MAP: %w", err)
		}
		msg = m
	default:
		return Frame{}, fmt.Errorf("rftransport: unrecognized message kind %d", wire.Kind)
	}

	return Frame{Channel: wire.Channel, Dest: wire.Dest, Msg: msg}, nil
}

// busKey identifies one registered connection by the channel it serves and
// the dest it announced itself as.
type busKey struct {
	channel string
	dest    string
}

// Bus accepts TCP connections from clients and proxies, decodes their
// inbound frames, and also implements Transport so rfengine's outbound
// sends are routed back to whichever connection announced the matching
// dest — the bidirectional counterpart to a bare TCPTransport, which only
// knows how to dial out.
type Bus struct {
	ln net.Listener

	mu    sync.Mutex
	conns map[busKey]net.Conn
}

// Listen binds addr and returns a Bus ready for Serve.
func Listen(addr string) (*Bus, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("rftransport: listening on %s: %w", addr, err)
	}
	return &Bus{ln: ln, conns: make(map[busKey]net.Conn)}, nil
}

// Addr returns the bound address.
func (b *Bus) Addr() net.Addr { return b.ln.Addr() }

// Close stops accepting new connections and closes every registered one.
func (b *Bus) Close() error {
	b.mu.Lock()
	for _, c := range b.conns {
		c.Close()
	}
	b.mu.Unlock()
	return b.ln.Close()
}

// Serve accepts connections forever, decoding each connection's frames onto
// out until the listener is closed. The first frame read on a connection
// registers it under its (channel, dest) for outbound routing; every frame
// after that re-confirms the same registration.
func (b *Bus) Serve(out chan<- Frame) error {
	for {
		conn, err := b.ln.Accept()
		if err != nil {
			return err
		}
		go b.serveConn(conn, out)
	}
}

func (b *Bus) serveConn(conn net.Conn, out chan<- Frame) {
	defer conn.Close()
	var registered *busKey
	defer func() {
		if registered != nil {
			b.mu.Lock()
			delete(b.conns, *registered)
			b.mu.Unlock()
		}
	}()

	for {
		raw, err := ReadFrame(conn)
		if err != nil {
			rflog.WithField("remote", conn.RemoteAddr()).WithError(err).Debug("connection closed")
			return
		}
		frame, err := decodeFrame(raw)
		if err != nil {
			rflog.WithField("remote", conn.RemoteAddr()).WithError(err).Warn("dropping undecodable frame")
			continue
		}

		key := busKey{channel: frame.Channel, dest: frame.Dest}
		if registered == nil || *registered != key {
			b.mu.Lock()
			b.conns[key] = conn
			b.mu.Unlock()
			registered = &key
		}

		out <- frame
	}
}

// SendToClient implements Transport, routing to the client connection
// registered under dest.
func (b *Bus) SendToClient(dest string, msg Envelope) error {
	return b.send("client", dest, msg)
}

// SendToProxy implements Transport, routing to the proxy connection
// registered under dest.
func (b *Bus) SendToProxy(dest string, msg Envelope) error {
	return b.send("proxy", dest, msg)
}

func (b *Bus) send(channel, dest string, msg Envelope) error {
	b.mu.Lock()
	conn, ok := b.conns[busKey{channel: channel, dest: dest}]
	b.mu.Unlock()
	if !ok {
		return fmt.Errorf("rftransport: no registered %s connection for dest %q", channel, dest)
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("rftransport: marshaling payload: %w", err)
	}
	frame, err := json.Marshal(wireMessage{Channel: channel, Dest: dest, Kind: int(msg.Type()), Payload: payload})
	if err != nil {
		return fmt.Errorf("rftransport: marshaling frame: %w", err)
	}

	var length [4]byte
	binary.BigEndian.PutUint32(length[:], uint32(len(frame)))
	if _, err := conn.Write(length[:]); err != nil {
		return fmt.Errorf("rftransport: writing frame length: %w", err)
	}
	if _, err := conn.Write(frame); err != nil {
		return fmt.Errorf("rftransport: writing frame: %w", err)
	}
	return nil
}

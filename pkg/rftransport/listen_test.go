package rftransport

import (
	"encoding/binary"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/routeflow/rfserver/pkg/rfproto"
)

func writeFrame(t *testing.T, conn net.Conn, channel, dest string, msg Envelope) {
	t.Helper()
	payload, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshaling payload: %v", err)
	}
	frame, err := json.Marshal(wireMessage{Channel: channel, Dest: dest, Kind: int(msg.Type()), Payload: payload})
	if err != nil {
		t.Fatalf("marshaling frame: %v", err)
	}
	var length [4]byte
	binary.BigEndian.PutUint32(length[:], uint32(len(frame)))
	if _, err := conn.Write(length[:]); err != nil {
		t.Fatalf("writing length: %v", err)
	}
	if _, err := conn.Write(frame); err != nil {
		t.Fatalf("writing frame: %v", err)
	}
}

func TestBus_ServeDecodesInboundFrame(t *testing.T) {
	bus, err := Listen("127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer bus.Close()

	frames := make(chan Frame, 1)
	go bus.Serve(frames)

	conn, err := net.Dial("tcp", bus.Addr().String())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	writeFrame(t, conn, "client", "1", rfproto.PortRegister{VMID: 1, VMPort: 1, EthAddr: "aa:aa:aa:aa:aa:01"})

	select {
	case f := <-frames:
		pr, ok := f.Msg.(rfproto.PortRegister)
		if !ok {
			t.Fatalf("expected a decoded PortRegister, got %T", f.Msg)
		}
		if pr.VMID != 1 || f.Channel != "client" || f.Dest != "1" {
			t.Fatalf("unexpected decoded frame: %+v", f)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for decoded frame")
	}
}

func TestBus_SendRoutesToRegisteredConnection(t *testing.T) {
	bus, err := Listen("127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer bus.Close()

	frames := make(chan Frame, 1)
	go bus.Serve(frames)

	conn, err := net.Dial("tcp", bus.Addr().String())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	writeFrame(t, conn, "client", "1", rfproto.PortRegister{VMID: 1, VMPort: 1, EthAddr: "aa:aa:aa:aa:aa:01"})
	<-frames // wait for the connection to be registered under dest "1"

	if err := bus.SendToClient("1", rfproto.PortConfig{VMID: 1, VMPort: 1, OperationID: rfproto.PortConfigMapSuccess}); err != nil {
		t.Fatalf("SendToClient: %v", err)
	}

	raw, err := ReadFrame(conn)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	var wire wireMessage
	if err := json.Unmarshal(raw, &wire); err != nil {
		t.Fatalf("unmarshaling echoed frame: %v", err)
	}
	if wire.Channel != "client" || wire.Dest != "1" || rfproto.MessageType(wire.Kind) != rfproto.MsgPortConfig {
		t.Fatalf("unexpected routed frame: %+v", wire)
	}
}

func TestBus_SendToUnregisteredDestErrors(t *testing.T) {
	bus, err := Listen("127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer bus.Close()

	if err := bus.SendToClient("999", rfproto.PortConfig{VMID: 999}); err == nil {
		t.Fatal("expected an error sending to an unregistered dest")
	}
}

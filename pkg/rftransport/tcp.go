package rftransport

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/routeflow/rfserver/pkg/rflog"
)

// wireMessage is the length-prefixed JSON frame TCPTransport puts on the
// wire: a channel tag, a destination, a message-type tag, and the raw
// envelope payload.
type wireMessage struct {
	Channel string              `json:"channel"`
	Dest    string              `json:"dest"`
	Kind    int                 `json:"kind"`
	Payload json.RawMessage     `json:"payload"`
}

// TCPTransport sends each message as a length-prefixed JSON frame over a
// persistent TCP connection. Optionally, the connection can be dialed
// through an SSH tunnel (NewTCPTransportOverSSH), mirroring the teacher's
// device.SSHTunnel used to reach a Redis instance with no native TLS.
type TCPTransport struct {
	mu     sync.Mutex
	conn   net.Conn
	tunnel *sshTunnel
}

// NewTCPTransport dials addr directly.
func NewTCPTransport(addr string) (*TCPTransport, error) {
	conn, err := net.DialTimeout("tcp", addr, 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("rftransport: dialing %s: %w", addr, err)
	}
	return &TCPTransport{conn: conn}, nil
}

// NewTCPTransportOverSSH opens an SSH tunnel to sshAddr and dials remoteAddr
// through it, for deployments where the proxy/client bus is only reachable
// from inside a jump host (spec.md §1's transport is an external
// collaborator; this is one concrete way to reach it).
func NewTCPTransportOverSSH(sshAddr, user, pass, remoteAddr string) (*TCPTransport, error) {
	tun, err := newSSHTunnel(sshAddr, user, pass)
	if err != nil {
		return nil, err
	}
	conn, err := tun.client.Dial("tcp", remoteAddr)
	if err != nil {
		tun.Close()
		return nil, fmt.Errorf("rftransport: dialing %s over ssh: %w", remoteAddr, err)
	}
	return &TCPTransport{conn: conn, tunnel: tun}, nil
}

func (t *TCPTransport) SendToClient(dest string, msg Envelope) error {
	return t.send("client", dest, msg)
}

func (t *TCPTransport) SendToProxy(dest string, msg Envelope) error {
	return t.send("proxy", dest, msg)
}

func (t *TCPTransport) send(channel, dest string, msg Envelope) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("rftransport: marshaling payload: %w", err)
	}
	frame, err := json.Marshal(wireMessage{
		Channel: channel,
		Dest:    dest,
		Kind:    int(msg.Type()),
		Payload: payload,
	})
	if err != nil {
		return fmt.Errorf("rftransport: marshaling frame: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	var length [4]byte
	binary.BigEndian.PutUint32(length[:], uint32(len(frame)))
	if _, err := t.conn.Write(length[:]); err != nil {
		return fmt.Errorf("rftransport: writing frame length: %w", err)
	}
	if _, err := t.conn.Write(frame); err != nil {
		return fmt.Errorf("rftransport: writing frame: %w", err)
	}
	rflog.WithField("channel", channel).WithField("dest", dest).Debug("sent frame")
	return nil
}

// Close closes the underlying connection (and SSH tunnel, if any).
func (t *TCPTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	err := t.conn.Close()
	if t.tunnel != nil {
		t.tunnel.Close()
	}
	return err
}

// ReadFrame reads one length-prefixed JSON frame from r. Bus uses it to read
// inbound frames; TCPTransport itself only sends.
func ReadFrame(r io.Reader) ([]byte, error) {
	var length [4]byte
	if _, err := io.ReadFull(r, length[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(length[:])
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// sshTunnel is the minimal SSH-dial wrapper TCPTransport needs, grounded on
// the teacher's pkg/device.SSHTunnel but simplified to a direct client
// (TCPTransport dials through it itself rather than forwarding a local
// listener).
type sshTunnel struct {
	client *ssh.Client
}

func newSSHTunnel(addr, user, pass string) (*sshTunnel, error) {
	config := &ssh.ClientConfig{
		User:            user,
		Auth:            []ssh.AuthMethod{ssh.Password(pass)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         30 * time.Second,
	}
	client, err := ssh.Dial("tcp", addr, config)
	if err != nil {
		return nil, fmt.Errorf("rftransport: ssh dial %s@%s: %w", user, addr, err)
	}
	return &sshTunnel{client: client}, nil
}

func (t *sshTunnel) Close() error {
	return t.client.Close()
}

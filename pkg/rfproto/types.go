// Package rfproto defines the RouteMod/Match/Action/Option message
// contracts spec.md §6 describes. The real serialization library that ships
// these over the wire is an excluded external collaborator (spec.md §1) —
// this package is the contract it exposes, kept deliberately thin.
package rfproto

import (
	"fmt"
	"net"

	"github.com/routeflow/rfserver/pkg/rfentry"
)

// ModKind is the RouteMod modification kind (spec.md §6).
type ModKind int

const (
	ModAdd ModKind = iota
	ModDelete
)

func (k ModKind) String() string {
	if k == ModDelete {
		return "DELETE"
	}
	return "ADD"
}

// MatchKind enumerates the match types the library provides (spec.md §6).
type MatchKind int

const (
	MatchEthernet MatchKind = iota
	MatchEthertype
	MatchIPv4
	MatchIPv6
	MatchNWProto
	MatchTPSrc
	MatchTPDst
	MatchInPort
)

// Match is one flow match clause.
type Match struct {
	Kind MatchKind

	Eth       string // MatchEthernet
	EtherType uint16 // MatchEthertype
	Addr      string // MatchIPv4 / MatchIPv6
	Mask      string // MatchIPv4 / MatchIPv6 ("exact" mask per spec.md §4.2)
	Proto     uint8  // MatchNWProto
	Port      uint16 // MatchTPSrc / MatchTPDst / MatchInPort
}

// Exact masks used whenever an IP match is added without the compiler
// being asked for anything other than a host match (spec.md §4.2 step 4:
// "add IPv4 or IPv6 match with exact mask").
const (
	IPv4MaskExact = "255.255.255.255"
	IPv6MaskExact = "ffff:ffff:ffff:ffff:ffff:ffff:ffff:ffff"
)

func normalizeMAC(mac string) string {
	if hw, err := net.ParseMAC(mac); err == nil {
		return hw.String()
	}
	return mac
}

func Ethernet(mac string) Match   { return Match{Kind: MatchEthernet, Eth: normalizeMAC(mac)} }
func Ethertype(t uint16) Match    { return Match{Kind: MatchEthertype, EtherType: t} }
func IPv4(addr, mask string) Match { return Match{Kind: MatchIPv4, Addr: addr, Mask: mask} }
func IPv6(addr, mask string) Match { return Match{Kind: MatchIPv6, Addr: addr, Mask: mask} }
func NWProto(p uint8) Match       { return Match{Kind: MatchNWProto, Proto: p} }
func TPSrc(port uint16) Match     { return Match{Kind: MatchTPSrc, Port: port} }
func TPDst(port uint16) Match     { return Match{Kind: MatchTPDst, Port: port} }
func InPort(port uint16) Match    { return Match{Kind: MatchInPort, Port: port} }

func (m Match) String() string {
	switch m.Kind {
	case MatchEthernet:
		return fmt.Sprintf("ETHERNET(%s)", m.Eth)
	case MatchEthertype:
		return fmt.Sprintf("ETHERTYPE(0x%x)", m.EtherType)
	case MatchIPv4:
		return fmt.Sprintf("IPV4(%s/%s)", m.Addr, m.Mask)
	case MatchIPv6:
		return fmt.Sprintf("IPV6(%s/%s)", m.Addr, m.Mask)
	case MatchNWProto:
		return fmt.Sprintf("NW_PROTO(%d)", m.Proto)
	case MatchTPSrc:
		return fmt.Sprintf("TP_SRC(%d)", m.Port)
	case MatchTPDst:
		return fmt.Sprintf("TP_DST(%d)", m.Port)
	case MatchInPort:
		return fmt.Sprintf("IN_PORT(%d)", m.Port)
	default:
		return "MATCH(?)"
	}
}

// ActionKind enumerates the action types the library provides (spec.md §6).
type ActionKind int

const (
	ActionController ActionKind = iota
	ActionOutput
	ActionSetEthSrc
	ActionSetEthDst
)

// Action is one flow action.
type Action struct {
	Kind ActionKind
	Port uint16 // ActionOutput
	Mac  string // ActionSetEthSrc / ActionSetEthDst
}

func Controller() Action            { return Action{Kind: ActionController} }
func Output(port uint16) Action     { return Action{Kind: ActionOutput, Port: port} }
func SetEthSrc(mac string) Action   { return Action{Kind: ActionSetEthSrc, Mac: normalizeMAC(mac)} }
func SetEthDst(mac string) Action   { return Action{Kind: ActionSetEthDst, Mac: normalizeMAC(mac)} }

func (a Action) String() string {
	switch a.Kind {
	case ActionController:
		return "CONTROLLER()"
	case ActionOutput:
		return fmt.Sprintf("OUTPUT(%d)", a.Port)
	case ActionSetEthSrc:
		return fmt.Sprintf("SET_ETH_SRC(%s)", a.Mac)
	case ActionSetEthDst:
		return fmt.Sprintf("SET_ETH_DST(%s)", a.Mac)
	default:
		return "ACTION(?)"
	}
}

// OptionKind enumerates the option types the library provides (spec.md §6).
type OptionKind int

const (
	OptionPriority OptionKind = iota
	OptionCtID
)

// Option is one RouteMod option. A RouteMod emitted downstream always
// carries exactly one CT_ID option (spec.md invariant iv) — see
// RouteMod.SetOption, which replaces by kind instead of letting options
// accumulate positionally (spec.md §9 design note).
type Option struct {
	Kind     OptionKind
	Priority rfentry.Priority // OptionPriority
	CtID     int              // OptionCtID
}

func PriorityOption(p rfentry.Priority) Option { return Option{Kind: OptionPriority, Priority: p} }
func CtIDOption(ct int) Option                 { return Option{Kind: OptionCtID, CtID: ct} }

func (o Option) String() string {
	switch o.Kind {
	case OptionPriority:
		return fmt.Sprintf("PRIORITY(%s)", o.Priority)
	case OptionCtID:
		return fmt.Sprintf("CT_ID(%d)", o.CtID)
	default:
		return "OPTION(?)"
	}
}

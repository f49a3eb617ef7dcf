package rfrule

import (
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/routeflow/rfserver/pkg/rfentry"
	"github.com/routeflow/rfserver/pkg/rflog"
	"github.com/routeflow/rfserver/pkg/rfproto"
)

// Compile expands a Document into a flat list of rule entries. It is
// deterministic: the priority buckets are always visited in the fixed
// lowest/low/high/highest order (rfentry.PriorityOrder), rules within a
// bucket are visited in JSON array order, and match expansion always
// iterates dl-type/tp-port in the order they appear (spec.md invariant 6).
func Compile(doc Document) []Entry {
	names := make(map[rfentry.Priority]string, len(rfentry.PriorityByName))
	for name, p := range rfentry.PriorityByName {
		names[p] = name
	}

	var all []Entry
	for _, priority := range rfentry.PriorityOrder {
		rules, ok := doc.DefaultRules[names[priority]]
		if !ok {
			continue
		}
		for _, rule := range rules {
			all = append(all, compileRule(rule, priority)...)
		}
	}
	return all
}

func compileRule(rule RawRule, priority rfentry.Priority) []Entry {
	log := rflog.WithField("rule", rule.Name)
	log.Debug("compiling rule")

	flows := []*rfproto.RouteMod{baseRouteMod(rule, priority)}
	flows = expandL2(rule, flows, log)
	flows = expandL3(rule, flows, log)
	flows = expandL4(rule, flows, log)

	entries := make([]Entry, 0, len(flows))
	for _, rm := range flows {
		entries = append(entries, Entry{
			Name:     rule.Name,
			Priority: priority,
			VSOnly:   rule.VSOnly,
			RouteMod: rm,
		})
	}
	return entries
}

// baseRouteMod builds the single starting template: a PRIORITY option, and
// either a CONTROLLER action (destination == "controller") or no action at
// all, meaning "drop" (spec.md §4.2 step 1).
func baseRouteMod(rule RawRule, priority rfentry.Priority) *rfproto.RouteMod {
	rm := rfproto.NewRouteMod(0)
	rm.SetOption(rfproto.PriorityOption(priority))
	if rule.Destination == "controller" {
		rm.AddAction(rfproto.Controller())
	}
	return rm
}

// expandL2 adds the dl-addr match to every template, then — for each
// ethertype in dl-type — clones every current template, multiplying the
// list by len(dl-type) (spec.md §4.2 steps 2-3).
func expandL2(rule RawRule, flows []*rfproto.RouteMod, log *logrus.Entry) []*rfproto.RouteMod {
	if rule.Match == nil {
		return flows
	}
	if rule.Match.DLAddr != "" {
		for _, rm := range flows {
			rm.AddMatch(rfproto.Ethernet(rule.Match.DLAddr))
		}
		log.Debugf("parsed dl-addr: %s", rule.Match.DLAddr)
	}
	if len(rule.Match.DLType) > 0 {
		var expanded []*rfproto.RouteMod
		for _, raw := range rule.Match.DLType {
			eth := parseHex16(raw)
			for _, flow := range flows {
				clone := flow.Clone()
				clone.AddMatch(rfproto.Ethertype(eth))
				expanded = append(expanded, clone)
			}
			log.Debugf("parsed dl-type: 0x%x", eth)
		}
		flows = expanded
	}
	return flows
}

// expandL3 adds the nw-addr (v4 or v6, detected by colon presence) and
// nw-proto matches to every template (spec.md §4.2 steps 4-5).
func expandL3(rule RawRule, flows []*rfproto.RouteMod, log *logrus.Entry) []*rfproto.RouteMod {
	if rule.Match == nil {
		return flows
	}
	if rule.Match.NWAddr != "" {
		addr := rule.Match.NWAddr
		var m rfproto.Match
		if strings.Contains(addr, ":") {
			m = rfproto.IPv6(addr, rfproto.IPv6MaskExact)
		} else {
			m = rfproto.IPv4(addr, rfproto.IPv4MaskExact)
		}
		for _, rm := range flows {
			rm.AddMatch(m)
		}
		log.Debugf("parsed nw-addr: %s", addr)
	}
	if rule.Match.NWProto != nil {
		for _, rm := range flows {
			rm.AddMatch(rfproto.NWProto(*rule.Match.NWProto))
		}
		log.Debugf("parsed nw-proto: %d", *rule.Match.NWProto)
	}
	return flows
}

// expandL4 clones every current template once for TP_SRC and once for
// TP_DST, doubling the list (spec.md §4.2 step 6).
func expandL4(rule RawRule, flows []*rfproto.RouteMod, log *logrus.Entry) []*rfproto.RouteMod {
	if rule.Match == nil || rule.Match.TPPort == nil {
		return flows
	}
	port := *rule.Match.TPPort
	var expanded []*rfproto.RouteMod
	for _, ctor := range []func(uint16) rfproto.Match{rfproto.TPSrc, rfproto.TPDst} {
		for _, flow := range flows {
			clone := flow.Clone()
			clone.AddMatch(ctor(port))
			expanded = append(expanded, clone)
		}
	}
	log.Debugf("parsed tp-port: %d", port)
	return expanded
}

// parseHex16 parses a "0x..." ethertype string, defaulting to 0 if malformed.
// A malformed ethertype does not abort the whole rule; expandL2 still emits
// an ETHERTYPE(0) match for it.
func parseHex16(s string) uint16 {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	v, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return 0
	}
	return uint16(v)
}

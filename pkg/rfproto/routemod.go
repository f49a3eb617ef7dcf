package rfproto

import "fmt"

// RouteMod is a route-modification message: a modification kind, an id
// (interpreted as a VM id until rfengine rewrites it to a DP id), and three
// ordered lists of matches, options and actions (spec.md §6).
type RouteMod struct {
	Mod     ModKind
	ID      uint64
	Matches []Match
	Options []Option
	Actions []Action
}

// NewRouteMod builds an empty ADD RouteMod for the given id.
func NewRouteMod(id uint64) *RouteMod {
	return &RouteMod{Mod: ModAdd, ID: id}
}

// Clone returns a deep copy. spec.md §9's design note replaces the original
// push/pop-in-place fan-out with "a safer design [that] clones the base
// RouteMod per emission" — this is that clone.
func (rm *RouteMod) Clone() *RouteMod {
	out := &RouteMod{Mod: rm.Mod, ID: rm.ID}
	out.Matches = append([]Match(nil), rm.Matches...)
	out.Options = append([]Option(nil), rm.Options...)
	out.Actions = append([]Action(nil), rm.Actions...)
	return out
}

// AddMatch appends a match clause.
func (rm *RouteMod) AddMatch(m Match) { rm.Matches = append(rm.Matches, m) }

// AddAction appends an action.
func (rm *RouteMod) AddAction(a Action) { rm.Actions = append(rm.Actions, a) }

// SetActions replaces the action list outright, used when crossing an ISL
// (spec.md §4.5: "clear all actions and append three new actions in order").
func (rm *RouteMod) SetActions(actions ...Action) { rm.Actions = actions }

// SetOption replaces any existing option of the same kind, or appends one
// if none exists. This is the explicit "replace option of kind K" primitive
// spec.md §9's design note asks for, replacing the original's
// slice-off-the-last-option stack trick; it keeps invariant iv (exactly one
// CT_ID option) true regardless of call order.
func (rm *RouteMod) SetOption(o Option) {
	for i, existing := range rm.Options {
		if existing.Kind == o.Kind {
			rm.Options[i] = o
			return
		}
	}
	rm.Options = append(rm.Options, o)
}

// WithExtraMatches returns a clone carrying the given additional match
// clauses, leaving rm itself untouched. Used by rfengine's fan-out instead
// of appending-then-stripping the base RouteMod in place.
func (rm *RouteMod) WithExtraMatches(extra ...Match) *RouteMod {
	out := rm.Clone()
	out.Matches = append(out.Matches, extra...)
	return out
}

// FindOutputAction returns the index of the first OUTPUT action, or -1 if
// there is none (spec.md §4.5: "Locate the OUTPUT action. If none, drop").
func (rm *RouteMod) FindOutputAction() int {
	for i, a := range rm.Actions {
		if a.Kind == ActionOutput {
			return i
		}
	}
	return -1
}

// CtID returns the value of the CT_ID option, and whether one is set.
func (rm *RouteMod) CtID() (int, bool) {
	for _, o := range rm.Options {
		if o.Kind == OptionCtID {
			return o.CtID, true
		}
	}
	return 0, false
}

// Type implements the message envelope's Type() contract.
func (rm *RouteMod) Type() MessageType { return MsgRouteMod }

func (rm *RouteMod) String() string {
	return fmt.Sprintf("RouteMod{mod=%s id=%d matches=%v options=%v actions=%v}",
		rm.Mod, rm.ID, rm.Matches, rm.Options, rm.Actions)
}

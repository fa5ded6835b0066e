// Package visibility resolves the effective publication state and access
// level of a category from its own values and its ancestor chain.
//
// Publication is inherited: a node is only effectively published when every
// node on the path to the root is published. Access is cumulative: the most
// restrictive level on the path wins.
package visibility

import "github.com/contentkit/finder/internal/model"

// Resolved is the outcome of resolving a node against its ancestors.
//
// OwnState and Suppressed are exposed separately so callers can tell "this
// item is archived" apart from "this item is hidden by an ancestor".
type Resolved struct {
	State      model.State
	Access     int
	OwnState   model.State
	Suppressed bool
}

// Resolve computes the effective state and access of a node.
//
// ancestorState and ancestorAccess are the already-resolved effective
// values of the node's parent. Pure computation, no failure modes.
func Resolve(own model.State, ownAccess int, ancestorState model.State, ancestorAccess int) Resolved {
	r := Resolved{
		OwnState: own,
		Access:   maxAccess(ownAccess, ancestorAccess),
	}

	switch own {
	case model.StateTrashed:
		// Terminal: the caller must remove the entry, never index it.
		r.State = model.StateTrashed
	case model.StateUnpublished:
		r.State = model.StateUnpublished
	case model.StatePublished, model.StateArchived:
		if ancestorState == model.StatePublished {
			r.State = own
		} else {
			r.State = model.StateUnpublished
			r.Suppressed = true
		}
	default:
		r.State = model.StateUnpublished
	}

	return r
}

// ResolveRoot resolves the designated root sentinel, which is always
// published regardless of its stored state.
func ResolveRoot(ownAccess int) Resolved {
	return Resolved{
		State:    model.StatePublished,
		OwnState: model.StatePublished,
		Access:   ownAccess,
	}
}

// ResolveChain folds Resolve over a chain of nodes ordered root first.
//
// Passing a node's ancestor chain yields the resolved ancestor values;
// appending the node itself yields the node's own resolution. The root
// sentinel, when present, is treated as always published.
func ResolveChain(chain []model.CategoryNode) Resolved {
	// Ancestors above the tree, or an empty chain, resolve as the root.
	current := ResolveRoot(0)

	for i := range chain {
		n := &chain[i]
		if n.IsRoot() {
			current = ResolveRoot(n.Access)
			continue
		}
		current = Resolve(n.State, n.Access, current.State, current.Access)
	}

	return current
}

// Translate applies a requested state change against the resolved state of
// the node's parent, returning the state that may actually take effect.
// A bulk publish cannot override suppression by an unpublished parent.
func Translate(requested model.State, ancestorState model.State) model.State {
	return Resolve(requested, 0, ancestorState, 0).State
}

func maxAccess(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package gas

import (
	"fmt"

	"golang.org/x/exp/slices"
)

// ConsumeOutput reports the outcome of a Consume call.
type ConsumeOutput struct {
	// Caught is the residual value released to the external origin by this
	// call. It is zero whenever an ancestor patron absorbed the value
	// instead.
	Caught Gas

	// Origin and Multiplier identify the funding actor and the conversion
	// rate of the consumed node's tree, letting the caller settle Caught.
	Origin     Origin
	Multiplier GasMultiplier

	// Removed lists the ids of all nodes removed by this call, the consumed
	// node included, in canonical order.
	Removed []NodeId

	// Remaining is a snapshot of the forest after the call.
	Remaining map[NodeId]GasNode
}

// consumeState accumulates the effects of one consumption cascade.
type consumeState struct {
	caught  Gas
	removed []NodeId
}

// Consume marks the given node as finished. Its residual value moves to the
// nearest ancestor patron, or is caught and released to the external origin
// if no patron remains. Nodes that became unreachable dead weight are removed
// bottom-up; a consumed ancestor whose last value-owning dependant vanished
// goes with them, cascading further up the tree.
//
// A node still holding locked gas or a system reservation cannot be
// consumed; release those first.
func (t *Tree) Consume(id NodeId) (*ConsumeOutput, error) {
	node, err := t.getNode(id)
	if err != nil {
		return nil, err
	}
	if node.isConsumed() {
		return nil, fmt.Errorf("%w: node %v", ErrNodeWasConsumed, id)
	}
	if lockTotal(node) != 0 {
		return nil, fmt.Errorf("%w: node %v holds %d locked", ErrConsumedWithLock, id, lockTotal(node))
	}
	if reserve := systemReserveOf(node); reserve != 0 {
		return nil, fmt.Errorf("%w: node %v reserves %d", ErrConsumedWithSystemReservation, id, reserve)
	}
	origin, multiplier, _, err := t.rootInfo(id, node)
	if err != nil {
		return nil, err
	}

	state := &consumeState{}
	switch node := node.(type) {
	case *CutNode:
		// Cut nodes are leaves with no dependants; consuming one releases
		// its value right away.
		state.caught = node.Value
		state.removed = append(state.removed, id)
		if err := t.nodes.RemoveNode(id); err != nil {
			return nil, err
		}
		if err := t.deductIssuance(state.caught); err != nil {
			return nil, err
		}

	case *UnspecifiedNode:
		state.removed = append(state.removed, id)
		if err := t.nodes.RemoveNode(id); err != nil {
			return nil, err
		}
		if err := t.releaseRef(node.ParentId, false); err != nil {
			return nil, err
		}
		if err := t.cascade(node.ParentId, state); err != nil {
			return nil, err
		}

	default:
		node.markConsumed()
		if err := t.catchValue(id, node, state); err != nil {
			return nil, err
		}
		if totalRefs(node) > 0 {
			// Dependants still draw on this node; it stays until the last
			// of them is gone.
			if err := t.nodes.SetNode(id, node); err != nil {
				return nil, err
			}
		} else {
			state.removed = append(state.removed, id)
			if err := t.nodes.RemoveNode(id); err != nil {
				return nil, err
			}
			switch node := node.(type) {
			case *SpecifiedNode:
				if err := t.releaseRef(node.ParentId, true); err != nil {
					return nil, err
				}
				if err := t.cascade(node.ParentId, state); err != nil {
					return nil, err
				}
			case *ReservedNode:
				if err := t.releaseRef(node.Donor, true); err != nil {
					return nil, err
				}
				if err := t.cascade(node.Donor, state); err != nil {
					return nil, err
				}
			}
		}
	}

	slices.SortFunc(state.removed, func(a, b NodeId) int { return a.Compare(b) })
	remaining, err := t.snapshot()
	if err != nil {
		return nil, err
	}
	return &ConsumeOutput{
		Caught:     state.caught,
		Origin:     origin,
		Multiplier: multiplier,
		Removed:    state.removed,
		Remaining:  remaining,
	}, nil
}

// catchValue disposes of a consumed node's residual value: while the node is
// still a patron the value stays in place; otherwise it moves to the nearest
// ancestor patron, or, if no patron remains on the path to the root, it is
// caught for the external origin and deducted from the issuance.
func (t *Tree) catchValue(id NodeId, node GasNode, state *consumeState) error {
	if isPatron(node) {
		return nil
	}
	value := node.value()
	if value == nil || *value == 0 {
		return nil
	}
	patronId, patron, err := t.ancestorPatron(id, node)
	if err != nil {
		return err
	}
	if patron != nil {
		*patron.value() = saturatingAdd(*patron.value(), *value)
		*value = 0
		return t.nodes.SetNode(patronId, patron)
	}
	state.caught += *value
	caught := *value
	*value = 0
	return t.deductIssuance(caught)
}

// ancestorPatron finds the nearest proper ancestor of the given node that is
// a patron, or nil if the root is reached without one.
func (t *Tree) ancestorPatron(id NodeId, node GasNode) (NodeId, GasNode, error) {
	for {
		parentId, ok := node.Parent()
		if !ok {
			return NodeId{}, nil, nil
		}
		parent, err := t.getParent(parentId)
		if err != nil {
			return NodeId{}, nil, err
		}
		if isPatron(parent) {
			return parentId, parent, nil
		}
		id, node = parentId, parent
	}
}

// cascade removes consumed, ref-free ancestors starting at the given id,
// following parent links for specified nodes and donor links for
// reservations. It stops at the first node that is a patron or still has
// value-owning dependants.
func (t *Tree) cascade(id NodeId, state *consumeState) error {
	for {
		node, err := t.nodes.GetNode(id)
		if err != nil {
			return err
		}
		if node == nil {
			return fmt.Errorf("%w: cascade reached missing node %v", ErrCorrupted, id)
		}
		if isPatron(node) {
			return nil
		}
		refs := node.childRefs()
		if refs == nil || !node.isConsumed() {
			return fmt.Errorf("%w: cascade reached unexpected node %v", ErrCorrupted, id)
		}
		if err := t.catchValue(id, node, state); err != nil {
			return err
		}
		if refs.Spec != 0 {
			return t.nodes.SetNode(id, node)
		}
		state.removed = append(state.removed, id)
		if err := t.nodes.RemoveNode(id); err != nil {
			return err
		}
		switch node := node.(type) {
		case *SpecifiedNode:
			if err := t.releaseRef(node.ParentId, true); err != nil {
				return err
			}
			id = node.ParentId
		case *ReservedNode:
			if err := t.releaseRef(node.Donor, true); err != nil {
				return err
			}
			id = node.Donor
		default:
			return nil
		}
	}
}

// releaseRef decrements one reference counter on the given node, the Spec
// counter when spec is set and the Unspec counter otherwise.
func (t *Tree) releaseRef(id NodeId, spec bool) error {
	node, err := t.getParent(id)
	if err != nil {
		return err
	}
	refs := node.childRefs()
	if refs == nil {
		return fmt.Errorf("%w: node %v cannot hold references", ErrCorrupted, id)
	}
	if spec {
		if refs.Spec == 0 {
			return fmt.Errorf("%w: spec ref underflow on node %v", ErrCorrupted, id)
		}
		refs.Spec--
	} else {
		if refs.Unspec == 0 {
			return fmt.Errorf("%w: unspec ref underflow on node %v", ErrCorrupted, id)
		}
		refs.Unspec--
	}
	return t.nodes.SetNode(id, node)
}

// deductIssuance removes caught value from the total issuance.
func (t *Tree) deductIssuance(amount Gas) error {
	issuance, err := t.nodes.TotalIssuance()
	if err != nil {
		return err
	}
	if issuance < amount {
		return fmt.Errorf("%w: issuance %d cannot cover caught %d", ErrCorrupted, issuance, amount)
	}
	return t.nodes.SetTotalIssuance(issuance - amount)
}

// snapshot copies the current forest content into a fresh map.
func (t *Tree) snapshot() (map[NodeId]GasNode, error) {
	res := map[NodeId]GasNode{}
	err := t.nodes.ForEachNode(func(id NodeId, node GasNode) error {
		res[id] = node.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

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
	"errors"
	"fmt"
)

// Check verifies the consistency of the entire forest. It walks every stored
// node and validates the structural rules the tree operations maintain:
//
//  - every local node has an existing, value-owning parent
//  - the address space of every id matches its node's kind
//  - cut and unspecified nodes are never stored as consumed
//  - consumed nodes keep neither locks nor system reservations, hold no
//    value unless unspecified children still draw on them, and are only
//    retained while dependants remain
//  - every reference counter matches a recount over children and
//    reservation donor links
//  - the gas held across all nodes does not exceed the total issuance
//
// All violations found are reported as one joined error. A nil result means
// the forest is consistent.
func (t *Tree) Check() error {
	nodes := map[NodeId]GasNode{}
	err := t.nodes.ForEachNode(func(id NodeId, node GasNode) error {
		nodes[id] = node
		return nil
	})
	if err != nil {
		return err
	}

	issues := []error{}
	counted := map[NodeId]ChildrenRefs{}
	var held Gas

	for id, node := range nodes {
		if id.IsReservation() != isReservedKind(node) {
			issues = append(issues, fmt.Errorf("node %v: id space does not match kind %v", id, node))
		}

		switch node := node.(type) {
		case *SpecifiedNode:
			refs := counted[node.ParentId]
			refs.Spec++
			counted[node.ParentId] = refs
		case *UnspecifiedNode:
			refs := counted[node.ParentId]
			refs.Unspec++
			counted[node.ParentId] = refs
		case *ReservedNode:
			refs := counted[node.Donor]
			refs.Spec++
			counted[node.Donor] = refs
		}

		if parentId, ok := node.Parent(); ok {
			parent, exists := nodes[parentId]
			if !exists {
				issues = append(issues, fmt.Errorf("node %v: parent %v is missing", id, parentId))
			} else if parent.value() == nil {
				issues = append(issues, fmt.Errorf("node %v: parent %v holds no value", id, parentId))
			}
		}

		switch node.(type) {
		case *CutNode, *UnspecifiedNode:
			if node.isConsumed() {
				issues = append(issues, fmt.Errorf("node %v: kind %v must not be stored consumed", id, node))
			}
		}

		if node.isConsumed() {
			if lockTotal(node) != 0 {
				issues = append(issues, fmt.Errorf("node %v: consumed but %d locked", id, lockTotal(node)))
			}
			if reserve := systemReserveOf(node); reserve != 0 {
				issues = append(issues, fmt.Errorf("node %v: consumed but %d system-reserved", id, reserve))
			}
			if totalRefs(node) == 0 {
				issues = append(issues, fmt.Errorf("node %v: consumed without dependants, should have been removed", id))
			}
		}

		if value := node.value(); value != nil {
			if _, isCut := node.(*CutNode); *value != 0 && !isCut && !isPatron(node) {
				issues = append(issues, fmt.Errorf("node %v: holds %d but is no patron", id, *value))
			}
			held = saturatingAdd(held, *value)
		}
		held = saturatingAdd(held, lockTotal(node))
		held = saturatingAdd(held, systemReserveOf(node))
	}

	for id, node := range nodes {
		want := counted[id]
		refs := node.childRefs()
		if refs == nil {
			if want.total() != 0 {
				issues = append(issues, fmt.Errorf("node %v: leaf kind has %d dependants", id, want.total()))
			}
			continue
		}
		if *refs != want {
			issues = append(issues, fmt.Errorf("node %v: stored refs %d/%d, recounted %d/%d",
				id, refs.Spec, refs.Unspec, want.Spec, want.Unspec))
		}
	}
	for id, refs := range counted {
		if _, exists := nodes[id]; !exists {
			issues = append(issues, fmt.Errorf("node %v: referenced by %d dependants but missing", id, refs.total()))
		}
	}

	issuance, err := t.nodes.TotalIssuance()
	if err != nil {
		return err
	}
	if held > issuance {
		issues = append(issues, fmt.Errorf("forest holds %d gas, exceeding total issuance %d", held, issuance))
	}

	return errors.Join(issues...)
}

func isReservedKind(node GasNode) bool {
	_, ok := node.(*ReservedNode)
	return ok
}

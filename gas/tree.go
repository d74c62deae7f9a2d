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
)

// Tree is the gas-accounting forest. It owns no state of its own; every
// operation is a read-modify-write cycle against the injected Storage.
//
// All operations return typed errors (see errors.go) and never panic on
// caller input. Errors wrapping ErrCorrupted indicate an inconsistent store
// and are not recoverable.
//
// Instances are not safe for concurrent use.
type Tree struct {
	nodes Storage
}

// NewTree creates a forest view on the given storage.
func NewTree(nodes Storage) *Tree {
	return &Tree{nodes: nodes}
}

// ----------------------------------------------------------------------------
//                              Construction
// ----------------------------------------------------------------------------

// Create starts a new tree rooted in an external node with the given funds.
// The root id must be in the message space and unused. The created amount is
// added to the total issuance.
func (t *Tree) Create(origin Origin, multiplier GasMultiplier, root NodeId, amount Gas) error {
	if !root.IsMessage() {
		return fmt.Errorf("%w: tree root %v must be a message id", ErrForbidden, root)
	}
	if err := t.checkAbsent(root); err != nil {
		return err
	}
	issuance, err := t.nodes.TotalIssuance()
	if err != nil {
		return err
	}
	node := &ExternalNode{
		Origin:     origin,
		Multiplier: multiplier,
		Value:      amount,
	}
	if err := t.nodes.SetNode(root, node); err != nil {
		return err
	}
	return t.nodes.SetTotalIssuance(saturatingAdd(issuance, amount))
}

// Split adds an unspecified child to the tree containing the given node. The
// child owns no value; it draws on the nearest value-bearing ancestor when
// spending. The new id must be in the message space and unused.
func (t *Tree) Split(id NodeId, child NodeId) error {
	if !child.IsMessage() {
		return fmt.Errorf("%w: child %v must be a message id", ErrForbidden, child)
	}
	parentId, parent, err := t.splitSource(id)
	if err != nil {
		return err
	}
	if err := t.checkAbsent(child); err != nil {
		return err
	}
	parent.childRefs().Unspec++
	if err := t.nodes.SetNode(parentId, parent); err != nil {
		return err
	}
	return t.nodes.SetNode(child, &UnspecifiedNode{ParentId: parentId})
}

// SplitWithValue adds a specified child to the tree containing the given
// node, endowing it with amount gas taken from the nearest value-bearing
// ancestor. The new id must be in the message space and unused.
func (t *Tree) SplitWithValue(id NodeId, child NodeId, amount Gas) error {
	if !child.IsMessage() {
		return fmt.Errorf("%w: child %v must be a message id", ErrForbidden, child)
	}
	parentId, parent, err := t.splitSource(id)
	if err != nil {
		return err
	}
	if err := t.checkAbsent(child); err != nil {
		return err
	}
	if *parent.value() < amount {
		return fmt.Errorf("%w: node %v holds %d, needs %d", ErrInsufficientBalance, parentId, *parent.value(), amount)
	}
	*parent.value() -= amount
	parent.childRefs().Spec++
	if err := t.nodes.SetNode(parentId, parent); err != nil {
		return err
	}
	return t.nodes.SetNode(child, &SpecifiedNode{ParentId: parentId, Value: amount})
}

// Cut severs amount gas from the tree containing the given node into a new
// independent root. The new root inherits the tree's origin and multiplier
// but keeps no link back; the donor's reference counters are untouched. The
// new id must be in the message space and unused.
func (t *Tree) Cut(id NodeId, newRoot NodeId, amount Gas) error {
	if !newRoot.IsMessage() {
		return fmt.Errorf("%w: cut root %v must be a message id", ErrForbidden, newRoot)
	}
	donorId, donor, err := t.splitSource(id)
	if err != nil {
		return err
	}
	if err := t.checkAbsent(newRoot); err != nil {
		return err
	}
	origin, multiplier, _, err := t.originOf(id)
	if err != nil {
		return err
	}
	if *donor.value() < amount {
		return fmt.Errorf("%w: node %v holds %d, needs %d", ErrInsufficientBalance, donorId, *donor.value(), amount)
	}
	*donor.value() -= amount
	if err := t.nodes.SetNode(donorId, donor); err != nil {
		return err
	}
	return t.nodes.SetNode(newRoot, &CutNode{
		Origin:     origin,
		Multiplier: multiplier,
		Value:      amount,
	})
}

// Reserve moves amount gas from the tree containing the given node into a
// new reservation root. The reservation inherits the tree's origin and
// multiplier and pins its donor node until the reservation is consumed. The
// donor id must be in the message space, the new id in the reservation space
// and unused.
func (t *Tree) Reserve(id NodeId, reservation NodeId, amount Gas) error {
	if !id.IsMessage() {
		return fmt.Errorf("%w: reservation donor %v must be a message id", ErrForbidden, id)
	}
	if !reservation.IsReservation() {
		return fmt.Errorf("%w: reservation %v must be a reservation id", ErrForbidden, reservation)
	}
	donorId, donor, err := t.splitSource(id)
	if err != nil {
		return err
	}
	if err := t.checkAbsent(reservation); err != nil {
		return err
	}
	origin, multiplier, _, err := t.originOf(id)
	if err != nil {
		return err
	}
	if *donor.value() < amount {
		return fmt.Errorf("%w: node %v holds %d, needs %d", ErrInsufficientBalance, donorId, *donor.value(), amount)
	}
	*donor.value() -= amount
	donor.childRefs().Spec++
	if err := t.nodes.SetNode(donorId, donor); err != nil {
		return err
	}
	return t.nodes.SetNode(reservation, &ReservedNode{
		Origin:     origin,
		Multiplier: multiplier,
		Donor:      donorId,
		Value:      amount,
	})
}

// splitSource resolves the node new dependants of id attach to: id's nearest
// value-bearing ancestor, or id itself if it holds value. It rejects missing,
// consumed, and cut nodes.
func (t *Tree) splitSource(id NodeId) (NodeId, GasNode, error) {
	node, err := t.getNode(id)
	if err != nil {
		return NodeId{}, nil, err
	}
	if _, ok := node.(*CutNode); ok {
		return NodeId{}, nil, fmt.Errorf("%w: cut node %v cannot gain dependants", ErrForbidden, id)
	}
	if node.isConsumed() {
		return NodeId{}, nil, fmt.Errorf("%w: node %v", ErrNodeWasConsumed, id)
	}
	return t.valueAncestor(id, node)
}

// ----------------------------------------------------------------------------
//                                 Value
// ----------------------------------------------------------------------------

// Spend burns amount gas from the nearest value-bearing ancestor of the
// given node. Spending does not change the total issuance; the burned amount
// is settled by the caller. Reservation nodes cannot spend.
func (t *Tree) Spend(id NodeId, amount Gas) error {
	if !id.IsMessage() {
		return fmt.Errorf("%w: cannot spend from reservation %v", ErrForbidden, id)
	}
	node, err := t.getNode(id)
	if err != nil {
		return err
	}
	holderId, holder, err := t.valueAncestor(id, node)
	if err != nil {
		return err
	}
	if *holder.value() < amount {
		return fmt.Errorf("%w: node %v holds %d, needs %d", ErrInsufficientBalance, holderId, *holder.value(), amount)
	}
	*holder.value() -= amount
	return t.nodes.SetNode(holderId, holder)
}

// GetLimit returns the gas available to the given node: the balance of its
// nearest value-bearing ancestor (or its own, if it holds value).
func (t *Tree) GetLimit(id NodeId) (Gas, error) {
	_, holder, err := t.GetLimitNode(id)
	if err != nil {
		return 0, err
	}
	return *holder.value(), nil
}

// GetLimitNode returns the node whose balance backs the given node, together
// with its id.
func (t *Tree) GetLimitNode(id NodeId) (NodeId, GasNode, error) {
	node, err := t.getNode(id)
	if err != nil {
		return NodeId{}, nil, err
	}
	return t.valueAncestor(id, node)
}

// GetOriginNode returns the root of the tree containing the given node,
// together with its id. For cut and reserved nodes that is the node itself.
func (t *Tree) GetOriginNode(id NodeId) (NodeId, GasNode, error) {
	node, err := t.getNode(id)
	if err != nil {
		return NodeId{}, nil, err
	}
	return t.rootOf(id, node)
}

// GetOriginKey returns the id of the root of the tree containing the given
// node.
func (t *Tree) GetOriginKey(id NodeId) (NodeId, error) {
	rootId, _, err := t.GetOriginNode(id)
	return rootId, err
}

// GetExternal returns the external origin and the multiplier of the tree
// containing the given node.
func (t *Tree) GetExternal(id NodeId) (Origin, GasMultiplier, error) {
	node, err := t.getNode(id)
	if err != nil {
		return Origin{}, GasMultiplier{}, err
	}
	origin, multiplier, _, err := t.rootInfo(id, node)
	return origin, multiplier, err
}

// Exists reports whether the forest contains a node with the given id.
func (t *Tree) Exists(id NodeId) (bool, error) {
	node, err := t.nodes.GetNode(id)
	if err != nil {
		return false, err
	}
	return node != nil, nil
}

// TotalSupply returns the total amount of gas issued across all trees.
func (t *Tree) TotalSupply() (Gas, error) {
	return t.nodes.TotalIssuance()
}

// ----------------------------------------------------------------------------
//                                 Locks
// ----------------------------------------------------------------------------

// Lock moves amount gas from the node's balance into its lock table under
// the given lock purpose. A node with locked gas cannot be consumed.
func (t *Tree) Lock(id NodeId, lock LockId, amount Gas) error {
	if lock >= numLockIds {
		return fmt.Errorf("%w: unknown lock id %d", ErrForbidden, lock)
	}
	node, err := t.getNode(id)
	if err != nil {
		return err
	}
	table := node.lockTable()
	if table == nil {
		return fmt.Errorf("%w: node %v cannot hold locks", ErrForbidden, id)
	}
	if node.isConsumed() {
		return fmt.Errorf("%w: node %v", ErrNodeWasConsumed, id)
	}
	if *node.value() < amount {
		return fmt.Errorf("%w: node %v holds %d, needs %d", ErrInsufficientBalance, id, *node.value(), amount)
	}
	*node.value() -= amount
	table[lock] = saturatingAdd(table[lock], amount)
	return t.nodes.SetNode(id, node)
}

// Unlock moves amount gas back from the node's lock table into its balance.
func (t *Tree) Unlock(id NodeId, lock LockId, amount Gas) error {
	if lock >= numLockIds {
		return fmt.Errorf("%w: unknown lock id %d", ErrForbidden, lock)
	}
	node, err := t.getNode(id)
	if err != nil {
		return err
	}
	table := node.lockTable()
	if table == nil {
		return fmt.Errorf("%w: node %v cannot hold locks", ErrForbidden, id)
	}
	if table[lock] < amount {
		return fmt.Errorf("%w: lock %v on node %v holds %d, needs %d", ErrInsufficientBalance, lock, id, table[lock], amount)
	}
	table[lock] -= amount
	*node.value() = saturatingAdd(*node.value(), amount)
	return t.nodes.SetNode(id, node)
}

// UnlockAll releases the full amount held under the given lock purpose and
// returns it.
func (t *Tree) UnlockAll(id NodeId, lock LockId) (Gas, error) {
	amount, err := t.GetLock(id, lock)
	if err != nil {
		return 0, err
	}
	if err := t.Unlock(id, lock, amount); err != nil {
		return 0, err
	}
	return amount, nil
}

// GetLock returns the amount held on the node under the given lock purpose.
func (t *Tree) GetLock(id NodeId, lock LockId) (Gas, error) {
	if lock >= numLockIds {
		return 0, fmt.Errorf("%w: unknown lock id %d", ErrForbidden, lock)
	}
	node, err := t.getNode(id)
	if err != nil {
		return 0, err
	}
	table := node.lockTable()
	if table == nil {
		return 0, fmt.Errorf("%w: node %v cannot hold locks", ErrForbidden, id)
	}
	return table[lock], nil
}

// ----------------------------------------------------------------------------
//                            System reservation
// ----------------------------------------------------------------------------

// SystemReserve moves amount gas from the node's balance into its system
// reservation, backing runtime-initiated messages. A node with a system
// reservation cannot be consumed. Only message-space nodes of the external,
// reserved, and specified kinds can hold one.
func (t *Tree) SystemReserve(id NodeId, amount Gas) error {
	if !id.IsMessage() {
		return fmt.Errorf("%w: cannot system-reserve on reservation %v", ErrForbidden, id)
	}
	node, err := t.getNode(id)
	if err != nil {
		return err
	}
	reserve := node.systemReserve()
	if reserve == nil {
		return fmt.Errorf("%w: node %v cannot hold a system reservation", ErrForbidden, id)
	}
	if node.isConsumed() {
		return fmt.Errorf("%w: node %v", ErrNodeWasConsumed, id)
	}
	if *node.value() < amount {
		return fmt.Errorf("%w: node %v holds %d, needs %d", ErrInsufficientBalance, id, *node.value(), amount)
	}
	*node.value() -= amount
	*reserve = saturatingAdd(*reserve, amount)
	return t.nodes.SetNode(id, node)
}

// SystemUnreserve releases the node's full system reservation back into its
// balance and returns the released amount.
func (t *Tree) SystemUnreserve(id NodeId) (Gas, error) {
	if !id.IsMessage() {
		return 0, fmt.Errorf("%w: cannot system-unreserve on reservation %v", ErrForbidden, id)
	}
	node, err := t.getNode(id)
	if err != nil {
		return 0, err
	}
	reserve := node.systemReserve()
	if reserve == nil {
		return 0, fmt.Errorf("%w: node %v cannot hold a system reservation", ErrForbidden, id)
	}
	amount := *reserve
	*reserve = 0
	*node.value() = saturatingAdd(*node.value(), amount)
	if err := t.nodes.SetNode(id, node); err != nil {
		return 0, err
	}
	return amount, nil
}

// GetSystemReserve returns the node's current system reservation.
func (t *Tree) GetSystemReserve(id NodeId) (Gas, error) {
	node, err := t.getNode(id)
	if err != nil {
		return 0, err
	}
	reserve := node.systemReserve()
	if reserve == nil {
		return 0, fmt.Errorf("%w: node %v cannot hold a system reservation", ErrForbidden, id)
	}
	return *reserve, nil
}

// ----------------------------------------------------------------------------
//                                Internals
// ----------------------------------------------------------------------------

// getNode fetches a node, turning absence into ErrNodeNotFound.
func (t *Tree) getNode(id NodeId) (GasNode, error) {
	node, err := t.nodes.GetNode(id)
	if err != nil {
		return nil, err
	}
	if node == nil {
		return nil, fmt.Errorf("%w: %v", ErrNodeNotFound, id)
	}
	return node, nil
}

// getParent fetches the parent of a node; a missing parent is a corruption.
func (t *Tree) getParent(id NodeId) (GasNode, error) {
	node, err := t.nodes.GetNode(id)
	if err != nil {
		return nil, err
	}
	if node == nil {
		return nil, fmt.Errorf("%w: parent node %v is missing", ErrCorrupted, id)
	}
	return node, nil
}

// checkAbsent verifies that no node with the given id exists yet.
func (t *Tree) checkAbsent(id NodeId) error {
	node, err := t.nodes.GetNode(id)
	if err != nil {
		return err
	}
	if node != nil {
		return fmt.Errorf("%w: %v", ErrNodeAlreadyExists, id)
	}
	return nil
}

// valueAncestor resolves the node backing the given node's value: the node
// itself if it owns value, otherwise its parent, which a well-formed forest
// guarantees to own value.
func (t *Tree) valueAncestor(id NodeId, node GasNode) (NodeId, GasNode, error) {
	if node.value() != nil {
		return id, node, nil
	}
	parentId, ok := node.Parent()
	if !ok {
		return NodeId{}, nil, fmt.Errorf("%w: value-less node %v has no parent", ErrCorrupted, id)
	}
	parent, err := t.getParent(parentId)
	if err != nil {
		return NodeId{}, nil, err
	}
	if parent.value() == nil {
		return NodeId{}, nil, fmt.Errorf("%w: parent %v of %v holds no value", ErrCorrupted, parentId, id)
	}
	return parentId, parent, nil
}

// rootOf walks the parent chain up to the root of the tree containing the
// given node.
func (t *Tree) rootOf(id NodeId, node GasNode) (NodeId, GasNode, error) {
	for {
		parentId, ok := node.Parent()
		if !ok {
			return id, node, nil
		}
		parent, err := t.getParent(parentId)
		if err != nil {
			return NodeId{}, nil, err
		}
		id, node = parentId, parent
	}
}

// rootInfo resolves origin, multiplier, and root id of the tree containing
// the given node.
func (t *Tree) rootInfo(id NodeId, node GasNode) (Origin, GasMultiplier, NodeId, error) {
	rootId, root, err := t.rootOf(id, node)
	if err != nil {
		return Origin{}, GasMultiplier{}, NodeId{}, err
	}
	switch root := root.(type) {
	case *ExternalNode:
		return root.Origin, root.Multiplier, rootId, nil
	case *CutNode:
		return root.Origin, root.Multiplier, rootId, nil
	case *ReservedNode:
		return root.Origin, root.Multiplier, rootId, nil
	}
	return Origin{}, GasMultiplier{}, NodeId{}, fmt.Errorf("%w: root %v is a non-root kind %v", ErrCorrupted, rootId, root)
}

// originOf is rootInfo starting from an id.
func (t *Tree) originOf(id NodeId) (Origin, GasMultiplier, NodeId, error) {
	node, err := t.getNode(id)
	if err != nil {
		return Origin{}, GasMultiplier{}, NodeId{}, err
	}
	return t.rootInfo(id, node)
}

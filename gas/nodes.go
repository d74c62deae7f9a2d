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
	"math"
)

// This file defines the value types and node kinds making up a gas forest.
// There are five different kinds of nodes:
//
//  - external nodes    ... tree roots funded directly by an off-chain actor,
//                          carrying the gas/value conversion rate for the
//                          whole tree
//  - cut nodes         ... independent roots created by Cut; they behave
//                          like miniature external nodes but are always
//                          leaves and never gain dependants
//  - reserved nodes    ... independent roots created by Reserve, addressed
//                          in the reservation id space and pinning their
//                          donor node until the reservation is consumed
//  - specified nodes   ... non-root nodes created by SplitWithValue, owning
//                          a sub-value independent of their ancestors
//  - unspecified nodes ... non-root, value-less leaves created by Split,
//                          drawing on the nearest value-bearing ancestor
//                          whenever they need to spend
//
// Nodes are plain data; all tree semantics live in Tree. The GasNode union
// is sealed by its unexported accessors, so kind dispatches within this
// package can be exhaustive.

// Gas is a quantity of the metered resource tracked by gas forests.
type Gas uint64

// Origin is the 32-byte address of the off-chain actor that funded a gas
// tree. It is recorded at tree roots and reported back to the runtime
// whenever residual value is caught.
type Origin [32]byte

// LockId identifies the purpose of one entry in a node's lock table.
type LockId byte

const (
	// Mailbox is the lock held while a message rests in a user's mailbox.
	Mailbox LockId = iota
	// Waitlist is the lock covering rent of messages parked in the waitlist.
	Waitlist
	// Reservation is the lock backing an outstanding gas reservation.
	Reservation
	// DispatchStash is the lock held for delayed message dispatches.
	DispatchStash

	numLockIds
)

func (id LockId) String() string {
	switch id {
	case Mailbox:
		return "mailbox"
	case Waitlist:
		return "waitlist"
	case Reservation:
		return "reservation"
	case DispatchStash:
		return "dispatch-stash"
	}
	return fmt.Sprintf("lock-%d", byte(id))
}

// NodeLock is the per-purpose table of amounts locked on a single node.
// Locked amounts are moved out of the node's balance and earmarked for one
// purpose; while any entry is non-zero the node cannot be consumed.
type NodeLock [numLockIds]Gas

// Total returns the sum of all lock entries.
func (l *NodeLock) Total() Gas {
	var sum Gas
	for _, amount := range l {
		sum += amount
	}
	return sum
}

// ChildrenRefs counts the dependants of a node that keep it from being
// removed after consumption.
type ChildrenRefs struct {
	// Spec is the number of value-owning dependants: children created by
	// SplitWithValue and reservations whose value was drawn from this node.
	Spec uint32
	// Unspec is the number of unspecified children relying on this node as
	// their value source.
	Unspec uint32
}

func (r ChildrenRefs) total() uint32 {
	return r.Spec + r.Unspec
}

// GasNode is one accounting entry of a gas forest.
//
// All nodes implement the common interface defined below. Exported methods
// give read access to the tree shape; mutation is reserved to the Tree
// operations in this package. Storage implementations must treat nodes as
// values and hand out defensive copies (see Clone).
type GasNode interface {
	// Parent returns the id of the node's parent and true, or false for
	// roots. Every non-root node has exactly one parent, fixed at creation
	// and never reassigned.
	Parent() (NodeId, bool)

	// Clone returns a deep copy of the node.
	Clone() GasNode

	// String returns a short, human-readable description of the node.
	String() string

	// value points to the balance owned by the node, or is nil for the
	// unspecified kind, which owns no value of its own.
	value() *Gas

	// lockTable points to the node's lock table, or is nil for the
	// unspecified kind, which never carries locks.
	lockTable() *NodeLock

	// systemReserve points to the node's system reservation, or is nil for
	// kinds that cannot fund system messages (cut, unspecified).
	systemReserve() *Gas

	// childRefs points to the node's dependant counters, or is nil for
	// kinds that are always leaves (cut, unspecified).
	childRefs() *ChildrenRefs

	// isConsumed reports whether Consume has been called on the node.
	isConsumed() bool

	// markConsumed sets the consumed flag. It reports false for the
	// unspecified kind, which never retains the flag.
	markConsumed() bool
}

// ----------------------------------------------------------------------------
//                               External
// ----------------------------------------------------------------------------

// ExternalNode is a tree root funded directly by an off-chain actor.
type ExternalNode struct {
	Origin        Origin
	Multiplier    GasMultiplier
	Value         Gas
	Lock          NodeLock
	SystemReserve Gas
	Refs          ChildrenRefs
	Consumed      bool
}

func (n *ExternalNode) Parent() (NodeId, bool) { return NodeId{}, false }

func (n *ExternalNode) Clone() GasNode {
	copy := *n
	return &copy
}

func (n *ExternalNode) String() string {
	return fmt.Sprintf("external{value: %d, refs: %d/%d, consumed: %t}",
		n.Value, n.Refs.Spec, n.Refs.Unspec, n.Consumed)
}

func (n *ExternalNode) value() *Gas              { return &n.Value }
func (n *ExternalNode) lockTable() *NodeLock     { return &n.Lock }
func (n *ExternalNode) systemReserve() *Gas      { return &n.SystemReserve }
func (n *ExternalNode) childRefs() *ChildrenRefs { return &n.Refs }
func (n *ExternalNode) isConsumed() bool         { return n.Consumed }

func (n *ExternalNode) markConsumed() bool {
	n.Consumed = true
	return true
}

// ----------------------------------------------------------------------------
//                                  Cut
// ----------------------------------------------------------------------------

// CutNode is an independent root created by Cut. It inherits origin and
// multiplier from the donor tree, is always a leaf, and never gains
// dependants; its first Consume removes it together with its value.
type CutNode struct {
	Origin     Origin
	Multiplier GasMultiplier
	Value      Gas
	Lock       NodeLock
	// Consumed is never persisted as true; a cut node is removed by the
	// same Consume call that sets it.
	Consumed bool
}

func (n *CutNode) Parent() (NodeId, bool) { return NodeId{}, false }

func (n *CutNode) Clone() GasNode {
	copy := *n
	return &copy
}

func (n *CutNode) String() string {
	return fmt.Sprintf("cut{value: %d}", n.Value)
}

func (n *CutNode) value() *Gas              { return &n.Value }
func (n *CutNode) lockTable() *NodeLock     { return &n.Lock }
func (n *CutNode) systemReserve() *Gas      { return nil }
func (n *CutNode) childRefs() *ChildrenRefs { return nil }
func (n *CutNode) isConsumed() bool         { return n.Consumed }

func (n *CutNode) markConsumed() bool {
	n.Consumed = true
	return true
}

// ----------------------------------------------------------------------------
//                                Reserved
// ----------------------------------------------------------------------------

// ReservedNode is an independent root created by Reserve, addressed in the
// reservation id space.
type ReservedNode struct {
	Origin     Origin
	Multiplier GasMultiplier
	// Donor is the node whose Spec ref this reservation holds. It is not a
	// parent: upward walks never follow it. It is only used to release the
	// ref once the reservation is removed.
	Donor         NodeId
	Value         Gas
	Lock          NodeLock
	SystemReserve Gas
	Refs          ChildrenRefs
	Consumed      bool
}

func (n *ReservedNode) Parent() (NodeId, bool) { return NodeId{}, false }

func (n *ReservedNode) Clone() GasNode {
	copy := *n
	return &copy
}

func (n *ReservedNode) String() string {
	return fmt.Sprintf("reserved{value: %d, donor: %v, refs: %d/%d, consumed: %t}",
		n.Value, n.Donor, n.Refs.Spec, n.Refs.Unspec, n.Consumed)
}

func (n *ReservedNode) value() *Gas              { return &n.Value }
func (n *ReservedNode) lockTable() *NodeLock     { return &n.Lock }
func (n *ReservedNode) systemReserve() *Gas      { return &n.SystemReserve }
func (n *ReservedNode) childRefs() *ChildrenRefs { return &n.Refs }
func (n *ReservedNode) isConsumed() bool         { return n.Consumed }

func (n *ReservedNode) markConsumed() bool {
	n.Consumed = true
	return true
}

// ----------------------------------------------------------------------------
//                               Specified
// ----------------------------------------------------------------------------

// SpecifiedNode is a non-root node created by SplitWithValue, owning a
// sub-value independent of its ancestors.
type SpecifiedNode struct {
	ParentId      NodeId
	Value         Gas
	Lock          NodeLock
	SystemReserve Gas
	Refs          ChildrenRefs
	Consumed      bool
}

func (n *SpecifiedNode) Parent() (NodeId, bool) { return n.ParentId, true }

func (n *SpecifiedNode) Clone() GasNode {
	copy := *n
	return &copy
}

func (n *SpecifiedNode) String() string {
	return fmt.Sprintf("specified{value: %d, parent: %v, refs: %d/%d, consumed: %t}",
		n.Value, n.ParentId, n.Refs.Spec, n.Refs.Unspec, n.Consumed)
}

func (n *SpecifiedNode) value() *Gas              { return &n.Value }
func (n *SpecifiedNode) lockTable() *NodeLock     { return &n.Lock }
func (n *SpecifiedNode) systemReserve() *Gas      { return &n.SystemReserve }
func (n *SpecifiedNode) childRefs() *ChildrenRefs { return &n.Refs }
func (n *SpecifiedNode) isConsumed() bool         { return n.Consumed }

func (n *SpecifiedNode) markConsumed() bool {
	n.Consumed = true
	return true
}

// ----------------------------------------------------------------------------
//                              Unspecified
// ----------------------------------------------------------------------------

// UnspecifiedNode is a non-root, childless node created by Split. It owns no
// value of its own; whenever it needs to spend, it draws on the nearest
// value-bearing ancestor. It is always a leaf and never carries locks,
// reservations, or the consumed flag.
type UnspecifiedNode struct {
	ParentId NodeId
}

func (n *UnspecifiedNode) Parent() (NodeId, bool) { return n.ParentId, true }

func (n *UnspecifiedNode) Clone() GasNode {
	copy := *n
	return &copy
}

func (n *UnspecifiedNode) String() string {
	return fmt.Sprintf("unspecified{parent: %v}", n.ParentId)
}

func (n *UnspecifiedNode) value() *Gas              { return nil }
func (n *UnspecifiedNode) lockTable() *NodeLock     { return nil }
func (n *UnspecifiedNode) systemReserve() *Gas      { return nil }
func (n *UnspecifiedNode) childRefs() *ChildrenRefs { return nil }
func (n *UnspecifiedNode) isConsumed() bool         { return false }
func (n *UnspecifiedNode) markConsumed() bool       { return false }

// ----------------------------------------------------------------------------
//                               Utilities
// ----------------------------------------------------------------------------

// isPatron reports whether the node's value must stay in place because other
// nodes may still rely on it: a value-owning node is a patron while it has
// not been consumed, or while unspecified children still draw on it. Cut
// nodes are never patrons.
func isPatron(node GasNode) bool {
	switch node.(type) {
	case *ExternalNode, *ReservedNode, *SpecifiedNode:
		return !node.isConsumed() || node.childRefs().Unspec > 0
	}
	return false
}

// totalRefs returns the total number of dependants of the node.
func totalRefs(node GasNode) uint32 {
	if refs := node.childRefs(); refs != nil {
		return refs.total()
	}
	return 0
}

// lockTotal returns the total amount locked on the node.
func lockTotal(node GasNode) Gas {
	if lock := node.lockTable(); lock != nil {
		return lock.Total()
	}
	return 0
}

// systemReserveOf returns the node's system reservation, or zero for kinds
// without one.
func systemReserveOf(node GasNode) Gas {
	if reserve := node.systemReserve(); reserve != nil {
		return *reserve
	}
	return 0
}

// saturatingAdd adds two gas amounts, capping at the maximum representable
// value instead of wrapping around.
func saturatingAdd(a, b Gas) Gas {
	if sum := a + b; sum >= a {
		return sum
	}
	return Gas(math.MaxUint64)
}

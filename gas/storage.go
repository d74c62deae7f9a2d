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

//go:generate mockgen -source storage.go -destination storage_mocks.go -package gas

// Storage is the persistence collaborator of a gas forest. It maps node ids
// to nodes and keeps the total-issuance counter. The Tree performs all
// mutations as read-modify-write cycles against this interface.
//
// Implementations must hand out and accept defensive copies: a node obtained
// from GetNode is owned by the caller, and a node passed to SetNode must not
// retain aliasing with the store's internal state.
type Storage interface {
	// GetNode retrieves the node with the given id, or nil without an error
	// if the store holds no such node.
	GetNode(id NodeId) (GasNode, error)

	// SetNode inserts or replaces the node with the given id.
	SetNode(id NodeId, node GasNode) error

	// RemoveNode deletes the node with the given id. Removing an absent
	// node is a no-op.
	RemoveNode(id NodeId) error

	// ForEachNode calls visit for every node in the store, in the canonical
	// order defined by NodeId.Compare. An error returned by visit aborts
	// the iteration and is passed through.
	ForEachNode(visit func(NodeId, GasNode) error) error

	// TotalIssuance returns the total amount of gas issued across all trees
	// of the forest.
	TotalIssuance() (Gas, error)

	// SetTotalIssuance replaces the total-issuance counter.
	SetTotalIssuance(total Gas) error
}

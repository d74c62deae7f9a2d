// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package gas provides the gas-accounting forest of an asynchronous message
// runtime. Gas funded by an external actor forms a tree: processing a
// message may split off child messages, cut out independent portions, or
// reserve gas for later, each step tracked as a node. Consuming a node
// returns its unused gas up the tree, and once a whole tree is dead the
// residue is caught and released back to the funding actor.
//
// The central type is Tree, a deterministic state machine over an injected
// Storage backend. Two backends ship with the package: gas/memory (a map,
// for tests and single-node runs) and gas/ldb (LevelDB).
//
// Main concepts:
//
//   - NodeId       ... a node address, tagged with one of two id spaces
//   - GasNode      ... one accounting entry, in one of five kinds
//   - Storage      ... the persistence collaborator
//   - Tree         ... the operations: create, split, cut, reserve, spend,
//     lock, system-reserve, consume
//
// Tree.Check verifies the structural invariants of a stored forest and is
// the reference statement of what the operations maintain.
package gas

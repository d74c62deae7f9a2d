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
	"bytes"
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// NodeIndex is the raw 32-byte identifier of a node within one of the two
// address spaces of a gas forest. Indexes are assigned by the surrounding
// runtime (message ids for ordinary nodes, reservation ids for gas
// reservations) and are opaque to the tree logic.
type NodeIndex [32]byte

// idSpace distinguishes the two disjoint address spaces nodes may live in.
type idSpace byte

const (
	messageSpace     idSpace = 0
	reservationSpace idSpace = 1
)

// NodeIdSize is the length of the serialized form of a NodeId: one space
// tag byte followed by the 32-byte index.
const NodeIdSize = 33

// NodeId is used to address nodes within gas forests. Each NodeId combines
// the address space of the node it names with a 32-byte index within that
// space. The space restricts which node kinds the id may name: ordinary
// message-flow nodes live in the message space, gas-reservation roots in
// the reservation space. Operations that only make sense for ordinary
// nodes (spending, system reservations) reject reservation-space ids.
//
// NodeIds are plain comparable values and can be used as map keys.
type NodeId struct {
	space idSpace
	index NodeIndex
}

// MessageId returns the NodeId addressing the ordinary message-flow node
// with the given index.
func MessageId(index NodeIndex) NodeId {
	return NodeId{space: messageSpace, index: index}
}

// ReservationId returns the NodeId addressing the gas-reservation node with
// the given index.
func ReservationId(index NodeIndex) NodeId {
	return NodeId{space: reservationSpace, index: index}
}

// IsMessage is true if the id addresses an ordinary message-flow node.
func (n NodeId) IsMessage() bool {
	return n.space == messageSpace
}

// IsReservation is true if the id addresses a gas-reservation node.
func (n NodeId) IsReservation() bool {
	return n.space == reservationSpace
}

// Index returns the raw index of the id within its address space.
func (n NodeId) Index() NodeIndex {
	return n.index
}

// Bytes returns the canonical serialized form of the id: the space tag
// followed by the index.
func (n NodeId) Bytes() [NodeIdSize]byte {
	var res [NodeIdSize]byte
	res[0] = byte(n.space)
	copy(res[1:], n.index[:])
	return res
}

// NodeIdFromBytes restores a NodeId from its serialized form as produced by
// Bytes.
func NodeIdFromBytes(data []byte) (NodeId, error) {
	if len(data) != NodeIdSize {
		return NodeId{}, fmt.Errorf("invalid node id length %d, wanted %d", len(data), NodeIdSize)
	}
	space := idSpace(data[0])
	if space != messageSpace && space != reservationSpace {
		return NodeId{}, fmt.Errorf("invalid node id space tag %d", data[0])
	}
	res := NodeId{space: space}
	copy(res.index[:], data[1:])
	return res, nil
}

// Compare defines a total order on NodeIds: first by address space, then
// lexicographically by index. It is the canonical iteration order of node
// stores.
func (n NodeId) Compare(other NodeId) int {
	if n.space != other.space {
		if n.space < other.space {
			return -1
		}
		return 1
	}
	return bytes.Compare(n.index[:], other.index[:])
}

func (n NodeId) String() string {
	if n.IsReservation() {
		return fmt.Sprintf("reservation:%x", n.index[:4])
	}
	return fmt.Sprintf("message:%x", n.index[:4])
}

// DeriveChildId derives the id of the nonce-th message-flow node produced
// while processing the node addressed by parent. The derivation hashes the
// parent id together with the nonce, giving runtimes a deterministic,
// collision-resistant id schema for outgoing messages.
func DeriveChildId(parent NodeId, nonce uint32) NodeId {
	return NodeId{space: messageSpace, index: deriveIndex(parent, nonce, messageSpace)}
}

// DeriveReservationId derives the id for the nonce-th gas reservation made
// while processing the node addressed by parent.
func DeriveReservationId(parent NodeId, nonce uint32) NodeId {
	return NodeId{space: reservationSpace, index: deriveIndex(parent, nonce, reservationSpace)}
}

// deriveIndex hashes the parent id, the nonce, and the target address space.
// The space is part of the image to keep child and reservation ids disjoint
// even for equal nonces.
func deriveIndex(parent NodeId, nonce uint32, space idSpace) NodeIndex {
	var data [NodeIdSize + 5]byte
	id := parent.Bytes()
	copy(data[:], id[:])
	binary.LittleEndian.PutUint32(data[NodeIdSize:], nonce)
	data[NodeIdSize+4] = byte(space)
	return blake2b.Sum256(data[:])
}

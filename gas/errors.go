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

import "github.com/Fantom-foundation/GasTree/go/common"

const (
	// ErrNodeNotFound is returned when an operation names a node the forest
	// does not contain.
	ErrNodeNotFound = common.ConstError("gas node not found")

	// ErrNodeAlreadyExists is returned when a creation operation would
	// overwrite an existing node.
	ErrNodeAlreadyExists = common.ConstError("gas node already exists")

	// ErrNodeWasConsumed is returned when an operation targets a node that
	// was already consumed.
	ErrNodeWasConsumed = common.ConstError("gas node was already consumed")

	// ErrConsumedWithLock is returned when consuming a node that still holds
	// locked gas.
	ErrConsumedWithLock = common.ConstError("gas node is locked")

	// ErrConsumedWithSystemReservation is returned when consuming a node
	// that still holds a system reservation.
	ErrConsumedWithSystemReservation = common.ConstError("gas node has a system reservation")

	// ErrInsufficientBalance is returned when a node's balance cannot cover
	// the requested amount.
	ErrInsufficientBalance = common.ConstError("insufficient gas balance")

	// ErrForbidden is returned when an operation is not applicable to the
	// targeted node kind or address space.
	ErrForbidden = common.ConstError("operation forbidden for this node")

	// ErrCorrupted indicates an inconsistency in the stored forest, for
	// instance a missing parent or a broken reference counter. Errors
	// wrapping it are not recoverable by the caller.
	ErrCorrupted = common.ConstError("corrupted gas forest")
)

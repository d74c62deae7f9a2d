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

import "fmt"

// GasMultiplier is the conversion rate between gas and the runtime's value
// unit, fixed per tree at creation time. The tree records and reports the
// rate but never interprets it; conversions are offered as a convenience to
// callers settling caught value.
type GasMultiplier struct {
	valuePerGas uint64
}

// ValuePerGas returns the multiplier converting one unit of gas into rate
// units of value.
func ValuePerGas(rate uint64) GasMultiplier {
	return GasMultiplier{valuePerGas: rate}
}

// Rate returns the value-per-gas conversion rate.
func (m GasMultiplier) Rate() uint64 {
	return m.valuePerGas
}

// GasToValue converts a gas amount into value units.
func (m GasMultiplier) GasToValue(amount Gas) uint64 {
	return uint64(amount) * m.valuePerGas
}

// ValueToGas converts a value amount into gas units, rounding down. A zero
// rate converts everything to zero gas.
func (m GasMultiplier) ValueToGas(value uint64) Gas {
	if m.valuePerGas == 0 {
		return 0
	}
	return Gas(value / m.valuePerGas)
}

func (m GasMultiplier) String() string {
	return fmt.Sprintf("%d value/gas", m.valuePerGas)
}

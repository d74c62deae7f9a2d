// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package gas_test

import (
	"errors"
	"testing"

	"golang.org/x/exp/slices"

	"github.com/Fantom-foundation/GasTree/go/gas"
	"github.com/Fantom-foundation/GasTree/go/gas/memory"
)

func wantRemoved(t *testing.T, output *gas.ConsumeOutput, want ...gas.NodeId) {
	t.Helper()
	slices.SortFunc(want, func(a, b gas.NodeId) int { return a.Compare(b) })
	if !slices.Equal(output.Removed, want) {
		t.Errorf("removed %v, wanted %v", output.Removed, want)
	}
}

func TestConsume_LoneRootReleasesEverything(t *testing.T) {
	tree := newTestTree(t)
	if err := tree.Create(testOrigin, testMultiplier, msg(1), 1000); err != nil {
		t.Fatalf("failed to create tree: %v", err)
	}
	if err := tree.Spend(msg(1), 300); err != nil {
		t.Fatalf("failed to spend: %v", err)
	}

	output, err := tree.Consume(msg(1))
	if err != nil {
		t.Fatalf("failed to consume root: %v", err)
	}
	if output.Caught != 700 {
		t.Errorf("caught %d, wanted 700", output.Caught)
	}
	if output.Origin != testOrigin || output.Multiplier != testMultiplier {
		t.Errorf("wrong settlement info: %v %v", output.Origin, output.Multiplier)
	}
	wantRemoved(t, output, msg(1))
	if len(output.Remaining) != 0 {
		t.Errorf("forest not empty: %v", output.Remaining)
	}

	supply, err := tree.TotalSupply()
	if err != nil || supply != 0 {
		t.Errorf("supply is %d (%v), wanted 0", supply, err)
	}
	checkConsistency(t, tree)
}

func TestConsume_RootWithSpecifiedChildIsRetained(t *testing.T) {
	tree := newTestTree(t)
	if err := tree.Create(testOrigin, testMultiplier, msg(1), 1000); err != nil {
		t.Fatalf("failed to create tree: %v", err)
	}
	if err := tree.SplitWithValue(msg(1), msg(2), 300); err != nil {
		t.Fatalf("failed to split with value: %v", err)
	}

	// The root is done, but the child owns value of its own, so the root
	// stays as a tombstone. No patron is left above the root, so its own
	// residue is caught right away.
	output, err := tree.Consume(msg(1))
	if err != nil {
		t.Fatalf("failed to consume root: %v", err)
	}
	if output.Caught != 700 {
		t.Errorf("caught %d, wanted 700", output.Caught)
	}
	wantRemoved(t, output)
	if len(output.Remaining) != 2 {
		t.Errorf("unexpected forest content: %v", output.Remaining)
	}
	checkConsistency(t, tree)

	// Consuming the child removes it and cascades into the dead root.
	output, err = tree.Consume(msg(2))
	if err != nil {
		t.Fatalf("failed to consume child: %v", err)
	}
	if output.Caught != 300 {
		t.Errorf("caught %d, wanted 300", output.Caught)
	}
	wantRemoved(t, output, msg(1), msg(2))
	if len(output.Remaining) != 0 {
		t.Errorf("forest not empty: %v", output.Remaining)
	}
	supply, err := tree.TotalSupply()
	if err != nil || supply != 0 {
		t.Errorf("supply is %d (%v), wanted 0", supply, err)
	}
	checkConsistency(t, tree)
}

func TestConsume_RootWithUnspecifiedChildStaysPatron(t *testing.T) {
	tree := newTestTree(t)
	if err := tree.Create(testOrigin, testMultiplier, msg(1), 1000); err != nil {
		t.Fatalf("failed to create tree: %v", err)
	}
	if err := tree.Split(msg(1), msg(2)); err != nil {
		t.Fatalf("failed to split: %v", err)
	}

	// An unspecified child still draws on the root, so the root keeps its
	// value even though it is consumed.
	output, err := tree.Consume(msg(1))
	if err != nil {
		t.Fatalf("failed to consume root: %v", err)
	}
	if output.Caught != 0 {
		t.Errorf("caught %d, wanted 0", output.Caught)
	}
	wantLimit(t, tree, msg(2), 1000)
	checkConsistency(t, tree)

	// The last child going away releases the whole tree.
	output, err = tree.Consume(msg(2))
	if err != nil {
		t.Fatalf("failed to consume child: %v", err)
	}
	if output.Caught != 1000 {
		t.Errorf("caught %d, wanted 1000", output.Caught)
	}
	wantRemoved(t, output, msg(1), msg(2))
	supply, err := tree.TotalSupply()
	if err != nil || supply != 0 {
		t.Errorf("supply is %d (%v), wanted 0", supply, err)
	}
	checkConsistency(t, tree)
}

func TestConsume_SpecifiedChildReturnsValueToPatron(t *testing.T) {
	tree := newTestTree(t)
	if err := tree.Create(testOrigin, testMultiplier, msg(1), 1000); err != nil {
		t.Fatalf("failed to create tree: %v", err)
	}
	if err := tree.SplitWithValue(msg(1), msg(2), 300); err != nil {
		t.Fatalf("failed to split with value: %v", err)
	}

	output, err := tree.Consume(msg(2))
	if err != nil {
		t.Fatalf("failed to consume child: %v", err)
	}
	if output.Caught != 0 {
		t.Errorf("caught %d, wanted 0; the live root should absorb the value", output.Caught)
	}
	wantRemoved(t, output, msg(2))
	wantLimit(t, tree, msg(1), 1000)
	checkConsistency(t, tree)
}

func TestConsume_UnspecifiedChildDirectly(t *testing.T) {
	tree := newTestTree(t)
	if err := tree.Create(testOrigin, testMultiplier, msg(1), 1000); err != nil {
		t.Fatalf("failed to create tree: %v", err)
	}
	if err := tree.Split(msg(1), msg(2)); err != nil {
		t.Fatalf("failed to split: %v", err)
	}

	output, err := tree.Consume(msg(2))
	if err != nil {
		t.Fatalf("failed to consume unspecified child: %v", err)
	}
	if output.Caught != 0 {
		t.Errorf("caught %d, wanted 0", output.Caught)
	}
	wantRemoved(t, output, msg(2))
	wantLimit(t, tree, msg(1), 1000)
	checkConsistency(t, tree)
}

func TestConsume_CascadeThroughChain(t *testing.T) {
	tree := newTestTree(t)
	if err := tree.Create(testOrigin, testMultiplier, msg(1), 1000); err != nil {
		t.Fatalf("failed to create tree: %v", err)
	}
	if err := tree.SplitWithValue(msg(1), msg(2), 600); err != nil {
		t.Fatalf("failed to split with value: %v", err)
	}
	if err := tree.Split(msg(2), msg(3)); err != nil {
		t.Fatalf("failed to split: %v", err)
	}

	// The middle node keeps patronizing its unspecified child.
	if _, err := tree.Consume(msg(2)); err != nil {
		t.Fatalf("failed to consume middle node: %v", err)
	}
	wantLimit(t, tree, msg(3), 600)
	checkConsistency(t, tree)

	// Consuming the leaf removes it and the dead middle node; the middle
	// node's value flows back to the live root.
	output, err := tree.Consume(msg(3))
	if err != nil {
		t.Fatalf("failed to consume leaf: %v", err)
	}
	if output.Caught != 0 {
		t.Errorf("caught %d, wanted 0", output.Caught)
	}
	wantRemoved(t, output, msg(2), msg(3))
	wantLimit(t, tree, msg(1), 1000)
	checkConsistency(t, tree)
}

func TestConsume_ReservationReleasesDonor(t *testing.T) {
	tree := newTestTree(t)
	if err := tree.Create(testOrigin, testMultiplier, msg(1), 1000); err != nil {
		t.Fatalf("failed to create tree: %v", err)
	}
	if err := tree.Reserve(msg(1), rsv(1), 400); err != nil {
		t.Fatalf("failed to reserve: %v", err)
	}

	// A reservation is an independent root: its residue is caught, not
	// returned to the donor.
	output, err := tree.Consume(rsv(1))
	if err != nil {
		t.Fatalf("failed to consume reservation: %v", err)
	}
	if output.Caught != 400 {
		t.Errorf("caught %d, wanted 400", output.Caught)
	}
	wantRemoved(t, output, rsv(1))
	wantLimit(t, tree, msg(1), 600)
	supply, err := tree.TotalSupply()
	if err != nil || supply != 600 {
		t.Errorf("supply is %d (%v), wanted 600", supply, err)
	}
	checkConsistency(t, tree)

	// With the reservation gone the donor can be fully removed.
	output, err = tree.Consume(msg(1))
	if err != nil {
		t.Fatalf("failed to consume root: %v", err)
	}
	if output.Caught != 600 {
		t.Errorf("caught %d, wanted 600", output.Caught)
	}
	wantRemoved(t, output, msg(1))
	checkConsistency(t, tree)
}

func TestConsume_ReservationCascadesIntoDeadDonor(t *testing.T) {
	tree := newTestTree(t)
	if err := tree.Create(testOrigin, testMultiplier, msg(1), 1000); err != nil {
		t.Fatalf("failed to create tree: %v", err)
	}
	if err := tree.Reserve(msg(1), rsv(1), 400); err != nil {
		t.Fatalf("failed to reserve: %v", err)
	}

	// The donor dies first but is pinned by the outstanding reservation.
	output, err := tree.Consume(msg(1))
	if err != nil {
		t.Fatalf("failed to consume root: %v", err)
	}
	if output.Caught != 600 {
		t.Errorf("caught %d, wanted 600", output.Caught)
	}
	wantRemoved(t, output)
	checkConsistency(t, tree)

	// Consuming the reservation unpins and removes the donor.
	output, err = tree.Consume(rsv(1))
	if err != nil {
		t.Fatalf("failed to consume reservation: %v", err)
	}
	if output.Caught != 400 {
		t.Errorf("caught %d, wanted 400", output.Caught)
	}
	wantRemoved(t, output, msg(1), rsv(1))
	if len(output.Remaining) != 0 {
		t.Errorf("forest not empty: %v", output.Remaining)
	}
	supply, err := tree.TotalSupply()
	if err != nil || supply != 0 {
		t.Errorf("supply is %d (%v), wanted 0", supply, err)
	}
	checkConsistency(t, tree)
}

func TestConsume_CutNodeReleasesItsValue(t *testing.T) {
	tree := newTestTree(t)
	if err := tree.Create(testOrigin, testMultiplier, msg(1), 1000); err != nil {
		t.Fatalf("failed to create tree: %v", err)
	}
	if err := tree.Cut(msg(1), msg(2), 250); err != nil {
		t.Fatalf("failed to cut: %v", err)
	}

	output, err := tree.Consume(msg(2))
	if err != nil {
		t.Fatalf("failed to consume cut node: %v", err)
	}
	if output.Caught != 250 {
		t.Errorf("caught %d, wanted 250", output.Caught)
	}
	wantRemoved(t, output, msg(2))
	wantLimit(t, tree, msg(1), 750)
	supply, err := tree.TotalSupply()
	if err != nil || supply != 750 {
		t.Errorf("supply is %d (%v), wanted 750", supply, err)
	}
	checkConsistency(t, tree)
}

func TestConsume_ReportsPreconditionFailures(t *testing.T) {
	tree := newTestTree(t)
	if err := tree.Create(testOrigin, testMultiplier, msg(1), 1000); err != nil {
		t.Fatalf("failed to create tree: %v", err)
	}

	if _, err := tree.Consume(msg(9)); !errors.Is(err, gas.ErrNodeNotFound) {
		t.Errorf("consuming missing node got %v, wanted ErrNodeNotFound", err)
	}

	if err := tree.Lock(msg(1), gas.Waitlist, 10); err != nil {
		t.Fatalf("failed to lock: %v", err)
	}
	if _, err := tree.Consume(msg(1)); !errors.Is(err, gas.ErrConsumedWithLock) {
		t.Errorf("consuming locked node got %v, wanted ErrConsumedWithLock", err)
	}
	if _, err := tree.UnlockAll(msg(1), gas.Waitlist); err != nil {
		t.Fatalf("failed to unlock: %v", err)
	}

	if err := tree.SystemReserve(msg(1), 10); err != nil {
		t.Fatalf("failed to system-reserve: %v", err)
	}
	if _, err := tree.Consume(msg(1)); !errors.Is(err, gas.ErrConsumedWithSystemReservation) {
		t.Errorf("consuming reserved node got %v, wanted ErrConsumedWithSystemReservation", err)
	}
	if _, err := tree.SystemUnreserve(msg(1)); err != nil {
		t.Fatalf("failed to system-unreserve: %v", err)
	}

	// A consumed node retained as tombstone rejects a second consume.
	if err := tree.SplitWithValue(msg(1), msg(2), 100); err != nil {
		t.Fatalf("failed to split with value: %v", err)
	}
	if _, err := tree.Consume(msg(1)); err != nil {
		t.Fatalf("failed to consume root: %v", err)
	}
	if _, err := tree.Consume(msg(1)); !errors.Is(err, gas.ErrNodeWasConsumed) {
		t.Errorf("double consume got %v, wanted ErrNodeWasConsumed", err)
	}
	checkConsistency(t, tree)
}

func TestConsume_RemainingMatchesStoreContent(t *testing.T) {
	store := memory.NewStorage()
	tree := gas.NewTree(store)
	if err := tree.Create(testOrigin, testMultiplier, msg(1), 1000); err != nil {
		t.Fatalf("failed to create tree: %v", err)
	}
	if err := tree.SplitWithValue(msg(1), msg(2), 300); err != nil {
		t.Fatalf("failed to split with value: %v", err)
	}
	if err := tree.Split(msg(1), msg(3)); err != nil {
		t.Fatalf("failed to split: %v", err)
	}

	output, err := tree.Consume(msg(2))
	if err != nil {
		t.Fatalf("failed to consume: %v", err)
	}
	if len(output.Remaining) != store.Size() {
		t.Fatalf("snapshot has %d nodes, store %d", len(output.Remaining), store.Size())
	}
	for id := range output.Remaining {
		exists, err := tree.Exists(id)
		if err != nil || !exists {
			t.Errorf("snapshot node %v not in store (%v)", id, err)
		}
	}
}

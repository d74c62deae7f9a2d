package memory

import (
	"fmt"
	"testing"

	"github.com/Fantom-foundation/GasTree/go/gas"
)

func TestStorage_GetMissingNodeReturnsNil(t *testing.T) {
	store := NewStorage()
	node, err := store.GetNode(gas.MessageId(gas.NodeIndex{1}))
	if err != nil {
		t.Fatalf("failed to get node: %v", err)
	}
	if node != nil {
		t.Errorf("missing node resolved to %v", node)
	}
}

func TestStorage_SetAndGetNode(t *testing.T) {
	store := NewStorage()
	id := gas.MessageId(gas.NodeIndex{1})
	if err := store.SetNode(id, &gas.ExternalNode{Value: 42}); err != nil {
		t.Fatalf("failed to set node: %v", err)
	}
	node, err := store.GetNode(id)
	if err != nil {
		t.Fatalf("failed to get node: %v", err)
	}
	external, ok := node.(*gas.ExternalNode)
	if !ok || external.Value != 42 {
		t.Errorf("retrieved wrong node: %v", node)
	}
	if store.Size() != 1 {
		t.Errorf("store has size %d, wanted 1", store.Size())
	}
}

func TestStorage_NodesAreCopiedInAndOut(t *testing.T) {
	store := NewStorage()
	id := gas.MessageId(gas.NodeIndex{1})
	original := &gas.ExternalNode{Value: 42}
	if err := store.SetNode(id, original); err != nil {
		t.Fatalf("failed to set node: %v", err)
	}

	// Mutating the inserted instance must not reach the store.
	original.Value = 0
	node, err := store.GetNode(id)
	if err != nil {
		t.Fatalf("failed to get node: %v", err)
	}
	if node.(*gas.ExternalNode).Value != 42 {
		t.Errorf("store aliases inserted nodes")
	}

	// Mutating a retrieved instance must not reach the store either.
	node.(*gas.ExternalNode).Value = 7
	again, err := store.GetNode(id)
	if err != nil {
		t.Fatalf("failed to get node: %v", err)
	}
	if again.(*gas.ExternalNode).Value != 42 {
		t.Errorf("store aliases retrieved nodes")
	}
}

func TestStorage_RemoveNode(t *testing.T) {
	store := NewStorage()
	id := gas.MessageId(gas.NodeIndex{1})
	if err := store.SetNode(id, &gas.CutNode{Value: 1}); err != nil {
		t.Fatalf("failed to set node: %v", err)
	}
	if err := store.RemoveNode(id); err != nil {
		t.Fatalf("failed to remove node: %v", err)
	}
	if node, _ := store.GetNode(id); node != nil {
		t.Errorf("removed node still present: %v", node)
	}
	// Removing an absent node is fine.
	if err := store.RemoveNode(id); err != nil {
		t.Errorf("failed to remove absent node: %v", err)
	}
}

func TestStorage_ForEachNodeVisitsInCanonicalOrder(t *testing.T) {
	store := NewStorage()
	ids := []gas.NodeId{
		gas.ReservationId(gas.NodeIndex{1}),
		gas.MessageId(gas.NodeIndex{3}),
		gas.MessageId(gas.NodeIndex{1}),
		gas.ReservationId(gas.NodeIndex{0}),
	}
	for _, id := range ids {
		if err := store.SetNode(id, &gas.CutNode{}); err != nil {
			t.Fatalf("failed to set node: %v", err)
		}
	}

	visited := []gas.NodeId{}
	err := store.ForEachNode(func(id gas.NodeId, node gas.GasNode) error {
		visited = append(visited, id)
		return nil
	})
	if err != nil {
		t.Fatalf("iteration failed: %v", err)
	}
	if len(visited) != len(ids) {
		t.Fatalf("visited %d nodes, wanted %d", len(visited), len(ids))
	}
	for i := 1; i < len(visited); i++ {
		if visited[i-1].Compare(visited[i]) >= 0 {
			t.Errorf("iteration out of order: %v before %v", visited[i-1], visited[i])
		}
	}
}

func TestStorage_ForEachNodeForwardsVisitorErrors(t *testing.T) {
	store := NewStorage()
	if err := store.SetNode(gas.MessageId(gas.NodeIndex{1}), &gas.CutNode{}); err != nil {
		t.Fatalf("failed to set node: %v", err)
	}
	injected := fmt.Errorf("stop")
	err := store.ForEachNode(func(gas.NodeId, gas.GasNode) error {
		return injected
	})
	if err != injected {
		t.Errorf("got %v, wanted the visitor's error", err)
	}
}

func TestStorage_IssuanceCounter(t *testing.T) {
	store := NewStorage()
	if issuance, err := store.TotalIssuance(); err != nil || issuance != 0 {
		t.Errorf("fresh store has issuance %d (%v)", issuance, err)
	}
	if err := store.SetTotalIssuance(123); err != nil {
		t.Fatalf("failed to set issuance: %v", err)
	}
	if issuance, err := store.TotalIssuance(); err != nil || issuance != 123 {
		t.Errorf("issuance is %d (%v), wanted 123", issuance, err)
	}
}

func TestStorage_ClearResetsEverything(t *testing.T) {
	store := NewStorage()
	if err := store.SetNode(gas.MessageId(gas.NodeIndex{1}), &gas.CutNode{}); err != nil {
		t.Fatalf("failed to set node: %v", err)
	}
	if err := store.SetTotalIssuance(5); err != nil {
		t.Fatalf("failed to set issuance: %v", err)
	}
	store.Clear()
	if store.Size() != 0 {
		t.Errorf("store not empty after clear")
	}
	if issuance, _ := store.TotalIssuance(); issuance != 0 {
		t.Errorf("issuance not reset, still %d", issuance)
	}
}

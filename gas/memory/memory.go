package memory

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/Fantom-foundation/GasTree/go/gas"
)

// Storage is an in-memory implementation of the gas.Storage interface. It
// keeps all nodes in a map and is intended for tests and single-node runs.
//
// Nodes are deep-copied on the way in and out, so callers never alias the
// store's internal state.
type Storage struct {
	nodes    map[gas.NodeId]gas.GasNode
	issuance gas.Gas
}

// NewStorage creates an empty in-memory node store.
func NewStorage() *Storage {
	return &Storage{nodes: map[gas.NodeId]gas.GasNode{}}
}

// GetNode retrieves a copy of the node with the given id, or nil if the
// store holds no such node.
func (s *Storage) GetNode(id gas.NodeId) (gas.GasNode, error) {
	node, exists := s.nodes[id]
	if !exists {
		return nil, nil
	}
	return node.Clone(), nil
}

// SetNode inserts or replaces the node with the given id.
func (s *Storage) SetNode(id gas.NodeId, node gas.GasNode) error {
	s.nodes[id] = node.Clone()
	return nil
}

// RemoveNode deletes the node with the given id.
func (s *Storage) RemoveNode(id gas.NodeId) error {
	delete(s.nodes, id)
	return nil
}

// ForEachNode visits all nodes in canonical id order.
func (s *Storage) ForEachNode(visit func(gas.NodeId, gas.GasNode) error) error {
	ids := maps.Keys(s.nodes)
	slices.SortFunc(ids, func(a, b gas.NodeId) int { return a.Compare(b) })
	for _, id := range ids {
		if err := visit(id, s.nodes[id].Clone()); err != nil {
			return err
		}
	}
	return nil
}

// TotalIssuance returns the total amount of issued gas.
func (s *Storage) TotalIssuance() (gas.Gas, error) {
	return s.issuance, nil
}

// SetTotalIssuance replaces the total-issuance counter.
func (s *Storage) SetTotalIssuance(total gas.Gas) error {
	s.issuance = total
	return nil
}

// Size returns the number of stored nodes.
func (s *Storage) Size() int {
	return len(s.nodes)
}

// Clear removes all nodes and resets the issuance counter.
func (s *Storage) Clear() {
	maps.Clear(s.nodes)
	s.issuance = 0
}

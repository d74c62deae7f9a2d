package ldb

import (
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/Fantom-foundation/GasTree/go/gas"
)

// Node kind tags of the on-disk format.
const (
	tagExternal uint8 = iota
	tagCut
	tagReserved
	tagSpecified
	tagUnspecified
)

// nodeRecord is the kind-tagged envelope all node kinds are flattened into
// for RLP encoding. Fields unused by a kind are left at their zero value.
type nodeRecord struct {
	Kind          uint8
	Origin        [32]byte
	Multiplier    uint64
	Link          []byte // parent or donor id, empty for plain roots
	Value         uint64
	Lock          []uint64
	SystemReserve uint64
	SpecRefs      uint32
	UnspecRefs    uint32
	Consumed      bool
}

func encodeLock(lock gas.NodeLock) []uint64 {
	res := make([]uint64, len(lock))
	for i, amount := range lock {
		res[i] = uint64(amount)
	}
	return res
}

func decodeLock(data []uint64) (gas.NodeLock, error) {
	var lock gas.NodeLock
	if len(data) != len(lock) {
		return lock, fmt.Errorf("%w: lock table has %d entries, wanted %d", gas.ErrCorrupted, len(data), len(lock))
	}
	for i, amount := range data {
		lock[i] = gas.Gas(amount)
	}
	return lock, nil
}

// encodeNode serializes a node into its on-disk form.
func encodeNode(node gas.GasNode) ([]byte, error) {
	var record nodeRecord
	switch node := node.(type) {
	case *gas.ExternalNode:
		record = nodeRecord{
			Kind:          tagExternal,
			Origin:        node.Origin,
			Multiplier:    node.Multiplier.Rate(),
			Value:         uint64(node.Value),
			Lock:          encodeLock(node.Lock),
			SystemReserve: uint64(node.SystemReserve),
			SpecRefs:      node.Refs.Spec,
			UnspecRefs:    node.Refs.Unspec,
			Consumed:      node.Consumed,
		}
	case *gas.CutNode:
		record = nodeRecord{
			Kind:       tagCut,
			Origin:     node.Origin,
			Multiplier: node.Multiplier.Rate(),
			Value:      uint64(node.Value),
			Lock:       encodeLock(node.Lock),
		}
	case *gas.ReservedNode:
		donor := node.Donor.Bytes()
		record = nodeRecord{
			Kind:          tagReserved,
			Origin:        node.Origin,
			Multiplier:    node.Multiplier.Rate(),
			Link:          donor[:],
			Value:         uint64(node.Value),
			Lock:          encodeLock(node.Lock),
			SystemReserve: uint64(node.SystemReserve),
			SpecRefs:      node.Refs.Spec,
			UnspecRefs:    node.Refs.Unspec,
			Consumed:      node.Consumed,
		}
	case *gas.SpecifiedNode:
		parent := node.ParentId.Bytes()
		record = nodeRecord{
			Kind:          tagSpecified,
			Link:          parent[:],
			Value:         uint64(node.Value),
			Lock:          encodeLock(node.Lock),
			SystemReserve: uint64(node.SystemReserve),
			SpecRefs:      node.Refs.Spec,
			UnspecRefs:    node.Refs.Unspec,
			Consumed:      node.Consumed,
		}
	case *gas.UnspecifiedNode:
		parent := node.ParentId.Bytes()
		record = nodeRecord{
			Kind: tagUnspecified,
			Link: parent[:],
		}
	default:
		return nil, fmt.Errorf("unsupported node type %T", node)
	}
	return rlp.EncodeToBytes(&record)
}

// decodeNode restores a node from its on-disk form. Malformed records are
// reported as corruption.
func decodeNode(data []byte) (gas.GasNode, error) {
	var record nodeRecord
	if err := rlp.DecodeBytes(data, &record); err != nil {
		return nil, fmt.Errorf("%w: undecodable node record: %v", gas.ErrCorrupted, err)
	}

	link := func() (gas.NodeId, error) {
		id, err := gas.NodeIdFromBytes(record.Link)
		if err != nil {
			return gas.NodeId{}, fmt.Errorf("%w: %v", gas.ErrCorrupted, err)
		}
		return id, nil
	}

	switch record.Kind {
	case tagExternal:
		lock, err := decodeLock(record.Lock)
		if err != nil {
			return nil, err
		}
		return &gas.ExternalNode{
			Origin:        record.Origin,
			Multiplier:    gas.ValuePerGas(record.Multiplier),
			Value:         gas.Gas(record.Value),
			Lock:          lock,
			SystemReserve: gas.Gas(record.SystemReserve),
			Refs:          gas.ChildrenRefs{Spec: record.SpecRefs, Unspec: record.UnspecRefs},
			Consumed:      record.Consumed,
		}, nil
	case tagCut:
		lock, err := decodeLock(record.Lock)
		if err != nil {
			return nil, err
		}
		return &gas.CutNode{
			Origin:     record.Origin,
			Multiplier: gas.ValuePerGas(record.Multiplier),
			Value:      gas.Gas(record.Value),
			Lock:       lock,
		}, nil
	case tagReserved:
		lock, err := decodeLock(record.Lock)
		if err != nil {
			return nil, err
		}
		donor, err := link()
		if err != nil {
			return nil, err
		}
		return &gas.ReservedNode{
			Origin:        record.Origin,
			Multiplier:    gas.ValuePerGas(record.Multiplier),
			Donor:         donor,
			Value:         gas.Gas(record.Value),
			Lock:          lock,
			SystemReserve: gas.Gas(record.SystemReserve),
			Refs:          gas.ChildrenRefs{Spec: record.SpecRefs, Unspec: record.UnspecRefs},
			Consumed:      record.Consumed,
		}, nil
	case tagSpecified:
		lock, err := decodeLock(record.Lock)
		if err != nil {
			return nil, err
		}
		parent, err := link()
		if err != nil {
			return nil, err
		}
		return &gas.SpecifiedNode{
			ParentId:      parent,
			Value:         gas.Gas(record.Value),
			Lock:          lock,
			SystemReserve: gas.Gas(record.SystemReserve),
			Refs:          gas.ChildrenRefs{Spec: record.SpecRefs, Unspec: record.UnspecRefs},
			Consumed:      record.Consumed,
		}, nil
	case tagUnspecified:
		parent, err := link()
		if err != nil {
			return nil, err
		}
		return &gas.UnspecifiedNode{ParentId: parent}, nil
	}
	return nil, fmt.Errorf("%w: unknown node kind tag %d", gas.ErrCorrupted, record.Kind)
}

// Package ldb provides a LevelDB-backed implementation of the gas.Storage
// interface. Each node is kept under its own key; the total-issuance counter
// lives under a dedicated key outside the node range.
package ldb

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/Fantom-foundation/GasTree/go/gas"
)

// nodeKeyPrefix is prepended to node ids to separate the node range from
// other keys.
const nodeKeyPrefix = byte('n')

var issuanceKey = []byte("issuance")

// Storage is a LevelDB-backed node store.
type Storage struct {
	db *leveldb.DB
}

// OpenStorage opens (or creates) a node store in the given directory. The
// returned storage must be closed when no longer needed.
func OpenStorage(path string) (*Storage, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}
	return &Storage{db: db}, nil
}

// Close flushes and closes the underlying database.
func (s *Storage) Close() error {
	return s.db.Close()
}

func nodeKey(id gas.NodeId) []byte {
	idBytes := id.Bytes()
	key := make([]byte, 1+len(idBytes))
	key[0] = nodeKeyPrefix
	copy(key[1:], idBytes[:])
	return key
}

// GetNode retrieves the node with the given id, or nil if the store holds no
// such node.
func (s *Storage) GetNode(id gas.NodeId) (gas.GasNode, error) {
	data, err := s.db.Get(nodeKey(id), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return decodeNode(data)
}

// SetNode inserts or replaces the node with the given id.
func (s *Storage) SetNode(id gas.NodeId, node gas.GasNode) error {
	data, err := encodeNode(node)
	if err != nil {
		return err
	}
	return s.db.Put(nodeKey(id), data, nil)
}

// RemoveNode deletes the node with the given id.
func (s *Storage) RemoveNode(id gas.NodeId) error {
	return s.db.Delete(nodeKey(id), nil)
}

// ForEachNode visits all nodes in canonical id order. Node keys sort by the
// serialized id, space tag first, which matches NodeId.Compare.
func (s *Storage) ForEachNode(visit func(gas.NodeId, gas.GasNode) error) error {
	iter := s.db.NewIterator(util.BytesPrefix([]byte{nodeKeyPrefix}), nil)
	defer iter.Release()
	for iter.Next() {
		id, err := gas.NodeIdFromBytes(iter.Key()[1:])
		if err != nil {
			return fmt.Errorf("%w: %v", gas.ErrCorrupted, err)
		}
		node, err := decodeNode(iter.Value())
		if err != nil {
			return err
		}
		if err := visit(id, node); err != nil {
			return err
		}
	}
	return iter.Error()
}

// TotalIssuance returns the total amount of issued gas. A store that never
// recorded an issuance reports zero.
func (s *Storage) TotalIssuance() (gas.Gas, error) {
	data, err := s.db.Get(issuanceKey, nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	if len(data) != 8 {
		return 0, fmt.Errorf("%w: issuance record has %d bytes, wanted 8", gas.ErrCorrupted, len(data))
	}
	return gas.Gas(binary.LittleEndian.Uint64(data)), nil
}

// SetTotalIssuance replaces the total-issuance counter.
func (s *Storage) SetTotalIssuance(total gas.Gas) error {
	var data [8]byte
	binary.LittleEndian.PutUint64(data[:], uint64(total))
	return s.db.Put(issuanceKey, data[:], nil)
}

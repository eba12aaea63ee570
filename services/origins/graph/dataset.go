// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package graph

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"

	badgerdb "github.com/dgraph-io/badger/v4"

	"github.com/AleutianAI/originstats/services/origins/storage/badger"
)

// Dataset key schema. Node IDs are big-endian 8-byte suffixes so that
// prefix iteration yields ascending ID order.
//
//	meta:nodes  -> 8-byte node count
//	meta:arcs   -> 8-byte arc count
//	meta:types  -> one byte per node (NodeType)
//	s:<id>      -> successors, concatenated 8-byte IDs
//	m:<id>      -> message bytes
//	ci:<id>     -> 8-byte committer identifier
//	ct:<id>     -> 8-byte committer timestamp (two's complement)
//	w:<id>      -> SWHID string
//	v:<id>      -> visit history, concatenated 8-byte snapshot IDs
var (
	keyMetaNodes = []byte("meta:nodes")
	keyMetaArcs  = []byte("meta:arcs")
	keyMetaTypes = []byte("meta:types")
)

// ErrDatasetCorrupt indicates the dataset directory is missing required
// metadata or holds values of the wrong shape.
var ErrDatasetCorrupt = errors.New("graph dataset corrupt")

// Dataset is the production Accessor, backed by a BadgerDB directory
// written by ImportDataset.
//
// The node type table and adjacency lists are decoded into RAM at open time
// (traversals touch them for every node); messages, committer properties,
// SWHIDs, and visit histories stay on disk and are read through Badger on
// demand. The dataset is immutable, so all reads are lock-free.
type Dataset struct {
	db        *badgerdb.DB
	nodeCount uint64
	arcCount  uint64
	types     []NodeType
	succ      [][]NodeID
}

// OpenDataset opens a dataset directory read-only and loads its node table.
//
// A failure here is fatal to the caller by contract: a process cannot serve
// statistics without a graph.
func OpenDataset(path string, logger *slog.Logger) (*Dataset, error) {
	cfg := badger.ReadOnlyConfig()
	cfg.Path = path
	cfg.Logger = logger
	db, err := badger.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open graph dataset %s: %w", path, err)
	}
	ds, err := newDataset(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("load graph dataset %s: %w", path, err)
	}
	return ds, nil
}

// NewDataset wraps an already-open Badger database. Used by tests with
// in-memory databases; production code uses OpenDataset.
func NewDataset(db *badgerdb.DB) (*Dataset, error) {
	return newDataset(db)
}

func newDataset(db *badgerdb.DB) (*Dataset, error) {
	ds := &Dataset{db: db}
	err := db.View(func(txn *badgerdb.Txn) error {
		nodes, err := getUint64(txn, keyMetaNodes)
		if err != nil {
			return err
		}
		arcs, err := getUint64(txn, keyMetaArcs)
		if err != nil {
			return err
		}
		ds.nodeCount = nodes
		ds.arcCount = arcs

		item, err := txn.Get(keyMetaTypes)
		if err != nil {
			return fmt.Errorf("%w: missing type table", ErrDatasetCorrupt)
		}
		return item.Value(func(val []byte) error {
			if uint64(len(val)) != nodes {
				return fmt.Errorf("%w: type table has %d entries, want %d",
					ErrDatasetCorrupt, len(val), nodes)
			}
			ds.types = make([]NodeType, len(val))
			for i, b := range val {
				ds.types[i] = NodeType(b)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	if err := ds.loadAdjacency(); err != nil {
		return nil, err
	}
	return ds, nil
}

// loadAdjacency decodes every successor list into RAM.
func (d *Dataset) loadAdjacency() error {
	d.succ = make([][]NodeID, d.nodeCount)
	return d.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = []byte("s:")
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			id := binary.BigEndian.Uint64(item.Key()[2:])
			if id >= d.nodeCount {
				return fmt.Errorf("%w: successor list for node %d out of range",
					ErrDatasetCorrupt, id)
			}
			err := item.Value(func(val []byte) error {
				ids, err := decodeIDs(val)
				if err != nil {
					return err
				}
				d.succ[id] = ids
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// Close releases the underlying database.
func (d *Dataset) Close() error {
	return d.db.Close()
}

// NodeCount returns the number of nodes.
func (d *Dataset) NodeCount() uint64 { return d.nodeCount }

// ArcCount returns the number of arcs.
func (d *Dataset) ArcCount() uint64 { return d.arcCount }

// NodeType returns the type of the node, or NodeTypeUnknown if out of range.
func (d *Dataset) NodeType(id NodeID) NodeType {
	if id >= d.nodeCount {
		return NodeTypeUnknown
	}
	return d.types[id]
}

// Successors returns the direct out-neighbors of the node.
func (d *Dataset) Successors(id NodeID) []NodeID {
	if id >= d.nodeCount {
		return nil
	}
	return d.succ[id]
}

// Message returns the message bytes of the node, if any.
func (d *Dataset) Message(id NodeID) ([]byte, bool) {
	val, ok := d.getBytes(nodeKey('m', id))
	return val, ok
}

// CommitterID returns the committer identifier of the node, if any.
func (d *Dataset) CommitterID(id NodeID) (uint64, bool) {
	val, ok := d.getBytes(nodeKey2("ci", id))
	if !ok || len(val) != 8 {
		return 0, false
	}
	return binary.BigEndian.Uint64(val), true
}

// CommitterTimestamp returns the committer timestamp of the node, if any.
func (d *Dataset) CommitterTimestamp(id NodeID) (int64, bool) {
	val, ok := d.getBytes(nodeKey2("ct", id))
	if !ok || len(val) != 8 {
		return 0, false
	}
	return int64(binary.BigEndian.Uint64(val)), true
}

// SWHID returns the stored SWHID, or a synthetic one if none was imported.
func (d *Dataset) SWHID(id NodeID) string {
	if val, ok := d.getBytes(nodeKey('w', id)); ok {
		return string(val)
	}
	return fallbackSWHID(d.NodeType(id), id)
}

// FindLatestSnapshot resolves the latest snapshot of an origin from its
// stored visit history.
func (d *Dataset) FindLatestSnapshot(originID NodeID) (Visit, bool) {
	if d.NodeType(originID) != NodeTypeOrigin {
		return Visit{}, false
	}
	val, ok := d.getBytes(nodeKey('v', originID))
	if !ok {
		return Visit{}, false
	}
	visits, err := decodeIDs(val)
	if err != nil {
		return Visit{}, false
	}
	return latestVisit(visits)
}

// getBytes reads one value, copying it out of the transaction.
func (d *Dataset) getBytes(key []byte) ([]byte, bool) {
	var out []byte
	err := d.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, false
	}
	return out, true
}

// ImportDataset writes a MemoryGraph into an open (writable) Badger
// database using the dataset key schema. Used by `originstats import` and
// by dataset tests.
func ImportDataset(db *badgerdb.DB, g *MemoryGraph) error {
	wb := db.NewWriteBatch()
	defer wb.Cancel()

	count := g.NodeCount()
	if err := wb.Set(keyMetaNodes, encodeUint64(count)); err != nil {
		return err
	}
	if err := wb.Set(keyMetaArcs, encodeUint64(g.ArcCount())); err != nil {
		return err
	}

	types := make([]byte, count)
	for id := uint64(0); id < count; id++ {
		types[id] = byte(g.NodeType(id))
	}
	if err := wb.Set(keyMetaTypes, types); err != nil {
		return err
	}

	for id := uint64(0); id < count; id++ {
		if succ := g.Successors(id); len(succ) > 0 {
			if err := wb.Set(nodeKey('s', id), encodeIDs(succ)); err != nil {
				return err
			}
		}
		if msg, ok := g.Message(id); ok {
			if err := wb.Set(nodeKey('m', id), msg); err != nil {
				return err
			}
		}
		if cid, ok := g.CommitterID(id); ok {
			if err := wb.Set(nodeKey2("ci", id), encodeUint64(cid)); err != nil {
				return err
			}
		}
		if cts, ok := g.CommitterTimestamp(id); ok {
			if err := wb.Set(nodeKey2("ct", id), encodeUint64(uint64(cts))); err != nil {
				return err
			}
		}
		if g.nodes[id].swhid != "" {
			if err := wb.Set(nodeKey('w', id), []byte(g.nodes[id].swhid)); err != nil {
				return err
			}
		}
		if visits := g.visitHistory(id); len(visits) > 0 {
			if err := wb.Set(nodeKey('v', id), encodeIDs(visits)); err != nil {
				return err
			}
		}
	}
	return wb.Flush()
}

func nodeKey(prefix byte, id NodeID) []byte {
	key := make([]byte, 10)
	key[0] = prefix
	key[1] = ':'
	binary.BigEndian.PutUint64(key[2:], id)
	return key
}

func nodeKey2(prefix string, id NodeID) []byte {
	key := make([]byte, len(prefix)+9)
	copy(key, prefix)
	key[len(prefix)] = ':'
	binary.BigEndian.PutUint64(key[len(prefix)+1:], id)
	return key
}

func encodeUint64(v uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return buf
}

func getUint64(txn *badgerdb.Txn, key []byte) (uint64, error) {
	item, err := txn.Get(key)
	if err != nil {
		return 0, fmt.Errorf("%w: missing %s", ErrDatasetCorrupt, key)
	}
	var out uint64
	err = item.Value(func(val []byte) error {
		if len(val) != 8 {
			return fmt.Errorf("%w: %s has %d bytes, want 8", ErrDatasetCorrupt, key, len(val))
		}
		out = binary.BigEndian.Uint64(val)
		return nil
	})
	return out, err
}

func encodeIDs(ids []NodeID) []byte {
	buf := make([]byte, 8*len(ids))
	for i, id := range ids {
		binary.BigEndian.PutUint64(buf[i*8:], id)
	}
	return buf
}

func decodeIDs(val []byte) ([]NodeID, error) {
	if len(val)%8 != 0 {
		return nil, fmt.Errorf("%w: id list has %d bytes", ErrDatasetCorrupt, len(val))
	}
	ids := make([]NodeID, len(val)/8)
	for i := range ids {
		ids[i] = binary.BigEndian.Uint64(val[i*8:])
	}
	return ids, nil
}

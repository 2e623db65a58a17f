// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"path/filepath"

	"github.com/ethereum/go-ethereum/core/rawdb"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/ethdb/leveldb"
	"github.com/ethereum/go-ethereum/triedb"
	"github.com/pkg/errors"
	"github.com/vechain/vmcore/kv"
	"github.com/vechain/vmcore/lvldb"
	"github.com/vechain/vmcore/thor"
)

const (
	codeBucket = kv.Bucket("c")
	metaBucket = kv.Bucket("m")
)

var headKey = []byte("head")

// Database bundles the backends of the state: trie nodes and contract code.
type Database struct {
	disk  ethdb.Database
	nodes *triedb.Database
	kv    *lvldb.LevelDB
	code  kv.Store
	meta  kv.Store
}

// NewMemDatabase creates a database held entirely in memory.
func NewMemDatabase() *Database {
	ldb, err := lvldb.NewMem()
	if err != nil {
		panic(err) // memory storage never fails to open
	}
	return newDatabase(rawdb.NewMemoryDatabase(), ldb)
}

// OpenDatabase opens or creates a persistent database under dir.
func OpenDatabase(dir string, opts lvldb.Options) (*Database, error) {
	nodeDB, err := leveldb.New(filepath.Join(dir, "trie"), opts.CacheSize, opts.OpenFilesCacheCapacity, "", false)
	if err != nil {
		return nil, errors.Wrap(err, "open trie database")
	}
	ldb, err := lvldb.New(filepath.Join(dir, "code"), opts)
	if err != nil {
		nodeDB.Close()
		return nil, err
	}
	return newDatabase(rawdb.NewDatabase(nodeDB), ldb), nil
}

func newDatabase(disk ethdb.Database, ldb *lvldb.LevelDB) *Database {
	return &Database{
		disk:  disk,
		nodes: triedb.NewDatabase(disk, nil),
		kv:    ldb,
		code:  codeBucket.NewStore(ldb),
		meta:  metaBucket.NewStore(ldb),
	}
}

// CodeStore returns the content-addressed code store.
func (db *Database) CodeStore() kv.Store {
	return db.code
}

// Head returns the last root recorded by SetHead, zero if none.
func (db *Database) Head() (thor.Bytes32, error) {
	v, err := db.meta.Get(headKey)
	if err != nil {
		if db.meta.IsNotFound(err) {
			return thor.Bytes32{}, nil
		}
		return thor.Bytes32{}, &Error{err}
	}
	return thor.BytesToBytes32(v), nil
}

// SetHead records root as the latest flushed state root.
func (db *Database) SetHead(root thor.Bytes32) error {
	if err := db.meta.Put(headKey, root[:]); err != nil {
		return &Error{err}
	}
	return nil
}

// Close closes all backends.
func (db *Database) Close() error {
	var first error
	for _, closer := range []func() error{db.nodes.Close, db.disk.Close, db.kv.Close} {
		if err := closer(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package lvldb implements kv.Store on goleveldb.
package lvldb

import (
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/vechain/vmcore/kv"
)

var _ kv.Store = (*LevelDB)(nil)

const minCache = 16

// Options of a level db instance.
type Options struct {
	CacheSize              int  // MiB shared by the block cache and write buffers
	OpenFilesCacheCapacity int  // open table files kept
	Sync                   bool // fsync every write
}

func (o Options) leveldb() *opt.Options {
	cache := max(o.CacheSize, minCache)
	return &opt.Options{
		OpenFilesCacheCapacity: max(o.OpenFilesCacheCapacity, minCache),
		BlockCacheCapacity:     cache / 2 * opt.MiB,
		WriteBuffer:            cache / 4 * opt.MiB, // two are used internally
		Filter:                 filter.NewBloomFilter(10),
	}
}

// LevelDB is a kv.Store backed by level db.
type LevelDB struct {
	db       *leveldb.DB
	writeOpt *opt.WriteOptions
}

// New opens the level db at path, creating it if absent.
func New(path string, opts Options) (*LevelDB, error) {
	stg, err := storage.OpenFile(path, false)
	if err != nil {
		return nil, errors.Wrapf(err, "open level db storage [%v]", path)
	}
	return open(stg, opts)
}

// NewMem creates a level db held in memory.
func NewMem() (*LevelDB, error) {
	return open(storage.NewMemStorage(), Options{})
}

func open(stg storage.Storage, opts Options) (*LevelDB, error) {
	db, err := leveldb.Open(stg, opts.leveldb())
	if err != nil {
		stg.Close()
		return nil, errors.Wrap(err, "open level db")
	}
	return &LevelDB{db, &opt.WriteOptions{Sync: opts.Sync}}, nil
}

// IsNotFound reports whether err returned by Get means the key is absent.
func (ldb *LevelDB) IsNotFound(err error) bool {
	return errors.Is(err, leveldb.ErrNotFound)
}

// Get returns the value of key, or an error matched by IsNotFound if absent.
func (ldb *LevelDB) Get(key []byte) ([]byte, error) {
	return ldb.db.Get(key, nil)
}

func (ldb *LevelDB) Has(key []byte) (bool, error) {
	return ldb.db.Has(key, nil)
}

func (ldb *LevelDB) Put(key, value []byte) error {
	return ldb.db.Put(key, value, ldb.writeOpt)
}

func (ldb *LevelDB) Delete(key []byte) error {
	return ldb.db.Delete(key, ldb.writeOpt)
}

// Close closes the db. Any later operation fails.
func (ldb *LevelDB) Close() error {
	return ldb.db.Close()
}

// Bulk returns a bulk whose ops take effect together on Write.
func (ldb *LevelDB) Bulk() kv.Bulk {
	return &bulk{ldb: ldb}
}

type bulk struct {
	ldb   *LevelDB
	batch leveldb.Batch
}

func (b *bulk) Put(key, value []byte) error {
	b.batch.Put(key, value)
	return nil
}

func (b *bulk) Delete(key []byte) error {
	b.batch.Delete(key)
	return nil
}

func (b *bulk) Len() int { return b.batch.Len() }

// Write applies the ops and empties the bulk, so it can be reused.
func (b *bulk) Write() error {
	if err := b.ldb.db.Write(&b.batch, b.ldb.writeOpt); err != nil {
		return err
	}
	b.batch.Reset()
	return nil
}

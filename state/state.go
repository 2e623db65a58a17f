// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"fmt"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/ethereum/go-ethereum/trie"
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
	"github.com/vechain/vmcore/stackedmap"
	"github.com/vechain/vmcore/thor"
)

// Error is the error caused by state access failure.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state: %v", e.cause)
}

// Cause returns the underlying failure.
func (e *Error) Cause() error {
	return e.cause
}

// Options tunes a State.
type Options struct {
	CodeCacheSize    int  // entries of the code cache
	CheckConsistency bool // cross check cached accounts against the trie on read
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{
		CodeCacheSize:    512,
		CheckConsistency: true,
	}
}

// State manages the world state.
// It keeps two views of the accounts: the trie, which yields the root, and a
// stacked map, which serves reads. Every write goes to both, and both are
// checkpointed, committed and reverted together.
type State struct {
	db        *Database
	opts      Options
	trie      *trie.Trie                  // accounts trie, always up to date
	snapshots []*trie.Trie                // trie copies taken at each open checkpoint
	sm        *stackedmap.StackedMap      // keeps revisions of accounts
	storage   map[thor.Bytes32]*trie.Trie // live storage tries by root, never mutated once stored
	codeCache *lru.ARCCache
	logger    log.Logger
}

// New creates a state rooted at root. The zero root denotes the empty state.
func New(db *Database, root thor.Bytes32, opts Options) (*State, error) {
	t, err := openTrie(db.nodes, root)
	if err != nil {
		return nil, &Error{err}
	}
	if opts.CodeCacheSize <= 0 {
		opts.CodeCacheSize = DefaultOptions().CodeCacheSize
	}
	codeCache, err := lru.NewARC(opts.CodeCacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "code cache")
	}
	s := &State{
		db:        db,
		opts:      opts,
		trie:      t,
		codeCache: codeCache,
		logger:    log.New("pkg", "state"),
	}
	s.reset()
	return s, nil
}

func (s *State) reset() {
	s.snapshots = nil
	s.storage = make(map[thor.Bytes32]*trie.Trie)
	s.sm = stackedmap.New(func(key any) (any, bool, error) {
		acc, err := s.getFromTrie(key.(thor.Address))
		if err != nil {
			return nil, false, err
		}
		return acc, acc != nil, nil
	})
	s.sm.Push()
}

func accountKey(addr thor.Address) []byte {
	h := thor.Keccak256(addr[:])
	return h[:]
}

func (s *State) getFromTrie(addr thor.Address) (*Account, error) {
	data, err := s.trie.Get(accountKey(addr))
	if err != nil {
		return nil, &Error{errors.Wrapf(err, "get account %v", addr)}
	}
	if len(data) == 0 {
		return nil, nil
	}
	acc, err := DecodeAccount(data)
	if err != nil {
		return nil, &Error{errors.Wrapf(err, "decode account %v", addr)}
	}
	return acc, nil
}

// Get returns a copy of the account at addr, or nil if it doesn't exist.
// When consistency checking is on, a cached account is compared with the trie,
// and any divergence panics.
func (s *State) Get(addr thor.Address) (*Account, error) {
	metricAccountOps().AddWithLabel(1, map[string]string{"op": "get"})

	v, _, err := s.sm.Get(addr)
	if err != nil {
		return nil, err
	}
	acc, _ := v.(*Account)

	if s.opts.CheckConsistency {
		if _, cached := s.sm.Peek(addr); cached {
			fromTrie, err := s.getFromTrie(addr)
			if err != nil {
				return nil, err
			}
			if !acc.Equal(fromTrie) {
				panic(fmt.Sprintf("state: cache and trie diverge at %v: cache %v, trie %v", addr, acc, fromTrie))
			}
		}
	}
	return acc.Copy(), nil
}

// Put writes acc at addr into both views.
func (s *State) Put(addr thor.Address, acc *Account) error {
	metricAccountOps().AddWithLabel(1, map[string]string{"op": "put"})

	data, err := acc.Encode()
	if err != nil {
		return &Error{errors.Wrapf(err, "encode account %v", addr)}
	}
	if err := s.trie.Update(accountKey(addr), data); err != nil {
		return &Error{errors.Wrapf(err, "put account %v", addr)}
	}
	s.sm.Put(addr, acc.Copy())
	return nil
}

// Delete removes the account at addr from both views.
func (s *State) Delete(addr thor.Address) error {
	metricAccountOps().AddWithLabel(1, map[string]string{"op": "delete"})

	if err := s.trie.Delete(accountKey(addr)); err != nil {
		return &Error{errors.Wrapf(err, "delete account %v", addr)}
	}
	s.sm.Put(addr, (*Account)(nil))
	return nil
}

// Checkpoint opens a nested checkpoint and returns the depth before it.
func (s *State) Checkpoint() int {
	s.snapshots = append(s.snapshots, s.trie.Copy())
	s.sm.Push()
	return len(s.snapshots) - 1
}

// Commit folds changes since the last checkpoint into its parent.
// It panics if no checkpoint is open.
func (s *State) Commit() {
	if len(s.snapshots) == 0 {
		panic("state: commit without checkpoint")
	}
	s.snapshots = s.snapshots[:len(s.snapshots)-1]
	s.sm.Squash()
}

// Revert discards changes since the last checkpoint.
// It panics if no checkpoint is open.
func (s *State) Revert() {
	if len(s.snapshots) == 0 {
		panic("state: revert without checkpoint")
	}
	n := len(s.snapshots) - 1
	s.trie = s.snapshots[n]
	s.snapshots = s.snapshots[:n]
	s.sm.Pop()
}

// Depth returns the count of open checkpoints.
func (s *State) Depth() int {
	return len(s.snapshots)
}

// Root returns the root of the accounts trie, including uncommitted changes.
// The empty state has the zero root.
func (s *State) Root() thor.Bytes32 {
	h := s.trie.Hash()
	if h == types.EmptyRootHash {
		return thor.Bytes32{}
	}
	return thor.Bytes32(h)
}

// GetCode returns code by its hash. The zero hash yields nil.
func (s *State) GetCode(hash thor.Bytes32) ([]byte, error) {
	if hash.IsZero() {
		return nil, nil
	}
	if code, ok := s.codeCache.Get(hash); ok {
		return code.([]byte), nil
	}
	code, err := LoadCode(s.db.code, hash)
	if err != nil {
		return nil, err
	}
	s.codeCache.Add(hash, code)
	return code, nil
}

// StoreCode stores code in the content-addressed code store and returns its hash.
func (s *State) StoreCode(code []byte) (thor.Bytes32, error) {
	hash, err := StoreCode(s.db.code, code)
	if err != nil {
		return thor.Bytes32{}, err
	}
	if !hash.IsZero() {
		s.codeCache.Add(hash, append([]byte(nil), code...))
	}
	return hash, nil
}

func (s *State) storageTrie(root thor.Bytes32) (*trie.Trie, error) {
	if isEmptyRoot(root) {
		return trie.NewEmpty(s.db.nodes), nil
	}
	if t, ok := s.storage[root]; ok {
		return t, nil
	}
	t, err := openTrie(s.db.nodes, root)
	if err != nil {
		return nil, &Error{err}
	}
	s.storage[root] = t
	return t, nil
}

// GetStorage returns the value at key of the storage trie with the given root.
func (s *State) GetStorage(root thor.Bytes32, key thor.Bytes32) (thor.Bytes32, error) {
	t, err := s.storageTrie(root)
	if err != nil {
		return thor.Bytes32{}, err
	}
	hk := thor.Keccak256(key[:])
	enc, err := t.Get(hk[:])
	if err != nil {
		return thor.Bytes32{}, &Error{errors.Wrapf(err, "get storage %v", key.AbbrevString())}
	}
	if len(enc) == 0 {
		return thor.Bytes32{}, nil
	}
	content, _, err := rlp.SplitString(enc)
	if err != nil {
		return thor.Bytes32{}, &Error{errors.Wrapf(err, "decode storage %v", key.AbbrevString())}
	}
	return thor.BytesToBytes32(content), nil
}

// SetStorage writes value at key into the storage of acc, and points acc.StorageRoot
// at the resulting trie. The zero value deletes the slot.
// acc itself is not written to the state.
func (s *State) SetStorage(acc *Account, key, value thor.Bytes32) error {
	base, err := s.storageTrie(acc.StorageRoot)
	if err != nil {
		return err
	}
	t := base.Copy()
	hk := thor.Keccak256(key[:])
	if value.IsZero() {
		err = t.Delete(hk[:])
	} else {
		var enc []byte
		if enc, err = rlp.EncodeToBytes(value.TrimmedBytes()); err == nil {
			err = t.Update(hk[:], enc)
		}
	}
	if err != nil {
		return &Error{errors.Wrapf(err, "set storage %v", key.AbbrevString())}
	}

	h := t.Hash()
	if h == types.EmptyRootHash {
		acc.StorageRoot = thor.Bytes32{}
		return nil
	}
	root := thor.Bytes32(h)
	if _, ok := s.storage[root]; !ok {
		s.storage[root] = t
	}
	acc.StorageRoot = root
	return nil
}

// StorageView is a read-only view of one storage trie.
type StorageView struct {
	state *State
	root  thor.Bytes32
}

// StorageView returns the view of the storage trie with the given root.
func (s *State) StorageView(root thor.Bytes32) StorageView {
	return StorageView{s, root}
}

// Root returns the root the view reads.
func (v StorageView) Root() thor.Bytes32 { return v.root }

// Get returns the value at key.
func (v StorageView) Get(key thor.Bytes32) (thor.Bytes32, error) {
	return v.state.GetStorage(v.root, key)
}

// Flush persists the state into the node database and returns the state root.
// It must not be called while a checkpoint is open. The state is reopened at the
// returned root afterwards.
func (s *State) Flush() (thor.Bytes32, error) {
	if len(s.snapshots) > 0 {
		return thor.Bytes32{}, &Error{errors.Errorf("flush with %d open checkpoints", len(s.snapshots))}
	}

	// storage tries of the touched accounts
	flushed := make(map[thor.Bytes32]bool)
	var err error
	s.sm.Journal(func(key, _ any) bool {
		var acc *Account
		if acc, err = s.Get(key.(thor.Address)); err != nil {
			return false
		}
		if acc == nil || acc.StorageRoot.IsZero() || flushed[acc.StorageRoot] {
			return true
		}
		flushed[acc.StorageRoot] = true
		if t, ok := s.storage[acc.StorageRoot]; ok {
			if _, err = commitTrie(s.db.nodes, t); err != nil {
				return false
			}
		}
		return true
	})
	if err != nil {
		return thor.Bytes32{}, &Error{errors.WithMessage(err, "flush storage")}
	}

	root, err := commitTrie(s.db.nodes, s.trie)
	if err != nil {
		return thor.Bytes32{}, &Error{errors.WithMessage(err, "flush accounts")}
	}
	if root == thor.Bytes32(types.EmptyRootHash) {
		root = thor.Bytes32{}
	}
	t, err := openTrie(s.db.nodes, root)
	if err != nil {
		return thor.Bytes32{}, &Error{err}
	}
	s.trie = t
	s.reset()

	metricAccountOps().AddWithLabel(1, map[string]string{"op": "flush"})
	s.logger.Debug("state flushed", "root", root, "storageTries", len(flushed))
	return root, nil
}

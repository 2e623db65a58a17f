// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"math/big"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vechain/vmcore/lvldb"
	"github.com/vechain/vmcore/thor"
)

func newTestState(t *testing.T) *State {
	st, err := New(NewMemDatabase(), thor.Bytes32{}, DefaultOptions())
	require.NoError(t, err)
	return st
}

func accountWithBalance(b int64) *Account {
	return &Account{Balance: big.NewInt(b)}
}

func TestStateGetPutDelete(t *testing.T) {
	st := newTestState(t)
	addr := thor.BytesToAddress([]byte("acc1"))

	acc, err := st.Get(addr)
	require.NoError(t, err)
	assert.Nil(t, acc, "absent account")
	assert.True(t, st.Root().IsZero())

	require.NoError(t, st.Put(addr, accountWithBalance(100)))
	acc, err = st.Get(addr)
	require.NoError(t, err)
	assert.Equal(t, int64(100), acc.Balance.Int64())
	assert.False(t, st.Root().IsZero())

	// mutating the returned account does not touch the state
	acc.Balance.SetInt64(1)
	acc, err = st.Get(addr)
	require.NoError(t, err)
	assert.Equal(t, int64(100), acc.Balance.Int64())

	require.NoError(t, st.Delete(addr))
	acc, err = st.Get(addr)
	require.NoError(t, err)
	assert.Nil(t, acc)
	assert.True(t, st.Root().IsZero())
}

func TestCheckpoint(t *testing.T) {
	st := newTestState(t)
	addr := thor.BytesToAddress([]byte("acc1"))
	balance := func() int64 {
		acc, err := st.Get(addr)
		require.NoError(t, err)
		if acc == nil {
			return -1
		}
		return acc.Balance.Int64()
	}

	require.NoError(t, st.Put(addr, accountWithBalance(1)))
	root1 := st.Root()

	assert.Equal(t, 0, st.Checkpoint())
	require.NoError(t, st.Put(addr, accountWithBalance(2)))

	assert.Equal(t, 1, st.Checkpoint())
	require.NoError(t, st.Put(addr, accountWithBalance(3)))
	assert.Equal(t, 2, st.Depth())

	st.Revert()
	assert.Equal(t, int64(2), balance())

	assert.Equal(t, 1, st.Checkpoint())
	require.NoError(t, st.Delete(addr))
	assert.Equal(t, int64(-1), balance())
	st.Commit()
	assert.Equal(t, int64(-1), balance(), "commit keeps the delete")

	st.Revert()
	assert.Equal(t, int64(1), balance())
	assert.Equal(t, root1, st.Root(), "trie view is reverted too")
	assert.Equal(t, 0, st.Depth())
}

func TestCheckpointUnbalanced(t *testing.T) {
	st := newTestState(t)
	assert.Panics(t, st.Commit)
	assert.Panics(t, st.Revert)
}

func TestConsistencyCheck(t *testing.T) {
	st := newTestState(t)
	addr := thor.BytesToAddress([]byte("acc1"))
	require.NoError(t, st.Put(addr, accountWithBalance(1)))

	// write the trie behind the cache's back
	data, err := accountWithBalance(2).Encode()
	require.NoError(t, err)
	require.NoError(t, st.trie.Update(accountKey(addr), data))

	assert.Panics(t, func() { _, _ = st.Get(addr) })

	st.opts.CheckConsistency = false
	acc, err := st.Get(addr)
	require.NoError(t, err)
	assert.Equal(t, int64(1), acc.Balance.Int64(), "reads are served from the cache")
}

func TestStorage(t *testing.T) {
	st := newTestState(t)
	key1 := thor.BytesToBytes32([]byte("key1"))
	key2 := thor.BytesToBytes32([]byte("key2"))
	acc := NewAccount()

	require.NoError(t, st.SetStorage(acc, key1, thor.BytesToBytes32([]byte{1})))
	root1 := acc.StorageRoot
	assert.False(t, root1.IsZero())

	require.NoError(t, st.SetStorage(acc, key2, thor.BytesToBytes32([]byte{2})))
	root2 := acc.StorageRoot
	assert.NotEqual(t, root1, root2)

	v, err := st.GetStorage(root2, key1)
	require.NoError(t, err)
	assert.Equal(t, thor.BytesToBytes32([]byte{1}), v)

	// the older root still sees the older storage
	v, err = st.StorageView(root1).Get(key2)
	require.NoError(t, err)
	assert.True(t, v.IsZero())

	// zero value deletes the slot, and an emptied trie has the zero root
	require.NoError(t, st.SetStorage(acc, key1, thor.Bytes32{}))
	require.NoError(t, st.SetStorage(acc, key2, thor.Bytes32{}))
	assert.True(t, acc.StorageRoot.IsZero())
}

func TestCode(t *testing.T) {
	st := newTestState(t)
	code := []byte{0x60, 0x00, 0x60, 0x00}

	hash, err := st.StoreCode(code)
	require.NoError(t, err)
	got, err := st.GetCode(hash)
	require.NoError(t, err)
	assert.Equal(t, code, got)

	hash, err = st.StoreCode(nil)
	require.NoError(t, err)
	assert.True(t, hash.IsZero())
}

func TestFlush(t *testing.T) {
	dir := t.TempDir()
	db, err := OpenDatabase(filepath.Join(dir, "state"), lvldb.Options{CacheSize: 16, OpenFilesCacheCapacity: 16})
	require.NoError(t, err)

	st, err := New(db, thor.Bytes32{}, DefaultOptions())
	require.NoError(t, err)

	addr1 := thor.BytesToAddress([]byte("acc1"))
	addr2 := thor.BytesToAddress([]byte("acc2"))
	key := thor.BytesToBytes32([]byte("key"))
	value := thor.BytesToBytes32([]byte("value"))

	acc := accountWithBalance(7)
	require.NoError(t, st.SetStorage(acc, key, value))
	acc.CodeHash, err = st.StoreCode([]byte{0x00})
	require.NoError(t, err)
	require.NoError(t, st.Put(addr1, acc))
	require.NoError(t, st.Put(addr2, accountWithBalance(9)))

	st.Checkpoint()
	_, err = st.Flush()
	assert.Error(t, err, "flush with open checkpoint")
	st.Commit()

	expected := st.Root()
	root, err := st.Flush()
	require.NoError(t, err)
	assert.Equal(t, expected, root)
	require.NoError(t, db.SetHead(root))
	require.NoError(t, db.Close())

	db, err = OpenDatabase(filepath.Join(dir, "state"), lvldb.Options{CacheSize: 16, OpenFilesCacheCapacity: 16})
	require.NoError(t, err)
	defer db.Close()

	head, err := db.Head()
	require.NoError(t, err)
	assert.Equal(t, root, head)

	reopened, err := New(db, head, DefaultOptions())
	require.NoError(t, err)

	got, err := reopened.Get(addr1)
	require.NoError(t, err)
	assert.True(t, acc.Equal(got))

	v, err := reopened.GetStorage(got.StorageRoot, key)
	require.NoError(t, err)
	assert.Equal(t, value, v)

	code, err := reopened.GetCode(got.CodeHash)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00}, code)

	got, err = reopened.Get(addr2)
	require.NoError(t, err)
	assert.Equal(t, int64(9), got.Balance.Int64())
}

func TestOpenUnknownRoot(t *testing.T) {
	_, err := New(NewMemDatabase(), thor.Keccak256([]byte("nowhere")), DefaultOptions())
	assert.Error(t, err)
}

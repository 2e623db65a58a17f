// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/trie"
	"github.com/ethereum/go-ethereum/trie/trienode"
	"github.com/ethereum/go-ethereum/triedb"
	"github.com/pkg/errors"
	"github.com/vechain/vmcore/thor"
)

// isEmptyRoot returns whether root denotes a trie without entries.
func isEmptyRoot(root thor.Bytes32) bool {
	return root.IsZero() || common.Hash(root) == types.EmptyRootHash
}

// openTrie opens the trie with the given root from the node database.
// Roots not yet flushed can't be opened.
func openTrie(db *triedb.Database, root thor.Bytes32) (*trie.Trie, error) {
	if isEmptyRoot(root) {
		return trie.NewEmpty(db), nil
	}
	t, err := trie.New(trie.TrieID(common.Hash(root)), db)
	if err != nil {
		return nil, errors.Wrapf(err, "open trie %v", root.AbbrevString())
	}
	return t, nil
}

// commitTrie writes all dirty nodes of t into the node database and flushes them to disk.
// t stays usable, since a copy is committed.
func commitTrie(db *triedb.Database, t *trie.Trie) (thor.Bytes32, error) {
	root, nodes := t.Copy().Commit(false)
	if root == types.EmptyRootHash {
		return thor.Bytes32(root), nil
	}
	if nodes != nil {
		if err := db.Update(root, types.EmptyRootHash, 0, trienode.NewWithNodeSet(nodes), nil); err != nil {
			return thor.Bytes32{}, errors.Wrap(err, "update trie nodes")
		}
	}
	if err := db.Commit(root, false); err != nil {
		return thor.Bytes32{}, errors.Wrap(err, "commit trie nodes")
	}
	return thor.Bytes32(root), nil
}

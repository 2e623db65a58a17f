// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package state manages the accounts trie.
// It follows the flow as below:
//
//	          o
//	          |
//	  [ checkpointable state ]
//	     /               \
//	[ stacked map ]   [ accounts trie ] <- [ trie copies per checkpoint ]
//	     \               /
//	      [ node database ] -> Flush
//
// Both views receive every write, and checkpoint/commit/revert together.
// The stacked map serves reads, the trie yields the root.
//
// Contract storage lives in separate tries addressed by their roots, so an
// account's StorageRoot fully determines its storage. Restoring the root
// restores the storage.
package state

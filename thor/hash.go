// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package thor

import (
	"hash"
	"io"
	"sync"

	"golang.org/x/crypto/sha3"
)

// keccakState wraps sha3.state. In addition to the usual hash methods, it also supports
// Read to get a variable amount of data from the hash state. Read is faster than Sum
// because it doesn't copy the internal state, but also modifies the internal state.
type keccakState interface {
	hash.Hash
	Read([]byte) (int, error)
}

type keccak256 struct {
	state keccakState
	b32   Bytes32
}

var keccak256Pool = sync.Pool{
	New: func() any {
		return &keccak256{
			state: sha3.NewLegacyKeccak256().(keccakState),
		}
	},
}

// Keccak256 computes the legacy keccak-256 checksum of the concatenated data.
func Keccak256(data ...[]byte) Bytes32 {
	return Keccak256Fn(func(w io.Writer) {
		for _, b := range data {
			w.Write(b)
		}
	})
}

// Keccak256Fn computes keccak-256 checksum of everything fn writes.
func Keccak256Fn(fn func(w io.Writer)) (h Bytes32) {
	hasher := keccak256Pool.Get().(*keccak256)

	fn(hasher.state)
	hasher.state.Read(hasher.b32[:])
	h = hasher.b32

	hasher.state.Reset()
	keccak256Pool.Put(hasher)
	return
}

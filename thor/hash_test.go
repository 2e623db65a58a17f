// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package thor

import (
	"io"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
)

func BenchmarkKeccak256(b *testing.B) {
	data := make([]byte, 100)
	for i := 0; i < b.N; i++ {
		Keccak256(data)
	}
}

func TestKeccak256(t *testing.T) {
	assert.Equal(t,
		MustParseBytes32("0xc5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470"),
		Keccak256())

	parts := [][]byte{[]byte("multi"), []byte("ple"), []byte("data")}
	assert.Equal(t, Bytes32(crypto.Keccak256Hash([]byte("multipledata"))), Keccak256(parts...))
	assert.NotEqual(t, Keccak256([]byte("data")), Keccak256(parts...))
}

func TestKeccak256Fn(t *testing.T) {
	h := Keccak256Fn(func(w io.Writer) {
		w.Write([]byte("custom writer"))
	})
	assert.Equal(t, Keccak256([]byte("custom writer")), h)
}

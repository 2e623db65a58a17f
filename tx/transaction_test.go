// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tx_test

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vechain/vmcore/thor"
	"github.com/vechain/vmcore/tx"
)

func TestBuildAndSign(t *testing.T) {
	pk, err := crypto.GenerateKey()
	require.NoError(t, err)
	sender := thor.Address(crypto.PubkeyToAddress(pk.PublicKey))
	to := thor.BytesToAddress([]byte("to"))

	trx := tx.NewBuilder().
		Nonce(3).
		GasPrice(big.NewInt(2)).
		Gas(50_000).
		To(&to).
		Value(big.NewInt(100)).
		Data([]byte{0, 1, 2}).
		Build()

	_, err = trx.Origin()
	assert.Error(t, err, "unsigned")

	signed := tx.MustSign(trx, pk)
	origin, err := signed.Origin()
	require.NoError(t, err)
	assert.Equal(t, sender, origin)

	assert.Equal(t, trx.SigningHash(), signed.SigningHash(), "signature is not part of the signing hash")
	assert.NotEqual(t, trx.ID(), signed.ID())

	assert.Equal(t, uint64(3), signed.Nonce())
	assert.Equal(t, &to, signed.To())
	assert.False(t, signed.IsCreation())
	assert.Equal(t, []byte{0, 1, 2}, signed.Data())
	assert.Len(t, signed.Signature(), crypto.SignatureLength)

	// 50000 * 2 + 100
	assert.Equal(t, big.NewInt(100_100), signed.UpfrontCost())
	// one zero byte, two non-zero
	assert.Equal(t, thor.TxGas+thor.TxDataZeroGas+2*thor.TxDataNonZeroGas, signed.IntrinsicGas())
	assert.Equal(t, uint64(21_000+4+136), signed.IntrinsicGas())
}

func TestRLP(t *testing.T) {
	pk, err := crypto.GenerateKey()
	require.NoError(t, err)

	for _, to := range []*thor.Address{nil, {1, 2, 3}} {
		trx := tx.MustSign(tx.NewBuilder().Nonce(1).Gas(21000).To(to).Value(big.NewInt(5)).Build(), pk)

		data, err := rlp.EncodeToBytes(trx)
		require.NoError(t, err)

		var decoded tx.Transaction
		require.NoError(t, rlp.DecodeBytes(data, &decoded))
		assert.Equal(t, trx.ID(), decoded.ID())
		assert.Equal(t, to == nil, decoded.IsCreation())

		o1, err := trx.Origin()
		require.NoError(t, err)
		o2, err := decoded.Origin()
		require.NoError(t, err)
		assert.Equal(t, o1, o2)
	}
}

func TestTamperedSignature(t *testing.T) {
	pk, err := crypto.GenerateKey()
	require.NoError(t, err)
	sender := thor.Address(crypto.PubkeyToAddress(pk.PublicKey))

	signed := tx.MustSign(tx.NewBuilder().Gas(21000).Build(), pk)
	sig := signed.Signature()
	sig[10] ^= 0xff

	origin, err := signed.WithSignature(sig).Origin()
	if err == nil {
		assert.NotEqual(t, sender, origin)
	}

	_, err = signed.WithSignature(sig[:10]).Origin()
	assert.Error(t, err)
}

func TestDefaults(t *testing.T) {
	trx := tx.NewBuilder().Build()
	assert.True(t, trx.IsCreation())
	assert.Nil(t, trx.To())
	assert.Zero(t, trx.GasPrice().Sign())
	assert.Zero(t, trx.Value().Sign())
	assert.Equal(t, thor.TxGas, trx.IntrinsicGas())
	assert.Zero(t, trx.UpfrontCost().Sign())
}

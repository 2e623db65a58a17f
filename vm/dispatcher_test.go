// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package vm

import (
	"crypto/sha256"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vechain/vmcore/state"
	"github.com/vechain/vmcore/thor"
)

func precompiledContext(tag byte, data []byte, gas uint64) *Context {
	return &Context{
		Mode:     ModePrecompiled,
		Data:     data,
		GasLimit: gas,
		GasPrice: big.NewInt(1),
		Account:  state.NewAccount(),
		Address:  thor.BytesToAddress([]byte{tag}),
		Value:    new(big.Int),
	}
}

func TestDispatcherPrecompiled(t *testing.T) {
	d := NewDispatcher(nil)
	data := []byte("hello")

	// identity: 15 + 3 per word
	out, err := d.Run(precompiledContext(4, data, 100))
	require.NoError(t, err)
	assert.True(t, out.Succeeded())
	assert.Equal(t, StatusSuccess, out.Status())
	assert.Equal(t, data, out.ReturnValue)
	assert.Equal(t, uint64(18), out.GasUsed)

	// sha256: 60 + 12 per word
	out, err = d.Run(precompiledContext(2, data, 100))
	require.NoError(t, err)
	sum := sha256.Sum256(data)
	assert.Equal(t, sum[:], out.ReturnValue)
	assert.Equal(t, uint64(72), out.GasUsed)

	out, err = d.Run(precompiledContext(2, data, 71))
	require.NoError(t, err)
	assert.ErrorIs(t, out.Err, ErrOutOfGas)
	assert.Equal(t, StatusException, out.Status())
	assert.Equal(t, uint64(71), out.GasUsed, "exceptions consume all gas")
	assert.Nil(t, out.ReturnValue)
}

func TestDispatcherInterpreted(t *testing.T) {
	ctx := &Context{Mode: ModeInterpreted, GasLimit: 1000, Account: state.NewAccount()}

	out, err := NewDispatcher(nil).Run(ctx)
	require.NoError(t, err)
	assert.ErrorIs(t, out.Err, ErrNoInterpreter)
	assert.Equal(t, uint64(1000), out.GasUsed)

	var seen *Context
	d := NewDispatcher(InterpreterFunc(func(ctx *Context) (*Output, error) {
		seen = ctx
		return &Output{Account: ctx.Account, GasUsed: 7, ReturnValue: []byte{1}}, nil
	}))
	out, err = d.Run(ctx)
	require.NoError(t, err)
	assert.Same(t, ctx, seen)
	assert.Equal(t, uint64(7), out.GasUsed)
	assert.True(t, out.Succeeded())

	// precompiled mode never reaches the interpreter
	seen = nil
	_, err = d.Run(precompiledContext(4, nil, 100))
	require.NoError(t, err)
	assert.Nil(t, seen)
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "interpreted", ModeInterpreted.String())
	assert.Equal(t, "precompiled", ModePrecompiled.String())
	assert.Equal(t, "Mode(7)", Mode(7).String())
}

// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tx

import (
	"math/big"

	"github.com/vechain/vmcore/thor"
)

// Builder to make it easy to build transaction.
type Builder struct {
	body body
}

// NewBuilder creates a builder of a contract creation tx with zero value and price.
func NewBuilder() *Builder {
	return &Builder{}
}

// Nonce set nonce.
func (b *Builder) Nonce(nonce uint64) *Builder {
	b.body.Nonce = nonce
	return b
}

// GasPrice set gas price.
func (b *Builder) GasPrice(price *big.Int) *Builder {
	b.body.GasPrice = bigOrZero(price)
	return b
}

// Gas set gas provision for tx.
func (b *Builder) Gas(gas uint64) *Builder {
	b.body.Gas = gas
	return b
}

// To set the recipient. Nil makes a contract creation tx.
func (b *Builder) To(to *thor.Address) *Builder {
	if to == nil {
		b.body.To = nil
	} else {
		cpy := *to
		b.body.To = &cpy
	}
	return b
}

// Value set value to transfer.
func (b *Builder) Value(value *big.Int) *Builder {
	b.body.Value = bigOrZero(value)
	return b
}

// Data set call data or init code.
func (b *Builder) Data(data []byte) *Builder {
	b.body.Data = append([]byte(nil), data...)
	return b
}

// Build build tx object.
func (b *Builder) Build() *Transaction {
	tx := Transaction{body: b.body}
	tx.body.GasPrice = bigOrZero(b.body.GasPrice)
	tx.body.Value = bigOrZero(b.body.Value)
	return &tx
}

// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tx

import (
	"fmt"
	"io"
	"math/big"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"
	"github.com/vechain/vmcore/thor"
)

// Transaction is an immutable tx type.
type Transaction struct {
	body body

	cache struct {
		signingHash atomic.Pointer[thor.Bytes32]
		id          atomic.Pointer[thor.Bytes32]
		origin      atomic.Pointer[thor.Address]
	}
}

// body describes details of a tx.
type body struct {
	Nonce     uint64
	GasPrice  *big.Int
	Gas       uint64
	To        *thor.Address `rlp:"nil"`
	Value     *big.Int
	Data      []byte
	Signature []byte
}

func bigOrZero(b *big.Int) *big.Int {
	if b == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(b)
}

// Nonce returns the nonce the sender account must hold.
func (t *Transaction) Nonce() uint64 {
	return t.body.Nonce
}

// GasPrice returns gas price.
func (t *Transaction) GasPrice() *big.Int {
	return bigOrZero(t.body.GasPrice)
}

// Gas returns gas provision for this tx.
func (t *Transaction) Gas() uint64 {
	return t.body.Gas
}

// To returns the recipient, nil for contract creation.
func (t *Transaction) To() *thor.Address {
	if t.body.To == nil {
		return nil
	}
	cpy := *t.body.To
	return &cpy
}

// IsCreation returns whether the tx deploys a contract.
func (t *Transaction) IsCreation() bool {
	return t.body.To == nil
}

// Value returns the value to transfer.
func (t *Transaction) Value() *big.Int {
	return bigOrZero(t.body.Value)
}

// Data returns the call data, or the init code for contract creation.
func (t *Transaction) Data() []byte {
	return append([]byte(nil), t.body.Data...)
}

// Signature returns signature.
func (t *Transaction) Signature() []byte {
	return append([]byte(nil), t.body.Signature...)
}

// WithSignature create a new tx with signature set.
func (t *Transaction) WithSignature(sig []byte) *Transaction {
	newTx := Transaction{body: t.body}
	newTx.body.Signature = append([]byte(nil), sig...)
	return &newTx
}

// SigningHash returns hash of tx excludes signature.
func (t *Transaction) SigningHash() thor.Bytes32 {
	if cached := t.cache.signingHash.Load(); cached != nil {
		return *cached
	}
	h := thor.Keccak256Fn(func(w io.Writer) {
		rlp.Encode(w, []any{
			t.body.Nonce,
			bigOrZero(t.body.GasPrice),
			t.body.Gas,
			t.body.To,
			bigOrZero(t.body.Value),
			t.body.Data,
		})
	})
	t.cache.signingHash.Store(&h)
	return h
}

// ID returns the hash of the whole tx, signature included.
func (t *Transaction) ID() thor.Bytes32 {
	if cached := t.cache.id.Load(); cached != nil {
		return *cached
	}
	h := thor.Keccak256Fn(func(w io.Writer) {
		rlp.Encode(w, t)
	})
	t.cache.id.Store(&h)
	return h
}

// Origin recovers the sender address from the signature.
func (t *Transaction) Origin() (thor.Address, error) {
	if cached := t.cache.origin.Load(); cached != nil {
		return *cached, nil
	}
	if len(t.body.Signature) != crypto.SignatureLength {
		return thor.Address{}, errors.Errorf("invalid signature length %d", len(t.body.Signature))
	}
	hash := t.SigningHash()
	pub, err := crypto.SigToPub(hash[:], t.body.Signature)
	if err != nil {
		return thor.Address{}, errors.Wrap(err, "recover origin")
	}
	origin := thor.Address(crypto.PubkeyToAddress(*pub))
	t.cache.origin.Store(&origin)
	return origin, nil
}

// IntrinsicGas returns the fixed gas every execution of the tx costs before any code runs.
// It's the base fee plus a charge per byte of data.
func (t *Transaction) IntrinsicGas() uint64 {
	gas := thor.TxGas
	for _, b := range t.body.Data {
		if b == 0 {
			gas += thor.TxDataZeroGas
		} else {
			gas += thor.TxDataNonZeroGas
		}
	}
	return gas
}

// UpfrontCost returns gas * gasPrice + value, the balance the sender must hold.
func (t *Transaction) UpfrontCost() *big.Int {
	cost := new(big.Int).SetUint64(t.body.Gas)
	cost.Mul(cost, bigOrZero(t.body.GasPrice))
	return cost.Add(cost, bigOrZero(t.body.Value))
}

// EncodeRLP implements rlp.Encoder
func (t *Transaction) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, &t.body)
}

// DecodeRLP implements rlp.Decoder
func (t *Transaction) DecodeRLP(s *rlp.Stream) error {
	var body body
	if err := s.Decode(&body); err != nil {
		return err
	}
	*t = Transaction{body: body}
	return nil
}

func (t *Transaction) String() string {
	to := "<create>"
	if t.body.To != nil {
		to = t.body.To.String()
	}
	origin := "N/A"
	if o, err := t.Origin(); err == nil {
		origin = o.String()
	}
	return fmt.Sprintf(`Tx(%v)
	Origin:     %v
	Nonce:      %v
	To:         %v
	Value:      %v
	Gas:        %v
	GasPrice:   %v
	DataLen:    %v`, t.ID().AbbrevString(), origin, t.body.Nonce, to, t.Value(), t.body.Gas, t.GasPrice(), len(t.body.Data))
}

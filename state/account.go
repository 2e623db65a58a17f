// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"encoding/binary"
	"fmt"
	"io"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/vechain/vmcore/thor"
)

// accountFields is the count of fields of the canonical account encoding.
const accountFields = 4

// MalformedAccountError is returned when an encoded account can't be decoded.
type MalformedAccountError struct {
	Fields int   // count of fields found, -1 if the input was not a list of strings
	Cause  error // decoding failure, if any
}

func (e *MalformedAccountError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("malformed account: %v", e.Cause)
	}
	return fmt.Sprintf("malformed account: %d fields, want %d", e.Fields, accountFields)
}

func (e *MalformedAccountError) Unwrap() error { return e.Cause }

// Account is the consensus representation of an account.
// It's stored in the accounts trie as rlp list [nonce, balance, storageRoot, codeHash],
// every field trimmed to its minimal big-endian form.
type Account struct {
	Nonce       uint64
	Balance     *big.Int
	StorageRoot thor.Bytes32 // root of the storage trie, zero for empty storage
	CodeHash    thor.Bytes32 // hash of code, zero (the placeholder) for non-contract
}

// NewAccount returns a fresh account with all fields zero.
func NewAccount() *Account {
	return &Account{Balance: new(big.Int)}
}

// IsContract returns whether the account holds code.
func (a *Account) IsContract() bool {
	return !a.CodeHash.IsZero()
}

// Copy returns a deep copy. Nil in, nil out.
func (a *Account) Copy() *Account {
	if a == nil {
		return nil
	}
	cpy := *a
	cpy.Balance = new(big.Int)
	if a.Balance != nil {
		cpy.Balance.Set(a.Balance)
	}
	return &cpy
}

// Equal reports whether two accounts agree on all four fields.
func (a *Account) Equal(b *Account) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Nonce == b.Nonce &&
		balanceOf(a).Cmp(balanceOf(b)) == 0 &&
		a.StorageRoot == b.StorageRoot &&
		a.CodeHash == b.CodeHash
}

func (a *Account) String() string {
	return fmt.Sprintf("Account(nonce=%d balance=%v storageRoot=%v codeHash=%v)",
		a.Nonce, balanceOf(a), a.StorageRoot.AbbrevString(), a.CodeHash.AbbrevString())
}

func balanceOf(a *Account) *big.Int {
	if a.Balance == nil {
		return new(big.Int)
	}
	return a.Balance
}

// EncodeRLP implements rlp.Encoder.
func (a *Account) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, []any{
		a.Nonce,
		balanceOf(a),
		a.StorageRoot.TrimmedBytes(),
		a.CodeHash.TrimmedBytes(),
	})
}

// Encode returns the canonical encoding of the account.
func (a *Account) Encode() ([]byte, error) {
	return rlp.EncodeToBytes(a)
}

// DecodeAccount decodes an account from its canonical encoding.
// Empty input yields a fresh empty account.
func DecodeAccount(data []byte) (*Account, error) {
	if len(data) == 0 {
		return NewAccount(), nil
	}
	var fields [][]byte
	if err := rlp.DecodeBytes(data, &fields); err != nil {
		return nil, &MalformedAccountError{Fields: -1, Cause: err}
	}
	return AccountFromFields(fields)
}

// AccountFromFields builds an account from the already decoded field list.
// A nil list yields a fresh empty account.
func AccountFromFields(fields [][]byte) (*Account, error) {
	if fields == nil {
		return NewAccount(), nil
	}
	if len(fields) < accountFields {
		return nil, &MalformedAccountError{Fields: len(fields)}
	}
	nonce, balance, storageRoot, codeHash := fields[0], fields[1], fields[2], fields[3]

	if len(nonce) > 8 {
		return nil, &MalformedAccountError{Fields: len(fields), Cause: fmt.Errorf("nonce overflows uint64: %x", nonce)}
	}
	if len(storageRoot) > 32 || len(codeHash) > 32 {
		return nil, &MalformedAccountError{Fields: len(fields), Cause: fmt.Errorf("hash longer than 32 bytes")}
	}

	var buf [8]byte
	copy(buf[8-len(nonce):], nonce)

	return &Account{
		Nonce:       binary.BigEndian.Uint64(buf[:]),
		Balance:     new(big.Int).SetBytes(balance),
		StorageRoot: thor.BytesToBytes32(storageRoot),
		CodeHash:    thor.BytesToBytes32(codeHash),
	}, nil
}

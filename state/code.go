// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"github.com/pkg/errors"
	"github.com/vechain/vmcore/kv"
	"github.com/vechain/vmcore/thor"
)

// StoreCode writes code into store keyed by its keccak256 hash, and returns the hash.
// Storing code that is already present is a no-op. Empty code is never stored, and
// the zero hash (the non-contract placeholder) is returned for it.
func StoreCode(store kv.Store, code []byte) (thor.Bytes32, error) {
	if len(code) == 0 {
		return thor.Bytes32{}, nil
	}
	hash := thor.Keccak256(code)
	has, err := store.Has(hash[:])
	if err != nil {
		return thor.Bytes32{}, &Error{errors.Wrap(err, "check code")}
	}
	if !has {
		if err := store.Put(hash[:], code); err != nil {
			return thor.Bytes32{}, &Error{errors.Wrap(err, "store code")}
		}
		metricAccountOps().AddWithLabel(1, map[string]string{"op": "store_code"})
	}
	return hash, nil
}

// LoadCode reads code by its hash from store.
// It returns nil for the zero hash.
func LoadCode(store kv.Getter, hash thor.Bytes32) ([]byte, error) {
	if hash.IsZero() {
		return nil, nil
	}
	code, err := store.Get(hash[:])
	if err != nil {
		return nil, &Error{errors.Wrapf(err, "load code %v", hash.AbbrevString())}
	}
	return code, nil
}

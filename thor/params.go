// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package thor

import (
	"github.com/ethereum/go-ethereum/params"
)

// Constants of execution.
const (
	TxGas             uint64 = params.TxGas                    // intrinsic gas of every transaction.
	TxDataZeroGas     uint64 = params.TxDataZeroGas            // per zero byte of tx data.
	TxDataNonZeroGas  uint64 = params.TxDataNonZeroGasFrontier // per non-zero byte of tx data.
	CreateDataGas     uint64 = 200                             // per byte of deployed contract code.
	MaxCallDepth             = 1024                            // default bound of nested frames.
	RefundQuotient    uint64 = 2                               // refund is capped to gasUsed / RefundQuotient.
	MaxPrecompiledTag        = 4
)

var precompiledAddresses = func() map[Address]bool {
	m := make(map[Address]bool, MaxPrecompiledTag)
	for i := 1; i <= MaxPrecompiledTag; i++ {
		m[BytesToAddress([]byte{byte(i)})] = true
	}
	return m
}()

// IsPrecompiled returns whether addr is one of the fixed, code-less addresses
// whose code is implemented natively.
func IsPrecompiled(addr Address) bool {
	return precompiledAddresses[addr]
}

// PrecompiledAddresses returns the precompiled addresses in ascending order.
func PrecompiledAddresses() []Address {
	addrs := make([]Address, 0, MaxPrecompiledTag)
	for i := 1; i <= MaxPrecompiledTag; i++ {
		addrs = append(addrs, BytesToAddress([]byte{byte(i)}))
	}
	return addrs
}

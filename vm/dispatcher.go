// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package vm

import (
	"github.com/ethereum/go-ethereum/common"
	gethvm "github.com/ethereum/go-ethereum/core/vm"
	"github.com/ethereum/go-ethereum/log"
	"github.com/vechain/vmcore/thor"
)

// Dispatcher routes a frame by its mode: precompiled frames run natively,
// the others run on the pluggable interpreter.
type Dispatcher struct {
	interpreter Interpreter
	precompiles map[thor.Address]gethvm.PrecompiledContract
	logger      log.Logger
}

// NewDispatcher creates a dispatcher over interpreter, which may be nil when
// only precompiled contracts are expected to run.
func NewDispatcher(interpreter Interpreter) *Dispatcher {
	precompiles := make(map[thor.Address]gethvm.PrecompiledContract)
	for _, addr := range thor.PrecompiledAddresses() {
		if p, ok := gethvm.PrecompiledContractsHomestead[common.Address(addr)]; ok {
			precompiles[addr] = p
		}
	}
	return &Dispatcher{interpreter, precompiles, log.New("pkg", "vm")}
}

// Run implements Interpreter.
func (d *Dispatcher) Run(ctx *Context) (*Output, error) {
	switch ctx.Mode {
	case ModePrecompiled:
		return d.runPrecompiled(ctx), nil
	default:
		if d.interpreter == nil {
			return Exception(ctx, ErrNoInterpreter), nil
		}
		return d.interpreter.Run(ctx)
	}
}

func (d *Dispatcher) runPrecompiled(ctx *Context) *Output {
	p, ok := d.precompiles[ctx.Address]
	if !ok {
		return Exception(ctx, ErrNoInterpreter)
	}
	gas := p.RequiredGas(ctx.Data)
	if gas > ctx.GasLimit {
		return Exception(ctx, ErrOutOfGas)
	}
	ret, err := p.Run(ctx.Data)
	if err != nil {
		d.logger.Debug("precompiled contract failed", "address", ctx.Address, "err", err)
		return Exception(ctx, err)
	}
	return &Output{
		Account:     ctx.Account,
		GasUsed:     gas,
		ReturnValue: ret,
	}
}

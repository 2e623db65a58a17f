// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package runtime

import (
	"math/big"

	"github.com/pkg/errors"
	"github.com/vechain/vmcore/state"
	"github.com/vechain/vmcore/thor"
	"github.com/vechain/vmcore/vm"
)

// frame holds the bookkeeping of one Call.
type frame struct {
	msg     *vm.Message
	value   *big.Int
	caller  *state.Account
	to      thor.Address
	callee  *state.Account
	created *thor.Address
	mode    vm.Mode
	code    []byte
	data    []byte
	output  *vm.Output
}

// isSelfTransfer reports whether value moves from an address to itself,
// in which case balances are left alone.
func (f *frame) isSelfTransfer() bool {
	return f.msg.To != nil && *f.msg.To == f.msg.Caller
}

func (f *frame) hasCode() bool {
	return f.mode == vm.ModePrecompiled || len(f.code) > 0
}

func (f *frame) result() *vm.FrameResult {
	return &vm.FrameResult{
		GasUsed:        f.output.GasUsed,
		Caller:         f.caller,
		Callee:         f.callee,
		CreatedAddress: f.created,
		Output:         f.output,
	}
}

// Call executes one frame: it transfers value, resolves or creates the destination,
// runs its code if any and settles the changes. Exceptions raised by the code are
// reported in the output of the result, and leave the state as if the frame only
// consumed gas. The returned error is fatal, usually a store failure.
func (rt *Runtime) Call(msg *vm.Message) (*vm.FrameResult, error) {
	f := &frame{msg: msg, value: new(big.Int)}
	if msg.Value != nil {
		f.value.Set(msg.Value)
	}

	caller := msg.Account
	if caller == nil {
		var err error
		if caller, err = rt.loadAccount(msg.Caller); err != nil {
			return nil, err
		}
	}
	f.caller = caller

	if msg.Depth > rt.config.MaxCallDepth {
		return rt.reject(f, vm.ErrDepth, "depth"), nil
	}
	if !f.isSelfTransfer() && caller.Balance.Cmp(f.value) < 0 {
		return rt.reject(f, vm.ErrInsufficientBalance, "balance"), nil
	}

	rt.state.Checkpoint()
	if err := rt.execute(f); err != nil {
		rt.state.Revert()
		return nil, err
	}
	if err := rt.settle(f); err != nil {
		return nil, err
	}

	outcome := "success"
	if !f.output.Succeeded() {
		outcome = "exception"
	} else if !f.hasCode() {
		outcome = "transfer"
	}
	metricFrameCount().AddWithLabel(1, map[string]string{"outcome": outcome})
	if f.hasCode() {
		metricFrameGasUsed().ObserveWithLabels(int64(f.output.GasUsed), map[string]string{"mode": f.mode.String()})
	}
	rt.logger.Debug("frame executed",
		"depth", msg.Depth,
		"caller", msg.Caller,
		"to", f.to,
		"mode", f.mode,
		"gasUsed", f.output.GasUsed,
		"status", f.output.Status(),
	)
	return f.result(), nil
}

// reject fails a frame before it starts. The state is not touched and no gas is consumed.
func (rt *Runtime) reject(f *frame, exception error, outcome string) *vm.FrameResult {
	f.output = &vm.Output{Err: exception}
	metricFrameCount().AddWithLabel(1, map[string]string{"outcome": outcome})
	rt.logger.Debug("frame rejected", "depth", f.msg.Depth, "caller", f.msg.Caller, "err", exception)
	return f.result()
}

// execute runs the steps of a frame inside its checkpoint, up to the point the
// checkpoint can be closed.
func (rt *Runtime) execute(f *frame) error {
	st := rt.state

	if !f.isSelfTransfer() {
		f.caller.Balance.Sub(f.caller.Balance, f.value)
	}

	// resolve destination
	if f.msg.To == nil {
		var nonce uint64
		if f.msg.CreationNonce != nil {
			nonce = *f.msg.CreationNonce
		} else {
			nonce = f.caller.Nonce
			f.caller.Nonce++
		}
		addr := thor.CreateContractAddress(f.msg.Caller, nonce)
		f.created = &addr
		f.to = addr
		f.code = f.msg.Data
	} else {
		f.to = *f.msg.To
		f.data = f.msg.Data
	}

	// the caller goes in first, so recursive frames observe it
	if err := st.Put(f.msg.Caller, f.caller); err != nil {
		return err
	}

	callee, err := rt.loadAccount(f.to)
	if err != nil {
		return err
	}
	f.callee = callee

	// load code
	f.mode = vm.ModeInterpreted
	if f.created == nil {
		switch {
		case thor.IsPrecompiled(f.to):
			f.mode = vm.ModePrecompiled
		case f.msg.Code != nil:
			f.code = f.msg.Code
		case f.callee.IsContract():
			if f.code, err = st.GetCode(f.callee.CodeHash); err != nil {
				return err
			}
		}
	}

	// execute
	if !f.isSelfTransfer() {
		f.callee.Balance.Add(f.callee.Balance, f.value)
	}
	if !f.hasCode() {
		f.output = &vm.Output{Account: f.callee}
		return nil
	}

	if err := st.Put(f.to, f.callee); err != nil {
		return err
	}
	var (
		storageRoot = f.callee.StorageRoot
		balance     = new(big.Int).Set(f.callee.Balance)
		nonce       = f.callee.Nonce
	)
	out, err := rt.interpreter.Run(&vm.Context{
		Mode:     f.mode,
		Code:     f.code,
		Data:     f.data,
		GasLimit: f.msg.GasLimit,
		GasPrice: f.msg.GasPrice,
		Account:  f.callee,
		Address:  f.to,
		Origin:   f.msg.Origin,
		Caller:   f.msg.Caller,
		Value:    new(big.Int).Set(f.value),
		Block:    f.msg.Block,
		Depth:    f.msg.Depth,
		Env:      rt,
	})
	if err != nil {
		return errors.WithMessagef(err, "run code at %v", f.to)
	}
	if out == nil {
		return errors.Errorf("no output from code at %v", f.to)
	}
	if out.Account != nil {
		f.callee = out.Account
	}
	out.Account = f.callee
	f.output = out

	// the deploy fee is charged whatever the status, the code is stored on success only
	if f.created != nil {
		fee := out.GasUsed + rt.config.CreateDataGas*uint64(len(out.ReturnValue))
		if fee > f.msg.GasLimit {
			// not enough gas left to pay for the code, deploy nothing
			out.ReturnValue = nil
		} else {
			out.GasUsed = fee
		}
	}

	if !out.Succeeded() {
		f.callee.StorageRoot = storageRoot
		f.callee.Balance = balance
		f.callee.Nonce = nonce
		if !f.isSelfTransfer() {
			f.caller.Balance.Add(f.caller.Balance, f.value)
			f.callee.Balance.Sub(f.callee.Balance, f.value)
		}
		return nil
	}

	if f.created != nil && len(out.ReturnValue) > 0 {
		hash, err := st.StoreCode(out.ReturnValue)
		if err != nil {
			return err
		}
		f.callee.CodeHash = hash
	}
	return nil
}

// settle closes the checkpoint of the frame and writes back the accounts.
func (rt *Runtime) settle(f *frame) error {
	st := rt.state
	if f.output.Succeeded() {
		st.Commit()
	} else {
		st.Revert()
		// the debit of the caller was reverted with the checkpoint, write the restored caller
		if err := st.Put(f.msg.Caller, f.caller); err != nil {
			return err
		}
	}
	return st.Put(f.to, f.callee)
}

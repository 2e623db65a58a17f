// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package runtime

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"github.com/vechain/vmcore/state"
	"github.com/vechain/vmcore/thor"
	"github.com/vechain/vmcore/tx"
	"github.com/vechain/vmcore/vm"
)

// InvalidTransactionError is returned when a transaction is rejected before execution.
// The state is left untouched.
type InvalidTransactionError struct {
	Reason string
}

func (e *InvalidTransactionError) Error() string {
	return "invalid transaction: " + e.Reason
}

func invalidTx(format string, args ...any) error {
	return &InvalidTransactionError{fmt.Sprintf(format, args...)}
}

// Outcome is the result of an executed transaction.
type Outcome struct {
	GasUsed          uint64
	SenderAccount    *state.Account
	RecipientAccount *state.Account
	CreatedAddress   *thor.Address
	Output           *vm.Output
	Bloom            types.Bloom
	AmountSpent      *big.Int
}

// Succeeded returns whether the code ran without exception.
func (o *Outcome) Succeeded() bool {
	return o.Output.Succeeded()
}

// ExecuteTransaction validates trx against the sender's account, runs it as a frame,
// and settles gas and self-destructs. It returns either the outcome or an error:
// *InvalidTransactionError when trx is rejected, any other error is fatal.
func (rt *Runtime) ExecuteTransaction(trx *tx.Transaction, block *vm.Block) (*Outcome, error) {
	outcome, err := rt.executeTransaction(trx, block)
	if err != nil {
		var invalid *InvalidTransactionError
		if errors.As(err, &invalid) {
			metricTxCount().AddWithLabel(1, map[string]string{"result": "invalid"})
			rt.logger.Warn("transaction rejected", "id", trx.ID(), "reason", invalid.Reason)
		}
		return nil, err
	}

	result := "success"
	if !outcome.Succeeded() {
		result = "exception"
	}
	metricTxCount().AddWithLabel(1, map[string]string{"result": result})
	metricTxGasUsed().Observe(int64(outcome.GasUsed))
	rt.logger.Debug("transaction executed", "id", trx.ID(), "gasUsed", outcome.GasUsed, "result", result)
	return outcome, nil
}

func (rt *Runtime) executeTransaction(trx *tx.Transaction, block *vm.Block) (*Outcome, error) {
	if rt.onTx != nil {
		if err := rt.onTx(trx); err != nil {
			return nil, errors.WithMessage(err, "transaction hook")
		}
	}

	origin, err := trx.Origin()
	if err != nil {
		return nil, invalidTx("%v", err)
	}
	sender, err := rt.loadAccount(origin)
	if err != nil {
		return nil, err
	}

	// validate
	var (
		gasLimit     = trx.Gas()
		gasPrice     = trx.GasPrice()
		intrinsicGas = trx.IntrinsicGas()
	)
	if upfront := trx.UpfrontCost(); sender.Balance.Cmp(upfront) < 0 {
		return nil, invalidTx("insufficient balance: have %v, want %v", sender.Balance, upfront)
	}
	if sender.Nonce != trx.Nonce() {
		return nil, invalidTx("bad nonce: have %d, want %d", sender.Nonce, trx.Nonce())
	}
	if gasLimit < intrinsicGas {
		return nil, invalidTx("intrinsic gas exceeds gas limit: %d > %d", intrinsicGas, gasLimit)
	}

	// buy gas
	nonce := sender.Nonce
	sender.Nonce++
	sender.Balance.Sub(sender.Balance, new(big.Int).Mul(new(big.Int).SetUint64(gasLimit), gasPrice))
	if err := rt.state.Put(origin, sender); err != nil {
		return nil, err
	}

	msg := &vm.Message{
		Caller:   origin,
		To:       trx.To(),
		Value:    trx.Value(),
		Data:     trx.Data(),
		GasLimit: gasLimit - intrinsicGas,
		GasPrice: gasPrice,
		Origin:   origin,
		Block:    block,
	}
	if msg.To == nil {
		// the address derives from the nonce the tx consumes
		msg.CreationNonce = &nonce
	}
	frame, err := rt.Call(msg)
	if err != nil {
		return nil, err
	}

	output := frame.Output
	if !output.Succeeded() {
		// nothing of a failed execution survives but its gas
		output.Logs = nil
		output.SelfDestructs = nil
		output.GasRefund = 0
	}
	bloom := logsBloom(output.Logs)
	if len(output.Logs) > 0 {
		rt.logsFeed.Send(&LogsEvent{Logs: output.Logs, Bloom: bloom})
	}

	// reload, the sender may have been changed by the frame
	if sender, err = rt.loadAccount(origin); err != nil {
		return nil, err
	}

	gasUsed := min(frame.GasUsed+intrinsicGas, gasLimit)
	gasUsed -= min(output.GasRefund, gasUsed/thor.RefundQuotient)

	refund := new(big.Int).SetUint64(gasLimit - gasUsed)
	sender.Balance.Add(sender.Balance, refund.Mul(refund, gasPrice))
	if err := rt.state.Put(origin, sender); err != nil {
		return nil, err
	}

	if err := rt.settleSelfDestructs(output.SelfDestructs); err != nil {
		return nil, err
	}

	return &Outcome{
		GasUsed:          gasUsed,
		SenderAccount:    sender,
		RecipientAccount: frame.Callee,
		CreatedAddress:   frame.CreatedAddress,
		Output:           output,
		Bloom:            bloom,
		AmountSpent:      new(big.Int).Mul(new(big.Int).SetUint64(gasUsed), gasPrice),
	}, nil
}

// settleSelfDestructs moves the balance of each destructed account to its beneficiary
// and deletes it, in the reported order.
// A record naming the account itself as beneficiary is skipped: the account
// survives with its balance.
func (rt *Runtime) settleSelfDestructs(records []*vm.SelfDestruct) error {
	for _, sd := range records {
		if sd.To == sd.Account {
			rt.logger.Debug("self-destruct to itself skipped", "account", sd.Account)
			continue
		}
		acc, err := rt.loadAccount(sd.Account)
		if err != nil {
			return err
		}
		beneficiary, err := rt.loadAccount(sd.To)
		if err != nil {
			return err
		}
		beneficiary.Balance.Add(beneficiary.Balance, acc.Balance)
		if err := rt.state.Put(sd.To, beneficiary); err != nil {
			return err
		}
		if err := rt.state.Delete(sd.Account); err != nil {
			return err
		}
		rt.logger.Debug("account self-destructed", "account", sd.Account, "to", sd.To, "balance", acc.Balance)
	}
	return nil
}

// logsBloom adds the address and every topic of each log to a bloom filter.
func logsBloom(logs []*vm.Log) types.Bloom {
	var bloom types.Bloom
	for _, l := range logs {
		bloom.Add(l.Address[:])
		for _, topic := range l.Topics {
			bloom.Add(topic[:])
		}
	}
	return bloom
}

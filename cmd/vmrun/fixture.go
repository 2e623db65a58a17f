// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"math/big"
	"os"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github.com/vechain/vmcore/runtime"
	"github.com/vechain/vmcore/state"
	"github.com/vechain/vmcore/thor"
	"github.com/vechain/vmcore/tx"
	"github.com/vechain/vmcore/vm"
	"gopkg.in/yaml.v3"
)

// fixture is a pre-state plus the transactions to run over it.
// Numbers are decimal or 0x-prefixed hex strings.
type fixture struct {
	Block        blockDef              `yaml:"block"`
	Accounts     map[string]accountDef `yaml:"accounts"`
	Transactions []txDef               `yaml:"transactions"`
}

type blockDef struct {
	Number      uint64 `yaml:"number"`
	Time        uint64 `yaml:"time"`
	GasLimit    uint64 `yaml:"gasLimit"`
	Beneficiary string `yaml:"beneficiary"`
}

type accountDef struct {
	Balance string            `yaml:"balance"`
	Nonce   uint64            `yaml:"nonce"`
	Code    string            `yaml:"code"`
	Storage map[string]string `yaml:"storage"`
}

type txDef struct {
	Key      string `yaml:"key"` // hex secp256k1 private key of the sender
	Nonce    uint64 `yaml:"nonce"`
	To       string `yaml:"to"` // empty for contract creation
	Value    string `yaml:"value"`
	Gas      uint64 `yaml:"gas"`
	GasPrice string `yaml:"gasPrice"`
	Data     string `yaml:"data"`
}

type txReport struct {
	ID      string `yaml:"id"`
	Origin  string `yaml:"origin,omitempty"`
	Result  string `yaml:"result"`
	Reason  string `yaml:"reason,omitempty"`
	GasUsed uint64 `yaml:"gasUsed"`
	Created string `yaml:"created,omitempty"`
	Logs    int    `yaml:"logs,omitempty"`
}

type report struct {
	Transactions []txReport `yaml:"transactions"`
	Root         string     `yaml:"root"`
}

func loadFixture(path string) (*fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read fixture")
	}
	return parseFixture(data)
}

func parseFixture(data []byte) (*fixture, error) {
	var f fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(err, "decode fixture")
	}
	return &f, nil
}

func parseBig(field, s string) (*big.Int, error) {
	v, ok := math.ParseBig256(s)
	if !ok {
		return nil, errors.Errorf("invalid %v: %q", field, s)
	}
	return v, nil
}

func (f *fixture) block() (*vm.Block, error) {
	b := &vm.Block{
		Number:   f.Block.Number,
		Time:     f.Block.Time,
		GasLimit: f.Block.GasLimit,
	}
	if f.Block.Beneficiary != "" {
		addr, err := thor.ParseAddress(f.Block.Beneficiary)
		if err != nil {
			return nil, errors.WithMessage(err, "block beneficiary")
		}
		b.Beneficiary = addr
	}
	return b, nil
}

// apply writes the fixture accounts into st, in address order.
func (f *fixture) apply(st *state.State) error {
	addrs := make([]string, 0, len(f.Accounts))
	for k := range f.Accounts {
		addrs = append(addrs, k)
	}
	sort.Strings(addrs)

	for _, k := range addrs {
		entry := f.Accounts[k]
		addr, err := thor.ParseAddress(k)
		if err != nil {
			return errors.WithMessagef(err, "account %v", k)
		}
		acc := state.NewAccount()
		if acc.Balance, err = parseBig("balance", entry.Balance); err != nil {
			return errors.WithMessagef(err, "account %v", k)
		}
		acc.Nonce = entry.Nonce
		if code := common.FromHex(entry.Code); len(code) > 0 {
			if acc.CodeHash, err = st.StoreCode(code); err != nil {
				return err
			}
		}
		for key, value := range entry.Storage {
			err := st.SetStorage(acc,
				thor.BytesToBytes32(common.FromHex(key)),
				thor.BytesToBytes32(common.FromHex(value)))
			if err != nil {
				return err
			}
		}
		if err := st.Put(addr, acc); err != nil {
			return err
		}
	}
	return nil
}

func (s *txDef) build() (*tx.Transaction, error) {
	pk, err := crypto.HexToECDSA(strings.TrimPrefix(s.Key, "0x"))
	if err != nil {
		return nil, errors.Wrap(err, "invalid key")
	}
	value, err := parseBig("value", s.Value)
	if err != nil {
		return nil, err
	}
	gasPrice, err := parseBig("gasPrice", s.GasPrice)
	if err != nil {
		return nil, err
	}

	builder := tx.NewBuilder().
		Nonce(s.Nonce).
		Gas(s.Gas).
		GasPrice(gasPrice).
		Value(value).
		Data(common.FromHex(s.Data))
	if s.To != "" {
		to, err := thor.ParseAddress(s.To)
		if err != nil {
			return nil, errors.WithMessage(err, "invalid to")
		}
		builder.To(&to)
	}
	return tx.Sign(builder.Build(), pk)
}

// run applies the fixture to st and executes its transactions in order.
// Rejected transactions are reported and skipped, other errors abort the run.
func (f *fixture) run(rt *runtime.Runtime) (*report, error) {
	if err := f.apply(rt.State()); err != nil {
		return nil, err
	}
	block, err := f.block()
	if err != nil {
		return nil, err
	}

	rep := &report{}
	for i := range f.Transactions {
		trx, err := f.Transactions[i].build()
		if err != nil {
			return nil, errors.WithMessagef(err, "transaction #%d", i)
		}
		item := txReport{ID: trx.ID().String()}
		if origin, err := trx.Origin(); err == nil {
			item.Origin = origin.String()
		}

		outcome, err := rt.ExecuteTransaction(trx, block)
		if err != nil {
			var invalid *runtime.InvalidTransactionError
			if !errors.As(err, &invalid) {
				return nil, errors.WithMessagef(err, "transaction #%d", i)
			}
			item.Result = "invalid"
			item.Reason = invalid.Reason
			rep.Transactions = append(rep.Transactions, item)
			continue
		}

		item.Result = "success"
		if !outcome.Succeeded() {
			item.Result = "exception"
			item.Reason = outcome.Output.Err.Error()
		}
		item.GasUsed = outcome.GasUsed
		if outcome.CreatedAddress != nil {
			item.Created = outcome.CreatedAddress.String()
		}
		item.Logs = len(outcome.Output.Logs)
		rep.Transactions = append(rep.Transactions, item)
	}

	root, err := rt.State().Flush()
	if err != nil {
		return nil, err
	}
	rep.Root = root.String()
	return rep, nil
}

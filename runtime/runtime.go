// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package runtime

import (
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/log"
	"github.com/vechain/vmcore/state"
	"github.com/vechain/vmcore/thor"
	"github.com/vechain/vmcore/tx"
	"github.com/vechain/vmcore/vm"
)

// Config of execution.
type Config struct {
	MaxCallDepth  int    // frames deeper than this fail with vm.ErrDepth
	CreateDataGas uint64 // gas per byte of deployed code
}

// DefaultConfig returns the default execution config.
func DefaultConfig() Config {
	return Config{
		MaxCallDepth:  thor.MaxCallDepth,
		CreateDataGas: thor.CreateDataGas,
	}
}

// LogsEvent is sent to log subscribers after a transaction emitting logs.
type LogsEvent struct {
	Logs  []*vm.Log
	Bloom types.Bloom
}

// Runtime executes transactions and call frames against a state.
// It's not safe for concurrent use: one execution occupies the state at a time.
type Runtime struct {
	state       *state.State
	interpreter vm.Interpreter
	config      Config
	onTx        func(trx *tx.Transaction) error
	logger      log.Logger

	logsFeed event.Feed
	scope    event.SubscriptionScope
}

var _ vm.Env = (*Runtime)(nil)

// New creates a runtime. interpreter runs contract code, and may be nil if only
// value transfers and precompiled contracts are expected.
func New(st *state.State, interpreter vm.Interpreter, config Config) *Runtime {
	if config.MaxCallDepth <= 0 {
		config.MaxCallDepth = thor.MaxCallDepth
	}
	return &Runtime{
		state:       st,
		interpreter: vm.NewDispatcher(interpreter),
		config:      config,
		logger:      log.New("pkg", "runtime"),
	}
}

// State implements vm.Env.
func (rt *Runtime) State() *state.State { return rt.state }

// Config returns the execution config.
func (rt *Runtime) Config() Config { return rt.config }

// OnTransaction sets a hook called before each transaction is executed.
// An error returned by the hook aborts the transaction.
func (rt *Runtime) OnTransaction(hook func(trx *tx.Transaction) error) {
	rt.onTx = hook
}

// SubscribeLogs subscribes to logs emitted by executed transactions.
// Sending blocks until every subscriber has received the event.
func (rt *Runtime) SubscribeLogs(ch chan<- *LogsEvent) event.Subscription {
	return rt.scope.Track(rt.logsFeed.Subscribe(ch))
}

// Close unsubscribes all log subscribers.
func (rt *Runtime) Close() {
	rt.scope.Close()
}

// loadAccount returns the account at addr, or a fresh one if absent.
func (rt *Runtime) loadAccount(addr thor.Address) (*state.Account, error) {
	acc, err := rt.state.Get(addr)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return state.NewAccount(), nil
	}
	return acc, nil
}

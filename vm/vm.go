// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package vm defines the contract between the call executor and the code that
// executes a frame: the input handed to an interpreter and the outcome it reports.
package vm

import (
	"fmt"
	"math/big"

	"github.com/pkg/errors"
	"github.com/vechain/vmcore/state"
	"github.com/vechain/vmcore/thor"
)

// Exceptions an interpreter may report in Output.Err.
var (
	ErrDepth               = errors.New("max call depth exceeded")
	ErrInsufficientBalance = errors.New("insufficient balance for transfer")
	ErrOutOfGas            = errors.New("out of gas")
	ErrNoInterpreter       = errors.New("no interpreter")
)

// Mode selects how the code of a frame runs.
type Mode int

const (
	ModeInterpreted Mode = iota // bytecode run by the interpreter
	ModePrecompiled             // native contract at a precompiled address
)

func (m Mode) String() string {
	switch m {
	case ModeInterpreted:
		return "interpreted"
	case ModePrecompiled:
		return "precompiled"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Block is the enclosing block reference.
type Block struct {
	Number      uint64
	Time        uint64
	GasLimit    uint64
	Beneficiary thor.Address
}

// Log is an event emitted by executed code.
type Log struct {
	Address thor.Address
	Topics  []thor.Bytes32
	Data    []byte
}

// SelfDestruct asks to delete Account and move its balance to To.
type SelfDestruct struct {
	Account thor.Address
	To      thor.Address
}

// Context is the input of one frame execution.
type Context struct {
	Mode     Mode
	Code     []byte
	Data     []byte
	GasLimit uint64
	GasPrice *big.Int
	Account  *state.Account // destination account, the interpreter may mutate it
	Address  thor.Address   // destination address
	Origin   thor.Address
	Caller   thor.Address
	Value    *big.Int
	Block    *Block
	Depth    int
	Env      Env // nested calls and state access, nil when unavailable
}

// Status of an executed frame.
type Status uint8

const (
	StatusException Status = 0
	StatusSuccess   Status = 1
)

// Output is the outcome of one frame execution.
// Err is the exception indicator: nil means the code completed successfully.
type Output struct {
	Account       *state.Account
	GasUsed       uint64
	Err           error
	ReturnValue   []byte
	GasRefund     uint64
	Logs          []*Log
	SelfDestructs []*SelfDestruct
}

// Status returns StatusSuccess unless an exception is reported.
func (o *Output) Status() Status {
	if o.Err != nil {
		return StatusException
	}
	return StatusSuccess
}

// Succeeded returns whether no exception is reported.
func (o *Output) Succeeded() bool {
	return o.Err == nil
}

// Exception builds the output of a frame that failed with err, consuming all its gas.
func Exception(ctx *Context, err error) *Output {
	return &Output{
		Account: ctx.Account,
		GasUsed: ctx.GasLimit,
		Err:     err,
	}
}

// Message describes a frame to execute.
type Message struct {
	Caller   thor.Address
	To       *thor.Address // nil for contract creation
	Value    *big.Int
	Data     []byte
	Code     []byte // overrides the code of the destination when not nil
	GasLimit uint64
	GasPrice *big.Int
	Depth    int
	Origin   thor.Address
	Block    *Block

	// Account is the caller's account as held by the calling code, usually the
	// Context.Account of the calling frame. When set, the value debit and the
	// creation nonce bump are applied to it in place, so the caller observes them.
	// When nil, the caller is loaded from the state.
	Account *state.Account

	// CreationNonce pins the nonce the created address derives from.
	// When nil, the caller's nonce at frame entry is used.
	CreationNonce *uint64
}

// FrameResult is what a frame exposes to its caller.
type FrameResult struct {
	GasUsed        uint64
	Caller         *state.Account
	Callee         *state.Account
	CreatedAddress *thor.Address
	Output         *Output
}

// Env is offered to interpreters for state access and nested calls.
// A nested call should carry the frame's Context.Account in Message.Account.
type Env interface {
	State() *state.State
	Call(msg *Message) (*FrameResult, error)
}

// Interpreter executes the code of a frame.
// Exceptions raised by the code are reported in Output.Err. The returned error
// is reserved for failures which must abort the whole execution, like store I/O.
type Interpreter interface {
	Run(ctx *Context) (*Output, error)
}

// InterpreterFunc adapts a function to Interpreter.
type InterpreterFunc func(ctx *Context) (*Output, error)

// Run implements Interpreter.
func (f InterpreterFunc) Run(ctx *Context) (*Output, error) {
	return f(ctx)
}

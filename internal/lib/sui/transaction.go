package sui

import (
	"errors"
	"fmt"
)

// ArgumentKind values match the on-chain Argument enum.
type ArgumentKind uint8

const (
	ArgGasCoin ArgumentKind = iota
	ArgInput
	ArgResult
	ArgNestedResult
)

// Argument references the gas coin, a transaction input, or the result of an earlier command.
type Argument struct {
	Kind   ArgumentKind
	Index  uint16
	Nested uint16 // only for ArgNestedResult
}

func (a Argument) String() string {
	switch a.Kind {
	case ArgGasCoin:
		return "GasCoin"
	case ArgInput:
		return fmt.Sprintf("Input(%d)", a.Index)
	case ArgResult:
		return fmt.Sprintf("Result(%d)", a.Index)
	default:
		return fmt.Sprintf("NestedResult(%d,%d)", a.Index, a.Nested)
	}
}

type InputKind uint8

const (
	InputPure InputKind = iota
	InputObject
)

type ObjectArgKind uint8

const (
	ImmOrOwnedObject ObjectArgKind = iota
	SharedObject
)

type ObjectRef struct {
	ObjectID string
	Version  uint64
	Digest   string // base58
}

type ObjectArg struct {
	Kind                 ObjectArgKind
	Ref                  ObjectRef // ImmOrOwnedObject
	InitialSharedVersion uint64    // SharedObject
	Mutable              bool      // SharedObject
}

// Input is a pure (bcs encoded) value or an object reference. Objects added by id alone are
// unresolved (Object == nil) until the transaction is built against a node.
type Input struct {
	Kind     InputKind
	Pure     []byte
	ObjectID string
	Object   *ObjectArg
}

// CommandKind values match the on-chain Command enum.
type CommandKind uint8

const (
	CommandMoveCall   CommandKind = 0
	CommandSplitCoins CommandKind = 2
	CommandMergeCoins CommandKind = 3
)

type MoveCall struct {
	Target        string
	TypeArguments []string
	Arguments     []Argument
}

type SplitCoins struct {
	Coin    Argument
	Amounts []Argument
}

type MergeCoins struct {
	Destination Argument
	Sources     []Argument
}

type Command struct {
	Kind       CommandKind
	MoveCall   *MoveCall
	SplitCoins *SplitCoins
	MergeCoins *MergeCoins
}

var ErrTooManyInputs = errors.New("too many transaction inputs")

// Transaction is a programmable transaction being assembled.  It's not safe for concurrent use.
// Invalid arguments (bad addresses, etc.) are recorded and returned from Err and Build so the
// assembly helpers can stay free of error returns.
type Transaction struct {
	sender    string
	gasBudget uint64
	gasPrice  uint64

	inputs   []Input
	commands []Command
	err      error
}

func NewTransaction() *Transaction {
	return &Transaction{}
}

func (t *Transaction) Sender() string          { return t.sender }
func (t *Transaction) SetSender(sender string) { t.sender = NormalizeAddress(sender) }

func (t *Transaction) SetSenderIfNotSet(sender string) {
	if t.sender == "" {
		t.SetSender(sender)
	}
}

func (t *Transaction) GasBudget() uint64          { return t.gasBudget }
func (t *Transaction) SetGasBudget(budget uint64) { t.gasBudget = budget }

// SetGasPrice overrides the reference gas price otherwise fetched during Build.
func (t *Transaction) SetGasPrice(price uint64) { t.gasPrice = price }

func (t *Transaction) Inputs() []Input     { return t.inputs }
func (t *Transaction) Commands() []Command { return t.commands }
func (t *Transaction) Err() error          { return t.err }

func (t *Transaction) setErr(err error) {
	if t.err == nil {
		t.err = err
	}
}

func (t *Transaction) addInput(in Input) Argument {
	if len(t.inputs) >= 1<<16-1 {
		t.setErr(ErrTooManyInputs)
	}
	t.inputs = append(t.inputs, in)
	return Argument{Kind: ArgInput, Index: uint16(len(t.inputs) - 1)}
}

func (t *Transaction) findObject(id string) (Argument, bool) {
	for i, in := range t.inputs {
		if in.Kind == InputObject && in.ObjectID == id {
			return Argument{Kind: ArgInput, Index: uint16(i)}, true
		}
	}
	return Argument{}, false
}

// Gas references the coin used for gas payment.
func (t *Transaction) Gas() Argument {
	return Argument{Kind: ArgGasCoin}
}

// Object adds (or reuses) an object input that is resolved when the transaction is built.
func (t *Transaction) Object(id string) Argument {
	addr, err := ParseAddress(id)
	if err != nil {
		t.setErr(err)
	}
	id = addr.String()
	if arg, found := t.findObject(id); found {
		return arg
	}
	return t.addInput(Input{Kind: InputObject, ObjectID: id})
}

// OwnedObject adds an already resolved owned (or immutable) object.
func (t *Transaction) OwnedObject(ref ObjectRef) Argument {
	id := NormalizeAddress(ref.ObjectID)
	if arg, found := t.findObject(id); found {
		return arg
	}
	ref.ObjectID = id
	return t.addInput(Input{Kind: InputObject, ObjectID: id, Object: &ObjectArg{Kind: ImmOrOwnedObject, Ref: ref}})
}

// SharedObjectRef adds an already resolved shared object.
func (t *Transaction) SharedObjectRef(id string, initialSharedVersion uint64, mutable bool) Argument {
	id = NormalizeAddress(id)
	if arg, found := t.findObject(id); found {
		return arg
	}
	return t.addInput(Input{Kind: InputObject, ObjectID: id, Object: &ObjectArg{
		Kind:                 SharedObject,
		InitialSharedVersion: initialSharedVersion,
		Mutable:              mutable,
	}})
}

// SystemState is the shared 0x5 sui system state object.
func (t *Transaction) SystemState() Argument {
	return t.SharedObjectRef(SystemStateObjectID, systemObjectVer, true)
}

// Clock is the shared (read-only) 0x6 clock object.
func (t *Transaction) Clock() Argument {
	return t.SharedObjectRef(ClockObjectID, systemObjectVer, false)
}

func (t *Transaction) Pure(bcsBytes []byte) Argument {
	return t.addInput(Input{Kind: InputPure, Pure: bcsBytes})
}

func (t *Transaction) PureU64(v uint64) Argument {
	return t.Pure(PureU64(v))
}

// PureAddress adds an address (or object ID) pure value.
func (t *Transaction) PureAddress(address string) Argument {
	addr, err := ParseAddress(address)
	if err != nil {
		t.setErr(err)
	}
	pure, err := pureBytes(addr)
	if err != nil {
		t.setErr(err)
	}
	return t.Pure(pure)
}

func (t *Transaction) PureAddresses(addresses []string) Argument {
	addrs := make([]Address, 0, len(addresses))
	for _, a := range addresses {
		addr, err := ParseAddress(a)
		if err != nil {
			t.setErr(err)
		}
		addrs = append(addrs, addr)
	}
	return t.Pure(PureAddressVector(addrs))
}

func (t *Transaction) addCommand(cmd Command) uint16 {
	t.commands = append(t.commands, cmd)
	return uint16(len(t.commands) - 1)
}

// SplitCoins splits the given amounts off coin, returning one argument per new coin.
func (t *Transaction) SplitCoins(coin Argument, amounts ...Argument) []Argument {
	idx := t.addCommand(Command{Kind: CommandSplitCoins, SplitCoins: &SplitCoins{Coin: coin, Amounts: amounts}})
	results := make([]Argument, len(amounts))
	for i := range amounts {
		results[i] = Argument{Kind: ArgNestedResult, Index: idx, Nested: uint16(i)}
	}
	return results
}

func (t *Transaction) MergeCoins(destination Argument, sources []Argument) {
	t.addCommand(Command{Kind: CommandMergeCoins, MergeCoins: &MergeCoins{Destination: destination, Sources: sources}})
}

func (t *Transaction) MoveCall(target string, typeArguments []string, arguments ...Argument) Argument {
	idx := t.addCommand(Command{Kind: CommandMoveCall, MoveCall: &MoveCall{
		Target:        target,
		TypeArguments: typeArguments,
		Arguments:     arguments,
	}})
	return Argument{Kind: ArgResult, Index: idx}
}

// MoveCalls returns just the move call commands, in order.
func (t *Transaction) MoveCalls() []MoveCall {
	var calls []MoveCall
	for _, cmd := range t.commands {
		if cmd.Kind == CommandMoveCall {
			calls = append(calls, *cmd.MoveCall)
		}
	}
	return calls
}

package sui

import (
	"fmt"

	"github.com/fardream/go-bcs/bcs"
)

// The types below mirror the on-chain TransactionData layout for bcs.Marshal.  Enums are structs
// of pointer fields where exactly one is set, and the field position is the variant index, so
// the field order must not change.

type unit struct{}

type bcsTransactionData struct {
	V1 *bcsTransactionDataV1
}

func (bcsTransactionData) IsBcsEnum() {}

type bcsTransactionDataV1 struct {
	Kind       bcsTransactionKind
	Sender     Address
	GasData    bcsGasData
	Expiration bcsExpiration
}

type bcsTransactionKind struct {
	ProgrammableTransaction *bcsProgrammableTransaction
}

func (bcsTransactionKind) IsBcsEnum() {}

type bcsProgrammableTransaction struct {
	Inputs   []bcsCallArg
	Commands []bcsCommand
}

type bcsCallArg struct {
	Pure   *[]byte
	Object *bcsObjectArg
}

func (bcsCallArg) IsBcsEnum() {}

type bcsObjectArg struct {
	ImmOrOwnedObject *bcsObjectRef
	SharedObject     *bcsSharedObject
}

func (bcsObjectArg) IsBcsEnum() {}

type bcsObjectRef struct {
	ObjectID Address
	Version  uint64
	Digest   []byte
}

type bcsSharedObject struct {
	ObjectID             Address
	InitialSharedVersion uint64
	Mutable              bool
}

type bcsCommand struct {
	MoveCall        *bcsMoveCall
	TransferObjects *unit // never built
	SplitCoins      *bcsSplitCoins
	MergeCoins      *bcsMergeCoins
}

func (bcsCommand) IsBcsEnum() {}

type bcsMoveCall struct {
	Package       Address
	Module        string
	Function      string
	TypeArguments []bcsTypeTag
	Arguments     []bcsArgument
}

type bcsSplitCoins struct {
	Coin    bcsArgument
	Amounts []bcsArgument
}

type bcsMergeCoins struct {
	Destination bcsArgument
	Sources     []bcsArgument
}

type bcsArgument struct {
	GasCoin      *unit
	Input        *uint16
	Result       *uint16
	NestedResult *bcsNestedResult
}

func (bcsArgument) IsBcsEnum() {}

type bcsNestedResult struct {
	Result uint16
	Index  uint16
}

type bcsGasData struct {
	Payment []bcsObjectRef
	Owner   Address
	Price   uint64
	Budget  uint64
}

type bcsExpiration struct {
	None  *unit
	Epoch *uint64
}

func (bcsExpiration) IsBcsEnum() {}

type bcsTypeTag struct {
	Bool    *unit
	U8      *unit
	U64     *unit
	U128    *unit
	Address *unit
	Signer  *unit
	Vector  *bcsTypeTag
	Struct  *bcsStructTag
	U16     *unit
	U32     *unit
	U256    *unit
}

func (bcsTypeTag) IsBcsEnum() {}

type bcsStructTag struct {
	Address    Address
	Module     string
	Name       string
	TypeParams []bcsTypeTag
}

func newBcsArgument(arg Argument) bcsArgument {
	switch arg.Kind {
	case ArgGasCoin:
		return bcsArgument{GasCoin: &unit{}}
	case ArgInput:
		return bcsArgument{Input: &arg.Index}
	case ArgResult:
		return bcsArgument{Result: &arg.Index}
	}
	return bcsArgument{NestedResult: &bcsNestedResult{Result: arg.Index, Index: arg.Nested}}
}

func newBcsArguments(args []Argument) []bcsArgument {
	out := make([]bcsArgument, len(args))
	for i, arg := range args {
		out[i] = newBcsArgument(arg)
	}
	return out
}

// pureBytes is the BCS form of a pure value.
func pureBytes(v any) ([]byte, error) {
	out, err := bcs.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("bcs encoding %T: %w", v, err)
	}
	return out, nil
}

// PureU64 is the BCS form of a u64 pure argument.
func PureU64(v uint64) []byte {
	out, err := pureBytes(v)
	if err != nil {
		// fixed width integers always encode
		panic(err)
	}
	return out
}

// PureAddressVector is the BCS form of a vector<address> pure argument.
func PureAddressVector(addrs []Address) []byte {
	if addrs == nil {
		addrs = []Address{}
	}
	out, err := pureBytes(addrs)
	if err != nil {
		panic(err)
	}
	return out
}

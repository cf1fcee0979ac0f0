package sui

import (
	"context"
	"errors"
	"fmt"

	"github.com/fardream/go-bcs/bcs"
	"github.com/mr-tron/base58"
)

const (
	maxGasPaymentObjects = 255
	objectDigestLength   = 32
)

// Resolver is the subset of node queries needed to build a transaction.
type Resolver interface {
	MultiGetObjects(ctx context.Context, objectIDs []string) ([]ObjectResponse, error)
	ReferenceGasPrice(ctx context.Context) (uint64, error)
	AllCoins(ctx context.Context, owner, coinType string) ([]Coin, error)
}

var ErrNoSender = errors.New("transaction sender not set")

// Build resolves object inputs, gas price and gas payment against the node and returns the
// BCS encoded TransactionData.
func (t *Transaction) Build(ctx context.Context, resolver Resolver) ([]byte, error) {
	if t.err != nil {
		return nil, t.err
	}
	if t.sender == "" {
		return nil, ErrNoSender
	}
	if err := t.resolveObjects(ctx, resolver); err != nil {
		return nil, err
	}
	if t.gasPrice == 0 {
		price, err := resolver.ReferenceGasPrice(ctx)
		if err != nil {
			return nil, err
		}
		t.gasPrice = price
	}
	payment, err := t.selectGasCoins(ctx, resolver)
	if err != nil {
		return nil, err
	}
	return t.encode(payment)
}

func (t *Transaction) resolveObjects(ctx context.Context, resolver Resolver) error {
	var (
		ids     []string
		indexes []int
	)
	for i, in := range t.inputs {
		if in.Kind == InputObject && in.Object == nil {
			ids = append(ids, in.ObjectID)
			indexes = append(indexes, i)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	objects, err := resolver.MultiGetObjects(ctx, ids)
	if err != nil {
		return fmt.Errorf("resolving transaction objects: %w", err)
	}
	for i, obj := range objects {
		if obj.Data == nil {
			return fmt.Errorf("object %s: %w", ids[i], ErrObjectNotFound)
		}
		arg := &ObjectArg{Kind: ImmOrOwnedObject, Ref: obj.Data.Ref()}
		if obj.Data.Owner != nil && obj.Data.Owner.Kind == OwnerShared {
			arg = &ObjectArg{
				Kind:                 SharedObject,
				InitialSharedVersion: obj.Data.Owner.InitialSharedVersion,
				Mutable:              true,
			}
		}
		t.inputs[indexes[i]].Object = arg
	}
	return nil
}

// selectGasCoins pays with every SUI coin the sender holds that isn't already an input, so that
// amounts split off the gas coin can draw on the whole balance.
func (t *Transaction) selectGasCoins(ctx context.Context, resolver Resolver) ([]ObjectRef, error) {
	coins, err := resolver.AllCoins(ctx, t.sender, SuiCoinType)
	if err != nil {
		return nil, fmt.Errorf("fetching gas coins: %w", err)
	}
	var payment []ObjectRef
	for _, coin := range coins {
		if _, used := t.findObject(NormalizeAddress(coin.CoinObjectID)); used {
			continue
		}
		payment = append(payment, coin.Ref())
		if len(payment) == maxGasPaymentObjects {
			break
		}
	}
	if len(payment) == 0 {
		return nil, fmt.Errorf("sender %s: %w", t.sender, ErrNoGasCoins)
	}
	return payment, nil
}

func (t *Transaction) encode(payment []ObjectRef) ([]byte, error) {
	sender, err := ParseAddress(t.sender)
	if err != nil {
		return nil, err
	}
	ptx := &bcsProgrammableTransaction{
		Inputs:   make([]bcsCallArg, len(t.inputs)),
		Commands: make([]bcsCommand, len(t.commands)),
	}
	for i, in := range t.inputs {
		if ptx.Inputs[i], err = newBcsCallArg(in); err != nil {
			return nil, err
		}
	}
	for i, cmd := range t.commands {
		if ptx.Commands[i], err = newBcsCommand(cmd); err != nil {
			return nil, err
		}
	}
	gas := bcsGasData{
		Payment: make([]bcsObjectRef, len(payment)),
		Owner:   sender,
		Price:   t.gasPrice,
		Budget:  t.gasBudget,
	}
	for i, ref := range payment {
		if gas.Payment[i], err = newBcsObjectRef(ref); err != nil {
			return nil, err
		}
	}
	data := bcsTransactionData{V1: &bcsTransactionDataV1{
		Kind:       bcsTransactionKind{ProgrammableTransaction: ptx},
		Sender:     sender,
		GasData:    gas,
		Expiration: bcsExpiration{None: &unit{}},
	}}
	out, err := bcs.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encoding transaction data: %w", err)
	}
	return out, nil
}

func newBcsCallArg(in Input) (bcsCallArg, error) {
	if in.Kind == InputPure {
		pure := in.Pure
		if pure == nil {
			pure = []byte{}
		}
		return bcsCallArg{Pure: &pure}, nil
	}
	if in.Object == nil {
		return bcsCallArg{}, fmt.Errorf("object input %s not resolved", in.ObjectID)
	}
	switch in.Object.Kind {
	case ImmOrOwnedObject:
		ref, err := newBcsObjectRef(in.Object.Ref)
		if err != nil {
			return bcsCallArg{}, err
		}
		return bcsCallArg{Object: &bcsObjectArg{ImmOrOwnedObject: &ref}}, nil
	case SharedObject:
		id, err := ParseAddress(in.ObjectID)
		if err != nil {
			return bcsCallArg{}, err
		}
		return bcsCallArg{Object: &bcsObjectArg{SharedObject: &bcsSharedObject{
			ObjectID:             id,
			InitialSharedVersion: in.Object.InitialSharedVersion,
			Mutable:              in.Object.Mutable,
		}}}, nil
	}
	return bcsCallArg{}, fmt.Errorf("unknown object arg kind:%d", in.Object.Kind)
}

func newBcsObjectRef(ref ObjectRef) (bcsObjectRef, error) {
	id, err := ParseAddress(ref.ObjectID)
	if err != nil {
		return bcsObjectRef{}, err
	}
	digest, err := base58.Decode(ref.Digest)
	if err != nil {
		return bcsObjectRef{}, fmt.Errorf("invalid digest %q for object %s: %w", ref.Digest, ref.ObjectID, err)
	}
	if len(digest) != objectDigestLength {
		return bcsObjectRef{}, fmt.Errorf("invalid digest length %d for object %s", len(digest), ref.ObjectID)
	}
	return bcsObjectRef{ObjectID: id, Version: ref.Version, Digest: digest}, nil
}

func newBcsCommand(cmd Command) (bcsCommand, error) {
	switch cmd.Kind {
	case CommandMoveCall:
		pkg, module, function, err := SplitTarget(cmd.MoveCall.Target)
		if err != nil {
			return bcsCommand{}, err
		}
		call := &bcsMoveCall{
			Package:       pkg,
			Module:        module,
			Function:      function,
			TypeArguments: make([]bcsTypeTag, len(cmd.MoveCall.TypeArguments)),
			Arguments:     newBcsArguments(cmd.MoveCall.Arguments),
		}
		for i, typeArg := range cmd.MoveCall.TypeArguments {
			tag, err := ParseTypeTag(typeArg)
			if err != nil {
				return bcsCommand{}, err
			}
			call.TypeArguments[i] = tag.bcsTag()
		}
		return bcsCommand{MoveCall: call}, nil
	case CommandSplitCoins:
		return bcsCommand{SplitCoins: &bcsSplitCoins{
			Coin:    newBcsArgument(cmd.SplitCoins.Coin),
			Amounts: newBcsArguments(cmd.SplitCoins.Amounts),
		}}, nil
	case CommandMergeCoins:
		return bcsCommand{MergeCoins: &bcsMergeCoins{
			Destination: newBcsArgument(cmd.MergeCoins.Destination),
			Sources:     newBcsArguments(cmd.MergeCoins.Sources),
		}}, nil
	}
	return bcsCommand{}, fmt.Errorf("unsupported command kind:%d", cmd.Kind)
}

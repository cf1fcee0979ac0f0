package lisuify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"

	"github.com/lisuify/lisuify/internal/lib/misc"
	"github.com/lisuify/lisuify/internal/lib/sui"
)

// Node is the subset of the sui client needed to run transactions.
type Node interface {
	sui.Resolver
	DryRun(ctx context.Context, txBytes []byte) (*sui.DryRunResponse, error)
	Execute(ctx context.Context, txBytes []byte, signatures []string) (json.RawMessage, error)
}

// Executor dry runs then (unless Dry) signs and submits transactions.
type Executor struct {
	Logger *slog.Logger
	Node   Node
	Signer sui.Signer
	// Dry stops after a successful dry run.
	Dry bool
	// Confirm, if set, is asked before submitting a transaction that passed its dry run.
	Confirm func() (bool, error)
}

// Execute sets the gas budget and (if unset) the sender, builds and dry runs tx, and unless
// dry, signs and submits it returning the node's response.  A failed dry run is a *DryRunError.
func (e *Executor) Execute(ctx context.Context, tx *sui.Transaction) (json.RawMessage, error) {
	tx.SetGasBudget(GasBudget)
	tx.SetSenderIfNotSet(e.Signer.Address())
	txBytes, err := tx.Build(ctx, e.Node)
	if err != nil {
		return nil, fmt.Errorf("failed to build transaction: %w", err)
	}
	simulated, err := e.Node.DryRun(ctx, txBytes)
	if err != nil {
		return nil, err
	}
	if simulated.Effects.Status.Status != sui.ExecutionSuccess {
		return nil, NewDryRunError(simulated.Effects.Status.Error)
	}
	if e.Dry {
		misc.Infof(e.Logger, "dry run succeeded, %d commands, not submitting", len(tx.Commands()))
		return nil, nil
	}
	if e.Confirm != nil {
		ok, err := e.Confirm()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrNotConfirmed
		}
	}
	signature, err := e.Signer.SignTransaction(txBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}
	result, err := e.Node.Execute(ctx, txBytes, []string{signature})
	if err != nil {
		return nil, err
	}
	misc.Debugf(e.Logger, "transaction submitted by %s", tx.Sender())
	return result, nil
}

// DryRunError is a transaction the node reported would fail.
type DryRunError struct {
	// Status is the node's error string, verbatim.
	Status string
	// Abort is set when Status is a parseable move abort.
	Abort *MoveAbort
}

func NewDryRunError(status string) *DryRunError {
	return &DryRunError{Status: status, Abort: ParseMoveAbort(status)}
}

func (e *DryRunError) Error() string {
	return fmt.Sprintf("%s: %s", ErrDryRunFailure, e.Status)
}

func (e *DryRunError) Unwrap() []error {
	if e.Abort != nil {
		return []error{ErrDryRunFailure, e.Abort}
	}
	return []error{ErrDryRunFailure}
}

// MoveAbort is a move abort() within a transaction command.
type MoveAbort struct {
	Address  string
	Module   string
	Function string
	Code     uint64
	Command  int
}

func (m *MoveAbort) Error() string {
	return fmt.Sprintf("move abort in %s::%s (code %d) in command %d", m.Module, m.Function, m.Code, m.Command)
}

var (
	abortCodeRe     = regexp.MustCompile(`MoveAbort\(.*, (\d+)\) in command (\d+)\s*$`)
	abortModuleRe   = regexp.MustCompile(`address: (0x)?([0-9a-fA-F]+), name: Identifier\("(\w+)"\)`)
	abortFunctionRe = regexp.MustCompile(`function_name: Some\("(\w+)"\)`)
)

// ParseMoveAbort extracts the abort location and code from a node error like:
//
//	MoveAbort(MoveLocation { module: ModuleId { address: 0x.., name: Identifier("stake_pool") }, function: 3,
//	instruction: 40, function_name: Some("stake_reserve") }, 2006) in command 0
//
// returning nil for anything else.
func ParseMoveAbort(status string) *MoveAbort {
	match := abortCodeRe.FindStringSubmatch(status)
	if match == nil {
		return nil
	}
	code, err := strconv.ParseUint(match[1], 10, 64)
	if err != nil {
		return nil
	}
	command, err := strconv.Atoi(match[2])
	if err != nil {
		return nil
	}
	abort := &MoveAbort{Code: code, Command: command}
	if m := abortModuleRe.FindStringSubmatch(status); m != nil {
		abort.Address = sui.NormalizeAddress(m[2])
		abort.Module = m[3]
	}
	if m := abortFunctionRe.FindStringSubmatch(status); m != nil {
		abort.Function = m[1]
	}
	return abort
}

// IsReserveBelowThreshold reports whether err is stake_reserve declining to stake a reserve
// below the minimum stake amount.
func IsReserveBelowThreshold(err error) bool {
	var abort *MoveAbort
	if !errors.As(err, &abort) {
		return false
	}
	return abort.Code == ReserveBelowThresholdCode && abort.Command == 0
}

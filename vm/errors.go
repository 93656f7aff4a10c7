package vm

import (
	"errors"
	"fmt"

	"github.com/colorfulnotion/fvm/asm"
)

// PanicError is the recoverable halting condition of §7 error taxonomy: a
// reason from the closed set plus the offending instruction word. It halts
// the execution attempt, gets recorded as a Panic receipt and reverts the
// transaction, but never aborts the node. Everything else returned from the
// loop is an environment failure and aborts without a receipt.
type PanicError struct {
	Desc asm.PanicDesc
}

func (e *PanicError) Error() string {
	return "vm: panic: " + e.Desc.String()
}

// panicErr raises a recoverable panic. The offending instruction word is
// stamped on by the step loop, which is the only place that knows it.
func panicErr(reason asm.PanicReason) error {
	return &PanicError{Desc: asm.PanicDesc{Reason: reason}}
}

// AsPanic unwraps err into a PanicError if it is one.
func AsPanic(err error) (*PanicError, bool) {
	var pe *PanicError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// ErrPredicateFailed marks a predicate program that terminated without the
// canonical true word. It is a verification outcome, not a crash.
var ErrPredicateFailed = errors.New("vm: predicate verification failed")

// ErrNotScript is returned when a script entry point is driven with a
// deployment transaction or vice versa.
var ErrNotScript = errors.New("vm: transaction is not a script")

func storeErr(op string, err error) error {
	return fmt.Errorf("vm: storage %s: %w", op, err)
}

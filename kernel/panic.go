package kernel

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Causes of a kernel halt.
var (
	ErrDoubleMiss   = errors.New("kernel: event occurred twice with no waiter")
	ErrNoReadyTask  = errors.New("kernel: no ready task")
	ErrQueueCorrupt = errors.New("kernel: task already queued")
	ErrTaskFault    = errors.New("kernel: task fault")
	ErrBadEvent     = errors.New("kernel: interrupt handler produced unknown event")
)

// PanicInfo contains details about a recovered task panic.
type PanicInfo struct {
	TaskID TID
	Value  any
	Stack  []byte
}

// FatalError describes an invariant violation. The kernel stops dispatching
// once one is raised.
type FatalError struct {
	Cause error
	TID   TID
	Event Event
	Value any
	Stack []byte
}

func (e *FatalError) Error() string {
	switch {
	case errors.Is(e.Cause, ErrDoubleMiss), errors.Is(e.Cause, ErrBadEvent):
		return fmt.Sprintf("%v (event=%s data=%v)", e.Cause, e.Event, e.Value)
	case e.TID != NoTID && e.Value != nil:
		return fmt.Sprintf("%v (tid=%d: %v)", e.Cause, e.TID, e.Value)
	case e.TID != NoTID:
		return fmt.Sprintf("%v (tid=%d)", e.Cause, e.TID)
	default:
		return e.Cause.Error()
	}
}

func (e *FatalError) Unwrap() error { return e.Cause }

func (k *Kernel) corrupt(tid TID) error {
	return &FatalError{Cause: ErrQueueCorrupt, TID: tid}
}

// fail records the diagnostic for a fatal condition and runs the fatal
// handler. The caller returns the result from Run.
func (k *Kernel) fail(err error) error {
	var fe *FatalError
	if !errors.As(err, &fe) {
		fe = &FatalError{Cause: err, TID: NoTID}
	}
	k.fatal = fe
	k.log.Error("kernel halted",
		zap.Error(fe.Cause),
		zap.Int("tid", int(fe.TID)),
		zap.Stringer("event", fe.Event),
		zap.Any("value", fe.Value),
		zap.Uint64("traps", k.stats.Traps),
		zap.Uint64("interrupts", k.stats.Interrupts))
	if k.onFatal != nil {
		k.onFatal(fe)
	}
	return fe
}

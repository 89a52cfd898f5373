package checkout

import (
	"errors"
	"fmt"
)

// State is a step of one checkout attempt.
type State string

const (
	StateIdle              State = "idle"
	StateValidating        State = "validating"
	StateCheckingStock     State = "checking_stock"
	StateWritingOrder      State = "writing_order"
	StateDecrementingStock State = "decrementing_stock"
	StateUpdatingCoupon    State = "updating_coupon"
	StateCartCleared       State = "cart_cleared"
	StateConfirmed         State = "confirmed"
	StateFailed            State = "failed"
)

// FailureReason classifies a failed attempt.
type FailureReason string

const (
	FailureValidation  FailureReason = "validation"
	FailureStock       FailureReason = "stock"
	FailureCoupon      FailureReason = "coupon"
	FailurePersistence FailureReason = "persistence"
)

var ErrIllegalTransition = errors.New("illegal checkout transition")

var transitions = map[State][]State{
	StateIdle:              {StateValidating},
	StateValidating:        {StateCheckingStock},
	StateCheckingStock:     {StateWritingOrder},
	StateWritingOrder:      {StateDecrementingStock},
	StateDecrementingStock: {StateUpdatingCoupon, StateCartCleared},
	StateUpdatingCoupon:    {StateCartCleared},
	StateCartCleared:       {StateConfirmed},
	StateFailed:            {StateIdle},
}

// Attempt tracks the progress of a single checkout. It is not safe for
// concurrent use; each PlaceOrder call owns its own Attempt.
type Attempt struct {
	state   State
	reason  FailureReason
	visited []State
}

func NewAttempt() *Attempt {
	return &Attempt{state: StateIdle, visited: []State{StateIdle}}
}

func (a *Attempt) State() State { return a.state }

// Reason is empty unless the attempt is in StateFailed.
func (a *Attempt) Reason() FailureReason { return a.reason }

// Visited returns every state entered, in order.
func (a *Attempt) Visited() []State {
	out := make([]State, len(a.visited))
	copy(out, a.visited)
	return out
}

// Advance moves to next when the transition is allowed.
func (a *Attempt) Advance(next State) error {
	if next == StateFailed {
		return fmt.Errorf("%w: use Fail to enter %s", ErrIllegalTransition, StateFailed)
	}
	for _, allowed := range transitions[a.state] {
		if allowed == next {
			a.enter(next)
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, a.state, next)
}

// Fail is allowed from any in-flight state.
func (a *Attempt) Fail(reason FailureReason) error {
	switch a.state {
	case StateIdle, StateConfirmed, StateFailed:
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, a.state, StateFailed)
	}
	a.reason = reason
	a.enter(StateFailed)
	return nil
}

// Reset returns a failed attempt to idle so the shopper can retry.
func (a *Attempt) Reset() error {
	if err := a.Advance(StateIdle); err != nil {
		return err
	}
	a.reason = ""
	return nil
}

func (a *Attempt) enter(s State) {
	a.state = s
	a.visited = append(a.visited, s)
}

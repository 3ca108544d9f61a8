package models

import "fmt"

// State is the lifecycle state shared by debts and installments.
type State string

const (
	StatePending  State = "pending"
	StatePay      State = "pay"
	StateOverdue  State = "overdue"
	StateCanceled State = "canceled"
)

// Valid reports whether s is one of the known states.
func (s State) Valid() bool {
	switch s {
	case StatePending, StatePay, StateOverdue, StateCanceled:
		return true
	}
	return false
}

// Payable reports whether an installment in state s can still be paid.
func (s State) Payable() bool {
	return s == StatePending || s == StateOverdue
}

// ParseState converts a wire value into a State.
func ParseState(s string) (State, error) {
	st := State(s)
	if !st.Valid() {
		return "", fmt.Errorf("%w: unknown state %q", ErrInvalidInput, s)
	}
	return st, nil
}

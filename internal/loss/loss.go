// Package loss provides the error accumulator used during evaluation and training.
package loss

import (
	"fmt"
	"math"

	"github.com/FlavioCFOliveira/GoCascade/internal/activations"
)

// BitFailLimit is the squared difference at or above which an output counts as failed.
const BitFailLimit = 0.25

// tanhLimit bounds the difference passed to the tanh error transfer.
const tanhLimit = 0.9999999

// MSE accumulates the squared error of output neurons over an evaluation pass.
// The zero value is ready to use.
type MSE struct {
	sum     float64
	count   int
	bitFail int
}

// Add records one output neuron and returns the difference desired-actual.
// The difference is halved for symmetric activations so both output ranges are scored alike.
func (m *MSE) Add(kind activations.Func, desired, actual float64) float64 {
	diff := desired - actual
	if kind.Symmetric() {
		diff /= 2
	}
	sq := diff * diff
	m.sum += sq
	m.count++
	if sq >= BitFailLimit {
		m.bitFail++
	}
	return diff
}

// Value returns the mean squared error, 0 if nothing was recorded.
func (m *MSE) Value() float64 {
	if m.count == 0 {
		return 0
	}
	return m.sum / float64(m.count)
}

// BitFail returns the number of outputs whose squared error reached BitFailLimit.
func (m *MSE) BitFail() int { return m.bitFail }

// Count returns the number of recorded outputs.
func (m *MSE) Count() int { return m.count }

// Sum returns the raw sum of squared errors.
func (m *MSE) Sum() float64 { return m.sum }

// Reset clears the accumulator.
func (m *MSE) Reset() {
	*m = MSE{}
}

// ErrorFunc maps an output difference before it becomes an error term.
type ErrorFunc int

const (
	// Linear uses the difference as is.
	Linear ErrorFunc = iota
	// Tanh enlarges large differences with log((1+d)/(1-d)).
	Tanh
)

// String returns the name of the error function.
func (e ErrorFunc) String() string {
	switch e {
	case Linear:
		return "ERRORFUNC_LINEAR"
	case Tanh:
		return "ERRORFUNC_TANH"
	}
	return fmt.Sprintf("ErrorFunc(%d)", int(e))
}

// Transfer applies the error function to a difference.
func (e ErrorFunc) Transfer(diff float64) float64 {
	if e != Tanh {
		return diff
	}
	switch {
	case diff < -tanhLimit:
		return -17
	case diff > tanhLimit:
		return 17
	}
	return math.Log((1 + diff) / (1 - diff))
}

// StopFunc selects the criterion that ends a training loop.
type StopFunc int

const (
	// StopMSE stops when the mean squared error drops below the desired error.
	StopMSE StopFunc = iota
	// StopBit stops when the bit fail count is at most the desired error.
	StopBit
)

// String returns the name of the stop function.
func (s StopFunc) String() string {
	switch s {
	case StopMSE:
		return "STOPFUNC_MSE"
	case StopBit:
		return "STOPFUNC_BIT"
	}
	return fmt.Sprintf("StopFunc(%d)", int(s))
}

// Reached reports whether the accumulated error satisfies the criterion.
func (s StopFunc) Reached(m *MSE, desired float64) bool {
	if s == StopBit {
		return float64(m.BitFail()) <= desired
	}
	return m.Value() < desired
}

// Current returns the quantity the criterion compares, for reporting.
func (s StopFunc) Current(m *MSE) float64 {
	if s == StopBit {
		return float64(m.BitFail())
	}
	return m.Value()
}

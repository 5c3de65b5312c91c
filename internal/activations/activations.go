// Package activations provides activation functions optimized for performance.
package activations

import (
	"fmt"
	"math"
)

// Func selects the activation function of a neuron.
// Values are stable and may be stored in snapshots.
type Func int

const (
	// Linear computes y = s.
	Linear Func = iota
	// Threshold computes y = 0 for s < 0, else 1. Not trainable.
	Threshold
	// ThresholdSymmetric computes y = -1 for s < 0, else 1. Not trainable.
	ThresholdSymmetric
	// Sigmoid computes y = 1/(1+exp(-2s)), span 0 < y < 1.
	Sigmoid
	// SigmoidStepwise is a piecewise linear approximation to Sigmoid.
	SigmoidStepwise
	// SigmoidSymmetric computes y = tanh(s), span -1 < y < 1.
	SigmoidSymmetric
	// SigmoidSymmetricStepwise is a piecewise linear approximation to SigmoidSymmetric.
	SigmoidSymmetricStepwise
	// Gaussian computes y = exp(-s*s), span 0 < y <= 1.
	Gaussian
	// GaussianSymmetric computes y = 2*exp(-s*s)-1, span -1 < y <= 1.
	GaussianSymmetric
	// Elliot is David Elliott's fast sigmoid: y = (s/2)/(1+|s|)+0.5.
	Elliot
	// ElliotSymmetric is David Elliott's fast tanh: y = s/(1+|s|).
	ElliotSymmetric
	// LinearPiece is linear, bounded to [0, 1].
	LinearPiece
	// LinearPieceSymmetric is linear, bounded to [-1, 1].
	LinearPieceSymmetric
)

var funcNames = [...]string{
	"LINEAR",
	"THRESHOLD",
	"THRESHOLD_SYMMETRIC",
	"SIGMOID",
	"SIGMOID_STEPWISE",
	"SIGMOID_SYMMETRIC",
	"SIGMOID_SYMMETRIC_STEPWISE",
	"GAUSSIAN",
	"GAUSSIAN_SYMMETRIC",
	"ELLIOT",
	"ELLIOT_SYMMETRIC",
	"LINEAR_PIECE",
	"LINEAR_PIECE_SYMMETRIC",
}

// String returns the upper-case name of the function.
func (f Func) String() string {
	if f.Valid() {
		return funcNames[f]
	}
	return fmt.Sprintf("Func(%d)", int(f))
}

// Valid reports whether f names a known activation function.
func (f Func) Valid() bool {
	return f >= Linear && f <= LinearPieceSymmetric
}

// Trainable reports whether f has a derivative usable by backpropagation.
func (f Func) Trainable() bool {
	switch f {
	case Threshold, ThresholdSymmetric:
		return false
	}
	return f.Valid()
}

// Symmetric reports whether the output range of f is centered on zero.
// Errors of symmetric outputs are halved so both ranges are scored alike.
func (f Func) Symmetric() bool {
	switch f {
	case ThresholdSymmetric, SigmoidSymmetric, SigmoidSymmetricStepwise,
		GaussianSymmetric, ElliotSymmetric, LinearPieceSymmetric:
		return true
	}
	return false
}

// Activate computes f(sum). The sum must already be multiplied by the steepness.
func (f Func) Activate(sum float64) float64 {
	switch f {
	case Linear:
		return sum
	case Threshold:
		if sum < 0 {
			return 0
		}
		return 1
	case ThresholdSymmetric:
		if sum < 0 {
			return -1
		}
		return 1
	case Sigmoid:
		return 1 / (1 + math.Exp(-2*sum))
	case SigmoidStepwise:
		return sigmoidSteps.eval(sum)
	case SigmoidSymmetric:
		return 2/(1+math.Exp(-2*sum)) - 1
	case SigmoidSymmetricStepwise:
		return symmetricSteps.eval(sum)
	case Gaussian:
		return math.Exp(-sum * sum)
	case GaussianSymmetric:
		return 2*math.Exp(-sum*sum) - 1
	case Elliot:
		return (sum/2)/(1+math.Abs(sum)) + 0.5
	case ElliotSymmetric:
		return sum / (1 + math.Abs(sum))
	case LinearPiece:
		return clip(sum, 0, 1)
	case LinearPieceSymmetric:
		return clip(sum, -1, 1)
	}
	return 0
}

// Derivative computes f'(sum) from the neuron's activation value and scaled sum.
// The value is clamped away from the asymptotes so the derivative never vanishes.
func (f Func) Derivative(steepness, value, sum float64) float64 {
	switch f {
	case Linear, LinearPiece, LinearPieceSymmetric:
		return steepness
	case Sigmoid, SigmoidStepwise:
		value = clip(value, 0.01, 0.99)
		return 2 * steepness * value * (1 - value)
	case SigmoidSymmetric, SigmoidSymmetricStepwise:
		value = clip(value, -0.98, 0.98)
		return steepness * (1 - value*value)
	case Gaussian:
		return -2 * sum * value * steepness * steepness
	case GaussianSymmetric:
		return -2 * sum * (value + 1) * steepness * steepness
	case Elliot:
		d := 1 + math.Abs(sum)
		return steepness / (2 * d * d)
	case ElliotSymmetric:
		d := 1 + math.Abs(sum)
		return steepness / (d * d)
	}
	return 0
}

// clip limits v to [lo, hi].
func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

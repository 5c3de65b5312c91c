// Package opt provides the weight update rules used by the trainers.
//
// All rules work on flat per-connection slices. A slope is the accumulated
// sum of error term times source activation, which points downhill, so
// weights move along the slope rather than against it.
package opt

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Algorithm selects how accumulated slopes become weight changes.
type Algorithm int

const (
	// Incremental updates the weights after every sample.
	Incremental Algorithm = iota
	// Batch applies plain gradient descent once per epoch.
	Batch
	// RPROP applies iRPROP- once per epoch.
	RPROP
	// Quickprop applies the quickprop recurrence once per epoch.
	Quickprop
)

var algorithmNames = [...]string{
	"TRAIN_INCREMENTAL",
	"TRAIN_BATCH",
	"TRAIN_RPROP",
	"TRAIN_QUICKPROP",
}

// String returns the name of the algorithm.
func (a Algorithm) String() string {
	if a >= Incremental && a <= Quickprop {
		return algorithmNames[a]
	}
	return fmt.Sprintf("Algorithm(%d)", int(a))
}

// IsBatch reports whether the algorithm accumulates slopes over an epoch.
func (a Algorithm) IsBatch() bool {
	return a == Batch || a == RPROP || a == Quickprop
}

const (
	// maxWeight bounds weights moved by the adaptive rules.
	maxWeight = 1500
	// maxQuickpropStep bounds a single quickprop step.
	maxQuickpropStep = 100
	// minRPROPStep is the floor applied to a previous RPROP step before it grows.
	minRPROPStep = 0.0001
	// quickpropDeadZone is the previous step magnitude treated as no step.
	quickpropDeadZone = 0.001
)

// Optimizer updates weights in place from accumulated slopes.
type Optimizer interface {
	// StepInPlace moves weights using slopes gathered over numData samples.
	// It records the history in prevSlopes and prevSteps and zeroes slopes.
	StepInPlace(weights, slopes, prevSlopes, prevSteps []float64, numData int)
}

// InitialStep returns the value previous steps are reset to for an algorithm.
func InitialStep(a Algorithm, deltaZero float64) float64 {
	if a == RPROP {
		return deltaZero
	}
	return 0
}

// SGD is plain gradient descent.
type SGD struct {
	LearningRate float64
}

// Delta applies an incremental update: weights += lr * err * sources.
func (s SGD) Delta(weights, sources []float64, err float64) {
	floats.AddScaled(weights, s.LearningRate*err, sources)
}

// StepInPlace applies weights += slope * lr / numData.
func (s SGD) StepInPlace(weights, slopes, prevSlopes, prevSteps []float64, numData int) {
	floats.AddScaled(weights, s.LearningRate/float64(max(numData, 1)), slopes)
	clear(slopes)
}

// QuickpropRule is Fahlman's quickprop rule with weight decay.
type QuickpropRule struct {
	LearningRate float64
	Decay        float64 // Usually negative
	Mu           float64 // Maximum growth factor
}

// StepInPlace applies one quickprop step to every weight.
func (q QuickpropRule) StepInPlace(weights, slopes, prevSlopes, prevSteps []float64, numData int) {
	epsilon := q.LearningRate / float64(max(numData, 1))
	shrink := q.Mu / (1 + q.Mu)

	for i, w := range weights {
		prevStep := prevSteps[i]
		prevSlope := prevSlopes[i]
		slope := slopes[i] + q.Decay*w
		var next float64

		switch {
		case prevStep > quickpropDeadZone:
			if slope > 0 {
				next += epsilon * slope
			}
			if slope > shrink*prevSlope {
				next += q.Mu * prevStep
			} else {
				next += prevStep * slope / (prevSlope - slope)
			}
		case prevStep < -quickpropDeadZone:
			if slope < 0 {
				next += epsilon * slope
			}
			if slope < shrink*prevSlope {
				next += q.Mu * prevStep
			} else {
				next += prevStep * slope / (prevSlope - slope)
			}
		default:
			next += epsilon * slope
		}

		next = clamp(next, -maxQuickpropStep, maxQuickpropStep)
		prevSteps[i] = next
		weights[i] = clamp(w+next, -maxWeight, maxWeight)
		prevSlopes[i] = slope
		slopes[i] = 0
	}
}

// RPROPRule is the iRPROP- rule.
type RPROPRule struct {
	Increase float64
	Decrease float64
	DeltaMin float64
	DeltaMax float64
}

// StepInPlace applies one iRPROP- step to every weight. A weight whose slope
// changed sign shrinks its step and does not move this epoch.
func (r RPROPRule) StepInPlace(weights, slopes, prevSlopes, prevSteps []float64, numData int) {
	for i := range weights {
		prevStep := math.Max(prevSteps[i], minRPROPStep)
		slope := slopes[i]
		var next float64

		if prevSlopes[i]*slope >= 0 {
			next = math.Min(prevStep*r.Increase, r.DeltaMax)
		} else {
			next = math.Max(prevStep*r.Decrease, r.DeltaMin)
			slope = 0
		}

		switch {
		case slope < 0:
			weights[i] = math.Max(weights[i]-next, -maxWeight)
		case slope > 0:
			weights[i] = math.Min(weights[i]+next, maxWeight)
		}

		prevSteps[i] = next
		prevSlopes[i] = slope
		slopes[i] = 0
	}
}

// clamp limits v to [lo, hi].
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

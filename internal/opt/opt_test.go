// Package opt provides comprehensive unit tests for update rules.
package opt

import (
	"math"
	"testing"
)

// TestSGDStepInPlace tests the plain batch update.
func TestSGDStepInPlace(t *testing.T) {
	sgd := SGD{LearningRate: 0.5}

	weights := []float64{1.0, 2.0, 3.0}
	slopes := []float64{0.4, -0.8, 0}
	prev := make([]float64, 3)
	steps := make([]float64, 3)

	sgd.StepInPlace(weights, slopes, prev, steps, 4)

	// weights + slope * lr / numData
	expected := []float64{1.0 + 0.4*0.5/4, 2.0 - 0.8*0.5/4, 3.0}
	for i := range weights {
		if math.Abs(weights[i]-expected[i]) > 1e-12 {
			t.Errorf("weights[%d] = %v, want %v", i, weights[i], expected[i])
		}
		if slopes[i] != 0 {
			t.Errorf("slopes[%d] = %v, want 0", i, slopes[i])
		}
	}
}

// TestSGDZeroData tests that an empty epoch is treated as one sample.
func TestSGDZeroData(t *testing.T) {
	weights := []float64{0}
	SGD{LearningRate: 1}.StepInPlace(weights, []float64{2}, []float64{0}, []float64{0}, 0)
	if weights[0] != 2 {
		t.Errorf("weights[0] = %v, want 2", weights[0])
	}
}

// TestSGDDelta tests the incremental update.
func TestSGDDelta(t *testing.T) {
	weights := []float64{0.1, 0.2, 0.3}
	sources := []float64{1, -1, 0.5}

	SGD{LearningRate: 0.7}.Delta(weights, sources, 0.2)

	expected := []float64{0.1 + 0.14, 0.2 - 0.14, 0.3 + 0.07}
	for i := range weights {
		if math.Abs(weights[i]-expected[i]) > 1e-12 {
			t.Errorf("weights[%d] = %v, want %v", i, weights[i], expected[i])
		}
	}
}

// TestQuickpropFirstStep tests that a zero previous step falls back to gradient descent.
func TestQuickpropFirstStep(t *testing.T) {
	q := QuickpropRule{LearningRate: 0.7, Decay: -0.0001, Mu: 1.75}

	weights := []float64{0.5}
	slopes := []float64{2}
	prevSlopes := []float64{0}
	prevSteps := []float64{0}

	q.StepInPlace(weights, slopes, prevSlopes, prevSteps, 2)

	slope := 2 + -0.0001*0.5
	step := 0.7 / 2 * slope
	if math.Abs(prevSteps[0]-step) > 1e-12 {
		t.Errorf("step = %v, want %v", prevSteps[0], step)
	}
	if math.Abs(weights[0]-(0.5+step)) > 1e-12 {
		t.Errorf("weight = %v, want %v", weights[0], 0.5+step)
	}
	if math.Abs(prevSlopes[0]-slope) > 1e-12 {
		t.Errorf("prevSlope = %v, want %v", prevSlopes[0], slope)
	}
	if slopes[0] != 0 {
		t.Errorf("slope not cleared: %v", slopes[0])
	}
}

// TestQuickpropQuadraticStep tests the parabola jump when the slope shrinks.
func TestQuickpropQuadraticStep(t *testing.T) {
	q := QuickpropRule{LearningRate: 0, Decay: 0, Mu: 1.75}

	weights := []float64{0}
	slopes := []float64{0.5}
	prevSlopes := []float64{1}
	prevSteps := []float64{0.2}

	q.StepInPlace(weights, slopes, prevSlopes, prevSteps, 1)

	// slope 0.5 <= shrink*1, so step = 0.2 * 0.5 / (1 - 0.5)
	if math.Abs(weights[0]-0.2) > 1e-12 {
		t.Errorf("weight = %v, want 0.2", weights[0])
	}
}

// TestQuickpropMaxGrowth tests the mu limited step when the slope does not shrink.
func TestQuickpropMaxGrowth(t *testing.T) {
	q := QuickpropRule{LearningRate: 0, Decay: 0, Mu: 1.75}

	weights := []float64{0, 0}
	slopes := []float64{1, -1}
	prevSlopes := []float64{1, -1}
	prevSteps := []float64{0.2, -0.2}

	q.StepInPlace(weights, slopes, prevSlopes, prevSteps, 1)

	if math.Abs(weights[0]-0.35) > 1e-12 {
		t.Errorf("weights[0] = %v, want 0.35", weights[0])
	}
	if math.Abs(weights[1]+0.35) > 1e-12 {
		t.Errorf("weights[1] = %v, want -0.35", weights[1])
	}
}

// TestQuickpropStepClamp tests that a step never exceeds 100 in magnitude.
func TestQuickpropStepClamp(t *testing.T) {
	q := QuickpropRule{LearningRate: 1, Decay: 0, Mu: 1.75}

	weights := []float64{0, 0}
	slopes := []float64{1e6, -1e6}
	prevSlopes := []float64{0, 0}
	prevSteps := []float64{0, 0}

	q.StepInPlace(weights, slopes, prevSlopes, prevSteps, 1)

	if prevSteps[0] != 100 || prevSteps[1] != -100 {
		t.Errorf("steps = %v, want [100 -100]", prevSteps)
	}
	if weights[0] != 100 || weights[1] != -100 {
		t.Errorf("weights = %v, want [100 -100]", weights)
	}
}

func newRPROP() RPROPRule {
	return RPROPRule{Increase: 1.2, Decrease: 0.5, DeltaMin: 0, DeltaMax: 50}
}

// TestRPROPSameSign tests step growth when the slope keeps its sign.
func TestRPROPSameSign(t *testing.T) {
	r := newRPROP()

	weights := []float64{0, 0}
	slopes := []float64{0.3, -0.3}
	prevSlopes := []float64{0.1, -0.1}
	prevSteps := []float64{0.1, 0.1}

	r.StepInPlace(weights, slopes, prevSlopes, prevSteps, 4)

	if math.Abs(weights[0]-0.12) > 1e-12 || math.Abs(weights[1]+0.12) > 1e-12 {
		t.Errorf("weights = %v, want [0.12 -0.12]", weights)
	}
	if math.Abs(prevSteps[0]-0.12) > 1e-12 {
		t.Errorf("step = %v, want 0.12", prevSteps[0])
	}
	if prevSlopes[0] != 0.3 || prevSlopes[1] != -0.3 {
		t.Errorf("prevSlopes = %v, want [0.3 -0.3]", prevSlopes)
	}
}

// TestRPROPSignFlip tests that a sign change shrinks the step without moving the weight.
func TestRPROPSignFlip(t *testing.T) {
	r := newRPROP()

	weights := []float64{0.7}
	slopes := []float64{-0.3}
	prevSlopes := []float64{0.2}
	prevSteps := []float64{0.4}

	r.StepInPlace(weights, slopes, prevSlopes, prevSteps, 1)

	if weights[0] != 0.7 {
		t.Errorf("weight moved to %v on sign flip", weights[0])
	}
	if math.Abs(prevSteps[0]-0.2) > 1e-12 {
		t.Errorf("step = %v, want 0.2", prevSteps[0])
	}
	if prevSlopes[0] != 0 {
		t.Errorf("prevSlope = %v, want 0", prevSlopes[0])
	}

	// The epoch after a flip grows again from the shrunk step.
	slopes[0] = -0.3
	r.StepInPlace(weights, slopes, prevSlopes, prevSteps, 1)
	if math.Abs(weights[0]-(0.7-0.24)) > 1e-12 {
		t.Errorf("weight = %v, want %v", weights[0], 0.7-0.24)
	}
}

// TestRPROPStepBounds tests the minimum previous step and the maximum step.
func TestRPROPStepBounds(t *testing.T) {
	r := newRPROP()

	weights := []float64{0, 0}
	slopes := []float64{1, 1}
	prevSlopes := []float64{1, 1}
	prevSteps := []float64{0, 49}

	r.StepInPlace(weights, slopes, prevSlopes, prevSteps, 1)

	if math.Abs(prevSteps[0]-0.00012) > 1e-15 {
		t.Errorf("step from zero = %v, want 0.00012", prevSteps[0])
	}
	if prevSteps[1] != 50 {
		t.Errorf("step = %v, want 50", prevSteps[1])
	}
}

// TestRPROPZeroSlope tests that a zero slope leaves the weight alone.
func TestRPROPZeroSlope(t *testing.T) {
	weights := []float64{0.3}
	newRPROP().StepInPlace(weights, []float64{0}, []float64{0.5}, []float64{0.1}, 1)
	if weights[0] != 0.3 {
		t.Errorf("weight = %v, want 0.3", weights[0])
	}
}

// TestInitialStep tests the reset value of previous steps.
func TestInitialStep(t *testing.T) {
	if InitialStep(RPROP, 0.1) != 0.1 {
		t.Error("RPROP should start from delta zero")
	}
	for _, a := range []Algorithm{Incremental, Batch, Quickprop} {
		if InitialStep(a, 0.1) != 0 {
			t.Errorf("%v should start from 0", a)
		}
	}
}

// TestAlgorithm tests names and batch classification.
func TestAlgorithm(t *testing.T) {
	if RPROP.String() != "TRAIN_RPROP" {
		t.Errorf("RPROP.String() = %q", RPROP.String())
	}
	if Algorithm(9).String() != "Algorithm(9)" {
		t.Errorf("Algorithm(9).String() = %q", Algorithm(9).String())
	}
	if Incremental.IsBatch() || !Quickprop.IsBatch() || !Batch.IsBatch() {
		t.Error("IsBatch misclassified")
	}
}

// TestOptimizerInterface tests that all rules implement Optimizer.
func TestOptimizerInterface(t *testing.T) {
	var optimizers = []Optimizer{
		SGD{LearningRate: 0.1},
		QuickpropRule{LearningRate: 0.1, Mu: 1.75},
		newRPROP(),
	}
	for _, o := range optimizers {
		w := []float64{1}
		o.StepInPlace(w, []float64{0.5}, []float64{0}, []float64{0.1}, 1)
		if w[0] <= 1 {
			t.Errorf("%T did not follow a positive slope: %v", o, w[0])
		}
	}
}

// TestRPROPConvergence tests that iRPROP- finds the minimum of a parabola.
func TestRPROPConvergence(t *testing.T) {
	r := newRPROP()
	w := []float64{5}
	slopes := []float64{0}
	prevSlopes := []float64{0}
	prevSteps := []float64{0.1}

	for i := 0; i < 200; i++ {
		slopes[0] = -2 * (w[0] - 1) // downhill direction of (w-1)^2
		r.StepInPlace(w, slopes, prevSlopes, prevSteps, 1)
	}
	if math.Abs(w[0]-1) > 1e-3 {
		t.Errorf("w = %v, want 1", w[0])
	}
}

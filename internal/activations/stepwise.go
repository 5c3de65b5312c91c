package activations

import "math"

// stepTable is a 6-breakpoint piecewise linear approximation of a sigmoid.
// Below the first breakpoint the output is Min, at or above the last it is Max.
type stepTable struct {
	Breakpoints [6]float64
	Results     [6]float64
	Min, Max    float64
}

var (
	sigmoidResults   = [6]float64{0.005, 0.05, 0.25, 0.75, 0.95, 0.995}
	symmetricResults = [6]float64{-0.99, -0.9, -0.5, 0.5, 0.9, 0.99}

	// Activate takes the steepness-scaled sum, so the unit tables serve every
	// steepness. A table built for steepness s gives the same values on the raw sum.
	sigmoidSteps, _   = newStepTable(SigmoidStepwise, 1)
	symmetricSteps, _ = newStepTable(SigmoidSymmetricStepwise, 1)
)

// newStepTable computes the breakpoints of a stepwise function for the given
// steepness. ok is false if f is not a stepwise kind or steepness is zero.
func newStepTable(f Func, steepness float64) (t stepTable, ok bool) {
	if steepness == 0 {
		return t, false
	}
	switch f {
	case SigmoidStepwise:
		t.Results = sigmoidResults
		t.Min, t.Max = 0, 1
		for i, r := range t.Results {
			t.Breakpoints[i] = math.Log(1/r-1) / -2 / steepness
		}
	case SigmoidSymmetricStepwise:
		t.Results = symmetricResults
		t.Min, t.Max = -1, 1
		for i, r := range t.Results {
			t.Breakpoints[i] = math.Log(2/(r+1)-1) / -2 / steepness
		}
	default:
		return t, false
	}
	return t, true
}

// eval evaluates the table at a sum scaled for the table's steepness.
func (t *stepTable) eval(v float64) float64 {
	b, r := &t.Breakpoints, &t.Results
	switch {
	case v < b[0]:
		return t.Min
	case v < b[1]:
		return lerp(b[0], r[0], b[1], r[1], v)
	case v < b[2]:
		return lerp(b[1], r[1], b[2], r[2], v)
	case v < b[3]:
		return lerp(b[2], r[2], b[3], r[3], v)
	case v < b[4]:
		return lerp(b[3], r[3], b[4], r[4], v)
	case v < b[5]:
		return lerp(b[4], r[4], b[5], r[5], v)
	}
	return t.Max
}

func lerp(v1, r1, v2, r2, v float64) float64 {
	return (r2-r1)*(v-v1)/(v2-v1) + r1
}

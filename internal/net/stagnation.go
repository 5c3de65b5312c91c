package net

// stagnation ends a training phase that stopped making progress. Every time
// the tracked value leaves the band [backslide, target] a new band is set
// around it and the deadline moves patience epochs past the current one.
type stagnation struct {
	fraction  float64
	patience  int
	target    float64
	backslide float64
	deadline  int
}

func newStagnation(maxEpochs int, fraction float64, patience int) *stagnation {
	return &stagnation{
		fraction:  fraction,
		patience:  patience,
		target:    0,
		backslide: -1e20,
		deadline:  maxEpochs,
	}
}

// stalled records the value of epoch i and reports whether the phase should end.
func (s *stagnation) stalled(i int, v float64) bool {
	if v > s.target || v < s.backslide {
		s.target = v * (1 + s.fraction)
		s.backslide = v * (1 - s.fraction)
		s.deadline = i + s.patience
	}
	return i >= s.deadline
}

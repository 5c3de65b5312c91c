package opt

import "math"

// Scheduler adjusts the learning rate between reports.
type Scheduler interface {
	// Next returns the learning rate to use after the given epoch.
	Next(epoch int, mse, lr float64) float64
}

// StepLR decays the learning rate by gamma every stepSize epochs.
type StepLR struct {
	stepSize  int
	gamma     float64
	lastEpoch int
}

// NewStepLR creates a StepLR scheduler.
func NewStepLR(stepSize int, gamma float64) *StepLR {
	return &StepLR{stepSize: max(stepSize, 1), gamma: gamma}
}

// Next applies one decay for every stepSize epochs elapsed since the last call.
func (s *StepLR) Next(epoch int, mse, lr float64) float64 {
	for s.lastEpoch+s.stepSize <= epoch {
		lr *= s.gamma
		s.lastEpoch += s.stepSize
	}
	return lr
}

// ExponentialLR decays the learning rate by gamma every epoch.
type ExponentialLR struct {
	gamma     float64
	lastEpoch int
}

// NewExponentialLR creates an ExponentialLR scheduler.
func NewExponentialLR(gamma float64) *ExponentialLR {
	return &ExponentialLR{gamma: gamma}
}

// Next applies gamma once per epoch elapsed since the last call.
func (s *ExponentialLR) Next(epoch int, mse, lr float64) float64 {
	if epoch > s.lastEpoch {
		lr *= math.Pow(s.gamma, float64(epoch-s.lastEpoch))
		s.lastEpoch = epoch
	}
	return lr
}

// ReduceLROnPlateau reduces the learning rate when the error has stopped improving.
type ReduceLROnPlateau struct {
	factor    float64
	patience  int
	threshold float64
	cooldown  int
	minLR     float64

	bestLoss        float64
	numBadEpochs    int
	cooldownCounter int
}

// NewReduceLROnPlateau creates a plateau scheduler. Patience counts calls to Next.
func NewReduceLROnPlateau(factor float64, patience int, threshold, minLR float64) *ReduceLROnPlateau {
	return &ReduceLROnPlateau{
		factor:    factor,
		patience:  patience,
		threshold: threshold,
		minLR:     minLR,
		bestLoss:  math.MaxFloat64,
	}
}

// WithCooldown sets the number of calls to wait after a reduction.
func (s *ReduceLROnPlateau) WithCooldown(n int) *ReduceLROnPlateau {
	s.cooldown = n
	return s
}

// Next returns lr, reduced by factor when mse has not improved for patience calls.
func (s *ReduceLROnPlateau) Next(epoch int, mse, lr float64) float64 {
	if s.cooldownCounter > 0 {
		s.cooldownCounter--
		return lr
	}

	if mse < s.bestLoss-s.threshold {
		s.bestLoss = mse
		s.numBadEpochs = 0
	} else {
		s.numBadEpochs++
	}

	if s.numBadEpochs >= s.patience {
		lr = math.Max(lr*s.factor, s.minLR)
		s.numBadEpochs = 0
		s.cooldownCounter = s.cooldown
	}
	return lr
}

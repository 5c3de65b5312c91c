package net

import (
	"github.com/FlavioCFOliveira/GoCascade/internal/activations"
	"github.com/FlavioCFOliveira/GoCascade/internal/loss"
	"github.com/FlavioCFOliveira/GoCascade/internal/opt"
)

// Config holds the training parameters. The network itself only holds
// structure and weights, so one network can be trained with different configs.
type Config struct {
	TrainingAlgorithm opt.Algorithm
	LearningRate      float64
	LearningMomentum  float64 // Incremental only
	ErrorFunction     loss.ErrorFunc
	StopFunction      loss.StopFunc

	QuickpropDecay float64
	QuickpropMu    float64

	RPROPIncrease  float64
	RPROPDecrease  float64
	RPROPDeltaMin  float64
	RPROPDeltaMax  float64
	RPROPDeltaZero float64

	CascadeOutputChangeFraction      float64
	CascadeOutputStagnationEpochs    int
	CascadeCandidateChangeFraction   float64
	CascadeCandidateStagnationEpochs int
	CascadeCandidateLimit            float64
	CascadeMaxOutEpochs              int
	CascadeMaxCandEpochs             int
	CascadeActivationFunctions       []activations.Func
	CascadeActivationSteepnesses     []float64
	CascadeNumCandidateGroups        int

	// MaxNeurons and MaxConnections bound the arena, 0 means unlimited.
	MaxNeurons     int
	MaxConnections int
}

// DefaultConfig returns the default training parameters.
func DefaultConfig() Config {
	return Config{
		TrainingAlgorithm: opt.RPROP,
		LearningRate:      0.7,
		ErrorFunction:     loss.Tanh,
		StopFunction:      loss.StopMSE,

		QuickpropDecay: -0.0001,
		QuickpropMu:    1.75,

		RPROPIncrease:  1.2,
		RPROPDecrease:  0.5,
		RPROPDeltaMin:  0,
		RPROPDeltaMax:  50,
		RPROPDeltaZero: 0.1,

		CascadeOutputChangeFraction:      0.01,
		CascadeOutputStagnationEpochs:    12,
		CascadeCandidateChangeFraction:   0.01,
		CascadeCandidateStagnationEpochs: 12,
		CascadeCandidateLimit:            1000,
		CascadeMaxOutEpochs:              150,
		CascadeMaxCandEpochs:             150,
		CascadeActivationFunctions: []activations.Func{
			activations.Sigmoid,
			activations.SigmoidSymmetric,
			activations.Gaussian,
			activations.GaussianSymmetric,
			activations.Elliot,
			activations.ElliotSymmetric,
		},
		CascadeActivationSteepnesses: []float64{0.25, 0.5, 0.75, 1},
		CascadeNumCandidateGroups:    2,
	}
}

// DefaultConfig returns the default training parameters with the network's learning rate.
func (n *Network) DefaultConfig() Config {
	cfg := DefaultConfig()
	cfg.LearningRate = n.learningRate
	return cfg
}

// orDefault returns cfg, or the network's default config if cfg is nil.
func (n *Network) orDefault(cfg *Config) *Config {
	if cfg != nil {
		return cfg
	}
	c := n.DefaultConfig()
	return &c
}

// NumCandidates returns the size of the cascade candidate pool.
func (c *Config) NumCandidates() int {
	return len(c.CascadeActivationFunctions) * len(c.CascadeActivationSteepnesses) * c.CascadeNumCandidateGroups
}

// optimizer returns the batch update rule selected by the config.
func (c *Config) optimizer() (opt.Optimizer, error) {
	switch c.TrainingAlgorithm {
	case opt.Batch:
		return opt.SGD{LearningRate: c.LearningRate}, nil
	case opt.RPROP:
		return opt.RPROPRule{
			Increase: c.RPROPIncrease,
			Decrease: c.RPROPDecrease,
			DeltaMin: c.RPROPDeltaMin,
			DeltaMax: c.RPROPDeltaMax,
		}, nil
	case opt.Quickprop:
		return opt.QuickpropRule{
			LearningRate: c.LearningRate,
			Decay:        c.QuickpropDecay,
			Mu:           c.QuickpropMu,
		}, nil
	}
	return nil, errorf(ErrCantUseTrainAlg, "%v is not a batch algorithm", c.TrainingAlgorithm)
}

// initialStep returns the value previous steps are reset to.
func (c *Config) initialStep() float64 {
	return opt.InitialStep(c.TrainingAlgorithm, c.RPROPDeltaZero)
}

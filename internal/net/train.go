package net

import (
	"gonum.org/v1/gonum/floats"

	"github.com/FlavioCFOliveira/GoCascade/internal/loss"
	"github.com/FlavioCFOliveira/GoCascade/internal/opt"
)

// MSE returns the mean squared error accumulated since the last reset.
func (n *Network) MSE() float64 { return n.mse.Value() }

// BitFail returns the number of failed outputs accumulated since the last reset.
func (n *Network) BitFail() int { return n.mse.BitFail() }

// ResetMSE clears the error accumulator.
func (n *Network) ResetMSE() { n.mse.Reset() }

// ensureTrainArrays allocates the training scratch if needed. The step
// history holds momentum deltas or batch step sizes, and is reset when cfg
// selects a different algorithm than the one that filled it.
func (n *Network) ensureTrainArrays(cfg *Config) {
	if len(n.trainErrors) != len(n.neurons) {
		n.trainErrors = make([]float64, len(n.neurons))
	}
	if len(n.slopes) != len(n.weights) {
		n.slopes = make([]float64, len(n.weights))
		n.prevSlopes = make([]float64, len(n.weights))
		n.prevSteps = make([]float64, len(n.weights))
		n.resetTrainArrays(cfg)
	} else if n.stepsAlgorithm != cfg.TrainingAlgorithm {
		n.resetTrainArrays(cfg)
	}
}

// ClearTrainArrays resets slopes and step history to their initial values.
func (n *Network) ClearTrainArrays(cfg *Config) {
	cfg = n.orDefault(cfg)
	n.ensureTrainArrays(cfg)
	n.resetTrainArrays(cfg)
}

func (n *Network) resetTrainArrays(cfg *Config) {
	clear(n.slopes)
	clear(n.prevSlopes)
	fill(n.prevSteps, cfg.initialStep())
	n.stepsAlgorithm = cfg.TrainingAlgorithm
}

func fill(s []float64, v float64) {
	for i := range s {
		s[i] = v
	}
}

// checkTrainable rejects networks with an activation that has no derivative.
func (n *Network) checkTrainable() error {
	for i := n.layers[1].First; i < n.totalNeurons; i++ {
		if n.isBias(i) {
			continue
		}
		if f := n.neurons[i].Activation; !f.Trainable() {
			return errorf(ErrCantTrainActivation, "neuron %d uses %v", i, f)
		}
	}
	return nil
}

func (n *Network) checkSample(input, desired []float64) error {
	if len(input) != n.numInput || len(desired) != n.numOutput {
		return errorf(ErrInputSize, "sample has %d inputs and %d outputs, network has %d and %d",
			len(input), len(desired), n.numInput, n.numOutput)
	}
	return nil
}

func (n *Network) checkData(data *TrainData) error {
	if data.NumInput() != n.numInput || data.NumOutput() != n.numOutput {
		return errorf(ErrTrainDataMismatch, "data has %d inputs and %d outputs, network has %d and %d",
			data.NumInput(), data.NumOutput(), n.numInput, n.numOutput)
	}
	return nil
}

// computeMSE accumulates the error of the last Run and sets the error terms
// of the output neurons. Other error terms are cleared.
func (n *Network) computeMSE(desired []float64, errFn loss.ErrorFunc) {
	clear(n.trainErrors[:n.totalNeurons])
	out := n.layers[len(n.layers)-1]
	for j, i := 0, out.First; i < out.Last; i, j = i+1, j+1 {
		nr := n.neurons[i]
		diff := errFn.Transfer(n.mse.Add(nr.Activation, desired[j], n.values[i]))
		n.trainErrors[i] = nr.Activation.Derivative(nr.Steepness, n.values[i], n.sums[i]) * diff
	}
}

// backpropagate propagates the output error terms down to the first hidden layer.
func (n *Network) backpropagate() {
	for li := len(n.layers) - 1; li >= 2; li-- {
		l := n.layers[li]
		for i := l.First; i < l.Last; i++ {
			nr := n.neurons[i]
			e := n.trainErrors[i]
			if e == 0 || nr.FirstCon == nr.LastCon {
				continue
			}
			w := n.weights[nr.FirstCon:nr.LastCon]
			if n.connectionRate >= 1 {
				base := n.sourceBase(li)
				floats.AddScaled(n.trainErrors[base:base+len(w)], e, w)
				continue
			}
			for k, src := range n.connections[nr.FirstCon:nr.LastCon] {
				n.trainErrors[src] += e * w[k]
			}
		}

		prev := n.layers[li-1]
		for i := prev.First; i < prev.Last; i++ {
			nr := n.neurons[i]
			n.trainErrors[i] *= nr.Activation.Derivative(nr.Steepness, n.values[i], n.sums[i])
		}
	}
}

// updateWeightsIncremental applies the error terms of one sample to the weights.
func (n *Network) updateWeightsIncremental(cfg *Config) {
	sgd := opt.SGD{LearningRate: cfg.LearningRate}
	momentum := cfg.LearningMomentum
	for li := 1; li < len(n.layers); li++ {
		l := n.layers[li]
		for i := l.First; i < l.Last; i++ {
			nr := n.neurons[i]
			if nr.FirstCon == nr.LastCon {
				continue
			}
			e := n.trainErrors[i]
			w := n.weights[nr.FirstCon:nr.LastCon]
			if momentum == 0 && n.connectionRate >= 1 {
				base := n.sourceBase(li)
				sgd.Delta(w, n.values[base:base+len(w)], e)
				continue
			}
			deltas := n.prevSteps[nr.FirstCon:nr.LastCon]
			for k, src := range n.connections[nr.FirstCon:nr.LastCon] {
				d := cfg.LearningRate*e*n.values[src] + momentum*deltas[k]
				w[k] += d
				deltas[k] = d
			}
		}
	}
}

// updateSlopes adds the error terms of one sample to the slopes of the
// neurons in layers [from, to).
func (n *Network) updateSlopes(from, to int) {
	for li := from; li < to; li++ {
		l := n.layers[li]
		for i := l.First; i < l.Last; i++ {
			nr := n.neurons[i]
			if nr.FirstCon == nr.LastCon {
				continue
			}
			e := n.trainErrors[i]
			s := n.slopes[nr.FirstCon:nr.LastCon]
			if n.connectionRate >= 1 {
				base := n.sourceBase(li)
				floats.AddScaled(s, e, n.values[base:base+len(s)])
				continue
			}
			for k, src := range n.connections[nr.FirstCon:nr.LastCon] {
				s[k] += e * n.values[src]
			}
		}
	}
}

// updateWeightsBatch applies the accumulated slopes of weights [first, last).
func (n *Network) updateWeightsBatch(o opt.Optimizer, numData, first, last int) {
	o.StepInPlace(n.weights[first:last], n.slopes[first:last],
		n.prevSlopes[first:last], n.prevSteps[first:last], numData)
}

// Train runs one incremental training step on a single sample with the
// network's learning rate.
func (n *Network) Train(input, desired []float64) error {
	if err := n.checkSample(input, desired); err != nil {
		return err
	}
	if err := n.checkTrainable(); err != nil {
		return err
	}
	cfg := n.DefaultConfig()
	cfg.TrainingAlgorithm = opt.Incremental
	n.ensureTrainArrays(&cfg)
	n.trainSample(input, desired, &cfg)
	return nil
}

func (n *Network) trainSample(input, desired []float64, cfg *Config) {
	n.Run(input)
	n.computeMSE(desired, cfg.ErrorFunction)
	n.backpropagate()
	n.updateWeightsIncremental(cfg)
}

// Test runs the network on one sample and accumulates its error without training.
func (n *Network) Test(input, desired []float64) ([]float64, error) {
	if err := n.checkSample(input, desired); err != nil {
		return nil, err
	}
	out := n.Run(input)
	last := n.layers[len(n.layers)-1]
	for j, i := 0, last.First; i < last.Last; i, j = i+1, j+1 {
		n.mse.Add(n.neurons[i].Activation, desired[j], n.values[i])
	}
	return out, nil
}

// TestData resets the error and accumulates it over the whole data set.
func (n *Network) TestData(data *TrainData) (float64, error) {
	if err := n.checkData(data); err != nil {
		return 0, err
	}
	n.ResetMSE()
	for i := 0; i < data.Len(); i++ {
		if _, err := n.Test(data.inputs[i], data.outputs[i]); err != nil {
			return 0, err
		}
	}
	return n.MSE(), nil
}

// TrainEpoch trains one epoch with the algorithm selected by cfg and returns
// the mean squared error measured during the epoch. A nil cfg uses the defaults.
func (n *Network) TrainEpoch(data *TrainData, cfg *Config) (float64, error) {
	cfg = n.orDefault(cfg)
	if err := n.checkData(data); err != nil {
		return 0, err
	}
	if err := n.checkTrainable(); err != nil {
		return 0, err
	}
	return n.trainEpoch(data, cfg)
}

func (n *Network) trainEpoch(data *TrainData, cfg *Config) (float64, error) {
	n.ensureTrainArrays(cfg)
	n.ResetMSE()

	if cfg.TrainingAlgorithm == opt.Incremental {
		for i := 0; i < data.Len(); i++ {
			n.trainSample(data.inputs[i], data.outputs[i], cfg)
		}
		return n.MSE(), nil
	}

	o, err := cfg.optimizer()
	if err != nil {
		return 0, err
	}
	for i := 0; i < data.Len(); i++ {
		n.Run(data.inputs[i])
		n.computeMSE(data.outputs[i], cfg.ErrorFunction)
		n.backpropagate()
		n.updateSlopes(1, len(n.layers))
	}
	n.updateWeightsBatch(o, data.Len(), 0, n.totalConnections)
	return n.MSE(), nil
}

// TrainOnData trains for up to maxEpochs epochs or until the stop function of
// cfg reaches desiredError. Callbacks are invoked every reportEvery epochs, on
// the first and last epoch and when the desired error is reached; any of them
// may stop training. With reportEvery > 0 and no callbacks, progress is
// printed to stdout.
func (n *Network) TrainOnData(data *TrainData, cfg *Config, maxEpochs, reportEvery int, desiredError float64, callbacks ...Callback) error {
	cfg = n.orDefault(cfg)
	if err := n.checkData(data); err != nil {
		return err
	}
	if err := n.checkTrainable(); err != nil {
		return err
	}
	if reportEvery > 0 && len(callbacks) == 0 {
		callbacks = []Callback{NewLogger(maxEpochs, desiredError)}
	}

	begin(callbacks, n)
	defer end(callbacks, n)

	for epoch := 1; epoch <= maxEpochs; epoch++ {
		mse, err := n.trainEpoch(data, cfg)
		if err != nil {
			return err
		}
		reached := cfg.StopFunction.Reached(&n.mse, desiredError)
		if reportEvery > 0 && (epoch%reportEvery == 0 || epoch == maxEpochs || epoch == 1 || reached) {
			if report(callbacks, epoch, mse, n) == Stop {
				break
			}
		}
		if reached {
			break
		}
	}
	return nil
}

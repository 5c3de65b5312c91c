package net

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/FlavioCFOliveira/GoCascade/internal/opt"
)

// CascadeTrainOnData grows a shortcut network one hidden neuron at a time.
//
// Each round trains the output weights until the error stagnates, then trains
// a pool of candidate neurons against the remaining error and installs the
// best one in a new layer before the output layer. Training ends after
// maxNeurons rounds, when the stop function of cfg reaches desiredError, or
// when a callback returns Stop. Callbacks are invoked every reportEvery
// rounds with the number of installed neurons as the epoch. The output
// weights are always trained once more at the end.
//
// If the arena cannot grow for the next candidate pool, training stops with
// the topology reached so far and the returned error has code ErrCantAllocateMem.
func (n *Network) CascadeTrainOnData(data *TrainData, cfg *Config, maxNeurons, reportEvery int, desiredError float64, callbacks ...Callback) error {
	cfg = n.orDefault(cfg)
	if err := n.checkCascade(data, cfg); err != nil {
		return err
	}
	if reportEvery > 0 && len(callbacks) == 0 {
		callbacks = []Callback{NewCascadeLogger(maxNeurons, desiredError)}
	}
	o, err := cfg.optimizer()
	if err != nil {
		return err
	}

	begin(callbacks, n)
	defer end(callbacks, n)

	n.ensureTrainArrays(cfg)
	n.cascadeEpochs = 0

	var allocErr error
	for i := 1; i <= maxNeurons; i++ {
		n.cascadeEpochs += n.trainOutputs(data, cfg, o, desiredError)
		reached := cfg.StopFunction.Reached(&n.mse, desiredError)

		if reportEvery > 0 && (i%reportEvery == 0 || i == maxNeurons || i == 1 || reached) {
			if report(callbacks, i-1, n.MSE(), n) == Stop {
				break
			}
		}
		if reached {
			break
		}

		if allocErr = n.initializeCandidates(cfg); allocErr != nil {
			break
		}
		n.cascadeEpochs += n.trainCandidates(data, cfg, o)
		n.installCandidate()
	}

	n.cascadeEpochs += n.trainOutputs(data, cfg, o, 0)
	return allocErr
}

// checkCascade validates a cascade run before anything is changed.
func (n *Network) checkCascade(data *TrainData, cfg *Config) error {
	if !n.shortcut {
		return errorf(ErrCascadeLayout, "network is layered")
	}
	if cfg.TrainingAlgorithm != opt.RPROP && cfg.TrainingAlgorithm != opt.Quickprop {
		return errorf(ErrCantUseTrainAlg, "cascade training needs RPROP or quickprop, got %v", cfg.TrainingAlgorithm)
	}
	if cfg.NumCandidates() == 0 {
		return errorf(ErrCantUseTrainAlg, "cascade training needs at least one candidate")
	}
	for _, f := range cfg.CascadeActivationFunctions {
		if !f.Trainable() {
			return errorf(ErrCantTrainActivation, "candidate activation %v", f)
		}
	}
	if err := n.checkData(data); err != nil {
		return err
	}
	return n.checkTrainable()
}

// trainOutputs trains only the weights into the output layer and returns the
// number of epochs run.
func (n *Network) trainOutputs(data *TrainData, cfg *Config, o opt.Optimizer, desiredError float64) int {
	maxEpochs := cfg.CascadeMaxOutEpochs
	n.ClearTrainArrays(cfg)

	initial := n.trainOutputsEpoch(data, cfg, o)
	if cfg.StopFunction.Reached(&n.mse, desiredError) {
		return 1
	}

	stag := newStagnation(maxEpochs, cfg.CascadeOutputChangeFraction, cfg.CascadeOutputStagnationEpochs)
	for i := 1; i < maxEpochs; i++ {
		mse := n.trainOutputsEpoch(data, cfg, o)
		if cfg.StopFunction.Reached(&n.mse, desiredError) {
			return i + 1
		}
		if stag.stalled(i, initial-mse) {
			return i + 1
		}
	}
	return maxEpochs
}

// trainOutputsEpoch runs one batch epoch over the output weights.
func (n *Network) trainOutputsEpoch(data *TrainData, cfg *Config, o opt.Optimizer) float64 {
	last := len(n.layers) - 1
	n.ResetMSE()
	for i := 0; i < data.Len(); i++ {
		n.Run(data.inputs[i])
		n.computeMSE(data.outputs[i], cfg.ErrorFunction)
		n.updateSlopes(last, last+1)
	}
	first := n.neurons[n.layers[last].First].FirstCon
	n.updateWeightsBatch(o, data.Len(), first, n.totalConnections)
	return n.MSE()
}

// candidateLayout returns the first candidate neuron, the incoming weights of
// a candidate and the first weight of the candidate block.
func (n *Network) candidateLayout() (first, in, firstCon int) {
	return n.totalNeurons + 1, n.totalNeurons - n.numOutput, n.totalConnections + n.totalNeurons
}

// initializeCandidates lays out the candidate pool after the live neurons and
// randomizes its weights. The arena grows if needed; on failure nothing is changed.
func (n *Network) initializeCandidates(cfg *Config) error {
	numCand := cfg.NumCandidates()
	first, in, firstCon := n.candidateLayout()
	out := n.numOutput

	needNeurons := int64(first) + int64(numCand)
	needConnections := int64(firstCon) + int64(in+out)*int64(numCand)
	if err := n.reserve(cfg, needNeurons, needConnections); err != nil {
		return err
	}

	hidden := n.totalNeurons - n.numInput - n.numOutput
	for i := range n.layers {
		hidden -= n.biasCount(i)
	}
	k := 2 * math.Pow(0.7*float64(hidden), 1/float64(n.numInput))
	k = math.Min(math.Max(k, 0.5), 8)
	step := cfg.initialStep()

	con := firstCon
	idx := first
	for _, f := range cfg.CascadeActivationFunctions {
		for _, s := range cfg.CascadeActivationSteepnesses {
			for g := 0; g < cfg.CascadeNumCandidateGroups; g++ {
				n.neurons[idx] = Neuron{FirstCon: con, LastCon: con + in, Activation: f, Steepness: s}
				n.sums[idx], n.values[idx], n.trainErrors[idx] = 0, 0, 0

				bias := con + n.numInput
				for c := con; c < con+in+out; c++ {
					if c == bias {
						n.weights[c] = n.randomWeight(-k, k)
					} else {
						n.weights[c] = n.randomWeight(0, k)
					}
					n.slopes[c] = 0
					n.prevSlopes[c] = 0
					n.prevSteps[c] = step
				}
				con += in + out
				idx++
			}
		}
	}

	if len(n.candScores) != numCand {
		n.candScores = make([]float64, numCand)
	}
	if len(n.residual) != out {
		n.residual = make([]float64, out)
	}
	return nil
}

// reserve grows the arena to hold at least the given neurons and connections.
// Growth over-allocates so that later rounds rarely reallocate.
func (n *Network) reserve(cfg *Config, neurons, connections int64) error {
	if neurons > maxArena || connections > maxArena {
		return errorf(ErrCantAllocateMem, "arena would need %d neurons and %d connections", neurons, connections)
	}
	if cfg.MaxNeurons > 0 && neurons > int64(cfg.MaxNeurons) {
		return errorf(ErrCantAllocateMem, "need %d neurons, limit is %d", neurons, cfg.MaxNeurons)
	}
	if cfg.MaxConnections > 0 && connections > int64(cfg.MaxConnections) {
		return errorf(ErrCantAllocateMem, "need %d connections, limit is %d", connections, cfg.MaxConnections)
	}

	if int(neurons) > len(n.neurons) {
		size := growSize(int(neurons), int(neurons)+10, cfg.MaxNeurons)
		n.neurons = append(n.neurons, make([]Neuron, size-len(n.neurons))...)
		n.sums = growFloats(n.sums, size)
		n.values = growFloats(n.values, size)
		n.trainErrors = growFloats(n.trainErrors, size)
	}
	if int(connections) > len(n.weights) {
		size := growSize(int(connections), int(connections)+n.totalNeurons*10, cfg.MaxConnections)
		n.weights = growFloats(n.weights, size)
		n.connections = append(n.connections, make([]int, size-len(n.connections))...)
		n.slopes = growFloats(n.slopes, size)
		n.prevSlopes = growFloats(n.prevSlopes, size)
		n.prevSteps = growFloats(n.prevSteps, size)
	}
	return nil
}

// growSize returns need plus half, at least floor, at most limit if set.
func growSize(need, floor, limit int) int {
	size := max(need+need/2, floor)
	size = min(size, maxArena)
	if limit > 0 {
		size = min(size, limit)
	}
	return size
}

func growFloats(s []float64, size int) []float64 {
	return append(s, make([]float64, size-len(s))...)
}

// trainCandidates trains the pool until the best score stagnates and returns
// the number of epochs run.
func (n *Network) trainCandidates(data *TrainData, cfg *Config, o opt.Optimizer) int {
	maxEpochs := cfg.CascadeMaxCandEpochs
	sse := n.mse.Sum()
	stag := newStagnation(maxEpochs, cfg.CascadeCandidateChangeFraction, cfg.CascadeCandidateStagnationEpochs)

	for i := 0; i < maxEpochs; i++ {
		best := n.trainCandidatesEpoch(data, o, sse)
		if sse > 0 && best/sse > cfg.CascadeCandidateLimit {
			return i + 1
		}
		if stag.stalled(i, best) {
			return i + 1
		}
	}
	return maxEpochs
}

// trainCandidatesEpoch runs one epoch over the candidate pool, updates its
// weights and returns the best score. Scores start at the sum of squared
// errors of the last output epoch, so a positive score means the candidate
// explains part of the remaining error.
func (n *Network) trainCandidatesEpoch(data *TrainData, o opt.Optimizer, sse float64) float64 {
	for c := range n.candScores {
		n.candScores[c] = sse
	}

	outLayer := n.layers[len(n.layers)-1]
	for i := 0; i < data.Len(); i++ {
		n.Run(data.inputs[i])
		desired := data.outputs[i]
		for j := range n.residual {
			diff := desired[j] - n.values[outLayer.First+j]
			if n.neurons[outLayer.First+j].Activation.Symmetric() {
				diff /= 2
			}
			n.residual[j] = diff
		}
		n.updateCandidateSlopes()
	}

	first, _, _ := n.candidateLayout()
	lastCand := n.neurons[first+len(n.candScores)-1]
	n.updateWeightsBatch(o, data.Len(), n.neurons[first].FirstCon, lastCand.LastCon+n.numOutput)

	best := 0
	for c := 1; c < len(n.candScores); c++ {
		if n.candScores[c] > n.candScores[best] {
			best = c
		}
	}
	n.bestCandidate = first + best
	return n.candScores[best]
}

// updateCandidateSlopes evaluates every candidate on the current sample and
// accumulates the slopes of its incoming and outgoing weights.
func (n *Network) updateCandidateSlopes() {
	first, in, _ := n.candidateLayout()
	sources := n.values[:in]

	for c := range n.candScores {
		idx := first + c
		nr := n.neurons[idx]

		n.activate(idx, floats.Dot(n.weights[nr.FirstCon:nr.LastCon], sources))
		value := n.values[idx]
		// Candidates take the derivative at the clamped sum before steepness
		// scaling, unlike trained neurons. Gaussian and Elliot slopes depend on it.
		derived := nr.Activation.Derivative(nr.Steepness, value, n.sums[idx]/nr.Steepness)

		outWeights := n.weights[nr.LastCon : nr.LastCon+n.numOutput]
		outSlopes := n.slopes[nr.LastCon : nr.LastCon+n.numOutput]
		var errValue float64
		score := n.candScores[c]
		for j, w := range outWeights {
			diff := value*w - n.residual[j]
			outSlopes[j] -= 2 * diff * value
			errValue += diff * w
			score -= diff * diff
		}
		n.candScores[c] = score

		floats.AddScaled(n.slopes[nr.FirstCon:nr.LastCon], -errValue*derived, sources)
	}
}

// installCandidate makes the best candidate a permanent neuron in a new layer
// just before the output layer. Output neurons move up one slot and their
// weight blocks slide so each gains one weight from the new neuron, set to
// the negated trained output weight of the candidate.
func (n *Network) installCandidate() {
	cand := n.neurons[n.bestCandidate]
	candOut := cand.LastCon
	in := n.totalNeurons - n.numOutput
	out := n.numOutput

	last := len(n.layers) - 1
	outLayer := n.layers[last]
	place := outLayer.First
	n.layers = append(n.layers[:last],
		Layer{First: place, Last: place + 1},
		Layer{First: outLayer.First + 1, Last: outLayer.Last + 1})

	move := in + out
	for k := out - 1; k >= 0; k-- {
		nr := n.neurons[place+k]
		copy(n.weights[nr.FirstCon+move-1:nr.LastCon+move-1], n.weights[nr.FirstCon:nr.LastCon])
		nr.LastCon += move
		move--
		nr.FirstCon += move
		n.weights[nr.LastCon-1] = -n.weights[candOut+k]
		n.neurons[place+k+1] = nr
		n.values[place+k+1] = n.values[place+k]
		n.sums[place+k+1] = n.sums[place+k]
	}

	lastCon := n.neurons[place+1].FirstCon
	n.neurons[place] = Neuron{
		FirstCon:   lastCon - in,
		LastCon:    lastCon,
		Activation: cand.Activation,
		Steepness:  cand.Steepness,
	}
	copy(n.weights[lastCon-in:lastCon], n.weights[cand.FirstCon:cand.FirstCon+in])
	n.values[place], n.sums[place] = 0, 0

	n.totalNeurons++
	n.totalConnections += in + out
	n.setShortcutConnections()
}

// setShortcutConnections rebuilds the source index of every live connection.
func (n *Network) setShortcutConnections() {
	for li := 1; li < len(n.layers); li++ {
		l := n.layers[li]
		for i := l.First; i < l.Last; i++ {
			nr := n.neurons[i]
			for k := 0; k < nr.NumConnections(); k++ {
				n.connections[nr.FirstCon+k] = k
			}
		}
	}
}

// CascadeEpochs returns the epochs run by the last cascade training.
func (n *Network) CascadeEpochs() int { return n.cascadeEpochs }

// Package net provides the feed-forward network, its builders, trainers and
// the cascade-correlation trainer.
//
// A Network is an arena: all neurons live in one slice and layers are index
// ranges into it. Each neuron owns a contiguous range of the weight slice and
// a parallel range of the connections slice naming the source neuron of every
// weight. Indices stay valid when the arena grows, so nothing holds pointers
// into it across calls.
package net

import (
	"math"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/FlavioCFOliveira/GoCascade/internal/activations"
	"github.com/FlavioCFOliveira/GoCascade/internal/loss"
	"github.com/FlavioCFOliveira/GoCascade/internal/opt"
)

// maxArena bounds the number of neurons and connections a network may hold.
const maxArena = math.MaxInt32

const (
	defaultActivation = activations.SigmoidStepwise
	defaultSteepness  = 0.5
	defaultWeight     = 0.1
)

// Neuron is a slot in the arena. Its incoming weights are weights[FirstCon:LastCon].
// A neuron with no incoming weights outside the input layer is a bias neuron.
type Neuron struct {
	FirstCon   int
	LastCon    int
	Activation activations.Func
	Steepness  float64
}

// NumConnections returns the number of incoming connections.
func (nr Neuron) NumConnections() int { return nr.LastCon - nr.FirstCon }

// Layer is the neuron index range [First, Last) of one layer, bias included.
type Layer struct {
	First int
	Last  int
}

// Size returns the number of neurons in the layer, bias included.
func (l Layer) Size() int { return l.Last - l.First }

// Network is a multilayer feed-forward network.
type Network struct {
	layers      []Layer
	neurons     []Neuron
	sums        []float64
	values      []float64
	weights     []float64
	connections []int

	totalNeurons     int
	totalConnections int
	numInput         int
	numOutput        int
	connectionRate   float64
	shortcut         bool
	learningRate     float64

	rng    *rand.Rand
	output []float64

	// Training scratch, allocated on the first training call.
	trainErrors []float64
	slopes      []float64
	prevSlopes  []float64
	prevSteps   []float64
	mse         loss.MSE

	// Algorithm the step history in prevSteps belongs to.
	stepsAlgorithm opt.Algorithm

	// Cascade state.
	cascadeEpochs int
	candScores    []float64
	residual      []float64
	bestCandidate int
}

// Option configures a network at construction.
type Option func(*Network)

// WithSeed makes construction and training reproducible.
func WithSeed(seed int64) Option {
	return func(n *Network) {
		n.rng = rand.New(rand.NewSource(seed))
	}
}

// WithLearningRate sets the learning rate used by Train and DefaultConfig.
func WithLearningRate(lr float64) Option {
	return func(n *Network) {
		n.learningRate = lr
	}
}

// NewStandard creates a fully connected layered network.
// sizes lists the neurons of each layer, input first, bias neurons excluded.
func NewStandard(sizes []int, opts ...Option) (*Network, error) {
	return NewSparse(1, sizes, opts...)
}

// NewSparse creates a layered network where only a fraction rate of the
// possible connections between adjacent layers exist.
func NewSparse(rate float64, sizes []int, opts ...Option) (*Network, error) {
	if math.IsNaN(rate) || rate < 0 {
		return nil, errorf(ErrInvalidConnectionRate, "connection rate %v", rate)
	}
	rate = math.Min(rate, 1)

	n, err := newNetwork(sizes, false, rate, opts)
	if err != nil {
		return nil, err
	}
	if rate >= 1 {
		n.connectLayered()
	} else {
		n.connectSparse(rate)
	}
	return n, nil
}

// NewShortcut creates a fully connected network where every neuron receives a
// connection from every neuron of all earlier layers. Only the input layer
// carries a bias neuron.
func NewShortcut(sizes []int, opts ...Option) (*Network, error) {
	n, err := newNetwork(sizes, true, 1, opts)
	if err != nil {
		return nil, err
	}
	n.connectShortcut()
	return n, nil
}

// newNetwork validates the sizes and allocates the neuron arena.
func newNetwork(sizes []int, shortcut bool, rate float64, opts []Option) (*Network, error) {
	if err := checkSizes(sizes); err != nil {
		return nil, err
	}
	_, connections, ok := countArena(sizes, shortcut, rate)
	if !ok {
		return nil, errorf(ErrCantAllocateMem, "layers %v", sizes)
	}
	return allocate(sizes, shortcut, rate, connections, opts), nil
}

func checkSizes(sizes []int) error {
	if len(sizes) < 2 {
		return errorf(ErrTooFewLayers, "got %d layers", len(sizes))
	}
	for i, s := range sizes {
		if s < 1 {
			return errorf(ErrInvalidLayerSize, "layer %d has %d neurons", i, s)
		}
	}
	return nil
}

// allocate lays out the layers and allocates the arena. Connections are left
// for the caller to fill in.
func allocate(sizes []int, shortcut bool, rate float64, connections int, opts []Option) *Network {
	n := &Network{
		numInput:         sizes[0],
		numOutput:        sizes[len(sizes)-1],
		connectionRate:   rate,
		shortcut:         shortcut,
		learningRate:     0.7,
		totalConnections: connections,
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.rng == nil {
		n.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	n.layers = make([]Layer, len(sizes))
	pos := 0
	for i, s := range sizes {
		size := s
		if n.hasBias(i, len(sizes)) {
			size++
		}
		n.layers[i] = Layer{First: pos, Last: pos + size}
		pos += size
	}
	n.totalNeurons = pos

	n.neurons = make([]Neuron, pos)
	n.sums = make([]float64, pos)
	n.values = make([]float64, pos)
	n.weights = make([]float64, connections)
	n.connections = make([]int, connections)
	n.output = make([]float64, n.numOutput)

	for i := range n.neurons {
		n.neurons[i].Activation = defaultActivation
		n.neurons[i].Steepness = defaultSteepness
	}
	return n
}

// hasBias reports whether layer i of a network with numLayers layers has a bias neuron.
func (n *Network) hasBias(i, numLayers int) bool {
	if n.shortcut {
		return i == 0
	}
	return i < numLayers-1
}

// countArena computes the neurons and connections a topology needs.
// ok is false if either exceeds the arena limit.
func countArena(sizes []int, shortcut bool, rate float64) (neurons, connections int, ok bool) {
	var totalN, totalC int64
	prev := int64(0)
	for i, s := range sizes {
		size := int64(s)
		bias := int64(0)
		if (shortcut && i == 0) || (!shortcut && i < len(sizes)-1) {
			bias = 1
		}
		if i > 0 {
			switch {
			case shortcut:
				totalC += size * totalN
			case rate >= 1:
				totalC += size * prev
			default:
				totalC += sparseCount(rate, int(prev-1), s)
			}
		}
		totalN += size + bias
		prev = size + bias
		if totalN > maxArena || totalC > maxArena {
			return 0, 0, false
		}
	}
	return int(totalN), int(totalC), true
}

// sparseCount returns the connections of a sparse layer with in source
// neurons (bias excluded) and out destination neurons. Every destination gets
// one bias connection on top of the rate share, and at least max(in, out)
// connections exist so every neuron is connected.
func sparseCount(rate float64, in, out int) int64 {
	minCon := int64(max(in, out))
	c := int64(0.5 + rate*float64(in)*float64(out))
	return max(minCon, c) + int64(out)
}

// connectLayered connects every neuron to the whole previous layer, bias included.
func (n *Network) connectLayered() {
	con := 0
	last := len(n.layers) - 1
	for li := 1; li <= last; li++ {
		prev := n.layers[li-1]
		for i := n.layers[li].First; i < n.layers[li].Last; i++ {
			nr := &n.neurons[i]
			nr.FirstCon = con
			if li < last && i == n.layers[li].Last-1 {
				nr.LastCon = con
				continue
			}
			for src := prev.First; src < prev.Last; src++ {
				n.connections[con] = src
				n.weights[con] = n.randomWeight(-defaultWeight, defaultWeight)
				con++
			}
			nr.LastCon = con
		}
	}
}

// connectShortcut connects every neuron to all neurons of the earlier layers.
func (n *Network) connectShortcut() {
	con := 0
	for li := 1; li < len(n.layers); li++ {
		for i := n.layers[li].First; i < n.layers[li].Last; i++ {
			nr := &n.neurons[i]
			nr.FirstCon = con
			for src := 0; src < n.layers[li].First; src++ {
				n.connections[con] = src
				n.weights[con] = n.randomWeight(-defaultWeight, defaultWeight)
				con++
			}
			nr.LastCon = con
		}
	}
}

// connectSparse distributes a fraction of the possible connections between
// adjacent layers. Every destination is connected to the bias first, then
// every source is attached to a random destination with room left, and the
// remaining slots are filled with random sources that are not yet connected.
func (n *Network) connectSparse(rate float64) {
	const free = -1
	for i := range n.connections {
		n.connections[i] = free
	}

	con := 0
	last := len(n.layers) - 1
	for li := 1; li <= last; li++ {
		prev, cur := n.layers[li-1], n.layers[li]
		in := prev.Size() - 1
		out := cur.Size()
		if li < last {
			out--
		}
		total := int(sparseCount(rate, in, out))
		per := total / out
		allocated := 0

		for j := 0; j < out; j++ {
			nr := &n.neurons[cur.First+j]
			nr.FirstCon = con
			con += per
			allocated += per
			if allocated < total*(j+1)/out {
				con++
				allocated++
			}
			nr.LastCon = con
		}
		if li < last {
			n.neurons[cur.Last-1].FirstCon = con
			n.neurons[cur.Last-1].LastCon = con
		}

		bias := prev.Last - 1
		for j := 0; j < out; j++ {
			nr := n.neurons[cur.First+j]
			n.connections[nr.FirstCon] = bias
			n.weights[nr.FirstCon] = n.randomWeight(-defaultWeight, defaultWeight)
		}

		for src := prev.First; src < bias; src++ {
			var nr Neuron
			for {
				nr = n.neurons[cur.First+n.rng.Intn(out)]
				if n.connections[nr.LastCon-1] == free {
					break
				}
			}
			for c := nr.FirstCon; c < nr.LastCon; c++ {
				if n.connections[c] == free {
					n.connections[c] = src
					n.weights[c] = n.randomWeight(-defaultWeight, defaultWeight)
					break
				}
			}
		}

		for j := 0; j < out; j++ {
			nr := n.neurons[cur.First+j]
			for c := nr.FirstCon; c < nr.LastCon; c++ {
				if n.connections[c] != free {
					continue
				}
				src := n.randomSource(prev.First, in, n.connections[nr.FirstCon:c])
				n.connections[c] = src
				n.weights[c] = n.randomWeight(-defaultWeight, defaultWeight)
			}
		}
	}
}

// randomSource picks a neuron in [first, first+count) that is not in taken.
func (n *Network) randomSource(first, count int, taken []int) int {
	for {
		src := first + n.rng.Intn(count)
		dup := false
		for _, t := range taken {
			if t == src {
				dup = true
				break
			}
		}
		if !dup {
			return src
		}
	}
}

// randomWeight returns a uniform random value in [lo, hi].
func (n *Network) randomWeight(lo, hi float64) float64 {
	return lo + n.rng.Float64()*(hi-lo)
}

// NumInput returns the number of inputs.
func (n *Network) NumInput() int { return n.numInput }

// NumOutput returns the number of outputs.
func (n *Network) NumOutput() int { return n.numOutput }

// TotalNeurons returns the number of neurons, bias neurons included.
func (n *Network) TotalNeurons() int { return n.totalNeurons }

// TotalConnections returns the number of connections.
func (n *Network) TotalConnections() int { return n.totalConnections }

// NumLayers returns the number of layers, input and output included.
func (n *Network) NumLayers() int { return len(n.layers) }

// ConnectionRate returns the connection rate the network was built with.
func (n *Network) ConnectionRate() float64 { return n.connectionRate }

// Shortcut reports whether the network uses shortcut connections.
func (n *Network) Shortcut() bool { return n.shortcut }

// LearningRate returns the learning rate used by Train.
func (n *Network) LearningRate() float64 { return n.learningRate }

// SetLearningRate sets the learning rate used by Train.
func (n *Network) SetLearningRate(lr float64) { n.learningRate = lr }

// Layers returns a copy of the layer ranges.
func (n *Network) Layers() []Layer {
	return append([]Layer(nil), n.layers...)
}

// LayerSizes returns the number of neurons in each layer, bias excluded.
func (n *Network) LayerSizes() []int {
	sizes := make([]int, len(n.layers))
	for i, l := range n.layers {
		sizes[i] = l.Size() - n.biasCount(i)
	}
	return sizes
}

// BiasCounts returns the number of bias neurons in each layer.
func (n *Network) BiasCounts() []int {
	counts := make([]int, len(n.layers))
	for i := range n.layers {
		counts[i] = n.biasCount(i)
	}
	return counts
}

func (n *Network) biasCount(layer int) int {
	if n.hasBias(layer, len(n.layers)) {
		return 1
	}
	return 0
}

// isBias reports whether neuron i is a bias neuron.
func (n *Network) isBias(i int) bool {
	if i == n.layers[0].Last-1 {
		return true
	}
	return i >= n.layers[0].Last && n.neurons[i].FirstCon == n.neurons[i].LastCon
}

// Neuron returns a copy of neuron i.
func (n *Network) Neuron(i int) Neuron { return n.neurons[i] }

// Value returns the activation of neuron i from the last Run.
func (n *Network) Value(i int) float64 { return n.values[i] }

// Weights returns a copy of the live weights.
func (n *Network) Weights() []float64 {
	return append([]float64(nil), n.weights[:n.totalConnections]...)
}

// SetWeights overwrites the live weights.
func (n *Network) SetWeights(w []float64) error {
	if len(w) != n.totalConnections {
		return errorf(ErrWrongNumConnections, "got %d weights, network has %d", len(w), n.totalConnections)
	}
	copy(n.weights, w)
	return nil
}

// Clone returns a deep copy of the network. The copy owns its arrays and random source.
func (n *Network) Clone() *Network {
	c := *n
	c.layers = append([]Layer(nil), n.layers...)
	c.neurons = append([]Neuron(nil), n.neurons...)
	c.sums = append([]float64(nil), n.sums...)
	c.values = append([]float64(nil), n.values...)
	c.weights = append([]float64(nil), n.weights...)
	c.connections = append([]int(nil), n.connections...)
	c.output = append([]float64(nil), n.output...)
	c.trainErrors = append([]float64(nil), n.trainErrors...)
	c.slopes = append([]float64(nil), n.slopes...)
	c.prevSlopes = append([]float64(nil), n.prevSlopes...)
	c.prevSteps = append([]float64(nil), n.prevSteps...)
	c.candScores = append([]float64(nil), n.candScores...)
	c.residual = append([]float64(nil), n.residual...)
	c.rng = rand.New(rand.NewSource(n.rng.Int63()))
	return &c
}

// RandomizeWeights sets every weight to a uniform random value in [lo, hi].
func (n *Network) RandomizeWeights(lo, hi float64) {
	for i := 0; i < n.totalConnections; i++ {
		n.weights[i] = n.randomWeight(lo, hi)
	}
}

// InitWeights initializes the weights with the Nguyen-Widrow rule scaled to
// the range of the inputs in data. Bias weights are drawn from [-m, m] and
// the rest from [0, m].
func (n *Network) InitWeights(data *TrainData) error {
	if data.NumInput() != n.numInput {
		return errorf(ErrTrainDataMismatch, "data has %d inputs, network has %d", data.NumInput(), n.numInput)
	}
	lo, hi := 0.0, 0.0
	if data.Len() > 0 {
		lo, hi = math.Inf(1), math.Inf(-1)
		for _, in := range data.inputs {
			lo = math.Min(lo, floats.Min(in))
			hi = math.Max(hi, floats.Max(in))
		}
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}

	hidden := n.totalNeurons - n.numInput - n.numOutput
	for i := range n.layers {
		hidden -= n.biasCount(i)
	}
	m := math.Pow(0.7*float64(hidden), 1/float64(n.numInput)) / span

	for i := n.layers[1].First; i < n.totalNeurons; i++ {
		nr := n.neurons[i]
		for c := nr.FirstCon; c < nr.LastCon; c++ {
			if n.isBias(n.connections[c]) {
				n.weights[c] = n.randomWeight(-m, m)
			} else {
				n.weights[c] = n.randomWeight(0, m)
			}
		}
	}
	return nil
}

// setActivation sets the activation of every neuron in layers [from, to).
func (n *Network) setActivation(from, to int, f activations.Func) {
	for li := from; li < to; li++ {
		for i := n.layers[li].First; i < n.layers[li].Last; i++ {
			n.neurons[i].Activation = f
		}
	}
}

func (n *Network) setSteepness(from, to int, s float64) {
	for li := from; li < to; li++ {
		for i := n.layers[li].First; i < n.layers[li].Last; i++ {
			n.neurons[i].Steepness = s
		}
	}
}

// SetActivationHidden sets the activation of all hidden neurons.
func (n *Network) SetActivationHidden(f activations.Func) {
	n.setActivation(1, len(n.layers)-1, f)
}

// SetActivationOutput sets the activation of the output neurons.
func (n *Network) SetActivationOutput(f activations.Func) {
	n.setActivation(len(n.layers)-1, len(n.layers), f)
}

// SetSteepnessHidden sets the steepness of all hidden neurons.
func (n *Network) SetSteepnessHidden(s float64) {
	n.setSteepness(1, len(n.layers)-1, s)
}

// SetSteepnessOutput sets the steepness of the output neurons.
func (n *Network) SetSteepnessOutput(s float64) {
	n.setSteepness(len(n.layers)-1, len(n.layers), s)
}

// SetActivationLayer sets the activation of every neuron in one layer.
func (n *Network) SetActivationLayer(layer int, f activations.Func) error {
	if layer < 1 || layer >= len(n.layers) {
		return errorf(ErrIndexOutOfBound, "layer %d", layer)
	}
	n.setActivation(layer, layer+1, f)
	return nil
}

// SetSteepnessLayer sets the steepness of every neuron in one layer.
func (n *Network) SetSteepnessLayer(layer int, s float64) error {
	if layer < 1 || layer >= len(n.layers) {
		return errorf(ErrIndexOutOfBound, "layer %d", layer)
	}
	n.setSteepness(layer, layer+1, s)
	return nil
}

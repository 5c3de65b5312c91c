package net

import (
	"encoding/gob"
	"io"
	"os"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/FlavioCFOliveira/GoCascade/internal/activations"
)

// snapshotVersion heads every encoded snapshot.
const snapshotVersion = "GOCASCADE_SNAPSHOT_1"

// NeuronSpec describes one neuron of a snapshot.
type NeuronSpec struct {
	NumConnections int
	Activation     activations.Func
	Steepness      float64
}

// Connection is one weighted edge from neuron From to neuron To.
type Connection struct {
	From   int
	To     int
	Weight float64
}

// Snapshot is the array form of a network: everything needed to rebuild it.
// Neurons are listed in arena order, bias neurons included, and Connections
// in weight order, grouped by destination.
type Snapshot struct {
	LayerSizes     []int
	ConnectionRate float64
	Shortcut       bool
	LearningRate   float64
	Neurons        []NeuronSpec
	Connections    []Connection
}

// Snapshot dumps the network to arrays. The snapshot shares nothing with n.
func (n *Network) Snapshot() *Snapshot {
	s := &Snapshot{
		LayerSizes:     n.LayerSizes(),
		ConnectionRate: n.connectionRate,
		Shortcut:       n.shortcut,
		LearningRate:   n.learningRate,
		Neurons:        make([]NeuronSpec, n.totalNeurons),
		Connections:    n.Connections(),
	}
	for i, nr := range n.neurons[:n.totalNeurons] {
		s.Neurons[i] = NeuronSpec{
			NumConnections: nr.NumConnections(),
			Activation:     nr.Activation,
			Steepness:      nr.Steepness,
		}
	}
	return s
}

// FromSnapshot rebuilds a network from its array form. The neuron and
// connection lists must match the layout implied by LayerSizes and Shortcut.
func FromSnapshot(s *Snapshot, opts ...Option) (*Network, error) {
	if err := checkSizes(s.LayerSizes); err != nil {
		return nil, err
	}
	if _, _, ok := countArena(s.LayerSizes, s.Shortcut, s.ConnectionRate); !ok || len(s.Connections) > maxArena {
		return nil, errorf(ErrCantAllocateMem, "layers %v with %d connections", s.LayerSizes, len(s.Connections))
	}
	opts = append([]Option{WithLearningRate(s.LearningRate)}, opts...)
	n := allocate(s.LayerSizes, s.Shortcut, s.ConnectionRate, len(s.Connections), opts)

	if len(s.Neurons) != n.totalNeurons {
		return nil, errorf(ErrWrongNumConnections, "snapshot has %d neurons, layers need %d",
			len(s.Neurons), n.totalNeurons)
	}

	con := 0
	for li, l := range n.layers {
		for i := l.First; i < l.Last; i++ {
			spec := s.Neurons[i]
			if !spec.Activation.Valid() {
				return nil, errorf(ErrWrongNumConnections, "neuron %d has activation %v", i, spec.Activation)
			}
			if spec.NumConnections < 0 || con+spec.NumConnections > len(s.Connections) {
				return nil, errorf(ErrWrongNumConnections, "neuron %d has %d connections, %d left",
					i, spec.NumConnections, len(s.Connections)-con)
			}
			if (li == 0 || n.isBiasSlot(li, i)) && spec.NumConnections != 0 {
				return nil, errorf(ErrWrongNumConnections, "neuron %d cannot have incoming connections", i)
			}
			n.neurons[i] = Neuron{
				FirstCon:   con,
				LastCon:    con + spec.NumConnections,
				Activation: spec.Activation,
				Steepness:  spec.Steepness,
			}
			for k := 0; k < spec.NumConnections; k++ {
				c := s.Connections[con]
				if err := n.checkSource(li, i, k, c); err != nil {
					return nil, err
				}
				n.connections[con] = c.From
				n.weights[con] = c.Weight
				con++
			}
		}
	}
	if con != len(s.Connections) {
		return nil, errorf(ErrWrongNumConnections, "%d connections are not owned by any neuron", len(s.Connections)-con)
	}
	return n, nil
}

// isBiasSlot reports whether neuron i is the bias slot of layer li.
func (n *Network) isBiasSlot(li, i int) bool {
	return n.hasBias(li, len(n.layers)) && i == n.layers[li].Last-1
}

// checkSource validates connection k of neuron i in layer li.
func (n *Network) checkSource(li, i, k int, c Connection) error {
	if c.To != i {
		return errorf(ErrWrongNumConnections, "connection %d->%d listed under neuron %d", c.From, c.To, i)
	}
	lo, hi := n.layers[li-1].First, n.layers[li].First
	if n.shortcut {
		lo = 0
	}
	if c.From < lo || c.From >= hi {
		return errorf(ErrWrongNumConnections, "neuron %d cannot take input from neuron %d", i, c.From)
	}
	if n.connectionRate >= 1 && c.From != n.sourceBase(li)+k {
		return errorf(ErrWrongNumConnections, "fully connected neuron %d has source %d at position %d", i, c.From, k)
	}
	return nil
}

// Connections returns every live connection in weight order.
func (n *Network) Connections() []Connection {
	cons := make([]Connection, 0, n.totalConnections)
	for i, nr := range n.neurons[:n.totalNeurons] {
		for c := nr.FirstCon; c < nr.LastCon; c++ {
			cons = append(cons, Connection{From: n.connections[c], To: i, Weight: n.weights[c]})
		}
	}
	return cons
}

// SetWeight sets the weight of the connection from neuron from to neuron to.
func (n *Network) SetWeight(from, to int, w float64) error {
	if to < 0 || to >= n.totalNeurons {
		return errorf(ErrIndexOutOfBound, "neuron %d", to)
	}
	nr := n.neurons[to]
	for c := nr.FirstCon; c < nr.LastCon; c++ {
		if n.connections[c] == from {
			n.weights[c] = w
			return nil
		}
	}
	return errorf(ErrIndexOutOfBound, "no connection %d->%d", from, to)
}

// WeightMatrix returns the weights as a TotalNeurons x TotalNeurons matrix
// indexed by (destination, source). Missing connections are zero.
func (n *Network) WeightMatrix() *mat.Dense {
	m := mat.NewDense(n.totalNeurons, n.totalNeurons, nil)
	for i, nr := range n.neurons[:n.totalNeurons] {
		for c := nr.FirstCon; c < nr.LastCon; c++ {
			m.Set(i, n.connections[c], n.weights[c])
		}
	}
	return m
}

// SetWeightMatrix loads every live connection from a matrix laid out as by
// WeightMatrix. Entries without a connection are ignored.
func (n *Network) SetWeightMatrix(m mat.Matrix) error {
	r, c := m.Dims()
	if r != n.totalNeurons || c != n.totalNeurons {
		return errorf(ErrWrongNumConnections, "matrix is %dx%d, network has %d neurons", r, c, n.totalNeurons)
	}
	for i, nr := range n.neurons[:n.totalNeurons] {
		for k := nr.FirstCon; k < nr.LastCon; k++ {
			n.weights[k] = m.At(i, n.connections[k])
		}
	}
	return nil
}

// Encode writes the snapshot in gob encoding.
func (s *Snapshot) Encode(w io.Writer) error {
	enc := gob.NewEncoder(w)
	if err := enc.Encode(snapshotVersion); err != nil {
		return errors.Wrap(err, "failed to write version")
	}
	return errors.Wrap(enc.Encode(s), "failed to write snapshot")
}

// Save writes the snapshot to a file.
func (s *Snapshot) Save(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrap(err, "failed to create file")
	}
	if err := s.Encode(file); err != nil {
		file.Close()
		return err
	}
	return errors.Wrap(file.Close(), "failed to close file")
}

// DecodeSnapshot reads a snapshot written by Encode.
func DecodeSnapshot(r io.Reader) (*Snapshot, error) {
	dec := gob.NewDecoder(r)
	var version string
	if err := dec.Decode(&version); err != nil {
		return nil, errors.Wrap(err, "failed to read version")
	}
	if version != snapshotVersion {
		return nil, errors.Errorf("unknown snapshot version %q", version)
	}
	s := &Snapshot{}
	if err := dec.Decode(s); err != nil {
		return nil, errors.Wrap(err, "failed to read snapshot")
	}
	return s, nil
}

// LoadSnapshot reads a snapshot from a file.
func LoadSnapshot(filename string) (*Snapshot, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open file")
	}
	defer file.Close()
	return DecodeSnapshot(file)
}

// Save writes the network's snapshot to a file.
func (n *Network) Save(filename string) error {
	return n.Snapshot().Save(filename)
}

// Load reads a network saved with Save.
func Load(filename string, opts ...Option) (*Network, error) {
	s, err := LoadSnapshot(filename)
	if err != nil {
		return nil, err
	}
	return FromSnapshot(s, opts...)
}

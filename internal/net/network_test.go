// Package net provides unit tests for the network arena and its builders.
package net

import (
	"io"
	"math"
	"testing"

	"github.com/FlavioCFOliveira/GoCascade/internal/activations"
)

// xorData returns the four XOR samples. Symmetric data uses -1 for false.
func xorData(t testing.TB, symmetric bool) *TrainData {
	t.Helper()
	lo := 0.0
	if symmetric {
		lo = -1
	}
	data, err := NewTrainData(
		[][]float64{{lo, lo}, {lo, 1}, {1, lo}, {1, 1}},
		[][]float64{{lo}, {1}, {1}, {lo}},
	)
	if err != nil {
		t.Fatalf("NewTrainData() error = %v", err)
	}
	return data
}

// TestNewStandardLayout tests neuron and connection counts of layered networks.
func TestNewStandardLayout(t *testing.T) {
	tests := []struct {
		name        string
		sizes       []int
		neurons     int
		connections int
		layers      []Layer
	}{
		{"2-3-1", []int{2, 3, 1}, 8, 13, []Layer{{0, 3}, {3, 7}, {7, 8}}},
		{"3-5-4-2", []int{3, 5, 4, 2}, 17, 54, nil},
		{"No hidden", []int{4, 2}, 7, 10, []Layer{{0, 5}, {5, 7}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := NewStandard(tt.sizes, WithSeed(1))
			if err != nil {
				t.Fatalf("NewStandard() error = %v", err)
			}
			if n.TotalNeurons() != tt.neurons {
				t.Errorf("TotalNeurons() = %d, want %d", n.TotalNeurons(), tt.neurons)
			}
			if n.TotalConnections() != tt.connections {
				t.Errorf("TotalConnections() = %d, want %d", n.TotalConnections(), tt.connections)
			}
			if tt.layers != nil {
				got := n.Layers()
				for i := range tt.layers {
					if got[i] != tt.layers[i] {
						t.Errorf("Layers()[%d] = %v, want %v", i, got[i], tt.layers[i])
					}
				}
			}
			sizes := n.LayerSizes()
			for i := range tt.sizes {
				if sizes[i] != tt.sizes[i] {
					t.Errorf("LayerSizes()[%d] = %d, want %d", i, sizes[i], tt.sizes[i])
				}
			}
			if n.NumInput() != tt.sizes[0] || n.NumOutput() != tt.sizes[len(tt.sizes)-1] {
				t.Errorf("NumInput/NumOutput = %d/%d", n.NumInput(), n.NumOutput())
			}
		})
	}
}

// TestLayeredConnections tests that every neuron is fed by the whole previous layer.
func TestLayeredConnections(t *testing.T) {
	n, err := NewStandard([]int{3, 4, 2}, WithSeed(2))
	if err != nil {
		t.Fatalf("NewStandard() error = %v", err)
	}
	layers := n.Layers()
	for li := 1; li < len(layers); li++ {
		prev := layers[li-1]
		for i := layers[li].First; i < layers[li].Last; i++ {
			nr := n.Neuron(i)
			if li < len(layers)-1 && i == layers[li].Last-1 {
				if nr.NumConnections() != 0 {
					t.Errorf("bias neuron %d has %d connections", i, nr.NumConnections())
				}
				continue
			}
			if nr.NumConnections() != prev.Size() {
				t.Fatalf("neuron %d has %d connections, want %d", i, nr.NumConnections(), prev.Size())
			}
			for k := 0; k < nr.NumConnections(); k++ {
				if src := n.connections[nr.FirstCon+k]; src != prev.First+k {
					t.Errorf("neuron %d connection %d from %d, want %d", i, k, src, prev.First+k)
				}
			}
		}
	}
	for _, w := range n.Weights() {
		if w < -defaultWeight || w > defaultWeight {
			t.Errorf("initial weight %v outside [-%v, %v]", w, defaultWeight, defaultWeight)
		}
	}
}

// TestNewShortcutLayout tests that shortcut neurons see every earlier neuron.
func TestNewShortcutLayout(t *testing.T) {
	n, err := NewShortcut([]int{2, 3, 1}, WithSeed(1))
	if err != nil {
		t.Fatalf("NewShortcut() error = %v", err)
	}
	if n.TotalNeurons() != 7 {
		t.Errorf("TotalNeurons() = %d, want 7", n.TotalNeurons())
	}
	if n.TotalConnections() != 15 {
		t.Errorf("TotalConnections() = %d, want 15", n.TotalConnections())
	}
	counts := n.BiasCounts()
	if counts[0] != 1 || counts[1] != 0 || counts[2] != 0 {
		t.Errorf("BiasCounts() = %v, want [1 0 0]", counts)
	}
	layers := n.Layers()
	for li := 1; li < len(layers); li++ {
		for i := layers[li].First; i < layers[li].Last; i++ {
			nr := n.Neuron(i)
			if nr.NumConnections() != layers[li].First {
				t.Errorf("neuron %d has %d connections, want %d", i, nr.NumConnections(), layers[li].First)
			}
			for k := 0; k < nr.NumConnections(); k++ {
				if src := n.connections[nr.FirstCon+k]; src != k {
					t.Errorf("neuron %d connection %d from %d, want %d", i, k, src, k)
				}
			}
		}
	}
}

// TestNewErrors tests construction failures and their codes.
func TestNewErrors(t *testing.T) {
	tests := []struct {
		name string
		fn   func() error
		code Errno
	}{
		{"One layer", func() error { _, err := NewStandard([]int{2}); return err }, ErrTooFewLayers},
		{"Empty layer", func() error { _, err := NewStandard([]int{2, 0, 1}); return err }, ErrInvalidLayerSize},
		{"Negative rate", func() error { _, err := NewSparse(-0.1, []int{2, 1}); return err }, ErrInvalidConnectionRate},
		{"NaN rate", func() error { _, err := NewSparse(math.NaN(), []int{2, 1}); return err }, ErrInvalidConnectionRate},
		{"Shortcut empty layer", func() error { _, err := NewShortcut([]int{0, 1}); return err }, ErrInvalidLayerSize},
		{"Too large", func() error { _, err := NewStandard([]int{1 << 20, 1 << 20, 1}); return err }, ErrCantAllocateMem},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fn()
			if err == nil {
				t.Fatal("expected an error")
			}
			if Code(err) != tt.code {
				t.Errorf("Code() = %v, want %v", Code(err), tt.code)
			}
		})
	}
}

// TestSparseInvariants tests the connections of partially connected networks.
func TestSparseInvariants(t *testing.T) {
	for _, rate := range []float64{0, 0.3, 0.5, 0.9} {
		n, err := NewSparse(rate, []int{4, 6, 3}, WithSeed(7))
		if err != nil {
			t.Fatalf("NewSparse(%v) error = %v", rate, err)
		}
		want := sparseCount(rate, 4, 6) + sparseCount(rate, 6, 3)
		if int64(n.TotalConnections()) != want {
			t.Errorf("rate %v: TotalConnections() = %d, want %d", rate, n.TotalConnections(), want)
		}

		layers := n.Layers()
		for li := 1; li < len(layers); li++ {
			prev := layers[li-1]
			bias := prev.Last - 1
			used := make(map[int]bool)
			for i := layers[li].First; i < layers[li].Last; i++ {
				nr := n.Neuron(i)
				if nr.NumConnections() == 0 {
					continue
				}
				if n.connections[nr.FirstCon] != bias {
					t.Errorf("rate %v: neuron %d does not start with the bias", rate, i)
				}
				seen := make(map[int]bool)
				for c := nr.FirstCon; c < nr.LastCon; c++ {
					src := n.connections[c]
					if src < prev.First || src >= prev.Last {
						t.Errorf("rate %v: neuron %d fed by %d outside previous layer", rate, i, src)
					}
					if seen[src] {
						t.Errorf("rate %v: neuron %d has duplicate source %d", rate, i, src)
					}
					seen[src] = true
					used[src] = true
				}
			}
			for src := prev.First; src < bias; src++ {
				if !used[src] {
					t.Errorf("rate %v: neuron %d feeds nothing", rate, src)
				}
			}
		}
	}
}

// TestSparseRateClamp tests that rates above one build a fully connected network.
func TestSparseRateClamp(t *testing.T) {
	sparse, err := NewSparse(1.5, []int{3, 4, 2}, WithSeed(1))
	if err != nil {
		t.Fatalf("NewSparse() error = %v", err)
	}
	dense, _ := NewStandard([]int{3, 4, 2}, WithSeed(1))
	if sparse.ConnectionRate() != 1 {
		t.Errorf("ConnectionRate() = %v, want 1", sparse.ConnectionRate())
	}
	if sparse.TotalConnections() != dense.TotalConnections() {
		t.Errorf("TotalConnections() = %d, want %d", sparse.TotalConnections(), dense.TotalConnections())
	}
}

// TestSeedReproducible tests that a seed fixes the initial weights.
func TestSeedReproducible(t *testing.T) {
	a, _ := NewSparse(0.5, []int{5, 7, 2}, WithSeed(99))
	b, _ := NewSparse(0.5, []int{5, 7, 2}, WithSeed(99))
	wa, wb := a.Weights(), b.Weights()
	for i := range wa {
		if wa[i] != wb[i] || a.connections[i] != b.connections[i] {
			t.Fatalf("connection %d differs", i)
		}
	}
}

// TestSetWeights tests weight replacement and its length check.
func TestSetWeights(t *testing.T) {
	n, _ := NewStandard([]int{2, 1}, WithSeed(1))
	if err := n.SetWeights([]float64{1, 2, 3}); err != nil {
		t.Fatalf("SetWeights() error = %v", err)
	}
	if w := n.Weights(); w[0] != 1 || w[1] != 2 || w[2] != 3 {
		t.Errorf("Weights() = %v", w)
	}
	if err := n.SetWeights([]float64{1}); Code(err) != ErrWrongNumConnections {
		t.Errorf("Code() = %v, want %v", Code(err), ErrWrongNumConnections)
	}
}

// TestClone tests that a clone shares no state with the original.
func TestClone(t *testing.T) {
	n, _ := NewStandard([]int{2, 3, 1}, WithSeed(5))
	c := n.Clone()
	c.RandomizeWeights(5, 6)
	for i, w := range n.Weights() {
		if w > defaultWeight {
			t.Fatalf("original weight %d changed to %v", i, w)
		}
	}
	in := []float64{0.3, 0.7}
	want := append([]float64(nil), n.Run(in)...)
	n2 := n.Clone()
	if got := n2.Run(in); got[0] != want[0] {
		t.Errorf("clone output = %v, want %v", got[0], want[0])
	}
}

// TestRandomizeWeights tests the requested range.
func TestRandomizeWeights(t *testing.T) {
	n, _ := NewStandard([]int{3, 5, 2}, WithSeed(3))
	n.RandomizeWeights(-0.5, 0.25)
	for _, w := range n.Weights() {
		if w < -0.5 || w > 0.25 {
			t.Errorf("weight %v outside [-0.5, 0.25]", w)
		}
	}
}

// TestInitWeights tests Nguyen-Widrow bounds.
func TestInitWeights(t *testing.T) {
	n, _ := NewStandard([]int{2, 4, 1}, WithSeed(3))
	data := xorData(t, false)
	if err := n.InitWeights(data); err != nil {
		t.Fatalf("InitWeights() error = %v", err)
	}
	m := math.Pow(0.7*4, 1.0/2)
	for i := n.layers[1].First; i < n.totalNeurons; i++ {
		nr := n.neurons[i]
		for c := nr.FirstCon; c < nr.LastCon; c++ {
			w := n.weights[c]
			if n.isBias(n.connections[c]) {
				if w < -m || w > m {
					t.Errorf("bias weight %v outside [-%v, %v]", w, m, m)
				}
			} else if w < 0 || w > m {
				t.Errorf("weight %v outside [0, %v]", w, m)
			}
		}
	}

	other, _ := NewTrainData([][]float64{{1, 2, 3}}, [][]float64{{1}})
	if err := n.InitWeights(other); Code(err) != ErrTrainDataMismatch {
		t.Errorf("Code() = %v, want %v", Code(err), ErrTrainDataMismatch)
	}
}

// TestSetActivationAndSteepness tests the per-layer setters.
func TestSetActivationAndSteepness(t *testing.T) {
	n, _ := NewStandard([]int{2, 3, 2}, WithSeed(1))
	n.SetActivationHidden(activations.SigmoidSymmetric)
	n.SetActivationOutput(activations.Linear)
	n.SetSteepnessHidden(0.75)
	n.SetSteepnessOutput(1)

	for i := n.layers[1].First; i < n.layers[1].Last; i++ {
		if n.neurons[i].Activation != activations.SigmoidSymmetric || n.neurons[i].Steepness != 0.75 {
			t.Errorf("hidden neuron %d = %+v", i, n.neurons[i])
		}
	}
	for i := n.layers[2].First; i < n.layers[2].Last; i++ {
		if n.neurons[i].Activation != activations.Linear || n.neurons[i].Steepness != 1 {
			t.Errorf("output neuron %d = %+v", i, n.neurons[i])
		}
	}

	if err := n.SetActivationLayer(1, activations.Elliot); err != nil {
		t.Errorf("SetActivationLayer() error = %v", err)
	}
	if err := n.SetActivationLayer(0, activations.Elliot); Code(err) != ErrIndexOutOfBound {
		t.Errorf("Code() = %v, want %v", Code(err), ErrIndexOutOfBound)
	}
	if err := n.SetSteepnessLayer(3, 1); Code(err) != ErrIndexOutOfBound {
		t.Errorf("Code() = %v, want %v", Code(err), ErrIndexOutOfBound)
	}
}

// TestCodeOfForeignError tests Code on errors without a code.
func TestCodeOfForeignError(t *testing.T) {
	if Code(nil) != ErrNone {
		t.Errorf("Code(nil) = %v", Code(nil))
	}
	if Code(errorf(ErrInputSize, "x")) != ErrInputSize {
		t.Error("wrapped code lost")
	}
	if got := Code(io.EOF); got != -1 {
		t.Errorf("Code() = %v, want -1", got)
	}
}

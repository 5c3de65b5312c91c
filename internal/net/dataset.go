package net

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// TrainData is an ordered set of (input, desired output) pairs sharing the
// same dimensions.
type TrainData struct {
	inputs    [][]float64
	outputs   [][]float64
	numInput  int
	numOutput int
}

// NewTrainData copies inputs and outputs into a new data set.
func NewTrainData(inputs, outputs [][]float64) (*TrainData, error) {
	if len(inputs) != len(outputs) {
		return nil, errorf(ErrTrainDataMismatch, "%d inputs and %d outputs", len(inputs), len(outputs))
	}
	if len(inputs) == 0 {
		return nil, errorf(ErrTrainDataMismatch, "no samples")
	}
	d := &TrainData{numInput: len(inputs[0]), numOutput: len(outputs[0])}
	for i := range inputs {
		if len(inputs[i]) != d.numInput || len(outputs[i]) != d.numOutput {
			return nil, errorf(ErrTrainDataMismatch, "sample %d has %d inputs and %d outputs, want %d and %d",
				i, len(inputs[i]), len(outputs[i]), d.numInput, d.numOutput)
		}
		d.inputs = append(d.inputs, append([]float64(nil), inputs[i]...))
		d.outputs = append(d.outputs, append([]float64(nil), outputs[i]...))
	}
	return d, nil
}

// NewTrainDataFunc creates num samples filled in by fn.
func NewTrainDataFunc(num, numInput, numOutput int, fn func(i int, input, output []float64)) *TrainData {
	d := &TrainData{
		inputs:    make([][]float64, num),
		outputs:   make([][]float64, num),
		numInput:  numInput,
		numOutput: numOutput,
	}
	for i := 0; i < num; i++ {
		d.inputs[i] = make([]float64, numInput)
		d.outputs[i] = make([]float64, numOutput)
		fn(i, d.inputs[i], d.outputs[i])
	}
	return d
}

// Len returns the number of samples.
func (d *TrainData) Len() int { return len(d.inputs) }

// NumInput returns the input dimension.
func (d *TrainData) NumInput() int { return d.numInput }

// NumOutput returns the output dimension.
func (d *TrainData) NumOutput() int { return d.numOutput }

// Input returns the input of sample i. The slice is shared with the data set.
func (d *TrainData) Input(i int) []float64 { return d.inputs[i] }

// Output returns the desired output of sample i. The slice is shared with the data set.
func (d *TrainData) Output(i int) []float64 { return d.outputs[i] }

// Shuffle reorders the samples randomly.
func (d *TrainData) Shuffle(rng *rand.Rand) {
	rng.Shuffle(len(d.inputs), func(i, j int) {
		d.inputs[i], d.inputs[j] = d.inputs[j], d.inputs[i]
		d.outputs[i], d.outputs[j] = d.outputs[j], d.outputs[i]
	})
}

// Merge returns a new data set holding the samples of a followed by those of b.
func Merge(a, b *TrainData) (*TrainData, error) {
	if a.numInput != b.numInput || a.numOutput != b.numOutput {
		return nil, errorf(ErrTrainDataMismatch, "cannot merge %dx%d with %dx%d",
			a.numInput, a.numOutput, b.numInput, b.numOutput)
	}
	m := &TrainData{numInput: a.numInput, numOutput: a.numOutput}
	for _, src := range []*TrainData{a, b} {
		for i := range src.inputs {
			m.inputs = append(m.inputs, append([]float64(nil), src.inputs[i]...))
			m.outputs = append(m.outputs, append([]float64(nil), src.outputs[i]...))
		}
	}
	return m, nil
}

// Duplicate returns a deep copy.
func (d *TrainData) Duplicate() *TrainData {
	return d.copyRange(0, d.Len())
}

// Subset returns a deep copy of length samples starting at pos.
func (d *TrainData) Subset(pos, length int) (*TrainData, error) {
	if pos < 0 || length < 0 || pos+length > d.Len() {
		return nil, errorf(ErrTrainDataSubset, "subset %d+%d of %d samples", pos, length, d.Len())
	}
	return d.copyRange(pos, pos+length), nil
}

func (d *TrainData) copyRange(from, to int) *TrainData {
	c := &TrainData{
		inputs:    make([][]float64, 0, to-from),
		outputs:   make([][]float64, 0, to-from),
		numInput:  d.numInput,
		numOutput: d.numOutput,
	}
	for i := from; i < to; i++ {
		c.inputs = append(c.inputs, append([]float64(nil), d.inputs[i]...))
		c.outputs = append(c.outputs, append([]float64(nil), d.outputs[i]...))
	}
	return c
}

// Split splits the data into two sets at ratio (0.0 to 1.0) of its length.
// The halves share their samples with d.
func (d *TrainData) Split(ratio float64) (*TrainData, *TrainData) {
	idx := int(float64(d.Len()) * math.Min(math.Max(ratio, 0), 1))
	a := &TrainData{inputs: d.inputs[:idx], outputs: d.outputs[:idx], numInput: d.numInput, numOutput: d.numOutput}
	b := &TrainData{inputs: d.inputs[idx:], outputs: d.outputs[idx:], numInput: d.numInput, numOutput: d.numOutput}
	return a, b
}

// ScaleInput maps all input values linearly from their overall range to [lo, hi].
func (d *TrainData) ScaleInput(lo, hi float64) {
	scaleRows(d.inputs, lo, hi)
}

// ScaleOutput maps all output values linearly from their overall range to [lo, hi].
func (d *TrainData) ScaleOutput(lo, hi float64) {
	scaleRows(d.outputs, lo, hi)
}

// Scale scales both inputs and outputs to [lo, hi].
func (d *TrainData) Scale(lo, hi float64) {
	d.ScaleInput(lo, hi)
	d.ScaleOutput(lo, hi)
}

// scaleRows maps every value of rows from the overall [min, max] to [lo, hi].
// A constant set maps to lo.
func scaleRows(rows [][]float64, lo, hi float64) {
	if len(rows) == 0 {
		return
	}
	oldMin, oldMax := math.Inf(1), math.Inf(-1)
	for _, r := range rows {
		oldMin = math.Min(oldMin, floats.Min(r))
		oldMax = math.Max(oldMax, floats.Max(r))
	}
	factor := 0.0
	if oldMax > oldMin {
		factor = (hi - lo) / (oldMax - oldMin)
	}
	for _, r := range rows {
		floats.AddConst(-oldMin, r)
		floats.Scale(factor, r)
		floats.AddConst(lo, r)
	}
}

// ColumnStats holds per-column statistics of the inputs.
type ColumnStats struct {
	Mean   []float64
	StdDev []float64
	Min    []float64
	Max    []float64
}

// Stats computes per-column statistics of the inputs.
func (d *TrainData) Stats() ColumnStats {
	s := ColumnStats{
		Mean:   make([]float64, d.numInput),
		StdDev: make([]float64, d.numInput),
		Min:    make([]float64, d.numInput),
		Max:    make([]float64, d.numInput),
	}
	col := make([]float64, d.Len())
	for j := 0; j < d.numInput; j++ {
		for i, in := range d.inputs {
			col[i] = in[j]
		}
		if len(col) == 0 {
			continue
		}
		s.Mean[j], s.StdDev[j] = stat.PopMeanStdDev(col, nil)
		s.Min[j], s.Max[j] = floats.Min(col), floats.Max(col)
	}
	return s
}

// ScaleInputStandard rescales every input column to zero mean and unit
// standard deviation and returns the statistics used. Constant columns are
// only centered.
func (d *TrainData) ScaleInputStandard() ColumnStats {
	s := d.Stats()
	for _, in := range d.inputs {
		for j := range in {
			in[j] -= s.Mean[j]
			if s.StdDev[j] > 0 {
				in[j] /= s.StdDev[j]
			}
		}
	}
	return s
}

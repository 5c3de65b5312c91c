package net

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// maxSum bounds the scaled sum fed to an activation.
const maxSum = 150

// Run evaluates the network for one input vector and returns the outputs.
// The returned slice is reused by the next call; copy it to keep it.
func (n *Network) Run(input []float64) []float64 {
	if len(input) < n.numInput {
		panic(fmt.Sprintf("net: input has %d values, network needs %d", len(input), n.numInput))
	}

	copy(n.values[:n.numInput], input)
	n.values[n.layers[0].Last-1] = 1

	for li := 1; li < len(n.layers); li++ {
		n.forwardLayer(li)
	}

	out := n.layers[len(n.layers)-1]
	copy(n.output, n.values[out.First:out.Last])
	return n.output
}

// forwardLayer computes the values of every neuron in layer li.
func (n *Network) forwardLayer(li int) {
	l := n.layers[li]
	for i := l.First; i < l.Last; i++ {
		nr := n.neurons[i]
		if nr.FirstCon == nr.LastCon {
			n.values[i] = 1
			continue
		}
		n.activate(i, n.neuronSum(li, nr))
	}
}

// neuronSum returns the weighted input sum of a neuron in layer li.
// Fully connected sources are contiguous, so the sum is a dot product.
func (n *Network) neuronSum(li int, nr Neuron) float64 {
	w := n.weights[nr.FirstCon:nr.LastCon]
	if n.connectionRate >= 1 {
		base := n.sourceBase(li)
		return floats.Dot(w, n.values[base:base+len(w)])
	}
	var sum float64
	for k, src := range n.connections[nr.FirstCon:nr.LastCon] {
		sum += w[k] * n.values[src]
	}
	return sum
}

// sourceBase returns the first source neuron of a fully connected layer li.
func (n *Network) sourceBase(li int) int {
	if n.shortcut {
		return 0
	}
	return n.layers[li-1].First
}

// activate clamps and scales a raw sum and stores the neuron's sum and value.
func (n *Network) activate(i int, sum float64) {
	nr := &n.neurons[i]
	limit := maxSum / nr.Steepness
	if sum > limit {
		sum = limit
	} else if sum < -limit {
		sum = -limit
	}
	sum *= nr.Steepness
	n.sums[i] = sum
	n.values[i] = nr.Activation.Activate(sum)
}

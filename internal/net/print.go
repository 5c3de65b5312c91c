package net

import (
	"bytes"
	"fmt"
	"io"

	"github.com/FlavioCFOliveira/GoCascade/internal/loss"
)

// PrintConnections writes one row per non-input neuron with one column per
// neuron of the network. '.' marks a missing connection, upper-case letters
// positive weights and lower-case letters negative weights, 'A' and 'a'
// standing for a rounded magnitude of 0 and 'Z' or 'z' for 25 and above.
func (n *Network) PrintConnections(w io.Writer) error {
	var b bytes.Buffer
	b.WriteString("Layer / Neuron ")
	for i := 0; i < n.totalNeurons; i++ {
		fmt.Fprintf(&b, "%d", i%10)
	}
	b.WriteByte('\n')

	row := make([]byte, n.totalNeurons)
	for li := 1; li < len(n.layers); li++ {
		l := n.layers[li]
		for i := l.First; i < l.Last; i++ {
			for k := range row {
				row[k] = '.'
			}
			nr := n.neurons[i]
			for c := nr.FirstCon; c < nr.LastCon; c++ {
				row[n.connections[c]] = weightLetter(n.weights[c])
			}
			fmt.Fprintf(&b, "L %3d / N %4d %s\n", li, i, row)
		}
	}
	_, err := w.Write(b.Bytes())
	return err
}

func weightLetter(w float64) byte {
	if w < 0 {
		v := int(w - 0.5)
		return byte('a' - max(v, -25))
	}
	v := int(w + 0.5)
	return byte('A' + min(v, 25))
}

// PrintParameters writes the topology of the network and the training
// parameters of cfg. A nil cfg prints the defaults.
func (n *Network) PrintParameters(w io.Writer, cfg *Config) error {
	cfg = n.orDefault(cfg)
	var b bytes.Buffer

	sizes := n.LayerSizes()
	fmt.Fprintf(&b, "Input layer                          :%4d neurons, %d bias\n", sizes[0], n.biasCount(0))
	for li := 1; li < len(sizes)-1; li++ {
		fmt.Fprintf(&b, "  Hidden layer                       :%4d neurons, %d bias\n", sizes[li], n.biasCount(li))
	}
	fmt.Fprintf(&b, "Output layer                         :%4d neurons\n", sizes[len(sizes)-1])
	fmt.Fprintf(&b, "Total neurons and biases             :%4d\n", n.totalNeurons)
	fmt.Fprintf(&b, "Total connections                    :%4d\n", n.totalConnections)
	fmt.Fprintf(&b, "Connection rate                      :%8.3f\n", n.connectionRate)
	netType := "LAYER"
	if n.shortcut {
		netType = "SHORTCUT"
	}
	fmt.Fprintf(&b, "Network type                         :   %s\n", netType)
	fmt.Fprintf(&b, "Training algorithm                   :   %s\n", cfg.TrainingAlgorithm)
	fmt.Fprintf(&b, "Training error function              :   %s\n", cfg.ErrorFunction)
	fmt.Fprintf(&b, "Training stop function               :   %s\n", cfg.StopFunction)
	fmt.Fprintf(&b, "Bit fail limit                       :%8.3f\n", loss.BitFailLimit)
	fmt.Fprintf(&b, "Learning rate                        :%8.3f\n", cfg.LearningRate)
	fmt.Fprintf(&b, "Learning momentum                    :%8.3f\n", cfg.LearningMomentum)
	fmt.Fprintf(&b, "Quickprop decay                      :%11.6f\n", cfg.QuickpropDecay)
	fmt.Fprintf(&b, "Quickprop mu                         :%8.3f\n", cfg.QuickpropMu)
	fmt.Fprintf(&b, "RPROP increase factor                :%8.3f\n", cfg.RPROPIncrease)
	fmt.Fprintf(&b, "RPROP decrease factor                :%8.3f\n", cfg.RPROPDecrease)
	fmt.Fprintf(&b, "RPROP delta min                      :%8.3f\n", cfg.RPROPDeltaMin)
	fmt.Fprintf(&b, "RPROP delta max                      :%8.3f\n", cfg.RPROPDeltaMax)
	fmt.Fprintf(&b, "RPROP delta zero                     :%8.3f\n", cfg.RPROPDeltaZero)
	fmt.Fprintf(&b, "Cascade output change fraction       :%11.6f\n", cfg.CascadeOutputChangeFraction)
	fmt.Fprintf(&b, "Cascade candidate change fraction    :%11.6f\n", cfg.CascadeCandidateChangeFraction)
	fmt.Fprintf(&b, "Cascade output stagnation epochs     :%4d\n", cfg.CascadeOutputStagnationEpochs)
	fmt.Fprintf(&b, "Cascade candidate stagnation epochs  :%4d\n", cfg.CascadeCandidateStagnationEpochs)
	fmt.Fprintf(&b, "Cascade max output epochs            :%4d\n", cfg.CascadeMaxOutEpochs)
	fmt.Fprintf(&b, "Cascade max candidate epochs         :%4d\n", cfg.CascadeMaxCandEpochs)
	fmt.Fprintf(&b, "Cascade candidate limit              :%8.3f\n", cfg.CascadeCandidateLimit)
	for i, f := range cfg.CascadeActivationFunctions {
		fmt.Fprintf(&b, "Cascade activation functions[%d]     :   %s\n", i, f)
	}
	for i, s := range cfg.CascadeActivationSteepnesses {
		fmt.Fprintf(&b, "Cascade activation steepnesses[%d]   :%8.3f\n", i, s)
	}
	fmt.Fprintf(&b, "Cascade candidate groups             :%4d\n", cfg.CascadeNumCandidateGroups)
	fmt.Fprintf(&b, "Cascade no. of candidates            :%4d\n", cfg.NumCandidates())

	_, err := w.Write(b.Bytes())
	return err
}

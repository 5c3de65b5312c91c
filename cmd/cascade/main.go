package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"

	"github.com/FlavioCFOliveira/GoCascade/internal/activations"
	"github.com/FlavioCFOliveira/GoCascade/internal/net"
	"github.com/FlavioCFOliveira/GoCascade/internal/opt"
)

// twoSpirals generates the two interlocking spirals problem with points
// per spiral, inputs scaled to [-1, 1] and outputs of -1 and 1.
func twoSpirals(points int) *net.TrainData {
	return net.NewTrainDataFunc(2*points, 2, 1, func(i int, in, out []float64) {
		k := i / 2
		angle := float64(k) * math.Pi / 16
		radius := 6.5 * float64(104-k) / 104
		x, y := radius*math.Sin(angle), radius*math.Cos(angle)
		if i%2 == 1 {
			x, y = -x, -y
			out[0] = -1
		} else {
			out[0] = 1
		}
		in[0], in[1] = x/6.5, y/6.5
	})
}

func main() {
	maxNeurons := flag.Int("neurons", 30, "maximum number of hidden neurons")
	desired := flag.Float64("error", 0.001, "desired mean squared error")
	quickprop := flag.Bool("quickprop", false, "train with quickprop instead of RPROP")
	seed := flag.Int64("seed", 1, "random seed")
	save := flag.String("save", "", "file to save the grown network to")
	flag.Parse()

	fmt.Println("=== Cascade-Correlation: Two Spirals ===")

	data := twoSpirals(97)
	train, test := data.Duplicate(), data.Duplicate()
	train.Shuffle(rand.New(rand.NewSource(*seed)))

	network, err := net.NewShortcut([]int{2, 1}, net.WithSeed(*seed))
	if err != nil {
		log.Fatalf("Error creating network: %v", err)
	}
	network.SetActivationOutput(activations.SigmoidSymmetric)

	cfg := network.DefaultConfig()
	if *quickprop {
		cfg.TrainingAlgorithm = opt.Quickprop
	}

	fmt.Printf("Training on %d samples, %d candidates per round\n", train.Len(), cfg.NumCandidates())
	err = network.CascadeTrainOnData(train, &cfg, *maxNeurons, 1, *desired)
	if net.Code(err) == net.ErrCantAllocateMem {
		fmt.Printf("Stopped growing: %v\n", err)
	} else if err != nil {
		log.Fatalf("Error training network: %v", err)
	}

	mse, err := network.TestData(test)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("\nTest error: %.6f, bit fail %d\n", mse, network.BitFail())
	fmt.Printf("Hidden neurons: %d, connections: %d, epochs: %d\n",
		network.NumLayers()-2, network.TotalConnections(), network.CascadeEpochs())

	if *save != "" {
		if err := network.Save(*save); err != nil {
			log.Fatalf("Error saving network: %v", err)
		}
		fmt.Printf("Network saved to %s\n", *save)
		return
	}
	network.PrintConnections(os.Stdout)
}

package main

import (
	"fmt"
	"log"
	"math"
	"os"

	"github.com/FlavioCFOliveira/GoCascade/internal/activations"
	"github.com/FlavioCFOliveira/GoCascade/internal/net"
)

func main() {
	fmt.Println("=== XOR Training Example ===")

	// 2 inputs -> 3 hidden -> 1 output, symmetric sigmoid everywhere.
	network, err := net.NewStandard([]int{2, 3, 1}, net.WithSeed(42))
	if err != nil {
		log.Fatalf("Error creating network: %v", err)
	}
	network.SetActivationHidden(activations.SigmoidSymmetric)
	network.SetActivationOutput(activations.SigmoidSymmetric)

	data, err := net.NewTrainData(
		[][]float64{{-1, -1}, {-1, 1}, {1, -1}, {1, 1}},
		[][]float64{{-1}, {1}, {1}, {-1}},
	)
	if err != nil {
		log.Fatalf("Error creating data: %v", err)
	}

	cfg := network.DefaultConfig()
	if err := network.PrintParameters(os.Stdout, &cfg); err != nil {
		log.Fatal(err)
	}

	fmt.Println("\nTraining with iRPROP-:")
	if err := network.TrainOnData(data, &cfg, 1000, 100, 0.001); err != nil {
		log.Fatalf("Error training network: %v", err)
	}

	fmt.Println("\nTesting trained network:")
	for i := 0; i < data.Len(); i++ {
		pred := network.Run(data.Input(i))
		fmt.Printf("Input: %v, Predicted: %.4f, Target: %v\n",
			data.Input(i), pred[0], data.Output(i)[0])
	}

	fmt.Println("\nConnections:")
	network.PrintConnections(os.Stdout)

	fmt.Println("\nSaving network to disk...")
	if err := network.Save("xor_network.gob"); err != nil {
		fmt.Printf("Error saving network: %v\n", err)
		return
	}
	defer os.Remove("xor_network.gob")

	loaded, err := net.Load("xor_network.gob")
	if err != nil {
		fmt.Printf("Error loading network: %v\n", err)
		return
	}

	fmt.Println("Verifying loaded network:")
	allMatch := true
	for i := 0; i < data.Len(); i++ {
		original := network.Run(data.Input(i))[0]
		restored := loaded.Run(data.Input(i))[0]
		match := "OK"
		if math.Abs(original-restored) > 1e-12 {
			match = "MISMATCH"
			allMatch = false
		}
		fmt.Printf("Input: %v, Original: %.4f, Loaded: %.4f [%s]\n",
			data.Input(i), original, restored, match)
	}

	if allMatch {
		fmt.Println("\nSUCCESS: All predictions match between original and loaded network!")
	} else {
		fmt.Println("\nFAILURE: Predictions differ between original and loaded network!")
	}
}

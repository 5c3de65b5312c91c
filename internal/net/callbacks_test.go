package net

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/FlavioCFOliveira/GoCascade/internal/opt"
)

// TestLogger tests the progress lines of a training run.
func TestLogger(t *testing.T) {
	n := newXORNetwork(t, 1, 2)
	var buf bytes.Buffer
	logger := NewLogger(20, 0)
	logger.W = &buf

	if err := n.TrainOnData(xorData(t, true), nil, 20, 10, 0, logger); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "Max epochs       20. Desired error: 0.0000000000.") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "Epochs        1. Current error: ") {
		t.Errorf("first report = %q", lines[1])
	}
	if !strings.Contains(lines[3], "Epochs       20.") || !strings.Contains(lines[3], "Bit fail") {
		t.Errorf("last report = %q", lines[3])
	}
}

// TestLoggerInterval tests that a logger can skip reports.
func TestLoggerInterval(t *testing.T) {
	var buf bytes.Buffer
	logger := &Logger{W: &buf, Interval: 2}
	n := newXORNetwork(t, 1, 2)
	logger.OnReport(1, 0.5, n)
	logger.OnReport(2, 0.5, n)
	if got := strings.Count(buf.String(), "\n"); got != 1 {
		t.Errorf("printed %d lines, want 1", got)
	}
}

// TestCascadeLogger tests the cascade progress lines.
func TestCascadeLogger(t *testing.T) {
	n := newCascadeNetwork(t, 2)
	cfg := quickCascadeConfig(n)
	singleCandidate(&cfg)
	var buf bytes.Buffer
	logger := NewCascadeLogger(2, 0)
	logger.W = &buf

	if err := n.CascadeTrainOnData(xorData(t, true), &cfg, 2, 1, 0, logger); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "Max neurons        2. Desired error: 0.000000\n") {
		t.Errorf("header = %q", out)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[1], "Neurons          0.") || strings.Contains(lines[1], "candidate") {
		t.Errorf("first report = %q", lines[1])
	}
	if !strings.Contains(lines[2], "candidate steepness 0.50. function SIGMOID_SYMMETRIC") {
		t.Errorf("second report = %q", lines[2])
	}
}

// TestEarlyStopping tests patience counting.
func TestEarlyStopping(t *testing.T) {
	var buf bytes.Buffer
	es := NewEarlyStopping(2, 0.01)
	es.W = &buf
	es.OnTrainBegin(nil)

	steps := []struct {
		mse  float64
		want Action
	}{
		{0.5, Continue},
		{0.3, Continue},
		{0.295, Continue},
		{0.3, Stop},
	}
	for i, s := range steps {
		if got := es.OnReport(i, s.mse, nil); got != s.want {
			t.Errorf("report %d = %v, want %v", i, got, s.want)
		}
	}
	if !es.Stopped || !strings.Contains(buf.String(), "Early stopping at epoch 3") {
		t.Errorf("Stopped = %v, output %q", es.Stopped, buf.String())
	}
}

// TestEarlyStoppingEndsTraining tests the callback inside a training loop.
func TestEarlyStoppingEndsTraining(t *testing.T) {
	n := newXORNetwork(t, 1, 2)
	es := NewEarlyStopping(1, 10)
	last := 0
	counter := ReportFunc(func(epoch int, mse float64, n *Network) Action {
		last = epoch
		return Continue
	})
	n.TrainOnData(xorData(t, true), nil, 100, 1, 0, es, counter)
	if last != 2 {
		t.Errorf("training stopped after epoch %d, want 2", last)
	}
}

// TestModelCheckpoint tests that the best network is kept and saved.
func TestModelCheckpoint(t *testing.T) {
	n := newXORNetwork(t, 1, 2)
	filename := filepath.Join(t.TempDir(), "best.gob")
	cp := NewModelCheckpoint(filename)

	if best, _ := cp.Best(); best != nil {
		t.Error("Best() before training is not nil")
	}
	if err := n.TrainOnData(xorData(t, true), nil, 50, 5, 0, cp); err != nil {
		t.Fatal(err)
	}
	if cp.Err != nil {
		t.Fatalf("checkpoint error = %v", cp.Err)
	}
	best, bestMSE := cp.Best()
	if best == nil || bestMSE >= 1 {
		t.Fatalf("Best() = %v, %v", best, bestMSE)
	}
	loaded, err := Load(filename)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	in := []float64{1, -1}
	if got, want := loaded.Run(in)[0], best.Run(in)[0]; got != want {
		t.Errorf("saved network output %v, kept network output %v", got, want)
	}
}

// TestSchedulerCallback tests learning rate updates through the config.
func TestSchedulerCallback(t *testing.T) {
	n := newXORNetwork(t, 1, 2)
	cfg := n.DefaultConfig()
	cfg.TrainingAlgorithm = opt.Incremental
	cfg.LearningRate = 0.8

	cb := NewSchedulerCallback(opt.NewStepLR(10, 0.5), &cfg)
	if err := n.TrainOnData(xorData(t, true), &cfg, 20, 10, 0, cb); err != nil {
		t.Fatal(err)
	}
	if cfg.LearningRate != 0.2 {
		t.Errorf("LearningRate = %v, want 0.2", cfg.LearningRate)
	}
}

// TestCSVLogger tests the CSV rows written through a writer.
func TestCSVLogger(t *testing.T) {
	n := newXORNetwork(t, 1, 2)
	var buf bytes.Buffer
	logger := &CSVLogger{W: &buf}
	if err := n.TrainOnData(xorData(t, true), nil, 10, 5, 0, logger); err != nil {
		t.Fatal(err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 4 {
		t.Fatalf("got %d records, want header and 3 rows", len(records))
	}
	if strings.Join(records[0], ",") != "epoch,mse,bit_fail,time_seconds" {
		t.Errorf("header = %v", records[0])
	}
	if records[1][0] != "1" || records[3][0] != "10" {
		t.Errorf("epochs = %v, %v", records[1][0], records[3][0])
	}
}

// TestCSVLoggerFile tests appending to a file across runs.
func TestCSVLoggerFile(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "log.csv")
	data := xorData(t, true)
	for run := 0; run < 2; run++ {
		n := newXORNetwork(t, 1, 2)
		logger := NewCSVLogger(filename, true)
		n.TrainOnData(data, nil, 2, 1, 0, logger)
		if logger.Err != nil {
			t.Fatal(logger.Err)
		}
	}
	raw, err := os.ReadFile(filename)
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Count(string(raw), "epoch,mse"); got != 1 {
		t.Errorf("header written %d times", got)
	}
	if got := strings.Count(string(raw), "\n"); got != 5 {
		t.Errorf("file has %d lines, want 5", got)
	}
}

// TestPrintConnections tests the connection map letters.
func TestPrintConnections(t *testing.T) {
	n, _ := NewShortcut([]int{2, 1}, WithSeed(1))
	n.SetWeights([]float64{1, -2, 30})
	var buf bytes.Buffer
	if err := n.PrintConnections(&buf); err != nil {
		t.Fatal(err)
	}
	want := "Layer / Neuron 0123\nL   1 / N    3 BcZ.\n"
	if buf.String() != want {
		t.Errorf("PrintConnections() = %q, want %q", buf.String(), want)
	}
}

// TestPrintParameters tests a few lines of the parameter dump.
func TestPrintParameters(t *testing.T) {
	n, _ := NewShortcut([]int{2, 3, 1}, WithSeed(1))
	var buf bytes.Buffer
	if err := n.PrintParameters(&buf, nil); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"Input layer                          :   2 neurons, 1 bias\n",
		"  Hidden layer                       :   3 neurons, 0 bias\n",
		"Network type                         :   SHORTCUT\n",
		"Training algorithm                   :   TRAIN_RPROP\n",
		"Cascade activation functions[5]     :   ELLIOT_SYMMETRIC\n",
		"Cascade no. of candidates            :  48\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q", want)
		}
	}
}

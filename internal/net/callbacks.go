package net

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/FlavioCFOliveira/GoCascade/internal/opt"
)

// Action tells a training loop whether to go on after a report.
type Action int

const (
	// Continue keeps training.
	Continue Action = iota
	// Stop ends training after the current report.
	Stop
)

// Callback receives training progress at report boundaries.
// For cascade training the epoch is the number of installed neurons.
type Callback interface {
	OnTrainBegin(n *Network)
	OnTrainEnd(n *Network)
	OnReport(epoch int, mse float64, n *Network) Action
}

// BaseCallback provides default empty implementations for Callback.
type BaseCallback struct{}

func (c BaseCallback) OnTrainBegin(n *Network) {}
func (c BaseCallback) OnTrainEnd(n *Network)   {}
func (c BaseCallback) OnReport(epoch int, mse float64, n *Network) Action {
	return Continue
}

// ReportFunc adapts a function to a Callback.
type ReportFunc func(epoch int, mse float64, n *Network) Action

func (f ReportFunc) OnTrainBegin(n *Network) {}
func (f ReportFunc) OnTrainEnd(n *Network)   {}
func (f ReportFunc) OnReport(epoch int, mse float64, n *Network) Action {
	return f(epoch, mse, n)
}

func begin(callbacks []Callback, n *Network) {
	for _, c := range callbacks {
		c.OnTrainBegin(n)
	}
}

func end(callbacks []Callback, n *Network) {
	for _, c := range callbacks {
		c.OnTrainEnd(n)
	}
}

// report calls every callback and returns Stop if any of them asked to stop.
func report(callbacks []Callback, epoch int, mse float64, n *Network) Action {
	action := Continue
	for _, c := range callbacks {
		if c.OnReport(epoch, mse, n) == Stop {
			action = Stop
		}
	}
	return action
}

// SchedulerCallback adjusts the learning rate of a running config at every report.
type SchedulerCallback struct {
	BaseCallback
	scheduler opt.Scheduler
	cfg       *Config
}

// NewSchedulerCallback creates a callback that updates cfg.LearningRate.
// cfg must be the config passed to the training call.
func NewSchedulerCallback(scheduler opt.Scheduler, cfg *Config) *SchedulerCallback {
	return &SchedulerCallback{scheduler: scheduler, cfg: cfg}
}

func (c *SchedulerCallback) OnReport(epoch int, mse float64, n *Network) Action {
	c.cfg.LearningRate = c.scheduler.Next(epoch, mse, c.cfg.LearningRate)
	return Continue
}

// EarlyStopping stops training when the error has stopped improving.
type EarlyStopping struct {
	BaseCallback
	Patience  int
	Threshold float64
	W         io.Writer

	bestLoss     float64
	numBadEpochs int
	Stopped      bool
}

// NewEarlyStopping stops after patience reports without an improvement larger than threshold.
func NewEarlyStopping(patience int, threshold float64) *EarlyStopping {
	return &EarlyStopping{
		Patience:  patience,
		Threshold: threshold,
		bestLoss:  math.MaxFloat64,
	}
}

func (c *EarlyStopping) OnTrainBegin(n *Network) {
	c.bestLoss = math.MaxFloat64
	c.numBadEpochs = 0
	c.Stopped = false
}

func (c *EarlyStopping) OnReport(epoch int, mse float64, n *Network) Action {
	if mse < c.bestLoss-c.Threshold {
		c.bestLoss = mse
		c.numBadEpochs = 0
	} else {
		c.numBadEpochs++
	}

	if c.numBadEpochs >= c.Patience {
		if c.W != nil {
			fmt.Fprintf(c.W, "Early stopping at epoch %d: error %.6f did not improve for %d reports\n", epoch, mse, c.Patience)
		}
		c.Stopped = true
		return Stop
	}
	return Continue
}

// ModelCheckpoint keeps a copy of the best network seen so far and, if
// Filename is set, writes its snapshot there.
type ModelCheckpoint struct {
	BaseCallback
	Filename string
	W        io.Writer

	bestLoss float64
	best     *Network
	Err      error
}

// NewModelCheckpoint creates a checkpoint callback. filename may be empty.
func NewModelCheckpoint(filename string) *ModelCheckpoint {
	return &ModelCheckpoint{
		Filename: filename,
		bestLoss: math.MaxFloat64,
	}
}

func (c *ModelCheckpoint) OnReport(epoch int, mse float64, n *Network) Action {
	if mse >= c.bestLoss {
		return Continue
	}
	c.bestLoss = mse
	c.best = n.Clone()
	if c.Filename == "" {
		return Continue
	}
	if err := n.Snapshot().Save(c.Filename); err != nil {
		c.Err = err
		if c.W != nil {
			fmt.Fprintf(c.W, "Error saving checkpoint: %v\n", err)
		}
	} else if c.W != nil {
		fmt.Fprintf(c.W, "Checkpoint saved: error %.6f is new best\n", mse)
	}
	return Continue
}

// Best returns the best network seen and its error, nil before the first report.
func (c *ModelCheckpoint) Best() (*Network, float64) {
	return c.best, c.bestLoss
}

// Logger prints training progress.
type Logger struct {
	BaseCallback
	W        io.Writer
	Interval int
	Header   string
}

// NewLogger creates the default stdout logger of a training loop.
func NewLogger(maxEpochs int, desiredError float64) *Logger {
	return &Logger{
		W:      os.Stdout,
		Header: fmt.Sprintf("Max epochs %8d. Desired error: %.10f.\n", maxEpochs, desiredError),
	}
}

func (c *Logger) OnTrainBegin(n *Network) {
	if c.Header != "" {
		fmt.Fprint(c.writer(), c.Header)
	}
}

func (c *Logger) OnReport(epoch int, mse float64, n *Network) Action {
	if c.Interval > 0 && epoch%c.Interval != 0 {
		return Continue
	}
	fmt.Fprintf(c.writer(), "Epochs %8d. Current error: %.10f. Bit fail %d.\n", epoch, mse, n.BitFail())
	return Continue
}

func (c *Logger) writer() io.Writer {
	if c.W == nil {
		return os.Stdout
	}
	return c.W
}

// CascadeLogger prints cascade progress with the size of the grown network.
type CascadeLogger struct {
	Logger
}

// NewCascadeLogger creates the default stdout logger of cascade training.
func NewCascadeLogger(maxNeurons int, desiredError float64) *CascadeLogger {
	return &CascadeLogger{Logger{
		W:      os.Stdout,
		Header: fmt.Sprintf("Max neurons %8d. Desired error: %.6f\n", maxNeurons, desiredError),
	}}
}

func (c *CascadeLogger) OnReport(epoch int, mse float64, n *Network) Action {
	if c.Interval > 0 && epoch%c.Interval != 0 {
		return Continue
	}
	w := c.writer()
	fmt.Fprintf(w, "Neurons     %6d. Current error: %.6f. Total error:%8.4f. Epochs %5d. Bit fail %3d",
		epoch, mse, mse*float64(n.mse.Count()), n.cascadeEpochs, n.BitFail())
	if last := len(n.layers) - 2; last > 0 {
		nr := n.neurons[n.layers[last].First]
		fmt.Fprintf(w, ". candidate steepness %.2f. function %s", nr.Steepness, nr.Activation)
	}
	fmt.Fprintln(w)
	return Continue
}

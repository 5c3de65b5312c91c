// Package gocascade is the public entry point: multilayer feed-forward
// networks trained with backpropagation, RPROP or quickprop, and grown with
// cascade-correlation.
package gocascade

import (
	"github.com/FlavioCFOliveira/GoCascade/internal/activations"
	"github.com/FlavioCFOliveira/GoCascade/internal/loss"
	"github.com/FlavioCFOliveira/GoCascade/internal/net"
	"github.com/FlavioCFOliveira/GoCascade/internal/opt"
)

// Re-export common types for easier access
type (
	Network     = net.Network
	Config      = net.Config
	TrainData   = net.TrainData
	ColumnStats = net.ColumnStats
	Snapshot    = net.Snapshot
	NeuronSpec  = net.NeuronSpec
	Connection  = net.Connection
	Option      = net.Option
	Errno       = net.Errno

	Activation = activations.Func
	Algorithm  = opt.Algorithm
	ErrorFunc  = loss.ErrorFunc
	StopFunc   = loss.StopFunc
	Scheduler  = opt.Scheduler

	Callback   = net.Callback
	Action     = net.Action
	ReportFunc = net.ReportFunc
)

// Network creation
func NewStandard(sizes []int, opts ...Option) (*Network, error) {
	return net.NewStandard(sizes, opts...)
}

func NewSparse(rate float64, sizes []int, opts ...Option) (*Network, error) {
	return net.NewSparse(rate, sizes, opts...)
}

func NewShortcut(sizes []int, opts ...Option) (*Network, error) {
	return net.NewShortcut(sizes, opts...)
}

func WithSeed(seed int64) Option { return net.WithSeed(seed) }

func WithLearningRate(lr float64) Option { return net.WithLearningRate(lr) }

func DefaultConfig() Config { return net.DefaultConfig() }

// Activations
const (
	Linear                   = activations.Linear
	Threshold                = activations.Threshold
	ThresholdSymmetric       = activations.ThresholdSymmetric
	Sigmoid                  = activations.Sigmoid
	SigmoidStepwise          = activations.SigmoidStepwise
	SigmoidSymmetric         = activations.SigmoidSymmetric
	SigmoidSymmetricStepwise = activations.SigmoidSymmetricStepwise
	Gaussian                 = activations.Gaussian
	GaussianSymmetric        = activations.GaussianSymmetric
	Elliot                   = activations.Elliot
	ElliotSymmetric          = activations.ElliotSymmetric
	LinearPiece              = activations.LinearPiece
	LinearPieceSymmetric     = activations.LinearPieceSymmetric
)

// Training algorithms
const (
	TrainIncremental = opt.Incremental
	TrainBatch       = opt.Batch
	TrainRPROP       = opt.RPROP
	TrainQuickprop   = opt.Quickprop
)

// Error and stop functions
const (
	ErrorFuncLinear = loss.Linear
	ErrorFuncTanh   = loss.Tanh
	StopFuncMSE     = loss.StopMSE
	StopFuncBit     = loss.StopBit
)

// Callback actions
const (
	Continue = net.Continue
	Stop     = net.Stop
)

// Error codes
const (
	ErrNone                  = net.ErrNone
	ErrCantAllocateMem       = net.ErrCantAllocateMem
	ErrTooFewLayers          = net.ErrTooFewLayers
	ErrInvalidLayerSize      = net.ErrInvalidLayerSize
	ErrInvalidConnectionRate = net.ErrInvalidConnectionRate
	ErrCantTrainActivation   = net.ErrCantTrainActivation
	ErrCantUseTrainAlg       = net.ErrCantUseTrainAlg
	ErrTrainDataMismatch     = net.ErrTrainDataMismatch
	ErrTrainDataSubset       = net.ErrTrainDataSubset
	ErrWrongNumConnections   = net.ErrWrongNumConnections
	ErrInputSize             = net.ErrInputSize
	ErrCascadeLayout         = net.ErrCascadeLayout
	ErrIndexOutOfBound       = net.ErrIndexOutOfBound
)

// Code returns the error code carried by err.
func Code(err error) Errno { return net.Code(err) }

// Training data
func NewTrainData(inputs, outputs [][]float64) (*TrainData, error) {
	return net.NewTrainData(inputs, outputs)
}

func NewTrainDataFunc(num, numInput, numOutput int, fn func(i int, input, output []float64)) *TrainData {
	return net.NewTrainDataFunc(num, numInput, numOutput, fn)
}

func MergeTrainData(a, b *TrainData) (*TrainData, error) { return net.Merge(a, b) }

func LoadCSV(filename string, outputCols []int, hasHeader bool) (*TrainData, error) {
	return net.LoadCSV(filename, outputCols, hasHeader)
}

// Callbacks
func Logger(interval int) *net.Logger {
	return &net.Logger{Interval: interval}
}

func CascadeLogger(maxNeurons int, desiredError float64) *net.CascadeLogger {
	return net.NewCascadeLogger(maxNeurons, desiredError)
}

func CSVLogger(filename string, append bool) *net.CSVLogger {
	return net.NewCSVLogger(filename, append)
}

func ModelCheckpoint(filename string) *net.ModelCheckpoint {
	return net.NewModelCheckpoint(filename)
}

func EarlyStopping(patience int, threshold float64) *net.EarlyStopping {
	return net.NewEarlyStopping(patience, threshold)
}

func SchedulerCallback(scheduler Scheduler, cfg *Config) *net.SchedulerCallback {
	return net.NewSchedulerCallback(scheduler, cfg)
}

// Learning rate schedulers
func StepLR(stepSize int, gamma float64) *opt.StepLR {
	return opt.NewStepLR(stepSize, gamma)
}

func ExponentialLR(gamma float64) *opt.ExponentialLR {
	return opt.NewExponentialLR(gamma)
}

func ReduceLROnPlateau(factor float64, patience int, threshold, minLR float64) *opt.ReduceLROnPlateau {
	return opt.NewReduceLROnPlateau(factor, patience, threshold, minLR)
}

// Network persistence
func FromSnapshot(s *Snapshot, opts ...Option) (*Network, error) {
	return net.FromSnapshot(s, opts...)
}

func Load(filename string, opts ...Option) (*Network, error) {
	return net.Load(filename, opts...)
}

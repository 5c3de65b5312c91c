package net

import (
	"fmt"

	"github.com/pkg/errors"
)

// Errno is an error code. Operations wrap it with context; Code recovers it.
type Errno int

const (
	// ErrNone is the code of a nil error.
	ErrNone Errno = iota
	// ErrCantAllocateMem reports that a topology could not be allocated within its budget.
	ErrCantAllocateMem
	// ErrTooFewLayers reports a network with fewer than two layers.
	ErrTooFewLayers
	// ErrInvalidLayerSize reports a layer with no neurons.
	ErrInvalidLayerSize
	// ErrInvalidConnectionRate reports a connection rate outside [0, 1].
	ErrInvalidConnectionRate
	// ErrCantTrainActivation reports an activation without a derivative in a trained layer.
	ErrCantTrainActivation
	// ErrCantUseTrainAlg reports an algorithm unsuitable for the requested training.
	ErrCantUseTrainAlg
	// ErrTrainDataMismatch reports data whose dimensions do not match.
	ErrTrainDataMismatch
	// ErrTrainDataSubset reports a subset outside the data.
	ErrTrainDataSubset
	// ErrWrongNumConnections reports a snapshot whose connections disagree with its topology.
	ErrWrongNumConnections
	// ErrInputSize reports an input or desired output of the wrong length.
	ErrInputSize
	// ErrCascadeLayout reports cascade training on a network that is not a shortcut network.
	ErrCascadeLayout
	// ErrIndexOutOfBound reports a neuron or connection index outside the network.
	ErrIndexOutOfBound
)

var errnoText = [...]string{
	"no error",
	"unable to allocate memory",
	"network must have at least two layers",
	"layer must have at least one neuron",
	"connection rate must be in [0, 1]",
	"activation function cannot be trained",
	"training algorithm cannot be used",
	"training data dimensions do not match",
	"training data subset out of range",
	"wrong number of connections",
	"wrong input size",
	"cascade training requires a shortcut network",
	"index out of bound",
}

// Error returns the message of the code.
func (e Errno) Error() string {
	if e >= 0 && int(e) < len(errnoText) {
		return errnoText[e]
	}
	return fmt.Sprintf("errno %d", int(e))
}

// Code returns the Errno at the root of err, ErrNone for nil.
// Errors that carry no code report -1.
func Code(err error) Errno {
	if err == nil {
		return ErrNone
	}
	var e Errno
	if errors.As(err, &e) {
		return e
	}
	return -1
}

func errorf(code Errno, format string, args ...interface{}) error {
	return errors.Wrapf(code, format, args...)
}

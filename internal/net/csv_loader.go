package net

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"github.com/pkg/errors"
)

// LoadCSV loads training data from a CSV file.
// outputCols specifies the indices of columns used as desired outputs, in order.
// All other columns are used as inputs.
// hasHeader skips the first line if true.
func LoadCSV(filename string, outputCols []int, hasHeader bool) (*TrainData, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open file")
	}
	defer file.Close()

	return ReadCSV(file, outputCols, hasHeader)
}

// ReadCSV reads training data from CSV records. See LoadCSV.
func ReadCSV(r io.Reader, outputCols []int, hasHeader bool) (*TrainData, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read csv")
	}

	startRow := 0
	if hasHeader {
		startRow = 1
	}
	if len(records) <= startRow {
		return nil, errorf(ErrTrainDataMismatch, "csv has no data rows")
	}

	numCols := len(records[0])
	isOutputCol := make(map[int]bool)
	for _, col := range outputCols {
		if col < 0 || col >= numCols {
			return nil, errorf(ErrTrainDataMismatch, "output column %d out of %d columns", col, numCols)
		}
		isOutputCol[col] = true
	}

	numSamples := len(records) - startRow
	inputs := make([][]float64, numSamples)
	outputs := make([][]float64, numSamples)

	for i := startRow; i < len(records); i++ {
		record := records[i]
		if len(record) != numCols {
			return nil, errorf(ErrTrainDataMismatch, "inconsistent number of columns at row %d", i)
		}

		in := make([]float64, 0, numCols-len(isOutputCol))
		values := make([]float64, numCols)
		for j, s := range record {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "failed to parse value at row %d, col %d", i, j)
			}
			values[j] = v
			if !isOutputCol[j] {
				in = append(in, v)
			}
		}

		// Outputs keep the order given by outputCols.
		out := make([]float64, len(outputCols))
		for k, col := range outputCols {
			out[k] = values[col]
		}

		inputs[i-startRow] = in
		outputs[i-startRow] = out
	}

	return NewTrainData(inputs, outputs)
}

package net

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// CSVLogger logs training progress to a CSV file.
type CSVLogger struct {
	BaseCallback
	Filename string
	Append   bool
	W        io.Writer // Used instead of Filename when set

	file   *os.File
	writer *csv.Writer
	start  time.Time
	Err    error
}

// NewCSVLogger creates a new CSVLogger.
func NewCSVLogger(filename string, append bool) *CSVLogger {
	return &CSVLogger{
		Filename: filename,
		Append:   append,
	}
}

func (c *CSVLogger) OnTrainBegin(n *Network) {
	c.start = time.Now()
	if c.W != nil {
		c.writer = csv.NewWriter(c.W)
		c.writeHeader()
		return
	}

	mode := os.O_CREATE | os.O_WRONLY
	if c.Append {
		mode |= os.O_APPEND
	} else {
		mode |= os.O_TRUNC
	}

	file, err := os.OpenFile(c.Filename, mode, 0644)
	if err != nil {
		c.Err = errors.Wrap(err, "csv logger")
		return
	}
	c.file = file
	c.writer = csv.NewWriter(file)

	// Write header if not appending or if file is empty
	info, err := file.Stat()
	if err == nil && (info.Size() == 0 || !c.Append) {
		c.writeHeader()
	}
}

func (c *CSVLogger) writeHeader() {
	c.writer.Write([]string{"epoch", "mse", "bit_fail", "time_seconds"})
	c.writer.Flush()
}

func (c *CSVLogger) OnReport(epoch int, mse float64, n *Network) Action {
	if c.writer == nil {
		return Continue
	}

	elapsed := time.Since(c.start).Seconds()
	record := []string{
		strconv.Itoa(epoch),
		fmt.Sprintf("%.10f", mse),
		strconv.Itoa(n.BitFail()),
		fmt.Sprintf("%.2f", elapsed),
	}

	if err := c.writer.Write(record); err != nil {
		c.Err = err
	}
	c.writer.Flush()
	return Continue
}

func (c *CSVLogger) OnTrainEnd(n *Network) {
	if c.writer != nil {
		c.writer.Flush()
	}
	if c.file != nil {
		c.file.Close()
		c.file = nil
	}
	c.writer = nil
}

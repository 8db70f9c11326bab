// Package output writes simulation samples as whitespace-delimited rows:
//
//	bodyIndex time x y xDot yDot
//
// with one row per body per recorded time and body indices starting at 1.
package output

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/san-kum/orbitsim/internal/dynamo"
)

const DefaultPath = "output.txt"

// Writer emits row blocks for successive condition vectors.
type Writer struct {
	w      *bufio.Writer
	closer io.Closer
	rows   int
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Create truncates or creates path and returns a Writer on it.
func Create(path string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, err
	}
	return &Writer{w: bufio.NewWriter(f), closer: f}, nil
}

// WriteCondition writes one row per body of condition x at time t.
func (w *Writer) WriteCondition(t float64, x dynamo.State) error {
	if len(x)%4 != 0 {
		return fmt.Errorf("%w: condition length %d is not a multiple of 4", dynamo.ErrDimensionMismatch, len(x))
	}

	ts := FormatFloat(t)
	for i := 0; i < len(x)/4; i++ {
		_, err := fmt.Fprintf(w.w, "%d %s %s %s %s %s\n",
			i+1, ts,
			FormatFloat(x[4*i]), FormatFloat(x[4*i+1]),
			FormatFloat(x[4*i+2]), FormatFloat(x[4*i+3]))
		if err != nil {
			return err
		}
		w.rows++
	}
	return nil
}

// OnStep implements dynamo.Observer.
func (w *Writer) OnStep(x dynamo.State, t float64) error {
	return w.WriteCondition(t, x)
}

// Rows returns the number of rows written so far.
func (w *Writer) Rows() int { return w.rows }

func (w *Writer) Flush() error {
	return w.w.Flush()
}

// Close flushes buffered rows and closes the underlying file, if any.
// Calling Close again is a no-op.
func (w *Writer) Close() error {
	err := w.w.Flush()
	if w.closer != nil {
		if cerr := w.closer.Close(); err == nil {
			err = cerr
		}
		w.closer = nil
	}
	return err
}

// FormatFloat renders v with 6 significant digits in the shortest of plain
// or exponent notation, dropping trailing zeros. Non-finite values are
// written as nan, inf and -inf.
func FormatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	return strconv.FormatFloat(v, 'g', 6, 64)
}

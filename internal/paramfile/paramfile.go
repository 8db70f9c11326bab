// Package paramfile reads the whitespace-delimited parameters file that
// describes a simulation run.
//
// The first line holds "G T step". Every following line holds one body as
// "x y xDot yDot mass". A blank line ends the body list.
package paramfile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/san-kum/orbitsim/internal/orbit"
)

const DefaultPath = "parameters.txt"

var (
	ErrMalformedHeader = errors.New("paramfile: first line must hold G, total time and step size")
	ErrMalformedLine   = errors.New("paramfile: body line must hold x, y, xDot, yDot and mass")
	ErrNonPositive     = errors.New("paramfile: value must be greater than zero")
	ErrStepTooLarge    = errors.New("paramfile: step size cannot exceed total time")
	ErrNoBodies        = errors.New("paramfile: no bodies defined")
)

// LineError reports the 1-based line on which parsing failed.
type LineError struct {
	Line int
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// Parameters is a validated run description.
type Parameters struct {
	G        float64
	Duration float64
	Step     float64
	Bodies   []orbit.Body
}

// System returns a new populated system for p.
func (p *Parameters) System() *orbit.System {
	sys := orbit.NewSystem()
	sys.SetGravitationalConstant(p.G)
	for _, b := range p.Bodies {
		sys.AddBody(b)
	}
	return sys
}

// Load reads the parameters file at path.
func Load(path string) (*Parameters, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open parameters: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// Parse reads a parameters file from r.
func Parse(r io.Reader) (*Parameters, error) {
	sc := bufio.NewScanner(r)

	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, err
		}
		return nil, &LineError{Line: 1, Err: ErrMalformedHeader}
	}

	p, err := parseHeader(strings.Fields(sc.Text()))
	if err != nil {
		return nil, &LineError{Line: 1, Err: err}
	}

	line := 1
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			break
		}

		b, err := parseBody(fields)
		if err != nil {
			return nil, &LineError{Line: line, Err: err}
		}
		p.Bodies = append(p.Bodies, b)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	if len(p.Bodies) == 0 {
		return nil, ErrNoBodies
	}
	return p, nil
}

func parseHeader(fields []string) (*Parameters, error) {
	if len(fields) != 3 {
		return nil, fmt.Errorf("%w: got %d values", ErrMalformedHeader, len(fields))
	}

	vals, err := parseFloats(fields)
	if err != nil {
		return nil, err
	}

	names := [3]string{"gravitational constant", "time", "step size"}
	for i, v := range vals {
		if !(v > 0) {
			return nil, fmt.Errorf("%w: %s = %g", ErrNonPositive, names[i], v)
		}
	}

	p := &Parameters{G: vals[0], Duration: vals[1], Step: vals[2]}
	if p.Step > p.Duration {
		return nil, fmt.Errorf("%w: step %g, time %g", ErrStepTooLarge, p.Step, p.Duration)
	}
	return p, nil
}

func parseBody(fields []string) (orbit.Body, error) {
	if len(fields) != 5 {
		return orbit.Body{}, fmt.Errorf("%w: got %d values", ErrMalformedLine, len(fields))
	}

	v, err := parseFloats(fields)
	if err != nil {
		return orbit.Body{}, err
	}
	return orbit.NewBody(v[0], v[1], v[2], v[3], v[4])
}

func parseFloats(fields []string) ([]float64, error) {
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", f, err)
		}
		out[i] = v
	}
	return out, nil
}

// Write encodes p in the parameters file format. Values are written with
// full precision so that Parse(Write(p)) reproduces p exactly.
func Write(w io.Writer, p *Parameters) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%s %s %s\n", formatFloat(p.G), formatFloat(p.Duration), formatFloat(p.Step))
	for _, b := range p.Bodies {
		fmt.Fprintf(bw, "%s %s %s %s %s\n",
			formatFloat(b.X()), formatFloat(b.Y()),
			formatFloat(b.XDot()), formatFloat(b.YDot()),
			formatFloat(b.Mass()))
	}
	return bw.Flush()
}

// Save writes p to path, replacing any existing file.
func Save(path string, p *Parameters) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, p); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

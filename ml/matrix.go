package ml

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

// Matrix represents a dense matrix with a flat data slice for performance.
type Matrix struct {
	rows, cols int
	data       []float64
	dense      *mat.Dense
}

// -------- CONSTRUCTORS ------- //
func NewMatrix(rows, cols int) *Matrix {
	data := make([]float64, rows*cols)
	return &Matrix{
		rows:  rows,
		cols:  cols,
		data:  data,
		dense: mat.NewDense(rows, cols, data),
	}
}

func NewMatrixFromSlice(rows, cols int, data []float64) *Matrix {
	if len(data) != rows*cols {
		panic("Slice length mismatch")
	}

	return &Matrix{
		rows:  rows,
		cols:  cols,
		data:  data,
		dense: mat.NewDense(rows, cols, data),
	}
}

// ------- MATRIX METHODS ------ //
func (m *Matrix) GobEncode() ([]byte, error) {
	w := new(bytes.Buffer)
	encoder := gob.NewEncoder(w)
	if err := encoder.Encode(m.rows); err != nil {
		return nil, err
	}
	if err := encoder.Encode(m.cols); err != nil {
		return nil, err
	}
	if err := encoder.Encode(m.data); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

func (m *Matrix) GobDecode(buf []byte) error {
	r := bytes.NewBuffer(buf)
	decoder := gob.NewDecoder(r)
	if err := decoder.Decode(&m.rows); err != nil {
		return err
	}
	if err := decoder.Decode(&m.cols); err != nil {
		return err
	}
	if err := decoder.Decode(&m.data); err != nil {
		return err
	}

	// Re-create the wrapper after loading data
	m.dense = mat.NewDense(m.rows, m.cols, m.data)

	return nil
}

func (m *Matrix) Dims() (rows, cols int) {
	return m.rows, m.cols
}

func (m *Matrix) At(i, j int) float64 {
	return m.data[i*m.cols+j]
}

func (m *Matrix) Set(i, j int, v float64) {
	m.data[i*m.cols+j] = v
}

// RandomizeUniform fills the matrix with independent draws from [0, 1).
// The source is passed in so the draw order stays reproducible.
func (m *Matrix) RandomizeUniform(rng *rand.Rand) {
	for i := range m.data {
		m.data[i] = rng.Float64()
	}
}

func (m *Matrix) Fill(v float64) {
	for i := range m.data {
		m.data[i] = v
	}
}

func (m *Matrix) Reset() {
	for i := range m.data {
		m.data[i] = 0.0
	}
}

// AddVector broadcasts a 1 x cols row vector across every row of m.
// Lengths are checked up front: silently recycling a mismatched vector
// is exactly the failure mode this is meant to rule out.
func (m *Matrix) AddVector(v *Matrix) {
	if v.rows != 1 || v.cols != m.cols {
		panic(fmt.Sprintf("Broadcast shape mismatch: matrix is [%d, %d], vector is [%d, %d]",
			m.rows, m.cols, v.rows, v.cols))
	}
	for i := 0; i < m.rows; i++ {
		for j := 0; j < m.cols; j++ {
			m.data[i*m.cols+j] += v.data[j]
		}
	}
}

// ColumnSumsInto writes the per-column sums of m into a 1 x cols vector.
func (m *Matrix) ColumnSumsInto(dst *Matrix) {
	if dst.rows != 1 || dst.cols != m.cols {
		panic(fmt.Sprintf("Column sum shape mismatch: matrix is [%d, %d], dest is [%d, %d]",
			m.rows, m.cols, dst.rows, dst.cols))
	}
	dst.Reset()
	for i := 0; i < m.rows; i++ {
		rowOffset := i * m.cols
		for j := 0; j < m.cols; j++ {
			dst.data[j] += m.data[rowOffset+j]
		}
	}
}

func (m *Matrix) ApplyRelu() {
	for i, v := range m.data {
		if v < 0 {
			m.data[i] = 0
		}
	}
}

func (m *Matrix) ApplySigmoid() {
	for i, v := range m.data {
		m.data[i] = Sigmoid(v)
	}
}

// ------ UTILITY FUNCTIONS ------
func MatMul(a, b mat.Matrix, out *Matrix) {
	out.dense.Mul(a, b)
}

// MatMul using pure go (no BLAS)
func MatMulGo(a, b, out *Matrix) {
	const blockSize = 64
	if a.cols != b.rows || out.rows != a.rows || out.cols != b.cols {
		panic("Shape mismatch")
	}
	out.Reset()
	for i := 0; i < a.rows; i += blockSize {
		for j := 0; j < b.cols; j += blockSize {
			for k := 0; k < a.cols; k += blockSize {
				iMax, jMax, kMax := i+blockSize, j+blockSize, k+blockSize
				if iMax > a.rows {
					iMax = a.rows
				}
				if jMax > b.cols {
					jMax = b.cols
				}
				if kMax > a.cols {
					kMax = a.cols
				}
				for ii := i; ii < iMax; ii++ {
					rowOffsetOut := ii * out.cols
					for kk := k; kk < kMax; kk++ {
						scalar := a.data[ii*a.cols+kk]
						rowOffsetB := kk * b.cols
						for jj := j; jj < jMax; jj++ {
							out.data[rowOffsetOut+jj] += scalar * b.data[rowOffsetB+jj]
						}
					}
				}
			}
		}
	}
}

// Sigmoid is the logistic function 1 / (1 + e^-t), arranged so exp never
// sees a large positive argument. Saturated results are nudged into the
// open interval: the true value is never exactly 0 or 1, so float rounding
// must not produce either.
func Sigmoid(t float64) float64 {
	if t >= 0 {
		s := 1.0 / (1.0 + math.Exp(-t))
		if s == 1 {
			return math.Nextafter(1, 0)
		}
		return s
	}
	e := math.Exp(t)
	if e == 0 {
		return math.Nextafter(0, 1)
	}
	return e / (1.0 + e)
}

// SigmoidPrime is the derivative of Sigmoid, f(t) * (1 - f(t)).
func SigmoidPrime(t float64) float64 {
	s := Sigmoid(t)
	return s * (1.0 - s)
}

func Flatten(input [][]float64) []float64 {
	if len(input) == 0 {
		return nil
	}
	rows, cols := len(input), len(input[0])
	flat := make([]float64, rows*cols)
	for i, row := range input {
		copy(flat[i*cols:], row)
	}
	return flat
}

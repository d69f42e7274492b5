package ml

import (
	"fmt"
	"math"
)

// Unclassified marks an output row whose rounded entries did not select
// exactly one class. It is a modeled outcome, not an error: no tie-break is
// attempted and callers decide what to do with such rows.
const Unclassified = -1

// ClassifyRow rounds every entry of an output row to the nearest integer and
// returns the index of the single column equal to 1. If no column, or more
// than one column, rounds to 1, the row is Unclassified.
func ClassifyRow(row []float64) int {
	class := Unclassified
	for j, v := range row {
		if math.Round(v) == 1 {
			if class != Unclassified {
				return Unclassified
			}
			class = j
		}
	}
	return class
}

// Classify applies ClassifyRow to every row of a network output matrix.
func Classify(output *Matrix) []int {
	classes := make([]int, output.rows)
	for i := 0; i < output.rows; i++ {
		classes[i] = ClassifyRow(output.data[i*output.cols : (i+1)*output.cols])
	}
	return classes
}

// Accuracy is the fraction of predictions matching the true classes.
// Unclassified rows count as wrong.
func Accuracy(predicted, truth []int) float64 {
	if len(predicted) != len(truth) {
		panic(fmt.Sprintf("Accuracy length mismatch: %d predictions, %d labels",
			len(predicted), len(truth)))
	}
	if len(predicted) == 0 {
		return 0
	}
	correct := 0
	for i, p := range predicted {
		if p != Unclassified && p == truth[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(predicted))
}

// Predict runs a single feature vector through the network and returns the
// rounded class (possibly Unclassified) along with a copy of the raw output
// activations.
func (nw *NeuralNetwork) Predict(inputData []float64) (int, []float64) {
	inputSize := nw.Layers[0].Weights.rows
	if len(inputData) != inputSize {
		panic(fmt.Sprintf("Input size mismatch. Expected %d, got %d", inputSize, len(inputData)))
	}

	// Treat the single row as a batch of size 1
	if nw.Layers[0].Z == nil || nw.Layers[0].Z.rows != 1 {
		nw.InitializeBuffers(1)
	}

	inputMat := NewMatrixFromSlice(1, inputSize, inputData)
	nw.Forward(inputMat)

	out := nw.Output()
	row := make([]float64, out.cols)
	copy(row, out.data)

	return ClassifyRow(row), row
}

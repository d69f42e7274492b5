package ml

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syntheticBlobs builds a clearly separated 3-class dataset with 4 features.
// Rows cycle through the classes so any prefix/suffix split stays balanced.
// The jitter is index-derived, keeping the dataset fully deterministic.
func syntheticBlobs(n int) (*Matrix, *Matrix, []int) {
	centers := [3][4]float64{
		{0.9, 0.1, 0.1, 0.1},
		{0.1, 0.9, 0.1, 0.1},
		{0.1, 0.1, 0.9, 0.9},
	}

	X := NewMatrix(n, 4)
	Y := NewMatrix(n, 3)
	classes := make([]int, n)

	for i := 0; i < n; i++ {
		class := i % 3
		classes[i] = class
		for j := 0; j < 4; j++ {
			jitter := (float64((i*7+j*13)%11)/10.0 - 0.5) * 0.1
			X.Set(i, j, centers[class][j]+jitter)
		}
		Y.Set(i, class, 1)
	}
	return X, Y, classes
}

// deterministicInit fills every parameter with a fixed, non-random ramp so
// runs are exactly reproducible while the units still start out distinct.
func deterministicInit(nw *NeuralNetwork) {
	phase := 0.0
	for _, layer := range nw.Layers {
		for _, m := range []*Matrix{layer.Weights, layer.Biases} {
			for k := range m.data {
				m.data[k] = 0.25 + 0.5*math.Mod(phase+0.618*float64(k), 1.0)
			}
			phase += 0.37
		}
	}
}

func TestTrain_LossTrendsDownward(t *testing.T) {
	X, Y, _ := syntheticBlobs(60)
	nw := irisShapedNetwork(0)
	deterministicInit(nw)

	history := Train(nw, X, Y, TrainingConfig{
		Iterations:   10_000,
		LearningRate: 0.005,
		Optimizer:    OptSGD,
	})

	require.Len(t, history, 10_000)
	for i, loss := range history {
		require.False(t, math.IsNaN(loss) || math.IsInf(loss, 0), "loss at iteration %d is %v", i+1, loss)
	}
	assert.Less(t, history[9_999], history[0],
		"loss after 10k iterations must be below the first iteration's loss")
}

func TestTrain_EndToEndSyntheticAccuracy(t *testing.T) {
	X, Y, classes := syntheticBlobs(150)

	trainX := NewMatrixFromSlice(120, 4, X.data[:120*4])
	trainY := NewMatrixFromSlice(120, 3, Y.data[:120*3])
	testX := NewMatrixFromSlice(30, 4, X.data[120*4:])
	testClasses := classes[120:]

	nw := irisShapedNetwork(0)
	deterministicInit(nw)

	Train(nw, trainX, trainY, TrainingConfig{
		Iterations:   100_000,
		LearningRate: 0.01,
		Optimizer:    OptSGD,
	})

	nw.Forward(testX)
	predictions := Classify(nw.Output())
	acc := Accuracy(predictions, testClasses)

	assert.Greater(t, acc, 0.8, "held-out accuracy after training, got %.2f", acc)
}

func TestTrain_HookFiresEveryK(t *testing.T) {
	X, Y, _ := syntheticBlobs(12)
	nw := irisShapedNetwork(3)

	var calls []int
	Train(nw, X, Y, TrainingConfig{
		Iterations:   1_000,
		LearningRate: 0.01,
		VerboseEvery: 100,
		Hook: func(iteration int, loss float64) {
			calls = append(calls, iteration)
		},
	})

	// Iteration 1 plus every 100th
	require.Len(t, calls, 11)
	assert.Equal(t, 1, calls[0])
	assert.Equal(t, 100, calls[1])
	assert.Equal(t, 1_000, calls[10])
}

func TestTrain_MomentumAndAdamConverge(t *testing.T) {
	cases := []struct {
		name string
		cfg  TrainingConfig
	}{
		{"momentum", TrainingConfig{Iterations: 2_000, LearningRate: 0.002, Optimizer: OptMomentum, MomentumMu: 0.9}},
		{"adam", TrainingConfig{Iterations: 2_000, LearningRate: 0.001, Optimizer: OptAdam}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			X, Y, _ := syntheticBlobs(60)
			nw := NewNetwork(
				Input(4),
				Dense(6, Activation("relu")),
				Dense(3, Activation("sigmoid")),
			)
			deterministicInit(nw)

			history := Train(nw, X, Y, tc.cfg)
			assert.Less(t, history[len(history)-1], history[0])
		})
	}
}

func TestTrain_ConfigValidation(t *testing.T) {
	X, Y, _ := syntheticBlobs(6)
	nw := irisShapedNetwork(1)

	assert.Panics(t, func() {
		Train(nw, X, Y, TrainingConfig{Iterations: 0, LearningRate: 0.01})
	})
	assert.Panics(t, func() {
		Train(nw, X, Y, TrainingConfig{Iterations: 10, LearningRate: 0})
	})
}

func TestGather(t *testing.T) {
	global := []float64{
		0, 1,
		10, 11,
		20, 21,
	}
	dest := NewMatrix(2, 2)
	Gather([]int{2, 0}, global, 2, dest)

	assert.Equal(t, []float64{20, 21, 0, 1}, dest.data)

	assert.Panics(t, func() {
		Gather([]int{0}, global, 2, dest) // row count mismatch
	})
}

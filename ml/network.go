package ml

import (
	"encoding/gob"
	"fmt"
	"math/rand/v2"
	"os"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

type NeuralNetwork struct {
	Layers []*Layer
}

// Neural Network Builder
func NewNetwork(configs ...LayerConfig) *NeuralNetwork {
	if len(configs) < 2 {
		panic("Network must have at least Input and one Output layer")
	}
	if !configs[0].IsInput {
		panic("First layer must be Input()")
	}

	nn := &NeuralNetwork{}
	prevOutputSize := configs[0].Neurons

	for i := 1; i < len(configs); i++ {
		cfg := configs[i]

		layer := &Layer{
			Weights: NewMatrix(prevOutputSize, cfg.Neurons),
			Biases:  NewMatrix(1, cfg.Neurons),
			ActType: cfg.Activation,
		}

		nn.Layers = append(nn.Layers, layer)
		prevOutputSize = cfg.Neurons
	}

	nn.Reinitialize(rand.Uint64())
	return nn
}

// -------- NEURAL NETWORK METHODS -------- //

// Reinitialize redraws every parameter from a uniform [0, 1) distribution
// seeded by seed. Draw order is fixed: per layer, weights fully, then biases
// fully, so layer 1 weights, layer 1 biases, layer 2 weights, layer 2 biases.
func (nw *NeuralNetwork) Reinitialize(seed uint64) {
	rng := rand.New(rand.NewPCG(seed, 0))
	for _, layer := range nw.Layers {
		layer.Weights.RandomizeUniform(rng)
		layer.Biases.RandomizeUniform(rng)
	}
}

// InitializeBuffers pre-allocates the Z/A/dZ matrices for a given batch size.
func (nw *NeuralNetwork) InitializeBuffers(batchSize int) {
	for _, layer := range nw.Layers {
		outputDim := layer.Weights.cols
		layer.Z = NewMatrix(batchSize, outputDim)
		layer.A = NewMatrix(batchSize, outputDim)
		layer.dZ = NewMatrix(batchSize, outputDim)
	}
}

// Forward runs the full forward pass: Z = A_prev * W + broadcast(B),
// A = f(Z), layer by layer. Activations stay in the layer buffers.
func (nw *NeuralNetwork) Forward(input *Matrix) {
	if input.cols != nw.Layers[0].Weights.rows {
		panic(fmt.Sprintf("Input width mismatch: got %d features, network expects %d",
			input.cols, nw.Layers[0].Weights.rows))
	}
	if nw.Layers[0].Z == nil || nw.Layers[0].Z.rows != input.rows {
		nw.InitializeBuffers(input.rows)
	}

	activation := input
	for _, layer := range nw.Layers {
		MatMul(activation.dense, layer.Weights.dense, layer.Z)
		layer.Z.AddVector(layer.Biases)
		copy(layer.A.data, layer.Z.data)

		switch layer.ActType {
		case ActSigmoid:
			layer.A.ApplySigmoid()
		case ActRelu:
			layer.A.ApplyRelu()
		case ActLinear:
		default:
			panic("Unknown activation type")
		}
		activation = layer.A
	}
}

// Output returns the activations of the final layer after a Forward pass.
func (nw *NeuralNetwork) Output() *Matrix {
	return nw.Layers[len(nw.Layers)-1].A
}

// HalfSquaredError is the cost 0.5 * sum((Y - Yhat)^2) over all entries.
// The 0.5 factor cancels in the derivative and keeps the gradients below in
// parity with finite-difference checks of this exact cost.
func HalfSquaredError(Y, Yhat *Matrix) float64 {
	if Y.rows != Yhat.rows || Y.cols != Yhat.cols {
		panic(fmt.Sprintf("Loss shape mismatch: Y is [%d, %d], Yhat is [%d, %d]",
			Y.rows, Y.cols, Yhat.rows, Yhat.cols))
	}
	total := 0.0
	for i, y := range Y.data {
		d := y - Yhat.data[i]
		total += d * d
	}
	return 0.5 * total
}

// NewGradients allocates one GradientSet per layer, shaped to match the
// layer's parameters.
func NewGradients(nw *NeuralNetwork) []GradientSet {
	grads := make([]GradientSet, len(nw.Layers))
	for l, layer := range nw.Layers {
		grads[l].dW = NewMatrix(layer.Weights.rows, layer.Weights.cols)
		grads[l].db = NewMatrix(layer.Biases.rows, layer.Biases.cols)
	}
	return grads
}

// ComputeGradients backpropagates the half squared error from the last
// Forward pass. For each layer i (with A_0 = input):
//
//	delta_L   = (Yhat - Y) .* f'(Z_L)
//	dW_i      = A_{i-1}^T * delta_i
//	db_i      = column sums of delta_i
//	delta_i-1 = (delta_i * W_i^T) .* f'(Z_{i-1})
//
// Gradients are the exact derivatives of HalfSquaredError, with no batch
// scaling. Returns the loss of the pass.
func (nw *NeuralNetwork) ComputeGradients(input *Matrix, Y *Matrix, grads []GradientSet) float64 {
	lastLayerIdx := len(nw.Layers) - 1
	lastLayer := nw.Layers[lastLayerIdx]

	if Y.rows != input.rows || Y.cols != lastLayer.A.cols {
		panic(fmt.Sprintf("Target shape mismatch: Y is [%d, %d], output is [%d, %d]",
			Y.rows, Y.cols, lastLayer.A.rows, lastLayer.A.cols))
	}

	loss := HalfSquaredError(Y, lastLayer.A)

	// 1. Output Error
	copy(lastLayer.dZ.data, lastLayer.A.data)
	floats.Sub(lastLayer.dZ.data, Y.data)
	lastLayer.applyActivationGrad()

	// 2. Backprop Loop
	for i := lastLayerIdx; i >= 0; i-- {
		layer := nw.Layers[i]

		var aPrev mat.Matrix
		if i == 0 {
			aPrev = input.dense
		} else {
			aPrev = nw.Layers[i-1].A.dense
		}

		MatMul(aPrev.T(), layer.dZ.dense, grads[i].dW)
		layer.dZ.ColumnSumsInto(grads[i].db)

		if i > 0 {
			prevLayer := nw.Layers[i-1]
			MatMul(layer.dZ.dense, layer.Weights.dense.T(), prevLayer.dZ)
			prevLayer.applyActivationGrad()
		}
	}
	return loss
}

// SaveToFile saves the neural network weights and biases to a file.
func (nw *NeuralNetwork) SaveToFile(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()
	encoder := gob.NewEncoder(file)

	type LayerData struct {
		Weights *Matrix
		Biases  *Matrix
		ActType ActivationType
	}

	type NetworkData struct {
		LayerDatas []LayerData
	}

	ld := make([]LayerData, len(nw.Layers))
	for i, l := range nw.Layers {
		ld[i] = LayerData{
			Weights: l.Weights,
			Biases:  l.Biases,
			ActType: l.ActType,
		}
	}

	return encoder.Encode(NetworkData{LayerDatas: ld})
}

func (nw *NeuralNetwork) LoadFromFile(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()
	decoder := gob.NewDecoder(file)

	// Same struct definition as SaveToFile
	type LayerData struct {
		Weights *Matrix
		Biases  *Matrix
		ActType ActivationType
	}
	type NetworkData struct {
		LayerDatas []LayerData
	}

	var loadedData NetworkData
	if err := decoder.Decode(&loadedData); err != nil {
		return fmt.Errorf("failed to decode gob file: %v", err)
	}

	// --- VALIDATION STEP ---

	if len(nw.Layers) != len(loadedData.LayerDatas) {
		return fmt.Errorf("architecture mismatch: current network has %d layers, model file has %d",
			len(nw.Layers), len(loadedData.LayerDatas))
	}

	checkDims := func(name string, layerIdx int, current, loaded *Matrix) error {
		if current == nil || loaded == nil {
			return fmt.Errorf("layer %d %s mismatch: one is nil", layerIdx, name)
		}
		if current.rows != loaded.rows || current.cols != loaded.cols {
			return fmt.Errorf("layer %d %s shape mismatch: expected [%d, %d], got [%d, %d]",
				layerIdx, name,
				current.rows, current.cols,
				loaded.rows, loaded.cols,
			)
		}
		return nil
	}

	for i, currLayer := range nw.Layers {
		loadedLayer := loadedData.LayerDatas[i]

		if currLayer.ActType != loadedLayer.ActType {
			return fmt.Errorf("layer %d mismatch: expected activation %v, got %v",
				i, currLayer.ActType, loadedLayer.ActType)
		}
		if err := checkDims("Weights", i, currLayer.Weights, loadedLayer.Weights); err != nil {
			return err
		}
		if err := checkDims("Biases", i, currLayer.Biases, loadedLayer.Biases); err != nil {
			return err
		}
	}

	// --- APPLICATION STEP ---
	// Safe to overwrite now
	for i := range nw.Layers {
		copy(nw.Layers[i].Weights.data, loadedData.LayerDatas[i].Weights.data)
		copy(nw.Layers[i].Biases.data, loadedData.LayerDatas[i].Biases.data)
	}

	return nil
}

package ml

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

const (
	OptSGD      OptimizerType = "sgd"
	OptMomentum OptimizerType = "momentum"
	OptAdam     OptimizerType = "adam"
)

type OptimizerType string

type AdamConfig struct {
	Beta1        float64
	Beta2        float64
	Epsilon      float64
	LearningRate float64
}

type AdamOptimizer struct {
	cfg         AdamConfig
	layerStates []LayerState
	timeStep    int // 't' in the Adam paper, tracks number of updates
}

type SGDOptimizer struct {
	LearningRate float64
}

type MomentumOptimizer struct {
	LearningRate float64
	Mu           float64 // Momentum Factor (usually 0.9)

	layerStates []*LayerState
}

type Optimizer interface {
	Update(nw *NeuralNetwork, grads []GradientSet)
}

func NewOptimizer(nw *NeuralNetwork, cfg TrainingConfig) Optimizer {
	switch cfg.Optimizer {
	case OptAdam:
		// Set defaults if 0
		beta1 := cfg.AdamBeta1
		if beta1 == 0 {
			beta1 = 0.9
		}
		beta2 := cfg.AdamBeta2
		if beta2 == 0 {
			beta2 = 0.999
		}
		eps := cfg.AdamEps
		if eps == 0 {
			eps = 1e-8
		}

		adamCfg := AdamConfig{
			Beta1:        beta1,
			Beta2:        beta2,
			Epsilon:      eps,
			LearningRate: cfg.LearningRate,
		}
		return NewAdamOptimizer(nw, adamCfg)

	case OptMomentum:
		return NewMomentumOptimizer(nw, cfg.LearningRate, cfg.MomentumMu)

	case OptSGD:
		return &SGDOptimizer{LearningRate: cfg.LearningRate}

	default:
		return &SGDOptimizer{LearningRate: cfg.LearningRate}
	}
}

func NewAdamOptimizer(nw *NeuralNetwork, cfg AdamConfig) *AdamOptimizer {
	opt := &AdamOptimizer{
		cfg:      cfg,
		timeStep: 0,
	}

	// Zero-initialized moment estimates for every layer's parameters
	for _, layer := range nw.Layers {
		state := LayerState{
			mW: NewMatrix(layer.Weights.rows, layer.Weights.cols),
			vW: NewMatrix(layer.Weights.rows, layer.Weights.cols),
			mB: NewMatrix(layer.Biases.rows, layer.Biases.cols),
			vB: NewMatrix(layer.Biases.rows, layer.Biases.cols),
		}
		opt.layerStates = append(opt.layerStates, state)
	}

	return opt
}

func NewMomentumOptimizer(nw *NeuralNetwork, lr, mu float64) *MomentumOptimizer {
	if mu == 0 {
		mu = 0.9
	} // Default

	opt := &MomentumOptimizer{
		LearningRate: lr,
		Mu:           mu,
		layerStates:  make([]*LayerState, len(nw.Layers)),
	}

	// Pre-allocate memory for velocities (held in LayerState matrices)
	for i, layer := range nw.Layers {
		opt.layerStates[i] = &LayerState{
			mW: NewMatrix(layer.Weights.rows, layer.Weights.cols),
			mB: NewMatrix(layer.Biases.rows, layer.Biases.cols),
		}
	}
	return opt
}

// ------ ADAM OPTIMIZER METHODS ------ //
// Update applies the Adam update rule to the network's weights and biases
func (opt *AdamOptimizer) Update(nw *NeuralNetwork, grads []GradientSet) {
	opt.timeStep++
	t := float64(opt.timeStep)

	// correction1 = 1 - beta1^t
	// correction2 = 1 - beta2^t
	correction1 := 1.0 - math.Pow(opt.cfg.Beta1, t)
	correction2 := 1.0 - math.Pow(opt.cfg.Beta2, t)

	// Applies the update to a single parameter slice
	apply := func(params, grads, m, v []float64) {
		beta1 := opt.cfg.Beta1
		beta2 := opt.cfg.Beta2
		eps := opt.cfg.Epsilon
		lr := opt.cfg.LearningRate

		for i := range params {
			g := grads[i]

			// m_t = beta1 * m_{t-1} + (1 - beta1) * g
			m[i] = beta1*m[i] + (1.0-beta1)*g

			// v_t = beta2 * v_{t-1} + (1 - beta2) * g^2
			v[i] = beta2*v[i] + (1.0-beta2)*(g*g)

			// Bias Correction
			mHat := m[i] / correction1
			vHat := v[i] / correction2

			// theta = theta - lr * mHat / (sqrt(vHat) + eps)
			params[i] -= lr * mHat / (math.Sqrt(vHat) + eps)
		}
	}

	for i, layer := range nw.Layers {
		state := &opt.layerStates[i]
		apply(layer.Weights.data, grads[i].dW.data, state.mW.data, state.vW.data)
		apply(layer.Biases.data, grads[i].db.data, state.mB.data, state.vB.data)
	}
}

// ------ MOMENTUM OPTIMIZER METHODS ------ //
func (opt *MomentumOptimizer) Update(nw *NeuralNetwork, grads []GradientSet) {
	// v = mu * v - lr * grad
	// w = w + v
	applyMomentum := func(params, grads, velocity []float64) {
		for i := range params {
			velocity[i] = (opt.Mu * velocity[i]) - (opt.LearningRate * grads[i])
			params[i] += velocity[i]
		}
	}

	for i, layer := range nw.Layers {
		state := opt.layerStates[i]
		applyMomentum(layer.Weights.data, grads[i].dW.data, state.mW.data)
		applyMomentum(layer.Biases.data, grads[i].db.data, state.mB.data)
	}
}

// ------ SGD OPTIMIZER METHODS ------ //
func (opt *SGDOptimizer) Update(nw *NeuralNetwork, grads []GradientSet) {
	for i, layer := range nw.Layers {
		// Simple update: W = W - (lr * gradient)
		floats.AddScaled(layer.Weights.data, -opt.LearningRate, grads[i].dW.data)
		floats.AddScaled(layer.Biases.data, -opt.LearningRate, grads[i].db.data)
	}
}

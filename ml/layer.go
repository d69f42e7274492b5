package ml

const (
	ActLinear ActivationType = iota
	ActRelu
	ActSigmoid
)

var activationMap = map[string]ActivationType{
	"linear":  ActLinear,
	"sigmoid": ActSigmoid,
	"relu":    ActRelu,
}

// -------- TYPE DEFINITIONS -------- //
type ActivationType int
type LayerOption func(*LayerConfig)

// LayerConfig holds the blueprint for a layer
type LayerConfig struct {
	Neurons    int
	IsInput    bool
	Activation ActivationType
}

// LayerState holds per-layer optimizer state (moments / velocities).
type LayerState struct {
	mW, vW *Matrix
	mB, vB *Matrix
}

type Layer struct {
	Weights *Matrix
	Biases  *Matrix

	// Forward State
	Z *Matrix
	A *Matrix

	// Backward State
	dZ      *Matrix
	ActType ActivationType
}

// GradientSet holds the calculated gradients for one layer
type GradientSet struct {
	dW *Matrix
	db *Matrix
}

// ------- LAYER CONFIG HELPERS ------- //
// Input defines the entry point dimensions
func Input(size int) LayerConfig {
	return LayerConfig{
		Neurons:    size,
		IsInput:    true,
		Activation: ActLinear,
	}
}

// Dense defines a fully connected layer.
func Dense(size int, opts ...LayerOption) LayerConfig {
	d := LayerConfig{
		Neurons:    size,
		IsInput:    false,
		Activation: ActSigmoid, // Default for this network family
	}

	for _, opt := range opts {
		opt(&d)
	}
	return d
}

func Activation(activation string) LayerOption {
	return func(lc *LayerConfig) {
		act, exists := activationMap[activation]
		if !exists {
			panic("Unknown activation: " + activation)
		}
		lc.Activation = act
	}
}

// applyActivationGrad multiplies the layer's dZ buffer by the derivative of
// its activation, evaluated at the recorded pre-activations. For sigmoid the
// derivative is read off the stored activations: a * (1 - a).
func (l *Layer) applyActivationGrad() {
	switch l.ActType {
	case ActSigmoid:
		for k := range l.dZ.data {
			a := l.A.data[k]
			l.dZ.data[k] *= a * (1.0 - a)
		}
	case ActRelu:
		for k := range l.dZ.data {
			if l.Z.data[k] <= 0 {
				l.dZ.data[k] = 0
			}
		}
	case ActLinear:
	default:
		panic("Unknown activation type")
	}
}

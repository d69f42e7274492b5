package ml

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"
)

type TrainingConfig struct {
	Iterations   int
	LearningRate float64
	ModelPath    string // If set, the model is saved when training ends
	VerboseEvery int    // How often to log progress (in iterations)

	// Optional observer, called every VerboseEvery iterations instead of
	// the default log line. Decoupled from the update step itself.
	Hook func(iteration int, loss float64)

	// Optimizer Selection
	Optimizer OptimizerType

	// Optimizer Hyperparameters (Zero values will use defaults)
	MomentumMu float64 // For Momentum (usually 0.9)
	AdamBeta1  float64 // For Adam (usually 0.9)
	AdamBeta2  float64 // For Adam (usually 0.999)
	AdamEps    float64 // For Adam (usually 1e-8)
}

// Train runs full-batch gradient descent for a fixed number of iterations.
// There is no convergence test and no early stopping: the loop always runs
// the configured count, and each iteration depends on the fully updated
// parameters from the previous one, so the iterations are strictly
// sequential. Returns the loss recorded at every iteration.
func Train(nw *NeuralNetwork, X, Y *Matrix, cfg TrainingConfig) []float64 {
	validateConfig(cfg)

	optimizer := NewOptimizer(nw, cfg)
	grads := NewGradients(nw)
	nw.InitializeBuffers(X.rows)

	if cfg.ModelPath != "" {
		setupSignalHandler(nw, cfg.ModelPath)
	}

	history := make([]float64, 0, cfg.Iterations)

	start := time.Now()
	for iter := 1; iter <= cfg.Iterations; iter++ {
		nw.Forward(X)
		loss := nw.ComputeGradients(X, Y, grads)
		optimizer.Update(nw, grads)

		history = append(history, loss)

		if cfg.VerboseEvery > 0 && (iter%cfg.VerboseEvery == 0 || iter == 1) {
			if cfg.Hook != nil {
				cfg.Hook(iter, loss)
			} else {
				fmt.Printf("Iteration %d | Loss: %.4f | Time: %v\n", iter, loss, time.Since(start))
			}
		}
	}

	if cfg.ModelPath != "" {
		if err := nw.SaveToFile(cfg.ModelPath); err != nil {
			fmt.Printf("Failed to save model: %v\n", err)
		} else {
			fmt.Println("Saved model to", cfg.ModelPath)
		}
	}
	return history
}

func validateConfig(cfg TrainingConfig) {
	if cfg.Iterations <= 0 {
		panic("Iterations must be positive")
	}
	if cfg.LearningRate <= 0 {
		panic("LearningRate must be positive")
	}
}

// setupSignalHandler captures SIGINT/SIGTERM to save the model safely
func setupSignalHandler(nw *NeuralNetwork, modelPath string) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nInterrupt! Saving model...")
		nw.SaveToFile(modelPath)
		os.Exit(0)
	}()
}

// ------ DATA HANDLING HELPERS ------

// Gather copies specific rows from the global storage into a local buffer.
// This keeps the destination contiguous for efficient MatMul without
// reshuffling the global array.
func Gather(
	rowIndices []int, // Which rows to pull
	globalX []float64, // The immutable source data
	inputDim int, // Row width
	destX *Matrix, // The destination matrix
) {
	if destX.cols != inputDim || destX.rows != len(rowIndices) {
		panic(fmt.Sprintf("Gather shape mismatch: dest is [%d, %d], want [%d, %d]",
			destX.rows, destX.cols, len(rowIndices), inputDim))
	}
	for localRowIdx, realDataIdx := range rowIndices {
		srcStart := realDataIdx * inputDim
		dstStart := localRowIdx * inputDim
		copy(destX.data[dstStart:dstStart+inputDim], globalX[srcStart:srcStart+inputDim])
	}
}

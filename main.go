package main

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/Kc1227/MLP-From-Scratch/data"
	. "github.com/Kc1227/MLP-From-Scratch/ml"
)

const (
	splitSeed  = 3 // Governs the train/test partition
	weightSeed = 1 // Governs the uniform [0,1) parameter draws
	trainRatio = 0.8

	iterations   = 100_000
	learningRate = 0.01
)

// -------- MAIN -------- //
func main() {
	// 1. Load Data
	fmt.Println("Loading dataset...")
	split, err := data.LoadIris(splitSeed, trainRatio)
	if err != nil {
		panic("Failed to load data: " + err.Error())
	}

	trainRows, _ := split.TrainX.Dims()
	testRows, _ := split.TestX.Dims()
	fmt.Printf("Loaded dataset: %d training rows, %d test rows, %d features\n",
		trainRows, testRows, data.NumFeatures)

	// 2. Initialize Network (4 -> 3 -> 3, sigmoid throughout)
	nw := NewNetwork(
		Input(data.NumFeatures),
		Dense(3, Activation("sigmoid")),
		Dense(data.NumClasses, Activation("sigmoid")),
	)
	nw.Reinitialize(weightSeed)

	// 3. Configure & Train
	config := TrainingConfig{
		Iterations:   iterations,
		LearningRate: learningRate,
		Optimizer:    OptSGD,
		VerboseEvery: 10_000,
		ModelPath:    "iris-model.gob",
	}
	fmt.Printf("TrainingConfig: %+v\n", config)

	history := Train(nw, split.TrainX, split.TrainY, config)

	// 4. Evaluate
	report(nw, split)

	// 5. Plot loss curve
	if err := plotLoss(history, "loss.png"); err != nil {
		panic("Failed to plot loss: " + err.Error())
	}
	fmt.Println("Loss curve written to loss.png")
}

func report(nw *NeuralNetwork, split *data.Split) {
	nw.Forward(split.TrainX)
	trainPred := Classify(nw.Output())
	fmt.Printf("\nTrain accuracy: %.2f%%\n", Accuracy(trainPred, split.TrainClasses)*100)

	nw.Forward(split.TestX)
	testPred := Classify(nw.Output())
	fmt.Printf("Test accuracy:  %.2f%%\n\n", Accuracy(testPred, split.TestClasses)*100)

	unclassified := 0
	for i, p := range testPred {
		actual := split.Names[split.TestClasses[i]]
		predicted := "unclassified"
		if p != Unclassified {
			predicted = split.Names[p]
		} else {
			unclassified++
		}
		marker := ""
		if p != split.TestClasses[i] {
			marker = "  <-- wrong"
		}
		fmt.Printf("row %3d | predicted: %-16s | actual: %-16s%s\n", i, predicted, actual, marker)
	}
	if unclassified > 0 {
		fmt.Printf("\n%d test row(s) had no unambiguous rounded class\n", unclassified)
	}
}

// plotLoss renders the iteration-vs-cost curve. The history is thinned so
// the scatter stays readable for long runs.
func plotLoss(history []float64, path string) error {
	stride := len(history) / 1000
	if stride < 1 {
		stride = 1
	}

	points := make(plotter.XYs, 0, len(history)/stride+1)
	for i := 0; i < len(history); i += stride {
		points = append(points, plotter.XY{X: float64(i + 1), Y: history[i]})
	}

	p := plot.New()
	p.Title.Text = "iterations vs cost"
	p.X.Label.Text = "iteration"
	p.Y.Label.Text = "cost"

	scatter, err := plotter.NewScatter(points)
	if err != nil {
		return err
	}
	scatter.GlyphStyle.Radius = vg.Length(1)
	scatter.GlyphStyle.Shape = draw.CircleGlyph{}
	p.Add(scatter)

	return p.Save(8*vg.Inch, 8*vg.Inch, path)
}

package data

import (
	"fmt"
	"math/rand/v2"

	"github.com/pointlander/datum/iris"

	"github.com/Kc1227/MLP-From-Scratch/ml"
)

const (
	NumFeatures = 4
	NumClasses  = 3
)

// Split holds the normalized Iris partitions, ready for training. The label
// matrices are one-hot; the class slices carry the same labels as column
// indices for scoring, and Names maps an index back to its species.
type Split struct {
	TrainX, TrainY *ml.Matrix
	TestX, TestY   *ml.Matrix
	TrainClasses   []int
	TestClasses    []int
	Names          []string
	Divisors       []float64 // Per-feature normalization constants
}

// LoadIris loads Fisher's 150-row Iris set, normalizes each feature column
// by its maximum over the combined set, and splits it into train/test
// partitions chosen by a seeded shuffle. The divisors are computed once from
// all rows and reused for both partitions, so train and test live on the
// same scale.
func LoadIris(seed uint64, trainRatio float64) (*Split, error) {
	if trainRatio <= 0 || trainRatio >= 1 {
		return nil, fmt.Errorf("train ratio must be in (0, 1), got %v", trainRatio)
	}

	datum, err := iris.Load()
	if err != nil {
		return nil, fmt.Errorf("load iris: %w", err)
	}
	n := len(datum.Fisher)
	if n == 0 {
		return nil, fmt.Errorf("iris dataset is empty")
	}

	divisors := make([]float64, NumFeatures)
	for _, flower := range datum.Fisher {
		if len(flower.Measures) != NumFeatures {
			return nil, fmt.Errorf("expected %d measures per flower, got %d", NumFeatures, len(flower.Measures))
		}
		for j, m := range flower.Measures {
			if m > divisors[j] {
				divisors[j] = m
			}
		}
	}

	rows := make([][]float64, n)
	classes := make([]int, n)
	for i, flower := range datum.Fisher {
		scaled := make([]float64, NumFeatures)
		for j, m := range flower.Measures {
			scaled[j] = m / divisors[j]
		}
		rows[i] = scaled
		classes[i] = int(iris.Labels[flower.Label])
	}
	features := ml.Flatten(rows)

	names := make([]string, NumClasses)
	for name, class := range iris.Labels {
		names[int(class)] = name
	}

	rng := rand.New(rand.NewPCG(seed, seed))
	indices := rng.Perm(n)
	trainN := int(float64(n) * trainRatio)
	testN := n - trainN

	split := &Split{
		TrainX:       ml.NewMatrix(trainN, NumFeatures),
		TrainY:       ml.NewMatrix(trainN, NumClasses),
		TestX:        ml.NewMatrix(testN, NumFeatures),
		TestY:        ml.NewMatrix(testN, NumClasses),
		TrainClasses: make([]int, trainN),
		TestClasses:  make([]int, testN),
		Names:        names,
		Divisors:     divisors,
	}

	ml.Gather(indices[:trainN], features, NumFeatures, split.TrainX)
	ml.Gather(indices[trainN:], features, NumFeatures, split.TestX)

	for i, idx := range indices[:trainN] {
		split.TrainClasses[i] = classes[idx]
		split.TrainY.Set(i, classes[idx], 1)
	}
	for i, idx := range indices[trainN:] {
		split.TestClasses[i] = classes[idx]
		split.TestY.Set(i, classes[idx], 1)
	}

	return split, nil
}

// Normalize divides a raw feature vector by the split's divisors, so new
// measurements enter the network on the training scale.
func (s *Split) Normalize(measures []float64) ([]float64, error) {
	if len(measures) != len(s.Divisors) {
		return nil, fmt.Errorf("expected %d measures, got %d", len(s.Divisors), len(measures))
	}
	scaled := make([]float64, len(measures))
	for j, m := range measures {
		scaled[j] = m / s.Divisors[j]
	}
	return scaled, nil
}

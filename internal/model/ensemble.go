package model

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// randomSeed fixes ensemble randomness so retraining on identical data
// reproduces the same model.
const randomSeed = 42

// RandomForest averages bootstrap-sampled regression trees.
type RandomForest struct {
	NEstimators     int              `json:"nEstimators"`
	MaxDepth        int              `json:"maxDepth"`
	MinSamplesSplit int              `json:"minSamplesSplit"`
	Trees           []regressionTree `json:"trees"`
}

// NewRandomForest creates a forest with the pipeline's fixed hyperparameters.
func NewRandomForest() *RandomForest {
	return &RandomForest{NEstimators: 100, MaxDepth: 15, MinSamplesSplit: 5}
}

func (f *RandomForest) Name() string       { return NameRandomForest }
func (f *RandomForest) NeedsScaling() bool { return false }

func (f *RandomForest) Fit(X *mat.Dense, y []float64) error {
	rows, _ := X.Dims()
	if rows != len(y) {
		return fmt.Errorf("random forest: %d samples but %d targets", rows, len(y))
	}
	if rows == 0 {
		return fmt.Errorf("random forest: no samples")
	}

	rng := rand.New(rand.NewSource(randomSeed))
	f.Trees = make([]regressionTree, f.NEstimators)
	for t := range f.Trees {
		sample := make([]int, rows)
		for i := range sample {
			sample[i] = rng.Intn(rows)
		}
		f.Trees[t] = regressionTree{MaxDepth: f.MaxDepth, MinSamplesSplit: f.MinSamplesSplit}
		f.Trees[t].fit(X, y, sample)
	}
	return nil
}

func (f *RandomForest) Predict(x []float64) (float64, error) {
	if len(f.Trees) == 0 {
		return 0, errNotFitted
	}
	var sum float64
	for i := range f.Trees {
		sum += f.Trees[i].Root.predict(x)
	}
	return sum / float64(len(f.Trees)), nil
}

// GradientBoosting fits shallow trees to the running residual with a fixed
// learning rate.
type GradientBoosting struct {
	NEstimators     int              `json:"nEstimators"`
	LearningRate    float64          `json:"learningRate"`
	MaxDepth        int              `json:"maxDepth"`
	MinSamplesSplit int              `json:"minSamplesSplit"`
	Init            float64          `json:"init"`
	Trees           []regressionTree `json:"trees"`
}

// NewGradientBoosting creates a booster with the pipeline's fixed
// hyperparameters.
func NewGradientBoosting() *GradientBoosting {
	return &GradientBoosting{NEstimators: 100, LearningRate: 0.1, MaxDepth: 5, MinSamplesSplit: 2}
}

func (g *GradientBoosting) Name() string       { return NameGradientBoosting }
func (g *GradientBoosting) NeedsScaling() bool { return false }

func (g *GradientBoosting) Fit(X *mat.Dense, y []float64) error {
	rows, _ := X.Dims()
	if rows != len(y) {
		return fmt.Errorf("gradient boosting: %d samples but %d targets", rows, len(y))
	}
	if rows == 0 {
		return fmt.Errorf("gradient boosting: no samples")
	}

	g.Init = stat.Mean(y, nil)

	residual := make([]float64, rows)
	for i, v := range y {
		residual[i] = v - g.Init
	}

	all := make([]int, rows)
	for i := range all {
		all[i] = i
	}

	g.Trees = make([]regressionTree, g.NEstimators)
	for t := range g.Trees {
		g.Trees[t] = regressionTree{MaxDepth: g.MaxDepth, MinSamplesSplit: g.MinSamplesSplit}
		g.Trees[t].fit(X, residual, all)

		for i := range residual {
			residual[i] -= g.LearningRate * g.Trees[t].Root.predict(row(X, i))
		}
	}
	return nil
}

func (g *GradientBoosting) Predict(x []float64) (float64, error) {
	if len(g.Trees) == 0 {
		return 0, errNotFitted
	}
	pred := g.Init
	for i := range g.Trees {
		pred += g.LearningRate * g.Trees[i].Root.predict(x)
	}
	return pred, nil
}

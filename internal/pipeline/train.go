package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/aqimet/aqipipe/internal/model"
	"github.com/aqimet/aqipipe/internal/registry"
	"github.com/aqimet/aqipipe/internal/store"
)

// ErrInsufficientData halts training before anything is fitted when the
// history is below the minimum sample threshold.
var ErrInsufficientData = errors.New("insufficient training data")

// MinTrainingSamples is the minimum history size training requires.
const MinTrainingSamples = 100

// testFraction is the trailing chronological share held out for evaluation.
const testFraction = 0.2

// cvFolds is the fold count for the informational cross-validated RMSE.
const cvFolds = 5

// candidateOrder fixes the fitting order so logs and reports are stable.
var candidateOrder = []string{
	model.NameRandomForest,
	model.NameGradientBoosting,
	model.NameRidge,
	model.NameLasso,
}

// ModelResult holds the evaluation of one candidate.
type ModelResult struct {
	Name      string  `json:"name"`
	TrainRMSE float64 `json:"trainRmse"`
	TestRMSE  float64 `json:"testRmse"`
	TestMAE   float64 `json:"testMae"`
	TestR2    float64 `json:"testR2"`
	CVRMSE    float64 `json:"cvRmse"`
	Overfit   bool    `json:"overfit"`
}

// TrainReport summarizes a training run.
type TrainReport struct {
	RunID    string        `json:"runId"`
	Horizon  int           `json:"horizon"`
	Samples  int           `json:"samples"`
	Features int           `json:"features"`
	Results  []ModelResult `json:"results"`
	BestName string        `json:"bestName"`
	Version  int           `json:"version"`
}

// Trainer runs the training step.
type Trainer struct {
	Store      store.FeatureStore
	Registry   *registry.FilesystemRegistry
	MinSamples int // defaults to MinTrainingSamples when zero
}

// Run pulls the full history, fits every candidate on a chronological 80/20
// split, selects the lowest held-out RMSE, and persists the winning bundle.
func (t *Trainer) Run(ctx context.Context, horizon int) (*TrainReport, error) {
	minSamples := t.MinSamples
	if minSamples <= 0 {
		minSamples = MinTrainingSamples
	}

	log.Printf("INFO: fetching training data from feature store")
	records, err := t.Store.ReadAll(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: feature store is empty", ErrInsufficientData)
		}
		return nil, err
	}
	if len(records) < minSamples {
		return nil, fmt.Errorf("%w: have %d rows, need at least %d", ErrInsufficientData, len(records), minSamples)
	}
	log.Printf("INFO: fetched %d records", len(records))

	ds, err := BuildSupervised(records, horizon)
	if err != nil {
		return nil, err
	}
	samples, features := ds.X.Dims()
	log.Printf("INFO: prepared %d samples with %d features for %dh ahead prediction", samples, features, horizon)

	trainX, testX, trainY, testY, err := ds.SplitChronological(testFraction)
	if err != nil {
		return nil, err
	}

	scaler := model.NewStandardScaler()
	trainScaled, err := scaler.FitTransform(trainX)
	if err != nil {
		return nil, err
	}
	testScaled, err := scaler.Transform(testX)
	if err != nil {
		return nil, err
	}

	report := &TrainReport{
		RunID:    uuid.NewString(),
		Horizon:  horizon,
		Samples:  samples,
		Features: features,
	}

	candidates := model.Candidates()
	fitted := make(map[string]model.Regressor, len(candidates))

	for _, name := range candidateOrder {
		newModel := candidates[name]
		m := newModel()

		fitTrainX, fitTestX := trainX, testX
		if m.NeedsScaling() {
			fitTrainX, fitTestX = trainScaled, testScaled
		}

		log.Printf("INFO: training %s", name)
		if err := m.Fit(fitTrainX, trainY); err != nil {
			return nil, fmt.Errorf("fit %s: %w", name, err)
		}

		trainPred, err := model.PredictAll(m, fitTrainX)
		if err != nil {
			return nil, fmt.Errorf("evaluate %s: %w", name, err)
		}
		testPred, err := model.PredictAll(m, fitTestX)
		if err != nil {
			return nil, fmt.Errorf("evaluate %s: %w", name, err)
		}

		res := ModelResult{
			Name:      name,
			TrainRMSE: model.RMSE(trainY, trainPred),
			TestRMSE:  model.RMSE(testY, testPred),
			TestMAE:   model.MAE(testY, testPred),
			TestR2:    model.R2(testY, testPred),
		}
		res.Overfit = model.LikelyOverfit(res.TrainRMSE, res.TestRMSE)

		cv, err := model.CrossValRMSE(newModel, fitTrainX, trainY, cvFolds)
		if err != nil {
			log.Printf("WARN: cross-validation for %s failed: %v", name, err)
		} else {
			res.CVRMSE = cv
		}

		log.Printf("INFO: %s train RMSE %.2f, test RMSE %.2f, test MAE %.2f, test R2 %.3f, CV RMSE %.2f",
			name, res.TrainRMSE, res.TestRMSE, res.TestMAE, res.TestR2, res.CVRMSE)
		if res.Overfit {
			log.Printf("WARN: %s: possible overfitting (train RMSE well below test RMSE)", name)
		}

		report.Results = append(report.Results, res)
		fitted[name] = m
	}

	best := report.Results[0]
	for _, res := range report.Results[1:] {
		if res.TestRMSE < best.TestRMSE {
			best = res
		}
	}
	report.BestName = best.Name
	log.Printf("INFO: best model: %s (test RMSE %.2f)", best.Name, best.TestRMSE)

	bundle := registry.Bundle{
		Model:          fitted[best.Name],
		Scaler:         scaler,
		FeatureColumns: ds.Columns,
		Metadata: registry.Metadata{
			ModelName:    best.Name,
			HorizonHours: horizon,
			TrainedAt:    time.Now().UTC(),
			RunID:        report.RunID,
			TestRMSE:     best.TestRMSE,
			TestMAE:      best.TestMAE,
			TestR2:       best.TestR2,
		},
	}

	version, err := t.Registry.Save(bundle)
	if err != nil {
		return nil, fmt.Errorf("save model bundle: %w", err)
	}
	report.Version = version
	log.Printf("INFO: saved model bundle version %d", version)

	return report, nil
}

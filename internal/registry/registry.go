// Package registry persists trained model artifacts. A bundle is the single
// value handed from the training step to serving: model, scaler and the
// ordered feature-column list always travel together.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/aqimet/aqipipe/internal/model"
)

// ErrNoModel is returned when the registry holds no trained model yet.
var ErrNoModel = errors.New("no trained model in registry")

// DefaultModelName is the registry entry the pipeline trains into.
const DefaultModelName = "aqi_predictor"

// Metadata describes a trained model version.
type Metadata struct {
	ModelName    string    `json:"modelName"`
	HorizonHours int       `json:"horizonHours"`
	TrainedAt    time.Time `json:"trainedAt"`
	RunID        string    `json:"runId"`
	TestRMSE     float64   `json:"testRmse"`
	TestMAE      float64   `json:"testMae"`
	TestR2       float64   `json:"testR2"`
}

// Bundle holds the three co-located artifacts plus metadata. FeatureColumns
// is the exact, ordered column set the model was fitted on.
type Bundle struct {
	Model          model.Regressor
	Scaler         *model.StandardScaler
	FeatureColumns []string
	Metadata       Metadata
}

// Artifact file names within a version directory.
const (
	modelFile    = "model.json"
	scalerFile   = "scaler.json"
	columnsFile  = "feature_columns.json"
	metadataFile = "metadata.json"
)

// FilesystemRegistry stores versioned bundles under
// `<dir>/<entry>/<version>/`.
type FilesystemRegistry struct {
	dir   string
	entry string
}

// NewFilesystemRegistry creates a registry rooted at dir for one entry name.
func NewFilesystemRegistry(dir, entry string) *FilesystemRegistry {
	return &FilesystemRegistry{dir: dir, entry: entry}
}

// Save writes a new version of the bundle and returns its version number.
func (r *FilesystemRegistry) Save(b Bundle) (int, error) {
	latest, err := r.latestVersion()
	if err != nil && !errors.Is(err, ErrNoModel) {
		return 0, err
	}
	version := latest + 1

	dir := r.versionDir(version)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create registry dir: %w", err)
	}

	modelData, err := model.Marshal(b.Model)
	if err != nil {
		return 0, err
	}

	files := map[string]any{
		scalerFile:   b.Scaler,
		columnsFile:  b.FeatureColumns,
		metadataFile: b.Metadata,
	}
	if err := os.WriteFile(filepath.Join(dir, modelFile), modelData, 0o644); err != nil {
		return 0, fmt.Errorf("write model artifact: %w", err)
	}
	for name, v := range files {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return 0, fmt.Errorf("encode %s: %w", name, err)
		}
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			return 0, fmt.Errorf("write %s: %w", name, err)
		}
	}
	return version, nil
}

// LoadLatest loads the most recent version, or ErrNoModel.
func (r *FilesystemRegistry) LoadLatest() (Bundle, error) {
	version, err := r.latestVersion()
	if err != nil {
		return Bundle{}, err
	}
	return r.Load(version)
}

// Load loads a specific bundle version.
func (r *FilesystemRegistry) Load(version int) (Bundle, error) {
	dir := r.versionDir(version)

	modelData, err := os.ReadFile(filepath.Join(dir, modelFile))
	if err != nil {
		if os.IsNotExist(err) {
			return Bundle{}, ErrNoModel
		}
		return Bundle{}, fmt.Errorf("read model artifact: %w", err)
	}

	b := Bundle{Scaler: &model.StandardScaler{}}
	if b.Model, err = model.Unmarshal(modelData); err != nil {
		return Bundle{}, err
	}
	if err := readJSON(filepath.Join(dir, scalerFile), b.Scaler); err != nil {
		return Bundle{}, err
	}
	if err := readJSON(filepath.Join(dir, columnsFile), &b.FeatureColumns); err != nil {
		return Bundle{}, err
	}
	if err := readJSON(filepath.Join(dir, metadataFile), &b.Metadata); err != nil {
		return Bundle{}, err
	}
	return b, nil
}

func (r *FilesystemRegistry) versionDir(version int) string {
	return filepath.Join(r.dir, r.entry, strconv.Itoa(version))
}

func (r *FilesystemRegistry) latestVersion() (int, error) {
	entries, err := os.ReadDir(filepath.Join(r.dir, r.entry))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, ErrNoModel
		}
		return 0, fmt.Errorf("read registry dir: %w", err)
	}

	latest := 0
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if v, err := strconv.Atoi(e.Name()); err == nil && v > latest {
			latest = v
		}
	}
	if latest == 0 {
		return 0, ErrNoModel
	}
	return latest, nil
}

func readJSON(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return nil
}

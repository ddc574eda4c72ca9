package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Artifact names as persisted by the training pipeline. The registry
// requires all four; a partial set never loads.
const (
	ArtifactScaler             = "scaler"
	ArtifactLogisticRegression = "logistic_regression"
	ArtifactKNN                = "knn"
	ArtifactMetadata           = "model_metadata"
)

// ModelMetrics is a per-model metric block recorded at training time and
// read back verbatim; metrics are never recomputed online.
type ModelMetrics struct {
	K                   int     `json:"k,omitempty"`
	Accuracy            float64 `json:"accuracy"`
	Precision           float64 `json:"precision"`
	Recall              float64 `json:"recall"`
	F1Score             float64 `json:"f1_score"`
	TrainingTimeSeconds float64 `json:"training_time_seconds,omitempty"`
}

type ModelMetadata struct {
	FeatureNames       []string     `json:"feature_names"`
	NumFeatures        int          `json:"num_features"`
	BestKNNK           int          `json:"best_knn_k"`
	TrainingSamples    int          `json:"training_samples,omitempty"`
	TrainedAt          string       `json:"trained_at,omitempty"`
	LogisticRegression ModelMetrics `json:"logistic_regression"`
	KNN                ModelMetrics `json:"knn"`
}

// Registry holds the fitted scaler, both classifiers and their metadata.
// It is constructed once, read-only for its lifetime, and safe for
// concurrent use without locking.
type Registry struct {
	scaler   *StandardScaler
	logreg   Classifier
	knn      Classifier
	contract *FeatureContract
	metadata ModelMetadata
	document map[string]interface{}
	loadedAt time.Time
	loaded   bool
}

// NewRegistry assembles a registry from already-fitted components. The
// feature contract is taken from the metadata's ordered feature_names.
func NewRegistry(scaler *StandardScaler, logreg, knn Classifier, metadata ModelMetadata) (*Registry, error) {
	if scaler == nil || logreg == nil || knn == nil {
		return nil, errors.New("scaler and both classifiers are required")
	}
	if len(metadata.FeatureNames) == 0 {
		return nil, errors.New("metadata has no feature names")
	}
	if len(scaler.Mean) != len(metadata.FeatureNames) {
		return nil, fmt.Errorf("scaler fitted for %d features, metadata lists %d",
			len(scaler.Mean), len(metadata.FeatureNames))
	}
	registry := &Registry{
		scaler:   scaler,
		logreg:   logreg,
		knn:      knn,
		contract: NewFeatureContract(metadata.FeatureNames),
		metadata: metadata,
		loadedAt: time.Now(),
		loaded:   true,
	}
	// synthesized document; LoadRegistry replaces it with the verbatim file
	payload, err := json.Marshal(metadata)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(payload, &registry.document); err != nil {
		return nil, err
	}
	return registry, nil
}

// LoadRegistry deserializes all four artifacts from dir. Any missing file
// fails the whole load with an ArtifactMissingError naming it.
func LoadRegistry(dir string) (*Registry, error) {
	paths := map[string]string{
		ArtifactScaler:             filepath.Join(dir, ArtifactScaler+".json"),
		ArtifactLogisticRegression: filepath.Join(dir, ArtifactLogisticRegression+".json"),
		ArtifactKNN:                filepath.Join(dir, ArtifactKNN+".json"),
		ArtifactMetadata:           filepath.Join(dir, ArtifactMetadata+".json"),
	}
	for _, which := range []string{ArtifactScaler, ArtifactLogisticRegression, ArtifactKNN, ArtifactMetadata} {
		if _, err := os.Stat(paths[which]); err != nil {
			return nil, &ArtifactMissingError{Which: which, Path: paths[which]}
		}
	}

	scaler, err := LoadScaler(paths[ArtifactScaler])
	if err != nil {
		return nil, fmt.Errorf("load scaler: %w", err)
	}
	logreg, err := LoadLogisticRegression(paths[ArtifactLogisticRegression])
	if err != nil {
		return nil, fmt.Errorf("load logistic regression: %w", err)
	}
	knn, err := LoadKNN(paths[ArtifactKNN])
	if err != nil {
		return nil, fmt.Errorf("load knn: %w", err)
	}

	payload, err := os.ReadFile(paths[ArtifactMetadata])
	if err != nil {
		return nil, fmt.Errorf("load metadata: %w", err)
	}
	var metadata ModelMetadata
	if err := json.Unmarshal(payload, &metadata); err != nil {
		return nil, fmt.Errorf("parse metadata: %w", err)
	}
	// keep the full document for /api/stats; only the typed keys above
	// are interpreted
	var document map[string]interface{}
	if err := json.Unmarshal(payload, &document); err != nil {
		return nil, fmt.Errorf("parse metadata document: %w", err)
	}

	registry, err := NewRegistry(scaler, logreg, knn, metadata)
	if err != nil {
		return nil, err
	}
	registry.document = document
	return registry, nil
}

func (r *Registry) Loaded() bool {
	return r != nil && r.loaded
}

func (r *Registry) LoadedAt() time.Time {
	return r.loadedAt
}

func (r *Registry) Contract() *FeatureContract {
	return r.contract
}

func (r *Registry) Scaler() *StandardScaler {
	return r.scaler
}

func (r *Registry) Metadata() ModelMetadata {
	return r.metadata
}

// Document returns the metadata file as an opaque bag, preserved verbatim.
func (r *Registry) Document() map[string]interface{} {
	return r.document
}

func (r *Registry) Classifier(modelType string) (Classifier, error) {
	switch modelType {
	case ModelTypeKNN:
		return r.knn, nil
	case ModelTypeLogisticRegression:
		return r.logreg, nil
	default:
		return nil, &UnknownModelError{ModelType: modelType}
	}
}

// RegistryProvider yields the current registry. Implementations must
// return complete, immutable registries only.
type RegistryProvider interface {
	Registry() *Registry
}

// StaticRegistry is a provider over a registry loaded once at startup.
type StaticRegistry struct {
	registry *Registry
}

func NewStaticRegistry(registry *Registry) *StaticRegistry {
	return &StaticRegistry{registry: registry}
}

func (s *StaticRegistry) Registry() *Registry {
	return s.registry
}

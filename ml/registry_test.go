package ml

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// writeTestArtifacts trains a tiny model set on two well-separated flow
// clusters and persists the four artifacts into a fresh directory.
func writeTestArtifacts(t *testing.T) string {
	t.Helper()

	features := [][]float64{
		{1, 2}, {2, 1}, {1.5, 2.5}, {2.5, 1.5},
		{100, 80}, {110, 90}, {95, 85}, {105, 75},
	}
	labels := []int{0, 0, 0, 0, 1, 1, 1, 1}

	scaler := &StandardScaler{}
	if err := scaler.Fit(features); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	scaled, err := scaler.TransformAll(features)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	logreg := &LogisticRegression{}
	if err := logreg.Train(scaled, labels, DefaultLogisticConfig()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	knn := &KNNClassifier{K: 3}
	if err := knn.Train(scaled, labels); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	dir := t.TempDir()
	if err := scaler.Save(filepath.Join(dir, "scaler.json")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := logreg.Save(filepath.Join(dir, "logistic_regression.json")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := knn.Save(filepath.Join(dir, "knn.json")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	metadata := ModelMetadata{
		FeatureNames: []string{"duration", "fwd_packets"},
		NumFeatures:  2,
		BestKNNK:     3,
		LogisticRegression: ModelMetrics{
			Accuracy: 0.98, Precision: 0.97, Recall: 0.96, F1Score: 0.965,
		},
		KNN: ModelMetrics{
			K: 3, Accuracy: 0.99, Precision: 0.98, Recall: 0.97, F1Score: 0.975,
		},
	}
	payload, err := json.Marshal(metadata)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "model_metadata.json"), payload, 0o600); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return dir
}

func TestLoadRegistry(t *testing.T) {
	dir := writeTestArtifacts(t)
	registry, err := LoadRegistry(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !registry.Loaded() {
		t.Fatal("expected registry to be loaded")
	}
	names := registry.Contract().Names()
	if len(names) != 2 || names[0] != "duration" || names[1] != "fwd_packets" {
		t.Fatalf("unexpected contract names: %v", names)
	}
	if registry.Metadata().BestKNNK != 3 {
		t.Fatalf("unexpected best k: %d", registry.Metadata().BestKNNK)
	}
	if registry.Metadata().KNN.F1Score != 0.975 {
		t.Fatalf("unexpected knn f1: %v", registry.Metadata().KNN.F1Score)
	}

	for _, modelType := range []string{ModelTypeKNN, ModelTypeLogisticRegression} {
		if _, err := registry.Classifier(modelType); err != nil {
			t.Fatalf("unexpected error for %s: %v", modelType, err)
		}
	}
	var unknown *UnknownModelError
	if _, err := registry.Classifier("random_forest"); !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownModelError, got %v", err)
	}

	document := registry.Document()
	if _, ok := document["feature_names"]; !ok {
		t.Fatal("expected metadata document to keep feature_names")
	}
}

func TestLoadRegistryMissingArtifact(t *testing.T) {
	for _, which := range []string{ArtifactScaler, ArtifactLogisticRegression, ArtifactKNN, ArtifactMetadata} {
		dir := writeTestArtifacts(t)
		if err := os.Remove(filepath.Join(dir, which+".json")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		registry, err := LoadRegistry(dir)
		if registry != nil {
			t.Fatalf("%s: expected no registry on partial load", which)
		}
		var missing *ArtifactMissingError
		if !errors.As(err, &missing) {
			t.Fatalf("%s: expected ArtifactMissingError, got %v", which, err)
		}
		if missing.Which != which {
			t.Fatalf("expected which=%q, got %q", which, missing.Which)
		}
	}
}

func TestNewRegistryValidation(t *testing.T) {
	scaler := &StandardScaler{Mean: []float64{0}, Scale: []float64{1}}
	model := &KNNClassifier{}
	metadata := ModelMetadata{FeatureNames: []string{"duration", "fwd_packets"}}

	if _, err := NewRegistry(nil, model, model, metadata); err == nil {
		t.Fatal("expected error for missing scaler")
	}
	if _, err := NewRegistry(scaler, model, model, metadata); err == nil {
		t.Fatal("expected error for scaler/contract dimension mismatch")
	}
	if _, err := NewRegistry(scaler, model, model, ModelMetadata{}); err == nil {
		t.Fatal("expected error for empty feature names")
	}
}

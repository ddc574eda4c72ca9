package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
)

// KNNClassifier predicts by majority vote among the K nearest training
// vectors (Euclidean distance). The stored vectors must already be scaled;
// the probability is the attack share among the K neighbors.
type KNNClassifier struct {
	K       int         `json:"k"`
	Vectors [][]float64 `json:"vectors"`
	Labels  []int       `json:"labels"`
}

func (m *KNNClassifier) Train(features [][]float64, labels []int) error {
	if len(features) == 0 || len(labels) == 0 {
		return errors.New("features or labels empty")
	}
	if len(features) != len(labels) {
		return errors.New("features and labels size mismatch")
	}
	if m.K <= 0 {
		m.K = 3
	}
	if m.K > len(features) {
		return fmt.Errorf("k=%d exceeds training size %d", m.K, len(features))
	}

	vectors := make([][]float64, len(features))
	dim := len(features[0])
	for i, vector := range features {
		if len(vector) != dim {
			return errors.New("inconsistent vector length")
		}
		vectors[i] = append([]float64(nil), vector...)
	}
	m.Vectors = vectors
	m.Labels = append([]int(nil), labels...)
	return nil
}

func (m *KNNClassifier) Predict(vector []float64) (int, error) {
	p, err := m.PredictProba(vector)
	if err != nil {
		return 0, err
	}
	if p >= 0.5 {
		return 1, nil
	}
	return 0, nil
}

func (m *KNNClassifier) PredictProba(vector []float64) (float64, error) {
	if len(m.Vectors) == 0 {
		return 0, errors.New("model not trained")
	}
	if len(vector) != len(m.Vectors[0]) {
		return 0, fmt.Errorf("expected %d features, got %d", len(m.Vectors[0]), len(vector))
	}

	type neighbor struct {
		distance float64
		label    int
	}
	neighbors := make([]neighbor, len(m.Vectors))
	for i, stored := range m.Vectors {
		sum := 0.0
		for j, value := range stored {
			diff := vector[j] - value
			sum += diff * diff
		}
		neighbors[i] = neighbor{distance: math.Sqrt(sum), label: m.Labels[i]}
	}
	sort.Slice(neighbors, func(i, j int) bool {
		return neighbors[i].distance < neighbors[j].distance
	})

	attack := 0
	for _, n := range neighbors[:m.K] {
		if n.label == 1 {
			attack++
		}
	}
	return float64(attack) / float64(m.K), nil
}

func (m *KNNClassifier) Save(path string) error {
	if len(m.Vectors) == 0 {
		return errors.New("model not trained")
	}
	payload, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o600)
}

func LoadKNN(path string) (*KNNClassifier, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var model KNNClassifier
	if err := json.Unmarshal(payload, &model); err != nil {
		return nil, err
	}
	if model.K <= 0 || len(model.Vectors) != len(model.Labels) {
		return nil, errors.New("invalid knn artifact")
	}
	return &model, nil
}

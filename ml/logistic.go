package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
)

type LogisticRegression struct {
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`
}

type LogisticConfig struct {
	Epochs       int
	LearningRate float64
}

func DefaultLogisticConfig() LogisticConfig {
	return LogisticConfig{
		Epochs:       300,
		LearningRate: 0.1,
	}
}

// Train fits weights by batch gradient descent on the log loss.
func (m *LogisticRegression) Train(features [][]float64, labels []int, config LogisticConfig) error {
	if len(features) == 0 || len(labels) == 0 {
		return errors.New("features or labels empty")
	}
	if len(features) != len(labels) {
		return errors.New("features and labels size mismatch")
	}
	if config.Epochs <= 0 {
		config.Epochs = DefaultLogisticConfig().Epochs
	}
	if config.LearningRate <= 0 {
		config.LearningRate = DefaultLogisticConfig().LearningRate
	}

	dim := len(features[0])
	weights := make([]float64, dim)
	bias := 0.0
	n := float64(len(features))

	gradW := make([]float64, dim)
	for epoch := 0; epoch < config.Epochs; epoch++ {
		for j := range gradW {
			gradW[j] = 0
		}
		gradB := 0.0
		for i, vector := range features {
			if len(vector) != dim {
				return errors.New("inconsistent vector length")
			}
			p := sigmoid(dot(weights, vector) + bias)
			residual := p - float64(labels[i])
			for j, value := range vector {
				gradW[j] += residual * value
			}
			gradB += residual
		}
		for j := range weights {
			weights[j] -= config.LearningRate * gradW[j] / n
		}
		bias -= config.LearningRate * gradB / n
	}

	m.Weights = weights
	m.Bias = bias
	return nil
}

func (m *LogisticRegression) Predict(vector []float64) (int, error) {
	p, err := m.PredictProba(vector)
	if err != nil {
		return 0, err
	}
	if p >= 0.5 {
		return 1, nil
	}
	return 0, nil
}

func (m *LogisticRegression) PredictProba(vector []float64) (float64, error) {
	if len(m.Weights) == 0 {
		return 0, errors.New("model not trained")
	}
	if len(vector) != len(m.Weights) {
		return 0, fmt.Errorf("expected %d features, got %d", len(m.Weights), len(vector))
	}
	return sigmoid(dot(m.Weights, vector) + m.Bias), nil
}

func (m *LogisticRegression) Save(path string) error {
	if len(m.Weights) == 0 {
		return errors.New("model not trained")
	}
	payload, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o600)
}

func LoadLogisticRegression(path string) (*LogisticRegression, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var model LogisticRegression
	if err := json.Unmarshal(payload, &model); err != nil {
		return nil, err
	}
	return &model, nil
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

func dot(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

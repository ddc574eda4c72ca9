package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
)

// StandardScaler normalizes each feature to zero mean and unit variance.
// Fit once on training data; Transform applies the fitted parameters and
// never refits.
type StandardScaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

func (s *StandardScaler) Fit(vectors [][]float64) error {
	if len(vectors) == 0 {
		return errors.New("vectors is empty")
	}
	dim := len(vectors[0])
	mean := make([]float64, dim)
	for _, vector := range vectors {
		if len(vector) != dim {
			return errors.New("inconsistent vector length")
		}
		for j, value := range vector {
			mean[j] += value
		}
	}
	n := float64(len(vectors))
	for j := range mean {
		mean[j] /= n
	}

	scale := make([]float64, dim)
	for _, vector := range vectors {
		for j, value := range vector {
			diff := value - mean[j]
			scale[j] += diff * diff
		}
	}
	for j := range scale {
		scale[j] = math.Sqrt(scale[j] / n)
		if scale[j] == 0 {
			// constant feature, pass through unchanged
			scale[j] = 1
		}
	}

	s.Mean = mean
	s.Scale = scale
	return nil
}

func (s *StandardScaler) Transform(vector []float64) ([]float64, error) {
	if len(s.Mean) == 0 {
		return nil, errors.New("scaler not fitted")
	}
	if len(vector) != len(s.Mean) {
		return nil, fmt.Errorf("expected %d features, got %d", len(s.Mean), len(vector))
	}
	scaled := make([]float64, len(vector))
	for i, value := range vector {
		scaled[i] = (value - s.Mean[i]) / s.Scale[i]
	}
	return scaled, nil
}

func (s *StandardScaler) TransformAll(vectors [][]float64) ([][]float64, error) {
	scaled := make([][]float64, len(vectors))
	for i, vector := range vectors {
		result, err := s.Transform(vector)
		if err != nil {
			return nil, err
		}
		scaled[i] = result
	}
	return scaled, nil
}

func (s *StandardScaler) Save(path string) error {
	if len(s.Mean) == 0 {
		return errors.New("scaler not fitted")
	}
	payload, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o600)
}

func LoadScaler(path string) (*StandardScaler, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var scaler StandardScaler
	if err := json.Unmarshal(payload, &scaler); err != nil {
		return nil, err
	}
	if len(scaler.Mean) != len(scaler.Scale) {
		return nil, errors.New("scaler mean/scale length mismatch")
	}
	return &scaler, nil
}

package ml

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	ConfidenceHigh   = "High"
	ConfidenceMedium = "Medium"
	ConfidenceLow    = "Low"
)

type Prediction struct {
	Label       int
	Probability float64
}

type BatchResult struct {
	Labels        []int
	Probabilities []float64
	TotalCount    int
	AttackCount   int
	NormalCount   int
}

// PredictionService runs the serving pipeline: validate, order, scale,
// predict, estimate probability. Each request is a pure read over the
// current registry, so results for identical inputs are memoized.
type PredictionService struct {
	provider RegistryProvider
	cache    *lru.Cache[string, Prediction]
}

// NewPredictionService wires a service over the given provider.
// cacheSize <= 0 disables memoization.
func NewPredictionService(provider RegistryProvider, cacheSize int) (*PredictionService, error) {
	if provider == nil {
		return nil, errors.New("registry provider is required")
	}
	service := &PredictionService{provider: provider}
	if cacheSize > 0 {
		cache, err := lru.New[string, Prediction](cacheSize)
		if err != nil {
			return nil, err
		}
		service.cache = cache
	}
	return service, nil
}

func (s *PredictionService) PredictOne(features map[string]float64, modelType string) (Prediction, error) {
	registry := s.provider.Registry()
	if !registry.Loaded() {
		return Prediction{}, errors.New("models not loaded")
	}
	// model selection happens before any validation or scaling
	model, err := registry.Classifier(modelType)
	if err != nil {
		return Prediction{}, err
	}

	contract := registry.Contract()
	if err := contract.Validate(features); err != nil {
		return Prediction{}, err
	}
	vector := contract.Order(features)

	key := ""
	if s.cache != nil {
		key = cacheKey(registry, modelType, vector)
		if cached, ok := s.cache.Get(key); ok {
			return cached, nil
		}
	}

	scaled, err := registry.Scaler().Transform(vector)
	if err != nil {
		return Prediction{}, fmt.Errorf("scale features: %w", err)
	}
	label, err := model.Predict(scaled)
	if err != nil {
		return Prediction{}, fmt.Errorf("predict: %w", err)
	}

	// fixed neutral fallback for models without a probability estimate;
	// it reports 0.5 for either predicted class
	probability := 0.5
	if estimator, ok := model.(ProbabilityEstimator); ok {
		probability, err = estimator.PredictProba(scaled)
		if err != nil {
			return Prediction{}, fmt.Errorf("predict probability: %w", err)
		}
	}

	prediction := Prediction{Label: label, Probability: probability}
	if s.cache != nil {
		s.cache.Add(key, prediction)
	}
	return prediction, nil
}

// PredictBatch applies PredictOne to each record independently, in input
// order. Any record error aborts the whole batch.
func (s *PredictionService) PredictBatch(records []map[string]float64, modelType string) (BatchResult, error) {
	result := BatchResult{
		Labels:        make([]int, 0, len(records)),
		Probabilities: make([]float64, 0, len(records)),
	}
	for i, features := range records {
		prediction, err := s.PredictOne(features, modelType)
		if err != nil {
			return BatchResult{}, fmt.Errorf("record %d: %w", i, err)
		}
		result.Labels = append(result.Labels, prediction.Label)
		result.Probabilities = append(result.Probabilities, prediction.Probability)
		if prediction.Label == 1 {
			result.AttackCount++
		} else {
			result.NormalCount++
		}
	}
	result.TotalCount = len(result.Labels)
	return result, nil
}

// Confidence buckets a probability into a coarse label. The thresholds
// are deliberately asymmetric; they mirror the trained contract.
func Confidence(probability float64) string {
	switch {
	case probability > 0.8 || probability < 0.2:
		return ConfidenceHigh
	case probability > 0.6 || probability < 0.4:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

func cacheKey(registry *Registry, modelType string, vector []float64) string {
	var b strings.Builder
	b.WriteString(modelType)
	b.WriteByte('|')
	b.WriteString(strconv.FormatInt(registry.LoadedAt().UnixNano(), 10))
	for _, value := range vector {
		b.WriteByte('|')
		b.WriteString(strconv.FormatUint(math.Float64bits(value), 16))
	}
	return b.String()
}

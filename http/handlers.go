package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"flowguard/db"
	"flowguard/ml"
)

// API holds the handler dependencies. The registry provider and the
// prediction service are injected; handlers keep no package state.
type API struct {
	service  *ml.PredictionService
	provider ml.RegistryProvider
	hub      *Hub
	logger   *zap.Logger
}

func NewAPI(service *ml.PredictionService, provider ml.RegistryProvider, hub *Hub, logger *zap.Logger) *API {
	return &API{
		service:  service,
		provider: provider,
		hub:      hub,
		logger:   logger,
	}
}

func (a *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", a.handleHealth)
	mux.HandleFunc("POST /api/predict", a.handlePredict)
	mux.HandleFunc("POST /api/predict/batch", a.handlePredictBatch)
	mux.HandleFunc("GET /api/models/info", a.handleModelInfo)
	mux.HandleFunc("GET /api/models/features", a.handleFeatures)
	mux.HandleFunc("GET /api/stats", a.handleStats)
	if a.hub != nil {
		mux.HandleFunc("GET /api/ws/predictions", a.hub.handleConnect)
	}
}

type PredictRequest struct {
	Features  map[string]float64 `json:"features"`
	ModelType string             `json:"model_type"`
}

type PredictResponse struct {
	Prediction  int     `json:"prediction"`
	Probability float64 `json:"probability"`
	ModelUsed   string  `json:"model_used"`
	Confidence  string  `json:"confidence"`
	Timestamp   string  `json:"timestamp"`
}

type BatchPredictRequest struct {
	Data      []map[string]float64 `json:"data"`
	ModelType string               `json:"model_type"`
}

type BatchPredictResponse struct {
	Predictions   []int     `json:"predictions"`
	Probabilities []float64 `json:"probabilities"`
	ModelUsed     string    `json:"model_used"`
	TotalCount    int       `json:"total_count"`
	AttackCount   int       `json:"attack_count"`
	NormalCount   int       `json:"normal_count"`
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	loaded := a.provider.Registry().Loaded()
	status := "healthy"
	if !loaded {
		status = "unhealthy"
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":        status,
		"models_loaded": loaded,
		"timestamp":     time.Now().Format(time.RFC3339),
	})
}

func (a *API) handlePredict(w http.ResponseWriter, r *http.Request) {
	var request PredictRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(request.Features) == 0 {
		respondError(w, http.StatusBadRequest, "features is required")
		return
	}
	if request.ModelType == "" {
		request.ModelType = ml.ModelTypeKNN
	}

	prediction, err := a.service.PredictOne(request.Features, request.ModelType)
	if err != nil {
		a.respondPredictionError(w, err)
		return
	}

	confidence := ml.Confidence(prediction.Probability)
	a.recordPrediction(request.ModelType, prediction, confidence)

	respondJSON(w, http.StatusOK, PredictResponse{
		Prediction:  prediction.Label,
		Probability: prediction.Probability,
		ModelUsed:   request.ModelType,
		Confidence:  confidence,
		Timestamp:   time.Now().Format(time.RFC3339),
	})
}

func (a *API) handlePredictBatch(w http.ResponseWriter, r *http.Request) {
	var request BatchPredictRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(request.Data) == 0 {
		respondError(w, http.StatusBadRequest, "data is required")
		return
	}
	if request.ModelType == "" {
		request.ModelType = ml.ModelTypeKNN
	}

	result, err := a.service.PredictBatch(request.Data, request.ModelType)
	if err != nil {
		a.respondPredictionError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, BatchPredictResponse{
		Predictions:   result.Labels,
		Probabilities: result.Probabilities,
		ModelUsed:     request.ModelType,
		TotalCount:    result.TotalCount,
		AttackCount:   result.AttackCount,
		NormalCount:   result.NormalCount,
	})
}

func (a *API) handleModelInfo(w http.ResponseWriter, r *http.Request) {
	registry := a.provider.Registry()
	if !registry.Loaded() {
		respondError(w, http.StatusServiceUnavailable, "models not loaded")
		return
	}

	metadata := registry.Metadata()
	names := registry.Contract().Names()
	info := map[string]interface{}{
		ml.ModelTypeLogisticRegression: map[string]interface{}{
			"model_type":    ml.ModelTypeLogisticRegression,
			"accuracy":      metadata.LogisticRegression.Accuracy,
			"precision":     metadata.LogisticRegression.Precision,
			"recall":        metadata.LogisticRegression.Recall,
			"f1_score":      metadata.LogisticRegression.F1Score,
			"num_features":  len(names),
			"feature_names": names,
		},
		ml.ModelTypeKNN: map[string]interface{}{
			"model_type":    ml.ModelTypeKNN,
			"accuracy":      metadata.KNN.Accuracy,
			"precision":     metadata.KNN.Precision,
			"recall":        metadata.KNN.Recall,
			"f1_score":      metadata.KNN.F1Score,
			"num_features":  len(names),
			"feature_names": names,
			"k":             metadata.KNN.K,
		},
	}
	respondJSON(w, http.StatusOK, info)
}

func (a *API) handleFeatures(w http.ResponseWriter, r *http.Request) {
	registry := a.provider.Registry()
	if !registry.Loaded() {
		respondError(w, http.StatusServiceUnavailable, "models not loaded")
		return
	}

	names := registry.Contract().Names()
	example := make(map[string]float64)
	for i, name := range names {
		if i >= 10 {
			break
		}
		example[name] = 0.0
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"feature_names": names,
		"num_features":  len(names),
		"example":       example,
	})
}

func (a *API) handleStats(w http.ResponseWriter, r *http.Request) {
	registry := a.provider.Registry()
	if !registry.Loaded() {
		respondError(w, http.StatusServiceUnavailable, "models not loaded")
		return
	}

	stats := map[string]interface{}{
		"metadata":     registry.Document(),
		"num_features": registry.Contract().Len(),
		"models_loaded": map[string]bool{
			ml.ModelTypeLogisticRegression: true,
			ml.ModelTypeKNN:                true,
			"scaler":                       true,
		},
	}
	if db.Ready() {
		if served, err := db.LoadPredictionStats(); err == nil {
			stats["predictions_served"] = served
		} else {
			a.logger.Warn("failed to load prediction stats", zap.Error(err))
		}
		if recent, err := db.QueryRecentPredictions(20); err == nil {
			stats["recent_predictions"] = recent
		}
	}
	respondJSON(w, http.StatusOK, stats)
}

// recordPrediction persists and broadcasts a served prediction. Both are
// best effort; the response does not depend on either.
func (a *API) recordPrediction(modelType string, prediction ml.Prediction, confidence string) {
	if db.Ready() {
		record := db.PredictionRecord{
			ModelType:   modelType,
			Label:       prediction.Label,
			Probability: prediction.Probability,
			Confidence:  confidence,
		}
		if err := db.SavePrediction(record); err != nil {
			a.logger.Warn("failed to save prediction", zap.Error(err))
		}
	}
	if a.hub != nil {
		a.hub.BroadcastPrediction(PredictionEvent{
			ModelType:   modelType,
			Prediction:  prediction.Label,
			Probability: prediction.Probability,
			Confidence:  confidence,
			Timestamp:   time.Now().UTC(),
		})
	}
}

// respondPredictionError maps validation failures to 400 with enough
// detail to self-correct; anything else stays a generic 500.
func (a *API) respondPredictionError(w http.ResponseWriter, err error) {
	var missing *ml.MissingFeatureError
	var invalid *ml.InvalidValueError
	var unknown *ml.UnknownModelError
	switch {
	case errors.As(err, &missing), errors.As(err, &invalid), errors.As(err, &unknown):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		a.logger.Error("prediction failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "prediction error")
	}
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]interface{}{
		"error":       message,
		"status_code": status,
	})
}

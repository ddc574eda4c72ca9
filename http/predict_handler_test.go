package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHandlePredict(t *testing.T) {
	mux := newTestMux(t, 1, 0.95)

	body := `{"features":{"duration":100.0,"fwd_packets":3.0},"model_type":"knn"}`
	req := httptest.NewRequest(http.MethodPost, "/api/predict", strings.NewReader(body))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var payload PredictResponse
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if payload.Prediction != 1 {
		t.Fatalf("expected prediction 1, got %d", payload.Prediction)
	}
	if payload.Probability != 0.95 {
		t.Fatalf("expected probability 0.95, got %v", payload.Probability)
	}
	if payload.Confidence != "High" {
		t.Fatalf("expected High confidence, got %s", payload.Confidence)
	}
	if payload.ModelUsed != "knn" {
		t.Fatalf("expected model_used knn, got %s", payload.ModelUsed)
	}
}

func TestHandlePredictDefaultsToKNN(t *testing.T) {
	mux := newTestMux(t, 0, 0.1)

	body := `{"features":{"duration":1.0,"fwd_packets":2.0}}`
	req := httptest.NewRequest(http.MethodPost, "/api/predict", strings.NewReader(body))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var payload PredictResponse
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if payload.ModelUsed != "knn" {
		t.Fatalf("expected default model knn, got %s", payload.ModelUsed)
	}
}

func TestHandlePredictMissingFeature(t *testing.T) {
	mux := newTestMux(t, 1, 0.95)

	body := `{"features":{"duration":100.0},"model_type":"knn"}`
	req := httptest.NewRequest(http.MethodPost, "/api/predict", strings.NewReader(body))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "fwd_packets") {
		t.Fatalf("expected missing feature name in response: %s", w.Body.String())
	}
}

func TestHandlePredictUnknownModel(t *testing.T) {
	mux := newTestMux(t, 1, 0.95)

	body := `{"features":{"duration":100.0,"fwd_packets":3.0},"model_type":"random_forest"}`
	req := httptest.NewRequest(http.MethodPost, "/api/predict", strings.NewReader(body))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "unknown model type") {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestHandlePredictInvalidBody(t *testing.T) {
	mux := newTestMux(t, 1, 0.95)

	req := httptest.NewRequest(http.MethodPost, "/api/predict", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestHandlePredictBatch(t *testing.T) {
	mux := newTestMux(t, 1, 0.9)

	body := `{"data":[{"duration":1,"fwd_packets":2},{"duration":3,"fwd_packets":4}],"model_type":"logistic_regression"}`
	req := httptest.NewRequest(http.MethodPost, "/api/predict/batch", strings.NewReader(body))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var payload BatchPredictResponse
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if payload.TotalCount != 2 || payload.AttackCount != 2 || payload.NormalCount != 0 {
		t.Fatalf("unexpected counts: %+v", payload)
	}
	if len(payload.Predictions) != 2 || len(payload.Probabilities) != 2 {
		t.Fatalf("unexpected result lengths: %+v", payload)
	}
	if payload.ModelUsed != "logistic_regression" {
		t.Fatalf("unexpected model_used: %s", payload.ModelUsed)
	}
}

func TestHandlePredictBatchAbortsOnBadRecord(t *testing.T) {
	mux := newTestMux(t, 1, 0.9)

	body := `{"data":[{"duration":1,"fwd_packets":2},{"duration":3}],"model_type":"knn"}`
	req := httptest.NewRequest(http.MethodPost, "/api/predict/batch", strings.NewReader(body))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "fwd_packets") {
		t.Fatalf("expected offending feature in response: %s", w.Body.String())
	}
}

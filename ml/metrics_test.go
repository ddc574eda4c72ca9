package ml

import (
	"math"
	"testing"
)

// thresholdClassifier predicts 1 when the first feature exceeds 0.5.
type thresholdClassifier struct{}

func (thresholdClassifier) Predict(vector []float64) (int, error) {
	if vector[0] > 0.5 {
		return 1, nil
	}
	return 0, nil
}

func TestEvaluate(t *testing.T) {
	// predictions: 1 1 0 0 1 against labels 1 1 1 0 0
	features := [][]float64{{1}, {1}, {0}, {0}, {1}}
	labels := []int{1, 1, 1, 0, 0}

	metrics, err := Evaluate(thresholdClassifier{}, features, labels)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(metrics.Accuracy-0.6) > 1e-9 {
		t.Fatalf("expected accuracy 0.6, got %v", metrics.Accuracy)
	}
	if math.Abs(metrics.Precision-2.0/3.0) > 1e-9 {
		t.Fatalf("expected precision 2/3, got %v", metrics.Precision)
	}
	if math.Abs(metrics.Recall-2.0/3.0) > 1e-9 {
		t.Fatalf("expected recall 2/3, got %v", metrics.Recall)
	}
	if math.Abs(metrics.F1-2.0/3.0) > 1e-9 {
		t.Fatalf("expected f1 2/3, got %v", metrics.F1)
	}
}

func TestEvaluateZeroDivision(t *testing.T) {
	// classifier never predicts positive, all labels negative
	features := [][]float64{{0}, {0}}
	labels := []int{0, 0}
	metrics, err := Evaluate(thresholdClassifier{}, features, labels)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if metrics.Accuracy != 1 || metrics.Precision != 0 || metrics.Recall != 0 || metrics.F1 != 0 {
		t.Fatalf("unexpected metrics: %+v", metrics)
	}
}

func TestStratifiedSplit(t *testing.T) {
	var features [][]float64
	var labels []int
	for i := 0; i < 20; i++ {
		features = append(features, []float64{float64(i)})
		labels = append(labels, 0)
	}
	for i := 0; i < 10; i++ {
		features = append(features, []float64{float64(100 + i)})
		labels = append(labels, 1)
	}

	trainX, trainY, testX, testY := StratifiedSplit(features, labels, 0.2, 42)
	if len(trainX) != 24 || len(testX) != 6 {
		t.Fatalf("unexpected split sizes: train=%d test=%d", len(trainX), len(testX))
	}
	if len(trainX) != len(trainY) || len(testX) != len(testY) {
		t.Fatal("features and labels out of sync")
	}

	testAttacks := 0
	for _, label := range testY {
		if label == 1 {
			testAttacks++
		}
	}
	if testAttacks != 2 {
		t.Fatalf("expected 2 attacks in test split, got %d", testAttacks)
	}

	// same seed, same split
	againX, _, _, _ := StratifiedSplit(features, labels, 0.2, 42)
	for i := range trainX {
		if trainX[i][0] != againX[i][0] {
			t.Fatal("expected deterministic split for fixed seed")
		}
	}
}

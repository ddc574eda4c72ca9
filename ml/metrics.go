package ml

import (
	"errors"
	"math/rand"
)

type EvalMetrics struct {
	Accuracy  float64
	Precision float64
	Recall    float64
	F1        float64
}

// Evaluate scores a fitted classifier on a labeled test set. Precision,
// recall and F1 treat label 1 as the positive class and report 0 when
// their denominator is zero.
func Evaluate(model Classifier, features [][]float64, labels []int) (EvalMetrics, error) {
	if len(features) == 0 {
		return EvalMetrics{}, errors.New("features is empty")
	}
	if len(features) != len(labels) {
		return EvalMetrics{}, errors.New("features and labels size mismatch")
	}

	var correct, truePositive, predictedPositive, actualPositive int
	for i, vector := range features {
		label, err := model.Predict(vector)
		if err != nil {
			return EvalMetrics{}, err
		}
		if label == labels[i] {
			correct++
		}
		if label == 1 {
			predictedPositive++
		}
		if labels[i] == 1 {
			actualPositive++
			if label == 1 {
				truePositive++
			}
		}
	}

	metrics := EvalMetrics{
		Accuracy: float64(correct) / float64(len(features)),
	}
	if predictedPositive > 0 {
		metrics.Precision = float64(truePositive) / float64(predictedPositive)
	}
	if actualPositive > 0 {
		metrics.Recall = float64(truePositive) / float64(actualPositive)
	}
	if metrics.Precision+metrics.Recall > 0 {
		metrics.F1 = 2 * metrics.Precision * metrics.Recall / (metrics.Precision + metrics.Recall)
	}
	return metrics, nil
}

// StratifiedSplit shuffles and splits per label so train and test keep
// the class balance. The same seed always produces the same split.
func StratifiedSplit(features [][]float64, labels []int, testRatio float64, seed int64) (trainX [][]float64, trainY []int, testX [][]float64, testY []int) {
	if testRatio <= 0 || testRatio >= 1 {
		testRatio = 0.2
	}

	byLabel := make(map[int][]int)
	for i, label := range labels {
		byLabel[label] = append(byLabel[label], i)
	}

	rnd := rand.New(rand.NewSource(seed))
	for _, label := range []int{0, 1} {
		indices := byLabel[label]
		rnd.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
		split := len(indices) - int(float64(len(indices))*testRatio)
		for i, idx := range indices {
			if i < split {
				trainX = append(trainX, features[idx])
				trainY = append(trainY, labels[idx])
			} else {
				testX = append(testX, features[idx])
				testY = append(testY, labels[idx])
			}
		}
	}
	return trainX, trainY, testX, testY
}

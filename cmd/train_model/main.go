package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"flowguard/ml"
)

func main() {
	dataPath := flag.String("data", "", "labeled dataset CSV")
	outDir := flag.String("out", "./outputs/models", "artifact output directory")
	epochs := flag.Int("epochs", 300, "logistic regression epochs")
	learningRate := flag.Float64("lr", 0.1, "logistic regression learning rate")
	testRatio := flag.Float64("test_ratio", 0.2, "test split ratio")
	seed := flag.Int64("seed", 42, "split shuffle seed")
	flag.Parse()

	if *dataPath == "" {
		log.Fatal("data is required")
	}

	dataset, err := ml.LoadDataset(*dataPath)
	if err != nil {
		log.Fatalf("failed to load dataset: %v", err)
	}
	log.Printf("dataset loaded: %d rows, %d features", len(dataset.Features), len(dataset.FeatureNames))

	trainX, trainY, testX, testY := ml.StratifiedSplit(dataset.Features, dataset.Labels, *testRatio, *seed)
	log.Printf("split: %d train, %d test", len(trainX), len(testX))

	scaler := &ml.StandardScaler{}
	if err := scaler.Fit(trainX); err != nil {
		log.Fatalf("failed to fit scaler: %v", err)
	}
	trainScaled, err := scaler.TransformAll(trainX)
	if err != nil {
		log.Fatalf("failed to scale training set: %v", err)
	}
	testScaled, err := scaler.TransformAll(testX)
	if err != nil {
		log.Fatalf("failed to scale test set: %v", err)
	}

	logreg, logregMetrics, logregTime, err := trainLogistic(trainScaled, trainY, testScaled, testY, *epochs, *learningRate)
	if err != nil {
		log.Fatalf("failed to train logistic regression: %v", err)
	}
	log.Printf("logistic_regression: accuracy=%.4f precision=%.4f recall=%.4f f1=%.4f (%.2fs)",
		logregMetrics.Accuracy, logregMetrics.Precision, logregMetrics.Recall, logregMetrics.F1, logregTime.Seconds())

	knn, knnMetrics, knnTime, err := trainBestKNN(trainScaled, trainY, testScaled, testY)
	if err != nil {
		log.Fatalf("failed to train knn: %v", err)
	}
	log.Printf("knn: best k=%d accuracy=%.4f precision=%.4f recall=%.4f f1=%.4f (%.2fs)",
		knn.K, knnMetrics.Accuracy, knnMetrics.Precision, knnMetrics.Recall, knnMetrics.F1, knnTime.Seconds())

	if err := saveArtifacts(*outDir, scaler, logreg, knn, dataset, len(trainX),
		logregMetrics, logregTime, knnMetrics, knnTime); err != nil {
		log.Fatalf("failed to save artifacts: %v", err)
	}
	fmt.Printf("artifacts saved to %s\n", *outDir)
}

func trainLogistic(trainX [][]float64, trainY []int, testX [][]float64, testY []int, epochs int, learningRate float64) (*ml.LogisticRegression, ml.EvalMetrics, time.Duration, error) {
	start := time.Now()
	model := &ml.LogisticRegression{}
	config := ml.LogisticConfig{Epochs: epochs, LearningRate: learningRate}
	if err := model.Train(trainX, trainY, config); err != nil {
		return nil, ml.EvalMetrics{}, 0, err
	}
	elapsed := time.Since(start)

	metrics, err := ml.Evaluate(model, testX, testY)
	if err != nil {
		return nil, ml.EvalMetrics{}, 0, err
	}
	return model, metrics, elapsed, nil
}

// trainBestKNN tries k in {3, 5, 7} and keeps the best by F1 on the test
// split.
func trainBestKNN(trainX [][]float64, trainY []int, testX [][]float64, testY []int) (*ml.KNNClassifier, ml.EvalMetrics, time.Duration, error) {
	start := time.Now()
	var best *ml.KNNClassifier
	var bestMetrics ml.EvalMetrics

	for _, k := range []int{3, 5, 7} {
		model := &ml.KNNClassifier{K: k}
		if err := model.Train(trainX, trainY); err != nil {
			return nil, ml.EvalMetrics{}, 0, err
		}
		metrics, err := ml.Evaluate(model, testX, testY)
		if err != nil {
			return nil, ml.EvalMetrics{}, 0, err
		}
		log.Printf("knn k=%d: accuracy=%.4f precision=%.4f recall=%.4f f1=%.4f",
			k, metrics.Accuracy, metrics.Precision, metrics.Recall, metrics.F1)
		if best == nil || metrics.F1 > bestMetrics.F1 {
			best = model
			bestMetrics = metrics
		}
	}
	return best, bestMetrics, time.Since(start), nil
}

func saveArtifacts(dir string, scaler *ml.StandardScaler, logreg *ml.LogisticRegression, knn *ml.KNNClassifier,
	dataset *ml.Dataset, trainingSamples int,
	logregMetrics ml.EvalMetrics, logregTime time.Duration,
	knnMetrics ml.EvalMetrics, knnTime time.Duration) error {

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := scaler.Save(filepath.Join(dir, ml.ArtifactScaler+".json")); err != nil {
		return err
	}
	if err := logreg.Save(filepath.Join(dir, ml.ArtifactLogisticRegression+".json")); err != nil {
		return err
	}
	if err := knn.Save(filepath.Join(dir, ml.ArtifactKNN+".json")); err != nil {
		return err
	}

	metadata := ml.ModelMetadata{
		FeatureNames:    dataset.FeatureNames,
		NumFeatures:     len(dataset.FeatureNames),
		BestKNNK:        knn.K,
		TrainingSamples: trainingSamples,
		TrainedAt:       time.Now().UTC().Format(time.RFC3339),
		LogisticRegression: ml.ModelMetrics{
			Accuracy:            logregMetrics.Accuracy,
			Precision:           logregMetrics.Precision,
			Recall:              logregMetrics.Recall,
			F1Score:             logregMetrics.F1,
			TrainingTimeSeconds: logregTime.Seconds(),
		},
		KNN: ml.ModelMetrics{
			K:                   knn.K,
			Accuracy:            knnMetrics.Accuracy,
			Precision:           knnMetrics.Precision,
			Recall:              knnMetrics.Recall,
			F1Score:             knnMetrics.F1,
			TrainingTimeSeconds: knnTime.Seconds(),
		},
	}
	payload, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, ml.ArtifactMetadata+".json"), payload, 0o600)
}

package ml

// Classifier is a fitted binary model over scaled feature vectors.
// Labels: 0 = normal traffic, 1 = attack.
type Classifier interface {
	Predict(vector []float64) (int, error)
}

// ProbabilityEstimator reports the probability of the attack class.
// Classifiers that do not implement it fall back to a fixed 0.5 in the
// prediction service regardless of the predicted label.
type ProbabilityEstimator interface {
	PredictProba(vector []float64) (float64, error)
}

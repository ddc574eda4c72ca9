package ml

import (
	"fmt"
	"strings"
)

const (
	ModelTypeKNN                = "knn"
	ModelTypeLogisticRegression = "logistic_regression"
)

// MissingFeatureError reports every contract feature absent from the input.
type MissingFeatureError struct {
	Names []string
}

func (e *MissingFeatureError) Error() string {
	return "missing required features: " + strings.Join(e.Names, ", ")
}

// InvalidValueError reports a feature whose value is NaN or infinite.
type InvalidValueError struct {
	Name  string
	Value float64
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("feature %q has invalid value: %v", e.Name, e.Value)
}

type UnknownModelError struct {
	ModelType string
}

func (e *UnknownModelError) Error() string {
	return fmt.Sprintf("unknown model type %q (expected %q or %q)",
		e.ModelType, ModelTypeKNN, ModelTypeLogisticRegression)
}

// ArtifactMissingError means a required model artifact is absent.
// The registry refuses to load partially; this is fatal at startup.
type ArtifactMissingError struct {
	Which string
	Path  string
}

func (e *ArtifactMissingError) Error() string {
	return fmt.Sprintf("model artifact %q not found at %s", e.Which, e.Path)
}

package ml

import "math"

// FeatureContract is the ordered feature list a fitted model expects.
// The order is fixed at training time; the scaler and classifiers were
// fit against vectors produced in exactly this order.
type FeatureContract struct {
	names []string
}

func NewFeatureContract(names []string) *FeatureContract {
	copied := make([]string, len(names))
	copy(copied, names)
	return &FeatureContract{names: copied}
}

func (c *FeatureContract) Names() []string {
	copied := make([]string, len(c.names))
	copy(copied, c.names)
	return copied
}

func (c *FeatureContract) Len() int {
	return len(c.names)
}

// Validate checks that every contract feature is present with a finite
// value. All missing names are reported at once. Extra keys are ignored.
func (c *FeatureContract) Validate(features map[string]float64) error {
	var missing []string
	for _, name := range c.names {
		if _, ok := features[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return &MissingFeatureError{Names: missing}
	}
	for _, name := range c.names {
		value := features[name]
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return &InvalidValueError{Name: name, Value: value}
		}
	}
	return nil
}

// Order returns the values in contract order. Call only after Validate
// succeeds. Any NaN or infinity that slips through is clamped to 0.
func (c *FeatureContract) Order(features map[string]float64) []float64 {
	vector := make([]float64, len(c.names))
	for i, name := range c.names {
		value := features[name]
		if math.IsNaN(value) || math.IsInf(value, 0) {
			value = 0
		}
		vector[i] = value
	}
	return vector
}

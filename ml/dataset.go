package ml

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
)

const targetColumn = "is_attack"

// columns dropped from the feature set when present in the dataset
var droppedColumns = map[string]bool{
	"attack_type": true,
	"label":       true,
}

// Dataset is a labeled training set read from CSV: feature columns plus
// an is_attack binary target. The feature-name order is the column order
// and becomes the feature contract of the trained models.
type Dataset struct {
	FeatureNames []string
	Features     [][]float64
	Labels       []int
}

func LoadDataset(path string) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	targetIdx := -1
	featureIdx := make([]int, 0, len(header))
	featureNames := make([]string, 0, len(header))
	for i, column := range header {
		switch {
		case column == targetColumn:
			targetIdx = i
		case droppedColumns[column]:
		default:
			featureIdx = append(featureIdx, i)
			featureNames = append(featureNames, column)
		}
	}
	if targetIdx < 0 {
		return nil, fmt.Errorf("dataset has no %q column", targetColumn)
	}
	if len(featureNames) == 0 {
		return nil, errors.New("dataset has no feature columns")
	}

	dataset := &Dataset{FeatureNames: featureNames}
	row := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", row+1, err)
		}
		row++
		vector := make([]float64, len(featureIdx))
		for j, idx := range featureIdx {
			value, err := strconv.ParseFloat(record[idx], 64)
			if err != nil {
				return nil, fmt.Errorf("row %d, column %q: %w", row, header[idx], err)
			}
			vector[j] = value
		}
		target, err := strconv.ParseFloat(record[targetIdx], 64)
		if err != nil {
			return nil, fmt.Errorf("row %d, column %q: %w", row, targetColumn, err)
		}
		label := 0
		if target >= 0.5 {
			label = 1
		}
		dataset.Features = append(dataset.Features, vector)
		dataset.Labels = append(dataset.Labels, label)
	}
	if len(dataset.Features) == 0 {
		return nil, errors.New("dataset has no rows")
	}
	return dataset, nil
}

package db

import (
	"database/sql"
	"errors"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

var database *sql.DB

// InitDB opens the SQLite database and creates the prediction audit log.
func InitDB(path string) error {
	var err error
	database, err = sql.Open("sqlite3", path)
	if err != nil {
		return err
	}

	query := `
    CREATE TABLE IF NOT EXISTS predictions (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        model_type VARCHAR(30) NOT NULL,
        predicted_label INTEGER NOT NULL,
        probability REAL NOT NULL,
        confidence VARCHAR(10) NOT NULL,
        created_at DATETIME NOT NULL
    );
    CREATE INDEX IF NOT EXISTS idx_predictions_created_at
        ON predictions(created_at);
    `

	_, err = database.Exec(query)
	return err
}

func CloseDB() error {
	if database == nil {
		return nil
	}
	err := database.Close()
	database = nil
	return err
}

type PredictionRecord struct {
	ModelType   string    `json:"model_type"`
	Label       int       `json:"predicted_label"`
	Probability float64   `json:"probability"`
	Confidence  string    `json:"confidence"`
	CreatedAt   time.Time `json:"created_at"`
}

func SavePrediction(record PredictionRecord) error {
	if database == nil {
		return errors.New("database not initialized")
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	_, err := database.Exec(`
        INSERT INTO predictions (model_type, predicted_label, probability, confidence, created_at)
        VALUES (?, ?, ?, ?, ?)`,
		record.ModelType, record.Label, record.Probability, record.Confidence, record.CreatedAt)
	return err
}

func QueryRecentPredictions(limit int) ([]PredictionRecord, error) {
	if database == nil {
		return nil, errors.New("database not initialized")
	}
	rows, err := database.Query(`
        SELECT model_type, predicted_label, probability, confidence, created_at
        FROM predictions
        ORDER BY created_at DESC, id DESC
        LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]PredictionRecord, 0)
	for rows.Next() {
		var record PredictionRecord
		if err := rows.Scan(&record.ModelType, &record.Label, &record.Probability,
			&record.Confidence, &record.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

type PredictionStats struct {
	TotalCount  int            `json:"total_count"`
	AttackCount int            `json:"attack_count"`
	NormalCount int            `json:"normal_count"`
	ByModel     map[string]int `json:"by_model"`
}

// LoadPredictionStats aggregates the audit log for the stats endpoint.
func LoadPredictionStats() (PredictionStats, error) {
	stats := PredictionStats{ByModel: make(map[string]int)}
	if database == nil {
		return stats, errors.New("database not initialized")
	}

	rows, err := database.Query(`
        SELECT model_type, predicted_label, COUNT(*)
        FROM predictions
        GROUP BY model_type, predicted_label`)
	if err != nil {
		return stats, err
	}
	defer rows.Close()

	for rows.Next() {
		var modelType string
		var label, count int
		if err := rows.Scan(&modelType, &label, &count); err != nil {
			return stats, err
		}
		stats.TotalCount += count
		stats.ByModel[modelType] += count
		if label == 1 {
			stats.AttackCount += count
		} else {
			stats.NormalCount += count
		}
	}
	return stats, rows.Err()
}

// Ready reports whether InitDB has been called successfully.
func Ready() bool {
	return database != nil
}

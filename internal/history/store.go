package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Fatal777/invoisaic/internal/db"
	"github.com/Fatal777/invoisaic/internal/decision"
)

// Store is the append-only interface the engine writes decisions to and
// the analyzer reads precedents from.
type Store interface {
	// Append persists a learning record. The record is never updated or
	// deleted afterwards.
	Append(ctx context.Context, rec decision.LearningRecord) error

	// Query returns up to limit records for the category, most recent first.
	Query(ctx context.Context, category decision.Category, limit int) ([]decision.LearningRecord, error)
}

// SQLiteStore persists learning records in the invoisaic SQLite database.
type SQLiteStore struct {
	db *db.DB
}

// NewSQLiteStore creates a learning store backed by the given database.
func NewSQLiteStore(database *db.DB) *SQLiteStore {
	return &SQLiteStore{db: database}
}

func (s *SQLiteStore) Append(ctx context.Context, rec decision.LearningRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	payload, err := json.Marshal(rec.Payload)
	if err != nil {
		return fmt.Errorf("marshalling payload: %w", err)
	}
	riskFactors, err := json.Marshal(rec.RiskFactors)
	if err != nil {
		return fmt.Errorf("marshalling risk factors: %w", err)
	}

	review := 0
	if rec.ReviewRequired {
		review = 1
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO learning_records (id, category, payload, action, rationale, confidence, model_used, risk_factors, review_required, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		string(rec.Category),
		string(payload),
		rec.Action,
		rec.Rationale,
		rec.Confidence,
		rec.ModelUsed,
		string(riskFactors),
		review,
		rec.CreatedAt.UTC().Format(time.DateTime),
	)
	if err != nil {
		return fmt.Errorf("appending learning record: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Query(ctx context.Context, category decision.Category, limit int) ([]decision.LearningRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, category, payload, action, rationale, confidence, model_used, risk_factors, review_required, created_at
		FROM learning_records
		WHERE category = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`,
		string(category), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying learning records: %w", err)
	}
	defer rows.Close()

	var records []decision.LearningRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func scanRecord(rows *sql.Rows) (decision.LearningRecord, error) {
	var rec decision.LearningRecord
	var category, payload, riskFactors, createdAt string
	var review int

	err := rows.Scan(&rec.ID, &category, &payload, &rec.Action, &rec.Rationale,
		&rec.Confidence, &rec.ModelUsed, &riskFactors, &review, &createdAt)
	if err != nil {
		return rec, fmt.Errorf("scanning learning record: %w", err)
	}

	rec.Category = decision.Category(category)
	rec.ReviewRequired = review != 0

	if err := json.Unmarshal([]byte(payload), &rec.Payload); err != nil {
		rec.Payload = decision.Payload{}
	}
	if err := json.Unmarshal([]byte(riskFactors), &rec.RiskFactors); err != nil {
		rec.RiskFactors = nil
	}
	if t, err := time.Parse(time.DateTime, createdAt); err == nil {
		rec.CreatedAt = t
	}

	return rec, nil
}

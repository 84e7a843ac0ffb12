package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// AnalysisRecord is an archived pipeline run. ResultJSON holds the full
// serialized result so the archive stays schema-agnostic as the result
// shape evolves.
type AnalysisRecord struct {
	ID         string
	Title      string
	Document   string
	ResultJSON string
	AnalyzedAt time.Time
	CreatedAt  time.Time
}

// AnalysisSummary is the list view of an archived run, without the
// document and result payloads.
type AnalysisSummary struct {
	ID         string
	Title      string
	AnalyzedAt time.Time
}

// SaveAnalysis archives one analysis run. Saving the same ID twice
// replaces the previous row.
func (s *SQLiteStore) SaveAnalysis(ctx context.Context, rec *AnalysisRecord) error {
	if rec.ID == "" {
		return errors.New("analysis ID is required")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO analyses (id, title, document, result_json, analyzed_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			document = excluded.document,
			result_json = excluded.result_json,
			analyzed_at = excluded.analyzed_at`,
		rec.ID, rec.Title, rec.Document, rec.ResultJSON, rec.AnalyzedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving analysis %s: %w", rec.ID, err)
	}
	return nil
}

// GetAnalysis returns an archived run by ID, or nil if not found.
func (s *SQLiteStore) GetAnalysis(ctx context.Context, id string) (*AnalysisRecord, error) {
	var rec AnalysisRecord
	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, document, result_json, analyzed_at, created_at
		FROM analyses WHERE id = ?`, id,
	).Scan(&rec.ID, &rec.Title, &rec.Document, &rec.ResultJSON, &rec.AnalyzedAt, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting analysis %s: %w", id, err)
	}
	return &rec, nil
}

// ListAnalyses returns archived runs, newest first.
func (s *SQLiteStore) ListAnalyses(ctx context.Context, limit int) ([]*AnalysisSummary, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, analyzed_at FROM analyses
		ORDER BY analyzed_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing analyses: %w", err)
	}
	defer rows.Close()

	var out []*AnalysisSummary
	for rows.Next() {
		var a AnalysisSummary
		if err := rows.Scan(&a.ID, &a.Title, &a.AnalyzedAt); err != nil {
			return nil, fmt.Errorf("scanning analysis row: %w", err)
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

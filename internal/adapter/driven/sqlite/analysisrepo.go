package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/evalyhq/shoplens/internal/domain/model"
	"github.com/evalyhq/shoplens/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.AnalysisStore = (*AnalysisRepo)(nil)

// AnalysisRepo is the SQLite implementation of the AnalysisStore port interface.
type AnalysisRepo struct {
	db *DB
}

// NewAnalysisRepo creates a new AnalysisRepo backed by the given DB.
func NewAnalysisRepo(db *DB) *AnalysisRepo {
	return &AnalysisRepo{db: db}
}

const analysisColumns = `id, product_id, product_title, cost, price, profit,
	margin_percent, markup_percent, verdict, notes, created_at`

// Save inserts a new analysis.
func (r *AnalysisRepo) Save(ctx context.Context, a model.Analysis) error {
	const query = `INSERT INTO analyses (` + analysisColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := r.db.Writer.ExecContext(ctx, query,
		a.ID, a.ProductID, a.ProductTitle,
		a.Cost.String(), a.Price.String(), a.Profit.String(),
		a.MarginPercent.String(), a.MarkupPercent.String(),
		string(a.Verdict), a.Notes, createdAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save analysis %s: %w", a.ID, err)
	}

	return nil
}

// GetByID returns one analysis. Returns ErrAnalysisNotFound when absent.
func (r *AnalysisRepo) GetByID(ctx context.Context, id string) (*model.Analysis, error) {
	const query = `SELECT ` + analysisColumns + ` FROM analyses WHERE id = ?`

	a, err := scanAnalysis(r.db.Reader.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get analysis %s: %w", id, driven.ErrAnalysisNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get analysis %s: %w", id, err)
	}

	return a, nil
}

// ListAll returns all analyses, newest first.
func (r *AnalysisRepo) ListAll(ctx context.Context) ([]model.Analysis, error) {
	const query = `SELECT ` + analysisColumns + ` FROM analyses ORDER BY created_at DESC, id`

	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	defer rows.Close()

	analyses := []model.Analysis{}
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		analyses = append(analyses, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate analyses: %w", err)
	}

	return analyses, nil
}

// Delete removes an analysis. Returns ErrAnalysisNotFound when absent.
func (r *AnalysisRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.Writer.ExecContext(ctx, `DELETE FROM analyses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete analysis %s: %w", id, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("delete analysis %s: %w", id, driven.ErrAnalysisNotFound)
	}

	return nil
}

func scanAnalysis(s scanner) (*model.Analysis, error) {
	var (
		a            model.Analysis
		cost         string
		price        string
		profit       string
		margin       string
		markup       string
		verdict      string
		createdAtRaw string
	)

	err := s.Scan(&a.ID, &a.ProductID, &a.ProductTitle, &cost, &price, &profit,
		&margin, &markup, &verdict, &a.Notes, &createdAtRaw)
	if err != nil {
		return nil, err
	}

	for _, field := range []struct {
		dst *decimal.Decimal
		raw string
		col string
	}{
		{&a.Cost, cost, "cost"},
		{&a.Price, price, "price"},
		{&a.Profit, profit, "profit"},
		{&a.MarginPercent, margin, "margin_percent"},
		{&a.MarkupPercent, markup, "markup_percent"},
	} {
		d, err := decimal.NewFromString(field.raw)
		if err != nil {
			return nil, fmt.Errorf("parse %s for analysis %s: %w", field.col, a.ID, err)
		}
		*field.dst = d
	}

	a.Verdict = model.Verdict(verdict)

	a.CreatedAt, err = parseTime(createdAtRaw)
	if err != nil {
		return nil, fmt.Errorf("parse created_at for analysis %s: %w", a.ID, err)
	}

	return &a, nil
}

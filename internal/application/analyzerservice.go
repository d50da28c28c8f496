package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/evalyhq/shoplens/internal/domain/model"
	"github.com/evalyhq/shoplens/internal/domain/port/driven"
)

// Validation errors returned by Analyze.
var (
	ErrAnalysisTitleRequired = errors.New("product title is required")
	ErrAnalysisPriceInvalid  = errors.New("price must be greater than zero")
	ErrAnalysisCostInvalid   = errors.New("cost must not be negative")
)

// Margin thresholds (percent of sale price) for the verdict ladder.
var (
	marginGreenlight = decimal.NewFromInt(50)
	marginGo         = decimal.NewFromInt(20)
)

var hundred = decimal.NewFromInt(100)

// AnalyzeInput is the analyzer form submission. ProductID is optional; when
// set, missing title/price fields are prefilled from the cached product.
type AnalyzeInput struct {
	ProductID int64
	Title     string
	Cost      decimal.Decimal
	Price     decimal.Decimal
	Notes     string
}

// AnalyzerService computes and persists cost/price evaluations.
type AnalyzerService struct {
	analysisStore driven.AnalysisStore
	productStore  driven.ProductStore
}

// NewAnalyzerService creates an AnalyzerService.
func NewAnalyzerService(analysisStore driven.AnalysisStore, productStore driven.ProductStore) *AnalyzerService {
	return &AnalyzerService{
		analysisStore: analysisStore,
		productStore:  productStore,
	}
}

// Analyze computes profit, margin, markup, and the verdict for the given
// input, persists the result, and returns it.
func (s *AnalyzerService) Analyze(ctx context.Context, input AnalyzeInput) (*model.Analysis, error) {
	if input.ProductID != 0 {
		product, err := s.productStore.GetByID(ctx, input.ProductID)
		if err != nil {
			return nil, fmt.Errorf("prefill from product %d: %w", input.ProductID, err)
		}
		if product != nil {
			if strings.TrimSpace(input.Title) == "" {
				input.Title = product.Title
			}
			if input.Price.IsZero() {
				input.Price = product.Price
			}
		}
	}

	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		return nil, ErrAnalysisTitleRequired
	}
	if !input.Price.IsPositive() {
		return nil, ErrAnalysisPriceInvalid
	}
	if input.Cost.IsNegative() {
		return nil, ErrAnalysisCostInvalid
	}

	profit := input.Price.Sub(input.Cost)
	margin := profit.Div(input.Price).Mul(hundred).Round(2)

	// Markup is undefined for zero cost; report zero instead of dividing.
	markup := decimal.Zero
	if input.Cost.IsPositive() {
		markup = profit.Div(input.Cost).Mul(hundred).Round(2)
	}

	analysis := model.Analysis{
		ID:            uuid.NewString(),
		ProductID:     input.ProductID,
		ProductTitle:  input.Title,
		Cost:          input.Cost,
		Price:         input.Price,
		Profit:        profit,
		MarginPercent: margin,
		MarkupPercent: markup,
		Verdict:       verdictFor(margin),
		Notes:         input.Notes,
		CreatedAt:     time.Now().UTC(),
	}

	if err := s.analysisStore.Save(ctx, analysis); err != nil {
		return nil, fmt.Errorf("save analysis: %w", err)
	}

	return &analysis, nil
}

// Get returns one analysis by ID.
func (s *AnalyzerService) Get(ctx context.Context, id string) (*model.Analysis, error) {
	return s.analysisStore.GetByID(ctx, id)
}

// List returns all analyses, newest first.
func (s *AnalyzerService) List(ctx context.Context) ([]model.Analysis, error) {
	return s.analysisStore.ListAll(ctx)
}

// Delete removes an analysis by ID.
func (s *AnalyzerService) Delete(ctx context.Context, id string) error {
	return s.analysisStore.Delete(ctx, id)
}

// verdictFor maps a gross margin percentage onto the verdict ladder:
// at or below zero kills the product, under 20% needs a fix, under 50% is a
// go, and 50%+ is a greenlight.
func verdictFor(margin decimal.Decimal) model.Verdict {
	switch {
	case margin.LessThanOrEqual(decimal.Zero):
		return model.VerdictKill
	case margin.LessThan(marginGo):
		return model.VerdictFix
	case margin.LessThan(marginGreenlight):
		return model.VerdictGo
	default:
		return model.VerdictGreenlight
	}
}

package driven

import (
	"context"
	"errors"

	"github.com/evalyhq/shoplens/internal/domain/model"
)

// ErrAnalysisNotFound indicates the requested analysis does not exist.
var ErrAnalysisNotFound = errors.New("analysis not found")

// AnalysisStore defines the driven port for persisted product analyses.
type AnalysisStore interface {
	// Save inserts a new analysis.
	Save(ctx context.Context, analysis model.Analysis) error

	// GetByID returns one analysis. Returns ErrAnalysisNotFound when absent.
	GetByID(ctx context.Context, id string) (*model.Analysis, error)

	// ListAll returns all analyses, newest first.
	ListAll(ctx context.Context) ([]model.Analysis, error)

	// Delete removes an analysis. Returns ErrAnalysisNotFound when absent.
	Delete(ctx context.Context, id string) error
}

package contract

import (
	"context"

	"metrocare-be/internal/entity"
	"metrocare-be/internal/repository/specification"

	"github.com/google/uuid"
)

// ScoredReportVector wraps a population member with its pgvector similarity score.
type ScoredReportVector struct {
	Vector     *entity.ReportVector
	Similarity float64
}

type ReportRepository interface {
	Create(ctx context.Context, report *entity.Report) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Report, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Report, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// FindVectors loads the similarity population: every report with a non-null embedding.
	FindVectors(ctx context.Context, specs ...specification.Specification) ([]*entity.ReportVector, error)
	// SearchNearest uses the pgvector cosine operator to pre-select the closest
	// vectors of the same dimensionality, nearest first.
	SearchNearest(ctx context.Context, query []float32, limit int) ([]*ScoredReportVector, error)
	SetEmbedding(ctx context.Context, id uuid.UUID, embedding []float32) error

	// LockForUpdate reads the row with SELECT ... FOR UPDATE. Only meaningful inside a transaction.
	LockForUpdate(ctx context.Context, id uuid.UUID) (*entity.Report, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status entity.ReportStatus, duplicateOf *uuid.UUID) error
	AdjustUpvotes(ctx context.Context, id uuid.UUID, delta int) error
}

// Package dedup surfaces likely duplicates of a report before it is stored.
//
// The gate embeds the first submitted image, loads the population of stored
// report vectors and ranks it. Every failure along that path degrades to
// "no candidates": duplicate review never blocks a submission.
package dedup

import (
	"context"
	"errors"
	"time"

	"metrocare-be/internal/pkg/logger"
	"metrocare-be/pkg/embedding"
	"metrocare-be/pkg/similarity"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const module = "DedupGate"

// PopulationSource loads the stored vectors a query is compared against.
// The query is passed so that indexed sources can pre-select near neighbours.
type PopulationSource interface {
	Population(ctx context.Context, query []float32) ([]similarity.Member, error)
}

type Config struct {
	Threshold         float64
	Limit             int
	EmbedTimeout      time.Duration
	PopulationTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		Threshold:         0.7,
		Limit:             3,
		EmbedTimeout:      10 * time.Second,
		PopulationTimeout: 5 * time.Second,
	}
}

// EvaluationResult is what the submitter is shown. Vector is nil when the
// first image could not be embedded.
type EvaluationResult struct {
	Vector     []float32
	Candidates []similarity.Candidate
}

func (r EvaluationResult) CandidateIds() []uuid.UUID {
	ids := make([]uuid.UUID, len(r.Candidates))
	for i, c := range r.Candidates {
		ids[i] = c.ReportId
	}
	return ids
}

type Gate struct {
	provider embedding.EmbeddingProvider
	ranker   similarity.Ranker
	logger   logger.ILogger
	cfg      Config
	tracer   trace.Tracer
}

func NewGate(provider embedding.EmbeddingProvider, ranker similarity.Ranker, log logger.ILogger, cfg Config) *Gate {
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultConfig().Limit
	}
	return &Gate{
		provider: provider,
		ranker:   ranker,
		logger:   log,
		cfg:      cfg,
		tracer:   otel.Tracer("metrocare-be/pkg/dedup"),
	}
}

// Evaluate embeds images[0] and ranks the population against it using the
// gate threshold and limit. It never returns an error.
func (g *Gate) Evaluate(ctx context.Context, images []string, source PopulationSource) EvaluationResult {
	ctx, span := g.tracer.Start(ctx, "dedup.Evaluate", trace.WithAttributes(attribute.Int("images", len(images))))
	defer span.End()

	result := EvaluationResult{Candidates: []similarity.Candidate{}}

	vector := g.Embed(ctx, images)
	if vector == nil {
		return result
	}
	result.Vector = vector

	ranked, err := g.Search(ctx, vector, source, g.cfg.Threshold, g.cfg.Limit)
	if err != nil {
		span.RecordError(err)
		g.logger.Warn(module, "Duplicate scan skipped", map[string]interface{}{"error": err.Error()})
		return result
	}

	result.Candidates = ranked.Candidates
	span.SetAttributes(attribute.Int("candidates", len(result.Candidates)))
	return result
}

// Embed returns the vector of the first image, or nil when there is no image
// or the provider fails.
func (g *Gate) Embed(ctx context.Context, images []string) []float32 {
	if len(images) == 0 || images[0] == "" {
		return nil
	}

	embedCtx := ctx
	if g.cfg.EmbedTimeout > 0 {
		var cancel context.CancelFunc
		embedCtx, cancel = context.WithTimeout(ctx, g.cfg.EmbedTimeout)
		defer cancel()
	}

	vector, err := g.provider.Generate(embedCtx, images[0])
	if err != nil {
		trace.SpanFromContext(ctx).SetStatus(codes.Error, "embedding failed")
		g.logger.Warn(module, "Image embedding failed, continuing without vector", map[string]interface{}{
			"image": images[0],
			"error": err.Error(),
		})
		return nil
	}
	if len(vector) == 0 {
		g.logger.Warn(module, "Provider returned an empty vector", map[string]interface{}{"image": images[0]})
		return nil
	}
	return vector
}

// Search ranks the population against an already computed vector. Unlike
// Evaluate it reports population failures to the caller. Members with a
// mismatched dimension are logged and left out.
func (g *Gate) Search(ctx context.Context, query []float32, source PopulationSource, threshold float64, limit int) (similarity.Result, error) {
	if len(query) == 0 {
		return similarity.Result{Candidates: []similarity.Candidate{}}, nil
	}

	ctx, span := g.tracer.Start(ctx, "dedup.Search")
	defer span.End()

	popCtx := ctx
	if g.cfg.PopulationTimeout > 0 {
		var cancel context.CancelFunc
		popCtx, cancel = context.WithTimeout(ctx, g.cfg.PopulationTimeout)
		defer cancel()
	}

	population, err := source.Population(popCtx, query)
	if err != nil {
		span.SetStatus(codes.Error, "population load failed")
		return similarity.Result{}, err
	}
	span.SetAttributes(attribute.Int("population", len(population)))

	result := g.ranker.Rank(query, population, threshold, limit)
	for _, rankErr := range result.Errors {
		var mismatch *similarity.DimensionMismatchError
		if errors.As(rankErr, &mismatch) {
			g.logger.Warn(module, "Stored embedding skipped", map[string]interface{}{
				"report_id": mismatch.ReportId.String(),
				"expected":  mismatch.Expected,
				"actual":    mismatch.Actual,
			})
			continue
		}
		g.logger.Warn(module, "Population member skipped", map[string]interface{}{"error": rankErr.Error()})
	}
	return result, nil
}

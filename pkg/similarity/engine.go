package similarity

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

const DefaultLimit = 5

// Member is one stored report vector taking part in a scan.
type Member struct {
	ReportId  uuid.UUID
	Vector    []float32
	Status    string
	Category  string
	CreatedAt time.Time
}

// Candidate is a ranked population member. It is never persisted.
type Candidate struct {
	ReportId   uuid.UUID `json:"report_id"`
	Similarity float64   `json:"similarity"`
	Status     string    `json:"status"`
	Category   string    `json:"category"`
	CreatedAt  time.Time `json:"created_at"`
}

// DimensionMismatchError marks a stored vector whose length differs from the query.
type DimensionMismatchError struct {
	ReportId uuid.UUID
	Expected int
	Actual   int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("report %s: embedding has %d dimensions, expected %d", e.ReportId, e.Actual, e.Expected)
}

// Result carries the ranked candidates plus the per-member errors hit during the scan.
// Errors never abort a scan.
type Result struct {
	Candidates []Candidate
	Errors     []error
}

// Ranker ranks a population against a query vector.
//
// Implementations must return at most limit candidates, sorted non-increasing
// by similarity, each at or above threshold. An approximate index may satisfy
// this within its recall tolerance.
type Ranker interface {
	Rank(query []float32, population []Member, threshold float64, limit int) Result
}

// Engine is a brute-force linear scan over the population.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

func (e *Engine) Rank(query []float32, population []Member, threshold float64, limit int) Result {
	if limit <= 0 {
		limit = DefaultLimit
	}
	threshold = min(max(threshold, 0), 1)

	result := Result{Candidates: []Candidate{}}

	for _, m := range population {
		if len(m.Vector) == 0 {
			continue
		}

		score, ok := CosineSimilarity(query, m.Vector)
		if !ok {
			result.Errors = append(result.Errors, &DimensionMismatchError{
				ReportId: m.ReportId,
				Expected: len(query),
				Actual:   len(m.Vector),
			})
			continue
		}

		// NaN fails this comparison as well
		if !(score >= threshold) {
			continue
		}

		result.Candidates = append(result.Candidates, Candidate{
			ReportId:   m.ReportId,
			Similarity: score,
			Status:     m.Status,
			Category:   m.Category,
			CreatedAt:  m.CreatedAt,
		})
	}

	slices.SortStableFunc(result.Candidates, func(a, b Candidate) int {
		if c := cmp.Compare(b.Similarity, a.Similarity); c != 0 {
			return c
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	if len(result.Candidates) > limit {
		result.Candidates = result.Candidates[:limit]
	}

	return result
}

package service

import (
	"context"

	"metrocare-be/internal/entity"
	"metrocare-be/internal/repository/unitofwork"
	"metrocare-be/pkg/dedup"
	"metrocare-be/pkg/similarity"

	"github.com/golang/geo/s2"
)

const (
	RankerExact    = "exact"
	RankerPgvector = "pgvector"

	earthRadiusMeters = 6371010.0
)

// ReportPopulation is a population source that can be narrowed to a radius.
type ReportPopulation interface {
	dedup.PopulationSource
	Within(latitude, longitude, meters float64) dedup.PopulationSource
}

// reportPopulation loads stored report vectors as a similarity population.
//
// In exact mode every report with an embedding is scanned. In pgvector mode
// the database pre-selects the nearest prefilter rows with the cosine
// operator and the engine re-ranks them exactly. Radius-restricted sources
// always use the full scan.
type reportPopulation struct {
	uowFactory unitofwork.RepositoryFactory
	mode       string
	prefilter  int
	geo        *geoRadius
}

type geoRadius struct {
	center s2.LatLng
	meters float64
}

func NewReportPopulation(uowFactory unitofwork.RepositoryFactory, mode string, prefilter int) ReportPopulation {
	if prefilter <= 0 {
		prefilter = 100
	}
	return &reportPopulation{
		uowFactory: uowFactory,
		mode:       mode,
		prefilter:  prefilter,
	}
}

// Within returns a copy of the source restricted to reports within meters of
// the given point.
func (p *reportPopulation) Within(latitude, longitude, meters float64) dedup.PopulationSource {
	clone := *p
	clone.geo = &geoRadius{center: s2.LatLngFromDegrees(latitude, longitude), meters: meters}
	return &clone
}

func (p *reportPopulation) Population(ctx context.Context, query []float32) ([]similarity.Member, error) {
	uow := p.uowFactory.NewUnitOfWork(ctx)

	// The prefilter ranks by similarity alone, so a radius-restricted search
	// scans every embedded report to keep nearby rows outside the top N.
	var vectors []*entity.ReportVector
	if p.mode == RankerPgvector && p.geo == nil {
		scored, err := uow.ReportRepository().SearchNearest(ctx, query, p.prefilter)
		if err != nil {
			return nil, err
		}
		vectors = make([]*entity.ReportVector, len(scored))
		for i, s := range scored {
			vectors[i] = s.Vector
		}
	} else {
		var err error
		vectors, err = uow.ReportRepository().FindVectors(ctx)
		if err != nil {
			return nil, err
		}
	}

	members := make([]similarity.Member, 0, len(vectors))
	for _, v := range vectors {
		if p.geo != nil && !p.geo.contains(v.Latitude, v.Longitude) {
			continue
		}
		members = append(members, similarity.Member{
			ReportId:  v.Id,
			Vector:    v.ImageEmbedding,
			Status:    string(v.Status),
			Category:  string(v.Category),
			CreatedAt: v.CreatedAt,
		})
	}
	return members, nil
}

func (g *geoRadius) contains(latitude, longitude float64) bool {
	return distanceMeters(g.center, s2.LatLngFromDegrees(latitude, longitude)) <= g.meters
}

func distanceMeters(a, b s2.LatLng) float64 {
	return a.Distance(b).Radians() * earthRadiusMeters
}

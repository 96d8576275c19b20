package usecases

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/samirrijal/mapboot/internal/core/domain"
	"github.com/samirrijal/mapboot/internal/core/ports"
	"github.com/samirrijal/mapboot/internal/pkg/metrics"
	"github.com/samirrijal/mapboot/internal/pkg/projection"
)

// transformTTL is how long a transform result is cached, in seconds.
// Transforms are pure so this only bounds cache memory.
const transformTTL = 3600

// ProjectionService exposes the projection registry with read-through caching.
type ProjectionService struct {
	registry *projection.Registry
	cache    ports.CacheService
}

// NewProjectionService creates a new ProjectionService. cache may be nil.
func NewProjectionService(registry *projection.Registry, cache ports.CacheService) *ProjectionService {
	return &ProjectionService{registry: registry, cache: cache}
}

// List describes every registered projection.
func (s *ProjectionService) List() []domain.ProjectionInfo {
	codes := s.registry.Codes()
	out := make([]domain.ProjectionInfo, 0, len(codes))
	for _, code := range codes {
		p, err := s.registry.Lookup(code)
		if err != nil {
			continue
		}
		out = append(out, domain.ProjectionInfo{
			Code:       p.Code(),
			Units:      p.Units(),
			Geographic: p.Geographic(),
		})
	}
	return out
}

// Transform converts pt into the projection named by to.
func (s *ProjectionService) Transform(ctx context.Context, pt domain.GeoPoint, to string) (domain.ProjectedPoint, error) {
	if pt.CRS == "" {
		pt.CRS = domain.CRSWGS84
	}
	target, err := s.registry.Lookup(to)
	if err != nil {
		return domain.ProjectedPoint{}, err
	}
	src, err := s.registry.Lookup(pt.CRS)
	if err != nil {
		return domain.ProjectedPoint{}, err
	}

	cacheKey := fmt.Sprintf("transform:%s:%s:%.9f:%.9f", src.Code(), target.Code(), pt.Lon, pt.Lat)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var out domain.ProjectedPoint
			if err := json.Unmarshal(data, &out); err == nil {
				metrics.CacheHits.WithLabelValues("transform").Inc()
				return out, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("transform").Inc()
	}

	out, err := s.registry.Transform(pt, target)
	if err != nil {
		return domain.ProjectedPoint{}, err
	}
	metrics.Transforms.WithLabelValues(src.Code(), target.Code()).Inc()

	if s.cache != nil {
		if data, err := json.Marshal(out); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, transformTTL)
		}
	}
	return out, nil
}

// Inverse converts a projected point back to geographic coordinates in the
// system named by to (EPSG:4326 when empty).
func (s *ProjectionService) Inverse(pt domain.ProjectedPoint, to string) (domain.GeoPoint, error) {
	if to == "" {
		to = domain.CRSWGS84
	}
	out, err := s.registry.Inverse(pt, to)
	if err != nil {
		return domain.GeoPoint{}, err
	}
	metrics.Transforms.WithLabelValues(pt.CRS, out.CRS).Inc()
	return out, nil
}

package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/mapboot/internal/core/domain"
)

// ViewRepo implements ports.ViewRepository with pgx and PostGIS.
type ViewRepo struct {
	db *DB
}

// NewViewRepo creates a new ViewRepo.
func NewViewRepo(db *DB) *ViewRepo {
	return &ViewRepo{db: db}
}

// SRID extracts the numeric SRID from an "EPSG:nnnn" code.
func SRID(code string) (int, error) {
	s, ok := strings.CutPrefix(strings.ToUpper(code), "EPSG:")
	if !ok {
		return 0, fmt.Errorf("%w: %q has no EPSG srid", domain.ErrUnknownProjection, code)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", domain.ErrUnknownProjection, code)
	}
	return n, nil
}

// Save upserts the view and inserts any markers not yet stored.
func (r *ViewRepo) Save(ctx context.Context, s *domain.MapViewState) error {
	srid, err := SRID(s.Projection)
	if err != nil {
		return err
	}

	layers := make([]domain.LayerState, len(s.Layers))
	for i, l := range s.Layers {
		l.Markers = nil
		layers[i] = l
	}
	layersJSON, err := json.Marshal(layers)
	if err != nil {
		return fmt.Errorf("marshal layers: %w", err)
	}

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO map_views (id, container, projection, center, center_geo, zoom, layers, created_at, updated_at)
		VALUES ($1, $2, $3,
		        ST_SetSRID(ST_MakePoint($4, $5), $6),
		        ST_SetSRID(ST_MakePoint($7, $8), 4326)::geography,
		        $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE
		SET center = EXCLUDED.center, center_geo = EXCLUDED.center_geo,
		    zoom = EXCLUDED.zoom, layers = EXCLUDED.layers,
		    updated_at = EXCLUDED.updated_at
	`, s.ID, s.Container, s.Projection,
		s.Center.X, s.Center.Y, srid,
		s.CenterGeo.Lon, s.CenterGeo.Lat,
		s.Zoom, layersJSON, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert view: %w", err)
	}

	batch := &pgx.Batch{}
	for _, l := range s.Layers {
		for _, m := range l.Markers {
			batch.Queue(`
				INSERT INTO map_markers (id, view_id, layer, position, location, label)
				VALUES ($1, $2, $3,
				        ST_SetSRID(ST_MakePoint($4, $5), $6),
				        ST_SetSRID(ST_MakePoint($7, $8), 4326)::geography,
				        $9)
				ON CONFLICT (id) DO NOTHING
			`, m.ID, s.ID, l.Name, m.Position.X, m.Position.Y, srid,
				m.Location.Lon, m.Location.Lat, m.Label)
		}
	}
	if batch.Len() > 0 {
		br := tx.SendBatch(ctx, batch)
		for i := 0; i < batch.Len(); i++ {
			if _, err := br.Exec(); err != nil {
				_ = br.Close()
				return fmt.Errorf("batch exec: %w", err)
			}
		}
		if err := br.Close(); err != nil {
			return fmt.Errorf("batch close: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// Get returns a view with its markers in insertion order. Ids that are not
// UUIDs cannot name a stored view and report ErrViewNotFound.
func (r *ViewRepo) Get(ctx context.Context, id string) (*domain.MapViewState, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrViewNotFound, id)
	}

	var (
		s          domain.MapViewState
		srid       int
		layersJSON []byte
	)
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id::text, container, projection,
		       ST_X(center), ST_Y(center), ST_SRID(center),
		       ST_X(center_geo::geometry), ST_Y(center_geo::geometry),
		       zoom, layers, created_at, updated_at
		FROM map_views WHERE id = $1
	`, id).Scan(
		&s.ID, &s.Container, &s.Projection,
		&s.Center.X, &s.Center.Y, &srid,
		&s.CenterGeo.Lon, &s.CenterGeo.Lat,
		&s.Zoom, &layersJSON, &s.CreatedAt, &s.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrViewNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	s.Center.CRS = fmt.Sprintf("EPSG:%d", srid)
	s.CenterGeo.CRS = domain.CRSWGS84
	if err := json.Unmarshal(layersJSON, &s.Layers); err != nil {
		return nil, fmt.Errorf("decode layers: %w", err)
	}

	rows, err := r.db.Pool.Query(ctx, `
		SELECT id::text, layer, label,
		       ST_X(position), ST_Y(position), ST_SRID(position),
		       ST_X(location::geometry), ST_Y(location::geometry)
		FROM map_markers WHERE view_id = $1
		ORDER BY seq
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			m     domain.MarkerState
			layer string
			msrid int
		)
		if err := rows.Scan(&m.ID, &layer, &m.Label,
			&m.Position.X, &m.Position.Y, &msrid,
			&m.Location.Lon, &m.Location.Lat); err != nil {
			return nil, err
		}
		m.Position.CRS = fmt.Sprintf("EPSG:%d", msrid)
		m.Location.CRS = domain.CRSWGS84
		for i := range s.Layers {
			if s.Layers[i].Kind == domain.LayerKindMarker && s.Layers[i].Name == layer {
				s.Layers[i].Markers = append(s.Layers[i].Markers, m)
				break
			}
		}
	}
	return &s, rows.Err()
}

// List returns a page of views, newest first, with the total count.
func (r *ViewRepo) List(ctx context.Context, offset, limit int) ([]domain.MapViewState, int, error) {
	var total int
	if err := r.db.Pool.QueryRow(ctx, `SELECT count(*) FROM map_views`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Pool.Query(ctx, `
		SELECT id::text FROM map_views
		ORDER BY created_at DESC, id
		OFFSET $1 LIMIT $2
	`, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, 0, err
	}

	views := make([]domain.MapViewState, 0, len(ids))
	for _, id := range ids {
		v, err := r.Get(ctx, id)
		if err != nil {
			return nil, 0, err
		}
		views = append(views, *v)
	}
	return views, total, nil
}

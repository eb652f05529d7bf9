package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/route-planner/internal/domain"
	"github.com/route-planner/internal/domain/repository"
	apperrors "github.com/route-planner/internal/pkg/errors"
	"go.uber.org/zap"
)

type routeRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewRouteRepository(db *DB) repository.RouteRepository {
	return &routeRepository{
		db:     db.DB,
		logger: db.logger,
	}
}

// routeRow - строка таблицы routes
type routeRow struct {
	ID            uuid.UUID      `db:"id"`
	Title         string         `db:"title"`
	Description   string         `db:"description"`
	Visibility    string         `db:"visibility"`
	Tags          pq.StringArray `db:"tags"`
	EditorState   []byte         `db:"editor_state"`
	Distance      int            `db:"distance"`
	ElevationGain int            `db:"elevation_gain"`
	DataFilePath  string         `db:"data_file_path"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

func (r *routeRepository) Create(ctx context.Context, route *domain.SavedRoute) error {
	if route.ID == uuid.Nil {
		route.ID = uuid.New()
	}
	if route.Visibility == "" {
		route.Visibility = domain.VisibilityPrivate
	}

	state, err := json.Marshal(route.EditorState)
	if err != nil {
		return fmt.Errorf("marshal editor state: %w", err)
	}

	query := `
		INSERT INTO routes (
			id, title, description, visibility, tags, editor_state,
			distance, elevation_gain, data_file_path
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`

	err = r.db.QueryRowContext(ctx, query,
		route.ID, route.Title, route.Description, string(route.Visibility),
		pq.Array(nonNilTags(route.Tags)), state,
		route.DistanceM, route.ElevationGain, route.DataFilePath,
	).Scan(&route.CreatedAt, &route.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to create route", zap.String("id", route.ID.String()), zap.Error(err))
		return apperrors.ErrDatabaseError
	}

	r.logger.Debug("Route created", zap.String("id", route.ID.String()), zap.String("title", route.Title))
	return nil
}

func (r *routeRepository) Update(ctx context.Context, route *domain.SavedRoute) error {
	state, err := json.Marshal(route.EditorState)
	if err != nil {
		return fmt.Errorf("marshal editor state: %w", err)
	}

	// data_file_path сбрасывается: файл экспорта устарел до следующего прогона воркера
	query := `
		UPDATE routes
		SET title = $2, description = $3, visibility = $4, tags = $5,
			editor_state = $6, distance = $7, elevation_gain = $8,
			data_file_path = '', updated_at = NOW()
		WHERE id = $1
		RETURNING created_at, updated_at
	`

	err = r.db.QueryRowContext(ctx, query,
		route.ID, route.Title, route.Description, string(route.Visibility),
		pq.Array(nonNilTags(route.Tags)), state,
		route.DistanceM, route.ElevationGain,
	).Scan(&route.CreatedAt, &route.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.ErrRouteNotFound
	}
	if err != nil {
		r.logger.Error("Failed to update route", zap.String("id", route.ID.String()), zap.Error(err))
		return apperrors.ErrDatabaseError
	}

	route.DataFilePath = ""
	return nil
}

func (r *routeRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.SavedRoute, error) {
	query := `
		SELECT
			id, title, description, visibility, tags, editor_state,
			distance, elevation_gain, data_file_path, created_at, updated_at
		FROM routes
		WHERE id = $1
	`

	var row routeRow
	err := r.db.GetContext(ctx, &row, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get route by ID", zap.String("id", id.String()), zap.Error(err))
		return nil, apperrors.ErrDatabaseError
	}

	route := &domain.SavedRoute{
		ID:            row.ID,
		Title:         row.Title,
		Description:   row.Description,
		Visibility:    domain.Visibility(row.Visibility),
		Tags:          []string(row.Tags),
		DistanceM:     row.Distance,
		ElevationGain: row.ElevationGain,
		DataFilePath:  row.DataFilePath,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
	if err := json.Unmarshal(row.EditorState, &route.EditorState); err != nil {
		r.logger.Error("Failed to unmarshal editor state", zap.String("id", id.String()), zap.Error(err))
		return nil, apperrors.ErrDatabaseError
	}

	return route, nil
}

func (r *routeRepository) SetDataFilePath(ctx context.Context, id uuid.UUID, path string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE routes SET data_file_path = $2 WHERE id = $1`, id, path)
	if err != nil {
		r.logger.Error("Failed to set data file path", zap.String("id", id.String()), zap.Error(err))
		return apperrors.ErrDatabaseError
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return apperrors.ErrRouteNotFound
	}
	return nil
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

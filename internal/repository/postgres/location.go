package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"marginalia/internal/domain"
	"marginalia/internal/domain/models"
	"marginalia/internal/domain/repositories"
)

// PostgresLocationRepository implements the LocationRepository interface.
// The (document_id, start_position) index backs the span index's range
// queries.
type PostgresLocationRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewLocationRepository creates a new location repository.
func NewLocationRepository(config *RepositoryConfig) repositories.LocationRepository {
	return &PostgresLocationRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create inserts a new document location.
func (r *PostgresLocationRepository) Create(ctx context.Context, loc *models.DocumentLocation) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (document_id, selected_text_id, start_position, end_position, page_number)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`, r.tables.Locations)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		loc.DocumentID,
		loc.SelectedTextID,
		loc.StartPosition,
		loc.EndPosition,
		loc.PageNumber,
	).Scan(&loc.ID, &loc.CreatedAt, &loc.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create document location: %w", err)
	}

	return nil
}

// Delete removes a location. An unknown id is an error, not a no-op, so
// double releases surface as bugs.
func (r *PostgresLocationRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Locations)

	executor := GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete document location: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("document location %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// ListOverlapping returns all locations of a document intersecting
// [start, end) using the half-open interval test, ordered by start
// position ascending.
func (r *PostgresLocationRepository) ListOverlapping(ctx context.Context, documentID string, start, end int) ([]models.DocumentLocation, error) {
	query := fmt.Sprintf(`
		SELECT id, document_id, selected_text_id, start_position, end_position, page_number, created_at, updated_at
		FROM %s
		WHERE document_id = $1 AND start_position < $3 AND end_position > $2
		ORDER BY start_position
	`, r.tables.Locations)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, documentID, start, end)
	if err != nil {
		return nil, fmt.Errorf("list overlapping locations: %w", err)
	}
	return scanLocations(rows)
}

// ListByDocument returns all locations of a document ordered by start
// position ascending.
func (r *PostgresLocationRepository) ListByDocument(ctx context.Context, documentID string) ([]models.DocumentLocation, error) {
	query := fmt.Sprintf(`
		SELECT id, document_id, selected_text_id, start_position, end_position, page_number, created_at, updated_at
		FROM %s
		WHERE document_id = $1
		ORDER BY start_position
	`, r.tables.Locations)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("list document locations: %w", err)
	}
	return scanLocations(rows)
}

// ListBySelectedText returns all locations of a selected text across all
// documents.
func (r *PostgresLocationRepository) ListBySelectedText(ctx context.Context, selectedTextID string) ([]models.DocumentLocation, error) {
	query := fmt.Sprintf(`
		SELECT id, document_id, selected_text_id, start_position, end_position, page_number, created_at, updated_at
		FROM %s
		WHERE selected_text_id = $1
		ORDER BY document_id, start_position
	`, r.tables.Locations)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, selectedTextID)
	if err != nil {
		return nil, fmt.Errorf("list selected text locations: %w", err)
	}
	return scanLocations(rows)
}

func scanLocations(rows pgx.Rows) ([]models.DocumentLocation, error) {
	defer rows.Close()

	var result []models.DocumentLocation
	for rows.Next() {
		var loc models.DocumentLocation
		if err := rows.Scan(
			&loc.ID,
			&loc.DocumentID,
			&loc.SelectedTextID,
			&loc.StartPosition,
			&loc.EndPosition,
			&loc.PageNumber,
			&loc.CreatedAt,
			&loc.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan document location: %w", err)
		}
		result = append(result, loc)
	}

	return result, rows.Err()
}

package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"marginalia/internal/domain/models"
	"marginalia/internal/domain/repositories"
)

// PostgresOutlineRepository implements the OutlineRepository interface.
type PostgresOutlineRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewOutlineRepository creates a new outline repository.
func NewOutlineRepository(config *RepositoryConfig) repositories.OutlineRepository {
	return &PostgresOutlineRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// CreateBatch inserts outline rows in slice order. Callers assign row
// ids up front so parent links can reference siblings within the same
// batch; rows referencing a parent must appear after it.
func (r *PostgresOutlineRepository) CreateBatch(ctx context.Context, rows []*models.DocumentOutline) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, document_id, parent_id, title, level, position, page_number, anchor_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`, r.tables.Outlines)

	executor := GetExecutor(ctx, r.pool)
	for _, row := range rows {
		err := executor.QueryRow(ctx, query,
			row.ID,
			row.DocumentID,
			row.ParentID,
			row.Title,
			row.Level,
			row.Position,
			row.PageNumber,
			row.AnchorID,
		).Scan(&row.CreatedAt, &row.UpdatedAt)
		if err != nil {
			return fmt.Errorf("create outline row %q: %w", row.Title, err)
		}
	}

	return nil
}

// ListByDocument retrieves all outline rows for a document. Ordering by
// level then position keeps parents ahead of children and sibling groups
// pre-sorted for tree assembly.
func (r *PostgresOutlineRepository) ListByDocument(ctx context.Context, documentID string) ([]models.DocumentOutline, error) {
	query := fmt.Sprintf(`
		SELECT id, document_id, parent_id, title, level, position, page_number, anchor_id, created_at, updated_at
		FROM %s
		WHERE document_id = $1
		ORDER BY level, position
	`, r.tables.Outlines)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("list outline rows: %w", err)
	}
	defer rows.Close()

	var result []models.DocumentOutline
	for rows.Next() {
		var row models.DocumentOutline
		if err := rows.Scan(
			&row.ID,
			&row.DocumentID,
			&row.ParentID,
			&row.Title,
			&row.Level,
			&row.Position,
			&row.PageNumber,
			&row.AnchorID,
			&row.CreatedAt,
			&row.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan outline row: %w", err)
		}
		result = append(result, row)
	}

	return result, rows.Err()
}

// DeleteByDocument removes every outline row of a document.
func (r *PostgresOutlineRepository) DeleteByDocument(ctx context.Context, documentID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE document_id = $1`, r.tables.Outlines)

	executor := GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, documentID); err != nil {
		return fmt.Errorf("delete outline rows: %w", err)
	}

	return nil
}

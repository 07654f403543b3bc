package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"marginalia/internal/domain"
	"marginalia/internal/domain/models"
	"marginalia/internal/domain/repositories"
)

// PostgresSelectedTextRepository implements the SelectedTextRepository
// interface. The unique index on text is the storage-layer half of the
// registry's get-or-create guarantee.
type PostgresSelectedTextRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewSelectedTextRepository creates a new selected text repository.
func NewSelectedTextRepository(config *RepositoryConfig) repositories.SelectedTextRepository {
	return &PostgresSelectedTextRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create inserts a new selected text. A unique violation on text is
// returned as a ConflictError carrying the existing entity's id so the
// caller can retry with a lookup.
func (r *PostgresSelectedTextRepository) Create(ctx context.Context, st *models.SelectedText) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (text, text_type, start_position, end_position)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`, r.tables.SelectedTexts)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		st.Text,
		st.TextType,
		st.StartPosition,
		st.EndPosition,
	).Scan(&st.ID, &st.CreatedAt, &st.UpdatedAt)

	if err != nil {
		if IsPgDuplicateError(err) {
			existing, lookupErr := r.GetByText(ctx, st.Text)
			if lookupErr != nil {
				return fmt.Errorf("selected text %q already exists: %w", st.Text, domain.ErrConflict)
			}
			return &domain.ConflictError{
				Message:      fmt.Sprintf("selected text %q already exists", st.Text),
				ResourceType: "selected_text",
				ResourceID:   existing.ID,
			}
		}
		return fmt.Errorf("create selected text: %w", err)
	}

	return nil
}

// GetByID retrieves a selected text by id.
func (r *PostgresSelectedTextRepository) GetByID(ctx context.Context, id string) (*models.SelectedText, error) {
	return r.getByColumn(ctx, "id", id)
}

// GetByText retrieves a selected text by exact string match, no case
// folding.
func (r *PostgresSelectedTextRepository) GetByText(ctx context.Context, text string) (*models.SelectedText, error) {
	return r.getByColumn(ctx, "text", text)
}

func (r *PostgresSelectedTextRepository) getByColumn(ctx context.Context, column, value string) (*models.SelectedText, error) {
	query := fmt.Sprintf(`
		SELECT id, text, text_type, start_position, end_position, created_at, updated_at
		FROM %s
		WHERE %s = $1
	`, r.tables.SelectedTexts, column)

	var st models.SelectedText
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, value).Scan(
		&st.ID,
		&st.Text,
		&st.TextType,
		&st.StartPosition,
		&st.EndPosition,
		&st.CreatedAt,
		&st.UpdatedAt,
	)

	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("selected text %s=%q: %w", column, value, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get selected text: %w", err)
	}

	return &st, nil
}

// Update persists the text type and legacy position fields. The text
// itself is immutable; changing it would break the canonical identity.
func (r *PostgresSelectedTextRepository) Update(ctx context.Context, st *models.SelectedText) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET text_type = $2, start_position = $3, end_position = $4, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`, r.tables.SelectedTexts)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		st.ID,
		st.TextType,
		st.StartPosition,
		st.EndPosition,
	).Scan(&st.UpdatedAt)

	if err != nil {
		if IsPgNoRowsError(err) {
			return fmt.Errorf("selected text %s: %w", st.ID, domain.ErrNotFound)
		}
		return fmt.Errorf("update selected text: %w", err)
	}

	return nil
}

// Delete removes a selected text. Annotations and locations cascade.
func (r *PostgresSelectedTextRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.SelectedTexts)

	executor := GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete selected text: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("selected text %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

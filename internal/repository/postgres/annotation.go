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

// PostgresAnnotationRepository implements the AnnotationRepository
// interface over the four annotation tables.
type PostgresAnnotationRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewAnnotationRepository creates a new annotation repository.
func NewAnnotationRepository(config *RepositoryConfig) repositories.AnnotationRepository {
	return &PostgresAnnotationRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

func (r *PostgresAnnotationRepository) tableFor(kind models.AnnotationKind) string {
	switch kind {
	case models.KindDefinition:
		return r.tables.Definitions
	case models.KindLink:
		return r.tables.Links
	case models.KindNote:
		return r.tables.Notes
	case models.KindSynonym:
		return r.tables.Synonyms
	}
	return ""
}

// Create inserts an annotation into its kind's table.
func (r *PostgresAnnotationRepository) Create(ctx context.Context, a models.Annotation) error {
	executor := GetExecutor(ctx, r.pool)

	var err error
	switch v := a.(type) {
	case *models.Definition:
		query := fmt.Sprintf(`
			INSERT INTO %s (selected_text_id, content, context)
			VALUES ($1, $2, $3)
			RETURNING id, created_at, updated_at
		`, r.tables.Definitions)
		err = executor.QueryRow(ctx, query, v.SelectedTextID, v.Content, v.Context).
			Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt)
	case *models.Link:
		query := fmt.Sprintf(`
			INSERT INTO %s (selected_text_id, url, title, description)
			VALUES ($1, $2, $3, $4)
			RETURNING id, created_at, updated_at
		`, r.tables.Links)
		err = executor.QueryRow(ctx, query, v.SelectedTextID, v.URL, v.Title, v.Description).
			Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt)
	case *models.Note:
		query := fmt.Sprintf(`
			INSERT INTO %s (selected_text_id, content)
			VALUES ($1, $2)
			RETURNING id, added_at, created_at, updated_at
		`, r.tables.Notes)
		err = executor.QueryRow(ctx, query, v.SelectedTextID, v.Content).
			Scan(&v.ID, &v.AddedAt, &v.CreatedAt, &v.UpdatedAt)
	case *models.Synonym:
		query := fmt.Sprintf(`
			INSERT INTO %s (selected_text_id, synonym_text)
			VALUES ($1, $2)
			RETURNING id, created_at, updated_at
		`, r.tables.Synonyms)
		err = executor.QueryRow(ctx, query, v.SelectedTextID, v.SynonymText).
			Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt)
	default:
		return fmt.Errorf("unknown annotation type %T", a)
	}

	if err != nil {
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("selected text for %s: %w", a.Kind(), domain.ErrNotFound)
		}
		return fmt.Errorf("create %s: %w", a.Kind(), err)
	}

	return nil
}

// Get retrieves one annotation by kind and id.
func (r *PostgresAnnotationRepository) Get(ctx context.Context, kind models.AnnotationKind, id string) (models.Annotation, error) {
	executor := GetExecutor(ctx, r.pool)

	var (
		a   models.Annotation
		err error
	)
	switch kind {
	case models.KindDefinition:
		var v models.Definition
		query := fmt.Sprintf(`
			SELECT id, selected_text_id, content, context, created_at, updated_at
			FROM %s WHERE id = $1
		`, r.tables.Definitions)
		err = executor.QueryRow(ctx, query, id).
			Scan(&v.ID, &v.SelectedTextID, &v.Content, &v.Context, &v.CreatedAt, &v.UpdatedAt)
		a = &v
	case models.KindLink:
		var v models.Link
		query := fmt.Sprintf(`
			SELECT id, selected_text_id, url, title, description, created_at, updated_at
			FROM %s WHERE id = $1
		`, r.tables.Links)
		err = executor.QueryRow(ctx, query, id).
			Scan(&v.ID, &v.SelectedTextID, &v.URL, &v.Title, &v.Description, &v.CreatedAt, &v.UpdatedAt)
		a = &v
	case models.KindNote:
		var v models.Note
		query := fmt.Sprintf(`
			SELECT id, selected_text_id, content, added_at, created_at, updated_at
			FROM %s WHERE id = $1
		`, r.tables.Notes)
		err = executor.QueryRow(ctx, query, id).
			Scan(&v.ID, &v.SelectedTextID, &v.Content, &v.AddedAt, &v.CreatedAt, &v.UpdatedAt)
		a = &v
	case models.KindSynonym:
		var v models.Synonym
		query := fmt.Sprintf(`
			SELECT id, selected_text_id, synonym_text, created_at, updated_at
			FROM %s WHERE id = $1
		`, r.tables.Synonyms)
		err = executor.QueryRow(ctx, query, id).
			Scan(&v.ID, &v.SelectedTextID, &v.SynonymText, &v.CreatedAt, &v.UpdatedAt)
		a = &v
	default:
		return nil, fmt.Errorf("unknown annotation kind %q", kind)
	}

	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("%s %s: %w", kind, id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get %s: %w", kind, err)
	}

	return a, nil
}

// Update persists the kind-specific payload fields of an annotation.
func (r *PostgresAnnotationRepository) Update(ctx context.Context, a models.Annotation) error {
	executor := GetExecutor(ctx, r.pool)

	var (
		id  string
		err error
	)
	switch v := a.(type) {
	case *models.Definition:
		id = v.ID
		query := fmt.Sprintf(`
			UPDATE %s SET content = $2, context = $3, updated_at = now()
			WHERE id = $1 RETURNING updated_at
		`, r.tables.Definitions)
		err = executor.QueryRow(ctx, query, v.ID, v.Content, v.Context).Scan(&v.UpdatedAt)
	case *models.Link:
		id = v.ID
		query := fmt.Sprintf(`
			UPDATE %s SET url = $2, title = $3, description = $4, updated_at = now()
			WHERE id = $1 RETURNING updated_at
		`, r.tables.Links)
		err = executor.QueryRow(ctx, query, v.ID, v.URL, v.Title, v.Description).Scan(&v.UpdatedAt)
	case *models.Note:
		id = v.ID
		query := fmt.Sprintf(`
			UPDATE %s SET content = $2, updated_at = now()
			WHERE id = $1 RETURNING updated_at
		`, r.tables.Notes)
		err = executor.QueryRow(ctx, query, v.ID, v.Content).Scan(&v.UpdatedAt)
	case *models.Synonym:
		id = v.ID
		query := fmt.Sprintf(`
			UPDATE %s SET synonym_text = $2, updated_at = now()
			WHERE id = $1 RETURNING updated_at
		`, r.tables.Synonyms)
		err = executor.QueryRow(ctx, query, v.ID, v.SynonymText).Scan(&v.UpdatedAt)
	default:
		return fmt.Errorf("unknown annotation type %T", a)
	}

	if err != nil {
		if IsPgNoRowsError(err) {
			return fmt.Errorf("%s %s: %w", a.Kind(), id, domain.ErrNotFound)
		}
		return fmt.Errorf("update %s: %w", a.Kind(), err)
	}

	return nil
}

// Delete removes one annotation from its kind's table.
func (r *PostgresAnnotationRepository) Delete(ctx context.Context, kind models.AnnotationKind, id string) error {
	table := r.tableFor(kind)
	if table == "" {
		return fmt.Errorf("unknown annotation kind %q", kind)
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, table)

	executor := GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", kind, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, domain.ErrNotFound)
	}

	return nil
}

// ListBySelectedText retrieves every annotation of a selected text.
func (r *PostgresAnnotationRepository) ListBySelectedText(ctx context.Context, selectedTextID string) (*models.AnnotationSet, error) {
	executor := GetExecutor(ctx, r.pool)
	set := &models.AnnotationSet{
		Definitions: []models.Definition{},
		Links:       []models.Link{},
		Notes:       []models.Note{},
		Synonyms:    []models.Synonym{},
	}

	query := fmt.Sprintf(`
		SELECT id, selected_text_id, content, context, created_at, updated_at
		FROM %s WHERE selected_text_id = $1 ORDER BY created_at
	`, r.tables.Definitions)
	rows, err := executor.Query(ctx, query, selectedTextID)
	if err != nil {
		return nil, fmt.Errorf("list definitions: %w", err)
	}
	for rows.Next() {
		var v models.Definition
		if err := rows.Scan(&v.ID, &v.SelectedTextID, &v.Content, &v.Context, &v.CreatedAt, &v.UpdatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan definition: %w", err)
		}
		set.Definitions = append(set.Definitions, v)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	query = fmt.Sprintf(`
		SELECT id, selected_text_id, url, title, description, created_at, updated_at
		FROM %s WHERE selected_text_id = $1 ORDER BY created_at
	`, r.tables.Links)
	rows, err = executor.Query(ctx, query, selectedTextID)
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	for rows.Next() {
		var v models.Link
		if err := rows.Scan(&v.ID, &v.SelectedTextID, &v.URL, &v.Title, &v.Description, &v.CreatedAt, &v.UpdatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan link: %w", err)
		}
		set.Links = append(set.Links, v)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	query = fmt.Sprintf(`
		SELECT id, selected_text_id, content, added_at, created_at, updated_at
		FROM %s WHERE selected_text_id = $1 ORDER BY added_at
	`, r.tables.Notes)
	rows, err = executor.Query(ctx, query, selectedTextID)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	for rows.Next() {
		var v models.Note
		if err := rows.Scan(&v.ID, &v.SelectedTextID, &v.Content, &v.AddedAt, &v.CreatedAt, &v.UpdatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan note: %w", err)
		}
		set.Notes = append(set.Notes, v)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	query = fmt.Sprintf(`
		SELECT id, selected_text_id, synonym_text, created_at, updated_at
		FROM %s WHERE selected_text_id = $1 ORDER BY created_at
	`, r.tables.Synonyms)
	rows, err = executor.Query(ctx, query, selectedTextID)
	if err != nil {
		return nil, fmt.Errorf("list synonyms: %w", err)
	}
	for rows.Next() {
		var v models.Synonym
		if err := rows.Scan(&v.ID, &v.SelectedTextID, &v.SynonymText, &v.CreatedAt, &v.UpdatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan synonym: %w", err)
		}
		set.Synonyms = append(set.Synonyms, v)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return set, nil
}

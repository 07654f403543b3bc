package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates the annotation tables and indexes when they do not
// exist yet. Statements are idempotent so startup can run this
// unconditionally.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, t *TableNames) error {
	statements := []string{
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
				title TEXT NOT NULL,
				content_type TEXT NOT NULL CHECK (content_type IN ('text', 'pdf', 'webpage')),
				file_path TEXT,
				url TEXT,
				content TEXT,
				extracted_text TEXT,
				page_boundaries BIGINT[],
				extracted BOOLEAN NOT NULL DEFAULT FALSE,
				total_pages INTEGER NOT NULL DEFAULT 1 CHECK (total_pages >= 1),
				current_page INTEGER NOT NULL DEFAULT 1 CHECK (current_page >= 1),
				created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
			)`, t.Documents),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_title_idx ON %s (title)`, t.Documents, t.Documents),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_content_type_idx ON %s (content_type)`, t.Documents, t.Documents),

		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
				document_id UUID NOT NULL REFERENCES %s (id) ON DELETE CASCADE,
				parent_id UUID REFERENCES %s (id) ON DELETE CASCADE,
				title TEXT NOT NULL,
				level INTEGER NOT NULL CHECK (level > 0),
				position INTEGER NOT NULL DEFAULT 0,
				page_number INTEGER,
				anchor_id TEXT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
			)`, t.Outlines, t.Documents, t.Outlines),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_document_level_idx ON %s (document_id, level)`, t.Outlines, t.Outlines),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_parent_position_idx ON %s (parent_id, position)`, t.Outlines, t.Outlines),

		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
				text TEXT NOT NULL,
				text_type TEXT NOT NULL DEFAULT 'general',
				start_position INTEGER,
				end_position INTEGER,
				created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
			)`, t.SelectedTexts),
		fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS %s_text_key ON %s (text)`, t.SelectedTexts, t.SelectedTexts),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_text_type_idx ON %s (text_type)`, t.SelectedTexts, t.SelectedTexts),

		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
				document_id UUID NOT NULL REFERENCES %s (id) ON DELETE CASCADE,
				selected_text_id UUID NOT NULL REFERENCES %s (id) ON DELETE CASCADE,
				start_position INTEGER NOT NULL CHECK (start_position >= 0),
				end_position INTEGER NOT NULL CHECK (end_position > start_position),
				page_number INTEGER,
				created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
			)`, t.Locations, t.Documents, t.SelectedTexts),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_document_start_idx ON %s (document_id, start_position)`, t.Locations, t.Locations),

		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
				selected_text_id UUID NOT NULL REFERENCES %s (id) ON DELETE CASCADE,
				content TEXT NOT NULL,
				context TEXT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
			)`, t.Definitions, t.SelectedTexts),

		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
				selected_text_id UUID NOT NULL REFERENCES %s (id) ON DELETE CASCADE,
				url TEXT NOT NULL,
				title TEXT NOT NULL,
				description TEXT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
			)`, t.Links, t.SelectedTexts),

		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
				selected_text_id UUID NOT NULL REFERENCES %s (id) ON DELETE CASCADE,
				content TEXT NOT NULL,
				added_at TIMESTAMPTZ NOT NULL DEFAULT now(),
				created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
			)`, t.Notes, t.SelectedTexts),

		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
				selected_text_id UUID NOT NULL REFERENCES %s (id) ON DELETE CASCADE,
				synonym_text TEXT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
			)`, t.Synonyms, t.SelectedTexts),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_text_idx ON %s (synonym_text)`, t.Synonyms, t.Synonyms),
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

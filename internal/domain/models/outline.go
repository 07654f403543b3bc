package models

import "time"

// DocumentOutline is one stored row of a document's table of contents.
// ParentID is nil for root nodes and must reference an outline row of the
// same document. Level is the depth from the root ancestor (1 = root) and
// must stay consistent with the parent chain; Position orders siblings.
type DocumentOutline struct {
	ID         string    `json:"id" db:"id"`
	DocumentID string    `json:"document_id" db:"document_id"`
	ParentID   *string   `json:"parent_id" db:"parent_id"`
	Title      string    `json:"title" db:"title"`
	Level      int       `json:"level" db:"level"`
	Position   int       `json:"position" db:"position"`
	PageNumber *int      `json:"page_number,omitempty" db:"page_number"`
	AnchorID   *string   `json:"anchor_id,omitempty" db:"anchor_id"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// OutlineNode is a read-only tree snapshot node produced from stored
// outline rows. Children are ordered by Position ascending.
type OutlineNode struct {
	ID         string         `json:"id"`
	Title      string         `json:"title"`
	Level      int            `json:"level"`
	Position   int            `json:"position"`
	PageNumber *int           `json:"page_number,omitempty"`
	AnchorID   *string        `json:"anchor_id,omitempty"`
	Children   []*OutlineNode `json:"children"`
}

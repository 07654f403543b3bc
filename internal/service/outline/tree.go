// Package outline assembles flat document-outline rows into the ordered
// hierarchical tree rendered as a table of contents.
package outline

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"marginalia/internal/domain"
	"marginalia/internal/domain/models"
	"marginalia/internal/domain/repositories"
)

// Service builds read-only outline tree snapshots from storage.
type Service struct {
	outlines repositories.OutlineRepository
	logger   *slog.Logger
}

// NewService creates an outline tree service.
func NewService(outlines repositories.OutlineRepository, logger *slog.Logger) *Service {
	return &Service{outlines: outlines, logger: logger}
}

// Build loads all outline rows for a document and assembles them into a
// forest of root nodes. The snapshot is read-only; storage is not
// mutated. Malformed data (parent cycles, levels diverging from the
// structural depth) fails with a data-integrity error.
func (s *Service) Build(ctx context.Context, documentID string) ([]*models.OutlineNode, error) {
	rows, err := s.outlines.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	forest, err := BuildForest(documentID, rows)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("outline tree built", "document_id", documentID, "node_count", len(rows))
	return forest, nil
}

// BuildForest assembles outline rows into an ordered forest. Children are
// grouped by parent id and ordered by position ascending within each
// sibling group. Every row must be reachable from a root through valid
// parent links; a parent chain that revisits a node fails with
// CycleError, and a stored level that diverges from the structurally
// derived depth fails with InconsistentLevelError.
func BuildForest(documentID string, rows []models.DocumentOutline) ([]*models.OutlineNode, error) {
	nodes := make(map[string]*models.OutlineNode, len(rows))
	byRow := make(map[string]models.DocumentOutline, len(rows))
	for _, row := range rows {
		nodes[row.ID] = &models.OutlineNode{
			ID:         row.ID,
			Title:      row.Title,
			Level:      row.Level,
			Position:   row.Position,
			PageNumber: row.PageNumber,
			AnchorID:   row.AnchorID,
			Children:   []*models.OutlineNode{},
		}
		byRow[row.ID] = row
	}

	// Group children by parent id; nil parent means root.
	var roots []*models.OutlineNode
	children := make(map[string][]*models.OutlineNode)
	for _, row := range rows {
		node := nodes[row.ID]
		if row.ParentID == nil {
			roots = append(roots, node)
			continue
		}
		if _, ok := nodes[*row.ParentID]; !ok {
			return nil, fmt.Errorf("outline node %s references missing parent %s: %w",
				row.ID, *row.ParentID, domain.ErrIntegrity)
		}
		children[*row.ParentID] = append(children[*row.ParentID], node)
	}

	sortSiblings(roots)
	for _, group := range children {
		sortSiblings(group)
	}

	// Attach children depth-first, validating stored levels against the
	// derived depth along the way.
	visited := 0
	var attach func(node *models.OutlineNode, depth int) error
	attach = func(node *models.OutlineNode, depth int) error {
		visited++
		if node.Level != depth {
			return &domain.InconsistentLevelError{
				OutlineID: node.ID,
				Stored:    node.Level,
				Derived:   depth,
			}
		}
		node.Children = children[node.ID]
		if node.Children == nil {
			node.Children = []*models.OutlineNode{}
		}
		for _, child := range node.Children {
			if err := attach(child, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	for _, root := range roots {
		if err := attach(root, 1); err != nil {
			return nil, err
		}
	}

	// Rows left unvisited are strongly connected through their parent
	// links without touching a root: a cycle.
	if visited != len(rows) {
		for _, row := range rows {
			if _, cyclic := inCycle(byRow, row.ID); cyclic {
				return nil, &domain.CycleError{DocumentID: documentID, OutlineID: row.ID}
			}
		}
		return nil, &domain.CycleError{DocumentID: documentID}
	}

	if roots == nil {
		roots = []*models.OutlineNode{}
	}
	return roots, nil
}

// LevelOf derives the depth of an outline row from its parent chain:
// 1 for a root, 1 + LevelOf(parent) otherwise. A chain that revisits a
// node fails with CycleError.
func LevelOf(rows []models.DocumentOutline, id string) (int, error) {
	byID := make(map[string]models.DocumentOutline, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}
	depth, cyclic := inCycle(byID, id)
	if cyclic {
		row := byID[id]
		return 0, &domain.CycleError{DocumentID: row.DocumentID, OutlineID: id}
	}
	if depth == 0 {
		return 0, fmt.Errorf("outline node %s: %w", id, domain.ErrNotFound)
	}
	return depth, nil
}

// inCycle walks the parent chain from id. It returns the derived depth
// and whether the walk revisited a node.
func inCycle(byID map[string]models.DocumentOutline, id string) (int, bool) {
	seen := make(map[string]bool)
	depth := 0
	current := id
	for {
		row, ok := byID[current]
		if !ok {
			return depth, false
		}
		if seen[current] {
			return depth, true
		}
		seen[current] = true
		depth++
		if row.ParentID == nil {
			return depth, false
		}
		current = *row.ParentID
	}
}

// Flatten returns every node of the forest in depth-first order. Useful
// for verifying that tree assembly preserves all rows.
func Flatten(forest []*models.OutlineNode) []*models.OutlineNode {
	var out []*models.OutlineNode
	var walk func(node *models.OutlineNode)
	walk = func(node *models.OutlineNode) {
		out = append(out, node)
		for _, child := range node.Children {
			walk(child)
		}
	}
	for _, root := range forest {
		walk(root)
	}
	return out
}

func sortSiblings(group []*models.OutlineNode) {
	sort.SliceStable(group, func(i, j int) bool {
		return group[i].Position < group[j].Position
	})
}

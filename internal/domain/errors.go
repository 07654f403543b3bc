package domain

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
// Implementing this interface enables extensible error handling.
type HTTPError interface {
	error
	StatusCode() int
}

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("already exists")
	ErrValidation = errors.New("validation failed")
	ErrOverlap    = errors.New("span overlaps an existing selection")
	ErrOutOfRange = errors.New("offset out of range")
	ErrIntegrity  = errors.New("data integrity violation")
)

// NotFoundError indicates a referenced entity or id is missing.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string        { return e.Message }
func (e *NotFoundError) StatusCode() int      { return http.StatusNotFound }
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ValidationError indicates missing or invalid required fields.
// Fields maps field name to the reason it was rejected.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, e.Fields[name]))
	}
	return fmt.Sprintf("%s (%s)", e.Message, strings.Join(parts, "; "))
}

func (e *ValidationError) StatusCode() int      { return http.StatusBadRequest }
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// ConflictError represents a resource conflict with details about the
// existing resource.
type ConflictError struct {
	Message      string
	ResourceType string
	ResourceID   string
}

func (e *ConflictError) Error() string        { return e.Message }
func (e *ConflictError) StatusCode() int      { return http.StatusConflict }
func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// OverlapError is returned when a requested span intersects an interval
// already reserved in the same document. The conflicting location id is
// included when known.
type OverlapError struct {
	DocumentID string
	Start      int
	End        int
	LocationID string
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("span [%d,%d) overlaps an existing selection in document %s", e.Start, e.End, e.DocumentID)
}

func (e *OverlapError) StatusCode() int { return http.StatusConflict }
func (e *OverlapError) Is(target error) bool {
	return target == ErrOverlap || target == ErrConflict
}

// OutOfRangeError is returned when an offset falls outside the extracted
// text of a document.
type OutOfRangeError struct {
	DocumentID string
	Offset     int
	Length     int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("offset %d out of range [0,%d) for document %s", e.Offset, e.Length, e.DocumentID)
}

func (e *OutOfRangeError) StatusCode() int      { return http.StatusBadRequest }
func (e *OutOfRangeError) Is(target error) bool { return target == ErrOutOfRange }

// CycleError indicates a malformed outline whose parent chain revisits a node.
type CycleError struct {
	DocumentID string
	OutlineID  string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("outline cycle detected at node %s in document %s", e.OutlineID, e.DocumentID)
}

func (e *CycleError) StatusCode() int      { return http.StatusUnprocessableEntity }
func (e *CycleError) Is(target error) bool { return target == ErrIntegrity }

// InconsistentLevelError indicates a stored outline level that diverges from
// the depth derived from the node's parent chain.
type InconsistentLevelError struct {
	OutlineID string
	Stored    int
	Derived   int
}

func (e *InconsistentLevelError) Error() string {
	return fmt.Sprintf("outline node %s has level %d but derived depth %d", e.OutlineID, e.Stored, e.Derived)
}

func (e *InconsistentLevelError) StatusCode() int      { return http.StatusUnprocessableEntity }
func (e *InconsistentLevelError) Is(target error) bool { return target == ErrIntegrity }

// ExtractionError indicates the content extraction collaborator failed.
// The document remains unprocessed and ingest may be retried.
type ExtractionError struct {
	ContentType string
	Err         error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s content: %v", e.ContentType, e.Err)
}

func (e *ExtractionError) StatusCode() int { return http.StatusUnprocessableEntity }
func (e *ExtractionError) Unwrap() error   { return e.Err }

package models

import "time"

// AnnotationKind discriminates the four annotation tables.
type AnnotationKind string

const (
	KindDefinition AnnotationKind = "definition"
	KindLink       AnnotationKind = "link"
	KindNote       AnnotationKind = "note"
	KindSynonym    AnnotationKind = "synonym"
)

// Valid reports whether k names a known annotation kind.
func (k AnnotationKind) Valid() bool {
	switch k {
	case KindDefinition, KindLink, KindNote, KindSynonym:
		return true
	}
	return false
}

// Annotation is implemented by the four annotation record types so the
// store and handlers can operate on them uniformly.
type Annotation interface {
	Kind() AnnotationKind
}

// Definition explains a selected phrase in a given context.
type Definition struct {
	ID             string    `json:"id" db:"id"`
	SelectedTextID string    `json:"selected_text_id" db:"selected_text_id"`
	Content        string    `json:"content" db:"content"`
	Context        string    `json:"context" db:"context"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

func (*Definition) Kind() AnnotationKind { return KindDefinition }

// Link is an external reference attached to a selected phrase.
type Link struct {
	ID             string    `json:"id" db:"id"`
	SelectedTextID string    `json:"selected_text_id" db:"selected_text_id"`
	URL            string    `json:"url" db:"url"`
	Title          string    `json:"title" db:"title"`
	Description    *string   `json:"description,omitempty" db:"description"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

func (*Link) Kind() AnnotationKind { return KindLink }

// Note is free-form timestamped commentary on a selected phrase.
type Note struct {
	ID             string    `json:"id" db:"id"`
	SelectedTextID string    `json:"selected_text_id" db:"selected_text_id"`
	Content        string    `json:"content" db:"content"`
	AddedAt        time.Time `json:"added_at" db:"added_at"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

func (*Note) Kind() AnnotationKind { return KindNote }

// Synonym registers an alternate phrasing for a selected text. Registering
// a synonym never creates a new SelectedText entity, even when the synonym
// text matches another entity's canonical text.
type Synonym struct {
	ID             string    `json:"id" db:"id"`
	SelectedTextID string    `json:"selected_text_id" db:"selected_text_id"`
	SynonymText    string    `json:"synonym_text" db:"synonym_text"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

func (*Synonym) Kind() AnnotationKind { return KindSynonym }

// AnnotationSet groups every annotation attached to one selected text.
type AnnotationSet struct {
	Definitions []Definition `json:"definitions"`
	Links       []Link       `json:"links"`
	Notes       []Note       `json:"notes"`
	Synonyms    []Synonym    `json:"synonyms"`
}

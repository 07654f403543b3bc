package config

const (
	// MaxDocumentTitleLength is the maximum length for document titles.
	// Limited to 255 to fit in an indexed column and keep titles short
	// and descriptive.
	MaxDocumentTitleLength = 255

	// MaxSelectionLength caps the rune length of a single text selection.
	// Selections are phrases, not chapters; anything longer is almost
	// certainly a mis-drag in the reader pane.
	MaxSelectionLength = 1000

	// MaxLinkTitleLength is the maximum length for link titles.
	MaxLinkTitleLength = 255

	// MaxURLLength is the maximum length for link URLs.
	MaxURLLength = 2048

	// TextPageSize is the rune count per page used when a source carries
	// no natural page boundaries (plain text without form feeds,
	// webpages).
	TextPageSize = 2000

	// FetchTimeoutSeconds bounds webpage downloads during extraction.
	FetchTimeoutSeconds = 30
)

package sources

import (
	"context"
	"errors"
)

// ErrMalformed is returned when an upstream document lacks a field the sync depends on
var ErrMalformed = errors.New("malformed upstream document")

//go:generate mockgen -destination=mocks/mock_source.go -package=mocks -source=source.go ContentSource

// ContentSource reads blog entries and the sub-resources they reference
type ContentSource interface {
	// ListEntries returns one page of blog entries, newest first
	ListEntries(ctx context.Context, skip, limit int) (*EntryPage, error)

	// GetAssetURL returns the file URL of the media asset with the given id
	GetAssetURL(ctx context.Context, assetID string) (string, error)

	// GetAuthor returns the author profile entry with the given id
	GetAuthor(ctx context.Context, authorID string) (*AuthorProfile, error)
}

// EntryPage is one page of a listing
type EntryPage struct {
	Items []Entry

	// Total is the number of entries matching the listing, across all pages
	Total int
}

// AuthorProfile holds the localized fields of an author profile entry
type AuthorProfile struct {
	ID          string
	Slug        string
	DisplayName string

	// Thumbnail is the avatar URL
	Thumbnail string
}

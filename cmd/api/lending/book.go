package lending

import (
	"time"

	"github.com/google/uuid"
)

type Book struct {
	ID            uuid.UUID
	Title         string
	Author        string
	ISBN          string
	CoverImage    string
	PublishedYear int
	Category      string
	IsAvailable   bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type CreateBookRequest struct {
	Title         string
	Author        string
	ISBN          string
	CoverImage    string
	PublishedYear int
	Category      string
}

/* Verifies if the mandatory entry fields are filled and returns a warning message if not. */
func FilledFields(req CreateBookRequest) error {
	if req.Title == "" {
		return ErrResponseBookEntryBlankFields
	}
	if req.Author == "" {
		return ErrResponseBookEntryBlankFields
	}

	return nil
}

const (
	SearchByTitle  = "title"
	SearchByAuthor = "author"
	SearchByISBN   = "isbn"
)

const PageSizeMax = 30

type ListBooksRequest struct {
	Search        string
	SearchBy      string
	Category      string
	AvailableOnly bool
	SortBy        string
	SortDirection string
	Page          int
	PageSize      int
}

// BookQuery is a ListBooksRequest with the search term already normalized,
// as the stores receive it.
type BookQuery struct {
	Search        string
	SearchBy      string
	Category      string
	AvailableOnly bool
	SortBy        string
	SortDirection string
	Page          int
	PageSize      int
}

type PagedBooks struct {
	PageCurrent int
	PageTotal   int
	PageSize    int
	ItemsTotal  int
	Results     []Book
}

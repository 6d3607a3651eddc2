package lending

import (
	"context"

	"github.com/google/uuid"
)

func (s *Service) CreateBook(ctx context.Context, req CreateBookRequest) (Book, error) {
	if err := FilledFields(req); err != nil {
		return Book{}, err
	}

	createdAt := s.now()
	newBook := Book{
		ID:            uuid.New(),
		Title:         req.Title,
		Author:        req.Author,
		ISBN:          req.ISBN,
		CoverImage:    req.CoverImage,
		PublishedYear: req.PublishedYear,
		Category:      req.Category,
		IsAvailable:   true,
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
	}

	createdBook, err := s.repo.CreateBook(ctx, newBook)
	if err != nil {
		return Book{}, repoError("CreateBook", err)
	}
	return createdBook, nil
}

func (s *Service) GetBook(ctx context.Context, id uuid.UUID) (Book, error) {
	if cached, ok := s.cache.GetBook(id); ok {
		return cached, nil
	}

	gen := s.cache.Generation()
	b, err := s.repo.GetBookByID(ctx, id)
	if err != nil {
		return Book{}, repoError("GetBook", err)
	}
	s.cache.AddBook(gen, b)
	return b, nil
}

func (s *Service) ListBooks(ctx context.Context, req ListBooksRequest) (PagedBooks, error) {
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 {
		req.PageSize = 10
	}

	q := BookQuery{
		Search:        NormalizeSearch(req.Search),
		SearchBy:      req.SearchBy,
		Category:      req.Category,
		AvailableOnly: req.AvailableOnly,
		SortBy:        req.SortBy,
		SortDirection: req.SortDirection,
		Page:          req.Page,
		PageSize:      req.PageSize,
	}

	itemsTotal, err := s.repo.ListBooksTotals(ctx, q)
	if err != nil {
		return PagedBooks{}, repoError("ListBooksTotals", err)
	}
	if itemsTotal == 0 {
		return PagedBooks{Results: []Book{}}, nil
	}

	pageTotal := (itemsTotal + req.PageSize - 1) / req.PageSize
	if req.Page > pageTotal {
		return PagedBooks{}, ErrResponseQueryPageOutOfRange
	}

	books, err := s.repo.ListBooks(ctx, q)
	if err != nil {
		return PagedBooks{}, repoError("ListBooks", err)
	}

	return PagedBooks{
		PageCurrent: req.Page,
		PageTotal:   pageTotal,
		PageSize:    req.PageSize,
		ItemsTotal:  itemsTotal,
		Results:     books,
	}, nil
}

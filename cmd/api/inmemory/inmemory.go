package inmemory

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-memdb"
	"github.com/lending-service/cmd/api/lending"
)

type InMemoryStore struct {
	db *memdb.MemDB
	// exc is set only on stores returned by BeginTx.
	exc *memdb.Txn
}

func NewInMemoryStore() (*InMemoryStore, error) {
	// Define the schema
	schema := &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			"book": {
				Name: "book",
				Indexes: map[string]*memdb.IndexSchema{
					"id": {
						Name:    "id",
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "ID"},
					},
				},
			},
			"loan": {
				Name: "loan",
				Indexes: map[string]*memdb.IndexSchema{
					"id": {
						Name:    "id",
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "ID"},
					},
					"user_status": { // Composite index for a user's loans in a given status
						Name:   "user_status",
						Unique: false,
						Indexer: &memdb.CompoundIndex{
							Indexes: []memdb.Indexer{
								&memdb.StringFieldIndex{Field: "UserID"},
								&memdb.StringFieldIndex{Field: "Status"},
							},
						},
					},
					"book_status": {
						Name:   "book_status",
						Unique: false,
						Indexer: &memdb.CompoundIndex{
							Indexes: []memdb.Indexer{
								&memdb.StringFieldIndex{Field: "BookID"},
								&memdb.StringFieldIndex{Field: "Status"},
							},
						},
					},
					"status": {
						Name:    "status",
						Unique:  false,
						Indexer: &memdb.StringFieldIndex{Field: "Status"},
					},
				},
			},
			"returned_loan": {
				Name: "returned_loan",
				Indexes: map[string]*memdb.IndexSchema{
					"id": {
						Name:    "id",
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "ID"},
					},
				},
			},
		},
	}

	if err := schema.Validate(); err != nil {
		return nil, fmt.Errorf("validating in-memory schema: %w", err)
	}

	db, err := memdb.NewMemDB(schema)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize in-memory database: %w", err)
	}
	return &InMemoryStore{db: db, exc: nil}, nil
}

type AdaptedBook struct {
	ID            string
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

func adaptBookIdToString(b lending.Book) AdaptedBook {
	return AdaptedBook{
		ID:            b.ID.String(),
		Title:         b.Title,
		Author:        b.Author,
		ISBN:          b.ISBN,
		CoverImage:    b.CoverImage,
		PublishedYear: b.PublishedYear,
		Category:      b.Category,
		IsAvailable:   b.IsAvailable,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
}

func adaptBookIdToUUID(adptBook AdaptedBook) lending.Book {
	return lending.Book{
		ID:            uuid.MustParse(adptBook.ID),
		Title:         adptBook.Title,
		Author:        adptBook.Author,
		ISBN:          adptBook.ISBN,
		CoverImage:    adptBook.CoverImage,
		PublishedYear: adptBook.PublishedYear,
		Category:      adptBook.Category,
		IsAvailable:   adptBook.IsAvailable,
		CreatedAt:     adptBook.CreatedAt,
		UpdatedAt:     adptBook.UpdatedAt,
	}
}

type AdaptedLoan struct {
	ID         string
	UserID     string
	BookID     string
	BorrowDate time.Time
	DueDate    time.Time
	ReturnDate *time.Time
	Status     string
}

func adaptLoanIdToString(l lending.Loan) AdaptedLoan {
	return AdaptedLoan{
		ID:         l.ID.String(),
		UserID:     l.UserID.String(),
		BookID:     l.BookID.String(),
		BorrowDate: l.BorrowDate,
		DueDate:    l.DueDate,
		ReturnDate: l.ReturnDate,
		Status:     string(l.Status),
	}
}

// ReturnedLoanMarker is what remains of a loan deleted on return.
type ReturnedLoanMarker struct {
	ID         string
	UserID     string
	BookID     string
	ReturnedAt time.Time
}

func (m ReturnedLoanMarker) loan() lending.Loan {
	returnedAt := m.ReturnedAt
	return lending.Loan{
		ID:         uuid.MustParse(m.ID),
		UserID:     uuid.MustParse(m.UserID),
		BookID:     uuid.MustParse(m.BookID),
		ReturnDate: &returnedAt,
		Status:     lending.StatusReturned,
	}
}

func adaptLoanIdToUUID(adptLoan AdaptedLoan) lending.Loan {
	return lending.Loan{
		ID:         uuid.MustParse(adptLoan.ID),
		UserID:     uuid.MustParse(adptLoan.UserID),
		BookID:     uuid.MustParse(adptLoan.BookID),
		BorrowDate: adptLoan.BorrowDate,
		DueDate:    adptLoan.DueDate,
		ReturnDate: adptLoan.ReturnDate,
		Status:     lending.LoanStatus(adptLoan.Status),
	}
}

/*
Returns the transaction a method must run in. Outside BeginTx a fresh one is opened and
insideTx is false: the caller then owns it and must commit (writes) and abort it.
*/
func (store *InMemoryStore) txn(write bool) (txn *memdb.Txn, insideTx bool) {
	if store.exc != nil {
		return store.exc, true
	}
	return store.db.Txn(write), false
}

// -- Books --

func (store *InMemoryStore) CreateBook(ctx context.Context, bookEntry lending.Book) (lending.Book, error) {
	txn, insideTx := store.txn(true)
	if !insideTx {
		defer txn.Abort()
	}

	err := txn.Insert("book", adaptBookIdToString(bookEntry))
	if err != nil {
		return lending.Book{}, fmt.Errorf("storing book on db: %w", err)
	}

	raw, err := txn.First("book", "id", bookEntry.ID.String())
	if err != nil {
		return lending.Book{}, fmt.Errorf("storing book on db: %w", err)
	}
	if raw == nil {
		return lending.Book{}, fmt.Errorf("storing book on db: %w", lending.ErrResponseBookNotFound)
	}

	if !insideTx {
		txn.Commit()
	}

	return adaptBookIdToUUID(raw.(AdaptedBook)), nil
}

func (store *InMemoryStore) GetBookByID(ctx context.Context, id uuid.UUID) (lending.Book, error) {
	txn, insideTx := store.txn(false)
	if !insideTx {
		defer txn.Abort()
	}

	raw, err := txn.First("book", "id", id.String())
	if err != nil {
		return lending.Book{}, fmt.Errorf("searching by ID: %w", err)
	}
	if raw == nil {
		return lending.Book{}, fmt.Errorf("searching by ID: %w", lending.ErrResponseBookNotFound)
	}

	return adaptBookIdToUUID(raw.(AdaptedBook)), nil
}

func (store *InMemoryStore) UpdateBookAvailability(ctx context.Context, id uuid.UUID, expected, available bool) (lending.Book, error) {
	txn, insideTx := store.txn(true)
	if !insideTx {
		defer txn.Abort()
	}

	raw, err := txn.First("book", "id", id.String())
	if err != nil {
		return lending.Book{}, fmt.Errorf("updating availability on db: %w", err)
	}
	if raw == nil {
		return lending.Book{}, fmt.Errorf("updating availability on db: %w", lending.ErrResponseBookNotFound)
	}

	updatedBook := raw.(AdaptedBook)
	if updatedBook.IsAvailable != expected {
		return lending.Book{}, fmt.Errorf("updating availability on db: %w", lending.ErrResponseAvailabilityConflict)
	}
	updatedBook.IsAvailable = available
	updatedBook.UpdatedAt = time.Now().UTC().Round(time.Millisecond)

	if err := txn.Insert("book", updatedBook); err != nil {
		return lending.Book{}, fmt.Errorf("updating availability on db: %w", err)
	}

	if !insideTx {
		txn.Commit()
	}
	return adaptBookIdToUUID(updatedBook), nil
}

func (store *InMemoryStore) ListAllBooks(ctx context.Context) ([]lending.Book, error) {
	txn, insideTx := store.txn(false)
	if !insideTx {
		defer txn.Abort()
	}

	it, err := txn.Get("book", "id")
	if err != nil {
		return nil, fmt.Errorf("listing all books from db: %w", err)
	}

	books := []lending.Book{}
	for obj := it.Next(); obj != nil; obj = it.Next() {
		books = append(books, adaptBookIdToUUID(obj.(AdaptedBook)))
	}
	return books, nil
}

/* Returns the books matching the query, sorted and cut to the requested page. */
func (store *InMemoryStore) ListBooks(ctx context.Context, q lending.BookQuery) ([]lending.Book, error) {
	books, err := store.filterBooks(q)
	if err != nil {
		return []lending.Book{}, fmt.Errorf("listing books from db: %w", err)
	}

	booksSorted := sortBooks(q.SortBy, q.SortDirection, books)

	// Apply pagination
	start := (q.Page - 1) * q.PageSize
	if start < 0 || start >= len(booksSorted) {
		return []lending.Book{}, nil
	}
	end := start + q.PageSize
	if end > len(booksSorted) {
		end = len(booksSorted)
	}

	return booksSorted[start:end], nil
}

func (store *InMemoryStore) ListBooksTotals(ctx context.Context, q lending.BookQuery) (int, error) {
	books, err := store.filterBooks(q)
	if err != nil {
		return 0, fmt.Errorf("counting books from db: %w", err)
	}
	return len(books), nil
}

func (store *InMemoryStore) filterBooks(q lending.BookQuery) ([]lending.Book, error) {
	txn, insideTx := store.txn(false)
	if !insideTx {
		defer txn.Abort()
	}

	it, err := txn.Get("book", "id")
	if err != nil {
		return nil, err
	}

	books := []lending.Book{}
	for obj := it.Next(); obj != nil; obj = it.Next() {
		b := adaptBookIdToUUID(obj.(AdaptedBook))
		if q.AvailableOnly && !b.IsAvailable {
			continue
		}
		if q.Category != "" && !strings.EqualFold(b.Category, q.Category) {
			continue
		}
		if q.Search != "" && !strings.Contains(lending.SearchField(b, q.SearchBy), q.Search) {
			continue
		}
		books = append(books, b)
	}
	return books, nil
}

func sortBooks(sortBy, sortDirection string, books []lending.Book) []lending.Book {
	desc := sortDirection == "desc"
	sort.SliceStable(books, func(i, j int) bool {
		a, b := books[i], books[j]
		if desc {
			a, b = b, a
		}
		switch sortBy {
		case "author":
			return a.Author < b.Author
		case "published_year":
			return a.PublishedYear < b.PublishedYear
		case "created_at":
			return a.CreatedAt.Before(b.CreatedAt)
		default:
			return a.Title < b.Title
		}
	})
	return books
}

// -- Loans --

func (store *InMemoryStore) CreateLoan(ctx context.Context, newLoan lending.Loan) (lending.Loan, error) {
	txn, insideTx := store.txn(true)
	if !insideTx {
		defer txn.Abort()
	}

	if newLoan.Active() {
		existing, err := txn.First("loan", "book_status", newLoan.BookID.String(), string(lending.StatusBorrowed))
		if err != nil {
			return lending.Loan{}, fmt.Errorf("storing loan on db: %w", err)
		}
		if existing != nil {
			return lending.Loan{}, fmt.Errorf("storing loan on db: %w", lending.ErrResponseAvailabilityConflict)
		}
	}

	if err := txn.Insert("loan", adaptLoanIdToString(newLoan)); err != nil {
		return lending.Loan{}, fmt.Errorf("storing loan on db: %w", err)
	}

	if !insideTx {
		txn.Commit()
	}
	return newLoan, nil
}

func (store *InMemoryStore) GetLoanByID(ctx context.Context, id uuid.UUID) (lending.Loan, error) {
	txn, insideTx := store.txn(false)
	if !insideTx {
		defer txn.Abort()
	}

	raw, err := txn.First("loan", "id", id.String())
	if err != nil {
		return lending.Loan{}, fmt.Errorf("getting loan from db: %w", err)
	}
	if raw != nil {
		return adaptLoanIdToUUID(raw.(AdaptedLoan)), nil
	}

	//A loan deleted on return is still known as returned.
	raw, err = txn.First("returned_loan", "id", id.String())
	if err != nil {
		return lending.Loan{}, fmt.Errorf("getting loan from db: %w", err)
	}
	if raw == nil {
		return lending.Loan{}, fmt.Errorf("getting loan from db: %w", lending.ErrResponseLoanNotFound)
	}
	return raw.(ReturnedLoanMarker).loan(), nil
}

/* Patches the return date and status of a stored loan. The other fields are fixed at creation. */
func (store *InMemoryStore) UpdateLoan(ctx context.Context, loanEntry lending.Loan) (lending.Loan, error) {
	txn, insideTx := store.txn(true)
	if !insideTx {
		defer txn.Abort()
	}

	raw, err := txn.First("loan", "id", loanEntry.ID.String())
	if err != nil {
		return lending.Loan{}, fmt.Errorf("updating loan on db: %w", err)
	}
	if raw == nil {
		return lending.Loan{}, fmt.Errorf("updating loan on db: %w", lending.ErrResponseLoanNotFound)
	}

	updatedLoan := raw.(AdaptedLoan)
	updatedLoan.ReturnDate = loanEntry.ReturnDate
	updatedLoan.Status = string(loanEntry.Status)

	if err := txn.Insert("loan", updatedLoan); err != nil {
		return lending.Loan{}, fmt.Errorf("updating loan on db: %w", err)
	}

	if !insideTx {
		txn.Commit()
	}
	return adaptLoanIdToUUID(updatedLoan), nil
}

/* Removes the loan and leaves a marker, so the id keeps resolving to a returned loan. */
func (store *InMemoryStore) DeleteLoan(ctx context.Context, id uuid.UUID) error {
	txn, insideTx := store.txn(true)
	if !insideTx {
		defer txn.Abort()
	}

	raw, err := txn.First("loan", "id", id.String())
	if err != nil {
		return fmt.Errorf("deleting loan from db: %w", err)
	}
	if raw == nil {
		return fmt.Errorf("deleting loan from db: %w", lending.ErrResponseLoanNotFound)
	}
	deleted := raw.(AdaptedLoan)

	if err := txn.Delete("loan", deleted); err != nil {
		return fmt.Errorf("deleting loan from db: %w", err)
	}

	marker := ReturnedLoanMarker{
		ID:         deleted.ID,
		UserID:     deleted.UserID,
		BookID:     deleted.BookID,
		ReturnedAt: time.Now().UTC().Round(time.Millisecond),
	}
	if deleted.ReturnDate != nil {
		marker.ReturnedAt = *deleted.ReturnDate
	}
	if err := txn.Insert("returned_loan", marker); err != nil {
		return fmt.Errorf("deleting loan from db: %w", err)
	}

	if !insideTx {
		txn.Commit()
	}
	return nil
}

func (store *InMemoryStore) ListLoans(ctx context.Context, userID uuid.UUID, status lending.LoanStatus) ([]lending.Loan, error) {
	txn, insideTx := store.txn(false)
	if !insideTx {
		defer txn.Abort()
	}

	it, err := txn.Get("loan", "user_status", userID.String(), string(status))
	if err != nil {
		return nil, fmt.Errorf("listing loans from db: %w", err)
	}
	return collectLoans(it), nil
}

func (store *InMemoryStore) ListLoansByStatus(ctx context.Context, status lending.LoanStatus) ([]lending.Loan, error) {
	txn, insideTx := store.txn(false)
	if !insideTx {
		defer txn.Abort()
	}

	it, err := txn.Get("loan", "status", string(status))
	if err != nil {
		return nil, fmt.Errorf("listing loans by status from db: %w", err)
	}
	return collectLoans(it), nil
}

func collectLoans(it memdb.ResultIterator) []lending.Loan {
	loans := []lending.Loan{}
	for obj := it.Next(); obj != nil; obj = it.Next() {
		loans = append(loans, adaptLoanIdToUUID(obj.(AdaptedLoan)))
	}
	sort.Slice(loans, func(i, j int) bool {
		return loans[i].BorrowDate.Before(loans[j].BorrowDate)
	})
	return loans
}

// -- Transactions --

// BeginTx opens a write transaction. memdb admits one writer at a time, so
// every transaction started here is serialized with the others.
func (store *InMemoryStore) BeginTx(ctx context.Context, opts *sql.TxOptions) (lending.Repository, driver.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, fmt.Errorf("beginning transaction: %w", err)
	}
	txn := store.db.Txn(true)
	if txn == nil {
		return nil, nil, fmt.Errorf("failed to create transaction")
	}

	txWrapper := &TxWrapper{ctx: ctx, txn: txn}
	txStore := &InMemoryStore{
		db:  store.db,
		exc: txWrapper.txn,
	}

	return txStore, txWrapper, nil
}

type TxWrapper struct {
	ctx  context.Context
	txn  *memdb.Txn
	done bool
}

// Commit aborts instead when the context that began the transaction has
// ended, so an abandoned request leaves nothing behind.
func (tx *TxWrapper) Commit() error {
	if tx.done {
		return sql.ErrTxDone
	}
	tx.done = true
	if err := tx.ctx.Err(); err != nil {
		tx.txn.Abort()
		return fmt.Errorf("committing transaction: %w", err)
	}
	tx.txn.Commit()
	return nil
}

func (tx *TxWrapper) Rollback() error {
	if tx.done {
		return sql.ErrTxDone
	}
	tx.done = true
	tx.txn.Abort()
	return nil
}

package database_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/google/uuid"
	"github.com/lending-service/cmd/api/database"
	"github.com/lending-service/cmd/api/lending"
	"github.com/matryer/is"
)

var store *database.Store
var sqlDB *sql.DB
var ctx context.Context = context.Background()

// TestMain is called before all the tests run.
// Usually is where we add logic to initialise resources.
func TestMain(m *testing.M) {
	connStr := os.Getenv("DATABASE_URL")
	if connStr == "" {
		log.Println("DATABASE_URL not set, skipping database tests")
		os.Exit(0)
	}

	// Setting up the database for tests.
	var err error
	sqlDB, err = database.ConnectDb(connStr)
	if err != nil {
		log.Fatalln(err)
	}

	store = database.NewStore(sqlDB)
	path := os.Getenv("DATABASE_MIGRATIONS_PATH")
	if path == "" {
		path = "../../../migrations"
	}
	err = database.MigrationUp(store, path)
	if err != nil {
		if !errors.Is(err, migrate.ErrNoChange) {
			log.Fatalln(err)
		}
		log.Println(err)
	}

	os.Exit(m.Run())
}

func newBook(title string) lending.Book {
	createdNow := time.Now().UTC().Round(time.Millisecond)
	return lending.Book{
		ID:            uuid.New(),
		Title:         title,
		Author:        "Some Author",
		ISBN:          "978-0-00-000000-0",
		PublishedYear: 2001,
		Category:      "fiction",
		IsAvailable:   true,
		CreatedAt:     createdNow,
		UpdatedAt:     createdNow,
	}
}

func newActiveLoan(userID, bookID uuid.UUID) lending.Loan {
	borrowDate := time.Now().UTC().Round(time.Millisecond)
	return lending.Loan{
		ID:         uuid.New(),
		UserID:     userID,
		BookID:     bookID,
		BorrowDate: borrowDate,
		DueDate:    borrowDate.Add(lending.LoanPeriod),
		Status:     lending.StatusBorrowed,
	}
}

func TestCreateBook(t *testing.T) {
	// Removing all data from the test database.
	// We don't want to the database to be tainted with
	// this test data in another tests.
	t.Cleanup(func() {
		teardownDB(t)
	})

	t.Run("creates a book without errors", func(t *testing.T) {
		is := is.New(t)

		b := newBook("A new book")

		createdBook, err := store.CreateBook(ctx, b)
		is.NoErr(err)
		compareBooks(is, createdBook, b)
	})
}

func TestGetBook(t *testing.T) {
	t.Cleanup(func() {
		teardownDB(t)
	})

	t.Run("gets a book by ID without errors", func(t *testing.T) {
		is := is.New(t)

		b := newBook("A book to be fetched")
		_, err := store.CreateBook(ctx, b)
		is.NoErr(err)

		fetchedBook, err := store.GetBookByID(ctx, b.ID)
		is.NoErr(err)
		compareBooks(is, fetchedBook, b)
	})

	t.Run("gets a non existing book should return a not found error", func(t *testing.T) {
		is := is.New(t)

		_, err := store.GetBookByID(ctx, uuid.New())
		is.True(errors.Is(err, lending.ErrResponseBookNotFound))
	})
}

func TestUpdateBookAvailability(t *testing.T) {
	t.Cleanup(func() {
		teardownDB(t)
	})

	t.Run("flips the flag when it matches the expected value", func(t *testing.T) {
		is := is.New(t)

		b := newBook("A book to be borrowed")
		_, err := store.CreateBook(ctx, b)
		is.NoErr(err)

		updatedBook, err := store.UpdateBookAvailability(ctx, b.ID, true, false)
		is.NoErr(err)
		is.True(!updatedBook.IsAvailable)
	})

	t.Run("a stale expected value is a conflict", func(t *testing.T) {
		is := is.New(t)

		b := newBook("A book already lent")
		b.IsAvailable = false
		_, err := store.CreateBook(ctx, b)
		is.NoErr(err)

		_, err = store.UpdateBookAvailability(ctx, b.ID, true, false)
		is.True(errors.Is(err, lending.ErrResponseAvailabilityConflict))
	})

	t.Run("a non existing book should return a not found error", func(t *testing.T) {
		is := is.New(t)

		_, err := store.UpdateBookAvailability(ctx, uuid.New(), true, false)
		is.True(errors.Is(err, lending.ErrResponseBookNotFound))
	})
}

func TestListBooks(t *testing.T) {
	t.Cleanup(func() {
		teardownDB(t)
	})

	is := is.New(t)
	listSize := 12
	for i := 0; i < listSize; i++ {
		b := newBook(fmt.Sprintf("Book number %06v", i))
		b.PublishedYear = 1990 + i
		if i%3 == 0 {
			b.Category = "Poetry"
			b.IsAvailable = false
		}
		_, err := store.CreateBook(ctx, b)
		is.NoErr(err)
	}

	t.Run("lists the first page sorted by title", func(t *testing.T) {
		is := is.New(t)

		q := lending.BookQuery{SortBy: "title", SortDirection: "asc", Page: 1, PageSize: 5}
		books, err := store.ListBooks(ctx, q)
		is.NoErr(err)
		is.Equal(len(books), 5)
		is.Equal(books[0].Title, "Book number 000000")

		total, err := store.ListBooksTotals(ctx, q)
		is.NoErr(err)
		is.Equal(total, listSize)
	})

	t.Run("the last page holds the remainder", func(t *testing.T) {
		is := is.New(t)

		q := lending.BookQuery{SortBy: "published_year", SortDirection: "desc", Page: 3, PageSize: 5}
		books, err := store.ListBooks(ctx, q)
		is.NoErr(err)
		is.Equal(len(books), 2)
		is.Equal(books[1].PublishedYear, 1990)
	})

	t.Run("filters by category ignoring case and by availability", func(t *testing.T) {
		is := is.New(t)

		q := lending.BookQuery{Category: "poetry", Page: 1, PageSize: 30}
		total, err := store.ListBooksTotals(ctx, q)
		is.NoErr(err)
		is.Equal(total, 4)

		q.AvailableOnly = true
		total, err = store.ListBooksTotals(ctx, q)
		is.NoErr(err)
		is.Equal(total, 0)
	})

	t.Run("searches the normalized title", func(t *testing.T) {
		is := is.New(t)

		q := lending.BookQuery{Search: lending.NormalizeSearch("NUMBER 00001"), SearchBy: lending.SearchByTitle, Page: 1, PageSize: 30}
		books, err := store.ListBooks(ctx, q)
		is.NoErr(err)
		is.Equal(len(books), 2)
	})
}

func TestLoans(t *testing.T) {
	t.Cleanup(func() {
		teardownDB(t)
	})

	t.Run("creates, returns and lists loans", func(t *testing.T) {
		is := is.New(t)

		b := newBook("A book to lend")
		_, err := store.CreateBook(ctx, b)
		is.NoErr(err)

		userID := uuid.New()
		l := newActiveLoan(userID, b.ID)
		createdLoan, err := store.CreateLoan(ctx, l)
		is.NoErr(err)
		is.Equal(createdLoan.ID, l.ID)
		is.True(createdLoan.ReturnDate == nil)

		active, err := store.ListLoans(ctx, userID, lending.StatusBorrowed)
		is.NoErr(err)
		is.Equal(len(active), 1)

		returnedAt := time.Now().UTC().Round(time.Millisecond)
		l.ReturnDate = &returnedAt
		l.Status = lending.StatusReturned
		updatedLoan, err := store.UpdateLoan(ctx, l)
		is.NoErr(err)
		is.Equal(updatedLoan.Status, lending.StatusReturned)
		is.True(updatedLoan.ReturnDate.Equal(returnedAt))

		active, err = store.ListLoans(ctx, userID, lending.StatusBorrowed)
		is.NoErr(err)
		is.Equal(len(active), 0)

		err = store.DeleteLoan(ctx, l.ID)
		is.NoErr(err)
		deletedLoan, err := store.GetLoanByID(ctx, l.ID)
		is.NoErr(err) // a loan deleted on return still resolves as returned
		is.Equal(deletedLoan.UserID, userID)
		is.Equal(deletedLoan.Status, lending.StatusReturned)
		is.True(deletedLoan.ReturnDate.Equal(returnedAt))

		err = store.DeleteLoan(ctx, l.ID)
		is.True(errors.Is(err, lending.ErrResponseLoanNotFound))

		_, err = store.GetLoanByID(ctx, uuid.New())
		is.True(errors.Is(err, lending.ErrResponseLoanNotFound))
	})

	t.Run("a second active loan of the same book is a conflict", func(t *testing.T) {
		is := is.New(t)

		b := newBook("A book lent twice")
		_, err := store.CreateBook(ctx, b)
		is.NoErr(err)

		_, err = store.CreateLoan(ctx, newActiveLoan(uuid.New(), b.ID))
		is.NoErr(err)

		_, err = store.CreateLoan(ctx, newActiveLoan(uuid.New(), b.ID))
		is.True(errors.Is(err, lending.ErrResponseAvailabilityConflict))
	})
}

func TestConcurrentBorrowTx(t *testing.T) {
	t.Cleanup(func() {
		teardownDB(t)
	})

	is := is.New(t)
	b := newBook("A contended book")
	_, err := store.CreateBook(ctx, b)
	is.NoErr(err)

	svc := lending.NewService(store, nil, time.Second)

	borrowers := 8
	var wg sync.WaitGroup
	errs := make(chan error, borrowers)
	for i := 0; i < borrowers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.BorrowBook(ctx, uuid.New(), b.ID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		is.True(errors.Is(err, lending.ErrResponseBookNotAvailable))
	}
	is.Equal(succeeded, 1)

	active, err := store.ListLoansByStatus(ctx, lending.StatusBorrowed)
	is.NoErr(err)
	is.Equal(len(active), 1)

	fetchedBook, err := store.GetBookByID(ctx, b.ID)
	is.NoErr(err)
	is.True(!fetchedBook.IsAvailable)
}

func teardownDB(t *testing.T) {
	is := is.New(t)

	// Truncating books and loans tables, cleaning up all the records.
	result, err := sqlDB.Exec(`TRUNCATE TABLE public.returned_loans, public.loans, public.books CASCADE`)
	is.NoErr(err)

	_, err = result.RowsAffected()
	is.NoErr(err)
}

// compareBooks asserts that two books are equal,
// handling time.Time values correctly.
func compareBooks(is *is.I, a, b lending.Book) {
	is.Helper()

	// Make sure we have the correct timestamps.
	is.True(a.CreatedAt.Equal(b.CreatedAt))
	is.True(a.UpdatedAt.Equal(b.UpdatedAt))

	// Overwrite to be able to compare them.
	b.CreatedAt = a.CreatedAt
	b.UpdatedAt = a.UpdatedAt

	// Assert that they are equal.
	is.Equal(a, b)
}

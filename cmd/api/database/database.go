package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/google/uuid"
	"github.com/lending-service/cmd/api/lending"
	"github.com/lib/pq"

	_ "github.com/golang-migrate/migrate/v4/source/file"
)

const (
	dialectPostgres = "postgres"
	tableBooks      = "books"

	// pq error codes
	uniqueViolation = "23505"
	checkViolation  = "23514"
)

type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db  *sql.DB
	exc *Executor
}

type Executor struct {
	DBTX
}

func NewStore(db *sql.DB) *Store {
	CurrentStore := &Store{
		db:  db,
		exc: NewExc(db),
	}
	return CurrentStore
}

func NewExc(dbtx DBTX) *Executor {
	return &Executor{DBTX: dbtx}
}

func (store *Store) BeginTx(ctx context.Context, opts *sql.TxOptions) (lending.Repository, driver.Tx, error) {
	tx, err := store.db.BeginTx(ctx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("beginning transaction: %w", err)
	}

	txRepo := NewStore(store.db)
	txRepo.exc = NewExc(tx)
	return txRepo, tx, nil
}

/* Connects to the database trought a connection string and returns a pointer to a valid DB object (*sql.DB). */
func ConnectDb(connStr string) (*sql.DB, error) {

	sqlDB, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("connecting to db, openning: %w", err)
	}

	err = sqlDB.Ping()
	if err != nil {
		return nil, fmt.Errorf("connecting to db, pingging: %w", err)
	}

	log.Println("Successfully connected!")
	return sqlDB, nil
}

func newMigrate(store *Store, path string) (*migrate.Migrate, error) {
	driver, err := postgres.WithInstance(store.db, &postgres.Config{})
	if err != nil {
		return nil, err
	}

	return migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", path),
		"postgres", driver)
}

/* Applies every pending migration. An up to date schema returns migrate.ErrNoChange. */
func MigrationUp(store *Store, path string) error {
	m, err := newMigrate(store, path)
	if err != nil {
		return fmt.Errorf("migrating up: %w", err)
	}

	err = m.Up()
	if err != nil {
		return fmt.Errorf("migrating up: %w", err)
	}
	return nil
}

func MigrationDown(store *Store, path string) error {
	m, err := newMigrate(store, path)
	if err != nil {
		return fmt.Errorf("migrating down: %w", err)
	}

	err = m.Down()
	if err != nil {
		return fmt.Errorf("migrating down: %w", err)
	}
	return nil
}

// -- Books --

const bookColumns = `id, title, author, isbn, cover_image, published_year, category, is_available, created_at, updated_at`

var bookColumnsGoqu = []any{"id", "title", "author", "isbn", "cover_image", "published_year", "category", "is_available", "created_at", "updated_at"}

type scanner interface {
	Scan(dest ...any) error
}

func scanBook(row scanner) (lending.Book, error) {
	var b lending.Book
	err := row.Scan(&b.ID, &b.Title, &b.Author, &b.ISBN, &b.CoverImage, &b.PublishedYear, &b.Category, &b.IsAvailable, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

/* Stores the book into the database together with its normalized search columns, and returns it if succeed. */
func (store *Store) CreateBook(ctx context.Context, bookEntry lending.Book) (lending.Book, error) {
	sqlStatement := `
	INSERT INTO books (id, title, author, isbn, cover_image, published_year, category, is_available, created_at, updated_at,
		search_title, search_author, search_isbn)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	RETURNING ` + bookColumns
	createdRow := store.exc.QueryRowContext(ctx, sqlStatement,
		bookEntry.ID, bookEntry.Title, bookEntry.Author, bookEntry.ISBN, bookEntry.CoverImage, bookEntry.PublishedYear,
		bookEntry.Category, bookEntry.IsAvailable, bookEntry.CreatedAt, bookEntry.UpdatedAt,
		lending.NormalizeSearch(bookEntry.Title), lending.NormalizeSearch(bookEntry.Author), lending.NormalizeSearch(bookEntry.ISBN))
	bookToReturn, err := scanBook(createdRow)
	if err != nil {
		return lending.Book{}, fmt.Errorf("storing book on db: %w", err)
	}

	return bookToReturn, nil
}

/* Searches a book in database based on ID and returns it if succeed. */
func (store *Store) GetBookByID(ctx context.Context, id uuid.UUID) (lending.Book, error) {
	sqlStatement := `SELECT ` + bookColumns + `
	FROM books
	WHERE id=$1;`
	bookToReturn, err := scanBook(store.exc.QueryRowContext(ctx, sqlStatement, id))
	if err != nil {
		switch err {
		case sql.ErrNoRows:
			return lending.Book{}, fmt.Errorf("searching by ID: %w", lending.ErrResponseBookNotFound)
		default:
			return lending.Book{}, fmt.Errorf("searching by ID: %w", err)
		}
	}

	return bookToReturn, nil
}

/*
Sets is_available only when it still holds the expected value. When no row is updated
the book either does not exist or its flag changed underneath the caller.
*/
func (store *Store) UpdateBookAvailability(ctx context.Context, id uuid.UUID, expected, available bool) (lending.Book, error) {
	sqlStatement := `
	UPDATE books
	SET is_available = $3, updated_at = $4
	WHERE id = $1 AND is_available = $2
	RETURNING ` + bookColumns
	updatedRow := store.exc.QueryRowContext(ctx, sqlStatement, id, expected, available, time.Now().UTC().Round(time.Millisecond))
	bookToReturn, err := scanBook(updatedRow)
	if err == nil {
		return bookToReturn, nil
	}
	if err != sql.ErrNoRows {
		return lending.Book{}, fmt.Errorf("updating availability on db: %w", err)
	}

	var exists bool
	err = store.exc.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM books WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return lending.Book{}, fmt.Errorf("updating availability on db: %w", err)
	}
	if !exists {
		return lending.Book{}, fmt.Errorf("updating availability on db: %w", lending.ErrResponseBookNotFound)
	}
	return lending.Book{}, fmt.Errorf("updating availability on db: %w", lending.ErrResponseAvailabilityConflict)
}

func (store *Store) ListAllBooks(ctx context.Context) ([]lending.Book, error) {
	rows, err := store.exc.QueryContext(ctx, `SELECT `+bookColumns+` FROM books ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing all books from db: %w", err)
	}
	return collectBooks(rows)
}

/* Returns filtered content of database in a list of books */
func (store *Store) ListBooks(ctx context.Context, q lending.BookQuery) ([]lending.Book, error) {
	offset := (q.Page - 1) * q.PageSize
	if offset < 0 {
		offset = 0
	}

	sqlStatement, args, err := filteredBooks(q).
		Select(bookColumnsGoqu...).
		Order(orderBy(q.SortBy, q.SortDirection), goqu.I("id").Asc()).
		Limit(uint(q.PageSize)).
		Offset(uint(offset)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("building books query: %w", err)
	}

	rows, err := store.exc.QueryContext(ctx, sqlStatement, args...)
	if err != nil {
		return nil, fmt.Errorf("listing books from db: %w", err)
	}
	return collectBooks(rows)
}

/* Counts how many rows in db fit the specified filter parameters. */
func (store *Store) ListBooksTotals(ctx context.Context, q lending.BookQuery) (int, error) {
	sqlStatement, args, err := filteredBooks(q).
		Select(goqu.COUNT(goqu.Star())).
		Prepared(true).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("building books count query: %w", err)
	}

	var count int
	err = store.exc.QueryRowContext(ctx, sqlStatement, args...).Scan(&count)
	if err != nil {
		return count, fmt.Errorf("counting books from db: %w", err)
	}

	return count, nil
}

func filteredBooks(q lending.BookQuery) *goqu.SelectDataset {
	ds := goqu.Dialect(dialectPostgres).From(tableBooks)
	if q.AvailableOnly {
		ds = ds.Where(goqu.C("is_available").IsTrue())
	}
	if q.Category != "" {
		ds = ds.Where(goqu.Func("LOWER", goqu.C("category")).Eq(strings.ToLower(q.Category)))
	}
	if q.Search != "" {
		// The term is already reduced to [a-z0-9], so it carries no LIKE wildcards.
		ds = ds.Where(goqu.C(searchColumn(q.SearchBy)).Like("%" + q.Search + "%"))
	}
	return ds
}

func searchColumn(searchBy string) string {
	switch searchBy {
	case lending.SearchByAuthor:
		return "search_author"
	case lending.SearchByISBN:
		return "search_isbn"
	default:
		return "search_title"
	}
}

func orderBy(sortBy, sortDirection string) exp.OrderedExpression {
	col := "title"
	switch sortBy {
	case "author", "published_year", "created_at":
		col = sortBy
	}
	if sortDirection == "desc" {
		return goqu.I(col).Desc()
	}
	return goqu.I(col).Asc()
}

func collectBooks(rows *sql.Rows) ([]lending.Book, error) {
	defer rows.Close()
	bookslist := []lending.Book{}
	for rows.Next() {
		bookToReturn, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("listing books from db: %w", err)
		}

		bookslist = append(bookslist, bookToReturn)
	}

	err := rows.Err()
	if err != nil {
		return nil, fmt.Errorf("listing books from db: %w", err)
	}

	return bookslist, nil
}

// -- Loans --

const loanColumns = `id, user_id, book_id, borrow_date, due_date, return_date, status`

func scanLoan(row scanner) (lending.Loan, error) {
	var l lending.Loan
	var status string
	var returnDate sql.NullTime
	err := row.Scan(&l.ID, &l.UserID, &l.BookID, &l.BorrowDate, &l.DueDate, &returnDate, &status)
	if err != nil {
		return lending.Loan{}, err
	}
	if returnDate.Valid {
		l.ReturnDate = &returnDate.Time
	}
	l.Status = lending.LoanStatus(status)
	return l, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

/* Stores a new loan. A second borrowed loan of the same book violates loans_one_active_per_book. */
func (store *Store) CreateLoan(ctx context.Context, newLoan lending.Loan) (lending.Loan, error) {
	sqlStatement := `
	INSERT INTO loans (id, user_id, book_id, borrow_date, due_date, return_date, status)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING ` + loanColumns
	createdRow := store.exc.QueryRowContext(ctx, sqlStatement,
		newLoan.ID, newLoan.UserID, newLoan.BookID, newLoan.BorrowDate, newLoan.DueDate, nullTime(newLoan.ReturnDate), string(newLoan.Status))
	loanToReturn, err := scanLoan(createdRow)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Code {
			case uniqueViolation:
				return lending.Loan{}, fmt.Errorf("storing loan on db: %w", lending.ErrResponseAvailabilityConflict)
			case checkViolation:
				return lending.Loan{}, fmt.Errorf("storing loan on db: %s: %w", pqErr.Constraint, err)
			}
		}
		return lending.Loan{}, fmt.Errorf("storing loan on db: %w", err)
	}

	return loanToReturn, nil
}

func (store *Store) GetLoanByID(ctx context.Context, id uuid.UUID) (lending.Loan, error) {
	sqlStatement := `SELECT ` + loanColumns + `
	FROM loans
	WHERE id=$1;`
	loanToReturn, err := scanLoan(store.exc.QueryRowContext(ctx, sqlStatement, id))
	if err != nil {
		switch err {
		case sql.ErrNoRows:
			return store.getReturnedLoan(ctx, id)
		default:
			return lending.Loan{}, fmt.Errorf("getting loan from db: %w", err)
		}
	}

	return loanToReturn, nil
}

/* Resolves the id of a loan deleted on return to a returned loan. */
func (store *Store) getReturnedLoan(ctx context.Context, id uuid.UUID) (lending.Loan, error) {
	sqlStatement := `SELECT id, user_id, book_id, returned_at
	FROM returned_loans
	WHERE id=$1;`
	var l lending.Loan
	var returnedAt time.Time
	err := store.exc.QueryRowContext(ctx, sqlStatement, id).Scan(&l.ID, &l.UserID, &l.BookID, &returnedAt)
	if err != nil {
		switch err {
		case sql.ErrNoRows:
			return lending.Loan{}, fmt.Errorf("getting loan from db: %w", lending.ErrResponseLoanNotFound)
		default:
			return lending.Loan{}, fmt.Errorf("getting loan from db: %w", err)
		}
	}
	l.ReturnDate = &returnedAt
	l.Status = lending.StatusReturned
	return l, nil
}

/* Patches the return date and status of a loan. */
func (store *Store) UpdateLoan(ctx context.Context, loanEntry lending.Loan) (lending.Loan, error) {
	sqlStatement := `
	UPDATE loans
	SET return_date = $2, status = $3
	WHERE id = $1
	RETURNING ` + loanColumns
	updatedRow := store.exc.QueryRowContext(ctx, sqlStatement, loanEntry.ID, nullTime(loanEntry.ReturnDate), string(loanEntry.Status))
	loanToReturn, err := scanLoan(updatedRow)
	if err != nil {
		switch err {
		case sql.ErrNoRows:
			return lending.Loan{}, fmt.Errorf("updating loan on db: %w", lending.ErrResponseLoanNotFound)
		default:
			return lending.Loan{}, fmt.Errorf("updating loan on db: %w", err)
		}
	}

	return loanToReturn, nil
}

/* Removes the loan and records it in returned_loans in the same statement. */
func (store *Store) DeleteLoan(ctx context.Context, id uuid.UUID) error {
	sqlStatement := `
WITH deleted AS (
	DELETE FROM loans
	WHERE id = $1
	RETURNING id, user_id, book_id, return_date
)
INSERT INTO returned_loans (id, user_id, book_id, returned_at)
SELECT id, user_id, book_id, COALESCE(return_date, NOW())
FROM deleted;`
	result, err := store.exc.ExecContext(ctx, sqlStatement, id)
	if err != nil {
		return fmt.Errorf("deleting loan from db: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting loan from db: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("deleting loan from db: %w", lending.ErrResponseLoanNotFound)
	}
	return nil
}

func (store *Store) ListLoans(ctx context.Context, userID uuid.UUID, status lending.LoanStatus) ([]lending.Loan, error) {
	sqlStatement := `SELECT ` + loanColumns + `
	FROM loans
	WHERE user_id = $1 AND status = $2
	ORDER BY borrow_date ASC, id ASC;`
	rows, err := store.exc.QueryContext(ctx, sqlStatement, userID, string(status))
	if err != nil {
		return nil, fmt.Errorf("listing loans from db: %w", err)
	}
	return collectLoans(rows)
}

func (store *Store) ListLoansByStatus(ctx context.Context, status lending.LoanStatus) ([]lending.Loan, error) {
	sqlStatement := `SELECT ` + loanColumns + `
	FROM loans
	WHERE status = $1
	ORDER BY borrow_date ASC, id ASC;`
	rows, err := store.exc.QueryContext(ctx, sqlStatement, string(status))
	if err != nil {
		return nil, fmt.Errorf("listing loans by status from db: %w", err)
	}
	return collectLoans(rows)
}

func collectLoans(rows *sql.Rows) ([]lending.Loan, error) {
	defer rows.Close()
	loans := []lending.Loan{}
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("listing loans from db: %w", err)
		}
		loans = append(loans, l)
	}

	err := rows.Err()
	if err != nil {
		return nil, fmt.Errorf("listing loans from db: %w", err)
	}
	return loans, nil
}

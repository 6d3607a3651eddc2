package lending

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

//go:generate mockgen -destination=mocks/mocks.go -package=mocks . Repository,Notifier,Cache,Broadcaster

type ServiceAPI interface {
	CreateBook(ctx context.Context, req CreateBookRequest) (Book, error)
	GetBook(ctx context.Context, id uuid.UUID) (Book, error)
	ListBooks(ctx context.Context, req ListBooksRequest) (PagedBooks, error)
	BorrowBook(ctx context.Context, userID, bookID uuid.UUID) (Loan, error)
	ReturnLoan(ctx context.Context, loanID uuid.UUID) error
	ListActiveLoans(ctx context.Context, userID uuid.UUID) ([]ActiveLoan, error)
	CountActiveLoans(ctx context.Context, userID uuid.UUID) (int, error)
	Reconcile(ctx context.Context) (ReconcileReport, error)
}

// Repository is the book store and the loan store behind one contract.
// BeginTx returns a Repository bound to the transaction; calls made through
// it are committed or rolled back together.
type Repository interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (Repository, driver.Tx, error)

	CreateBook(ctx context.Context, bookEntry Book) (Book, error)
	GetBookByID(ctx context.Context, id uuid.UUID) (Book, error)
	ListBooks(ctx context.Context, q BookQuery) ([]Book, error)
	ListBooksTotals(ctx context.Context, q BookQuery) (int, error)
	ListAllBooks(ctx context.Context) ([]Book, error)
	// UpdateBookAvailability sets the flag only if it currently equals
	// expected, failing with ErrResponseAvailabilityConflict otherwise.
	UpdateBookAvailability(ctx context.Context, id uuid.UUID, expected, available bool) (Book, error)

	CreateLoan(ctx context.Context, newLoan Loan) (Loan, error)
	GetLoanByID(ctx context.Context, id uuid.UUID) (Loan, error)
	UpdateLoan(ctx context.Context, loanEntry Loan) (Loan, error)
	DeleteLoan(ctx context.Context, id uuid.UUID) error
	ListLoans(ctx context.Context, userID uuid.UUID, status LoanStatus) ([]Loan, error)
	ListLoansByStatus(ctx context.Context, status LoanStatus) ([]Loan, error)
}

type Notifier interface {
	BookBorrowed(ctx context.Context, b Book, l Loan) error
	BookReturned(ctx context.Context, b Book, l Loan) error
}

// Cache holds read results between mutations. Add calls carry the
// generation observed before the store was read; a result read across an
// invalidation is dropped.
type Cache interface {
	Generation() uint64
	GetBook(id uuid.UUID) (Book, bool)
	AddBook(gen uint64, b Book)
	GetActiveLoans(userID uuid.UUID) ([]ActiveLoan, bool)
	AddActiveLoans(gen uint64, userID uuid.UUID, loans []ActiveLoan)
	Invalidate(userID, bookID uuid.UUID)
	Purge()
}

type Broadcaster interface {
	ActiveLoansChanged(userID uuid.UUID, count int)
}

type Service struct {
	repo                 Repository
	ntfy                 Notifier
	notificationsTimeout time.Duration
	cache                Cache
	live                 Broadcaster
	now                  func() time.Time
	deleteOnReturn       bool
}

func NewService(repo Repository, ntfy Notifier, notificationsTimeout time.Duration) *Service {
	return &Service{
		repo:                 repo,
		ntfy:                 ntfy,
		notificationsTimeout: notificationsTimeout,
		cache:                noCache{},
		live:                 noBroadcast{},
		now: func() time.Time {
			return time.Now().UTC().Round(time.Millisecond)
		},
	}
}

func (s *Service) WithCache(c Cache) *Service {
	if c != nil {
		s.cache = c
	}
	return s
}

func (s *Service) WithBroadcaster(b Broadcaster) *Service {
	if b != nil {
		s.live = b
	}
	return s
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// WithDeleteOnReturn removes returned loans from the store instead of
// keeping them as history.
func (s *Service) WithDeleteOnReturn(deleteOnReturn bool) *Service {
	s.deleteOnReturn = deleteOnReturn
	return s
}

/* Classifies an error coming from the repository: context errors become timeouts, known responses pass through, anything else is a repository error. */
func repoError(call string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("timeout on call to %s: %w", call, err)
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("canceled call to %s: %w", call, err)
	}
	var errResp ErrResponse
	if errors.As(err, &errResp) {
		return err
	}
	return ErrResponse{
		Code:    ErrResponseFromRespository.Code,
		Message: ErrResponseFromRespository.Message + err.Error(),
	}
}

/* Rolls tx back when err is set. A failed rollback turns err into a partial failure. */
func endTx(tx driver.Tx, err error) error {
	if err == nil {
		return nil
	}
	if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
		return NewErrPartialFailure(err, rbErr)
	}
	return err
}

type noCache struct{}

func (noCache) Generation() uint64                             { return 0 }
func (noCache) GetBook(uuid.UUID) (Book, bool)                 { return Book{}, false }
func (noCache) AddBook(uint64, Book)                           {}
func (noCache) GetActiveLoans(uuid.UUID) ([]ActiveLoan, bool)  { return nil, false }
func (noCache) AddActiveLoans(uint64, uuid.UUID, []ActiveLoan) {}
func (noCache) Invalidate(uuid.UUID, uuid.UUID)                {}
func (noCache) Purge()                                         {}

type noBroadcast struct{}

func (noBroadcast) ActiveLoansChanged(uuid.UUID, int) {}

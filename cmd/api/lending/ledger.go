package lending

import (
	"context"
	"errors"
	"log"
	"sort"

	"github.com/google/uuid"
	"github.com/lending-service/cmd/api/identity"
)

/* Creates a loan for userID and marks the book unavailable, both in one transaction. */
func (s *Service) BorrowBook(ctx context.Context, userID, bookID uuid.UUID) (loan Loan, err error) {
	if userID == uuid.Nil {
		return Loan{}, ErrResponseUnauthenticated
	}

	txRepo, tx, err := s.repo.BeginTx(ctx, nil)
	if err != nil {
		return Loan{}, repoError("BorrowBook", err)
	}
	defer func() {
		err = endTx(tx, err)
	}()

	bk, err := txRepo.GetBookByID(ctx, bookID)
	if err != nil {
		return Loan{}, repoError("BorrowBook", err)
	}
	if !bk.IsAvailable {
		return Loan{}, ErrResponseBookNotAvailable
	}

	//Compare-and-swap on the flag, so a concurrent borrower that read the same state loses here.
	bk, err = txRepo.UpdateBookAvailability(ctx, bookID, true, false)
	if err != nil {
		if errors.Is(err, ErrResponseAvailabilityConflict) {
			return Loan{}, ErrResponseBookNotAvailable
		}
		return Loan{}, repoError("BorrowBook", err)
	}

	loan, err = txRepo.CreateLoan(ctx, newLoan(userID, bookID, s.now()))
	if err != nil {
		if errors.Is(err, ErrResponseAvailabilityConflict) {
			return Loan{}, ErrResponseBookNotAvailable
		}
		return Loan{}, repoError("BorrowBook", err)
	}

	err = tx.Commit()
	if err != nil {
		return Loan{}, repoError("BorrowBook", err)
	}

	s.afterMutation(ctx, bk, loan)
	return loan, nil
}

/*
Marks the loan returned and the book available again, both in one transaction.
A loan that is already returned is reported with ErrResponseLoanAlreadyReturned and nothing is written.
*/
func (s *Service) ReturnLoan(ctx context.Context, loanID uuid.UUID) (err error) {
	txRepo, tx, err := s.repo.BeginTx(ctx, nil)
	if err != nil {
		return repoError("ReturnLoan", err)
	}
	defer func() {
		err = endTx(tx, err)
	}()

	ln, err := txRepo.GetLoanByID(ctx, loanID)
	if err != nil {
		return repoError("ReturnLoan", err)
	}
	if caller, ok := identity.UserID(ctx); ok && caller != ln.UserID {
		return ErrResponseLoanNotFound
	}
	if !ln.Active() {
		return ErrResponseLoanAlreadyReturned
	}

	returnedAt := s.now()
	ln.ReturnDate = &returnedAt
	ln.Status = StatusReturned
	ln, err = txRepo.UpdateLoan(ctx, ln)
	if err != nil {
		return repoError("ReturnLoan", err)
	}

	if s.deleteOnReturn {
		err = txRepo.DeleteLoan(ctx, ln.ID)
		if err != nil {
			return repoError("ReturnLoan", err)
		}
	}

	bk, err := txRepo.UpdateBookAvailability(ctx, ln.BookID, false, true)
	if errors.Is(err, ErrResponseAvailabilityConflict) {
		//The flag had drifted to available while the loan was active. The end state is the same.
		log.Printf("returning loan %s: book %s was already marked available", ln.ID, ln.BookID)
		bk, err = txRepo.GetBookByID(ctx, ln.BookID)
	}
	if err != nil {
		return repoError("ReturnLoan", err)
	}

	err = tx.Commit()
	if err != nil {
		return repoError("ReturnLoan", err)
	}

	s.afterMutation(ctx, bk, ln)
	return nil
}

/* Returns the borrowed loans of userID, each joined with its book, oldest first. */
func (s *Service) ListActiveLoans(ctx context.Context, userID uuid.UUID) ([]ActiveLoan, error) {
	if userID == uuid.Nil {
		return nil, ErrResponseUnauthenticated
	}
	if cached, ok := s.cache.GetActiveLoans(userID); ok {
		return cached, nil
	}

	gen := s.cache.Generation()
	loans, err := s.repo.ListLoans(ctx, userID, StatusBorrowed)
	if err != nil {
		return nil, repoError("ListActiveLoans", err)
	}

	sort.SliceStable(loans, func(i, j int) bool {
		if loans[i].BorrowDate.Equal(loans[j].BorrowDate) {
			return loans[i].ID.String() < loans[j].ID.String()
		}
		return loans[i].BorrowDate.Before(loans[j].BorrowDate)
	})

	active := make([]ActiveLoan, 0, len(loans))
	for _, ln := range loans {
		bk, err := s.repo.GetBookByID(ctx, ln.BookID)
		if err != nil {
			return nil, repoError("ListActiveLoans", err)
		}
		active = append(active, ActiveLoan{Loan: ln, Book: bk})
	}

	s.cache.AddActiveLoans(gen, userID, active)
	return active, nil
}

// CountActiveLoans is the length of ListActiveLoans, never a separate query.
func (s *Service) CountActiveLoans(ctx context.Context, userID uuid.UUID) (int, error) {
	active, err := s.ListActiveLoans(ctx, userID)
	if err != nil {
		return 0, err
	}
	return len(active), nil
}

type ReconcileReport struct {
	BooksChecked int
	Repaired     []uuid.UUID
}

/* Recomputes every book's availability from the active loans and rewrites the flags that drifted. */
func (s *Service) Reconcile(ctx context.Context) (report ReconcileReport, err error) {
	txRepo, tx, err := s.repo.BeginTx(ctx, nil)
	if err != nil {
		return ReconcileReport{}, repoError("Reconcile", err)
	}
	defer func() {
		err = endTx(tx, err)
	}()

	active, err := txRepo.ListLoansByStatus(ctx, StatusBorrowed)
	if err != nil {
		return ReconcileReport{}, repoError("Reconcile", err)
	}
	borrowed := make(map[uuid.UUID]bool, len(active))
	for _, ln := range active {
		borrowed[ln.BookID] = true
	}

	books, err := txRepo.ListAllBooks(ctx)
	if err != nil {
		return ReconcileReport{}, repoError("Reconcile", err)
	}

	report = ReconcileReport{BooksChecked: len(books), Repaired: []uuid.UUID{}}
	for _, bk := range books {
		shouldBeAvailable := !borrowed[bk.ID]
		if bk.IsAvailable == shouldBeAvailable {
			continue
		}
		_, err = txRepo.UpdateBookAvailability(ctx, bk.ID, bk.IsAvailable, shouldBeAvailable)
		if err != nil {
			return ReconcileReport{}, repoError("Reconcile", err)
		}
		report.Repaired = append(report.Repaired, bk.ID)
	}

	err = tx.Commit()
	if err != nil {
		return ReconcileReport{}, repoError("Reconcile", err)
	}

	if len(report.Repaired) > 0 {
		log.Printf("reconcile: repaired availability of %d book(s)", len(report.Repaired))
		s.cache.Purge()
	}
	return report, nil
}

/*
Runs the side effects owed after a committed borrow or return: the cached book and
the owner's cached loans are dropped, the owner's live count is pushed and a
notification is sent in background.
*/
func (s *Service) afterMutation(ctx context.Context, bk Book, ln Loan) {
	s.cache.Invalidate(ln.UserID, bk.ID)

	count, err := s.CountActiveLoans(context.WithoutCancel(ctx), ln.UserID)
	if err != nil {
		log.Println("counting active loans after mutation:", err)
	} else {
		s.live.ActiveLoansChanged(ln.UserID, count)
	}

	if s.ntfy == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.notificationsTimeout)
		defer cancel()

		var err error
		if ln.Active() {
			err = s.ntfy.BookBorrowed(ctx, bk, ln)
		} else {
			err = s.ntfy.BookReturned(ctx, bk, ln)
		}
		if err != nil {
			log.Println(err)
		}
	}()
}

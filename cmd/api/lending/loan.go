package lending

import (
	"time"

	"github.com/google/uuid"
)

type LoanStatus string

const (
	StatusBorrowed LoanStatus = "borrowed"
	StatusReturned LoanStatus = "returned"
)

// LoanPeriod is the fixed offset between a loan's borrow date and due date.
const LoanPeriod = 30 * 24 * time.Hour

type Loan struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	BookID     uuid.UUID
	BorrowDate time.Time
	DueDate    time.Time
	ReturnDate *time.Time
	Status     LoanStatus
}

func (l Loan) Active() bool {
	return l.Status == StatusBorrowed
}

func newLoan(userID, bookID uuid.UUID, borrowDate time.Time) Loan {
	return Loan{
		ID:         uuid.New(),
		UserID:     userID,
		BookID:     bookID,
		BorrowDate: borrowDate,
		DueDate:    borrowDate.Add(LoanPeriod),
		ReturnDate: nil,
		Status:     StatusBorrowed,
	}
}

// ActiveLoan is a borrowed loan joined with the book it references.
type ActiveLoan struct {
	Loan Loan
	Book Book
}

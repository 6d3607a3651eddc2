package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/lending-service/cmd/api/identity"
	"github.com/lending-service/cmd/api/lending"
)

/* Addresses a call to "/loans" according to the requested action.  */
func (h *LendingHandler) loans(w http.ResponseWriter, r *http.Request) {
	r, cancel := h.withTimeout(r)
	defer cancel()

	r, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	method := r.Method
	switch method {
	case http.MethodPost:
		h.borrowBook(w, r)
		return
	case http.MethodGet:
		h.listActiveLoans(w, r)
		return
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
}

/* Addresses a call to "/loans/(expected id here)" according to the requested action.  */
func (h *LendingHandler) loanById(w http.ResponseWriter, r *http.Request) {
	r, cancel := h.withTimeout(r)
	defer cancel()

	if r.Method != http.MethodDelete {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	r, ok := h.authenticate(w, r)
	if !ok {
		return
	}
	h.returnLoan(w, r)
}

/* Addresses a call to "/loans/count". */
func (h *LendingHandler) loansCount(w http.ResponseWriter, r *http.Request) {
	r, cancel := h.withTimeout(r)
	defer cancel()

	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	r, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	userID, _ := identity.UserID(r.Context())
	count, err := h.lendingService.CountActiveLoans(r.Context(), userID)
	if err != nil {
		handleError(err, w, r)
		return
	}

	responseJSON(w, http.StatusOK, CountResponse{Count: count})
}

/*
Upgrades "/loans/live" to a websocket that receives the caller's active loan count on every change.
Browsers cannot set headers on websocket requests, so the token may come as the token query parameter.
*/
func (h *LendingHandler) loansLive(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h.live == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	raw := r.URL.Query().Get("token")
	if raw == "" {
		raw = bearerToken(r)
	}
	r, ok := h.authenticateToken(w, r, raw)
	if !ok {
		return
	}

	userID, _ := identity.UserID(r.Context())
	countReq, cancel := h.withTimeout(r)
	count, err := h.lendingService.CountActiveLoans(countReq.Context(), userID)
	cancel()
	if err != nil {
		handleError(err, w, r)
		return
	}

	h.live.ServeWS(w, r, userID, count)
}

type BorrowEntry struct {
	BookID uuid.UUID `json:"book_id"`
}

/* Validates the entry, then lends the book to the caller. */
func (h *LendingHandler) borrowBook(w http.ResponseWriter, r *http.Request) {
	var borrowEntry BorrowEntry
	err := json.NewDecoder(r.Body).Decode(&borrowEntry)
	if err != nil {
		log.Println(err)
		responseJSON(w, http.StatusBadRequest, invalidJSON(err))
		return
	}

	if borrowEntry.BookID == uuid.Nil {
		responseJSON(w, http.StatusBadRequest, lending.ErrResponseBorrowEntryBlankFields)
		return
	}

	userID, _ := identity.UserID(r.Context())
	loan, err := h.lendingService.BorrowBook(r.Context(), userID, borrowEntry.BookID)
	if err != nil {
		handleError(err, w, r)
		return
	}

	responseJSON(w, http.StatusCreated, loanToResponse(loan))
}

/* Returns the caller's borrowed books. */
func (h *LendingHandler) listActiveLoans(w http.ResponseWriter, r *http.Request) {
	userID, _ := identity.UserID(r.Context())
	active, err := h.lendingService.ListActiveLoans(r.Context(), userID)
	if err != nil {
		handleError(err, w, r)
		return
	}

	results := []ActiveLoanResponse{}
	for _, al := range active {
		results = append(results, ActiveLoanResponse{
			Loan: loanToResponse(al.Loan),
			Book: bookToResponse(al.Book),
		})
	}
	responseJSON(w, http.StatusOK, results)
}

/* Ends the loan. Returning a loan twice is answered as a success with nothing done. */
func (h *LendingHandler) returnLoan(w http.ResponseWriter, r *http.Request) {
	id, err := isolateId(w, r, "/loans/")
	if err != nil {
		return
	}

	err = h.lendingService.ReturnLoan(r.Context(), id)
	if err != nil {
		if errors.Is(err, lending.ErrResponseLoanAlreadyReturned) {
			log.Printf("loan %s was already returned", id)
			w.WriteHeader(http.StatusNoContent)
			return
		}
		handleError(err, w, r)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type LoanResponse struct {
	ID         uuid.UUID  `json:"id"`
	UserID     uuid.UUID  `json:"user_id"`
	BookID     uuid.UUID  `json:"book_id"`
	BorrowDate time.Time  `json:"borrow_date"`
	DueDate    time.Time  `json:"due_date"`
	ReturnDate *time.Time `json:"return_date"`
	Status     string     `json:"status"`
}

/*Copy the fields of a loan object to an http layer struct with json tags*/
func loanToResponse(l lending.Loan) LoanResponse {
	return LoanResponse{
		ID:         l.ID,
		UserID:     l.UserID,
		BookID:     l.BookID,
		BorrowDate: l.BorrowDate,
		DueDate:    l.DueDate,
		ReturnDate: l.ReturnDate,
		Status:     string(l.Status),
	}
}

type ActiveLoanResponse struct {
	Loan LoanResponse `json:"loan"`
	Book BookResponse `json:"book"`
}

type CountResponse struct {
	Count int `json:"count"`
}

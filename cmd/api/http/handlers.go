package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lending-service/cmd/api/lending"
)

//go:generate mockgen -destination=mocks/mocks.go -package=mocks github.com/lending-service/cmd/api/lending ServiceAPI

type TokenParser interface {
	Parse(token string) (uuid.UUID, error)
}

type LiveServer interface {
	ServeWS(w http.ResponseWriter, r *http.Request, userID uuid.UUID, count int)
}

type LendingHandler struct {
	lendingService lending.ServiceAPI
	tokens         TokenParser
	live           LiveServer
	requestTimeout time.Duration
}

func NewLendingHandler(lendingService lending.ServiceAPI, tokens TokenParser, live LiveServer, requestTimeout time.Duration) *LendingHandler {
	return &LendingHandler{
		lendingService: lendingService,
		tokens:         tokens,
		live:           live,
		requestTimeout: requestTimeout,
	}
}

func (h *LendingHandler) withTimeout(r *http.Request) (*http.Request, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	return r.WithContext(ctx), cancel
}

/* Addresses a call to "/books/(expected id here)" according to the requested action.  */
func (h *LendingHandler) bookById(w http.ResponseWriter, r *http.Request) {
	r, cancel := h.withTimeout(r)
	defer cancel()

	method := r.Method
	switch method {
	case http.MethodGet:
		h.getBookById(w, r)
		return
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
}

/* Addresses a call to "/books" according to the requested action.  */
func (h *LendingHandler) books(w http.ResponseWriter, r *http.Request) {
	r, cancel := h.withTimeout(r)
	defer cancel()

	method := r.Method
	switch method {
	case http.MethodGet:
		h.listBooks(w, r)
		return
	case http.MethodPost:
		r, ok := h.authenticate(w, r)
		if !ok {
			return
		}
		h.createBook(w, r)
		return
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
}

type BookEntry struct {
	Title         string `json:"title"`
	Author        string `json:"author"`
	ISBN          string `json:"isbn"`
	CoverImage    string `json:"cover_image"`
	PublishedYear int    `json:"published_year"`
	Category      string `json:"category"`
}

/* Validates the entry, then stores the entry as a new book. */
func (h *LendingHandler) createBook(w http.ResponseWriter, r *http.Request) {
	var bookEntry BookEntry
	err := json.NewDecoder(r.Body).Decode(&bookEntry) //Read the Json body and save the entry to bookEntry
	if err != nil {
		log.Println(err)
		responseJSON(w, http.StatusBadRequest, invalidJSON(err))
		return
	}

	reqBook := bookToCreateReq(bookEntry)

	err = lending.FilledFields(reqBook) //Verify if the mandatory entry fields are filled.
	if err != nil {
		responseJSON(w, http.StatusBadRequest, err)
		return
	}

	storedBook, err := h.lendingService.CreateBook(r.Context(), reqBook)
	if err != nil {
		handleError(err, w, r)
		return
	}

	responseJSON(w, http.StatusCreated, bookToResponse(storedBook))
}

/* Returns the book with that specific ID. */
func (h *LendingHandler) getBookById(w http.ResponseWriter, r *http.Request) {
	id, err := isolateId(w, r, "/books/")
	if err != nil {
		return
	}
	//Searching for that ID on Lending Service:
	returnedBook, err := h.lendingService.GetBook(r.Context(), id)
	if err != nil {
		handleError(err, w, r)
		return
	}

	responseJSON(w, http.StatusOK, bookToResponse(returnedBook))
}

/* Returns a page of the stored books matching the query. */
func (h *LendingHandler) listBooks(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	searchBy := query.Get("search_by")
	switch searchBy {
	case "":
		searchBy = lending.SearchByTitle
	case lending.SearchByTitle, lending.SearchByAuthor, lending.SearchByISBN:
	default:
		responseJSON(w, http.StatusBadRequest, lending.ErrResponseQuerySearchByInvalid)
		return
	}

	sortBy, sortDirection, valid := extractOrderParams(query)
	if !valid {
		responseJSON(w, http.StatusBadRequest, lending.ErrResponseQuerySortByInvalid)
		return
	}

	page, pageSize, valid := extractPageParams(query)
	if !valid {
		responseJSON(w, http.StatusBadRequest, lending.ErrResponseQueryPageInvalid)
		return
	}

	params := lending.ListBooksRequest{
		Search:        query.Get("search"),
		SearchBy:      searchBy,
		Category:      query.Get("category"),
		AvailableOnly: query.Get("available") == "true",
		SortBy:        sortBy,
		SortDirection: sortDirection,
		Page:          page,
		PageSize:      pageSize,
	}

	pagedBooks, err := h.lendingService.ListBooks(r.Context(), params)
	if err != nil {
		handleError(err, w, r)
		return
	}
	responseJSON(w, http.StatusOK, pagedBooksToResponse(pagedBooks))
}

/* Converts from BookEntry type to CreateBookRequest type, with no json tags. */
func bookToCreateReq(b BookEntry) lending.CreateBookRequest {
	return lending.CreateBookRequest{
		Title:         strings.TrimSpace(b.Title),
		Author:        strings.TrimSpace(b.Author),
		ISBN:          strings.TrimSpace(b.ISBN),
		CoverImage:    b.CoverImage,
		PublishedYear: b.PublishedYear,
		Category:      strings.TrimSpace(b.Category),
	}
}

/* Isolates the ID that follows prefix in the URL. */
func isolateId(w http.ResponseWriter, r *http.Request, prefix string) (id uuid.UUID, err error) {
	justId, _ := strings.CutPrefix(r.URL.Path, prefix)
	id, err = uuid.Parse(justId)
	if err != nil {
		log.Println(err)
		responseJSON(w, http.StatusBadRequest, lending.ErrResponseIdInvalidFormat)
		return id, err
	}
	return id, nil
}

type BookResponse struct {
	ID            uuid.UUID `json:"id"`
	Title         string    `json:"title"`
	Author        string    `json:"author"`
	ISBN          string    `json:"isbn"`
	CoverImage    string    `json:"cover_image"`
	PublishedYear int       `json:"published_year"`
	Category      string    `json:"category"`
	IsAvailable   bool      `json:"is_available"`
}

/*Copy the fields of a book object to an http layer struct with json tags*/
func bookToResponse(b lending.Book) BookResponse {
	return BookResponse{
		ID:            b.ID,
		Title:         b.Title,
		Author:        b.Author,
		ISBN:          b.ISBN,
		CoverImage:    b.CoverImage,
		PublishedYear: b.PublishedYear,
		Category:      b.Category,
		IsAvailable:   b.IsAvailable,
	}
}

type PageOfBooksResponse struct {
	PageCurrent int            `json:"page_current"`
	PageTotal   int            `json:"page_total"`
	PageSize    int            `json:"page_size"`
	ItemsTotal  int            `json:"items_total"`
	Results     []BookResponse `json:"results"`
}

/*Copy the fields of a PagedBooks object to an http layer struct with json tags*/
func pagedBooksToResponse(page lending.PagedBooks) PageOfBooksResponse {
	results := []BookResponse{}
	for _, b := range page.Results {
		results = append(results, bookToResponse(b))
	}

	return PageOfBooksResponse{
		PageCurrent: page.PageCurrent,
		PageTotal:   page.PageTotal,
		PageSize:    page.PageSize,
		ItemsTotal:  page.ItemsTotal,
		Results:     results,
	}
}

/*Writes a JSON response into a http.ResponseWriter. */
func responseJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(body)
	if err != nil {
		log.Println(err)
		return
	}
}

func invalidJSON(err error) lending.ErrResponse {
	return lending.ErrResponse{
		Code:    lending.ErrResponseEntryInvalidJSON.Code,
		Message: lending.ErrResponseEntryInvalidJSON.Message + err.Error(),
	}
}

/*
Maps an error from the lending service to a status code and writes it. Context errors become
504, client mistakes 4xx with the coded body, and repository failures a bare 500.
*/
func handleError(err error, w http.ResponseWriter, r *http.Request) {
	log.Printf("%s %s: %v", r.Method, r.URL.Path, err)

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		responseJSON(w, http.StatusGatewayTimeout, lending.ErrResponse{
			Code:    lending.ErrResponseRequestTimeout.Code,
			Message: lending.ErrResponseRequestTimeout.Message + context.DeadlineExceeded.Error(),
		})
		return
	case errors.Is(err, context.Canceled):
		responseJSON(w, http.StatusGatewayTimeout, lending.ErrResponse{
			Code:    lending.ErrResponseRequestTimeout.Code,
			Message: lending.ErrResponseRequestTimeout.Message + context.Canceled.Error(),
		})
		return
	}

	var errResp lending.ErrResponse
	if !errors.As(err, &errResp) {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	switch errResp.Code {
	case lending.ErrResponseBookNotFound.Code, lending.ErrResponseLoanNotFound.Code:
		responseJSON(w, http.StatusNotFound, errResp)
	case lending.ErrResponseBookNotAvailable.Code, lending.ErrResponseAvailabilityConflict.Code, lending.ErrResponseLoanAlreadyReturned.Code:
		responseJSON(w, http.StatusConflict, errResp)
	case lending.ErrResponseUnauthenticated.Code:
		responseJSON(w, http.StatusUnauthorized, errResp)
	case lending.ErrResponseRateLimited.Code:
		responseJSON(w, http.StatusTooManyRequests, errResp)
	case lending.ErrResponsePartialFailure.Code:
		responseJSON(w, http.StatusInternalServerError, errResp)
	case lending.ErrResponseFromRespository.Code:
		w.WriteHeader(http.StatusInternalServerError)
	default:
		responseJSON(w, http.StatusBadRequest, errResp)
	}
}

/*Validates and prepares the ordering parameters of the query.*/
func extractOrderParams(query url.Values) (sortBy string, sortDirection string, valid bool) {
	sortDirection = query.Get("sort_direction")
	switch sortDirection {
	case "":
		sortDirection = "asc"
	case "asc":
		break
	case "desc":
		break
	default:
		return sortBy, sortDirection, false
	}

	sortBy = query.Get("sort_by")
	switch sortBy {
	case "":
		sortBy = "title"
	case "title":
		break
	case "author":
		break
	case "published_year":
		break
	case "created_at":
		break
	default:
		return sortBy, sortDirection, false
	}

	return sortBy, sortDirection, true
}

/*Validates and prepares the extractPageParams parameters of the query.*/
func extractPageParams(query url.Values) (page, pageSize int, valid bool) {
	var err error
	pageStr := query.Get("page") //Convert page value to int and set default to 1.
	if pageStr == "" {
		page = 1
	} else {
		page, err = strconv.Atoi(pageStr)
		if err != nil {
			return 0, 0, false
		}
		if page <= 0 {
			return 0, 0, false
		}
	}

	pageSizeStr := query.Get("page_size") //Convert page_size value to int and set default to 10.
	if pageSizeStr == "" {
		pageSize = 10
	} else {
		pageSize, err = strconv.Atoi(pageSizeStr)
		if err != nil {
			return 0, 0, false
		}
		if !(0 < pageSize && pageSize <= lending.PageSizeMax) {
			return 0, 0, false
		}
	}

	return page, pageSize, true
}

package http_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	lendinghttp "github.com/lending-service/cmd/api/http"
	httpmock "github.com/lending-service/cmd/api/http/mocks"
	"github.com/lending-service/cmd/api/identity"
	"github.com/lending-service/cmd/api/lending"
	"github.com/lending-service/cmd/api/live"
	"github.com/matryer/is"
	"go.uber.org/mock/gomock"
	"golang.org/x/time/rate"
)

var requestTimeout = 2 * time.Second

var tokens = identity.TokenService{
	Secret:   []byte("http-test-secret"),
	Issuer:   "lending-service",
	Duration: time.Hour,
}

type testServer struct {
	server  *http.Server
	mockAPI *httpmock.MockServiceAPI
}

func newTestServer(t *testing.T, config lendinghttp.ServerConfig, hub lendinghttp.LiveServer) testServer {
	ctrl := gomock.NewController(t)
	mockAPI := httpmock.NewMockServiceAPI(ctrl)
	handler := lendinghttp.NewLendingHandler(mockAPI, tokens, hub, requestTimeout)
	return testServer{
		server:  lendinghttp.NewServer(config, handler),
		mockAPI: mockAPI,
	}
}

func authorized(t *testing.T, req *http.Request, userID uuid.UUID) *http.Request {
	t.Helper()
	tok, _, err := tokens.Sign(userID)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	return req
}

func serve(s testServer, req *http.Request) (int, string) {
	response := httptest.NewRecorder()
	s.server.Handler.ServeHTTP(response, req)
	body, _ := io.ReadAll(response.Result().Body)
	return response.Result().StatusCode, string(body)
}

func TestPing(t *testing.T) {
	is := is.New(t)
	s := newTestServer(t, lendinghttp.ServerConfig{Port: 8080}, nil)

	request, _ := http.NewRequest(http.MethodGet, "/ping", nil)
	status, _ := serve(s, request)
	is.Equal(status, http.StatusNoContent)
}

func TestCreateBook(t *testing.T) {
	s := newTestServer(t, lendinghttp.ServerConfig{Port: 8080}, nil)
	userID := uuid.New()

	t.Run("creates a book without errors", func(t *testing.T) {
		is := is.New(t)

		reqBook := lending.CreateBookRequest{
			Title:         "HTTP tester book",
			Author:        "Tester",
			ISBN:          "978-1",
			PublishedYear: 1999,
			Category:      "fiction",
		}
		bookToCreate := `{
			"title": "HTTP tester book",
			"author": "Tester",
			"isbn": "978-1",
			"published_year": 1999,
			"category": "fiction"
		}`
		newID := uuid.New()
		expectedReturn := lending.Book{
			ID:            newID,
			Title:         reqBook.Title,
			Author:        reqBook.Author,
			ISBN:          reqBook.ISBN,
			PublishedYear: reqBook.PublishedYear,
			Category:      reqBook.Category,
			IsAvailable:   true,
		}
		expectedJSONresponse := fmt.Sprintf(`{"id":"%s","title":"HTTP tester book","author":"Tester","isbn":"978-1","cover_image":"","published_year":1999,"category":"fiction","is_available":true}`+"\n", newID)

		request, _ := http.NewRequest(http.MethodPost, "/books", strings.NewReader(bookToCreate))
		s.mockAPI.EXPECT().CreateBook(gomock.Any(), reqBook).Return(expectedReturn, nil)

		status, body := serve(s, authorized(t, request, userID))

		is.Equal(status, http.StatusCreated)
		is.Equal(body, expectedJSONresponse)
	})

	t.Run("expected invalid json error", func(t *testing.T) {
		is := is.New(t)

		invalidBookToCreate := `{
				"title": "test with missing coma after author",
				"author": "Tester"
				"isbn": "978-1"
			}`
		expectedJSONresponse := fmt.Sprintln(`{"error_code":102,"error_message":"invalid json request.invalid character '\"' after object key:value pair"}`)

		request, _ := http.NewRequest(http.MethodPost, "/books", strings.NewReader(invalidBookToCreate))
		status, body := serve(s, authorized(t, request, userID))

		is.Equal(status, http.StatusBadRequest)
		is.Equal(body, expectedJSONresponse)
	})

	t.Run("expected blank fields error", func(t *testing.T) {
		is := is.New(t)

		request, _ := http.NewRequest(http.MethodPost, "/books", strings.NewReader(`{"title": "no author"}`))
		status, body := serve(s, authorized(t, request, userID))

		is.Equal(status, http.StatusBadRequest)
		is.Equal(body, fmt.Sprintln(`{"error_code":100,"error_message":"the fields title and author must be filled correctly."}`))
	})

	t.Run("expected unauthenticated error without a token", func(t *testing.T) {
		is := is.New(t)

		request, _ := http.NewRequest(http.MethodPost, "/books", strings.NewReader(`{"title": "t", "author": "a"}`))
		status, body := serve(s, request)

		is.Equal(status, http.StatusUnauthorized)
		is.Equal(body, fmt.Sprintln(`{"error_code":115,"error_message":"a valid user identity is required"}`))
	})

	t.Run("expected unauthenticated error with a forged token", func(t *testing.T) {
		is := is.New(t)

		forged := identity.TokenService{Secret: []byte("another-secret"), Issuer: tokens.Issuer, Duration: time.Hour}
		tok, _, err := forged.Sign(userID)
		is.NoErr(err)

		request, _ := http.NewRequest(http.MethodPost, "/books", strings.NewReader(`{"title": "t", "author": "a"}`))
		request.Header.Set("Authorization", "Bearer "+tok)
		status, _ := serve(s, request)

		is.Equal(status, http.StatusUnauthorized)
	})

	t.Run("expected context timeout error", func(t *testing.T) {
		is := is.New(t)

		request, _ := http.NewRequest(http.MethodPost, "/books", strings.NewReader(`{"title": "t", "author": "a"}`))
		s.mockAPI.EXPECT().CreateBook(gomock.Any(), gomock.Any()).
			Return(lending.Book{}, fmt.Errorf("timeout on call to CreateBook: %w", context.DeadlineExceeded))

		status, body := serve(s, authorized(t, request, userID))

		is.Equal(status, http.StatusGatewayTimeout)
		is.Equal(body, fmt.Sprintln(`{"error_code":109,"error_message":"error from context:context deadline exceeded"}`))
	})

	t.Run("expected repository error", func(t *testing.T) {
		is := is.New(t)

		request, _ := http.NewRequest(http.MethodPost, "/books", strings.NewReader(`{"title": "t", "author": "a"}`))
		s.mockAPI.EXPECT().CreateBook(gomock.Any(), gomock.Any()).
			Return(lending.Book{}, lending.ErrResponse{Code: lending.ErrResponseFromRespository.Code, Message: "error from repository: boom"})

		status, body := serve(s, authorized(t, request, userID))

		is.Equal(status, http.StatusInternalServerError)
		is.Equal(body, "")
	})
}

func TestGetBook(t *testing.T) {
	s := newTestServer(t, lendinghttp.ServerConfig{Port: 8080}, nil)

	t.Run("gets a book without errors", func(t *testing.T) {
		is := is.New(t)

		id := uuid.New()
		s.mockAPI.EXPECT().GetBook(gomock.Any(), id).Return(lending.Book{ID: id, Title: "Found", Author: "A", IsAvailable: true}, nil)

		request, _ := http.NewRequest(http.MethodGet, "/books/"+id.String(), nil)
		status, body := serve(s, request)

		is.Equal(status, http.StatusOK)
		is.True(strings.Contains(body, `"title":"Found"`))
	})

	t.Run("expected not found error", func(t *testing.T) {
		is := is.New(t)

		id := uuid.New()
		s.mockAPI.EXPECT().GetBook(gomock.Any(), id).Return(lending.Book{}, fmt.Errorf("searching by ID: %w", lending.ErrResponseBookNotFound))

		request, _ := http.NewRequest(http.MethodGet, "/books/"+id.String(), nil)
		status, body := serve(s, request)

		is.Equal(status, http.StatusNotFound)
		is.Equal(body, fmt.Sprintln(`{"error_code":101,"error_message":"book not found"}`))
	})

	t.Run("expected invalid id error", func(t *testing.T) {
		is := is.New(t)

		request, _ := http.NewRequest(http.MethodGet, "/books/not-an-id", nil)
		status, _ := serve(s, request)

		is.Equal(status, http.StatusBadRequest)
	})
}

func TestListBooks(t *testing.T) {
	s := newTestServer(t, lendinghttp.ServerConfig{Port: 8080}, nil)

	t.Run("lists books with the query parameters", func(t *testing.T) {
		is := is.New(t)

		expectedReq := lending.ListBooksRequest{
			Search:        "café",
			SearchBy:      lending.SearchByAuthor,
			Category:      "fiction",
			AvailableOnly: true,
			SortBy:        "published_year",
			SortDirection: "desc",
			Page:          2,
			PageSize:      5,
		}
		s.mockAPI.EXPECT().ListBooks(gomock.Any(), expectedReq).Return(lending.PagedBooks{
			PageCurrent: 2,
			PageTotal:   2,
			PageSize:    5,
			ItemsTotal:  6,
			Results:     []lending.Book{{ID: uuid.New(), Title: "Last"}},
		}, nil)

		request, _ := http.NewRequest(http.MethodGet, "/books?search=caf%C3%A9&search_by=author&category=fiction&available=true&sort_by=published_year&sort_direction=desc&page=2&page_size=5", nil)
		status, body := serve(s, request)

		is.Equal(status, http.StatusOK)
		is.True(strings.Contains(body, `"page_current":2,"page_total":2,"page_size":5,"items_total":6`))
	})

	t.Run("empty results are an empty list", func(t *testing.T) {
		is := is.New(t)

		s.mockAPI.EXPECT().ListBooks(gomock.Any(), gomock.Any()).Return(lending.PagedBooks{Results: []lending.Book{}}, nil)

		request, _ := http.NewRequest(http.MethodGet, "/books", nil)
		status, body := serve(s, request)

		is.Equal(status, http.StatusOK)
		is.Equal(body, fmt.Sprintln(`{"page_current":0,"page_total":0,"page_size":0,"items_total":0,"results":[]}`))
	})

	t.Run("expected invalid parameter errors", func(t *testing.T) {
		is := is.New(t)

		for query, code := range map[string]int{
			"search_by=publisher": 104,
			"sort_by=price":       105,
			"sort_direction=up":   105,
			"page=0":              106,
			"page_size=31":        106,
		} {
			request, _ := http.NewRequest(http.MethodGet, "/books?"+query, nil)
			status, body := serve(s, request)

			is.Equal(status, http.StatusBadRequest)
			is.True(strings.HasPrefix(body, fmt.Sprintf(`{"error_code":%d,`, code)))
		}
	})

	t.Run("expected page out of range error", func(t *testing.T) {
		is := is.New(t)

		s.mockAPI.EXPECT().ListBooks(gomock.Any(), gomock.Any()).Return(lending.PagedBooks{}, lending.ErrResponseQueryPageOutOfRange)

		request, _ := http.NewRequest(http.MethodGet, "/books?page=9", nil)
		status, body := serve(s, request)

		is.Equal(status, http.StatusBadRequest)
		is.Equal(body, fmt.Sprintln(`{"error_code":107,"error_message":"page out of range."}`))
	})
}

func TestBorrowBook(t *testing.T) {
	s := newTestServer(t, lendinghttp.ServerConfig{Port: 8080}, nil)
	userID := uuid.New()

	t.Run("borrows a book without errors", func(t *testing.T) {
		is := is.New(t)

		bookID := uuid.New()
		borrowDate := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
		loan := lending.Loan{
			ID:         uuid.New(),
			UserID:     userID,
			BookID:     bookID,
			BorrowDate: borrowDate,
			DueDate:    borrowDate.Add(lending.LoanPeriod),
			Status:     lending.StatusBorrowed,
		}
		s.mockAPI.EXPECT().BorrowBook(gomock.Any(), userID, bookID).Return(loan, nil)

		request, _ := http.NewRequest(http.MethodPost, "/loans", strings.NewReader(fmt.Sprintf(`{"book_id":"%s"}`, bookID)))
		status, body := serve(s, authorized(t, request, userID))

		is.Equal(status, http.StatusCreated)
		is.Equal(body, fmt.Sprintf(`{"id":"%s","user_id":"%s","book_id":"%s","borrow_date":"2024-03-01T10:00:00Z","due_date":"2024-03-31T10:00:00Z","return_date":null,"status":"borrowed"}`+"\n", loan.ID, userID, bookID))
	})

	t.Run("expected conflict when the book is lent", func(t *testing.T) {
		is := is.New(t)

		s.mockAPI.EXPECT().BorrowBook(gomock.Any(), userID, gomock.Any()).Return(lending.Loan{}, lending.ErrResponseBookNotAvailable)

		request, _ := http.NewRequest(http.MethodPost, "/loans", strings.NewReader(fmt.Sprintf(`{"book_id":"%s"}`, uuid.New())))
		status, body := serve(s, authorized(t, request, userID))

		is.Equal(status, http.StatusConflict)
		is.Equal(body, fmt.Sprintln(`{"error_code":112,"error_message":"book is not available for borrowing"}`))
	})

	t.Run("expected not found for an unknown book", func(t *testing.T) {
		is := is.New(t)

		s.mockAPI.EXPECT().BorrowBook(gomock.Any(), userID, gomock.Any()).Return(lending.Loan{}, fmt.Errorf("searching by ID: %w", lending.ErrResponseBookNotFound))

		request, _ := http.NewRequest(http.MethodPost, "/loans", strings.NewReader(fmt.Sprintf(`{"book_id":"%s"}`, uuid.New())))
		status, _ := serve(s, authorized(t, request, userID))

		is.Equal(status, http.StatusNotFound)
	})

	t.Run("expected blank book id error", func(t *testing.T) {
		is := is.New(t)

		request, _ := http.NewRequest(http.MethodPost, "/loans", strings.NewReader(`{}`))
		status, body := serve(s, authorized(t, request, userID))

		is.Equal(status, http.StatusBadRequest)
		is.Equal(body, fmt.Sprintln(`{"error_code":116,"error_message":"field book_id must be filled correctly."}`))
	})

	t.Run("expected partial failure error", func(t *testing.T) {
		is := is.New(t)

		partial := lending.NewErrPartialFailure(fmt.Errorf("boom"), fmt.Errorf("connection lost"))
		s.mockAPI.EXPECT().BorrowBook(gomock.Any(), userID, gomock.Any()).Return(lending.Loan{}, partial)

		request, _ := http.NewRequest(http.MethodPost, "/loans", strings.NewReader(fmt.Sprintf(`{"book_id":"%s"}`, uuid.New())))
		status, body := serve(s, authorized(t, request, userID))

		is.Equal(status, http.StatusInternalServerError)
		is.True(strings.HasPrefix(body, `{"error_code":114,`))
	})
}

func TestReturnLoan(t *testing.T) {
	s := newTestServer(t, lendinghttp.ServerConfig{Port: 8080}, nil)
	userID := uuid.New()

	t.Run("returns a loan without errors", func(t *testing.T) {
		is := is.New(t)

		loanID := uuid.New()
		s.mockAPI.EXPECT().ReturnLoan(gomock.Any(), loanID).DoAndReturn(func(ctx context.Context, id uuid.UUID) error {
			caller, ok := identity.UserID(ctx)
			is.True(ok)
			is.Equal(caller, userID)
			return nil
		})

		request, _ := http.NewRequest(http.MethodDelete, "/loans/"+loanID.String(), nil)
		status, _ := serve(s, authorized(t, request, userID))

		is.Equal(status, http.StatusNoContent)
	})

	t.Run("returning twice is a no-op success", func(t *testing.T) {
		is := is.New(t)

		loanID := uuid.New()
		s.mockAPI.EXPECT().ReturnLoan(gomock.Any(), loanID).Return(lending.ErrResponseLoanAlreadyReturned)

		request, _ := http.NewRequest(http.MethodDelete, "/loans/"+loanID.String(), nil)
		status, _ := serve(s, authorized(t, request, userID))

		is.Equal(status, http.StatusNoContent)
	})

	t.Run("expected not found for an unknown loan", func(t *testing.T) {
		is := is.New(t)

		loanID := uuid.New()
		s.mockAPI.EXPECT().ReturnLoan(gomock.Any(), loanID).Return(fmt.Errorf("getting loan from db: %w", lending.ErrResponseLoanNotFound))

		request, _ := http.NewRequest(http.MethodDelete, "/loans/"+loanID.String(), nil)
		status, body := serve(s, authorized(t, request, userID))

		is.Equal(status, http.StatusNotFound)
		is.Equal(body, fmt.Sprintln(`{"error_code":110,"error_message":"loan not found"}`))
	})

	t.Run("only DELETE is allowed", func(t *testing.T) {
		is := is.New(t)

		request, _ := http.NewRequest(http.MethodGet, "/loans/"+uuid.New().String(), nil)
		status, _ := serve(s, authorized(t, request, userID))

		is.Equal(status, http.StatusMethodNotAllowed)
	})
}

func TestActiveLoans(t *testing.T) {
	s := newTestServer(t, lendinghttp.ServerConfig{Port: 8080}, nil)
	userID := uuid.New()

	t.Run("lists the caller's active loans", func(t *testing.T) {
		is := is.New(t)

		b := lending.Book{ID: uuid.New(), Title: "Lent", Author: "A"}
		l := lending.Loan{ID: uuid.New(), UserID: userID, BookID: b.ID, Status: lending.StatusBorrowed}
		s.mockAPI.EXPECT().ListActiveLoans(gomock.Any(), userID).Return([]lending.ActiveLoan{{Loan: l, Book: b}}, nil)

		request, _ := http.NewRequest(http.MethodGet, "/loans", nil)
		status, body := serve(s, authorized(t, request, userID))

		is.Equal(status, http.StatusOK)
		is.True(strings.HasPrefix(body, fmt.Sprintf(`[{"loan":{"id":"%s"`, l.ID)))
		is.True(strings.Contains(body, `"book":{"id":"`+b.ID.String()))
	})

	t.Run("no loans is an empty list", func(t *testing.T) {
		is := is.New(t)

		s.mockAPI.EXPECT().ListActiveLoans(gomock.Any(), userID).Return([]lending.ActiveLoan{}, nil)

		request, _ := http.NewRequest(http.MethodGet, "/loans", nil)
		status, body := serve(s, authorized(t, request, userID))

		is.Equal(status, http.StatusOK)
		is.Equal(body, "[]\n")
	})

	t.Run("counts the caller's active loans", func(t *testing.T) {
		is := is.New(t)

		s.mockAPI.EXPECT().CountActiveLoans(gomock.Any(), userID).Return(3, nil)

		request, _ := http.NewRequest(http.MethodGet, "/loans/count", nil)
		status, body := serve(s, authorized(t, request, userID))

		is.Equal(status, http.StatusOK)
		is.Equal(body, "{\"count\":3}\n")
	})
}

func TestRateLimit(t *testing.T) {
	is := is.New(t)
	s := newTestServer(t, lendinghttp.ServerConfig{Port: 8080, RateLimit: rate.Every(time.Hour), RateBurst: 2}, nil)

	send := func(remoteAddr string) int {
		request, _ := http.NewRequest(http.MethodGet, "/ping", nil)
		request.RemoteAddr = remoteAddr
		status, _ := serve(s, request)
		return status
	}

	is.Equal(send("10.0.0.1:5000"), http.StatusNoContent)
	is.Equal(send("10.0.0.1:5001"), http.StatusNoContent)
	is.Equal(send("10.0.0.1:5002"), http.StatusTooManyRequests)

	// Other clients keep their own budget.
	is.Equal(send("10.0.0.2:5000"), http.StatusNoContent)
}

func TestLoansLive(t *testing.T) {
	is := is.New(t)
	hub := live.NewHub()
	s := newTestServer(t, lendinghttp.ServerConfig{Port: 8080}, hub)
	userID := uuid.New()

	s.mockAPI.EXPECT().CountActiveLoans(gomock.Any(), userID).Return(1, nil)

	srv := httptest.NewServer(s.server.Handler)
	defer srv.Close()

	tok, _, err := tokens.Sign(userID)
	is.NoErr(err)

	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/loans/live?token="+tok, nil)
	is.NoErr(err)
	defer ws.Close()

	var ev live.ActiveLoansEvent
	_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	is.NoErr(ws.ReadJSON(&ev))
	is.Equal(ev.Count, 1)

	hub.ActiveLoansChanged(userID, 2)
	_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	is.NoErr(ws.ReadJSON(&ev))
	is.Equal(ev.Count, 2)

	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/loans/live", nil)
	is.True(err != nil)
	is.Equal(resp.StatusCode, http.StatusUnauthorized)
}

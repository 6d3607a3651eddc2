package http

import (
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

type ServerConfig struct {
	Port int
	// RateLimit and RateBurst bound requests per client IP. A zero RateLimit disables limiting.
	RateLimit   rate.Limit
	RateBurst   int
	RateClients int
}

func NewServer(config ServerConfig, h *LendingHandler) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/ping", ping)
	mux.HandleFunc("/books", h.books)
	mux.HandleFunc("/books/", h.bookById)
	mux.HandleFunc("/loans", h.loans)
	mux.HandleFunc("/loans/count", h.loansCount)
	mux.HandleFunc("/loans/live", h.loansLive)
	mux.HandleFunc("/loans/", h.loanById)

	var handler http.Handler = mux
	if config.RateLimit > 0 {
		handler = RateLimit(NewIPRateLimiter(config.RateLimit, config.RateBurst, config.RateClients), mux)
	}

	server := http.Server{
		Addr:              fmt.Sprintf(":%d", config.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return &server
}

/* Tests the http server connection.  */
func ping(w http.ResponseWriter, r *http.Request) {
	method := r.Method
	if method == http.MethodGet {
		w.WriteHeader(http.StatusNoContent)
		return
	} else {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
}

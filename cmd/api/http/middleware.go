package http

import (
	"log"
	"net"
	"net/http"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"github.com/lending-service/cmd/api/identity"
	"github.com/lending-service/cmd/api/lending"
	"golang.org/x/time/rate"
)

const defaultRateClients = 4096

// IPRateLimiter manages per-IP rate limiting. Only the most recently seen
// clients keep a limiter.
type IPRateLimiter struct {
	mu       sync.Mutex
	limiters *lru.Cache
	rate     rate.Limit
	burst    int
}

func NewIPRateLimiter(r rate.Limit, burst, clients int) *IPRateLimiter {
	if clients <= 0 {
		clients = defaultRateClients
	}
	// lru.New only fails on a non-positive size.
	limiters, _ := lru.New(clients)
	return &IPRateLimiter{
		limiters: limiters,
		rate:     r,
		burst:    burst,
	}
}

// GetLimiter returns the rate limiter for a given IP
func (l *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if limiter, ok := l.limiters.Get(ip); ok {
		return limiter.(*rate.Limiter)
	}
	newLimiter := rate.NewLimiter(l.rate, l.burst)
	l.limiters.Add(ip, newLimiter)
	return newLimiter
}

/* Rejects with 429 the requests of a client that exhausted its limiter. */
func RateLimit(l *IPRateLimiter, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !l.GetLimiter(ip).Allow() {
			log.Printf("rate limited: %s %s from %s", r.Method, r.URL.Path, ip)
			w.Header().Set("Retry-After", "1")
			responseJSON(w, http.StatusTooManyRequests, lending.ErrResponseRateLimited)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

/*
Resolves the caller from the bearer token and returns the request carrying it.
When the token is missing or invalid a 401 is written and ok is false.
*/
func (h *LendingHandler) authenticate(w http.ResponseWriter, r *http.Request) (authReq *http.Request, ok bool) {
	return h.authenticateToken(w, r, bearerToken(r))
}

func (h *LendingHandler) authenticateToken(w http.ResponseWriter, r *http.Request, raw string) (*http.Request, bool) {
	if raw == "" {
		responseJSON(w, http.StatusUnauthorized, lending.ErrResponseUnauthenticated)
		return r, false
	}

	userID, err := h.tokens.Parse(raw)
	if err != nil {
		log.Println(err)
		responseJSON(w, http.StatusUnauthorized, lending.ErrResponseUnauthenticated)
		return r, false
	}

	return r.WithContext(identity.WithUserID(r.Context(), userID)), true
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > len("Bearer ") && strings.EqualFold(h[:len("Bearer ")], "bearer ") {
		return strings.TrimSpace(h[len("Bearer "):])
	}
	return ""
}

package cache

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru"
	"github.com/lending-service/cmd/api/lending"
)

// LRU keeps book lookups and per-user active loan lists. Every invalidation
// bumps the generation, and entries read before it are not stored.
type LRU struct {
	mu    sync.Mutex
	gen   uint64
	books *lru.Cache
	loans *lru.Cache
}

func NewLRU(size int) (*LRU, error) {
	books, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("creating books cache: %w", err)
	}
	loans, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("creating loans cache: %w", err)
	}
	return &LRU{books: books, loans: loans}, nil
}

func (c *LRU) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

func (c *LRU) GetBook(id uuid.UUID) (lending.Book, bool) {
	raw, ok := c.books.Get(id)
	if !ok {
		return lending.Book{}, false
	}
	return raw.(lending.Book), true
}

func (c *LRU) AddBook(gen uint64, b lending.Book) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return
	}
	c.books.Add(b.ID, b)
}

func (c *LRU) GetActiveLoans(userID uuid.UUID) ([]lending.ActiveLoan, bool) {
	raw, ok := c.loans.Get(userID)
	if !ok {
		return nil, false
	}
	return copyLoans(raw.([]lending.ActiveLoan)), true
}

func (c *LRU) AddActiveLoans(gen uint64, userID uuid.UUID, loans []lending.ActiveLoan) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return
	}
	c.loans.Add(userID, copyLoans(loans))
}

func (c *LRU) Invalidate(userID, bookID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.books.Remove(bookID)
	c.loans.Remove(userID)
}

func (c *LRU) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.books.Purge()
	c.loans.Purge()
}

func copyLoans(loans []lending.ActiveLoan) []lending.ActiveLoan {
	cp := make([]lending.ActiveLoan, len(loans))
	copy(cp, loans)
	return cp
}

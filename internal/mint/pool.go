package mint

import (
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// poolSize bounds how many mint clients are kept at once.
const poolSize = 64

// Pool hands out one Client per mint URL. The least recently used client is
// dropped once more than its capacity of mints have been seen.
type Pool struct {
	timeout time.Duration
	clients *lru.Cache[string, *Client]
}

func NewPool(timeout time.Duration) *Pool {
	return newPool(timeout, poolSize)
}

func newPool(timeout time.Duration, size int) *Pool {
	// New only fails for a non-positive size.
	clients, _ := lru.New[string, *Client](size)
	return &Pool{
		timeout: timeout,
		clients: clients,
	}
}

// Client returns the cached client for mintURL, creating it on first use.
func (p *Pool) Client(mintURL string) *Client {
	key := strings.TrimRight(mintURL, "/")

	if c, ok := p.clients.Get(key); ok {
		return c
	}
	c := NewClient(key, p.timeout)
	// A concurrent caller may have raced us; keep whichever landed first.
	if prev, ok, _ := p.clients.PeekOrAdd(key, c); ok {
		return prev
	}
	return c
}

// Len returns the number of cached clients.
func (p *Pool) Len() int {
	return p.clients.Len()
}

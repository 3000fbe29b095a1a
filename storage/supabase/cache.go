package supabase

import (
	"context"
	"sync"
	"time"

	"github.com/trezcool/mwalimu/core"
)

type (
	// ClientSource resolves the client to use for one call.
	ClientSource interface {
		Client(ctx context.Context) (*Client, error)
	}

	// CredentialsFunc returns the current backend URL and API key.
	CredentialsFunc func(ctx context.Context) (baseURL, key string, err error)
)

// Client returns c itself, so that a fixed client can be used as a ClientSource.
func (c *Client) Client(context.Context) (*Client, error) {
	return c, nil
}

// ClientCache holds the client of the current credential only.
// A new credential replaces the cached client instead of adding another one.
type ClientCache struct {
	mu      sync.Mutex
	timeout time.Duration
	key     string
	client  *Client
}

func NewClientCache(timeout time.Duration) *ClientCache {
	return &ClientCache{timeout: timeout}
}

func cacheKey(baseURL, key string) string {
	return baseURL + "\x00" + key
}

// Get returns the client of the credential, replacing the cached one when the credential changed.
func (cc *ClientCache) Get(baseURL, key string) (*Client, error) {
	baseURL, key = core.CleanString(baseURL), core.CleanString(key)
	if baseURL == "" || key == "" {
		return nil, core.ErrMissingBackendKey
	}

	cc.mu.Lock()
	defer cc.mu.Unlock()

	k := cacheKey(baseURL, key)
	if cc.client != nil && cc.key == k {
		return cc.client, nil
	}
	cc.drop()
	cc.key, cc.client = k, NewClient(baseURL, key, cc.timeout)
	return cc.client, nil
}

// Invalidate drops the cached client when it belongs to the credential.
func (cc *ClientCache) Invalidate(baseURL, key string) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	if cc.key == cacheKey(core.CleanString(baseURL), core.CleanString(key)) {
		cc.drop()
	}
}

func (cc *ClientCache) Reset() {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.drop()
}

// Len is 1 while a client is cached, 0 otherwise.
func (cc *ClientCache) Len() int {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	if cc.client == nil {
		return 0
	}
	return 1
}

// drop must be called with mu held.
func (cc *ClientCache) drop() {
	if cc.client != nil {
		cc.client.http.CloseIdleConnections()
	}
	cc.key, cc.client = "", nil
}

// Source returns a ClientSource that reads the credentials on every call,
// so that replaced credentials take effect without rebuilding the repositories.
func (cc *ClientCache) Source(creds CredentialsFunc) ClientSource {
	return cachedSource{cache: cc, creds: creds}
}

type cachedSource struct {
	cache *ClientCache
	creds CredentialsFunc
}

func (cs cachedSource) Client(ctx context.Context) (*Client, error) {
	baseURL, key, err := cs.creds(ctx)
	if err != nil {
		return nil, err
	}
	return cs.cache.Get(baseURL, key)
}

package oauth2

import (
	"sync"
)

// TokenCache is a concurrency-safe token store keyed by grant, token URL,
// client and scopes.
type TokenCache struct {
	tokens map[string]*Token
	mutex  sync.RWMutex
}

func NewTokenCache() *TokenCache {
	return &TokenCache{
		tokens: make(map[string]*Token),
	}
}

func (c *TokenCache) Get(key string) *Token {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.tokens[key]
}

func (c *TokenCache) Set(key string, token *Token) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.tokens[key] = token
}

// GlobalCache lets repeated sends in one process reuse a token.
var GlobalCache = NewTokenCache()

package handler

import (
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

// TokenRegistry issues and validates the security tokens required on write
// requests. Tokens expire after their TTL.
type TokenRegistry struct {
	cache *gocache.Cache
	ttl   time.Duration
}

// NewTokenRegistry constructs a registry whose tokens live for ttl.
func NewTokenRegistry(ttl time.Duration) *TokenRegistry {
	return &TokenRegistry{
		cache: gocache.New(ttl, ttl/2),
		ttl:   ttl,
	}
}

// Issue creates and remembers a new token.
func (r *TokenRegistry) Issue() string {
	token := uuid.NewString()
	r.cache.Set(token, struct{}{}, r.ttl)
	return token
}

// Valid reports whether token was issued and has not expired.
func (r *TokenRegistry) Valid(token string) bool {
	if token == "" {
		return false
	}
	_, ok := r.cache.Get(token)
	return ok
}

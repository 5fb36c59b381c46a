package storage

import (
	"sync"

	"github.com/google/uuid"
)

// Handle is a process-local, one-per-mint reference to retrieved content.
// Handles live only for the lifetime of the process; whoever mints one owns
// releasing it, otherwise the payload stays pinned in memory.
type Handle struct {
	Token    string
	Name     string
	MimeType string
	Content  []byte
}

// HandleRegistry tracks minted handles by token.
type HandleRegistry struct {
	mu      sync.RWMutex
	handles map[string]Handle
}

func NewHandleRegistry() *HandleRegistry {
	return &HandleRegistry{handles: make(map[string]Handle)}
}

// Mint registers h under a fresh token and returns the token.
func (r *HandleRegistry) Mint(h Handle) string {
	token := uuid.New().String()
	h.Token = token

	r.mu.Lock()
	defer r.mu.Unlock()
	r.handles[token] = h
	return token
}

// Resolve returns the handle for token, if it is still live.
func (r *HandleRegistry) Resolve(token string) (Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handles[token]
	return h, ok
}

// Release drops the handle. Safe to call for unknown or already released
// tokens.
func (r *HandleRegistry) Release(token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.handles, token)
}

// Len reports the number of live handles.
func (r *HandleRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handles)
}

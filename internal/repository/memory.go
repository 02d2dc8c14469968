package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"aira/internal/model"

	"github.com/google/uuid"
)

// MemoryUserStore holds users in process memory, keyed by lowercased address
type MemoryUserStore struct {
	mu    sync.RWMutex
	users map[string]*model.User
}

// NewMemoryUserStore creates an empty MemoryUserStore
func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: make(map[string]*model.User)}
}

// FindOrCreate returns the user for address, creating it on first login
func (s *MemoryUserStore) FindOrCreate(ctx context.Context, address string) (*model.User, error) {
	key := strings.ToLower(address)

	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[key]; ok {
		cp := *u
		return &cp, nil
	}
	u := &model.User{
		ID:            uuid.NewString(),
		WalletAddress: address,
		CreatedAt:     time.Now().UTC(),
	}
	s.users[key] = u
	cp := *u
	return &cp, nil
}

// FindByAddress returns nil, nil when the address has never logged in
func (s *MemoryUserStore) FindByAddress(ctx context.Context, address string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[strings.ToLower(address)]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

// MemoryNonceStore holds issued nonces with their expiry
type MemoryNonceStore struct {
	mu     sync.Mutex
	nonces map[string]time.Time
	now    func() time.Time
}

// NewMemoryNonceStore creates an empty MemoryNonceStore
func NewMemoryNonceStore() *MemoryNonceStore {
	return &MemoryNonceStore{nonces: make(map[string]time.Time), now: time.Now}
}

// Put records nonce as live for ttl
func (s *MemoryNonceStore) Put(ctx context.Context, nonce string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nonces[nonce] = s.now().Add(ttl)
	return nil
}

// Consume deletes nonce and reports whether it had not yet expired
func (s *MemoryNonceStore) Consume(ctx context.Context, nonce string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	expires, ok := s.nonces[nonce]
	if !ok {
		return false, nil
	}
	delete(s.nonces, nonce)
	return s.now().Before(expires), nil
}

// Cleanup removes expired nonces
func (s *MemoryNonceStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for k, expires := range s.nonces {
		if !now.Before(expires) {
			delete(s.nonces, k)
		}
	}
}

package account

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// inMemory implements Store using an in-memory map.
type inMemory struct {
	mu       sync.RWMutex
	accounts map[primitive.ObjectID]Account
}

// NewInMemoryStore creates a new instance of Store
func NewInMemoryStore() Store {
	return &inMemory{
		accounts: make(map[primitive.ObjectID]Account),
	}
}

func (s *inMemory) FindByID(_ context.Context, id primitive.ObjectID) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[id]
	if !ok {
		return nil, ErrAccountNotFound
	}
	copied := a
	copied.Cart = append([]CartItem(nil), a.Cart...)
	return &copied, nil
}

func (s *inMemory) FindByEmail(_ context.Context, email string) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	email = strings.ToLower(email)
	for _, a := range s.accounts {
		if a.Email == email {
			copied := a
			copied.Cart = append([]CartItem(nil), a.Cart...)
			return &copied, nil
		}
	}
	return nil, ErrAccountNotFound
}

func (s *inMemory) Insert(_ context.Context, a *Account) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a.Email = strings.ToLower(a.Email)
	for _, existing := range s.accounts {
		if existing.Email == a.Email {
			return nil, ErrEmailExists
		}
	}
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	now := time.Now()
	a.CreatedAt = now
	a.UpdatedAt = now
	if a.Cart == nil {
		a.Cart = []CartItem{}
	}
	s.accounts[a.ID] = *a
	return a, nil
}

func (s *inMemory) Update(_ context.Context, a *Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[a.ID]; !ok {
		return ErrAccountNotFound
	}
	a.UpdatedAt = time.Now()
	s.accounts[a.ID] = *a
	return nil
}

func (s *inMemory) ReplaceCart(_ context.Context, id primitive.ObjectID, cart []CartItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		return ErrAccountNotFound
	}
	if cart == nil {
		cart = []CartItem{}
	}
	a.Cart = append([]CartItem(nil), cart...)
	a.UpdatedAt = time.Now()
	s.accounts[id] = a
	return nil
}

func (s *inMemory) Delete(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[id]; !ok {
		return ErrAccountNotFound
	}
	delete(s.accounts, id)
	return nil
}

func (s *inMemory) List(_ context.Context, params ListParams) ([]Account, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		if params.Role != "" && a.Role != params.Role {
			continue
		}
		matched = append(matched, a)
	}
	total := int64(len(matched))

	if params.Offset >= total {
		return []Account{}, total, nil
	}
	end := params.Offset + params.Limit
	if params.Limit <= 0 || end > total {
		end = total
	}
	return matched[params.Offset:end], total, nil
}

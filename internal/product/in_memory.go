package product

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// inMemory implements Store using an in-memory map.
type inMemory struct {
	mu       sync.RWMutex
	products map[primitive.ObjectID]Product
}

// NewInMemoryStore creates a new instance of Store
func NewInMemoryStore() Store {
	return &inMemory{
		products: make(map[primitive.ObjectID]Product),
	}
}

func (s *inMemory) FindByID(_ context.Context, id primitive.ObjectID) (*Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	return &p, nil
}

func (s *inMemory) FindAll(_ context.Context) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]Product, 0, len(s.products))
	for _, p := range s.products {
		list = append(list, p)
	}
	return list, nil
}

func (s *inMemory) FindByCategory(_ context.Context, category string) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]Product, 0)
	for _, p := range s.products {
		if p.Category == category {
			list = append(list, p)
		}
	}
	return list, nil
}

func (s *inMemory) FindByFarmer(_ context.Context, farmerID primitive.ObjectID) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]Product, 0)
	for _, p := range s.products {
		if p.FarmerID == farmerID {
			list = append(list, p)
		}
	}
	return list, nil
}

func (s *inMemory) Insert(_ context.Context, p *Product) (*Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	s.products[p.ID] = *p
	return p, nil
}

func (s *inMemory) Update(_ context.Context, p *Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[p.ID]; !ok {
		return ErrProductNotFound
	}
	p.UpdatedAt = time.Now()
	s.products[p.ID] = *p
	return nil
}

func (s *inMemory) SetStock(_ context.Context, id primitive.ObjectID, stock int32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if stock < 0 {
		return ErrNegativeStock
	}
	p, ok := s.products[id]
	if !ok {
		return ErrProductNotFound
	}
	p.Stock = stock
	p.UpdatedAt = time.Now()
	s.products[id] = p
	return nil
}

func (s *inMemory) Delete(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return ErrProductNotFound
	}
	delete(s.products, id)
	return nil
}

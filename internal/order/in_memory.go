package order

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// inMemory implements Store using an in-memory map.
type inMemory struct {
	mu     sync.RWMutex
	orders map[primitive.ObjectID]Order
}

// NewInMemoryStore creates a new instance of Store
func NewInMemoryStore() Store {
	return &inMemory{
		orders: make(map[primitive.ObjectID]Order),
	}
}

func (s *inMemory) Insert(_ context.Context, o *Order) (*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	now := time.Now()
	o.CreatedAt = now
	o.UpdatedAt = now
	s.orders[o.ID] = *o
	return o, nil
}

func (s *inMemory) FindByID(_ context.Context, id primitive.ObjectID) (*Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	copied := o
	copied.Items = append([]Item(nil), o.Items...)
	copied.History = append([]HistoryEntry(nil), o.History...)
	return &copied, nil
}

func (s *inMemory) FindByUser(_ context.Context, userID primitive.ObjectID) ([]Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]Order, 0)
	for _, o := range s.orders {
		if o.UserID == userID {
			list = append(list, o)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list, nil
}

func (s *inMemory) Update(_ context.Context, o *Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.orders[o.ID]; !ok {
		return ErrOrderNotFound
	}
	o.UpdatedAt = time.Now()
	s.orders[o.ID] = *o
	return nil
}

func (s *inMemory) List(_ context.Context, params ListParams) ([]Order, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]Order, 0, len(s.orders))
	for _, o := range s.orders {
		if params.Status != "" && o.Status != params.Status {
			continue
		}
		matched = append(matched, o)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	total := int64(len(matched))

	if params.Offset >= total {
		return []Order{}, total, nil
	}
	end := params.Offset + params.Limit
	if params.Limit <= 0 || end > total {
		end = total
	}
	return matched[params.Offset:end], total, nil
}

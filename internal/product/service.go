package product

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProductService defines product listing and farmer-scoped management.
type ProductService interface {
	// FindByID retrieves a single product.
	FindByID(ctx context.Context, id primitive.ObjectID) (*Product, error)

	// FindAll returns all products.
	FindAll(ctx context.Context) ([]Product, error)

	// FindByCategory returns products in the given category.
	FindByCategory(ctx context.Context, category string) ([]Product, error)

	// FindByFarmer returns the given farmer's own listings.
	FindByFarmer(ctx context.Context, farmerID primitive.ObjectID) ([]Product, error)

	// Create lists a new product owned by the given farmer.
	Create(ctx context.Context, farmerID primitive.ObjectID, dto CreateDto) (*Product, error)

	// Update applies a partial update to the farmer's own product.
	// Returns ErrNotOwner if the product belongs to someone else.
	Update(ctx context.Context, farmerID, id primitive.ObjectID, dto UpdateDto) (*Product, error)

	// Delete removes the farmer's own product.
	// Returns ErrNotOwner if the product belongs to someone else.
	Delete(ctx context.Context, farmerID, id primitive.ObjectID) error
}

// Service implements ProductService on top of a Store.
type Service struct {
	store Store
}

// NewService creates a new instance of ProductService.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// CreateDto is the payload for listing a new product.
type CreateDto struct {
	Name     string  `json:"name" validate:"required"`
	Price    float64 `json:"price" validate:"gte=0"`
	Stock    int32   `json:"countInStock" validate:"gte=0"`
	Image    string  `json:"image"`
	Category string  `json:"category"`
	Location string  `json:"location"`
}

// UpdateDto is a partial product update. Zero-value fields mean "no change",
// except Stock which uses a pointer so an explicit 0 is applied.
type UpdateDto struct {
	Name     string   `json:"name"`
	Price    *float64 `json:"price" validate:"omitempty,gte=0"`
	Stock    *int32   `json:"countInStock" validate:"omitempty,gte=0"`
	Image    string   `json:"image"`
	Category string   `json:"category"`
	Location string   `json:"location"`
}

func (s *Service) FindByID(ctx context.Context, id primitive.ObjectID) (*Product, error) {
	return s.store.FindByID(ctx, id)
}

func (s *Service) FindAll(ctx context.Context) ([]Product, error) {
	return s.store.FindAll(ctx)
}

func (s *Service) FindByCategory(ctx context.Context, category string) ([]Product, error) {
	return s.store.FindByCategory(ctx, category)
}

func (s *Service) FindByFarmer(ctx context.Context, farmerID primitive.ObjectID) ([]Product, error) {
	return s.store.FindByFarmer(ctx, farmerID)
}

// Create lists a new product owned by the given farmer.
func (s *Service) Create(ctx context.Context, farmerID primitive.ObjectID, dto CreateDto) (*Product, error) {
	p := &Product{
		Name:     dto.Name,
		Price:    dto.Price,
		Stock:    dto.Stock,
		Image:    dto.Image,
		Category: dto.Category,
		Location: dto.Location,
		FarmerID: farmerID,
	}
	return s.store.Insert(ctx, p)
}

// Update applies a partial update to the farmer's own product.
func (s *Service) Update(ctx context.Context, farmerID, id primitive.ObjectID, dto UpdateDto) (*Product, error) {
	p, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.FarmerID != farmerID {
		return nil, ErrNotOwner
	}

	if dto.Name != "" {
		p.Name = dto.Name
	}
	if dto.Price != nil {
		p.Price = *dto.Price
	}
	if dto.Stock != nil {
		p.Stock = *dto.Stock
	}
	if dto.Image != "" {
		p.Image = dto.Image
	}
	if dto.Category != "" {
		p.Category = dto.Category
	}
	if dto.Location != "" {
		p.Location = dto.Location
	}

	if err := s.store.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Delete removes the farmer's own product.
func (s *Service) Delete(ctx context.Context, farmerID, id primitive.ObjectID) error {
	p, err := s.store.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if p.FarmerID != farmerID {
		return ErrNotOwner
	}
	return s.store.Delete(ctx, id)
}

package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/wickshop/ember/internal/domain"
	"github.com/wickshop/ember/internal/model"
	"github.com/wickshop/ember/internal/store"
)

// CatalogService manages products, scents, and categories.
type CatalogService interface {
	ListProducts(ctx context.Context, filter store.ProductFilter) ([]model.Product, int64, error)
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	CreateProduct(ctx context.Context, params ProductParams) (*model.Product, error)
	UpdateProduct(ctx context.Context, id string, params ProductParams) (*model.Product, error)
	DeleteProduct(ctx context.Context, id string) error

	ListScents(ctx context.Context) ([]model.Scent, error)
	CreateScent(ctx context.Context, params ScentParams) (*model.Scent, error)
	UpdateScent(ctx context.Context, id string, params ScentParams) (*model.Scent, error)
	DeleteScent(ctx context.Context, id string) error

	ListCategories(ctx context.Context) ([]model.Category, error)
	CreateCategory(ctx context.Context, params CategoryParams) (*model.Category, error)
	UpdateCategory(ctx context.Context, id string, params CategoryParams) (*model.Category, error)
	DeleteCategory(ctx context.Context, id string) error
}

// ProductParams carries a product create or update.
type ProductParams struct {
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description"`
	Price       float64  `json:"price" validate:"required,gt=0"`
	Images      []string `json:"images"`
	CategoryID  string   `json:"categoryId"`
	ScentIDs    []string `json:"scentIds"`
}

// ScentParams carries a scent create or update.
type ScentParams struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

// CategoryParams carries a category create or update.
type CategoryParams struct {
	Name string `json:"name" validate:"required"`
	Icon string `json:"icon"`
}

type catalogService struct {
	catalog *store.CatalogStore
	log     zerolog.Logger
}

// NewCatalogService creates a CatalogService.
func NewCatalogService(catalog *store.CatalogStore, log zerolog.Logger) CatalogService {
	return &catalogService{catalog: catalog, log: log}
}

func (s *catalogService) ListProducts(ctx context.Context, filter store.ProductFilter) ([]model.Product, int64, error) {
	return s.catalog.ListProducts(ctx, filter)
}

func (s *catalogService) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	p, err := s.catalog.GetProduct(ctx, id)
	if domain.ErrorCode(err) == domain.ENOTFOUND {
		return nil, ErrProductNotFound
	}
	return p, err
}

func (s *catalogService) CreateProduct(ctx context.Context, params ProductParams) (*model.Product, error) {
	const op = "catalog.CreateProduct"

	scents, err := s.resolveScents(ctx, op, params.ScentIDs)
	if err != nil {
		return nil, err
	}

	p := &model.Product{
		Name:        params.Name,
		Description: params.Description,
		Price:       params.Price,
		Images:      params.Images,
		CategoryID:  params.CategoryID,
		Scents:      scents,
	}
	if err := s.catalog.CreateProduct(ctx, p); err != nil {
		return nil, err
	}
	s.log.Info().Str("product_id", p.ID).Str("name", p.Name).Msg("product created")
	return s.catalog.GetProduct(ctx, p.ID)
}

func (s *catalogService) UpdateProduct(ctx context.Context, id string, params ProductParams) (*model.Product, error) {
	const op = "catalog.UpdateProduct"

	p, err := s.catalog.GetProduct(ctx, id)
	if domain.ErrorCode(err) == domain.ENOTFOUND {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	scents, err := s.resolveScents(ctx, op, params.ScentIDs)
	if err != nil {
		return nil, err
	}

	p.Name = params.Name
	p.Description = params.Description
	p.Price = params.Price
	p.Images = params.Images
	p.CategoryID = params.CategoryID
	p.Scents = scents
	if err := s.catalog.UpdateProduct(ctx, p); err != nil {
		return nil, err
	}
	return s.catalog.GetProduct(ctx, id)
}

func (s *catalogService) DeleteProduct(ctx context.Context, id string) error {
	if err := s.catalog.DeleteProduct(ctx, id); err != nil {
		if domain.ErrorCode(err) == domain.ENOTFOUND {
			return ErrProductNotFound
		}
		return err
	}
	s.log.Info().Str("product_id", id).Msg("product deleted")
	return nil
}

func (s *catalogService) ListScents(ctx context.Context) ([]model.Scent, error) {
	return s.catalog.ListScents(ctx)
}

func (s *catalogService) CreateScent(ctx context.Context, params ScentParams) (*model.Scent, error) {
	sc := &model.Scent{
		Name:        params.Name,
		Description: params.Description,
		Color:       params.Color,
	}
	if err := s.catalog.CreateScent(ctx, sc); err != nil {
		return nil, err
	}
	return sc, nil
}

func (s *catalogService) UpdateScent(ctx context.Context, id string, params ScentParams) (*model.Scent, error) {
	sc, err := s.catalog.GetScent(ctx, id)
	if domain.ErrorCode(err) == domain.ENOTFOUND {
		return nil, ErrScentNotFound
	}
	if err != nil {
		return nil, err
	}
	sc.Name = params.Name
	sc.Description = params.Description
	sc.Color = params.Color
	if err := s.catalog.UpdateScent(ctx, sc); err != nil {
		return nil, err
	}
	return sc, nil
}

func (s *catalogService) DeleteScent(ctx context.Context, id string) error {
	err := s.catalog.DeleteScent(ctx, id)
	if domain.ErrorCode(err) == domain.ENOTFOUND {
		return ErrScentNotFound
	}
	return err
}

func (s *catalogService) ListCategories(ctx context.Context) ([]model.Category, error) {
	return s.catalog.ListCategories(ctx)
}

func (s *catalogService) CreateCategory(ctx context.Context, params CategoryParams) (*model.Category, error) {
	c := &model.Category{Name: params.Name, Icon: params.Icon}
	if err := s.catalog.CreateCategory(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *catalogService) UpdateCategory(ctx context.Context, id string, params CategoryParams) (*model.Category, error) {
	c, err := s.catalog.GetCategory(ctx, id)
	if domain.ErrorCode(err) == domain.ENOTFOUND {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		return nil, err
	}
	c.Name = params.Name
	c.Icon = params.Icon
	if err := s.catalog.UpdateCategory(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *catalogService) DeleteCategory(ctx context.Context, id string) error {
	err := s.catalog.DeleteCategory(ctx, id)
	if domain.ErrorCode(err) == domain.ENOTFOUND {
		return ErrCategoryNotFound
	}
	return err
}

func (s *catalogService) resolveScents(ctx context.Context, op string, ids []string) ([]model.Scent, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	scents, err := s.catalog.GetScentsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(scents) != len(ids) {
		return nil, domain.Errorf(domain.EINVALID, op, "One or more scent IDs do not exist")
	}
	return scents, nil
}

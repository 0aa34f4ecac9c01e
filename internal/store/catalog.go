package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/wickshop/ember/internal/domain"
	"github.com/wickshop/ember/internal/model"
)

// ProductFilter narrows and orders a product listing.
type ProductFilter struct {
	CategoryID string
	ScentID    string
	Search     string
	SortBy     string // "price_asc", "price_desc", "newest", "name"
	Page       int
	PerPage    int
}

// CatalogStore persists products, scents, and categories.
type CatalogStore struct {
	db *gorm.DB
}

func NewCatalogStore(db *gorm.DB) *CatalogStore {
	return &CatalogStore{db: db}
}

// ListProducts returns one page of products matching filter plus the total
// match count for pagination.
func (s *CatalogStore) ListProducts(ctx context.Context, filter ProductFilter) ([]model.Product, int64, error) {
	const op = "CatalogStore.ListProducts"

	q := s.db.WithContext(ctx).Model(&model.Product{})

	if filter.CategoryID != "" {
		q = q.Where("category_id = ?", filter.CategoryID)
	}
	if filter.ScentID != "" {
		q = q.Where("id IN (?)", s.db.Table("product_scents").
			Select("product_id").Where("scent_id = ?", filter.ScentID))
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where("name LIKE ? OR description LIKE ?", pattern, pattern)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, wrapErr(op, err)
	}

	switch filter.SortBy {
	case "price_asc":
		q = q.Order("price ASC")
	case "price_desc":
		q = q.Order("price DESC")
	case "name":
		q = q.Order("name ASC")
	default:
		q = q.Order("created_at DESC")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	perPage := filter.PerPage
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	var products []model.Product
	err := q.Preload("Category").Preload("Scents").
		Offset((page - 1) * perPage).Limit(perPage).
		Find(&products).Error
	if err != nil {
		return nil, 0, wrapErr(op, err)
	}
	return products, total, nil
}

// GetProduct loads one product with its category and scent options.
func (s *CatalogStore) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	const op = "CatalogStore.GetProduct"

	var p model.Product
	err := s.db.WithContext(ctx).
		Preload("Category").Preload("Scents").
		First(&p, "id = ?", id).Error
	if IsNotFound(err) {
		return nil, domain.Errorf(domain.ENOTFOUND, op, "Product not found")
	}
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return &p, nil
}

// GetProductsByIDs loads the given products without associations. Missing IDs
// are simply absent from the result; callers diff against the request.
func (s *CatalogStore) GetProductsByIDs(ctx context.Context, ids []string) ([]model.Product, error) {
	const op = "CatalogStore.GetProductsByIDs"

	var products []model.Product
	if len(ids) == 0 {
		return products, nil
	}
	if err := s.db.WithContext(ctx).Find(&products, "id IN ?", ids).Error; err != nil {
		return nil, wrapErr(op, err)
	}
	return products, nil
}

// CreateProduct inserts p and its scent associations.
func (s *CatalogStore) CreateProduct(ctx context.Context, p *model.Product) error {
	const op = "CatalogStore.CreateProduct"

	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return wrapErr(op, err)
	}
	return nil
}

// UpdateProduct saves p and replaces its scent associations.
func (s *CatalogStore) UpdateProduct(ctx context.Context, p *model.Product) error {
	const op = "CatalogStore.UpdateProduct"

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Scents", "Category").Save(p).Error; err != nil {
			return err
		}
		return tx.Model(p).Association("Scents").Replace(p.Scents)
	})
	if err != nil {
		return wrapErr(op, err)
	}
	return nil
}

// DeleteProduct removes a product. Order items keep their snapshot and
// survive the deletion.
func (s *CatalogStore) DeleteProduct(ctx context.Context, id string) error {
	const op = "CatalogStore.DeleteProduct"

	res := s.db.WithContext(ctx).Delete(&model.Product{}, "id = ?", id)
	if res.Error != nil {
		return wrapErr(op, res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.Errorf(domain.ENOTFOUND, op, "Product not found")
	}
	return nil
}

// ListScents returns all scents ordered by name.
func (s *CatalogStore) ListScents(ctx context.Context) ([]model.Scent, error) {
	const op = "CatalogStore.ListScents"

	var scents []model.Scent
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&scents).Error; err != nil {
		return nil, wrapErr(op, err)
	}
	return scents, nil
}

// GetScent loads one scent.
func (s *CatalogStore) GetScent(ctx context.Context, id string) (*model.Scent, error) {
	const op = "CatalogStore.GetScent"

	var sc model.Scent
	err := s.db.WithContext(ctx).First(&sc, "id = ?", id).Error
	if IsNotFound(err) {
		return nil, domain.Errorf(domain.ENOTFOUND, op, "Scent not found")
	}
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return &sc, nil
}

// GetScentsByIDs loads the given scents; missing IDs are absent from the
// result.
func (s *CatalogStore) GetScentsByIDs(ctx context.Context, ids []string) ([]model.Scent, error) {
	const op = "CatalogStore.GetScentsByIDs"

	var scents []model.Scent
	if len(ids) == 0 {
		return scents, nil
	}
	if err := s.db.WithContext(ctx).Find(&scents, "id IN ?", ids).Error; err != nil {
		return nil, wrapErr(op, err)
	}
	return scents, nil
}

// CreateScent inserts sc. Name collisions surface as conflicts.
func (s *CatalogStore) CreateScent(ctx context.Context, sc *model.Scent) error {
	const op = "CatalogStore.CreateScent"

	err := s.db.WithContext(ctx).Create(sc).Error
	if IsDuplicateKey(err) {
		return domain.Conflict(op, "A scent with this name already exists")
	}
	if err != nil {
		return wrapErr(op, err)
	}
	return nil
}

// UpdateScent saves sc.
func (s *CatalogStore) UpdateScent(ctx context.Context, sc *model.Scent) error {
	const op = "CatalogStore.UpdateScent"

	err := s.db.WithContext(ctx).Save(sc).Error
	if IsDuplicateKey(err) {
		return domain.Conflict(op, "A scent with this name already exists")
	}
	if err != nil {
		return wrapErr(op, err)
	}
	return nil
}

// DeleteScent removes a scent.
func (s *CatalogStore) DeleteScent(ctx context.Context, id string) error {
	const op = "CatalogStore.DeleteScent"

	res := s.db.WithContext(ctx).Delete(&model.Scent{}, "id = ?", id)
	if res.Error != nil {
		return wrapErr(op, res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.Errorf(domain.ENOTFOUND, op, "Scent not found")
	}
	return nil
}

// ListCategories returns all categories ordered by name.
func (s *CatalogStore) ListCategories(ctx context.Context) ([]model.Category, error) {
	const op = "CatalogStore.ListCategories"

	var cats []model.Category
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&cats).Error; err != nil {
		return nil, wrapErr(op, err)
	}
	return cats, nil
}

// GetCategory loads one category.
func (s *CatalogStore) GetCategory(ctx context.Context, id string) (*model.Category, error) {
	const op = "CatalogStore.GetCategory"

	var c model.Category
	err := s.db.WithContext(ctx).First(&c, "id = ?", id).Error
	if IsNotFound(err) {
		return nil, domain.Errorf(domain.ENOTFOUND, op, "Category not found")
	}
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return &c, nil
}

// CreateCategory inserts c. Name collisions surface as conflicts.
func (s *CatalogStore) CreateCategory(ctx context.Context, c *model.Category) error {
	const op = "CatalogStore.CreateCategory"

	err := s.db.WithContext(ctx).Create(c).Error
	if IsDuplicateKey(err) {
		return domain.Conflict(op, "A category with this name already exists")
	}
	if err != nil {
		return wrapErr(op, err)
	}
	return nil
}

// UpdateCategory saves c.
func (s *CatalogStore) UpdateCategory(ctx context.Context, c *model.Category) error {
	const op = "CatalogStore.UpdateCategory"

	err := s.db.WithContext(ctx).Save(c).Error
	if IsDuplicateKey(err) {
		return domain.Conflict(op, "A category with this name already exists")
	}
	if err != nil {
		return wrapErr(op, err)
	}
	return nil
}

// DeleteCategory removes a category.
func (s *CatalogStore) DeleteCategory(ctx context.Context, id string) error {
	const op = "CatalogStore.DeleteCategory"

	res := s.db.WithContext(ctx).Delete(&model.Category{}, "id = ?", id)
	if res.Error != nil {
		return wrapErr(op, res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.Errorf(domain.ENOTFOUND, op, "Category not found")
	}
	return nil
}

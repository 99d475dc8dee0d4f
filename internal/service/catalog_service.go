package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"tokotani/internal/domain"
	"tokotani/internal/repository"
	"tokotani/internal/search"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// StorefrontThreshold is the fuzzy match cutoff for customer-facing search
	StorefrontThreshold = 0.4

	// AdminThreshold is the tighter cutoff used by the admin dashboard tables
	AdminThreshold = 0.3

	productCacheKey = "catalog:products"
	productCacheTTL = 5 * time.Minute
)

// ProductQuery carries the search, filter and sort parameters of a
// catalog listing request. Category is a category id, or "all" to
// disable the filter.
type ProductQuery struct {
	Query    string
	Category string
	Sort     search.SortKey
}

// CatalogService defines the interface for product and category business logic
type CatalogService interface {
	SearchProducts(ctx context.Context, q ProductQuery) ([]*domain.Product, error)
	SearchProductsAdmin(ctx context.Context, q ProductQuery) ([]*domain.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	CreateProduct(ctx context.Context, input ProductInput) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, input ProductInput) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	ListCategories(ctx context.Context) ([]*domain.Category, error)
	SearchCategories(ctx context.Context, query string) ([]*domain.Category, error)
	CreateCategory(ctx context.Context, name string) (*domain.Category, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, name string) (*domain.Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error
}

// ProductInput carries the writable fields of a product
type ProductInput struct {
	Name        string
	Description string
	Price       int64
	CategoryID  uuid.UUID
	ImageURL    string
	Stock       int
	Size        string
	Color       string
}

type catalogService struct {
	productRepo    repository.ProductRepository
	categoryRepo   repository.CategoryRepository
	cache          *redis.Client
	logger         *zap.Logger
	storefront     *search.Pipeline[*domain.Product]
	admin          *search.Pipeline[*domain.Product]
	categorySearch search.Matcher[*domain.Category]
}

// NewCatalogService creates a new instance of CatalogService. The Redis
// client is optional; with a nil client the catalog reads straight from
// the database.
func NewCatalogService(
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	cache *redis.Client,
	logger *zap.Logger,
) CatalogService {
	productFields := []search.Field[*domain.Product]{
		{Weight: 1.0, Value: func(p *domain.Product) string { return p.Name }},
		{Weight: 0.6, Value: func(p *domain.Product) string { return p.Description }},
		{Weight: 0.4, Value: func(p *domain.Product) string { return p.CategoryName }},
	}

	newPipeline := func(threshold float64) *search.Pipeline[*domain.Product] {
		return search.NewPipeline(
			search.NewMatcher(threshold, productFields...),
			func(p *domain.Product) string { return p.CategoryID.String() },
			func(p *domain.Product) string { return p.Name },
			func(p *domain.Product) int64 { return p.Price },
		)
	}

	return &catalogService{
		productRepo:    productRepo,
		categoryRepo:   categoryRepo,
		cache:          cache,
		logger:         logger,
		storefront:     newPipeline(StorefrontThreshold),
		admin:          newPipeline(AdminThreshold),
		categorySearch: search.NewMatcher(AdminThreshold,
			search.Field[*domain.Category]{Weight: 1.0, Value: func(c *domain.Category) string { return c.Name }},
		),
	}
}

// SearchProducts runs the storefront listing pipeline over the catalog
func (s *catalogService) SearchProducts(ctx context.Context, q ProductQuery) ([]*domain.Product, error) {
	products, err := s.loadProducts(ctx)
	if err != nil {
		return nil, err
	}
	return s.storefront.Apply(products, q.Query, q.Category, q.Sort), nil
}

// SearchProductsAdmin runs the admin table pipeline with its tighter threshold
func (s *catalogService) SearchProductsAdmin(ctx context.Context, q ProductQuery) ([]*domain.Product, error) {
	products, err := s.loadProducts(ctx)
	if err != nil {
		return nil, err
	}
	return s.admin.Apply(products, q.Query, q.Category, q.Sort), nil
}

// loadProducts serves the catalog from Redis when possible, falling back
// to the database. Cache failures are logged and ignored.
func (s *catalogService) loadProducts(ctx context.Context) ([]*domain.Product, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, productCacheKey).Bytes()
		if err == nil {
			var products []*domain.Product
			if err := json.Unmarshal(cached, &products); err == nil {
				return products, nil
			}
			s.logger.Debug("Discarding malformed product cache entry")
		} else if err != redis.Nil {
			s.logger.Debug("Product cache read failed", zap.Error(err))
		}
	}

	products, err := s.productRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if payload, err := json.Marshal(products); err == nil {
			if err := s.cache.Set(ctx, productCacheKey, payload, productCacheTTL).Err(); err != nil {
				s.logger.Debug("Product cache write failed", zap.Error(err))
			}
		}
	}

	return products, nil
}

func (s *catalogService) invalidateProductCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, productCacheKey).Err(); err != nil {
		s.logger.Debug("Product cache invalidation failed", zap.Error(err))
	}
}

func (s *catalogService) GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return s.productRepo.FindByID(ctx, id)
}

func (s *catalogService) CreateProduct(ctx context.Context, input ProductInput) (*domain.Product, error) {
	category, err := s.categoryRepo.FindByID(ctx, input.CategoryID)
	if err != nil {
		return nil, err
	}

	product := &domain.Product{
		ID:           uuid.New(),
		Name:         input.Name,
		Description:  input.Description,
		Price:        input.Price,
		CategoryID:   category.ID,
		CategoryName: category.Name,
		ImageURL:     input.ImageURL,
		Stock:        input.Stock,
		Size:         input.Size,
		Color:        input.Color,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.invalidateProductCache(ctx)

	return product, nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, id uuid.UUID, input ProductInput) (*domain.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	category, err := s.categoryRepo.FindByID(ctx, input.CategoryID)
	if err != nil {
		return nil, err
	}

	product.Name = input.Name
	product.Description = input.Description
	product.Price = input.Price
	product.CategoryID = category.ID
	product.CategoryName = category.Name
	product.ImageURL = input.ImageURL
	product.Stock = input.Stock
	product.Size = input.Size
	product.Color = input.Color
	product.UpdatedAt = time.Now()

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	s.invalidateProductCache(ctx)

	return product, nil
}

func (s *catalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.productRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateProductCache(ctx)
	return nil
}

func (s *catalogService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	return s.categoryRepo.List(ctx)
}

// SearchCategories fuzzy-matches categories by name for the admin table
func (s *catalogService) SearchCategories(ctx context.Context, query string) ([]*domain.Category, error) {
	categories, err := s.categoryRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	matches := s.categorySearch.Match(query, categories)
	result := make([]*domain.Category, 0, len(matches))
	for _, m := range matches {
		result = append(result, m.Record)
	}
	return result, nil
}

func (s *catalogService) CreateCategory(ctx context.Context, name string) (*domain.Category, error) {
	category := &domain.Category{
		ID:        uuid.New(),
		Name:      name,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, err
	}

	return category, nil
}

func (s *catalogService) UpdateCategory(ctx context.Context, id uuid.UUID, name string) (*domain.Category, error) {
	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	category.Name = name
	category.UpdatedAt = time.Now()

	if err := s.categoryRepo.Update(ctx, category); err != nil {
		return nil, err
	}

	s.invalidateProductCache(ctx)

	return category, nil
}

func (s *catalogService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	if err := s.categoryRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateProductCache(ctx)
	return nil
}

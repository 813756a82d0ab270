package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"grocerly/internal/cache"
	"grocerly/internal/domain"
	"grocerly/internal/repos"
	"grocerly/internal/validate"
)

const searchLimit = 20

// ImagePath is where product images are served, relative to the request base URL.
const ImagePath = "/uploads/home_page_products/"

type CatalogService struct {
	Products *repos.ProductRepo
	Cache    *cache.Cache // nil disables caching
}

func NewCatalogService(products *repos.ProductRepo, c *cache.Cache) *CatalogService {
	return &CatalogService{Products: products, Cache: c}
}

// ByCategory lists a category. Rows are cached without URLs since those depend on the request host.
func (s *CatalogService) ByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	cat, ok := validate.Category(category)
	if !ok {
		return nil, invalid("Invalid category")
	}
	key := cache.CategoryKey(cat)
	var out []domain.Product
	if s.Cache.GetJSON(ctx, key, &out) && len(out) > 0 {
		return out, nil
	}
	out, err := s.Products.ListByCategory(ctx, cat)
	if err != nil {
		return nil, failed("Could not load products", err)
	}
	if len(out) == 0 {
		return nil, notFound("No products found")
	}
	s.Cache.SetJSON(ctx, key, out)
	return out, nil
}

func (s *CatalogService) Get(ctx context.Context, id int64) (domain.Product, error) {
	key := cache.ProductKey(id)
	var p domain.Product
	if s.Cache.GetJSON(ctx, key, &p) {
		return p, nil
	}
	p, err := s.Products.Get(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, notFound("Product not found")
	}
	if err != nil {
		return domain.Product{}, failed("Could not load product", err)
	}
	s.Cache.SetJSON(ctx, key, p)
	return p, nil
}

// Search returns at most 20 matches; no match is an empty list, not an error.
func (s *CatalogService) Search(ctx context.Context, query string) ([]domain.Product, error) {
	if strings.TrimSpace(query) == "" {
		return nil, invalid("Search query is required")
	}
	q, ok := validate.Q(query)
	if !ok {
		return nil, invalid("Invalid search query")
	}
	out, err := s.Products.Search(ctx, q, searchLimit)
	if err != nil {
		return nil, failed("Could not search products", err)
	}
	return out, nil
}

// Similar lists the rest of a category. excludeID 0 excludes nothing.
func (s *CatalogService) Similar(ctx context.Context, category string, excludeID int64) ([]domain.Product, error) {
	if strings.TrimSpace(category) == "" {
		return nil, invalid("Category is required")
	}
	cat, ok := validate.Category(category)
	if !ok {
		return nil, invalid("Invalid category")
	}
	out, err := s.Products.Similar(ctx, cat, excludeID)
	if err != nil {
		return nil, failed("Could not load products", err)
	}
	return out, nil
}

type NewProduct struct {
	Name     string   `validate:"required,max=100"`
	Category string   `validate:"required"`
	Quantity string   `validate:"required,max=50"`
	Price    string   `validate:"required"`
	Images   []string `validate:"dive,required"`
	Details  string
}

// AddProduct inserts a catalog row for images already present in the uploads directory.
func (s *CatalogService) AddProduct(ctx context.Context, in NewProduct) (domain.Product, error) {
	if err := validate.Struct(in); err != nil {
		return domain.Product{}, invalid(err.Error())
	}
	cat, ok := validate.Category(in.Category)
	if !ok {
		return domain.Product{}, invalid("Invalid category")
	}
	price, err := decimal.NewFromString(strings.TrimSpace(in.Price))
	if err != nil || price.IsNegative() {
		return domain.Product{}, invalid("Price must be a non-negative number")
	}
	for _, f := range in.Images {
		if strings.ContainsAny(f, `/\`) || strings.Contains(f, "..") {
			return domain.Product{}, invalid("Image names must be plain filenames")
		}
	}

	p := domain.Product{
		Name:     strings.TrimSpace(in.Name),
		Category: cat,
		Quantity: strings.TrimSpace(in.Quantity),
		Price:    price,
		Images:   domain.ImageList(in.Images),
		Details:  strings.TrimSpace(in.Details),
	}
	id, err := s.Products.Create(ctx, &p)
	if err != nil {
		return domain.Product{}, failed("Could not add product", err)
	}
	s.Cache.Delete(ctx, cache.CategoryKey(cat))
	return s.Get(ctx, id)
}

// WithURLs sets ImageURLs on each product from baseURL.
func WithURLs(baseURL string, ps []domain.Product) []domain.Product {
	for i := range ps {
		ps[i] = WithURL(baseURL, ps[i])
	}
	return ps
}

func WithURL(baseURL string, p domain.Product) domain.Product {
	if p.Images == nil {
		p.Images = domain.ImageList{}
	}
	p.ImageURLs = make([]string, len(p.Images))
	for i, f := range p.Images {
		p.ImageURLs[i] = strings.TrimRight(baseURL, "/") + ImagePath + f
	}
	return p
}

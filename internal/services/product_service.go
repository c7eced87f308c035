package services

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"installment_app_echo/internal/models"
)

const (
	ProductsPerPage = 10
	productPageTTL  = time.Minute
)

// ProductView is a catalog entry as listed to customers
type ProductView struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Brand string `json:"brand"`
	Price string `json:"price"`
}

// ProductPage is one page of the catalog
type ProductPage struct {
	CurrentPage int           `json:"current_page"`
	Data        []ProductView `json:"data"`
	PerPage     int           `json:"per_page"`
	Total       int64         `json:"total"`
	LastPage    int           `json:"last_page"`
	From        *int          `json:"from"`
	To          *int          `json:"to"`
}

type ProductService struct {
	db    *gorm.DB
	cache *RedisCache
}

func NewProductService(db *gorm.DB, cache *RedisCache) *ProductService {
	return &ProductService{db: db, cache: cache}
}

// ListProducts returns the requested catalog page. Pages below 1 are treated as 1.
func (s *ProductService) ListProducts(ctx context.Context, page int) (*ProductPage, error) {
	if page < 1 {
		page = 1
	}
	key := fmt.Sprintf("products:page:%d", page)
	return GetOrSet(s.cache, ctx, key, productPageTTL, func() (*ProductPage, error) {
		return s.loadPage(ctx, page)
	})
}

func (s *ProductService) loadPage(ctx context.Context, page int) (*ProductPage, error) {
	db := s.db.WithContext(ctx)

	var total int64
	if err := db.Model(&models.Product{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}

	var products []models.Product
	if err := db.Order("id").
		Limit(ProductsPerPage).
		Offset((page - 1) * ProductsPerPage).
		Find(&products).Error; err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	lastPage := int((total + ProductsPerPage - 1) / ProductsPerPage)
	if lastPage < 1 {
		lastPage = 1
	}

	result := &ProductPage{
		CurrentPage: page,
		Data:        make([]ProductView, 0, len(products)),
		PerPage:     ProductsPerPage,
		Total:       total,
		LastPage:    lastPage,
	}
	for _, p := range products {
		result.Data = append(result.Data, ProductView{
			ID:    p.ID,
			Name:  p.Name,
			Brand: p.Brand,
			Price: p.Price.StringFixed(2),
		})
	}
	if len(products) > 0 {
		from := (page-1)*ProductsPerPage + 1
		to := from + len(products) - 1
		result.From, result.To = &from, &to
	}
	return result, nil
}

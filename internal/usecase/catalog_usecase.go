package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/shopspring/decimal"
)

// トップページに出す新着数
const latestProductsLimit = 6

type CatalogUsecase struct {
	products   repo.ProductRepository
	categories repo.CategoryRepository
}

// DI
func NewCatalogUsecase(products repo.ProductRepository, categories repo.CategoryRepository) *CatalogUsecase {
	return &CatalogUsecase{products: products, categories: categories}
}

type ProductOutput struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	Image        string          `json:"image"`
	Category     *int64          `json:"category"`
	CategoryName string          `json:"category_name"`
	InStock      bool            `json:"in_stock"`
	CreatedAt    time.Time       `json:"created_at"`
}

func toProductOutput(p model.Product) ProductOutput {
	return ProductOutput{
		ID:           p.ID,
		Name:         p.Name,
		Description:  p.Description,
		Price:        p.Price,
		Image:        p.Image,
		Category:     p.CategoryID,
		CategoryName: p.CategoryName(),
		InStock:      p.InStock,
		CreatedAt:    p.CreatedAt,
	}
}

func toProductOutputs(ps []model.Product) []ProductOutput {
	out := make([]ProductOutput, 0, len(ps))
	for _, p := range ps {
		out = append(out, toProductOutput(p))
	}
	return out
}

// GET /products の入力
type ListProductsInput struct {
	Page       int
	Limit      int
	Q          string
	CategoryID *int64
	Sort       string
}

type ProductListOutput struct {
	Items []ProductOutput `json:"items"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

type HomeOutput struct {
	LatestProducts []ProductOutput   `json:"latest_products"`
	Categories     []model.Category `json:"categories"`
}

func (u *CatalogUsecase) Home(ctx context.Context) (HomeOutput, error) {
	latest, _, err := u.products.List(ctx, repo.ProductListQuery{Page: 1, Limit: latestProductsLimit, Sort: "new"})
	if err != nil {
		return HomeOutput{}, storeError(err)
	}
	cats, err := u.categories.List(ctx)
	if err != nil {
		return HomeOutput{}, storeError(err)
	}
	return HomeOutput{LatestProducts: toProductOutputs(latest), Categories: cats}, nil
}

func (u *CatalogUsecase) ListProducts(ctx context.Context, in ListProductsInput) (ProductListOutput, error) {
	if in.Page < 1 {
		return ProductListOutput{}, NewError(KindValidation, "invalid page")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return ProductListOutput{}, NewError(KindValidation, "invalid limit")
	}
	if len(in.Q) > 100 {
		return ProductListOutput{}, NewError(KindValidation, "q too long")
	}
	switch in.Sort {
	case "", "new", "price_asc", "price_desc":
	default:
		return ProductListOutput{}, NewError(KindValidation, "invalid sort")
	}

	items, total, err := u.products.List(ctx, repo.ProductListQuery{
		Page:       in.Page,
		Limit:      in.Limit,
		Q:          strings.TrimSpace(in.Q),
		CategoryID: in.CategoryID,
		Sort:       in.Sort,
	})
	if err != nil {
		return ProductListOutput{}, storeError(err)
	}

	return ProductListOutput{
		Items: toProductOutputs(items),
		Total: total,
		Page:  in.Page,
		Limit: in.Limit,
	}, nil
}

// 名前の部分一致検索（上限100件）
func (u *CatalogUsecase) Search(ctx context.Context, q string) ([]ProductOutput, error) {
	out, err := u.ListProducts(ctx, ListProductsInput{Page: 1, Limit: 100, Q: q})
	if err != nil {
		return []ProductOutput{}, err
	}
	return out.Items, nil
}

func (u *CatalogUsecase) GetProduct(ctx context.Context, productID int64) (ProductOutput, error) {
	if productID <= 0 {
		return ProductOutput{}, notFound()
	}

	p, err := u.products.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return ProductOutput{}, notFound()
	}
	if err != nil {
		return ProductOutput{}, storeError(err)
	}
	return toProductOutput(p), nil
}

func (u *CatalogUsecase) ListCategories(ctx context.Context) ([]model.Category, error) {
	cats, err := u.categories.List(ctx)
	if err != nil {
		return []model.Category{}, storeError(err)
	}
	return cats, nil
}

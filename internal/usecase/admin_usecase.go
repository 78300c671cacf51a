package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
	"storefront/internal/validator"

	"github.com/shopspring/decimal"
)

// 管理画面側の操作（注文ステータス・商品・カテゴリ）
type AdminUsecase struct {
	tx         repo.TransactionManager
	products   repo.ProductRepository
	categories repo.CategoryRepository
	auditRepo  repo.AuditLogRepository
}

func NewAdminUsecase(
	tx repo.TransactionManager,
	products repo.ProductRepository,
	categories repo.CategoryRepository,
	auditRepo repo.AuditLogRepository,
) *AdminUsecase {
	return &AdminUsecase{tx: tx, products: products, categories: categories, auditRepo: auditRepo}
}

type AdminUpdateOrderStatusInput struct {
	Status string
}

type ProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Image       string
	CategoryID  *int64
	InStock     bool
}

type CategoryInput struct {
	Name string
	Slug string
}

// 注文一覧
func (u *AdminUsecase) ListOrders(ctx context.Context, f repo.AdminOrderListFilter) ([]OrderOutput, error) {
	// page/limitの最低限チェック
	if f.Page < 1 {
		return []OrderOutput{}, NewError(KindValidation, "invalid page")
	}
	if f.Limit < 1 || f.Limit > 100 {
		return []OrderOutput{}, NewError(KindValidation, "invalid limit")
	}
	if f.Status != "" && !model.OrderStatus(f.Status).Valid() {
		return []OrderOutput{}, NewError(KindValidation, "invalid status")
	}

	var outs []OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, _, err := r.Orders().ListAdmin(ctx, f)
		if err != nil {
			return storeError(err)
		}

		outs = make([]OrderOutput, 0, len(orders))
		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return storeError(err)
			}
			outs = append(outs, toOrderOutput(o, items))
		}
		return nil
	})

	if err != nil {
		return []OrderOutput{}, asAppError(err)
	}
	return outs, nil
}

// ステータス更新。遷移は pending→processing→shipped→delivered と pending/processing→cancelled のみ。
func (u *AdminUsecase) UpdateOrderStatus(ctx context.Context, actorAdminUserID int64, orderID int64, in AdminUpdateOrderStatusInput) error {
	if actorAdminUserID <= 0 {
		return NewError(KindUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return notFound()
	}

	newStatus := model.OrderStatus(strings.ToLower(strings.TrimSpace(in.Status)))
	if !newStatus.Valid() {
		return NewError(KindValidation, "invalid status")
	}

	var before model.OrderStatus
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return notFound()
		}
		if err != nil {
			return storeError(err)
		}

		// すでに同じなら何もしない
		if o.Status == newStatus {
			return nil
		}
		if !o.Status.CanTransitionTo(newStatus) {
			return NewError(KindConflict, fmt.Sprintf("cannot change %s order to %s", o.Status, newStatus))
		}

		if err := r.Orders().UpdateStatus(ctx, orderID, newStatus); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return notFound()
			}
			return storeError(err)
		}
		before = o.Status
		return nil
	})
	if err != nil {
		return asAppError(err)
	}
	if before == "" {
		return nil
	}

	//監査ログ（UPDATE_ORDER_STATUS）
	return u.audit(ctx, model.AuditLog{
		ActorUserID:  actorAdminUserID,
		Action:       model.AuditActionUpdateOrderStatus,
		ResourceType: model.AuditResourceOrder,
		ResourceID:   orderID,
		BeforeJSON:   fmt.Sprintf(`{"status":%q}`, before),
		AfterJSON:    fmt.Sprintf(`{"status":%q}`, newStatus),
	})
}

func (u *AdminUsecase) CreateProduct(ctx context.Context, adminUserID int64, in ProductInput) (ProductOutput, error) {
	if adminUserID <= 0 {
		return ProductOutput{}, NewError(KindUnauthorized, "unauthorized")
	}
	valid, err := u.validateProduct(ctx, in)
	if err != nil {
		return ProductOutput{}, err
	}

	p, err := u.products.Create(ctx, model.Product{
		Name:        valid.Name,
		Description: valid.Description,
		Price:       valid.Price,
		Image:       valid.Image,
		CategoryID:  valid.CategoryID,
		InStock:     valid.InStock,
	})
	if err != nil {
		return ProductOutput{}, storeError(err)
	}
	return toProductOutput(p), nil
}

// 価格変更はカート合計に即反映される（カートは価格を持たない）
func (u *AdminUsecase) UpdateProduct(ctx context.Context, adminUserID int64, productID int64, in ProductInput) (ProductOutput, error) {
	if adminUserID <= 0 {
		return ProductOutput{}, NewError(KindUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return ProductOutput{}, notFound()
	}
	valid, err := u.validateProduct(ctx, in)
	if err != nil {
		return ProductOutput{}, err
	}

	current, err := u.products.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return ProductOutput{}, notFound()
	}
	if err != nil {
		return ProductOutput{}, storeError(err)
	}

	next := current
	next.Name = valid.Name
	next.Description = valid.Description
	next.Price = valid.Price
	next.Image = valid.Image
	next.CategoryID = valid.CategoryID
	next.InStock = valid.InStock

	if err := u.products.Update(ctx, next); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ProductOutput{}, notFound()
		}
		return ProductOutput{}, storeError(err)
	}

	if !current.Price.Equal(next.Price) {
		if err := u.audit(ctx, model.AuditLog{
			ActorUserID:  adminUserID,
			Action:       model.AuditActionUpdatePrice,
			ResourceType: model.AuditResourceProduct,
			ResourceID:   productID,
			BeforeJSON:   fmt.Sprintf(`{"price":%q}`, current.Price.StringFixed(2)),
			AfterJSON:    fmt.Sprintf(`{"price":%q}`, next.Price.StringFixed(2)),
		}); err != nil {
			return ProductOutput{}, err
		}
	}
	return toProductOutput(next), nil
}

func (u *AdminUsecase) CreateCategory(ctx context.Context, adminUserID int64, in CategoryInput) (model.Category, error) {
	if adminUserID <= 0 {
		return model.Category{}, NewError(KindUnauthorized, "unauthorized")
	}
	name := strings.TrimSpace(in.Name)
	slug := strings.ToLower(strings.TrimSpace(in.Slug))
	var errs validator.Errors
	if name == "" {
		errs = append(errs, validator.FieldError{Field: "name", Message: "this field is required"})
	}
	if slug == "" {
		errs = append(errs, validator.FieldError{Field: "slug", Message: "this field is required"})
	}
	if errs != nil {
		return model.Category{}, validationError(errs)
	}

	c, err := u.categories.Create(ctx, model.Category{Name: name, Slug: slug})
	if errors.Is(err, repo.ErrDuplicate) {
		return model.Category{}, NewError(KindConflict, "slug already used")
	}
	if err != nil {
		return model.Category{}, storeError(err)
	}
	return c, nil
}

// 商品を削除し、全カートの明細とお気に入りからも外す。
// 注文明細は商品名と価格のスナップショットなのでそのまま。
func (u *AdminUsecase) DeleteProduct(ctx context.Context, adminUserID int64, productID int64) error {
	if adminUserID <= 0 {
		return NewError(KindUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return notFound()
	}

	var deleted model.Product
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Products().FindByID(ctx, productID)
		if errors.Is(err, repo.ErrNotFound) {
			return notFound()
		}
		if err != nil {
			return storeError(err)
		}
		if _, err := r.CartItems().DeleteByProductID(ctx, productID); err != nil {
			return storeError(err)
		}
		if _, err := r.Favorites().DeleteByProductID(ctx, productID); err != nil {
			return storeError(err)
		}
		if err := r.Products().Delete(ctx, productID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return notFound()
			}
			return storeError(err)
		}
		deleted = p
		return nil
	})
	if err != nil {
		return asAppError(err)
	}

	return u.audit(ctx, model.AuditLog{
		ActorUserID:  adminUserID,
		Action:       model.AuditActionDeleteProduct,
		ResourceType: model.AuditResourceProduct,
		ResourceID:   productID,
		BeforeJSON:   fmt.Sprintf(`{"name":%q,"price":%q}`, deleted.Name, deleted.Price.StringFixed(2)),
	})
}

// カテゴリを削除。属していた商品は未分類になる。
func (u *AdminUsecase) DeleteCategory(ctx context.Context, adminUserID int64, categoryID int64) error {
	if adminUserID <= 0 {
		return NewError(KindUnauthorized, "unauthorized")
	}
	if categoryID <= 0 {
		return notFound()
	}

	var deleted model.Category
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		c, err := r.Categories().FindByID(ctx, categoryID)
		if errors.Is(err, repo.ErrNotFound) {
			return notFound()
		}
		if err != nil {
			return storeError(err)
		}
		if _, err := r.Products().ClearCategory(ctx, categoryID); err != nil {
			return storeError(err)
		}
		if err := r.Categories().Delete(ctx, categoryID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return notFound()
			}
			return storeError(err)
		}
		deleted = c
		return nil
	})
	if err != nil {
		return asAppError(err)
	}

	return u.audit(ctx, model.AuditLog{
		ActorUserID:  adminUserID,
		Action:       model.AuditActionDeleteCategory,
		ResourceType: model.AuditResourceCategory,
		ResourceID:   categoryID,
		BeforeJSON:   fmt.Sprintf(`{"name":%q,"slug":%q}`, deleted.Name, deleted.Slug),
	})
}

func (u *AdminUsecase) validateProduct(ctx context.Context, in ProductInput) (validator.ProductInput, error) {
	valid, errs := validator.Product(validator.ProductInput{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Image:       in.Image,
		CategoryID:  in.CategoryID,
		InStock:     in.InStock,
	})
	if errs != nil {
		return validator.ProductInput{}, validationError(errs)
	}

	if valid.CategoryID != nil {
		_, err := u.categories.FindByID(ctx, *valid.CategoryID)
		if errors.Is(err, repo.ErrNotFound) {
			return validator.ProductInput{}, validationError(validator.Errors{{Field: "category", Message: "unknown category"}})
		}
		if err != nil {
			return validator.ProductInput{}, storeError(err)
		}
	}
	return valid, nil
}

func (u *AdminUsecase) audit(ctx context.Context, l model.AuditLog) error {
	l.CreatedAt = time.Now()
	if err := u.auditRepo.Create(ctx, l); err != nil {
		return storeError(err)
	}
	return nil
}

// 監査ログの一覧（新しい順）
func (u *AdminUsecase) ListAuditLogs(ctx context.Context, f repo.AuditLogFilter) ([]model.AuditLog, error) {
	if f.Limit < 0 || f.Offset < 0 {
		return []model.AuditLog{}, NewError(KindValidation, "invalid paging")
	}
	logs, err := u.auditRepo.List(ctx, f)
	if err != nil {
		return []model.AuditLog{}, storeError(err)
	}
	return logs, nil
}

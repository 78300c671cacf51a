package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type CartRepository struct {
	s    *Store
	inTx bool
}

func (r *CartRepository) FindByUserID(ctx context.Context, userID int64) (model.Cart, error) {
	defer r.s.lock(r.inTx)()
	if err := r.s.fail("Carts.FindByUserID"); err != nil {
		return model.Cart{}, err
	}
	for _, c := range r.s.carts {
		if c.UserID == userID {
			return c, nil
		}
	}
	return model.Cart{}, repo.ErrNotFound
}

// tx中はストア全体がロック済み
func (r *CartRepository) LockByUserID(ctx context.Context, userID int64) (model.Cart, error) {
	return r.FindByUserID(ctx, userID)
}

func (r *CartRepository) Create(ctx context.Context, userID int64) (model.Cart, error) {
	defer r.s.lock(r.inTx)()
	if err := r.s.fail("Carts.Create"); err != nil {
		return model.Cart{}, err
	}
	for _, c := range r.s.carts {
		if c.UserID == userID {
			return model.Cart{}, fmt.Errorf("%w: carts.user_id=%d", repo.ErrDuplicate, userID)
		}
	}
	now := time.Now()
	c := model.Cart{ID: r.s.id(), UserID: userID, CreatedAt: now, UpdatedAt: now}
	r.s.carts[c.ID] = c
	return c, nil
}

type CartItemRepository struct {
	s    *Store
	inTx bool
}

func (r *CartItemRepository) ListByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error) {
	defer r.s.lock(r.inTx)()
	if err := r.s.fail("CartItems.ListByCartID"); err != nil {
		return []model.CartItem{}, err
	}
	out := []model.CartItem{}
	for _, it := range r.s.cartItems {
		if it.CartID == cartID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *CartItemRepository) FindByCartAndProduct(ctx context.Context, cartID int64, productID int64) (model.CartItem, error) {
	defer r.s.lock(r.inTx)()
	for _, it := range r.s.cartItems {
		if it.CartID == cartID && it.ProductID == productID {
			return it, nil
		}
	}
	return model.CartItem{}, repo.ErrNotFound
}

func (r *CartItemRepository) FindByIDForUser(ctx context.Context, cartItemID int64, userID int64) (model.CartItem, error) {
	defer r.s.lock(r.inTx)()
	it, ok := r.s.cartItems[cartItemID]
	if !ok {
		return model.CartItem{}, repo.ErrNotFound
	}
	c, ok := r.s.carts[it.CartID]
	if !ok || c.UserID != userID {
		return model.CartItem{}, repo.ErrNotFound
	}
	return it, nil
}

func (r *CartItemRepository) Create(ctx context.Context, item model.CartItem) (model.CartItem, error) {
	defer r.s.lock(r.inTx)()
	if err := r.s.fail("CartItems.Create"); err != nil {
		return model.CartItem{}, err
	}
	if item.Quantity < 1 {
		return model.CartItem{}, fmt.Errorf("check constraint: quantity >= 1")
	}
	for _, it := range r.s.cartItems {
		if it.CartID == item.CartID && it.ProductID == item.ProductID {
			return model.CartItem{}, fmt.Errorf("%w: cart_items(%d,%d)", repo.ErrDuplicate, item.CartID, item.ProductID)
		}
	}
	now := time.Now()
	item.ID = r.s.id()
	item.CreatedAt = now
	item.UpdatedAt = now
	r.s.cartItems[item.ID] = item
	return item, nil
}

func (r *CartItemRepository) AddQuantity(ctx context.Context, cartItemID int64, delta int64) error {
	defer r.s.lock(r.inTx)()
	if err := r.s.fail("CartItems.AddQuantity"); err != nil {
		return err
	}
	it, ok := r.s.cartItems[cartItemID]
	if !ok {
		return repo.ErrNotFound
	}
	next := it.Quantity + delta
	if (delta > 0 && next < it.Quantity) || (delta < 0 && next > it.Quantity) {
		return fmt.Errorf("bigint out of range")
	}
	if next < 1 {
		return fmt.Errorf("check constraint: quantity >= 1")
	}
	it.Quantity = next
	it.UpdatedAt = time.Now()
	r.s.cartItems[cartItemID] = it
	return nil
}

func (r *CartItemRepository) UpdateQuantity(ctx context.Context, cartItemID int64, qty int64) error {
	defer r.s.lock(r.inTx)()
	if err := r.s.fail("CartItems.UpdateQuantity"); err != nil {
		return err
	}
	it, ok := r.s.cartItems[cartItemID]
	if !ok {
		return repo.ErrNotFound
	}
	if qty < 1 {
		return fmt.Errorf("check constraint: quantity >= 1")
	}
	it.Quantity = qty
	it.UpdatedAt = time.Now()
	r.s.cartItems[cartItemID] = it
	return nil
}

func (r *CartItemRepository) DeleteByID(ctx context.Context, cartItemID int64) error {
	defer r.s.lock(r.inTx)()
	if _, ok := r.s.cartItems[cartItemID]; !ok {
		return repo.ErrNotFound
	}
	delete(r.s.cartItems, cartItemID)
	return nil
}

func (r *CartItemRepository) DeleteByCartID(ctx context.Context, cartID int64) (int64, error) {
	defer r.s.lock(r.inTx)()
	if err := r.s.fail("CartItems.DeleteByCartID"); err != nil {
		return 0, err
	}
	var n int64
	for id, it := range r.s.cartItems {
		if it.CartID == cartID {
			delete(r.s.cartItems, id)
			n++
		}
	}
	return n, nil
}

func (r *CartItemRepository) DeleteByProductID(ctx context.Context, productID int64) (int64, error) {
	defer r.s.lock(r.inTx)()
	if err := r.s.fail("CartItems.DeleteByProductID"); err != nil {
		return 0, err
	}
	var n int64
	for id, it := range r.s.cartItems {
		if it.ProductID == productID {
			delete(r.s.cartItems, id)
			n++
		}
	}
	return n, nil
}

type ProductRepository struct {
	s    *Store
	inTx bool
}

// カテゴリを付ける（gormのPreload相当）
func (r *ProductRepository) withCategory(p model.Product) model.Product {
	p.Category = nil
	if p.CategoryID != nil {
		if c, ok := r.s.categories[*p.CategoryID]; ok {
			p.Category = &c
		}
	}
	return p
}

func (r *ProductRepository) List(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	defer r.s.lock(r.inTx)()
	needle := strings.ToLower(strings.TrimSpace(q.Q))

	all := []model.Product{}
	for _, p := range r.s.products {
		if needle != "" && !strings.Contains(strings.ToLower(p.Name), needle) {
			continue
		}
		if q.CategoryID != nil && (p.CategoryID == nil || *p.CategoryID != *q.CategoryID) {
			continue
		}
		all = append(all, r.withCategory(p))
	}

	sort.Slice(all, func(i, j int) bool {
		a, b := all[i], all[j]
		switch q.Sort {
		case "price_asc":
			if !a.Price.Equal(b.Price) {
				return a.Price.LessThan(b.Price)
			}
			return a.ID < b.ID
		case "price_desc":
			if !a.Price.Equal(b.Price) {
				return a.Price.GreaterThan(b.Price)
			}
			return a.ID > b.ID
		default:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
			return a.ID > b.ID
		}
	})

	total := int64(len(all))
	start := (q.Page - 1) * q.Limit
	if start < 0 || start >= len(all) {
		return []model.Product{}, total, nil
	}
	end := start + q.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (r *ProductRepository) FindByID(ctx context.Context, id int64) (model.Product, error) {
	defer r.s.lock(r.inTx)()
	p, ok := r.s.products[id]
	if !ok {
		return model.Product{}, repo.ErrNotFound
	}
	return r.withCategory(p), nil
}

func (r *ProductRepository) FindByIDs(ctx context.Context, ids []int64) (map[int64]model.Product, error) {
	defer r.s.lock(r.inTx)()
	if err := r.s.fail("Products.FindByIDs"); err != nil {
		return nil, err
	}
	out := make(map[int64]model.Product, len(ids))
	for _, id := range ids {
		if p, ok := r.s.products[id]; ok {
			out[id] = r.withCategory(p)
		}
	}
	return out, nil
}

func (r *ProductRepository) Create(ctx context.Context, p model.Product) (model.Product, error) {
	defer r.s.lock(r.inTx)()
	now := time.Now()
	p.ID = r.s.id()
	p.Category = nil
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	r.s.products[p.ID] = p
	return r.withCategory(p), nil
}

func (r *ProductRepository) Update(ctx context.Context, p model.Product) error {
	defer r.s.lock(r.inTx)()
	cur, ok := r.s.products[p.ID]
	if !ok {
		return repo.ErrNotFound
	}
	cur.Name = p.Name
	cur.Description = p.Description
	cur.Price = p.Price
	cur.Image = p.Image
	cur.CategoryID = p.CategoryID
	cur.InStock = p.InStock
	cur.UpdatedAt = time.Now()
	r.s.products[p.ID] = cur
	return nil
}

func (r *ProductRepository) Delete(ctx context.Context, id int64) error {
	defer r.s.lock(r.inTx)()
	if err := r.s.fail("Products.Delete"); err != nil {
		return err
	}
	if _, ok := r.s.products[id]; !ok {
		return repo.ErrNotFound
	}
	delete(r.s.products, id)
	return nil
}

func (r *ProductRepository) ClearCategory(ctx context.Context, categoryID int64) (int64, error) {
	defer r.s.lock(r.inTx)()
	var n int64
	for id, p := range r.s.products {
		if p.CategoryID != nil && *p.CategoryID == categoryID {
			p.CategoryID = nil
			p.UpdatedAt = time.Now()
			r.s.products[id] = p
			n++
		}
	}
	return n, nil
}

type CategoryRepository struct {
	s    *Store
	inTx bool
}

func (r *CategoryRepository) List(ctx context.Context) ([]model.Category, error) {
	defer r.s.lock(r.inTx)()
	out := make([]model.Category, 0, len(r.s.categories))
	for _, c := range r.s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *CategoryRepository) FindByID(ctx context.Context, id int64) (model.Category, error) {
	defer r.s.lock(r.inTx)()
	c, ok := r.s.categories[id]
	if !ok {
		return model.Category{}, repo.ErrNotFound
	}
	return c, nil
}

func (r *CategoryRepository) Create(ctx context.Context, c model.Category) (model.Category, error) {
	defer r.s.lock(r.inTx)()
	for _, cur := range r.s.categories {
		if cur.Slug == c.Slug {
			return model.Category{}, fmt.Errorf("%w: categories.slug=%s", repo.ErrDuplicate, c.Slug)
		}
	}
	c.ID = r.s.id()
	r.s.categories[c.ID] = c
	return c, nil
}

func (r *CategoryRepository) Delete(ctx context.Context, id int64) error {
	defer r.s.lock(r.inTx)()
	if _, ok := r.s.categories[id]; !ok {
		return repo.ErrNotFound
	}
	delete(r.s.categories, id)
	return nil
}

type OrderRepository struct {
	s    *Store
	inTx bool
}

func (r *OrderRepository) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	defer r.s.lock(r.inTx)()
	o, ok := r.s.orders[orderID]
	if !ok {
		return model.Order{}, repo.ErrNotFound
	}
	return o, nil
}

func (r *OrderRepository) ListByUserID(ctx context.Context, userID int64) ([]model.Order, error) {
	defer r.s.lock(r.inTx)()
	out := []model.Order{}
	for _, o := range r.s.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	sortOrdersNewestFirst(out)
	return out, nil
}

func sortOrdersNewestFirst(out []model.Order) {
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
}

func (r *OrderRepository) Create(ctx context.Context, order model.Order) (model.Order, error) {
	defer r.s.lock(r.inTx)()
	if err := r.s.fail("Orders.Create"); err != nil {
		return model.Order{}, err
	}
	now := time.Now()
	order.ID = r.s.id()
	order.CreatedAt = now
	order.UpdatedAt = now
	r.s.orders[order.ID] = order
	return order, nil
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error {
	defer r.s.lock(r.inTx)()
	o, ok := r.s.orders[orderID]
	if !ok {
		return repo.ErrNotFound
	}
	o.Status = status
	o.UpdatedAt = time.Now()
	r.s.orders[orderID] = o
	return nil
}

func (r *OrderRepository) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	defer r.s.lock(r.inTx)()
	all := []model.Order{}
	for _, o := range r.s.orders {
		if f.Status != "" && string(o.Status) != f.Status {
			continue
		}
		if f.UserID != nil && o.UserID != *f.UserID {
			continue
		}
		if f.From != nil && o.CreatedAt.Before(*f.From) {
			continue
		}
		if f.To != nil && o.CreatedAt.After(*f.To) {
			continue
		}
		all = append(all, o)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })

	total := int64(len(all))
	start := (f.Page - 1) * f.Limit
	if start < 0 || start >= len(all) {
		return []model.Order{}, total, nil
	}
	end := start + f.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

type OrderItemRepository struct {
	s    *Store
	inTx bool
}

func (r *OrderItemRepository) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) ([]model.OrderItem, error) {
	defer r.s.lock(r.inTx)()
	if err := r.s.fail("OrderItems.CreateBulk"); err != nil {
		return nil, err
	}
	out := make([]model.OrderItem, 0, len(items))
	for _, it := range items {
		it.ID = r.s.id()
		it.OrderID = orderID
		r.s.orderItems[it.ID] = it
		out = append(out, it)
	}
	return out, nil
}

func (r *OrderItemRepository) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	defer r.s.lock(r.inTx)()
	out := []model.OrderItem{}
	for _, it := range r.s.orderItems {
		if it.OrderID == orderID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type UserRepository struct {
	s *Store
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	defer r.s.lock(false)()
	for _, u := range r.s.users {
		if u.Username == user.Username {
			return fmt.Errorf("%w: users.username=%s", repo.ErrDuplicate, user.Username)
		}
	}
	now := time.Now()
	user.ID = r.s.id()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.s.users[user.ID] = *user
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, userID int64) (*model.User, error) {
	defer r.s.lock(false)()
	u, ok := r.s.users[userID]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	defer r.s.lock(false)()
	for _, u := range r.s.users {
		if u.Username == username {
			u := u
			return &u, nil
		}
	}
	return nil, nil
}

func (r *UserRepository) Update(ctx context.Context, user *model.User) error {
	defer r.s.lock(false)()
	if _, ok := r.s.users[user.ID]; !ok {
		return repo.ErrNotFound
	}
	for _, u := range r.s.users {
		if u.ID != user.ID && u.Username == user.Username {
			return fmt.Errorf("%w: users.username=%s", repo.ErrDuplicate, user.Username)
		}
	}
	user.UpdatedAt = time.Now()
	r.s.users[user.ID] = *user
	return nil
}

type FavoriteRepository struct {
	s    *Store
	inTx bool
}

func (r *FavoriteRepository) ListByUserID(ctx context.Context, userID int64) ([]model.Favorite, error) {
	defer r.s.lock(r.inTx)()
	out := []model.Favorite{}
	for _, f := range r.s.favorites {
		if f.UserID == userID {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].AddedAt.Equal(out[j].AddedAt) {
			return out[i].AddedAt.After(out[j].AddedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *FavoriteRepository) Create(ctx context.Context, userID int64, productID int64) (model.Favorite, error) {
	defer r.s.lock(r.inTx)()
	for _, f := range r.s.favorites {
		if f.UserID == userID && f.ProductID == productID {
			return model.Favorite{}, fmt.Errorf("%w: favorites(%d,%d)", repo.ErrDuplicate, userID, productID)
		}
	}
	f := model.Favorite{ID: r.s.id(), UserID: userID, ProductID: productID, AddedAt: time.Now()}
	r.s.favorites[f.ID] = f
	return f, nil
}

func (r *FavoriteRepository) Delete(ctx context.Context, userID int64, productID int64) error {
	defer r.s.lock(r.inTx)()
	for id, f := range r.s.favorites {
		if f.UserID == userID && f.ProductID == productID {
			delete(r.s.favorites, id)
			return nil
		}
	}
	return repo.ErrNotFound
}

func (r *FavoriteRepository) DeleteByProductID(ctx context.Context, productID int64) (int64, error) {
	defer r.s.lock(r.inTx)()
	var n int64
	for id, f := range r.s.favorites {
		if f.ProductID == productID {
			delete(r.s.favorites, id)
			n++
		}
	}
	return n, nil
}

type AuditLogRepository struct {
	s *Store
}

func (r *AuditLogRepository) Create(ctx context.Context, entry model.AuditLog) error {
	defer r.s.lock(false)()
	entry.ID = r.s.id()
	r.s.auditLogs = append(r.s.auditLogs, entry)
	return nil
}

func (r *AuditLogRepository) List(ctx context.Context, f repo.AuditLogFilter) ([]model.AuditLog, error) {
	defer r.s.lock(false)()
	out := []model.AuditLog{}
	for i := len(r.s.auditLogs) - 1; i >= 0; i-- {
		l := r.s.auditLogs[i]
		if f.ActorUserID != nil && l.ActorUserID != *f.ActorUserID {
			continue
		}
		if f.Action != nil && l.Action != *f.Action {
			continue
		}
		if f.ResourceType != nil && l.ResourceType != *f.ResourceType {
			continue
		}
		if f.ResourceID != nil && l.ResourceID != *f.ResourceID {
			continue
		}
		out = append(out, l)
	}
	if f.Offset >= len(out) {
		return []model.AuditLog{}, nil
	}
	out = out[f.Offset:]
	if f.Limit > 0 && f.Limit < len(out) {
		out = out[:f.Limit]
	}
	return out, nil
}

// Package memory はテスト用のインメモリ実装です。
// repositoryの約束（一意制約・ErrNotFound・トランザクションのロールバック）を同じように守ります。
package memory

import (
	"context"
	"sync"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type Store struct {
	mu sync.Mutex

	nextID int64

	users      map[int64]model.User
	categories map[int64]model.Category
	products   map[int64]model.Product
	carts      map[int64]model.Cart
	cartItems  map[int64]model.CartItem
	orders     map[int64]model.Order
	orderItems map[int64]model.OrderItem
	favorites  map[int64]model.Favorite
	auditLogs  []model.AuditLog

	// 操作名→返すエラー（障害注入）
	failures map[string]error
}

func NewStore() *Store {
	return &Store{
		users:      map[int64]model.User{},
		categories: map[int64]model.Category{},
		products:   map[int64]model.Product{},
		carts:      map[int64]model.Cart{},
		cartItems:  map[int64]model.CartItem{},
		orders:     map[int64]model.Order{},
		orderItems: map[int64]model.OrderItem{},
		favorites:  map[int64]model.Favorite{},
		failures:   map[string]error{},
	}
}

// FailOn は op（例: "OrderItems.CreateBulk"）の呼び出しで err を返すようにする。
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = err
}

func (s *Store) fail(op string) error {
	return s.failures[op]
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// 各repoはtx中ならロック済みなので取らない
func (s *Store) lock(inTx bool) func() {
	if inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

type snapshot struct {
	nextID     int64
	users      map[int64]model.User
	categories map[int64]model.Category
	products   map[int64]model.Product
	carts      map[int64]model.Cart
	cartItems  map[int64]model.CartItem
	orders     map[int64]model.Order
	orderItems map[int64]model.OrderItem
	favorites  map[int64]model.Favorite
	auditLogs  []model.AuditLog
}

func (s *Store) snapshot() snapshot {
	return snapshot{
		nextID:     s.nextID,
		users:      cloneMap(s.users),
		categories: cloneMap(s.categories),
		products:   cloneMap(s.products),
		carts:      cloneMap(s.carts),
		cartItems:  cloneMap(s.cartItems),
		orders:     cloneMap(s.orders),
		orderItems: cloneMap(s.orderItems),
		favorites:  cloneMap(s.favorites),
		auditLogs:  append([]model.AuditLog(nil), s.auditLogs...),
	}
}

func (s *Store) restore(snap snapshot) {
	s.nextID = snap.nextID
	s.users = snap.users
	s.categories = snap.categories
	s.products = snap.products
	s.carts = snap.carts
	s.cartItems = snap.cartItems
	s.orders = snap.orders
	s.orderItems = snap.orderItems
	s.favorites = snap.favorites
	s.auditLogs = snap.auditLogs
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// WithinTx はストア全体をロックして fn を実行し、エラーなら実行前の状態に戻す。
func (s *Store) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	snap := s.snapshot()
	if err := fn(txRepos{s: s}); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

type txRepos struct {
	s *Store
}

func (r txRepos) Carts() repo.CartRepository           { return &CartRepository{s: r.s, inTx: true} }
func (r txRepos) CartItems() repo.CartItemRepository   { return &CartItemRepository{s: r.s, inTx: true} }
func (r txRepos) Products() repo.ProductRepository     { return &ProductRepository{s: r.s, inTx: true} }
func (r txRepos) Categories() repo.CategoryRepository { return &CategoryRepository{s: r.s, inTx: true} }
func (r txRepos) Favorites() repo.FavoriteRepository   { return &FavoriteRepository{s: r.s, inTx: true} }
func (r txRepos) Orders() repo.OrderRepository         { return &OrderRepository{s: r.s, inTx: true} }
func (r txRepos) OrderItems() repo.OrderItemRepository { return &OrderItemRepository{s: r.s, inTx: true} }

func (s *Store) Carts() *CartRepository           { return &CartRepository{s: s} }
func (s *Store) CartItems() *CartItemRepository   { return &CartItemRepository{s: s} }
func (s *Store) Products() *ProductRepository     { return &ProductRepository{s: s} }
func (s *Store) Categories() *CategoryRepository  { return &CategoryRepository{s: s} }
func (s *Store) Orders() *OrderRepository         { return &OrderRepository{s: s} }
func (s *Store) OrderItems() *OrderItemRepository { return &OrderItemRepository{s: s} }
func (s *Store) Users() *UserRepository           { return &UserRepository{s: s} }
func (s *Store) Favorites() *FavoriteRepository   { return &FavoriteRepository{s: s} }
func (s *Store) AuditLogs() *AuditLogRepository   { return &AuditLogRepository{s: s} }

var (
	_ repo.TransactionManager  = (*Store)(nil)
	_ repo.CartRepository      = (*CartRepository)(nil)
	_ repo.CartItemRepository  = (*CartItemRepository)(nil)
	_ repo.ProductRepository   = (*ProductRepository)(nil)
	_ repo.CategoryRepository  = (*CategoryRepository)(nil)
	_ repo.OrderRepository     = (*OrderRepository)(nil)
	_ repo.OrderItemRepository = (*OrderItemRepository)(nil)
	_ repo.UserRepository      = (*UserRepository)(nil)
	_ repo.FavoriteRepository  = (*FavoriteRepository)(nil)
	_ repo.AuditLogRepository  = (*AuditLogRepository)(nil)
)

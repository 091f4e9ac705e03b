package checkout

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sakthi-t/bookscart/internal/books"
	"github.com/sakthi-t/bookscart/internal/cart"
	"github.com/sakthi-t/bookscart/internal/orders"
	"github.com/sakthi-t/bookscart/pkg/db/models"
)

// Repository is the persistence surface checkout needs, composed from the
// cart, catalog and orders repositories so a single transaction spans all three.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	ListCartItems(ctx context.Context, cartID uuid.UUID) ([]models.CartItem, error)
	LockBooks(ctx context.Context, ids []uuid.UUID) ([]models.Book, error)
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	DecrementStock(ctx context.Context, bookID uuid.UUID, qty int) (bool, error)
	ClearCart(ctx context.Context, cartID uuid.UUID) (int64, error)
}

type repository struct {
	carts  cart.Repository
	books  books.Repository
	orders orders.Repository
}

// NewRepository composes the checkout repository from its collaborators.
func NewRepository(carts cart.Repository, booksRepo books.Repository, ordersRepo orders.Repository) Repository {
	if carts == nil || booksRepo == nil || ordersRepo == nil {
		return nil
	}
	return &repository{
		carts:  carts,
		books:  booksRepo,
		orders: ordersRepo,
	}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{
		carts:  r.carts.WithTx(tx),
		books:  r.books.WithTx(tx),
		orders: r.orders.WithTx(tx),
	}
}

func (r *repository) FindCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	return r.carts.FindByUserID(ctx, userID)
}

func (r *repository) ListCartItems(ctx context.Context, cartID uuid.UUID) ([]models.CartItem, error) {
	return r.carts.ListItems(ctx, cartID)
}

func (r *repository) LockBooks(ctx context.Context, ids []uuid.UUID) ([]models.Book, error) {
	return r.books.LockByIDs(ctx, ids)
}

func (r *repository) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	return r.orders.Create(ctx, order)
}

func (r *repository) DecrementStock(ctx context.Context, bookID uuid.UUID, qty int) (bool, error) {
	return r.books.DecrementStock(ctx, bookID, qty)
}

func (r *repository) ClearCart(ctx context.Context, cartID uuid.UUID) (int64, error) {
	return r.carts.ClearItems(ctx, cartID)
}

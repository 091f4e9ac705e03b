package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sakthi-t/bookscart/internal/books"
	"github.com/sakthi-t/bookscart/pkg/db"
	"github.com/sakthi-t/bookscart/pkg/db/models"
	pkgerrors "github.com/sakthi-t/bookscart/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes cart reads and the add-to-cart mutation.
type Service interface {
	AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*CartDTO, error)
	GetCart(ctx context.Context, userID uuid.UUID) (*CartDTO, error)
	CountItems(ctx context.Context, userID uuid.UUID) (int64, error)
}

// ServiceParams groups dependencies for the cart service.
type ServiceParams struct {
	Repo      Repository
	BooksRepo books.Repository
	TxRunner  txRunner
}

type service struct {
	repo  Repository
	books books.Repository
	tx    txRunner
}

// NewService builds a cart service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart repository is required")
	}
	if params.BooksRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "books repository is required")
	}
	if params.TxRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction runner is required")
	}
	return &service{
		repo:  params.Repo,
		books: params.BooksRepo,
		tx:    params.TxRunner,
	}, nil
}

// AddItem adds quantity copies of the book to the user's cart. The book is
// reloaded under the cart lock so the stock check sees current data, and the
// price snapshot is only taken when the line is first created.
func (s *service) AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*CartDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Quantity must be at least 1.")
	}
	slug := strings.TrimSpace(input.Slug)
	if slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug is required")
	}

	cart, err := s.getOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		bookRepo := s.books.WithTx(tx)

		if _, err := repo.LockByID(ctx, cart.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lock cart")
		}

		book, err := bookRepo.FindBySlug(ctx, slug)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "book not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load book")
		}
		if book.Stock <= 0 {
			return books.InsufficientStock(book, input.Quantity, "This book is out of stock.")
		}
		if input.Quantity > book.Stock {
			return books.InsufficientStock(book, input.Quantity, fmt.Sprintf("Cannot add more than available stock (%d).", book.Stock))
		}

		existing, err := repo.FindItem(ctx, cart.ID, book.ID)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			item := &models.CartItem{
				CartID:     cart.ID,
				BookID:     book.ID,
				Quantity:   input.Quantity,
				PriceAtAdd: book.Price,
			}
			if err := repo.CreateItem(ctx, item); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create cart item")
			}
			return nil
		case err != nil:
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart item")
		}

		next := existing.Quantity + input.Quantity
		if next > book.Stock {
			return books.InsufficientStock(book, next, fmt.Sprintf("You can only have up to %d of this item in your cart.", book.Stock))
		}
		if err := repo.UpdateItemQuantity(ctx, existing.ID, next); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update cart item")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.view(ctx, cart)
}

func (s *service) GetCart(ctx context.Context, userID uuid.UUID) (*CartDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	cart, err := s.getOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, cart)
}

func (s *service) CountItems(ctx context.Context, userID uuid.UUID) (int64, error) {
	total, err := s.repo.SumQuantity(ctx, userID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count cart items")
	}
	return total, nil
}

func (s *service) view(ctx context.Context, cart *models.Cart) (*CartDTO, error) {
	items, err := s.repo.ListItems(ctx, cart.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart items")
	}
	return toCartDTO(cart, items), nil
}

// getOrCreate lazily creates the user's cart. A concurrent creator losing the
// unique race re-reads the winner's row.
func (s *service) getOrCreate(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart, err := s.repo.FindByUserID(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}

	cart, err = s.repo.Create(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !db.IsUniqueViolation(err, "") {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create cart")
	}
	cart, err = s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	return cart, nil
}

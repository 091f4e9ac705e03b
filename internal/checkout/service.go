package checkout

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sakthi-t/bookscart/internal/orders"
	"github.com/sakthi-t/bookscart/pkg/db/models"
	"github.com/sakthi-t/bookscart/pkg/enums"
	pkgerrors "github.com/sakthi-t/bookscart/pkg/errors"
	"github.com/sakthi-t/bookscart/pkg/logger"
	"github.com/sakthi-t/bookscart/pkg/metrics"
)

const defaultTimeout = 10 * time.Second

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service converts a user's cart into an order.
type Service interface {
	Checkout(ctx context.Context, userID uuid.UUID) (*orders.OrderDTO, error)
}

// ServiceParams groups dependencies for the checkout service.
type ServiceParams struct {
	Repo     Repository
	TxRunner txRunner
	Metrics  *metrics.CheckoutMetrics
	Logger   *logger.Logger
	// Timeout bounds the whole checkout, lock waits included.
	Timeout time.Duration
}

type service struct {
	repo    Repository
	tx      txRunner
	metrics *metrics.CheckoutMetrics
	logg    *logger.Logger
	timeout time.Duration
	now     func() time.Time
}

// NewService builds the checkout orchestrator.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout repository is required")
	}
	if params.TxRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction runner is required")
	}
	timeout := params.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &service{
		repo:    params.Repo,
		tx:      params.TxRunner,
		metrics: params.Metrics,
		logg:    params.Logger,
		timeout: timeout,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

// Checkout validates the cart, then inside one transaction locks every
// referenced book, re-validates, writes the order with snapshot prices,
// decrements stock and empties the cart. Any failure rolls all of it back.
func (s *service) Checkout(ctx context.Context, userID uuid.UUID) (*orders.OrderDTO, error) {
	started := time.Now()
	order, err := s.checkout(ctx, userID)
	s.metrics.Observe(outcomeFor(err), time.Since(started))
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"order_id": order.ID.String(),
			"total":    order.TotalAmount.StringFixed(2),
			"items":    len(order.Items),
		})
		s.logg.Info(logCtx, "checkout.completed")
	}

	dto := orders.FromModel(order)
	return &dto, nil
}

func (s *service) checkout(ctx context.Context, userID uuid.UUID) (*models.Order, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cart, items, err := s.loadCart(ctx, s.repo, userID)
	if err != nil {
		return nil, err
	}
	// Fail fast on stale stock; the locked re-check below is what guarantees it.
	for i := range items {
		if items[i].Quantity > items[i].Book.Stock {
			return nil, InsufficientStockError(&items[i].Book, items[i].Quantity)
		}
	}

	var created *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		lines, err := repo.ListCartItems(ctx, cart.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload cart items")
		}
		if len(lines) == 0 {
			return EmptyCartError()
		}

		ids := make([]uuid.UUID, 0, len(lines))
		for _, line := range lines {
			ids = append(ids, line.BookID)
		}
		locked, err := repo.LockBooks(ctx, ids)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lock books")
		}
		byID := make(map[uuid.UUID]*models.Book, len(locked))
		for i := range locked {
			byID[locked[i].ID] = &locked[i]
		}

		total := decimal.Zero
		orderItems := make([]models.OrderItem, 0, len(lines))
		for _, line := range lines {
			book, ok := byID[line.BookID]
			if !ok {
				missing := line.Book
				missing.Stock = 0
				return InsufficientStockError(&missing, line.Quantity)
			}
			if line.Quantity > book.Stock {
				return InsufficientStockError(book, line.Quantity)
			}
			orderItems = append(orderItems, models.OrderItem{
				BookID:   book.ID,
				Quantity: line.Quantity,
				Price:    line.PriceAtAdd,
			})
			total = total.Add(line.LineTotal())
		}

		verifiedAt := s.now()
		order, err := repo.CreateOrder(ctx, &models.Order{
			UserID:      userID,
			Status:      enums.OrderStatusInProgress,
			IsVerified:  true,
			VerifiedAt:  &verifiedAt,
			TotalAmount: total,
			Items:       orderItems,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
		}

		for _, item := range order.Items {
			ok, err := repo.DecrementStock(ctx, item.BookID, item.Quantity)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decrement stock")
			}
			if !ok {
				return InsufficientStockError(byID[item.BookID], item.Quantity)
			}
		}

		if _, err := repo.ClearCart(ctx, cart.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear cart")
		}

		for i := range order.Items {
			book := *byID[order.Items[i].BookID]
			book.Stock -= order.Items[i].Quantity
			order.Items[i].Book = book
		}
		created = order
		return nil
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "checkout timed out waiting for stock")
		}
		return nil, err
	}
	return created, nil
}

func (s *service) loadCart(ctx context.Context, repo Repository, userID uuid.UUID) (*models.Cart, []models.CartItem, error) {
	cart, err := repo.FindCart(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, EmptyCartError()
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	items, err := repo.ListCartItems(ctx, cart.ID)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart items")
	}
	if len(items) == 0 {
		return nil, nil, EmptyCartError()
	}
	return cart, items, nil
}

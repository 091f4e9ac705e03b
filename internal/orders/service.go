package orders

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sakthi-t/bookscart/pkg/db/models"
	"github.com/sakthi-t/bookscart/pkg/enums"
	pkgerrors "github.com/sakthi-t/bookscart/pkg/errors"
	"github.com/sakthi-t/bookscart/pkg/pagination"
)

// Service exposes order reads for owners and staff plus admin status changes.
type Service interface {
	History(ctx context.Context, userID uuid.UUID, params pagination.Params) (HistoryPage, error)
	Detail(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, orderID uuid.UUID) (*OrderDTO, error)
	Recent(ctx context.Context, userID uuid.UUID, limit int) ([]OrderDTO, error)
	Stats(ctx context.Context) (Stats, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) (*OrderDTO, error)
}

type service struct {
	repo Repository
	now  func() time.Time
}

// NewService builds the orders service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "orders repository is required")
	}
	return &service{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) History(ctx context.Context, userID uuid.UUID, params pagination.Params) (HistoryPage, error) {
	if userID == uuid.Nil {
		return HistoryPage{}, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	current := strings.TrimSpace(params.Cursor)
	cursor, err := pagination.ParseCursor(current)
	if err != nil {
		return HistoryPage{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	records, err := s.repo.ListByUser(ctx, userID, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return HistoryPage{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	records, next := pagination.Split(records, params.Limit, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})

	return HistoryPage{
		Orders: fromModels(records),
		Cursor: CursorDTO{Current: current, Next: next},
	}, nil
}

// Detail returns the order when the actor owns it or is staff.
func (s *service) Detail(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, orderID uuid.UUID) (*OrderDTO, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, mapLookupError(err, "load order")
	}
	if order.UserID != actorID && !actorRole.IsStaff() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "Not allowed")
	}
	dto := FromModel(order)
	return &dto, nil
}

func (s *service) Recent(ctx context.Context, userID uuid.UUID, limit int) ([]OrderDTO, error) {
	if limit <= 0 {
		return []OrderDTO{}, nil
	}
	list, err := s.repo.Recent(ctx, userID, pagination.NormalizeLimit(limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load recent orders")
	}
	return fromModels(list), nil
}

func (s *service) Stats(ctx context.Context) (Stats, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return Stats{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count orders")
	}
	return statsFromCounts(counts), nil
}

// UpdateStatus moves the order along an allowed transition. Stock is left alone.
func (s *service) UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) (*OrderDTO, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, mapLookupError(err, "load order")
	}
	if !order.Status.CanTransitionTo(status) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order cannot move from "+order.Status.String()+" to "+status.String())
	}

	updates := map[string]any{"status": status}
	if status == enums.OrderStatusInProgress && !order.IsVerified {
		updates["is_verified"] = true
		updates["verified_at"] = s.now()
	}
	ok, err := s.repo.UpdateStatus(ctx, orderID, order.Status, updates)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order status")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order status changed concurrently")
	}

	updated, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, mapLookupError(err, "load order")
	}
	dto := FromModel(updated)
	return &dto, nil
}

func mapLookupError(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "order not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, msg)
}

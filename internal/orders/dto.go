package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sakthi-t/bookscart/pkg/db/models"
	"github.com/sakthi-t/bookscart/pkg/enums"
)

// OrderItemDTO is one immutable line of an order.
type OrderItemDTO struct {
	ID        uuid.UUID       `json:"id"`
	BookID    uuid.UUID       `json:"book_id"`
	BookTitle string          `json:"book_title"`
	BookSlug  string          `json:"book_slug"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// OrderDTO exposes an order with its items.
type OrderDTO struct {
	ID          uuid.UUID         `json:"id"`
	UserID      uuid.UUID         `json:"user_id"`
	Status      enums.OrderStatus `json:"status"`
	IsVerified  bool              `json:"is_verified"`
	TotalAmount decimal.Decimal   `json:"total_amount"`
	Items       []OrderItemDTO    `json:"items"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	VerifiedAt  *time.Time        `json:"verified_at,omitempty"`
}

// CursorDTO carries the cursors for the current and next history pages.
type CursorDTO struct {
	Current string `json:"current,omitempty"`
	Next    string `json:"next,omitempty"`
}

// HistoryPage is one page of a user's order history.
type HistoryPage struct {
	Orders []OrderDTO `json:"orders"`
	Cursor CursorDTO  `json:"cursor"`
}

// Stats aggregates order counts by status.
type Stats struct {
	Total                int64 `json:"total"`
	AwaitingVerification int64 `json:"awaiting_verification"`
	InProgress           int64 `json:"in_progress"`
	Delivered            int64 `json:"delivered"`
	Cancelled            int64 `json:"cancelled"`
	Refunded             int64 `json:"refunded"`
	Returned             int64 `json:"returned"`
}

// FromModel maps an order and its preloaded items into the DTO.
func FromModel(m *models.Order) OrderDTO {
	items := make([]OrderItemDTO, 0, len(m.Items))
	for _, item := range m.Items {
		items = append(items, OrderItemDTO{
			ID:        item.ID,
			BookID:    item.BookID,
			BookTitle: item.Book.Title,
			BookSlug:  item.Book.Slug,
			Quantity:  item.Quantity,
			Price:     item.Price,
			LineTotal: item.LineTotal(),
		})
	}
	return OrderDTO{
		ID:          m.ID,
		UserID:      m.UserID,
		Status:      m.Status,
		IsVerified:  m.IsVerified,
		TotalAmount: m.TotalAmount,
		Items:       items,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
		VerifiedAt:  m.VerifiedAt,
	}
}

func fromModels(list []models.Order) []OrderDTO {
	out := make([]OrderDTO, 0, len(list))
	for i := range list {
		out = append(out, FromModel(&list[i]))
	}
	return out
}

func statsFromCounts(counts map[enums.OrderStatus]int64) Stats {
	stats := Stats{
		AwaitingVerification: counts[enums.OrderStatusAwaitingVerification],
		InProgress:           counts[enums.OrderStatusInProgress],
		Delivered:            counts[enums.OrderStatusDelivered],
		Cancelled:            counts[enums.OrderStatusCancelled],
		Refunded:             counts[enums.OrderStatusRefunded],
		Returned:             counts[enums.OrderStatusReturned],
	}
	for _, n := range counts {
		stats.Total += n
	}
	return stats
}

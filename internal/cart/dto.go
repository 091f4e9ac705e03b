package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sakthi-t/bookscart/pkg/db/models"
)

// LineDTO is one cart line as shown on the cart page.
type LineDTO struct {
	ID         uuid.UUID       `json:"id"`
	BookID     uuid.UUID       `json:"book_id"`
	Title      string          `json:"title"`
	Slug       string          `json:"slug"`
	Quantity   int             `json:"quantity"`
	PriceAtAdd decimal.Decimal `json:"price_at_add"`
	LineTotal  decimal.Decimal `json:"line_total"`
	Available  int             `json:"available"`
	AddedAt    time.Time       `json:"added_at"`
}

// CartDTO is the cart view with totals.
type CartDTO struct {
	ID        uuid.UUID       `json:"id"`
	Items     []LineDTO       `json:"items"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int64           `json:"item_count"`
}

// CountDTO backs the header badge.
type CountDTO struct {
	Count int64 `json:"count"`
}

// AddItemInput carries the book slug and requested quantity.
type AddItemInput struct {
	Slug     string
	Quantity int
}

func toCartDTO(cart *models.Cart, items []models.CartItem) *CartDTO {
	dto := &CartDTO{
		ID:    cart.ID,
		Items: make([]LineDTO, 0, len(items)),
		Total: decimal.Zero,
	}
	for _, item := range items {
		line := item.LineTotal()
		dto.Items = append(dto.Items, LineDTO{
			ID:         item.ID,
			BookID:     item.BookID,
			Title:      item.Book.Title,
			Slug:       item.Book.Slug,
			Quantity:   item.Quantity,
			PriceAtAdd: item.PriceAtAdd,
			LineTotal:  line,
			Available:  item.Book.Stock,
			AddedAt:    item.AddedAt,
		})
		dto.Total = dto.Total.Add(line)
		dto.ItemCount += int64(item.Quantity)
	}
	return dto
}

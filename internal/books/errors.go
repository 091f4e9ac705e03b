package books

import (
	"github.com/google/uuid"

	"github.com/sakthi-t/bookscart/pkg/db/models"
	pkgerrors "github.com/sakthi-t/bookscart/pkg/errors"
)

// StockShortfall is the detail payload attached to INSUFFICIENT_STOCK errors.
type StockShortfall struct {
	BookID    uuid.UUID `json:"book_id"`
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	Requested int       `json:"requested"`
	Available int       `json:"available"`
}

// InsufficientStock builds the typed stock error for book with a caller-chosen message.
func InsufficientStock(book *models.Book, requested int, message string) *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeInsufficientStock, message).WithDetails(StockShortfall{
		BookID:    book.ID,
		Slug:      book.Slug,
		Title:     book.Title,
		Requested: requested,
		Available: book.Stock,
	})
}

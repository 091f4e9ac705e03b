package checkout

import (
	"fmt"

	"github.com/sakthi-t/bookscart/internal/books"
	"github.com/sakthi-t/bookscart/pkg/db/models"
	pkgerrors "github.com/sakthi-t/bookscart/pkg/errors"
	"github.com/sakthi-t/bookscart/pkg/metrics"
)

// EmptyCartError is returned when there is nothing to check out.
func EmptyCartError() *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeEmptyCart, "Your cart is empty.")
}

// InsufficientStockError names the first book whose stock cannot cover its cart line.
func InsufficientStockError(book *models.Book, requested int) *pkgerrors.Error {
	return books.InsufficientStock(book, requested, fmt.Sprintf("Insufficient stock for %s. Please adjust your cart.", book.Title))
}

func outcomeFor(err error) string {
	if err == nil {
		return metrics.CheckoutOutcomeSuccess
	}
	typed := pkgerrors.As(err)
	if typed == nil {
		return metrics.CheckoutOutcomeError
	}
	switch typed.Code() {
	case pkgerrors.CodeEmptyCart:
		return metrics.CheckoutOutcomeEmptyCart
	case pkgerrors.CodeInsufficientStock:
		return metrics.CheckoutOutcomeInsufficientStock
	default:
		return metrics.CheckoutOutcomeError
	}
}

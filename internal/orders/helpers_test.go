package orders

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/sakthi-t/bookscart/pkg/db/models"
	"github.com/sakthi-t/bookscart/pkg/enums"
)

func mustCreateUser(t *testing.T, conn *gorm.DB, role enums.UserRole) *models.User {
	t.Helper()
	user := &models.User{
		Email:        "orders_" + uuid.NewString() + "@example.com",
		PasswordHash: "hash",
		FirstName:    "Order",
		LastName:     "Tester",
		Role:         role,
		IsActive:     true,
	}
	require.NoError(t, conn.Create(user).Error)
	return user
}

func mustCreateBook(t *testing.T, conn *gorm.DB, title string) *models.Book {
	t.Helper()
	book := &models.Book{
		Title:       title,
		Slug:        "book-" + uuid.NewString(),
		Author:      "Author",
		Genre:       "Genre",
		Price:       decimal.RequireFromString("10.00"),
		Description: "desc",
		Stock:       10,
	}
	require.NoError(t, conn.Create(book).Error)
	return book
}

func mustCreateOrder(t *testing.T, conn *gorm.DB, userID uuid.UUID, status enums.OrderStatus, createdAt time.Time, book *models.Book, qty int) *models.Order {
	t.Helper()
	price := decimal.RequireFromString("7.25")
	order := &models.Order{
		UserID:      userID,
		Status:      status,
		TotalAmount: price.Mul(decimal.NewFromInt(int64(qty))),
		CreatedAt:   createdAt,
		Items: []models.OrderItem{
			{BookID: book.ID, Quantity: qty, Price: price},
		},
	}
	created, err := NewRepository(conn).Create(t.Context(), order)
	require.NoError(t, err)
	return created
}

package checkout

import (
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/sakthi-t/bookscart/internal/books"
	"github.com/sakthi-t/bookscart/internal/cart"
	"github.com/sakthi-t/bookscart/internal/orders"
	"github.com/sakthi-t/bookscart/pkg/db"
	"github.com/sakthi-t/bookscart/pkg/db/models"
	"github.com/sakthi-t/bookscart/pkg/metrics"
)

type fixture struct {
	conn     *gorm.DB
	repo     Repository
	svc      Service
	registry *prometheus.Registry
}

func newFixture(t *testing.T, conn *gorm.DB, wrap func(Repository) Repository) *fixture {
	t.Helper()
	repo := NewRepository(cart.NewRepository(conn), books.NewRepository(conn), orders.NewRepository(conn))
	if wrap != nil {
		repo = wrap(repo)
	}
	reg := prometheus.NewRegistry()
	svc, err := NewService(ServiceParams{
		Repo:     repo,
		TxRunner: db.NewFromGorm(conn),
		Metrics:  metrics.NewCheckoutMetrics(reg),
	})
	require.NoError(t, err)
	return &fixture{conn: conn, repo: repo, svc: svc, registry: reg}
}

func (f *fixture) user(t *testing.T) *models.User {
	t.Helper()
	user := &models.User{Email: "checkout_" + uuid.NewString() + "@example.com", PasswordHash: "hash"}
	require.NoError(t, f.conn.Create(user).Error)
	return user
}

func (f *fixture) book(t *testing.T, title string, stock int, price string) *models.Book {
	t.Helper()
	book := &models.Book{
		Title:       title,
		Slug:        books.Slugify(title) + "-" + uuid.NewString()[:8],
		Author:      "Author",
		Genre:       "Genre",
		Price:       decimal.RequireFromString(price),
		Description: "desc",
		Stock:       stock,
	}
	require.NoError(t, f.conn.Create(book).Error)
	return book
}

func (f *fixture) cart(t *testing.T, userID uuid.UUID) *models.Cart {
	t.Helper()
	c, err := cart.NewRepository(f.conn).Create(t.Context(), userID)
	require.NoError(t, err)
	return c
}

func (f *fixture) addLine(t *testing.T, cartID uuid.UUID, book *models.Book, qty int) {
	t.Helper()
	require.NoError(t, cart.NewRepository(f.conn).CreateItem(t.Context(), &models.CartItem{
		CartID:     cartID,
		BookID:     book.ID,
		Quantity:   qty,
		PriceAtAdd: book.Price,
	}))
}

func (f *fixture) stock(t *testing.T, bookID uuid.UUID) int {
	t.Helper()
	var book models.Book
	require.NoError(t, f.conn.First(&book, "id = ?", bookID).Error)
	return book.Stock
}

func (f *fixture) count(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.conn.Model(model).Count(&n).Error)
	return n
}

func (f *fixture) outcomeCount(t *testing.T, outcome string) float64 {
	t.Helper()
	families, err := f.registry.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != "checkout_attempts_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "outcome" && label.GetValue() == outcome {
					return metric.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

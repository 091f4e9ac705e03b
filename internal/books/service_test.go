package books

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/sakthi-t/bookscart/pkg/db/dbtest"
	"github.com/sakthi-t/bookscart/pkg/db/models"
	pkgerrors "github.com/sakthi-t/bookscart/pkg/errors"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)
	return svc, conn
}

func seedBook(t *testing.T, conn *gorm.DB, title, author, genre string, createdAt time.Time) *models.Book {
	t.Helper()
	book := &models.Book{
		Title:       title,
		Slug:        Slugify(title) + "-" + uuid.NewString()[:8],
		Author:      author,
		Genre:       genre,
		Price:       decimal.RequireFromString("12.50"),
		Description: "A book about " + title,
		Stock:       3,
		CreatedAt:   createdAt,
	}
	require.NoError(t, conn.Create(book).Error)
	return book
}

func TestSearchMatchesAllTokensAcrossFields(t *testing.T) {
	svc, conn := newTestService(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	seedBook(t, conn, "Dune", "Frank Herbert", "Science Fiction", base)
	seedBook(t, conn, "Emma", "Jane Austen", "Romance", base.Add(time.Minute))
	seedBook(t, conn, "Children of Dune", "Frank Herbert", "Science Fiction", base.Add(2*time.Minute))

	res, err := svc.Search(context.Background(), "  dune HERBERT ", 1)
	require.NoError(t, err)
	require.Len(t, res.Books, 2)
	assert.Equal(t, "Dune", res.Books[0].Title)
	assert.Equal(t, "Children of Dune", res.Books[1].Title)
	assert.Equal(t, "dune HERBERT", res.Query)

	res, err = svc.Search(context.Background(), "dune romance", 1)
	require.NoError(t, err)
	assert.Empty(t, res.Books)

	res, err = svc.Search(context.Background(), "", 1)
	require.NoError(t, err)
	assert.Len(t, res.Books, 3)
}

func TestSearchTreatsWildcardsLiterally(t *testing.T) {
	svc, conn := newTestService(t)
	seedBook(t, conn, "100% Pure", "Anon", "Essays", time.Now().UTC())
	seedBook(t, conn, "Plain", "Anon", "Essays", time.Now().UTC())

	res, err := svc.Search(context.Background(), "%", 1)
	require.NoError(t, err)
	require.Len(t, res.Books, 1)
	assert.Equal(t, "100% Pure", res.Books[0].Title)
}

func TestSearchClampsPages(t *testing.T) {
	svc, conn := newTestService(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 14; i++ {
		seedBook(t, conn, fmt.Sprintf("Volume %02d", i), "Author", "Series", base.Add(time.Duration(i)*time.Minute))
	}

	res, err := svc.Search(context.Background(), "", 99)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Page.Number)
	assert.Equal(t, 3, res.Page.TotalPages)
	require.Len(t, res.Books, 2)
	assert.Equal(t, "Volume 12", res.Books[0].Title)

	res, err = svc.Search(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Page.Number)
	assert.Len(t, res.Books, 6)
	assert.True(t, res.Page.HasNext)
}

func TestFeaturedReturnsNewestSix(t *testing.T) {
	svc, conn := newTestService(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 8; i++ {
		seedBook(t, conn, fmt.Sprintf("Book %d", i), "Author", "Genre", base.Add(time.Duration(i)*time.Hour))
	}

	list, err := svc.Featured(context.Background())
	require.NoError(t, err)
	require.Len(t, list, FeaturedCount)
	assert.Equal(t, "Book 7", list[0].Title)
	assert.Equal(t, "Book 2", list[5].Title)
}

func TestGetBySlugNotFound(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.GetBySlug(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestCreateAllocatesUniqueSlugs(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	input := CreateBookInput{
		Title:       "The Hobbit",
		Author:      "J.R.R. Tolkien",
		Genre:       "Fantasy",
		Price:       decimal.RequireFromString("9.999"),
		Description: "There and back again",
		Stock:       4,
	}

	first, err := svc.Create(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, "the-hobbit", first.Slug)
	assert.Equal(t, "10", first.Price.String())
	assert.True(t, first.InStock)

	second, err := svc.Create(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, "the-hobbit-1", second.Slug)

	third, err := svc.Create(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, "the-hobbit-2", third.Slug)
}

func TestCreateRejectsNegativeValues(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Create(context.Background(), CreateBookInput{Title: "X", Price: decimal.NewFromInt(-1)})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = svc.Create(context.Background(), CreateBookInput{Title: "X", Stock: -1})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestUpdateAppliesPartialFieldsAndKeepsSlug(t *testing.T) {
	svc, conn := newTestService(t)
	book := seedBook(t, conn, "Old Title", "Someone", "Drama", time.Now().UTC())

	title := "New Title"
	stock := 0
	price := decimal.RequireFromString("20")
	updated, err := svc.Update(context.Background(), book.ID, UpdateBookInput{Title: &title, Stock: &stock, Price: &price})
	require.NoError(t, err)
	assert.Equal(t, "New Title", updated.Title)
	assert.Equal(t, book.Slug, updated.Slug)
	assert.Equal(t, "Someone", updated.Author)
	assert.Equal(t, 0, updated.Stock)
	assert.False(t, updated.InStock)
	assert.True(t, price.Equal(updated.Price))

	_, err = svc.Update(context.Background(), uuid.New(), UpdateBookInput{Title: &title})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestDeleteRejectsReferencedBooks(t *testing.T) {
	svc, conn := newTestService(t)
	book := seedBook(t, conn, "Referenced", "A", "B", time.Now().UTC())
	free := seedBook(t, conn, "Free", "A", "B", time.Now().UTC())

	user := &models.User{Email: "ref@example.com", PasswordHash: "x"}
	require.NoError(t, conn.Create(user).Error)
	cart := &models.Cart{UserID: user.ID}
	require.NoError(t, conn.Create(cart).Error)
	require.NoError(t, conn.Omit("Book").Create(&models.CartItem{
		CartID:     cart.ID,
		BookID:     book.ID,
		Quantity:   1,
		PriceAtAdd: book.Price,
	}).Error)

	err := svc.Delete(context.Background(), book.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())

	require.NoError(t, svc.Delete(context.Background(), free.ID))
	_, err = svc.GetBySlug(context.Background(), free.Slug)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

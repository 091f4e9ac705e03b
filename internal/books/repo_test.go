package books

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakthi-t/bookscart/pkg/db/dbtest"
)

func TestRepositoryDecrementStockIsGuarded(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	book := seedBook(t, conn, "Guarded", "A", "B", time.Now().UTC())

	ok, err := repo.DecrementStock(ctx, book.ID, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.DecrementStock(ctx, book.ID, 2)
	require.NoError(t, err)
	assert.False(t, ok)

	reloaded, err := repo.FindByID(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.Stock)
}

func TestRepositoryLockByIDsOrdersByID(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	a := seedBook(t, conn, "A", "A", "B", time.Now().UTC())
	b := seedBook(t, conn, "B", "A", "B", time.Now().UTC())

	list, err := repo.LockByIDs(context.Background(), []uuid.UUID{b.ID, a.ID, uuid.New()})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.True(t, list[0].ID.String() < list[1].ID.String())

	empty, err := repo.LockByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

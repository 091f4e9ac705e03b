package migrate_test

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/sakthi-t/bookscart/pkg/config"
	"github.com/sakthi-t/bookscart/pkg/db"
	"github.com/sakthi-t/bookscart/pkg/logger"
	"github.com/sakthi-t/bookscart/pkg/migrate"
)

func readMigration(t *testing.T, suffix string) string {
	t.Helper()
	matches, err := fs.Glob(migrate.Migrations, "migrations/*_"+suffix+".sql")
	require.NoError(t, err)
	require.Len(t, matches, 1, "expected exactly one %s migration", suffix)
	data, err := fs.ReadFile(migrate.Migrations, matches[0])
	require.NoError(t, err)
	return string(data)
}

func TestBooksMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "create_books")
	for _, sub := range []string{
		"CREATE TABLE IF NOT EXISTS books",
		"price numeric(8,2) NOT NULL",
		"CONSTRAINT books_slug_key UNIQUE (slug)",
		"CHECK (stock >= 0)",
		"DROP TABLE IF EXISTS books",
	} {
		require.Contains(t, content, sub)
	}
}

func TestCartAndOrderMigrationsRestrictBookDeletes(t *testing.T) {
	carts := readMigration(t, "create_carts")
	require.Contains(t, carts, "UNIQUE (cart_id, book_id)")
	require.Contains(t, carts, "FOREIGN KEY (cart_id) REFERENCES carts(id) ON DELETE CASCADE")
	require.Contains(t, carts, "FOREIGN KEY (book_id) REFERENCES books(id) ON DELETE RESTRICT")

	orders := readMigration(t, "create_orders")
	require.Contains(t, orders, "total_amount numeric(10,2)")
	require.Contains(t, orders, "FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE")
	require.Contains(t, orders, "FOREIGN KEY (book_id) REFERENCES books(id) ON DELETE RESTRICT")
	require.Contains(t, orders, "'AWAITING_VERIFICATION'")
}

func TestValidateEmbedded(t *testing.T) {
	require.NoError(t, migrate.ValidateEmbedded())
}

func TestValidateDirCollectsEveryProblem(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	write("20260101000000_ok.sql", "-- +goose Up\n-- +goose Down\n")
	write("bad-name.sql", "-- +goose Up\n-- +goose Down\n")
	write("20260101000001_no_down.sql", "-- +goose Up\n")
	write("20260101000000_dup.sql", "-- +goose Up\n-- +goose Down\n")

	err := migrate.ValidateDir(dir)
	require.Error(t, err)
	require.Len(t, multierr.Errors(err), 3)
	require.True(t, strings.Contains(err.Error(), "bad-name.sql"))
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	path, err := migrate.CreateSQLMigration(dir, "Add Book ISBN!")
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(path, "_add_book_isbn.sql"))
	require.NoError(t, migrate.ValidateDir(dir))
}

func TestMaybeRunDevAutoMigratesSQLite(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)
	client := db.NewFromGorm(conn)

	cfg := &config.Config{
		App:          config.AppConfig{Env: config.AppEnvDev},
		FeatureFlags: config.FeatureFlagsConfig{AutoMigrate: true},
	}
	logg := logger.New(logger.Options{ServiceName: "test", Output: &strings.Builder{}})

	require.NoError(t, migrate.MaybeRunDev(context.Background(), cfg, logg, client))
	for _, table := range []string{"users", "accounts", "books", "carts", "cart_items", "orders", "order_items"} {
		require.True(t, conn.Migrator().HasTable(table), "missing table %s", table)
	}

	cfg.App.Env = config.AppEnvProd
	require.NoError(t, migrate.MaybeRunDev(context.Background(), cfg, logg, client))
}

func TestDialect(t *testing.T) {
	require.Equal(t, goose.DialectSQLite3, migrate.Dialect(config.DriverSQLite))
	require.Equal(t, goose.DialectPostgres, migrate.Dialect(config.DriverPostgres))
}

func TestCreateSQLMigrationAvoidsVersionCollisions(t *testing.T) {
	dir := t.TempDir()
	first, err := migrate.CreateSQLMigration(dir, "add isbn")
	require.NoError(t, err)
	second, err := migrate.CreateSQLMigration(dir, "add isbn index")
	require.NoError(t, err)

	require.NotEqual(t, filepath.Base(first)[:14], filepath.Base(second)[:14])
	require.NoError(t, migrate.ValidateDir(dir))

	_, err = migrate.CreateSQLMigration(dir, "!!!")
	require.Error(t, err)
}

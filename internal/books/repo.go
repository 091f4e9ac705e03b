package books

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sakthi-t/bookscart/pkg/db/models"
)

// Repository defines persistence operations for the catalog.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, book *models.Book) (*models.Book, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Book, error)
	FindBySlug(ctx context.Context, slug string) (*models.Book, error)
	SlugTaken(ctx context.Context, slug string) (bool, error)
	Count(ctx context.Context, tokens []string) (int64, error)
	Search(ctx context.Context, tokens []string, offset, limit int) ([]models.Book, error)
	Newest(ctx context.Context, limit int) ([]models.Book, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountReferences(ctx context.Context, id uuid.UUID) (int64, error)
	LockByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Book, error)
	DecrementStock(ctx context.Context, id uuid.UUID, qty int) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a books repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, book *models.Book) (*models.Book, error) {
	if err := r.db.WithContext(ctx).Create(book).Error; err != nil {
		return nil, err
	}
	return book, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	var book models.Book
	if err := r.db.WithContext(ctx).First(&book, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

func (r *repository) FindBySlug(ctx context.Context, slug string) (*models.Book, error) {
	var book models.Book
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&book).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

func (r *repository) SlugTaken(ctx context.Context, slug string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Book{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) searchQuery(ctx context.Context, tokens []string) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.Book{})
	for _, token := range tokens {
		clauseSQL, args := tokenClause(token)
		query = query.Where(clauseSQL, args...)
	}
	return query
}

func (r *repository) Count(ctx context.Context, tokens []string) (int64, error) {
	var total int64
	if err := r.searchQuery(ctx, tokens).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// Search returns matching books oldest first.
func (r *repository) Search(ctx context.Context, tokens []string, offset, limit int) ([]models.Book, error) {
	var list []models.Book
	err := r.searchQuery(ctx, tokens).
		Order("created_at ASC").
		Order("id ASC").
		Offset(offset).
		Limit(limit).
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (r *repository) Newest(ctx context.Context, limit int) ([]models.Book, error) {
	var list []models.Book
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	res := r.db.WithContext(ctx).Model(&models.Book{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Book{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountReferences counts cart and order lines pointing at the book.
func (r *repository) CountReferences(ctx context.Context, id uuid.UUID) (int64, error) {
	var cartRefs, orderRefs int64
	if err := r.db.WithContext(ctx).Model(&models.CartItem{}).Where("book_id = ?", id).Count(&cartRefs).Error; err != nil {
		return 0, err
	}
	if err := r.db.WithContext(ctx).Model(&models.OrderItem{}).Where("book_id = ?", id).Count(&orderRefs).Error; err != nil {
		return 0, err
	}
	return cartRefs + orderRefs, nil
}

// LockByIDs loads the books with FOR UPDATE in id order so concurrent
// checkouts acquire locks in the same sequence.
func (r *repository) LockByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Book, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var list []models.Book
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

// DecrementStock subtracts qty only when enough stock remains. It reports
// false when the guard rejected the update.
func (r *repository) DecrementStock(ctx context.Context, id uuid.UUID, qty int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Book{}).
		Where("id = ? AND stock >= ?", id, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

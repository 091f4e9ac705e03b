package books

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sakthi-t/bookscart/pkg/db"
	"github.com/sakthi-t/bookscart/pkg/db/models"
	pkgerrors "github.com/sakthi-t/bookscart/pkg/errors"
	"github.com/sakthi-t/bookscart/pkg/pagination"
)

const (
	// FeaturedCount is how many of the newest books the home page shows.
	FeaturedCount   = 6
	maxSlugAttempts = 100
)

// Service exposes catalog reads and staff maintenance.
type Service interface {
	Featured(ctx context.Context) ([]BookDTO, error)
	Search(ctx context.Context, q string, page int) (SearchResult, error)
	GetBySlug(ctx context.Context, slug string) (*BookDTO, error)
	Create(ctx context.Context, input CreateBookInput) (*BookDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateBookInput) (*BookDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo Repository
}

// NewService builds the catalog service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "books repository is required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Featured(ctx context.Context) ([]BookDTO, error) {
	list, err := s.repo.Newest(ctx, FeaturedCount)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load featured books")
	}
	return fromModels(list), nil
}

// Search matches every whitespace token against title, author, genre or
// description and returns the requested page, clamped into range.
func (s *service) Search(ctx context.Context, q string, page int) (SearchResult, error) {
	q = strings.TrimSpace(q)
	tokens := Tokenize(q)

	total, err := s.repo.Count(ctx, tokens)
	if err != nil {
		return SearchResult{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count books")
	}
	p := pagination.NewPage(page, pagination.CatalogPageSize, total)

	list, err := s.repo.Search(ctx, tokens, p.Offset(), p.PageSize)
	if err != nil {
		return SearchResult{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "search books")
	}
	return SearchResult{Books: fromModels(list), Query: q, Page: p}, nil
}

func (s *service) GetBySlug(ctx context.Context, slug string) (*BookDTO, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug is required")
	}
	book, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, mapLookupError(err, "load book")
	}
	dto := FromModel(book)
	return &dto, nil
}

func (s *service) Create(ctx context.Context, input CreateBookInput) (*BookDTO, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	if input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be zero or greater")
	}
	if input.Stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock must be zero or greater")
	}

	book := &models.Book{
		Title:       title,
		Author:      strings.TrimSpace(input.Author),
		Genre:       strings.TrimSpace(input.Genre),
		Price:       input.Price.Round(2),
		Description: input.Description,
		Stock:       input.Stock,
		ImageURL:    input.ImageURL,
	}

	base := slugBase(title)
	for n := 0; n < maxSlugAttempts; n++ {
		candidate := slugCandidate(base, n)
		taken, err := s.repo.SlugTaken(ctx, candidate)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check slug")
		}
		if taken {
			continue
		}

		book.ID = uuid.Nil
		book.Slug = candidate
		created, err := s.repo.Create(ctx, book)
		if err == nil {
			dto := FromModel(created)
			return &dto, nil
		}
		if isSlugConflict(err) {
			continue
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create book")
	}
	return nil, pkgerrors.New(pkgerrors.CodeConflict, "could not allocate a unique slug")
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateBookInput) (*BookDTO, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "book id is required")
	}

	updates := map[string]any{}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "title cannot be empty")
		}
		updates["title"] = title
	}
	if input.Author != nil {
		updates["author"] = strings.TrimSpace(*input.Author)
	}
	if input.Genre != nil {
		updates["genre"] = strings.TrimSpace(*input.Genre)
	}
	if input.Price != nil {
		if input.Price.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be zero or greater")
		}
		updates["price"] = input.Price.Round(2)
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.Stock != nil {
		if *input.Stock < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock must be zero or greater")
		}
		updates["stock"] = *input.Stock
	}
	if input.ImageURL != nil {
		updates["image_url"] = input.ImageURL
	}

	if len(updates) > 0 {
		if err := s.repo.Update(ctx, id, updates); err != nil {
			return nil, mapLookupError(err, "update book")
		}
	}

	book, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapLookupError(err, "load book")
	}
	dto := FromModel(book)
	return &dto, nil
}

// Delete removes a book that no cart or order line references.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "book id is required")
	}
	refs, err := s.repo.CountReferences(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count book references")
	}
	if refs > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "book is referenced by carts or orders")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapLookupError(err, "delete book")
	}
	return nil
}

func mapLookupError(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "book not found")
	}
	if db.IsForeignKeyViolation(err) {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "book is referenced by carts or orders")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, msg)
}

func isSlugConflict(err error) bool {
	return db.IsUniqueViolation(err, "books_slug_key") || db.IsUniqueViolation(err, "books.slug")
}

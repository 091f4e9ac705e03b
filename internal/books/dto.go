package books

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sakthi-t/bookscart/pkg/db/models"
	"github.com/sakthi-t/bookscart/pkg/pagination"
)

// BookDTO is the public projection of a catalog entry.
type BookDTO struct {
	ID          uuid.UUID       `json:"id"`
	Title       string          `json:"title"`
	Slug        string          `json:"slug"`
	Author      string          `json:"author"`
	Genre       string          `json:"genre"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Stock       int             `json:"stock"`
	InStock     bool            `json:"in_stock"`
	ImageURL    *string         `json:"image_url,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// SearchResult is one page of catalog search results.
type SearchResult struct {
	Books []BookDTO       `json:"books"`
	Query string          `json:"query"`
	Page  pagination.Page `json:"page"`
}

// CreateBookInput carries the staff-provided fields for a new book.
type CreateBookInput struct {
	Title       string          `json:"title" validate:"required,max=255"`
	Author      string          `json:"author" validate:"required,max=255"`
	Genre       string          `json:"genre" validate:"required,max=100"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description" validate:"required"`
	Stock       int             `json:"stock" validate:"gte=0"`
	ImageURL    *string         `json:"image_url,omitempty" validate:"omitempty,url"`
}

// UpdateBookInput is a partial update; nil fields are left untouched.
type UpdateBookInput struct {
	Title       *string          `json:"title,omitempty" validate:"omitempty,min=1,max=255"`
	Author      *string          `json:"author,omitempty" validate:"omitempty,min=1,max=255"`
	Genre       *string          `json:"genre,omitempty" validate:"omitempty,min=1,max=100"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Description *string          `json:"description,omitempty"`
	Stock       *int             `json:"stock,omitempty" validate:"omitempty,gte=0"`
	ImageURL    *string          `json:"image_url,omitempty" validate:"omitempty,url"`
}

// FromModel maps a persisted book into its DTO.
func FromModel(m *models.Book) BookDTO {
	return BookDTO{
		ID:          m.ID,
		Title:       m.Title,
		Slug:        m.Slug,
		Author:      m.Author,
		Genre:       m.Genre,
		Price:       m.Price,
		Description: m.Description,
		Stock:       m.Stock,
		InStock:     m.Stock > 0,
		ImageURL:    m.ImageURL,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func fromModels(list []models.Book) []BookDTO {
	out := make([]BookDTO, 0, len(list))
	for i := range list {
		out = append(out, FromModel(&list[i]))
	}
	return out
}

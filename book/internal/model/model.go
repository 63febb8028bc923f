package model

import (
	"sort"

	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

type Status string

const (
	StatusAvailable    Status = "AVAILABLE"
	StatusOutOfStock   Status = "OUT_OF_STOCK"
	StatusDiscontinued Status = "DISCONTINUED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusAvailable, StatusOutOfStock, StatusDiscontinued:
		return true
	}
	return false
}

type Book struct {
	ID              int64           `json:"id" db:"id"`
	Title           string          `json:"title" db:"title"`
	Author          string          `json:"author" db:"author"`
	ISBN            string          `json:"isbn" db:"isbn"`
	PublishedYear   int             `json:"publishedYear" db:"published_year"`
	Description     string          `json:"description" db:"description"`
	TotalCopies     int             `json:"totalCopies" db:"total_copies"`
	AvailableCopies int             `json:"availableCopies" db:"available_copies"`
	Price           decimal.Decimal `json:"price" db:"price"`
	Status          Status          `json:"status" db:"status"`
	CategoryIDs     []int64         `json:"categoryIds" db:"-"`
}

type CreateBookRequest struct {
	Title           string          `json:"title" validate:"required,notblank,min=1,max=200"`
	Author          string          `json:"author" validate:"required,notblank"`
	ISBN            string          `json:"isbn" validate:"required,isbn_digits"`
	PublishedYear   int             `json:"publishedYear" validate:"min=1000,max=9999"`
	Description     string          `json:"description" validate:"required,notblank,min=1,max=500"`
	TotalCopies     int             `json:"totalCopies" validate:"gte=0"`
	AvailableCopies int             `json:"availableCopies" validate:"gte=0,ltefield=TotalCopies"`
	Price           decimal.Decimal `json:"price" validate:"price"`
	Status          Status          `json:"status" validate:"omitempty,oneof=AVAILABLE OUT_OF_STOCK DISCONTINUED"`
	CategoryIDs     []int64         `json:"categoryIds" validate:"omitempty,dive,gt=0"`
}

// NewBook applies create defaults: AVAILABLE status and an empty category set.
func (r CreateBookRequest) NewBook() Book {
	status := r.Status
	if status == "" {
		status = StatusAvailable
	}
	return Book{
		Title:           r.Title,
		Author:          r.Author,
		ISBN:            r.ISBN,
		PublishedYear:   r.PublishedYear,
		Description:     r.Description,
		TotalCopies:     r.TotalCopies,
		AvailableCopies: r.AvailableCopies,
		Price:           r.Price,
		Status:          status,
		CategoryIDs:     CategorySet(r.CategoryIDs),
	}
}

// UpdateBookRequest is a patch: a nil field leaves the stored value unchanged.
// CategoryIDs set to an empty list clears the categories.
type UpdateBookRequest struct {
	Title           *string          `json:"title" validate:"omitempty,notblank,min=1,max=200"`
	Author          *string          `json:"author" validate:"omitempty,notblank"`
	PublishedYear   *int             `json:"publishedYear" validate:"omitempty,min=1000,max=9999"`
	Description     *string          `json:"description" validate:"omitempty,notblank,min=1,max=500"`
	TotalCopies     *int             `json:"totalCopies" validate:"omitempty,gte=0"`
	AvailableCopies *int             `json:"availableCopies" validate:"omitempty,gte=0"`
	Price           *decimal.Decimal `json:"price" validate:"omitempty,price"`
	Status          *Status          `json:"status" validate:"omitempty,oneof=AVAILABLE OUT_OF_STOCK DISCONTINUED"`
	CategoryIDs     *[]int64         `json:"categoryIds" validate:"omitempty,dive,gt=0"`
}

func (r UpdateBookRequest) Apply(b Book) Book {
	if r.Title != nil {
		b.Title = *r.Title
	}
	if r.Author != nil {
		b.Author = *r.Author
	}
	if r.PublishedYear != nil {
		b.PublishedYear = *r.PublishedYear
	}
	if r.Description != nil {
		b.Description = *r.Description
	}
	if r.TotalCopies != nil {
		b.TotalCopies = *r.TotalCopies
	}
	if r.AvailableCopies != nil {
		b.AvailableCopies = *r.AvailableCopies
	}
	if r.Price != nil {
		b.Price = *r.Price
	}
	if r.Status != nil {
		b.Status = *r.Status
	}
	if r.CategoryIDs != nil {
		b.CategoryIDs = CategorySet(*r.CategoryIDs)
	}
	return b
}

// CategorySet deduplicates and sorts ids. The result is never nil.
func CategorySet(ids []int64) []int64 {
	set := make([]int64, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		set = append(set, id)
	}
	sort.Slice(set, func(i, j int) bool { return set[i] < set[j] })
	return set
}

type PriceRange struct {
	Min decimal.Decimal
	Max decimal.Decimal
}

type YearRange struct {
	From int
	To   int
}

// SearchFilter holds the optional search predicates; nil means no constraint.
type SearchFilter struct {
	Title      *string
	Author     *string
	PriceRange *PriceRange
	YearRange  *YearRange
	Status     *Status
}

func (f SearchFilter) Empty() bool {
	return f.Title == nil && f.Author == nil && f.PriceRange == nil && f.YearRange == nil && f.Status == nil
}

type AvailableCountRequest struct {
	BookID   int64 `json:"bookId"`
	IsReturn bool  `json:"isReturn"`
}

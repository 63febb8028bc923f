package repository

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Astemirdum/book-service/book/internal/errs"
	"github.com/Astemirdum/book-service/book/internal/model"
)

// memoryRepository keeps books in process memory. Used when BOOK_STORAGE=memory and in tests.
type memoryRepository struct {
	mu     sync.RWMutex
	books  map[int64]model.Book
	isbn   map[string]int64
	nextID int64
	log    *zap.Logger
}

var _ Repository = (*memoryRepository)(nil)

func NewMemoryRepository(log *zap.Logger) *memoryRepository {
	return &memoryRepository{
		books: make(map[int64]model.Book),
		isbn:  make(map[string]int64),
		log:   log.Named("memory-repo"),
	}
}

func clone(b model.Book) model.Book {
	b.CategoryIDs = append(make([]int64, 0, len(b.CategoryIDs)), b.CategoryIDs...)
	return b
}

func (r *memoryRepository) filter(pred func(b model.Book) bool) []model.Book {
	r.mu.RLock()
	defer r.mu.RUnlock()

	books := make([]model.Book, 0)
	for _, b := range r.books {
		if pred == nil || pred(b) {
			books = append(books, clone(b))
		}
	}
	sort.Slice(books, func(i, j int) bool { return books[i].ID < books[j].ID })
	return books
}

func (r *memoryRepository) ListBooks(_ context.Context) ([]model.Book, error) {
	return r.filter(nil), nil
}

func (r *memoryRepository) GetBook(_ context.Context, id int64) (model.Book, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.books[id]
	if !ok {
		return model.Book{}, errs.ErrNotFound
	}
	return clone(b), nil
}

func (r *memoryRepository) ExistsByID(_ context.Context, id int64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.books[id]
	return ok, nil
}

func (r *memoryRepository) ExistsByISBN(_ context.Context, isbn string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.isbn[isbn]
	return ok, nil
}

func (r *memoryRepository) CreateBook(_ context.Context, book model.Book) (model.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.isbn[book.ISBN]; ok {
		return model.Book{}, errs.ErrConflict
	}
	r.nextID++
	book.ID = r.nextID
	book.CategoryIDs = model.CategorySet(book.CategoryIDs)
	r.books[book.ID] = book
	r.isbn[book.ISBN] = book.ID
	return clone(book), nil
}

func (r *memoryRepository) UpdateBook(_ context.Context, book model.Book) (model.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.books[book.ID]
	if !ok {
		return model.Book{}, errs.ErrNotFound
	}
	if book.AvailableCopies > book.TotalCopies {
		return model.Book{}, errs.ErrCopiesInvariant(book.AvailableCopies, book.TotalCopies)
	}
	book.ISBN = stored.ISBN
	book.CategoryIDs = model.CategorySet(book.CategoryIDs)
	r.books[book.ID] = book
	return clone(book), nil
}

func (r *memoryRepository) DeleteBook(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.books[id]
	if !ok {
		return errs.ErrNotFound
	}
	delete(r.books, id)
	delete(r.isbn, b.ISBN)
	return nil
}

func (r *memoryRepository) AvailableCount(_ context.Context, id int64, delta int) (model.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.books[id]
	if !ok {
		return model.Book{}, errs.ErrNotFound
	}
	next := b.AvailableCopies + delta
	if next < 0 || next > b.TotalCopies {
		return model.Book{}, errs.ErrNotFound
	}
	b.AvailableCopies = next
	r.books[id] = b
	return clone(b), nil
}

func (r *memoryRepository) ByTitle(_ context.Context, text string) ([]model.Book, error) {
	text = strings.ToLower(text)
	return r.filter(func(b model.Book) bool {
		return strings.Contains(strings.ToLower(b.Title), text)
	}), nil
}

func (r *memoryRepository) ByAuthor(_ context.Context, text string) ([]model.Book, error) {
	text = strings.ToLower(text)
	return r.filter(func(b model.Book) bool {
		return strings.Contains(strings.ToLower(b.Author), text)
	}), nil
}

func (r *memoryRepository) ByStatus(_ context.Context, status model.Status) ([]model.Book, error) {
	return r.filter(func(b model.Book) bool { return b.Status == status }), nil
}

func (r *memoryRepository) ByAvailableGreaterThan(_ context.Context, n int) ([]model.Book, error) {
	return r.filter(func(b model.Book) bool { return b.AvailableCopies > n }), nil
}

func (r *memoryRepository) ByYearRange(_ context.Context, from, to int) ([]model.Book, error) {
	return r.filter(func(b model.Book) bool {
		return b.PublishedYear >= from && b.PublishedYear <= to
	}), nil
}

func (r *memoryRepository) ByPriceRange(_ context.Context, min, max decimal.Decimal) ([]model.Book, error) {
	return r.filter(func(b model.Book) bool {
		return b.Price.GreaterThanOrEqual(min) && b.Price.LessThanOrEqual(max)
	}), nil
}

func (r *memoryRepository) ByCategory(_ context.Context, categoryID int64) ([]model.Book, error) {
	return r.filter(func(b model.Book) bool {
		for _, id := range b.CategoryIDs {
			if id == categoryID {
				return true
			}
		}
		return false
	}), nil
}

func (r *memoryRepository) OutOfStock(_ context.Context) ([]model.Book, error) {
	return r.filter(func(b model.Book) bool { return b.AvailableCopies == 0 }), nil
}

func (r *memoryRepository) WithBorrowedCopies(_ context.Context) ([]model.Book, error) {
	return r.filter(func(b model.Book) bool { return b.TotalCopies > b.AvailableCopies }), nil
}

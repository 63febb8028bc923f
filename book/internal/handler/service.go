package handler

import (
	"context"

	"github.com/Astemirdum/book-service/book/internal/model"
	"github.com/Astemirdum/book-service/book/internal/service"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

var _ BookService = (*service.Service)(nil)

type BookService interface {
	ListBooks(ctx context.Context) ([]model.Book, error)
	GetBook(ctx context.Context, id int64) (model.Book, error)
	ListAvailable(ctx context.Context) ([]model.Book, error)
	ListOutOfStock(ctx context.Context) ([]model.Book, error)
	ListBorrowed(ctx context.Context) ([]model.Book, error)
	ListByStatus(ctx context.Context, status model.Status) ([]model.Book, error)
	ListByCategory(ctx context.Context, categoryID int64) ([]model.Book, error)
	Search(ctx context.Context, filter model.SearchFilter) ([]model.Book, error)
	CreateBook(ctx context.Context, req model.CreateBookRequest) (model.Book, error)
	UpdateBook(ctx context.Context, id int64, req model.UpdateBookRequest) (model.Book, error)
	BorrowBook(ctx context.Context, id int64) (model.Book, error)
	ReturnBook(ctx context.Context, id int64) (model.Book, error)
	DeleteBook(ctx context.Context, id int64) (bool, error)
	AvailableCount(ctx context.Context, id int64, isReturn bool) error
}

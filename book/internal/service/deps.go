package service

import (
	"context"

	"github.com/Astemirdum/book-service/book/internal/model"
)

//go:generate go run github.com/golang/mock/mockgen -source=deps.go -destination=mocks/mock.go

// CategoryValidator reports whether every id names a known, active category.
type CategoryValidator interface {
	ValidateCategories(ctx context.Context, ids []int64) (bool, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event model.BookEvent) error
}

package model_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Astemirdum/book-service/book/internal/model"
)

func ptr[T any](v T) *T { return &v }

func TestCreateBookRequest_NewBook_Defaults(t *testing.T) {
	t.Parallel()
	req := model.CreateBookRequest{
		Title:           "Dune",
		Author:          "Herbert",
		ISBN:            "1234567890",
		PublishedYear:   1965,
		Description:     "Desert planet",
		TotalCopies:     3,
		AvailableCopies: 3,
		Price:           decimal.RequireFromString("9.99"),
	}
	book := req.NewBook()
	require.Equal(t, model.StatusAvailable, book.Status)
	require.NotNil(t, book.CategoryIDs)
	require.Empty(t, book.CategoryIDs)
	require.Zero(t, book.ID)

	req.Status = model.StatusDiscontinued
	req.CategoryIDs = []int64{3, 1, 3}
	book = req.NewBook()
	require.Equal(t, model.StatusDiscontinued, book.Status)
	require.Equal(t, []int64{1, 3}, book.CategoryIDs)
}

func TestUpdateBookRequest_Apply(t *testing.T) {
	t.Parallel()
	base := model.Book{
		ID:              7,
		Title:           "Dune",
		Author:          "Herbert",
		ISBN:            "1234567890",
		PublishedYear:   1965,
		Description:     "Desert planet",
		TotalCopies:     3,
		AvailableCopies: 2,
		Price:           decimal.RequireFromString("9.99"),
		Status:          model.StatusAvailable,
		CategoryIDs:     []int64{1, 2},
	}

	tests := []struct {
		name  string
		patch model.UpdateBookRequest
		want  func(b model.Book) model.Book
	}{
		{
			name:  "empty patch keeps everything",
			patch: model.UpdateBookRequest{},
			want:  func(b model.Book) model.Book { return b },
		},
		{
			name:  "title and copies",
			patch: model.UpdateBookRequest{Title: ptr("Dune Messiah"), TotalCopies: ptr(5), AvailableCopies: ptr(5)},
			want: func(b model.Book) model.Book {
				b.Title, b.TotalCopies, b.AvailableCopies = "Dune Messiah", 5, 5
				return b
			},
		},
		{
			name:  "empty category list clears",
			patch: model.UpdateBookRequest{CategoryIDs: ptr([]int64{})},
			want: func(b model.Book) model.Book {
				b.CategoryIDs = []int64{}
				return b
			},
		},
		{
			name:  "status and price",
			patch: model.UpdateBookRequest{Status: ptr(model.StatusOutOfStock), Price: ptr(decimal.RequireFromString("12.50"))},
			want: func(b model.Book) model.Book {
				b.Status, b.Price = model.StatusOutOfStock, decimal.RequireFromString("12.50")
				return b
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want(base), tt.patch.Apply(base))
		})
	}
}

func TestSearchFilter_Empty(t *testing.T) {
	t.Parallel()
	require.True(t, model.SearchFilter{}.Empty())
	require.False(t, model.SearchFilter{Title: ptr("dune")}.Empty())
}

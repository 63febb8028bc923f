package service_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/Astemirdum/book-service/book/internal/errs"
	"github.com/Astemirdum/book-service/book/internal/model"
	"github.com/Astemirdum/book-service/book/internal/repository"
	"github.com/Astemirdum/book-service/book/internal/service"
	mock_service "github.com/Astemirdum/book-service/book/internal/service/mocks"
)

func ptr[T any](v T) *T { return &v }

type deps struct {
	categories *mock_service.MockCategoryValidator
	events     *mock_service.MockEventPublisher
}

func newService(t *testing.T) (*service.Service, deps) {
	c := gomock.NewController(t)
	d := deps{
		categories: mock_service.NewMockCategoryValidator(c),
		events:     mock_service.NewMockEventPublisher(c),
	}
	log := zap.NewExample().Named("test")
	return service.NewService(repository.NewMemoryRepository(log), d.categories, d.events, log), d
}

func duneRequest() model.CreateBookRequest {
	return model.CreateBookRequest{
		Title:           "Dune",
		Author:          "Herbert",
		ISBN:            "1234567890",
		PublishedYear:   1965,
		Description:     "Desert planet",
		TotalCopies:     3,
		AvailableCopies: 3,
		Price:           decimal.RequireFromString("9.99"),
	}
}

func TestService_BorrowReturnScenario(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, d := newService(t)
	d.events.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	book, err := svc.CreateBook(ctx, duneRequest())
	require.NoError(t, err)
	require.Equal(t, 3, book.AvailableCopies)
	require.Equal(t, model.StatusAvailable, book.Status)
	require.Equal(t, []int64{}, book.CategoryIDs)

	for _, want := range []int{2, 1, 0} {
		book, err = svc.BorrowBook(ctx, book.ID)
		require.NoError(t, err)
		require.Equal(t, want, book.AvailableCopies)
	}

	_, err = svc.BorrowBook(ctx, book.ID)
	require.ErrorIs(t, err, errs.ErrNoCopiesAvailable)
	require.True(t, errs.IsStateError(err))
	got, err := svc.GetBook(ctx, book.ID)
	require.NoError(t, err)
	require.Equal(t, 0, got.AvailableCopies)

	book, err = svc.ReturnBook(ctx, book.ID)
	require.NoError(t, err)
	require.Equal(t, 1, book.AvailableCopies)
}

func TestService_ReturnFullyStocked(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, d := newService(t)
	d.events.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	book, err := svc.CreateBook(ctx, duneRequest())
	require.NoError(t, err)

	_, err = svc.ReturnBook(ctx, book.ID)
	require.ErrorIs(t, err, errs.ErrFullyStocked)

	_, err = svc.ReturnBook(ctx, 42)
	require.ErrorIs(t, err, errs.ErrNotFound)
	_, err = svc.BorrowBook(ctx, 42)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestService_CreateBook(t *testing.T) {
	t.Parallel()
	type mockBehavior func(d deps)

	tests := []struct {
		name         string
		req          func() model.CreateBookRequest
		mockBehavior mockBehavior
		wantErr      error
	}{
		{
			name: "ok. no categories",
			req:  duneRequest,
			mockBehavior: func(d deps) {
				d.events.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)
			},
		},
		{
			name: "ok. categories deduplicated",
			req: func() model.CreateBookRequest {
				r := duneRequest()
				r.CategoryIDs = []int64{5, 2, 5}
				return r
			},
			mockBehavior: func(d deps) {
				d.categories.EXPECT().ValidateCategories(gomock.Any(), []int64{2, 5}).Return(true, nil)
				d.events.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)
			},
		},
		{
			name: "ok. publish failure is not fatal",
			req:  duneRequest,
			mockBehavior: func(d deps) {
				d.events.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(errors.New("broker down"))
			},
		},
		{
			name: "err. invalid category",
			req: func() model.CreateBookRequest {
				r := duneRequest()
				r.CategoryIDs = []int64{9}
				return r
			},
			mockBehavior: func(d deps) {
				d.categories.EXPECT().ValidateCategories(gomock.Any(), []int64{9}).Return(false, nil)
			},
			wantErr: errs.ErrInvalidCategory,
		},
		{
			name: "err. category service unavailable",
			req: func() model.CreateBookRequest {
				r := duneRequest()
				r.CategoryIDs = []int64{9}
				return r
			},
			mockBehavior: func(d deps) {
				d.categories.EXPECT().ValidateCategories(gomock.Any(), []int64{9}).Return(false, errors.New("timeout"))
			},
			wantErr: errs.ErrCategoryUnavailable,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			svc, d := newService(t)
			tt.mockBehavior(d)

			book, err := svc.CreateBook(ctx, tt.req())
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				books, err := svc.ListBooks(ctx)
				require.NoError(t, err)
				require.Empty(t, books)
				return
			}
			require.NoError(t, err)

			got, err := svc.GetBook(ctx, book.ID)
			require.NoError(t, err)
			require.Equal(t, book, got)
			require.Equal(t, tt.req().Title, got.Title)
			require.Equal(t, tt.req().ISBN, got.ISBN)
			require.True(t, tt.req().Price.Equal(got.Price))
			require.Equal(t, model.CategorySet(tt.req().CategoryIDs), got.CategoryIDs)
		})
	}
}

func TestService_CreateBook_DuplicateISBN(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, d := newService(t)
	d.events.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil).Times(1)

	_, err := svc.CreateBook(ctx, duneRequest())
	require.NoError(t, err)
	_, err = svc.CreateBook(ctx, duneRequest())
	require.ErrorIs(t, err, errs.ErrConflict)

	books, err := svc.ListBooks(ctx)
	require.NoError(t, err)
	require.Len(t, books, 1)
}

func TestService_UpdateBook(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, d := newService(t)
	d.events.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	book, err := svc.CreateBook(ctx, duneRequest())
	require.NoError(t, err)

	_, err = svc.UpdateBook(ctx, book.ID, model.UpdateBookRequest{
		AvailableCopies: ptr(5),
		TotalCopies:     ptr(3),
	})
	var verr *errs.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "availableCopies", verr.Fields[0].Field)
	got, err := svc.GetBook(ctx, book.ID)
	require.NoError(t, err)
	require.Equal(t, book, got)

	d.categories.EXPECT().ValidateCategories(gomock.Any(), []int64{4}).Return(true, nil)
	upd, err := svc.UpdateBook(ctx, book.ID, model.UpdateBookRequest{
		Title:       ptr("Dune Messiah"),
		CategoryIDs: ptr([]int64{4}),
	})
	require.NoError(t, err)
	require.Equal(t, "Dune Messiah", upd.Title)
	require.Equal(t, book.Author, upd.Author)
	require.Equal(t, []int64{4}, upd.CategoryIDs)

	upd, err = svc.UpdateBook(ctx, book.ID, model.UpdateBookRequest{CategoryIDs: ptr([]int64{})})
	require.NoError(t, err)
	require.Equal(t, []int64{}, upd.CategoryIDs)

	_, err = svc.UpdateBook(ctx, 42, model.UpdateBookRequest{Title: ptr("x")})
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestService_DeleteBook(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, d := newService(t)
	d.events.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil).Times(2)

	book, err := svc.CreateBook(ctx, duneRequest())
	require.NoError(t, err)

	ok, err := svc.DeleteBook(ctx, book.ID)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = svc.DeleteBook(ctx, book.ID)
	require.NoError(t, err)
	require.False(t, ok)

	_, err = svc.GetBook(ctx, book.ID)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestService_Finders(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, d := newService(t)
	d.events.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	d.categories.EXPECT().ValidateCategories(gomock.Any(), gomock.Any()).Return(true, nil).AnyTimes()

	dune, err := svc.CreateBook(ctx, duneRequest())
	require.NoError(t, err)
	hobbit := duneRequest()
	hobbit.Title, hobbit.ISBN, hobbit.AvailableCopies = "The Hobbit", "9780547928227", 0
	hobbit.Status = model.StatusOutOfStock
	hobbit.CategoryIDs = []int64{7}
	h, err := svc.CreateBook(ctx, hobbit)
	require.NoError(t, err)

	ids := func(books []model.Book, err error) []int64 {
		require.NoError(t, err)
		out := make([]int64, 0, len(books))
		for _, b := range books {
			out = append(out, b.ID)
		}
		return out
	}
	require.Equal(t, []int64{dune.ID}, ids(svc.ListAvailable(ctx)))
	require.Equal(t, []int64{h.ID}, ids(svc.ListOutOfStock(ctx)))
	require.Equal(t, []int64{h.ID}, ids(svc.ListBorrowed(ctx)))
	require.Equal(t, []int64{h.ID}, ids(svc.ListByStatus(ctx, model.StatusOutOfStock)))
	require.Equal(t, []int64{h.ID}, ids(svc.ListByCategory(ctx, 7)))

	require.NoError(t, svc.AvailableCount(ctx, dune.ID, false))
	require.Equal(t, []int64{dune.ID, h.ID}, ids(svc.ListBorrowed(ctx)))
	require.ErrorIs(t, svc.AvailableCount(ctx, h.ID, false), errs.ErrNoCopiesAvailable)
}

func TestService_SearchNoFilters(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, d := newService(t)
	d.events.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	_, err := svc.CreateBook(ctx, duneRequest())
	require.NoError(t, err)

	all, err := svc.ListBooks(ctx)
	require.NoError(t, err)
	found, err := svc.Search(ctx, model.SearchFilter{})
	require.NoError(t, err)
	require.Equal(t, all, found)
}

func TestService_SearchInvertedRange(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, d := newService(t)
	d.events.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	_, err := svc.CreateBook(ctx, duneRequest())
	require.NoError(t, err)

	found, err := svc.Search(ctx, model.SearchFilter{YearRange: &model.YearRange{From: 2000, To: 1900}})
	require.NoError(t, err)
	require.Empty(t, found)

	found, err = svc.Search(ctx, model.SearchFilter{PriceRange: &model.PriceRange{
		Min: decimal.RequireFromString("20"),
		Max: decimal.RequireFromString("10"),
	}})
	require.NoError(t, err)
	require.Empty(t, found)
}

var (
	titles   = []string{"Dune", "Dune Messiah", "The Hobbit", "Emma", "Solaris"}
	authors  = []string{"Herbert", "Tolkien", "Austen", "Lem"}
	statuses = []model.Status{model.StatusAvailable, model.StatusOutOfStock, model.StatusDiscontinued}
)

func TestService_SearchIsIntersection(t *testing.T) {
	c := gomock.NewController(t)
	events := mock_service.NewMockEventPublisher(c)
	events.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	categories := mock_service.NewMockCategoryValidator(c)

	rapid.Check(t, func(rt *rapid.T) {
		ctx := context.Background()
		svc := service.NewService(repository.NewMemoryRepository(zap.NewNop()), categories, events, zap.NewNop())

		n := rapid.IntRange(0, 12).Draw(rt, "books")
		for i := 0; i < n; i++ {
			req := duneRequest()
			req.ISBN = fmt.Sprintf("%010d", i)
			req.Title = rapid.SampledFrom(titles).Draw(rt, "title")
			req.Author = rapid.SampledFrom(authors).Draw(rt, "author")
			req.PublishedYear = rapid.IntRange(1900, 2000).Draw(rt, "year")
			req.Price = decimal.New(int64(rapid.IntRange(1, 5000).Draw(rt, "cents")), -2)
			req.Status = rapid.SampledFrom(statuses).Draw(rt, "status")
			_, err := svc.CreateBook(ctx, req)
			require.NoError(rt, err)
		}

		var filter model.SearchFilter
		if rapid.Bool().Draw(rt, "byTitle") {
			filter.Title = ptr(rapid.SampledFrom([]string{"dune", "HOBBIT", "e", "x"}).Draw(rt, "titleText"))
		}
		if rapid.Bool().Draw(rt, "byAuthor") {
			filter.Author = ptr(rapid.SampledFrom([]string{"her", "LEM", "o"}).Draw(rt, "authorText"))
		}
		if rapid.Bool().Draw(rt, "byYear") {
			from := rapid.IntRange(1900, 2000).Draw(rt, "from")
			filter.YearRange = &model.YearRange{From: from, To: rapid.IntRange(from, 2000).Draw(rt, "to")}
		}
		if rapid.Bool().Draw(rt, "byPrice") {
			min := rapid.IntRange(1, 5000).Draw(rt, "min")
			max := rapid.IntRange(min, 5000).Draw(rt, "max")
			filter.PriceRange = &model.PriceRange{Min: decimal.New(int64(min), -2), Max: decimal.New(int64(max), -2)}
		}
		if rapid.Bool().Draw(rt, "byStatus") {
			filter.Status = ptr(rapid.SampledFrom(statuses).Draw(rt, "statusValue"))
		}

		all, err := svc.ListBooks(ctx)
		require.NoError(rt, err)
		want := make([]model.Book, 0)
		for _, b := range all {
			if matches(b, filter) {
				want = append(want, b)
			}
		}

		got, err := svc.Search(ctx, filter)
		require.NoError(rt, err)
		require.Equal(rt, want, got)
	})
}

func matches(b model.Book, f model.SearchFilter) bool {
	if f.Title != nil && !strings.Contains(strings.ToLower(b.Title), strings.ToLower(*f.Title)) {
		return false
	}
	if f.Author != nil && !strings.Contains(strings.ToLower(b.Author), strings.ToLower(*f.Author)) {
		return false
	}
	if f.YearRange != nil && (b.PublishedYear < f.YearRange.From || b.PublishedYear > f.YearRange.To) {
		return false
	}
	if f.PriceRange != nil && (b.Price.LessThan(f.PriceRange.Min) || b.Price.GreaterThan(f.PriceRange.Max)) {
		return false
	}
	if f.Status != nil && b.Status != *f.Status {
		return false
	}
	return true
}

func TestService_InventoryInvariant(t *testing.T) {
	c := gomock.NewController(t)
	events := mock_service.NewMockEventPublisher(c)
	events.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	categories := mock_service.NewMockCategoryValidator(c)

	rapid.Check(t, func(rt *rapid.T) {
		ctx := context.Background()
		svc := service.NewService(repository.NewMemoryRepository(zap.NewNop()), categories, events, zap.NewNop())

		req := duneRequest()
		req.TotalCopies = rapid.IntRange(0, 5).Draw(rt, "total")
		req.AvailableCopies = rapid.IntRange(0, req.TotalCopies).Draw(rt, "available")
		book, err := svc.CreateBook(ctx, req)
		require.NoError(rt, err)

		ops := rapid.SliceOfN(rapid.IntRange(0, 2), 1, 40).Draw(rt, "ops")
		for _, op := range ops {
			before, err := svc.GetBook(ctx, book.ID)
			require.NoError(rt, err)

			switch op {
			case 0:
				_, err = svc.BorrowBook(ctx, book.ID)
				if before.AvailableCopies == 0 {
					require.ErrorIs(rt, err, errs.ErrNoCopiesAvailable)
				} else {
					require.NoError(rt, err)
				}
			case 1:
				_, err = svc.ReturnBook(ctx, book.ID)
				if before.AvailableCopies == before.TotalCopies {
					require.ErrorIs(rt, err, errs.ErrFullyStocked)
				} else {
					require.NoError(rt, err)
				}
			case 2:
				total := rapid.IntRange(0, 6).Draw(rt, "newTotal")
				_, err = svc.UpdateBook(ctx, book.ID, model.UpdateBookRequest{TotalCopies: ptr(total)})
				if before.AvailableCopies > total {
					var verr *errs.ValidationError
					require.ErrorAs(rt, err, &verr)
				} else {
					require.NoError(rt, err)
				}
			}

			opErr := err
			after, err := svc.GetBook(ctx, book.ID)
			require.NoError(rt, err)
			if opErr != nil {
				require.Equal(rt, before, after)
			}
			require.LessOrEqual(rt, after.AvailableCopies, after.TotalCopies)
		}
	})
}

package service

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Astemirdum/book-service/book/internal/errs"
	"github.com/Astemirdum/book-service/book/internal/model"
	bookRepo "github.com/Astemirdum/book-service/book/internal/repository"
)

const tracerName = "github.com/Astemirdum/book-service/book/internal/service"

type Service struct {
	log        *zap.Logger
	repo       bookRepo.Repository
	categories CategoryValidator
	events     EventPublisher
	tracer     trace.Tracer
}

func NewService(repo bookRepo.Repository, categories CategoryValidator, events EventPublisher, log *zap.Logger) *Service {
	return &Service{
		log:        log.Named("service"),
		repo:       repo,
		categories: categories,
		events:     events,
		tracer:     otel.Tracer(tracerName),
	}
}

func (s *Service) start(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "BookService."+op, trace.WithAttributes(attrs...))
}

func finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (s *Service) ListBooks(ctx context.Context) (books []model.Book, err error) {
	ctx, span := s.start(ctx, "ListBooks")
	defer func() { finish(span, err) }()
	return s.repo.ListBooks(ctx)
}

func (s *Service) GetBook(ctx context.Context, id int64) (book model.Book, err error) {
	ctx, span := s.start(ctx, "GetBook", attribute.Int64("book.id", id))
	defer func() { finish(span, err) }()
	return s.repo.GetBook(ctx, id)
}

func (s *Service) ListAvailable(ctx context.Context) (books []model.Book, err error) {
	ctx, span := s.start(ctx, "ListAvailable")
	defer func() { finish(span, err) }()
	return s.repo.ByAvailableGreaterThan(ctx, 0)
}

func (s *Service) ListOutOfStock(ctx context.Context) (books []model.Book, err error) {
	ctx, span := s.start(ctx, "ListOutOfStock")
	defer func() { finish(span, err) }()
	return s.repo.OutOfStock(ctx)
}

func (s *Service) ListBorrowed(ctx context.Context) (books []model.Book, err error) {
	ctx, span := s.start(ctx, "ListBorrowed")
	defer func() { finish(span, err) }()
	return s.repo.WithBorrowedCopies(ctx)
}

func (s *Service) ListByStatus(ctx context.Context, status model.Status) (books []model.Book, err error) {
	ctx, span := s.start(ctx, "ListByStatus", attribute.String("book.status", string(status)))
	defer func() { finish(span, err) }()
	return s.repo.ByStatus(ctx, status)
}

func (s *Service) ListByCategory(ctx context.Context, categoryID int64) (books []model.Book, err error) {
	ctx, span := s.start(ctx, "ListByCategory", attribute.Int64("category.id", categoryID))
	defer func() { finish(span, err) }()
	return s.repo.ByCategory(ctx, categoryID)
}

// Search returns the books of ListBooks that match every filter present.
// Each filter is resolved by its own store query; results keep ListBooks order.
func (s *Service) Search(ctx context.Context, filter model.SearchFilter) (books []model.Book, err error) {
	ctx, span := s.start(ctx, "Search")
	defer func() { finish(span, err) }()

	all, err := s.repo.ListBooks(ctx)
	if err != nil {
		return nil, err
	}
	if filter.Empty() {
		return all, nil
	}

	var finders []func(ctx context.Context) ([]model.Book, error)
	if filter.Title != nil {
		title := *filter.Title
		finders = append(finders, func(ctx context.Context) ([]model.Book, error) { return s.repo.ByTitle(ctx, title) })
	}
	if filter.Author != nil {
		author := *filter.Author
		finders = append(finders, func(ctx context.Context) ([]model.Book, error) { return s.repo.ByAuthor(ctx, author) })
	}
	if filter.PriceRange != nil {
		pr := *filter.PriceRange
		finders = append(finders, func(ctx context.Context) ([]model.Book, error) { return s.repo.ByPriceRange(ctx, pr.Min, pr.Max) })
	}
	if filter.YearRange != nil {
		yr := *filter.YearRange
		finders = append(finders, func(ctx context.Context) ([]model.Book, error) { return s.repo.ByYearRange(ctx, yr.From, yr.To) })
	}
	if filter.Status != nil {
		status := *filter.Status
		finders = append(finders, func(ctx context.Context) ([]model.Book, error) { return s.repo.ByStatus(ctx, status) })
	}
	span.SetAttributes(attribute.Int("search.filters", len(finders)))

	matches := make([]map[int64]struct{}, len(finders))
	eg, egCtx := errgroup.WithContext(ctx)
	for i, find := range finders {
		i, find := i, find
		eg.Go(func() error {
			found, err := find(egCtx)
			if err != nil {
				return err
			}
			set := make(map[int64]struct{}, len(found))
			for _, b := range found {
				set[b.ID] = struct{}{}
			}
			matches[i] = set
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, errors.Wrap(err, "search")
	}

	return intersect(all, matches), nil
}

func intersect(books []model.Book, sets []map[int64]struct{}) []model.Book {
	out := make([]model.Book, 0, len(books))
next:
	for _, b := range books {
		for _, set := range sets {
			if _, ok := set[b.ID]; !ok {
				continue next
			}
		}
		out = append(out, b)
	}
	return out
}

func (s *Service) CreateBook(ctx context.Context, req model.CreateBookRequest) (book model.Book, err error) {
	ctx, span := s.start(ctx, "CreateBook", attribute.String("book.isbn", req.ISBN))
	defer func() { finish(span, err) }()

	exists, err := s.repo.ExistsByISBN(ctx, req.ISBN)
	if err != nil {
		return model.Book{}, err
	}
	if exists {
		return model.Book{}, errs.ErrConflict
	}
	if err := s.validateCategories(ctx, req.CategoryIDs); err != nil {
		return model.Book{}, err
	}

	candidate := req.NewBook()
	if candidate.AvailableCopies > candidate.TotalCopies {
		return model.Book{}, errs.ErrCopiesInvariant(candidate.AvailableCopies, candidate.TotalCopies)
	}
	book, err = s.repo.CreateBook(ctx, candidate)
	if err != nil {
		return model.Book{}, err
	}
	s.publish(ctx, model.EventBookCreated, book)
	return book, nil
}

func (s *Service) UpdateBook(ctx context.Context, id int64, req model.UpdateBookRequest) (book model.Book, err error) {
	ctx, span := s.start(ctx, "UpdateBook", attribute.Int64("book.id", id))
	defer func() { finish(span, err) }()

	stored, err := s.repo.GetBook(ctx, id)
	if err != nil {
		return model.Book{}, err
	}
	if req.CategoryIDs != nil {
		if err := s.validateCategories(ctx, *req.CategoryIDs); err != nil {
			return model.Book{}, err
		}
	}

	merged := req.Apply(stored)
	if merged.AvailableCopies > merged.TotalCopies {
		return model.Book{}, errs.ErrCopiesInvariant(merged.AvailableCopies, merged.TotalCopies)
	}
	book, err = s.repo.UpdateBook(ctx, merged)
	if err != nil {
		return model.Book{}, err
	}
	s.publish(ctx, model.EventBookUpdated, book)
	return book, nil
}

func (s *Service) BorrowBook(ctx context.Context, id int64) (book model.Book, err error) {
	ctx, span := s.start(ctx, "BorrowBook", attribute.Int64("book.id", id))
	defer func() { finish(span, err) }()

	book, err = s.adjust(ctx, id, -1, errs.ErrNoCopiesAvailable)
	if err != nil {
		return model.Book{}, err
	}
	s.publish(ctx, model.EventBookBorrowed, book)
	return book, nil
}

func (s *Service) ReturnBook(ctx context.Context, id int64) (book model.Book, err error) {
	ctx, span := s.start(ctx, "ReturnBook", attribute.Int64("book.id", id))
	defer func() { finish(span, err) }()

	book, err = s.adjust(ctx, id, 1, errs.ErrFullyStocked)
	if err != nil {
		return model.Book{}, err
	}
	s.publish(ctx, model.EventBookReturned, book)
	return book, nil
}

// adjust applies the guarded copy change. A miss on an existing book is a state error.
func (s *Service) adjust(ctx context.Context, id int64, delta int, guard error) (model.Book, error) {
	book, err := s.repo.AvailableCount(ctx, id, delta)
	if err == nil {
		return book, nil
	}
	if !errors.Is(err, errs.ErrNotFound) {
		return model.Book{}, err
	}
	exists, existsErr := s.repo.ExistsByID(ctx, id)
	if existsErr != nil {
		return model.Book{}, existsErr
	}
	if exists {
		return model.Book{}, guard
	}
	return model.Book{}, errs.ErrNotFound
}

// AvailableCount handles an inventory command from the queue.
func (s *Service) AvailableCount(ctx context.Context, id int64, isReturn bool) error {
	var err error
	if isReturn {
		_, err = s.ReturnBook(ctx, id)
	} else {
		_, err = s.BorrowBook(ctx, id)
	}
	return err
}

// DeleteBook reports whether a book was removed.
func (s *Service) DeleteBook(ctx context.Context, id int64) (deleted bool, err error) {
	ctx, span := s.start(ctx, "DeleteBook", attribute.Int64("book.id", id))
	defer func() { finish(span, err) }()

	if err := s.repo.DeleteBook(ctx, id); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	s.publish(ctx, model.EventBookDeleted, model.Book{ID: id})
	return true, nil
}

func (s *Service) validateCategories(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	ok, err := s.categories.ValidateCategories(ctx, model.CategorySet(ids))
	if err != nil {
		s.log.Warn("validate categories", zap.Int64s("ids", ids), zap.Error(err))
		return errs.ErrCategoryUnavailable
	}
	if !ok {
		return errs.ErrInvalidCategory
	}
	return nil
}

func (s *Service) publish(ctx context.Context, typ model.EventType, book model.Book) {
	event := model.BookEvent{
		Type:            typ,
		BookID:          book.ID,
		ISBN:            book.ISBN,
		TotalCopies:     book.TotalCopies,
		AvailableCopies: book.AvailableCopies,
		OccurredAt:      time.Now().UTC(),
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.log.Warn("publish event",
			zap.String("type", string(typ)),
			zap.Int64("bookId", book.ID),
			zap.Error(err))
	}
}

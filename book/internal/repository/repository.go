package repository

import (
	"context"
	"database/sql"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Astemirdum/book-service/book/internal/errs"
	"github.com/Astemirdum/book-service/book/internal/model"
)

// Repository is the book store. Reads return books ordered by id.
type Repository interface {
	ListBooks(ctx context.Context) ([]model.Book, error)
	GetBook(ctx context.Context, id int64) (model.Book, error)
	ExistsByID(ctx context.Context, id int64) (bool, error)
	ExistsByISBN(ctx context.Context, isbn string) (bool, error)
	CreateBook(ctx context.Context, book model.Book) (model.Book, error)
	UpdateBook(ctx context.Context, book model.Book) (model.Book, error)
	DeleteBook(ctx context.Context, id int64) error
	// AvailableCount moves available copies by delta only while the result stays
	// within [0, total copies]; otherwise it returns errs.ErrNotFound.
	AvailableCount(ctx context.Context, id int64, delta int) (model.Book, error)

	ByTitle(ctx context.Context, text string) ([]model.Book, error)
	ByAuthor(ctx context.Context, text string) ([]model.Book, error)
	ByStatus(ctx context.Context, status model.Status) ([]model.Book, error)
	ByAvailableGreaterThan(ctx context.Context, n int) ([]model.Book, error)
	ByYearRange(ctx context.Context, from, to int) ([]model.Book, error)
	ByPriceRange(ctx context.Context, min, max decimal.Decimal) ([]model.Book, error)
	ByCategory(ctx context.Context, categoryID int64) ([]model.Book, error)
	OutOfStock(ctx context.Context) ([]model.Book, error)
	WithBorrowedCopies(ctx context.Context) ([]model.Book, error)
}

type repository struct {
	db  *sqlx.DB
	log *zap.Logger
}

var _ Repository = (*repository)(nil)

func NewRepository(db *sqlx.DB, log *zap.Logger) (*repository, error) {
	return &repository{
		db:  db,
		log: log.Named("repo"),
	}, nil
}

const (
	booksTableName          = `books`
	bookCategoriesTableName = `book_categories`
)

var (
	qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	bookColumns = []string{
		"id", "title", "author", "isbn", "published_year", "description",
		"total_copies", "available_copies", "price", "status",
	}
)

func (r *repository) ListBooks(ctx context.Context) ([]model.Book, error) {
	return r.selectBooks(ctx, nil)
}

func (r *repository) GetBook(ctx context.Context, id int64) (model.Book, error) {
	query, args, err := qb.Select(bookColumns...).
		From(booksTableName).
		Where(sq.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Book{}, err
	}

	var book model.Book
	if err := r.db.GetContext(ctx, &book, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Book{}, errs.ErrNotFound
		}
		r.log.Error("GetBook", zap.String("q", query), zap.Any("args", args), zap.Error(err))
		return model.Book{}, err
	}
	books := []model.Book{book}
	if err := r.loadCategories(ctx, books); err != nil {
		return model.Book{}, err
	}
	return books[0], nil
}

func (r *repository) ExistsByID(ctx context.Context, id int64) (bool, error) {
	return r.exists(ctx, sq.Eq{"id": id})
}

func (r *repository) ExistsByISBN(ctx context.Context, isbn string) (bool, error) {
	return r.exists(ctx, sq.Eq{"isbn": isbn})
}

func (r *repository) exists(ctx context.Context, pred sq.Sqlizer) (bool, error) {
	query, args, err := qb.Select("1").
		Prefix("SELECT EXISTS (").
		From(booksTableName).
		Where(pred).
		Suffix(")").
		ToSql()
	if err != nil {
		return false, err
	}
	var ok bool
	if err := r.db.GetContext(ctx, &ok, query, args...); err != nil {
		return false, errors.Wrap(err, "exists")
	}
	return ok, nil
}

func (r *repository) CreateBook(ctx context.Context, book model.Book) (model.Book, error) {
	query, args, err := qb.Insert(booksTableName).
		Columns(bookColumns[1:]...).
		Values(book.Title, book.Author, book.ISBN, book.PublishedYear, book.Description,
			book.TotalCopies, book.AvailableCopies, book.Price, book.Status).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return model.Book{}, err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return model.Book{}, errors.Wrap(err, "begin")
	}
	defer func() { _ = tx.Rollback() }()

	if err := tx.QueryRowxContext(ctx, query, args...).Scan(&book.ID); err != nil {
		if isUniqueViolation(err) {
			return model.Book{}, errs.ErrConflict
		}
		r.log.Error("CreateBook", zap.String("q", query), zap.Any("args", args), zap.Error(err))
		return model.Book{}, err
	}
	if err := insertCategories(ctx, tx, book.ID, book.CategoryIDs); err != nil {
		return model.Book{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Book{}, errors.Wrap(err, "commit")
	}
	book.CategoryIDs = model.CategorySet(book.CategoryIDs)
	return book, nil
}

// UpdateBook replaces every stored field of the book with the given id.
func (r *repository) UpdateBook(ctx context.Context, book model.Book) (model.Book, error) {
	query, args, err := qb.Update(booksTableName).
		SetMap(map[string]interface{}{
			"title":            book.Title,
			"author":           book.Author,
			"published_year":   book.PublishedYear,
			"description":      book.Description,
			"total_copies":     book.TotalCopies,
			"available_copies": book.AvailableCopies,
			"price":            book.Price,
			"status":           book.Status,
		}).
		Where(sq.Eq{"id": book.ID}).
		ToSql()
	if err != nil {
		return model.Book{}, err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return model.Book{}, errors.Wrap(err, "begin")
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		if isCheckViolation(err) {
			return model.Book{}, errs.ErrCopiesInvariant(book.AvailableCopies, book.TotalCopies)
		}
		r.log.Error("UpdateBook", zap.String("q", query), zap.Any("args", args), zap.Error(err))
		return model.Book{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return model.Book{}, errs.ErrNotFound
	}

	delQuery, delArgs, err := qb.Delete(bookCategoriesTableName).Where(sq.Eq{"book_id": book.ID}).ToSql()
	if err != nil {
		return model.Book{}, err
	}
	if _, err := tx.ExecContext(ctx, delQuery, delArgs...); err != nil {
		return model.Book{}, errors.Wrap(err, "delete categories")
	}
	if err := insertCategories(ctx, tx, book.ID, book.CategoryIDs); err != nil {
		return model.Book{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Book{}, errors.Wrap(err, "commit")
	}
	book.CategoryIDs = model.CategorySet(book.CategoryIDs)
	return book, nil
}

func (r *repository) DeleteBook(ctx context.Context, id int64) error {
	query, args, err := qb.Delete(booksTableName).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return errors.Wrap(err, "delete book")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (r *repository) AvailableCount(ctx context.Context, id int64, delta int) (model.Book, error) {
	query, args, err := qb.Update(booksTableName).
		Set("available_copies", sq.Expr("available_copies + ?", delta)).
		Where(sq.Eq{"id": id}).
		Where(sq.Expr("available_copies + ? BETWEEN 0 AND total_copies", delta)).
		Suffix("RETURNING " + strings.Join(bookColumns, ", ")).
		ToSql()
	if err != nil {
		return model.Book{}, err
	}

	var book model.Book
	if err := r.db.GetContext(ctx, &book, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Book{}, errs.ErrNotFound
		}
		r.log.Error("AvailableCount", zap.String("q", query), zap.Any("args", args), zap.Error(err))
		return model.Book{}, err
	}
	books := []model.Book{book}
	if err := r.loadCategories(ctx, books); err != nil {
		return model.Book{}, err
	}
	return books[0], nil
}

func (r *repository) ByTitle(ctx context.Context, text string) ([]model.Book, error) {
	return r.selectBooks(ctx, sq.ILike{"title": containsPattern(text)})
}

func (r *repository) ByAuthor(ctx context.Context, text string) ([]model.Book, error) {
	return r.selectBooks(ctx, sq.ILike{"author": containsPattern(text)})
}

func (r *repository) ByStatus(ctx context.Context, status model.Status) ([]model.Book, error) {
	return r.selectBooks(ctx, sq.Eq{"status": status})
}

func (r *repository) ByAvailableGreaterThan(ctx context.Context, n int) ([]model.Book, error) {
	return r.selectBooks(ctx, sq.Gt{"available_copies": n})
}

func (r *repository) ByYearRange(ctx context.Context, from, to int) ([]model.Book, error) {
	return r.selectBooks(ctx, sq.And{
		sq.GtOrEq{"published_year": from},
		sq.LtOrEq{"published_year": to},
	})
}

func (r *repository) ByPriceRange(ctx context.Context, min, max decimal.Decimal) ([]model.Book, error) {
	return r.selectBooks(ctx, sq.And{
		sq.GtOrEq{"price": min},
		sq.LtOrEq{"price": max},
	})
}

func (r *repository) ByCategory(ctx context.Context, categoryID int64) ([]model.Book, error) {
	return r.selectBooks(ctx, categoryMember(categoryID))
}

func (r *repository) OutOfStock(ctx context.Context) ([]model.Book, error) {
	return r.selectBooks(ctx, sq.Eq{"available_copies": 0})
}

func (r *repository) WithBorrowedCopies(ctx context.Context) ([]model.Book, error) {
	return r.selectBooks(ctx, sq.Expr("total_copies > available_copies"))
}

func selectBooksQuery(pred sq.Sqlizer) sq.SelectBuilder {
	q := qb.Select(bookColumns...).From(booksTableName)
	if pred != nil {
		q = q.Where(pred)
	}
	return q.OrderBy("id")
}

func categoryMember(categoryID int64) sq.Sqlizer {
	return sq.Expr("EXISTS (SELECT 1 FROM "+bookCategoriesTableName+
		" bc WHERE bc.book_id = "+booksTableName+".id AND bc.category_id = ?)", categoryID)
}

func (r *repository) selectBooks(ctx context.Context, pred sq.Sqlizer) ([]model.Book, error) {
	query, args, err := selectBooksQuery(pred).ToSql()
	if err != nil {
		return nil, err
	}
	r.log.Debug("selectBooks", zap.String("query", query), zap.Any("args", args))

	books := make([]model.Book, 0)
	if err := r.db.SelectContext(ctx, &books, query, args...); err != nil {
		return nil, errors.Wrap(err, "select books")
	}
	if err := r.loadCategories(ctx, books); err != nil {
		return nil, err
	}
	return books, nil
}

func (r *repository) loadCategories(ctx context.Context, books []model.Book) error {
	if len(books) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(books))
	idx := make(map[int64]int, len(books))
	for i := range books {
		books[i].CategoryIDs = []int64{}
		ids = append(ids, books[i].ID)
		idx[books[i].ID] = i
	}

	query, args, err := categoriesQuery(ids).ToSql()
	if err != nil {
		return err
	}
	var rows []struct {
		BookID     int64 `db:"book_id"`
		CategoryID int64 `db:"category_id"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return errors.Wrap(err, "select categories")
	}
	for _, row := range rows {
		i := idx[row.BookID]
		books[i].CategoryIDs = append(books[i].CategoryIDs, row.CategoryID)
	}
	return nil
}

// categoriesQuery binds ids as one array parameter.
func categoriesQuery(bookIDs []int64) sq.SelectBuilder {
	return qb.Select("book_id", "category_id").
		From(bookCategoriesTableName).
		Where(sq.Expr("book_id = ANY(?)", bookIDs)).
		OrderBy("book_id", "category_id")
}

func insertCategories(ctx context.Context, tx *sqlx.Tx, bookID int64, categoryIDs []int64) error {
	set := model.CategorySet(categoryIDs)
	if len(set) == 0 {
		return nil
	}
	q := qb.Insert(bookCategoriesTableName).Columns("book_id", "category_id")
	for _, id := range set {
		q = q.Values(bookID, id)
	}
	query, args, err := q.ToSql()
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(err, "insert categories")
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func containsPattern(text string) string {
	return "%" + likeEscaper.Replace(text) + "%"
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

func isCheckViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.CheckViolation
}

package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"

	"github.com/Astemirdum/book-service/book/internal/errs"
	"github.com/Astemirdum/book-service/book/internal/model"
	"github.com/Astemirdum/book-service/pkg/auth"
	md "github.com/Astemirdum/book-service/pkg/middleware"
	"github.com/Astemirdum/book-service/pkg/serializer"
	"github.com/Astemirdum/book-service/pkg/validate"
	_ "github.com/Astemirdum/book-service/swagger"
)

type Handler struct {
	bookSvc BookService
	log     *zap.Logger
}

func New(bookSvc BookService, log *zap.Logger) *Handler {
	return &Handler{
		bookSvc: bookSvc,
		log:     log.Named("handler"),
	}
}

func (h *Handler) NewRouter() *echo.Echo {
	e := echo.New()
	const (
		baseRPS = 10
		apiRPS  = 100
	)
	e.HideBanner = true
	e.JSONSerializer = serializer.New()
	e.Validator = validate.NewCustomValidator()

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10, // 4 KB
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodOptions, http.MethodHead, http.MethodPut, http.MethodPost, http.MethodDelete},
		AllowCredentials: true,
	}))

	base := e.Group("", md.NewRateLimiter(baseRPS))
	base.GET("/manage/health", h.Health)
	base.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api/v1",
		middleware.RequestLoggerWithConfig(md.RequestLoggerConfig(h.log)),
		middleware.RequestID(),
		md.NewRateLimiter(apiRPS),
	)
	h.register(api)

	return e
}

func (h *Handler) register(api *echo.Group) {
	api.GET("/books", h.ListBooks)
	api.GET("/books/available", h.ListAvailable)
	api.GET("/books/out-of-stock", h.ListOutOfStock)
	api.GET("/books/borrowed", h.ListBorrowed)
	api.GET("/books/search", h.Search)
	api.GET("/books/status/:status", h.ListByStatus)
	api.GET("/books/category/:categoryId", h.ListByCategory)
	api.GET("/books/:id", h.GetBook)

	// per route: a middleware group would catch unknown /api/v1 paths as well
	admin := []echo.MiddlewareFunc{md.AuthContext, md.AdminOnly}
	api.POST("/books", h.CreateBook, admin...)
	api.PUT("/books/:id", h.UpdateBook, admin...)
	api.POST("/books/:id/borrow", h.BorrowBook, admin...)
	api.POST("/books/:id/return", h.ReturnBook, admin...)
	api.DELETE("/books/:id", h.DeleteBook, admin...)
}

func (h *Handler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

// ListBooks godoc
// @Summary List all books
// @Tags books
// @Produce json
// @Success 200 {array} model.Book
// @Router /api/v1/books [get]
func (h *Handler) ListBooks(c echo.Context) error {
	books, err := h.bookSvc.ListBooks(c.Request().Context())
	if err != nil {
		return h.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, books)
}

// GetBook godoc
// @Summary Get a book by id
// @Tags books
// @Produce json
// @Param id path int true "book id"
// @Success 200 {object} model.Book
// @Failure 404 {object} echo.HTTPError
// @Router /api/v1/books/{id} [get]
func (h *Handler) GetBook(c echo.Context) error {
	id, err := bookID(c)
	if err != nil {
		return err
	}
	book, err := h.bookSvc.GetBook(c.Request().Context(), id)
	if err != nil {
		return h.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, book)
}

func (h *Handler) ListAvailable(c echo.Context) error {
	books, err := h.bookSvc.ListAvailable(c.Request().Context())
	if err != nil {
		return h.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, books)
}

func (h *Handler) ListOutOfStock(c echo.Context) error {
	books, err := h.bookSvc.ListOutOfStock(c.Request().Context())
	if err != nil {
		return h.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, books)
}

func (h *Handler) ListBorrowed(c echo.Context) error {
	books, err := h.bookSvc.ListBorrowed(c.Request().Context())
	if err != nil {
		return h.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, books)
}

func (h *Handler) ListByStatus(c echo.Context) error {
	status := model.Status(c.Param("status"))
	if !status.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "status is invalid")
	}
	books, err := h.bookSvc.ListByStatus(c.Request().Context(), status)
	if err != nil {
		return h.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, books)
}

func (h *Handler) ListByCategory(c echo.Context) error {
	categoryID, err := strconv.ParseInt(c.Param("categoryId"), 10, 64)
	if err != nil || categoryID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "categoryId is invalid")
	}
	books, err := h.bookSvc.ListByCategory(c.Request().Context(), categoryID)
	if err != nil {
		return h.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, books)
}

// Search godoc
// @Summary Search books; every given filter must match
// @Tags books
// @Produce json
// @Param title query string false "title contains"
// @Param author query string false "author contains"
// @Param minPrice query number false "min price, ignored without maxPrice"
// @Param maxPrice query number false "max price, ignored without minPrice"
// @Param yearFrom query int false "from year, ignored without yearTo"
// @Param yearTo query int false "to year, ignored without yearFrom"
// @Param status query string false "status"
// @Success 200 {array} model.Book
// @Failure 400 {object} echo.HTTPError
// @Router /api/v1/books/search [get]
func (h *Handler) Search(c echo.Context) error {
	filter, err := parseSearchFilter(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	books, err := h.bookSvc.Search(c.Request().Context(), filter)
	if err != nil {
		return h.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, books)
}

func parseSearchFilter(c echo.Context) (model.SearchFilter, error) {
	var filter model.SearchFilter
	if title := c.QueryParam("title"); title != "" {
		filter.Title = &title
	}
	if author := c.QueryParam("author"); author != "" {
		filter.Author = &author
	}
	if s := c.QueryParam("status"); s != "" {
		status := model.Status(s)
		if !status.Valid() {
			return filter, errors.New("status is invalid")
		}
		filter.Status = &status
	}

	// a range applies only when both bounds are given; an inverted range matches nothing
	if minPrice, maxPrice := c.QueryParam("minPrice"), c.QueryParam("maxPrice"); minPrice != "" && maxPrice != "" {
		lo, err := decimal.NewFromString(minPrice)
		if err != nil {
			return filter, errors.New("minPrice is invalid")
		}
		hi, err := decimal.NewFromString(maxPrice)
		if err != nil {
			return filter, errors.New("maxPrice is invalid")
		}
		filter.PriceRange = &model.PriceRange{Min: lo, Max: hi}
	}

	if yearFrom, yearTo := c.QueryParam("yearFrom"), c.QueryParam("yearTo"); yearFrom != "" && yearTo != "" {
		from, err := strconv.Atoi(yearFrom)
		if err != nil {
			return filter, errors.New("yearFrom is invalid")
		}
		to, err := strconv.Atoi(yearTo)
		if err != nil {
			return filter, errors.New("yearTo is invalid")
		}
		filter.YearRange = &model.YearRange{From: from, To: to}
	}
	return filter, nil
}

// CreateBook godoc
// @Summary Create a book
// @Tags books
// @Accept json
// @Produce json
// @Param X-User-Name header string true "user name"
// @Param X-User-Role header string true "ADMIN"
// @Param book body model.CreateBookRequest true "book"
// @Success 201 {object} model.Book
// @Failure 400 {object} errs.ValidationErrorResponse
// @Router /api/v1/books [post]
func (h *Handler) CreateBook(c echo.Context) error {
	var req model.CreateBookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return h.errorResponse(c, validationError(err))
	}
	book, err := h.bookSvc.CreateBook(c.Request().Context(), req)
	if err != nil {
		return h.errorResponse(c, err)
	}
	h.audit(c, "create", book.ID)
	return c.JSON(http.StatusCreated, book)
}

// UpdateBook godoc
// @Summary Partially update a book
// @Tags books
// @Accept json
// @Produce json
// @Param id path int true "book id"
// @Param book body model.UpdateBookRequest true "fields to change"
// @Success 200 {object} model.Book
// @Failure 400 {object} errs.ValidationErrorResponse
// @Failure 404 {object} echo.HTTPError
// @Router /api/v1/books/{id} [put]
func (h *Handler) UpdateBook(c echo.Context) error {
	id, err := bookID(c)
	if err != nil {
		return err
	}
	var req model.UpdateBookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return h.errorResponse(c, validationError(err))
	}
	book, err := h.bookSvc.UpdateBook(c.Request().Context(), id, req)
	if err != nil {
		return h.errorResponse(c, err)
	}
	h.audit(c, "update", id)
	return c.JSON(http.StatusOK, book)
}

func (h *Handler) BorrowBook(c echo.Context) error {
	id, err := bookID(c)
	if err != nil {
		return err
	}
	book, err := h.bookSvc.BorrowBook(c.Request().Context(), id)
	if err != nil {
		return h.errorResponse(c, err)
	}
	h.audit(c, "borrow", id)
	return c.JSON(http.StatusOK, book)
}

func (h *Handler) ReturnBook(c echo.Context) error {
	id, err := bookID(c)
	if err != nil {
		return err
	}
	book, err := h.bookSvc.ReturnBook(c.Request().Context(), id)
	if err != nil {
		return h.errorResponse(c, err)
	}
	h.audit(c, "return", id)
	return c.JSON(http.StatusOK, book)
}

func (h *Handler) DeleteBook(c echo.Context) error {
	id, err := bookID(c)
	if err != nil {
		return err
	}
	deleted, err := h.bookSvc.DeleteBook(c.Request().Context(), id)
	if err != nil {
		return h.errorResponse(c, err)
	}
	if !deleted {
		return echo.NewHTTPError(http.StatusNotFound, errs.ErrNotFound.Error())
	}
	h.audit(c, "delete", id)
	return c.NoContent(http.StatusNoContent)
}

// audit records which user changed a book.
func (h *Handler) audit(c echo.Context, action string, id int64) {
	userName, err := auth.GetUserName(c.Request().Context())
	if err != nil {
		h.log.Warn("audit", zap.String("action", action), zap.Int64("bookId", id), zap.Error(err))
		return
	}
	h.log.Info("book changed",
		zap.String("action", action),
		zap.Int64("bookId", id),
		zap.String("user", userName))
}

func bookID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "id is invalid")
	}
	return id, nil
}

func validationError(err error) error {
	var verrs validate.Errors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make([]errs.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, errs.FieldError{Field: fe.Field, Message: fe.Message})
	}
	return errs.NewValidationError(fields...)
}

func (h *Handler) errorResponse(c echo.Context, err error) error {
	var verr *errs.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.JSON(http.StatusBadRequest, errs.ValidationErrorResponse{
			Message: "validation failed",
			Errors:  verr.Fields,
		})
	case errors.Is(err, errs.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, errs.ErrConflict),
		errors.Is(err, errs.ErrInvalidCategory),
		errors.Is(err, errs.ErrCategoryUnavailable),
		errs.IsStateError(err):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	h.log.Error("internal", zap.String("path", c.Path()), zap.Error(err))
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

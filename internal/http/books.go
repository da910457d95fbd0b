package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openshelf/openshelf/internal/auth"
	"github.com/openshelf/openshelf/internal/database/books"
	"github.com/openshelf/openshelf/internal/entities"
)

type BooksController struct {
	repo *books.Repository
}

func NewBooksController(repo *books.Repository) *BooksController {
	return &BooksController{repo: repo}
}

// GetAll returns the catalog, optionally filtered by category or search query.
// GET /api/books?category_id=N&q=term
func (bc *BooksController) GetAll(c *gin.Context) {
	if q := c.Query("q"); q != "" {
		results, err := bc.repo.Search(q)
		if err != nil {
			respondInternalError(c, err, "search books")
			return
		}
		c.JSON(http.StatusOK, results)
		return
	}

	if c.Query("category_id") != "" {
		categoryID, ok := parseQueryID(c, "category_id")
		if !ok {
			return
		}
		results, err := bc.repo.GetByCategory(categoryID)
		if err != nil {
			respondInternalError(c, err, "get books by category")
			return
		}
		c.JSON(http.StatusOK, results)
		return
	}

	all, err := bc.repo.GetAll()
	if err != nil {
		respondInternalError(c, err, "get all books")
		return
	}
	c.JSON(http.StatusOK, all)
}

// Search looks up books by title or author, case-insensitively.
// GET /api/books/search?q=term
func (bc *BooksController) Search(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		respondBadRequest(c, "q query parameter is required")
		return
	}

	results, err := bc.repo.Search(q)
	if err != nil {
		respondInternalError(c, err, "search books")
		return
	}
	c.JSON(http.StatusOK, results)
}

// Get returns a single book.
// GET /api/books/:id
func (bc *BooksController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := bc.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, books.ErrBookNotFound) {
			respondNotFound(c, "book")
			return
		}
		respondInternalError(c, err, "get book")
		return
	}
	c.JSON(http.StatusOK, book)
}

type createBookRequest struct {
	Title       string `json:"title" binding:"required"`
	Author      string `json:"author" binding:"required"`
	ISBN        string `json:"isbn" binding:"required"`
	CategoryID  uint   `json:"category_id" binding:"required"`
	TotalCopies int    `json:"total_copies"`
}

// Create adds a book to the catalog. The registering librarian becomes
// the book's owner.
// POST /api/books
func (bc *BooksController) Create(c *gin.Context) {
	var req createBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "title, author, isbn and category_id are required")
		return
	}

	book := &entities.Book{
		Title:       req.Title,
		Author:      req.Author,
		ISBN:        req.ISBN,
		CategoryID:  req.CategoryID,
		TotalCopies: req.TotalCopies,
		LibrarianID: auth.GetAccountID(c),
	}

	created, err := bc.repo.Create(book)
	if err != nil {
		if errors.Is(err, books.ErrISBNExists) {
			respondConflict(c, "book with this ISBN already exists")
			return
		}
		respondInternalError(c, err, "create book")
		return
	}
	respondCreated(c, created)
}

type updateBookRequest struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	CategoryID  uint   `json:"category_id"`
	TotalCopies int    `json:"total_copies"`
}

// Update modifies catalog fields of a book.
// PUT /api/books/:id
func (bc *BooksController) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req updateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	book, err := bc.repo.Update(id, req.Title, req.Author, req.CategoryID, req.TotalCopies)
	if err != nil {
		switch {
		case errors.Is(err, books.ErrBookNotFound):
			respondNotFound(c, "book")
		case errors.Is(err, books.ErrInvalidCopyCount):
			respondBadRequest(c, "total copies cannot drop below the number currently on loan")
		default:
			respondInternalError(c, err, "update book")
		}
		return
	}
	c.JSON(http.StatusOK, book)
}

// Delete removes a book from the catalog.
// DELETE /api/books/:id
func (bc *BooksController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := bc.repo.Delete(id); err != nil {
		switch {
		case errors.Is(err, books.ErrBookNotFound):
			respondNotFound(c, "book")
		case errors.Is(err, books.ErrBookHasOpenLoans):
			respondConflict(c, "book has open loans")
		default:
			respondInternalError(c, err, "delete book")
		}
		return
	}
	respondSuccess(c, "book deleted")
}

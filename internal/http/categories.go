package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openshelf/openshelf/internal/database/categories"
)

type CategoriesController struct {
	repo *categories.Repository
}

func NewCategoriesController(repo *categories.Repository) *CategoriesController {
	return &CategoriesController{repo: repo}
}

// GetAll returns all categories.
// GET /api/categories
func (cc *CategoriesController) GetAll(c *gin.Context) {
	all, err := cc.repo.GetAll()
	if err != nil {
		respondInternalError(c, err, "get all categories")
		return
	}
	c.JSON(http.StatusOK, all)
}

// Get returns a single category.
// GET /api/categories/:id
func (cc *CategoriesController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	category, err := cc.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, categories.ErrCategoryNotFound) {
			respondNotFound(c, "category")
			return
		}
		respondInternalError(c, err, "get category")
		return
	}
	c.JSON(http.StatusOK, category)
}

// Create adds a new category.
// POST /api/categories
func (cc *CategoriesController) Create(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "name is required")
		return
	}

	category, err := cc.repo.Create(req.Name)
	if err != nil {
		if errors.Is(err, categories.ErrCategoryExists) {
			respondConflict(c, "category already exists")
			return
		}
		respondInternalError(c, err, "create category")
		return
	}
	respondCreated(c, category)
}

// Rename changes a category's name.
// PUT /api/categories/:id
func (cc *CategoriesController) Rename(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "name is required")
		return
	}

	category, err := cc.repo.Rename(id, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, categories.ErrCategoryNotFound):
			respondNotFound(c, "category")
		case errors.Is(err, categories.ErrCategoryExists):
			respondConflict(c, "category already exists")
		default:
			respondInternalError(c, err, "rename category")
		}
		return
	}
	c.JSON(http.StatusOK, category)
}

// Delete removes a category. Refused while books still reference it.
// DELETE /api/categories/:id
func (cc *CategoriesController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := cc.repo.Delete(id); err != nil {
		switch {
		case errors.Is(err, categories.ErrCategoryNotFound):
			respondNotFound(c, "category")
		case errors.Is(err, categories.ErrCategoryInUse):
			respondConflict(c, "category still has books assigned")
		default:
			respondInternalError(c, err, "delete category")
		}
		return
	}
	respondSuccess(c, "category deleted")
}

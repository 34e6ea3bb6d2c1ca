package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/01moynul/stockroom/internal/models"
	"github.com/01moynul/stockroom/internal/validation"
)

// activeOnly reads ?active=true, used by the item form dropdowns.
func activeOnly(c *gin.Context) bool {
	return c.Query("active") == "true"
}

// --- Category Handlers ---

func (h *Handlers) GetAllCategories(c *gin.Context) {
	categories, err := h.Catalog.ListCategories(c.Request.Context(), activeOnly(c))
	if err != nil {
		respondError(c, err, "Failed to fetch categories")
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

func (h *Handlers) CreateCategory(c *gin.Context) {
	var input models.CategoryInput
	if !bindJSON(c, &input, "Validation failed") {
		return
	}
	if err := validation.Category(&input); err != nil {
		respondError(c, err, "Failed to create category")
		return
	}

	category, err := h.Catalog.CreateCategory(c.Request.Context(), input)
	if err != nil {
		respondError(c, err, "Failed to create category")
		return
	}
	c.JSON(http.StatusCreated, category)
}

func (h *Handlers) UpdateCategory(c *gin.Context) {
	var input models.UpdateCategoryInput
	if !bindJSON(c, &input, "Validation failed") {
		return
	}
	if err := validation.UpdateCategory(&input); err != nil {
		respondError(c, err, "Failed to update category")
		return
	}

	category, err := h.Catalog.UpdateCategory(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		respondError(c, err, "Failed to update category")
		return
	}
	c.JSON(http.StatusOK, category)
}

func (h *Handlers) DeleteCategory(c *gin.Context) {
	if err := h.Catalog.DeleteCategory(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err, "Failed to delete category")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// --- Supplier Handlers ---

func (h *Handlers) GetAllSuppliers(c *gin.Context) {
	suppliers, err := h.Catalog.ListSuppliers(c.Request.Context(), activeOnly(c))
	if err != nil {
		respondError(c, err, "Failed to fetch suppliers")
		return
	}
	c.JSON(http.StatusOK, gin.H{"suppliers": suppliers})
}

func (h *Handlers) CreateSupplier(c *gin.Context) {
	var input models.SupplierInput
	if !bindJSON(c, &input, "Validation failed") {
		return
	}
	if err := validation.Supplier(&input); err != nil {
		respondError(c, err, "Failed to create supplier")
		return
	}

	supplier, err := h.Catalog.CreateSupplier(c.Request.Context(), input)
	if err != nil {
		respondError(c, err, "Failed to create supplier")
		return
	}
	c.JSON(http.StatusCreated, supplier)
}

func (h *Handlers) UpdateSupplier(c *gin.Context) {
	var input models.UpdateSupplierInput
	if !bindJSON(c, &input, "Validation failed") {
		return
	}
	if err := validation.UpdateSupplier(&input); err != nil {
		respondError(c, err, "Failed to update supplier")
		return
	}

	supplier, err := h.Catalog.UpdateSupplier(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		respondError(c, err, "Failed to update supplier")
		return
	}
	c.JSON(http.StatusOK, supplier)
}

func (h *Handlers) DeleteSupplier(c *gin.Context) {
	if err := h.Catalog.DeleteSupplier(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err, "Failed to delete supplier")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// --- Storage Location Handlers ---

func (h *Handlers) GetAllLocations(c *gin.Context) {
	locations, err := h.Catalog.ListLocations(c.Request.Context(), activeOnly(c))
	if err != nil {
		respondError(c, err, "Failed to fetch storage locations")
		return
	}
	c.JSON(http.StatusOK, gin.H{"locations": locations})
}

func (h *Handlers) CreateLocation(c *gin.Context) {
	var input models.StorageLocationInput
	if !bindJSON(c, &input, "Validation failed") {
		return
	}
	if err := validation.StorageLocation(&input); err != nil {
		respondError(c, err, "Failed to create storage location")
		return
	}

	location, err := h.Catalog.CreateLocation(c.Request.Context(), input)
	if err != nil {
		respondError(c, err, "Failed to create storage location")
		return
	}
	c.JSON(http.StatusCreated, location)
}

func (h *Handlers) UpdateLocation(c *gin.Context) {
	var input models.UpdateStorageLocationInput
	if !bindJSON(c, &input, "Validation failed") {
		return
	}
	if err := validation.UpdateStorageLocation(&input); err != nil {
		respondError(c, err, "Failed to update storage location")
		return
	}

	location, err := h.Catalog.UpdateLocation(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		respondError(c, err, "Failed to update storage location")
		return
	}
	c.JSON(http.StatusOK, location)
}

func (h *Handlers) DeleteLocation(c *gin.Context) {
	if err := h.Catalog.DeleteLocation(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err, "Failed to delete storage location")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"library-backend/internal/domains/book/model"
	"library-backend/internal/domains/book/service"
	"library-backend/internal/shared/response"
)

type Handler struct {
	service service.ServiceInterface
}

// NewHandler creates a new book handler
func NewHandler(service service.ServiceInterface) *Handler {
	return &Handler{
		service: service,
	}
}

// CreateBook handles POST /api/v1/books
func (h *Handler) CreateBook(c *gin.Context) {
	var req model.CreateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "INVALID_PAYLOAD", err.Error())
		return
	}

	book, err := h.service.CreateBook(c.Request.Context(), req)
	if err != nil {
		if model.IsValidationError(err) {
			response.ErrorResponse(c, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
			return
		}
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_FAILED", "invalid book", err.Error())
		return
	}

	response.Success(c, http.StatusCreated, book)
}

// GetBook handles GET /api/v1/books/:id
func (h *Handler) GetBook(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "INVALID_ID", "invalid book ID format")
		return
	}

	book, err := h.service.GetBook(c.Request.Context(), id)
	if err != nil {
		if model.IsNotFoundError(err) {
			response.ErrorResponse(c, http.StatusNotFound, "NOT_FOUND", err.Error())
			return
		}
		response.ErrorResponse(c, http.StatusInternalServerError, "INTERNAL", "failed to get book")
		return
	}

	response.Success(c, http.StatusOK, book)
}

// ListBooks handles GET /api/v1/books
func (h *Handler) ListBooks(c *gin.Context) {
	var req model.ListBooksRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "INVALID_QUERY", err.Error())
		return
	}

	result, err := h.service.ListBooks(c.Request.Context(), req)
	if err != nil {
		response.ErrorResponse(c, http.StatusInternalServerError, "INTERNAL", "failed to list books")
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, result.Items, &response.Meta{
		Page:  result.Page,
		Limit: result.Limit,
		Total: result.TotalItems,
	})
}

// UpdateBook handles PATCH /api/v1/books/:id
func (h *Handler) UpdateBook(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "INVALID_ID", "invalid book ID format")
		return
	}

	var req model.UpdateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "INVALID_PAYLOAD", err.Error())
		return
	}

	book, err := h.service.UpdateBook(c.Request.Context(), id, req)
	if err != nil {
		switch {
		case model.IsNotFoundError(err):
			response.ErrorResponse(c, http.StatusNotFound, "NOT_FOUND", err.Error())
		case model.IsValidationError(err):
			response.ErrorResponse(c, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
		default:
			response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_FAILED", "invalid book", err.Error())
		}
		return
	}

	response.Success(c, http.StatusOK, book)
}

// DeleteBook handles DELETE /api/v1/books/:id
func (h *Handler) DeleteBook(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "INVALID_ID", "invalid book ID format")
		return
	}

	if err := h.service.DeleteBook(c.Request.Context(), id); err != nil {
		switch {
		case model.IsNotFoundError(err):
			response.ErrorResponse(c, http.StatusNotFound, "NOT_FOUND", err.Error())
		case errors.Is(err, model.ErrBookHasBorrowings):
			response.ErrorResponse(c, http.StatusConflict, "CONFLICT", err.Error())
		default:
			response.ErrorResponse(c, http.StatusInternalServerError, "INTERNAL", "failed to delete book")
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": id})
}

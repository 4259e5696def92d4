package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	bookModel "library-backend/internal/domains/book/model"
	"library-backend/internal/domains/borrowing/model"
	"library-backend/internal/domains/borrowing/service"
	"library-backend/internal/infrastructure/notifier"
	"library-backend/internal/shared/middleware"
	"library-backend/internal/shared/response"
)

type Handler struct {
	service service.ServiceInterface
}

// NewHandler creates a new borrowing handler
func NewHandler(service service.ServiceInterface) *Handler {
	return &Handler{
		service: service,
	}
}

// CreateBorrowing handles POST /api/v1/borrowings
func (h *Handler) CreateBorrowing(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.ErrorResponse(c, http.StatusUnauthorized, "UNAUTHORIZED", "not authenticated")
		return
	}

	var req model.CreateBorrowingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "INVALID_PAYLOAD", err.Error())
		return
	}

	borrowing, err := h.service.CreateBorrowing(c.Request.Context(), userID, req)
	if err != nil {
		switch {
		case errors.Is(err, notifier.ErrDeliveryFailed):
			// The loan is committed; only the notification failed.
			response.ErrorWithDetails(c, http.StatusBadGateway, "NOTIFICATION_FAILED",
				"borrowing was created but the notification could not be delivered", borrowing)
		case errors.Is(err, model.ErrInvalidDateRange):
			response.ErrorResponse(c, http.StatusBadRequest, "INVALID_DATE_RANGE", err.Error())
		case errors.Is(err, model.ErrActiveBorrowingExists):
			response.ErrorResponse(c, http.StatusConflict, "ACTIVE_BORROWING_EXISTS", err.Error())
		case bookModel.IsOutOfStockError(err):
			response.ErrorResponse(c, http.StatusConflict, "OUT_OF_STOCK", err.Error())
		case bookModel.IsNotFoundError(err):
			response.ErrorResponse(c, http.StatusNotFound, "BOOK_NOT_FOUND", err.Error())
		case errors.Is(err, model.ErrTransactionConflict):
			response.ErrorResponse(c, http.StatusServiceUnavailable, "TRANSACTION_CONFLICT", err.Error())
		default:
			response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_FAILED", "invalid borrowing", err.Error())
		}
		return
	}

	response.Success(c, http.StatusCreated, borrowing)
}

// ReturnBorrowing handles POST /api/v1/borrowings/:id/return
func (h *Handler) ReturnBorrowing(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "INVALID_ID", "invalid borrowing ID format")
		return
	}

	if !h.canAccess(c, id) {
		return
	}

	borrowing, err := h.service.ReturnBorrowing(c.Request.Context(), id)
	if err != nil {
		switch {
		case model.IsNotFoundError(err):
			response.ErrorResponse(c, http.StatusNotFound, "NOT_FOUND", err.Error())
		case errors.Is(err, model.ErrAlreadyReturned):
			response.ErrorResponse(c, http.StatusConflict, "ALREADY_RETURNED", err.Error())
		case errors.Is(err, model.ErrTransactionConflict):
			response.ErrorResponse(c, http.StatusServiceUnavailable, "TRANSACTION_CONFLICT", err.Error())
		default:
			response.ErrorResponse(c, http.StatusInternalServerError, "INTERNAL", "failed to return borrowing")
		}
		return
	}

	response.Success(c, http.StatusOK, borrowing)
}

// GetBorrowing handles GET /api/v1/borrowings/:id
func (h *Handler) GetBorrowing(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "INVALID_ID", "invalid borrowing ID format")
		return
	}

	if !h.canAccess(c, id) {
		return
	}

	borrowing, err := h.service.GetBorrowing(c.Request.Context(), id)
	if err != nil {
		if model.IsNotFoundError(err) {
			response.ErrorResponse(c, http.StatusNotFound, "NOT_FOUND", err.Error())
			return
		}
		response.ErrorResponse(c, http.StatusInternalServerError, "INTERNAL", "failed to get borrowing")
		return
	}

	response.Success(c, http.StatusOK, borrowing)
}

// ListBorrowings handles GET /api/v1/borrowings?user=<uuid>&is_active=true
func (h *Handler) ListBorrowings(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.ErrorResponse(c, http.StatusUnauthorized, "UNAUTHORIZED", "not authenticated")
		return
	}

	var req model.ListBorrowingsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "INVALID_QUERY", err.Error())
		return
	}

	// Regular users only see their own loans; the user filter is a
	// staff feature.
	if !middleware.IsStaff(c) {
		req.UserID = &userID
	}

	result, err := h.service.ListBorrowings(c.Request.Context(), req)
	if err != nil {
		response.ErrorResponse(c, http.StatusInternalServerError, "INTERNAL", "failed to list borrowings")
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, result.Items, &response.Meta{
		Page:  result.Page,
		Limit: result.Limit,
		Total: result.TotalItems,
	})
}

// canAccess enforces ownership on single-record routes: staff see
// everything, regular users only their own loans. Writes a response and
// returns false on denial.
func (h *Handler) canAccess(c *gin.Context, borrowingID uuid.UUID) bool {
	if middleware.IsStaff(c) {
		return true
	}

	userID, ok := middleware.UserID(c)
	if !ok {
		response.ErrorResponse(c, http.StatusUnauthorized, "UNAUTHORIZED", "not authenticated")
		return false
	}

	borrowing, err := h.service.GetBorrowing(c.Request.Context(), borrowingID)
	if err != nil {
		if model.IsNotFoundError(err) {
			response.ErrorResponse(c, http.StatusNotFound, "NOT_FOUND", err.Error())
			return false
		}
		response.ErrorResponse(c, http.StatusInternalServerError, "INTERNAL", "failed to load borrowing")
		return false
	}

	if borrowing.UserID != userID {
		response.ErrorResponse(c, http.StatusForbidden, "FORBIDDEN", "borrowing belongs to another user")
		return false
	}

	return true
}

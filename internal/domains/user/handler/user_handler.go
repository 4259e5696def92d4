package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"library-backend/internal/domains/user/model"
	"library-backend/internal/domains/user/service"
	"library-backend/internal/shared/middleware"
	"library-backend/internal/shared/response"
)

type Handler struct {
	service service.ServiceInterface
}

// NewHandler creates a new user handler
func NewHandler(service service.ServiceInterface) *Handler {
	return &Handler{
		service: service,
	}
}

// Register handles POST /api/v1/auth/register
func (h *Handler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "INVALID_PAYLOAD", err.Error())
		return
	}

	user, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, model.ErrEmailTaken) {
			response.ErrorResponse(c, http.StatusConflict, "EMAIL_TAKEN", err.Error())
			return
		}
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_FAILED", "invalid registration", err.Error())
		return
	}

	response.Success(c, http.StatusCreated, user)
}

// Login handles POST /api/v1/auth/login
func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "INVALID_PAYLOAD", err.Error())
		return
	}

	tokens, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, model.ErrInvalidCredentials) {
			response.ErrorResponse(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", err.Error())
			return
		}
		response.ErrorResponse(c, http.StatusInternalServerError, "INTERNAL", "login failed")
		return
	}

	response.Success(c, http.StatusOK, tokens)
}

// Refresh handles POST /api/v1/auth/refresh
func (h *Handler) Refresh(c *gin.Context) {
	var req model.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "INVALID_PAYLOAD", err.Error())
		return
	}

	tokens, err := h.service.Refresh(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, model.ErrInvalidRefreshToken) {
			response.ErrorResponse(c, http.StatusUnauthorized, "INVALID_REFRESH_TOKEN", err.Error())
			return
		}
		response.ErrorResponse(c, http.StatusInternalServerError, "INTERNAL", "refresh failed")
		return
	}

	response.Success(c, http.StatusOK, tokens)
}

// Profile handles GET /api/v1/users/me
func (h *Handler) Profile(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.ErrorResponse(c, http.StatusUnauthorized, "UNAUTHORIZED", "not authenticated")
		return
	}

	user, err := h.service.GetProfile(c.Request.Context(), userID)
	if err != nil {
		if model.IsNotFoundError(err) {
			response.ErrorResponse(c, http.StatusNotFound, "NOT_FOUND", err.Error())
			return
		}
		response.ErrorResponse(c, http.StatusInternalServerError, "INTERNAL", "failed to load profile")
		return
	}

	response.Success(c, http.StatusOK, user)
}

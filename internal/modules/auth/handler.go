package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"hotelbooking/internal/middleware"
	"hotelbooking/internal/pkg/response"
	"hotelbooking/internal/pkg/validator"
	"hotelbooking/internal/repository"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterPublicRoutes(v1 *gin.RouterGroup) {
	g := v1.Group("/auth")
	g.POST("/register", h.Register)
	g.POST("/login", h.Login)
}

func (h *Handler) RegisterProtectedRoutes(protected *gin.RouterGroup) {
	protected.GET("/users/me", h.GetMe)
}

func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request body", gin.H{
			"code":   "VALIDATION_ERROR",
			"fields": validator.Fields(err),
		})
		return
	}

	user, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, ErrEmailAlreadyExists) {
			response.Error(c, http.StatusConflict, "email already registered", gin.H{"code": "EMAIL_ALREADY_EXISTS"})
			return
		}
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, toPublic(user), "registered")
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request body", gin.H{
			"code":   "VALIDATION_ERROR",
			"fields": validator.Fields(err),
		})
		return
	}

	user, token, err := h.service.Login(c.Request.Context(), req)
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		response.Error(c, http.StatusUnauthorized, "email or password is incorrect", gin.H{"code": "INVALID_CREDENTIALS"})
		return
	case errors.Is(err, ErrAccountLocked):
		response.Error(c, http.StatusTooManyRequests, "too many failed attempts, try again later", gin.H{"code": "ACCOUNT_LOCKED"})
		return
	case err != nil:
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, LoginResponse{User: toPublic(user), Token: token}, "logged in")
}

func (h *Handler) GetMe(c *gin.Context) {
	user, err := h.service.GetCurrentUser(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.Error(c, http.StatusNotFound, "user not found", gin.H{"code": "USER_NOT_FOUND"})
			return
		}
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, toPublic(user), "profile loaded")
}

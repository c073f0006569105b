package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"fiscalflow/auth"
	"fiscalflow/logger"
)

type authHandler struct {
	svc *auth.Service
	log *logger.Logger
}

func newAuthHandler(svc *auth.Service, log *logger.Logger) *authHandler {
	return &authHandler{svc: svc, log: log}
}

type operatorResponse struct {
	ID       string    `json:"id"`
	Email    string    `json:"email"`
	FullName string    `json:"full_name"`
	Role     auth.Role `json:"role"`
}

func toOperatorResponse(op auth.Operator) operatorResponse {
	return operatorResponse{
		ID:       op.ID,
		Email:    op.Email,
		FullName: op.FullName,
		Role:     op.Role,
	}
}

func (h *authHandler) Register(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	op, err := h.svc.Register(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrDuplicateEmail):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, auth.ErrWeakPassword):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.log.Error("auth.register", "error", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusCreated, toOperatorResponse(*op))
}

func (h *authHandler) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := h.svc.Login(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		h.log.Error("auth.login", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":    result.Token,
		"operator": toOperatorResponse(result.Operator),
	})
}

package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"academic-records-core/internal/core/auth"
	"academic-records-core/internal/domain"
	resp "academic-records-core/internal/transport/http/response"
	"academic-records-core/pkg/utils"
)

// Login verifies credentials against the user table and issues a JWT.
// Credential handling stays on this side of the boundary; the data
// layer only ever sees the opaque password column.
func (h *Handlers) Login(c *gin.Context) {
	var in struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusOK, resp.Error(resp.CodeBadRequest, err.Error()))
		return
	}
	u, err := h.Users.FindByEmail(c.Request.Context(), in.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusOK, resp.Error(resp.CodeUnauthorized, "invalid credentials"))
			return
		}
		c.JSON(http.StatusOK, resp.FromError(err))
		return
	}
	if !utils.CheckPassword(in.Password, u.Password) {
		c.JSON(http.StatusOK, resp.Error(resp.CodeUnauthorized, "invalid credentials"))
		return
	}
	token, err := h.JWT.Issue(u.ID, string(u.Role))
	if err != nil {
		c.JSON(http.StatusOK, resp.Error(resp.CodeServerError, "token issue failed"))
		return
	}
	respond(c, gin.H{"token": token, "user": u}, nil)
}

func (h *Handlers) Register(c *gin.Context) {
	var in struct {
		Name     string `json:"name" binding:"required,max=128"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusOK, resp.Error(resp.CodeBadRequest, err.Error()))
		return
	}
	u := &domain.User{
		Name:     in.Name,
		Email:    in.Email,
		Password: utils.HashPassword(in.Password),
		Role:     domain.RoleStudent,
	}
	if err := h.Users.Create(c.Request.Context(), u); err != nil {
		c.JSON(http.StatusOK, resp.FromError(err))
		return
	}
	respond(c, u, nil)
}

// Me returns the account of the authenticated caller.
func (h *Handlers) Me(c *gin.Context) {
	claims, ok := c.MustGet("claims").(*auth.Claims)
	if !ok {
		c.JSON(http.StatusOK, resp.Error(resp.CodeUnauthorized, "missing claims"))
		return
	}
	u, err := h.Users.FindByID(c.Request.Context(), claims.UID)
	respond(c, u, err)
}

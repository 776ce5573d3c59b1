package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"academic-records-core/internal/domain"
	"academic-records-core/internal/repo"
	resp "academic-records-core/internal/transport/http/response"
)

func (h *Handlers) ListUsers(c *gin.Context) {
	var q struct {
		pageQ
		Role string `form:"role"`
		Q    string `form:"q"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusOK, resp.Error(resp.CodeBadRequest, err.Error()))
		return
	}
	f := repo.UserFilter{Role: domain.Role(q.Role), Search: q.Q}
	users, err := h.Users.FindAll(c.Request.Context(), f, q.Limit, q.Offset)
	respond(c, users, err)
}

func (h *Handlers) GetUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	u, err := h.Users.FindByID(c.Request.Context(), id)
	respond(c, u, err)
}

func (h *Handlers) UpdateUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var p domain.UserPatch
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusOK, resp.Error(resp.CodeBadRequest, err.Error()))
		return
	}
	u, err := h.Users.Update(c.Request.Context(), id, p)
	respond(c, u, err)
}

// RiskSweep reclassifies every active student.
func (h *Handlers) RiskSweep(c *gin.Context) {
	changed, err := h.Engine.RecomputeActive(c.Request.Context())
	respond(c, gin.H{"changed": changed}, err)
}

// FlushCaches drops every repository cache unconditionally.
func (h *Handlers) FlushCaches(c *gin.Context) {
	ctx := c.Request.Context()
	for _, clear := range []func() error{
		func() error { return h.Users.ClearCache(ctx) },
		func() error { return h.Students.ClearCache(ctx) },
		func() error { return h.Alerts.ClearCache(ctx) },
		func() error { return h.Resources.ClearCache(ctx) },
	} {
		if err := clear(); err != nil {
			c.JSON(http.StatusOK, resp.FromError(err))
			return
		}
	}
	respond(c, gin.H{"flushed": true}, nil)
}

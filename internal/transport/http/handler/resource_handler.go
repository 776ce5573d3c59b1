package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"academic-records-core/internal/domain"
	"academic-records-core/internal/repo"
	resp "academic-records-core/internal/transport/http/response"
)

func (h *Handlers) ListResources(c *gin.Context) {
	var q struct {
		pageQ
		Type     string `form:"type"`
		Category string `form:"category"`
		Active   bool   `form:"active,default=true"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusOK, resp.Error(resp.CodeBadRequest, err.Error()))
		return
	}
	f := repo.ResourceFilter{Type: q.Type, Category: q.Category, ActiveOnly: q.Active}
	rows, err := h.Resources.FindAll(c.Request.Context(), f, q.Limit, q.Offset)
	respond(c, rows, err)
}

func (h *Handlers) GetResource(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	r, err := h.Resources.FindByID(c.Request.Context(), id)
	respond(c, r, err)
}

// ListResourcesByCareer serves the career view: exact matches first,
// then general material.
func (h *Handlers) ListResourcesByCareer(c *gin.Context) {
	var q pageQ
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusOK, resp.Error(resp.CodeBadRequest, err.Error()))
		return
	}
	rows, err := h.Resources.FindByCareer(c.Request.Context(), c.Param("career"), q.Limit, q.Offset)
	respond(c, rows, err)
}

func (h *Handlers) SearchResources(c *gin.Context) {
	var q struct {
		pageQ
		Q string `form:"q" binding:"required"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusOK, resp.Error(resp.CodeBadRequest, err.Error()))
		return
	}
	rows, err := h.Resources.Search(c.Request.Context(), q.Q, q.Limit, q.Offset)
	respond(c, rows, err)
}

func (h *Handlers) CreateResource(c *gin.Context) {
	var r domain.Resource
	if err := c.ShouldBindJSON(&r); err != nil {
		c.JSON(http.StatusOK, resp.Error(resp.CodeBadRequest, err.Error()))
		return
	}
	err := h.Resources.Create(c.Request.Context(), &r)
	respond(c, r, err)
}

func (h *Handlers) UpdateResource(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var p domain.ResourcePatch
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusOK, resp.Error(resp.CodeBadRequest, err.Error()))
		return
	}
	r, err := h.Resources.Update(c.Request.Context(), id, p)
	respond(c, r, err)
}

func (h *Handlers) DeleteResource(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	respond(c, gin.H{"deleted": id}, h.Resources.Delete(c.Request.Context(), id))
}

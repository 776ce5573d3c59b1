package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"academic-records-core/internal/domain"
	"academic-records-core/internal/repo"
	resp "academic-records-core/internal/transport/http/response"
)

func alertFilter(c *gin.Context) repo.AlertFilter {
	return repo.AlertFilter{
		Severity: domain.Severity(c.Query("severity")),
		Status:   domain.AlertStatus(c.Query("status")),
		Type:     c.Query("type"),
	}
}

func (h *Handlers) ListAlerts(c *gin.Context) {
	var q struct {
		pageQ
		WithStudent bool `form:"with_student"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusOK, resp.Error(resp.CodeBadRequest, err.Error()))
		return
	}
	if q.WithStudent {
		rows, err := h.Alerts.FindAllWithStudent(c.Request.Context(), alertFilter(c), q.Limit, q.Offset)
		respond(c, rows, err)
		return
	}
	rows, err := h.Alerts.FindAll(c.Request.Context(), alertFilter(c), q.Limit, q.Offset)
	respond(c, rows, err)
}

func (h *Handlers) GetAlert(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	a, err := h.Alerts.FindByID(c.Request.Context(), id)
	respond(c, a, err)
}

func (h *Handlers) ListStudentAlerts(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var q pageQ
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusOK, resp.Error(resp.CodeBadRequest, err.Error()))
		return
	}
	rows, err := h.Alerts.FindByStudent(c.Request.Context(), id, alertFilter(c), q.Limit, q.Offset)
	respond(c, rows, err)
}

func (h *Handlers) CreateAlert(c *gin.Context) {
	var a domain.Alert
	if err := c.ShouldBindJSON(&a); err != nil {
		c.JSON(http.StatusOK, resp.Error(resp.CodeBadRequest, err.Error()))
		return
	}
	err := h.Alerts.Create(c.Request.Context(), &a)
	respond(c, a, err)
}

func (h *Handlers) UpdateAlert(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var p domain.AlertPatch
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusOK, resp.Error(resp.CodeBadRequest, err.Error()))
		return
	}
	a, err := h.Alerts.Update(c.Request.Context(), id, p)
	respond(c, a, err)
}

func (h *Handlers) ResolveAlert(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	a, err := h.Alerts.Resolve(c.Request.Context(), id)
	respond(c, a, err)
}

func (h *Handlers) DeleteAlert(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	respond(c, gin.H{"deleted": id}, h.Alerts.Delete(c.Request.Context(), id))
}

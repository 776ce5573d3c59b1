package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"academic-records-core/internal/domain"
	"academic-records-core/internal/repo"
	resp "academic-records-core/internal/transport/http/response"
)

func (h *Handlers) ListStudents(c *gin.Context) {
	var q struct {
		pageQ
		Status   string `form:"status"`
		Career   string `form:"career"`
		Risk     string `form:"risk"`
		WithUser bool   `form:"with_user"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusOK, resp.Error(resp.CodeBadRequest, err.Error()))
		return
	}
	f := repo.StudentFilter{
		Status:    domain.StudentStatus(q.Status),
		Career:    q.Career,
		RiskLevel: domain.RiskLevel(q.Risk),
	}
	if q.WithUser {
		rows, err := h.Students.FindAllWithUser(c.Request.Context(), f, q.Limit, q.Offset)
		respond(c, rows, err)
		return
	}
	rows, err := h.Students.FindAll(c.Request.Context(), f, q.Limit, q.Offset)
	respond(c, rows, err)
}

func (h *Handlers) GetStudent(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	s, err := h.Students.FindByID(c.Request.Context(), id)
	respond(c, s, err)
}

func (h *Handlers) GetStudentByCode(c *gin.Context) {
	s, err := h.Students.FindByCode(c.Request.Context(), c.Param("code"))
	respond(c, s, err)
}

func (h *Handlers) SearchStudents(c *gin.Context) {
	var q struct {
		pageQ
		Q string `form:"q" binding:"required"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusOK, resp.Error(resp.CodeBadRequest, err.Error()))
		return
	}
	rows, err := h.Students.Search(c.Request.Context(), q.Q, q.Limit, q.Offset)
	respond(c, rows, err)
}

func (h *Handlers) CreateStudent(c *gin.Context) {
	var s domain.Student
	if err := c.ShouldBindJSON(&s); err != nil {
		c.JSON(http.StatusOK, resp.Error(resp.CodeBadRequest, err.Error()))
		return
	}
	err := h.Students.Create(c.Request.Context(), &s)
	respond(c, s, err)
}

func (h *Handlers) UpdateStudent(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var p domain.StudentPatch
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusOK, resp.Error(resp.CodeBadRequest, err.Error()))
		return
	}
	s, err := h.Students.Update(c.Request.Context(), id, p)
	respond(c, s, err)
}

func (h *Handlers) DeleteStudent(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	respond(c, gin.H{"deleted": id}, h.Students.Delete(c.Request.Context(), id))
}

// RecomputeStudentRisk runs the classifier against the stored
// attributes and writes back a changed level.
func (h *Handlers) RecomputeStudentRisk(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	level, err := h.Engine.Recompute(c.Request.Context(), id)
	respond(c, gin.H{"riskLevel": level}, err)
}

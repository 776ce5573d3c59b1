// Package handler contains the thin pass-through surface over the
// data layer. Handlers bind parameters, call a repository or the risk
// engine, and wrap the outcome in the response envelope; no domain
// logic lives here.
package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"academic-records-core/internal/core/auth"
	"academic-records-core/internal/repo"
	"academic-records-core/internal/risk"
	resp "academic-records-core/internal/transport/http/response"
)

type Handlers struct {
	Users     *repo.UserRepo
	Students  *repo.StudentRepo
	Alerts    *repo.AlertRepo
	Resources *repo.ResourceRepo
	Engine    *risk.Engine
	JWT       *auth.JWTer
	Log       *zap.Logger
}

func respond(c *gin.Context, data any, err error) {
	if err != nil {
		c.JSON(http.StatusOK, resp.FromError(err))
		return
	}
	c.JSON(http.StatusOK, resp.OK(data))
}

func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusOK, resp.Error(resp.CodeBadRequest, "id must be a positive integer"))
		return 0, false
	}
	return uint(id), true
}

type pageQ struct {
	Limit  int `form:"limit,default=20"`
	Offset int `form:"offset,default=0"`
}
